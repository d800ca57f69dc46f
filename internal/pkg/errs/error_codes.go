/*
Package errs provides custom error types and application-level error code constants.

These error codes identify specific business or system errors both internally and
in communication with clients, over HTTP as well as over the realtime socket.
*/
package errs

// 1xxx: General Request Handling Errors
const (
	// ErrInvalidParams indicates that request or event parameter validation failed.
	ErrInvalidParams = 1001

	// ErrUnsupportedMediaType indicates that the request header Content-Type is not supported.
	ErrUnsupportedMediaType = 1002

	// ErrInvalidJSONFormat indicates that the request body or event payload is not valid JSON.
	ErrInvalidJSONFormat = 1003

	// ErrExtraContentInBody indicates that the request body contained extra content after valid JSON data.
	ErrExtraContentInBody = 1004

	// ErrFormParseFailed indicates failure to parse multipart or URL-encoded form data.
	ErrFormParseFailed = 1005

	// ErrRequestEntityTooLarge indicates that the request body size exceeded the server limit.
	ErrRequestEntityTooLarge = 1006

	// ErrRateLimitExceeded indicates that the request rate has exceeded the set limit.
	ErrRateLimitExceeded = 1007

	// ErrUnsupportedEvent indicates that a socket event type is not recognised.
	ErrUnsupportedEvent = 1008
)

// 2xxx: Ticket, Room and Content Business Logic Errors
const (
	// ErrStatusInvalid indicates an unknown ticket status value.
	ErrStatusInvalid = 2101

	// ErrStatusUnchanged indicates an explicit status update to the ticket's current status.
	ErrStatusUnchanged = 2102

	// ErrTicketNotFound indicates that the referenced ticket does not exist.
	ErrTicketNotFound = 2103

	// ErrPriorityInvalid indicates an unknown ticket priority value.
	ErrPriorityInvalid = 2104

	// ErrMessageNotFound indicates that a referenced message id does not exist on the ticket.
	ErrMessageNotFound = 2105

	// ErrTicketExists indicates a ticket id collision on creation.
	ErrTicketExists = 2106

	// ErrNotInRoom indicates that the connection has not joined the ticket room it addressed.
	ErrNotInRoom = 2107

	// ErrMessageContentTooLong indicates that the message body exceeded the maximum length limit.
	ErrMessageContentTooLong = 2201

	// ErrMessageContentEmpty indicates that the message body was empty.
	ErrMessageContentEmpty = 2202

	// ErrMessageKindInvalid indicates an unknown or client-forbidden message kind.
	ErrMessageKindInvalid = 2203

	// ErrFileSizeTooLarge indicates that an attachment exceeded the size limit.
	ErrFileSizeTooLarge = 2301

	// ErrAttachmentCountInvalid indicates a wrong number of attachments for the message kind.
	ErrAttachmentCountInvalid = 2302

	// ErrAttachmentKeyInvalid indicates an attachment key outside the ticket's key space or missing from storage.
	ErrAttachmentKeyInvalid = 2303

	// ErrAttachmentTypeInvalid indicates a disallowed attachment file type.
	ErrAttachmentTypeInvalid = 2304
)

// 3xxx: User, Session, and Security Errors
const (
	// ErrPowChallengeRequired indicates the client must complete a Proof-of-Work challenge first.
	ErrPowChallengeRequired = 3001

	// ErrPowChallengeInvalid indicates that the PoW proof provided by the client is invalid or incorrect.
	ErrPowChallengeInvalid = 3002

	// ErrSessionKicked indicates that the connection was replaced by a newer one for the same user.
	ErrSessionKicked = 3004

	// ErrAccessDenied indicates that the actor may not act on the ticket or operation.
	ErrAccessDenied = 3005

	// ErrNotAuthenticated indicates an event received before user:register completed.
	ErrNotAuthenticated = 3006

	// ErrUnauthorized indicates a missing or invalid identity token.
	ErrUnauthorized = 3007

	// ErrRoleInvalid indicates an identity carrying an unknown role.
	ErrRoleInvalid = 3008
)

// 5xxx: Internal System Errors
const (
	// ErrUnknown represents an unclassified, general server internal error.
	ErrUnknown = 5000

	// ErrStoreUnavailable indicates the ticket store could not complete the operation.
	ErrStoreUnavailable = 5001

	// ErrFileStorageFailed indicates an attachment storage failure.
	ErrFileStorageFailed = 5002

	// ErrFileStorageDisabled indicates that attachment storage is not configured.
	ErrFileStorageDisabled = 5003
)
