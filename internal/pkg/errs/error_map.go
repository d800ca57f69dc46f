package errs

import "net/http"

// errorMap stores the CustomError template for every application error code.
var errorMap = map[int]CustomError{
	// 1xxx
	ErrInvalidParams:         {Code: ErrInvalidParams, Message: "Invalid request parameters.", Status: http.StatusBadRequest},
	ErrUnsupportedMediaType:  {Code: ErrUnsupportedMediaType, Message: "Unsupported request format.", Status: http.StatusUnsupportedMediaType},
	ErrInvalidJSONFormat:     {Code: ErrInvalidJSONFormat, Message: "Malformed JSON payload.", Status: http.StatusBadRequest},
	ErrExtraContentInBody:    {Code: ErrExtraContentInBody, Message: "Request contains unexpected data.", Status: http.StatusBadRequest},
	ErrFormParseFailed:       {Code: ErrFormParseFailed, Message: "Failed to process uploaded data.", Status: http.StatusBadRequest},
	ErrRequestEntityTooLarge: {Code: ErrRequestEntityTooLarge, Message: "Request size is too large.", Status: http.StatusRequestEntityTooLarge},
	ErrRateLimitExceeded:     {Code: ErrRateLimitExceeded, Message: "Too many requests. Please try again later.", Status: http.StatusTooManyRequests},
	ErrUnsupportedEvent:      {Code: ErrUnsupportedEvent, Message: "Unsupported event type %q.", Status: http.StatusBadRequest},

	// 2xxx
	ErrStatusInvalid:          {Code: ErrStatusInvalid, Message: "Invalid ticket status.", Status: http.StatusBadRequest},
	ErrStatusUnchanged:        {Code: ErrStatusUnchanged, Message: "Ticket is already %s.", Status: http.StatusConflict},
	ErrTicketNotFound:         {Code: ErrTicketNotFound, Message: "Ticket not found.", Status: http.StatusNotFound},
	ErrPriorityInvalid:        {Code: ErrPriorityInvalid, Message: "Invalid ticket priority.", Status: http.StatusBadRequest},
	ErrMessageNotFound:        {Code: ErrMessageNotFound, Message: "Message %s not found.", Status: http.StatusNotFound},
	ErrTicketExists:           {Code: ErrTicketExists, Message: "Ticket already exists.", Status: http.StatusConflict},
	ErrNotInRoom:              {Code: ErrNotInRoom, Message: "Join the ticket before interacting with it.", Status: http.StatusForbidden},
	ErrMessageContentTooLong:  {Code: ErrMessageContentTooLong, Message: "Message is too long (max %d characters).", Status: http.StatusBadRequest},
	ErrMessageContentEmpty:    {Code: ErrMessageContentEmpty, Message: "Message must not be empty.", Status: http.StatusBadRequest},
	ErrMessageKindInvalid:     {Code: ErrMessageKindInvalid, Message: "Invalid message type.", Status: http.StatusBadRequest},
	ErrFileSizeTooLarge:       {Code: ErrFileSizeTooLarge, Message: "File is too large.", Status: http.StatusBadRequest},
	ErrAttachmentCountInvalid: {Code: ErrAttachmentCountInvalid, Message: "Invalid number of attachments (max %d).", Status: http.StatusBadRequest},
	ErrAttachmentKeyInvalid:   {Code: ErrAttachmentKeyInvalid, Message: "Invalid attachment.", Status: http.StatusBadRequest},
	ErrAttachmentTypeInvalid:  {Code: ErrAttachmentTypeInvalid, Message: "File type is not allowed.", Status: http.StatusBadRequest},

	// 3xxx
	ErrPowChallengeRequired: {Code: ErrPowChallengeRequired, Message: "Verification required. Please try again.", Status: http.StatusForbidden},
	ErrPowChallengeInvalid:  {Code: ErrPowChallengeInvalid, Message: "Verification failed. Please try again.", Status: http.StatusForbidden},
	ErrSessionKicked:        {Code: ErrSessionKicked, Message: "You were signed in on another device."},
	ErrAccessDenied:         {Code: ErrAccessDenied, Message: "You do not have access to this ticket.", Status: http.StatusForbidden},
	ErrNotAuthenticated:     {Code: ErrNotAuthenticated, Message: "Register before sending events.", Status: http.StatusUnauthorized},
	ErrUnauthorized:         {Code: ErrUnauthorized, Message: "Please sign in to continue.", Status: http.StatusUnauthorized},
	ErrRoleInvalid:          {Code: ErrRoleInvalid, Message: "Unknown role.", Status: http.StatusForbidden},

	// 5xxx
	ErrUnknown:             {Code: ErrUnknown, Message: "Something went wrong. Please try again.", Status: http.StatusInternalServerError},
	ErrStoreUnavailable:    {Code: ErrStoreUnavailable, Message: "Ticket store is unavailable. Please resend.", Status: http.StatusServiceUnavailable},
	ErrFileStorageFailed:   {Code: ErrFileStorageFailed, Message: "File storage failed. Please try again.", Status: http.StatusBadGateway},
	ErrFileStorageDisabled: {Code: ErrFileStorageDisabled, Message: "Attachments are not enabled on this server.", Status: http.StatusNotImplemented},
}
