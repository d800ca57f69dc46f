package jwt

import (
	"github.com/golang-jwt/jwt"

	"ticketdesk/internal/app/user"
)

// Payload is the set of claims carried by an identity token. The token is the
// credential a connection presents; the identity provider that issues it is
// outside this service.
type Payload struct {
	jwt.StandardClaims

	// ID is the stable user identifier.
	ID string `json:"uid"`

	// Role is the role classification used for authorization.
	Role user.Role `json:"role"`

	// DisplayName is the human-readable name shown to other participants.
	DisplayName string `json:"name"`
}

// User converts the claims into a user identity.
func (p *Payload) User() user.User {
	return user.User{
		ID:          p.ID,
		Role:        p.Role,
		DisplayName: p.DisplayName,
	}
}

// Valid checks the standard claims and that the identity fields are usable.
func (p *Payload) Valid() error {
	if err := p.StandardClaims.Valid(); err != nil {
		return err
	}
	if p.ID == "" {
		return jwt.NewValidationError("missing uid claim", jwt.ValidationErrorClaimsInvalid)
	}
	if !p.Role.Valid() {
		return jwt.NewValidationError("unknown role claim", jwt.ValidationErrorClaimsInvalid)
	}
	return nil
}
