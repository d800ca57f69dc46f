package jwt

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt"

	"ticketdesk/internal/app/user"
)

const (
	// IdentityExpiration is the default lifetime of identity tokens minted by this service's tooling.
	IdentityExpiration = 24 * time.Hour

	// TokenIssuer identifies the issuer of the token.
	TokenIssuer = "TicketDesk"
)

var (
	// ErrTokenExpired is returned for a well-formed token past its expiry.
	ErrTokenExpired = errors.New("identity token expired")

	// ErrTokenInvalid covers bad signatures, malformed tokens and unusable claims.
	ErrTokenInvalid = errors.New("identity token invalid")
)

// IssueIdentity signs an HS256 token carrying u, valid for ttl.
func IssueIdentity(u user.User, secretKey string, ttl time.Duration) (string, error) {
	if u.DisplayName == "" {
		u.DisplayName = u.ID
	}
	return GenerateToken(&Payload{ID: u.ID, Role: u.Role, DisplayName: u.DisplayName}, secretKey, ttl)
}

// GenerateToken fills the standard claims of payload and signs it.
func GenerateToken(payload *Payload, secretKey string, ttl time.Duration) (string, error) {
	issuedAt := time.Now()
	payload.StandardClaims = jwt.StandardClaims{
		Issuer:    TokenIssuer,
		Subject:   payload.ID,
		IssuedAt:  issuedAt.Unix(),
		ExpiresAt: issuedAt.Add(ttl).Unix(),
	}

	return jwt.NewWithClaims(jwt.SigningMethodHS256, payload).SignedString([]byte(secretKey))
}

// ParseToken verifies tokenString and returns its claims. Failures wrap
// ErrTokenExpired or ErrTokenInvalid.
func ParseToken(tokenString string, secretKey string) (*Payload, error) {
	payload := &Payload{}

	_, err := jwt.ParseWithClaims(tokenString, payload, func(token *jwt.Token) (interface{}, error) {
		if token.Method != jwt.SigningMethodHS256 {
			return nil, fmt.Errorf("signing method %v not accepted", token.Header["alg"])
		}
		return []byte(secretKey), nil
	})
	if err == nil {
		return payload, nil
	}

	var validationErr *jwt.ValidationError
	if errors.As(err, &validationErr) && validationErr.Errors&jwt.ValidationErrorExpired != 0 {
		return nil, fmt.Errorf("%w: %v", ErrTokenExpired, err)
	}
	return nil, fmt.Errorf("%w: %v", ErrTokenInvalid, err)
}
