/*
Package randx generates identifiers: UUIDs for durable records and short
cryptographically random Base62 strings for transient connection ids.
*/
package randx

import (
	"crypto/rand"
	"fmt"
	"math/big"
	"strings"

	"github.com/google/uuid"
)

const (
	// Base62Chars defines the character set used for Base62 encoding (0-9, A-Z, a-z).
	Base62Chars = "0123456789ABCDEFGHIJKLMNOPQRSTUVWXYZabcdefghijklmnopqrstuvwxyz"

	// Base62Len is the total number of characters in the Base62 character set (62).
	Base62Len = int64(len(Base62Chars))

	// ConnectionIDPrefix marks transient connection identifiers in logs and payloads.
	ConnectionIDPrefix = "conn_"

	// ConnectionIDRawLength is the length of the random part of a connection id.
	ConnectionIDRawLength = 10
)

// Base62 returns n cryptographically random Base62 characters.
func Base62(n int) (string, error) {
	result := make([]byte, n)

	for i := range n {
		num, err := rand.Int(rand.Reader, big.NewInt(Base62Len))
		if err != nil {
			return "", fmt.Errorf("failed to generate random number: %w", err)
		}
		result[i] = Base62Chars[num.Int64()]
	}

	return string(result), nil
}

// ConnectionID returns a new transient connection identifier. If the system
// random source fails it falls back to a UUID-derived suffix.
func ConnectionID() string {
	raw, err := Base62(ConnectionIDRawLength)
	if err != nil {
		raw = strings.ReplaceAll(uuid.NewString(), "-", "")[:ConnectionIDRawLength]
	}
	return ConnectionIDPrefix + raw
}

// MessageID generates a UUID v4 string identifying a ticket message.
func MessageID() string {
	return uuid.New().String()
}

// TicketID generates a UUID v4 string identifying a ticket.
func TicketID() string {
	return uuid.New().String()
}
