package main

import (
	"bytes"
	"strings"
	"testing"

	"ticketdesk/internal/app/user"
	"ticketdesk/internal/pkg/auth/jwt"
)

func TestRunIssuesParsableToken(t *testing.T) {
	t.Setenv("ENVIRONMENT", "development")
	t.Setenv("STORE_DRIVER", "memory")
	t.Setenv("JWT_SECRET", "cli-secret")

	var out bytes.Buffer
	if err := run([]string{"--uid", "sup-1", "--role", "supervisor", "--name", "Sam"}, &out); err != nil {
		t.Fatalf("run() error = %v", err)
	}

	payload, err := jwt.ParseToken(strings.TrimSpace(out.String()), "cli-secret")
	if err != nil {
		t.Fatalf("ParseToken() error = %v", err)
	}
	if u := payload.User(); u.ID != "sup-1" || u.Role != user.RoleSupervisor || u.DisplayName != "Sam" {
		t.Fatalf("user = %+v", u)
	}
}

func TestRunRejectsBadInput(t *testing.T) {
	t.Setenv("ENVIRONMENT", "development")
	t.Setenv("STORE_DRIVER", "memory")

	cases := map[string][]string{
		"missing uid":  {"--role", "candidate"},
		"unknown role": {"--uid", "u1", "--role", "root"},
		"zero ttl":     {"--uid", "u1", "--ttl", "0s"},
		"bad flag":     {"--nope"},
	}

	for name, args := range cases {
		var out bytes.Buffer
		if err := run(args, &out); err == nil {
			t.Errorf("%s: run() error = nil", name)
		}
	}
}
