/*
Command issuetoken mints identity tokens for local development and testing.

	issuetoken --uid sup-1 --role supervisor --name "Sam" [--ttl 24h] [--env-file .env]

The token is signed with JWT_SECRET (default development secret when unset) and
can be passed as a Bearer header or as ?token= on the websocket URL.
*/
package main

import (
	"fmt"
	"io"
	"os"
	"time"

	"github.com/spf13/pflag"

	"ticketdesk/internal/app/user"
	"ticketdesk/internal/configs"
	"ticketdesk/internal/pkg/auth/jwt"
)

func main() {
	if err := run(os.Args[1:], os.Stdout); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run(args []string, out io.Writer) error {
	var (
		uid     string
		role    string
		name    string
		ttl     time.Duration
		envFile string
	)

	flags := pflag.NewFlagSet("issuetoken", pflag.ContinueOnError)
	flags.StringVar(&uid, "uid", "", "user id carried by the token (required)")
	flags.StringVar(&role, "role", string(user.RoleCandidate), "role: administrator, supervisor or candidate")
	flags.StringVar(&name, "name", "", "display name (defaults to the user id)")
	flags.DurationVar(&ttl, "ttl", jwt.IdentityExpiration, "token lifetime")
	flags.StringVar(&envFile, "env-file", "", "load environment variables from this file first")

	if err := flags.Parse(args); err != nil {
		return err
	}

	if uid == "" {
		return fmt.Errorf("--uid is required")
	}
	if !user.Role(role).Valid() {
		return fmt.Errorf("unknown role %q", role)
	}
	if ttl <= 0 {
		return fmt.Errorf("--ttl must be positive")
	}

	var envFiles []string
	if envFile != "" {
		envFiles = append(envFiles, envFile)
	}
	cfg, err := configs.LoadConfig(envFiles...)
	if err != nil {
		return err
	}

	token, err := jwt.IssueIdentity(user.User{
		ID:          uid,
		Role:        user.Role(role),
		DisplayName: name,
	}, cfg.JWTSecret, ttl)
	if err != nil {
		return fmt.Errorf("sign token: %w", err)
	}

	_, err = fmt.Fprintln(out, token)
	return err
}
