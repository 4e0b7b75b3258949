// Package main provides a CLI tool for generating test tokens for the campus API.
// These tokens use the dev signing key unless one is given and will NOT work in production.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/google/uuid"

	jwttoken "campus/internal/jwt_token"
)

const (
	// Dev signing key - matches config.go when JWT_SIGNING_KEY is not set
	devSigningKey = "dev-secret-key-change-in-production"

	defaultIssuer   = "campus"
	defaultAudience = "campus-api"
	defaultTokenTTL = 15 * time.Minute
)

type tokenOutput struct {
	Token     string            `json:"token"`
	ExpiresIn string            `json:"expires_in"`
	Claims    map[string]any    `json:"claims"`
	Usage     map[string]string `json:"usage"`
}

type tokenFlags struct {
	subject    *string
	signingKey *string
	ttl        *time.Duration
	jsonOutput *bool
}

func bindTokenFlags(fs *flag.FlagSet) tokenFlags {
	return tokenFlags{
		subject:    fs.String("subject", "", "Token subject. Generated if empty."),
		signingKey: fs.String("signing-key", devSigningKey, "HS256 signing key (JWT_SIGNING_KEY)"),
		ttl:        fs.Duration("ttl", defaultTokenTTL, "Token time-to-live"),
		jsonOutput: fs.Bool("json", false, "Output as JSON"),
	}
}

func main() {
	userCmd := flag.NewFlagSet("user", flag.ExitOnError)
	userFlags := bindTokenFlags(userCmd)
	userPermissions := userCmd.String("permissions", "", "Comma-separated permissions")

	adminCmd := flag.NewFlagSet("admin", flag.ExitOnError)
	adminFlags := bindTokenFlags(adminCmd)

	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}

	switch os.Args[1] {
	case "user":
		userCmd.Parse(os.Args[2:]) //nolint:errcheck // ExitOnError
		generate(userFlags, parsePermissions(*userPermissions))
	case "admin":
		adminCmd.Parse(os.Args[2:]) //nolint:errcheck // ExitOnError
		generate(adminFlags, jwttoken.AllPermissions)
	case "help", "-h", "--help":
		printUsage()
	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n\n", os.Args[1])
		printUsage()
		os.Exit(1)
	}
}

func printUsage() {
	fmt.Println(`tokengen - Generate test tokens for the campus API

WARNING: These tokens use the dev signing key by default and will NOT work in production.
         Only use for local development and testing.

Usage:
  tokengen <command> [flags]

Commands:
  user      Generate a token for checkout, optionally with permissions
  admin     Generate a token carrying every admin permission

Examples:
  # Checkout token for a generated user
  tokengen user

  # Read-only payments token
  tokengen user -subject analyst-1 -permissions payments:read

  # Admin token valid for one hour
  tokengen admin -ttl 1h

  # Output as JSON
  tokengen admin -json

Use "tokengen <command> -h" for more information about a command.`)
}

func generate(f tokenFlags, permissions []string) {
	subject := *f.subject
	if subject == "" {
		subject = uuid.NewString()
	}
	svc := jwttoken.NewJWTService(*f.signingKey, defaultIssuer, defaultAudience, *f.ttl)
	token, err := svc.GenerateAccessToken(context.Background(), subject, permissions)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error generating token: %v\n", err)
		os.Exit(1)
	}

	if *f.jsonOutput {
		printJSON(tokenOutput{
			Token:     token,
			ExpiresIn: f.ttl.String(),
			Claims: map[string]any{
				"sub":         subject,
				"permissions": permissions,
			},
			Usage: map[string]string{
				"header": "Authorization: Bearer <token>",
			},
		})
		return
	}
	fmt.Println("Access Token (JWT)")
	fmt.Println("==================")
	fmt.Printf("Expires In:  %s\n", *f.ttl)
	fmt.Printf("Subject:     %s\n", subject)
	fmt.Printf("Permissions: %v\n", permissions)
	fmt.Println()
	fmt.Println("Token:")
	fmt.Println(token)
	fmt.Println()
	fmt.Println("Usage:")
	fmt.Println("  curl -H \"Authorization: Bearer <token>\" http://localhost:8080/admin/...")
}

func parsePermissions(permissions string) []string {
	if permissions == "" {
		return []string{}
	}
	parts := strings.Split(permissions, ",")
	result := make([]string, 0, len(parts))
	for _, p := range parts {
		trimmed := strings.TrimSpace(p)
		if trimmed != "" {
			result = append(result, trimmed)
		}
	}
	return result
}

func printJSON(v any) {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		fmt.Fprintf(os.Stderr, "Error encoding JSON: %v\n", err)
		os.Exit(1)
	}
}
