// Package main provides a CLI tool for generating test tokens for the gradus API.
// These tokens use the dev signing key and will NOT work in production.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/google/uuid"

	jwttoken "gradus/internal/jwt_token"
	id "gradus/pkg/domain"
)

const (
	// Dev signing key - matches config.go when JWT_SIGNING_KEY is not set
	devSigningKey = "dev-secret-key-change-in-production"

	// Issuer/audience matching the server composition root
	defaultIssuer   = "gradus"
	defaultAudience = "gradus-client"
	defaultTokenTTL = 15 * time.Minute
)

type tokenOutput struct {
	Token     string            `json:"token"`
	Type      string            `json:"type"`
	ExpiresIn string            `json:"expires_in"`
	Claims    map[string]any    `json:"claims,omitempty"`
	Usage     map[string]string `json:"usage"`
}

func main() {
	accessCmd := flag.NewFlagSet("access", flag.ExitOnError)
	adminCmd := flag.NewFlagSet("admin", flag.ExitOnError)

	accessStudentID := accessCmd.String("student-id", "", "Student ID (UUID). Generated if empty.")
	accessSessionID := accessCmd.String("session-id", "", "Session ID (UUID). Generated if empty.")
	accessEmail := accessCmd.String("email", "student@example.edu", "Email claim")
	accessTTL := accessCmd.Duration("ttl", defaultTokenTTL, "Token time-to-live")
	accessKey := accessCmd.String("key", devSigningKey, "Signing key (must match JWT_SIGNING_KEY)")
	accessJSON := accessCmd.Bool("json", false, "Output as JSON")

	adminJSON := adminCmd.Bool("json", false, "Output as JSON")

	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}

	switch os.Args[1] {
	case "access":
		accessCmd.Parse(os.Args[2:])
		generateAccessToken(*accessStudentID, *accessSessionID, *accessEmail, *accessKey, *accessTTL, *accessJSON)
	case "admin":
		adminCmd.Parse(os.Args[2:])
		showAdminToken(*adminJSON)
	case "help", "-h", "--help":
		printUsage()
	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n\n", os.Args[1])
		printUsage()
		os.Exit(1)
	}
}

func printUsage() {
	fmt.Println(`tokengen - Generate test tokens for the gradus API

WARNING: These tokens use the dev signing key and will NOT work in production.
         Only use for local development and testing.

Usage:
  tokengen <command> [flags]

Commands:
  access    Generate a student access token (JWT)
  admin     Show how to configure the admin API token

Examples:
  # Generate access token with defaults
  tokengen access

  # Generate access token for a specific student
  tokengen access -student-id "550e8400-e29b-41d4-a716-446655440000"

  # Generate access token with a custom TTL
  tokengen access -ttl 1h

  # Output as JSON
  tokengen access -json

Use "tokengen <command> -h" for more information about a command.`)
}

func generateAccessToken(studentID, sessionID, email, signingKey string, ttl time.Duration, jsonOutput bool) {
	sid := parseOrGenerateUUID(studentID, "student-id")
	ses := parseOrGenerateUUID(sessionID, "session-id")

	svc := jwttoken.NewJWTService(signingKey, defaultIssuer, defaultAudience, ttl)

	token, jti, err := svc.GenerateAccessTokenWithJTI(
		context.Background(),
		id.StudentID(sid),
		id.SessionID(ses),
		email,
	)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error generating token: %v\n", err)
		os.Exit(1)
	}

	if jsonOutput {
		output := tokenOutput{
			Token:     token,
			Type:      "access_token",
			ExpiresIn: ttl.String(),
			Claims: map[string]any{
				"student_id": sid.String(),
				"session_id": ses.String(),
				"email":      email,
				"jti":        jti,
			},
			Usage: map[string]string{
				"header": "Authorization: Bearer <token>",
			},
		}
		printJSON(output)
	} else {
		fmt.Println("Access Token (JWT)")
		fmt.Println("==================")
		fmt.Printf("Expires In:  %s\n", ttl)
		fmt.Printf("Student ID:  %s\n", sid)
		fmt.Printf("Session ID:  %s\n", ses)
		fmt.Printf("Email:       %s\n", email)
		fmt.Printf("JTI:         %s\n", jti)
		fmt.Println()
		fmt.Println("Token:")
		fmt.Println(token)
		fmt.Println()
		fmt.Println("Usage:")
		fmt.Println("  curl -H \"Authorization: Bearer <token>\" http://localhost:8080/me")
	}
}

func showAdminToken(jsonOutput bool) {
	token := os.Getenv("GRADUS_ADMIN_TOKEN")
	if token == "" {
		fmt.Fprintln(os.Stderr, "GRADUS_ADMIN_TOKEN is not set; admin routes are disabled until it is.")
		os.Exit(1)
	}
	if jsonOutput {
		output := tokenOutput{
			Token: token,
			Type:  "admin_token",
			Usage: map[string]string{
				"header": "X-Admin-Token: " + token,
			},
		}
		printJSON(output)
	} else {
		fmt.Println("Admin API Token")
		fmt.Println("===============")
		fmt.Printf("Token: %s\n", token)
		fmt.Println()
		fmt.Println("Usage:")
		fmt.Println("  curl -H \"X-Admin-Token: " + token + "\" http://localhost:8080/admin/courses")
	}
}

func parseOrGenerateUUID(input, fieldName string) uuid.UUID {
	if input == "" {
		return uuid.New()
	}
	parsed, err := uuid.Parse(input)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Invalid %s UUID: %s\n", fieldName, input)
		os.Exit(1)
	}
	return parsed
}

func printJSON(v any) {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		fmt.Fprintf(os.Stderr, "Error encoding JSON: %v\n", err)
		os.Exit(1)
	}
}
