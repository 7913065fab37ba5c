// Package main provides the token issuance tool. It encrypts user
// payloads under the auth key and prints the tokens together with a
// ready-to-use allow-list array.
package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/avetisov/qrvalidator/internal/crypto"
	"github.com/avetisov/qrvalidator/internal/models"
)

type options struct {
	UsersFile string
	Key       string
}

func newRootCommand() *cobra.Command {
	opts := &options{}

	cmd := &cobra.Command{
		Use:   "tokengen",
		Short: "Issue encrypted auth tokens for validator hub users",
		Long: `Issue encrypted auth tokens for validator hub users.

Reads a JSON array of users ({"id", "name", "authorizeLevel"}) and prints
one token per user plus the JSON array to store as the allow-list file.

Example:
  AUTH_ENCRYPTION_KEY=... tokengen --users users.json`,
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(cmd, opts)
		},
	}

	cmd.Flags().StringVar(&opts.UsersFile, "users", "", "path to the users JSON file (required)")
	cmd.Flags().StringVar(&opts.Key, "key", "", "32-byte auth key (defaults to AUTH_ENCRYPTION_KEY)")
	_ = cmd.MarkFlagRequired("users")

	return cmd
}

func run(cmd *cobra.Command, opts *options) error {
	key := opts.Key
	if key == "" {
		key = os.Getenv("AUTH_ENCRYPTION_KEY")
	}
	codec, err := crypto.NewCodec([]byte(key))
	if err != nil {
		return fmt.Errorf("auth key: %w", err)
	}

	data, err := os.ReadFile(opts.UsersFile)
	if err != nil {
		return fmt.Errorf("read users file: %w", err)
	}
	var users []models.User
	if err := json.Unmarshal(data, &users); err != nil {
		return fmt.Errorf("parse users file: %w", err)
	}

	out := cmd.OutOrStdout()
	tokens := make([]string, 0, len(users))
	for _, user := range users {
		payload, err := json.Marshal(user)
		if err != nil {
			return err
		}
		token, err := codec.Encrypt(payload)
		if err != nil {
			return fmt.Errorf("encrypt token for %s: %w", user.Name, err)
		}
		tokens = append(tokens, token)
		fmt.Fprintf(out, "User: %s (Level %d)\n%s\n\n", user.Name, user.AuthorizeLevel, token)
	}

	allowlist, err := json.MarshalIndent(tokens, "", "  ")
	if err != nil {
		return err
	}
	fmt.Fprintf(out, "--- allow-list JSON ---\n%s\n", allowlist)
	return nil
}

func main() {
	if err := newRootCommand().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}
