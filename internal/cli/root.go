// Package cli implements gobahrainctl, a command-line client for the recommendation API.
package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/gobahrain/gobahrain/internal/config"
	"github.com/gobahrain/gobahrain/internal/version"
	gobahrain "github.com/gobahrain/gobahrain/pkg/sdk"
)

const (
	envServer  = "GOBAHRAIN_SERVER"
	envAPIKey  = "GOBAHRAIN_API_KEY"
	defaultURL = "http://localhost:8080"
)

type rootFlags struct {
	server  string
	apiKey  string
	timeout time.Duration
}

// NewRootCmd builds the command tree. Tests call it directly with their own output buffers.
func NewRootCmd() *cobra.Command {
	var flags rootFlags

	root := &cobra.Command{
		Use:           "gobahrainctl",
		Short:         "Query the Go Bahrain recommendation API",
		Long:          "gobahrainctl plans days, chats, and browses places against a running Go Bahrain server.",
		Version:       version.Version,
		SilenceUsage:  true,
		SilenceErrors: true,
		CompletionOptions: cobra.CompletionOptions{
			HiddenDefaultCmd: true,
		},
	}

	f := root.PersistentFlags()
	f.StringVar(&flags.server, "server", envOr(envServer, defaultURL), "API base URL ($"+envServer+")")
	f.StringVar(&flags.apiKey, "api-key", os.Getenv(envAPIKey), "API key ($"+envAPIKey+")")
	f.DurationVar(&flags.timeout, "timeout", 90*time.Second, "Request timeout")

	client := func() (*gobahrain.Client, error) {
		return gobahrain.New(flags.server,
			gobahrain.WithAPIKey(flags.apiKey),
			gobahrain.WithTimeout(flags.timeout),
			gobahrain.WithUserAgent("gobahrainctl/"+version.Version),
		)
	}

	root.AddCommand(
		newPlanCmd(client),
		newMatchCmd(client),
		newChatCmd(client),
		newPlacesCmd(client),
		newHealthCmd(client),
	)
	return root
}

// Execute loads .env files and runs the root command.
func Execute() error {
	if err := config.LoadDotEnv(); err != nil {
		return err
	}
	return NewRootCmd().Execute()
}

type clientFunc func() (*gobahrain.Client, error)

func envOr(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		return fmt.Errorf("encode output: %w", err)
	}
	return nil
}
