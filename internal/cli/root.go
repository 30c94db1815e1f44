package cli

import (
	"fmt"
	"net/http"
	"os"
	"time"

	"github.com/spf13/cobra"

	"remotetodos/internal/client"
)

// EnvURL overrides the default todos collection URL
const EnvURL = "TODOS_URL"

// RootOptions holds global flags for all commands.
type RootOptions struct {
	URL     string
	Format  string // "json" | "text"
	Timeout time.Duration
}

// ValidFormats defines the allowed output formats.
var ValidFormats = []string{"text", "json"}

// Client returns an API client for the configured URL
func (o *RootOptions) Client() *client.Client {
	return client.New(o.URL, &http.Client{Timeout: o.Timeout})
}

// NewRootCommand creates the root command for todoctl.
func NewRootCommand() *cobra.Command {
	opts := &RootOptions{}

	defaultURL := os.Getenv(EnvURL)
	if defaultURL == "" {
		defaultURL = client.DefaultURL
	}

	cmd := &cobra.Command{
		Use:   "todoctl",
		Short: "Manage the shared todo list",
		Long: `todoctl lists and edits todos stored by a remotetodos server.

Todos are addressed by their zero-based position as shown by "todoctl list".
Positions shift when an earlier todo is removed.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if !isValidFormat(opts.Format) {
				return NewExitError(ExitCommandError, fmt.Sprintf("invalid format %q: must be one of %v", opts.Format, ValidFormats))
			}
			return nil
		},
	}

	cmd.PersistentFlags().StringVar(&opts.URL, "url", defaultURL, "todos collection URL (env "+EnvURL+")")
	cmd.PersistentFlags().StringVar(&opts.Format, "format", "text", "output format (json|text)")
	cmd.PersistentFlags().DurationVar(&opts.Timeout, "timeout", 10*time.Second, "request timeout")

	cmd.AddCommand(NewListCommand(opts))
	cmd.AddCommand(NewAddCommand(opts))
	cmd.AddCommand(NewEditCommand(opts))
	cmd.AddCommand(NewToggleCommand(opts))
	cmd.AddCommand(NewRemoveCommand(opts))
	cmd.AddCommand(NewClearCommand(opts))

	return cmd
}

// isValidFormat checks if the format is one of the allowed values.
func isValidFormat(format string) bool {
	for _, f := range ValidFormats {
		if f == format {
			return true
		}
	}
	return false
}
