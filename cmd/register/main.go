// register submits one registration to a running tag-server from the
// command line.
//
//	go run ./cmd/register --server http://localhost:5000 --name Asha --reg-number 21BCE001
//
// Extra fields can be sent with --field key=value. The exit code is 1 when
// the submission ends in the error state.
package main

import (
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/indrajithvu22/tag/internal/submit"
	"github.com/indrajithvu22/tag/internal/submit/terminal"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	var (
		server    string
		name      string
		regNumber string
		fields    []string
		verbose   bool
	)

	cmd := &cobra.Command{
		Use:           "register",
		Short:         "Submit a registration to the tag server",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			level := slog.LevelWarn
			if verbose {
				level = slog.LevelDebug
			}
			logger := slog.New(slog.NewTextHandler(cmd.ErrOrStderr(), &slog.HandlerOptions{Level: level}))

			form := submit.NewMapForm(map[string]string{
				"name":      name,
				"regNumber": regNumber,
			})
			for _, f := range fields {
				k, v, ok := strings.Cut(f, "=")
				if !ok || k == "" {
					return fmt.Errorf("invalid --field %q: want key=value", f)
				}
				form.Set(k, v)
			}

			h := submit.New(server, submit.WithLogger(logger))
			out := h.Submit(cmd.Context(), form, terminal.New(cmd.OutOrStdout()))
			logger.Debug("submission finished",
				slog.String("state", out.State.String()),
				slog.Int("status", out.StatusCode))

			if out.State == submit.StateError {
				return fmt.Errorf("registration failed: %s", out.Message)
			}
			return nil
		},
	}

	server = os.Getenv("TAG_SERVER_URL")
	if server == "" {
		server = "http://localhost:5000"
	}

	cmd.Flags().StringVar(&server, "server", server, "Base URL of the tag server (env TAG_SERVER_URL)")
	cmd.Flags().StringVar(&name, "name", "", "Full name")
	cmd.Flags().StringVar(&regNumber, "reg-number", "", "Registration number")
	cmd.Flags().StringArrayVar(&fields, "field", nil, "Extra form field as key=value (repeatable)")
	cmd.Flags().BoolVarP(&verbose, "verbose", "v", false, "Log request details")

	return cmd
}
