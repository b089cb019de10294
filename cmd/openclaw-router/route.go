package main

import (
	"bufio"
	"io"
	"strings"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"

	"github.com/CoworkedShawn/openclaw-skills/plugin/ai/router"
)

// callerFlags are the caller context flags shared by route, analyze and stats.
type callerFlags struct {
	userID    string
	sessionID string
}

func (f *callerFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVar(&f.userID, "user", "", "user id whose session context is used")
	cmd.Flags().StringVar(&f.sessionID, "session", "", "caller session id")
}

func (f *callerFlags) callerContext() router.CallerContext {
	return router.CallerContext{UserID: f.userID, SessionID: f.sessionID}
}

func newRouteCmd(opts *rootOptions) *cobra.Command {
	var (
		caller    callerFlags
		fromStdin bool
		withStats bool
	)

	cmd := &cobra.Command{
		Use:   "route [message]",
		Short: "Route a message and print the routing decision",
		Long: `Route a message and print the routing decision as JSON.

With --stdin every non-empty input line is routed in order, sharing one
session, and one decision is printed per line.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			messages, err := collectMessages(cmd.InOrStdin(), args, fromStdin)
			if err != nil {
				return err
			}

			a, err := opts.newApp()
			if err != nil {
				return err
			}
			defer a.Close()

			ctx := cmd.Context()
			out := cmd.OutOrStdout()
			for _, msg := range messages {
				decision := a.service.Route(ctx, msg, caller.callerContext())
				if err := writeJSON(out, decision); err != nil {
					return err
				}
			}
			if withStats {
				return writeJSON(out, a.service.Stats(defaultTopN))
			}
			return nil
		},
	}
	caller.register(cmd)
	cmd.Flags().BoolVar(&fromStdin, "stdin", false, "read one message per line from stdin")
	cmd.Flags().BoolVar(&withStats, "stats", false, "print routing statistics after the decisions")
	return cmd
}

func newAnalyzeCmd(opts *rootOptions) *cobra.Command {
	var caller callerFlags

	cmd := &cobra.Command{
		Use:   "analyze <message>",
		Short: "Score a message against the intent catalog without routing it",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := opts.newApp()
			if err != nil {
				return err
			}
			defer a.Close()

			result, err := a.service.Analyze(cmd.Context(), strings.Join(args, " "), caller.callerContext())
			if err != nil {
				return err
			}
			return writeJSON(cmd.OutOrStdout(), result)
		},
	}
	caller.register(cmd)
	return cmd
}

// collectMessages joins args into one message, or reads one message per line from r.
func collectMessages(r io.Reader, args []string, fromStdin bool) ([]string, error) {
	if !fromStdin {
		msg := strings.TrimSpace(strings.Join(args, " "))
		if msg == "" {
			return nil, errors.New("a message is required (pass it as arguments or use --stdin)")
		}
		return []string{msg}, nil
	}

	var messages []string
	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		if line := strings.TrimSpace(scanner.Text()); line != "" {
			messages = append(messages, line)
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, errors.Wrap(err, "failed to read messages")
	}
	if len(messages) == 0 {
		return nil, errors.New("no messages on stdin")
	}
	return messages, nil
}
