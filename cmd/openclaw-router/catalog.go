package main

import (
	"fmt"
	"strings"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"

	"github.com/CoworkedShawn/openclaw-skills/plugin/ai/router"
)

func newIntentsCmd(opts *rootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "intents",
		Short: "Inspect and extend the intent catalog",
	}
	cmd.AddCommand(newIntentsListCmd(opts), newIntentsAddCmd(opts))
	return cmd
}

func newIntentsListCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "Print the active intent catalog",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := opts.newApp()
			if err != nil {
				return err
			}
			defer a.Close()
			return writeJSON(cmd.OutOrStdout(), a.service.ListIntents())
		},
	}
}

func newIntentsAddCmd(opts *rootOptions) *cobra.Command {
	var (
		keywords []string
		patterns []string
		cues     []string
		priority float64
		boost    float64
	)

	cmd := &cobra.Command{
		Use:   "add <intent-id>",
		Short: "Add or replace an intent and persist it to the catalog file",
		Example: `  openclaw-router --catalog routing.yaml intents add travel_booking \
    --keyword flight --keyword hotel --pattern 'book (a|the) (flight|hotel)' \
    --cue time_words=tomorrow,weekend`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			spec := router.IntentSpec{
				Keywords: keywords,
				Patterns: patterns,
			}
			if cmd.Flags().Changed("priority") {
				spec.Priority = &priority
			}
			if cmd.Flags().Changed("boost") {
				spec.ConfidenceBoost = &boost
			}
			parsed, err := parseCues(cues)
			if err != nil {
				return err
			}
			spec.Cues = parsed

			a, err := opts.newApp()
			if err != nil {
				return err
			}
			defer a.Close()
			if a.config.Path() == "" {
				return errors.New("--catalog is required to persist intents")
			}

			snap, err := a.config.AddIntent(args[0], spec)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "intent %s saved to %s (version %d)\n", args[0], a.config.Path(), snap.Version)
			return nil
		},
	}
	cmd.Flags().StringArrayVar(&keywords, "keyword", nil, "keyword matched as a case-insensitive substring (repeatable)")
	cmd.Flags().StringArrayVar(&patterns, "pattern", nil, "regular expression matched case-insensitively (repeatable)")
	cmd.Flags().StringArrayVar(&cues, "cue", nil, "context cue list as name=word,word (repeatable)")
	cmd.Flags().Float64Var(&priority, "priority", 1.0, "score multiplier")
	cmd.Flags().Float64Var(&boost, "boost", 0, "added to nonzero scores")
	return cmd
}

// parseCues turns name=a,b flags into cue lists.
func parseCues(values []string) (map[string][]string, error) {
	if len(values) == 0 {
		return nil, nil
	}
	cues := make(map[string][]string, len(values))
	for _, value := range values {
		name, words, ok := strings.Cut(value, "=")
		name = strings.TrimSpace(name)
		if !ok || name == "" {
			return nil, errors.Errorf("invalid cue %q (want name=word,word)", value)
		}
		for _, w := range strings.Split(words, ",") {
			if w = strings.TrimSpace(w); w != "" {
				cues[name] = append(cues[name], w)
			}
		}
	}
	return cues, nil
}

func newMappingsCmd(opts *rootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "mappings",
		Short: "Inspect and extend the intent to skill mapping table",
	}
	cmd.AddCommand(newMappingsListCmd(opts), newMappingsAddCmd(opts))
	return cmd
}

func newMappingsListCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "Print the active skill mapping table",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := opts.newApp()
			if err != nil {
				return err
			}
			defer a.Close()
			return writeJSON(cmd.OutOrStdout(), a.service.ListMappings())
		},
	}
}

func newMappingsAddCmd(opts *rootOptions) *cobra.Command {
	var m router.SkillMapping

	cmd := &cobra.Command{
		Use:   "add <intent-id>",
		Short: "Add or replace the skill mapping for an existing intent",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := opts.newApp()
			if err != nil {
				return err
			}
			defer a.Close()
			if a.config.Path() == "" {
				return errors.New("--catalog is required to persist mappings")
			}

			snap, err := a.config.AddMapping(args[0], m)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "mapping %s -> %s saved to %s (version %d)\n", args[0], m.PrimarySkill, a.config.Path(), snap.Version)
			return nil
		},
	}
	cmd.Flags().StringVar(&m.PrimarySkill, "primary", "", "preferred skill")
	cmd.Flags().StringSliceVar(&m.FallbackSkills, "fallback", nil, "fallback skills in order")
	cmd.Flags().StringSliceVar(&m.RequiredTools, "tools", nil, "capabilities the skill needs")
	cmd.Flags().BoolVar(&m.ContextPreservation, "preserve-context", false, "forward the session context to the skill")
	cmd.Flags().Float64Var(&m.ConfidenceThreshold, "threshold", 0.6, "minimum confidence to dispatch")
	_ = cmd.MarkFlagRequired("primary")
	return cmd
}
