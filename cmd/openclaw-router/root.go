package main

import (
	"encoding/json"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/CoworkedShawn/openclaw-skills/internal/observability"
	"github.com/CoworkedShawn/openclaw-skills/internal/profile"
)

// rootOptions carries state shared by every subcommand.
type rootOptions struct {
	v          *viper.Viper
	configFile string
	logger     *slog.Logger
}

func newRootCmd() *cobra.Command {
	opts := &rootOptions{v: viper.New()}

	rootCmd := &cobra.Command{
		Use:   "openclaw-router",
		Short: "Route free-text messages to openclaw skills",
		Long: `openclaw-router classifies a message against an intent catalog, extracts
parameters and decides which skill should handle it, with a fallback chain
when the preferred skill is not installed.`,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return opts.init(cmd)
		},
	}

	flags := rootCmd.PersistentFlags()
	flags.StringVar(&opts.configFile, "config", "", "config file (default $HOME/.openclaw/router.yaml)")
	flags.String("catalog", "", "YAML file holding intents and skill mappings")
	flags.StringSlice("skill-dir", nil, "directories scanned for SKILL.md files")
	flags.StringSlice("skills", nil, "skill names that are always available")
	flags.Int("session-capacity", 0, "maximum number of tracked users (0 keeps every user)")
	flags.Duration("session-idle-timeout", 0, "drop user context after this much inactivity")
	flags.String("log-level", "", "log level (debug, info, warn, error)")
	flags.String("log-format", "", "log format (text, json)")

	_ = opts.v.BindPFlag("catalog_path", flags.Lookup("catalog"))
	_ = opts.v.BindPFlag("skill_dirs", flags.Lookup("skill-dir"))
	_ = opts.v.BindPFlag("available_skills", flags.Lookup("skills"))
	_ = opts.v.BindPFlag("session_capacity", flags.Lookup("session-capacity"))
	_ = opts.v.BindPFlag("session_idle_timeout", flags.Lookup("session-idle-timeout"))
	_ = opts.v.BindPFlag("log_level", flags.Lookup("log-level"))
	_ = opts.v.BindPFlag("log_format", flags.Lookup("log-format"))

	rootCmd.AddCommand(
		newRouteCmd(opts),
		newAnalyzeCmd(opts),
		newStatsCmd(opts),
		newServeCmd(opts),
		newIntentsCmd(opts),
		newMappingsCmd(opts),
	)
	return rootCmd
}

// init reads the optional config file and installs the default logger.
func (o *rootOptions) init(cmd *cobra.Command) error {
	o.v.SetEnvPrefix("OPENCLAW")
	o.v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	o.v.AutomaticEnv()

	if o.configFile != "" {
		o.v.SetConfigFile(o.configFile)
	} else {
		o.v.SetConfigName("router")
		o.v.SetConfigType("yaml")
		if home, err := os.UserHomeDir(); err == nil {
			o.v.AddConfigPath(filepath.Join(home, ".openclaw"))
		}
		o.v.AddConfigPath(".")
	}
	if err := o.v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if o.configFile != "" || !errors.As(err, &notFound) {
			return errors.Wrap(err, "failed to read config file")
		}
	}

	p, err := o.profile()
	if err != nil {
		return err
	}
	logger, err := observability.NewLogger(cmd.ErrOrStderr(), p.LogLevel, p.LogFormat)
	if err != nil {
		return err
	}
	o.logger = logger
	slog.SetDefault(logger)
	return nil
}

// profile builds the runtime profile: defaults, then OPENCLAW_* env, then config file and flags.
func (o *rootOptions) profile() (*profile.Profile, error) {
	p := profile.Default()
	p.FromEnv()

	if o.v.IsSet("mode") {
		p.Mode = o.v.GetString("mode")
	}
	if o.v.IsSet("addr") {
		p.Addr = o.v.GetString("addr")
	}
	if o.v.IsSet("port") {
		p.Port = o.v.GetInt("port")
	}
	if o.v.IsSet("catalog_path") {
		p.CatalogPath = o.v.GetString("catalog_path")
	}
	if o.v.IsSet("watch_catalog") {
		p.WatchCatalog = o.v.GetBool("watch_catalog")
	}
	if o.v.IsSet("skill_dirs") {
		p.SkillDirs = o.stringSlice("skill_dirs")
	}
	if o.v.IsSet("available_skills") {
		p.AvailableSkills = o.stringSlice("available_skills")
	}
	if o.v.IsSet("session_capacity") {
		p.SessionCapacity = o.v.GetInt("session_capacity")
	}
	if o.v.IsSet("session_idle_timeout") {
		p.SessionIdleTimeout = o.v.GetDuration("session_idle_timeout")
	}
	if o.v.IsSet("rate_limit") {
		p.RateLimit = o.v.GetFloat64("rate_limit")
	}
	if o.v.IsSet("log_level") {
		p.LogLevel = o.v.GetString("log_level")
	}
	if o.v.IsSet("log_format") {
		p.LogFormat = o.v.GetString("log_format")
	}

	if err := p.Validate(); err != nil {
		return nil, errors.Wrap(err, "invalid configuration")
	}
	return p, nil
}

// stringSlice reads a list that may come from a flag, a YAML list or a comma separated env var.
func (o *rootOptions) stringSlice(key string) []string {
	var out []string
	for _, item := range o.v.GetStringSlice(key) {
		for _, part := range strings.Split(item, ",") {
			if part = strings.TrimSpace(part); part != "" {
				out = append(out, part)
			}
		}
	}
	return out
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
