package main

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

type Config struct {
	bind           string
	gracePeriod    time.Duration
	leaderboardURL string
	penaltySeconds int
	port           int
	prefix         string
	profile        bool
	roomTimeout    time.Duration
	roundSeconds   int
	tlsCert        string
	tlsKey         string
	verbose        bool
	version        bool
}

func (c *Config) validate() error {
	if (c.tlsCert == "") != (c.tlsKey == "") {
		return errors.New("both --tls-cert and --tls-key must be provided together")
	}
	if c.port < 1 || c.port > 65535 {
		return fmt.Errorf("invalid port (must be between 1-65535 inclusive): %d", c.port)
	}
	if c.roundSeconds < 1 {
		return fmt.Errorf("invalid round length (must be at least 1 second): %d", c.roundSeconds)
	}
	if c.penaltySeconds < 0 {
		return fmt.Errorf("invalid penalty (must not be negative): %d", c.penaltySeconds)
	}
	return nil
}

func (c *Config) scheme() string {
	if c.tlsCert != "" && c.tlsKey != "" {
		return "https"
	}
	return "http"
}

func newCmd(cfg *Config) *cobra.Command {
	v := viper.New()
	v.SetEnvPrefix("PAIRLOCK")
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	cmd := &cobra.Command{
		Use:           "pairlock",
		Short:         "A relay server for two-player cooperative puzzle rooms.",
		Args:          cobra.ExactArgs(0),
		SilenceErrors: true,
		Version:       releaseVersion,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := cfg.validate(); err != nil {
				return err
			}
			return ServePage(cmd.Context(), cfg, args)
		},
	}

	fs := cmd.Flags()

	fs.SetNormalizeFunc(func(_ *pflag.FlagSet, name string) pflag.NormalizedName {
		return pflag.NormalizedName(strings.ReplaceAll(name, "_", "-"))
	})

	fs.StringVarP(&cfg.bind, "bind", "b", "0.0.0.0", "address to bind to (env: PAIRLOCK_BIND)")
	fs.DurationVar(&cfg.gracePeriod, "grace-period", 30*time.Second, "time a disconnected player may rejoin before the room is abandoned (env: PAIRLOCK_GRACE_PERIOD)")
	fs.StringVar(&cfg.leaderboardURL, "leaderboard-url", "", "endpoint completed runs are posted to (env: PAIRLOCK_LEADERBOARD_URL)")
	fs.IntVar(&cfg.penaltySeconds, "penalty-seconds", 10, "seconds deducted for a failed stage 2/3 submission (env: PAIRLOCK_PENALTY_SECONDS)")
	fs.IntVarP(&cfg.port, "port", "p", 8080, "port to listen on (env: PAIRLOCK_PORT)")
	fs.StringVar(&cfg.prefix, "prefix", "", "path to prepend to all URLs, for use behind reverse proxy (env: PAIRLOCK_PREFIX)")
	fs.BoolVar(&cfg.profile, "profile", false, "register net/http/pprof handlers (env: PAIRLOCK_PROFILE)")
	fs.DurationVar(&cfg.roomTimeout, "room-timeout", 60*time.Minute, "time before idle rooms are ended (env: PAIRLOCK_ROOM_TIMEOUT)")
	fs.IntVar(&cfg.roundSeconds, "round-seconds", 600, "countdown length for a full three-stage run (env: PAIRLOCK_ROUND_SECONDS)")
	fs.StringVar(&cfg.tlsCert, "tls-cert", "", "path to tls certificate (env: PAIRLOCK_TLS_CERT)")
	fs.StringVar(&cfg.tlsKey, "tls-key", "", "path to tls keyfile (env: PAIRLOCK_TLS_KEY)")
	fs.BoolVarP(&cfg.verbose, "verbose", "v", false, "display additional output (env: PAIRLOCK_VERBOSE)")
	fs.BoolVarP(&cfg.version, "version", "V", false, "display version and exit (env: PAIRLOCK_VERSION)")

	fs.VisitAll(func(f *pflag.Flag) {
		_ = v.BindPFlag(f.Name, f)
		_ = v.BindEnv(f.Name)
		if !f.Changed && v.IsSet(f.Name) {
			_ = fs.Set(f.Name, fmt.Sprintf("%v", v.Get(f.Name)))
		}
	})

	cmd.CompletionOptions.HiddenDefaultCmd = true
	cmd.SetHelpCommand(&cobra.Command{Hidden: true})
	cmd.SetVersionTemplate("pairlock v{{.Version}}\n")

	cmd.SilenceErrors = true
	cmd.SilenceUsage = true

	return cmd
}
