package main

import (
	"fmt"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	zerologlog "github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/brainrotduel/server/internal/config"
	"github.com/brainrotduel/server/internal/content"
	"github.com/brainrotduel/server/internal/game"
	"github.com/brainrotduel/server/internal/ws"
)

const version = "v1.0.0"

func main() {
	cfg := config.Default()
	cobra.CheckErr(newCmd(&cfg).Execute())
}

func newCmd(cfg *config.Config) *cobra.Command {
	v := viper.New()
	v.SetEnvPrefix("BRAINROT")
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	cmd := &cobra.Command{
		Use:           "brainrotduel",
		Short:         "Authoritative server for the 2-player image caption guessing game.",
		Args:          cobra.ExactArgs(0),
		Version:       version,
		SilenceErrors: true,
		SilenceUsage:  true,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := cfg.Validate(); err != nil {
				return err
			}
			return run(cfg)
		},
	}

	fs := cmd.Flags()

	fs.SetNormalizeFunc(func(_ *pflag.FlagSet, name string) pflag.NormalizedName {
		return pflag.NormalizedName(strings.ReplaceAll(name, "_", "-"))
	})

	fs.StringVarP(&cfg.Bind, "bind", "b", cfg.Bind, "address to bind to (env: BRAINROT_BIND)")
	fs.IntVarP(&cfg.Port, "port", "p", cfg.Port, "port to listen on (env: BRAINROT_PORT)")
	fs.IntVar(&cfg.TotalRounds, "rounds", cfg.TotalRounds, "rounds per game (env: BRAINROT_ROUNDS)")
	fs.DurationVar(&cfg.RoundTimeout, "round-timeout", cfg.RoundTimeout, "time the turn player has to guess (env: BRAINROT_ROUND_TIMEOUT)")
	fs.DurationVar(&cfg.RevealDelay, "reveal-delay", cfg.RevealDelay, "pause between a resolved round and the next (env: BRAINROT_REVEAL_DELAY)")
	fs.DurationVar(&cfg.GraceTimeout, "grace-timeout", cfg.GraceTimeout, "time before empty rooms are deleted (env: BRAINROT_GRACE_TIMEOUT)")
	fs.DurationVar(&cfg.SettleWindow, "settle-window", cfg.SettleWindow, "time before a forfeited room is closed (env: BRAINROT_SETTLE_WINDOW)")
	fs.StringVar(&cfg.ContentFile, "content", "", "path to a JSON file of image/answer pairs (env: BRAINROT_CONTENT)")
	fs.BoolVarP(&cfg.Verbose, "verbose", "v", false, "display additional output (env: BRAINROT_VERBOSE)")

	fs.VisitAll(func(f *pflag.Flag) {
		_ = v.BindPFlag(f.Name, f)
		_ = v.BindEnv(f.Name)
		if !f.Changed && v.IsSet(f.Name) {
			_ = fs.Set(f.Name, fmt.Sprintf("%v", v.Get(f.Name)))
		}
	})

	cmd.CompletionOptions.HiddenDefaultCmd = true
	cmd.SetVersionTemplate("brainrotduel {{.Version}}\n")

	return cmd
}

func run(cfg *config.Config) error {
	// zerolog setup (human-friendly console)
	zerolog.TimeFieldFormat = time.RFC3339
	cw := zerolog.ConsoleWriter{Out: os.Stdout, TimeFormat: time.RFC3339}
	zerologlog.Logger = zerologlog.Output(cw)
	if cfg.Verbose {
		zerolog.SetGlobalLevel(zerolog.DebugLevel)
	} else {
		zerolog.SetGlobalLevel(zerolog.InfoLevel)
	}
	log := zerologlog.Logger

	var source content.Source = content.Builtin()
	if cfg.ContentFile != "" {
		source = content.NewFile(cfg.ContentFile)
	}
	pairs, err := source.Pairs()
	if err != nil {
		return err
	}
	if len(pairs) < cfg.TotalRounds {
		return fmt.Errorf("content pool has %d pairs but %d rounds are configured", len(pairs), cfg.TotalRounds)
	}

	reg := game.NewRegistry(pairs, game.Options{
		TotalRounds:  cfg.TotalRounds,
		RoundTimeout: cfg.RoundTimeout,
		RevealDelay:  cfg.RevealDelay,
		GraceTimeout: cfg.GraceTimeout,
		SettleWindow: cfg.SettleWindow,
	}, log)
	gateway := ws.New(reg, log)

	// Gin setup with custom logger (skip /ws noise)
	gin.SetMode(gin.ReleaseMode)
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(func(c *gin.Context) {
		start := time.Now()
		c.Next()
		path := c.Request.URL.Path
		if strings.HasPrefix(path, "/ws") {
			return
		}
		status := c.Writer.Status()
		dur := time.Since(start)
		log.Info().Str("path", path).Int("status", status).Dur("dur", dur).Msg("http")
	})

	// Healthcheck
	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"ok": true, "time": time.Now().UTC()})
	})

	// Read-only lobby snapshot for non-websocket consumers
	r.GET("/api/rooms", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"rooms": reg.ListRooms()})
	})

	r.GET("/ws", gateway.Handle)

	log.Info().Str("addr", cfg.Addr()).Int("rounds", cfg.TotalRounds).Int("contentPairs", len(pairs)).Msg("listening")
	return r.Run(cfg.Addr())
}
