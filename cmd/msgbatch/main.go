package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"runtime"
	"runtime/debug"
	"strings"
	"syscall"

	"github.com/spf13/cobra"
	pflag "github.com/spf13/pflag"

	"github.com/bft-labs/msgbatch/internal/cliconfig"
	logAdapter "github.com/bft-labs/msgbatch/pkg/log"
	"github.com/bft-labs/msgbatch/pkg/msgbatch"
	"github.com/bft-labs/msgbatch/plugins/configwatcher"
)

const helpDescription = `
Group random payloads into messages that stay below a byte bound, without
copying payload bytes.

Highlights:
  - Greedy batching: every message is as full as the bound allows.
  - The message buffer is recycled across messages and calls.
  - Oversized payloads are sent alone (emit) or skipped with an error (reject).
  - Throttle and payload counts reload live from the config file.
`

var exampleUsage = strings.TrimSpace(`
  msgbatch --iterations 1000 --sink discard
  msgbatch --config $HOME/.msgbatch/config.toml --oversize-policy reject
`)

func getVersion() string {
	if info, ok := debug.ReadBuildInfo(); ok && info.Main.Version != "" {
		return info.Main.Version
	}
	return "dev"
}

func main() {
	cfg := cliconfig.DefaultConfig()
	var cfgPath string

	log := cliconfig.Logger()

	root := &cobra.Command{
		Use:          "msgbatch",
		Short:        "Batch random payloads into size-bounded messages",
		Long:         strings.TrimSpace(helpDescription),
		Example:      exampleUsage,
		Version:      fmt.Sprintf("%s %s/%s", getVersion(), runtime.GOOS, runtime.GOARCH),
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfgFile := cfgPath
			if cfgFile == "" {
				cfgFile = cliconfig.DefaultConfigPath()
			}

			changed := map[string]bool{}
			cmd.Flags().Visit(func(f *pflag.Flag) { changed[f.Name] = true })

			// Precedence: flags > env (MSGBATCH_*) > file > defaults.
			fileLoaded := false
			if cfgFile != "" && cliconfig.FileExists(cfgFile) {
				fc, err := cliconfig.LoadFileConfig(cfgFile)
				if err != nil {
					return fmt.Errorf("load config: %w", err)
				}
				if err := cliconfig.ApplyFileConfig(&cfg, fc, changed); err != nil {
					return err
				}
				fileLoaded = true
			}
			if err := cliconfig.ApplyEnvConfig(&cfg, changed); err != nil {
				return err
			}

			if err := cfg.Validate(); err != nil {
				return err
			}

			log, err := cliconfig.LoggerWithLevel(cfg.LogLevel)
			if err != nil {
				return err
			}
			log.Info().Interface("config", cfg).Msg("configuration")

			watchPath := ""
			if fileLoaded && cfg.Watch {
				watchPath = cfgFile
			}

			m, err := msgbatch.New(cfg.Library(watchPath),
				msgbatch.WithLogger(logAdapter.NewZerologAdapterWithLogger(log)),
				configwatcher.WithConfigWatcher(configwatcher.Config{Changed: changed}),
			)
			if err != nil {
				return fmt.Errorf("create msgbatch: %w", err)
			}

			ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			if err := m.Start(ctx); err != nil {
				return fmt.Errorf("start msgbatch: %w", err)
			}

			select {
			case <-ctx.Done():
				log.Info().Msg("received signal, stopping...")
			case <-m.Done():
			}

			if err := m.Stop(); err != nil && !errors.Is(err, msgbatch.ErrNotRunning) {
				return fmt.Errorf("stop msgbatch: %w", err)
			}

			st := m.Stats()
			log.Info().
				Uint64("calls", st.Calls).
				Uint64("messages", st.Messages).
				Uint64("payloads", st.Payloads).
				Uint64("bytes", st.Bytes).
				Uint64("oversized", st.Oversized).
				Uint64("rejected", st.Rejected).
				Msg("done")

			if m.Status() == msgbatch.StateCrashed {
				return errors.New("msgbatch crashed")
			}
			return nil
		},
	}

	// Flags
	root.Flags().StringVar(&cfgPath, "config", "", "path to config file (default: $HOME/.msgbatch/config.toml)")

	root.Flags().IntVar(&cfg.MaxMsgSize, "max-msg-size", cfg.MaxMsgSize, "exclusive upper bound of a message in bytes")
	root.Flags().StringVar(&cfg.OversizePolicy, "oversize-policy", cfg.OversizePolicy, "payloads reaching the bound: emit (send alone) or reject (skip)")

	root.Flags().IntVar(&cfg.PoolSize, "pool-size", cfg.PoolSize, "number of pre-generated payloads")
	root.Flags().IntVar(&cfg.MinPayload, "min-payload", cfg.MinPayload, "minimum payload length in bytes")
	root.Flags().IntVar(&cfg.MaxPayload, "max-payload", cfg.MaxPayload, "maximum payload length in bytes")
	root.Flags().IntVar(&cfg.MinCount, "min-count", cfg.MinCount, "minimum payloads per call")
	root.Flags().IntVar(&cfg.MaxCount, "max-count", cfg.MaxCount, "payloads per call upper bound (exclusive)")

	root.Flags().DurationVar(&cfg.Throttle, "throttle", cfg.Throttle, "pause between batching calls")
	root.Flags().DurationVar(&cfg.ReportInterval, "report-interval", cfg.ReportInterval, "interval between stats log lines (0 logs only at exit)")
	root.Flags().IntVar(&cfg.Iterations, "iterations", cfg.Iterations, "number of batching calls (0 runs until interrupted)")

	root.Flags().IntVar(&cfg.SenderID, "sender-id", cfg.SenderID, "sender id used in logs")
	root.Flags().StringVar(&cfg.Sink, "sink", cfg.Sink, "message sink: noop, discard, stdout")
	root.Flags().StringVar(&cfg.LogLevel, "log-level", cfg.LogLevel, "log level (debug, info, warn, error)")
	root.Flags().BoolVar(&cfg.NoRecycle, "no-recycle", cfg.NoRecycle, "allocate a new message buffer per message (debug)")
	root.Flags().BoolVar(&cfg.Watch, "watch", cfg.Watch, "reload throttle and counts when the config file changes")

	if err := root.Execute(); err != nil {
		log.Error().Err(err).Msg("msgbatch")
		os.Exit(1)
	}
}
