package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/spacesedan/feedbacklens/config"
	"github.com/spacesedan/feedbacklens/internal/logging"
)

func main() {
	config.LoadEnv(config.AppEnv())

	cfg, err := config.Load()
	if err != nil {
		logging.InitLogger("info")
		slog.Error("[Main] Invalid configuration", slog.String("error", err.Error()))
		os.Exit(1)
	}
	logging.InitLogger(cfg.LogLevel)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := newRootCmd(cfg).ExecuteContext(ctx); err != nil {
		os.Exit(1)
	}
}

func newRootCmd(cfg *config.Config) *cobra.Command {
	opts := optionsFromConfig(cfg)

	cmd := &cobra.Command{
		Use:   "analyze [file]",
		Short: "Score a batch of comments and lay out their word cloud",
		Long: "Reads one comment per line from file, or stdin when no file is given, " +
			"and prints the analysis summary and word cloud as JSON.",
		Args:          cobra.MaximumNArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			in := cmd.InOrStdin()
			if len(args) == 1 && args[0] != "-" {
				f, err := os.Open(args[0])
				if err != nil {
					return err
				}
				defer f.Close()
				in = f
			}

			err := run(cmd.Context(), opts, in, cmd.OutOrStdout())
			if opts.cache != nil {
				opts.cache.Close()
			}
			if err != nil {
				slog.Error("[Analyze] Analysis failed", slog.String("error", err.Error()))
				return err
			}
			return nil
		},
	}

	flags := cmd.Flags()
	flags.StringVar(&opts.ModelID, "model", opts.ModelID, "sentiment model: lexicon or vader")
	flags.StringVar(&opts.LexiconPath, "lexicon", opts.LexiconPath, "YAML lexicon file replacing the built-in word lists")
	flags.IntVar(&opts.Workers, "workers", opts.Workers, "classification workers (0 uses GOMAXPROCS)")
	flags.IntVar(&opts.Cloud.Width, "width", opts.Cloud.Width, "word cloud canvas width in px")
	flags.IntVar(&opts.Cloud.Height, "height", opts.Cloud.Height, "word cloud canvas height in px")
	flags.IntVar(&opts.Cloud.MaxWords, "max-words", opts.Cloud.MaxWords, "most words placed in the cloud")
	flags.Float64Var(&opts.Cloud.RotateRatio, "rotate-ratio", opts.Cloud.RotateRatio, "share of words rotated 90 degrees")
	flags.Uint64Var(&opts.Cloud.Seed, "seed", opts.Cloud.Seed, "seed for word rotation")
	flags.BoolVar(&opts.Shrink, "shrink", opts.Shrink, "shrink words that do not fit instead of dropping them")
	flags.BoolVar(&opts.NoCloud, "no-cloud", false, "skip the word cloud")
	flags.BoolVar(&opts.Persist, "persist", false, "store the summary in DynamoDB")
	flags.BoolVar(&opts.UseCache, "cache", false, "look up and store the summary in Valkey")

	return cmd
}
