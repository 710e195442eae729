package main

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/spacesedan/feedbacklens/config"
	"github.com/spacesedan/feedbacklens/internal/logging"
	"github.com/spacesedan/feedbacklens/internal/models"
	"github.com/spacesedan/feedbacklens/internal/stream"
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
		slog.Error("[Producer] Failed to publish comments", slog.String("error", err.Error()))
		os.Exit(1)
	}
}

func newRootCmd(cfg *config.Config) *cobra.Command {
	var source string
	chunk := cfg.BatchSize

	cmd := &cobra.Command{
		Use:           "producer [file]",
		Short:         "Publish one comment per line onto the comments topic",
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

			comments, err := readComments(in, source, uuid.NewString)
			if err != nil {
				return err
			}

			producer, err := stream.NewProducer(cmd.Context(), stream.KafkaConfig{
				Broker:          cfg.KafkaBroker,
				CommentsTopic:   cfg.KafkaCommentsTopic,
				SummaryTopic:    cfg.KafkaSummaryTopic,
				TransactionalID: cfg.KafkaTransactionalID + "-feeder",
			})
			if err != nil {
				return err
			}
			defer producer.Close()

			for _, part := range chunks(comments, chunk) {
				if err := producer.PublishComments(cmd.Context(), part); err != nil {
					return err
				}
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&source, "source", "cli", "source label attached to each comment")
	cmd.Flags().IntVar(&chunk, "chunk", chunk, "comments per transaction")
	return cmd
}

// readComments turns every non-blank line into a message. Duplicates are
// kept; the worker deduplicates per batch.
func readComments(r io.Reader, source string, newID func() string) ([]models.CommentMessage, error) {
	var out []models.CommentMessage

	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 64*1024), 1024*1024)
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		if line == "" {
			continue
		}
		out = append(out, models.CommentMessage{
			CommentID: newID(),
			Source:    source,
			Text:      line,
		})
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("failed to read comments: %w", err)
	}
	return out, nil
}

func chunks[T any](items []T, size int) [][]T {
	if size <= 0 {
		size = stream.DefaultBatchSize
	}
	var out [][]T
	for len(items) > size {
		out = append(out, items[:size])
		items = items[size:]
	}
	if len(items) > 0 {
		out = append(out, items)
	}
	return out
}
