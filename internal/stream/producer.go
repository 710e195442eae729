package stream

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/confluentinc/confluent-kafka-go/kafka"

	"github.com/spacesedan/feedbacklens/internal/models"
)

// TransactionalProducer is the part of *kafka.Producer used for publishing.
type TransactionalProducer interface {
	BeginTransaction() error
	Produce(msg *kafka.Message, deliveryChan chan kafka.Event) error
	AbortTransaction(ctx context.Context) error
	CommitTransaction(ctx context.Context) error
	Flush(timeoutMs int) int
	Close()
}

// Producer publishes comments and analysis summaries transactionally.
type Producer struct {
	producer      TransactionalProducer
	commentsTopic string
	summaryTopic  string
}

type keyedValue struct {
	key   string
	value any
}

func NewProducer(ctx context.Context, cfg KafkaConfig) (*Producer, error) {
	slog.Info("[KafkaClient] Initializing Kafka Producer...",
		slog.String("broker", cfg.Broker))

	p, err := kafka.NewProducer(&kafka.ConfigMap{
		"bootstrap.servers":                     cfg.Broker,
		"security.protocol":                     "PLAINTEXT",
		"api.version.request":                   "true",
		"enable.idempotence":                    true,
		"acks":                                  "all",
		"max.in.flight.requests.per.connection": 1,
		"transactional.id":                      cfg.TransactionalID,
	})
	if err != nil {
		return nil, fmt.Errorf("[KafkaClient] Failed to create producer: %w", err)
	}

	if err := p.InitTransactions(ctx); err != nil {
		p.Close()
		return nil, fmt.Errorf("[KafkaClient] Failed to init transactions: %w", err)
	}

	slog.Info("[KafkaClient] Kafka Producer initialized successfully")
	return newProducer(p, cfg), nil
}

func newProducer(p TransactionalProducer, cfg KafkaConfig) *Producer {
	return &Producer{
		producer:      p,
		commentsTopic: cfg.CommentsTopic,
		summaryTopic:  cfg.SummaryTopic,
	}
}

func (p *Producer) PublishSummary(ctx context.Context, summary models.AnalysisSummary) error {
	if err := p.publish(ctx, p.summaryTopic, []keyedValue{{key: summary.ID, value: summary}}); err != nil {
		return err
	}

	slog.Info("[KafkaClient] Published analysis summary",
		slog.String("topic", p.summaryTopic),
		slog.String("summary_id", summary.ID))
	return nil
}

// PublishComments sends comments in one transaction, keyed by comment ID.
func (p *Producer) PublishComments(ctx context.Context, comments []models.CommentMessage) error {
	if len(comments) == 0 {
		return nil
	}

	batch := make([]keyedValue, len(comments))
	for i, c := range comments {
		batch[i] = keyedValue{key: c.CommentID, value: c}
	}
	if err := p.publish(ctx, p.commentsTopic, batch); err != nil {
		return err
	}

	slog.Info("[KafkaClient] Published comments",
		slog.String("topic", p.commentsTopic),
		slog.Int("count", len(comments)))
	return nil
}

func (p *Producer) publish(ctx context.Context, topic string, batch []keyedValue) error {
	msgs := make([]*kafka.Message, len(batch))
	for i, kv := range batch {
		data, err := json.Marshal(kv.value)
		if err != nil {
			return fmt.Errorf("[KafkaClient] failed to marshal message: %w", err)
		}
		msgs[i] = &kafka.Message{
			TopicPartition: kafka.TopicPartition{Topic: &topic, Partition: kafka.PartitionAny},
			Key:            []byte(kv.key),
			Value:          data,
		}
	}

	if err := p.producer.BeginTransaction(); err != nil {
		return fmt.Errorf("[KafkaClient] failed to begin transaction: %w", err)
	}

	for _, msg := range msgs {
		var err error
		for i := 0; i < MaxProduceRetries; i++ {
			err = p.producer.Produce(msg, nil)
			if err == nil {
				break
			}
			slog.Warn("[KafkaClient] Failed to produce message, retrying...",
				slog.Int("attempt", i+1),
				slog.String("error", err.Error()))
		}
		if err != nil {
			if abortErr := p.producer.AbortTransaction(ctx); abortErr != nil {
				return fmt.Errorf("[KafkaClient] failed to abort transaction after produce error: %w", abortErr)
			}
			return fmt.Errorf("[KafkaClient] failed to produce message: %w", err)
		}
	}

	var commitErr error
	for i := 0; i < MaxProduceRetries; i++ {
		commitErr = p.producer.CommitTransaction(ctx)
		if commitErr == nil {
			break
		}
		slog.Warn("[KafkaClient] Failed to commit transaction, retrying...",
			slog.Int("attempt", i+1))
	}
	if commitErr != nil {
		return fmt.Errorf("[KafkaClient] failed to commit transaction after %d retries: %w", MaxProduceRetries, commitErr)
	}
	return nil
}

func (p *Producer) Close() {
	slog.Info("[KafkaClient] Flushing Kafka producer before shutdown...")
	if remaining := p.producer.Flush(5000); remaining > 0 {
		slog.Warn("[KafkaClient] Not all messages were delivered before shutdown",
			slog.Int("remaining", remaining))
	}
	p.producer.Close()
	slog.Info("[KafkaClient] Kafka producer shut down")
}
