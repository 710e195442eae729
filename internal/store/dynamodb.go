// Package store persists analysis summaries and their per-comment results in
// DynamoDB.
package store

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/jonboulle/clockwork"

	"github.com/spacesedan/feedbacklens/internal/models"
)

const (
	maxBatchSize      = 25
	maxUnprocessedTry = 3
)

var ErrSummaryNotFound = errors.New("summary not found")

// DynamoAPI is the subset of the DynamoDB client the store uses.
type DynamoAPI interface {
	PutItem(ctx context.Context, params *dynamodb.PutItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.PutItemOutput, error)
	GetItem(ctx context.Context, params *dynamodb.GetItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.GetItemOutput, error)
	BatchWriteItem(ctx context.Context, params *dynamodb.BatchWriteItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.BatchWriteItemOutput, error)
	Query(ctx context.Context, params *dynamodb.QueryInput, optFns ...func(*dynamodb.Options)) (*dynamodb.QueryOutput, error)
	DescribeTable(ctx context.Context, params *dynamodb.DescribeTableInput, optFns ...func(*dynamodb.Options)) (*dynamodb.DescribeTableOutput, error)
}

type Tables struct {
	Summaries string
	Results   string
}

type SummaryStore struct {
	client  DynamoAPI
	tables  Tables
	ttl     time.Duration
	clock   clockwork.Clock
	backoff time.Duration
}

func NewSummaryStore(client DynamoAPI, tables Tables, ttl time.Duration, clock clockwork.Clock) *SummaryStore {
	return &SummaryStore{
		client:  client,
		tables:  tables,
		ttl:     ttl,
		clock:   clock,
		backoff: 500 * time.Millisecond,
	}
}

type summaryItem struct {
	SummaryID         string  `dynamodbav:"summary_id"`
	ModelID           string  `dynamodbav:"model_id"`
	TotalComments     int     `dynamodbav:"total_comments"`
	UniqueComments    int     `dynamodbav:"unique_comments"`
	DuplicatesIgnored int     `dynamodbav:"duplicates_ignored"`
	Positive          int     `dynamodbav:"positive"`
	Negative          int     `dynamodbav:"negative"`
	Neutral           int     `dynamodbav:"neutral"`
	SatisfactionScore float64 `dynamodbav:"satisfaction_score"`
	AverageConfidence float64 `dynamodbav:"average_confidence"`
	CreatedAt         int64   `dynamodbav:"created_at"`
	TTL               int64   `dynamodbav:"ttl"`
}

type resultItem struct {
	SummaryID      string   `dynamodbav:"summary_id"`
	Position       int      `dynamodbav:"position"`
	Comment        string   `dynamodbav:"comment"`
	SentimentLabel string   `dynamodbav:"sentiment_label"`
	Confidence     float64  `dynamodbav:"confidence"`
	Keywords       []string `dynamodbav:"keywords"`
	TTL            int64    `dynamodbav:"ttl"`
}

// SaveSummary writes the summary header and then every result row in
// batches of 25, retrying unprocessed items with exponential backoff.
func (s *SummaryStore) SaveSummary(ctx context.Context, summary models.AnalysisSummary) error {
	expiresAt := s.clock.Now().Add(s.ttl).Unix()

	header, err := attributevalue.MarshalMap(toSummaryItem(summary, expiresAt))
	if err != nil {
		return fmt.Errorf("[DynamoDB] Failed to marshal summary: %w", err)
	}

	_, err = s.client.PutItem(ctx, &dynamodb.PutItemInput{
		TableName: aws.String(s.tables.Summaries),
		Item:      header,
	})
	if err != nil {
		return fmt.Errorf("[DynamoDB] Failed to put summary: %w", err)
	}

	writeRequests := make([]types.WriteRequest, 0, len(summary.Results))
	for i, r := range summary.Results {
		item, err := attributevalue.MarshalMap(resultItem{
			SummaryID:      summary.ID,
			Position:       i,
			Comment:        string(r.Comment),
			SentimentLabel: r.Sentiment.String(),
			Confidence:     r.Confidence,
			Keywords:       r.Keywords,
			TTL:            expiresAt,
		})
		if err != nil {
			return fmt.Errorf("[DynamoDB] Failed to marshal result %d: %w", i, err)
		}
		writeRequests = append(writeRequests, types.WriteRequest{
			PutRequest: &types.PutRequest{Item: item},
		})
	}

	for i := 0; i < len(writeRequests); i += maxBatchSize {
		select {
		case <-ctx.Done():
			slog.Warn("[DynamoDB] context canceled")
			return ctx.Err()
		default:
		}

		end := min(i+maxBatchSize, len(writeRequests))
		if err := s.batchWrite(ctx, writeRequests[i:end]); err != nil {
			return err
		}
	}

	slog.Info("[DynamoDB] Successfully stored analysis summary",
		slog.String("summary_id", summary.ID),
		slog.Int("results", len(summary.Results)))
	return nil
}

func (s *SummaryStore) batchWrite(ctx context.Context, requests []types.WriteRequest) error {
	out, err := s.client.BatchWriteItem(ctx, &dynamodb.BatchWriteItemInput{
		RequestItems: map[string][]types.WriteRequest{
			s.tables.Results: requests,
		},
	})
	if err != nil {
		return fmt.Errorf("[DynamoDB] Failed to batch write results: %w", err)
	}

	retryCount := 0
	backoff := s.backoff
	for len(out.UnprocessedItems) > 0 && retryCount < maxUnprocessedTry {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(backoff):
		}
		backoff *= 2

		slog.Warn("[DynamoDB] Retrying unprocessed result items...",
			slog.Int("attempt", retryCount+1),
			slog.Int("remaining", len(out.UnprocessedItems[s.tables.Results])))

		out, err = s.client.BatchWriteItem(ctx, &dynamodb.BatchWriteItemInput{
			RequestItems: out.UnprocessedItems,
		})
		if err != nil {
			return fmt.Errorf("[DynamoDB] Retry error: %w", err)
		}
		retryCount++
	}

	if remaining := len(out.UnprocessedItems[s.tables.Results]); remaining > 0 {
		return fmt.Errorf("[DynamoDB] %d result items unprocessed after %d retries", remaining, maxUnprocessedTry)
	}
	return nil
}

// GetSummary loads a stored summary with its results in original order.
func (s *SummaryStore) GetSummary(ctx context.Context, id string) (models.AnalysisSummary, error) {
	out, err := s.client.GetItem(ctx, &dynamodb.GetItemInput{
		TableName: aws.String(s.tables.Summaries),
		Key: map[string]types.AttributeValue{
			"summary_id": &types.AttributeValueMemberS{Value: id},
		},
	})
	if err != nil {
		return models.AnalysisSummary{}, fmt.Errorf("[DynamoDB] Failed to get summary: %w", err)
	}
	if len(out.Item) == 0 {
		return models.AnalysisSummary{}, fmt.Errorf("[DynamoDB] %w: %s", ErrSummaryNotFound, id)
	}

	var header summaryItem
	if err := attributevalue.UnmarshalMap(out.Item, &header); err != nil {
		return models.AnalysisSummary{}, fmt.Errorf("[DynamoDB] Failed to unmarshal summary: %w", err)
	}

	summary := fromSummaryItem(header)

	paginator := dynamodb.NewQueryPaginator(s.client, &dynamodb.QueryInput{
		TableName:              aws.String(s.tables.Results),
		KeyConditionExpression: aws.String("summary_id = :id"),
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":id": &types.AttributeValueMemberS{Value: id},
		},
		ScanIndexForward: aws.Bool(true),
	})

	var rows []resultItem
	for paginator.HasMorePages() {
		page, err := paginator.NextPage(ctx)
		if err != nil {
			return models.AnalysisSummary{}, fmt.Errorf("[DynamoDB] Query for results failed: %w", err)
		}
		var pageRows []resultItem
		if err := attributevalue.UnmarshalListOfMaps(page.Items, &pageRows); err != nil {
			return models.AnalysisSummary{}, fmt.Errorf("[DynamoDB] Unable to unmarshal result page: %w", err)
		}
		rows = append(rows, pageRows...)
	}

	summary.Results = make([]models.ClassificationResult, len(rows))
	for _, row := range rows {
		if row.Position < 0 || row.Position >= len(rows) {
			return models.AnalysisSummary{}, fmt.Errorf("[DynamoDB] result position %d out of range", row.Position)
		}
		label, err := models.ParseSentimentLabel(row.SentimentLabel)
		if err != nil {
			return models.AnalysisSummary{}, fmt.Errorf("[DynamoDB] %w", err)
		}
		summary.Results[row.Position] = models.ClassificationResult{
			Comment:    models.Comment(row.Comment),
			Sentiment:  label,
			Confidence: row.Confidence,
			Keywords:   row.Keywords,
		}
	}

	return summary, nil
}

// Ping checks that both tables exist and are active.
func (s *SummaryStore) Ping(ctx context.Context) error {
	for _, table := range []string{s.tables.Summaries, s.tables.Results} {
		out, err := s.client.DescribeTable(ctx, &dynamodb.DescribeTableInput{
			TableName: aws.String(table),
		})
		if err != nil {
			return fmt.Errorf("[DynamoDB] describe %s: %w", table, err)
		}
		if out.Table == nil || out.Table.TableStatus != types.TableStatusActive {
			return fmt.Errorf("[DynamoDB] table %s is not active", table)
		}
	}
	return nil
}

func toSummaryItem(s models.AnalysisSummary, expiresAt int64) summaryItem {
	return summaryItem{
		SummaryID:         s.ID,
		ModelID:           s.ModelID,
		TotalComments:     s.TotalComments,
		UniqueComments:    s.UniqueComments,
		DuplicatesIgnored: s.DuplicatesIgnored,
		Positive:          s.SentimentCounts.Positive,
		Negative:          s.SentimentCounts.Negative,
		Neutral:           s.SentimentCounts.Neutral,
		SatisfactionScore: s.SatisfactionScore,
		AverageConfidence: s.AverageConfidence,
		CreatedAt:         s.Timestamp.Unix(),
		TTL:               expiresAt,
	}
}

func fromSummaryItem(it summaryItem) models.AnalysisSummary {
	return models.AnalysisSummary{
		ID:                it.SummaryID,
		TotalComments:     it.TotalComments,
		UniqueComments:    it.UniqueComments,
		DuplicatesIgnored: it.DuplicatesIgnored,
		SentimentCounts: models.SentimentCounts{
			Positive: it.Positive,
			Negative: it.Negative,
			Neutral:  it.Neutral,
		},
		SatisfactionScore: it.SatisfactionScore,
		AverageConfidence: it.AverageConfidence,
		ModelID:           it.ModelID,
		Timestamp:         time.Unix(it.CreatedAt, 0).UTC(),
	}
}
