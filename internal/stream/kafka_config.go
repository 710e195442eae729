package stream

type KafkaConfig struct {
	Broker          string
	GroupID         string
	CommentsTopic   string
	SummaryTopic    string
	TransactionalID string
}
