package models

// Comment is a single trimmed, non-empty line of feedback.
type Comment string

// ParsedBatch is the normalized form of one raw input.
type ParsedBatch struct {
	Comments              []Comment `json:"comments"`
	RawCount              int       `json:"raw_count"`
	UniqueCount           int       `json:"unique_count"`
	DuplicateCount        int       `json:"duplicate_count"`
	SingleTokenWarning    bool      `json:"single_token_warning"`
	SingleTokenPercentage float64   `json:"single_token_percentage"`
}

// CommentMessage is the stream payload for a single comment.
type CommentMessage struct {
	CommentID string `json:"comment_id"`
	Source    string `json:"source"`
	Text      string `json:"text"`
}
