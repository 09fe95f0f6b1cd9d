package entity

import "time"

// PostMetric is one tracked publication
type PostMetric struct {
	RemoteID  string    `json:"remote_id"`
	Content   string    `json:"content"`
	PostType  string    `json:"post_type"`
	CreatedAt time.Time `json:"created_at"`
}

// ResponseMetric is one tracked outbound response
type ResponseMetric struct {
	ReplyID   string    `json:"reply_id"`
	SourceID  string    `json:"source_id"`
	UserID    string    `json:"user_id"`
	Kind      string    `json:"kind"`
	CreatedAt time.Time `json:"created_at"`
}

// DailyStat aggregates activity for one calendar date
type DailyStat struct {
	Date      string `json:"date"`
	Posts     int    `json:"posts"`
	Responses int    `json:"responses"`
}

// Report covers activity over a trailing day range
type Report struct {
	Days           int         `json:"days"`
	TotalPosts     int         `json:"total_posts"`
	TotalResponses int         `json:"total_responses"`
	Daily          []DailyStat `json:"daily"`
}
