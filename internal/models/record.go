package models

import (
	"time"
)

// ActionOutcome represents the result of a bot action
type ActionOutcome string

const (
	OutcomeSuccess ActionOutcome = "success"
	OutcomeFailed  ActionOutcome = "failed"
)

// PostRecord is the durable history of a posting attempt
type PostRecord struct {
	ID          uint          `gorm:"primaryKey" json:"id"`
	Content     string        `gorm:"type:text;not null" json:"content"`
	TweetID     string        `gorm:"index" json:"tweet_id"`
	WithImage   bool          `json:"with_image"`
	ImageURL    string        `json:"image_url"`
	AIGenerated bool          `json:"ai_generated"`
	Outcome     ActionOutcome `gorm:"default:'success';index" json:"outcome"`
	Error       string        `json:"error"`
	CreatedAt   time.Time     `gorm:"autoCreateTime;index" json:"created_at"`
}

// EngagementRecord is the durable history of a single like
type EngagementRecord struct {
	ID        uint          `gorm:"primaryKey" json:"id"`
	Keyword   string        `gorm:"index" json:"keyword"`
	TweetID   string        `gorm:"index" json:"tweet_id"`
	Outcome   ActionOutcome `gorm:"default:'success';index" json:"outcome"`
	Error     string        `json:"error"`
	CreatedAt time.Time     `gorm:"autoCreateTime;index" json:"created_at"`
}
