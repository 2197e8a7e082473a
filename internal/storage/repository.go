package storage

import (
	"context"

	"github.com/xtreemtech/twitter-engagement-bot/internal/models"
)

// Repository defines the interface for action history persistence
type Repository interface {
	// Post history
	CreatePostRecord(ctx context.Context, record *models.PostRecord) error
	ListPostRecords(ctx context.Context, limit int) ([]*models.PostRecord, error)

	// Engagement history
	CreateEngagementRecord(ctx context.Context, record *models.EngagementRecord) error
	ListEngagementRecords(ctx context.Context, limit int) ([]*models.EngagementRecord, error)

	// Maintenance
	Close() error
	Migrate() error
}
