package sqlite

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/glebarez/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/xtreemtech/twitter-engagement-bot/internal/models"
)

// Repository implements storage.Repository using SQLite
type Repository struct {
	db *gorm.DB
}

// New creates a new SQLite repository
func New(dsn string) (*Repository, error) {
	// Ensure directory exists
	dir := filepath.Dir(dsn)
	if dir != "." && dir != "" {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("failed to create data directory: %w", err)
		}
	}

	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	return &Repository{db: db}, nil
}

// Migrate runs database migrations
func (r *Repository) Migrate() error {
	return r.db.AutoMigrate(
		&models.PostRecord{},
		&models.EngagementRecord{},
	)
}

// Close closes the database connection
func (r *Repository) Close() error {
	sqlDB, err := r.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

// CreatePostRecord saves a posting attempt
func (r *Repository) CreatePostRecord(ctx context.Context, record *models.PostRecord) error {
	return r.db.WithContext(ctx).Create(record).Error
}

// ListPostRecords returns the most recent posting attempts
func (r *Repository) ListPostRecords(ctx context.Context, limit int) ([]*models.PostRecord, error) {
	if limit <= 0 {
		limit = 50
	}
	var records []*models.PostRecord
	err := r.db.WithContext(ctx).
		Order("id DESC").
		Limit(limit).
		Find(&records).Error
	return records, err
}

// CreateEngagementRecord saves a like attempt
func (r *Repository) CreateEngagementRecord(ctx context.Context, record *models.EngagementRecord) error {
	return r.db.WithContext(ctx).Create(record).Error
}

// ListEngagementRecords returns the most recent like attempts
func (r *Repository) ListEngagementRecords(ctx context.Context, limit int) ([]*models.EngagementRecord, error) {
	if limit <= 0 {
		limit = 50
	}
	var records []*models.EngagementRecord
	err := r.db.WithContext(ctx).
		Order("id DESC").
		Limit(limit).
		Find(&records).Error
	return records, err
}
