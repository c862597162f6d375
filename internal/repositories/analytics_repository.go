package repositories

import (
	"time"

	"github.com/waveline-app/backend/internal/models"
	"gorm.io/gorm"
)

// AnalyticsRepository defines the interface for the engagement ledger
type AnalyticsRepository interface {
	Track(entry *models.AnalyticsEntry) error
	GetTimelineStats(timelineID string, from, to time.Time) ([]models.AnalyticsBucket, error)
}

// PostgresAnalyticsRepository implements AnalyticsRepository for PostgreSQL
type PostgresAnalyticsRepository struct {
	db *gorm.DB
}

// NewPostgresAnalyticsRepository creates a new PostgresAnalyticsRepository
func NewPostgresAnalyticsRepository(db *gorm.DB) *PostgresAnalyticsRepository {
	return &PostgresAnalyticsRepository{db: db}
}

// Track records one engagement row
func (r *PostgresAnalyticsRepository) Track(entry *models.AnalyticsEntry) error {
	return r.db.Create(entry).Error
}

// GetTimelineStats groups the timeline's engagement counts per type per day
func (r *PostgresAnalyticsRepository) GetTimelineStats(timelineID string, from, to time.Time) ([]models.AnalyticsBucket, error) {
	var buckets []models.AnalyticsBucket
	err := r.db.Model(&models.AnalyticsEntry{}).
		Select("type, to_char(created_at, 'YYYY-MM-DD') AS date, count(*) AS count").
		Where("timeline_id = ? AND created_at >= ? AND created_at <= ?", timelineID, from, to).
		Group("type, to_char(created_at, 'YYYY-MM-DD')").
		Order("date").
		Scan(&buckets).Error
	return buckets, err
}
