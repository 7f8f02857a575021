package repositories

import (
	"context"
	"gorm.io/gorm"
	"parcel-status-relay/workers/tracking/models"
)

const defaultRecentLimit = 20

// Repository stores the history of delivered status notifications.
type Repository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

func (r *Repository) Migrate() error {
	return r.db.AutoMigrate(&models.Notification{})
}

func (r *Repository) SaveNotification(ctx context.Context, notification *models.Notification) error {
	return r.db.WithContext(ctx).Create(notification).Error
}

// RecentNotifications returns the newest notifications first.
func (r *Repository) RecentNotifications(ctx context.Context, limit int) ([]models.Notification, error) {
	if limit <= 0 {
		limit = defaultRecentLimit
	}
	var notifications []models.Notification
	err := r.db.WithContext(ctx).
		Order("sent_at desc").
		Order("id desc").
		Limit(limit).
		Find(&notifications).Error
	return notifications, err
}
