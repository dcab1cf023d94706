package repository

import (
	"database/sql"
	"errors"

	"github.com/jmoiron/sqlx"
	"github.com/templui/spaces/internal/model"
)

var ErrNotificationTypeNotFound = errors.New("notification type not found")

type NotificationTypeRepository interface {
	Upsert(nt *model.NotificationType) error
	ByLabel(label string) (*model.NotificationType, error)
	All() ([]*model.NotificationType, error)
}

type notificationTypeRepository struct {
	db *sqlx.DB
}

func NewNotificationTypeRepository(db *sqlx.DB) NotificationTypeRepository {
	return &notificationTypeRepository{db: db}
}

func (r *notificationTypeRepository) Upsert(nt *model.NotificationType) error {
	query := `INSERT INTO notification_types (label, display, description) VALUES ($1, $2, $3)
	          ON CONFLICT (label) DO UPDATE SET display = excluded.display, description = excluded.description`

	_, err := r.db.Exec(query, nt.Label, nt.Display, nt.Description)
	return err
}

func (r *notificationTypeRepository) ByLabel(label string) (*model.NotificationType, error) {
	nt := &model.NotificationType{}
	err := r.db.Get(nt, `SELECT * FROM notification_types WHERE label = $1`, label)
	if err == sql.ErrNoRows {
		return nil, ErrNotificationTypeNotFound
	}
	return nt, err
}

func (r *notificationTypeRepository) All() ([]*model.NotificationType, error) {
	var types []*model.NotificationType
	err := r.db.Select(&types, `SELECT * FROM notification_types ORDER BY label`)
	if err != nil {
		return nil, err
	}
	return types, nil
}
