package repository

import (
	"github.com/jmoiron/sqlx"
	"github.com/templui/spaces/internal/model"
)

// ActivityRepository is append-only
type ActivityRepository interface {
	Create(activity *model.Activity) error
	ByTarget(targetType, targetID string, limit int) ([]*model.Activity, error)
}

type activityRepository struct {
	db *sqlx.DB
}

func NewActivityRepository(db *sqlx.DB) ActivityRepository {
	return &activityRepository{db: db}
}

func (r *activityRepository) Create(a *model.Activity) error {
	query := `INSERT INTO activities (id, actor_id, verb, target_type, target_id, object_type, object_id, object_name, created_at)
	          VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`

	_, err := r.db.Exec(query,
		a.ID,
		a.ActorID,
		a.Verb,
		a.TargetType,
		a.TargetID,
		a.ObjectType,
		a.ObjectID,
		a.ObjectName,
		a.CreatedAt,
	)
	return err
}

func (r *activityRepository) ByTarget(targetType, targetID string, limit int) ([]*model.Activity, error) {
	var activities []*model.Activity
	query := `SELECT a.*, COALESCE(NULLIF(u.name, ''), u.email) AS actor_name
	          FROM activities a
	          JOIN users u ON u.id = a.actor_id
	          WHERE a.target_type = $1 AND a.target_id = $2
	          ORDER BY a.created_at DESC
	          LIMIT $3`

	err := r.db.Select(&activities, query, targetType, targetID, limit)
	if err != nil {
		return nil, err
	}
	return activities, nil
}
