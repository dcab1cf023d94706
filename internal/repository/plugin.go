package repository

import (
	"database/sql"
	"errors"

	"github.com/jmoiron/sqlx"
	"github.com/templui/spaces/internal/model"
)

var ErrPluginNotFound = errors.New("plugin not found")

// PluginRepository persists per-space plugin instances (space_plugins)
type PluginRepository interface {
	Create(fm *model.FileManager) error
	ByKind(spaceID, kind string) (*model.FileManager, error)
	SetActive(id string, active bool) error
	Instances(spaceID string) ([]*model.FileManager, error)
}

type pluginRepository struct {
	db *sqlx.DB
}

func NewPluginRepository(db *sqlx.DB) PluginRepository {
	return &pluginRepository{db: db}
}

func (r *pluginRepository) Create(fm *model.FileManager) error {
	query := `INSERT INTO space_plugins (id, space_id, kind, active, created_at) VALUES ($1, $2, $3, $4, $5)`

	_, err := r.db.Exec(query, fm.ID, fm.SpaceID, fm.Kind, fm.Active, fm.CreatedAt)
	return err
}

func (r *pluginRepository) ByKind(spaceID, kind string) (*model.FileManager, error) {
	fm := &model.FileManager{}
	query := `SELECT * FROM space_plugins WHERE space_id = $1 AND kind = $2`

	err := r.db.Get(fm, query, spaceID, kind)
	if err == sql.ErrNoRows {
		return nil, ErrPluginNotFound
	}
	return fm, err
}

func (r *pluginRepository) SetActive(id string, active bool) error {
	result, err := r.db.Exec(`UPDATE space_plugins SET active = $1 WHERE id = $2`, active, id)
	return expectRow(result, err, ErrPluginNotFound)
}

func (r *pluginRepository) Instances(spaceID string) ([]*model.FileManager, error) {
	var instances []*model.FileManager
	err := r.db.Select(&instances, `SELECT * FROM space_plugins WHERE space_id = $1 ORDER BY kind`, spaceID)
	if err != nil {
		return nil, err
	}
	return instances, nil
}
