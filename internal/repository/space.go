package repository

import (
	"database/sql"
	"errors"

	"github.com/jmoiron/sqlx"
	"github.com/templui/spaces/internal/model"
)

var (
	ErrSpaceNotFound  = errors.New("space not found")
	ErrDuplicateSlug  = errors.New("space slug already exists")
	ErrMemberNotFound = errors.New("space member not found")
)

type SpaceRepository interface {
	Create(space *model.Space) error
	ByID(id string) (*model.Space, error)
	BySlug(slug string) (*model.Space, error)
	All() ([]*model.Space, error)
	SpacesForUser(userID string) ([]*model.Space, error)

	AddMember(member *model.SpaceMember) error
	Member(spaceID, userID string) (*model.SpaceMember, error)
	Members(spaceID string) ([]*model.SpaceMember, error)
	RemoveMember(spaceID, userID string) error
}

type spaceRepository struct {
	db *sqlx.DB
}

func NewSpaceRepository(db *sqlx.DB) SpaceRepository {
	return &spaceRepository{db: db}
}

func (r *spaceRepository) Create(space *model.Space) error {
	query := `INSERT INTO spaces (id, name, slug, created_by, created_at) VALUES ($1, $2, $3, $4, $5)`

	_, err := r.db.Exec(query, space.ID, space.Name, space.Slug, space.CreatedBy, space.CreatedAt)
	if isUniqueViolation(err) {
		return ErrDuplicateSlug
	}
	return err
}

func (r *spaceRepository) ByID(id string) (*model.Space, error) {
	space := &model.Space{}
	err := r.db.Get(space, `SELECT * FROM spaces WHERE id = $1`, id)
	if err == sql.ErrNoRows {
		return nil, ErrSpaceNotFound
	}
	return space, err
}

func (r *spaceRepository) BySlug(slug string) (*model.Space, error) {
	space := &model.Space{}
	err := r.db.Get(space, `SELECT * FROM spaces WHERE slug = $1`, slug)
	if err == sql.ErrNoRows {
		return nil, ErrSpaceNotFound
	}
	return space, err
}

func (r *spaceRepository) All() ([]*model.Space, error) {
	var spaces []*model.Space
	err := r.db.Select(&spaces, `SELECT * FROM spaces ORDER BY name`)
	if err != nil {
		return nil, err
	}
	return spaces, nil
}

func (r *spaceRepository) SpacesForUser(userID string) ([]*model.Space, error) {
	var spaces []*model.Space
	query := `SELECT s.* FROM spaces s
	          JOIN space_members m ON m.space_id = s.id
	          WHERE m.user_id = $1
	          ORDER BY s.name`

	err := r.db.Select(&spaces, query, userID)
	if err != nil {
		return nil, err
	}
	return spaces, nil
}

func (r *spaceRepository) AddMember(member *model.SpaceMember) error {
	query := `INSERT INTO space_members (space_id, user_id, role, created_at) VALUES ($1, $2, $3, $4)
	          ON CONFLICT (space_id, user_id) DO UPDATE SET role = excluded.role`

	_, err := r.db.Exec(query, member.SpaceID, member.UserID, member.Role, member.CreatedAt)
	return err
}

const memberColumns = `m.space_id, m.user_id, m.role, m.created_at, u.email, u.name`

func (r *spaceRepository) Member(spaceID, userID string) (*model.SpaceMember, error) {
	member := &model.SpaceMember{}
	query := `SELECT ` + memberColumns + ` FROM space_members m
	          JOIN users u ON u.id = m.user_id
	          WHERE m.space_id = $1 AND m.user_id = $2`

	err := r.db.Get(member, query, spaceID, userID)
	if err == sql.ErrNoRows {
		return nil, ErrMemberNotFound
	}
	return member, err
}

func (r *spaceRepository) Members(spaceID string) ([]*model.SpaceMember, error) {
	var members []*model.SpaceMember
	query := `SELECT ` + memberColumns + ` FROM space_members m
	          JOIN users u ON u.id = m.user_id
	          WHERE m.space_id = $1
	          ORDER BY u.email`

	err := r.db.Select(&members, query, spaceID)
	if err != nil {
		return nil, err
	}
	return members, nil
}

func (r *spaceRepository) RemoveMember(spaceID, userID string) error {
	result, err := r.db.Exec(`DELETE FROM space_members WHERE space_id = $1 AND user_id = $2`, spaceID, userID)
	return expectRow(result, err, ErrMemberNotFound)
}
