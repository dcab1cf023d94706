package repository

import (
	"database/sql"
	"errors"
	"strings"

	"github.com/jmoiron/sqlx"
	"github.com/templui/spaces/internal/model"
)

var ErrFileNotFound = errors.New("file not found")

// FileRepository scopes every read to a space through the parent folder's file manager
type FileRepository interface {
	Create(file *model.File) error
	Update(file *model.File) error
	Delete(id string) error

	ByID(spaceID, id string) (*model.File, error)
	InSubtree(folder *model.Folder) ([]*model.File, error)
	Search(spaceID, q string) ([]*model.File, error)
}

type fileRepository struct {
	db *sqlx.DB
}

func NewFileRepository(db *sqlx.DB) FileRepository {
	return &fileRepository{db: db}
}

func (r *fileRepository) Create(file *model.File) error {
	query := `INSERT INTO files (id, name, description, storage_path, mime_type, size, parent_id, created_by, created_at)
	          VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`

	_, err := r.db.Exec(query,
		file.ID,
		file.Name,
		file.Description,
		file.StoragePath,
		file.MimeType,
		file.Size,
		file.ParentID,
		file.CreatedBy,
		file.CreatedAt,
	)

	return err
}

func (r *fileRepository) Update(file *model.File) error {
	query := `UPDATE files SET name = $1, description = $2, storage_path = $3, mime_type = $4, size = $5, parent_id = $6 WHERE id = $7`

	result, err := r.db.Exec(query,
		file.Name,
		file.Description,
		file.StoragePath,
		file.MimeType,
		file.Size,
		file.ParentID,
		file.ID,
	)
	return expectRow(result, err, ErrFileNotFound)
}

func (r *fileRepository) Delete(id string) error {
	result, err := r.db.Exec(`DELETE FROM files WHERE id = $1`, id)
	return expectRow(result, err, ErrFileNotFound)
}

const scopedFiles = `SELECT f.* FROM files f
	JOIN folders d ON d.id = f.parent_id
	JOIN space_plugins p ON p.id = d.file_manager_id
	WHERE p.space_id = $1 AND p.kind = '` + model.PluginFiles + `'`

func (r *fileRepository) ByID(spaceID, id string) (*model.File, error) {
	file := &model.File{}

	err := r.db.Get(file, scopedFiles+` AND f.id = $2`, spaceID, id)
	if err == sql.ErrNoRows {
		return nil, ErrFileNotFound
	}
	return file, err
}

// InSubtree lists files of folder and all of its descendants, grouped by folder in tree order
func (r *fileRepository) InSubtree(folder *model.Folder) ([]*model.File, error) {
	var files []*model.File
	query := `SELECT f.* FROM files f
	          JOIN folders d ON d.id = f.parent_id
	          WHERE d.file_manager_id = $1 AND d.tree_id = $2 AND d.lft >= $3 AND d.rght <= $4
	          ORDER BY d.tree_id, d.lft, f.name`

	err := r.db.Select(&files, query, folder.FileManagerID, folder.TreeID, folder.Lft, folder.Rght)
	if err != nil {
		return nil, err
	}
	return files, nil
}

// Search matches q case-insensitively against name, description and stored path
func (r *fileRepository) Search(spaceID, q string) ([]*model.File, error) {
	var files []*model.File
	pattern := "%" + escapeLike(strings.ToLower(q)) + "%"
	query := scopedFiles + ` AND (LOWER(f.name) LIKE $2 ESCAPE '\' OR LOWER(f.description) LIKE $2 ESCAPE '\' OR LOWER(f.storage_path) LIKE $2 ESCAPE '\')
	          ORDER BY f.created_at DESC`

	err := r.db.Select(&files, query, spaceID, pattern)
	if err != nil {
		return nil, err
	}
	return files, nil
}

func escapeLike(s string) string {
	r := strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)
	return r.Replace(s)
}
