package repository

import (
	"database/sql"
	"errors"
	"fmt"

	"github.com/jmoiron/sqlx"
	"github.com/templui/spaces/internal/db"
	"github.com/templui/spaces/internal/model"
	"github.com/templui/spaces/internal/tree"
)

var ErrFolderNotFound = errors.New("folder not found")

// FolderRepository stores folders with their tree bounds. Every write
// reloads the file manager's folders inside a transaction, applies the
// change and rewrites the bounds that moved.
type FolderRepository interface {
	Create(folder *model.Folder) error
	Update(folder *model.Folder) error
	// DeleteSubtree removes folder, its descendants and their files,
	// returning the removed files so their payloads can be cleaned up.
	DeleteSubtree(folder *model.Folder) ([]*model.File, error)

	ByID(spaceID, id string) (*model.Folder, error)
	Folders(spaceID string) ([]*model.Folder, error)
	Subtree(spaceID string, folder *model.Folder, includeSelf bool) ([]*model.Folder, error)
}

type folderRepository struct {
	db *sqlx.DB
}

func NewFolderRepository(db *sqlx.DB) FolderRepository {
	return &folderRepository{db: db}
}

type bounds struct {
	treeID, lft, rght, level int
}

func boundsOf(f *model.Folder) bounds {
	return bounds{f.TreeID, f.Lft, f.Rght, f.Level}
}

func (r *folderRepository) Create(folder *model.Folder) error {
	return db.InTx(r.db, func(tx *sqlx.Tx) error {
		all, err := loadFolders(tx, folder.FileManagerID)
		if err != nil {
			return err
		}
		before := snapshot(all)

		node := *folder
		all = append(all, &node)
		_, err = tree.Build(all)
		if err != nil {
			return err
		}

		query := `INSERT INTO folders (id, name, description, parent_id, file_manager_id, created_by, created_at, tree_id, lft, rght, level)
		          VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)`
		_, err = tx.Exec(query,
			node.ID,
			node.Name,
			node.Description,
			node.ParentID,
			node.FileManagerID,
			node.CreatedBy,
			node.CreatedAt,
			node.TreeID,
			node.Lft,
			node.Rght,
			node.Level,
		)
		if err != nil {
			return fmt.Errorf("failed to insert folder: %w", err)
		}

		err = writeBounds(tx, all, before)
		if err != nil {
			return err
		}

		*folder = node
		return nil
	})
}

func (r *folderRepository) Update(folder *model.Folder) error {
	return db.InTx(r.db, func(tx *sqlx.Tx) error {
		all, err := loadFolders(tx, folder.FileManagerID)
		if err != nil {
			return err
		}
		before := snapshot(all)

		var node *model.Folder
		for _, f := range all {
			if f.ID == folder.ID {
				node = f
				break
			}
		}
		if node == nil {
			return ErrFolderNotFound
		}

		err = tree.ValidateMove(all, node.ID, folder.Parent())
		if err != nil {
			return err
		}

		node.Name = folder.Name
		node.Description = folder.Description
		node.ParentID = folder.ParentID
		_, err = tree.Build(all)
		if err != nil {
			return err
		}

		query := `UPDATE folders SET name = $1, description = $2, parent_id = $3 WHERE id = $4`
		_, err = tx.Exec(query, node.Name, node.Description, node.ParentID, node.ID)
		if err != nil {
			return fmt.Errorf("failed to update folder: %w", err)
		}

		err = writeBounds(tx, all, before)
		if err != nil {
			return err
		}

		*folder = *node
		return nil
	})
}

func (r *folderRepository) DeleteSubtree(folder *model.Folder) ([]*model.File, error) {
	var removed []*model.File

	err := db.InTx(r.db, func(tx *sqlx.Tx) error {
		all, err := loadFolders(tx, folder.FileManagerID)
		if err != nil {
			return err
		}

		var node *model.Folder
		for _, f := range all {
			if f.ID == folder.ID {
				node = f
				break
			}
		}
		if node == nil {
			return ErrFolderNotFound
		}

		doomed := make(map[string]bool)
		for _, f := range tree.Descendants(all, node, true) {
			doomed[f.ID] = true
		}

		// Bounds are fresh because they were just loaded inside the transaction
		inSubtree := `SELECT id FROM folders WHERE file_manager_id = $1 AND tree_id = $2 AND lft >= $3 AND rght <= $4`
		args := []any{node.FileManagerID, node.TreeID, node.Lft, node.Rght}

		err = tx.Select(&removed, `SELECT * FROM files WHERE parent_id IN (`+inSubtree+`)`, args...)
		if err != nil {
			return fmt.Errorf("failed to list files in subtree: %w", err)
		}

		_, err = tx.Exec(`DELETE FROM files WHERE parent_id IN (`+inSubtree+`)`, args...)
		if err != nil {
			return fmt.Errorf("failed to delete files in subtree: %w", err)
		}

		_, err = tx.Exec(`DELETE FROM folders WHERE file_manager_id = $1 AND tree_id = $2 AND lft >= $3 AND rght <= $4`, args...)
		if err != nil {
			return fmt.Errorf("failed to delete folders: %w", err)
		}

		var remaining []*model.Folder
		for _, f := range all {
			if !doomed[f.ID] {
				remaining = append(remaining, f)
			}
		}
		before := snapshot(remaining)

		_, err = tree.Build(remaining)
		if err != nil {
			return err
		}
		return writeBounds(tx, remaining, before)
	})
	if err != nil {
		return nil, err
	}

	return removed, nil
}

const scopedFolders = `SELECT f.* FROM folders f
	JOIN space_plugins p ON p.id = f.file_manager_id
	WHERE p.space_id = $1 AND p.kind = '` + model.PluginFiles + `'`

func (r *folderRepository) ByID(spaceID, id string) (*model.Folder, error) {
	folder := &model.Folder{}

	err := r.db.Get(folder, scopedFolders+` AND f.id = $2`, spaceID, id)
	if err == sql.ErrNoRows {
		return nil, ErrFolderNotFound
	}
	return folder, err
}

func (r *folderRepository) Folders(spaceID string) ([]*model.Folder, error) {
	var folders []*model.Folder

	err := r.db.Select(&folders, scopedFolders+` ORDER BY f.tree_id, f.lft`, spaceID)
	if err != nil {
		return nil, err
	}
	return folders, nil
}

func (r *folderRepository) Subtree(spaceID string, folder *model.Folder, includeSelf bool) ([]*model.Folder, error) {
	var folders []*model.Folder

	query := scopedFolders + ` AND f.file_manager_id = $2 AND f.tree_id = $3 AND f.lft > $4 AND f.rght < $5 ORDER BY f.tree_id, f.lft`
	if includeSelf {
		query = scopedFolders + ` AND f.file_manager_id = $2 AND f.tree_id = $3 AND f.lft >= $4 AND f.rght <= $5 ORDER BY f.tree_id, f.lft`
	}

	err := r.db.Select(&folders, query, spaceID, folder.FileManagerID, folder.TreeID, folder.Lft, folder.Rght)
	if err != nil {
		return nil, err
	}
	return folders, nil
}

func loadFolders(tx *sqlx.Tx, fileManagerID string) ([]*model.Folder, error) {
	var folders []*model.Folder

	err := tx.Select(&folders, `SELECT * FROM folders WHERE file_manager_id = $1`, fileManagerID)
	if err != nil {
		return nil, fmt.Errorf("failed to load folders: %w", err)
	}
	return folders, nil
}

func snapshot(folders []*model.Folder) map[string]bounds {
	out := make(map[string]bounds, len(folders))
	for _, f := range folders {
		out[f.ID] = boundsOf(f)
	}
	return out
}

// writeBounds persists bounds for nodes that existed before and moved
func writeBounds(tx *sqlx.Tx, folders []*model.Folder, before map[string]bounds) error {
	query := `UPDATE folders SET tree_id = $1, lft = $2, rght = $3, level = $4 WHERE id = $5`

	for _, f := range folders {
		old, existed := before[f.ID]
		if !existed || old == boundsOf(f) {
			continue
		}
		_, err := tx.Exec(query, f.TreeID, f.Lft, f.Rght, f.Level, f.ID)
		if err != nil {
			return fmt.Errorf("failed to update folder bounds: %w", err)
		}
	}
	return nil
}
