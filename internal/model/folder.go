package model

import (
	"time"
)

type Folder struct {
	ID            string    `db:"id"`
	Name          string    `db:"name"`
	Description   string    `db:"description"`
	ParentID      *string   `db:"parent_id"` // nil = root folder
	FileManagerID string    `db:"file_manager_id"`
	CreatedBy     string    `db:"created_by"`
	CreatedAt     time.Time `db:"created_at"`

	// Interval bounds, maintained by the repository through internal/tree
	TreeID int `db:"tree_id"`
	Lft    int `db:"lft"`
	Rght   int `db:"rght"`
	Level  int `db:"level"`
}

func (f *Folder) IsRoot() bool {
	return f.ParentID == nil
}

func (f *Folder) IsLeaf() bool {
	return f.Rght-f.Lft == 1
}

func (f *Folder) Parent() string {
	if f.ParentID == nil {
		return ""
	}
	return *f.ParentID
}
