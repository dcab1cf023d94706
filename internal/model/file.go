package model

import (
	"path"
	"time"
)

const UploadNamespace = "spaces_files"

type File struct {
	ID          string    `db:"id"`
	Name        string    `db:"name"`
	Description string    `db:"description"`
	StoragePath string    `db:"storage_path"`
	MimeType    string    `db:"mime_type"`
	Size        int64     `db:"size"`
	ParentID    string    `db:"parent_id"`
	CreatedBy   string    `db:"created_by"`
	CreatedAt   time.Time `db:"created_at"`
}

// DisplayName returns the user supplied name, else the stored file's base name
func (f *File) DisplayName() string {
	if f.Name != "" {
		return f.Name
	}
	return path.Base(f.StoragePath)
}
