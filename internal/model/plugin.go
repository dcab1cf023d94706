package model

import (
	"time"
)

// PluginFiles is the registry kind of the file manager plugin
const PluginFiles = "spaces_files"

// FileManager is the per-space activation record of the files plugin.
// Folders hang off it; files reach it through their parent folder.
type FileManager struct {
	ID        string    `db:"id"`
	SpaceID   string    `db:"space_id"`
	Kind      string    `db:"kind"`
	Active    bool      `db:"active"`
	CreatedAt time.Time `db:"created_at"`
}
