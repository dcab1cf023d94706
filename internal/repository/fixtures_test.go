package repository

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/require"
	"github.com/templui/spaces/internal/db/dbtest"
	"github.com/templui/spaces/internal/model"
)

type fixture struct {
	db      *sqlx.DB
	users   UserRepository
	spaces  SpaceRepository
	plugins PluginRepository
	folders FolderRepository
	files   FileRepository
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	database := dbtest.New(t)
	return &fixture{
		db:      database,
		users:   NewUserRepository(database),
		spaces:  NewSpaceRepository(database),
		plugins: NewPluginRepository(database),
		folders: NewFolderRepository(database),
		files:   NewFileRepository(database),
	}
}

func (f *fixture) user(t *testing.T, email string) *model.User {
	t.Helper()
	u := &model.User{ID: uuid.NewString(), Email: email, CreatedAt: time.Now().UTC()}
	require.NoError(t, f.users.Create(u))
	return u
}

// space creates a space with the files plugin enabled
func (f *fixture) space(t *testing.T, slug string, owner *model.User) (*model.Space, *model.FileManager) {
	t.Helper()
	s := &model.Space{ID: uuid.NewString(), Name: slug, Slug: slug, CreatedBy: owner.ID, CreatedAt: time.Now().UTC()}
	require.NoError(t, f.spaces.Create(s))

	fm := &model.FileManager{ID: uuid.NewString(), SpaceID: s.ID, Kind: model.PluginFiles, Active: true, CreatedAt: time.Now().UTC()}
	require.NoError(t, f.plugins.Create(fm))
	return s, fm
}

func (f *fixture) folder(t *testing.T, fm *model.FileManager, owner *model.User, name string, parent *model.Folder) *model.Folder {
	t.Helper()
	folder := &model.Folder{
		ID:            uuid.NewString(),
		Name:          name,
		FileManagerID: fm.ID,
		CreatedBy:     owner.ID,
		CreatedAt:     time.Now().UTC(),
	}
	if parent != nil {
		folder.ParentID = &parent.ID
	}
	require.NoError(t, f.folders.Create(folder))
	return folder
}

func (f *fixture) file(t *testing.T, parent *model.Folder, owner *model.User, name, path string) *model.File {
	t.Helper()
	file := &model.File{
		ID:          uuid.NewString(),
		Name:        name,
		StoragePath: path,
		ParentID:    parent.ID,
		CreatedBy:   owner.ID,
		CreatedAt:   time.Now().UTC(),
	}
	require.NoError(t, f.files.Create(file))
	return file
}

func names(folders []*model.Folder) []string {
	out := make([]string, len(folders))
	for i, f := range folders {
		out[i] = f.Name
	}
	return out
}
