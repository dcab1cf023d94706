package service

import (
	"bytes"
	"context"
	"errors"
	"mime/multipart"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/require"
	"github.com/templui/spaces/internal/db/dbtest"
	"github.com/templui/spaces/internal/model"
	"github.com/templui/spaces/internal/repository"
	"github.com/templui/spaces/internal/storage"
)

type sentMail struct {
	to, subject, body string
}

type fakeMailer struct {
	mu   sync.Mutex
	sent []sentMail
	fail map[string]bool
}

func (m *fakeMailer) Send(_ context.Context, to, subject, body string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.fail[to] {
		return errors.New("mailbox unavailable")
	}
	m.sent = append(m.sent, sentMail{to, subject, body})
	return nil
}

func (m *fakeMailer) recipients() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]string, len(m.sent))
	for i, s := range m.sent {
		out[i] = s.to
	}
	return out
}

type env struct {
	fs    afero.Fs
	store *storage.LocalStorage
	mail  *fakeMailer

	users    *UserService
	spaces   *SpaceService
	plugins  *PluginService
	activity *ActivityService
	notices  *NotificationService
	folders  *FolderService
	files    *FileService
}

func newEnv(t *testing.T) *env {
	t.Helper()
	database := dbtest.New(t)

	fsys := afero.NewMemMapFs()
	store := storage.NewLocalStorageFs(fsys, "/media")
	mail := &fakeMailer{fail: map[string]bool{}}

	userRepo := repository.NewUserRepository(database)
	spaceRepo := repository.NewSpaceRepository(database)
	folderRepo := repository.NewFolderRepository(database)

	activity := NewActivityService(repository.NewActivityRepository(database))
	notices := NewNotificationService(repository.NewNotificationTypeRepository(database), spaceRepo, mail, "Spaces")
	require.NoError(t, notices.RegisterFileNotices())

	return &env{
		fs:       fsys,
		store:    store,
		mail:     mail,
		users:    NewUserService(userRepo),
		spaces:   NewSpaceService(spaceRepo),
		plugins:  NewPluginService(repository.NewPluginRepository(database), FilesPlugin),
		activity: activity,
		notices:  notices,
		folders:  NewFolderService(folderRepo, store, activity),
		files:    NewFileService(repository.NewFileRepository(database), folderRepo, store, activity, notices, 1<<20, "http://localhost:8090"),
	}
}

func (e *env) user(t *testing.T, email string) *model.User {
	t.Helper()
	u, err := e.users.Create(email, "", "", false)
	require.NoError(t, err)
	return u
}

// space creates a space owned by owner with the files plugin enabled
func (e *env) space(t *testing.T, name string, owner *model.User) *model.Space {
	t.Helper()
	s, err := e.spaces.Create(name, owner)
	require.NoError(t, err)
	_, err = e.plugins.Enable(s.ID, model.PluginFiles)
	require.NoError(t, err)
	return s
}

func (e *env) join(t *testing.T, space *model.Space, u *model.User, role string) {
	t.Helper()
	require.NoError(t, e.spaces.AddMember(space, u, role))
}

func (e *env) scope(t *testing.T, space *model.Space, u *model.User) Scope {
	t.Helper()
	fm, err := e.plugins.Instance(space.ID, model.PluginFiles)
	require.NoError(t, err)

	var member *model.SpaceMember
	if u != nil {
		member, err = e.spaces.Membership(space, u)
		require.NoError(t, err)
	}
	return Scope{User: u, Member: member, Space: space, FileManager: fm}
}

// upload builds a multipart header holding content under filename
func upload(t *testing.T, filename, content string) *multipart.FileHeader {
	t.Helper()
	body := &bytes.Buffer{}
	w := multipart.NewWriter(body)
	part, err := w.CreateFormFile("file", filename)
	require.NoError(t, err)
	_, err = part.Write([]byte(content))
	require.NoError(t, err)
	require.NoError(t, w.Close())

	r := httptest.NewRequest("POST", "/", body)
	r.Header.Set("Content-Type", w.FormDataContentType())
	require.NoError(t, r.ParseMultipartForm(1<<20))
	return r.MultipartForm.File["file"][0]
}
