package service

import (
	"strings"
	"testing"
	"time"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/templui/spaces/internal/model"
	"github.com/templui/spaces/internal/validation"
)

func fixedClock(e *env) {
	e.files.now = func() time.Time { return time.Date(2024, 3, 9, 12, 0, 0, 0, time.UTC) }
}

func TestFileCreateNameFallsBackToPayload(t *testing.T) {
	e := newEnv(t)
	fixedClock(e)
	owner := e.user(t, "owner@example.com")
	jacob := e.user(t, "jacob@example.com")
	space := e.space(t, "Acme", owner)
	e.join(t, space, jacob, model.RoleMember)

	scope := e.scope(t, space, jacob)
	folder, err := e.folders.Create(scope, validation.FolderForm{Name: "F"})
	require.NoError(t, err)

	file, err := e.files.Create(t.Context(), scope, validation.FileForm{ParentID: folder.ID, Upload: upload(t, "file.mp4", "frames")})
	require.NoError(t, err)

	assert.Equal(t, "file.mp4", file.Name)
	assert.Equal(t, folder.ID, file.ParentID)
	assert.Equal(t, jacob.ID, file.CreatedBy)
	assert.Equal(t, "spaces_files/acme/2024/03/09/file.mp4", file.StoragePath)
	assert.Equal(t, int64(6), file.Size)

	data, err := afero.ReadFile(e.fs, file.StoragePath)
	require.NoError(t, err)
	assert.Equal(t, "frames", string(data))
	assert.Equal(t, "/media/spaces_files/acme/2024/03/09/file.mp4", e.files.URL(file))

	activities, err := e.activity.SpaceActivities(space.ID, 1)
	require.NoError(t, err)
	require.Len(t, activities, 1)
	assert.Equal(t, model.ObjectFile, activities[0].ObjectType)
	assert.Equal(t, "file.mp4", activities[0].ObjectName)
}

func TestFileCreateAvoidsCollisions(t *testing.T) {
	e := newEnv(t)
	fixedClock(e)
	owner := e.user(t, "owner@example.com")
	space := e.space(t, "Acme", owner)
	scope := e.scope(t, space, owner)
	folder, err := e.folders.Create(scope, validation.FolderForm{Name: "F"})
	require.NoError(t, err)

	first, err := e.files.Create(t.Context(), scope, validation.FileForm{ParentID: folder.ID, Upload: upload(t, "my report.pdf", "v1")})
	require.NoError(t, err)
	second, err := e.files.Create(t.Context(), scope, validation.FileForm{Name: "again", ParentID: folder.ID, Upload: upload(t, "my report.pdf", "v2")})
	require.NoError(t, err)

	assert.Equal(t, "spaces_files/acme/2024/03/09/my_report.pdf", first.StoragePath)
	assert.Equal(t, "my report.pdf", first.Name)
	assert.NotEqual(t, first.StoragePath, second.StoragePath)
	assert.True(t, strings.HasPrefix(second.StoragePath, "spaces_files/acme/2024/03/09/my_report_"))
	assert.True(t, strings.HasSuffix(second.StoragePath, ".pdf"))
	assert.Equal(t, "again", second.Name)
}

func TestFileCreateRequiresUploadAndParent(t *testing.T) {
	e := newEnv(t)
	owner := e.user(t, "owner@example.com")
	space := e.space(t, "Acme", owner)

	_, err := e.files.Create(t.Context(), e.scope(t, space, owner), validation.FileForm{Name: "nothing"})
	var errs validation.Errors
	require.ErrorAs(t, err, &errs)
	assert.True(t, errs.Has("file"))
	assert.True(t, errs.Has("parent"))
}

func TestFileCreateAnonymousForbidden(t *testing.T) {
	e := newEnv(t)
	owner := e.user(t, "owner@example.com")
	space := e.space(t, "Acme", owner)
	folder, err := e.folders.Create(e.scope(t, space, owner), validation.FolderForm{Name: "F"})
	require.NoError(t, err)

	_, err = e.files.Create(t.Context(), e.scope(t, space, nil), validation.FileForm{ParentID: folder.ID, Upload: upload(t, "a.txt", "a")})
	assert.ErrorIs(t, err, ErrForbidden)

	files, err := e.files.InSubtree(folder)
	require.NoError(t, err)
	assert.Empty(t, files)
}

func TestFileNotifications(t *testing.T) {
	e := newEnv(t)
	owner := e.user(t, "owner@example.com")
	alice := e.user(t, "alice@example.com")
	bob := e.user(t, "bob@example.com")
	stranger := e.user(t, "stranger@example.com")
	space := e.space(t, "Acme", owner)
	e.join(t, space, alice, model.RoleMember)
	e.join(t, space, bob, model.RoleMember)

	scope := e.scope(t, space, owner)
	folder, err := e.folders.Create(scope, validation.FolderForm{Name: "F"})
	require.NoError(t, err)

	_, err = e.files.Create(t.Context(), scope, validation.FileForm{
		ParentID:      folder.ID,
		Upload:        upload(t, "a.txt", "a"),
		NotifyUserIDs: []string{alice.ID, stranger.ID, owner.ID},
	})
	require.NoError(t, err)
	assert.Equal(t, []string{"alice@example.com"}, e.mail.recipients())

	e.mail.sent = nil
	e.mail.fail["alice@example.com"] = true
	file, err := e.files.Create(t.Context(), scope, validation.FileForm{
		ParentID:  folder.ID,
		Upload:    upload(t, "b.txt", "b"),
		NotifyAll: true,
	})
	require.NoError(t, err)
	assert.Equal(t, []string{"bob@example.com"}, e.mail.recipients())
	assert.Contains(t, e.mail.sent[0].body, "/spaces/acme/files/file/"+file.ID)
	assert.Contains(t, e.mail.sent[0].subject, "uploaded")
}

func TestFileUpdateReplacesPayload(t *testing.T) {
	e := newEnv(t)
	owner := e.user(t, "owner@example.com")
	space := e.space(t, "Acme", owner)
	scope := e.scope(t, space, owner)
	a, err := e.folders.Create(scope, validation.FolderForm{Name: "a"})
	require.NoError(t, err)
	b, err := e.folders.Create(scope, validation.FolderForm{Name: "b"})
	require.NoError(t, err)

	file, err := e.files.Create(t.Context(), scope, validation.FileForm{Name: "draft", ParentID: a.ID, Upload: upload(t, "v1.txt", "one")})
	require.NoError(t, err)
	oldPath := file.StoragePath

	updated, err := e.files.Update(t.Context(), scope, file.ID, validation.FileForm{ParentID: b.ID, Upload: upload(t, "v2.txt", "two!")})
	require.NoError(t, err)
	assert.Equal(t, b.ID, updated.ParentID)
	assert.Equal(t, "v2.txt", updated.Name)
	assert.Equal(t, int64(4), updated.Size)
	assert.Equal(t, owner.ID, updated.CreatedBy)

	exists, err := afero.Exists(e.fs, oldPath)
	require.NoError(t, err)
	assert.False(t, exists)

	// Metadata only edits keep the payload
	kept, err := e.files.Update(t.Context(), scope, file.ID, validation.FileForm{Name: "final", ParentID: b.ID})
	require.NoError(t, err)
	assert.Equal(t, updated.StoragePath, kept.StoragePath)
}

func TestFileDelete(t *testing.T) {
	e := newEnv(t)
	owner := e.user(t, "owner@example.com")
	member := e.user(t, "member@example.com")
	space := e.space(t, "Acme", owner)
	e.join(t, space, member, model.RoleMember)
	scope := e.scope(t, space, owner)
	folder, err := e.folders.Create(scope, validation.FolderForm{Name: "F"})
	require.NoError(t, err)
	file, err := e.files.Create(t.Context(), scope, validation.FileForm{ParentID: folder.ID, Upload: upload(t, "a.txt", "a")})
	require.NoError(t, err)

	err = e.files.Delete(e.scope(t, space, member), file.ID)
	assert.ErrorIs(t, err, ErrForbidden)
	_, err = e.files.File(space.ID, file.ID)
	require.NoError(t, err)

	// Bytes vanished out of band; deleting the row still succeeds
	require.NoError(t, e.fs.Remove(file.StoragePath))
	require.NoError(t, e.files.Delete(scope, file.ID))

	_, err = e.files.File(space.ID, file.ID)
	assert.ErrorIs(t, err, ErrNotFound)

	err = e.files.Delete(scope, file.ID)
	assert.ErrorIs(t, err, ErrNotFound)

	activities, err := e.activity.SpaceActivities(space.ID, 1)
	require.NoError(t, err)
	assert.Equal(t, model.VerbDeleted, activities[0].Verb)
	assert.Equal(t, "a.txt", activities[0].ObjectName)
}

func TestFileSearch(t *testing.T) {
	e := newEnv(t)
	owner := e.user(t, "owner@example.com")
	space := e.space(t, "Acme", owner)
	scope := e.scope(t, space, owner)
	folder, err := e.folders.Create(scope, validation.FolderForm{Name: "F"})
	require.NoError(t, err)
	_, err = e.files.Create(t.Context(), scope, validation.FileForm{ParentID: folder.ID, Description: "Budget for Q3", Upload: upload(t, "sheet.csv", "1,2")})
	require.NoError(t, err)

	found, err := e.files.Search(space.ID, "budget")
	require.NoError(t, err)
	assert.Len(t, found, 1)

	found, err = e.files.Search(space.ID, "   ")
	require.NoError(t, err)
	assert.Empty(t, found)
}
