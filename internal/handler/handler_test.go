package handler_test

import (
	"bytes"
	"context"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/templui/spaces/internal/app"
	"github.com/templui/spaces/internal/config"
	"github.com/templui/spaces/internal/db/dbtest"
	"github.com/templui/spaces/internal/model"
	"github.com/templui/spaces/internal/routes"
	"github.com/templui/spaces/internal/service"
	"github.com/templui/spaces/internal/storage"
	"github.com/templui/spaces/internal/validation"
)

// 43 characters, the encoded length of a 32 byte token
var csrf = strings.Repeat("t", 43)

type nopMailer struct{}

func (nopMailer) Send(context.Context, string, string, string) error { return nil }

type server struct {
	app     *app.App
	store   *storage.LocalStorage
	handler http.Handler
}

func newServer(t *testing.T) *server {
	t.Helper()

	cfg := &config.Config{
		AppName:        "Spaces",
		AppEnv:         "development",
		AppURL:         "http://localhost:8090",
		JWTSecret:      "test-secret",
		JWTExpiry:      time.Hour,
		StorageBackend: config.StorageLocal,
		MediaURL:       "/media",
		MaxUploadSize:  1 << 20,
	}
	store := storage.NewLocalStorageFs(afero.NewMemMapFs(), cfg.MediaURL)

	a, err := app.Wire(cfg, dbtest.New(t), store, nopMailer{})
	require.NoError(t, err)
	t.Cleanup(func() { _ = a.Close() })

	return &server{app: a, store: store, handler: routes.SetupRoutes(a)}
}

func (s *server) user(t *testing.T, email string) *model.User {
	t.Helper()
	u, err := s.app.UserService.Create(email, "", "", false)
	require.NoError(t, err)
	return u
}

func (s *server) space(t *testing.T, name string, owner *model.User, members ...*model.User) *model.Space {
	t.Helper()
	space, err := s.app.SpaceService.Create(name, owner)
	require.NoError(t, err)
	_, err = s.app.PluginService.Enable(space.ID, model.PluginFiles)
	require.NoError(t, err)
	for _, m := range members {
		require.NoError(t, s.app.SpaceService.AddMember(space, m, model.RoleMember))
	}
	return space
}

func (s *server) scope(t *testing.T, space *model.Space, u *model.User) service.Scope {
	t.Helper()
	fm, err := s.app.PluginService.Instance(space.ID, model.PluginFiles)
	require.NoError(t, err)
	member, err := s.app.SpaceService.Membership(space, u)
	require.NoError(t, err)
	return service.Scope{User: u, Member: member, Space: space, FileManager: fm}
}

func (s *server) folder(t *testing.T, space *model.Space, u *model.User, name string) *model.Folder {
	t.Helper()
	f, err := s.app.FolderService.Create(s.scope(t, space, u), validation.FolderForm{Name: name})
	require.NoError(t, err)
	return f
}

func (s *server) do(t *testing.T, req *http.Request, u *model.User) *httptest.ResponseRecorder {
	t.Helper()
	req.Header.Set("X-CSRF-Token", csrf)
	return s.doBrowser(t, req, u)
}

// doBrowser sends only the cookie; the token must travel in the form body
func (s *server) doBrowser(t *testing.T, req *http.Request, u *model.User) *httptest.ResponseRecorder {
	t.Helper()
	if u != nil {
		token, err := s.app.AuthService.GenerateJWT(u)
		require.NoError(t, err)
		req.AddCookie(&http.Cookie{Name: service.AuthCookie, Value: token})
	}
	req.AddCookie(&http.Cookie{Name: "csrf_token", Value: csrf})

	rec := httptest.NewRecorder()
	s.handler.ServeHTTP(rec, req)
	return rec
}

func postForm(path string, values url.Values) *http.Request {
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(values.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	return req
}

func postUpload(t *testing.T, path string, fields map[string]string, filename, content string) *http.Request {
	t.Helper()
	body := &bytes.Buffer{}
	w := multipart.NewWriter(body)
	for k, v := range fields {
		require.NoError(t, w.WriteField(k, v))
	}
	part, err := w.CreateFormFile("file", filename)
	require.NoError(t, err)
	_, err = part.Write([]byte(content))
	require.NoError(t, err)
	require.NoError(t, w.Close())

	req := httptest.NewRequest(http.MethodPost, path, body)
	req.Header.Set("Content-Type", w.FormDataContentType())
	return req
}

func TestAddFolderRedirectsToNewFolder(t *testing.T) {
	s := newServer(t)
	owner, jacob := s.user(t, "owner@example.com"), s.user(t, "jacob@example.com")
	space := s.space(t, "Acme", owner, jacob)

	rec := s.do(t, postForm("/spaces/acme/files/add_folder", url.Values{"name": {"Reports"}}), jacob)
	require.Equal(t, http.StatusFound, rec.Code)

	folders, err := s.app.FolderService.Folders(space.ID)
	require.NoError(t, err)
	require.Len(t, folders, 1)
	assert.Equal(t, "/spaces/acme/files/folder/"+folders[0].ID, rec.Header().Get("Location"))
	assert.Equal(t, jacob.ID, folders[0].CreatedBy)
}

func TestAddFolderInvalidRerendersForm(t *testing.T) {
	s := newServer(t)
	owner := s.user(t, "owner@example.com")
	space := s.space(t, "Acme", owner)

	rec := s.do(t, postForm("/spaces/acme/files/add_folder", url.Values{"name": {""}}), owner)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "This field is required.")

	folders, err := s.app.FolderService.Folders(space.ID)
	require.NoError(t, err)
	assert.Empty(t, folders)
}

func TestAnonymousCannotCreate(t *testing.T) {
	s := newServer(t)
	owner := s.user(t, "owner@example.com")
	space := s.space(t, "Acme", owner)

	rec := s.do(t, postForm("/spaces/acme/files/add_folder", url.Values{"name": {"Sneaky"}}), nil)
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec = s.do(t, postForm("/spaces/nope/files/add_folder", url.Values{"name": {"Sneaky"}}), nil)
	assert.Equal(t, http.StatusForbidden, rec.Code)

	folders, err := s.app.FolderService.Folders(space.ID)
	require.NoError(t, err)
	assert.Empty(t, folders)
}

func TestSpaceGates(t *testing.T) {
	s := newServer(t)
	owner, outsider := s.user(t, "owner@example.com"), s.user(t, "outsider@example.com")
	space := s.space(t, "Acme", owner)
	s.folder(t, space, owner, "Docs")

	rec := s.do(t, httptest.NewRequest(http.MethodGet, "/spaces/acme/files/", nil), owner)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "Docs")
	assert.Contains(t, rec.Body.String(), "was created")

	rec = s.do(t, httptest.NewRequest(http.MethodGet, "/spaces/acme/files/", nil), outsider)
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec = s.do(t, httptest.NewRequest(http.MethodGet, "/spaces/missing/files/", nil), outsider)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	require.NoError(t, s.app.PluginService.Disable(space.ID, model.PluginFiles))
	rec = s.do(t, httptest.NewRequest(http.MethodGet, "/spaces/acme/files/", nil), owner)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestUploadFallsBackToFilename(t *testing.T) {
	s := newServer(t)
	owner, jacob := s.user(t, "owner@example.com"), s.user(t, "jacob@example.com")
	space := s.space(t, "Acme", owner, jacob)
	folder := s.folder(t, space, owner, "Videos")

	req := postUpload(t, "/spaces/acme/files/add_file/"+folder.ID, map[string]string{"description": "clip"}, "file.mp4", "not really a video")
	rec := s.do(t, req, jacob)
	require.Equal(t, http.StatusFound, rec.Code)
	assert.Equal(t, "/spaces/acme/files/folder/"+folder.ID, rec.Header().Get("Location"))

	files, err := s.app.FileService.InSubtree(folder)
	require.NoError(t, err)
	require.Len(t, files, 1)
	assert.Equal(t, "file.mp4", files[0].Name)
	assert.Equal(t, folder.ID, files[0].ParentID)
	assert.Equal(t, jacob.ID, files[0].CreatedBy)

	// the stored payload is served to members through the media route
	rec = s.do(t, httptest.NewRequest(http.MethodGet, s.app.FileService.URL(files[0]), nil), jacob)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "not really a video", rec.Body.String())
}

func TestUploadWithFormTokenTooLarge(t *testing.T) {
	s := newServer(t)
	owner := s.user(t, "owner@example.com")
	space := s.space(t, "Acme", owner)
	folder := s.folder(t, space, owner, "Videos")

	fields := map[string]string{"csrf_token": csrf}

	req := postUpload(t, "/spaces/acme/files/add_file/"+folder.ID, fields, "small.txt", "tiny")
	rec := s.doBrowser(t, req, owner)
	require.Equal(t, http.StatusFound, rec.Code)

	// past MaxUploadSize plus the form overhead
	big := strings.Repeat("x", 3<<20)
	req = postUpload(t, "/spaces/acme/files/add_file/"+folder.ID, fields, "big.bin", big)
	rec = s.doBrowser(t, req, owner)
	assert.Equal(t, http.StatusRequestEntityTooLarge, rec.Code)

	files, err := s.app.FileService.InSubtree(folder)
	require.NoError(t, err)
	require.Len(t, files, 1)
	assert.Equal(t, "small.txt", files[0].Name)
}

func TestUploadIntoForeignFolder(t *testing.T) {
	s := newServer(t)
	owner := s.user(t, "owner@example.com")
	s.space(t, "Acme", owner)
	other := s.space(t, "Other", owner)
	foreign := s.folder(t, other, owner, "Elsewhere")

	req := postUpload(t, "/spaces/acme/files/add_file", map[string]string{"parent": foreign.ID}, "a.txt", "x")
	rec := s.do(t, req, owner)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "Select a valid choice.")

	rec = s.do(t, httptest.NewRequest(http.MethodGet, "/spaces/acme/files/folder/"+foreign.ID, nil), owner)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestDeleteFolder(t *testing.T) {
	s := newServer(t)
	owner, jacob, mallory := s.user(t, "owner@example.com"), s.user(t, "jacob@example.com"), s.user(t, "mallory@example.com")
	space := s.space(t, "Acme", owner, jacob, mallory)
	folder := s.folder(t, space, jacob, "Jacob's")

	path := "/spaces/acme/files/folder/delete/" + folder.ID

	rec := s.do(t, httptest.NewRequest(http.MethodGet, path, nil), mallory)
	assert.Equal(t, http.StatusForbidden, rec.Code)
	rec = s.do(t, postForm(path, nil), mallory)
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec = s.do(t, httptest.NewRequest(http.MethodGet, path, nil), owner)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "Jacob&#39;s")

	rec = s.do(t, postForm(path, nil), owner)
	require.Equal(t, http.StatusFound, rec.Code)
	assert.Equal(t, "/spaces/acme/files/", rec.Header().Get("Location"))

	folders, err := s.app.FolderService.Folders(space.ID)
	require.NoError(t, err)
	assert.Empty(t, folders)

	activities, err := s.app.ActivityService.SpaceActivities(space.ID, 10)
	require.NoError(t, err)
	require.NotEmpty(t, activities)
	assert.Equal(t, model.VerbDeleted, activities[0].Verb)
	assert.Equal(t, "Jacob's", activities[0].ObjectName)
	assert.Equal(t, owner.ID, activities[0].ActorID)
}

func TestEditFolderRejectsCycle(t *testing.T) {
	s := newServer(t)
	owner := s.user(t, "owner@example.com")
	space := s.space(t, "Acme", owner)
	root := s.folder(t, space, owner, "Root")

	child, err := s.app.FolderService.Create(s.scope(t, space, owner), validation.FolderForm{Name: "Child", ParentID: root.ID})
	require.NoError(t, err)

	rec := s.do(t, postForm("/spaces/acme/files/folder/edit/"+root.ID, url.Values{"name": {"Root"}, "parent": {child.ID}}), owner)
	require.Equal(t, http.StatusOK, rec.Code)

	got, err := s.app.FolderService.Folder(space.ID, root.ID)
	require.NoError(t, err)
	assert.True(t, got.IsRoot())

	rec = s.do(t, postForm("/spaces/acme/files/folder/edit/"+child.ID, url.Values{"name": {"Renamed"}}), owner)
	require.Equal(t, http.StatusFound, rec.Code)
	assert.Equal(t, "/spaces/acme/files/", rec.Header().Get("Location"))
}

func TestFolderPageNavigation(t *testing.T) {
	s := newServer(t)
	owner := s.user(t, "owner@example.com")
	space := s.space(t, "Acme", owner)
	docs := s.folder(t, space, owner, "Docs")
	s.folder(t, space, owner, "Media")

	sub := func(name string) *model.Folder {
		f, err := s.app.FolderService.Create(s.scope(t, space, owner), validation.FolderForm{Name: name, ParentID: docs.ID})
		require.NoError(t, err)
		return f
	}
	alpha, beta := sub("Alpha"), sub("Beta")

	rec := s.do(t, httptest.NewRequest(http.MethodGet, "/spaces/acme/files/folder/"+docs.ID, nil), owner)
	require.Equal(t, http.StatusOK, rec.Code)
	body := rec.Body.String()
	assert.Contains(t, body, "2 direct:")
	assert.Contains(t, body, `href="/spaces/acme/files/folder/`+beta.ID+`"`)
	assert.Contains(t, body, "Other top-level folders")
	assert.Contains(t, body, "Media")

	rec = s.do(t, httptest.NewRequest(http.MethodGet, "/spaces/acme/files/folder/"+alpha.ID, nil), owner)
	require.Equal(t, http.StatusOK, rec.Code)
	body = rec.Body.String()
	assert.Contains(t, body, "No subfolders yet.")
	assert.Contains(t, body, "Alongside this folder")
	assert.Contains(t, body, `href="/spaces/acme/files/folder/`+beta.ID+`"`)
	assert.NotContains(t, body, "Media")
}

func TestSpacesListPluginSwitches(t *testing.T) {
	s := newServer(t)
	owner, jacob := s.user(t, "owner@example.com"), s.user(t, "jacob@example.com")
	space := s.space(t, "Acme", owner, jacob)

	rec := s.do(t, httptest.NewRequest(http.MethodGet, "/spaces", nil), owner)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `action="/spaces/acme/plugins/files/disable"`)

	rec = s.do(t, httptest.NewRequest(http.MethodGet, "/spaces", nil), jacob)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "Acme")
	assert.NotContains(t, rec.Body.String(), "/plugins/")

	require.NoError(t, s.app.PluginService.Disable(space.ID, model.PluginFiles))
	rec = s.do(t, httptest.NewRequest(http.MethodGet, "/spaces", nil), owner)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `action="/spaces/acme/plugins/files/enable"`)
}

func TestFileFormShowsUploadLimit(t *testing.T) {
	s := newServer(t)
	owner := s.user(t, "owner@example.com")
	space := s.space(t, "Acme", owner)
	folder := s.folder(t, space, owner, "Docs")

	rec := s.do(t, httptest.NewRequest(http.MethodGet, "/spaces/acme/files/add_file/"+folder.ID, nil), owner)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "Up to 1.0 MB.")
}

func TestSearch(t *testing.T) {
	s := newServer(t)
	owner := s.user(t, "owner@example.com")
	space := s.space(t, "Acme", owner)
	folder := s.folder(t, space, owner, "Docs")

	rec := s.do(t, postUpload(t, "/spaces/acme/files/add_file/"+folder.ID, map[string]string{"name": "Quarterly Report"}, "q3.pdf", "%PDF"), owner)
	require.Equal(t, http.StatusFound, rec.Code)

	rec = s.do(t, httptest.NewRequest(http.MethodGet, "/spaces/acme/files/search?q=quarterly", nil), owner)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "Quarterly Report")

	rec = s.do(t, httptest.NewRequest(http.MethodGet, "/spaces/acme/files/search?q=nothing", nil), owner)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.NotContains(t, rec.Body.String(), "Quarterly Report")
}

func TestMediaServer(t *testing.T) {
	s := newServer(t)
	owner, outsider := s.user(t, "owner@example.com"), s.user(t, "outsider@example.com")
	s.space(t, "Acme", owner)

	const p = "spaces_files/acme/2024/05/01/notes.txt"
	require.NoError(t, s.store.Save(p, strings.NewReader("hello")))

	get := func(path string, u *model.User, header ...string) *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodGet, "/media/"+path, nil)
		if len(header) > 0 {
			req.Header.Set("If-Modified-Since", header[0])
		}
		return s.do(t, req, u)
	}

	rec := get(p, owner)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "hello", rec.Body.String())
	assert.Equal(t, "text/plain; charset=utf-8", rec.Header().Get("Content-Type"))
	assert.NotEmpty(t, rec.Header().Get("Last-Modified"))

	future := time.Now().Add(time.Hour).UTC().Format(http.TimeFormat)
	assert.Equal(t, http.StatusNotModified, get(p, owner, future).Code)
	assert.Equal(t, http.StatusNotModified, get(p, owner, future+"; length=5").Code)
	assert.Equal(t, http.StatusOK, get(p, owner, future+"; length=6").Code)

	past := time.Now().Add(-time.Hour).UTC().Format(http.TimeFormat)
	assert.Equal(t, http.StatusOK, get(p, owner, past).Code)

	assert.Equal(t, http.StatusNotFound, get("spaces_files/acme/2024/05/01/missing.txt", owner).Code)
	assert.Equal(t, http.StatusBadRequest, get("spaces_files/acme/2024", owner).Code)

	assert.Equal(t, http.StatusForbidden, get(p, nil).Code)
	assert.Equal(t, http.StatusForbidden, get(p, outsider).Code)
	assert.Equal(t, http.StatusForbidden, get("avatars/notes.txt", owner).Code)
}

func TestLoginFlow(t *testing.T) {
	s := newServer(t)
	_, err := s.app.UserService.Create("ana@example.com", "Ana", "correct horse battery", false)
	require.NoError(t, err)

	rec := s.do(t, postForm("/auth/login", url.Values{"email": {"ana@example.com"}, "password": {"wrong password"}}), nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "Invalid email or password")

	rec = s.do(t, postForm("/auth/login", url.Values{"email": {"ana@example.com"}, "password": {"correct horse battery"}}), nil)
	require.Equal(t, http.StatusSeeOther, rec.Code)
	assert.Equal(t, "/spaces", rec.Header().Get("Location"))

	var session *http.Cookie
	for _, c := range rec.Result().Cookies() {
		if c.Name == service.AuthCookie {
			session = c
		}
	}
	require.NotNil(t, session)

	req := httptest.NewRequest(http.MethodGet, "/spaces", nil)
	req.AddCookie(session)
	rec = httptest.NewRecorder()
	s.handler.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)
	body, err := io.ReadAll(rec.Body)
	require.NoError(t, err)
	assert.Contains(t, string(body), "Your spaces")
}
