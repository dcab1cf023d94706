package handler

import (
	"errors"
	"io/fs"
	"log/slog"
	"mime"
	"net/http"
	"path"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/afero"
	"github.com/templui/spaces/internal/authz"
	"github.com/templui/spaces/internal/ctxkeys"
	"github.com/templui/spaces/internal/model"
	"github.com/templui/spaces/internal/service"
	"github.com/templui/spaces/internal/storage"
)

// MediaHandler serves uploaded payloads to members of the owning space.
// The local backend streams bytes from its filesystem; the s3 backend
// redirects to a presigned URL.
type MediaHandler struct {
	spaceService *service.SpaceService
	fs           afero.Fs
	presign      func(path string) (string, error)
}

func NewMediaHandler(spaceService *service.SpaceService, store storage.Storage) *MediaHandler {
	h := &MediaHandler{spaceService: spaceService}
	switch s := store.(type) {
	case *storage.LocalStorage:
		h.fs = s.Fs()
	case *storage.S3Storage:
		h.presign = s.PresignedURL
	}
	return h
}

func (h *MediaHandler) Serve(w http.ResponseWriter, r *http.Request) {
	p := r.PathValue("path")

	if !h.canRead(r, p) {
		http.Error(w, http.StatusText(http.StatusForbidden), http.StatusForbidden)
		return
	}

	if h.presign != nil {
		url, err := h.presign(p)
		if err != nil {
			slog.Error("failed to presign media", "error", err, "path", p)
			http.Error(w, "internal server error", http.StatusInternalServerError)
			return
		}
		http.Redirect(w, r, url, http.StatusFound)
		return
	}
	if h.fs == nil {
		http.NotFound(w, r)
		return
	}

	info, err := h.fs.Stat(p)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			http.Error(w, `"`+p+`" does not exist`, http.StatusNotFound)
			return
		}
		slog.Error("failed to stat media", "error", err, "path", p)
		http.Error(w, "internal server error", http.StatusInternalServerError)
		return
	}

	if !modifiedSince(r.Header.Get("If-Modified-Since"), info.ModTime(), info.Size()) {
		w.WriteHeader(http.StatusNotModified)
		return
	}

	if !info.Mode().IsRegular() {
		http.Error(w, "not a regular file", http.StatusBadRequest)
		return
	}

	data, err := afero.ReadFile(h.fs, p)
	if err != nil {
		slog.Error("failed to read media", "error", err, "path", p)
		http.Error(w, "internal server error", http.StatusInternalServerError)
		return
	}

	contentType := mime.TypeByExtension(path.Ext(p))
	if contentType == "" {
		contentType = "application/octet-stream"
	}

	w.Header().Set("Content-Type", contentType)
	w.Header().Set("Last-Modified", info.ModTime().UTC().Format(http.TimeFormat))
	w.Header().Set("Content-Length", strconv.FormatInt(info.Size(), 10))
	w.WriteHeader(http.StatusOK)
	_, err = w.Write(data)
	if err != nil {
		slog.Warn("media write interrupted", "error", err, "path", p)
	}
}

// canRead allows spaces_files/{slug}/... to the members of slug
func (h *MediaHandler) canRead(r *http.Request, p string) bool {
	user := ctxkeys.User(r.Context())
	if user == nil {
		return false
	}

	segments := strings.Split(p, "/")
	if len(segments) < 3 || segments[0] != model.UploadNamespace {
		return false
	}
	for _, s := range segments {
		if s == "" || s == "." || s == ".." {
			return false
		}
	}

	space, err := h.spaceService.BySlug(segments[1])
	if err != nil {
		if !errors.Is(err, service.ErrNotFound) {
			slog.Error("failed to resolve media space", "error", err, "slug", segments[1])
		}
		return false
	}

	member, err := h.spaceService.Membership(space, user)
	if err != nil {
		slog.Error("failed to resolve media membership", "error", err, "space_id", space.ID, "user_id", user.ID)
		return false
	}

	return authz.CanAccessSpace(authz.Subject{User: user, Member: member}) == authz.Allow
}

var ifModifiedSince = regexp.MustCompile(`^([^;]+)(; length=([0-9]+))?$`)

// modifiedSince reports whether the file changed after the time in header.
// A header of the form "<date>; length=<n>" also counts a size change.
// Unparseable or absent headers count as modified.
func modifiedSince(header string, mtime time.Time, size int64) bool {
	if header == "" {
		return true
	}

	m := ifModifiedSince.FindStringSubmatch(header)
	if m == nil {
		return true
	}

	since, err := http.ParseTime(m[1])
	if err != nil {
		return true
	}

	if m[3] != "" {
		n, err := strconv.ParseInt(m[3], 10, 64)
		if err != nil || n != size {
			return true
		}
	}

	return mtime.Unix() > since.Unix()
}
