package ui

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/a-h/templ"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFlashRoundTrip(t *testing.T) {
	rec := httptest.NewRecorder()
	SetFlash(rec, "Folder successfully created.")
	cookies := rec.Result().Cookies()
	require.Len(t, cookies, 1)

	r := httptest.NewRequest(http.MethodGet, "/", nil)
	r.AddCookie(cookies[0])
	rec = httptest.NewRecorder()
	assert.Equal(t, "Folder successfully created.", PopFlash(rec, r))

	cleared := rec.Result().Cookies()
	require.Len(t, cleared, 1)
	assert.Equal(t, -1, cleared[0].MaxAge)

	assert.Equal(t, "", PopFlash(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/", nil)))
}

func TestRenderStatus(t *testing.T) {
	c := templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		_, err := io.WriteString(w, "<p>hi</p>")
		return err
	})

	rec := httptest.NewRecorder()
	RenderStatus(rec, httptest.NewRequest(http.MethodGet, "/", nil), http.StatusTeapot, c)
	assert.Equal(t, http.StatusTeapot, rec.Code)
	assert.Equal(t, "<p>hi</p>", rec.Body.String())
	assert.Contains(t, rec.Header().Get("Content-Type"), "text/html")
}
