package validation

import (
	"bytes"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSanitizeFilename(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"report.pdf", "report.pdf"},
		{"my report (final).pdf", "my_report_final.pdf"},
		{"../../etc/passwd", "passwd"},
		{`C:\Users\jacob\file.mp4`, "file.mp4"},
		{"über-plan_v2.txt", "über-plan_v2.txt"},
		{"???", "file"},
		{"..", "file"},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.want, SanitizeFilename(tt.in))
		})
	}
}

func TestUploadName(t *testing.T) {
	assert.Equal(t, "my report (final).pdf", UploadName("my report (final).pdf"))
	assert.Equal(t, "file.mp4", UploadName(`C:\Users\jacob\file.mp4`))
	assert.Equal(t, "passwd", UploadName("../../etc/passwd"))
	assert.Equal(t, "", UploadName(""))
	assert.Equal(t, "", UploadName(".."))
	assert.Len(t, []rune(UploadName(strings.Repeat("é", 300))), 255)
}

func TestFolderFormValidate(t *testing.T) {
	errs := FolderForm{}.Validate()
	assert.Equal(t, "This field is required.", errs["name"])

	errs = FolderForm{Name: strings.Repeat("x", 256)}.Validate()
	assert.Contains(t, errs["name"], "at most 255 characters")

	errs = FolderForm{Name: "docs", Description: strings.Repeat("d", 10001)}.Validate()
	assert.True(t, errs.Has("description"))
	assert.False(t, errs.Has("name"))

	assert.NoError(t, FolderForm{Name: "docs"}.Validate().Err())
}

func multipartRequest(t *testing.T, fields map[string][]string, filename, content string) *http.Request {
	t.Helper()
	body := &bytes.Buffer{}
	w := multipart.NewWriter(body)
	for k, values := range fields {
		for _, v := range values {
			require.NoError(t, w.WriteField(k, v))
		}
	}
	if filename != "" {
		part, err := w.CreateFormFile("file", filename)
		require.NoError(t, err)
		_, err = part.Write([]byte(content))
		require.NoError(t, err)
	}
	require.NoError(t, w.Close())

	r := httptest.NewRequest(http.MethodPost, "/", body)
	r.Header.Set("Content-Type", w.FormDataContentType())
	return r
}

func TestParseFileForm(t *testing.T) {
	r := multipartRequest(t, map[string][]string{
		"name":   {"  "},
		"parent": {"folder-1"},
		"notify": {"u1", "u2"},
	}, "file.mp4", "video")

	form, err := ParseFileForm(r, 1<<20)
	require.NoError(t, err)
	assert.Equal(t, "", form.Name)
	assert.Equal(t, "folder-1", form.ParentID)
	assert.Equal(t, []string{"u1", "u2"}, form.NotifyUserIDs)
	assert.False(t, form.NotifyAll)
	require.NotNil(t, form.Upload)
	assert.Equal(t, "file.mp4", form.Upload.Filename)
	assert.NotEmpty(t, DetectMimeType(form.Upload))

	assert.NoError(t, form.Validate(true, 1<<20).Err())
	assert.True(t, form.Validate(true, 2).Has("file"))
}

func TestFileFormRequiresUploadAndParent(t *testing.T) {
	r := multipartRequest(t, map[string][]string{"notify_all": {"on"}}, "", "")

	form, err := ParseFileForm(r, 1<<20)
	require.NoError(t, err)
	assert.True(t, form.NotifyAll)

	errs := form.Validate(true, 0)
	assert.Equal(t, "This field is required.", errs["file"])
	assert.Equal(t, "This field is required.", errs["parent"])

	// Editing keeps the existing payload
	errs = form.Validate(false, 0)
	assert.False(t, errs.Has("file"))
}

func TestValidateEmail(t *testing.T) {
	assert.NoError(t, ValidateEmail("jacob@example.com"))
	assert.Error(t, ValidateEmail(""))
	assert.ErrorIs(t, ValidateEmail("not-an-email"), ErrInvalidEmail)
}

func TestValidatePassword(t *testing.T) {
	assert.Error(t, ValidatePassword("short"))
	assert.Error(t, ValidatePassword("mypassword-is-long"))
	assert.NoError(t, ValidatePassword("correct horse battery"))
}

func TestSpaceFormValidate(t *testing.T) {
	assert.Empty(t, SpaceForm{Name: "Acme Corp"}.Validate())
	assert.Empty(t, SpaceForm{Name: strings.Repeat("é", 100)}.Validate())

	errs := SpaceForm{Name: ""}.Validate()
	assert.Equal(t, "This field is required.", errs["name"])

	errs = SpaceForm{Name: strings.Repeat("a", 101)}.Validate()
	assert.Equal(t, "Ensure this value has at most 100 characters (it has 101).", errs["name"])

	errs = SpaceForm{Name: "!!! ???"}.Validate()
	assert.Equal(t, "Use at least one letter or digit.", errs["name"])
}
