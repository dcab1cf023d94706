package validation

import (
	"fmt"
	"io"
	"mime"
	"mime/multipart"
	"net/http"
	"path"
	"regexp"
	"strings"
)

var unsafeFilenameChars = regexp.MustCompile(`[^-\p{L}\p{N}_.]`)

// SanitizeFilename keeps the base name, turns spaces into underscores and
// drops anything outside letters, digits, '-', '_' and '.'
func SanitizeFilename(name string) string {
	name = strings.ReplaceAll(name, "\\", "/")
	name = strings.TrimSpace(path.Base(name))
	name = strings.ReplaceAll(name, " ", "_")
	name = unsafeFilenameChars.ReplaceAllString(name, "")

	if name == "" || name == "." || name == ".." {
		return "file"
	}
	return name
}

// UploadName is the base of the name the client sent, unsanitised.
// It is the display name of a file whose name was left blank.
func UploadName(filename string) string {
	name := strings.TrimSpace(path.Base(strings.ReplaceAll(filename, "\\", "/")))
	if name == "." || name == ".." || name == "/" {
		return ""
	}
	if r := []rune(name); len(r) > 255 {
		name = string(r[:255])
	}
	return name
}

// ValidateUpload checks the upload against the configured size limit
func ValidateUpload(header *multipart.FileHeader, maxSize int64) error {
	if header == nil {
		return fmt.Errorf("no file was submitted")
	}
	if header.Size == 0 {
		return fmt.Errorf("the submitted file is empty")
	}
	if maxSize > 0 && header.Size > maxSize {
		return fmt.Errorf("file too large: maximum size is %d MB", maxSize/(1<<20))
	}
	return nil
}

// DetectMimeType prefers the extension and falls back to sniffing the first 512 bytes
func DetectMimeType(header *multipart.FileHeader) string {
	if t := mime.TypeByExtension(strings.ToLower(path.Ext(header.Filename))); t != "" {
		return t
	}

	file, err := header.Open()
	if err != nil {
		return "application/octet-stream"
	}
	defer func() { _ = file.Close() }()

	buffer := make([]byte, 512)
	n, err := file.Read(buffer)
	if err != nil && err != io.EOF {
		return "application/octet-stream"
	}
	return http.DetectContentType(buffer[:n])
}
