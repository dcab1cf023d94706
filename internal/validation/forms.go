package validation

import (
	"errors"
	"mime/multipart"
	"net/http"
	"strings"
)

// FolderForm is the editable part of a folder
type FolderForm struct {
	Name        string `form:"name" validate:"required,max=255"`
	Description string `form:"description" validate:"max=10000"`
	ParentID    string `form:"parent"`
}

func ParseFolderForm(r *http.Request) FolderForm {
	return FolderForm{
		Name:        strings.TrimSpace(r.PostFormValue("name")),
		Description: strings.TrimSpace(r.PostFormValue("description")),
		ParentID:    strings.TrimSpace(r.PostFormValue("parent")),
	}
}

func (f FolderForm) Validate() Errors {
	return Struct(f)
}

// FileForm carries the upload and the notification recipients chosen on the form
type FileForm struct {
	Name        string `form:"name" validate:"max=255"`
	Description string `form:"description" validate:"max=10000"`
	ParentID    string `form:"parent" validate:"required"`

	Upload *multipart.FileHeader `form:"file" validate:"-"`

	NotifyUserIDs []string `form:"notify" validate:"-"`
	NotifyAll     bool     `form:"notify_all"`
}

// ParseFileForm reads a multipart form; a missing upload leaves Upload nil
func ParseFileForm(r *http.Request, maxMemory int64) (FileForm, error) {
	err := r.ParseMultipartForm(maxMemory)
	if err != nil && !errors.Is(err, http.ErrNotMultipart) {
		return FileForm{}, err
	}

	form := FileForm{
		Name:        strings.TrimSpace(r.FormValue("name")),
		Description: strings.TrimSpace(r.FormValue("description")),
		ParentID:    strings.TrimSpace(r.FormValue("parent")),
		NotifyAll:   r.FormValue("notify_all") != "",
	}
	if r.MultipartForm != nil {
		form.NotifyUserIDs = r.MultipartForm.Value["notify"]
		if headers := r.MultipartForm.File["file"]; len(headers) > 0 {
			form.Upload = headers[0]
		}
	} else {
		form.NotifyUserIDs = r.PostForm["notify"]
	}

	return form, nil
}

// Validate checks the fields; requireUpload is set when creating
func (f FileForm) Validate(requireUpload bool, maxSize int64) Errors {
	errs := Struct(f)

	switch {
	case f.Upload == nil && requireUpload:
		errs.Add("file", "This field is required.")
	case f.Upload != nil:
		err := ValidateUpload(f.Upload, maxSize)
		if err != nil {
			errs.Add("file", err.Error())
		}
	}
	return errs
}
