package handler

import (
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/templui/spaces/internal/ctxkeys"
	"github.com/templui/spaces/internal/model"
	"github.com/templui/spaces/internal/service"
	"github.com/templui/spaces/internal/tree"
	"github.com/templui/spaces/internal/ui"
	"github.com/templui/spaces/internal/ui/pages"
	"github.com/templui/spaces/internal/validation"
)

// multipart parts above this size spill to temp files
const uploadMemory = 32 << 20

type FilesHandler struct {
	folderService   *service.FolderService
	fileService     *service.FileService
	spaceService    *service.SpaceService
	activityService *service.ActivityService
}

func NewFilesHandler(
	folderService *service.FolderService,
	fileService *service.FileService,
	spaceService *service.SpaceService,
	activityService *service.ActivityService,
) *FilesHandler {
	return &FilesHandler{
		folderService:   folderService,
		fileService:     fileService,
		spaceService:    spaceService,
		activityService: activityService,
	}
}

// base is the URL prefix of the files plugin of the current space
func base(r *http.Request) string {
	return "/spaces/" + ctxkeys.Space(r.Context()).Slug + "/files"
}

func layout(w http.ResponseWriter, r *http.Request, title string) pages.Layout {
	return pages.NewLayout(r.Context(), title, ui.PopFlash(w, r))
}

func (h *FilesHandler) Index(w http.ResponseWriter, r *http.Request) {
	space := ctxkeys.Space(r.Context())

	folders, err := h.folderService.Folders(space.ID)
	if err != nil {
		fail(w, r, err, "failed to list folders")
		return
	}

	activities, err := h.activityService.SpaceActivities(space.ID, service.RecentActivityLimit)
	if err != nil {
		fail(w, r, err, "failed to list activity")
		return
	}

	ui.Render(w, r, pages.Index(pages.IndexPage{
		Layout:     layout(w, r, "Files"),
		Base:       base(r),
		Folders:    folders,
		Activities: activities,
	}))
}

func (h *FilesHandler) FolderPage(w http.ResponseWriter, r *http.Request) {
	space := ctxkeys.Space(r.Context())

	folder, err := h.folderService.Folder(space.ID, r.PathValue("id"))
	if err != nil {
		fail(w, r, err, "failed to get folder")
		return
	}

	all, err := h.folderService.Folders(space.ID)
	if err != nil {
		fail(w, r, err, "failed to list folders")
		return
	}

	subtree, err := h.folderService.Subtree(space.ID, folder)
	if err != nil {
		fail(w, r, err, "failed to list subtree")
		return
	}

	files, err := h.fileService.InSubtree(folder)
	if err != nil {
		fail(w, r, err, "failed to list files")
		return
	}

	ui.Render(w, r, pages.Folder(pages.FolderPage{
		Layout:    layout(w, r, folder.Name),
		Base:      base(r),
		Folder:    folder,
		Ancestors: tree.Ancestors(all, folder, false),
		Children:  tree.Children(all, folder),
		Siblings:  tree.Siblings(all, folder, false),
		Subtree:   subtree,
		Files:     files,
		CanModify: h.folderService.CanModify(scope(r), folder),
	}))
}

func (h *FilesHandler) FilePage(w http.ResponseWriter, r *http.Request) {
	space := ctxkeys.Space(r.Context())

	file, err := h.fileService.File(space.ID, r.PathValue("id"))
	if err != nil {
		fail(w, r, err, "failed to get file")
		return
	}

	folder, err := h.folderService.Folder(space.ID, file.ParentID)
	if err != nil {
		fail(w, r, err, "failed to get folder")
		return
	}

	ui.Render(w, r, pages.File(pages.FilePage{
		Layout:    layout(w, r, file.DisplayName()),
		Base:      base(r),
		File:      file,
		Folder:    folder,
		URL:       h.fileService.URL(file),
		CanModify: h.fileService.CanModify(scope(r), file),
	}))
}

// AddFolderPage shows the empty form. The optional {parent} preselects the parent.
func (h *FilesHandler) AddFolderPage(w http.ResponseWriter, r *http.Request) {
	form := validation.FolderForm{ParentID: r.PathValue("parent")}
	if !h.parentExists(w, r, form.ParentID) {
		return
	}
	h.renderFolderForm(w, r, "New folder", r.URL.Path, form, nil, nil)
}

func (h *FilesHandler) AddFolder(w http.ResponseWriter, r *http.Request) {
	form := validation.ParseFolderForm(r)
	if _, ok := r.PostForm["parent"]; !ok {
		form.ParentID = r.PathValue("parent")
	}

	folder, err := h.folderService.Create(scope(r), form)
	if errs, ok := formErrors(err); ok {
		h.renderFolderForm(w, r, "New folder", r.URL.Path, form, errs, nil)
		return
	}
	if err != nil {
		fail(w, r, err, "failed to create folder")
		return
	}

	ui.SetFlash(w, "Folder successfully created.")
	http.Redirect(w, r, base(r)+"/folder/"+folder.ID, http.StatusFound)
}

func (h *FilesHandler) EditFolderPage(w http.ResponseWriter, r *http.Request) {
	folder, ok := h.modifiableFolder(w, r)
	if !ok {
		return
	}

	form := validation.FolderForm{
		Name:        folder.Name,
		Description: folder.Description,
		ParentID:    folder.Parent(),
	}
	h.renderFolderForm(w, r, "Edit folder", r.URL.Path, form, nil, folder)
}

func (h *FilesHandler) EditFolder(w http.ResponseWriter, r *http.Request) {
	form := validation.ParseFolderForm(r)

	_, err := h.folderService.Update(scope(r), r.PathValue("id"), form)
	if errs, ok := formErrors(err); ok {
		folder, ferr := h.folderService.Folder(ctxkeys.Space(r.Context()).ID, r.PathValue("id"))
		if ferr != nil {
			fail(w, r, ferr, "failed to get folder")
			return
		}
		h.renderFolderForm(w, r, "Edit folder", r.URL.Path, form, errs, folder)
		return
	}
	if err != nil {
		fail(w, r, err, "failed to update folder")
		return
	}

	ui.SetFlash(w, "Folder successfully updated.")
	http.Redirect(w, r, base(r)+"/", http.StatusFound)
}

func (h *FilesHandler) DeleteFolderPage(w http.ResponseWriter, r *http.Request) {
	folder, ok := h.modifiableFolder(w, r)
	if !ok {
		return
	}

	files, err := h.fileService.InSubtree(folder)
	if err != nil {
		fail(w, r, err, "failed to list files")
		return
	}

	ui.Render(w, r, pages.ConfirmDelete(pages.ConfirmDeletePage{
		Layout:      layout(w, r, "Delete folder"),
		Base:        base(r),
		Kind:        model.ObjectFolder,
		Name:        folder.Name,
		Action:      r.URL.Path,
		Cancel:      base(r) + "/folder/" + folder.ID,
		Descendants: tree.DescendantCount(folder),
		Files:       len(files),
	}))
}

func (h *FilesHandler) DeleteFolder(w http.ResponseWriter, r *http.Request) {
	err := h.folderService.Delete(scope(r), r.PathValue("id"))
	if err != nil {
		fail(w, r, err, "failed to delete folder")
		return
	}

	ui.SetFlash(w, "Folder successfully deleted.")
	http.Redirect(w, r, base(r)+"/", http.StatusFound)
}

func (h *FilesHandler) AddFilePage(w http.ResponseWriter, r *http.Request) {
	form := validation.FileForm{ParentID: r.PathValue("parent")}
	if !h.parentExists(w, r, form.ParentID) {
		return
	}
	h.renderFileForm(w, r, "Upload file", false, form, nil)
}

func (h *FilesHandler) AddFile(w http.ResponseWriter, r *http.Request) {
	form, ok := h.parseFileForm(w, r)
	if !ok {
		return
	}
	if form.ParentID == "" {
		form.ParentID = r.PathValue("parent")
	}

	file, err := h.fileService.Create(r.Context(), scope(r), form)
	if errs, ok := formErrors(err); ok {
		h.renderFileForm(w, r, "Upload file", false, form, errs)
		return
	}
	if err != nil {
		fail(w, r, err, "failed to upload file")
		return
	}

	ui.SetFlash(w, "File successfully uploaded.")
	http.Redirect(w, r, base(r)+"/folder/"+file.ParentID, http.StatusFound)
}

func (h *FilesHandler) EditFilePage(w http.ResponseWriter, r *http.Request) {
	file, ok := h.modifiableFile(w, r)
	if !ok {
		return
	}

	form := validation.FileForm{
		Name:        file.Name,
		Description: file.Description,
		ParentID:    file.ParentID,
	}
	h.renderFileForm(w, r, "Edit file", true, form, nil)
}

func (h *FilesHandler) EditFile(w http.ResponseWriter, r *http.Request) {
	form, ok := h.parseFileForm(w, r)
	if !ok {
		return
	}

	_, err := h.fileService.Update(r.Context(), scope(r), r.PathValue("id"), form)
	if errs, ok := formErrors(err); ok {
		h.renderFileForm(w, r, "Edit file", true, form, errs)
		return
	}
	if err != nil {
		fail(w, r, err, "failed to update file")
		return
	}

	ui.SetFlash(w, "File successfully updated.")
	http.Redirect(w, r, base(r)+"/", http.StatusFound)
}

func (h *FilesHandler) DeleteFilePage(w http.ResponseWriter, r *http.Request) {
	file, ok := h.modifiableFile(w, r)
	if !ok {
		return
	}

	ui.Render(w, r, pages.ConfirmDelete(pages.ConfirmDeletePage{
		Layout: layout(w, r, "Delete file"),
		Base:   base(r),
		Kind:   model.ObjectFile,
		Name:   file.DisplayName(),
		Action: r.URL.Path,
		Cancel: base(r) + "/file/" + file.ID,
	}))
}

func (h *FilesHandler) DeleteFile(w http.ResponseWriter, r *http.Request) {
	err := h.fileService.Delete(scope(r), r.PathValue("id"))
	if err != nil {
		fail(w, r, err, "failed to delete file")
		return
	}

	ui.SetFlash(w, "File successfully deleted.")
	http.Redirect(w, r, base(r)+"/", http.StatusFound)
}

func (h *FilesHandler) Search(w http.ResponseWriter, r *http.Request) {
	space := ctxkeys.Space(r.Context())
	q := strings.TrimSpace(r.URL.Query().Get("q"))

	var files []*model.File
	if q != "" {
		var err error
		files, err = h.fileService.Search(space.ID, q)
		if err != nil {
			fail(w, r, err, "failed to search files")
			return
		}
	}

	ui.Render(w, r, pages.Search(pages.SearchPage{
		Layout: layout(w, r, "Search"),
		Base:   base(r),
		Query:  q,
		Files:  files,
	}))
}

func (h *FilesHandler) parseFileForm(w http.ResponseWriter, r *http.Request) (validation.FileForm, bool) {
	form, err := validation.ParseFileForm(r, uploadMemory)
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			http.Error(w, "upload too large", http.StatusRequestEntityTooLarge)
			return form, false
		}
		slog.Warn("invalid upload form", "error", err, "path", r.URL.Path)
		http.Error(w, "invalid form", http.StatusBadRequest)
		return form, false
	}
	return form, true
}

// parentExists answers 404 when a preselected parent is not in the space
func (h *FilesHandler) parentExists(w http.ResponseWriter, r *http.Request, parentID string) bool {
	if parentID == "" {
		return true
	}
	_, err := h.folderService.Folder(ctxkeys.Space(r.Context()).ID, parentID)
	if err != nil {
		fail(w, r, err, "failed to get parent folder")
		return false
	}
	return true
}

func (h *FilesHandler) modifiableFolder(w http.ResponseWriter, r *http.Request) (*model.Folder, bool) {
	folder, err := h.folderService.Folder(ctxkeys.Space(r.Context()).ID, r.PathValue("id"))
	if err != nil {
		fail(w, r, err, "failed to get folder")
		return nil, false
	}
	if !h.folderService.CanModify(scope(r), folder) {
		fail(w, r, service.ErrForbidden, "")
		return nil, false
	}
	return folder, true
}

func (h *FilesHandler) modifiableFile(w http.ResponseWriter, r *http.Request) (*model.File, bool) {
	file, err := h.fileService.File(ctxkeys.Space(r.Context()).ID, r.PathValue("id"))
	if err != nil {
		fail(w, r, err, "failed to get file")
		return nil, false
	}
	if !h.fileService.CanModify(scope(r), file) {
		fail(w, r, service.ErrForbidden, "")
		return nil, false
	}
	return file, true
}

// renderFolderForm offers every folder as parent except, when editing, the
// folder itself and its descendants
func (h *FilesHandler) renderFolderForm(w http.ResponseWriter, r *http.Request, heading, action string, form validation.FolderForm, errs validation.Errors, editing *model.Folder) {
	all, err := h.folderService.Folders(ctxkeys.Space(r.Context()).ID)
	if err != nil {
		fail(w, r, err, "failed to list folders")
		return
	}

	parents := all
	if editing != nil {
		excluded := map[string]bool{}
		for _, f := range tree.Descendants(all, editing, true) {
			excluded[f.ID] = true
		}
		parents = make([]*model.Folder, 0, len(all))
		for _, f := range all {
			if !excluded[f.ID] {
				parents = append(parents, f)
			}
		}
	}

	ui.Render(w, r, pages.FolderForm(pages.FolderFormPage{
		Layout:  layout(w, r, heading),
		Base:    base(r),
		Heading: heading,
		Action:  action,
		Form:    form,
		Errors:  errs,
		Parents: parents,
	}))
}

func (h *FilesHandler) renderFileForm(w http.ResponseWriter, r *http.Request, heading string, editing bool, form validation.FileForm, errs validation.Errors) {
	space := ctxkeys.Space(r.Context())

	parents, err := h.folderService.Folders(space.ID)
	if err != nil {
		fail(w, r, err, "failed to list folders")
		return
	}

	members, err := h.spaceService.Members(space.ID)
	if err != nil {
		fail(w, r, err, "failed to list members")
		return
	}

	// the acting user is never notified of their own change
	others := make([]*model.SpaceMember, 0, len(members))
	for _, m := range members {
		if user := ctxkeys.User(r.Context()); user == nil || m.UserID != user.ID {
			others = append(others, m)
		}
	}

	ui.Render(w, r, pages.FileForm(pages.FileFormPage{
		Layout:  layout(w, r, heading),
		Base:    base(r),
		Heading: heading,
		Action:  r.URL.Path,
		Editing: editing,
		Form:    form,
		Errors:  errs,
		Parents: parents,
		Members: others,
		MaxSize: h.fileService.MaxUploadSize(),
	}))
}
