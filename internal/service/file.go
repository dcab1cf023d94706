package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"mime/multipart"
	"path"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/templui/spaces/internal/authz"
	"github.com/templui/spaces/internal/model"
	"github.com/templui/spaces/internal/repository"
	"github.com/templui/spaces/internal/storage"
	"github.com/templui/spaces/internal/validation"
)

type FileService struct {
	fileRepository      repository.FileRepository
	folderRepository    repository.FolderRepository
	storage             storage.Storage
	activityService     *ActivityService
	notificationService *NotificationService
	maxUploadSize       int64
	appURL              string
	now                 func() time.Time
}

func NewFileService(
	fileRepository repository.FileRepository,
	folderRepository repository.FolderRepository,
	storage storage.Storage,
	activityService *ActivityService,
	notificationService *NotificationService,
	maxUploadSize int64,
	appURL string,
) *FileService {
	return &FileService{
		fileRepository:      fileRepository,
		folderRepository:    folderRepository,
		storage:             storage,
		activityService:     activityService,
		notificationService: notificationService,
		maxUploadSize:       maxUploadSize,
		appURL:              strings.TrimSuffix(appURL, "/"),
		now:                 time.Now,
	}
}

func (s *FileService) MaxUploadSize() int64 {
	return s.maxUploadSize
}

func (s *FileService) File(spaceID, id string) (*model.File, error) {
	file, err := s.fileRepository.ByID(spaceID, id)
	if err != nil {
		if errors.Is(err, repository.ErrFileNotFound) {
			return nil, notFound(err)
		}
		return nil, fmt.Errorf("failed to get file: %w", err)
	}
	return file, nil
}

// InSubtree lists the files of folder and its descendants
func (s *FileService) InSubtree(folder *model.Folder) ([]*model.File, error) {
	return s.fileRepository.InSubtree(folder)
}

func (s *FileService) Search(spaceID, q string) ([]*model.File, error) {
	q = strings.TrimSpace(q)
	if q == "" {
		return nil, nil
	}
	return s.fileRepository.Search(spaceID, q)
}

// URL is where the browser downloads the payload from
func (s *FileService) URL(file *model.File) string {
	return s.storage.URL(file.StoragePath)
}

func (s *FileService) CanModify(scope Scope, file *model.File) bool {
	return scope.Allows(authz.CanModify(file.CreatedBy))
}

func (s *FileService) Create(ctx context.Context, scope Scope, form validation.FileForm) (*model.File, error) {
	if !scope.Allows(authz.All(authz.Authenticated, authz.CanAccessSpace)) {
		return nil, ErrForbidden
	}

	errs := form.Validate(true, s.maxUploadSize)
	parent, err := s.resolveParent(scope, form.ParentID, errs)
	if err != nil {
		return nil, err
	}
	if err := errs.Err(); err != nil {
		return nil, err
	}

	storagePath, err := s.store(scope.Space, form.Upload)
	if err != nil {
		return nil, err
	}

	file := &model.File{
		ID:          uuid.New().String(),
		Name:        form.Name,
		Description: form.Description,
		StoragePath: storagePath,
		MimeType:    validation.DetectMimeType(form.Upload),
		Size:        form.Upload.Size,
		ParentID:    parent.ID,
		CreatedBy:   scope.User.ID,
		CreatedAt:   s.now().UTC(),
	}
	if file.Name == "" {
		file.Name = fallbackName(form.Upload, storagePath)
	}

	err = s.fileRepository.Create(file)
	if err != nil {
		removePayload(s.storage, storagePath)
		return nil, fmt.Errorf("failed to create file record: %w", err)
	}

	slog.Info("file uploaded", "file_id", file.ID, "space_id", scope.Space.ID, "user_id", scope.User.ID, "path", storagePath)
	s.afterSave(ctx, scope, model.VerbCreated, model.NoticeFileCreate, file, form)
	return file, nil
}

// Update edits a file. A new upload replaces the payload; the old bytes
// are removed once the row points at the new ones.
func (s *FileService) Update(ctx context.Context, scope Scope, id string, form validation.FileForm) (*model.File, error) {
	file, err := s.File(scope.Space.ID, id)
	if err != nil {
		return nil, err
	}
	if !s.CanModify(scope, file) {
		return nil, ErrForbidden
	}

	errs := form.Validate(false, s.maxUploadSize)
	parent, err := s.resolveParent(scope, form.ParentID, errs)
	if err != nil {
		return nil, err
	}
	if err := errs.Err(); err != nil {
		return nil, err
	}

	oldPath := file.StoragePath
	if form.Upload != nil {
		newPath, err := s.store(scope.Space, form.Upload)
		if err != nil {
			return nil, err
		}
		file.StoragePath = newPath
		file.MimeType = validation.DetectMimeType(form.Upload)
		file.Size = form.Upload.Size
	}

	file.Name = form.Name
	if file.Name == "" {
		file.Name = fallbackName(form.Upload, file.StoragePath)
	}
	file.Description = form.Description
	file.ParentID = parent.ID

	err = s.fileRepository.Update(file)
	if err != nil {
		if file.StoragePath != oldPath {
			removePayload(s.storage, file.StoragePath)
		}
		return nil, fmt.Errorf("failed to update file: %w", err)
	}

	if file.StoragePath != oldPath {
		removePayload(s.storage, oldPath)
	}

	slog.Info("file updated", "file_id", file.ID, "space_id", scope.Space.ID, "user_id", scope.User.ID)
	s.afterSave(ctx, scope, model.VerbEdited, model.NoticeFileModify, file, form)
	return file, nil
}

func (s *FileService) Delete(scope Scope, id string) error {
	file, err := s.File(scope.Space.ID, id)
	if err != nil {
		return err
	}
	if !s.CanModify(scope, file) {
		return ErrForbidden
	}

	s.record(scope, model.VerbDeleted, file)

	err = s.fileRepository.Delete(file.ID)
	if err != nil {
		return fmt.Errorf("failed to delete file: %w", err)
	}

	removePayload(s.storage, file.StoragePath)

	slog.Info("file deleted", "file_id", file.ID, "space_id", scope.Space.ID, "user_id", scope.User.ID)
	return nil
}

// UploadDir is spaces_files/{slug}/{YYYY}/{MM}/{DD}
func (s *FileService) UploadDir(space *model.Space) string {
	now := s.now().UTC()
	return path.Join(model.UploadNamespace, space.Slug, now.Format("2006"), now.Format("01"), now.Format("02"))
}

func (s *FileService) store(space *model.Space, header *multipart.FileHeader) (string, error) {
	p, err := s.availablePath(s.UploadDir(space), validation.SanitizeFilename(header.Filename))
	if err != nil {
		return "", err
	}

	src, err := header.Open()
	if err != nil {
		return "", fmt.Errorf("failed to open upload: %w", err)
	}
	defer func() { _ = src.Close() }()

	err = s.storage.Save(p, src)
	if err != nil {
		return "", fmt.Errorf("failed to save file: %w", err)
	}
	return p, nil
}

// availablePath inserts a short random suffix before the extension while
// the name is taken
func (s *FileService) availablePath(dir, name string) (string, error) {
	candidate := path.Join(dir, name)
	ext := path.Ext(name)
	stem := strings.TrimSuffix(name, ext)

	for range 10 {
		exists, err := s.storage.Exists(candidate)
		if err != nil {
			return "", fmt.Errorf("failed to check storage path: %w", err)
		}
		if !exists {
			return candidate, nil
		}
		candidate = path.Join(dir, fmt.Sprintf("%s_%s%s", stem, uuid.New().String()[:7], ext))
	}
	return "", fmt.Errorf("no free storage path for %s", name)
}

func (s *FileService) resolveParent(scope Scope, parentID string, errs validation.Errors) (*model.Folder, error) {
	if parentID == "" {
		return nil, nil
	}

	parent, err := s.folderRepository.ByID(scope.Space.ID, parentID)
	if errors.Is(err, repository.ErrFolderNotFound) {
		errs.Add("parent", invalidChoice)
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to resolve parent: %w", err)
	}
	return parent, nil
}

// afterSave runs the side effects of a committed save in order. None of
// them can undo the save.
func (s *FileService) afterSave(ctx context.Context, scope Scope, verb, label string, file *model.File, form validation.FileForm) {
	s.record(scope, verb, file)

	if len(form.NotifyUserIDs) == 0 && !form.NotifyAll {
		return
	}

	_, err := s.notificationService.Dispatch(ctx, Notice{
		Label:        label,
		Space:        scope.Space,
		Actor:        scope.User,
		ObjectName:   file.DisplayName(),
		URL:          fmt.Sprintf("%s/spaces/%s/files/file/%s", s.appURL, scope.Space.Slug, file.ID),
		RecipientIDs: form.NotifyUserIDs,
		NotifyAll:    form.NotifyAll,
	})
	if err != nil {
		slog.Error("notification not dispatched", "error", err, "file_id", file.ID, "label", label)
	}
}

func (s *FileService) record(scope Scope, verb string, file *model.File) {
	err := s.activityService.Record(scope.User, verb, scope.Space, model.ObjectFile, file.ID, file.DisplayName())
	if err != nil {
		slog.Error("activity not recorded", "error", err, "file_id", file.ID, "verb", verb)
	}
}

// fallbackName names a file after its upload, or after the stored payload
// when the form carries no new upload
func fallbackName(upload *multipart.FileHeader, storagePath string) string {
	if upload != nil {
		if name := validation.UploadName(upload.Filename); name != "" {
			return name
		}
	}
	return path.Base(storagePath)
}
