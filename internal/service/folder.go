package service

import (
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/templui/spaces/internal/authz"
	"github.com/templui/spaces/internal/model"
	"github.com/templui/spaces/internal/repository"
	"github.com/templui/spaces/internal/storage"
	"github.com/templui/spaces/internal/tree"
	"github.com/templui/spaces/internal/validation"
)

type FolderService struct {
	folderRepository repository.FolderRepository
	storage          storage.Storage
	activityService  *ActivityService
}

func NewFolderService(folderRepository repository.FolderRepository, storage storage.Storage, activityService *ActivityService) *FolderService {
	return &FolderService{
		folderRepository: folderRepository,
		storage:          storage,
		activityService:  activityService,
	}
}

// Folders lists every folder of the space in tree order
func (s *FolderService) Folders(spaceID string) ([]*model.Folder, error) {
	return s.folderRepository.Folders(spaceID)
}

func (s *FolderService) Folder(spaceID, id string) (*model.Folder, error) {
	folder, err := s.folderRepository.ByID(spaceID, id)
	if err != nil {
		if errors.Is(err, repository.ErrFolderNotFound) {
			return nil, notFound(err)
		}
		return nil, fmt.Errorf("failed to get folder: %w", err)
	}
	return folder, nil
}

func (s *FolderService) Subtree(spaceID string, folder *model.Folder) ([]*model.Folder, error) {
	return s.folderRepository.Subtree(spaceID, folder, true)
}

// CanModify reports whether the scope's user may edit or delete folder
func (s *FolderService) CanModify(scope Scope, folder *model.Folder) bool {
	return scope.Allows(authz.CanModify(folder.CreatedBy))
}

func (s *FolderService) Create(scope Scope, form validation.FolderForm) (*model.Folder, error) {
	if !scope.Allows(authz.All(authz.Authenticated, authz.CanAccessSpace)) {
		return nil, ErrForbidden
	}

	errs := form.Validate()
	parentID, err := s.resolveParent(scope, form.ParentID, errs)
	if err != nil {
		return nil, err
	}
	if err := errs.Err(); err != nil {
		return nil, err
	}

	folder := &model.Folder{
		ID:            uuid.New().String(),
		Name:          form.Name,
		Description:   form.Description,
		ParentID:      parentID,
		FileManagerID: scope.FileManager.ID,
		CreatedBy:     scope.User.ID,
		CreatedAt:     time.Now().UTC(),
	}

	err = s.folderRepository.Create(folder)
	if err != nil {
		return nil, fmt.Errorf("failed to create folder: %w", err)
	}

	slog.Info("folder created", "folder_id", folder.ID, "space_id", scope.Space.ID, "user_id", scope.User.ID)
	s.record(scope, model.VerbCreated, folder)
	return folder, nil
}

// Update renames, describes or moves a folder. The creator stays unchanged.
func (s *FolderService) Update(scope Scope, id string, form validation.FolderForm) (*model.Folder, error) {
	folder, err := s.Folder(scope.Space.ID, id)
	if err != nil {
		return nil, err
	}
	if !s.CanModify(scope, folder) {
		return nil, ErrForbidden
	}

	errs := form.Validate()
	parentID, err := s.resolveParent(scope, form.ParentID, errs)
	if err != nil {
		return nil, err
	}
	if err := errs.Err(); err != nil {
		return nil, err
	}

	folder.Name = form.Name
	folder.Description = form.Description
	folder.ParentID = parentID

	err = s.folderRepository.Update(folder)
	if errors.Is(err, tree.ErrCycle) || errors.Is(err, tree.ErrOrphan) {
		return nil, validation.Errors{"parent": tree.ErrCycle.Error()}
	}
	if err != nil {
		return nil, fmt.Errorf("failed to update folder: %w", err)
	}

	slog.Info("folder updated", "folder_id", folder.ID, "space_id", scope.Space.ID, "user_id", scope.User.ID)
	s.record(scope, model.VerbEdited, folder)
	return folder, nil
}

// Delete removes the folder with its subtree and contained files. The
// activity entry is written first so it still names the folder.
func (s *FolderService) Delete(scope Scope, id string) error {
	folder, err := s.Folder(scope.Space.ID, id)
	if err != nil {
		return err
	}
	if !s.CanModify(scope, folder) {
		return ErrForbidden
	}

	s.record(scope, model.VerbDeleted, folder)

	removed, err := s.folderRepository.DeleteSubtree(folder)
	if err != nil {
		return fmt.Errorf("failed to delete folder: %w", err)
	}

	for _, file := range removed {
		removePayload(s.storage, file.StoragePath)
	}

	slog.Info("folder deleted", "folder_id", folder.ID, "space_id", scope.Space.ID, "user_id", scope.User.ID, "files", len(removed))
	return nil
}

// resolveParent looks the parent up inside the scope's space. A foreign or
// unknown id becomes a field error rather than a lookup failure.
func (s *FolderService) resolveParent(scope Scope, parentID string, errs validation.Errors) (*string, error) {
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
	return &parent.ID, nil
}

func (s *FolderService) record(scope Scope, verb string, folder *model.Folder) {
	err := s.activityService.Record(scope.User, verb, scope.Space, model.ObjectFolder, folder.ID, folder.Name)
	if err != nil {
		slog.Error("activity not recorded", "error", err, "folder_id", folder.ID, "verb", verb)
	}
}
