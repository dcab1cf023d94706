package service

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/gosimple/slug"
	"github.com/templui/spaces/internal/model"
	"github.com/templui/spaces/internal/repository"
	"github.com/templui/spaces/internal/validation"
)

type SpaceService struct {
	spaceRepository repository.SpaceRepository
}

func NewSpaceService(spaceRepository repository.SpaceRepository) *SpaceService {
	return &SpaceService{spaceRepository: spaceRepository}
}

// Create makes a space with a unique slug and the creator as admin
func (s *SpaceService) Create(name string, owner *model.User) (*model.Space, error) {
	form := validation.SpaceForm{Name: strings.TrimSpace(name)}
	err := form.Validate().Err()
	if err != nil {
		return nil, err
	}

	base := slug.Make(form.Name)
	space := &model.Space{
		ID:        uuid.New().String(),
		Name:      form.Name,
		CreatedBy: owner.ID,
		CreatedAt: time.Now().UTC(),
	}

	for i := 1; ; i++ {
		space.Slug = base
		if i > 1 {
			space.Slug = fmt.Sprintf("%s-%d", base, i)
		}

		err = s.spaceRepository.Create(space)
		if err == nil {
			break
		}
		if !errors.Is(err, repository.ErrDuplicateSlug) || i >= 20 {
			return nil, fmt.Errorf("failed to create space: %w", err)
		}
	}

	err = s.AddMember(space, owner, model.RoleAdmin)
	if err != nil {
		return nil, err
	}

	return space, nil
}

func (s *SpaceService) BySlug(slug string) (*model.Space, error) {
	space, err := s.spaceRepository.BySlug(slug)
	if err != nil {
		if errors.Is(err, repository.ErrSpaceNotFound) {
			return nil, notFound(err)
		}
		return nil, err
	}
	return space, nil
}

// Membership returns nil without error when user does not belong to the space
func (s *SpaceService) Membership(space *model.Space, user *model.User) (*model.SpaceMember, error) {
	if user == nil {
		return nil, nil
	}

	member, err := s.spaceRepository.Member(space.ID, user.ID)
	if errors.Is(err, repository.ErrMemberNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load membership: %w", err)
	}
	return member, nil
}

func (s *SpaceService) AddMember(space *model.Space, user *model.User, role string) error {
	if !model.ValidRole(role) {
		return fmt.Errorf("invalid role %q", role)
	}

	err := s.spaceRepository.AddMember(&model.SpaceMember{
		SpaceID:   space.ID,
		UserID:    user.ID,
		Role:      role,
		CreatedAt: time.Now().UTC(),
	})
	if err != nil {
		return fmt.Errorf("failed to add member: %w", err)
	}
	return nil
}

func (s *SpaceService) Members(spaceID string) ([]*model.SpaceMember, error) {
	return s.spaceRepository.Members(spaceID)
}

// SpacesFor lists the spaces a user can open; superusers see all of them
func (s *SpaceService) SpacesFor(user *model.User) ([]*model.Space, error) {
	if user.IsSuperuser {
		return s.spaceRepository.All()
	}
	return s.spaceRepository.SpacesForUser(user.ID)
}
