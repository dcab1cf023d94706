package service

import (
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/templui/spaces/internal/model"
	"github.com/templui/spaces/internal/repository"
)

var ErrUnknownPlugin = errors.New("unknown plugin kind")

// PluginDescriptor describes a plugin kind that spaces can enable
type PluginDescriptor struct {
	Kind        string
	Title       string
	Description string
	// SearchableFields lists the model fields covered by search
	SearchableFields []string
}

// FilesPlugin is the descriptor of the file manager
var FilesPlugin = PluginDescriptor{
	Kind:             model.PluginFiles,
	Title:            "Files",
	Description:      "Share files in nested folders",
	SearchableFields: []string{"name", "description", "file"},
}

type PluginService struct {
	pluginRepository repository.PluginRepository
	registry         map[string]PluginDescriptor
}

func NewPluginService(pluginRepository repository.PluginRepository, descriptors ...PluginDescriptor) *PluginService {
	s := &PluginService{
		pluginRepository: pluginRepository,
		registry:         make(map[string]PluginDescriptor),
	}
	for _, d := range descriptors {
		s.registry[d.Kind] = d
	}
	return s
}

func (s *PluginService) Descriptor(kind string) (PluginDescriptor, bool) {
	d, ok := s.registry[kind]
	return d, ok
}

func (s *PluginService) Descriptors() []PluginDescriptor {
	out := make([]PluginDescriptor, 0, len(s.registry))
	for _, d := range s.registry {
		out = append(out, d)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Kind < out[j].Kind })
	return out
}

// PluginState pairs a registered kind with whether a space has it enabled
type PluginState struct {
	PluginDescriptor
	Active bool
}

// States lists every registered plugin for the space, ordered by kind
func (s *PluginService) States(spaceID string) ([]PluginState, error) {
	descriptors := s.Descriptors()
	out := make([]PluginState, 0, len(descriptors))
	for _, d := range descriptors {
		_, err := s.Instance(spaceID, d.Kind)
		if err != nil && !errors.Is(err, ErrNotFound) {
			return nil, err
		}
		out = append(out, PluginState{PluginDescriptor: d, Active: err == nil})
	}
	return out, nil
}

// Enable creates the space's instance of kind, or reactivates it
func (s *PluginService) Enable(spaceID, kind string) (*model.FileManager, error) {
	if _, ok := s.registry[kind]; !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownPlugin, kind)
	}

	instance, err := s.pluginRepository.ByKind(spaceID, kind)
	if errors.Is(err, repository.ErrPluginNotFound) {
		instance = &model.FileManager{
			ID:        uuid.New().String(),
			SpaceID:   spaceID,
			Kind:      kind,
			Active:    true,
			CreatedAt: time.Now().UTC(),
		}
		err = s.pluginRepository.Create(instance)
		if err != nil {
			return nil, fmt.Errorf("failed to enable plugin: %w", err)
		}
		return instance, nil
	}
	if err != nil {
		return nil, err
	}

	if !instance.Active {
		err = s.pluginRepository.SetActive(instance.ID, true)
		if err != nil {
			return nil, fmt.Errorf("failed to enable plugin: %w", err)
		}
		instance.Active = true
	}
	return instance, nil
}

// Disable keeps the instance and its content but hides it
func (s *PluginService) Disable(spaceID, kind string) error {
	instance, err := s.pluginRepository.ByKind(spaceID, kind)
	if err != nil {
		if errors.Is(err, repository.ErrPluginNotFound) {
			return notFound(err)
		}
		return err
	}
	return s.pluginRepository.SetActive(instance.ID, false)
}

// Instance resolves the active instance of kind for the space
func (s *PluginService) Instance(spaceID, kind string) (*model.FileManager, error) {
	instance, err := s.pluginRepository.ByKind(spaceID, kind)
	if err != nil {
		if errors.Is(err, repository.ErrPluginNotFound) {
			return nil, notFound(err)
		}
		return nil, err
	}
	if !instance.Active {
		return nil, notFound(repository.ErrPluginNotFound)
	}
	return instance, nil
}
