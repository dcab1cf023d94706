package service

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/templui/spaces/internal/model"
	"github.com/templui/spaces/internal/repository"
)

const RecentActivityLimit = 20

type ActivityService struct {
	activityRepository repository.ActivityRepository
}

func NewActivityService(activityRepository repository.ActivityRepository) *ActivityService {
	return &ActivityService{activityRepository: activityRepository}
}

// Record appends "actor verb object" to the space's stream
func (s *ActivityService) Record(actor *model.User, verb string, space *model.Space, objectType, objectID, objectName string) error {
	if actor == nil {
		return fmt.Errorf("activity without actor")
	}

	err := s.activityRepository.Create(&model.Activity{
		ID:         uuid.New().String(),
		ActorID:    actor.ID,
		Verb:       verb,
		TargetType: model.TargetSpace,
		TargetID:   space.ID,
		ObjectType: objectType,
		ObjectID:   objectID,
		ObjectName: objectName,
		CreatedAt:  time.Now().UTC(),
	})
	if err != nil {
		return fmt.Errorf("failed to record activity: %w", err)
	}
	return nil
}

// SpaceActivities returns the newest entries first
func (s *ActivityService) SpaceActivities(spaceID string, limit int) ([]*model.Activity, error) {
	if limit <= 0 {
		limit = RecentActivityLimit
	}
	return s.activityRepository.ByTarget(model.TargetSpace, spaceID, limit)
}
