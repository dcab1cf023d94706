package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/templui/spaces/internal/model"
	"github.com/templui/spaces/internal/repository"
)

var ErrUnknownNotice = errors.New("unknown notification label")

// Notice is one event to fan out to the recipients picked on a form
type Notice struct {
	Label      string
	Space      *model.Space
	Actor      *model.User
	ObjectName string
	URL        string

	// RecipientIDs are user ids; NotifyAll selects every member instead
	RecipientIDs []string
	NotifyAll    bool
}

type NotificationService struct {
	typeRepository  repository.NotificationTypeRepository
	spaceRepository repository.SpaceRepository
	mailer          Mailer
	appName         string

	mu    sync.RWMutex
	types map[string]*model.NotificationType
}

func NewNotificationService(
	typeRepository repository.NotificationTypeRepository,
	spaceRepository repository.SpaceRepository,
	mailer Mailer,
	appName string,
) *NotificationService {
	return &NotificationService{
		typeRepository:  typeRepository,
		spaceRepository: spaceRepository,
		mailer:          mailer,
		appName:         appName,
		types:           make(map[string]*model.NotificationType),
	}
}

// Register persists a notification type. Registering twice updates it.
func (s *NotificationService) Register(label, display, description string) error {
	nt := &model.NotificationType{Label: label, Display: display, Description: description}

	err := s.typeRepository.Upsert(nt)
	if err != nil {
		return fmt.Errorf("failed to register notification type %s: %w", label, err)
	}

	s.mu.Lock()
	s.types[label] = nt
	s.mu.Unlock()
	return nil
}

// RegisterFileNotices registers the labels emitted by file uploads and edits
func (s *NotificationService) RegisterFileNotices() error {
	err := s.Register(model.NoticeFileCreate, "File Uploaded", "a new file has been uploaded")
	if err != nil {
		return err
	}
	return s.Register(model.NoticeFileModify, "File Modified", "a file has been modified")
}

func (s *NotificationService) noticeType(label string) (*model.NotificationType, error) {
	s.mu.RLock()
	nt, ok := s.types[label]
	s.mu.RUnlock()
	if ok {
		return nt, nil
	}

	nt, err := s.typeRepository.ByLabel(label)
	if errors.Is(err, repository.ErrNotificationTypeNotFound) {
		return nil, fmt.Errorf("%w: %s", ErrUnknownNotice, label)
	}
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	s.types[label] = nt
	s.mu.Unlock()
	return nt, nil
}

// Recipients resolves who gets a notice: chosen members, or all of them,
// never the actor and never someone outside the space.
func (s *NotificationService) Recipients(n Notice) ([]*model.SpaceMember, error) {
	members, err := s.spaceRepository.Members(n.Space.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to load members: %w", err)
	}

	chosen := make(map[string]bool, len(n.RecipientIDs))
	for _, id := range n.RecipientIDs {
		chosen[id] = true
	}

	var out []*model.SpaceMember
	for _, m := range members {
		if n.Actor != nil && m.UserID == n.Actor.ID {
			continue
		}
		if n.NotifyAll || chosen[m.UserID] {
			out = append(out, m)
		}
	}
	return out, nil
}

// Dispatch sends one email per recipient and returns how many went out.
// A failed recipient is logged and the rest still receive theirs.
func (s *NotificationService) Dispatch(ctx context.Context, n Notice) (int, error) {
	_, err := s.noticeType(n.Label)
	if err != nil {
		return 0, err
	}

	recipients, err := s.Recipients(n)
	if err != nil {
		return 0, err
	}

	verb := "uploaded"
	if n.Label == model.NoticeFileModify {
		verb = "modified"
	}
	actorName := ""
	if n.Actor != nil {
		actorName = n.Actor.DisplayName()
	}
	subject, body := fileNoticeTemplate(verb, actorName, n.ObjectName, n.Space.Name, n.URL, s.appName)

	sent := 0
	for _, r := range recipients {
		err := s.mailer.Send(ctx, r.Email, subject, body)
		if err != nil {
			slog.Error("notification delivery failed", "error", err, "label", n.Label, "user_id", r.UserID, "space_id", n.Space.ID)
			continue
		}
		sent++
	}

	slog.Debug("notification dispatched", "label", n.Label, "space_id", n.Space.ID, "recipients", len(recipients), "sent", sent)
	return sent, nil
}
