package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"ask-io/internal/domain"
	"ask-io/internal/email"
	"ask-io/internal/repository"
)

const notificationListLimit = 50

// NotificationService administra los avisos de la aplicacion.
type NotificationService struct {
	logger        *zap.Logger
	notifications repository.NotificationRepository
	profiles      repository.ProfileRepository
	sender        email.Sender
	now           func() time.Time
}

type NotificationInput struct {
	UserID    string
	Title     string
	Message   string
	Type      domain.NotificationType
	Link      string
	SendEmail bool
}

func NewNotificationService(logger *zap.Logger, notifications repository.NotificationRepository, profiles repository.ProfileRepository, sender email.Sender) *NotificationService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &NotificationService{
		logger:        logger,
		notifications: notifications,
		profiles:      profiles,
		sender:        sender,
		now:           func() time.Time { return time.Now().UTC() },
	}
}

func (s *NotificationService) Create(ctx context.Context, in NotificationInput) (domain.Notification, error) {
	userID := strings.TrimSpace(in.UserID)
	title := strings.TrimSpace(in.Title)
	message := strings.TrimSpace(in.Message)
	if userID == "" || title == "" || message == "" {
		return domain.Notification{}, fmt.Errorf("%w: user id, title and message are required", ErrInvalidInput)
	}
	kind := in.Type
	if kind == "" {
		kind = domain.NotificationInfo
	}
	if !kind.Valid() {
		return domain.Notification{}, fmt.Errorf("%w: unknown notification type %q", ErrInvalidInput, kind)
	}

	n := domain.Notification{
		ID:        newID(),
		UserID:    userID,
		Title:     title,
		Message:   message,
		Type:      kind,
		Link:      strings.TrimSpace(in.Link),
		CreatedAt: s.now(),
	}
	if err := s.notifications.Create(ctx, n); err != nil {
		return domain.Notification{}, storageErr(err)
	}

	if in.SendEmail {
		s.sendEmail(ctx, n)
	}
	return n, nil
}

func (s *NotificationService) sendEmail(ctx context.Context, n domain.Notification) {
	if s.sender == nil || s.profiles == nil {
		return
	}
	profile, err := s.profiles.GetByID(ctx, n.UserID)
	if err != nil {
		s.logger.Warn("notification email skipped", zap.Error(err), zap.String("user_id", n.UserID))
		return
	}
	if err := s.sender.Send(ctx, email.Notification(n.Title, n.Message, n.Link).To(profile.Email)); err != nil {
		s.logger.Warn("send notification email failed", zap.Error(err), zap.String("user_id", n.UserID))
	}
}

// List devuelve los avisos del usuario, mas recientes primero.
func (s *NotificationService) List(ctx context.Context, userID string, unreadOnly bool) ([]domain.Notification, error) {
	userID = strings.TrimSpace(userID)
	if userID == "" {
		return nil, fmt.Errorf("%w: user id is required", ErrInvalidInput)
	}
	items, err := s.notifications.ListByUser(ctx, userID, unreadOnly, notificationListLimit)
	if err != nil {
		return nil, storageErr(err)
	}
	return items, nil
}

func (s *NotificationService) UnreadCount(ctx context.Context, userID string) (int, error) {
	userID = strings.TrimSpace(userID)
	if userID == "" {
		return 0, fmt.Errorf("%w: user id is required", ErrInvalidInput)
	}
	n, err := s.notifications.CountUnread(ctx, userID)
	if err != nil {
		return 0, storageErr(err)
	}
	return n, nil
}

func (s *NotificationService) MarkRead(ctx context.Context, userID string, ids []string) (int64, error) {
	userID = strings.TrimSpace(userID)
	if userID == "" || len(ids) == 0 {
		return 0, fmt.Errorf("%w: user id and notification ids are required", ErrInvalidInput)
	}
	for _, id := range ids {
		if _, err := uuid.Parse(id); err != nil {
			return 0, fmt.Errorf("%w: invalid notification id %q", ErrInvalidInput, id)
		}
	}
	n, err := s.notifications.MarkRead(ctx, userID, ids)
	if err != nil {
		return 0, storageErr(err)
	}
	return n, nil
}

func (s *NotificationService) MarkAllRead(ctx context.Context, userID string) (int64, error) {
	userID = strings.TrimSpace(userID)
	if userID == "" {
		return 0, fmt.Errorf("%w: user id is required", ErrInvalidInput)
	}
	n, err := s.notifications.MarkAllRead(ctx, userID)
	if err != nil {
		return 0, storageErr(err)
	}
	return n, nil
}

func (s *NotificationService) Delete(ctx context.Context, userID, id string) error {
	userID = strings.TrimSpace(userID)
	if userID == "" {
		return fmt.Errorf("%w: user id is required", ErrInvalidInput)
	}
	if _, err := uuid.Parse(id); err != nil {
		return fmt.Errorf("%w: invalid notification id %q", ErrInvalidInput, id)
	}
	deleted, err := s.notifications.Delete(ctx, userID, id)
	if err != nil {
		return storageErr(err)
	}
	if !deleted {
		return ErrNotificationNotFound
	}
	return nil
}
