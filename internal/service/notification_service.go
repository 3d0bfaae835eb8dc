package service

import (
	"context"
	"encoding/json"
	"fmt"
	"log"

	"budgetdesk/internal/model"
	"budgetdesk/internal/repository"
	"budgetdesk/internal/websocket"
	"budgetdesk/pkg/apperr"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"
)

// fanOutLimit bounds concurrent notification inserts. Recipients are
// independent, so a single slow or failing insert never blocks the rest.
const fanOutLimit = 4

// Dispatcher fans a notification out to a computed recipient set. Callers
// must log-and-swallow dispatch errors: a failed notification never fails
// the business operation that triggered it.
type Dispatcher interface {
	NotifyUser(ctx context.Context, userID uuid.UUID, title, message, ntype, actionURL string) error
	NotifyProjectTeam(ctx context.Context, projectID uuid.UUID, title, message, ntype, actionURL string) error
	NotifyProjectAdmins(ctx context.Context, projectID uuid.UUID, title, message, ntype, actionURL string) error
	NotifySystemAdmins(ctx context.Context, title, message, ntype, actionURL string) error
}

// NotificationService serves a user's own notification feed.
type NotificationService interface {
	Dispatcher
	ListNotifications(ctx context.Context, userID uuid.UUID, unreadOnly bool, page, limit int) ([]model.Notification, int64, error)
	MarkRead(ctx context.Context, id, userID uuid.UUID) error
	MarkAllRead(ctx context.Context, userID uuid.UUID) error
	UnreadCount(ctx context.Context, userID uuid.UUID) (int64, error)
}

type notificationService struct {
	notifRepo repository.NotificationRepository
	userRepo  repository.UserRepository
	teamRepo  repository.TeamRepository
	hub       *websocket.Hub // optional, nil in tests
}

func NewNotificationService(
	notifRepo repository.NotificationRepository,
	userRepo repository.UserRepository,
	teamRepo repository.TeamRepository,
	hub *websocket.Hub,
) NotificationService {
	return &notificationService{
		notifRepo: notifRepo,
		userRepo:  userRepo,
		teamRepo:  teamRepo,
		hub:       hub,
	}
}

func (s *notificationService) NotifyUser(ctx context.Context, userID uuid.UUID, title, message, ntype, actionURL string) error {
	return s.fanOut(ctx, []uuid.UUID{userID}, title, message, ntype, actionURL)
}

func (s *notificationService) NotifyProjectTeam(ctx context.Context, projectID uuid.UUID, title, message, ntype, actionURL string) error {
	ids, err := s.teamRepo.TeamUserIDs(ctx, projectID)
	if err != nil {
		return fmt.Errorf("failed to resolve project team: %w", err)
	}
	return s.fanOut(ctx, ids, title, message, ntype, actionURL)
}

func (s *notificationService) NotifyProjectAdmins(ctx context.Context, projectID uuid.UUID, title, message, ntype, actionURL string) error {
	ids, err := s.teamRepo.AdminUserIDs(ctx, projectID)
	if err != nil {
		return fmt.Errorf("failed to resolve project admins: %w", err)
	}
	return s.fanOut(ctx, ids, title, message, ntype, actionURL)
}

func (s *notificationService) NotifySystemAdmins(ctx context.Context, title, message, ntype, actionURL string) error {
	ids, err := s.userRepo.SystemAdminIDs(ctx)
	if err != nil {
		return fmt.Errorf("failed to resolve system admins: %w", err)
	}
	return s.fanOut(ctx, ids, title, message, ntype, actionURL)
}

// fanOut inserts one notification row per recipient with bounded concurrency.
// Individual failures are logged and skipped so one bad recipient cannot
// sink the batch.
func (s *notificationService) fanOut(ctx context.Context, recipients []uuid.UUID, title, message, ntype, actionURL string) error {
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(fanOutLimit)

	for _, userID := range recipients {
		userID := userID
		g.Go(func() error {
			n := &model.Notification{
				UserID:    userID,
				Title:     title,
				Message:   message,
				Type:      ntype,
				ActionURL: actionURL,
			}
			if err := s.notifRepo.Create(gctx, n); err != nil {
				log.Printf("notification insert failed for user %s: %v", userID, err)
				return nil
			}
			s.push(userID, n)
			return nil
		})
	}

	return g.Wait()
}

// push forwards the persisted notification to the recipient's live sockets.
func (s *notificationService) push(userID uuid.UUID, n *model.Notification) {
	if s.hub == nil {
		return
	}
	payload, err := json.Marshal(n)
	if err != nil {
		log.Printf("notification marshal failed: %v", err)
		return
	}
	s.hub.SendToUser(userID, payload)
}

func (s *notificationService) ListNotifications(ctx context.Context, userID uuid.UUID, unreadOnly bool, page, limit int) ([]model.Notification, int64, error) {
	notifications, total, err := s.notifRepo.ListByUser(ctx, userID, unreadOnly, page, limit)
	if err != nil {
		return nil, 0, apperr.Internal(err)
	}
	return notifications, total, nil
}

func (s *notificationService) MarkRead(ctx context.Context, id, userID uuid.UUID) error {
	affected, err := s.notifRepo.MarkRead(ctx, id, userID)
	if err != nil {
		return apperr.Internal(err)
	}
	if affected == 0 {
		return apperr.NotFound("notification not found")
	}
	return nil
}

func (s *notificationService) MarkAllRead(ctx context.Context, userID uuid.UUID) error {
	if err := s.notifRepo.MarkAllRead(ctx, userID); err != nil {
		return apperr.Internal(err)
	}
	return nil
}

func (s *notificationService) UnreadCount(ctx context.Context, userID uuid.UUID) (int64, error) {
	total, err := s.notifRepo.UnreadCount(ctx, userID)
	if err != nil {
		return 0, apperr.Internal(err)
	}
	return total, nil
}
