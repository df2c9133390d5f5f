package service

import (
	"fmt"
	"time"

	"github.com/tapreview/tapreview-backend/internal/app/model"
	"github.com/tapreview/tapreview-backend/internal/app/repository"
	"github.com/tapreview/tapreview-backend/pkg/logger"
)

// BusinessAlert is a derived per-business status banner for the console.
// Exactly one alert per business, picked by priority: a brand new business
// wins over an expired subscription, which wins over an expiring one, which
// wins over plain active.
type BusinessAlert struct {
	BusinessID   uint   `json:"business_id"`
	BusinessName string `json:"business_name"`
	AlertType    string `json:"alert_type"`
	Color        string `json:"color"`
	Message      string `json:"message"`
	DaysLeft     int    `json:"days_left,omitempty"`
}

type NotificationService struct {
	notificationRepo *repository.NotificationRepository
	businessRepo     *repository.BusinessRepository
	subRepo          *repository.SubscriptionRepository
	tagRepo          *repository.TagRepository
	subService       *SubscriptionService
	expiryWarnDays   int
}

func NewNotificationService(
	notificationRepo *repository.NotificationRepository,
	businessRepo *repository.BusinessRepository,
	subRepo *repository.SubscriptionRepository,
	tagRepo *repository.TagRepository,
	subService *SubscriptionService,
	expiryWarnDays int,
) *NotificationService {
	if expiryWarnDays <= 0 {
		expiryWarnDays = 7
	}
	return &NotificationService{
		notificationRepo: notificationRepo,
		businessRepo:     businessRepo,
		subRepo:          subRepo,
		tagRepo:          tagRepo,
		subService:       subService,
		expiryWarnDays:   expiryWarnDays,
	}
}

// CheckAndCreateAlerts is the periodic sweep. Each alert family dedupes on
// its own rule so a re-run never doubles up the console feed.
func (s *NotificationService) CheckAndCreateAlerts() error {
	log := logger.Get()
	created := 0

	n, err := s.sweepNewBusinesses()
	if err != nil {
		log.Error("New business sweep failed", err)
	}
	created += n

	n, err = s.sweepExpiringSubscriptions()
	if err != nil {
		log.Error("Expiring subscription sweep failed", err)
	}
	created += n

	n, err = s.sweepExpiredSubscriptions()
	if err != nil {
		log.Error("Expired subscription sweep failed", err)
	}
	created += n

	n, err = s.sweepPendingTags()
	if err != nil {
		log.Error("Pending tag sweep failed", err)
	}
	created += n

	log.Info("Alert sweep finished", map[string]interface{}{
		"alerts_created": created,
	})
	return nil
}

// sweepNewBusinesses raises one NEW_BUSINESS alert per business registered in
// the last 24 hours. Dedupe is per business for all time.
func (s *NotificationService) sweepNewBusinesses() (int, error) {
	since := time.Now().Add(-24 * time.Hour)
	businesses, err := s.businessRepo.GetCreatedAfter(since)
	if err != nil {
		return 0, err
	}

	created := 0
	for _, business := range businesses {
		exists, err := s.notificationRepo.Exists(model.NotificationTypeNewBusiness, business.ID)
		if err != nil || exists {
			continue
		}
		businessID := business.ID
		err = s.notificationRepo.Create(&model.AdminNotification{
			Type:       model.NotificationTypeNewBusiness,
			Title:      "New business registered",
			Message:    fmt.Sprintf("%s just signed up", business.Name),
			Priority:   model.PriorityMedium,
			BusinessID: &businessID,
		})
		if err == nil {
			created++
		}
	}
	return created, nil
}

// sweepExpiringSubscriptions warns about subscriptions expiring within the
// configured window. Dedupe is per business per calendar day.
func (s *NotificationService) sweepExpiringSubscriptions() (int, error) {
	now := time.Now()
	startOfDay := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
	subs, err := s.subService.CheckExpiringSubscriptions(s.expiryWarnDays)
	if err != nil {
		return 0, err
	}

	created := 0
	for _, sub := range subs {
		exists, err := s.notificationRepo.ExistsSince(model.NotificationTypeSubscriptionExpiring, sub.BusinessID, startOfDay)
		if err != nil || exists {
			continue
		}

		daysLeft := int(time.Until(sub.ExpiryDate).Hours() / 24)
		businessID := sub.BusinessID
		err = s.notificationRepo.Create(&model.AdminNotification{
			Type:       model.NotificationTypeSubscriptionExpiring,
			Title:      "Subscription expiring soon",
			Message:    fmt.Sprintf("Subscription for business #%d expires in %d day(s)", sub.BusinessID, daysLeft),
			Priority:   model.PriorityHigh,
			BusinessID: &businessID,
		})
		if err != nil {
			continue
		}
		created++

		if err := s.subService.MarkNotificationSent(sub.ID); err != nil {
			logger.Error("Failed to mark subscription notified", err, map[string]interface{}{
				"subscription_id": sub.ID,
			})
		}
	}
	return created, nil
}

// sweepExpiredSubscriptions flips past-due subscriptions to expired and
// raises one SUBSCRIPTION_EXPIRED alert per affected business.
func (s *NotificationService) sweepExpiredSubscriptions() (int, error) {
	now := time.Now()
	due, err := s.subRepo.GetDueForExpiry(now)
	if err != nil {
		return 0, err
	}

	if _, err := s.subService.SweepExpired(); err != nil {
		return 0, err
	}

	created := 0
	for _, sub := range due {
		exists, err := s.notificationRepo.Exists(model.NotificationTypeSubscriptionExpired, sub.BusinessID)
		if err != nil || exists {
			continue
		}
		businessID := sub.BusinessID
		err = s.notificationRepo.Create(&model.AdminNotification{
			Type:       model.NotificationTypeSubscriptionExpired,
			Title:      "Subscription expired",
			Message:    fmt.Sprintf("Subscription for business #%d has expired", sub.BusinessID),
			Priority:   model.PriorityCritical,
			BusinessID: &businessID,
		})
		if err == nil {
			created++
		}
	}
	return created, nil
}

// sweepPendingTags raises one TAG_PENDING alert per business with tags stuck
// awaiting activation.
func (s *NotificationService) sweepPendingTags() (int, error) {
	pending, err := s.tagRepo.ListPending()
	if err != nil {
		return 0, err
	}

	perBusiness := make(map[uint]int)
	for _, tag := range pending {
		if tag.BusinessID != nil {
			perBusiness[*tag.BusinessID]++
		}
	}

	created := 0
	for businessID, count := range perBusiness {
		exists, err := s.notificationRepo.Exists(model.NotificationTypeTagPending, businessID)
		if err != nil || exists {
			continue
		}
		id := businessID
		err = s.notificationRepo.Create(&model.AdminNotification{
			Type:       model.NotificationTypeTagPending,
			Title:      "Tags awaiting activation",
			Message:    fmt.Sprintf("Business #%d has %d tag(s) pending activation", businessID, count),
			Priority:   model.PriorityMedium,
			BusinessID: &id,
		})
		if err == nil {
			created++
		}
	}
	return created, nil
}

// BusinessAlerts derives the per-business status banner list
func (s *NotificationService) BusinessAlerts() ([]BusinessAlert, error) {
	businesses, err := s.businessRepo.GetByStatuses([]model.BusinessStatus{
		model.BusinessStatusInactive, model.BusinessStatusActive,
		model.BusinessStatusExpired, model.BusinessStatusTrial,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to list businesses: %w", err)
	}

	now := time.Now()
	alerts := make([]BusinessAlert, 0, len(businesses))
	for _, business := range businesses {
		alerts = append(alerts, s.deriveAlert(&business, now))
	}
	return alerts, nil
}

func (s *NotificationService) deriveAlert(business *model.Business, now time.Time) BusinessAlert {
	alert := BusinessAlert{
		BusinessID:   business.ID,
		BusinessName: business.Name,
	}

	// New registrations outrank everything for their first day.
	if now.Sub(business.CreatedAt) < 24*time.Hour {
		alert.AlertType = "new"
		alert.Color = "blue"
		alert.Message = "New business"
		return alert
	}

	// A past-due expiry counts as expired even while the stored status is
	// stale; the lazy-expiry read or the sweep will catch the record up.
	if business.SubscriptionStatus == model.BusinessStatusExpired ||
		(business.SubscriptionExpiresAt != nil && business.SubscriptionExpiresAt.Before(now)) {
		alert.AlertType = "expired"
		alert.Color = "red"
		alert.Message = "Subscription expired"
		return alert
	}

	if business.SubscriptionExpiresAt != nil {
		daysLeft := int(business.SubscriptionExpiresAt.Sub(now).Hours() / 24)
		if daysLeft >= 0 && daysLeft <= s.expiryWarnDays {
			alert.AlertType = "expiring"
			alert.Color = "yellow"
			alert.Message = fmt.Sprintf("Subscription expires in %d day(s)", daysLeft)
			alert.DaysLeft = daysLeft
			return alert
		}
	}

	alert.AlertType = "active"
	alert.Color = "green"
	alert.Message = "Subscription active"
	return alert
}

// List returns console notifications
func (s *NotificationService) List(unreadOnly bool, offset, limit int) ([]model.AdminNotification, int64, error) {
	return s.notificationRepo.List(unreadOnly, offset, limit)
}

// MarkRead marks one notification read
func (s *NotificationService) MarkRead(id uint) error {
	return s.notificationRepo.MarkRead(id)
}

// MarkAllRead clears the unread badge
func (s *NotificationService) MarkAllRead() error {
	return s.notificationRepo.MarkAllRead()
}

// UnreadCount returns the badge number
func (s *NotificationService) UnreadCount() (int64, error) {
	return s.notificationRepo.CountUnread()
}
