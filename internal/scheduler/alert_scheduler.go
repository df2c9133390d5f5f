package scheduler

import (
	"github.com/robfig/cron/v3"
	"github.com/tapreview/tapreview-backend/internal/app/service"
	"github.com/tapreview/tapreview-backend/pkg/logger"
)

// AlertScheduler runs the notification sweep on a cron spec. The sweep is the
// background counterpart of lazy expiry: it flips lapsed subscriptions and
// raises admin alerts even for businesses nobody is looking at.
type AlertScheduler struct {
	cron                *cron.Cron
	notificationService *service.NotificationService
	spec                string
}

func NewAlertScheduler(notificationService *service.NotificationService, spec string) *AlertScheduler {
	return &AlertScheduler{
		cron:                cron.New(),
		notificationService: notificationService,
		spec:                spec,
	}
}

func (s *AlertScheduler) Start() error {
	_, err := s.cron.AddFunc(s.spec, func() {
		logger.Info("Starting scheduled alert sweep", nil)

		if err := s.notificationService.CheckAndCreateAlerts(); err != nil {
			logger.Error("Alert sweep failed", err)
			return
		}

		logger.Info("Alert sweep completed", nil)
	})
	if err != nil {
		logger.Error("Failed to register alert sweep cron job", err)
		return err
	}

	s.cron.Start()
	logger.Info("Alert scheduler started", map[string]interface{}{
		"spec": s.spec,
	})
	return nil
}

func (s *AlertScheduler) Stop() {
	s.cron.Stop()
	logger.Info("Alert scheduler stopped", nil)
}
