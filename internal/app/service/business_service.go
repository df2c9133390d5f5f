package service

import (
	"errors"
	"fmt"

	"github.com/tapreview/tapreview-backend/internal/app/model"
	"github.com/tapreview/tapreview-backend/internal/app/repository"
	"github.com/tapreview/tapreview-backend/pkg/logger"
	"gorm.io/gorm"
)

var ErrBusinessEmailExists = errors.New("a business with this email already exists")

// BusinessDetail is a business with its live entitlement and deployed pairs
type BusinessDetail struct {
	Business     *model.Business           `json:"business"`
	Subscription *SubscriptionStatusResult `json:"subscription"`
	TagPairs     []model.TagPair           `json:"tag_pairs"`
}

type BusinessService struct {
	businessRepo *repository.BusinessRepository
	pairRepo     *repository.TagPairRepository
	subService   *SubscriptionService
}

func NewBusinessService(
	businessRepo *repository.BusinessRepository,
	pairRepo *repository.TagPairRepository,
	subService *SubscriptionService,
) *BusinessService {
	return &BusinessService{
		businessRepo: businessRepo,
		pairRepo:     pairRepo,
		subService:   subService,
	}
}

// RegisterBusiness creates a business in the inactive state; it goes active
// when its first subscription is paid.
func (s *BusinessService) RegisterBusiness(business *model.Business) (*model.Business, error) {
	if _, err := s.businessRepo.GetByEmail(business.Email); err == nil {
		return nil, ErrBusinessEmailExists
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("failed to check email: %w", err)
	}

	business.SubscriptionStatus = model.BusinessStatusInactive
	if err := s.businessRepo.Create(business); err != nil {
		return nil, fmt.Errorf("failed to create business: %w", err)
	}

	logger.Info("Business registered", map[string]interface{}{
		"business_id": business.ID,
		"name":        business.Name,
		"email":       business.Email,
	})
	return business, nil
}

// GetBusiness returns the full console detail for one business. The
// entitlement check runs here, so viewing a business also corrects a stale
// expiry.
func (s *BusinessService) GetBusiness(id uint) (*BusinessDetail, error) {
	business, err := s.businessRepo.GetByID(id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrBusinessNotFound
		}
		return nil, err
	}

	status, err := s.subService.CheckSubscriptionActive(id)
	if err != nil {
		return nil, err
	}

	pairs, err := s.pairRepo.ListByBusinessID(id)
	if err != nil {
		return nil, fmt.Errorf("failed to list pairs: %w", err)
	}

	return &BusinessDetail{
		Business:     business,
		Subscription: status,
		TagPairs:     pairs,
	}, nil
}

// ListBusinesses returns businesses matching the filters
func (s *BusinessService) ListBusinesses(status, search, city string, offset, limit int) ([]model.Business, int64, error) {
	return s.businessRepo.List(status, search, city, offset, limit)
}

// SuspendBusiness is the soft delete: the row stays, the status goes to
// suspended and the tenant drops out of the active surfaces.
func (s *BusinessService) SuspendBusiness(id uint) (*model.Business, error) {
	business, err := s.businessRepo.GetByID(id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrBusinessNotFound
		}
		return nil, err
	}

	if err := s.businessRepo.UpdateFields(id, map[string]interface{}{
		"subscription_status": model.BusinessStatusSuspended,
	}); err != nil {
		return nil, fmt.Errorf("failed to suspend business: %w", err)
	}

	logger.Info("Business suspended", map[string]interface{}{
		"business_id": id,
		"email":       business.Email,
	})
	business.SubscriptionStatus = model.BusinessStatusSuspended
	return business, nil
}

// UpdateBusiness edits the profile fields of a business
func (s *BusinessService) UpdateBusiness(id uint, updates map[string]interface{}) (*model.Business, error) {
	business, err := s.businessRepo.GetByID(id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrBusinessNotFound
		}
		return nil, err
	}

	allowed := map[string]bool{
		"name": true, "phone": true, "address": true, "city": true,
		"category": true, "google_place_id": true, "owner_email": true,
		"verified": true,
	}
	filtered := make(map[string]interface{})
	for k, v := range updates {
		if allowed[k] {
			filtered[k] = v
		}
	}
	if len(filtered) == 0 {
		return business, nil
	}

	if err := s.businessRepo.UpdateFields(id, filtered); err != nil {
		return nil, fmt.Errorf("failed to update business: %w", err)
	}
	return s.businessRepo.GetByID(id)
}
