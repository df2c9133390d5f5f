package service

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/tapreview/tapreview-backend/internal/app/model"
	"github.com/tapreview/tapreview-backend/internal/app/repository"
	"github.com/tapreview/tapreview-backend/pkg/logger"
	"github.com/tapreview/tapreview-backend/pkg/util"
	"gorm.io/gorm"
)

var (
	ErrPairNotFound       = errors.New("tag pair not found")
	ErrPairDeleted        = errors.New("tag pair is deleted")
	ErrPairComponentInUse = errors.New("qr or nfc id already belongs to another pair")
	ErrPairNotAssignable  = errors.New("pair cannot be assigned in its current state")
	ErrPairAlreadyActive  = errors.New("pair is already active")
	ErrPairNotActive      = errors.New("pair is already inactive")
	ErrPairConflict       = errors.New("pair state changed concurrently")
)

type TagPairService struct {
	pairRepo     *repository.TagPairRepository
	businessRepo *repository.BusinessRepository
}

func NewTagPairService(pairRepo *repository.TagPairRepository, businessRepo *repository.BusinessRepository) *TagPairService {
	return &TagPairService{
		pairRepo:     pairRepo,
		businessRepo: businessRepo,
	}
}

// CreatePair binds a QR id and an NFC id into one inventory unit
func (s *TagPairService) CreatePair(qrID, nfcID, notes string, actor Actor) (*model.TagPair, error) {
	inUse, err := s.pairRepo.ComponentInUse(qrID, nfcID)
	if err != nil {
		return nil, fmt.Errorf("failed to check pair components: %w", err)
	}
	if inUse {
		return nil, ErrPairComponentInUse
	}

	pair := &model.TagPair{
		PairID: util.GeneratePairID(),
		QRID:   qrID,
		NFCID:  nfcID,
		Status: model.TagPairStatusUnassigned,
	}
	if notes != "" {
		pair.Notes = &notes
	}
	if err := s.pairRepo.Create(pair); err != nil {
		return nil, fmt.Errorf("failed to create pair: %w", err)
	}

	s.appendActivity(pair.PairID, "created", actor.Email, nil, pair, "")

	logger.Info("Tag pair created", map[string]interface{}{
		"pair_id": pair.PairID,
		"qr_id":   qrID,
		"nfc_id":  nfcID,
		"admin":   actor.Email,
	})
	return pair, nil
}

// BulkCreatePairs mints a batch of pairs with generated component ids
func (s *TagPairService) BulkCreatePairs(count int, actor Actor) ([]model.TagPair, error) {
	if count <= 0 || count > 500 {
		return nil, fmt.Errorf("count must be between 1 and 500")
	}

	pairs := make([]model.TagPair, count)
	for i := range pairs {
		pairs[i] = model.TagPair{
			PairID: util.GeneratePairID(),
			QRID:   util.GenerateTagID("QR"),
			NFCID:  util.GenerateTagID("NFC"),
			Status: model.TagPairStatusUnassigned,
		}
	}
	if err := s.pairRepo.BulkCreate(pairs); err != nil {
		return nil, fmt.Errorf("failed to bulk create pairs: %w", err)
	}

	for i := range pairs {
		s.appendActivity(pairs[i].PairID, "created", actor.Email, nil, &pairs[i], "batch")
	}

	logger.Info("Tag pairs bulk created", map[string]interface{}{
		"count": count,
		"admin": actor.Email,
	})
	return pairs, nil
}

// GetPair fetches a pair; deleted pairs are reported as such
func (s *TagPairService) GetPair(pairID string) (*model.TagPair, error) {
	pair, err := s.pairRepo.GetByPairID(pairID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrPairNotFound
		}
		return nil, err
	}
	if pair.Status == model.TagPairStatusDeleted {
		return nil, ErrPairDeleted
	}
	return pair, nil
}

// AssignPair deploys a pair to a business. Only unassigned and inactive pairs
// are assignable; the business name and location are snapshotted onto the
// pair at this moment.
func (s *TagPairService) AssignPair(pairID string, businessID uint, actor Actor, ip string) (*model.TagPair, error) {
	prev, err := s.GetPair(pairID)
	if err != nil {
		return nil, err
	}

	business, err := s.businessRepo.GetByID(businessID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrBusinessNotFound
		}
		return nil, fmt.Errorf("failed to get business: %w", err)
	}

	now := time.Now()
	moved, err := s.pairRepo.UpdateStatusIf(pairID,
		[]model.TagPairStatus{model.TagPairStatusUnassigned, model.TagPairStatusInactive},
		map[string]interface{}{
			"status":            model.TagPairStatusAssigned,
			"business_id":       business.ID,
			"business_name":     business.Name,
			"business_location": business.Address,
			"assigned_at":       now,
			"assigned_by":       actor.Email,
		})
	if err != nil {
		return nil, fmt.Errorf("failed to assign pair: %w", err)
	}
	if !moved {
		logger.Warn("Pair assignment rejected", map[string]interface{}{
			"pair_id": pairID,
			"status":  prev.Status,
		})
		return nil, ErrPairNotAssignable
	}

	pair, err := s.GetPair(pairID)
	if err != nil {
		return nil, err
	}
	s.appendActivityWithIP(pairID, "assigned", actor.Email, prev, pair, "", ip)
	return pair, nil
}

// ReassignPair points an already-deployed pair at a different business. Any
// non-deleted state qualifies; the status is untouched.
func (s *TagPairService) ReassignPair(pairID string, businessID uint, actor Actor, ip string) (*model.TagPair, error) {
	prev, err := s.GetPair(pairID)
	if err != nil {
		return nil, err
	}

	business, err := s.businessRepo.GetByID(businessID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrBusinessNotFound
		}
		return nil, fmt.Errorf("failed to get business: %w", err)
	}

	now := time.Now()
	moved, err := s.pairRepo.UpdateStatusIf(pairID,
		[]model.TagPairStatus{
			model.TagPairStatusUnassigned, model.TagPairStatusAssigned,
			model.TagPairStatusActive, model.TagPairStatusInactive,
		},
		map[string]interface{}{
			"business_id":       business.ID,
			"business_name":     business.Name,
			"business_location": business.Address,
			"assigned_at":       now,
			"assigned_by":       actor.Email,
		})
	if err != nil {
		return nil, fmt.Errorf("failed to reassign pair: %w", err)
	}
	if !moved {
		return nil, ErrPairConflict
	}

	pair, err := s.GetPair(pairID)
	if err != nil {
		return nil, err
	}
	s.appendActivityWithIP(pairID, "reassigned", actor.Email, prev, pair, "", ip)
	return pair, nil
}

// ActivatePair turns a deployed pair live. An already-active pair is an error.
func (s *TagPairService) ActivatePair(pairID string, actor Actor, ip string) (*model.TagPair, error) {
	prev, err := s.GetPair(pairID)
	if err != nil {
		return nil, err
	}
	if prev.Status == model.TagPairStatusActive {
		return nil, ErrPairAlreadyActive
	}

	now := time.Now()
	moved, err := s.pairRepo.UpdateStatusIf(pairID,
		[]model.TagPairStatus{model.TagPairStatusAssigned, model.TagPairStatusInactive},
		map[string]interface{}{
			"status":       model.TagPairStatusActive,
			"activated_at": now,
		})
	if err != nil {
		return nil, fmt.Errorf("failed to activate pair: %w", err)
	}
	if !moved {
		return nil, ErrPairNotAssignable
	}

	pair, err := s.GetPair(pairID)
	if err != nil {
		return nil, err
	}
	s.appendActivityWithIP(pairID, "activated", actor.Email, prev, pair, "", ip)
	return pair, nil
}

// DeactivatePair pauses a live pair. An already-inactive pair is an error.
func (s *TagPairService) DeactivatePair(pairID string, actor Actor, ip string) (*model.TagPair, error) {
	prev, err := s.GetPair(pairID)
	if err != nil {
		return nil, err
	}
	if prev.Status == model.TagPairStatusInactive {
		return nil, ErrPairNotActive
	}

	now := time.Now()
	moved, err := s.pairRepo.UpdateStatusIf(pairID,
		[]model.TagPairStatus{model.TagPairStatusActive, model.TagPairStatusAssigned},
		map[string]interface{}{
			"status":         model.TagPairStatusInactive,
			"deactivated_at": now,
		})
	if err != nil {
		return nil, fmt.Errorf("failed to deactivate pair: %w", err)
	}
	if !moved {
		return nil, ErrPairConflict
	}

	pair, err := s.GetPair(pairID)
	if err != nil {
		return nil, err
	}
	s.appendActivityWithIP(pairID, "deactivated", actor.Email, prev, pair, "", ip)
	return pair, nil
}

// DeletePair soft-deletes a pair. Terminal: a deleted pair never comes back,
// and the activity entry carries the full prior document for audit.
func (s *TagPairService) DeletePair(pairID string, actor Actor, ip string) error {
	prev, err := s.GetPair(pairID)
	if err != nil {
		return err
	}

	moved, err := s.pairRepo.UpdateStatusIf(pairID,
		[]model.TagPairStatus{
			model.TagPairStatusUnassigned, model.TagPairStatusAssigned,
			model.TagPairStatusActive, model.TagPairStatusInactive,
		},
		map[string]interface{}{
			"status": model.TagPairStatusDeleted,
		})
	if err != nil {
		return fmt.Errorf("failed to delete pair: %w", err)
	}
	if !moved {
		return ErrPairConflict
	}

	s.appendActivityWithIP(pairID, "deleted", actor.Email, prev, nil, "", ip)

	logger.Info("Tag pair deleted", map[string]interface{}{
		"pair_id": pairID,
		"admin":   actor.Email,
	})
	return nil
}

// UpdatePairNotes edits the free-form notes on a pair
func (s *TagPairService) UpdatePairNotes(pairID, notes string, actor Actor, ip string) (*model.TagPair, error) {
	prev, err := s.GetPair(pairID)
	if err != nil {
		return nil, err
	}

	prev.Notes = &notes
	if err := s.pairRepo.Update(prev); err != nil {
		return nil, fmt.Errorf("failed to update pair: %w", err)
	}

	s.appendActivityWithIP(pairID, "updated", actor.Email, nil, prev, notes, ip)
	return prev, nil
}

// ListPairs returns non-deleted pairs matching the filters
func (s *TagPairService) ListPairs(status string, businessID *uint, search string, offset, limit int) ([]model.TagPair, int64, error) {
	return s.pairRepo.List(status, businessID, search, offset, limit)
}

// PairStats returns pair counts per status
func (s *TagPairService) PairStats() (map[string]int64, error) {
	return s.pairRepo.CountByStatus()
}

// GetActivityLog returns a pair's activity trail
func (s *TagPairService) GetActivityLog(pairID string, limit int) ([]model.TagPairActivity, error) {
	if _, err := s.pairRepo.GetByPairID(pairID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrPairNotFound
		}
		return nil, err
	}
	return s.pairRepo.GetActivities(pairID, limit)
}

func (s *TagPairService) appendActivity(pairID, action, performedBy string, prev, next *model.TagPair, notes string) {
	s.appendActivityWithIP(pairID, action, performedBy, prev, next, notes, "")
}

// appendActivityWithIP records a transition. Best-effort: a logging failure
// never unwinds the committed state change.
func (s *TagPairService) appendActivityWithIP(pairID, action, performedBy string, prev, next *model.TagPair, notes, ip string) {
	activity := &model.TagPairActivity{
		PairID:      pairID,
		Action:      action,
		PerformedBy: performedBy,
		Notes:       notes,
		IPAddress:   ip,
	}
	if prev != nil {
		if raw, err := json.Marshal(prev); err == nil {
			activity.PreviousState = string(raw)
		}
	}
	if next != nil {
		if raw, err := json.Marshal(next); err == nil {
			activity.NewState = string(raw)
		}
	}
	if err := s.pairRepo.AppendActivity(activity); err != nil {
		logger.Error("Failed to append pair activity", err, map[string]interface{}{
			"pair_id": pairID,
			"action":  action,
		})
	}
}
