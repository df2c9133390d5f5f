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
	"github.com/xuri/excelize/v2"
	"gorm.io/gorm"
)

var (
	ErrTagNotFound    = errors.New("tag not found")
	ErrTagNotInactive = errors.New("tag is not assignable in its current state")
	ErrTagNotPending  = errors.New("tag is not pending activation")
	ErrTagNotAssigned = errors.New("tag is not assigned to a business")
	ErrTagConflict    = errors.New("tag state changed concurrently")
	ErrTagIDExists    = errors.New("tag id is already taken")
	ErrInvalidTagType = errors.New("invalid tag type")
)

// Actor identifies the admin performing an inventory operation, for the
// history trail.
type Actor struct {
	AdminID uint
	Email   string
}

type TagService struct {
	tagRepo      *repository.TagRepository
	businessRepo *repository.BusinessRepository
}

func NewTagService(tagRepo *repository.TagRepository, businessRepo *repository.BusinessRepository) *TagService {
	return &TagService{
		tagRepo:      tagRepo,
		businessRepo: businessRepo,
	}
}

// CreateTag mints a single tag in the inactive state. The printed id is
// generated when not supplied; a supplied id must not collide with an
// existing tag.
func (s *TagService) CreateTag(tagType model.TagType, tagID string, actor Actor) (*model.Tag, error) {
	if !tagType.Valid() {
		return nil, ErrInvalidTagType
	}

	if tagID == "" {
		tagID = util.GenerateTagID(string(tagType))
	} else if _, err := s.tagRepo.GetByTagID(tagID); err == nil {
		return nil, ErrTagIDExists
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("failed to check tag id: %w", err)
	}

	tag := &model.Tag{
		TagID:   tagID,
		TagType: tagType,
		Status:  model.TagStatusInactive,
	}
	if err := s.tagRepo.Create(tag); err != nil {
		return nil, fmt.Errorf("failed to create tag: %w", err)
	}

	s.appendHistory(tag.TagID, "created", nil, actor, map[string]interface{}{
		"tag_type": tagType,
	})

	logger.Info("Tag created", map[string]interface{}{
		"tag_id":   tag.TagID,
		"tag_type": tagType,
		"admin":    actor.Email,
	})
	return tag, nil
}

// BulkCreateTags mints a batch of tags of one type
func (s *TagService) BulkCreateTags(tagType model.TagType, count int, actor Actor) ([]model.Tag, error) {
	if !tagType.Valid() {
		return nil, ErrInvalidTagType
	}
	if count <= 0 || count > 1000 {
		return nil, fmt.Errorf("count must be between 1 and 1000")
	}

	tags := make([]model.Tag, count)
	for i := range tags {
		tags[i] = model.Tag{
			TagID:   util.GenerateTagID(string(tagType)),
			TagType: tagType,
			Status:  model.TagStatusInactive,
		}
	}
	if err := s.tagRepo.BulkCreate(tags); err != nil {
		return nil, fmt.Errorf("failed to bulk create tags: %w", err)
	}

	for i := range tags {
		s.appendHistory(tags[i].TagID, "created", nil, actor, map[string]interface{}{
			"tag_type": tagType,
			"batch":    true,
		})
	}

	logger.Info("Tags bulk created", map[string]interface{}{
		"count":    count,
		"tag_type": tagType,
		"admin":    actor.Email,
	})
	return tags, nil
}

// GetTag fetches a tag by its printed id
func (s *TagService) GetTag(tagID string) (*model.Tag, error) {
	tag, err := s.tagRepo.GetByTagID(tagID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrTagNotFound
		}
		return nil, err
	}
	return tag, nil
}

// AssignTag moves an inactive tag to pending against a business. The
// transition is one conditional update, so two admins assigning the same tag
// cannot both win.
func (s *TagService) AssignTag(tagID string, businessID uint, location string, expiresInDays int, actor Actor) (*model.Tag, error) {
	if _, err := s.businessRepo.GetByID(businessID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrBusinessNotFound
		}
		return nil, fmt.Errorf("failed to get business: %w", err)
	}

	now := time.Now()
	updates := map[string]interface{}{
		"status":      model.TagStatusPending,
		"business_id": businessID,
		"location":    location,
		"assigned_at": now,
	}
	if expiresInDays > 0 {
		updates["expires_at"] = now.AddDate(0, 0, expiresInDays)
	}

	moved, err := s.tagRepo.UpdateStatusIf(tagID, []model.TagStatus{model.TagStatusInactive}, updates)
	if err != nil {
		return nil, fmt.Errorf("failed to assign tag: %w", err)
	}
	if !moved {
		tag, err := s.tagRepo.GetByTagID(tagID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return nil, ErrTagNotFound
			}
			return nil, err
		}
		logger.Warn("Tag assignment rejected", map[string]interface{}{
			"tag_id": tagID,
			"status": tag.Status,
		})
		return nil, ErrTagNotInactive
	}

	s.appendHistory(tagID, "assigned", &businessID, actor, map[string]interface{}{
		"location": location,
	})

	return s.GetTag(tagID)
}

// UnassignTag takes an assigned tag back into stock. The guard is on the
// business link, not the status, so it works for both pending and active tags.
func (s *TagService) UnassignTag(tagID string, actor Actor) (*model.Tag, error) {
	tag, err := s.GetTag(tagID)
	if err != nil {
		return nil, err
	}
	if tag.BusinessID == nil {
		return nil, ErrTagNotAssigned
	}
	prevBusinessID := *tag.BusinessID

	moved, err := s.tagRepo.UpdateStatusIf(tagID,
		[]model.TagStatus{model.TagStatusPending, model.TagStatusActive},
		map[string]interface{}{
			"status":       model.TagStatusInactive,
			"business_id":  nil,
			"location":     nil,
			"assigned_at":  nil,
			"activated_at": nil,
			"expires_at":   nil,
		})
	if err != nil {
		return nil, fmt.Errorf("failed to unassign tag: %w", err)
	}
	if !moved {
		return nil, ErrTagNotAssigned
	}

	s.appendHistory(tagID, "unassigned", &prevBusinessID, actor, map[string]interface{}{
		"previous_business_id": prevBusinessID,
	})
	return s.GetTag(tagID)
}

// ActivateTag moves a pending tag to active
func (s *TagService) ActivateTag(tagID string, actor Actor) (*model.Tag, error) {
	now := time.Now()
	moved, err := s.tagRepo.UpdateStatusIf(tagID, []model.TagStatus{model.TagStatusPending}, map[string]interface{}{
		"status":       model.TagStatusActive,
		"activated_at": now,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to activate tag: %w", err)
	}
	if !moved {
		tag, err := s.tagRepo.GetByTagID(tagID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return nil, ErrTagNotFound
			}
			return nil, err
		}
		logger.Warn("Tag activation rejected", map[string]interface{}{
			"tag_id": tagID,
			"status": tag.Status,
		})
		return nil, ErrTagNotPending
	}

	tag, err := s.GetTag(tagID)
	if err != nil {
		return nil, err
	}
	s.appendHistory(tagID, "activated", tag.BusinessID, actor, nil)
	return tag, nil
}

// ScrapTag takes a tag out of circulation from any non-scrapped state
func (s *TagService) ScrapTag(tagID string, reason string, actor Actor) (*model.Tag, error) {
	now := time.Now()
	moved, err := s.tagRepo.UpdateStatusIf(tagID,
		[]model.TagStatus{model.TagStatusInactive, model.TagStatusPending, model.TagStatusActive},
		map[string]interface{}{
			"status":       model.TagStatusScrapped,
			"scrap_reason": reason,
			"scrapped_at":  now,
			"business_id":  nil,
			"location":     nil,
			"assigned_at":  nil,
			"activated_at": nil,
			"expires_at":   nil,
		})
	if err != nil {
		return nil, fmt.Errorf("failed to scrap tag: %w", err)
	}
	if !moved {
		if _, err := s.GetTag(tagID); err != nil {
			return nil, err
		}
		return nil, ErrTagConflict
	}

	s.appendHistory(tagID, "scrapped", nil, actor, map[string]interface{}{
		"reason": reason,
	})
	return s.GetTag(tagID)
}

// ResetTag returns a tag to factory state: inactive, no business, no
// timestamps. Reset is deliberately unconditional; it works from any state,
// including scrapped.
func (s *TagService) ResetTag(tagID string, actor Actor) (*model.Tag, error) {
	prev, err := s.GetTag(tagID)
	if err != nil {
		return nil, err
	}

	reset, err := s.tagRepo.UpdateUnconditional(tagID, map[string]interface{}{
		"status":       model.TagStatusInactive,
		"business_id":  nil,
		"location":     nil,
		"assigned_at":  nil,
		"activated_at": nil,
		"expires_at":   nil,
		"scrap_reason": nil,
		"scrapped_at":  nil,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to reset tag: %w", err)
	}
	if !reset {
		return nil, ErrTagNotFound
	}

	s.appendHistory(tagID, "reset", nil, actor, map[string]interface{}{
		"previous_status": prev.Status,
	})
	return s.GetTag(tagID)
}

// ListTags returns tags matching the filters with pagination
func (s *TagService) ListTags(status, tagType string, businessID *uint, offset, limit int) ([]model.Tag, int64, error) {
	return s.tagRepo.List(status, tagType, businessID, offset, limit)
}

// GetHistory returns a tag's event log
func (s *TagService) GetHistory(tagID string) ([]model.TagHistory, error) {
	if _, err := s.GetTag(tagID); err != nil {
		return nil, err
	}
	return s.tagRepo.GetHistory(tagID)
}

// InventoryStats returns tag counts per status
func (s *TagService) InventoryStats() (map[string]int64, error) {
	return s.tagRepo.CountByStatus()
}

// ExportInventory builds an xlsx workbook of the tag inventory
func (s *TagService) ExportInventory(status, tagType string) (*excelize.File, error) {
	tags, err := s.tagRepo.ListAll(status, tagType)
	if err != nil {
		return nil, fmt.Errorf("failed to list tags for export: %w", err)
	}

	f := excelize.NewFile()
	sheet := "Inventory"
	f.SetSheetName("Sheet1", sheet)

	headers := []string{"Tag ID", "Type", "Status", "Business ID", "Location", "Assigned At", "Activated At", "Scrap Reason", "Created At"}
	for i, h := range headers {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		f.SetCellValue(sheet, cell, h)
	}

	for row, tag := range tags {
		values := []interface{}{
			tag.TagID,
			string(tag.TagType),
			string(tag.Status),
			derefUint(tag.BusinessID),
			derefString(tag.Location),
			formatTime(tag.AssignedAt),
			formatTime(tag.ActivatedAt),
			derefString(tag.ScrapReason),
			tag.CreatedAt.Format(time.RFC3339),
		}
		for col, v := range values {
			cell, _ := excelize.CoordinatesToCellName(col+1, row+2)
			f.SetCellValue(sheet, cell, v)
		}
	}

	return f, nil
}

// appendHistory records a transition. History failures are logged, never
// propagated: the committed state change stands.
func (s *TagService) appendHistory(tagID, action string, businessID *uint, actor Actor, details map[string]interface{}) {
	entry := &model.TagHistory{
		TagID:      tagID,
		Action:     action,
		BusinessID: businessID,
		AdminID:    actor.AdminID,
		AdminEmail: actor.Email,
	}
	if details != nil {
		raw, err := json.Marshal(details)
		if err == nil {
			entry.Details = string(raw)
		}
	}
	if err := s.tagRepo.AppendHistory(entry); err != nil {
		logger.Error("Failed to append tag history", err, map[string]interface{}{
			"tag_id": tagID,
			"action": action,
		})
	}
}

func derefUint(v *uint) interface{} {
	if v == nil {
		return ""
	}
	return *v
}

func derefString(v *string) string {
	if v == nil {
		return ""
	}
	return *v
}

func formatTime(t *time.Time) string {
	if t == nil {
		return ""
	}
	return t.Format(time.RFC3339)
}
