package repository

import (
	"github.com/tapreview/tapreview-backend/internal/app/model"

	"gorm.io/gorm"
)

type TagPairRepository struct {
	db *gorm.DB
}

func NewTagPairRepository(db *gorm.DB) *TagPairRepository {
	return &TagPairRepository{db: db}
}

// Create inserts a new pair
func (r *TagPairRepository) Create(pair *model.TagPair) error {
	return r.db.Create(pair).Error
}

// BulkCreate inserts a batch of pairs in one statement
func (r *TagPairRepository) BulkCreate(pairs []model.TagPair) error {
	if len(pairs) == 0 {
		return nil
	}
	return r.db.CreateInBatches(pairs, 200).Error
}

// GetByPairID fetches a pair by its pair id, deleted or not
func (r *TagPairRepository) GetByPairID(pairID string) (*model.TagPair, error) {
	var pair model.TagPair
	if err := r.db.Where("pair_id = ?", pairID).First(&pair).Error; err != nil {
		return nil, err
	}
	return &pair, nil
}

// ComponentInUse reports whether a QR or NFC id is already part of a
// non-deleted pair.
func (r *TagPairRepository) ComponentInUse(qrID, nfcID string) (bool, error) {
	var count int64
	err := r.db.Model(&model.TagPair{}).
		Where("(qr_id = ? OR nfc_id = ?) AND status <> ?", qrID, nfcID, model.TagPairStatusDeleted).
		Count(&count).Error
	if err != nil {
		return false, err
	}
	return count > 0, nil
}

// List returns non-deleted pairs filtered by status and business, newest first
func (r *TagPairRepository) List(status string, businessID *uint, search string, offset, limit int) ([]model.TagPair, int64, error) {
	var pairs []model.TagPair
	var total int64

	query := r.db.Model(&model.TagPair{}).Where("status <> ?", model.TagPairStatusDeleted)
	if status != "" {
		query = query.Where("status = ?", status)
	}
	if businessID != nil {
		query = query.Where("business_id = ?", *businessID)
	}
	if search != "" {
		like := "%" + search + "%"
		query = query.Where("pair_id LIKE ? OR qr_id LIKE ? OR nfc_id LIKE ? OR business_name LIKE ?",
			like, like, like, like)
	}

	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	err := query.Order("created_at DESC").
		Offset(offset).
		Limit(limit).
		Find(&pairs).Error
	if err != nil {
		return nil, 0, err
	}

	return pairs, total, nil
}

// UpdateStatusIf applies updates to a pair only while its status is still one
// of fromStatuses, returning whether a row matched.
func (r *TagPairRepository) UpdateStatusIf(pairID string, fromStatuses []model.TagPairStatus, updates map[string]interface{}) (bool, error) {
	result := r.db.Model(&model.TagPair{}).
		Where("pair_id = ? AND status IN ?", pairID, fromStatuses).
		Updates(updates)
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected > 0, nil
}

// Update saves the whole pair record
func (r *TagPairRepository) Update(pair *model.TagPair) error {
	return r.db.Save(pair).Error
}

// AppendActivity inserts an activity log entry
func (r *TagPairRepository) AppendActivity(activity *model.TagPairActivity) error {
	return r.db.Create(activity).Error
}

// GetActivities returns a pair's activity log, newest first
func (r *TagPairRepository) GetActivities(pairID string, limit int) ([]model.TagPairActivity, error) {
	var activities []model.TagPairActivity
	query := r.db.Where("pair_id = ?", pairID).Order("created_at DESC")
	if limit > 0 {
		query = query.Limit(limit)
	}
	if err := query.Find(&activities).Error; err != nil {
		return nil, err
	}
	return activities, nil
}

// CountByStatus returns the number of non-deleted pairs per status
func (r *TagPairRepository) CountByStatus() (map[string]int64, error) {
	type row struct {
		Status string
		Count  int64
	}
	var rows []row
	err := r.db.Model(&model.TagPair{}).
		Where("status <> ?", model.TagPairStatusDeleted).
		Select("status, COUNT(*) AS count").
		Group("status").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}

	counts := make(map[string]int64, len(rows))
	for _, row := range rows {
		counts[row.Status] = row.Count
	}
	return counts, nil
}

// ListByBusinessID returns a business's non-deleted pairs
func (r *TagPairRepository) ListByBusinessID(businessID uint) ([]model.TagPair, error) {
	var pairs []model.TagPair
	err := r.db.Where("business_id = ? AND status <> ?", businessID, model.TagPairStatusDeleted).
		Order("created_at DESC").
		Find(&pairs).Error
	if err != nil {
		return nil, err
	}
	return pairs, nil
}
