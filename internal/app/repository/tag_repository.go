package repository

import (
	"github.com/tapreview/tapreview-backend/internal/app/model"

	"gorm.io/gorm"
)

type TagRepository struct {
	db *gorm.DB
}

func NewTagRepository(db *gorm.DB) *TagRepository {
	return &TagRepository{db: db}
}

// Create inserts a new tag
func (r *TagRepository) Create(tag *model.Tag) error {
	return r.db.Create(tag).Error
}

// BulkCreate inserts a batch of tags in one statement
func (r *TagRepository) BulkCreate(tags []model.Tag) error {
	if len(tags) == 0 {
		return nil
	}
	return r.db.CreateInBatches(tags, 200).Error
}

// GetByTagID fetches a tag by its printed id
func (r *TagRepository) GetByTagID(tagID string) (*model.Tag, error) {
	var tag model.Tag
	if err := r.db.Where("tag_id = ?", tagID).First(&tag).Error; err != nil {
		return nil, err
	}
	return &tag, nil
}

// List returns tags filtered by status, type and business, newest first
func (r *TagRepository) List(status, tagType string, businessID *uint, offset, limit int) ([]model.Tag, int64, error) {
	var tags []model.Tag
	var total int64

	query := r.db.Model(&model.Tag{})
	if status != "" {
		query = query.Where("status = ?", status)
	}
	if tagType != "" {
		query = query.Where("tag_type = ?", tagType)
	}
	if businessID != nil {
		query = query.Where("business_id = ?", *businessID)
	}

	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	err := query.Order("created_at DESC").
		Offset(offset).
		Limit(limit).
		Find(&tags).Error
	if err != nil {
		return nil, 0, err
	}

	return tags, total, nil
}

// ListAll returns every tag matching the filters without pagination, for
// inventory export.
func (r *TagRepository) ListAll(status, tagType string) ([]model.Tag, error) {
	var tags []model.Tag
	query := r.db.Model(&model.Tag{})
	if status != "" {
		query = query.Where("status = ?", status)
	}
	if tagType != "" {
		query = query.Where("tag_type = ?", tagType)
	}
	if err := query.Order("created_at ASC").Find(&tags).Error; err != nil {
		return nil, err
	}
	return tags, nil
}

// UpdateStatusIf applies updates to a tag only while its status is still one
// of fromStatuses. The single conditional UPDATE is what makes concurrent
// transitions safe: the loser of a race matches zero rows.
func (r *TagRepository) UpdateStatusIf(tagID string, fromStatuses []model.TagStatus, updates map[string]interface{}) (bool, error) {
	result := r.db.Model(&model.Tag{}).
		Where("tag_id = ? AND status IN ?", tagID, fromStatuses).
		Updates(updates)
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected > 0, nil
}

// UpdateUnconditional applies updates regardless of current status, for the
// reset operation.
func (r *TagRepository) UpdateUnconditional(tagID string, updates map[string]interface{}) (bool, error) {
	result := r.db.Model(&model.Tag{}).
		Where("tag_id = ?", tagID).
		Updates(updates)
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected > 0, nil
}

// AppendHistory inserts a history entry
func (r *TagRepository) AppendHistory(entry *model.TagHistory) error {
	return r.db.Create(entry).Error
}

// GetHistory returns a tag's event log in insertion order
func (r *TagRepository) GetHistory(tagID string) ([]model.TagHistory, error) {
	var entries []model.TagHistory
	err := r.db.Where("tag_id = ?", tagID).
		Order("id ASC").
		Find(&entries).Error
	if err != nil {
		return nil, err
	}
	return entries, nil
}

// CountByStatus returns the number of tags per status
func (r *TagRepository) CountByStatus() (map[string]int64, error) {
	type row struct {
		Status string
		Count  int64
	}
	var rows []row
	err := r.db.Model(&model.Tag{}).
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

// ListPending returns all tags awaiting activation
func (r *TagRepository) ListPending() ([]model.Tag, error) {
	var tags []model.Tag
	err := r.db.Where("status = ?", model.TagStatusPending).Find(&tags).Error
	if err != nil {
		return nil, err
	}
	return tags, nil
}
