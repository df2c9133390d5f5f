package repository

import (
	"github.com/tapreview/tapreview-backend/internal/app/model"

	"gorm.io/gorm"
)

type CouponRepository struct {
	db *gorm.DB
}

func NewCouponRepository(db *gorm.DB) *CouponRepository {
	return &CouponRepository{db: db}
}

// Create inserts a new coupon
func (r *CouponRepository) Create(coupon *model.Coupon) error {
	return r.db.Create(coupon).Error
}

// GetByCode fetches a coupon by its code
func (r *CouponRepository) GetByCode(code string) (*model.Coupon, error) {
	var coupon model.Coupon
	if err := r.db.Where("code = ?", code).First(&coupon).Error; err != nil {
		return nil, err
	}
	return &coupon, nil
}

// List returns all coupons, newest first
func (r *CouponRepository) List() ([]model.Coupon, error) {
	var coupons []model.Coupon
	if err := r.db.Order("created_at DESC").Find(&coupons).Error; err != nil {
		return nil, err
	}
	return coupons, nil
}

// Update saves the whole coupon record
func (r *CouponRepository) Update(coupon *model.Coupon) error {
	return r.db.Save(coupon).Error
}

// ConsumeUse bumps used_count by one, but only while the limit still has
// room. The guard lives in the WHERE clause so two concurrent redemptions of
// the last slot cannot both succeed; the loser sees consumed=false.
func (r *CouponRepository) ConsumeUse(couponID uint) (bool, error) {
	return r.ConsumeUseTx(r.db, couponID)
}

// ConsumeUseTx is ConsumeUse running on a caller-owned transaction, so a
// rolled-back checkout releases the slot with it.
func (r *CouponRepository) ConsumeUseTx(tx *gorm.DB, couponID uint) (bool, error) {
	result := tx.Model(&model.Coupon{}).
		Where("id = ? AND (usage_limit = 0 OR used_count < usage_limit)", couponID).
		Update("used_count", gorm.Expr("used_count + 1"))
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected > 0, nil
}

// CreateUsage records one redemption
func (r *CouponRepository) CreateUsage(usage *model.CouponUsage) error {
	return r.db.Create(usage).Error
}

// ListUsages returns redemptions of a coupon, newest first
func (r *CouponRepository) ListUsages(couponID uint) ([]model.CouponUsage, error) {
	var usages []model.CouponUsage
	err := r.db.Where("coupon_id = ?", couponID).
		Order("created_at DESC").
		Find(&usages).Error
	if err != nil {
		return nil, err
	}
	return usages, nil
}
