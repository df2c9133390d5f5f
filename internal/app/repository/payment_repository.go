package repository

import (
	"github.com/tapreview/tapreview-backend/internal/app/model"

	"gorm.io/gorm"
)

type PaymentRepository struct {
	db *gorm.DB
}

func NewPaymentRepository(db *gorm.DB) *PaymentRepository {
	return &PaymentRepository{db: db}
}

// Create inserts a new payment
func (r *PaymentRepository) Create(payment *model.Payment) error {
	return r.db.Create(payment).Error
}

// GetByID fetches a payment by id
func (r *PaymentRepository) GetByID(id uint) (*model.Payment, error) {
	var payment model.Payment
	if err := r.db.First(&payment, id).Error; err != nil {
		return nil, err
	}
	return &payment, nil
}

// GetByProviderOrderID fetches the payment created for a gateway order
func (r *PaymentRepository) GetByProviderOrderID(orderID string) (*model.Payment, error) {
	var payment model.Payment
	err := r.db.Where("provider_order_id = ?", orderID).First(&payment).Error
	if err != nil {
		return nil, err
	}
	return &payment, nil
}

// Update saves the whole payment record
func (r *PaymentRepository) Update(payment *model.Payment) error {
	return r.db.Save(payment).Error
}

// ListByBusinessID returns a business's payments, newest first
func (r *PaymentRepository) ListByBusinessID(businessID uint, offset, limit int) ([]model.Payment, int64, error) {
	var payments []model.Payment
	var total int64

	query := r.db.Model(&model.Payment{}).Where("business_id = ?", businessID)
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	err := query.Order("created_at DESC").
		Offset(offset).
		Limit(limit).
		Find(&payments).Error
	if err != nil {
		return nil, 0, err
	}

	return payments, total, nil
}
