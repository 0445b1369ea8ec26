package repository

import (
	"time"

	"tipjar/internal/models"

	"gorm.io/gorm"
)

type PaymentRepository struct {
	db *gorm.DB
}

func NewPaymentRepository(db *gorm.DB) *PaymentRepository {
	return &PaymentRepository{db: db}
}

func (r *PaymentRepository) Create(p *models.Payment) error {
	return r.db.Create(p).Error
}

func (r *PaymentRepository) GetByOrderID(orderID string) (*models.Payment, error) {
	var p models.Payment
	err := r.db.Where("order_id = ?", orderID).First(&p).Error
	if err != nil {
		return nil, err
	}
	return &p, nil
}

func (r *PaymentRepository) ListAll() ([]models.Payment, error) {
	var list []models.Payment
	err := r.db.Order("created_at DESC").Find(&list).Error
	return list, err
}

func (r *PaymentRepository) ListPending() ([]models.Payment, error) {
	var list []models.Payment
	err := r.db.Where("status = ?", models.PaymentStatusPending).Find(&list).Error
	return list, err
}

// MarkSuccess flips a pending record to success with the gateway-reported
// fields. The status guard keeps the transition one-way: a record that already
// left pending is never touched, and an unknown order id affects zero rows.
func (r *PaymentRepository) MarkSuccess(orderID string, paidAt time.Time, actualAmount float64, sender string) (int64, error) {
	res := r.db.Model(&models.Payment{}).
		Where("order_id = ? AND status = ?", orderID, models.PaymentStatusPending).
		Updates(map[string]interface{}{
			"status":        models.PaymentStatusSuccess,
			"paid_at":       paidAt,
			"actual_amount": actualAmount,
			"sender":        sender,
		})
	return res.RowsAffected, res.Error
}

// MarkFailed expires a pending record. Same guard as MarkSuccess.
func (r *PaymentRepository) MarkFailed(orderID string) (int64, error) {
	res := r.db.Model(&models.Payment{}).
		Where("order_id = ? AND status = ?", orderID, models.PaymentStatusPending).
		Update("status", models.PaymentStatusFailed)
	return res.RowsAffected, res.Error
}

func (r *PaymentRepository) Delete(orderID string) (int64, error) {
	res := r.db.Where("order_id = ?", orderID).Delete(&models.Payment{})
	return res.RowsAffected, res.Error
}

func (r *PaymentRepository) DeleteAll() (int64, error) {
	res := r.db.Where("1 = 1").Delete(&models.Payment{})
	return res.RowsAffected, res.Error
}

// PaymentStats is the aggregate for the admin page, computed in one query.
type PaymentStats struct {
	Total       int64   `json:"total"`
	Success     int64   `json:"success"`
	Pending     int64   `json:"pending"`
	TotalAmount float64 `json:"totalAmount"`
}

func (r *PaymentRepository) Stats() (*PaymentStats, error) {
	var s PaymentStats
	err := r.db.Model(&models.Payment{}).
		Select(
			"COUNT(*) AS total, "+
				"COALESCE(SUM(CASE WHEN status = ? THEN 1 ELSE 0 END), 0) AS success, "+
				"COALESCE(SUM(CASE WHEN status = ? THEN 1 ELSE 0 END), 0) AS pending, "+
				"COALESCE(SUM(CASE WHEN status = ? THEN amount ELSE 0 END), 0) AS total_amount",
			models.PaymentStatusSuccess, models.PaymentStatusPending, models.PaymentStatusSuccess,
		).
		Scan(&s).Error
	if err != nil {
		return nil, err
	}
	return &s, nil
}

// TopDonor is one row of the sender ranking over successful payments.
type TopDonor struct {
	Sender string  `json:"sender"`
	Count  int64   `json:"count"`
	Total  float64 `json:"total"`
}

func (r *PaymentRepository) TopDonors() ([]TopDonor, error) {
	var list []TopDonor
	err := r.db.Model(&models.Payment{}).
		Select("sender, COUNT(*) AS count, COALESCE(SUM(amount), 0) AS total").
		Where("status = ?", models.PaymentStatusSuccess).
		Group("sender").
		Order("total DESC").
		Scan(&list).Error
	return list, err
}
