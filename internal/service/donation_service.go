package service

import (
	"errors"
	"fmt"
	"html"
	"math"
	"strings"
	"time"

	"tipjar/internal/models"
	"tipjar/internal/repository"
	"tipjar/pkg/yoomoney"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

const (
	commissionRate = 0.03
	minAmount      = 1
	maxAmount      = 100000
	maxMessageLen  = 500

	// AnonymousSender is used when the gateway reports no payer title.
	AnonymousSender = "Anonymous"
)

// DonationService manages the payment lifecycle from creation to confirmation.
type DonationService struct {
	payments *repository.PaymentRepository
	log      *logrus.Logger
}

func NewDonationService(payments *repository.PaymentRepository, log *logrus.Logger) *DonationService {
	return &DonationService{payments: payments, log: log}
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}

func newOrderID() string {
	return fmt.Sprintf("don-%d-%s", time.Now().UnixMilli(), uuid.NewString()[:8])
}

// Create validates the request, derives commission and total, and persists a
// pending record under a fresh order id.
func (s *DonationService) Create(amount float64, message string) (*models.Payment, error) {
	if amount < minAmount || amount > maxAmount {
		return nil, &ValidationError{Field: "amount", Reason: fmt.Sprintf("must be between %d and %d", minAmount, maxAmount)}
	}
	message = strings.TrimSpace(message)
	if len(message) > maxMessageLen {
		return nil, &ValidationError{Field: "message", Reason: fmt.Sprintf("must be at most %d characters", maxMessageLen)}
	}

	commission := round2(amount * commissionRate)
	p := &models.Payment{
		OrderID:     newOrderID(),
		Amount:      amount,
		Commission:  commission,
		TotalAmount: round2(amount + commission),
		Message:     html.EscapeString(message),
		Status:      models.PaymentStatusPending,
	}
	if err := s.payments.Create(p); err != nil {
		return nil, err
	}
	s.log.WithFields(logrus.Fields{
		"order_id": p.OrderID,
		"amount":   p.Amount,
		"total":    p.TotalAmount,
	}).Info("payment created")
	return p, nil
}

func (s *DonationService) List() ([]models.Payment, error) {
	return s.payments.ListAll()
}

func (s *DonationService) ListPending() ([]models.Payment, error) {
	return s.payments.ListPending()
}

func (s *DonationService) Get(orderID string) (*models.Payment, error) {
	p, err := s.payments.GetByOrderID(orderID)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	return p, err
}

func (s *DonationService) Delete(orderID string) error {
	rows, err := s.payments.Delete(orderID)
	if err != nil {
		return err
	}
	if rows == 0 {
		return ErrNotFound
	}
	s.log.WithField("order_id", orderID).Info("payment deleted")
	return nil
}

func (s *DonationService) Clear() (int64, error) {
	count, err := s.payments.DeleteAll()
	if err != nil {
		return 0, err
	}
	s.log.WithField("cleared", count).Info("payments cleared")
	return count, nil
}

func (s *DonationService) Stats() (*repository.PaymentStats, error) {
	return s.payments.Stats()
}

func (s *DonationService) TopDonors() ([]repository.TopDonor, error) {
	return s.payments.TopDonors()
}

// Confirm applies a matched gateway operation to the record. Idempotent: the
// update only lands while the record is still pending.
func (s *DonationService) Confirm(orderID string, op *yoomoney.Operation) error {
	sender := op.Title
	if sender == "" {
		sender = AnonymousSender
	}
	rows, err := s.payments.MarkSuccess(orderID, op.Datetime, op.Amount, sender)
	if err != nil {
		return err
	}
	if rows > 0 {
		s.log.WithFields(logrus.Fields{
			"order_id": orderID,
			"amount":   op.Amount,
			"sender":   sender,
		}).Info("payment confirmed")
	}
	return nil
}

// Expire marks a pending record failed under the staleness policy.
func (s *DonationService) Expire(orderID string) error {
	rows, err := s.payments.MarkFailed(orderID)
	if err != nil {
		return err
	}
	if rows > 0 {
		s.log.WithField("order_id", orderID).Warn("payment expired")
	}
	return nil
}
