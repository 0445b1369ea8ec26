package service

import (
	"context"
	"errors"
	"time"

	"tipjar/internal/models"
	"tipjar/pkg/yoomoney"

	"github.com/sirupsen/logrus"
)

// Reconciler polls the gateway's operation history for every pending payment
// and flips matches to success. It is the only writer that advances status.
type Reconciler struct {
	donations     *DonationService
	gateway       *yoomoney.Client
	interval      time.Duration
	pendingMaxAge time.Duration
	log           *logrus.Logger

	cancel context.CancelFunc
	done   chan struct{}
}

func NewReconciler(donations *DonationService, gateway *yoomoney.Client, interval, pendingMaxAge time.Duration, log *logrus.Logger) *Reconciler {
	if interval <= 0 {
		interval = 10 * time.Second
	}
	return &Reconciler{
		donations:     donations,
		gateway:       gateway,
		interval:      interval,
		pendingMaxAge: pendingMaxAge,
		log:           log,
	}
}

// Start launches the periodic loop. Passes run to completion before the next
// tick is handled, so they never overlap; slow ticks are dropped.
func (r *Reconciler) Start() {
	ctx, cancel := context.WithCancel(context.Background())
	r.cancel = cancel
	r.done = make(chan struct{})
	go r.run(ctx)
	r.log.WithField("interval", r.interval).Info("reconciler started")
}

// Stop cancels the loop and waits for the current pass to finish.
func (r *Reconciler) Stop() {
	if r.cancel == nil {
		return
	}
	r.cancel()
	<-r.done
	r.log.Info("reconciler stopped")
}

func (r *Reconciler) run(ctx context.Context) {
	defer close(r.done)
	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			r.RunOnce(ctx)
		}
	}
}

// RunOnce performs a single reconciliation pass. Errors for one record are
// logged and skipped; the pass continues with the next record.
func (r *Reconciler) RunOnce(ctx context.Context) {
	pending, err := r.donations.ListPending()
	if err != nil {
		r.log.WithError(err).Error("reconcile: list pending")
		return
	}
	for i := range pending {
		p := &pending[i]
		if r.pendingMaxAge > 0 && time.Since(p.CreatedAt) > r.pendingMaxAge {
			if err := r.donations.Expire(p.OrderID); err != nil {
				r.log.WithError(err).WithField("order_id", p.OrderID).Error("reconcile: expire")
			}
			continue
		}
		op, err := r.gateway.FindInbound(ctx, p.OrderID)
		if err != nil {
			if errors.Is(err, yoomoney.ErrNoToken) {
				// Nothing can be confirmed this pass; wait for authorization.
				r.log.Warn("reconcile: no access token, skipping pass")
				return
			}
			r.log.WithError(err).WithField("order_id", p.OrderID).Error("reconcile: operation history")
			continue
		}
		if op == nil {
			continue
		}
		if err := r.donations.Confirm(p.OrderID, op); err != nil {
			r.log.WithError(err).WithField("order_id", p.OrderID).Error("reconcile: confirm")
		}
	}
}

// CheckPayment returns the record after attempting an immediate reconcile of a
// still-pending payment. Gateway failures do not fail the lookup.
func (r *Reconciler) CheckPayment(ctx context.Context, orderID string) (*models.Payment, error) {
	p, err := r.donations.Get(orderID)
	if err != nil {
		return nil, err
	}
	if p.Status != models.PaymentStatusPending {
		return p, nil
	}
	op, err := r.gateway.FindInbound(ctx, orderID)
	if err != nil {
		if !errors.Is(err, yoomoney.ErrNoToken) {
			r.log.WithError(err).WithField("order_id", orderID).Error("check: operation history")
		}
		return p, nil
	}
	if op == nil {
		return p, nil
	}
	if err := r.donations.Confirm(orderID, op); err != nil {
		r.log.WithError(err).WithField("order_id", orderID).Error("check: confirm")
		return p, nil
	}
	return r.donations.Get(orderID)
}
