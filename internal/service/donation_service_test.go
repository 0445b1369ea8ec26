package service

import (
	"fmt"
	"io"
	"math"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"tipjar/internal/models"
	"tipjar/internal/repository"
	"tipjar/pkg/yoomoney"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

var testDBSeq int64

// setupTestDB opens a fresh named in-memory database; the shared cache keeps
// it visible across the pool's connections.
func setupTestDB(t *testing.T) *gorm.DB {
	dsn := fmt.Sprintf("file:servicetest%d?mode=memory&cache=shared", atomic.AddInt64(&testDBSeq, 1))
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	if err != nil {
		t.Fatalf("failed to open test database: %v", err)
	}
	if err := db.AutoMigrate(&models.Payment{}, &models.Setting{}); err != nil {
		t.Fatalf("failed to migrate: %v", err)
	}
	return db
}

func testLogger() *logrus.Logger {
	log := logrus.New()
	log.SetOutput(io.Discard)
	return log
}

func newTestService(t *testing.T) (*DonationService, *repository.PaymentRepository) {
	repo := repository.NewPaymentRepository(setupTestDB(t))
	return NewDonationService(repo, testLogger()), repo
}

func TestCreateComputesCommission(t *testing.T) {
	svc, _ := newTestService(t)

	p, err := svc.Create(100, "thanks for the stream")
	assert.NoError(t, err)
	assert.Equal(t, 3.00, p.Commission)
	assert.Equal(t, 103.00, p.TotalAmount)
	assert.Equal(t, models.PaymentStatusPending, p.Status)
	assert.NotEmpty(t, p.OrderID)
	assert.Empty(t, p.Sender)
	assert.Nil(t, p.PaidAt)
}

func TestCommissionRoundingIdentity(t *testing.T) {
	svc, _ := newTestService(t)

	for _, amount := range []float64{1, 2.5, 33.33, 100, 999.99, 12345.67, 100000} {
		p, err := svc.Create(amount, "")
		assert.NoError(t, err)
		assert.Equal(t, math.Round(amount*0.03*100)/100, p.Commission, "amount %v", amount)
		assert.Equal(t, math.Round((amount+p.Commission)*100)/100, p.TotalAmount, "amount %v", amount)
		assert.InDelta(t, p.Commission, p.TotalAmount-p.Amount, 0.005, "amount %v", amount)
	}
}

func TestCreateRejectsOutOfBounds(t *testing.T) {
	svc, repo := newTestService(t)

	for _, amount := range []float64{0, -5, 0.99, 100000.01} {
		_, err := svc.Create(amount, "")
		var ve *ValidationError
		assert.ErrorAs(t, err, &ve, "amount %v", amount)
		assert.Equal(t, "amount", ve.Field)
	}

	_, err := svc.Create(10, strings.Repeat("x", 501))
	var ve *ValidationError
	assert.ErrorAs(t, err, &ve)
	assert.Equal(t, "message", ve.Field)

	// Nothing was persisted by the rejected requests.
	list, err := repo.ListAll()
	assert.NoError(t, err)
	assert.Empty(t, list)
}

func TestCreateEscapesMessage(t *testing.T) {
	svc, _ := newTestService(t)

	p, err := svc.Create(10, `<script>alert("x")</script>`)
	assert.NoError(t, err)
	assert.NotContains(t, p.Message, "<")
	assert.Contains(t, p.Message, "&lt;script&gt;")
}

func TestOrderIDsAreUnique(t *testing.T) {
	svc, _ := newTestService(t)

	seen := make(map[string]bool)
	for i := 0; i < 100; i++ {
		p, err := svc.Create(10, "")
		assert.NoError(t, err)
		assert.False(t, seen[p.OrderID], "duplicate order id %s", p.OrderID)
		seen[p.OrderID] = true
	}
}

func TestListSortedByCreatedAtDesc(t *testing.T) {
	svc, repo := newTestService(t)

	base := time.Now().Add(-time.Hour)
	for i, offset := range []time.Duration{20 * time.Minute, 5 * time.Minute, 40 * time.Minute} {
		p := &models.Payment{
			OrderID:     "don-order-" + string(rune('a'+i)),
			Amount:      10,
			Commission:  0.3,
			TotalAmount: 10.3,
			Status:      models.PaymentStatusPending,
			CreatedAt:   base.Add(offset),
		}
		assert.NoError(t, repo.Create(p))
	}

	list, err := svc.List()
	assert.NoError(t, err)
	assert.Len(t, list, 3)
	for i := 1; i < len(list); i++ {
		assert.False(t, list[i-1].CreatedAt.Before(list[i].CreatedAt), "list not sorted desc at %d", i)
	}
}

func TestGetAndDeleteMissing(t *testing.T) {
	svc, _ := newTestService(t)

	_, err := svc.Get("don-missing")
	assert.ErrorIs(t, err, ErrNotFound)

	err = svc.Delete("don-missing")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestClearReturnsCount(t *testing.T) {
	svc, _ := newTestService(t)

	for i := 0; i < 5; i++ {
		_, err := svc.Create(10, "")
		assert.NoError(t, err)
	}
	count, err := svc.Clear()
	assert.NoError(t, err)
	assert.Equal(t, int64(5), count)

	list, err := svc.List()
	assert.NoError(t, err)
	assert.Empty(t, list)
}

func TestStatsAggregates(t *testing.T) {
	svc, _ := newTestService(t)

	p1, _ := svc.Create(100, "")
	p2, _ := svc.Create(200, "")
	_, _ = svc.Create(50, "")

	now := time.Now()
	assert.NoError(t, svc.Confirm(p1.OrderID, &yoomoney.Operation{Amount: 103, Datetime: now, Title: "Ivan"}))
	assert.NoError(t, svc.Confirm(p2.OrderID, &yoomoney.Operation{Amount: 206, Datetime: now, Title: "Ivan"}))

	stats, err := svc.Stats()
	assert.NoError(t, err)
	assert.Equal(t, int64(3), stats.Total)
	assert.Equal(t, int64(2), stats.Success)
	assert.Equal(t, int64(1), stats.Pending)
	assert.Equal(t, 300.0, stats.TotalAmount)
}

func TestTopDonorsRanking(t *testing.T) {
	svc, _ := newTestService(t)

	now := time.Now()
	for _, d := range []struct {
		amount float64
		title  string
	}{
		{100, "Ivan"},
		{50, "Ivan"},
		{500, "Maria"},
		{20, ""},
	} {
		p, err := svc.Create(d.amount, "")
		assert.NoError(t, err)
		assert.NoError(t, svc.Confirm(p.OrderID, &yoomoney.Operation{Amount: d.amount, Datetime: now, Title: d.title}))
	}
	// One pending payment must not show up in the ranking.
	_, err := svc.Create(9999, "")
	assert.NoError(t, err)

	donors, err := svc.TopDonors()
	assert.NoError(t, err)
	assert.Len(t, donors, 3)
	assert.Equal(t, "Maria", donors[0].Sender)
	assert.Equal(t, 500.0, donors[0].Total)
	assert.Equal(t, "Ivan", donors[1].Sender)
	assert.Equal(t, int64(2), donors[1].Count)
	assert.Equal(t, 150.0, donors[1].Total)
	assert.Equal(t, AnonymousSender, donors[2].Sender)
}

func TestConfirmIsMonotonic(t *testing.T) {
	svc, repo := newTestService(t)

	p, err := svc.Create(100, "")
	assert.NoError(t, err)

	paidAt := time.Now().Add(-time.Minute).Truncate(time.Second)
	op := &yoomoney.Operation{Amount: 103, Datetime: paidAt, Title: ""}
	assert.NoError(t, svc.Confirm(p.OrderID, op))

	got, err := svc.Get(p.OrderID)
	assert.NoError(t, err)
	assert.Equal(t, models.PaymentStatusSuccess, got.Status)
	assert.Equal(t, 103.0, got.ActualAmount)
	assert.Equal(t, AnonymousSender, got.Sender)
	assert.NotNil(t, got.PaidAt)
	assert.True(t, got.PaidAt.Equal(paidAt))

	// A second confirmation with different values must not rewrite anything.
	assert.NoError(t, svc.Confirm(p.OrderID, &yoomoney.Operation{Amount: 1, Datetime: time.Now(), Title: "Mallory"}))
	again, err := svc.Get(p.OrderID)
	assert.NoError(t, err)
	assert.Equal(t, models.PaymentStatusSuccess, again.Status)
	assert.Equal(t, 103.0, again.ActualAmount)
	assert.Equal(t, AnonymousSender, again.Sender)

	// Neither can the record be demoted back to failed.
	rows, err := repo.MarkFailed(p.OrderID)
	assert.NoError(t, err)
	assert.Zero(t, rows)
}
