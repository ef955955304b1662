package service

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/segyhp/credit-engine/internal/logger"
	"github.com/segyhp/credit-engine/internal/metrics"
	"github.com/segyhp/credit-engine/internal/repository"
)

var fixedNow = time.Date(2024, 3, 15, 9, 30, 0, 0, time.UTC)

func dec(t *testing.T, value string) decimal.Decimal {
	t.Helper()
	d, err := decimal.NewFromString(value)
	require.NoError(t, err)
	return d
}

func newLedgerMetrics() *metrics.Ledger {
	return metrics.NewLedger(prometheus.NewRegistry())
}

type memoryFixture struct {
	store   *repository.MemoryCreditStore
	credits *CreditService
	ledger  *LedgerService
	metrics *metrics.Ledger
}

func newMemoryFixture(rejectOverpayment bool) *memoryFixture {
	store := repository.NewMemoryCreditStore()
	cache := repository.NewNoopCreditCache()
	m := newLedgerMetrics()

	credits := NewCreditService(store, cache, m, logger.Discard(), 600)
	credits.now = func() time.Time { return fixedNow }

	ledger := NewLedgerService(store, store, cache, m, logger.Discard(), rejectOverpayment)
	ledger.now = func() time.Time { return fixedNow }

	return &memoryFixture{store: store, credits: credits, ledger: ledger, metrics: m}
}
