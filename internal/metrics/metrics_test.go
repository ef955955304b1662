package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewLedger_RegistersCollectors(t *testing.T) {
	reg := prometheus.NewRegistry()
	ledger := NewLedger(reg)

	ledger.PaymentsApplied.Inc()
	ledger.AmountApplied.Add(150.5)
	ledger.PaymentsRejected.WithLabelValues("INVALID_PAYMENT_AMOUNT").Inc()
	ledger.RequestDuration.WithLabelValues("POST", "/api/v1/payments", "201").Observe(0.02)

	assert.Equal(t, 1.0, testutil.ToFloat64(ledger.PaymentsApplied))
	assert.Equal(t, 150.5, testutil.ToFloat64(ledger.AmountApplied))
	assert.Equal(t, 1.0, testutil.ToFloat64(ledger.PaymentsRejected.WithLabelValues("INVALID_PAYMENT_AMOUNT")))

	families, err := reg.Gather()
	require.NoError(t, err)
	names := make([]string, 0, len(families))
	for _, f := range families {
		names = append(names, f.GetName())
	}
	assert.Contains(t, names, "credit_engine_payments_applied_total")
	assert.Contains(t, names, "credit_engine_http_request_duration_seconds")
}

func TestNewLedger_DuplicateRegistrationPanics(t *testing.T) {
	reg := prometheus.NewRegistry()
	NewLedger(reg)

	assert.Panics(t, func() { NewLedger(reg) })
}
