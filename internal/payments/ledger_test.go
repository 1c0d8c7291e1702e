package payments

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/invoicepro/invoicepro/internal/invoicing"
	"github.com/invoicepro/invoicepro/internal/platform/httpx"
	"github.com/invoicepro/invoicepro/internal/shared"
)

func dec(s string) decimal.Decimal { return decimal.RequireFromString(s) }

var payDay = shared.NewDate(2025, time.February, 10)

func TestPrepareDerivesTDS(t *testing.T) {
	p := Payment{PaymentDate: payDay, Amount: dec("100"), TDSPercentage: dec("10"), Status: StatusReceived}
	require.NoError(t, Prepare(&p))
	assert.True(t, p.TDSAmount.Equal(dec("10")))
	assert.True(t, p.NetAmount.Equal(dec("90")))

	explicit := Payment{PaymentDate: payDay, Amount: dec("100"), TDSPercentage: dec("10"), TDSAmount: dec("4"), Status: StatusReceived}
	require.NoError(t, Prepare(&explicit))
	assert.True(t, explicit.TDSAmount.Equal(dec("4")), "explicit TDS wins over the percentage")
	assert.True(t, explicit.NetAmount.Equal(dec("96")))

	rounded := Payment{PaymentDate: payDay, Amount: dec("333.33"), TDSPercentage: dec("2"), Status: StatusReceived}
	require.NoError(t, Prepare(&rounded))
	assert.True(t, rounded.TDSAmount.Equal(dec("6.67")))
}

func TestPrepareNetAmount(t *testing.T) {
	p := Payment{PaymentDate: payDay, Amount: dec("1000"), TDSAmount: dec("20"), FineAmount: dec("30"), AdjustmentAmount: dec("-50"), Status: StatusReceived}
	require.NoError(t, Prepare(&p))
	assert.True(t, p.NetAmount.Equal(dec("900")))

	neg := Payment{PaymentDate: payDay, Amount: dec("10"), FineAmount: dec("11"), Status: StatusReceived}
	err := Prepare(&neg)
	assert.ErrorIs(t, err, ErrNegativeNetAmount)
	assert.ErrorIs(t, err, httpx.ErrValidation)

	bad := Payment{PaymentDate: payDay, Amount: dec("-1")}
	assert.ErrorIs(t, Prepare(&bad), httpx.ErrValidation)

	undated := Payment{Amount: dec("1")}
	assert.ErrorIs(t, Prepare(&undated), httpx.ErrValidation)
}

func TestPrepareRejectsSubCentAmounts(t *testing.T) {
	for _, p := range []Payment{
		{PaymentDate: payDay, Amount: dec("100.005"), Status: StatusReceived},
		{PaymentDate: payDay, Amount: dec("100"), TDSAmount: dec("1.001"), Status: StatusReceived},
		{PaymentDate: payDay, Amount: dec("100"), TDSPercentage: dec("2.125"), Status: StatusReceived},
		{PaymentDate: payDay, Amount: dec("100"), FineAmount: dec("0.009"), Status: StatusReceived},
		{PaymentDate: payDay, Amount: dec("100"), AdjustmentAmount: dec("-0.005"), Status: StatusReceived},
	} {
		var fields shared.FieldErrors
		require.ErrorAs(t, Prepare(&p), &fields)
		assert.Len(t, fields, 1)
	}
}

func TestPrepareSyncsHoldFlag(t *testing.T) {
	cases := []struct {
		status   Status
		supplied bool
		want     bool
	}{
		{StatusOnHold, false, true},
		{StatusReceived, true, false},
		{StatusPending, true, true},
		{StatusCancelled, false, false},
	}
	for _, tc := range cases {
		p := Payment{PaymentDate: payDay, Amount: dec("1"), Status: tc.status, IsOnHold: tc.supplied}
		require.NoError(t, Prepare(&p))
		assert.Equal(t, tc.want, p.IsOnHold, tc.status)
	}
}

func TestSummarize(t *testing.T) {
	total := dec("1180")
	ps := []Payment{
		{NetAmount: dec("500"), Status: StatusReceived},
		{NetAmount: dec("200"), Status: StatusOnHold, IsOnHold: true},
		{NetAmount: dec("100"), Status: StatusPending},
		{NetAmount: dec("50"), Status: StatusReceived, IsOnHold: true},
	}
	s := Summarize(total, ps)
	assert.True(t, s.TotalPaid.Equal(dec("500")))
	assert.True(t, s.TotalOnHold.Equal(dec("250")))
	assert.True(t, s.Outstanding.Equal(dec("680")))
	assert.Equal(t, invoicing.PaymentPartial, s.Status)
	assert.Equal(t, 4, s.Count)
}

func TestDerivePaymentStatus(t *testing.T) {
	assert.Equal(t, invoicing.PaymentUnpaid, DerivePaymentStatus(dec("0"), dec("100")))
	assert.Equal(t, invoicing.PaymentUnpaid, DerivePaymentStatus(dec("0"), dec("0")))
	assert.Equal(t, invoicing.PaymentPartial, DerivePaymentStatus(dec("99.99"), dec("100")))
	assert.Equal(t, invoicing.PaymentPaid, DerivePaymentStatus(dec("100"), dec("100")))
	assert.Equal(t, invoicing.PaymentPaid, DerivePaymentStatus(dec("150"), dec("100")))
}
