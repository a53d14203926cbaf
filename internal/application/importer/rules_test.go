package importer

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/guadaltech/connector-prestashop/internal/domain/connector"
)

func paymentAdapter(f *fixture, amounts map[string][]string) *fakeAdapter {
	adapter := f.registry.add(connector.ModelPayment)
	adapter.searchFn = func(filters map[string]string) []string {
		ref := filters["filter[order_reference]"]
		ids := make([]string, 0, len(amounts[ref]))
		for i := range amounts[ref] {
			ids = append(ids, ref+"-"+string(rune('a'+i)))
		}
		return ids
	}
	for ref, amts := range amounts {
		for i, amt := range amts {
			adapter.records[ref+"-"+string(rune('a'+i))] = record(map[string]string{"amount": amt})
		}
	}
	return adapter
}

func newRulesRun(f *fixture) *Run {
	return &Run{Env: f.env, Mappers: NewMapperSet(), visited: make(map[visitKey]struct{})}
}

func TestSaleImportRule_Check(t *testing.T) {
	ctx := context.Background()

	orderRecord := func(payment string) connector.Value {
		return record(map[string]string{
			"payment":   payment,
			"reference": "REF001",
			"date_add":  "2024-03-01 10:00:00",
		})
	}

	t.Run("unmapped payment method is a configuration error", func(t *testing.T) {
		f := newFixture()
		paymentAdapter(f, nil)
		rules := NewSaleImportRule()

		_, err := rules.Check(ctx, newRulesRun(f), orderRecord("wire"))
		require.Error(t, err)
		assert.True(t, connector.IsConfiguration(err))
		assert.Contains(t, err.Error(), "wire")
		assert.Contains(t, err.Error(), "create a payment mode")
	})

	t.Run("always imports regardless of payments", func(t *testing.T) {
		f := newFixture()
		paymentAdapter(f, nil)
		require.NoError(t, f.paymentModes.Save(ctx, &connector.PaymentMode{
			ID: uuid.New(), Name: "cheque", Rule: connector.ImportRuleAlways,
		}))

		reason, err := NewSaleImportRule().Check(ctx, newRulesRun(f), orderRecord("cheque"))
		require.NoError(t, err)
		assert.Empty(t, reason)
	})

	t.Run("never is a permanent skip", func(t *testing.T) {
		f := newFixture()
		paymentAdapter(f, nil)
		require.NoError(t, f.paymentModes.Save(ctx, &connector.PaymentMode{
			ID: uuid.New(), Name: "testmode", Rule: connector.ImportRuleNever,
		}))

		_, err := NewSaleImportRule().Check(ctx, newRulesRun(f), orderRecord("testmode"))
		require.Error(t, err)
		assert.True(t, connector.IsSkip(err))
	})

	t.Run("paid defers while no payment is captured", func(t *testing.T) {
		f := newFixture()
		paymentAdapter(f, nil)
		require.NoError(t, f.paymentModes.Save(ctx, &connector.PaymentMode{
			ID: uuid.New(), Name: "card", Rule: connector.ImportRulePaid,
		}))

		_, err := NewSaleImportRule().Check(ctx, newRulesRun(f), orderRecord("card"))
		require.Error(t, err)
		assert.True(t, connector.IsRetry(err))
		assert.False(t, connector.IsSkip(err))
	})

	t.Run("paid passes once a nonzero payment exists", func(t *testing.T) {
		f := newFixture()
		paymentAdapter(f, map[string][]string{"REF001": {"0.00", "49.90"}})
		require.NoError(t, f.paymentModes.Save(ctx, &connector.PaymentMode{
			ID: uuid.New(), Name: "card", Rule: connector.ImportRulePaid,
		}))

		reason, err := NewSaleImportRule().Check(ctx, newRulesRun(f), orderRecord("card"))
		require.NoError(t, err)
		assert.Empty(t, reason)
	})

	t.Run("authorized behaves like paid", func(t *testing.T) {
		f := newFixture()
		paymentAdapter(f, map[string][]string{"REF001": {"10.00"}})
		require.NoError(t, f.paymentModes.Save(ctx, &connector.PaymentMode{
			ID: uuid.New(), Name: "card", Rule: connector.ImportRuleAuthorized,
		}))

		reason, err := NewSaleImportRule().Check(ctx, newRulesRun(f), orderRecord("card"))
		require.NoError(t, err)
		assert.Empty(t, reason)
	})

	t.Run("stale unpaid order is abandoned instead of deferred", func(t *testing.T) {
		f := newFixture()
		paymentAdapter(f, nil)
		require.NoError(t, f.paymentModes.Save(ctx, &connector.PaymentMode{
			ID: uuid.New(), Name: "card", Rule: connector.ImportRulePaid, DaysBeforeCancel: 30,
		}))

		rules := NewSaleImportRule()
		rules.now = func() time.Time {
			return time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC)
		}
		_, err := rules.Check(ctx, newRulesRun(f), orderRecord("card"))
		require.Error(t, err)
		assert.True(t, connector.IsSkip(err))
		assert.Contains(t, err.Error(), "30 days")
	})

	t.Run("recent unpaid order inside the window still defers", func(t *testing.T) {
		f := newFixture()
		paymentAdapter(f, nil)
		require.NoError(t, f.paymentModes.Save(ctx, &connector.PaymentMode{
			ID: uuid.New(), Name: "card", Rule: connector.ImportRulePaid, DaysBeforeCancel: 30,
		}))

		rules := NewSaleImportRule()
		rules.now = func() time.Time {
			return time.Date(2024, 3, 10, 0, 0, 0, 0, time.UTC)
		}
		_, err := rules.Check(ctx, newRulesRun(f), orderRecord("card"))
		require.Error(t, err)
		assert.True(t, connector.IsRetry(err))
	})

	t.Run("stale paid order is not abandoned", func(t *testing.T) {
		f := newFixture()
		paymentAdapter(f, map[string][]string{"REF001": {"25.00"}})
		require.NoError(t, f.paymentModes.Save(ctx, &connector.PaymentMode{
			ID: uuid.New(), Name: "card", Rule: connector.ImportRulePaid, DaysBeforeCancel: 30,
		}))

		rules := NewSaleImportRule()
		rules.now = func() time.Time {
			return time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC)
		}
		reason, err := rules.Check(ctx, newRulesRun(f), orderRecord("card"))
		require.NoError(t, err)
		assert.Empty(t, reason)
	})
}
