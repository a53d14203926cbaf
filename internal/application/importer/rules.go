package importer

import (
	"context"
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/guadaltech/connector-prestashop/internal/domain/connector"
)

// externalTimeLayout is the timestamp format of the remote webservice.
const externalTimeLayout = "2006-01-02 15:04:05"

// ---------------------------------------------------------------------------
// Sale order import rules
// ---------------------------------------------------------------------------

// SaleImportRule gates sale order imports on the order's payment mode.
// Resolution is a typed switch on the mode's configured rule kind, after a
// global staleness rule that abandons old unpaid orders regardless of mode.
type SaleImportRule struct {
	now func() time.Time
}

// NewSaleImportRule creates the rule engine with the wall clock.
func NewSaleImportRule() *SaleImportRule {
	return &SaleImportRule{now: time.Now}
}

// Check evaluates the import rules for one external order record. It returns
// a SkipError for permanent exclusions, a RetryError when the order is not
// payable yet, and a ConfigurationError when the payment mode is unmapped.
// A nil return means the order is eligible.
func (s *SaleImportRule) Check(ctx context.Context, run *Run, record connector.Value) (string, error) {
	methodName, err := record.GetString("payment")
	if err != nil {
		return "", err
	}

	mode, err := run.Env.PaymentModes.FindByName(ctx, methodName)
	if err != nil {
		return "", err
	}
	if mode == nil {
		return "", connector.NewConfigurationError(
			"payment method %q has no import rule configured; "+
				"create a payment mode named %q or map the method to an existing mode, "+
				"then re-run the import", methodName, methodName)
	}
	if !mode.Rule.IsValid() {
		return "", connector.NewConfigurationError(
			"payment mode %q carries unknown import rule %q", mode.Name, mode.Rule)
	}

	if reason, err := s.checkStaleness(ctx, run, record, mode); reason != "" || err != nil {
		return reason, err
	}

	switch mode.Rule {
	case connector.ImportRuleAlways:
		return "", nil
	case connector.ImportRuleNever:
		return "", connector.NewSkipError(
			"orders with payment method %q are never imported", methodName)
	case connector.ImportRulePaid, connector.ImportRuleAuthorized:
		paid, err := s.paidAmount(ctx, run, record)
		if err != nil {
			return "", err
		}
		if paid.IsZero() {
			return "", &connector.RetryError{
				Reason: fmt.Sprintf("order not paid yet (method %q)", methodName),
				After:  10 * time.Minute,
			}
		}
		return "", nil
	default:
		return "", connector.NewConfigurationError(
			"payment mode %q carries unknown import rule %q", mode.Name, mode.Rule)
	}
}

// checkStaleness abandons orders that stayed unpaid longer than the mode's
// cancellation window. The window applies to every rule kind, including
// "always"; a zero window disables the check.
func (s *SaleImportRule) checkStaleness(ctx context.Context, run *Run, record connector.Value, mode *connector.PaymentMode) (string, error) {
	if mode.DaysBeforeCancel <= 0 {
		return "", nil
	}
	paid, err := s.paidAmount(ctx, run, record)
	if err != nil {
		return "", err
	}
	if !paid.IsZero() {
		return "", nil
	}
	dateAdd, err := record.GetString("date_add")
	if err != nil {
		return "", err
	}
	placed, err := time.Parse(externalTimeLayout, dateAdd)
	if err != nil {
		return "", fmt.Errorf("order date_add %q: %w", dateAdd, err)
	}
	deadline := placed.AddDate(0, 0, mode.DaysBeforeCancel)
	if s.now().After(deadline) {
		return "", connector.NewSkipError(
			"order unpaid for more than %d days, abandoned", mode.DaysBeforeCancel)
	}
	return "", nil
}

// paidAmount sums the captured payments attached to the order's reference.
// Payments are a separate remote resource keyed by order reference, not a
// field of the order record.
func (s *SaleImportRule) paidAmount(ctx context.Context, run *Run, record connector.Value) (decimal.Decimal, error) {
	reference, err := record.GetString("reference")
	if err != nil {
		return decimal.Zero, err
	}
	adapter, err := run.Env.Adapters.AdapterFor(connector.ModelPayment)
	if err != nil {
		return decimal.Zero, err
	}
	ids, err := adapter.Search(ctx, map[string]string{
		"filter[order_reference]": reference,
	})
	if err != nil {
		return decimal.Zero, err
	}
	total := decimal.Zero
	for _, id := range ids {
		payment, err := adapter.Read(ctx, id)
		if err != nil {
			return decimal.Zero, err
		}
		amount, err := payment.GetDecimal("amount")
		if err != nil {
			return decimal.Zero, err
		}
		total = total.Add(amount)
	}
	return total, nil
}
