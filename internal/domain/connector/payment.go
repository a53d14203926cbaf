package connector

import (
	"context"

	"github.com/google/uuid"
)

// ---------------------------------------------------------------------------
// Import rules
// ---------------------------------------------------------------------------

// ImportRule is the typed rule kind attached to a payment mode. Resolution is
// a match on the kind, not a lookup in a registration-ordered table.
type ImportRule string

const (
	// ImportRuleAlways imports the order unconditionally
	ImportRuleAlways ImportRule = "always"
	// ImportRulePaid imports only once a nonzero payment has been captured
	ImportRulePaid ImportRule = "paid"
	// ImportRuleAuthorized behaves like paid; whether it should gate on a
	// pending authorization instead is an open question with the domain
	// owner, see DESIGN.md
	ImportRuleAuthorized ImportRule = "authorized"
	// ImportRuleNever excludes orders with this payment mode permanently
	ImportRuleNever ImportRule = "never"
)

// IsValid returns true if the rule is a known kind.
func (r ImportRule) IsValid() bool {
	switch r {
	case ImportRuleAlways, ImportRulePaid, ImportRuleAuthorized, ImportRuleNever:
		return true
	default:
		return false
	}
}

// String returns the string representation of ImportRule.
func (r ImportRule) String() string {
	return string(r)
}

// ---------------------------------------------------------------------------
// PaymentMode Entity
// ---------------------------------------------------------------------------

// PaymentMode is an internal payment mode. External orders carry the mode by
// name; an order whose mode name resolves to no configured PaymentMode is a
// configuration error.
type PaymentMode struct {
	// ID is the unique identifier of the payment mode
	ID uuid.UUID
	// Name matches the external payment method string
	Name string
	// Rule gates the import of orders paying with this mode
	Rule ImportRule
	// DaysBeforeCancel abandons unpaid orders older than this many days;
	// zero disables the check
	DaysBeforeCancel int
}

// ---------------------------------------------------------------------------
// PaymentModeRepository
// ---------------------------------------------------------------------------

// PaymentModeRepository resolves payment modes by name. FindByName returns
// nil (no error) when the name is unmapped; turning that into a configuration
// error with remediation text is the rule engine's job.
type PaymentModeRepository interface {
	FindByName(ctx context.Context, name string) (*PaymentMode, error)
	Save(ctx context.Context, mode *PaymentMode) error
}
