package content

import (
	"errors"
	"fmt"
	"strings"

	"github.com/jonzim-cmd/zahlungsformen/internal/services/finance/domain/ledger"
)

// Validate checks the course for structural mistakes. All problems are
// reported together.
func (c *Course) Validate() error {
	var errs []error
	add := func(format string, args ...any) {
		errs = append(errs, fmt.Errorf(format, args...))
	}

	seen := map[ledger.ModuleID]bool{}
	paths := map[string]bool{}
	for _, info := range c.Modules {
		if !info.ID.Valid() {
			add("modules: unknown id %q", info.ID)
			continue
		}
		if seen[info.ID] {
			add("modules: duplicate id %q", info.ID)
		}
		seen[info.ID] = true
		if !strings.HasPrefix(info.Path, "/") {
			add("modules: path for %q must start with /", info.ID)
		}
		if paths[info.Path] {
			add("modules: duplicate path %q", info.Path)
		}
		paths[info.Path] = true
	}
	for _, id := range ledger.Modules() {
		if !seen[id] {
			add("modules: missing %q", id)
		}
	}

	if len(c.Girokonto.Banks) == 0 {
		add("girokonto: at least one bank is required")
	}
	freeBank := false
	for _, bank := range c.Girokonto.Banks {
		if bank.ID == "" || bank.Name == "" {
			add("girokonto: bank id and name are required")
		}
		if bank.MonthlyFee.IsZero() {
			freeBank = true
		}
	}
	if len(c.Girokonto.Banks) > 0 && !freeBank {
		add("girokonto: at least one fee-free bank is required")
	}
	for i, q := range c.Girokonto.Quiz {
		if len(q.Options) == 0 {
			add("girokonto: quiz %d has no options", i)
		}
		if q.Correct < 0 || q.Correct >= len(q.Options) {
			add("girokonto: quiz %d correct option %d out of range", i, q.Correct)
		}
	}

	if len(c.PaymentMethods.Pairs) == 0 {
		add("payment_methods: at least one pair is required")
	}
	keys := map[string]bool{}
	for _, pair := range c.PaymentMethods.Pairs {
		if pair.Key == "" || keys[pair.Key] {
			add("payment_methods: pair key %q missing or duplicated", pair.Key)
		}
		keys[pair.Key] = true
	}
	if c.PaymentMethods.WrongDisplay < 0 {
		add("payment_methods: wrong_display must not be negative")
	}

	errorLines := 0
	for _, line := range c.Offline.Receipt {
		if line.Error {
			errorLines++
			if line.CorrectedQuantity <= 0 {
				add("offline: receipt line %d needs corrected_quantity", line.ID)
			}
		}
	}
	if errorLines != 1 {
		add("offline: receipt needs exactly one error line, got %d", errorLines)
	}
	if !c.Offline.DepositAmount.IsPositive() {
		add("offline: deposit_amount must be positive")
	}
	if strings.TrimSpace(c.Offline.PurposeToken) == "" {
		add("offline: purpose_token is required")
	}

	if len(c.Online.Cart) == 0 {
		add("online: cart must not be empty")
	}
	if c.Online.ProcessingDelay < 0 {
		add("online: processing_delay must not be negative")
	}

	if !c.Transfer.Invoice.Amount.IsPositive() {
		add("transfer: invoice amount must be positive")
	}
	if c.Transfer.Invoice.Recipient == "" || c.Transfer.Invoice.IBAN == "" || c.Transfer.Invoice.Reference == "" {
		add("transfer: invoice recipient, iban and reference are required")
	}

	if len(c.Reflection.Checklist) == 0 {
		add("reflection: checklist must not be empty")
	}

	for id := range c.Skip {
		if !id.Valid() {
			add("skip: unknown module %q", id)
		}
		if id == ledger.ModuleReflection {
			add("skip: %q cannot be skipped", id)
		}
	}

	if len(errs) > 0 {
		return fmt.Errorf("invalid content: %w", errors.Join(errs...))
	}
	return nil
}
