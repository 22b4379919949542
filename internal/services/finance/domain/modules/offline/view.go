package offline

import (
	"github.com/shopspring/decimal"

	"github.com/jonzim-cmd/zahlungsformen/internal/services/finance/domain/module"
	"github.com/jonzim-cmd/zahlungsformen/internal/services/finance/domain/money"
)

// View is the rendered shop screen.
type View struct {
	Step         string     `json:"step"`
	Shop         string     `json:"shop"`
	Receipt      []LineView `json:"receipt,omitempty"`
	ReceiptTotal string     `json:"receipt_total,omitempty"`
	SelectedLine int        `json:"selected_line,omitempty"`
	Deposit      string     `json:"deposit,omitempty"`
	Payer        string     `json:"payer,omitempty"`
}

// LineView is one rendered receipt line.
type LineView struct {
	ID        int    `json:"id"`
	Name      string `json:"name"`
	Quantity  int    `json:"quantity"`
	UnitPrice string `json:"unit_price"`
	Total     string `json:"total"`
}

// View renders s. The corrected receipt is shown once the error is found.
func (d *Decider) View(s State, env module.Env) any {
	v := View{Step: s.Step, Shop: d.shop, SelectedLine: s.SelectedLine}
	switch s.Step {
	case StepReceipt, StepReceiptCorrected:
		corrected := s.Step == StepReceiptCorrected
		sum := decimal.Zero
		for _, line := range d.receipt {
			if corrected {
				line = line.Corrected()
			}
			sum = sum.Add(line.Total())
			v.Receipt = append(v.Receipt, LineView{
				ID:        line.ID,
				Name:      line.Name,
				Quantity:  line.Quantity,
				UnitPrice: money.Format(line.UnitPrice),
				Total:     money.Format(line.Total()),
			})
		}
		v.ReceiptTotal = money.Format(sum)
	case StepCashForm:
		v.Deposit = money.Format(d.deposit)
		v.Payer = env.Ledger.Identity.FullName()
	case StepFinish:
		v.ReceiptTotal = money.Format(d.correctedTotal)
		v.Deposit = money.Format(d.deposit)
	}
	return v
}
