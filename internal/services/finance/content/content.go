// Package content loads the course material: banks, quiz questions, payment
// terms, receipts, invoices, statements, and administrative skip effects.
//
// The default course is embedded; an alternative TOML file can be supplied
// at startup.
package content

import (
	_ "embed"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/shopspring/decimal"

	"github.com/jonzim-cmd/zahlungsformen/internal/services/finance/domain/ledger"
	"github.com/jonzim-cmd/zahlungsformen/internal/services/finance/domain/money"
)

//go:embed default.toml
var defaultCourse string

// Course is the full course material.
type Course struct {
	Modules        []ModuleInfo                     `toml:"modules"`
	Girokonto      Girokonto                        `toml:"girokonto"`
	PaymentMethods PaymentMethods                   `toml:"payment_methods"`
	Offline        Offline                          `toml:"offline"`
	Online         Online                           `toml:"online"`
	Transfer       Transfer                         `toml:"transfer"`
	Reflection     Reflection                       `toml:"reflection"`
	Skip           map[ledger.ModuleID]SkipEffects `toml:"skip"`
}

// ModuleInfo maps a module to its label and route.
type ModuleInfo struct {
	ID    ledger.ModuleID `toml:"id"`
	Label string          `toml:"label"`
	Path  string          `toml:"path"`
}

// Girokonto is the account-opening material.
type Girokonto struct {
	BIC           string     `toml:"bic"`
	PremiumReason string     `toml:"premium_reason"`
	Banks         []Bank     `toml:"banks"`
	Quiz          []Question `toml:"quiz"`
}

// Bank is one account offer in the comparison.
type Bank struct {
	ID                string          `toml:"id" json:"id"`
	Name              string          `toml:"name" json:"name"`
	MonthlyFee        decimal.Decimal `toml:"monthly_fee" json:"monthly_fee"`
	CardType          string          `toml:"card_type" json:"card_type"`
	Interest          decimal.Decimal `toml:"interest" json:"interest"`
	OverdraftInterest decimal.Decimal `toml:"overdraft_interest" json:"overdraft_interest"`
	Features          []string        `toml:"features" json:"features"`
	Description       string          `toml:"description" json:"description"`
}

// Question is one multiple-choice question; Correct indexes Options.
type Question struct {
	Question    string   `toml:"question"`
	Options     []string `toml:"options"`
	Correct     int      `toml:"correct"`
	Explanation string   `toml:"explanation"`
}

// PaymentMethods is the term matching material.
type PaymentMethods struct {
	WrongDisplay time.Duration `toml:"wrong_display"`
	Pairs        []Pair        `toml:"pairs"`
}

// Pair relates a term to its definition by Key.
type Pair struct {
	Key        string `toml:"key"`
	Term       string `toml:"term"`
	Definition string `toml:"definition"`
}

// Offline is the shop receipt and cash deposit material.
type Offline struct {
	Shop          string          `toml:"shop"`
	DepositAmount decimal.Decimal `toml:"deposit_amount"`
	PurposeToken  string          `toml:"purpose_token"`
	Items         []string        `toml:"items"`
	Receipt       []ReceiptLine   `toml:"receipt"`
}

// ReceiptLine is one receipt position. The error line carries the quantity
// the cashier should have typed.
type ReceiptLine struct {
	ID                int             `toml:"id" json:"id"`
	Name              string          `toml:"name" json:"name"`
	Quantity          int             `toml:"quantity" json:"quantity"`
	UnitPrice         decimal.Decimal `toml:"unit_price" json:"unit_price"`
	Error             bool            `toml:"error" json:"-"`
	CorrectedQuantity int             `toml:"corrected_quantity" json:"-"`
}

// Total returns quantity × unit price.
func (l ReceiptLine) Total() decimal.Decimal {
	return money.Round(l.UnitPrice.Mul(decimal.NewFromInt(int64(l.Quantity))))
}

// Corrected returns the line with the cashier's mistake fixed.
func (l ReceiptLine) Corrected() ReceiptLine {
	if l.Error {
		l.Quantity = l.CorrectedQuantity
		l.Error = false
	}
	return l
}

// Online is the web shop material.
type Online struct {
	ProcessingDelay time.Duration     `toml:"processing_delay"`
	Item            string            `toml:"item"`
	Cart            []CartItem        `toml:"cart"`
	Rejections      map[string]string `toml:"rejections"`
}

// CartItem is one product in the shopping cart.
type CartItem struct {
	Name        string          `toml:"name" json:"name"`
	Description string          `toml:"description" json:"description"`
	Price       decimal.Decimal `toml:"price" json:"price"`
}

// CartTotal sums the cart.
func (o Online) CartTotal() decimal.Decimal {
	total := decimal.Zero
	for _, item := range o.Cart {
		total = total.Add(item.Price)
	}
	return money.Round(total)
}

// Transfer is the invoice payment material.
type Transfer struct {
	DepositRefund decimal.Decimal `toml:"deposit_refund"`
	Invoice       Invoice         `toml:"invoice"`
}

// Invoice is the bill the learner pays by bank transfer.
type Invoice struct {
	Recipient string          `toml:"recipient" json:"recipient"`
	IBAN      string          `toml:"iban" json:"iban"`
	BIC       string          `toml:"bic" json:"bic"`
	Amount    decimal.Decimal `toml:"amount" json:"amount"`
	Reference string          `toml:"reference" json:"reference"`
}

// Reflection is the bank statement review material.
type Reflection struct {
	RequiredAnswers []string        `toml:"required_answers"`
	Statement       []StatementLine `toml:"statement"`
	Checklist       []ChecklistItem `toml:"checklist"`
}

// StatementLine is one bank statement booking.
type StatementLine struct {
	Date         string          `toml:"date" json:"date"`
	Counterparty string          `toml:"counterparty" json:"counterparty"`
	Kind         string          `toml:"kind" json:"kind"`
	Amount       decimal.Decimal `toml:"amount" json:"amount"`
}

// ChecklistItem is one statement review task.
type ChecklistItem struct {
	ID    string `toml:"id" json:"id"`
	Label string `toml:"label" json:"label"`
}

// SkipEffects approximates a module's ledger effects for the administrative
// skip.
type SkipEffects struct {
	Balance *decimal.Decimal `toml:"balance"`
	Items   []string         `toml:"items"`
	Bank    *SkipBank        `toml:"bank"`
}

// SkipBank is the bank account stored by a skip.
type SkipBank struct {
	IBAN     string `toml:"iban"`
	BIC      string `toml:"bic"`
	BankName string `toml:"bank_name"`
}

// Default returns the embedded course.
func Default() (*Course, error) {
	return Parse(defaultCourse)
}

// Load reads the course at path, or the embedded course when path is blank.
func Load(path string) (*Course, error) {
	if strings.TrimSpace(path) == "" {
		return Default()
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read content %s: %w", path, err)
	}
	return Parse(string(data))
}

// Parse decodes and validates a TOML course. Unknown keys are rejected.
func Parse(data string) (*Course, error) {
	var course Course
	meta, err := toml.Decode(data, &course)
	if err != nil {
		return nil, fmt.Errorf("decode content: %w", err)
	}
	if undecoded := meta.Undecoded(); len(undecoded) > 0 {
		keys := make([]string, 0, len(undecoded))
		for _, key := range undecoded {
			keys = append(keys, key.String())
		}
		return nil, fmt.Errorf("decode content: unknown keys %s", strings.Join(keys, ", "))
	}
	if err := course.Validate(); err != nil {
		return nil, err
	}
	return &course, nil
}

// Module returns the catalog entry for id.
func (c *Course) Module(id ledger.ModuleID) (ModuleInfo, bool) {
	for _, info := range c.Modules {
		if info.ID == id {
			return info, true
		}
	}
	return ModuleInfo{}, false
}

// ModuleForPath resolves a route path to its module.
func (c *Course) ModuleForPath(path string) (ledger.ModuleID, bool) {
	for _, info := range c.Modules {
		if info.Path == path {
			return info.ID, true
		}
	}
	return "", false
}
