package online

import (
	"github.com/jonzim-cmd/zahlungsformen/internal/services/finance/domain/module"
	"github.com/jonzim-cmd/zahlungsformen/internal/services/finance/domain/money"
)

// View is the rendered checkout.
type View struct {
	Step    string     `json:"step"`
	Cart    []CartLine `json:"cart,omitempty"`
	Total   string     `json:"total"`
	Address *Address   `json:"address,omitempty"`
	Methods []string   `json:"methods,omitempty"`
	Method  string     `json:"method,omitempty"`
	Holder  string     `json:"holder,omitempty"`
}

// CartLine is one rendered cart product.
type CartLine struct {
	Name        string `json:"name"`
	Description string `json:"description"`
	Price       string `json:"price"`
}

// View renders s.
func (d *Decider) View(s State, env module.Env) any {
	v := View{Step: s.Step, Total: money.Format(d.total), Method: s.Method}
	switch s.Step {
	case StepCart:
		for _, item := range d.cart {
			v.Cart = append(v.Cart, CartLine{Name: item.Name, Description: item.Description, Price: money.Format(item.Price)})
		}
	case StepPayment:
		address := s.Address
		v.Address = &address
		v.Methods = []string{MethodPayPal, MethodCard, MethodKlarna, MethodInvoice, MethodSEPA}
		v.Holder = env.Ledger.Identity.FullName()
	}
	return v
}
