package category

import (
	"strings"

	"github.com/dlopezav/recibos/internal/core/domain"
)

// DefaultIncomeKeywords covers income wording in the two supported languages.
// The set is configuration, not an invariant; deployments can extend it.
var DefaultIncomeKeywords = []string{
	"salary", "salario", "sueldo",
	"freelance",
	"investment", "inversion",
	"income", "ingreso",
	"pago", "cobro",
}

// Resolver collapses free-form category or receipt text into one of the two
// canonical money-direction tokens. Deterministic, no I/O.
type Resolver struct {
	incomeKeywords []string
}

func NewResolver(incomeKeywords []string) *Resolver {
	keywords := make([]string, 0, len(incomeKeywords))
	for _, kw := range incomeKeywords {
		kw = strings.ToLower(strings.TrimSpace(kw))
		if kw != "" {
			keywords = append(keywords, kw)
		}
	}
	if len(keywords) == 0 {
		keywords = append(keywords, DefaultIncomeKeywords...)
	}
	return &Resolver{incomeKeywords: keywords}
}

// Resolve returns CategoryMoneyIn when any income keyword appears in text,
// CategoryMoneyOut otherwise. Expenses are the conservative default since
// most uploaded receipts are purchases. The canonical MONEY_IN token itself
// counts as an income indicator, so a compliant classifier reply maps
// through without depending on the keyword set.
func (r *Resolver) Resolve(text string) domain.Category {
	normalized := strings.ToLower(text)
	if strings.Contains(normalized, strings.ToLower(string(domain.CategoryMoneyIn))) {
		return domain.CategoryMoneyIn
	}
	for _, kw := range r.incomeKeywords {
		if strings.Contains(normalized, kw) {
			return domain.CategoryMoneyIn
		}
	}
	return domain.CategoryMoneyOut
}
