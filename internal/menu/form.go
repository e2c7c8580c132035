package menu

import (
	"fmt"
	"reflect"
	"sort"
	"strings"

	"budget/internal/core"

	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"
)

// expenseForm is what the add and edit prompts collect. The ledger checks
// the share total and uniqueness; the form catches out-of-range input
// before the ledger is touched.
type expenseForm struct {
	Name            string                     `validate:"required,max=100"`
	Amount          decimal.Decimal            `validate:"gte=0"`
	PaymentsPerYear int                        `validate:"min=1,max=12"`
	FirstMonth      int                        `validate:"min=1,max=12"`
	Shares          map[string]decimal.Decimal `validate:"required,min=1,dive,gte=0,lte=100"`
}

var fieldLabels = map[string]string{
	"Name":            "name",
	"Amount":          "amount",
	"PaymentsPerYear": "payments per year",
	"FirstMonth":      "first month",
	"Shares":          "share",
}

func newValidator() *validator.Validate {
	v := validator.New()
	// Decimals are compared as floats; only the range is checked here.
	v.RegisterCustomTypeFunc(func(field reflect.Value) interface{} {
		if d, ok := field.Interface().(decimal.Decimal); ok {
			return d.InexactFloat64()
		}
		return nil
	}, decimal.Decimal{})
	return v
}

// validate returns one readable line per problem, or nil.
func (f expenseForm) validate(v *validator.Validate) []string {
	err := v.Struct(f)
	if err == nil {
		return nil
	}
	verrs, ok := err.(validator.ValidationErrors)
	if !ok {
		return []string{err.Error()}
	}
	var out []string
	for _, fe := range verrs {
		out = append(out, describeField(fe))
	}
	sort.Strings(out)
	return out
}

func describeField(fe validator.FieldError) string {
	label := fieldLabels[fe.StructField()]
	if label == "" {
		label = strings.ToLower(fe.StructField())
	}
	// Map entries report as Shares[Naja].
	if i := strings.Index(fe.Field(), "["); i >= 0 {
		label = fmt.Sprintf("share of %s", strings.Trim(fe.Field()[i:], "[]"))
	}
	switch fe.Tag() {
	case "required":
		return fmt.Sprintf("%s is required", label)
	case "min", "gte":
		return fmt.Sprintf("%s must be at least %s", label, fe.Param())
	case "max", "lte":
		if fe.Kind() == reflect.String {
			return fmt.Sprintf("%s must be at most %s characters", label, fe.Param())
		}
		return fmt.Sprintf("%s must be at most %s", label, fe.Param())
	default:
		return fmt.Sprintf("%s is invalid", label)
	}
}

func (f expenseForm) shares() core.Shares {
	out := make(core.Shares, len(f.Shares))
	for p, v := range f.Shares {
		out[p] = v
	}
	return out
}
