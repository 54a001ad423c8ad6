package types

import (
	"reflect"

	"github.com/go-playground/validator/v10"
	"github.com/rxtech-lab/argo-pnl/pkg/errors"
	"github.com/shopspring/decimal"
)

var validate = newValidator()

// newValidator returns a validator that understands decimal.Decimal fields,
// so numeric tags like gt=0 apply to them.
func newValidator() *validator.Validate {
	v := validator.New()
	v.RegisterCustomTypeFunc(func(field reflect.Value) any {
		if d, ok := field.Interface().(decimal.Decimal); ok {
			f, _ := d.Float64()

			return f
		}

		return nil
	}, decimal.Decimal{})

	return v
}

// Validator exposes the shared validator for other packages validating decimal-bearing structs.
func Validator() *validator.Validate {
	return validate
}

// Validate checks the structural shape of a fill.
// Direction ambiguity (zero payment) is left to the accounting engine, which owns that error.
func (f *Fill) Validate() error {
	if err := validate.Struct(f); err != nil {
		return errors.Wrap(errors.ErrCodeInvalidFill, "invalid fill", err).WithFill(f.ID)
	}

	if len(f.Legs) > 0 {
		sum := decimal.Zero
		for _, leg := range f.Legs {
			sum = sum.Add(leg.Quantity)
		}

		if !sum.Equal(f.TradeQuantity) {
			return errors.Newf(errors.ErrCodeInvalidTradeLeg,
				"trade legs sum to %s but trade quantity is %s", sum, f.TradeQuantity).WithFill(f.ID)
		}
	}

	return nil
}

// Validate checks a commission record.
func (c *CommissionRecord) Validate() error {
	if err := validate.Struct(c); err != nil {
		return errors.Wrap(errors.ErrCodeInvalidFill, "invalid commission record", err).WithFill(c.ParentID)
	}

	return nil
}
