package order

import (
	"fmt"
	"math"

	validatorv10 "github.com/go-playground/validator/v10"
)

var validate = newValidator()

func newValidator() *validatorv10.Validate {
	v := validatorv10.New()
	v.RegisterStructValidation(draftStructValidation, Draft{})
	return v
}

// Validate checks field constraints plus the aggregate rule that the
// draft total equals the sum of its line items.
func (d Draft) Validate() error {
	return validate.Struct(d)
}

// draftStructValidation compares total against the item sum in whole
// cents to dodge float rounding.
func draftStructValidation(sl validatorv10.StructLevel) {
	d := sl.Current().Interface().(Draft)

	var sum float64
	for _, it := range d.Items {
		sum += float64(it.Quantity) * it.UnitPrice
	}

	if int(math.Round(sum*100)) != int(math.Round(d.Total*100)) {
		sl.ReportError(d.Total, "total", "Total", "total_match_items",
			fmt.Sprintf("items sum %.2f != total %.2f", sum, d.Total))
	}
}
