package tax

import (
	"math"

	"github.com/taxmonster/backend/internal/model/tax"
)

// Calculator estimates federal income tax from a bracket schedule.
type Calculator struct {
	brackets []tax.Bracket
}

// NewCalculator returns a calculator over brackets, ordered by floor.
// A nil schedule uses the 2024 single-filer brackets.
func NewCalculator(brackets []tax.Bracket) *Calculator {
	if brackets == nil {
		brackets = tax.Single2024
	}
	return &Calculator{brackets: brackets}
}

// Estimate computes taxable income, tax owed and the effective rate.
func (c *Calculator) Estimate(req tax.EstimateRequest) tax.Estimate {
	income := float64(req.Income)
	taxable := math.Max(0, income-req.Deductions.Total())
	owed := c.TaxOn(taxable)

	var rate float64
	if income > 0 {
		rate = owed / income * 100
	}

	return tax.Estimate{
		TaxableIncome: taxable,
		EstimatedTax:  owed,
		EffectiveRate: rate,
	}
}

// TaxOn returns the tax owed on taxable income.
func (c *Calculator) TaxOn(taxable float64) float64 {
	for i := len(c.brackets) - 1; i >= 0; i-- {
		b := c.brackets[i]
		if taxable > b.Floor {
			return b.Base + (taxable-b.Floor)*b.Rate
		}
	}
	return 0
}
