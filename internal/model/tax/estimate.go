package tax

import (
	"bytes"
	"encoding/json"
	"strconv"
	"strings"
)

// Amount is a dollar figure accepted as a JSON number or string. Values that
// fail to parse, and negative values, decode as zero.
type Amount float64

// UnmarshalJSON implements json.Unmarshaler.
func (a *Amount) UnmarshalJSON(data []byte) error {
	*a = 0

	raw := bytes.TrimSpace(data)
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return nil
	}

	text := string(raw)
	if raw[0] == '"' {
		var s string
		if err := json.Unmarshal(raw, &s); err != nil {
			return nil
		}
		text = strings.NewReplacer(",", "", "$", "").Replace(strings.TrimSpace(s))
	}

	v, err := strconv.ParseFloat(text, 64)
	if err != nil || v < 0 {
		return nil
	}
	*a = Amount(v)
	return nil
}

// Deductions itemizes the amounts subtracted from income.
type Deductions struct {
	Mortgage   Amount `json:"mortgage"`
	Charitable Amount `json:"charitable"`
	Medical    Amount `json:"medical"`
	Business   Amount `json:"business"`
	Other      Amount `json:"other"`
}

// Total sums every deduction.
func (d Deductions) Total() float64 {
	return float64(d.Mortgage + d.Charitable + d.Medical + d.Business + d.Other)
}

// EstimateRequest is the calculator form.
type EstimateRequest struct {
	Income     Amount     `json:"income"`
	Deductions Deductions `json:"deductions"`
}

// Estimate is the calculator result. EffectiveRate is a percentage.
type Estimate struct {
	TaxableIncome float64 `json:"taxableIncome"`
	EstimatedTax  float64 `json:"estimatedTax"`
	EffectiveRate float64 `json:"effectiveRate"`
}
