package domain

import "math"

// Metric is one computed financial indicator. A nil Value means "not
// computable" (typically a zero denominator) and is deliberately distinct
// from a computed zero.
type Metric struct {
	Value          *float64 `json:"value"`
	Name           string   `json:"name"`
	Formula        string   `json:"formula"`
	Interpretation string   `json:"interpretation"`
}

// Computable reports whether the metric carries a value.
func (m Metric) Computable() bool {
	return m.Value != nil
}

// Band is a threshold-delimited classification bucket.
type Band string

const (
	BandExcellent Band = "excellent"
	BandGood      Band = "good"
	BandAdequate  Band = "adequate"
	BandLow       Band = "low"
	BandCritical  Band = "critical"
)

// BandColors maps bands to the display colors the renderer expects.
var BandColors = map[Band]string{
	BandExcellent: "green",
	BandGood:      "light-green",
	BandAdequate:  "yellow",
	BandLow:       "orange",
	BandCritical:  "red",
}

// BandedMetric is a metric plus its classification band.
type BandedMetric struct {
	Metric
	Band  Band   `json:"band"`
	Color string `json:"color"`
}

// Ratio divides num by den, returning nil when the denominator is zero.
// This is the single place the "null, not zero" convention is enforced.
func Ratio(num, den float64) *float64 {
	if den == 0 {
		return nil
	}
	v := num / den
	return &v
}

// Float returns a pointer to v. Convenience for literal metric values.
func Float(v float64) *float64 {
	return &v
}

// Round2 rounds to 2 decimal places.
func Round2(f float64) float64 {
	return math.Round(f*100) / 100
}

// Round4 rounds to 4 decimal places. Ratio values are stored at this
// precision so repeated runs over unchanged data stay bit-identical.
func Round4(f float64) float64 {
	return math.Round(f*10000) / 10000
}
