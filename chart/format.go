package chart

import (
	"math"
	"strconv"

	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

var printer = message.NewPrinter(language.English)

// Missing is shown in place of NaN values.
const Missing = "- -"

// FormatCount rounds v and groups thousands: 12345.4 -> "12,345".
func FormatCount(v float64) string {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return Missing
	}
	return printer.Sprintf("%d", int64(math.Round(v)))
}

// FormatFixed formats v with prec decimals and grouped thousands.
func FormatFixed(v float64, prec int) string {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return Missing
	}
	return printer.Sprintf("%."+strconv.Itoa(prec)+"f", v)
}

// FormatPercent formats v with one decimal and a percent sign.
func FormatPercent(v float64) string {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return Missing
	}
	return strconv.FormatFloat(v, 'f', 1, 64) + "%"
}

// FormatCompact abbreviates large values for axis ticks: 1.2M, 35k.
func FormatCompact(v float64) string {
	abs := math.Abs(v)
	switch {
	case abs >= 1e6:
		return strconv.FormatFloat(v/1e6, 'f', 1, 64) + "M"
	case abs >= 1e3:
		return strconv.FormatFloat(v/1e3, 'f', 0, 64) + "k"
	case abs < 10 && v != math.Trunc(v):
		return strconv.FormatFloat(v, 'f', 2, 64)
	default:
		return strconv.FormatFloat(v, 'f', 0, 64)
	}
}
