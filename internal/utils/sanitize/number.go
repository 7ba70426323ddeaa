package sanitize

import (
	"encoding/json"
	"fmt"
	"math"
	"regexp"
	"strconv"
)

var (
	// reNonNumeric drops everything but digits, dots and minus signs.
	// Exponents and thousands separators go with it: "1e3" -> "13", "1,000" -> "1000".
	reNonNumeric = regexp.MustCompile(`[^0-9.\-]`)

	// reNumberPrefix is the longest leading decimal a float parser would accept
	// once the input has been reduced to [0-9.-].
	reNumberPrefix = regexp.MustCompile(`^-?(?:[0-9]+(?:\.[0-9]*)?|\.[0-9]+)`)
)

// Number coerces untrusted input into a finite float64.
//
// Numeric values are returned as they are. Everything else is turned into
// text, stripped of markup, reduced to digits, '.' and '-', and parsed on its
// longest valid prefix. Whenever no finite value comes out of that, the result
// is 0; NaN and ±Inf inputs included.
//
// Markup is stripped with the strict policy, which drops the content of
// <script> and <style> elements along with the tags: "<script>42</script>"
// yields 0, while "<b>42</b>" yields 42.
//
// Examples:
//   - "42.5kg" -> 42.5
//   - "<b>100</b>" -> 100
//   - "3.14.15" -> 3.14
//   - "not a number" -> 0
//   - -3.14 -> -3.14
func Number(input any) float64 {
	return NumberOr(input, 0)
}

// NumberOr is Number with a caller chosen fallback.
func NumberOr(input any, fallback float64) float64 {
	if f, ok := numeric(input); ok {
		return finiteOr(f, fallback)
	}

	cleaned := Text(textOf(input))
	prefix := reNumberPrefix.FindString(reNonNumeric.ReplaceAllString(cleaned, ""))
	if prefix == "" {
		return fallback
	}

	f, err := strconv.ParseFloat(prefix, 64)
	if err != nil {
		return fallback
	}
	return finiteOr(f, fallback)
}

// numeric reports whether v already is a number and returns it as float64.
func numeric(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case float32:
		return float64(n), true
	case int:
		return float64(n), true
	case int8:
		return float64(n), true
	case int16:
		return float64(n), true
	case int32:
		return float64(n), true
	case int64:
		return float64(n), true
	case uint:
		return float64(n), true
	case uint8:
		return float64(n), true
	case uint16:
		return float64(n), true
	case uint32:
		return float64(n), true
	case uint64:
		return float64(n), true
	case json.Number:
		f, err := n.Float64()
		if err != nil {
			return 0, false
		}
		return f, true
	}
	return 0, false
}

// textOf renders v the way it would be typed into a form field.
func textOf(v any) string {
	switch t := v.(type) {
	case nil:
		return ""
	case string:
		return t
	case []byte:
		return string(t)
	case json.Number:
		return string(t)
	case fmt.Stringer:
		return t.String()
	case error:
		return t.Error()
	}
	return fmt.Sprint(v)
}

func finiteOr(f, fallback float64) float64 {
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return fallback
	}
	return f
}
