package table

import (
	"fmt"
	"math"
	"strconv"
	"strings"
)

// NormalizeCell canonicalizes a decoded cell value into a string.
// Missing values and NaN become "", numbers use their shortest exact form,
// everything else is trimmed and has apostrophes removed.
func NormalizeCell(v any) string {
	switch x := v.(type) {
	case nil:
		return ""
	case string:
		return CleanText(x)
	case float64:
		if math.IsNaN(x) {
			return ""
		}
		return strconv.FormatFloat(x, 'f', -1, 64)
	case float32:
		f := float64(x)
		if math.IsNaN(f) {
			return ""
		}
		return strconv.FormatFloat(f, 'f', -1, 32)
	case int:
		return strconv.Itoa(x)
	case int64:
		return strconv.FormatInt(x, 10)
	case int32:
		return strconv.FormatInt(int64(x), 10)
	case uint64:
		return strconv.FormatUint(x, 10)
	case bool:
		return strconv.FormatBool(x)
	case fmt.Stringer:
		return CleanText(x.String())
	default:
		return CleanText(fmt.Sprint(x))
	}
}

// CleanText trims surrounding whitespace and removes every apostrophe.
func CleanText(s string) string {
	return strings.TrimSpace(strings.ReplaceAll(s, "'", ""))
}

// IsMissing reports whether s is empty, whitespace-only, or a textual
// missing-value marker such as "nan" or "None".
func IsMissing(s string) bool {
	t := strings.TrimSpace(s)
	if t == "" {
		return true
	}
	switch strings.ToLower(t) {
	case "nan", "none", "null", "<nil>":
		return true
	}
	return false
}
