package output

import (
	"fmt"
	"strconv"
	"strings"
)

// FormatMoney formats a dollar amount with two decimals.
func FormatMoney(value float64) string {
	if value < 0 {
		return fmt.Sprintf("-$%.2f", -value)
	}
	return fmt.Sprintf("$%.2f", value)
}

// FormatGainLoss formats a gain/loss value with a +/- prefix.
// Returns "$0.00" for zero.
func FormatGainLoss(value float64) string {
	if value == 0 {
		return "$0.00"
	}
	if value > 0 {
		return fmt.Sprintf("+$%.2f", value)
	}
	return fmt.Sprintf("-$%.2f", -value)
}

// FormatPercent formats a percentage with a +/- prefix and two decimals.
func FormatPercent(value float64) string {
	if value > 0 {
		return fmt.Sprintf("+%.2f%%", value)
	}
	return fmt.Sprintf("%.2f%%", value)
}

// FormatVolume formats a volume number with thousand separators.
// Returns "-" for zero values.
func FormatVolume(vol int64) string {
	if vol == 0 {
		return "-"
	}

	str := strconv.FormatInt(vol, 10)
	n := len(str)
	if n <= 3 {
		return str
	}

	var result strings.Builder
	remainder := n % 3
	if remainder > 0 {
		result.WriteString(str[:remainder])
		if n > remainder {
			result.WriteString(",")
		}
	}

	for i := remainder; i < n; i += 3 {
		result.WriteString(str[i : i+3])
		if i+3 < n {
			result.WriteString(",")
		}
	}

	return result.String()
}

// FormatQuantity trims trailing zeros from a share quantity so whole-share
// positions print without a decimal point.
func FormatQuantity(qty float64) string {
	s := strconv.FormatFloat(qty, 'f', -1, 64)
	return s
}
