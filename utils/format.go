package utils

import (
	"strconv"
	"time"
)

// FormatNaira renders an amount in whole Naira with thousands separators,
// e.g. 50000 -> "₦50,000". The site never collects kobo subunits.
func FormatNaira(amount int) string {
	return "₦" + GroupDigits(amount)
}

// GroupDigits inserts comma thousands separators into a whole number.
func GroupDigits(n int) string {
	s := strconv.Itoa(n)
	neg := false
	if len(s) > 0 && s[0] == '-' {
		neg = true
		s = s[1:]
	}

	if len(s) <= 3 {
		if neg {
			return "-" + s
		}
		return s
	}

	var out []byte
	lead := len(s) % 3
	if lead > 0 {
		out = append(out, s[:lead]...)
	}
	for i := lead; i < len(s); i += 3 {
		if len(out) > 0 {
			out = append(out, ',')
		}
		out = append(out, s[i:i+3]...)
	}

	if neg {
		return "-" + string(out)
	}
	return string(out)
}

// FormatLongDate renders a timestamp the way receipts and the verification
// page show it, e.g. "January 2, 2026 3:04 PM".
func FormatLongDate(t time.Time) string {
	return t.Format("January 2, 2006 3:04 PM")
}
