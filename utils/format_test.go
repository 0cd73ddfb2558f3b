package utils

import (
	"testing"
	"time"
)

func TestGroupDigits(t *testing.T) {
	cases := []struct {
		in   int
		want string
	}{
		{0, "0"},
		{7, "7"},
		{999, "999"},
		{1000, "1,000"},
		{50000, "50,000"},
		{123456, "123,456"},
		{1250000, "1,250,000"},
		{1000000000, "1,000,000,000"},
		{-50000, "-50,000"},
	}

	for _, tc := range cases {
		if got := GroupDigits(tc.in); got != tc.want {
			t.Errorf("GroupDigits(%d) = %q, want %q", tc.in, got, tc.want)
		}
	}
}

func TestFormatNaira(t *testing.T) {
	if got := FormatNaira(50000); got != "₦50,000" {
		t.Errorf("FormatNaira(50000) = %q", got)
	}
}

func TestFormatLongDate(t *testing.T) {
	ts := time.Date(2026, time.March, 14, 15, 4, 0, 0, time.UTC)
	if got := FormatLongDate(ts); got != "March 14, 2026 3:04 PM" {
		t.Errorf("FormatLongDate = %q", got)
	}
}
