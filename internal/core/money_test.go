package core

import (
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/shopspring/decimal"
)

func TestParseAmount(t *testing.T) {
	cases := []struct {
		in      string
		want    string
		wantErr error
	}{
		{"0", "0.00", nil},
		{"1", "1.00", nil},
		{"1.2", "1.20", nil},
		{"42.50", "42.50", nil},
		{"12,34", "12.34", nil},
		{"12.345", "12.35", nil},
		{"12.344", "12.34", nil},
		{"-3.5", "-3.50", nil},
		{" 7 ", "7.00", nil},
		{"99999999.99", "99999999.99", nil},
		{"", "", ErrMissingFields},
		{"abc", "", ErrInvalidAmount},
		{"1.2.3", "", ErrInvalidAmount},
		{"100000000", "", ErrInvalidAmount},
		{"1e50000000", "", ErrInvalidAmount},
		{"1E3", "", ErrInvalidAmount},
		{"-1e-50000000", "", ErrInvalidAmount},
		{"0." + strings.Repeat("0", 40) + "1", "", ErrInvalidAmount},
	}
	for _, tc := range cases {
		got, err := ParseAmount(tc.in)
		if tc.wantErr != nil {
			if !errors.Is(err, tc.wantErr) {
				t.Fatalf("ParseAmount(%q) error = %v, want %v", tc.in, err, tc.wantErr)
			}
			continue
		}
		if err != nil {
			t.Fatalf("ParseAmount(%q) unexpected error: %v", tc.in, err)
		}
		if FormatAmount(got) != tc.want {
			t.Fatalf("ParseAmount(%q) = %s, want %s", tc.in, FormatAmount(got), tc.want)
		}
	}
}

func TestNormalizeAmountRejectsHugeExponentsQuickly(t *testing.T) {
	inputs := []decimal.Decimal{
		decimal.New(1, 50000000),
		decimal.New(1, -50000000),
		decimal.New(0, 50000000),
		decimal.New(1, 9),
	}
	for _, d := range inputs {
		start := time.Now()
		_, err := NormalizeAmount(d)
		if !errors.Is(err, ErrInvalidAmount) {
			t.Fatalf("NormalizeAmount(1e%d) error = %v, want %v", d.Exponent(), err, ErrInvalidAmount)
		}
		if elapsed := time.Since(start); elapsed > 100*time.Millisecond {
			t.Fatalf("NormalizeAmount(1e%d) took %v", d.Exponent(), elapsed)
		}
	}

	start := time.Now()
	if _, err := ParseAmount("1e50000000"); !errors.Is(err, ErrInvalidAmount) {
		t.Fatalf("ParseAmount(1e50000000) error = %v, want %v", err, ErrInvalidAmount)
	}
	if elapsed := time.Since(start); elapsed > 100*time.Millisecond {
		t.Fatalf("ParseAmount(1e50000000) took %v", elapsed)
	}
}

func TestNormalizeAmountKeepsInRangeValues(t *testing.T) {
	for _, d := range []decimal.Decimal{
		decimal.New(12345, -3),
		decimal.New(99999999, 0),
		decimal.New(1, 7),
	} {
		if _, err := NormalizeAmount(d); err != nil {
			t.Fatalf("NormalizeAmount(%s) unexpected error: %v", d, err)
		}
	}
}
