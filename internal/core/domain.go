package core

import (
	"encoding/json"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// DateLayout is the wire and storage format of an expense date.
const DateLayout = "2006-01-02"

type (
	// Date is a calendar day. The time-of-day part is always midnight UTC.
	Date struct {
		time.Time
	}

	Account struct {
		ID           int64
		Email        string
		Username     string
		PasswordHash string
		CreatedAt    time.Time
	}

	Expense struct {
		ID        int64
		AccountID int64
		Amount    decimal.Decimal
		Date      Date
		Category  string
		CreatedAt time.Time
	}

	// NewExpense carries the caller-supplied fields of an expense before it
	// is stored.
	NewExpense struct {
		Amount   decimal.Decimal
		Date     Date
		Category string
	}

	// Session binds an opaque bearer token to the account that logged in.
	Session struct {
		Token     string
		AccountID int64
		CreatedAt time.Time
		ExpiresAt time.Time
	}
)

// NewDate creates a new Date from year, month, day
func NewDate(year, month, day int) Date {
	return Date{Time: time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.UTC)}
}

// ParseDate parses a YYYY-MM-DD string.
func ParseDate(s string) (Date, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return Date{}, ErrMissingFields
	}
	t, err := time.Parse(DateLayout, s)
	if err != nil {
		return Date{}, ErrInvalidDate
	}
	return Date{Time: t}, nil
}

func (d Date) String() string {
	if d.IsZero() {
		return ""
	}
	return d.Format(DateLayout)
}

func (d Date) MarshalJSON() ([]byte, error) {
	return json.Marshal(d.String())
}

func (d *Date) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return ErrInvalidDate
	}
	parsed, err := ParseDate(s)
	if err != nil {
		return err
	}
	*d = parsed
	return nil
}

// Validate checks that every required field is present and normalizes the
// amount to two fraction digits.
func (e *NewExpense) Validate() error {
	e.Category = strings.TrimSpace(e.Category)
	if e.Date.IsZero() || e.Category == "" {
		return ErrMissingFields
	}
	if len(e.Category) > MaxCategoryLength {
		return ErrCategoryTooLong
	}
	amount, err := NormalizeAmount(e.Amount)
	if err != nil {
		return err
	}
	e.Amount = amount
	return nil
}

// Expired reports whether the session is no longer valid at now.
// A zero ExpiresAt never expires.
func (s Session) Expired(now time.Time) bool {
	return !s.ExpiresAt.IsZero() && !now.Before(s.ExpiresAt)
}

// ValidateRegistration checks presence of the registration fields.
func ValidateRegistration(email, username, password string) error {
	if strings.TrimSpace(email) == "" || strings.TrimSpace(username) == "" || password == "" {
		return ErrMissingFields
	}
	return nil
}

// ValidateLogin checks presence of the login fields.
func ValidateLogin(email, password string) error {
	if strings.TrimSpace(email) == "" || password == "" {
		return ErrMissingFields
	}
	return nil
}

// NormalizeEmail lowercases and trims an address so lookups and the unique
// constraint agree.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
