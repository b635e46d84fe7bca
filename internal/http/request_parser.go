package http

import (
	"bytes"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strings"

	"expensetracker/internal/core"
)

const maxBodyBytes = 1 << 20

type registerRequest struct {
	Email    string `json:"email"`
	Username string `json:"username"`
	Password string `json:"password"`
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// expenseRequest keeps amount raw so it may arrive as a JSON number or a
// numeric string.
type expenseRequest struct {
	Amount   json.RawMessage `json:"amount"`
	Date     string          `json:"date"`
	Category string          `json:"category"`
}

// decodeJSON reads one JSON object from the body. An empty body decodes to
// the zero value so that field checks report the missing fields.
func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) error {
	body := http.MaxBytesReader(w, r.Body, maxBodyBytes)
	dec := json.NewDecoder(body)
	if err := dec.Decode(dst); err != nil {
		if errors.Is(err, io.EOF) {
			return nil
		}
		return core.ErrMalformedBody
	}
	if dec.More() {
		return core.ErrMalformedBody
	}
	return nil
}

// toNewExpense converts the request into a domain value. Presence is checked
// for all fields before formats, so a request missing anything reports
// missing fields.
func (req expenseRequest) toNewExpense() (core.NewExpense, error) {
	raw := bytes.TrimSpace(req.Amount)
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) ||
		strings.TrimSpace(req.Date) == "" || strings.TrimSpace(req.Category) == "" {
		return core.NewExpense{}, core.ErrMissingFields
	}

	amountText := string(raw)
	if raw[0] == '"' {
		if err := json.Unmarshal(raw, &amountText); err != nil {
			return core.NewExpense{}, core.ErrInvalidAmount
		}
	}
	amount, err := core.ParseAmount(amountText)
	if err != nil {
		return core.NewExpense{}, err
	}

	date, err := core.ParseDate(req.Date)
	if err != nil {
		return core.NewExpense{}, err
	}

	return core.NewExpense{Amount: amount, Date: date, Category: req.Category}, nil
}
