package memory

import (
	"context"
	"errors"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"expensetracker/internal/core"
)

func TestStoreAppend(t *testing.T) {
	s := New()
	ctx := context.Background()
	e := core.Expense{ID: 1, AccountID: 2, Amount: decimal.NewFromInt(5), Date: core.NewDate(2024, 1, 2), Category: "food"}

	ref, err := s.Append(ctx, e)
	require.NoError(t, err)
	assert.Equal(t, "mem:1", ref)

	ref, err = s.Append(ctx, e)
	require.NoError(t, err)
	assert.Equal(t, "mem:2", ref)

	rows := s.Rows()
	require.Len(t, rows, 2)
	assert.Equal(t, []any{"2024-01-02", "food", "5.00", int64(2), int64(1)}, rows[0])
}

func TestStoreFailWith(t *testing.T) {
	s := New()
	boom := errors.New("quota exceeded")
	s.FailWith(boom)
	_, err := s.Append(context.Background(), core.Expense{})
	assert.ErrorIs(t, err, boom)

	s.FailWith(nil)
	_, err = s.Append(context.Background(), core.Expense{})
	assert.NoError(t, err)
}
