package services

import (
	"context"
	"fmt"
	"strconv"
	"sync"

	"expensetracker/internal/cache"
	"expensetracker/internal/core"
	"expensetracker/internal/log"
)

// ExpenseStore persists expenses.
type ExpenseStore interface {
	CreateExpense(ctx context.Context, accountID int64, e core.NewExpense) (core.Expense, error)
	ListExpensesByAccount(ctx context.Context, accountID int64) ([]core.Expense, error)
}

// EventPublisher announces stored expenses to downstream consumers.
type EventPublisher interface {
	PublishExpenseCreated(ctx context.Context, e core.Expense) error
}

// ExpenseService orchestrates expense operations across the store, the
// per-account list cache and the event publisher.
type ExpenseService struct {
	store      ExpenseStore
	publisher  EventPublisher
	listCache  cache.Cache[[]core.Expense]
	logger     *log.Logger
	structured *log.StructuredLogger

	// generations counts creates per account. A list read is cached only if
	// no create ran while it was in flight.
	mu          sync.Mutex
	generations map[int64]uint64
}

// NewExpenseService wires the service. publisher and listCache are optional.
func NewExpenseService(store ExpenseStore, publisher EventPublisher, listCache cache.Cache[[]core.Expense], logger *log.Logger) *ExpenseService {
	logger = logger.WithComponent(log.ComponentExpense)
	return &ExpenseService{
		store:       store,
		publisher:   publisher,
		listCache:   listCache,
		logger:      logger,
		structured:  log.NewStructuredLogger(logger),
		generations: make(map[int64]uint64),
	}
}

// List returns the account's expenses in insertion order.
func (s *ExpenseService) List(ctx context.Context, accountID int64) ([]core.Expense, error) {
	if s.listCache == nil {
		return s.listFromStore(ctx, accountID)
	}

	key := cacheKey(accountID)
	if cached, ok := s.listCache.Get(key); ok {
		return cloneExpenses(cached), nil
	}

	gen := s.generation(accountID)
	expenses, err := s.listFromStore(ctx, accountID)
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	if s.generations[accountID] == gen {
		s.listCache.Set(key, cloneExpenses(expenses))
	}
	s.mu.Unlock()
	return expenses, nil
}

// Create validates and stores an expense, then publishes it. A failed publish
// is logged and does not fail the call since the expense is already saved.
func (s *ExpenseService) Create(ctx context.Context, accountID int64, in core.NewExpense) (core.Expense, error) {
	if err := in.Validate(); err != nil {
		return core.Expense{}, err
	}

	expense, err := s.store.CreateExpense(ctx, accountID, in)
	if err != nil {
		return core.Expense{}, fmt.Errorf("save expense: %w", err)
	}

	s.invalidate(accountID)

	s.structured.LogExpenseCreated(ctx, accountID, expense.ID,
		core.FormatAmount(expense.Amount), expense.Date.String(), expense.Category)

	if s.publisher != nil {
		if err := s.publisher.PublishExpenseCreated(context.WithoutCancel(ctx), expense); err != nil {
			s.structured.LogError(ctx, "Failed to publish expense event", err,
				log.ComponentAMQP, log.OpPublish, log.NewFields().WithAccount(accountID))
		}
	}

	return expense, nil
}

// Summary totals the account's expenses overall and per category.
func (s *ExpenseService) Summary(ctx context.Context, accountID int64) (core.Summary, error) {
	expenses, err := s.List(ctx, accountID)
	if err != nil {
		return core.Summary{}, err
	}
	return core.Summarize(expenses), nil
}

func (s *ExpenseService) listFromStore(ctx context.Context, accountID int64) ([]core.Expense, error) {
	expenses, err := s.store.ListExpensesByAccount(ctx, accountID)
	if err != nil {
		return nil, fmt.Errorf("list expenses: %w", err)
	}
	return expenses, nil
}

func (s *ExpenseService) generation(accountID int64) uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.generations[accountID]
}

// invalidate drops the cached list and bumps the generation under one lock,
// so a read that started earlier cannot store its result afterwards.
func (s *ExpenseService) invalidate(accountID int64) {
	if s.listCache == nil {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.generations[accountID]++
	s.listCache.Delete(cacheKey(accountID))
}

func cacheKey(accountID int64) string {
	return strconv.FormatInt(accountID, 10)
}

func cloneExpenses(in []core.Expense) []core.Expense {
	out := make([]core.Expense, len(in))
	copy(out, in)
	return out
}
