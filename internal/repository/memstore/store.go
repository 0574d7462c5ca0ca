// Package memstore is an in-memory implementation of the repository contracts. A
// transaction works on a private copy of the state and swaps it in on commit, so a
// failed unit of work leaves nothing behind. Transactions are serialized.
package memstore

import (
	"context"
	"sync"
	"time"

	"go-inventory-ledger/internal/model"
	"go-inventory-ledger/internal/repository"
)

type state struct {
	companies map[uint]model.Company
	users     map[uint]model.User
	products  map[uint]model.Product
	feedback  map[uint]model.Feedback
	txs       []model.Transaction

	lastCompany  uint
	lastUser     uint
	lastProduct  uint
	lastFeedback uint
	lastTx       uint
}

func newState() *state {
	return &state{
		companies: map[uint]model.Company{},
		users:     map[uint]model.User{},
		products:  map[uint]model.Product{},
		feedback:  map[uint]model.Feedback{},
	}
}

func (s *state) clone() *state {
	c := *s
	c.companies = make(map[uint]model.Company, len(s.companies))
	for k, v := range s.companies {
		c.companies[k] = v
	}
	c.users = make(map[uint]model.User, len(s.users))
	for k, v := range s.users {
		c.users[k] = v
	}
	c.products = make(map[uint]model.Product, len(s.products))
	for k, v := range s.products {
		c.products[k] = v
	}
	c.feedback = make(map[uint]model.Feedback, len(s.feedback))
	for k, v := range s.feedback {
		c.feedback[k] = v
	}
	c.txs = append([]model.Transaction(nil), s.txs...)
	return &c
}

// Store holds the committed state.
type Store struct {
	mu    sync.RWMutex
	state *state
	nowFn func() time.Time
}

func New() *Store {
	return &Store{
		state: newState(),
		nowFn: func() time.Time { return time.Now().UTC() },
	}
}

// SetClock replaces the timestamp source used for created_at/updated_at.
func (s *Store) SetClock(now func() time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.nowFn = now
}

func (s *Store) Products() repository.ProductRepository {
	return &productRepo{scope{store: s}}
}

func (s *Store) Transactions() repository.TransactionRepository {
	return &transactionRepo{scope{store: s}}
}

func (s *Store) Feedback() repository.FeedbackRepository {
	return &feedbackRepo{scope{store: s}}
}

func (s *Store) Users() repository.UserRepository {
	return &userRepo{scope{store: s}}
}

func (s *Store) Companies() repository.CompanyRepository {
	return &companyRepo{scope{store: s}}
}

func (s *Store) Run(ctx context.Context, fn func(products repository.ProductRepository, txs repository.TransactionRepository) error) error {
	return s.within(ctx, func(sc scope) error {
		return fn(&productRepo{sc}, &transactionRepo{sc})
	})
}

func (s *Store) RunAccounts(ctx context.Context, fn func(companies repository.CompanyRepository, users repository.UserRepository) error) error {
	return s.within(ctx, func(sc scope) error {
		return fn(&companyRepo{sc}, &userRepo{sc})
	})
}

func (s *Store) within(ctx context.Context, fn func(sc scope) error) error {
	if err := ctx.Err(); err != nil {
		return &model.StoreUnavailableError{Op: "begin transaction", Err: err}
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	work := s.state.clone()
	if err := fn(scope{store: s, tx: work}); err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return &model.StoreUnavailableError{Op: "commit transaction", Err: err}
	}
	s.state = work
	return nil
}

// scope binds a repository either to the live state (tx == nil, locked per call) or to
// the working copy of a running transaction (the store lock is already held).
type scope struct {
	store *Store
	tx    *state
}

func (sc scope) read(ctx context.Context, op string, fn func(st *state) error) error {
	if err := ctx.Err(); err != nil {
		return &model.StoreUnavailableError{Op: op, Err: err}
	}
	if sc.tx != nil {
		return fn(sc.tx)
	}
	sc.store.mu.RLock()
	defer sc.store.mu.RUnlock()
	return fn(sc.store.state)
}

func (sc scope) write(ctx context.Context, op string, fn func(st *state, now time.Time) error) error {
	if err := ctx.Err(); err != nil {
		return &model.StoreUnavailableError{Op: op, Err: err}
	}
	if sc.tx != nil {
		return fn(sc.tx, sc.store.nowFn())
	}
	sc.store.mu.Lock()
	defer sc.store.mu.Unlock()
	return fn(sc.store.state, sc.store.nowFn())
}

var (
	_ repository.TxRunner = (*Store)(nil)
)
