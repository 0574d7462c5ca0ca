package repository

import (
	"context"

	"gorm.io/gorm"
)

// TxRunner runs a unit of work in one store transaction: it commits when fn returns nil
// and rolls back otherwise. Errors returned by fn are passed through unchanged.
type TxRunner interface {
	Run(ctx context.Context, fn func(products ProductRepository, txs TransactionRepository) error) error
	RunAccounts(ctx context.Context, fn func(companies CompanyRepository, users UserRepository) error) error
}

type gormTxRunner struct {
	db *gorm.DB
}

func NewTxRunner(db *gorm.DB) TxRunner {
	return &gormTxRunner{db: db}
}

func (r *gormTxRunner) Run(ctx context.Context, fn func(products ProductRepository, txs TransactionRepository) error) error {
	return r.within(ctx, func(tx *gorm.DB) error {
		return fn(NewProductRepo(tx), NewTransactionRepo(tx))
	})
}

func (r *gormTxRunner) RunAccounts(ctx context.Context, fn func(companies CompanyRepository, users UserRepository) error) error {
	return r.within(ctx, func(tx *gorm.DB) error {
		return fn(NewCompanyRepo(tx), NewUserRepo(tx))
	})
}

func (r *gormTxRunner) within(ctx context.Context, fn func(tx *gorm.DB) error) error {
	tx := r.db.WithContext(ctx).Begin()
	if tx.Error != nil {
		return storeErr("begin transaction", tx.Error)
	}
	defer func() {
		if p := recover(); p != nil {
			tx.Rollback()
			panic(p)
		}
	}()

	if err := fn(tx); err != nil {
		tx.Rollback()
		return err
	}
	if err := tx.Commit().Error; err != nil {
		return storeErr("commit transaction", err)
	}
	return nil
}
