package model

import (
	"errors"
	"fmt"
)

var (
	// ErrNotFound covers both a missing row and a row owned by another tenant or author.
	ErrNotFound  = errors.New("not found")
	ErrDuplicate = errors.New("already exists")
)

// InsufficientStockError rejects a decrement that would take quantity below zero.
type InsufficientStockError struct {
	ProductID uint
	Available int
	Requested int
}

func (e *InsufficientStockError) Error() string {
	return fmt.Sprintf("insufficient stock for product %d: available %d, requested %d", e.ProductID, e.Available, e.Requested)
}

// StoreUnavailableError is a timeout or connection fault; the operation may be retried.
type StoreUnavailableError struct {
	Op  string
	Err error
}

func (e *StoreUnavailableError) Error() string {
	return fmt.Sprintf("%s: store unavailable: %v", e.Op, e.Err)
}

func (e *StoreUnavailableError) Unwrap() error {
	return e.Err
}
