package ai

import "errors"

var (
	// ErrClassification means the model produced nothing usable or failed outright.
	ErrClassification = errors.New("classification failed")
	// ErrBudgetExhausted marks a resolution cut short by the iteration or time budget.
	ErrBudgetExhausted = errors.New("resolution budget exhausted")
)
