package repositories

import "context"

// TxFn is a function that runs within a transaction
type TxFn func(ctx context.Context) error

// TransactionManager runs a function as one atomic unit.
// A non-nil error from fn rolls back every write fn made.
type TransactionManager interface {
	ExecTx(ctx context.Context, fn TxFn) error
}
