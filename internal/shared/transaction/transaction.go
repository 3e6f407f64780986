// Package transaction carries a gorm transaction through context so that
// repositories from different packages can join one unit of work.
package transaction

import (
	"context"
	"sync"

	"gorm.io/gorm"
)

type txKey struct{}

type hooksKey struct{}

// Manager runs fn inside a single database transaction. Nested calls join the
// outer transaction; an error from fn rolls the whole unit back.
type Manager interface {
	Do(ctx context.Context, fn func(ctx context.Context) error) error
}

type gormManager struct {
	db *gorm.DB
}

func NewManager(db *gorm.DB) Manager {
	return &gormManager{db: db}
}

func (m *gormManager) Do(ctx context.Context, fn func(ctx context.Context) error) error {
	if InTx(ctx) {
		return fn(ctx)
	}

	ctx, flush := WithCommitHooks(ctx)
	err := m.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(context.WithValue(ctx, txKey{}, tx))
	})
	if err != nil {
		return err
	}
	flush()
	return nil
}

// InTx reports whether ctx carries an open transaction.
func InTx(ctx context.Context) bool {
	_, ok := ctx.Value(txKey{}).(*gorm.DB)
	return ok
}

// DB returns the transaction carried by ctx, or fallback bound to ctx.
func DB(ctx context.Context, fallback *gorm.DB) *gorm.DB {
	if tx, ok := ctx.Value(txKey{}).(*gorm.DB); ok {
		return tx
	}
	return fallback.WithContext(ctx)
}

type commitHooks struct {
	mu  sync.Mutex
	fns []func()
}

// WithCommitHooks attaches a hook list to ctx. The returned flush runs the
// registered hooks in order; a Manager calls it once the outermost
// transaction has committed and drops the list on rollback.
func WithCommitHooks(ctx context.Context) (context.Context, func()) {
	h := &commitHooks{}
	return context.WithValue(ctx, hooksKey{}, h), func() {
		h.mu.Lock()
		fns := h.fns
		h.fns = nil
		h.mu.Unlock()
		for _, fn := range fns {
			fn()
		}
	}
}

// AfterCommit defers fn until the enclosing transaction commits. Outside a
// transaction fn runs immediately.
func AfterCommit(ctx context.Context, fn func()) {
	if h, ok := ctx.Value(hooksKey{}).(*commitHooks); ok {
		h.mu.Lock()
		h.fns = append(h.fns, fn)
		h.mu.Unlock()
		return
	}
	fn()
}
