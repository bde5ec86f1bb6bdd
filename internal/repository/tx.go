package repository

import (
	"context" // Transaction context
	"fmt"     // Rollback error formatting

	"github.com/pkg/errors" // Error wrapping
	"gorm.io/gorm"          // GORM ORM library
)

// Repos groups the repositories bound to one database handle, either the
// pool or an open transaction.
type Repos struct {
	Users    *UserRepo    // Accounts
	Products *ProductRepo // Catalogue
	Orders   *OrderRepo   // Orders and items
}

// NewRepos binds every repository to db
func NewRepos(db *gorm.DB) *Repos {
	return &Repos{
		Users:    NewUserRepo(db),
		Products: NewProductRepo(db),
		Orders:   NewOrderRepo(db),
	}
}

// TxManager runs units of work inside a database transaction
type TxManager struct {
	db *gorm.DB
}

// NewTxManager creates a transaction manager over db
func NewTxManager(db *gorm.DB) *TxManager {
	return &TxManager{db: db}
}

// Execute runs fn with repositories bound to a new transaction. The
// transaction commits when fn returns nil and rolls back when fn returns an
// error or panics; a panic is re-raised after the rollback.
func (m *TxManager) Execute(ctx context.Context, fn func(repos *Repos) error) (err error) {
	tx := m.db.WithContext(ctx).Begin() // Start transaction
	if tx.Error != nil {
		return errors.Wrap(tx.Error, "begin transaction")
	}

	defer func() {
		if p := recover(); p != nil {
			tx.Rollback() // Undo before unwinding
			panic(p)
		}
	}()

	if err = fn(NewRepos(tx)); err != nil {
		if rbErr := tx.Rollback().Error; rbErr != nil {
			return fmt.Errorf("rollback after %w: %v", err, rbErr)
		}
		return err // Rolled back
	}

	if err = tx.Commit().Error; err != nil {
		return errors.Wrap(err, "commit transaction")
	}
	return nil
}
