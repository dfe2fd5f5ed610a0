// Package store is the persistence layer: CRUD accessors over GORM for
// users, sprints, intake data and comments. Sprint modules are written only
// by the lifecycle package.
package store

import (
	"context"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// Store wraps a GORM handle; inside WithTx it is bound to the transaction.
type Store struct {
	db *gorm.DB
}

func New(db *gorm.DB) *Store {
	return &Store{db: db}
}

// DB exposes the handle for packages that own their own tables.
func (s *Store) DB() *gorm.DB { return s.db }

// WithTx runs fn inside one transaction; a returned error rolls it back.
func (s *Store) WithTx(ctx context.Context, fn func(tx *Store) error) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(&Store{db: tx})
	})
}

// ForUpdate adds a row lock where the dialect supports one. SQLite serializes
// writers on its single connection instead.
func ForUpdate(db *gorm.DB) *gorm.DB {
	if db.Dialector.Name() == "postgres" {
		return db.Clauses(clause.Locking{Strength: "UPDATE"})
	}
	return db
}
