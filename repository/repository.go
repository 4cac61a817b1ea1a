package repository

import (
	"context"
	"errors"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// Transactor runs a unit of work inside a single database transaction.
// Repository methods accept the tx handed to fn; a nil tx means "use the
// repository's own connection".
type Transactor interface {
	WithinTransaction(ctx context.Context, fn func(tx *gorm.DB) error) error
}

type gormTransactor struct {
	db *gorm.DB
}

// NewTransactor creates a Transactor backed by db.
func NewTransactor(db *gorm.DB) Transactor {
	return &gormTransactor{db: db}
}

func (t *gormTransactor) WithinTransaction(ctx context.Context, fn func(tx *gorm.DB) error) error {
	return t.db.WithContext(ctx).Transaction(fn)
}

// conn picks the transaction if one is active, otherwise the base handle.
func conn(ctx context.Context, db, tx *gorm.DB) *gorm.DB {
	transaction := tx
	if transaction == nil {
		transaction = db
	}
	return transaction.WithContext(ctx)
}

func isNotFound(err error) bool {
	return errors.Is(err, gorm.ErrRecordNotFound)
}

// orderBy builds an ascending ORDER BY over the given columns.
func orderBy(columns ...string) clause.OrderBy {
	order := clause.OrderBy{}
	for _, c := range columns {
		order.Columns = append(order.Columns, clause.OrderByColumn{Column: clause.Column{Name: c}})
	}
	return order
}

// newestFirst orders by creation time descending, id breaking ties.
func newestFirst() clause.OrderBy {
	return clause.OrderBy{Columns: []clause.OrderByColumn{
		{Column: clause.Column{Name: "created_at"}, Desc: true},
		{Column: clause.Column{Name: "id"}, Desc: true},
	}}
}
