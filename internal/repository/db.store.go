package repository

import (
	"context"

	"github.com/nimasrn/loyalty-engine/internal/model"
	"github.com/nimasrn/loyalty-engine/pkg/db"
)

// DBCustomerStore implements the same full-load/full-save contract as the CSV
// store on top of a relational backend. Save replaces the whole table in one
// transaction so the engine's read-modify-write semantics are identical
// whichever store is configured.
type DBCustomerStore struct {
	*db.DB
}

func NewDBCustomerStore(conn *db.DB) *DBCustomerStore {
	return &DBCustomerStore{conn}
}

func (r *DBCustomerStore) Load(ctx context.Context) ([]model.Customer, error) {
	var entities []*CustomerEntity
	if err := r.Conn(ctx).Order("row_id ASC").Find(&entities).Error; err != nil {
		return nil, err
	}
	return toCustomerModels(entities), nil
}

func (r *DBCustomerStore) Save(ctx context.Context, customers []model.Customer) error {
	return r.WithinTransaction(ctx, func(ctx context.Context) error {
		if err := r.Conn(ctx).Where("1 = 1").Delete(&CustomerEntity{}).Error; err != nil {
			return err
		}
		if len(customers) == 0 {
			return nil
		}
		entities := make([]*CustomerEntity, len(customers))
		for i, c := range customers {
			entities[i] = toCustomerEntity(c)
		}
		return r.Conn(ctx).Create(entities).Error
	})
}

type DBHistoryStore struct {
	*db.DB
}

func NewDBHistoryStore(conn *db.DB) *DBHistoryStore {
	return &DBHistoryStore{conn}
}

func (r *DBHistoryStore) Load(ctx context.Context) ([]model.Transaction, error) {
	var entities []*TransactionEntity
	if err := r.Conn(ctx).Order("row_id ASC").Find(&entities).Error; err != nil {
		return nil, err
	}
	return toTransactionModels(entities), nil
}

func (r *DBHistoryStore) Save(ctx context.Context, txns []model.Transaction) error {
	return r.WithinTransaction(ctx, func(ctx context.Context) error {
		if err := r.Conn(ctx).Where("1 = 1").Delete(&TransactionEntity{}).Error; err != nil {
			return err
		}
		if len(txns) == 0 {
			return nil
		}
		entities := make([]*TransactionEntity, len(txns))
		for i, t := range txns {
			entities[i] = toTransactionEntity(t)
		}
		return r.Conn(ctx).Create(entities).Error
	})
}
