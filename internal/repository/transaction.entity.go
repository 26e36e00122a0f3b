package repository

import (
	"github.com/nimasrn/loyalty-engine/internal/model"
)

// TransactionEntity is one purchase-history record. There is deliberately no
// foreign key to customers, history outlives customer deletion.
type TransactionEntity struct {
	RowID        int64   `db:"row_id"        gorm:"primaryKey;autoIncrement;column:row_id"`
	TxnID        string  `db:"txn_id"        gorm:"column:txn_id;not null;uniqueIndex"`
	CustomerID   string  `db:"customer_id"   gorm:"column:customer_id;not null;index"`
	Name         string  `db:"name"          gorm:"column:name"`
	Mobile       string  `db:"mobile"        gorm:"column:mobile;index"`
	PurchaseDate string  `db:"purchase_date" gorm:"column:purchase_date"`
	Amount       float64 `db:"amount"        gorm:"column:amount;not null;default:0"`
	PointsEarned int     `db:"points_earned" gorm:"column:points_earned;not null;default:0"`
}

func (TransactionEntity) TableName() string {
	return "purchase_history"
}

func toTransactionEntity(m model.Transaction) *TransactionEntity {
	return &TransactionEntity{
		TxnID:        m.TxnID,
		CustomerID:   m.CustomerID,
		Name:         m.Name,
		Mobile:       m.Mobile,
		PurchaseDate: m.PurchaseDate,
		Amount:       m.Amount,
		PointsEarned: m.PointsEarned,
	}
}

func toTransactionModel(e *TransactionEntity) model.Transaction {
	return model.Transaction{
		TxnID:        e.TxnID,
		CustomerID:   e.CustomerID,
		Name:         e.Name,
		Mobile:       e.Mobile,
		PurchaseDate: e.PurchaseDate,
		Amount:       e.Amount,
		PointsEarned: e.PointsEarned,
	}
}

func toTransactionModels(entities []*TransactionEntity) []model.Transaction {
	models := make([]model.Transaction, len(entities))
	for i, e := range entities {
		models[i] = toTransactionModel(e)
	}
	return models
}
