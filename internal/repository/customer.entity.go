package repository

import (
	"github.com/nimasrn/loyalty-engine/internal/model"
)

// CustomerEntity mirrors the customer ledger in the relational store. RowID
// preserves insertion order, which the CSV files get for free and the search
// contract depends on.
type CustomerEntity struct {
	RowID          int64  `db:"row_id"          gorm:"primaryKey;autoIncrement;column:row_id"`
	CustomerID     string `db:"customer_id"     gorm:"column:customer_id;not null;uniqueIndex"`
	Name           string `db:"name"            gorm:"column:name"`
	Mobile         string `db:"mobile"          gorm:"column:mobile;not null;index"`
	TotalPurchase  int    `db:"total_purchase"  gorm:"column:total_purchase;not null;default:0"`
	Points         int    `db:"points"          gorm:"column:points;not null;default:0"`
	RedeemedPoints int    `db:"redeemed_points" gorm:"column:redeemed_points;not null;default:0"`
	PurchaseDate   string `db:"purchase_date"   gorm:"column:purchase_date"`
}

func (CustomerEntity) TableName() string {
	return "customers"
}

func toCustomerEntity(m model.Customer) *CustomerEntity {
	return &CustomerEntity{
		CustomerID:     m.CustomerID,
		Name:           m.Name,
		Mobile:         m.Mobile,
		TotalPurchase:  m.TotalPurchase,
		Points:         m.Points,
		RedeemedPoints: m.RedeemedPoints,
		PurchaseDate:   m.PurchaseDate,
	}
}

func toCustomerModel(e *CustomerEntity) model.Customer {
	return model.Customer{
		CustomerID:     e.CustomerID,
		Name:           e.Name,
		Mobile:         e.Mobile,
		TotalPurchase:  e.TotalPurchase,
		Points:         e.Points,
		RedeemedPoints: e.RedeemedPoints,
		PurchaseDate:   e.PurchaseDate,
	}
}

func toCustomerModels(entities []*CustomerEntity) []model.Customer {
	models := make([]model.Customer, len(entities))
	for i, e := range entities {
		models[i] = toCustomerModel(e)
	}
	return models
}
