package fixtures

import (
	"github.com/nimasrn/loyalty-engine/internal/model"
)

var (
	CustomerSara = model.Customer{
		CustomerID:    "CUST0001",
		Name:          "Sara",
		Mobile:        "0551111111",
		TotalPurchase: 250,
		Points:        25,
		PurchaseDate:  "2024-03-15",
	}

	CustomerOmar = model.Customer{
		CustomerID:    "CUST0002",
		Name:          "Omar",
		Mobile:        "0552222222",
		TotalPurchase: 1200,
		Points:        120,
		PurchaseDate:  "2024-02-01",
	}

	CustomerNoPoints = model.Customer{
		CustomerID:   "CUST0003",
		Name:         "Lina",
		Mobile:       "0553333333",
		PurchaseDate: "2024-01-10",
	}
)

func NewPurchaseRequest(name, mobile string, amount float64) model.PurchaseRequest {
	return model.PurchaseRequest{
		Name:   name,
		Mobile: mobile,
		Amount: amount,
	}
}

func NewRedeemRequest(customerID string, points int) model.RedeemRequest {
	return model.RedeemRequest{
		CustomerID: customerID,
		Points:     points,
	}
}

func NewTransaction(txnID, customerID, name, mobile, date string, amount float64) model.Transaction {
	return model.Transaction{
		TxnID:        txnID,
		CustomerID:   customerID,
		Name:         name,
		Mobile:       mobile,
		PurchaseDate: date,
		Amount:       amount,
		PointsEarned: int(amount / 10),
	}
}

var ValidMobileNumbers = []string{
	"0551111111",
	"0552222222",
	"+971501234567",
}
