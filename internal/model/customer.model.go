package model

// Customer is one row of the customer ledger. CustomerID is assigned once and
// never changes, Mobile is the business key purchases are upserted on.
type Customer struct {
	CustomerID     string `json:"customer_id"`
	Name           string `json:"name"`
	Mobile         string `json:"mobile"`
	TotalPurchase  int    `json:"total_purchase"`
	Points         int    `json:"points"`
	RedeemedPoints int    `json:"redeemed_points"`

	// PurchaseDate is the last purchase date as YYYY-MM-DD, empty until the
	// first purchase is recorded.
	PurchaseDate string `json:"purchase_date"`
}

type PurchaseRequest struct {
	Name   string  `json:"name"`
	Mobile string  `json:"mobile"`
	Amount float64 `json:"amount"`

	// PurchaseDate is optional, the engine defaults it to the current local
	// date when empty.
	PurchaseDate string `json:"purchase_date"`
}

type ContactUpdateRequest struct {
	CustomerID string `json:"customer_id"`
	NewName    string `json:"new_name"`
	NewMobile  string `json:"new_mobile"`
}

type RedeemRequest struct {
	CustomerID string `json:"customer_id"`
	Points     int    `json:"points"`
}
