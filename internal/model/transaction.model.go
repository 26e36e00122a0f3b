package model

// Transaction is an immutable purchase-history record. Name and Mobile are
// snapshots taken at purchase time, they do not follow later edits, and
// CustomerID may reference a customer that has since been deleted.
type Transaction struct {
	TxnID        string  `json:"txn_id"`
	CustomerID   string  `json:"customer_id"`
	Name         string  `json:"name"`
	Mobile       string  `json:"mobile"`
	PurchaseDate string  `json:"purchase_date"`
	Amount       float64 `json:"amount"`
	PointsEarned int     `json:"points_earned"`
}

// HistoryHeader is the display summary derived from the most recent
// transaction matching a history search.
type HistoryHeader struct {
	CustomerID string `json:"customer_id"`
	Name       string `json:"name"`
	Mobile     string `json:"mobile"`
}
