package services

import (
	"fmt"
	"regexp"
	"strconv"

	"github.com/nimasrn/loyalty-engine/internal/model"
)

// Accrual rate: 10 currency units earn 1 point, remainders are discarded.
const pointsPerUnit = 10

// RedeemMinimum is the hard business floor for a single redemption.
const RedeemMinimum = 100

var customerIDPattern = regexp.MustCompile(`^CUST(\d{4,})$`)

// NextCustomerID returns the next sequential ID in the CUST#### format. IDs
// that do not match the pattern are skipped, not treated as errors, so a
// hand-edited ledger cannot wedge ID generation.
func NextCustomerID(customers []model.Customer) string {
	max := 0
	for _, c := range customers {
		m := customerIDPattern.FindStringSubmatch(c.CustomerID)
		if m == nil {
			continue
		}
		n, err := strconv.Atoi(m[1])
		if err != nil {
			continue
		}
		if n > max {
			max = n
		}
	}
	return fmt.Sprintf("CUST%04d", max+1)
}

// PointsFromAmount converts a purchase amount into earned points, flooring.
// Amounts under 10 earn nothing.
func PointsFromAmount(amount float64) int {
	if amount <= 0 {
		return 0
	}
	return int(amount / pointsPerUnit)
}
