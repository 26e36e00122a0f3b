package services

import (
	"testing"

	"github.com/nimasrn/loyalty-engine/internal/model"
	"github.com/stretchr/testify/assert"
)

func TestNextCustomerID(t *testing.T) {
	tests := []struct {
		name     string
		existing []string
		expected string
	}{
		{
			name:     "empty ledger starts at CUST0001",
			existing: nil,
			expected: "CUST0001",
		},
		{
			name:     "continues from the max suffix, gaps are not refilled",
			existing: []string{"CUST0001", "CUST0003"},
			expected: "CUST0004",
		},
		{
			name:     "max wins regardless of position",
			existing: []string{"CUST0042", "CUST0007"},
			expected: "CUST0043",
		},
		{
			name:     "malformed IDs are skipped without error",
			existing: []string{"CUST0002", "LEGACY-9", "cust0005", "CUST12"},
			expected: "CUST0003",
		},
		{
			name:     "only malformed IDs behaves like an empty ledger",
			existing: []string{"X1", ""},
			expected: "CUST0001",
		},
		{
			name:     "suffixes longer than four digits keep growing",
			existing: []string{"CUST10000"},
			expected: "CUST10001",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			customers := make([]model.Customer, len(tt.existing))
			for i, id := range tt.existing {
				customers[i] = model.Customer{CustomerID: id}
			}
			assert.Equal(t, tt.expected, NextCustomerID(customers))
		})
	}
}

func TestPointsFromAmount(t *testing.T) {
	tests := []struct {
		amount   float64
		expected int
	}{
		{amount: 95, expected: 9},
		{amount: 100, expected: 10},
		{amount: 9, expected: 0},
		{amount: 9.99, expected: 0},
		{amount: 10, expected: 1},
		{amount: 0, expected: 0},
		{amount: 1049.5, expected: 104},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.expected, PointsFromAmount(tt.amount), "amount=%v", tt.amount)
	}
}
