package services

import (
	"context"
	"encoding/hex"
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/nimasrn/loyalty-engine/internal/model"
	"github.com/nimasrn/loyalty-engine/pkg/logger"
	"github.com/nimasrn/loyalty-engine/pkg/prom"
)

var (
	ErrCustomerNotFound     = errors.New("customer not found")
	ErrDuplicateMobile      = errors.New("mobile already belongs to another customer")
	ErrRedeemBelowMinimum   = errors.New("redemption below the 100 point minimum")
	ErrRedeemExceedsBalance = errors.New("redemption exceeds available points")
	ErrNegativeAmount       = errors.New("purchase amount cannot be negative")
)

const dateLayout = "2006-01-02"

type CustomerStore interface {
	Load(ctx context.Context) ([]model.Customer, error)
	Save(ctx context.Context, customers []model.Customer) error
}

type HistoryStore interface {
	Load(ctx context.Context) ([]model.Transaction, error)
	Save(ctx context.Context, txns []model.Transaction) error
}

// LoyaltyService owns the customer ledger and the points accrual/redemption
// rules. Every operation is a full load-mutate-save cycle over the configured
// stores, serialized by a single mutex: the stores themselves give no
// multi-writer guarantees.
type LoyaltyService struct {
	customers CustomerStore
	history   HistoryStore
	mu        sync.Mutex
	now       func() time.Time
}

func NewLoyaltyService(customers CustomerStore, history HistoryStore) *LoyaltyService {
	return &LoyaltyService{
		customers: customers,
		history:   history,
		now:       time.Now,
	}
}

// RecordPurchase upserts a customer keyed on mobile and appends one immutable
// history record. Returns the ID of the customer the purchase landed on.
//
// The customer ledger is written before the history file. The two writes are
// not atomic as a pair, a crash between them loses the history record while
// keeping the accrued totals.
func (s *LoyaltyService) RecordPurchase(ctx context.Context, req model.PurchaseRequest) (string, error) {
	if req.Amount < 0 {
		return "", ErrNegativeAmount
	}

	name := strings.TrimSpace(req.Name)
	mobile := strings.TrimSpace(req.Mobile)
	date := strings.TrimSpace(req.PurchaseDate)
	if date == "" {
		date = s.now().Format(dateLayout)
	}
	earned := PointsFromAmount(req.Amount)

	s.mu.Lock()
	defer s.mu.Unlock()

	customers, err := s.customers.Load(ctx)
	if err != nil {
		return "", fmt.Errorf("load customers: %w", err)
	}

	var customerID string
	created := false
	if i := indexByMobile(customers, mobile); i >= 0 {
		// name is only overwritten when the caller supplied one
		if name != "" {
			customers[i].Name = name
		}
		customers[i].TotalPurchase += int(req.Amount)
		customers[i].Points += earned
		customers[i].PurchaseDate = date
		customerID = customers[i].CustomerID
	} else {
		customerID = NextCustomerID(customers)
		customers = append(customers, model.Customer{
			CustomerID:     customerID,
			Name:           name,
			Mobile:         mobile,
			TotalPurchase:  int(req.Amount),
			Points:         earned,
			RedeemedPoints: 0,
			PurchaseDate:   date,
		})
		created = true
	}

	if err := s.customers.Save(ctx, customers); err != nil {
		return "", fmt.Errorf("save customers: %w", err)
	}

	txns, err := s.history.Load(ctx)
	if err != nil {
		return "", fmt.Errorf("load history: %w", err)
	}
	txns = append(txns, model.Transaction{
		TxnID:        newTxnID(),
		CustomerID:   customerID,
		Name:         name,
		Mobile:       mobile,
		PurchaseDate: date,
		Amount:       req.Amount,
		PointsEarned: earned,
	})
	if err := s.history.Save(ctx, txns); err != nil {
		return "", fmt.Errorf("save history: %w", err)
	}

	prom.AddPurchaseRecorded(req.Amount, earned, created)
	logger.Info("purchase recorded",
		"customer_id", customerID,
		"mobile", mobile,
		"amount", req.Amount,
		"points_earned", earned,
		"new_customer", created,
	)
	return customerID, nil
}

// ListCustomers returns the ledger in storage order.
func (s *LoyaltyService) ListCustomers(ctx context.Context) ([]model.Customer, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.customers.Load(ctx)
}

// UpdateContactInfo applies non-empty name/mobile fields to an existing
// customer. A new mobile already held by a different customer rejects the
// whole update. Note the asymmetry with RecordPurchase: the purchase path
// never collides because mobile is its upsert key, so uniqueness is
// enforced only here.
func (s *LoyaltyService) UpdateContactInfo(ctx context.Context, req model.ContactUpdateRequest) error {
	newName := strings.TrimSpace(req.NewName)
	newMobile := strings.TrimSpace(req.NewMobile)

	s.mu.Lock()
	defer s.mu.Unlock()

	customers, err := s.customers.Load(ctx)
	if err != nil {
		return fmt.Errorf("load customers: %w", err)
	}

	i := indexByID(customers, req.CustomerID)
	if i < 0 {
		return ErrCustomerNotFound
	}

	if newMobile != "" {
		for j, c := range customers {
			if j != i && c.Mobile == newMobile {
				return ErrDuplicateMobile
			}
		}
	}

	if newName != "" {
		customers[i].Name = newName
	}
	if newMobile != "" {
		customers[i].Mobile = newMobile
	}
	return s.customers.Save(ctx, customers)
}

// DeleteCustomer removes the customer if present. Deleting an unknown ID is a
// no-op, and purchase history referencing the customer is left untouched.
func (s *LoyaltyService) DeleteCustomer(ctx context.Context, customerID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	customers, err := s.customers.Load(ctx)
	if err != nil {
		return fmt.Errorf("load customers: %w", err)
	}

	i := indexByID(customers, customerID)
	if i < 0 {
		return nil
	}
	customers = append(customers[:i], customers[i+1:]...)
	return s.customers.Save(ctx, customers)
}

// RedeemPoints converts live points into redeemed points. A redemption must be
// at least RedeemMinimum and no more than the customer's current balance,
// rejected redemptions change nothing.
func (s *LoyaltyService) RedeemPoints(ctx context.Context, req model.RedeemRequest) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	customers, err := s.customers.Load(ctx)
	if err != nil {
		return fmt.Errorf("load customers: %w", err)
	}

	i := indexByID(customers, req.CustomerID)
	if i < 0 {
		prom.AddRedemptionRejected("customer_not_found")
		return ErrCustomerNotFound
	}
	if req.Points < RedeemMinimum {
		prom.AddRedemptionRejected("below_minimum")
		return ErrRedeemBelowMinimum
	}
	if req.Points > customers[i].Points {
		prom.AddRedemptionRejected("exceeds_balance")
		return ErrRedeemExceedsBalance
	}

	customers[i].Points -= req.Points
	customers[i].RedeemedPoints += req.Points
	if err := s.customers.Save(ctx, customers); err != nil {
		return fmt.Errorf("save customers: %w", err)
	}

	prom.AddPointsRedeemed(req.Points)
	logger.Info("points redeemed",
		"customer_id", req.CustomerID,
		"points", req.Points,
		"remaining", customers[i].Points,
	)
	return nil
}

// SearchCustomers matches the query case-insensitively against mobile or
// customer ID. An empty query yields no results, not the whole ledger.
// Results come back in storage order.
func (s *LoyaltyService) SearchCustomers(ctx context.Context, query string) ([]model.Customer, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return []model.Customer{}, nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	customers, err := s.customers.Load(ctx)
	if err != nil {
		return nil, fmt.Errorf("load customers: %w", err)
	}

	q := strings.ToLower(query)
	results := make([]model.Customer, 0)
	for _, c := range customers {
		if strings.Contains(strings.ToLower(c.Mobile), q) ||
			strings.Contains(strings.ToLower(c.CustomerID), q) {
			results = append(results, c)
		}
	}
	return results, nil
}

// SearchHistory matches transactions the same way SearchCustomers matches
// customers, sorted by purchase date descending with unparsable dates last.
// When anything matched, a header summary is derived from the most recent
// matching record.
func (s *LoyaltyService) SearchHistory(ctx context.Context, query string) ([]model.Transaction, *model.HistoryHeader, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return []model.Transaction{}, nil, nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	txns, err := s.history.Load(ctx)
	if err != nil {
		return nil, nil, fmt.Errorf("load history: %w", err)
	}

	q := strings.ToLower(query)
	results := make([]model.Transaction, 0)
	for _, t := range txns {
		if strings.Contains(strings.ToLower(t.Mobile), q) ||
			strings.Contains(strings.ToLower(t.CustomerID), q) {
			results = append(results, t)
		}
	}

	sort.SliceStable(results, func(i, j int) bool {
		ti, ei := time.Parse(dateLayout, results[i].PurchaseDate)
		tj, ej := time.Parse(dateLayout, results[j].PurchaseDate)
		if ei != nil {
			return false // unparsable dates sort last
		}
		if ej != nil {
			return true
		}
		return ti.After(tj)
	})

	if len(results) == 0 {
		return results, nil, nil
	}
	first := results[0]
	return results, &model.HistoryHeader{
		CustomerID: first.CustomerID,
		Name:       first.Name,
		Mobile:     first.Mobile,
	}, nil
}

// newTxnID returns an opaque 12-character hex token.
func newTxnID() string {
	u := uuid.New()
	return hex.EncodeToString(u[:])[:12]
}

func indexByMobile(customers []model.Customer, mobile string) int {
	for i, c := range customers {
		if c.Mobile == mobile {
			return i
		}
	}
	return -1
}

func indexByID(customers []model.Customer, customerID string) int {
	for i, c := range customers {
		if c.CustomerID == customerID {
			return i
		}
	}
	return -1
}
