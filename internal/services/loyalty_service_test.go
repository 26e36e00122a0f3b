package services

import (
	"context"
	"errors"
	"slices"
	"testing"
	"time"

	"github.com/nimasrn/loyalty-engine/internal/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// In-memory stores with the same full-rewrite contract as the real ones.

type memCustomerStore struct {
	customers []model.Customer
	loadErr   error
	saveErr   error
	saves     int
}

func (m *memCustomerStore) Load(ctx context.Context) ([]model.Customer, error) {
	if m.loadErr != nil {
		return nil, m.loadErr
	}
	return slices.Clone(m.customers), nil
}

func (m *memCustomerStore) Save(ctx context.Context, customers []model.Customer) error {
	if m.saveErr != nil {
		return m.saveErr
	}
	m.customers = slices.Clone(customers)
	m.saves++
	return nil
}

type memHistoryStore struct {
	txns  []model.Transaction
	saves int
}

func (m *memHistoryStore) Load(ctx context.Context) ([]model.Transaction, error) {
	return slices.Clone(m.txns), nil
}

func (m *memHistoryStore) Save(ctx context.Context, txns []model.Transaction) error {
	m.txns = slices.Clone(txns)
	m.saves++
	return nil
}

func newTestService() (*LoyaltyService, *memCustomerStore, *memHistoryStore) {
	customers := &memCustomerStore{}
	history := &memHistoryStore{}
	svc := NewLoyaltyService(customers, history)
	svc.now = func() time.Time {
		return time.Date(2024, 3, 15, 10, 30, 0, 0, time.Local)
	}
	return svc, customers, history
}

func TestLoyaltyService_RecordPurchase_CreatesCustomer(t *testing.T) {
	svc, customers, history := newTestService()
	ctx := context.Background()

	id, err := svc.RecordPurchase(ctx, model.PurchaseRequest{
		Name:   "Sara",
		Mobile: "0551234567",
		Amount: 250,
	})
	require.NoError(t, err)
	assert.Equal(t, "CUST0001", id)

	require.Len(t, customers.customers, 1)
	c := customers.customers[0]
	assert.Equal(t, "Sara", c.Name)
	assert.Equal(t, 250, c.TotalPurchase)
	assert.Equal(t, 25, c.Points)
	assert.Equal(t, 0, c.RedeemedPoints)
	assert.Equal(t, "2024-03-15", c.PurchaseDate, "missing date defaults to current local date")

	require.Len(t, history.txns, 1)
	txn := history.txns[0]
	assert.Equal(t, "CUST0001", txn.CustomerID)
	assert.Equal(t, "0551234567", txn.Mobile)
	assert.Equal(t, 250.0, txn.Amount)
	assert.Equal(t, 25, txn.PointsEarned)
	assert.Len(t, txn.TxnID, 12)
}

func TestLoyaltyService_RecordPurchase_UpsertsByMobile(t *testing.T) {
	svc, customers, history := newTestService()
	ctx := context.Background()

	_, err := svc.RecordPurchase(ctx, model.PurchaseRequest{
		Name: "Sara", Mobile: "0551234567", Amount: 95, PurchaseDate: "2024-01-01",
	})
	require.NoError(t, err)

	// same mobile, empty name: totals accrue, existing name survives
	id, err := svc.RecordPurchase(ctx, model.PurchaseRequest{
		Mobile: "0551234567", Amount: 100, PurchaseDate: "2024-02-01",
	})
	require.NoError(t, err)
	assert.Equal(t, "CUST0001", id)

	require.Len(t, customers.customers, 1)
	c := customers.customers[0]
	assert.Equal(t, "Sara", c.Name)
	assert.Equal(t, 195, c.TotalPurchase)
	assert.Equal(t, 19, c.Points, "9 + 10 points, floored per call")
	assert.Equal(t, "2024-02-01", c.PurchaseDate, "date is overwritten unconditionally")

	// a different mobile gets the next sequential ID
	id2, err := svc.RecordPurchase(ctx, model.PurchaseRequest{
		Name: "Omar", Mobile: "0559999999", Amount: 40,
	})
	require.NoError(t, err)
	assert.Equal(t, "CUST0002", id2)

	assert.Len(t, history.txns, 3, "every purchase appends exactly one record")
}

func TestLoyaltyService_RecordPurchase_AccrualSum(t *testing.T) {
	svc, customers, _ := newTestService()
	ctx := context.Background()

	amounts := []float64{95, 100, 9, 33.7, 1000}
	wantTotal := 0
	wantPoints := 0
	for _, a := range amounts {
		_, err := svc.RecordPurchase(ctx, model.PurchaseRequest{Mobile: "0550000001", Amount: a})
		require.NoError(t, err)
		wantTotal += int(a)
		wantPoints += PointsFromAmount(a)
	}

	c := customers.customers[0]
	assert.Equal(t, wantTotal, c.TotalPurchase)
	assert.Equal(t, wantPoints, c.Points)
}

func TestLoyaltyService_RecordPurchase_NegativeAmount(t *testing.T) {
	svc, customers, history := newTestService()

	_, err := svc.RecordPurchase(context.Background(), model.PurchaseRequest{
		Mobile: "0551234567", Amount: -5,
	})
	assert.ErrorIs(t, err, ErrNegativeAmount)
	assert.Zero(t, customers.saves)
	assert.Zero(t, history.saves)
}

func TestLoyaltyService_RecordPurchase_StoreFailure(t *testing.T) {
	svc, customers, history := newTestService()
	customers.loadErr = errors.New("disk gone")

	_, err := svc.RecordPurchase(context.Background(), model.PurchaseRequest{
		Mobile: "0551234567", Amount: 10,
	})
	assert.Error(t, err)
	assert.Zero(t, history.saves, "history must not be written when the ledger failed")
}

func TestLoyaltyService_RedeemPoints(t *testing.T) {
	ctx := context.Background()

	seed := func(points int) (*LoyaltyService, *memCustomerStore) {
		svc, customers, _ := newTestService()
		customers.customers = []model.Customer{{
			CustomerID: "CUST0001", Mobile: "0551234567", Points: points,
		}}
		return svc, customers
	}

	t.Run("below minimum is rejected", func(t *testing.T) {
		svc, customers := seed(150)
		err := svc.RedeemPoints(ctx, model.RedeemRequest{CustomerID: "CUST0001", Points: 99})
		assert.ErrorIs(t, err, ErrRedeemBelowMinimum)
		assert.Equal(t, 150, customers.customers[0].Points)
		assert.Zero(t, customers.saves)
	})

	t.Run("exact balance succeeds", func(t *testing.T) {
		svc, customers := seed(150)
		err := svc.RedeemPoints(ctx, model.RedeemRequest{CustomerID: "CUST0001", Points: 150})
		require.NoError(t, err)
		assert.Equal(t, 0, customers.customers[0].Points)
		assert.Equal(t, 150, customers.customers[0].RedeemedPoints)
	})

	t.Run("over balance is rejected", func(t *testing.T) {
		svc, customers := seed(150)
		err := svc.RedeemPoints(ctx, model.RedeemRequest{CustomerID: "CUST0001", Points: 151})
		assert.ErrorIs(t, err, ErrRedeemExceedsBalance)
		assert.Equal(t, 150, customers.customers[0].Points)
	})

	t.Run("balance under the threshold cannot redeem at all", func(t *testing.T) {
		svc, _ := seed(50)
		err := svc.RedeemPoints(ctx, model.RedeemRequest{CustomerID: "CUST0001", Points: 100})
		assert.ErrorIs(t, err, ErrRedeemExceedsBalance)
	})

	t.Run("unknown customer", func(t *testing.T) {
		svc, _ := seed(150)
		err := svc.RedeemPoints(ctx, model.RedeemRequest{CustomerID: "CUST9999", Points: 100})
		assert.ErrorIs(t, err, ErrCustomerNotFound)
	})

	t.Run("redeemed points only ever grow", func(t *testing.T) {
		svc, customers := seed(500)
		require.NoError(t, svc.RedeemPoints(ctx, model.RedeemRequest{CustomerID: "CUST0001", Points: 100}))
		require.NoError(t, svc.RedeemPoints(ctx, model.RedeemRequest{CustomerID: "CUST0001", Points: 200}))
		assert.Equal(t, 200, customers.customers[0].Points)
		assert.Equal(t, 300, customers.customers[0].RedeemedPoints)
	})
}

func TestLoyaltyService_UpdateContactInfo(t *testing.T) {
	ctx := context.Background()

	seed := func() (*LoyaltyService, *memCustomerStore) {
		svc, customers, _ := newTestService()
		customers.customers = []model.Customer{
			{CustomerID: "CUST0001", Name: "Sara", Mobile: "0551111111"},
			{CustomerID: "CUST0002", Name: "Omar", Mobile: "0552222222"},
		}
		return svc, customers
	}

	t.Run("unknown customer is rejected", func(t *testing.T) {
		svc, _ := seed()
		err := svc.UpdateContactInfo(ctx, model.ContactUpdateRequest{
			CustomerID: "CUST9999", NewName: "X",
		})
		assert.ErrorIs(t, err, ErrCustomerNotFound)
	})

	t.Run("mobile held by another customer rejects the whole update", func(t *testing.T) {
		svc, customers := seed()
		err := svc.UpdateContactInfo(ctx, model.ContactUpdateRequest{
			CustomerID: "CUST0001", NewName: "Sara A.", NewMobile: "0552222222",
		})
		assert.ErrorIs(t, err, ErrDuplicateMobile)
		assert.Equal(t, "Sara", customers.customers[0].Name, "name change must not apply either")
	})

	t.Run("empty fields leave values unchanged", func(t *testing.T) {
		svc, customers := seed()
		err := svc.UpdateContactInfo(ctx, model.ContactUpdateRequest{
			CustomerID: "CUST0001", NewName: "", NewMobile: "",
		})
		require.NoError(t, err)
		assert.Equal(t, "Sara", customers.customers[0].Name)
		assert.Equal(t, "0551111111", customers.customers[0].Mobile)
	})

	t.Run("unused mobile applies and shows up in search", func(t *testing.T) {
		svc, _ := seed()
		err := svc.UpdateContactInfo(ctx, model.ContactUpdateRequest{
			CustomerID: "CUST0001", NewMobile: "0553333333",
		})
		require.NoError(t, err)

		results, err := svc.SearchCustomers(ctx, "0553333333")
		require.NoError(t, err)
		require.Len(t, results, 1)
		assert.Equal(t, "CUST0001", results[0].CustomerID)
	})

	// Documented quirk: the purchase path never checks mobile uniqueness
	// because mobile is its upsert key, only the edit path enforces it. An
	// edit can therefore create a mobile that a later purchase will treat as
	// one customer.
	t.Run("uniqueness is enforced on edit only", func(t *testing.T) {
		svc, customers := seed()
		_, err := svc.RecordPurchase(ctx, model.PurchaseRequest{
			Mobile: "0554444444", Amount: 10,
		})
		require.NoError(t, err)
		assert.Len(t, customers.customers, 3)

		err = svc.UpdateContactInfo(ctx, model.ContactUpdateRequest{
			CustomerID: "CUST0001", NewMobile: "0554444444",
		})
		assert.ErrorIs(t, err, ErrDuplicateMobile)
	})
}

func TestLoyaltyService_DeleteCustomer(t *testing.T) {
	svc, customers, history := newTestService()
	ctx := context.Background()

	_, err := svc.RecordPurchase(ctx, model.PurchaseRequest{
		Name: "Sara", Mobile: "0551111111", Amount: 120, PurchaseDate: "2024-01-10",
	})
	require.NoError(t, err)

	require.NoError(t, svc.DeleteCustomer(ctx, "CUST0001"))
	assert.Empty(t, customers.customers)

	// history keeps the orphaned reference
	require.Len(t, history.txns, 1)
	results, header, err := svc.SearchHistory(ctx, "CUST0001")
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, "CUST0001", header.CustomerID)

	// deleting again is a no-op, not an error
	assert.NoError(t, svc.DeleteCustomer(ctx, "CUST0001"))
}

func TestLoyaltyService_SearchCustomers(t *testing.T) {
	svc, customers, _ := newTestService()
	ctx := context.Background()
	customers.customers = []model.Customer{
		{CustomerID: "CUST0001", Mobile: "0551111111"},
		{CustomerID: "CUST0002", Mobile: "0662222222"},
		{CustomerID: "CUST0010", Mobile: "0553334444"},
	}

	t.Run("empty query yields nothing, not everything", func(t *testing.T) {
		results, err := svc.SearchCustomers(ctx, "   ")
		require.NoError(t, err)
		assert.Empty(t, results)
	})

	t.Run("substring on mobile", func(t *testing.T) {
		results, err := svc.SearchCustomers(ctx, "055")
		require.NoError(t, err)
		require.Len(t, results, 2)
		// storage order is preserved
		assert.Equal(t, "CUST0001", results[0].CustomerID)
		assert.Equal(t, "CUST0010", results[1].CustomerID)
	})

	t.Run("case-insensitive on customer ID", func(t *testing.T) {
		results, err := svc.SearchCustomers(ctx, "cust001")
		require.NoError(t, err)
		require.Len(t, results, 1)
		assert.Equal(t, "CUST0010", results[0].CustomerID)
	})
}

func TestLoyaltyService_SearchHistory(t *testing.T) {
	svc, _, history := newTestService()
	ctx := context.Background()
	history.txns = []model.Transaction{
		{TxnID: "a1", CustomerID: "CUST0001", Name: "Sara", Mobile: "0551111111", PurchaseDate: "2024-01-05", Amount: 50},
		{TxnID: "b2", CustomerID: "CUST0001", Name: "Sara A.", Mobile: "0551111111", PurchaseDate: "2024-03-01", Amount: 120},
		{TxnID: "c3", CustomerID: "CUST0001", Name: "Sara", Mobile: "0551111111", PurchaseDate: "not-a-date", Amount: 10},
		{TxnID: "d4", CustomerID: "CUST0002", Mobile: "0662222222", PurchaseDate: "2024-02-01", Amount: 70},
	}

	t.Run("sorted by date descending, unparsable last", func(t *testing.T) {
		results, header, err := svc.SearchHistory(ctx, "CUST0001")
		require.NoError(t, err)
		require.Len(t, results, 3)
		assert.Equal(t, "b2", results[0].TxnID)
		assert.Equal(t, "a1", results[1].TxnID)
		assert.Equal(t, "c3", results[2].TxnID, "unparsable dates sort last")

		// header is the snapshot from the most recent record
		require.NotNil(t, header)
		assert.Equal(t, "Sara A.", header.Name)
		assert.Equal(t, "CUST0001", header.CustomerID)
	})

	t.Run("empty query yields nothing and no header", func(t *testing.T) {
		results, header, err := svc.SearchHistory(ctx, "")
		require.NoError(t, err)
		assert.Empty(t, results)
		assert.Nil(t, header)
	})

	t.Run("no matches means no header", func(t *testing.T) {
		results, header, err := svc.SearchHistory(ctx, "CUST9999")
		require.NoError(t, err)
		assert.Empty(t, results)
		assert.Nil(t, header)
	})
}
