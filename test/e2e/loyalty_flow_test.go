package e2e

import (
	"encoding/json"
	"fmt"
	"path/filepath"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/nimasrn/loyalty-engine/internal/handlers"
	"github.com/nimasrn/loyalty-engine/internal/model"
	"github.com/nimasrn/loyalty-engine/internal/repository"
	"github.com/nimasrn/loyalty-engine/internal/services"
	"github.com/nimasrn/loyalty-engine/pkg/redis"
	"github.com/nimasrn/loyalty-engine/test/fixtures"
	goredis "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/valyala/fasthttp"
)

type TestEnvironment struct {
	CustomersPath   string
	HistoryPath     string
	Service         *services.LoyaltyService
	CustomerHandler *handlers.CustomerHandler
	HistoryHandler  *handlers.HistoryHandler
}

func setupE2EEnvironment(t *testing.T) *TestEnvironment {
	dir := t.TempDir()
	customersPath := filepath.Join(dir, "customers.csv")
	historyPath := filepath.Join(dir, "purchase_history.csv")

	svc := services.NewLoyaltyService(
		repository.NewCSVCustomerStore(customersPath),
		repository.NewCSVHistoryStore(historyPath),
	)

	return &TestEnvironment{
		CustomersPath:   customersPath,
		HistoryPath:     historyPath,
		Service:         svc,
		CustomerHandler: handlers.NewCustomerHandler(svc, nil),
		HistoryHandler:  handlers.NewHistoryHandler(svc),
	}
}

func doRequest(method, path string, body any) *fasthttp.RequestCtx {
	ctx := &fasthttp.RequestCtx{}
	ctx.Request.Header.SetMethod(method)
	ctx.Request.SetRequestURI(path)
	if body != nil {
		b, _ := json.Marshal(body)
		ctx.Request.SetBody(b)
	}
	return ctx
}

func TestPurchaseToRedemptionFlow(t *testing.T) {
	env := setupE2EEnvironment(t)

	// first purchase creates the customer
	ctx := doRequest("POST", "/api/v1/purchases", fixtures.NewPurchaseRequest("Sara", "0551111111", 950))
	env.CustomerHandler.RecordPurchase(ctx)
	require.Equal(t, 201, ctx.Response.StatusCode())

	var created struct {
		CustomerID string `json:"customer_id"`
	}
	require.NoError(t, json.Unmarshal(ctx.Response.Body(), &created))
	assert.Equal(t, "CUST0001", created.CustomerID)

	// second purchase accrues onto the same record
	ctx = doRequest("POST", "/api/v1/purchases", fixtures.NewPurchaseRequest("", "0551111111", 100))
	env.CustomerHandler.RecordPurchase(ctx)
	require.Equal(t, 201, ctx.Response.StatusCode())

	ctx = doRequest("GET", "/api/v1/customers", nil)
	env.CustomerHandler.ListCustomers(ctx)
	require.Equal(t, 200, ctx.Response.StatusCode())

	var list struct {
		Items []model.Customer `json:"items"`
		Total int              `json:"total"`
	}
	require.NoError(t, json.Unmarshal(ctx.Response.Body(), &list))
	require.Equal(t, 1, list.Total)
	assert.Equal(t, "Sara", list.Items[0].Name)
	assert.Equal(t, 1050, list.Items[0].TotalPurchase)
	assert.Equal(t, 105, list.Items[0].Points)

	// redeem part of the balance
	ctx = doRequest("POST", "/api/v1/customers/CUST0001/redeem", fixtures.NewRedeemRequest("", 100))
	ctx.SetUserValue("id", "CUST0001")
	env.CustomerHandler.RedeemPoints(ctx)
	require.Equal(t, 204, ctx.Response.StatusCode())

	// a second redemption exceeds the 5 points left on the balance
	ctx = doRequest("POST", "/api/v1/customers/CUST0001/redeem", fixtures.NewRedeemRequest("", 100))
	ctx.SetUserValue("id", "CUST0001")
	env.CustomerHandler.RedeemPoints(ctx)
	assert.Equal(t, 422, ctx.Response.StatusCode())

	// history kept both purchases
	ctx = doRequest("GET", "/api/v1/history/search?q=cust0001", nil)
	env.HistoryHandler.SearchHistory(ctx)
	require.Equal(t, 200, ctx.Response.StatusCode())

	var history struct {
		Items  []model.Transaction  `json:"items"`
		Header *model.HistoryHeader `json:"header"`
	}
	require.NoError(t, json.Unmarshal(ctx.Response.Body(), &history))
	assert.Len(t, history.Items, 2)
	require.NotNil(t, history.Header)
	assert.Equal(t, "CUST0001", history.Header.CustomerID)
}

func TestDeletePreservesHistory(t *testing.T) {
	env := setupE2EEnvironment(t)

	ctx := doRequest("POST", "/api/v1/purchases", fixtures.NewPurchaseRequest("Omar", "0552222222", 400))
	env.CustomerHandler.RecordPurchase(ctx)
	require.Equal(t, 201, ctx.Response.StatusCode())

	ctx = doRequest("DELETE", "/api/v1/customers/CUST0001", nil)
	ctx.SetUserValue("id", "CUST0001")
	env.CustomerHandler.DeleteCustomer(ctx)
	require.Equal(t, 204, ctx.Response.StatusCode())

	ctx = doRequest("GET", "/api/v1/customers", nil)
	env.CustomerHandler.ListCustomers(ctx)
	var list struct {
		Total int `json:"total"`
	}
	require.NoError(t, json.Unmarshal(ctx.Response.Body(), &list))
	assert.Zero(t, list.Total)

	// the transaction log still references the deleted customer
	ctx = doRequest("GET", "/api/v1/history/search?q=0552222222", nil)
	env.HistoryHandler.SearchHistory(ctx)
	var history struct {
		Items []model.Transaction `json:"items"`
	}
	require.NoError(t, json.Unmarshal(ctx.Response.Body(), &history))
	require.Len(t, history.Items, 1)
	assert.Equal(t, "CUST0001", history.Items[0].CustomerID)
}

func TestIdempotentPurchaseSubmission(t *testing.T) {
	env := setupE2EEnvironment(t)

	mr := miniredis.RunT(t)
	adapter, err := redis.NewRedisAdapter(fmt.Sprintf("e2e-%s", mr.Addr()), "loyalty", &goredis.UniversalOptions{
		Addrs: []string{mr.Addr()},
	})
	require.NoError(t, err)

	guard := services.NewIdempotencyGuard(adapter, services.DefaultIdempotencyConfig())
	handler := handlers.NewCustomerHandler(env.Service, guard)

	send := func() *fasthttp.RequestCtx {
		ctx := doRequest("POST", "/api/v1/purchases", fixtures.NewPurchaseRequest("Lina", "0553333333", 120))
		ctx.Request.Header.Set("Idempotency-Key", "pos-evt-0001")
		handler.RecordPurchase(ctx)
		return ctx
	}

	ctx := send()
	require.Equal(t, 201, ctx.Response.StatusCode())

	// the retry is refused and does not accrue a second time
	ctx = send()
	assert.Equal(t, 409, ctx.Response.StatusCode())

	customers, err := env.Service.ListCustomers(ctx)
	require.NoError(t, err)
	require.Len(t, customers, 1)
	assert.Equal(t, 120, customers[0].TotalPurchase)
}

func TestDataSurvivesRestart(t *testing.T) {
	env := setupE2EEnvironment(t)

	ctx := doRequest("POST", "/api/v1/purchases", fixtures.NewPurchaseRequest("Sara", "0551111111", 250))
	env.CustomerHandler.RecordPurchase(ctx)
	require.Equal(t, 201, ctx.Response.StatusCode())

	// a fresh service over the same files sees everything
	reloaded := services.NewLoyaltyService(
		repository.NewCSVCustomerStore(env.CustomersPath),
		repository.NewCSVHistoryStore(env.HistoryPath),
	)
	customers, err := reloaded.ListCustomers(ctx)
	require.NoError(t, err)
	require.Len(t, customers, 1)
	assert.Equal(t, "CUST0001", customers[0].CustomerID)
	assert.Equal(t, 25, customers[0].Points)
}
