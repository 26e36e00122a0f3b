package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/nimasrn/loyalty-engine/pkg/worker"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// SaleEvent is the payload a POS terminal emits for one checkout.
type SaleEvent struct {
	TerminalID   string  `json:"terminal_id"`
	Name         string  `json:"name"`
	Mobile       string  `json:"mobile" binding:"required"`
	Amount       float64 `json:"amount" binding:"required"`
	PurchaseDate string  `json:"purchase_date"`
}

// SaleAck is returned to the terminal once the event is queued.
type SaleAck struct {
	EventID    string    `json:"event_id"`
	TerminalID string    `json:"terminal_id"`
	AcceptedAt time.Time `json:"accepted_at"`
}

type queuedSale struct {
	EventID string
	Event   SaleEvent
}

// POSBridge simulates a fleet of POS terminals feeding the loyalty API. Sales
// arrive over a small gin server, get queued, and a worker pool forwards each
// one as a purchase with an Idempotency-Key so the engine can be restarted
// mid-run without double-accrual.
type POSBridge struct {
	apiBaseURL string
	client     *http.Client
	pool       *worker.WorkerManager
}

func NewPOSBridge(apiBaseURL string, terminals int) *POSBridge {
	return &POSBridge{
		apiBaseURL: apiBaseURL,
		client:     &http.Client{Timeout: 10 * time.Second},
		pool:       worker.NewWorkerManager(256, terminals, nil),
	}
}

func (b *POSBridge) Start() {
	b.pool.Start(func(workerIndex int, job interface{}) {
		sale, ok := job.(queuedSale)
		if !ok {
			return
		}
		b.forward(workerIndex, sale)
	})
}

func (b *POSBridge) forward(workerIndex int, sale queuedSale) {
	payload, _ := json.Marshal(map[string]interface{}{
		"name":          sale.Event.Name,
		"mobile":        sale.Event.Mobile,
		"amount":        sale.Event.Amount,
		"purchase_date": sale.Event.PurchaseDate,
	})

	req, err := http.NewRequest(http.MethodPost, b.apiBaseURL+"/api/v1/purchases", bytes.NewReader(payload))
	if err != nil {
		log.Error().Err(err).Str("event_id", sale.EventID).Msg("failed to build purchase request")
		return
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Idempotency-Key", sale.EventID)

	resp, err := b.client.Do(req)
	if err != nil {
		log.Error().Err(err).Str("event_id", sale.EventID).Msg("purchase forward failed")
		return
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusCreated:
		log.Info().
			Int("terminal", workerIndex).
			Str("event_id", sale.EventID).
			Str("mobile", sale.Event.Mobile).
			Float64("amount", sale.Event.Amount).
			Msg("sale recorded")
	case resp.StatusCode == http.StatusConflict:
		log.Warn().
			Str("event_id", sale.EventID).
			Msg("duplicate sale suppressed by idempotency guard")
	default:
		log.Error().
			Str("event_id", sale.EventID).
			Int("status", resp.StatusCode).
			Msg("loyalty api rejected sale")
	}
}

func (b *POSBridge) handleSale(c *gin.Context) {
	var event SaleEvent
	if err := c.ShouldBindJSON(&event); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if event.TerminalID == "" {
		event.TerminalID = "POS_" + uuid.New().String()[:8]
	}

	sale := queuedSale{
		EventID: uuid.New().String(),
		Event:   event,
	}
	b.pool.Publish(sale)

	c.JSON(http.StatusAccepted, SaleAck{
		EventID:    sale.EventID,
		TerminalID: event.TerminalID,
		AcceptedAt: time.Now(),
	})
}

func (b *POSBridge) handleHealth(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":    "healthy",
		"timestamp": time.Now(),
	})
}

func main() {
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})

	apiURL := envOr("LOYALTY_API_URL", "http://localhost:5000")
	listenAddr := envOr("POSSIM_LISTEN_ADDR", ":8090")
	terminals := 4

	bridge := NewPOSBridge(apiURL, terminals)
	bridge.Start()

	gin.SetMode(gin.ReleaseMode)
	r := gin.New()
	r.Use(gin.Recovery())
	r.POST("/pos/sale", bridge.handleSale)
	r.GET("/health", bridge.handleHealth)

	srv := &http.Server{Addr: listenAddr, Handler: r}
	go func() {
		log.Info().Str("addr", listenAddr).Str("api", apiURL).Msg("POS simulator listening")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("server error")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("shutting down POS simulator")
	bridge.pool.Exit()
	_ = srv.Close()
	fmt.Println("bye")
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
