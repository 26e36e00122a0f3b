package repository

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"github.com/nimasrn/loyalty-engine/internal/model"
)

var (
	ErrStoreUnavailable = errors.New("store file is not accessible")
)

// Canonical column sets. Load reorders whatever is on disk to this schema and
// backfills columns that are missing, Save always writes exactly these.
var customerColumns = []string{
	"Customer_ID", "Name", "Mobile",
	"Total_Purchase", "Points", "Redeemed_Points",
	"Purchase_Date",
}

var historyColumns = []string{
	"Txn_ID", "Customer_ID", "Name", "Mobile",
	"Purchase_Date", "Amount", "Points_Earned",
}

// CSVCustomerStore keeps the customer ledger in a delimited text file with a
// header row. The whole dataset is read and rewritten on every operation.
type CSVCustomerStore struct {
	path string
}

func NewCSVCustomerStore(path string) *CSVCustomerStore {
	return &CSVCustomerStore{path: path}
}

func (s *CSVCustomerStore) Load(ctx context.Context) ([]model.Customer, error) {
	rows, err := loadTable(s.path, customerColumns)
	if err != nil {
		return nil, err
	}

	customers := make([]model.Customer, 0, len(rows))
	for _, row := range rows {
		customers = append(customers, model.Customer{
			CustomerID:     row["Customer_ID"],
			Name:           row["Name"],
			Mobile:         row["Mobile"],
			TotalPurchase:  intOrZero(row["Total_Purchase"]),
			Points:         intOrZero(row["Points"]),
			RedeemedPoints: intOrZero(row["Redeemed_Points"]),
			PurchaseDate:   row["Purchase_Date"],
		})
	}
	return customers, nil
}

func (s *CSVCustomerStore) Save(ctx context.Context, customers []model.Customer) error {
	rows := make([][]string, 0, len(customers))
	for _, c := range customers {
		rows = append(rows, []string{
			c.CustomerID, c.Name, c.Mobile,
			strconv.Itoa(c.TotalPurchase),
			strconv.Itoa(c.Points),
			strconv.Itoa(c.RedeemedPoints),
			c.PurchaseDate,
		})
	}
	return saveTable(s.path, customerColumns, rows)
}

// CSVHistoryStore keeps the purchase history in its own delimited file.
// Records are appended by the engine and never mutated.
type CSVHistoryStore struct {
	path string
}

func NewCSVHistoryStore(path string) *CSVHistoryStore {
	return &CSVHistoryStore{path: path}
}

func (s *CSVHistoryStore) Load(ctx context.Context) ([]model.Transaction, error) {
	rows, err := loadTable(s.path, historyColumns)
	if err != nil {
		return nil, err
	}

	txns := make([]model.Transaction, 0, len(rows))
	for _, row := range rows {
		txns = append(txns, model.Transaction{
			TxnID:        row["Txn_ID"],
			CustomerID:   row["Customer_ID"],
			Name:         row["Name"],
			Mobile:       row["Mobile"],
			PurchaseDate: row["Purchase_Date"],
			Amount:       floatOrZero(row["Amount"]),
			PointsEarned: intOrZero(row["Points_Earned"]),
		})
	}
	return txns, nil
}

func (s *CSVHistoryStore) Save(ctx context.Context, txns []model.Transaction) error {
	rows := make([][]string, 0, len(txns))
	for _, t := range txns {
		rows = append(rows, []string{
			t.TxnID, t.CustomerID, t.Name, t.Mobile,
			t.PurchaseDate,
			strconv.FormatFloat(t.Amount, 'f', -1, 64),
			strconv.Itoa(t.PointsEarned),
		})
	}
	return saveTable(s.path, historyColumns, rows)
}

// loadTable reads path into column-keyed rows, creating the file with a header
// row first if it does not exist. Columns absent from the file come back as
// empty strings so callers only ever see the canonical schema.
func loadTable(path string, columns []string) ([]map[string]string, error) {
	if err := ensureFile(path, columns); err != nil {
		return nil, err
	}

	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}
	defer f.Close()

	r := csv.NewReader(f)
	r.FieldsPerRecord = -1 // rows written by older schema versions may be short
	records, err := r.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	if len(records) == 0 {
		return nil, nil
	}

	// map on-disk header positions, unknown columns are ignored
	index := make(map[string]int, len(records[0]))
	for i, name := range records[0] {
		index[name] = i
	}

	rows := make([]map[string]string, 0, len(records)-1)
	for _, record := range records[1:] {
		row := make(map[string]string, len(columns))
		for _, col := range columns {
			i, ok := index[col]
			if !ok || i >= len(record) {
				row[col] = ""
				continue
			}
			row[col] = record[i]
		}
		rows = append(rows, row)
	}
	return rows, nil
}

// saveTable rewrites the whole file. It writes to a temp file in the same
// directory and renames it over the target so a crash mid-save cannot leave a
// truncated dataset behind.
func saveTable(path string, columns []string, rows [][]string) error {
	dir := filepath.Dir(path)
	tmp, err := os.CreateTemp(dir, filepath.Base(path)+".tmp-*")
	if err != nil {
		return fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}
	defer os.Remove(tmp.Name())

	w := csv.NewWriter(tmp)
	if err := w.Write(columns); err != nil {
		tmp.Close()
		return err
	}
	if err := w.WriteAll(rows); err != nil {
		tmp.Close()
		return err
	}
	w.Flush()
	if err := w.Error(); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	return os.Rename(tmp.Name(), path)
}

func ensureFile(path string, columns []string) error {
	if _, err := os.Stat(path); err == nil {
		return nil
	} else if !os.IsNotExist(err) {
		return fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}
	return saveTable(path, columns, nil)
}

// Malformed numerics on disk coerce to zero instead of failing the load.
func intOrZero(s string) int {
	if s == "" {
		return 0
	}
	if n, err := strconv.Atoi(s); err == nil {
		return n
	}
	if f, err := strconv.ParseFloat(s, 64); err == nil {
		return int(f)
	}
	return 0
}

func floatOrZero(s string) float64 {
	if s == "" {
		return 0
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0
	}
	return f
}
