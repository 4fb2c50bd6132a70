package stock

import (
	"context"
	"encoding/csv"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
)

var csvColumns = []string{"itemId", "description", "unitName", "subUnitCount", "totalUnits", "quantity"}

// ImportSummary reports how a batch import went.
type ImportSummary struct {
	Imported int `json:"imported"`
	Skipped  int `json:"skipped"`
}

// ToCSV renders stock items as CSV: header row, CRLF line terminator,
// string fields quoted with "" escaping, numeric fields unquoted.
func ToCSV(items []StockItem) string {
	var b strings.Builder
	b.WriteString(strings.Join(csvColumns, ","))
	b.WriteString("\r\n")
	for _, item := range items {
		fields := []string{
			quoteCSV(item.ItemID),
			quoteCSV(item.Description),
			quoteCSV(item.UnitName),
			formatCSVNumber(item.SubUnitCount),
			formatCSVNumber(item.TotalUnits),
			formatCSVNumber(item.Quantity),
		}
		b.WriteString(strings.Join(fields, ","))
		b.WriteString("\r\n")
	}
	return b.String()
}

// FromCSV parses the CSV produced by ToCSV (or a legacy export missing
// the newer columns). Absent columns are left to reconciliation to
// repair; present but unparsable numerics default to 0. Every returned
// item is already normalized.
func FromCSV(data string) ([]StockItem, error) {
	reader := csv.NewReader(strings.NewReader(data))
	reader.FieldsPerRecord = -1
	rows, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("stock: parse csv: %w", err)
	}
	if len(rows) == 0 {
		return nil, errors.New("stock: csv missing header row")
	}
	header := rows[0]
	index := make(map[string]int, len(header))
	for i, name := range header {
		index[strings.TrimSpace(name)] = i
	}
	items := make([]StockItem, 0, len(rows)-1)
	for _, row := range rows[1:] {
		cell := func(name string) (string, bool) {
			i, ok := index[name]
			if !ok || i >= len(row) {
				return "", false
			}
			return row[i], true
		}
		text := func(name string) string {
			v, _ := cell(name)
			return v
		}
		rec := itemRecord{
			ItemID:       text("itemId"),
			Description:  text("description"),
			UnitName:     text("unitName"),
			SubUnitCount: parseCSVNumber(cell("subUnitCount")),
			TotalUnits:   parseCSVNumber(cell("totalUnits")),
			Quantity:     parseCSVNumber(cell("quantity")),
		}
		item, _ := reconcileRecord(rec)
		items = append(items, item)
	}
	return items, nil
}

// ToJSON renders stock items as a JSON array of plain records.
func ToJSON(items []StockItem) ([]byte, error) {
	return json.MarshalIndent(items, "", "  ")
}

// FromJSON parses a JSON array of stock item records, including legacy
// records that predate subUnitCount/totalUnits/unitName. Every returned
// item is already normalized.
func FromJSON(data []byte) ([]StockItem, error) {
	var records []itemRecord
	if err := json.Unmarshal(data, &records); err != nil {
		return nil, fmt.Errorf("stock: parse json: %w", err)
	}
	items := make([]StockItem, 0, len(records))
	for _, rec := range records {
		item, _ := reconcileRecord(rec)
		items = append(items, item)
	}
	return items, nil
}

// Import applies a batch of normalized stock item records. Records
// without an itemId are skipped and counted, as are records the store
// rejects; the rest of the batch continues either way.
func (s *Service) Import(ctx context.Context, items []StockItem) ImportSummary {
	var summary ImportSummary
	for _, item := range items {
		if strings.TrimSpace(item.ItemID) == "" {
			summary.Skipped++
			continue
		}
		normalized, _ := Reconcile(item)
		if err := s.repo.Put(ctx, normalized); err != nil {
			if s.logger != nil {
				s.logger.Warn("import stock item failed",
					slog.String("itemId", item.ItemID), slog.Any("error", err))
			}
			summary.Skipped++
			continue
		}
		summary.Imported++
	}
	return summary
}

func quoteCSV(s string) string {
	return `"` + strings.ReplaceAll(s, `"`, `""`) + `"`
}

func formatCSVNumber(f float64) string {
	return strconv.FormatFloat(f, 'f', -1, 64)
}

// parseCSVNumber keeps absent cells distinct from unparsable ones:
// absent means nil (reconciliation decides), unparsable means 0.
func parseCSVNumber(s string, ok bool) *float64 {
	if !ok || strings.TrimSpace(s) == "" {
		return nil
	}
	f, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil {
		f = 0
	}
	return &f
}
