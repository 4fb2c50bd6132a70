package catalog

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

// csvColumns fixes the product CSV column order.
var csvColumns = []string{"id", "name", "category", "price", "description"}

// ImportSummary reports how a batch import went. Failed records do not
// abort the batch; they are counted.
type ImportSummary struct {
	Imported int `json:"imported"`
	Skipped  int `json:"skipped"`
}

// ToCSV renders products as CSV: header row, CRLF line terminator,
// string fields quoted with "" escaping, numeric fields unquoted.
func ToCSV(products []Product) string {
	var b strings.Builder
	b.WriteString(strings.Join(csvColumns, ","))
	b.WriteString("\r\n")
	for _, p := range products {
		fields := []string{
			quoteCSV(p.ID),
			quoteCSV(p.Name),
			quoteCSV(p.Category),
			formatCSVNumber(p.Price),
			quoteCSV(p.Description),
		}
		b.WriteString(strings.Join(fields, ","))
		b.WriteString("\r\n")
	}
	return b.String()
}

// FromCSV parses the CSV produced by ToCSV (or a compatible export).
// Unparsable numeric fields default to 0.
func FromCSV(data string) ([]Product, error) {
	reader := csv.NewReader(strings.NewReader(data))
	reader.FieldsPerRecord = -1
	rows, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("catalog: parse csv: %w", err)
	}
	if len(rows) == 0 {
		return nil, errors.New("catalog: csv missing header row")
	}
	header := rows[0]
	index := make(map[string]int, len(header))
	for i, name := range header {
		index[strings.TrimSpace(name)] = i
	}
	products := make([]Product, 0, len(rows)-1)
	for _, row := range rows[1:] {
		cell := func(name string) string {
			i, ok := index[name]
			if !ok || i >= len(row) {
				return ""
			}
			return row[i]
		}
		products = append(products, Product{
			ID:          cell("id"),
			Name:        cell("name"),
			Category:    cell("category"),
			Price:       parseCSVNumber(cell("price")),
			Description: cell("description"),
		})
	}
	return products, nil
}

// ToJSON renders products as a JSON array of plain records.
func ToJSON(products []Product) ([]byte, error) {
	return json.MarshalIndent(products, "", "  ")
}

// FromJSON parses a JSON array of product records.
func FromJSON(data []byte) ([]Product, error) {
	var products []Product
	if err := json.Unmarshal(data, &products); err != nil {
		return nil, fmt.Errorf("catalog: parse json: %w", err)
	}
	return products, nil
}

// Import applies a batch of product records. Records missing id or name
// are skipped and counted separately; a storage failure on one record
// does not abort the rest.
func (s *Service) Import(ctx context.Context, logger *slog.Logger, products []Product) ImportSummary {
	var summary ImportSummary
	for _, p := range products {
		if strings.TrimSpace(p.ID) == "" || strings.TrimSpace(p.Name) == "" {
			summary.Skipped++
			continue
		}
		if p.Price < 0 {
			p.Price = 0
		}
		if err := s.repo.Put(ctx, p); err != nil {
			if logger != nil {
				logger.Warn("import product failed", slog.String("id", p.ID), slog.Any("error", err))
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

func parseCSVNumber(s string) float64 {
	f, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil {
		return 0
	}
	return f
}
