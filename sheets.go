package autoinvest

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"
)

// Defaults matching the layout of the investments spreadsheet.
const (
	sheetsBaseURL = "https://sheets.googleapis.com/v4/spreadsheets"

	// Column headers live on the fourth row of every sheet.
	sheetsHeaderRow = 4

	// The "Main" sheet aggregates the others; its weekly column holds the
	// grand total, not a target.
	sheetsMainTitle = "Main"

	sheetsSymbolHeader = "Symbol"
	sheetsAmountHeader = "Weekly Investment"
)

// SheetsClient reads weekly investment targets from a Google Sheets
// spreadsheet through the v4 REST API with an API key.
//
// The whole grid is fetched once per client and reused across calls, so one
// cycle costs a single spreadsheet read.
type SheetsClient struct {
	SpreadsheetID string
	APIKey        string

	// BaseURL overrides the Google endpoint; tests point it at a local
	// server.
	BaseURL string

	Client *http.Client

	grid *sheetsGrid
}

// Structures for the parts of the v4 grid response we read.
type sheetsGrid struct {
	Sheets []sheetsSheet `json:"sheets"`
}
type sheetsSheet struct {
	Properties struct {
		Title string `json:"title"`
	} `json:"properties"`
	Data []struct {
		RowData []sheetsRow `json:"rowData"`
	} `json:"data"`
}
type sheetsRow struct {
	Values []struct {
		FormattedValue string `json:"formattedValue"`
	} `json:"values"`
}

// cell returns the formatted value at the given column, empty when the row is
// shorter.
func (r sheetsRow) cell(col int) string {
	if col < 0 || col >= len(r.Values) {
		return ""
	}
	return strings.TrimSpace(r.Values[col].FormattedValue)
}

// fetch loads and memoizes the full spreadsheet grid.
func (s *SheetsClient) fetch(ctx context.Context) (*sheetsGrid, error) {
	if s.grid != nil {
		return s.grid, nil
	}
	base := s.BaseURL
	if base == "" {
		base = sheetsBaseURL
	}
	addr := fmt.Sprintf("%s/%s?includeGridData=true&key=%s", base, s.SpreadsheetID, url.QueryEscape(s.APIKey))
	client := s.Client
	if client == nil {
		client = http.DefaultClient
	}
	var grid sheetsGrid
	if err := jwget(ctx, client, addr, "", &grid); err != nil {
		return nil, fmt.Errorf("fetching spreadsheet %s: %w", s.SpreadsheetID, err)
	}
	s.grid = &grid
	return s.grid, nil
}

// columns locates the symbol and amount columns on the header row of one
// sheet. ok is false when the sheet does not carry both headers.
func columns(rows []sheetsRow) (symbol, amount int, ok bool) {
	if len(rows) < sheetsHeaderRow {
		return 0, 0, false
	}
	header := rows[sheetsHeaderRow-1]
	symbol, amount = -1, -1
	for col := range header.Values {
		switch header.cell(col) {
		case sheetsSymbolHeader:
			symbol = col
		case sheetsAmountHeader:
			amount = col
		}
	}
	return symbol, amount, symbol >= 0 && amount >= 0
}

// AllRecurringInvestments collects the (symbol, weekly amount) pairs of every
// sheet except the aggregate one, in sheet then row order. Rows without a
// symbol or without a positive amount are skipped.
func (s *SheetsClient) AllRecurringInvestments(ctx context.Context) (*Batch, error) {
	grid, err := s.fetch(ctx)
	if err != nil {
		return nil, err
	}
	batch := NewBatch()
	for _, sheet := range grid.Sheets {
		if sheet.Properties.Title == sheetsMainTitle || len(sheet.Data) == 0 {
			continue
		}
		rows := sheet.Data[0].RowData
		symbolCol, amountCol, ok := columns(rows)
		if !ok {
			continue
		}
		for _, row := range rows[sheetsHeaderRow:] {
			symbol := row.cell(symbolCol)
			if symbol == "" {
				continue
			}
			amount, err := parseSheetAmount(row.cell(amountCol))
			if err != nil || !amount.IsPositive() {
				continue
			}
			batch.Add(symbol, amount)
		}
	}
	return batch, nil
}

// TotalRecurringInvestmentsValue reads the grand total maintained by the
// aggregate sheet: the last non-empty value of its weekly column.
func (s *SheetsClient) TotalRecurringInvestmentsValue(ctx context.Context) (Money, error) {
	grid, err := s.fetch(ctx)
	if err != nil {
		return Money{}, err
	}
	for _, sheet := range grid.Sheets {
		if sheet.Properties.Title != sheetsMainTitle || len(sheet.Data) == 0 {
			continue
		}
		rows := sheet.Data[0].RowData
		_, amountCol, ok := columns(rows)
		if !ok {
			return Money{}, fmt.Errorf("sheet %q has no %q column", sheetsMainTitle, sheetsAmountHeader)
		}
		for i := len(rows) - 1; i >= sheetsHeaderRow; i-- {
			cell := rows[i].cell(amountCol)
			if cell == "" {
				continue
			}
			total, err := parseSheetAmount(cell)
			if err != nil {
				return Money{}, fmt.Errorf("sheet %q total: %w", sheetsMainTitle, err)
			}
			return total, nil
		}
		return Money{}, fmt.Errorf("sheet %q has no total value", sheetsMainTitle)
	}
	return Money{}, fmt.Errorf("spreadsheet has no %q sheet", sheetsMainTitle)
}

// parseSheetAmount reads a currency cell the way the spreadsheet formats it
// ("$1,234.56").
func parseSheetAmount(cell string) (Money, error) {
	cell = strings.TrimSpace(cell)
	cell = strings.TrimPrefix(cell, "$")
	cell = strings.ReplaceAll(cell, ",", "")
	return ParseMoney(cell, "USD")
}
