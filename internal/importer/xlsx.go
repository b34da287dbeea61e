package importer

import (
	"fmt"
	"io"
	"log/slog"
	"strconv"
	"strings"

	"github.com/Veraticus/clearance/internal/model"
	"github.com/xuri/excelize/v2"
)

// Sheet names used in workbooks.
const (
	ItemsSheet  = "Items"
	HeaderSheet = "Header"
)

// Header sheet keys.
const (
	keyTitle        = "title"
	keyCurrency     = "currencyCode"
	keyExchangeRate = "exchangeRateToDomestic"
	keyDomesticMode = "useDomesticCostMode"
)

// ReadXLSX reads line items from the "Items" sheet (or the first sheet) and the document header
// from an optional "Header" sheet of key/value rows. The first non-empty row of the items sheet
// names the columns; unknown columns are ignored.
func ReadXLSX(r io.Reader) (model.Document, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return model.Document{}, fmt.Errorf("failed to open workbook: %w", err)
	}
	defer func() { _ = f.Close() }()

	sheet := ItemsSheet
	if idx, err := f.GetSheetIndex(ItemsSheet); err != nil || idx < 0 {
		sheet = f.GetSheetName(0)
	}
	if sheet == "" {
		return model.Document{}, fmt.Errorf("workbook has no sheets")
	}

	rows, err := f.GetRows(sheet)
	if err != nil {
		return model.Document{}, fmt.Errorf("failed to read rows: %w", err)
	}

	var (
		doc     model.Document
		columns map[int]model.Field
	)

	for i, row := range rows {
		if isRowEmpty(row) {
			continue
		}

		if columns == nil {
			columns = mapColumns(row)
			if len(columns) == 0 {
				return model.Document{}, fmt.Errorf("row %d: no recognizable column headers", i+1)
			}
			continue
		}

		item := model.NewLineItem()
		for col, field := range columns {
			if col < len(row) {
				item.Set(field, strings.TrimSpace(row[col]))
			}
		}
		doc.Items = append(doc.Items, item)
	}

	if idx, err := f.GetSheetIndex(HeaderSheet); err == nil && idx >= 0 {
		header, err := readHeader(f)
		if err != nil {
			return model.Document{}, err
		}
		doc.Header = header
	}

	return doc, nil
}

func readHeader(f *excelize.File) (model.DocumentHeader, error) {
	rows, err := f.GetRows(HeaderSheet)
	if err != nil {
		return model.DocumentHeader{}, fmt.Errorf("failed to read header rows: %w", err)
	}

	var header model.DocumentHeader
	for i, row := range rows {
		if len(row) < 2 || isRowEmpty(row) {
			continue
		}
		key, value := normalizeHeader(row[0]), strings.TrimSpace(row[1])

		switch key {
		case normalizeHeader(keyTitle):
			header.Title = value
		case normalizeHeader(keyCurrency):
			header.CurrencyCode = value
		case normalizeHeader(keyExchangeRate):
			rate := model.ParseNumber(value)
			if !rate.IsBlank() {
				header.ExchangeRateToDomestic = rate.Float()
			}
		case normalizeHeader(keyDomesticMode):
			mode, err := parseBool(value)
			if err != nil {
				return model.DocumentHeader{}, fmt.Errorf("header row %d: %w", i+1, err)
			}
			header.UseDomesticCostMode = mode
		default:
			slog.Debug("Ignoring unknown header key", "key", row[0])
		}
	}

	return header, nil
}

// WriteXLSX writes the document as a workbook with an "Items" and a "Header" sheet.
func WriteXLSX(w io.Writer, doc model.Document) error {
	f := excelize.NewFile()
	defer func() { _ = f.Close() }()

	if err := f.SetSheetName(f.GetSheetName(0), ItemsSheet); err != nil {
		return fmt.Errorf("failed to name items sheet: %w", err)
	}

	headerRow := make([]any, 0, len(model.Columns))
	for _, field := range model.Columns {
		headerRow = append(headerRow, string(field))
	}
	if err := f.SetSheetRow(ItemsSheet, "A1", &headerRow); err != nil {
		return fmt.Errorf("failed to write column headers: %w", err)
	}

	bold, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return fmt.Errorf("failed to create header style: %w", err)
	}
	if err := f.SetRowStyle(ItemsSheet, 1, 1, bold); err != nil {
		return fmt.Errorf("failed to style column headers: %w", err)
	}

	for i, item := range doc.Items {
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return fmt.Errorf("failed to address row %d: %w", i+2, err)
		}
		values := rowValues(item)
		if err := f.SetSheetRow(ItemsSheet, cell, &values); err != nil {
			return fmt.Errorf("failed to write row %d: %w", i+2, err)
		}
	}

	if _, err := f.NewSheet(HeaderSheet); err != nil {
		return fmt.Errorf("failed to create header sheet: %w", err)
	}
	headerRows := [][]any{
		{keyTitle, doc.Header.Title},
		{keyCurrency, doc.Header.CurrencyCode},
		{keyExchangeRate, doc.Header.ExchangeRateToDomestic},
		{keyDomesticMode, strconv.FormatBool(doc.Header.UseDomesticCostMode)},
	}
	for i, row := range headerRows {
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		if err != nil {
			return fmt.Errorf("failed to address header row %d: %w", i+1, err)
		}
		if err := f.SetSheetRow(HeaderSheet, cell, &row); err != nil {
			return fmt.Errorf("failed to write header row %d: %w", i+1, err)
		}
	}

	if err := f.Write(w); err != nil {
		return fmt.Errorf("failed to write workbook: %w", err)
	}
	return nil
}

// rowValues renders an item in column order; blank numbers become empty cells.
func rowValues(item model.LineItem) []any {
	values := make([]any, 0, len(model.Columns))
	for _, field := range model.Columns {
		v, _ := item.Get(field)
		if !isNumberField(field) {
			values = append(values, v.Text)
			continue
		}
		if n, ok := v.Numeric(); ok {
			values = append(values, n)
		} else {
			values = append(values, nil)
		}
	}
	return values
}

func isNumberField(f model.Field) bool {
	switch f {
	case model.FieldProductNameLocal, model.FieldProductNameForeign, model.FieldHSCode,
		model.FieldUnit, model.FieldPackageType, model.FieldDeclarationElements, model.FieldRemark:
		return false
	default:
		return true
	}
}

// mapColumns matches header cells to fields, ignoring case, spaces, underscores and dashes.
func mapColumns(row []string) map[int]model.Field {
	known := make(map[string]model.Field, len(model.Columns))
	for _, f := range model.Fields() {
		known[normalizeHeader(string(f))] = f
	}

	columns := make(map[int]model.Field)
	for i, cell := range row {
		if f, ok := known[normalizeHeader(cell)]; ok {
			columns[i] = f
		} else if strings.TrimSpace(cell) != "" {
			slog.Debug("Ignoring unknown column", "column", cell)
		}
	}
	return columns
}

func normalizeHeader(s string) string {
	s = strings.ToLower(strings.TrimSpace(s))
	return strings.NewReplacer(" ", "", "_", "", "-", "").Replace(s)
}

func isRowEmpty(row []string) bool {
	for _, cell := range row {
		if strings.TrimSpace(cell) != "" {
			return false
		}
	}
	return true
}

func parseBool(s string) (bool, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "false", "no", "n", "0":
		return false, nil
	case "true", "yes", "y", "1":
		return true, nil
	default:
		return false, fmt.Errorf("invalid boolean %q", s)
	}
}
