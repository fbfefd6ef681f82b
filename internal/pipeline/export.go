package pipeline

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/perfin-dev/perfin/internal/model"
)

// ExportHeader is the CSV header for the canonical batch export.
const ExportHeader = "date,method,description,type,category,subcategory,debit,credit,account,balance,imported_date"

const exportDateFormat = "2006-01-02"

// WriteCanonical writes canonical rows as CSV in ledger column order.
func WriteCanonical(w io.Writer, txs []model.Transaction) error {
	cw := csv.NewWriter(w)
	defer cw.Flush()

	if err := cw.Write(strings.Split(ExportHeader, ",")); err != nil {
		return fmt.Errorf("writing header: %w", err)
	}
	for i, tx := range txs {
		row := []string{
			tx.Date.Format(exportDateFormat),
			tx.Method,
			tx.Description,
			tx.Type,
			tx.Category,
			tx.Subcategory,
			amountString(tx.Debit),
			amountString(tx.Credit),
			tx.Account,
			amountString(tx.Balance),
			tx.ImportedDate.Format(exportDateFormat),
		}
		if err := cw.Write(row); err != nil {
			return fmt.Errorf("writing row %d: %w", i+2, err)
		}
	}
	return cw.Error()
}

// ExportFileName names a batch export by the date range it covers and
// the day it was imported.
func ExportFileName(earliest, latest, imported time.Time) string {
	return fmt.Sprintf("transactions_%s_to_%s_imported_%s.csv",
		earliest.Format(exportDateFormat),
		latest.Format(exportDateFormat),
		imported.Format(exportDateFormat))
}

// Export writes the committed batch to a CSV file in dir and returns
// its path.
func Export(dir string, txs []model.Transaction) (string, error) {
	if len(txs) == 0 {
		return "", fmt.Errorf("nothing to export")
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("creating export dir: %w", err)
	}

	// Rows are already date-sorted, so the range is first to last.
	path := filepath.Join(dir, ExportFileName(txs[0].Date, txs[len(txs)-1].Date, txs[0].ImportedDate))
	f, err := os.Create(path)
	if err != nil {
		return "", fmt.Errorf("creating export file: %w", err)
	}
	defer f.Close()

	if err := WriteCanonical(f, txs); err != nil {
		return "", fmt.Errorf("writing export %s: %w", path, err)
	}
	return path, nil
}

func amountString(d decimal.NullDecimal) string {
	if !d.Valid {
		return ""
	}
	return d.Decimal.StringFixed(2)
}
