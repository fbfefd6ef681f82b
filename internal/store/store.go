// Package store persists the canonical ledger in a local sqlite
// database. The transactions table is append-only and deduplicated by
// a content-derived key; the subcategories table is the only mutable
// structure and is upserted by label.
package store

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	_ "modernc.org/sqlite"

	"github.com/perfin-dev/perfin/internal/id"
	"github.com/perfin-dev/perfin/internal/model"
	"github.com/perfin-dev/perfin/internal/rules"
)

const dateFormat = "2006-01-02"

const schema = `
CREATE TABLE IF NOT EXISTS transactions (
	id            INTEGER PRIMARY KEY AUTOINCREMENT,
	date          TEXT NOT NULL,
	method        TEXT NOT NULL,
	description   TEXT NOT NULL,
	type          TEXT NOT NULL,
	category      TEXT NOT NULL,
	subcategory   TEXT NOT NULL,
	debit         TEXT,
	credit        TEXT,
	account       TEXT NOT NULL,
	balance       TEXT,
	imported_date TEXT NOT NULL,
	dedup_key     TEXT NOT NULL UNIQUE
);

CREATE TABLE IF NOT EXISTS subcategories (
	label       TEXT PRIMARY KEY,
	category    TEXT NOT NULL,
	methods     TEXT NOT NULL DEFAULT '',
	amounts     TEXT NOT NULL DEFAULT '',
	descr_tells TEXT NOT NULL DEFAULT ''
);
`

// Store wraps the sqlite database holding the ledger.
type Store struct {
	db  *sql.DB
	log zerolog.Logger
}

// Open opens (or creates) the database at path and ensures the schema
// exists. The parent directory is created if missing.
func Open(path string, log zerolog.Logger) (*Store, error) {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("creating database dir: %w", err)
		}
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}
	if _, err := db.Exec(schema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("creating schema: %w", err)
	}
	return &Store{db: db, log: log}, nil
}

// Close closes the underlying database.
func (s *Store) Close() error {
	return s.db.Close()
}

// BatchResult reports what a commit actually wrote.
type BatchResult struct {
	Inserted   int
	Duplicates int // rows already present from an earlier run
}

// CommitBatch appends canonical transactions and upserts the rule set
// as one atomic unit. On any failure nothing is committed, so a retry
// is safe; rows committed by an earlier run are recognized by their
// dedup key and skipped, not double-counted.
func (s *Store) CommitBatch(ctx context.Context, txs []model.Transaction, rls []model.SubcategoryRule) (BatchResult, error) {
	var res BatchResult

	dbTx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return res, fmt.Errorf("beginning batch: %w", err)
	}
	defer func() {
		if err != nil {
			_ = dbTx.Rollback()
		}
	}()

	for _, tx := range txs {
		var inserted bool
		inserted, err = insertTransaction(ctx, dbTx, tx)
		if err != nil {
			return res, fmt.Errorf("inserting transaction %q: %w", tx.Description, err)
		}
		if inserted {
			res.Inserted++
		} else {
			res.Duplicates++
		}
	}

	for _, rule := range rls {
		if err = upsertRule(ctx, dbTx, rule); err != nil {
			return res, fmt.Errorf("upserting rule %q: %w", rule.Label, err)
		}
	}

	if err = dbTx.Commit(); err != nil {
		return res, fmt.Errorf("committing batch: %w", err)
	}

	s.log.Info().
		Int("inserted", res.Inserted).
		Int("duplicates", res.Duplicates).
		Int("rules", len(rls)).
		Msg("batch committed")
	return res, nil
}

// UpsertRules writes the rule set on its own, outside an import run.
// Idempotent: re-running with unchanged input leaves storage unchanged.
func (s *Store) UpsertRules(ctx context.Context, rls []model.SubcategoryRule) error {
	dbTx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning upsert: %w", err)
	}
	defer func() {
		if err != nil {
			_ = dbTx.Rollback()
		}
	}()

	for _, rule := range rls {
		if err = upsertRule(ctx, dbTx, rule); err != nil {
			return fmt.Errorf("upserting rule %q: %w", rule.Label, err)
		}
	}
	if err = dbTx.Commit(); err != nil {
		return fmt.Errorf("committing upsert: %w", err)
	}
	return nil
}

func insertTransaction(ctx context.Context, dbTx *sql.Tx, tx model.Transaction) (bool, error) {
	const query = `
		INSERT INTO transactions
			(date, method, description, type, category, subcategory,
			 debit, credit, account, balance, imported_date, dedup_key)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(dedup_key) DO NOTHING`

	res, err := dbTx.ExecContext(ctx, query,
		tx.Date.Format(dateFormat),
		tx.Method,
		tx.Description,
		tx.Type,
		tx.Category,
		tx.Subcategory,
		nullAmount(tx.Debit),
		nullAmount(tx.Credit),
		tx.Account,
		nullAmount(tx.Balance),
		tx.ImportedDate.Format(dateFormat),
		id.DedupKey(tx),
	)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n == 1, nil
}

func upsertRule(ctx context.Context, dbTx *sql.Tx, rule model.SubcategoryRule) error {
	const query = `
		INSERT INTO subcategories (label, category, methods, amounts, descr_tells)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(label) DO UPDATE SET
			category = excluded.category,
			methods = excluded.methods,
			amounts = excluded.amounts,
			descr_tells = excluded.descr_tells`

	_, err := dbTx.ExecContext(ctx, query,
		rule.Label,
		rule.Category,
		rules.EncodeList(rule.Methods),
		rules.EncodeAmounts(rule.AmountMin, rule.AmountMax),
		rules.EncodeList(rule.Tells),
	)
	return err
}

// Transactions returns the whole ledger in ascending date order.
func (s *Store) Transactions(ctx context.Context) ([]model.Transaction, error) {
	const query = `
		SELECT date, method, description, type, category, subcategory,
		       debit, credit, account, balance, imported_date
		FROM transactions
		ORDER BY date ASC, id ASC`

	rows, err := s.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("querying transactions: %w", err)
	}
	defer rows.Close()

	var txs []model.Transaction
	for rows.Next() {
		var (
			tx                     model.Transaction
			dateStr, importedStr   string
			debit, credit, balance sql.NullString
		)
		if err := rows.Scan(
			&dateStr, &tx.Method, &tx.Description, &tx.Type,
			&tx.Category, &tx.Subcategory,
			&debit, &credit, &tx.Account, &balance, &importedStr,
		); err != nil {
			return nil, fmt.Errorf("scanning transaction: %w", err)
		}

		if tx.Date, err = time.Parse(dateFormat, dateStr); err != nil {
			return nil, fmt.Errorf("parsing stored date %q: %w", dateStr, err)
		}
		if tx.ImportedDate, err = time.Parse(dateFormat, importedStr); err != nil {
			return nil, fmt.Errorf("parsing stored imported_date %q: %w", importedStr, err)
		}
		if tx.Debit, err = scanAmount(debit); err != nil {
			return nil, err
		}
		if tx.Credit, err = scanAmount(credit); err != nil {
			return nil, err
		}
		if tx.Balance, err = scanAmount(balance); err != nil {
			return nil, err
		}
		txs = append(txs, tx)
	}
	return txs, rows.Err()
}

// StoredRules returns the subcategories table in ascending label order.
func (s *Store) StoredRules(ctx context.Context) ([]model.SubcategoryRule, error) {
	const query = `
		SELECT label, category, methods, amounts, descr_tells
		FROM subcategories
		ORDER BY label ASC`

	rows, err := s.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("querying subcategories: %w", err)
	}
	defer rows.Close()

	var rls []model.SubcategoryRule
	for rows.Next() {
		var rule model.SubcategoryRule
		var methods, amounts, tells string
		if err := rows.Scan(&rule.Label, &rule.Category, &methods, &amounts, &tells); err != nil {
			return nil, fmt.Errorf("scanning subcategory: %w", err)
		}
		rule.Methods = rules.DecodeList(methods)
		rule.Tells = rules.DecodeList(tells)
		if rule.AmountMin, rule.AmountMax, err = rules.ParseAmounts(amounts); err != nil {
			return nil, fmt.Errorf("rule %q: %w", rule.Label, err)
		}
		rls = append(rls, rule)
	}
	return rls, rows.Err()
}

// CategorySummary aggregates committed rows for one category.
type CategorySummary struct {
	Category string
	Debit    decimal.Decimal
	Credit   decimal.Decimal
	Rows     int
}

// Summary returns per-category debit/credit totals over the whole
// ledger, in ascending category order. Sums are computed with exact
// decimals rather than in SQL.
func (s *Store) Summary(ctx context.Context) ([]CategorySummary, error) {
	const query = `
		SELECT category, debit, credit
		FROM transactions
		ORDER BY category ASC`

	rows, err := s.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("querying summary: %w", err)
	}
	defer rows.Close()

	var (
		out     []CategorySummary
		current *CategorySummary
	)
	for rows.Next() {
		var category string
		var debit, credit sql.NullString
		if err := rows.Scan(&category, &debit, &credit); err != nil {
			return nil, fmt.Errorf("scanning summary row: %w", err)
		}

		if current == nil || current.Category != category {
			out = append(out, CategorySummary{Category: category})
			current = &out[len(out)-1]
		}
		current.Rows++

		d, err := scanAmount(debit)
		if err != nil {
			return nil, err
		}
		if d.Valid {
			current.Debit = current.Debit.Add(d.Decimal)
		}
		c, err := scanAmount(credit)
		if err != nil {
			return nil, err
		}
		if c.Valid {
			current.Credit = current.Credit.Add(c.Decimal)
		}
	}
	return out, rows.Err()
}

func nullAmount(d decimal.NullDecimal) any {
	if !d.Valid {
		return nil
	}
	return d.Decimal.String()
}

func scanAmount(s sql.NullString) (decimal.NullDecimal, error) {
	if !s.Valid {
		return decimal.NullDecimal{}, nil
	}
	d, err := decimal.NewFromString(s.String)
	if err != nil {
		return decimal.NullDecimal{}, fmt.Errorf("parsing stored amount %q: %w", s.String, err)
	}
	return decimal.NullDecimal{Decimal: d, Valid: true}, nil
}
