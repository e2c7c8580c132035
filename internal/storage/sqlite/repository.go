package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"budget/internal/core"
	"budget/internal/ledger"
	"budget/internal/storage"

	"github.com/shopspring/decimal"
	_ "modernc.org/sqlite"
)

const (
	metaSchemaVersion = "schema_version"
	metaSavedAt       = "saved_at"
)

var _ storage.Store = (*Repository)(nil)

// Repository stores one ledger snapshot in a SQLite database.
type Repository struct {
	db   *sql.DB
	path string
}

func NewRepository(dbPath string) (*Repository, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0o755); err != nil {
		return nil, core.Persistence("create db directory", err)
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, core.Persistence("open sqlite database", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, core.Persistence("ping database", err)
	}

	if _, err := db.Exec("PRAGMA foreign_keys = ON"); err != nil {
		db.Close()
		return nil, core.Persistence("enable foreign keys", err)
	}

	version, err := MigrateSchema(dbPath)
	if err != nil {
		db.Close()
		return nil, core.Persistence("run migrations", err)
	}
	slog.Debug("SQLite ledger schema ready", "path", dbPath, "schema_version", version)

	return &Repository{db: db, path: dbPath}, nil
}

func (r *Repository) Close() error {
	if r.db != nil {
		return r.db.Close()
	}
	return nil
}

// Save replaces the stored ledger in a single transaction.
func (r *Repository) Save(ctx context.Context, snap ledger.Snapshot) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return core.Persistence("begin transaction", err)
	}
	defer tx.Rollback()

	for _, stmt := range []string{
		"DELETE FROM expense_shares",
		"DELETE FROM expenses",
		"DELETE FROM participants",
	} {
		if _, err := tx.ExecContext(ctx, stmt); err != nil {
			return core.Persistence("clear ledger", err)
		}
	}

	for i, p := range snap.Participants {
		if _, err := tx.ExecContext(ctx,
			"INSERT INTO participants (position, name) VALUES (?, ?)", i, p); err != nil {
			return core.Persistence("insert participant", err)
		}
	}

	for i, e := range snap.Expenses {
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO expenses (position, name, amount, payments_per_year, first_month, payment_months, total_per_year)
			 VALUES (?, ?, ?, ?, ?, ?, ?)`,
			i, e.Name, e.Amount.String(), e.PaymentsPerYear, e.FirstMonth,
			joinMonths(e.PaymentMonths), e.TotalPerYear.String()); err != nil {
			return core.Persistence("insert expense "+e.Name, err)
		}
		for p, pct := range e.SharePercents {
			amount := e.ShareAmounts[p]
			if _, err := tx.ExecContext(ctx,
				"INSERT INTO expense_shares (expense_name, participant, percent, amount) VALUES (?, ?, ?, ?)",
				e.Name, p, pct.String(), amount.String()); err != nil {
				return core.Persistence("insert share", err)
			}
		}
	}

	meta := map[string]string{
		metaSchemaVersion: strconv.Itoa(snap.SchemaVersion),
		metaSavedAt:       time.Now().UTC().Format(time.RFC3339),
	}
	for k, v := range meta {
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO ledger_meta (key, value) VALUES (?, ?)
			 ON CONFLICT(key) DO UPDATE SET value = excluded.value`, k, v); err != nil {
			return core.Persistence("write ledger meta", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return core.Persistence("commit ledger", err)
	}

	slog.InfoContext(ctx, "Ledger saved to SQLite",
		"path", r.path,
		"participants", len(snap.Participants),
		"expenses", len(snap.Expenses))
	return nil
}

// Load reads the stored ledger. It fails if nothing was ever saved.
func (r *Repository) Load(ctx context.Context) (ledger.Snapshot, error) {
	var version string
	err := r.db.QueryRowContext(ctx,
		"SELECT value FROM ledger_meta WHERE key = ?", metaSchemaVersion).Scan(&version)
	if errors.Is(err, sql.ErrNoRows) {
		return ledger.Snapshot{}, core.Persistence("load ledger", fmt.Errorf("no ledger saved in %s", r.path))
	}
	if err != nil {
		return ledger.Snapshot{}, core.Persistence("read schema version", err)
	}
	schemaVersion, err := strconv.Atoi(version)
	if err != nil {
		return ledger.Snapshot{}, fmt.Errorf("schema version %q: %w", version, core.ErrCorruptRecord)
	}

	snap := ledger.Snapshot{SchemaVersion: schemaVersion}
	if snap.Participants, err = r.participants(ctx); err != nil {
		return ledger.Snapshot{}, err
	}
	if snap.Expenses, err = r.expenses(ctx); err != nil {
		return ledger.Snapshot{}, err
	}
	return snap, nil
}

func (r *Repository) participants(ctx context.Context) ([]string, error) {
	rows, err := r.db.QueryContext(ctx, "SELECT name FROM participants ORDER BY position")
	if err != nil {
		return nil, core.Persistence("query participants", err)
	}
	defer rows.Close()

	var out []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, core.Persistence("scan participant", err)
		}
		out = append(out, name)
	}
	if err := rows.Err(); err != nil {
		return nil, core.Persistence("iterate participants", err)
	}
	return out, nil
}

func (r *Repository) expenses(ctx context.Context) ([]core.Record, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT name, amount, payments_per_year, first_month, payment_months, total_per_year
		 FROM expenses ORDER BY position`)
	if err != nil {
		return nil, core.Persistence("query expenses", err)
	}
	defer rows.Close()

	var out []core.Record
	index := map[string]int{}
	for rows.Next() {
		var (
			rec                   core.Record
			amount, total, months string
		)
		if err := rows.Scan(&rec.Name, &amount, &rec.PaymentsPerYear, &rec.FirstMonth, &months, &total); err != nil {
			return nil, core.Persistence("scan expense", err)
		}
		if rec.Amount, err = parseDecimal(rec.Name, "amount", amount); err != nil {
			return nil, err
		}
		if rec.TotalPerYear, err = parseDecimal(rec.Name, "total_per_year", total); err != nil {
			return nil, err
		}
		if rec.PaymentMonths, err = splitMonths(months); err != nil {
			return nil, fmt.Errorf("expense %q: %w", rec.Name, err)
		}
		rec.SharePercents = map[string]decimal.Decimal{}
		rec.ShareAmounts = map[string]decimal.Decimal{}
		index[rec.Name] = len(out)
		out = append(out, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, core.Persistence("iterate expenses", err)
	}
	rows.Close()

	shareRows, err := r.db.QueryContext(ctx,
		"SELECT expense_name, participant, percent, amount FROM expense_shares")
	if err != nil {
		return nil, core.Persistence("query shares", err)
	}
	defer shareRows.Close()

	for shareRows.Next() {
		var name, participant, percent, amount string
		if err := shareRows.Scan(&name, &participant, &percent, &amount); err != nil {
			return nil, core.Persistence("scan share", err)
		}
		i, ok := index[name]
		if !ok {
			continue
		}
		pct, err := parseDecimal(name, "percent", percent)
		if err != nil {
			return nil, err
		}
		amt, err := parseDecimal(name, "share amount", amount)
		if err != nil {
			return nil, err
		}
		out[i].SharePercents[participant] = pct
		out[i].ShareAmounts[participant] = amt
	}
	if err := shareRows.Err(); err != nil {
		return nil, core.Persistence("iterate shares", err)
	}
	return out, nil
}

func parseDecimal(expense, field, s string) (decimal.Decimal, error) {
	v, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero, fmt.Errorf("expense %q %s: %w: %v", expense, field, core.ErrCorruptRecord, err)
	}
	return v, nil
}

func joinMonths(months []int) string {
	parts := make([]string, len(months))
	for i, m := range months {
		parts[i] = strconv.Itoa(m)
	}
	return strings.Join(parts, ",")
}

func splitMonths(s string) ([]int, error) {
	if s == "" {
		return nil, nil
	}
	parts := strings.Split(s, ",")
	out := make([]int, len(parts))
	for i, p := range parts {
		m, err := strconv.Atoi(strings.TrimSpace(p))
		if err != nil {
			return nil, fmt.Errorf("%w: payment months %q", core.ErrCorruptRecord, s)
		}
		out[i] = m
	}
	return out, nil
}
