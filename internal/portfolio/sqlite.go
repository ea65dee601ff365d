package portfolio

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"

	log "github.com/sirupsen/logrus"
	_ "modernc.org/sqlite"

	"StockTracker/internal/model"
)

// SQLiteBackend stores the portfolio in a single SQLite table.
type SQLiteBackend struct {
	db   *sql.DB
	path string
}

// NewSQLiteBackend opens (or creates) the database and runs migrations.
func NewSQLiteBackend(dbPath string) (*SQLiteBackend, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return nil, fmt.Errorf("create db dir: %w", err)
	}
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}

	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("set WAL mode: %w", err)
	}

	b := &SQLiteBackend{db: db, path: dbPath}
	if err := b.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}

	log.WithField("file", dbPath).Info("sqlite portfolio opened")
	return b, nil
}

func (b *SQLiteBackend) migrate() error {
	_, err := b.db.Exec(`CREATE TABLE IF NOT EXISTS positions (
		position       INTEGER NOT NULL,
		ticker         TEXT PRIMARY KEY,
		shares         INTEGER NOT NULL,
		purchase_price REAL NOT NULL
	)`)
	return err
}

func (b *SQLiteBackend) Name() string { return "sqlite" }

// Load reads all rows in storage order.
func (b *SQLiteBackend) Load() (*model.Portfolio, error) {
	rows, err := b.db.Query(`SELECT ticker, shares, purchase_price FROM positions ORDER BY position`)
	if err != nil {
		return nil, fmt.Errorf("query positions: %w", err)
	}
	defer rows.Close()

	p := model.NewPortfolio()
	for rows.Next() {
		var pos model.Position
		if err := rows.Scan(&pos.Ticker, &pos.Shares, &pos.PurchasePrice); err != nil {
			return nil, fmt.Errorf("%w: %s: %v", ErrStateUnreadable, b.path, err)
		}
		ticker := model.NormalizeTicker(pos.Ticker)
		switch {
		case ticker == "":
			return nil, fmt.Errorf("%w: %s: empty ticker", ErrStateUnreadable, b.path)
		case pos.Shares < 0 || pos.PurchasePrice < 0:
			return nil, fmt.Errorf("%w: %s: negative values for %q", ErrStateUnreadable, b.path, pos.Ticker)
		}
		if _, dup := p.Get(ticker); dup {
			return nil, fmt.Errorf("%w: %s: duplicate ticker %q", ErrStateUnreadable, b.path, ticker)
		}
		pos.Ticker = ticker
		p.Set(pos)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("read positions: %w", err)
	}
	return p, nil
}

// Save replaces every row inside one transaction.
func (b *SQLiteBackend) Save(p *model.Portfolio) (err error) {
	tx, err := b.db.Begin()
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer func() {
		if err != nil {
			tx.Rollback()
		}
	}()

	if _, err = tx.Exec(`DELETE FROM positions`); err != nil {
		return fmt.Errorf("clear positions: %w", err)
	}
	stmt, err := tx.Prepare(`INSERT INTO positions (position, ticker, shares, purchase_price) VALUES (?,?,?,?)`)
	if err != nil {
		return fmt.Errorf("prepare insert: %w", err)
	}
	defer stmt.Close()

	for i, pos := range p.Positions() {
		if _, err = stmt.Exec(i, pos.Ticker, pos.Shares, pos.PurchasePrice); err != nil {
			return fmt.Errorf("insert %s: %w", pos.Ticker, err)
		}
	}
	if err = tx.Commit(); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	return nil
}

func (b *SQLiteBackend) Close() error {
	log.Info("closing sqlite portfolio")
	return b.db.Close()
}
