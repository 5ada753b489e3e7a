// Package store persists customers, actuals, daily reports, and targets in a
// SQL database (SQLite by default, MySQL/MariaDB or Postgres by DSN).
package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"

	"github.com/subdash/subdash/internal/model"

	_ "github.com/go-sql-driver/mysql" // register mysql driver
	_ "github.com/jackc/pgx/v5/stdlib" // register pgx driver
	_ "modernc.org/sqlite"             // register sqlite driver
)

// ErrNotFound is returned when a requested record does not exist.
var ErrNotFound = errors.New("store: record not found")

const (
	dayLayout   = "2006-01-02"
	stampLayout = time.RFC3339
)

// Store is a SQL-backed record store.
type Store struct {
	db      *sql.DB
	dialect Dialect
}

// DefaultPath returns the default sqlite file inside dataDir.
func DefaultPath(dataDir string) string {
	return filepath.Join(dataDir, "records.db")
}

// Open connects to dsn and creates the schema if needed.
func Open(dsn string) (*Store, error) {
	dialect, native, err := parseDSN(dsn)
	if err != nil {
		return nil, err
	}

	if dialect == SQLite {
		if err := os.MkdirAll(filepath.Dir(native), 0o750); err != nil {
			return nil, fmt.Errorf("creating store dir: %w", err)
		}
		native += "?_pragma=journal_mode(wal)&_pragma=synchronous(normal)&_pragma=busy_timeout(5000)"
	}

	db, err := sql.Open(dialect.driverName(), native)
	if err != nil {
		return nil, fmt.Errorf("opening store: %w", err)
	}
	if dialect != SQLite {
		db.SetMaxOpenConns(10)
		db.SetMaxIdleConns(10)
		db.SetConnMaxLifetime(30 * time.Minute)
	}

	s := &Store{db: db, dialect: dialect}
	if err := s.migrate(context.Background()); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("creating schema: %w", err)
	}
	return s, nil
}

func (s *Store) migrate(ctx context.Context) error {
	stmts := schemaStatements
	if s.dialect != MySQL {
		stmts = append(append([]string{}, stmts...), indexStatements...)
	}
	for _, stmt := range stmts {
		if _, err := s.db.ExecContext(ctx, stmt); err != nil {
			return err
		}
	}
	return nil
}

// Close closes the database.
func (s *Store) Close() error {
	return s.db.Close()
}

// Dialect reports which SQL flavour the store speaks.
func (s *Store) Dialect() Dialect {
	return s.dialect
}

func (s *Store) q(query string) string {
	return rebind(s.dialect, query)
}

// withTx runs fn in a transaction, committing when it returns nil.
func (s *Store) withTx(ctx context.Context, fn func(*sql.Tx) error) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	if err := fn(tx); err != nil {
		return err
	}
	return tx.Commit()
}

// SaveCustomers inserts or replaces customers by id. Customers without an id get one.
func (s *Store) SaveCustomers(ctx context.Context, customers []model.Customer) error {
	return s.withTx(ctx, func(tx *sql.Tx) error {
		for _, c := range customers {
			if c.ID == "" {
				c.ID = uuid.NewString()
			}
			var churned sql.NullString
			if c.ChurnedAt != nil {
				churned = sql.NullString{String: c.ChurnedAt.UTC().Format(dayLayout), Valid: true}
			}
			if _, err := tx.ExecContext(ctx, s.q("DELETE FROM customers WHERE id = ?"), c.ID); err != nil {
				return err
			}
			_, err := tx.ExecContext(ctx, s.q(`INSERT INTO customers
				(id, registered_at, status, churned_at, plan_type)
				VALUES (?, ?, ?, ?, ?)`),
				c.ID, c.RegisteredAt.UTC().Format(dayLayout), c.Status, churned, c.PlanType,
			)
			if err != nil {
				return fmt.Errorf("saving customer %s: %w", c.ID, err)
			}
		}
		return nil
	})
}

// Customers returns the full roster ordered by registration date.
func (s *Store) Customers(ctx context.Context) ([]model.Customer, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT id, registered_at, status, churned_at, plan_type
		FROM customers ORDER BY registered_at, id`)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	var out []model.Customer
	for rows.Next() {
		var (
			c          model.Customer
			registered string
			churned    sql.NullString
		)
		if err := rows.Scan(&c.ID, &registered, &c.Status, &churned, &c.PlanType); err != nil {
			return nil, err
		}
		if c.RegisteredAt, err = time.Parse(dayLayout, registered); err != nil {
			return nil, fmt.Errorf("customer %s registered_at: %w", c.ID, err)
		}
		if churned.Valid && churned.String != "" {
			t, err := time.Parse(dayLayout, churned.String)
			if err != nil {
				return nil, fmt.Errorf("customer %s churned_at: %w", c.ID, err)
			}
			c.ChurnedAt = &t
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

// SaveActual stores a month's actuals, replacing any previous entry and its channels.
func (s *Store) SaveActual(ctx context.Context, a model.ActualRecord) error {
	if a.Month.IsZero() {
		return errors.New("store: actual record has no month")
	}
	key := a.Month.String()
	return s.withTx(ctx, func(tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx, s.q("DELETE FROM monthly_actuals WHERE month_key = ?"), key); err != nil {
			return err
		}
		_, err := tx.ExecContext(ctx, s.q(`INSERT INTO monthly_actuals
			(month_key, new_acquisitions, mrr, churn_count, expenses, total_customers, updated_at)
			VALUES (?, ?, ?, ?, ?, ?, ?)`),
			key, a.NewAcquisitions, a.MRR, a.ChurnCount, a.Expenses, a.TotalCustomers,
			time.Now().UTC().Format(stampLayout),
		)
		if err != nil {
			return err
		}

		if _, err := tx.ExecContext(ctx, s.q("DELETE FROM channel_actuals WHERE month_key = ?"), key); err != nil {
			return err
		}
		for _, ch := range a.Channels {
			_, err = tx.ExecContext(ctx, s.q(`INSERT INTO channel_actuals
				(month_key, channel, acquisitions, cpa, cost) VALUES (?, ?, ?, ?, ?)`),
				key, ch.Name, ch.Acquisitions, ch.CPA, ch.Cost,
			)
			if err != nil {
				return fmt.Errorf("saving channel %s: %w", ch.Name, err)
			}
		}
		return nil
	})
}

// Actual returns the stored actuals for m, or ErrNotFound.
func (s *Store) Actual(ctx context.Context, m model.Month) (model.ActualRecord, error) {
	a := model.ActualRecord{Month: m}
	err := s.db.QueryRowContext(ctx, s.q(`SELECT new_acquisitions, mrr, churn_count, expenses, total_customers
		FROM monthly_actuals WHERE month_key = ?`), m.String()).
		Scan(&a.NewAcquisitions, &a.MRR, &a.ChurnCount, &a.Expenses, &a.TotalCustomers)
	if errors.Is(err, sql.ErrNoRows) {
		return a, ErrNotFound
	}
	if err != nil {
		return a, err
	}

	rows, err := s.db.QueryContext(ctx, s.q(`SELECT channel, acquisitions, cpa, cost
		FROM channel_actuals WHERE month_key = ? ORDER BY channel`), m.String())
	if err != nil {
		return a, err
	}
	defer func() { _ = rows.Close() }()

	for rows.Next() {
		var ch model.ChannelActual
		if err := rows.Scan(&ch.Name, &ch.Acquisitions, &ch.CPA, &ch.Cost); err != nil {
			return a, err
		}
		a.Channels = append(a.Channels, ch)
	}
	return a, rows.Err()
}

// ActualMonths lists months with stored actuals, oldest first.
func (s *Store) ActualMonths(ctx context.Context) ([]model.Month, error) {
	rows, err := s.db.QueryContext(ctx, "SELECT month_key FROM monthly_actuals ORDER BY month_key")
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	var out []model.Month
	for rows.Next() {
		var key string
		if err := rows.Scan(&key); err != nil {
			return nil, err
		}
		m, err := model.ParseMonth(key)
		if err != nil {
			return nil, err
		}
		out = append(out, m)
	}
	return out, rows.Err()
}

// SaveDaily stores one day's report, replacing any earlier report for that date.
// It returns the report id.
func (s *Store) SaveDaily(ctx context.Context, d model.DailyActual) (string, error) {
	if d.Date.IsZero() {
		return "", errors.New("store: daily report has no date")
	}
	if d.ID == "" {
		d.ID = uuid.NewString()
	}
	day := model.Date(d.Date)
	key := day.Format(dayLayout)

	err := s.withTx(ctx, func(tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx, s.q("DELETE FROM daily_reports WHERE day_key = ?"), key); err != nil {
			return err
		}
		_, err := tx.ExecContext(ctx, s.q(`INSERT INTO daily_reports
			(day_key, id, month_key, new_acquisitions, revenue, expenses, updated_at)
			VALUES (?, ?, ?, ?, ?, ?, ?)`),
			key, d.ID, model.MonthOf(day).String(), d.NewAcquisitions, d.Revenue, d.Expenses,
			time.Now().UTC().Format(stampLayout),
		)
		if err != nil {
			return err
		}

		if _, err := tx.ExecContext(ctx, s.q("DELETE FROM daily_channel_reports WHERE day_key = ?"), key); err != nil {
			return err
		}
		for _, ch := range d.Channels {
			_, err = tx.ExecContext(ctx, s.q(`INSERT INTO daily_channel_reports
				(day_key, channel, acquisitions, cost) VALUES (?, ?, ?, ?)`),
				key, ch.Name, ch.Acquisitions, ch.Cost,
			)
			if err != nil {
				return fmt.Errorf("saving channel %s: %w", ch.Name, err)
			}
		}
		return nil
	})
	return d.ID, err
}

// DailyActuals returns the daily reports for m ordered by date.
func (s *Store) DailyActuals(ctx context.Context, m model.Month) ([]model.DailyActual, error) {
	key := m.String()
	rows, err := s.db.QueryContext(ctx, s.q(`SELECT day_key, id, new_acquisitions, revenue, expenses
		FROM daily_reports WHERE month_key = ? ORDER BY day_key`), key)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	var out []model.DailyActual
	idx := make(map[string]int)
	for rows.Next() {
		var (
			d   model.DailyActual
			day string
		)
		if err := rows.Scan(&day, &d.ID, &d.NewAcquisitions, &d.Revenue, &d.Expenses); err != nil {
			return nil, err
		}
		if d.Date, err = time.Parse(dayLayout, day); err != nil {
			return nil, fmt.Errorf("daily report %s: %w", day, err)
		}
		idx[day] = len(out)
		out = append(out, d)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	chRows, err := s.db.QueryContext(ctx, s.q(`SELECT c.day_key, c.channel, c.acquisitions, c.cost
		FROM daily_channel_reports c
		JOIN daily_reports d ON d.day_key = c.day_key
		WHERE d.month_key = ? ORDER BY c.day_key, c.channel`), key)
	if err != nil {
		return nil, err
	}
	defer func() { _ = chRows.Close() }()

	for chRows.Next() {
		var (
			day string
			ch  model.ChannelDaily
		)
		if err := chRows.Scan(&day, &ch.Name, &ch.Acquisitions, &ch.Cost); err != nil {
			return nil, err
		}
		if i, ok := idx[day]; ok {
			out[i].Channels = append(out[i].Channels, ch)
		}
	}
	return out, chRows.Err()
}

// SaveTargets inserts or replaces targets keyed by period and metric.
func (s *Store) SaveTargets(ctx context.Context, targets []model.TargetRecord) error {
	return s.withTx(ctx, func(tx *sql.Tx) error {
		for _, t := range targets {
			key := t.Period.String()
			if _, err := tx.ExecContext(ctx, s.q("DELETE FROM targets WHERE month_key = ? AND metric = ?"), key, string(t.Metric)); err != nil {
				return err
			}
			_, err := tx.ExecContext(ctx, s.q(`INSERT INTO targets (month_key, metric, target_value, unit)
				VALUES (?, ?, ?, ?)`), key, string(t.Metric), t.Value, string(t.Unit))
			if err != nil {
				return fmt.Errorf("saving target %s/%s: %w", key, t.Metric, err)
			}
		}
		return nil
	})
}

// Targets returns the explicit targets for m.
func (s *Store) Targets(ctx context.Context, m model.Month) ([]model.TargetRecord, error) {
	rows, err := s.db.QueryContext(ctx, s.q(`SELECT metric, target_value, unit
		FROM targets WHERE month_key = ? ORDER BY metric`), m.String())
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	var out []model.TargetRecord
	for rows.Next() {
		var (
			t            model.TargetRecord
			metric, unit string
		)
		if err := rows.Scan(&metric, &t.Value, &unit); err != nil {
			return nil, err
		}
		t.Period = m
		t.Metric = model.Metric(metric)
		t.Unit = model.Unit(unit)
		out = append(out, t)
	}
	return out, rows.Err()
}

// Stats counts rows per record type.
type Stats struct {
	Customers     int
	MonthlyActual int
	DailyReports  int
	Targets       int
}

// Stats returns row counts for each table.
func (s *Store) Stats(ctx context.Context) (Stats, error) {
	var st Stats
	counts := []struct {
		table string
		dst   *int
	}{
		{"customers", &st.Customers},
		{"monthly_actuals", &st.MonthlyActual},
		{"daily_reports", &st.DailyReports},
		{"targets", &st.Targets},
	}
	for _, c := range counts {
		if err := s.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM "+c.table).Scan(c.dst); err != nil {
			return st, fmt.Errorf("counting %s: %w", c.table, err)
		}
	}
	return st, nil
}
