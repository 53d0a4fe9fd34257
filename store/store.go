// Package store journals replay results in SQLite.
//
// Only the outcome of every spend is kept, with its cost basis in serialized
// form. Recalled cost bases are for display: their matched acquisitions no
// longer point into a ledger. The ledger itself is never persisted; a new
// replay rebuilds it from the event stream.
package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	_ "github.com/mattn/go-sqlite3"
	"github.com/oklog/ulid/v2"
	"github.com/shopspring/decimal"

	"github.com/robinvdvleuten/costbasis/accounting"
	"github.com/robinvdvleuten/costbasis/asset"
	"github.com/robinvdvleuten/costbasis/event"
	"github.com/robinvdvleuten/costbasis/ledger"
	"github.com/robinvdvleuten/costbasis/telemetry"
)

// ErrRunNotFound is returned when a run ID is unknown.
var ErrRunNotFound = errors.New("run not found")

// Run describes one journaled replay.
type Run struct {
	ID           ulid.ULID
	Source       string
	CreatedAt    time.Time
	MainCurrency asset.Asset
	TaxfreeAfter *time.Duration
	Events       int
	Diagnostics  int
}

// Spend is a journaled spend outcome.
type Spend struct {
	RunID   ulid.ULID
	Seq     int
	Spend   event.Spend
	Kind    ledger.SpendKind
	Covered bool

	// Info is only set for ledger.SpendCostBasis. Its totals come from the
	// journal; its matched acquisitions are display snapshots.
	Info *ledger.Info
}

// SQLite is a journal backed by a SQLite database file.
type SQLite struct {
	db *sql.DB
}

// Open opens or creates the journal at path.
func Open(path string) (*SQLite, error) {
	db, err := sql.Open("sqlite3", path+"?_foreign_keys=on")
	if err != nil {
		return nil, fmt.Errorf("open journal %s: %w", path, err)
	}

	if _, err := db.Exec(Schema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("create journal schema: %w", err)
	}

	return &SQLite{db: db}, nil
}

// Close closes the database.
func (s *SQLite) Close() error {
	return s.db.Close()
}

// SaveResult journals a replay and all of its spends in one transaction.
func (s *SQLite) SaveResult(ctx context.Context, source string, settings ledger.Settings, events int, result *accounting.Result) (Run, error) {
	timer := telemetry.StartTimer(ctx, "save results")
	defer timer.End()

	run := Run{
		ID:           ulid.Make(),
		Source:       source,
		CreatedAt:    time.Now().UTC().Truncate(time.Second),
		MainCurrency: settings.MainCurrency,
		TaxfreeAfter: settings.TaxfreeAfterPeriod,
		Events:       events,
		Diagnostics:  len(result.Errors) + len(result.Warnings),
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return Run{}, err
	}
	defer func() { _ = tx.Rollback() }()

	if err := insertRun(ctx, tx, run); err != nil {
		return Run{}, err
	}
	for _, report := range result.Spends {
		if err := insertSpend(ctx, tx, run.ID, report); err != nil {
			return Run{}, fmt.Errorf("record spend %d: %w", report.Seq, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return Run{}, err
	}
	return run, nil
}

type execer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

func insertRun(ctx context.Context, db execer, run Run) error {
	var taxfree sql.NullInt64
	if run.TaxfreeAfter != nil {
		taxfree = sql.NullInt64{Int64: int64(run.TaxfreeAfter.Seconds()), Valid: true}
	}
	_, err := db.ExecContext(ctx, `
		INSERT INTO runs
		(run_id, source, created_at, main_currency, taxfree_after_seconds, events, diagnostics)
		VALUES (?, ?, ?, ?, ?, ?, ?)`,
		run.ID.String(), run.Source, run.CreatedAt.Unix(), run.MainCurrency.String(),
		taxfree, run.Events, run.Diagnostics,
	)
	return err
}

func insertSpend(ctx context.Context, db execer, runID ulid.ULID, report accounting.SpendReport) error {
	var (
		taxableAmount, taxableCost, taxfreeCost, costBasis sql.NullString
	)
	if info, ok := report.Result.CostBasis(); ok {
		data, err := json.Marshal(info)
		if err != nil {
			return err
		}
		costBasis = sql.NullString{String: string(data), Valid: true}
		taxableAmount = sql.NullString{String: info.TaxableAmount.String(), Valid: true}
		taxableCost = sql.NullString{String: info.TaxableBoughtCost.String(), Valid: true}
		taxfreeCost = sql.NullString{String: info.TaxfreeBoughtCost.String(), Valid: true}
	}

	sp := report.Spend
	_, err := db.ExecContext(ctx, `
		INSERT INTO spends
		(run_id, seq, asset, timestamp, location, amount, rate, taxable, kind, covered,
		 taxable_amount, taxable_bought_cost, taxfree_bought_cost, cost_basis)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		runID.String(), report.Seq, sp.Asset.String(), int64(sp.Timestamp), sp.Location.String(),
		sp.Amount.String(), sp.Rate.String(), sp.Taxable, report.Result.Kind.String(), report.Result.Covered,
		taxableAmount, taxableCost, taxfreeCost, costBasis,
	)
	return err
}

const runColumns = `run_id, source, created_at, main_currency, taxfree_after_seconds, events, diagnostics`

type scanner interface {
	Scan(dest ...any) error
}

func scanRun(row scanner) (Run, error) {
	var (
		run       Run
		id        string
		createdAt int64
		currency  string
		taxfree   sql.NullInt64
	)
	if err := row.Scan(&id, &run.Source, &createdAt, &currency, &taxfree, &run.Events, &run.Diagnostics); err != nil {
		return Run{}, err
	}
	parsed, err := ulid.Parse(id)
	if err != nil {
		return Run{}, fmt.Errorf("invalid run id %q: %w", id, err)
	}
	run.ID = parsed
	run.CreatedAt = time.Unix(createdAt, 0).UTC()
	run.MainCurrency = asset.Asset(currency)
	if taxfree.Valid {
		period := time.Duration(taxfree.Int64) * time.Second
		run.TaxfreeAfter = &period
	}
	return run, nil
}

// ListRuns returns every journaled run, newest first.
func (s *SQLite) ListRuns(ctx context.Context) ([]Run, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT `+runColumns+` FROM runs ORDER BY run_id DESC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var runs []Run
	for rows.Next() {
		run, err := scanRun(rows)
		if err != nil {
			return nil, err
		}
		runs = append(runs, run)
	}
	return runs, rows.Err()
}

// GetRun returns a single run.
func (s *SQLite) GetRun(ctx context.Context, id ulid.ULID) (Run, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+runColumns+` FROM runs WHERE run_id = ?`, id.String())
	run, err := scanRun(row)
	if errors.Is(err, sql.ErrNoRows) {
		return Run{}, fmt.Errorf("%w: %s", ErrRunNotFound, id)
	}
	return run, err
}

// LatestRun returns the most recent run.
func (s *SQLite) LatestRun(ctx context.Context) (Run, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+runColumns+` FROM runs ORDER BY run_id DESC LIMIT 1`)
	run, err := scanRun(row)
	if errors.Is(err, sql.ErrNoRows) {
		return Run{}, ErrRunNotFound
	}
	return run, err
}

// ListSpends returns the spends of a run in stream order. A non empty a
// restricts the list to that asset.
func (s *SQLite) ListSpends(ctx context.Context, runID ulid.ULID, a asset.Asset) ([]Spend, error) {
	query := `
		SELECT seq, asset, timestamp, location, amount, rate, taxable, kind, covered,
		       taxable_amount, taxable_bought_cost, taxfree_bought_cost, cost_basis
		FROM spends WHERE run_id = ?`
	args := []any{runID.String()}
	if a != "" {
		query += ` AND asset = ?`
		args = append(args, a.String())
	}
	query += ` ORDER BY seq`

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var spends []Spend
	for rows.Next() {
		sp, err := scanSpend(rows)
		if err != nil {
			return nil, err
		}
		sp.RunID = runID
		spends = append(spends, sp)
	}
	return spends, rows.Err()
}

func scanSpend(row scanner) (Spend, error) {
	var (
		sp                                                 Spend
		assetID, location, amount, rate, kind              string
		ts                                                 int64
		taxableAmount, taxableCost, taxfreeCost, costBasis sql.NullString
	)
	if err := row.Scan(&sp.Seq, &assetID, &ts, &location, &amount, &rate, &sp.Spend.Taxable, &kind, &sp.Covered,
		&taxableAmount, &taxableCost, &taxfreeCost, &costBasis); err != nil {
		return Spend{}, err
	}

	var err error
	sp.Spend.Asset = asset.Asset(assetID)
	sp.Spend.Timestamp = event.Timestamp(ts)
	sp.Spend.Location = event.Location(location)
	if sp.Spend.Amount, err = decimal.NewFromString(amount); err != nil {
		return Spend{}, fmt.Errorf("spend %d: invalid amount: %w", sp.Seq, err)
	}
	if sp.Spend.Rate, err = decimal.NewFromString(rate); err != nil {
		return Spend{}, fmt.Errorf("spend %d: invalid rate: %w", sp.Seq, err)
	}

	if kind != ledger.SpendCostBasis.String() {
		sp.Kind = ledger.SpendReduced
		return sp, nil
	}
	sp.Kind = ledger.SpendCostBasis

	var info ledger.Info
	if err := json.Unmarshal([]byte(costBasis.String), &info); err != nil {
		return Spend{}, fmt.Errorf("spend %d: %w", sp.Seq, err)
	}
	for _, col := range []struct {
		value sql.NullString
		dst   *decimal.Decimal
	}{
		{taxableAmount, &info.TaxableAmount},
		{taxableCost, &info.TaxableBoughtCost},
		{taxfreeCost, &info.TaxfreeBoughtCost},
	} {
		if !col.value.Valid {
			continue
		}
		if *col.dst, err = decimal.NewFromString(col.value.String); err != nil {
			return Spend{}, fmt.Errorf("spend %d: invalid total: %w", sp.Seq, err)
		}
	}
	sp.Info = &info
	return sp, nil
}
