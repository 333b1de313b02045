package storage

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"option-pricer/internal/grid"
	"option-pricer/internal/pricing"
)

var (
	// ErrNotConfigured indicates the storage pool was not initialised.
	ErrNotConfigured = errors.New("storage: pool not configured")
	// ErrNotFound indicates the requested calculation does not exist.
	ErrNotFound = errors.New("storage: calculation not found")
)

// PersistenceError wraps a storage-layer failure with the operation that hit
// it. Validation problems never surface as PersistenceError: by the time the
// store is involved the inputs are already accepted.
type PersistenceError struct {
	Op  string
	Err error
}

func (e *PersistenceError) Error() string {
	return fmt.Sprintf("storage: %s: %v", e.Op, e.Err)
}

func (e *PersistenceError) Unwrap() error { return e.Err }

const (
	// Schema bootstrap is idempotent; additive changes go in as new nullable
	// columns so old rows keep reading.
	createCalculationsSQL = `CREATE TABLE IF NOT EXISTS calculations (
        id               BIGSERIAL PRIMARY KEY,
        spot             NUMERIC NOT NULL,
        strike           NUMERIC NOT NULL,
        time_to_maturity NUMERIC NOT NULL,
        volatility       NUMERIC NOT NULL,
        risk_free_rate   NUMERIC NOT NULL,
        dividend_yield   NUMERIC NOT NULL DEFAULT 0,
        call_price       NUMERIC NOT NULL,
        put_price        NUMERIC NOT NULL,
        delta_call       NUMERIC,
        delta_put        NUMERIC,
        gamma            NUMERIC,
        vega             NUMERIC,
        theta_call       NUMERIC,
        theta_put        NUMERIC,
        rho_call         NUMERIC,
        rho_put          NUMERIC,
        created_at       TIMESTAMPTZ NOT NULL DEFAULT now()
    );`

	createCalculationsIndexSQL = `CREATE INDEX IF NOT EXISTS idx_calculations_created_at
    ON calculations (created_at DESC);`

	createCellsSQL = `CREATE TABLE IF NOT EXISTS calculation_cells (
        id             BIGSERIAL PRIMARY KEY,
        calculation_id BIGINT NOT NULL REFERENCES calculations (id),
        axis1_shock    NUMERIC NOT NULL,
        axis2_shock    NUMERIC NOT NULL,
        option_price   NUMERIC NOT NULL,
        is_call        BOOLEAN NOT NULL
    );`

	createCellsIndexSQL = `CREATE INDEX IF NOT EXISTS idx_calculation_cells_calculation_id
    ON calculation_cells (calculation_id);`

	insertCalculationSQL = `INSERT INTO calculations (
        spot, strike, time_to_maturity, volatility, risk_free_rate, dividend_yield,
        call_price, put_price,
        delta_call, delta_put, gamma, vega, theta_call, theta_put, rho_call, rho_put
    ) VALUES (
        $1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15,$16
    )
    RETURNING id, created_at;`

	insertCellSQL = `INSERT INTO calculation_cells (
        calculation_id, axis1_shock, axis2_shock, option_price, is_call
    ) VALUES ($1,$2,$3,$4,$5);`

	calculationColumns = `id,
        spot, strike, time_to_maturity, volatility, risk_free_rate, dividend_yield,
        call_price, put_price,
        delta_call, delta_put, gamma, vega, theta_call, theta_put, rho_call, rho_put,
        created_at`

	getCalculationSQL = `SELECT ` + calculationColumns + `
    FROM calculations WHERE id = $1;`

	listCellsSQL = `SELECT id, calculation_id, axis1_shock, axis2_shock, option_price, is_call
    FROM calculation_cells
    WHERE calculation_id = $1
    ORDER BY id;`

	countCalculationsSQL = `SELECT COUNT(*) FROM calculations;`

	deleteCellsSQL        = `DELETE FROM calculation_cells;`
	deleteCalculationsSQL = `DELETE FROM calculations;`

	advisoryXactLockSQL = `SELECT pg_advisory_xact_lock($1);`
)

// HistoryStore defines the persistence surface for calculation history.
type HistoryStore interface {
	Append(ctx context.Context, req pricing.Request, res pricing.Result) (HistoryRecord, error)
	AppendGrid(ctx context.Context, req pricing.Request, res pricing.Result, cells []grid.Cell) (HistoryRecord, error)
	List(ctx context.Context, opts ListOptions) ([]HistoryRecord, error)
	GetCalculation(ctx context.Context, id int64) (HistoryRecord, []CellRecord, error)
	Count(ctx context.Context) (int64, error)
	Clear(ctx context.Context) (int64, error)
}

// Store persists calculation history in PostgreSQL.
type Store struct {
	pool    *pgxpool.Pool
	lockKey int64
}

// NewStore wires a pgx pool into a Store. lockKey scopes the advisory lock
// that serialises appends across processes sharing one database.
func NewStore(pool *pgxpool.Pool, lockKey int64) *Store {
	return &Store{pool: pool, lockKey: lockKey}
}

// Close releases the underlying pool resources.
func (s *Store) Close() {
	if s == nil || s.pool == nil {
		return
	}
	s.pool.Close()
}

func (s *Store) getPool() (*pgxpool.Pool, error) {
	if s == nil || s.pool == nil {
		return nil, ErrNotConfigured
	}
	return s.pool, nil
}

// Migrate creates the schema if it does not exist yet. Safe to call on every
// startup.
func (s *Store) Migrate(ctx context.Context) error {
	pool, err := s.getPool()
	if err != nil {
		return err
	}
	for _, stmt := range []string{
		createCalculationsSQL,
		createCalculationsIndexSQL,
		createCellsSQL,
		createCellsIndexSQL,
	} {
		if _, err := pool.Exec(ctx, stmt); err != nil {
			return &PersistenceError{Op: "migrate schema", Err: err}
		}
	}
	return nil
}

// Append persists one calculation atomically and returns the stored record
// with its assigned id and timestamp.
func (s *Store) Append(ctx context.Context, req pricing.Request, res pricing.Result) (HistoryRecord, error) {
	return s.AppendGrid(ctx, req, res, nil)
}

// AppendGrid persists a calculation together with its sensitivity grid cells
// in a single transaction. Either everything lands or nothing does. An
// advisory transaction lock serialises writers sharing the store.
func (s *Store) AppendGrid(ctx context.Context, req pricing.Request, res pricing.Result, cells []grid.Cell) (HistoryRecord, error) {
	pool, err := s.getPool()
	if err != nil {
		return HistoryRecord{}, err
	}
	if err := req.Validate(); err != nil {
		return HistoryRecord{}, err
	}

	tx, err := pool.Begin(ctx)
	if err != nil {
		return HistoryRecord{}, &PersistenceError{Op: "begin append", Err: err}
	}
	defer tx.Rollback(ctx)

	if s.lockKey != 0 {
		if _, err := tx.Exec(ctx, advisoryXactLockSQL, s.lockKey); err != nil {
			return HistoryRecord{}, &PersistenceError{Op: "acquire append lock", Err: err}
		}
	}

	rec := HistoryRecord{Request: req, Result: res}
	row := tx.QueryRow(ctx, insertCalculationSQL,
		numStr(req.Spot),
		numStr(req.Strike),
		numStr(req.TimeToMaturity),
		numStr(req.Volatility),
		numStr(req.RiskFreeRate),
		numStr(req.DividendYield),
		numStr(res.CallPrice),
		numStr(res.PutPrice),
		numStr(res.DeltaCall),
		numStr(res.DeltaPut),
		numStr(res.Gamma),
		numStr(res.Vega),
		numStr(res.ThetaCall),
		numStr(res.ThetaPut),
		numStr(res.RhoCall),
		numStr(res.RhoPut),
	)
	if err := row.Scan(&rec.ID, &rec.CreatedAt); err != nil {
		return HistoryRecord{}, &PersistenceError{Op: "insert calculation", Err: err}
	}

	for _, cell := range cells {
		if _, err := tx.Exec(ctx, insertCellSQL,
			rec.ID,
			numStr(cell.Axis1Shock),
			numStr(cell.Axis2Shock),
			numStr(cell.Price),
			cell.Call,
		); err != nil {
			return HistoryRecord{}, &PersistenceError{Op: "insert grid cell", Err: err}
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return HistoryRecord{}, &PersistenceError{Op: "commit append", Err: err}
	}
	return rec, nil
}

// List returns history records, most recent first unless opts.Ascending.
func (s *Store) List(ctx context.Context, opts ListOptions) ([]HistoryRecord, error) {
	pool, err := s.getPool()
	if err != nil {
		return nil, err
	}

	query, args := buildListQuery(opts)
	rows, queryErr := pool.Query(ctx, query, args...)
	if queryErr != nil {
		return nil, &PersistenceError{Op: "list calculations", Err: queryErr}
	}
	defer rows.Close()

	records := make([]HistoryRecord, 0, opts.Limit)
	for rows.Next() {
		rec, scanErr := scanCalculation(rows)
		if scanErr != nil {
			return nil, &PersistenceError{Op: "scan calculation", Err: scanErr}
		}
		records = append(records, rec)
	}
	if rows.Err() != nil {
		return nil, &PersistenceError{Op: "list calculations", Err: rows.Err()}
	}
	return records, nil
}

// GetCalculation fetches one record and its grid cells (empty when the
// calculation was saved without a grid).
func (s *Store) GetCalculation(ctx context.Context, id int64) (HistoryRecord, []CellRecord, error) {
	pool, err := s.getPool()
	if err != nil {
		return HistoryRecord{}, nil, err
	}

	rows, queryErr := pool.Query(ctx, getCalculationSQL, id)
	if queryErr != nil {
		return HistoryRecord{}, nil, &PersistenceError{Op: "get calculation", Err: queryErr}
	}
	rec, found, scanErr := scanSingleCalculation(rows)
	if scanErr != nil {
		return HistoryRecord{}, nil, &PersistenceError{Op: "scan calculation", Err: scanErr}
	}
	if !found {
		return HistoryRecord{}, nil, ErrNotFound
	}

	cellRows, queryErr := pool.Query(ctx, listCellsSQL, id)
	if queryErr != nil {
		return HistoryRecord{}, nil, &PersistenceError{Op: "list grid cells", Err: queryErr}
	}
	defer cellRows.Close()

	cells := make([]CellRecord, 0)
	for cellRows.Next() {
		var (
			cell                 CellRecord
			shock1Str, shock2Str string
			priceStr             string
		)
		if err := cellRows.Scan(&cell.ID, &cell.CalculationID, &shock1Str, &shock2Str, &priceStr, &cell.Call); err != nil {
			return HistoryRecord{}, nil, &PersistenceError{Op: "scan grid cell", Err: err}
		}
		if cell.Axis1Shock, err = parseNum(shock1Str, "axis1_shock"); err != nil {
			return HistoryRecord{}, nil, &PersistenceError{Op: "scan grid cell", Err: err}
		}
		if cell.Axis2Shock, err = parseNum(shock2Str, "axis2_shock"); err != nil {
			return HistoryRecord{}, nil, &PersistenceError{Op: "scan grid cell", Err: err}
		}
		if cell.Price, err = parseNum(priceStr, "option_price"); err != nil {
			return HistoryRecord{}, nil, &PersistenceError{Op: "scan grid cell", Err: err}
		}
		cells = append(cells, cell)
	}
	if cellRows.Err() != nil {
		return HistoryRecord{}, nil, &PersistenceError{Op: "list grid cells", Err: cellRows.Err()}
	}

	return rec, cells, nil
}

// Count reports the number of stored calculations.
func (s *Store) Count(ctx context.Context) (int64, error) {
	pool, err := s.getPool()
	if err != nil {
		return 0, err
	}
	var count int64
	if scanErr := pool.QueryRow(ctx, countCalculationsSQL).Scan(&count); scanErr != nil {
		return 0, &PersistenceError{Op: "count calculations", Err: scanErr}
	}
	return count, nil
}

// Clear removes all history and returns the number of calculations deleted.
// Cells go first to satisfy the foreign key.
func (s *Store) Clear(ctx context.Context) (int64, error) {
	pool, err := s.getPool()
	if err != nil {
		return 0, err
	}

	tx, err := pool.Begin(ctx)
	if err != nil {
		return 0, &PersistenceError{Op: "begin clear", Err: err}
	}
	defer tx.Rollback(ctx)

	if _, err := tx.Exec(ctx, deleteCellsSQL); err != nil {
		return 0, &PersistenceError{Op: "clear grid cells", Err: err}
	}
	tag, err := tx.Exec(ctx, deleteCalculationsSQL)
	if err != nil {
		return 0, &PersistenceError{Op: "clear calculations", Err: err}
	}
	if err := tx.Commit(ctx); err != nil {
		return 0, &PersistenceError{Op: "commit clear", Err: err}
	}
	return tag.RowsAffected(), nil
}

// buildListQuery assembles the filtered listing statement. Kept pure so the
// predicate logic is testable without a database.
func buildListQuery(opts ListOptions) (string, []interface{}) {
	var (
		where []string
		args  []interface{}
	)

	if opts.Since != nil {
		args = append(args, *opts.Since)
		where = append(where, fmt.Sprintf("created_at >= $%d", len(args)))
	}
	if opts.Until != nil {
		args = append(args, *opts.Until)
		where = append(where, fmt.Sprintf("created_at < $%d", len(args)))
	}
	if opts.SpotMin != nil {
		args = append(args, numStr(*opts.SpotMin))
		where = append(where, fmt.Sprintf("spot >= $%d", len(args)))
	}
	if opts.SpotMax != nil {
		args = append(args, numStr(*opts.SpotMax))
		where = append(where, fmt.Sprintf("spot <= $%d", len(args)))
	}

	var b strings.Builder
	b.WriteString("SELECT " + calculationColumns + "\n    FROM calculations")
	if len(where) > 0 {
		b.WriteString("\n    WHERE " + strings.Join(where, "\n      AND "))
	}
	if opts.Ascending {
		b.WriteString("\n    ORDER BY created_at ASC, id ASC")
	} else {
		b.WriteString("\n    ORDER BY created_at DESC, id DESC")
	}
	if opts.Limit > 0 {
		args = append(args, opts.Limit)
		b.WriteString(fmt.Sprintf("\n    LIMIT $%d", len(args)))
	}
	b.WriteString(";")

	return b.String(), args
}

// numStr converts a float64 to its shortest exact decimal representation.
// NUMERIC columns store that string verbatim, so reading it back through
// parseNum reproduces the identical float64.
func numStr(v float64) string {
	return decimal.NewFromFloat(v).String()
}

func parseNum(s, column string) (float64, error) {
	d, err := decimal.NewFromString(s)
	if err != nil {
		return 0, fmt.Errorf("parse %s: %w", column, err)
	}
	return d.InexactFloat64(), nil
}

func scanSingleCalculation(rows pgx.Rows) (HistoryRecord, bool, error) {
	defer rows.Close()
	if !rows.Next() {
		return HistoryRecord{}, false, rows.Err()
	}
	rec, err := scanCalculation(rows)
	if err != nil {
		return HistoryRecord{}, false, err
	}
	return rec, true, nil
}

func scanCalculation(rows pgx.Rows) (HistoryRecord, error) {
	var (
		rec    HistoryRecord
		cols   [8]string
		greeks [8]*string
	)

	if err := rows.Scan(
		&rec.ID,
		&cols[0], &cols[1], &cols[2], &cols[3], &cols[4], &cols[5],
		&cols[6], &cols[7],
		&greeks[0], &greeks[1], &greeks[2], &greeks[3], &greeks[4], &greeks[5], &greeks[6], &greeks[7],
		&rec.CreatedAt,
	); err != nil {
		return HistoryRecord{}, err
	}

	required := [8]struct {
		name string
		out  *float64
	}{
		{"spot", &rec.Request.Spot},
		{"strike", &rec.Request.Strike},
		{"time_to_maturity", &rec.Request.TimeToMaturity},
		{"volatility", &rec.Request.Volatility},
		{"risk_free_rate", &rec.Request.RiskFreeRate},
		{"dividend_yield", &rec.Request.DividendYield},
		{"call_price", &rec.Result.CallPrice},
		{"put_price", &rec.Result.PutPrice},
	}
	for i, dest := range required {
		value, err := parseNum(cols[i], dest.name)
		if err != nil {
			return HistoryRecord{}, err
		}
		*dest.out = value
	}

	// Greeks columns are nullable for forward compatibility; a missing value
	// reads back as zero.
	optional := [8]struct {
		name string
		out  *float64
	}{
		{"delta_call", &rec.Result.DeltaCall},
		{"delta_put", &rec.Result.DeltaPut},
		{"gamma", &rec.Result.Gamma},
		{"vega", &rec.Result.Vega},
		{"theta_call", &rec.Result.ThetaCall},
		{"theta_put", &rec.Result.ThetaPut},
		{"rho_call", &rec.Result.RhoCall},
		{"rho_put", &rec.Result.RhoPut},
	}
	for i, dest := range optional {
		if greeks[i] == nil {
			continue
		}
		value, err := parseNum(*greeks[i], dest.name)
		if err != nil {
			return HistoryRecord{}, err
		}
		*dest.out = value
	}

	return rec, nil
}
