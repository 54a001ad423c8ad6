package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/Masterminds/squirrel"
	_ "github.com/marcboeker/go-duckdb"
	"github.com/moznion/go-optional"
	"github.com/rxtech-lab/argo-pnl/internal/logger"
	"github.com/rxtech-lab/argo-pnl/internal/types"
	"github.com/rxtech-lab/argo-pnl/internal/version"
	"github.com/rxtech-lab/argo-pnl/pkg/errors"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

const (
	metaEngineVersion = "engine_version"
	// insertBatchSize bounds the rows of one multi-row insert statement.
	insertBatchSize = 256
)

var fillColumns = []string{
	"account", "instrument", "seq", "fill_id", "ts", "ts_ns",
	"signed_payment", "price", "trade_quantity", "commission", "legs",
}

var resultColumns = []string{
	"account", "instrument", "seq", "fill_id", "ts", "ts_ns", "transition",
	"average_price", "average_price_corrected", "current_quantity", "fixed_pnl",
}

// DuckDBStore is a FillStore backed by a DuckDB database file.
// Money and quantity columns are stored as decimal strings so reloaded fills fold to identical results.
// The history tables carry no primary key: a history is always rewritten as a whole inside one
// transaction, and DuckDB rejects re-inserting a key deleted earlier in the same transaction.
type DuckDBStore struct {
	db     *sql.DB
	logger *logger.Logger
	sq     squirrel.StatementBuilderType
	// writes are serialized; DuckDB aborts conflicting concurrent transactions
	mu sync.Mutex
}

// NewDuckDBStore opens (or creates) the database at path. An empty path or ":memory:" opens an in-memory database.
// A database created by an incompatible engine version is refused.
func NewDuckDBStore(path string, log *logger.Logger) (*DuckDBStore, error) {
	if path == "" {
		path = ":memory:"
	}

	if path != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
			return nil, errors.Wrap(errors.ErrCodeStoreInitFailed, "failed to create store directory", err)
		}
	}

	db, err := sql.Open("duckdb", path)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeStoreInitFailed, "failed to open database", err)
	}

	store := &DuckDBStore{
		db:     db,
		logger: log,
		sq:     squirrel.StatementBuilder.PlaceholderFormat(squirrel.Question),
	}

	if err := store.initialize(context.Background()); err != nil {
		db.Close()

		return nil, err
	}

	return store, nil
}

// initialize creates the tables and checks the engine version recorded in the database.
func (s *DuckDBStore) initialize(ctx context.Context) error {
	// Use raw SQL for DDL - Squirrel doesn't have CREATE TABLE syntax
	statements := []string{
		`CREATE TABLE IF NOT EXISTS meta (
			key VARCHAR PRIMARY KEY,
			value VARCHAR
		)`,
		`CREATE TABLE IF NOT EXISTS fills (
			account VARCHAR NOT NULL,
			instrument VARCHAR NOT NULL,
			seq INTEGER NOT NULL,
			fill_id VARCHAR NOT NULL,
			ts TIMESTAMP NOT NULL,
			ts_ns BIGINT NOT NULL,
			signed_payment VARCHAR NOT NULL,
			price VARCHAR NOT NULL,
			trade_quantity VARCHAR NOT NULL,
			commission VARCHAR NOT NULL,
			legs VARCHAR
		)`,
		`CREATE TABLE IF NOT EXISTS fill_results (
			account VARCHAR NOT NULL,
			instrument VARCHAR NOT NULL,
			seq INTEGER NOT NULL,
			fill_id VARCHAR NOT NULL,
			ts TIMESTAMP NOT NULL,
			ts_ns BIGINT NOT NULL,
			transition VARCHAR NOT NULL,
			average_price VARCHAR,
			average_price_corrected VARCHAR,
			current_quantity VARCHAR NOT NULL,
			fixed_pnl VARCHAR
		)`,
	}

	for _, stmt := range statements {
		if _, err := s.db.ExecContext(ctx, stmt); err != nil {
			return errors.Wrap(errors.ErrCodeStoreInitFailed, "failed to create tables", err)
		}
	}

	stored, err := s.meta(ctx, metaEngineVersion)
	if err != nil {
		return err
	}

	if stored.IsNone() {
		return s.setMeta(ctx, metaEngineVersion, version.GetVersion())
	}

	if err := version.CheckVersionCompatibility(version.GetVersion(), stored.Unwrap()); err != nil {
		return err
	}

	return nil
}

func (s *DuckDBStore) meta(ctx context.Context, key string) (optional.Option[string], error) {
	var value string

	err := s.sq.Select("value").From("meta").Where(squirrel.Eq{"key": key}).
		RunWith(s.db).QueryRowContext(ctx).Scan(&value)
	if err == sql.ErrNoRows {
		return optional.None[string](), nil
	}

	if err != nil {
		return optional.None[string](), errors.Wrap(errors.ErrCodeStoreReadFailed, "failed to read store metadata", err)
	}

	return optional.Some(value), nil
}

func (s *DuckDBStore) setMeta(ctx context.Context, key, value string) error {
	_, err := s.sq.Insert("meta").Options("OR REPLACE").
		Columns("key", "value").Values(key, value).
		RunWith(s.db).ExecContext(ctx)
	if err != nil {
		return errors.Wrap(errors.ErrCodeStoreWriteFailed, "failed to write store metadata", err)
	}

	return nil
}

// StoredVersion returns the engine version that created the database.
func (s *DuckDBStore) StoredVersion(ctx context.Context) (string, error) {
	v, err := s.meta(ctx, metaEngineVersion)
	if err != nil {
		return "", err
	}

	return v.TakeOr(""), nil
}

// SaveHistory replaces the rows of key inside one transaction.
func (s *DuckDBStore) SaveHistory(ctx context.Context, key types.PositionKey, fills []types.Fill, results []types.FillResult) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return errors.Wrap(errors.ErrCodeStoreWriteFailed, "failed to begin transaction", err)
	}

	if err := s.replaceHistory(ctx, tx, key, fills, results); err != nil {
		tx.Rollback()

		return err
	}

	if err := tx.Commit(); err != nil {
		return errors.Wrap(errors.ErrCodeStoreWriteFailed, "failed to commit history", err)
	}

	s.logger.Debug("Saved position history",
		zap.String("account", key.Account),
		zap.String("instrument", key.Instrument),
		zap.Int("fills", len(fills)),
		zap.Int("results", len(results)),
	)

	return nil
}

func (s *DuckDBStore) replaceHistory(ctx context.Context, tx *sql.Tx, key types.PositionKey, fills []types.Fill, results []types.FillResult) error {
	if err := s.deleteKey(ctx, tx, key); err != nil {
		return err
	}

	for start := 0; start < len(fills); start += insertBatchSize {
		end := min(start+insertBatchSize, len(fills))

		insert := s.sq.Insert("fills").Columns(fillColumns...)

		for i, f := range fills[start:end] {
			legs, err := json.Marshal(f.Legs)
			if err != nil {
				return errors.Wrap(errors.ErrCodeStoreWriteFailed, "failed to encode trade legs", err).WithFill(f.ID)
			}

			insert = insert.Values(
				key.Account, key.Instrument, start+i, f.ID, f.Timestamp.UTC(), f.Timestamp.UnixNano(),
				f.SignedPayment.String(), f.Price.String(), f.TradeQuantity.String(), f.Commission.String(), string(legs),
			)
		}

		if _, err := insert.RunWith(tx).ExecContext(ctx); err != nil {
			return errors.Wrap(errors.ErrCodeStoreWriteFailed, "failed to insert fills", err)
		}
	}

	for start := 0; start < len(results); start += insertBatchSize {
		end := min(start+insertBatchSize, len(results))

		insert := s.sq.Insert("fill_results").Columns(resultColumns...)

		for _, r := range results[start:end] {
			insert = insert.Values(
				key.Account, key.Instrument, r.Sequence, r.FillID, r.Timestamp.UTC(), r.Timestamp.UnixNano(),
				string(r.Transition), nullableDecimal(r.AveragePrice), nullableDecimal(r.AveragePriceCorrected),
				r.CurrentQuantity.String(), nullableDecimal(r.FixedPnL),
			)
		}

		if _, err := insert.RunWith(tx).ExecContext(ctx); err != nil {
			return errors.Wrap(errors.ErrCodeStoreWriteFailed, "failed to insert fill results", err)
		}
	}

	return nil
}

func (s *DuckDBStore) deleteKey(ctx context.Context, runner squirrel.BaseRunner, key types.PositionKey) error {
	where := squirrel.Eq{"account": key.Account, "instrument": key.Instrument}

	for _, table := range []string{"fills", "fill_results"} {
		if _, err := s.sq.Delete(table).Where(where).RunWith(runner).ExecContext(ctx); err != nil {
			return errors.Wrapf(errors.ErrCodeStoreWriteFailed, err, "failed to delete from %s", table)
		}
	}

	return nil
}

// LoadFills returns the fills of key ordered by their fold sequence.
func (s *DuckDBStore) LoadFills(ctx context.Context, key types.PositionKey) ([]types.Fill, error) {
	rows, err := s.sq.
		Select("fill_id", "ts_ns", "signed_payment", "price", "trade_quantity", "commission", "legs").
		From("fills").
		Where(squirrel.Eq{"account": key.Account, "instrument": key.Instrument}).
		OrderBy("seq ASC").
		RunWith(s.db).
		QueryContext(ctx)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeStoreReadFailed, "failed to query fills", err)
	}
	defer rows.Close()

	var fills []types.Fill

	for rows.Next() {
		var (
			id                                   string
			tsNanos                              int64
			payment, price, quantity, commission decimal.Decimal
			legs                                 sql.NullString
		)

		if err := rows.Scan(&id, &tsNanos, &payment, &price, &quantity, &commission, &legs); err != nil {
			return nil, errors.Wrap(errors.ErrCodeStoreReadFailed, "failed to scan fill", err)
		}

		fill := types.Fill{
			ID:            id,
			Account:       key.Account,
			Instrument:    key.Instrument,
			Timestamp:     time.Unix(0, tsNanos).UTC(),
			SignedPayment: payment,
			Price:         price,
			TradeQuantity: quantity,
			Commission:    commission,
			Legs:          nil,
		}

		if legs.Valid && legs.String != "" {
			if err := json.Unmarshal([]byte(legs.String), &fill.Legs); err != nil {
				return nil, errors.Wrap(errors.ErrCodeStoreReadFailed, "failed to decode trade legs", err).WithFill(id)
			}
		}

		fills = append(fills, fill)
	}

	if err := rows.Err(); err != nil {
		return nil, errors.Wrap(errors.ErrCodeStoreReadFailed, "error iterating fills", err)
	}

	return fills, nil
}

// LoadResults returns the results of key ordered by sequence.
func (s *DuckDBStore) LoadResults(ctx context.Context, key types.PositionKey) ([]types.FillResult, error) {
	rows, err := s.sq.
		Select("seq", "fill_id", "ts_ns", "transition", "average_price", "average_price_corrected", "current_quantity", "fixed_pnl").
		From("fill_results").
		Where(squirrel.Eq{"account": key.Account, "instrument": key.Instrument}).
		OrderBy("seq ASC").
		RunWith(s.db).
		QueryContext(ctx)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeStoreReadFailed, "failed to query fill results", err)
	}
	defer rows.Close()

	var results []types.FillResult

	for rows.Next() {
		var (
			result                   types.FillResult
			tsNanos                  int64
			transition               string
			avg, avgCorrected, fixed sql.NullString
			quantity                 decimal.Decimal
		)

		if err := rows.Scan(&result.Sequence, &result.FillID, &tsNanos, &transition, &avg, &avgCorrected, &quantity, &fixed); err != nil {
			return nil, errors.Wrap(errors.ErrCodeStoreReadFailed, "failed to scan fill result", err)
		}

		result.Timestamp = time.Unix(0, tsNanos).UTC()
		result.Transition = types.Transition(transition)
		result.CurrentQuantity = quantity

		if result.AveragePrice, err = parseNullableDecimal(avg); err != nil {
			return nil, err
		}

		if result.AveragePriceCorrected, err = parseNullableDecimal(avgCorrected); err != nil {
			return nil, err
		}

		if result.FixedPnL, err = parseNullableDecimal(fixed); err != nil {
			return nil, err
		}

		results = append(results, result)
	}

	if err := rows.Err(); err != nil {
		return nil, errors.Wrap(errors.ErrCodeStoreReadFailed, "error iterating fill results", err)
	}

	return results, nil
}

// Keys lists every stored position.
func (s *DuckDBStore) Keys(ctx context.Context) ([]types.PositionKey, error) {
	rows, err := s.sq.
		Select("account", "instrument").
		Distinct().
		From("fills").
		OrderBy("account ASC", "instrument ASC").
		RunWith(s.db).
		QueryContext(ctx)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeStoreReadFailed, "failed to query positions", err)
	}
	defer rows.Close()

	var keys []types.PositionKey

	for rows.Next() {
		var key types.PositionKey
		if err := rows.Scan(&key.Account, &key.Instrument); err != nil {
			return nil, errors.Wrap(errors.ErrCodeStoreReadFailed, "failed to scan position", err)
		}

		keys = append(keys, key)
	}

	if err := rows.Err(); err != nil {
		return nil, errors.Wrap(errors.ErrCodeStoreReadFailed, "error iterating positions", err)
	}

	return keys, nil
}

// Delete removes the fills and results of key.
func (s *DuckDBStore) Delete(ctx context.Context, key types.PositionKey) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.deleteKey(ctx, s.db, key)
}

// ExportParquet writes fills.parquet and fill_results.parquet into dir.
func (s *DuckDBStore) ExportParquet(ctx context.Context, dir string) error {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return errors.Wrap(errors.ErrCodeStoreExportFailed, "failed to create directory", err)
	}

	exports := map[string]string{
		"fills":        filepath.Join(dir, "fills.parquet"),
		"fill_results": filepath.Join(dir, "fill_results.parquet"),
	}

	for _, table := range []string{"fills", "fill_results"} {
		// Using raw SQL as Squirrel doesn't support COPY
		query := fmt.Sprintf(`COPY (SELECT * FROM %s ORDER BY account, instrument, seq) TO '%s' (FORMAT PARQUET)`,
			table, exports[table])
		if _, err := s.db.ExecContext(ctx, query); err != nil {
			return errors.Wrapf(errors.ErrCodeStoreExportFailed, err, "failed to export %s to Parquet", table)
		}
	}

	s.logger.Info("Successfully exported fill history to Parquet files",
		zap.String("fills", exports["fills"]),
		zap.String("fill_results", exports["fill_results"]),
	)

	return nil
}

func (s *DuckDBStore) Close() error {
	return s.db.Close()
}

func nullableDecimal(value optional.Option[decimal.Decimal]) any {
	if value.IsNone() {
		return nil
	}

	return value.Unwrap().String()
}

func parseNullableDecimal(value sql.NullString) (optional.Option[decimal.Decimal], error) {
	if !value.Valid {
		return optional.None[decimal.Decimal](), nil
	}

	d, err := decimal.NewFromString(value.String)
	if err != nil {
		return optional.None[decimal.Decimal](), errors.Wrap(errors.ErrCodeStoreReadFailed, "invalid stored decimal", err)
	}

	return optional.Some(d), nil
}
