// Package ledger keeps the accounting state of many positions. It owns the fill
// histories, persists them through a store.FillStore and re-folds them with the
// accounting engine whenever new fills arrive.
package ledger

import (
	"cmp"
	"context"
	"slices"
	"strings"
	"sync"

	"github.com/moznion/go-optional"
	"github.com/rxtech-lab/argo-pnl/internal/accounting"
	"github.com/rxtech-lab/argo-pnl/internal/logger"
	"github.com/rxtech-lab/argo-pnl/internal/store"
	"github.com/rxtech-lab/argo-pnl/internal/types"
	"github.com/rxtech-lab/argo-pnl/pkg/errors"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// Config tunes a Ledger.
type Config struct {
	// Tolerance is the largest reported-minus-computed size difference that is not a mismatch.
	Tolerance decimal.Decimal
	// Workers bounds how many positions IngestAll folds at once. Zero means 4.
	Workers int
}

// book is the in-memory accounting of one position. Its mutex serializes every
// operation on that position; distinct positions proceed in parallel.
type book struct {
	mu       sync.Mutex
	loaded   bool
	position types.Position
}

// Ledger folds the fill history of every position it is given.
type Ledger struct {
	store  store.FillStore
	logger *logger.Logger
	config Config

	mu    sync.Mutex
	books map[types.PositionKey]*book
}

// IngestResult is the outcome of ingesting the fills of one position.
type IngestResult struct {
	Key      types.PositionKey
	Position types.Position
	// Added counts the fills that were new to the history.
	Added int
	Err   error
}

func NewLedger(fillStore store.FillStore, log *logger.Logger, config Config) *Ledger {
	if config.Workers <= 0 {
		config.Workers = 4
	}

	return &Ledger{
		store:  fillStore,
		logger: log,
		config: config,
		books:  make(map[types.PositionKey]*book),
	}
}

func (l *Ledger) book(key types.PositionKey) *book {
	l.mu.Lock()
	defer l.mu.Unlock()

	b, ok := l.books[key]
	if !ok {
		b = &book{position: types.Position{Key: key}}
		l.books[key] = b
	}

	return b
}

// load reads the stored history of a position the first time it is touched and refolds it.
// Stored results that no longer match the refold are replaced. Caller holds b.mu.
func (l *Ledger) load(ctx context.Context, key types.PositionKey, b *book) error {
	if b.loaded {
		return nil
	}

	fills, err := l.store.LoadFills(ctx, key)
	if err != nil {
		return err
	}

	state, results, err := accounting.FoldFillSeries(fills)
	if err != nil {
		return errors.Wrapf(errors.ErrCodeStoreReadFailed, err, "stored history of %s does not fold", key)
	}

	if len(fills) > 0 {
		stored, err := l.store.LoadResults(ctx, key)
		if err != nil {
			return err
		}

		if !sameResults(stored, results) {
			l.logger.Info("Stored results differ from the refold, refreshing them",
				zap.String("account", key.Account),
				zap.String("instrument", key.Instrument),
				zap.Int("stored", len(stored)),
				zap.Int("folded", len(results)),
			)

			if err := l.store.SaveHistory(ctx, key, fills, results); err != nil {
				return err
			}
		}
	}

	b.position.Fills = fills
	b.position.State = state
	b.position.Results = results
	b.loaded = true

	return nil
}

func sameResults(a, b []types.FillResult) bool {
	return slices.EqualFunc(a, b, func(x, y types.FillResult) bool {
		return x.FillID == y.FillID &&
			x.Sequence == y.Sequence &&
			x.Transition == y.Transition &&
			x.CurrentQuantity.Equal(y.CurrentQuantity) &&
			sameOption(x.AveragePrice, y.AveragePrice) &&
			sameOption(x.AveragePriceCorrected, y.AveragePriceCorrected) &&
			sameOption(x.FixedPnL, y.FixedPnL)
	})
}

func sameOption(a, b optional.Option[decimal.Decimal]) bool {
	if a.IsNone() || b.IsNone() {
		return a.IsNone() == b.IsNone()
	}

	return a.Unwrap().Equal(b.Unwrap())
}

// Load reads every stored position.
func (l *Ledger) Load(ctx context.Context) error {
	keys, err := l.store.Keys(ctx)
	if err != nil {
		return err
	}

	for _, key := range keys {
		b := l.book(key)

		b.mu.Lock()
		err := l.load(ctx, key, b)
		b.mu.Unlock()

		if err != nil {
			return err
		}
	}

	return nil
}

// Ingest merges fills into the history of key and returns the refreshed position.
// Fills whose id is already known are ignored. When every new fill is at or after the
// last applied one the fold continues from the current state; otherwise the whole
// history is re-sorted and folded from scratch. A fill the engine rejects leaves both
// the in-memory and the stored history unchanged.
func (l *Ledger) Ingest(ctx context.Context, key types.PositionKey, fills []types.Fill) (types.Position, error) {
	position, _, err := l.ingest(ctx, key, fills)

	return position, err
}

func (l *Ledger) ingest(ctx context.Context, key types.PositionKey, fills []types.Fill) (types.Position, int, error) {
	for i := range fills {
		if fills[i].Key() != key {
			return types.Position{}, 0, errors.Newf(errors.ErrCodeInvalidParameter,
				"fill belongs to %s, not %s", fills[i].Key(), key).WithFill(fills[i].ID)
		}

		if err := fills[i].Validate(); err != nil {
			return types.Position{}, 0, err
		}
	}

	b := l.book(key)

	b.mu.Lock()
	defer b.mu.Unlock()

	if err := l.load(ctx, key, b); err != nil {
		return types.Position{}, 0, err
	}

	known := make(map[string]struct{}, len(b.position.Fills)+len(fills))
	for _, f := range b.position.Fills {
		known[f.ID] = struct{}{}
	}

	var added []types.Fill

	for _, f := range fills {
		if _, ok := known[f.ID]; ok {
			continue
		}

		known[f.ID] = struct{}{}
		added = append(added, f)
	}

	if len(added) == 0 {
		return snapshot(b.position), 0, nil
	}

	slices.SortStableFunc(added, func(a, c types.Fill) int { return a.Timestamp.Compare(c.Timestamp) })

	var (
		history []types.Fill
		state   types.AccountingState
		results []types.FillResult
		err     error
	)

	current := b.position.State
	if current.AppliedFills == 0 || !added[0].Timestamp.Before(current.LastTimestamp) {
		var tail []types.FillResult

		state, tail, err = accounting.ContinueFold(current, added)
		history = append(slices.Clone(b.position.Fills), added...)
		results = append(slices.Clone(b.position.Results), tail...)
	} else {
		history = append(slices.Clone(b.position.Fills), added...)
		slices.SortStableFunc(history, func(a, c types.Fill) int { return a.Timestamp.Compare(c.Timestamp) })

		l.logger.Info("Late fill received, refolding position",
			zap.String("account", key.Account),
			zap.String("instrument", key.Instrument),
			zap.String("fill", added[0].ID),
		)

		state, results, err = accounting.FoldFillSeries(history)
	}

	if err != nil {
		l.logger.Warn("Rejected fill series",
			zap.String("account", key.Account),
			zap.String("instrument", key.Instrument),
			zap.String("fill", errors.GetFillID(err)),
			zap.Error(err),
		)

		return types.Position{}, 0, err
	}

	if err := l.store.SaveHistory(ctx, key, history, results); err != nil {
		return types.Position{}, 0, err
	}

	b.position.Fills = history
	b.position.State = state
	b.position.Results = results

	l.logger.Info("Ingested fills",
		zap.String("account", key.Account),
		zap.String("instrument", key.Instrument),
		zap.Int("added", len(added)),
		zap.String("quantity", state.CurrentQuantity.String()),
		zap.String("total_fixed_pnl", state.TotalFixedPnL.String()),
	)

	return snapshot(b.position), len(added), nil
}

// IngestAll ingests several positions concurrently, at most Config.Workers at a time.
// Every batch gets a result; a failing position does not stop the others.
// onDone, when not nil, is called after each position and may be called concurrently.
func (l *Ledger) IngestAll(ctx context.Context, batches map[types.PositionKey][]types.Fill, onDone func(IngestResult)) []IngestResult {
	keys := make([]types.PositionKey, 0, len(batches))
	for key := range batches {
		keys = append(keys, key)
	}

	slices.SortFunc(keys, compareKeys)

	results := make([]IngestResult, len(keys))

	var group errgroup.Group
	group.SetLimit(l.config.Workers)

	for i, key := range keys {
		group.Go(func() error {
			position, added, err := l.ingest(ctx, key, batches[key])
			results[i] = IngestResult{Key: key, Position: position, Added: added, Err: err}

			if onDone != nil {
				onDone(results[i])
			}

			return nil
		})
	}

	_ = group.Wait()

	return results
}

// Reconcile compares the computed size of key with an externally reported one and
// records the reported size on the position. A mismatch beyond the configured
// tolerance is logged and returned; it never changes the computed state.
func (l *Ledger) Reconcile(ctx context.Context, key types.PositionKey, reported decimal.Decimal) (optional.Option[types.ReconciliationWarning], error) {
	b := l.book(key)

	b.mu.Lock()
	defer b.mu.Unlock()

	if err := l.load(ctx, key, b); err != nil {
		return optional.None[types.ReconciliationWarning](), err
	}

	b.position.ReportedQuantity = optional.Some(reported)

	warning := accounting.Reconcile(key, b.position.State, reported, l.config.Tolerance)
	if warning.IsSome() {
		w := warning.Unwrap()
		l.logger.Warn("Position size mismatch",
			zap.String("account", key.Account),
			zap.String("instrument", key.Instrument),
			zap.String("computed", w.Computed.String()),
			zap.String("reported", w.Reported.String()),
			zap.String("diff", w.Diff.String()),
		)
	}

	return warning, nil
}

// Position returns a snapshot of key, None when the ledger holds no fills for it.
func (l *Ledger) Position(ctx context.Context, key types.PositionKey) (optional.Option[types.Position], error) {
	b := l.book(key)

	b.mu.Lock()
	defer b.mu.Unlock()

	if err := l.load(ctx, key, b); err != nil {
		return optional.None[types.Position](), err
	}

	if len(b.position.Fills) == 0 {
		return optional.None[types.Position](), nil
	}

	return optional.Some(snapshot(b.position)), nil
}

// Positions returns snapshots of every position holding fills, sorted by key.
func (l *Ledger) Positions() []types.Position {
	l.mu.Lock()
	books := make([]*book, 0, len(l.books))
	for _, b := range l.books {
		books = append(books, b)
	}
	l.mu.Unlock()

	positions := make([]types.Position, 0, len(books))

	for _, b := range books {
		b.mu.Lock()
		if len(b.position.Fills) > 0 {
			positions = append(positions, snapshot(b.position))
		}
		b.mu.Unlock()
	}

	slices.SortFunc(positions, func(a, c types.Position) int { return compareKeys(a.Key, c.Key) })

	return positions
}

// Remove discards a position and its stored history. The book itself stays registered
// and is reset in place, so callers already waiting on it keep serializing with later ones.
func (l *Ledger) Remove(ctx context.Context, key types.PositionKey) error {
	b := l.book(key)

	b.mu.Lock()
	defer b.mu.Unlock()

	if err := l.store.Delete(ctx, key); err != nil {
		return err
	}

	b.position = types.Position{Key: key}
	b.loaded = true

	l.logger.Info("Removed position",
		zap.String("account", key.Account),
		zap.String("instrument", key.Instrument),
	)

	return nil
}

// snapshot copies the slices of a position so callers cannot alias ledger state.
func snapshot(p types.Position) types.Position {
	p.Fills = slices.Clone(p.Fills)
	p.Results = slices.Clone(p.Results)

	return p
}

func compareKeys(a, b types.PositionKey) int {
	return cmp.Or(
		strings.Compare(a.Account, b.Account),
		strings.Compare(a.Instrument, b.Instrument),
	)
}
