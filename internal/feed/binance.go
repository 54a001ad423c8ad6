package feed

import (
	"context"
	"strconv"
	"time"

	"github.com/adshao/go-binance/v2"
	"github.com/rxtech-lab/argo-pnl/internal/logger"
	"github.com/rxtech-lab/argo-pnl/internal/types"
	"github.com/rxtech-lab/argo-pnl/pkg/errors"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

const (
	// binanceTradePageLimit is the maximum page size of the myTrades endpoint.
	binanceTradePageLimit = 1000
	binanceFillPrefix     = "binance-"
)

// BinanceSymbol is one spot market whose trades are folded into a position.
type BinanceSymbol struct {
	Symbol     string `yaml:"symbol" json:"symbol" jsonschema:"title=Symbol,description=Binance spot symbol such as BTCUSDT" validate:"required"`
	BaseAsset  string `yaml:"base_asset" json:"base_asset" jsonschema:"title=Base Asset,description=Asset whose balance is the position size" validate:"required"`
	QuoteAsset string `yaml:"quote_asset" json:"quote_asset" jsonschema:"title=Quote Asset,description=Asset payments and commission are expressed in" validate:"required"`
}

// BinanceSourceConfig contains configuration for the Binance fill feed.
type BinanceSourceConfig struct {
	ApiKey    string `yaml:"api_key" json:"api_key" jsonschema:"title=API Key,description=Binance API key" validate:"required"`
	SecretKey string `yaml:"secret_key" json:"secret_key" jsonschema:"title=Secret Key,description=Binance API secret key" validate:"required"`
	// BaseURL takes precedence over UseTestnet when set.
	BaseURL    string          `yaml:"base_url,omitempty" json:"base_url,omitempty" jsonschema:"title=Base URL,description=Override of the REST endpoint"`
	UseTestnet bool            `yaml:"use_testnet" json:"use_testnet" jsonschema:"title=Use Testnet,description=Connect to the Binance spot testnet"`
	Symbols    []BinanceSymbol `yaml:"symbols" json:"symbols" jsonschema:"title=Symbols,description=Markets to fetch trades for" validate:"required,min=1,dive"`
	// StartTime limits the first page of each symbol, zero fetches the full history.
	StartTime time.Time `yaml:"start_time,omitempty" json:"start_time,omitempty" jsonschema:"title=Start Time,description=Earliest trade to fetch"`
}

// Validate validates the BinanceSourceConfig struct.
func (c *BinanceSourceConfig) Validate() error {
	if err := types.Validator().Struct(c); err != nil {
		return errors.Wrap(errors.ErrCodeInvalidConfiguration, "invalid binance feed config", err)
	}

	return nil
}

// BinanceSource fetches the spot trades of one account and turns every order into a fill.
// Partial executions of an order become the legs of that fill.
type BinanceSource struct {
	client  BinanceClient
	account string
	config  BinanceSourceConfig
	log     *logger.Logger
}

// NewBinanceSource creates a Binance fill feed for the given account name.
// If config.UseTestnet is true, connects to Binance Testnet (https://testnet.binance.vision/).
func NewBinanceSource(account string, config BinanceSourceConfig, log *logger.Logger) (*BinanceSource, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}

	if config.UseTestnet {
		binance.UseTestnet = true
	}

	client := binance.NewClient(config.ApiKey, config.SecretKey)

	if config.BaseURL != "" {
		client.BaseURL = config.BaseURL
	}

	return newBinanceSourceWithClient(account, config, &realBinanceClient{client: client}, log), nil
}

// newBinanceSourceWithClient creates a Binance source with a custom client.
// This is used for testing with mock clients.
func newBinanceSourceWithClient(account string, config BinanceSourceConfig, client BinanceClient, log *logger.Logger) *BinanceSource {
	return &BinanceSource{
		client:  client,
		account: account,
		config:  config,
		log:     log,
	}
}

func (b *BinanceSource) Name() string {
	return "binance:" + b.account
}

// Fetch pages through the trades of every configured symbol.
func (b *BinanceSource) Fetch(ctx context.Context) ([]types.Fill, error) {
	var fills []types.Fill

	for _, symbol := range b.config.Symbols {
		trades, err := b.listTrades(ctx, symbol.Symbol)
		if err != nil {
			return nil, err
		}

		symbolFills, err := b.tradesToFills(symbol, trades)
		if err != nil {
			return nil, err
		}

		b.log.Debug("Fetched binance trades",
			zap.String("account", b.account),
			zap.String("instrument", symbol.Symbol),
			zap.Int("trades", len(trades)),
			zap.Int("fills", len(symbolFills)),
		)

		fills = append(fills, symbolFills...)
	}

	return SortAndDedup(fills), nil
}

// listTrades walks the trade history forward by trade id until a short page.
func (b *BinanceSource) listTrades(ctx context.Context, symbol string) ([]*binance.TradeV3, error) {
	var (
		all    []*binance.TradeV3
		fromID int64 = -1
	)

	for {
		service := b.client.NewListTradesService().Symbol(symbol).Limit(binanceTradePageLimit)

		switch {
		case fromID >= 0:
			service = service.FromID(fromID)
		case !b.config.StartTime.IsZero():
			service = service.StartTime(b.config.StartTime.UnixMilli())
		}

		page, err := service.Do(ctx)
		if err != nil {
			return nil, errors.Wrapf(errors.ErrCodeFeedFetchFailed, err, "failed to get trades for %s from Binance", symbol)
		}

		for _, t := range page {
			all = append(all, t)

			if t.ID >= fromID {
				fromID = t.ID + 1
			}
		}

		if len(page) < binanceTradePageLimit {
			return all, nil
		}
	}
}

// tradesToFills groups trades by order. The fill timestamp is the last execution of the order.
func (b *BinanceSource) tradesToFills(symbol BinanceSymbol, trades []*binance.TradeV3) ([]types.Fill, error) {
	var fills []types.Fill

	orders := make(map[int64]int)

	for _, t := range trades {
		leg, err := b.convertBinanceTrade(symbol, t)
		if err != nil {
			return nil, err
		}

		idx, ok := orders[t.OrderID]
		if !ok {
			orders[t.OrderID] = len(fills)
			fills = append(fills, startOrder(binanceFillPrefix+strconv.FormatInt(t.OrderID, 10), leg))

			continue
		}

		merged, err := mergeLeg(fills[idx], leg)
		if err != nil {
			return nil, errors.Wrap(errors.ErrCodeFeedParseFailed, "inconsistent binance order", err)
		}

		fills[idx] = merged
	}

	return fills, nil
}

// convertBinanceTrade converts a Binance trade to a single-leg fill.
func (b *BinanceSource) convertBinanceTrade(symbol BinanceSymbol, t *binance.TradeV3) (types.Fill, error) {
	fail := func(field string, err error) (types.Fill, error) {
		return types.Fill{}, errors.Wrapf(errors.ErrCodeFeedParseFailed, err,
			"trade %d of %s: invalid %s", t.ID, symbol.Symbol, field)
	}

	quantity, err := decimal.NewFromString(t.Quantity)
	if err != nil {
		return fail("qty", err)
	}

	price, err := decimal.NewFromString(t.Price)
	if err != nil {
		return fail("price", err)
	}

	notional := quantity.Mul(price)
	if t.QuoteQuantity != "" {
		notional, err = decimal.NewFromString(t.QuoteQuantity)
		if err != nil {
			return fail("quoteQty", err)
		}
	}

	payment := notional
	if t.IsBuyer {
		payment = notional.Neg()
	}

	commission, baseFee, err := b.tradeCommission(symbol, t)
	if err != nil {
		return fail("commission", err)
	}

	// A base asset fee changes the units held, not the cash paid: the buyer receives
	// fewer units and the seller gives up more than were sold.
	if t.IsBuyer {
		quantity = quantity.Sub(baseFee)
	} else {
		quantity = quantity.Add(baseFee)
	}

	if !quantity.IsPositive() {
		return fail("commission", errors.Newf(errors.ErrCodeInvalidFill,
			"base asset fee %s consumes the whole execution", baseFee))
	}

	return types.Fill{
		ID:            strconv.FormatInt(t.ID, 10),
		Account:       b.account,
		Instrument:    symbol.Symbol,
		Timestamp:     time.UnixMilli(t.Time).UTC(),
		SignedPayment: payment,
		Price:         price,
		TradeQuantity: quantity,
		Commission:    commission,
		Legs:          nil,
	}, nil
}

// tradeCommission splits the trade commission by asset. Commission in the quote asset is
// returned as cost. Commission in the base asset is returned as baseFee so the caller can
// adjust the traded quantity. Any other asset (a discount token) cannot be valued from the
// trade alone and is skipped.
func (b *BinanceSource) tradeCommission(symbol BinanceSymbol, t *binance.TradeV3) (commission decimal.Decimal, baseFee decimal.Decimal, err error) {
	if t.Commission == "" {
		return decimal.Zero, decimal.Zero, nil
	}

	amount, err := decimal.NewFromString(t.Commission)
	if err != nil {
		return decimal.Zero, decimal.Zero, err
	}

	switch t.CommissionAsset {
	case symbol.QuoteAsset, "":
		return amount.Abs(), decimal.Zero, nil
	case symbol.BaseAsset:
		return decimal.Zero, amount.Abs(), nil
	default:
		if !amount.IsZero() {
			b.log.Warn("Skipping commission charged in a third asset",
				zap.String("account", b.account),
				zap.String("instrument", symbol.Symbol),
				zap.Int64("trade", t.ID),
				zap.String("asset", t.CommissionAsset),
				zap.String("amount", amount.String()),
			)
		}

		return decimal.Zero, decimal.Zero, nil
	}
}

// ReportedQuantities returns the base asset balance (free plus locked) of every configured symbol.
func (b *BinanceSource) ReportedQuantities(ctx context.Context) (map[types.PositionKey]decimal.Decimal, error) {
	account, err := b.client.NewGetAccountService().Do(ctx)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeFeedFetchFailed, "failed to get account info from Binance", err)
	}

	balances := make(map[string]decimal.Decimal, len(account.Balances))

	for _, balance := range account.Balances {
		free, err := decimal.NewFromString(balance.Free)
		if err != nil {
			return nil, errors.Wrapf(errors.ErrCodeFeedParseFailed, err, "invalid free balance for %s", balance.Asset)
		}

		locked, err := decimal.NewFromString(balance.Locked)
		if err != nil {
			return nil, errors.Wrapf(errors.ErrCodeFeedParseFailed, err, "invalid locked balance for %s", balance.Asset)
		}

		balances[balance.Asset] = balances[balance.Asset].Add(free).Add(locked)
	}

	reported := make(map[types.PositionKey]decimal.Decimal, len(b.config.Symbols))
	for _, symbol := range b.config.Symbols {
		reported[types.PositionKey{Account: b.account, Instrument: symbol.Symbol}] = balances[symbol.BaseAsset]
	}

	return reported, nil
}
