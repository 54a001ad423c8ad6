package feed

import (
	"context"
	"io"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/gocarina/gocsv"
	"github.com/google/uuid"
	"github.com/rxtech-lab/argo-pnl/internal/commission_fee"
	"github.com/rxtech-lab/argo-pnl/internal/logger"
	"github.com/rxtech-lab/argo-pnl/internal/types"
	"github.com/rxtech-lab/argo-pnl/pkg/errors"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// csvIDNamespace seeds the name based ids of rows exported without an id column.
var csvIDNamespace = uuid.MustParse("6f1c9a52-3b1e-4a8e-9a4f-2f0d6c1e7b10")

const (
	rowKindTrade = "trade"
	rowKindFee   = "fee"
)

// CSVRow is one line of a fill export.
// Either side or signed_payment must be present on trade rows; signed_payment wins when both are.
// Trade rows sharing an order_id are the legs of one fill. Fee rows reference their fill, or one of its legs, with parent_id.
type CSVRow struct {
	ID            string `csv:"id"`
	Kind          string `csv:"kind"`
	Account       string `csv:"account"`
	Instrument    string `csv:"instrument"`
	Timestamp     string `csv:"timestamp"`
	Side          string `csv:"side"`
	SignedPayment string `csv:"signed_payment"`
	Price         string `csv:"price"`
	Quantity      string `csv:"quantity"`
	Commission    string `csv:"commission"`
	OrderID       string `csv:"order_id"`
	ParentID      string `csv:"parent_id"`
}

// CSVSourceConfig configures a CSVSource.
type CSVSourceConfig struct {
	Path string
	// DefaultAccount is used for rows with an empty account column.
	DefaultAccount string
	// Broker computes the commission of trade rows with an empty commission column. Empty disables it.
	Broker commission_fee.Broker
}

// CSVSource reads fills from a CSV export.
type CSVSource struct {
	config CSVSourceConfig
	fee    commission_fee.CommissionFee
	log    *logger.Logger
}

func NewCSVSource(config CSVSourceConfig, log *logger.Logger) *CSVSource {
	var fee commission_fee.CommissionFee
	if config.Broker != "" {
		fee = commission_fee.GetCommissionFeeHandler(config.Broker)
	}

	return &CSVSource{
		config: config,
		fee:    fee,
		log:    log,
	}
}

func (s *CSVSource) Name() string {
	return "csv:" + s.config.Path
}

// Fetch reads and parses the configured file.
func (s *CSVSource) Fetch(ctx context.Context) ([]types.Fill, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	file, err := os.Open(s.config.Path)
	if err != nil {
		return nil, errors.Wrapf(errors.ErrCodeFeedFetchFailed, err, "failed to open csv file %s", s.config.Path)
	}
	defer file.Close()

	return s.ReadFills(file)
}

// ReadFills parses CSV rows into fills. Legs are aggregated per order and fee rows
// are attached to their parent fill.
func (s *CSVSource) ReadFills(r io.Reader) ([]types.Fill, error) {
	var rows []CSVRow
	if err := gocsv.Unmarshal(r, &rows); err != nil {
		return nil, errors.Wrap(errors.ErrCodeFeedParseFailed, "failed to unmarshal csv", err)
	}

	var (
		fills   []types.Fill
		records []types.CommissionRecord
	)

	// order id -> index into fills
	orders := make(map[string]int)

	for i, row := range rows {
		line := i + 2

		kind := strings.ToLower(strings.TrimSpace(row.Kind))
		if kind != "" && kind != rowKindTrade && kind != rowKindFee {
			return nil, errors.Newf(errors.ErrCodeFeedParseFailed, "line %d: unknown row kind %q", line, row.Kind)
		}

		if kind == rowKindFee {
			record, err := s.parseFeeRow(row, line)
			if err != nil {
				return nil, err
			}

			records = append(records, record)

			continue
		}

		fill, err := s.parseTradeRow(row, line)
		if err != nil {
			return nil, err
		}

		if row.OrderID == "" {
			fills = append(fills, fill)

			continue
		}

		orderKey := fill.Account + "/" + fill.Instrument + "/" + row.OrderID
		if idx, ok := orders[orderKey]; ok {
			merged, err := mergeLeg(fills[idx], fill)
			if err != nil {
				return nil, errors.Wrapf(errors.ErrCodeFeedParseFailed, err, "line %d", line)
			}

			fills[idx] = merged

			continue
		}

		orders[orderKey] = len(fills)
		fills = append(fills, startOrder(row.OrderID, fill))
	}

	fills, unmatched := AttachCommissions(fills, records)
	for _, r := range unmatched {
		s.log.Warn("Commission record references an unknown fill",
			zap.String("record", r.ID),
			zap.String("parent", r.ParentID),
			zap.String("amount", r.Amount.String()),
		)
	}

	return SortAndDedup(fills), nil
}

func (s *CSVSource) parseTradeRow(row CSVRow, line int) (types.Fill, error) {
	fail := func(field string, err error) (types.Fill, error) {
		return types.Fill{}, errors.Wrapf(errors.ErrCodeFeedParseFailed, err, "line %d: invalid %s", line, field)
	}

	timestamp, err := parseTimestamp(row.Timestamp)
	if err != nil {
		return fail("timestamp", err)
	}

	quantity, err := decimal.NewFromString(strings.TrimSpace(row.Quantity))
	if err != nil {
		return fail("quantity", err)
	}

	price, err := parseOptionalDecimal(row.Price)
	if err != nil {
		return fail("price", err)
	}

	payment, err := parseOptionalDecimal(row.SignedPayment)
	if err != nil {
		return fail("signed_payment", err)
	}

	if strings.TrimSpace(row.SignedPayment) == "" {
		direction, err := parseSide(row.Side)
		if err != nil {
			return fail("side", err)
		}

		payment = quantity.Mul(price).Mul(direction.Decimal()).Neg()
	}

	commission, err := parseOptionalDecimal(row.Commission)
	if err != nil {
		return fail("commission", err)
	}

	if strings.TrimSpace(row.Commission) == "" && s.fee != nil {
		commission = s.fee.Calculate(quantity, price)
	}

	account := row.Account
	if account == "" {
		account = s.config.DefaultAccount
	}

	id := row.ID
	if id == "" {
		id = rowID(row, account)
	}

	return types.Fill{
		ID:            id,
		Account:       account,
		Instrument:    row.Instrument,
		Timestamp:     timestamp,
		SignedPayment: payment,
		Price:         price,
		TradeQuantity: quantity,
		Commission:    commission,
		Legs:          nil,
	}, nil
}

func (s *CSVSource) parseFeeRow(row CSVRow, line int) (types.CommissionRecord, error) {
	amount, err := decimal.NewFromString(strings.TrimSpace(row.Commission))
	if err != nil {
		return types.CommissionRecord{}, errors.Wrapf(errors.ErrCodeFeedParseFailed, err, "line %d: invalid commission", line)
	}

	var timestamp time.Time
	if row.Timestamp != "" {
		timestamp, err = parseTimestamp(row.Timestamp)
		if err != nil {
			return types.CommissionRecord{}, errors.Wrapf(errors.ErrCodeFeedParseFailed, err, "line %d: invalid timestamp", line)
		}
	}

	record := types.CommissionRecord{
		ID:        row.ID,
		ParentID:  row.ParentID,
		Amount:    amount,
		Timestamp: timestamp,
	}

	if record.ID == "" {
		record.ID = rowID(row, row.Account)
	}

	if err := record.Validate(); err != nil {
		return types.CommissionRecord{}, errors.Wrapf(errors.ErrCodeFeedParseFailed, err, "line %d", line)
	}

	return record, nil
}

// startOrder turns the first leg of an order into a fill identified by the order id.
func startOrder(orderID string, leg types.Fill) types.Fill {
	fill := leg
	fill.ID = orderID
	fill.Legs = []types.TradeLeg{{ID: leg.ID, Quantity: leg.TradeQuantity, Price: leg.Price}}

	return fill
}

// mergeLeg folds another execution of the same order into the order fill.
func mergeLeg(order types.Fill, leg types.Fill) (types.Fill, error) {
	if order.Direction() != leg.Direction() {
		return order, errors.Newf(errors.ErrCodeInvalidTradeLeg,
			"leg %s trades %s but order trades %s", leg.ID, leg.Direction(), order.Direction()).WithFill(order.ID)
	}

	legs := append(order.Legs, types.TradeLeg{ID: leg.ID, Quantity: leg.TradeQuantity, Price: leg.Price})
	merged := types.AggregateLegs(order, legs)
	merged.SignedPayment = order.SignedPayment.Add(leg.SignedPayment)
	merged.Commission = order.Commission.Abs().Add(leg.Commission.Abs())

	if leg.Timestamp.After(merged.Timestamp) {
		merged.Timestamp = leg.Timestamp
	}

	return merged, nil
}

// rowID derives a stable id from the row content, so re-reading an export yields the same ids.
func rowID(row CSVRow, account string) string {
	name := strings.Join([]string{
		row.Kind, account, row.Instrument, row.Timestamp, row.Side,
		row.SignedPayment, row.Price, row.Quantity, row.Commission, row.OrderID, row.ParentID,
	}, "|")

	return uuid.NewSHA1(csvIDNamespace, []byte(name)).String()
}

// parseTimestamp accepts RFC 3339 timestamps or unix epoch milliseconds.
func parseTimestamp(value string) (time.Time, error) {
	value = strings.TrimSpace(value)

	if ms, err := strconv.ParseInt(value, 10, 64); err == nil {
		return time.UnixMilli(ms).UTC(), nil
	}

	return time.Parse(time.RFC3339Nano, value)
}

func parseOptionalDecimal(value string) (decimal.Decimal, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return decimal.Zero, nil
	}

	return decimal.NewFromString(value)
}

func parseSide(value string) (types.Direction, error) {
	switch strings.ToUpper(strings.TrimSpace(value)) {
	case "BUY", "B":
		return types.DirectionBuy, nil
	case "SELL", "S":
		return types.DirectionSell, nil
	default:
		return types.DirectionNone, errors.Newf(errors.ErrCodeFeedParseFailed, "unknown side %q", value)
	}
}
