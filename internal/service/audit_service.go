package service

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"sort"
	"strconv"
	"sync"
	"time"

	"github.com/google/uuid"

	"golang-backtest-analytics/config"
	"golang-backtest-analytics/internal/dto"
	"golang-backtest-analytics/pkg/cache"
	"golang-backtest-analytics/pkg/common"
	"golang-backtest-analytics/pkg/logger"
)

// TradeAuditService is the two-phase execution audit log. Decision logic
// logs a strategy context first; execution logic logs the fill, which is
// merged with the closest same-symbol pending context inside the match
// tolerance. An unmatched fill still produces a record: matching is
// best-effort and never blocks execution logging.
//
// Both phases are driven from the same single-threaded backtest loop, but
// the pending-context search-and-remove is a read-modify-write over shared
// state, so every operation runs under one lock.
type TradeAuditService interface {
	LogStrategyContext(ctx context.Context, sc dto.StrategyContext)
	LogTradeExecution(ctx context.Context, fill dto.Fill, snapshot dto.PortfolioSnapshot) dto.TradeRecord
	AdvanceBar(ctx context.Context) int64
	Records() []dto.TradeRecord
	WriteCSV(ctx context.Context, w io.Writer) error
	ExportCSV(ctx context.Context, path string) error
}

// pendingContext is a stored phase-one entry plus the bar it was logged on,
// which drives the bounded expiry.
type pendingContext struct {
	sc  dto.StrategyContext
	bar int64
}

type tradeAuditService struct {
	cfg     *config.Config
	log     *logger.Logger
	pending cache.Cache

	mu            sync.Mutex
	records       []dto.TradeRecord
	nextTradeID   int64
	barNumber     int64
	indicatorKeys map[string]struct{}
	thresholdKeys map[string]struct{}
}

func NewTradeAuditService(cfg *config.Config, log *logger.Logger, pending cache.Cache) TradeAuditService {
	return &tradeAuditService{
		cfg:           cfg,
		log:           log.With(logger.StringField("audit_run_id", uuid.NewString())),
		pending:       pending,
		nextTradeID:   1,
		indicatorKeys: make(map[string]struct{}),
		thresholdKeys: make(map[string]struct{}),
	}
}

// LogStrategyContext stores a decision-time snapshot in the pending store,
// keyed by symbol and timestamp. Indicator and threshold keys join the
// running union so the export columns cover every context logged during the
// run, matched or not.
func (s *tradeAuditService) LogStrategyContext(ctx context.Context, sc dto.StrategyContext) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for k := range sc.Indicators {
		s.indicatorKeys[k] = struct{}{}
	}
	for k := range sc.Thresholds {
		s.thresholdKeys[k] = struct{}{}
	}

	key := pendingKey(sc.Symbol, sc.Timestamp)
	s.pending.Set(key, pendingContext{sc: sc, bar: s.barNumber}, cache.NoExpiration)
	s.log.DebugContext(ctx, "Strategy context logged",
		logger.StringField("symbol", sc.Symbol),
		logger.StringField("state", sc.State),
		logger.TimeField("timestamp", sc.Timestamp),
	)
}

// LogTradeExecution merges the fill with the closest pending context, when
// one exists inside the tolerance, and appends the resulting record. The
// trade id advances on every call, matched or not.
func (s *tradeAuditService) LogTradeExecution(ctx context.Context, fill dto.Fill, snapshot dto.PortfolioSnapshot) dto.TradeRecord {
	s.mu.Lock()
	defer s.mu.Unlock()

	record := dto.TradeRecord{
		TradeID:           s.nextTradeID,
		BarNumber:         s.barNumber,
		Timestamp:         fill.Timestamp,
		Symbol:            fill.Symbol,
		Direction:         fill.Direction,
		Quantity:          fill.Quantity,
		FillPrice:         fill.Price,
		Commission:        fill.Commission,
		TradeValue:        fill.Value(),
		EquityBefore:      snapshot.EquityBefore,
		EquityAfter:       snapshot.EquityAfter,
		CashBefore:        snapshot.CashBefore,
		CashAfter:         snapshot.CashAfter,
		EquityChangePct:   equityChangePct(snapshot),
		PositionPctBefore: snapshot.PositionPctBefore,
		PositionPctAfter:  snapshot.PositionPctAfter,
	}
	s.nextTradeID++

	if matched, ok := s.takeClosestContext(fill); ok {
		record.StrategyState = matched.State
		record.Reasoning = matched.Reasoning
		record.Indicators = matched.Indicators
		record.Thresholds = matched.Thresholds
	} else {
		s.log.WarnContext(ctx, "No strategy context matched execution",
			logger.StringField("symbol", fill.Symbol),
			logger.TimeField("timestamp", fill.Timestamp),
		)
	}

	s.records = append(s.records, record)
	s.log.DebugContext(ctx, "Trade execution logged",
		logger.Int64Field("trade_id", record.TradeID),
		logger.StringField("symbol", record.Symbol),
		logger.StringField("state", record.StrategyState),
	)
	return record
}

// takeClosestContext finds and removes the same-symbol pending context
// nearest the fill timestamp, at most the match tolerance away. An exact
// timestamp hit skips the scan.
func (s *tradeAuditService) takeClosestContext(fill dto.Fill) (dto.StrategyContext, bool) {
	exactKey := pendingKey(fill.Symbol, fill.Timestamp)
	if pc, ok := cache.GetFromCache[pendingContext](s.pending, exactKey); ok {
		s.pending.Delete(exactKey)
		return pc.sc, true
	}

	tolerance := s.cfg.Audit.MatchTolerance
	bestDelta := tolerance + 1
	var bestKey string
	var best pendingContext
	for key, value := range s.pending.Items() {
		pc, ok := value.(pendingContext)
		if !ok || pc.sc.Symbol != fill.Symbol {
			continue
		}
		delta := fill.Timestamp.Sub(pc.sc.Timestamp)
		if delta < 0 {
			delta = -delta
		}
		if delta <= tolerance && delta < bestDelta {
			bestDelta = delta
			bestKey = key
			best = pc
		}
	}
	if bestKey == "" {
		return dto.StrategyContext{}, false
	}
	s.pending.Delete(bestKey)
	return best.sc, true
}

// AdvanceBar increments the externally driven bar counter and drops pending
// contexts older than the configured bar budget. The bound is an added
// behavior: without it, permanently unmatched contexts would accumulate for
// the length of the run.
func (s *tradeAuditService) AdvanceBar(ctx context.Context) int64 {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.barNumber++
	horizon := s.barNumber - int64(s.cfg.Audit.PendingExpiryBars)
	if horizon <= 0 {
		return s.barNumber
	}
	for key, value := range s.pending.Items() {
		pc, ok := value.(pendingContext)
		if !ok {
			continue
		}
		if pc.bar < horizon {
			s.pending.Delete(key)
			s.log.DebugContext(ctx, "Pending context expired unmatched",
				logger.StringField("symbol", pc.sc.Symbol),
				logger.Int64Field("logged_bar", pc.bar),
				logger.Int64Field("current_bar", s.barNumber),
			)
		}
	}
	return s.barNumber
}

// Records returns a copy of the append-only record list.
func (s *tradeAuditService) Records() []dto.TradeRecord {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]dto.TradeRecord, len(s.records))
	copy(out, s.records)
	return out
}

// auditColumns is the fixed column layout: core identity, order details,
// portfolio before/after, performance, allocation. Dynamic Indicator_ and
// Threshold_ columns follow, resolved only at export time.
var auditColumns = []string{
	"trade_id", "bar_number", "timestamp", "symbol", "strategy_state", "reasoning",
	"direction", "quantity", "fill_price", "commission", "trade_value",
	"equity_before", "equity_after", "cash_before", "cash_after",
	"equity_change_pct",
	"position_pct_before", "position_pct_after",
}

// ExportCSV writes the flattened audit log to a file at path. The file is
// closed on every exit path; exporting an empty log is a fatal error.
func (s *tradeAuditService) ExportCSV(ctx context.Context, path string) error {
	s.mu.Lock()
	count := len(s.records)
	s.mu.Unlock()
	if count == 0 {
		err := dto.NewValidationError("trade records", "nothing to export")
		s.log.ErrorContext(ctx, "Audit export failed", logger.ErrorField(err))
		return err
	}

	file, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("creating audit export file: %w", err)
	}
	defer file.Close()

	if err := s.WriteCSV(ctx, file); err != nil {
		return err
	}
	s.log.InfoContext(ctx, "Audit log exported",
		logger.StringField("path", path),
		logger.IntField("records", count),
	)
	return nil
}

// WriteCSV flattens every record into the tabular layout. The dynamic
// column set is the union of indicator and threshold keys across every
// context logged during the run, sorted lexicographically; cells without a
// value render empty.
func (s *tradeAuditService) WriteCSV(ctx context.Context, w io.Writer) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if len(s.records) == 0 {
		return dto.NewValidationError("trade records", "nothing to export")
	}

	indicatorCols := sortedKeys(s.indicatorKeys)
	thresholdCols := sortedKeys(s.thresholdKeys)

	header := make([]string, 0, len(auditColumns)+len(indicatorCols)+len(thresholdCols))
	header = append(header, auditColumns...)
	for _, name := range indicatorCols {
		header = append(header, "Indicator_"+name)
	}
	for _, name := range thresholdCols {
		header = append(header, "Threshold_"+name)
	}

	cw := csv.NewWriter(w)
	if err := cw.Write(header); err != nil {
		return fmt.Errorf("writing audit header: %w", err)
	}
	for _, record := range s.records {
		if err := cw.Write(auditRow(record, indicatorCols, thresholdCols)); err != nil {
			return fmt.Errorf("writing audit record %d: %w", record.TradeID, err)
		}
	}

	cw.Flush()
	if err := cw.Error(); err != nil {
		return fmt.Errorf("flushing audit export: %w", err)
	}
	return nil
}

func auditRow(r dto.TradeRecord, indicatorCols, thresholdCols []string) []string {
	row := make([]string, 0, len(auditColumns)+len(indicatorCols)+len(thresholdCols))
	row = append(row,
		strconv.FormatInt(r.TradeID, 10),
		strconv.FormatInt(r.BarNumber, 10),
		r.Timestamp.Format(time.RFC3339),
		r.Symbol,
		r.StrategyState,
		r.Reasoning,
		string(r.Direction),
		strconv.FormatInt(r.Quantity, 10),
		r.FillPrice.String(),
		r.Commission.String(),
		r.TradeValue.String(),
		r.EquityBefore.String(),
		r.EquityAfter.String(),
		r.CashBefore.String(),
		r.CashAfter.String(),
		formatFloat(r.EquityChangePct),
		formatFloat(r.PositionPctBefore),
		formatFloat(r.PositionPctAfter),
	)
	for _, name := range indicatorCols {
		row = append(row, formatDynamic(r.Indicators, name))
	}
	for _, name := range thresholdCols {
		row = append(row, formatDynamic(r.Thresholds, name))
	}
	return row
}

// equityChangePct is the equity move across the execution, in percent.
func equityChangePct(snapshot dto.PortfolioSnapshot) float64 {
	if !snapshot.EquityBefore.IsPositive() {
		return 0
	}
	change, _ := snapshot.EquityAfter.Sub(snapshot.EquityBefore).Div(snapshot.EquityBefore).Float64()
	return change * 100
}

func pendingKey(symbol string, t time.Time) string {
	return fmt.Sprintf(common.KEY_PENDING_CONTEXT, symbol, t.UnixNano())
}

func formatDynamic(values map[string]float64, name string) string {
	v, ok := values[name]
	if !ok {
		return ""
	}
	return formatFloat(v)
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

func sortedKeys(set map[string]struct{}) []string {
	keys := make([]string, 0, len(set))
	for k := range set {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
