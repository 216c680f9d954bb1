package backtest

import (
	"fmt"
	"math"
	"time"

	"github.com/shopspring/decimal"

	"github.com/wonny/zreversion/internal/contracts"
	"github.com/wonny/zreversion/pkg/logger"
)

// Simulator replays daily signals against a cash account with fixed-notional positions
// ⭐ SSOT: 백테스팅 시뮬레이션은 여기서만
type Simulator struct {
	config SimulatorConfig
	logger *logger.Logger

	// Current state
	cash      decimal.Decimal
	positions map[string]*Position
	fills     []contracts.Fill

	// Statistics
	stats Stats
}

// SimulatorConfig holds capital and sizing
type SimulatorConfig struct {
	InitialCapital float64
	PositionSize   float64 // 종목당 고정 매수 금액
}

// Position represents an open long position
type Position struct {
	Symbol     string
	Qty        decimal.Decimal
	CostBasis  decimal.Decimal // 매수 금액 (= PositionSize)
	EntryDate  time.Time
	EntryPrice float64
}

// Stats holds simulation statistics
type Stats struct {
	TotalFills      int     `json:"total_fills"`
	Buys            int     `json:"buys"`
	Sells           int     `json:"sells"`
	WinningTrades   int     `json:"winning_trades"`
	LosingTrades    int     `json:"losing_trades"`
	SkippedBuys     int     `json:"skipped_buys"`     // 현금 부족
	SkippedUnpriced int     `json:"skipped_unpriced"` // 가격 결측일의 Buy/Sell 시그널
	OpenPositions   int     `json:"open_positions"`
	RealizedPnL     float64 `json:"realized_pnl"`
	FinalCash       float64 `json:"final_cash"`
}

// WinRate returns winning round trips / closed round trips (NaN with none closed)
func (s Stats) WinRate() float64 {
	closed := s.WinningTrades + s.LosingTrades
	if closed == 0 {
		return math.NaN()
	}
	return float64(s.WinningTrades) / float64(closed)
}

// SimulationResult is the simulator output
type SimulationResult struct {
	History   *contracts.PortfolioHistory
	Fills     []contracts.Fill
	Stats     Stats
	Positions []Position // 종료 시점 보유 종목 (처리 순서)
}

// NewSimulator creates a new trading simulator
func NewSimulator(config SimulatorConfig, log *logger.Logger) *Simulator {
	return &Simulator{
		config:    config,
		logger:    log,
		positions: make(map[string]*Position),
	}
}

// Initialize resets the simulator with initial capital
func (s *Simulator) Initialize() {
	s.cash = decimal.NewFromFloat(s.config.InitialCapital)
	s.positions = make(map[string]*Position)
	s.fills = make([]contracts.Fill, 0)
	s.stats = Stats{}
}

// Run walks the dates in ascending order. Each day the portfolio is valued first,
// then orders for that day are executed symbol by symbol in the given order.
func (s *Simulator) Run(prices *contracts.Frame, signals *contracts.SignalFrame, symbols []string) (*SimulationResult, error) {
	if err := s.checkInputs(prices, signals, symbols); err != nil {
		return nil, err
	}

	s.Initialize()
	history := &contracts.PortfolioHistory{
		InitialCapital: s.config.InitialCapital,
		Points:         make([]contracts.EquityPoint, 0, prices.Len()),
	}

	for i, date := range prices.Dates {
		// 1. 주문 전 평가 (전일 결정 + 당일 시가평가)
		history.Points = append(history.Points, s.valuate(prices, symbols, i, date))

		// 2. 당일 시그널 실행
		for _, symbol := range symbols {
			s.executeSignal(symbol, date, prices.At(symbol, i), signals.At(symbol, i))
		}
	}

	s.stats.OpenPositions = len(s.positions)
	s.stats.FinalCash = s.cash.InexactFloat64()

	open := make([]Position, 0, len(s.positions))
	for _, symbol := range symbols {
		if pos, ok := s.positions[symbol]; ok {
			open = append(open, *pos)
		}
	}

	s.logger.WithFields(map[string]interface{}{
		"days":           history.Len(),
		"buys":           s.stats.Buys,
		"sells":          s.stats.Sells,
		"skipped_buys":   s.stats.SkippedBuys,
		"open_positions": s.stats.OpenPositions,
	}).Info("Simulation completed")

	return &SimulationResult{
		History:   history,
		Fills:     s.fills,
		Stats:     s.stats,
		Positions: open,
	}, nil
}

// checkInputs rejects runs that cannot proceed: no prices, no signals, or tables that do not line up
func (s *Simulator) checkInputs(prices *contracts.Frame, signals *contracts.SignalFrame, symbols []string) error {
	if prices == nil || prices.Len() == 0 {
		return &contracts.MissingInputError{Path: "prices", Err: fmt.Errorf("no price rows")}
	}
	if signals == nil {
		return &contracts.MissingInputError{Path: "signals", Err: fmt.Errorf("no signal table")}
	}
	if len(signals.Dates) != prices.Len() {
		return fmt.Errorf("%w: %d signal dates for %d price dates", contracts.ErrMisaligned, len(signals.Dates), prices.Len())
	}
	for i, d := range prices.Dates {
		if !signals.Dates[i].Equal(d) {
			return fmt.Errorf("%w: signal date %s != price date %s", contracts.ErrMisaligned,
				signals.Dates[i].Format(contracts.DateLayout), d.Format(contracts.DateLayout))
		}
	}
	for _, symbol := range symbols {
		if !prices.HasSymbol(symbol) {
			return &contracts.MissingInputError{Path: "prices", Err: fmt.Errorf("no price column for %s", symbol)}
		}
		if _, ok := signals.Signals[symbol]; !ok {
			return &contracts.MissingInputError{Path: "signals", Err: fmt.Errorf("no signals for %s", symbol)}
		}
	}
	if !(s.config.PositionSize > 0) || !(s.config.InitialCapital > 0) {
		return fmt.Errorf("invalid simulator config: capital=%v position_size=%v", s.config.InitialCapital, s.config.PositionSize)
	}
	return nil
}

// valuate returns cash + mark-to-market of open positions.
// Positions without a price today are left out of the sum, not valued at zero.
func (s *Simulator) valuate(prices *contracts.Frame, symbols []string, i int, date time.Time) contracts.EquityPoint {
	total := s.cash
	unpriced := 0
	for _, symbol := range symbols {
		pos, ok := s.positions[symbol]
		if !ok {
			continue
		}
		price := prices.At(symbol, i)
		if contracts.Missing(price) {
			unpriced++
			continue
		}
		total = total.Add(pos.Qty.Mul(decimal.NewFromFloat(price)))
	}

	if unpriced > 0 {
		s.logger.WithFields(map[string]interface{}{
			"date":     date.Format(contracts.DateLayout),
			"unpriced": unpriced,
		}).Debug("Positions without price skipped in valuation")
	}

	return contracts.EquityPoint{
		Date:      date,
		Value:     total.InexactFloat64(),
		Cash:      s.cash.InexactFloat64(),
		Positions: len(s.positions),
		Unpriced:  unpriced,
	}
}

// executeSignal applies one (symbol, date) signal
func (s *Simulator) executeSignal(symbol string, date time.Time, price float64, signal contracts.Signal) {
	pos, holding := s.positions[symbol]

	// 실행 대상 주문만: 보유 중 Buy, 미보유 Sell 은 무시
	actionable := (signal == contracts.SignalBuy && !holding) || (signal == contracts.SignalSell && holding)
	if !actionable {
		return
	}
	// 가격 결측(또는 0 이하)이면 당일 주문 생략
	if contracts.Missing(price) || price <= 0 {
		s.stats.SkippedUnpriced++
		return
	}

	switch {
	case signal == contracts.SignalSell && holding:
		s.sell(pos, date, price)
	case signal == contracts.SignalBuy && !holding:
		s.buy(symbol, date, price)
	}
}

// buy opens a fixed-notional position if cash covers it
func (s *Simulator) buy(symbol string, date time.Time, price float64) {
	size := decimal.NewFromFloat(s.config.PositionSize)
	if s.cash.LessThan(size) {
		s.stats.SkippedBuys++
		s.logger.WithFields(map[string]interface{}{
			"symbol": symbol,
			"date":   date.Format(contracts.DateLayout),
			"cash":   s.cash.InexactFloat64(),
		}).Debug("Buy skipped: insufficient cash")
		return
	}

	qty := size.Div(decimal.NewFromFloat(price))
	s.cash = s.cash.Sub(size)
	s.positions[symbol] = &Position{
		Symbol:     symbol,
		Qty:        qty,
		CostBasis:  size,
		EntryDate:  date,
		EntryPrice: price,
	}

	s.fills = append(s.fills, contracts.Fill{
		Date:      date,
		Symbol:    symbol,
		Side:      contracts.OrderSideBuy,
		Qty:       qty.InexactFloat64(),
		Price:     price,
		Value:     size.InexactFloat64(),
		CashAfter: s.cash.InexactFloat64(),
	})
	s.stats.TotalFills++
	s.stats.Buys++
}

// sell liquidates the whole position
func (s *Simulator) sell(pos *Position, date time.Time, price float64) {
	proceeds := pos.Qty.Mul(decimal.NewFromFloat(price))
	pnl := proceeds.Sub(pos.CostBasis)

	s.cash = s.cash.Add(proceeds)
	delete(s.positions, pos.Symbol)

	s.fills = append(s.fills, contracts.Fill{
		Date:      date,
		Symbol:    pos.Symbol,
		Side:      contracts.OrderSideSell,
		Qty:       pos.Qty.InexactFloat64(),
		Price:     price,
		Value:     proceeds.InexactFloat64(),
		CashAfter: s.cash.InexactFloat64(),
		PnL:       pnl.InexactFloat64(),
	})
	s.stats.TotalFills++
	s.stats.Sells++
	s.stats.RealizedPnL += pnl.InexactFloat64()
	if pnl.IsPositive() {
		s.stats.WinningTrades++
	} else if pnl.IsNegative() {
		s.stats.LosingTrades++
	}
}
