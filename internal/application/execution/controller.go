package execution

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/alejandrodnm/weatherarb/internal/domain"
	"github.com/alejandrodnm/weatherarb/internal/ports"
)

const (
	DefaultPaperFraction = 0.10
	DefaultMaxPosition   = 50.0
	DefaultMaxContracts  = 50
)

// Config holds sizing and risk settings for the execution controller.
type Config struct {
	Mode            domain.Mode
	MaxPositionSize float64 // live: dollars per trade
	MaxContracts    int
	PaperBalance    float64
	PaperFraction   float64 // paper: share of the balance per trade
	MaxLossPct      float64
}

// Controller turns opportunities into orders and owns the session state.
type Controller struct {
	cfg      Config
	executor ports.OrderExecutor
	ledger   ports.TradeLedger
	now      func() time.Time
	newID    func() string

	mu          sync.Mutex
	session     *domain.Session
	breaker     *domain.CapitalBreaker
	liveBalance float64
	liveKnown   bool
}

// New creates a controller. ledger may be nil; it must be an untyped nil,
// not a nil pointer wrapped in the interface.
func New(cfg Config, executor ports.OrderExecutor, ledger ports.TradeLedger) *Controller {
	if cfg.Mode == "" {
		cfg.Mode = domain.ModePaper
	}
	if cfg.MaxPositionSize <= 0 {
		cfg.MaxPositionSize = DefaultMaxPosition
	}
	if cfg.MaxContracts <= 0 {
		cfg.MaxContracts = DefaultMaxContracts
	}
	if cfg.PaperBalance <= 0 {
		cfg.PaperBalance = domain.DefaultPaperBalance
	}
	if cfg.PaperFraction <= 0 || cfg.PaperFraction > 1 {
		cfg.PaperFraction = DefaultPaperFraction
	}
	if cfg.MaxLossPct <= 0 || cfg.MaxLossPct > 1 {
		cfg.MaxLossPct = domain.DefaultMaxLossPct
	}
	return &Controller{
		cfg:      cfg,
		executor: executor,
		ledger:   ledger,
		now:      time.Now,
		newID:    uuid.NewString,
		session:  domain.NewSession(cfg.Mode, cfg.PaperBalance, time.Now()),
	}
}

// WithClock replaces the clock and restarts the session at now().
func (c *Controller) WithClock(now func() time.Time) *Controller {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = now
	c.session.StartedAt = now()
	return c
}

// Mode returns the trading mode.
func (c *Controller) Mode() domain.Mode {
	return c.cfg.Mode
}

// Start records the initial live balance that the circuit breaker measures
// losses against. It is a no-op in paper mode.
func (c *Controller) Start(ctx context.Context) error {
	if c.cfg.Mode.IsPaper() {
		slog.Info("execution: paper session started", "balance", c.cfg.PaperBalance)
		return nil
	}

	cents, err := c.executor.GetBalance(ctx)
	if err != nil {
		return fmt.Errorf("execution.Start: initial balance: %w", err)
	}
	initial := domain.CentsToPrice(cents)

	c.mu.Lock()
	c.session.InitialLiveBalance = initial
	c.breaker = domain.NewCapitalBreaker(initial, c.cfg.MaxLossPct)
	c.liveBalance = initial
	c.liveKnown = true
	c.mu.Unlock()

	slog.Info("execution: live session started",
		"balance", initial,
		"max_loss", c.breaker.MaxLoss(),
	)
	return nil
}

// Execute sizes and places an order for opp. It returns true only when the
// order was accepted and the session was updated. Every rejection is logged.
func (c *Controller) Execute(ctx context.Context, opp domain.Opportunity) bool {
	log := slog.With("ticker", opp.Ticker, "location", opp.LocationID)

	c.mu.Lock()
	traded := c.session.HasTraded(opp.Ticker)
	paperBalance := c.session.PaperBalance
	c.mu.Unlock()

	if traded {
		log.Debug("execution: already traded this session")
		return false
	}
	if opp.Price <= 0 {
		log.Warn("execution: non-positive price", "price", opp.Price)
		return false
	}

	spendable := c.cfg.MaxPositionSize
	if c.cfg.Mode.IsPaper() {
		spendable = paperBalance * c.cfg.PaperFraction
	}

	priceCents := domain.PriceToCents(opp.Price)
	if priceCents <= 0 {
		log.Warn("execution: price rounds to zero cents", "price", opp.Price)
		return false
	}
	// Sizing, cost and settlement use the same cent price the order carries.
	price := decimal.NewFromInt(int64(priceCents)).Div(decimal.NewFromInt(100))
	qty := int(decimal.NewFromFloat(spendable).Div(price).Floor().IntPart())
	if qty > c.cfg.MaxContracts {
		qty = c.cfg.MaxContracts
	}
	if qty <= 0 {
		log.Info("execution: position too small", "spendable", spendable, "price", opp.Price)
		return false
	}
	cost := decimal.NewFromInt(int64(qty)).Mul(price)

	if c.cfg.Mode.IsPaper() {
		if cost.GreaterThan(decimal.NewFromFloat(paperBalance)) {
			log.Info("execution: insufficient paper balance", "cost", cost.InexactFloat64(), "balance", paperBalance)
			return false
		}
	} else {
		cents, err := c.executor.GetBalance(ctx)
		if err != nil {
			log.Warn("execution: balance check failed", "err", err)
			return false
		}
		balance := domain.CentsToPrice(cents)
		c.setLiveBalance(balance)
		if cost.GreaterThan(decimal.NewFromFloat(balance)) {
			log.Info("execution: insufficient live balance", "cost", cost.InexactFloat64(), "balance", balance)
			return false
		}
	}

	req := domain.OrderRequest{
		Ticker:          opp.Ticker,
		Side:            opp.Action.Side(),
		Quantity:        qty,
		LimitPriceCents: priceCents,
		Paper:           c.cfg.Mode.IsPaper(),
	}
	res, err := c.executor.PlaceOrder(ctx, req)
	if err != nil {
		log.Warn("execution: order failed", "err", err)
		return false
	}
	if !res.Success {
		log.Warn("execution: order rejected", "reason", res.Error)
		return false
	}

	now := c.now()
	c.mu.Lock()
	c.session.MarkTraded(opp.Ticker)
	c.session.TradeCount++
	if c.cfg.Mode.IsPaper() {
		// Paper trades settle at placement: the contract counts as won.
		profit := decimal.NewFromInt(int64(qty)).Sub(cost)
		c.session.PaperBalance = decimal.NewFromFloat(c.session.PaperBalance).Add(profit).Round(2).InexactFloat64()
		c.session.PaperPnL = decimal.NewFromFloat(c.session.PaperPnL).Add(profit).Round(2).InexactFloat64()
	}
	c.mu.Unlock()

	rec := domain.NewTradeRecord(c.newID(), opp, qty, req.LimitPriceCents, res.OrderID, c.cfg.Mode, now)
	log.Info("execution: trade placed",
		"side", req.Side,
		"qty", qty,
		"price_cents", req.LimitPriceCents,
		"cost", rec.Cost,
		"order_id", res.OrderID,
		"mode", string(c.cfg.Mode),
	)

	if c.ledger != nil {
		if err := c.ledger.Append(ctx, rec); err != nil {
			log.Error("execution: ledger append failed", "id", rec.ID, "err", err)
		}
	}
	return true
}

// CheckCircuitBreaker compares the live balance with the initial one and
// reports whether trading must stop. Once tripped it stays tripped. A failed
// balance query does not trip it. Always false in paper mode.
func (c *Controller) CheckCircuitBreaker(ctx context.Context) bool {
	if c.cfg.Mode.IsPaper() {
		return false
	}

	c.mu.Lock()
	breaker := c.breaker
	halted := breaker != nil && !breaker.IsOpen()
	c.mu.Unlock()
	if breaker == nil {
		return false
	}
	if halted {
		return true
	}

	cents, err := c.executor.GetBalance(ctx)
	if err != nil {
		slog.Warn("execution: circuit breaker balance check failed", "err", err)
		return false
	}
	current := domain.CentsToPrice(cents)
	c.setLiveBalance(current)

	c.mu.Lock()
	open := breaker.Check(current)
	c.session.SessionLoss = breaker.LastLoss
	c.mu.Unlock()

	if !open {
		slog.Error("execution: circuit breaker tripped",
			"initial", breaker.InitialBalance,
			"current", current,
			"loss", breaker.LastLoss,
			"reason", breaker.TriggeredReason,
		)
		return true
	}
	return false
}

// RecordScan counts one scan cycle and the opportunities it found.
func (c *Controller) RecordScan(opportunities int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.session.ScanCount++
	c.session.OpportunityCount += opportunities
}

// Session returns a snapshot copy of the session state.
func (c *Controller) Session() domain.Session {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.session.Clone()
}

// Status builds the status report without tracker details.
func (c *Controller) Status() domain.StatusSnapshot {
	c.mu.Lock()
	defer c.mu.Unlock()

	s := c.session
	st := domain.StatusSnapshot{
		Mode:             s.Mode,
		Runtime:          c.now().Sub(s.StartedAt),
		Scans:            s.ScanCount,
		Opportunities:    s.OpportunityCount,
		Trades:           s.TradeCount,
		PaperBalance:     s.PaperBalance,
		PaperPnL:         s.PaperPnL,
		LiveBalance:      c.liveBalance,
		LiveBalanceKnown: c.liveKnown,
	}
	if c.liveKnown {
		st.LivePnL = decimal.NewFromFloat(c.liveBalance).
			Sub(decimal.NewFromFloat(s.InitialLiveBalance)).
			Round(2).InexactFloat64()
	}
	if c.breaker != nil && !c.breaker.IsOpen() {
		st.Halted = true
		st.HaltReason = c.breaker.TriggeredReason
	}
	return st
}

func (c *Controller) setLiveBalance(v float64) {
	c.mu.Lock()
	c.liveBalance = v
	c.liveKnown = true
	c.mu.Unlock()
}
