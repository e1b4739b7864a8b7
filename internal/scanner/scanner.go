// Package scanner iterates the perpetual universe once per candle boundary,
// feeding candle windows into the detector and signals into the executor,
// and persists opened trades to the ledger.
package scanner

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/amirphl/spike-trader/internal/candle"
	"github.com/amirphl/spike-trader/internal/db"
	"github.com/amirphl/spike-trader/internal/exchange"
	"github.com/amirphl/spike-trader/internal/executor"
	"github.com/amirphl/spike-trader/internal/journal"
	"github.com/amirphl/spike-trader/internal/metrics"
	"github.com/amirphl/spike-trader/internal/notifier"
	"github.com/amirphl/spike-trader/internal/strategy"
	"github.com/amirphl/spike-trader/internal/tfutils"
)

// windowSize is the number of candles the detector consumes.
const windowSize = 3

// TradeOpener is the slice of the executor the scanner needs.
type TradeOpener interface {
	OpenTrade(ctx context.Context, sig strategy.Signal, stepSize float64, currentOpenCount int) executor.Outcome
}

// Config holds scan scheduling and slot policy.
type Config struct {
	Interval     string        // candle interval, e.g. "3m"
	GraceSeconds int           // how far into the boundary minute a run may start
	MaxSlices    int           // maximum concurrent position slots
	PollInterval time.Duration // how often Run rechecks the gate
}

type Scanner struct {
	cfg      Config
	ex       exchange.Exchange
	detector strategy.VolumeSpikeDetector
	opener   TradeOpener
	storage  db.Storage
	notifier notifier.Notifier

	lastBoundary time.Time
}

func New(cfg Config, ex exchange.Exchange, detector strategy.VolumeSpikeDetector, opener TradeOpener, storage db.Storage, n notifier.Notifier) *Scanner {
	if cfg.GraceSeconds <= 0 {
		cfg.GraceSeconds = 5
	}
	if cfg.PollInterval <= 0 {
		cfg.PollInterval = 2 * time.Second
	}
	if n == nil {
		n = notifier.Noop{}
	}
	return &Scanner{
		cfg:      cfg,
		ex:       ex,
		detector: detector,
		opener:   opener,
		storage:  storage,
		notifier: n,
	}
}

// ShouldRun reports whether the venue clock sits on a candle boundary:
// minute divisible by the interval and at most GraceSeconds into it.
// The returned time is the boundary the clock belongs to.
func (s *Scanner) ShouldRun(ctx context.Context) (bool, time.Time, error) {
	minutes := tfutils.IntervalMinutes(s.cfg.Interval)
	if minutes <= 0 {
		return false, time.Time{}, fmt.Errorf("unsupported interval %q", s.cfg.Interval)
	}

	now, err := s.ex.ServerTime(ctx)
	if err != nil {
		return false, time.Time{}, fmt.Errorf("reading server time: %w", err)
	}

	if now.Minute()%minutes != 0 || now.Second() > s.cfg.GraceSeconds {
		return false, time.Time{}, nil
	}
	return true, now.Truncate(time.Minute), nil
}

// ScanOnce walks the universe a single time and returns the number of trades
// opened. Per-symbol failures never abort the scan; they are logged,
// journaled, counted, and converted into skips.
func (s *Scanner) ScanOnce(ctx context.Context) (int, error) {
	instruments, err := s.ex.FetchInstruments(ctx)
	if err != nil {
		return 0, fmt.Errorf("fetching instrument universe: %w", err)
	}
	log.Printf("Scanner | Found %d USDT-M perpetual symbols. Scanning...", len(instruments))

	// Open slots persisted from previous runs. A failed read degrades to an
	// empty ledger, mirroring a fresh state: trading proceeds, sized as if
	// no slots were taken.
	openCount := 0
	if trades, err := s.storage.GetOpenTrades(ctx); err != nil {
		log.Printf("Scanner | Failed to read open trades, assuming none: %v", err)
	} else {
		openCount = len(trades)
	}

	opened := 0
	for _, inst := range instruments {
		select {
		case <-ctx.Done():
			return opened, ctx.Err()
		default:
		}

		if openedHere := s.scanSymbol(ctx, inst, openCount+opened); openedHere {
			opened++
		}
	}

	metrics.ScansTotal.Inc()
	if opened > 0 {
		log.Printf("Scanner | Opened %d new trades this run", opened)
	} else {
		log.Printf("Scanner | No new trades this run")
	}
	return opened, nil
}

// scanSymbol evaluates one instrument and reports whether a trade was opened.
func (s *Scanner) scanSymbol(ctx context.Context, inst exchange.Instrument, currentOpenCount int) bool {
	candles, err := s.ex.FetchLatestCandles(ctx, inst.Symbol, s.cfg.Interval, windowSize)
	if err != nil {
		metrics.SkipsTotal.WithLabelValues("market_data").Inc()
		return false
	}

	window, err := candle.NewWindow(candles)
	if err != nil {
		metrics.SkipsTotal.WithLabelValues("market_data").Inc()
		return false
	}

	sig, ok := s.detector.Evaluate(inst.Symbol, window)
	if !ok {
		return false
	}

	metrics.SignalsTotal.WithLabelValues(sig.Symbol, string(sig.Direction)).Inc()
	s.logEvent(ctx, journal.Event{
		Time:        time.Now().UTC(),
		Type:        journal.EventSignal,
		Description: "volume spike breakout",
		Data: map[string]any{
			"symbol":    sig.Symbol,
			"direction": string(sig.Direction),
			"c1_dollar": sig.C1Dollar,
			"up_move":   sig.UpMove,
			"down_move": sig.DownMove,
			"c1_volume": sig.C1Volume,
			"c2_volume": sig.C2Volume,
		},
	})

	if currentOpenCount >= s.cfg.MaxSlices {
		metrics.SkipsTotal.WithLabelValues("no_slots").Inc()
		log.Printf("Scanner | %s signal dropped, no slots left (%d open)", sig.Symbol, currentOpenCount)
		return false
	}

	outcome := s.opener.OpenTrade(ctx, sig, inst.StepSize, currentOpenCount)

	for _, w := range outcome.Warnings {
		s.logEvent(ctx, journal.Event{
			Time:        time.Now().UTC(),
			Type:        journal.EventDegraded,
			Description: string(w.Code),
			Data:        map[string]any{"symbol": sig.Symbol, "error": w.Err},
		})
	}

	if !outcome.OK {
		metrics.SkipsTotal.WithLabelValues("pipeline").Inc()
		log.Printf("Scanner | %s pipeline aborted: %s", sig.Symbol, outcome.Err)
		s.logEvent(ctx, journal.Event{
			Time:        time.Now().UTC(),
			Type:        journal.EventError,
			Description: "pipeline aborted",
			Data:        map[string]any{"symbol": sig.Symbol, "error": outcome.Err},
		})
		if err := s.notifier.SendWithRetry(fmt.Sprintf("Pipeline aborted for %s: %s", sig.Symbol, outcome.Err)); err != nil {
			log.Printf("Scanner | Failed to notify for %s: %v", sig.Symbol, err)
		}
		return false
	}

	trade := db.Trade{
		Symbol:     sig.Symbol,
		Direction:  sig.Direction,
		EntryTime:  sig.EntryTime,
		EntryPrice: outcome.FillPrice,
		Qty:        outcome.Qty,
		TPPrice:    outcome.TPPrice,
		SliceUSDT:  outcome.SliceUSDT,
		Open:       true,
	}
	if _, err := s.storage.SaveTrade(ctx, trade); err != nil {
		// The position is live on the venue even if the ledger write failed.
		log.Printf("Scanner | %s failed to persist trade: %v", sig.Symbol, err)
	}
	metrics.TradesOpenedTotal.Inc()

	s.logEvent(ctx, journal.Event{
		Time:        time.Now().UTC(),
		Type:        journal.EventOrder,
		Description: "entry filled",
		Data: map[string]any{
			"symbol": sig.Symbol,
			"side":   sig.Direction.EntrySide(),
			"type":   "market",
			"qty":    outcome.Qty,
			"price":  outcome.FillPrice,
		},
	})
	if outcome.TPPrice != nil {
		s.logEvent(ctx, journal.Event{
			Time:        time.Now().UTC(),
			Type:        journal.EventOrder,
			Description: "take profit placed",
			Data: map[string]any{
				"symbol": sig.Symbol,
				"side":   sig.Direction.ExitSide(),
				"type":   "limit",
				"qty":    outcome.Qty,
				"price":  *outcome.TPPrice,
			},
		})
	}

	tp := "none"
	if outcome.TPPrice != nil {
		tp = fmt.Sprintf("%.8f", *outcome.TPPrice)
	}
	log.Printf("Scanner | Opened %s %s fill=%v qty=%v tp=%s", sig.Symbol, sig.Direction, outcome.FillPrice, outcome.Qty, tp)
	if err := s.notifier.SendWithRetry(fmt.Sprintf("Opened %s %s qty=%v fill=%v tp=%s",
		sig.Symbol, sig.Direction, outcome.Qty, outcome.FillPrice, tp)); err != nil {
		log.Printf("Scanner | Failed to notify for %s: %v", sig.Symbol, err)
	}

	return true
}

// Run polls the gate and triggers one scan per candle boundary until the
// context is canceled.
func (s *Scanner) Run(ctx context.Context) error {
	ticker := time.NewTicker(s.cfg.PollInterval)
	defer ticker.Stop()

	log.Printf("Scanner | Running, interval=%s max_slices=%d", s.cfg.Interval, s.cfg.MaxSlices)

	for {
		select {
		case <-ctx.Done():
			log.Println("Scanner | Stopped")
			return ctx.Err()
		case <-ticker.C:
			ok, boundary, err := s.ShouldRun(ctx)
			if err != nil {
				log.Printf("Scanner | Gate check failed: %v", err)
				continue
			}
			if !ok || boundary.Equal(s.lastBoundary) {
				continue
			}
			s.lastBoundary = boundary

			if _, err := s.ScanOnce(ctx); err != nil {
				if ctx.Err() != nil {
					return ctx.Err()
				}
				log.Printf("Scanner | Scan failed: %v", err)
			}
		}
	}
}

func (s *Scanner) logEvent(ctx context.Context, e journal.Event) {
	if err := s.storage.LogEvent(ctx, e); err != nil {
		log.Printf("Scanner | Failed to journal event: %v", err)
	}
}
