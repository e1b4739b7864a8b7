// Package metrics exposes Prometheus counters for the scan loop.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	ScansTotal = prometheus.NewCounter(
		prometheus.CounterOpts{Name: "scans_total", Help: "Completed scan passes over the instrument universe"},
	)
	SignalsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{Name: "signals_total", Help: "Breakout signals detected"},
		[]string{"symbol", "direction"},
	)
	OrdersTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{Name: "orders_total", Help: "Orders submitted"},
		[]string{"symbol", "side", "type"},
	)
	SkipsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{Name: "skips_total", Help: "Symbols skipped during a scan"},
		[]string{"reason"},
	)
	TradesOpenedTotal = prometheus.NewCounter(
		prometheus.CounterOpts{Name: "trades_opened_total", Help: "Trades appended to the ledger"},
	)
)

func init() {
	prometheus.MustRegister(ScansTotal, SignalsTotal, OrdersTotal, SkipsTotal, TradesOpenedTotal)
}

// Serve exposes /metrics on addr in a background goroutine.
func Serve(addr string) *http.Server {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	srv := &http.Server{Addr: addr, Handler: mux}
	go func() { _ = srv.ListenAndServe() }()
	return srv
}
