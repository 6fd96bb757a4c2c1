// Package metrics holds the Prometheus collectors for the ledger. Collectors
// count from process start; Register exposes them on a registry.
package metrics

import (
	"net/http"
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	Transfers = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "chowvest_basket_transfers_total",
			Help: "Wallet to basket transfers by outcome",
		},
		[]string{"outcome"},
	)

	Deposits = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "chowvest_deposits_total",
			Help: "Deposit initiations and confirmations by outcome",
		},
		[]string{"stage", "outcome"},
	)

	Milestones = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "chowvest_basket_milestones_total",
			Help: "Basket milestone and goal completion announcements",
		},
		[]string{"threshold"},
	)

	GatewayDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "chowvest_gateway_request_duration_seconds",
			Help:    "Duration of payment gateway calls in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"operation", "outcome"},
	)

	HookFailures = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "chowvest_hook_failures_total",
			Help: "Post-commit side effects that failed or panicked",
		},
		[]string{"hook"},
	)

	RateLimited = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "chowvest_rate_limited_total",
			Help: "Requests rejected by the rate limiter",
		},
		[]string{"action"},
	)

	LedgerRetries = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "chowvest_ledger_retries_total",
			Help: "Ledger units re-run after a serialization conflict",
		},
	)
)

var once sync.Once

// Register adds every collector to the default registry. Safe to call more
// than once.
func Register() {
	once.Do(func() {
		prometheus.MustRegister(Transfers, Deposits, Milestones, GatewayDuration, HookFailures, RateLimited, LedgerRetries)
	})
}

// Handler serves the default registry.
func Handler() http.Handler {
	return promhttp.Handler()
}

// Outcome labels an operation by whether it returned an error.
func Outcome(err error) string {
	if err != nil {
		return "error"
	}
	return "success"
}
