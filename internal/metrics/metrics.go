package metrics

import (
	"net/http"
	"strconv"
	"time"

	marketmodel "modelmarket/go-backend/internal/domains/marketplace/model"
	marketpolicy "modelmarket/go-backend/internal/domains/marketplace/policy"
	"modelmarket/go-backend/internal/platform/amount"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "modelmarket"

// Registry owns every daemon collector. It satisfies the marketplace
// operation recorder port.
type Registry struct {
	reg *prometheus.Registry

	operations   *prometheus.CounterVec
	settlements  *prometheus.CounterVec
	feeCollected *prometheus.CounterVec
	feePool      prometheus.Gauge
	rpcRequests  *prometheus.CounterVec
	rpcLatency   *prometheus.HistogramVec
	notifyQueue  *prometheus.CounterVec
}

func New() *Registry {
	r := &Registry{
		reg: prometheus.NewRegistry(),
		operations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "ledger_operations_total",
			Help:      "Mutating ledger operations by outcome.",
		}, []string{"op", "result"}),
		settlements: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "settlements_total",
			Help:      "Settled sales, rentals, auctions and feedback charges.",
		}, []string{"kind"}),
		feeCollected: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "fee_collected",
			Help:      "Platform fee credited to the pool, in base units.",
		}, []string{"kind"}),
		feePool: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "fee_pool",
			Help:      "Current platform fee pool, in base units.",
		}),
		rpcRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "rpc_requests_total",
			Help:      "JSON-RPC requests by method and error code.",
		}, []string{"method", "code"}),
		rpcLatency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "rpc_request_duration_seconds",
			Help:      "JSON-RPC handling latency.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"method"}),
		notifyQueue: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "notifications_total",
			Help:      "Ledger notifications by delivery outcome.",
		}, []string{"outcome"}),
	}
	r.reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		r.operations, r.settlements, r.feeCollected, r.feePool,
		r.rpcRequests, r.rpcLatency, r.notifyQueue,
	)
	return r
}

func (r *Registry) Handler() http.Handler {
	return promhttp.HandlerFor(r.reg, promhttp.HandlerOpts{Registry: r.reg})
}

func (r *Registry) Gatherer() prometheus.Gatherer {
	return r.reg
}

func (r *Registry) RecordOperation(op string, err error) {
	result := "ok"
	if err != nil {
		result = marketmodel.KindName(err)
		if result == "" {
			result = "error"
		}
	}
	r.operations.WithLabelValues(op, result).Inc()
}

func (r *Registry) RecordSettlement(kind string, split marketpolicy.Split) {
	r.settlements.WithLabelValues(kind).Inc()
	r.feeCollected.WithLabelValues(kind).Add(split.Fee.Float64())
}

func (r *Registry) SetFeePool(pool amount.Amount) {
	r.feePool.Set(pool.Float64())
}

func (r *Registry) ObserveRPC(method string, code int, elapsed time.Duration) {
	r.rpcRequests.WithLabelValues(method, codeLabel(code)).Inc()
	r.rpcLatency.WithLabelValues(method).Observe(elapsed.Seconds())
}

func (r *Registry) RecordNotification(outcome string) {
	r.notifyQueue.WithLabelValues(outcome).Inc()
}

func codeLabel(code int) string {
	if code == 0 {
		return "ok"
	}
	return strconv.Itoa(code)
}
