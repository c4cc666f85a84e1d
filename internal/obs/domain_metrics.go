package obs

import (
	"fmt"
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	domainOnce sync.Once

	// VoucherAppliedTotal counts successful voucher applications by kind.
	VoucherAppliedTotal *prometheus.CounterVec
	// VoucherRejectedTotal counts rejected voucher attempts by reason.
	VoucherRejectedTotal *prometheus.CounterVec
	// OrdersCreatedTotal counts completed checkouts.
	OrdersCreatedTotal prometheus.Counter
	// TrackDeliveriesTotal tracks collector delivery outcomes.
	TrackDeliveriesTotal *prometheus.CounterVec
	// TrackDeliveryLatency records collector delivery latency in milliseconds.
	TrackDeliveryLatency *prometheus.HistogramVec
)

// MustRegisterDomainMetrics initialises and registers domain-specific Prometheus collectors.
func MustRegisterDomainMetrics(namespace string, reg prometheus.Registerer) {
	domainOnce.Do(func() {
		if reg == nil {
			reg = prometheus.DefaultRegisterer
		}
		VoucherAppliedTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "voucher_applied_total",
			Help:      "Count of applied vouchers by kind.",
		}, []string{"kind"})
		VoucherRejectedTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "voucher_rejected_total",
			Help:      "Count of rejected voucher attempts by reason.",
		}, []string{"reason"})
		OrdersCreatedTotal = prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "orders_created_total",
			Help:      "Total number of orders created through checkout.",
		})
		TrackDeliveriesTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "track_deliveries_total",
			Help:      "Count of tracking event delivery outcomes.",
		}, []string{"result"})
		TrackDeliveryLatency = prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "track_delivery_duration_ms",
			Help:      "Latency for tracking event delivery attempts in milliseconds.",
			Buckets:   []float64{10, 25, 50, 100, 250, 500, 1000, 2500, 5000},
		}, []string{"result"})

		mustRegisterCollector(reg, VoucherAppliedTotal, func(existing prometheus.Collector) {
			if v, ok := existing.(*prometheus.CounterVec); ok {
				VoucherAppliedTotal = v
			}
		})
		mustRegisterCollector(reg, VoucherRejectedTotal, func(existing prometheus.Collector) {
			if v, ok := existing.(*prometheus.CounterVec); ok {
				VoucherRejectedTotal = v
			}
		})
		mustRegisterCollector(reg, OrdersCreatedTotal, func(existing prometheus.Collector) {
			if v, ok := existing.(prometheus.Counter); ok {
				OrdersCreatedTotal = v
			}
		})
		mustRegisterCollector(reg, TrackDeliveriesTotal, func(existing prometheus.Collector) {
			if v, ok := existing.(*prometheus.CounterVec); ok {
				TrackDeliveriesTotal = v
			}
		})
		mustRegisterCollector(reg, TrackDeliveryLatency, func(existing prometheus.Collector) {
			if v, ok := existing.(*prometheus.HistogramVec); ok {
				TrackDeliveryLatency = v
			}
		})
	})
}

func mustRegisterCollector(reg prometheus.Registerer, collector prometheus.Collector, reuse func(prometheus.Collector)) {
	if err := reg.Register(collector); err != nil {
		if are, ok := err.(prometheus.AlreadyRegisteredError); ok {
			if reuse != nil {
				reuse(are.ExistingCollector)
			}
			return
		}
		panic(fmt.Errorf("register domain metric: %w", err))
	}
}
