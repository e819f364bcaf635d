package metrics

import "github.com/prometheus/client_golang/prometheus"

var (
	// Latency of the create-order handler
	OrderCreateLatency = prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "shop_order_create_latency_seconds",
		Help:    "Latency of order creation handler",
		Buckets: prometheus.DefBuckets,
	})

	// Total orders created successfully
	OrdersCreated = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "shop_orders_created_total",
		Help: "Total number of orders created",
	})

	// Gateway callbacks by verification outcome
	GatewayCallbacks = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "shop_gateway_callbacks_total",
		Help: "Payment gateway callbacks by outcome",
	}, []string{"outcome"})

	PaymentsPaid = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "shop_payments_paid_total",
		Help: "Total number of payments marked paid",
	})
)

func Init() {
	prometheus.MustRegister(
		OrderCreateLatency,
		OrdersCreated,
		GatewayCallbacks,
		PaymentsPaid,
	)
}
