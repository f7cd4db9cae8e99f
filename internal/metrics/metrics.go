package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	OrdersCreatedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "orderhub_orders_created_total",
		Help: "Total number of orders successfully created.",
	})

	StatusUpdatesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "orderhub_status_updates_total",
		Help: "Total number of order status transitions applied.",
	},
		[]string{"status"},
	)

	RemoteRequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "orderhub_remote_requests_total",
		Help: "Total number of requests issued to the remote order service.",
	},
		[]string{"operation", "outcome"},
	)

	LocalFallbacksTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "orderhub_local_fallbacks_total",
		Help: "Total number of reads served from the local replica after a remote failure.",
	})

	ReplicaOrders = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "orderhub_replica_orders",
		Help: "Current number of orders in the replica's primary namespace.",
	})
)
