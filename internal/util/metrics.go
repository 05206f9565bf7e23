package util

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	QuotasCreatedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "quotas_created_total",
		Help: "Total number of quotas created",
	})

	QuotasClosedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "quotas_closed_total",
		Help: "Total number of quotas closed by bid acceptance",
	})

	QuotasCancelledTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "quotas_cancelled_total",
		Help: "Total number of quotas cancelled by their owner",
	})

	QuotasFailedTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "quotas_failed_total",
		Help: "Total number of failed quota creations",
	}, []string{"reason"})

	ParticipationRequestsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "participation_requests_total",
		Help: "Total number of join requests",
	})

	ParticipationDecisionsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "participation_decisions_total",
		Help: "Total number of owner decisions on join requests",
	}, []string{"decision"})

	ParticipationFailedTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "participation_failed_total",
		Help: "Total number of failed join requests",
	}, []string{"reason"})

	BidsSubmittedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "bids_submitted_total",
		Help: "Total number of bids submitted",
	})

	BidsAcceptedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "bids_accepted_total",
		Help: "Total number of bids accepted",
	})

	BidsFailedTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "bids_failed_total",
		Help: "Total number of failed bid operations",
	}, []string{"reason"})

	BidAcceptLatency = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "bid_accept_latency_seconds",
		Help:    "Latency of the atomic accept-bid-and-close-quota transaction",
		Buckets: prometheus.DefBuckets,
	})

	ChatMessagesTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "chat_messages_total",
		Help: "Total number of chat messages persisted",
	})

	NotificationsCreatedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "notifications_created_total",
		Help: "Total number of notifications fanned out",
	})

	RealtimeClientsGauge = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "realtime_clients_connected",
		Help: "Currently connected realtime websocket clients",
	})

	HTTPRequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "http_request_duration_seconds",
		Help:    "HTTP request latency",
		Buckets: prometheus.DefBuckets,
	}, []string{"method", "path", "status"})

	HTTPRequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "http_requests_total",
		Help: "Total number of HTTP requests",
	}, []string{"method", "path", "status"})
)
