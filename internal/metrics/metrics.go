package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// HTTP Metrics
var (
	HTTPRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: MetricNameHTTPRequestsTotal,
			Help: HelpTextHTTPRequestsTotal,
		},
		[]string{LabelMethod, LabelPath, LabelStatus},
	)

	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    MetricNameHTTPRequestDuration,
			Help:    HelpTextHTTPRequestDuration,
			Buckets: HTTPLatencyBuckets,
		},
		[]string{LabelMethod, LabelPath},
	)

	HTTPRequestsInFlight = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: MetricNameHTTPRequestsInFlight,
			Help: HelpTextHTTPRequestsInFlight,
		},
	)
)

// Event Metrics
var (
	EventsPublished = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: MetricNameEventsPublished,
			Help: HelpTextEventsPublished,
		},
		[]string{LabelType},
	)

	EventHandlerErrors = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: MetricNameEventHandlerErrors,
			Help: HelpTextEventHandlerErrors,
		},
		[]string{LabelType},
	)
)

// Inventory Metrics
var (
	InventoryOpsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: MetricNameInventoryOpsTotal,
			Help: HelpTextInventoryOpsTotal,
		},
		[]string{LabelAction, LabelResult},
	)

	InventoryOpDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    MetricNameInventoryOpDuration,
			Help:    HelpTextInventoryOpDuration,
			Buckets: OpLatencyBuckets,
		},
		[]string{LabelAction},
	)

	InventoryOpsReplayed = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: MetricNameInventoryOpsReplayed,
			Help: HelpTextInventoryOpsReplayed,
		},
		[]string{LabelAction},
	)

	InventoryLockWait = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    MetricNameInventoryLockWait,
			Help:    HelpTextInventoryLockWait,
			Buckets: OpLatencyBuckets,
		},
	)

	ItemsDropped = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: MetricNameItemsDropped,
			Help: HelpTextItemsDropped,
		},
	)

	ItemsPickedUp = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: MetricNameItemsPickedUp,
			Help: HelpTextItemsPickedUp,
		},
	)

	ItemsGranted = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: MetricNameItemsGranted,
			Help: HelpTextItemsGranted,
		},
	)

	ItemsExpired = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: MetricNameItemsExpired,
			Help: HelpTextItemsExpired,
		},
	)
)

// World bridge Metrics
var (
	BridgeCallsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: MetricNameBridgeCallsTotal,
			Help: HelpTextBridgeCallsTotal,
		},
		[]string{LabelCall, LabelOutcome},
	)

	BridgeCallDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    MetricNameBridgeCallDuration,
			Help:    HelpTextBridgeCallDuration,
			Buckets: OpLatencyBuckets,
		},
		[]string{LabelCall},
	)
)

// Gateway Metrics
var (
	GatewayConnections = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: MetricNameGatewayConnections,
			Help: HelpTextGatewayConnections,
		},
	)

	GatewayMessagesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: MetricNameGatewayMessagesTotal,
			Help: HelpTextGatewayMessagesTotal,
		},
		[]string{LabelType},
	)

	FanoutMessages = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: MetricNameFanoutMessages,
			Help: HelpTextFanoutMessages,
		},
		[]string{LabelType},
	)

	GatewayRateLimited = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: MetricNameGatewayRateLimited,
			Help: HelpTextGatewayRateLimited,
		},
	)

	GatewayQueueOverflows = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: MetricNameGatewayQueueOverflows,
			Help: HelpTextGatewayQueueOverflows,
		},
	)
)
