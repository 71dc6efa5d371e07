package metrics

// ============================================================================
// Metric Names
// ============================================================================

// HTTP metric names
const (
	MetricNameHTTPRequestsTotal    = "http_requests_total"
	MetricNameHTTPRequestDuration  = "http_request_duration_seconds"
	MetricNameHTTPRequestsInFlight = "http_requests_in_flight"
)

// Event metric names
const (
	MetricNameEventsPublished    = "events_published_total"
	MetricNameEventHandlerErrors = "event_handler_errors_total"
)

// Inventory metric names
const (
	MetricNameInventoryOpsTotal    = "inventory_ops_total"
	MetricNameInventoryOpDuration  = "inventory_op_duration_seconds"
	MetricNameInventoryOpsReplayed = "inventory_ops_replayed_total"
	MetricNameInventoryLockWait    = "inventory_lock_wait_seconds"
	MetricNameItemsDropped         = "inventory_items_dropped_total"
	MetricNameItemsPickedUp        = "inventory_items_picked_up_total"
	MetricNameItemsGranted         = "inventory_items_granted_total"
	MetricNameItemsExpired         = "inventory_items_expired_total"
)

// World bridge metric names
const (
	MetricNameBridgeCallsTotal   = "world_bridge_calls_total"
	MetricNameBridgeCallDuration = "world_bridge_call_duration_seconds"
)

// Gateway metric names
const (
	MetricNameGatewayConnections    = "gateway_connections"
	MetricNameGatewayMessagesTotal  = "gateway_messages_total"
	MetricNameFanoutMessages        = "gateway_fanout_messages_total"
	MetricNameGatewayRateLimited    = "gateway_rate_limited_total"
	MetricNameGatewayQueueOverflows = "gateway_queue_overflows_total"
)

// ============================================================================
// Metric Help Text
// ============================================================================

// HTTP metric help text
const (
	HelpTextHTTPRequestsTotal    = "Total number of HTTP requests"
	HelpTextHTTPRequestDuration  = "HTTP request latency in seconds"
	HelpTextHTTPRequestsInFlight = "Current number of HTTP requests being served"
)

// Event metric help text
const (
	HelpTextEventsPublished    = "Total number of events published"
	HelpTextEventHandlerErrors = "Total number of event handler errors"
)

// Inventory metric help text
const (
	HelpTextInventoryOpsTotal    = "Total number of processed inventory ops by action and result"
	HelpTextInventoryOpDuration  = "Inventory op processing latency in seconds"
	HelpTextInventoryOpsReplayed = "Total number of duplicate ops answered from the idempotency cache"
	HelpTextInventoryLockWait    = "Time spent waiting for container locks in seconds"
	HelpTextItemsDropped         = "Total number of items dropped into the world"
	HelpTextItemsPickedUp        = "Total number of items picked up from the world"
	HelpTextItemsGranted         = "Total number of items granted by admins"
	HelpTextItemsExpired         = "Total number of dropped items removed by decay"
)

// World bridge metric help text
const (
	HelpTextBridgeCallsTotal   = "Total number of world bridge calls by outcome"
	HelpTextBridgeCallDuration = "World bridge call latency in seconds"
)

// Gateway metric help text
const (
	HelpTextGatewayConnections    = "Current number of open gateway connections"
	HelpTextGatewayMessagesTotal  = "Total number of client messages received by type"
	HelpTextFanoutMessages        = "Total number of messages fanned out to container observers"
	HelpTextGatewayRateLimited    = "Total number of messages rejected by the packet rate limit"
	HelpTextGatewayQueueOverflows = "Total number of messages dropped because a connection queue was full"
)

// ============================================================================
// Labels
// ============================================================================

const (
	LabelMethod  = "method"
	LabelPath    = "path"
	LabelStatus  = "status"
	LabelType    = "type"
	LabelAction  = "action"
	LabelResult  = "result"
	LabelCall    = "call"
	LabelOutcome = "outcome"
)

// Label values
const (
	ResultOK = "ok"

	CallSpawn   = "spawn"
	CallDespawn = "despawn"

	OutcomeOK      = "ok"
	OutcomeError   = "error"
	OutcomeTimeout = "timeout"
)

// ============================================================================
// Buckets
// ============================================================================

var (
	HTTPLatencyBuckets = []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5}
	OpLatencyBuckets   = []float64{0.0001, 0.0005, 0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1, 2.5}
)

// Log messages
const (
	LogMsgMetricsRecorded = "Metrics recorded for event"
	LogMsgPayloadDecode   = "Failed to decode event payload for metrics"
)
