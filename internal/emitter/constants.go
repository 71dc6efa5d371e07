package emitter

// Log messages
const (
	LogMsgContainerOpened = "Container opened"
	LogMsgContainerClosed = "Container closed"
	LogMsgDeliveryDropped = "Dropped message for slow connection"
)
