package gateway

import (
	"errors"
	"time"
)

// Connection timing
const (
	writeWait    = 5 * time.Second
	pongWait     = 60 * time.Second
	pingPeriod   = pongWait * 9 / 10
	rateWindow   = time.Second
	rateLogEvery = 50
)

// Defaults
const (
	DefaultSendQueueSize    = 64
	DefaultPacketsPerSecond = 40
	DevTokenPrefix          = "dev:"
)

var (
	ErrInvalidToken = errors.New("invalid or expired token")
)

// Client-facing messages
const (
	MsgNotAuthenticated     = "not authenticated"
	MsgAlreadyAuthenticated = "already authenticated"
	MsgMalformedFrame       = "malformed frame"
	MsgRateLimited          = "packet rate limit exceeded"
	MsgQueueOverflow        = "input queue full, op dropped"
)

// Log messages
const (
	LogMsgConnOpened    = "Gateway connection opened"
	LogMsgConnClosed    = "Gateway connection closed"
	LogMsgUpgradeFailed = "Websocket upgrade failed"
	LogMsgAuthFailed    = "Gateway auth failed"
	LogMsgAuthOK        = "Gateway auth succeeded"
	LogMsgDecodeFailed  = "Failed to decode client frame"
	LogMsgEncodeFailed  = "Failed to encode server message"
	LogMsgRateLimited   = "Client exceeded packet rate"
	LogMsgQueueOverflow = "Op dropped on full worker queue"
	LogMsgOpCancelled   = "Op cancelled before processing"
	LogMsgIgnored       = "Ignoring unsupported payload"
	LogMsgSyncFailed    = "Failed to send initial container states"
)
