package gateway

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gorilla/websocket"

	"github.com/osse101/invengine/internal/domain"
	"github.com/osse101/invengine/internal/logger"
	"github.com/osse101/invengine/internal/metrics"
	"github.com/osse101/invengine/internal/protocol"
)

// conn is one websocket client. Reads happen on the serving goroutine;
// every write goes through the send queue and the write pump.
type conn struct {
	id    string
	shard uint64
	ws    *websocket.Conn
	ctx   context.Context

	send      chan []byte
	done      chan struct{}
	closeOnce sync.Once

	authed atomic.Bool
	actor  domain.Actor
}

func newConn(ctx context.Context, id string, shard uint64, ws *websocket.Conn, queueSize int) *conn {
	return &conn{
		id:    id,
		shard: shard,
		ws:    ws,
		ctx:   ctx,
		send:  make(chan []byte, queueSize),
		done:  make(chan struct{}),
	}
}

// Send encodes msg and queues it without blocking. It implements emitter.Sink.
func (c *conn) Send(msg protocol.ServerMessage) bool {
	frame, err := protocol.MarshalServer(msg)
	if err != nil {
		logger.FromContext(c.ctx).Error(LogMsgEncodeFailed, logger.AttrKeyError, err)
		return false
	}
	select {
	case <-c.done:
		return false
	default:
	}
	select {
	case c.send <- frame:
		return true
	default:
		metrics.GatewayQueueOverflows.Inc()
		return false
	}
}

func (c *conn) sendError(seq uint32, code domain.ErrorCode, message string) {
	c.Send(protocol.ServerMessage{Sequence: seq, Payload: protocol.Error{Code: code, Message: message}})
}

// close stops the write pump. The socket itself is closed by the pump.
func (c *conn) close() {
	c.closeOnce.Do(func() { close(c.done) })
}

func (c *conn) writePump(wg *sync.WaitGroup) {
	defer wg.Done()
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		_ = c.ws.Close()
	}()

	for {
		select {
		case frame := <-c.send:
			_ = c.ws.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.ws.WriteMessage(websocket.BinaryMessage, frame); err != nil {
				c.close()
				return
			}
		case <-ticker.C:
			if err := c.ws.WriteControl(websocket.PingMessage, nil, time.Now().Add(writeWait)); err != nil {
				c.close()
				return
			}
		case <-c.done:
			c.flush()
			_ = c.ws.WriteControl(websocket.CloseMessage,
				websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""), time.Now().Add(writeWait))
			return
		}
	}
}

// flush writes whatever is still queued so a final error reaches the client.
func (c *conn) flush() {
	for {
		select {
		case frame := <-c.send:
			_ = c.ws.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.ws.WriteMessage(websocket.BinaryMessage, frame); err != nil {
				return
			}
		default:
			return
		}
	}
}
