// Package gateway serves the binary websocket protocol.
package gateway

import (
	"context"
	"errors"
	"net/http"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"github.com/osse101/invengine/internal/domain"
	"github.com/osse101/invengine/internal/emitter"
	"github.com/osse101/invengine/internal/logger"
	"github.com/osse101/invengine/internal/metrics"
	"github.com/osse101/invengine/internal/protocol"
	"github.com/osse101/invengine/internal/worker"
)

// Processor is the part of the inventory processor the gateway drives.
type Processor interface {
	Submit(ctx context.Context, actor domain.Actor, op domain.InventoryOp) (*domain.OpResult, error)
	EnsurePlayer(entityID uint64) []domain.InventoryRef
}

// EntityRegistrar makes sure an authenticated player exists in the world.
type EntityRegistrar interface {
	EnsureEntity(id uint64) bool
}

// Config tunes a Gateway.
type Config struct {
	PacketsPerSecond int
	SendQueueSize    int
	CheckOrigin      func(r *http.Request) bool
}

// Gateway upgrades HTTP requests to websocket sessions.
type Gateway struct {
	proc     Processor
	registry *emitter.Registry
	pool     *worker.Pool
	world    EntityRegistrar
	auth     Authenticator
	cfg      Config
	upgrader websocket.Upgrader

	nextShard atomic.Uint64
	wg        sync.WaitGroup

	mu     sync.Mutex
	conns  map[string]*conn
	closed bool
}

// New creates a gateway. Ops are processed on pool, one shard per connection.
func New(proc Processor, registry *emitter.Registry, pool *worker.Pool, world EntityRegistrar, auth Authenticator, cfg Config) *Gateway {
	if cfg.PacketsPerSecond < 1 {
		cfg.PacketsPerSecond = DefaultPacketsPerSecond
	}
	if cfg.SendQueueSize < 1 {
		cfg.SendQueueSize = DefaultSendQueueSize
	}
	if cfg.CheckOrigin == nil {
		cfg.CheckOrigin = func(*http.Request) bool { return true }
	}
	return &Gateway{
		proc:     proc,
		registry: registry,
		pool:     pool,
		world:    world,
		auth:     auth,
		cfg:      cfg,
		conns:    make(map[string]*conn),
		upgrader: websocket.Upgrader{
			ReadBufferSize:  4096,
			WriteBufferSize: 4096,
			CheckOrigin:     cfg.CheckOrigin,
		},
	}
}

// ServeHTTP runs one websocket session until the client goes away.
func (g *Gateway) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	ws, err := g.upgrader.Upgrade(w, r, nil)
	if err != nil {
		logger.FromContext(r.Context()).Warn(LogMsgUpgradeFailed, logger.AttrKeyError, err)
		return
	}
	ws.SetReadLimit(protocol.MaxFrameSize)

	id := uuid.NewString()
	ctx, cancel := context.WithCancel(logger.WithAttrs(context.WithoutCancel(r.Context()), logger.AttrKeyConnID, id))
	c := newConn(ctx, id, g.nextShard.Add(1), ws, g.cfg.SendQueueSize)

	g.mu.Lock()
	if g.closed {
		g.mu.Unlock()
		cancel()
		_ = ws.Close()
		return
	}
	g.conns[id] = c
	g.wg.Add(1)
	g.mu.Unlock()
	go c.writePump(&g.wg)

	metrics.GatewayConnections.Inc()
	log := logger.FromContext(ctx)
	log.Info(LogMsgConnOpened, "remote_addr", r.RemoteAddr)

	g.readLoop(ctx, c)

	cancel()
	g.registry.Detach(c.id)
	c.close()
	g.mu.Lock()
	delete(g.conns, c.id)
	g.mu.Unlock()
	metrics.GatewayConnections.Dec()
	log.Info(LogMsgConnClosed)
}

// Wait blocks until every write pump has exited.
func (g *Gateway) Wait() {
	g.wg.Wait()
}

// Close refuses new sessions and asks every open one to close, then waits
// for their write pumps. HTTP server shutdown does not reach hijacked connections.
func (g *Gateway) Close() {
	g.mu.Lock()
	g.closed = true
	conns := make([]*conn, 0, len(g.conns))
	for _, c := range g.conns {
		conns = append(conns, c)
	}
	g.mu.Unlock()

	for _, c := range conns {
		c.close()
	}
	g.wg.Wait()
}

func (g *Gateway) readLoop(ctx context.Context, c *conn) {
	limiter := newPacketLimiter(g.cfg.PacketsPerSecond)
	_ = c.ws.SetReadDeadline(time.Now().Add(pongWait))
	c.ws.SetPongHandler(func(string) error {
		return c.ws.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		_, frame, err := c.ws.ReadMessage()
		if err != nil {
			return
		}
		_ = c.ws.SetReadDeadline(time.Now().Add(pongWait))

		if !limiter.Allow(time.Now()) {
			metrics.GatewayRateLimited.Inc()
			if limiter.shouldLog() {
				logger.FromContext(ctx).Warn(LogMsgRateLimited, "rejected", limiter.rejected)
			}
			c.sendError(0, domain.CodePacketPerSecondLimitThresholded, MsgRateLimited)
			continue
		}

		msg, err := protocol.UnmarshalClient(frame)
		if err != nil {
			logger.FromContext(ctx).Debug(LogMsgDecodeFailed, logger.AttrKeyError, err)
			c.sendError(msg.Sequence, domain.CodeInvalidRequest, MsgMalformedFrame)
			continue
		}
		metrics.GatewayMessagesTotal.WithLabelValues(protocol.ClientType(msg)).Inc()
		g.dispatch(ctx, c, msg)
	}
}

func (g *Gateway) dispatch(ctx context.Context, c *conn, msg protocol.ClientMessage) {
	switch p := msg.Payload.(type) {
	case protocol.Ping:
		c.Send(protocol.ServerMessage{Sequence: msg.Sequence, Payload: protocol.Pong{
			ClientTimeMs: p.ClientTimeMs,
			ServerTimeMs: time.Now().UnixMilli(),
		}})
	case protocol.Auth:
		g.authenticate(ctx, c, msg.Sequence, p)
	case protocol.InventoryOpRequest:
		if !c.authed.Load() {
			c.sendError(msg.Sequence, domain.CodeNotAuthenticated, MsgNotAuthenticated)
			return
		}
		g.enqueueOp(ctx, c, msg.Sequence, p.Op)
	case protocol.PlayerAction, protocol.MovementMode:
		if !c.authed.Load() {
			c.sendError(msg.Sequence, domain.CodeNotAuthenticated, MsgNotAuthenticated)
			return
		}
		logger.FromContext(ctx).Debug(LogMsgIgnored, "type", protocol.ClientType(msg))
	default:
		c.sendError(msg.Sequence, domain.CodeInvalidRequest, MsgMalformedFrame)
	}
}

func (g *Gateway) authenticate(ctx context.Context, c *conn, seq uint32, a protocol.Auth) {
	if c.authed.Load() {
		c.sendError(seq, domain.CodeInvalidRequest, MsgAlreadyAuthenticated)
		return
	}
	log := logger.FromContext(ctx)
	entityID, err := g.auth.Authenticate(ctx, a.Token)
	if err != nil {
		log.Warn(LogMsgAuthFailed, logger.AttrKeyError, err, "client_version", a.ClientVersion)
		msg := ErrInvalidToken.Error()
		if !errors.Is(err, ErrInvalidToken) {
			msg = "authentication failed"
		}
		c.Send(protocol.ServerMessage{Sequence: seq, Payload: protocol.AuthResult{ErrorMessage: msg}})
		return
	}

	// The actor id is the entity id so idempotency survives reconnects.
	c.actor = domain.Actor{ID: entityID, EntityID: entityID, ConnID: c.id}
	if g.world != nil {
		g.world.EnsureEntity(entityID)
	}
	refs := g.proc.EnsurePlayer(entityID)
	g.registry.Attach(c.id, entityID, c, refs...)
	c.authed.Store(true)
	log.Info(LogMsgAuthOK, logger.AttrKeyActorID, entityID, "client_version", a.ClientVersion)

	c.Send(protocol.ServerMessage{Sequence: seq, Payload: protocol.AuthResult{Success: true}})
	if err := g.registry.Sync(ctx, c.id, refs...); err != nil {
		log.Warn(LogMsgSyncFailed, logger.AttrKeyError, err)
	}
}

func (g *Gateway) enqueueOp(ctx context.Context, c *conn, seq uint32, op domain.InventoryOp) {
	actor := c.actor
	opCtx := logger.WithAttrs(ctx, logger.AttrKeyActorID, actor.ID, logger.AttrKeyOpID, op.OpID)
	job := worker.JobFunc(func(context.Context) error {
		res, err := g.proc.Submit(opCtx, actor, op)
		if err != nil {
			logger.FromContext(opCtx).Debug(LogMsgOpCancelled, logger.AttrKeyError, err)
			return nil
		}
		c.Send(protocol.ServerMessage{Sequence: seq, Payload: protocol.InventoryOpResult{Result: res}})
		return nil
	})
	if !g.pool.TryEnqueue(c.shard, job) {
		metrics.GatewayQueueOverflows.Inc()
		logger.FromContext(opCtx).Warn(LogMsgQueueOverflow)
		c.Send(protocol.ServerMessage{Sequence: seq, Payload: protocol.Warning{
			Code:    domain.WarnInputQueueOverflow,
			Message: MsgQueueOverflow,
		}})
	}
}
