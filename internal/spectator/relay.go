package spectator

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"go.uber.org/zap"
	"nhooyr.io/websocket"
	"nhooyr.io/websocket/wsjson"

	"github.com/park285/cheese-desk/pkg/chessdto"
)

type RelayState int32

const (
	RelayDisconnected RelayState = iota
	RelayConnecting
	RelayConnected
	RelayReconnecting
	RelayFailed
)

func (s RelayState) String() string {
	switch s {
	case RelayConnecting:
		return "connecting"
	case RelayConnected:
		return "connected"
	case RelayReconnecting:
		return "reconnecting"
	case RelayFailed:
		return "failed"
	default:
		return "disconnected"
	}
}

const (
	defaultRelayBuffer  = 64
	defaultPingInterval = 30 * time.Second
	defaultMaxReconnect = 5
	dialTimeout         = 10 * time.Second
	writeTimeout        = 5 * time.Second
	pingTimeout         = 3 * time.Second
)

type RelayOption func(*Relay)

func WithRelayBuffer(n int) RelayOption {
	return func(r *Relay) {
		if n > 0 {
			r.bufferSize = n
		}
	}
}

func WithPingInterval(d time.Duration) RelayOption {
	return func(r *Relay) {
		if d > 0 {
			r.pingInterval = d
		}
	}
}

// WithMaxReconnect bounds the dial attempts after a lost connection.
// Zero disables reconnecting.
func WithMaxReconnect(n int) RelayOption {
	return func(r *Relay) {
		if n >= 0 {
			r.maxReconnect = n
		}
	}
}

func WithRelayLogger(l *zap.Logger) RelayOption {
	return func(r *Relay) {
		if l != nil {
			r.logger = l
		}
	}
}

// Relay pushes move events to a websocket endpoint as JSON text frames.
// One goroutine owns the connection; Publish only enqueues.
type Relay struct {
	url          string
	bufferSize   int
	pingInterval time.Duration
	maxReconnect int
	logger       *zap.Logger

	events  chan chessdto.MoveEvent
	state   atomic.Int32
	dropped atomic.Int64

	conn *websocket.Conn

	stopCh   chan struct{}
	stopOnce sync.Once
	startMu  sync.Mutex
	started  bool
	wg       sync.WaitGroup
}

func NewRelay(url string, opts ...RelayOption) *Relay {
	r := &Relay{
		url:          url,
		bufferSize:   defaultRelayBuffer,
		pingInterval: defaultPingInterval,
		maxReconnect: defaultMaxReconnect,
		logger:       zap.NewNop(),
		stopCh:       make(chan struct{}),
	}
	for _, opt := range opts {
		opt(r)
	}
	r.events = make(chan chessdto.MoveEvent, r.bufferSize)
	return r
}

// Connect dials once and starts the send loop. A failed first dial is
// returned and the loop keeps retrying in the background.
func (r *Relay) Connect(ctx context.Context) error {
	r.startMu.Lock()
	if r.started {
		r.startMu.Unlock()
		return nil
	}
	r.started = true
	r.startMu.Unlock()

	r.setState(RelayConnecting)
	err := r.dial(ctx)
	if err != nil {
		r.logger.Warn("relay dial failed", zap.String("url", r.url), zap.Error(err))
	}
	r.wg.Add(1)
	go r.loop(err == nil)
	return err
}

// Publish enqueues ev without blocking. Events are dropped when the
// buffer is full.
func (r *Relay) Publish(ev chessdto.MoveEvent) {
	select {
	case r.events <- ev:
	default:
		n := r.dropped.Add(1)
		r.logger.Debug("relay buffer full, event dropped", zap.Int("ply", ev.Ply), zap.Int64("dropped", n))
	}
}

func (r *Relay) State() RelayState { return RelayState(r.state.Load()) }

// Dropped counts events lost to a full buffer.
func (r *Relay) Dropped() int64 { return r.dropped.Load() }

func (r *Relay) loop(connected bool) {
	defer r.wg.Done()
	defer r.closeConn(websocket.StatusNormalClosure, "close")

	if !connected && !r.reconnect() {
		return
	}

	ticker := time.NewTicker(r.pingInterval)
	defer ticker.Stop()
	pingFailures := 0
	for {
		select {
		case <-r.stopCh:
			r.flush()
			return
		case ev := <-r.events:
			if err := r.write(ev); err != nil {
				r.logger.Warn("relay write failed", zap.Error(err))
				r.closeConn(websocket.StatusGoingAway, "reconnect")
				if !r.reconnect() {
					return
				}
				if err := r.write(ev); err != nil {
					r.logger.Warn("relay event lost", zap.Int("ply", ev.Ply), zap.Error(err))
				}
			}
		case <-ticker.C:
			ctx, cancel := context.WithTimeout(context.Background(), pingTimeout)
			err := r.conn.Ping(ctx)
			cancel()
			if err == nil {
				pingFailures = 0
				continue
			}
			pingFailures++
			if pingFailures >= 2 {
				r.closeConn(websocket.StatusGoingAway, "ping failure")
				if !r.reconnect() {
					return
				}
				pingFailures = 0
			}
		}
	}
}

// flush writes what is already queued before closing.
func (r *Relay) flush() {
	for {
		select {
		case ev := <-r.events:
			if r.conn == nil || r.write(ev) != nil {
				return
			}
		default:
			return
		}
	}
}

func (r *Relay) reconnect() bool {
	if r.maxReconnect <= 0 {
		r.setState(RelayFailed)
		return false
	}
	r.setState(RelayReconnecting)
	for attempt := 1; attempt <= r.maxReconnect; attempt++ {
		select {
		case <-r.stopCh:
			return false
		case <-time.After(backoffDuration(attempt)):
		}
		if err := r.dial(context.Background()); err != nil {
			r.logger.Debug("relay reconnect failed", zap.Int("attempt", attempt), zap.Error(err))
			continue
		}
		r.logger.Info("relay reconnected", zap.Int("attempt", attempt))
		return true
	}
	r.setState(RelayFailed)
	r.logger.Warn("relay gave up", zap.String("url", r.url), zap.Int("attempts", r.maxReconnect))
	return false
}

func (r *Relay) dial(ctx context.Context) error {
	dialCtx, cancel := context.WithTimeout(ctx, dialTimeout)
	defer cancel()
	conn, _, err := websocket.Dial(dialCtx, r.url, &websocket.DialOptions{
		CompressionMode: websocket.CompressionNoContextTakeover,
	})
	if err != nil {
		return err
	}
	// write-only: let the library consume control frames
	conn.CloseRead(context.Background())
	r.conn = conn
	r.setState(RelayConnected)
	return nil
}

func (r *Relay) write(ev chessdto.MoveEvent) error {
	ctx, cancel := context.WithTimeout(context.Background(), writeTimeout)
	defer cancel()
	return wsjson.Write(ctx, r.conn, ev)
}

// Close stops the loop after flushing queued events, waiting at most
// until ctx is done.
func (r *Relay) Close(ctx context.Context) error {
	r.stopOnce.Do(func() { close(r.stopCh) })

	done := make(chan struct{})
	go func() {
		r.wg.Wait()
		close(done)
	}()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-done:
		return nil
	}
}

func (r *Relay) closeConn(code websocket.StatusCode, reason string) {
	if r.conn == nil {
		return
	}
	_ = r.conn.Close(code, reason)
	r.conn = nil
	if r.State() == RelayConnected {
		r.setState(RelayDisconnected)
	}
}

func (r *Relay) setState(s RelayState) { r.state.Store(int32(s)) }

func backoffDuration(attempt int) time.Duration {
	if attempt < 1 {
		attempt = 1
	}
	if attempt > 6 {
		attempt = 6
	}
	base := 100 * time.Millisecond
	return time.Duration(1<<uint(attempt-1)) * base // 100ms, 200ms ...
}
