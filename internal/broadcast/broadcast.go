package broadcast

import (
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/ternarybob/arbor"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin:     func(r *http.Request) bool { return true },
}

// wsMessage mirrors the teacher's WSMessage envelope
// (internal/handlers/websocket.go): a type tag plus an arbitrary payload.
type wsMessage struct {
	Type    string      `json:"type"`
	Payload interface{} `json:"payload"`
}

// SpanEvent reports a named span opening or closing, used to drive a
// live timeline view of job execution.
type SpanEvent struct {
	Tag       string    `json:"tag"`
	Phase     string    `json:"phase"` // "start" | "end"
	Timestamp time.Time `json:"timestamp"`
}

// EventBroadcaster fans job-system activity out to connected WebSocket
// clients, following the teacher's connection-map-plus-per-connection-mutex
// pattern. It also implements task.Profiler directly, so wiring it into
// JobSystem.Init gives every worker-thread Setup call and every job's
// Scoped span a live subscriber feed with no separate adapter type.
type EventBroadcaster struct {
	logger  arbor.ILogger
	mu      sync.RWMutex
	clients map[*websocket.Conn]*sync.Mutex
}

// New constructs an EventBroadcaster.
func New(logger arbor.ILogger) *EventBroadcaster {
	return &EventBroadcaster{
		logger:  logger,
		clients: make(map[*websocket.Conn]*sync.Mutex),
	}
}

// HandleWebSocket upgrades r into a tracked client connection and blocks,
// draining (and discarding) client messages, until the connection closes.
func (b *EventBroadcaster) HandleWebSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		b.logger.Error().Err(err).Msg("failed to upgrade websocket connection")
		return
	}

	b.mu.Lock()
	b.clients[conn] = &sync.Mutex{}
	count := len(b.clients)
	b.mu.Unlock()
	b.logger.Info().Int("clients", count).Msg("dashboard client connected")

	defer func() {
		b.mu.Lock()
		delete(b.clients, conn)
		remaining := len(b.clients)
		b.mu.Unlock()
		conn.Close()
		b.logger.Info().Int("clients", remaining).Msg("dashboard client disconnected")
	}()

	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			break
		}
	}
}

func (b *EventBroadcaster) broadcast(msgType string, payload interface{}) {
	data, err := json.Marshal(wsMessage{Type: msgType, Payload: payload})
	if err != nil {
		b.logger.Error().Err(err).Str("type", msgType).Msg("failed to marshal broadcast message")
		return
	}

	b.mu.RLock()
	conns := make([]*websocket.Conn, 0, len(b.clients))
	mutexes := make([]*sync.Mutex, 0, len(b.clients))
	for conn, mutex := range b.clients {
		conns = append(conns, conn)
		mutexes = append(mutexes, mutex)
	}
	b.mu.RUnlock()

	for i, conn := range conns {
		mutexes[i].Lock()
		err := conn.WriteMessage(websocket.TextMessage, data)
		mutexes[i].Unlock()
		if err != nil {
			b.logger.Warn().Err(err).Msg("failed to send broadcast message to client")
		}
	}
}

// Setup implements task.Profiler: announces a worker or frame-loop thread
// coming online.
func (b *EventBroadcaster) Setup(threadName string) {
	b.broadcast("thread_started", map[string]string{"thread": threadName})
}

// Swap implements task.Profiler: announces a new TaskSystem frame.
func (b *EventBroadcaster) Swap() {
	b.broadcast("frame_swap", map[string]int64{"at": time.Now().UnixMilli()})
}

// Scoped implements task.Profiler: announces a job span opening, and
// returns a closer that announces it closing.
func (b *EventBroadcaster) Scoped(tagName string) func() {
	b.broadcast("span", SpanEvent{Tag: tagName, Phase: "start", Timestamp: time.Now()})
	return func() {
		b.broadcast("span", SpanEvent{Tag: tagName, Phase: "end", Timestamp: time.Now()})
	}
}

// BroadcastResult announces a completed RunResult to the dashboard.
func (b *EventBroadcaster) BroadcastResult(payload interface{}) {
	b.broadcast("result", payload)
}

// LogPanic implements task.PanicLogger: a job panic is newsworthy enough
// for the dashboard to surface immediately, in addition to arbor's log.
func (b *EventBroadcaster) LogPanic(jobName string, recovered any, stack []byte) {
	b.logger.Error().Str("job", jobName).Interface("recovered", recovered).Msg("job panicked")
	b.broadcast("job_panic", map[string]string{"job": jobName, "stack": string(stack)})
}
