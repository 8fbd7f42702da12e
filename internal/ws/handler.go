package ws

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/GriffinCanCode/playground/internal/infrastructure/monitoring"
	"github.com/GriffinCanCode/playground/internal/playground"
	"github.com/GriffinCanCode/playground/internal/preview"
	"github.com/GriffinCanCode/playground/internal/shared/id"
	"github.com/GriffinCanCode/playground/internal/shared/types"
	"github.com/GriffinCanCode/playground/internal/typing"
)

const (
	writeWait  = 10 * time.Second
	pongWait   = 60 * time.Second
	pingPeriod = (pongWait * 9) / 10

	// outBuffer is the number of messages queued per connection
	outBuffer = 64
	// logBuffer is the number of log records queued per connection
	logBuffer = 256
)

// Outbound is one server to client message
type Outbound struct {
	Type        string                    `json:"type"`
	ConnID      string                    `json:"conn_id,omitempty"`
	Message     string                    `json:"message,omitempty"`
	Record      *types.LogRecord          `json:"record,omitempty"`
	Frame       *typing.Frame             `json:"frame,omitempty"`
	Build       *types.PreviewDocument    `json:"build,omitempty"`
	Compilation *preview.CompilationError `json:"compilation,omitempty"`
	Verb        string                    `json:"verb,omitempty"`
	OK          *bool                     `json:"ok,omitempty"`
	Active      string                    `json:"active,omitempty"`
	Timestamp   int64                     `json:"timestamp"`
}

// Handler manages WebSocket connections
type Handler struct {
	projects *playground.Manager
	metrics  *monitoring.Metrics
	logger   *zap.Logger
	upgrader websocket.Upgrader
}

// NewHandler creates a new WebSocket handler
func NewHandler(projects *playground.Manager, metrics *monitoring.Metrics, logger *zap.Logger) *Handler {
	if metrics == nil {
		metrics = monitoring.NewMetrics()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Handler{
		projects: projects,
		metrics:  metrics,
		logger:   logger,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 4096,
			CheckOrigin: func(r *http.Request) bool {
				return true
			},
		},
	}
}

// conn is one live connection
type conn struct {
	id      id.ConnID
	ws      *websocket.Conn
	session *playground.Session
	metrics *monitoring.Metrics
	logger  *zap.Logger

	ctx  context.Context
	out  chan Outbound
	jobs sync.WaitGroup
}

// HandleConnection handles WebSocket upgrade and messages
func (h *Handler) HandleConnection(c *gin.Context) {
	s, err := h.projects.Get(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
		return
	}

	wsConn, err := h.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		h.logger.Warn("WebSocket upgrade failed", zap.Error(err))
		return
	}
	defer wsConn.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	cn := &conn{
		id:      id.NewConnID(),
		ws:      wsConn,
		session: s,
		metrics: h.metrics,
		ctx:     ctx,
		out:     make(chan Outbound, outBuffer),
	}
	cn.logger = h.logger.With(
		zap.String("project_id", s.ID.String()),
		zap.String("conn_id", cn.id.String()))

	h.metrics.IncWSConnections()
	defer h.metrics.DecWSConnections()
	cn.logger.Info("WebSocket connected")

	if err := wsConn.SetReadDeadline(time.Now().Add(pongWait)); err != nil {
		return
	}
	wsConn.SetPongHandler(func(string) error {
		return wsConn.SetReadDeadline(time.Now().Add(pongWait))
	})

	writerDone := make(chan struct{})
	go func() {
		defer close(writerDone)
		cn.writeLoop()
	}()

	logs, unsubscribe := s.Log().Subscribe(logBuffer)
	go cn.forwardLogs(logs)

	cn.send(Outbound{Type: "connected", ConnID: cn.id.String(), Active: s.Active()})

	cn.readLoop()

	unsubscribe()
	cancel()
	cn.jobs.Wait()
	<-writerDone
	cn.logger.Info("WebSocket disconnected")
}

func (cn *conn) writeLoop() {
	ticker := time.NewTicker(pingPeriod)
	defer ticker.Stop()

	for {
		select {
		case <-cn.ctx.Done():
			_ = cn.ws.WriteControl(websocket.CloseMessage,
				websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
				time.Now().Add(writeWait))
			return
		case msg := <-cn.out:
			if err := cn.ws.SetWriteDeadline(time.Now().Add(writeWait)); err != nil {
				return
			}
			if err := cn.ws.WriteJSON(msg); err != nil {
				cn.logger.Debug("WebSocket write failed", zap.Error(err))
				return
			}
			cn.metrics.RecordWSMessage("out", msg.Type)
		case <-ticker.C:
			if err := cn.ws.SetWriteDeadline(time.Now().Add(writeWait)); err != nil {
				return
			}
			if err := cn.ws.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// send queues msg, blocking until there is room or the connection closes
func (cn *conn) send(msg Outbound) bool {
	msg.Timestamp = time.Now().UnixMilli()
	select {
	case cn.out <- msg:
		return true
	case <-cn.ctx.Done():
		return false
	}
}

func (cn *conn) sendError(msg string) {
	cn.send(Outbound{Type: "error", Message: msg})
}

func (cn *conn) forwardLogs(logs <-chan *types.LogRecord) {
	for rec := range logs {
		if rec == nil {
			cn.send(Outbound{Type: "clear"})
			continue
		}
		cn.send(Outbound{Type: "log", Record: rec})
	}
}

func (cn *conn) readLoop() {
	for {
		var msg types.WSMessage
		if err := cn.ws.ReadJSON(&msg); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				cn.logger.Debug("WebSocket read error", zap.Error(err))
			}
			return
		}

		msgType := strings.ToLower(strings.TrimSpace(msg.Type))
		cn.metrics.RecordWSMessage("in", metricType(msgType))

		switch msgType {
		case "ping":
			cn.send(Outbound{Type: "pong"})
		case "terminal":
			cn.terminal(msg.Command)
		case "build":
			cn.async(cn.build)
		case "animate":
			files := msg.Files
			cn.async(func() { cn.animate(files) })
		case "stop":
			cn.session.StopAnimation()
		case "":
			cn.sendError("type is required")
		default:
			cn.sendError("unknown message type")
		}
	}
}

// metricType keeps client-chosen strings out of the label set
func metricType(t string) string {
	switch t {
	case "ping", "terminal", "build", "animate", "stop":
		return t
	}
	return "unknown"
}

// async runs fn off the read loop so pings and stop keep being served
func (cn *conn) async(fn func()) {
	cn.jobs.Add(1)
	go func() {
		defer cn.jobs.Done()
		fn()
	}()
}

func (cn *conn) terminal(command string) {
	res := cn.session.Execute(command)
	if res == nil {
		return
	}
	ok := res.OK()
	out := Outbound{Type: "terminal", Verb: res.Verb, OK: &ok, Active: cn.session.Active()}
	if res.Err != nil {
		out.Message = res.Err.Error()
	}
	cn.send(out)
}

func (cn *conn) build() {
	doc, err := cn.session.Build(cn.ctx)
	cn.sendBuild(doc, err)
}

func (cn *conn) animate(files []types.ProjectFile) {
	if len(files) == 0 {
		cn.sendError("animate requires files")
		return
	}
	doc, err := cn.session.Animate(cn.ctx, files, func(f typing.Frame) {
		frame := f
		cn.send(Outbound{Type: "frame", Frame: &frame, Active: f.Active})
	})
	if errors.Is(err, context.Canceled) || errors.Is(err, playground.ErrAnimationCanceled) {
		cn.send(Outbound{Type: "error", Message: "animation canceled"})
		return
	}
	cn.sendBuild(doc, err)
}

func (cn *conn) sendBuild(doc *types.PreviewDocument, err error) {
	if err == nil {
		cn.send(Outbound{Type: "build", Build: doc, Active: cn.session.Active()})
		return
	}
	out := Outbound{Type: "error", Message: err.Error()}
	var cerr *preview.CompilationError
	if errors.As(err, &cerr) {
		out.Compilation = cerr
	}
	cn.send(out)
}
