package affirmation

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	model "github.com/zhouzirui/z-affirm/backend/internal/model/affirmation"
	"github.com/zhouzirui/z-affirm/backend/pkg/logger"
	"github.com/zhouzirui/z-affirm/backend/pkg/metrics"
	"github.com/zhouzirui/z-affirm/backend/pkg/utils"
)

const (
	writeWait  = 10 * time.Second
	pongWait   = 60 * time.Second
	pingPeriod = 30 * time.Second

	maxFrameSize = 16 * 1024
)

// 服务端帧的状态
const (
	StatusOK    = "ok"
	StatusError = "error"
	StatusBusy  = "busy"
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
}

// Frame 服务端推送给客户端的消息
type Frame struct {
	ID          string `json:"id"`
	Status      string `json:"status"`
	Affirmation string `json:"affirmation,omitempty"`
	Error       string `json:"error,omitempty"`
	Code        string `json:"code,omitempty"`
}

type frameID struct {
	ID string `json:"id"`
}

// wsSession 单个 WebSocket 连接的状态。同一时间最多只有一次生成在进行。
type wsSession struct {
	id      string
	conn    *websocket.Conn
	writeMu sync.Mutex
	busy    atomic.Bool
	log     *zap.Logger
}

func (s *wsSession) send(frame Frame) error {
	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	_ = s.conn.SetWriteDeadline(time.Now().Add(writeWait))
	return s.conn.WriteJSON(frame)
}

// handleWebSocket 处理 WebSocket 连接
func (h *Handler) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	if h.generator == nil {
		utils.RespondError(w, http.StatusServiceUnavailable, "affirmation generation unavailable")
		return
	}

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		logger.FromContext(r.Context()).Warn("websocket upgrade failed", zap.Error(err))
		return
	}
	defer conn.Close()

	session := &wsSession{
		id:   uuid.NewString(),
		conn: conn,
	}
	session.log = logger.FromContext(r.Context()).With(zap.String("conn_id", session.id))

	metrics.WebSocketConnections.Inc()
	defer metrics.WebSocketConnections.Dec()
	session.log.Info("websocket connected")

	ctx, cancel := context.WithCancel(r.Context())
	var wg sync.WaitGroup
	defer func() {
		cancel()
		wg.Wait()
		session.log.Info("websocket closed")
	}()

	conn.SetReadLimit(maxFrameSize)
	_ = conn.SetReadDeadline(time.Now().Add(pongWait))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	wg.Add(1)
	go func() {
		defer wg.Done()
		pingLoop(ctx, conn)
	}()

	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				session.log.Warn("websocket read error", zap.Error(err))
			}
			return
		}
		_ = conn.SetReadDeadline(time.Now().Add(pongWait))

		var ref frameID
		_ = json.Unmarshal(data, &ref)
		if ref.ID == "" {
			ref.ID = uuid.NewString()
		}

		if !session.busy.CompareAndSwap(false, true) {
			if err := session.send(Frame{ID: ref.ID, Status: StatusBusy, Error: "a generation is already in progress"}); err != nil {
				return
			}
			continue
		}

		req, err := model.DecodeRequest(bytes.NewReader(data))
		if err != nil {
			session.busy.Store(false)
			if err := session.send(errorFrame(ref.ID, err)); err != nil {
				return
			}
			continue
		}

		wg.Add(1)
		go func(id string, req model.Request) {
			defer wg.Done()

			frame := Frame{ID: id, Status: StatusOK}
			resp, err := h.generate(ctx, req)
			if err != nil {
				frame = errorFrame(id, err)
			} else {
				frame.Affirmation = resp.Affirmation
			}

			// 先释放再回写，客户端收到结果后立即提交不会被判定为 busy
			session.busy.Store(false)
			if err := session.send(frame); err != nil {
				session.log.Debug("websocket write failed", zap.Error(err))
			}
		}(ref.ID, req)
	}
}

func errorFrame(id string, err error) Frame {
	e := model.AsError(err)
	return Frame{
		ID:     id,
		Status: StatusError,
		Error:  e.UserMessage(),
		Code:   string(e.Kind),
	}
}

func pingLoop(ctx context.Context, conn *websocket.Conn) {
	ticker := time.NewTicker(pingPeriod)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(writeWait)); err != nil {
				return
			}
		}
	}
}
