// Package monitor exposes a live view of a running simulation over WebSocket.
// 核心仿真不做任何网络 IO；cmd 层把 StreamServer 注册为 StepListener。
package monitor

import (
	"encoding/json"
	"net/http"
	"sync"

	"github.com/gorilla/websocket"

	"prediction-mm-go/sim"
)

// StreamServer 向所有订阅连接广播每步轨迹记录。
// 慢消费者直接丢帧，绝不反压仿真循环。
type StreamServer struct {
	upgrader websocket.Upgrader

	mu     sync.Mutex
	subs   map[chan []byte]struct{}
	closed bool
}

func NewStreamServer() *StreamServer {
	return &StreamServer{
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 4096,
			CheckOrigin:     func(*http.Request) bool { return true },
		},
		subs: make(map[chan []byte]struct{}),
	}
}

// ServeHTTP 升级连接并为其启动独立写循环。
func (s *StreamServer) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		return
	}
	ch := make(chan []byte, 256)

	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		conn.Close()
		return
	}
	s.subs[ch] = struct{}{}
	s.mu.Unlock()

	go s.writeLoop(conn, ch)
}

func (s *StreamServer) writeLoop(conn *websocket.Conn, ch chan []byte) {
	defer func() {
		s.mu.Lock()
		delete(s.subs, ch)
		s.mu.Unlock()
		conn.Close()
	}()
	for msg := range ch {
		if err := conn.WriteMessage(websocket.TextMessage, msg); err != nil {
			return
		}
	}
	_ = conn.WriteMessage(websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
}

// Publish 将一条轨迹记录编码后广播给全部订阅者，可直接作为 sim.StepListener。
func (s *StreamServer) Publish(rec sim.TraceRecord) {
	raw, err := json.Marshal(rec)
	if err != nil {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	for ch := range s.subs {
		select {
		case ch <- raw:
		default: // 慢消费者丢帧
		}
	}
}

// Close 结束全部订阅连接。
func (s *StreamServer) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return
	}
	s.closed = true
	for ch := range s.subs {
		close(ch)
	}
	s.subs = make(map[chan []byte]struct{})
}
