package server

import (
	"context"
	"fmt"
	"net/http"
	"sync"

	"github.com/gorilla/websocket"

	"github.com/moxying/mox/logging"
	"github.com/moxying/mox/model"
)

// WSConnMgr 前端通道管理器。
// 设计上同一时刻只服务一个前端连接；无连接时事件直接丢弃，不缓存不回放。
// 所有写操作都经由 sendq 汇聚到单一发送协程，满足 gorilla 的单写约束。
type WSConnMgr struct {
	mu    sync.Mutex
	conn  *websocket.Conn
	sendq chan model.WSEvent
}

// NewWSConnMgr 构造。
func NewWSConnMgr() *WSConnMgr {
	return &WSConnMgr{sendq: make(chan model.WSEvent, 256)}
}

// Connect 接管一条新连接。已有连接时拒绝。
func (m *WSConnMgr) Connect(conn *websocket.Conn) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.conn != nil {
		return fmt.Errorf("already connect one client")
	}
	m.conn = conn
	logging.L().Info(context.Background(), "ws new connection")
	return nil
}

// Disconnect 释放当前连接，并清空未发送的积压事件：
// 断连期间的事件不缓存不回放，下一个连接只收到此后产生的事件。
func (m *WSConnMgr) Disconnect() {
	m.mu.Lock()
	if m.conn != nil {
		_ = m.conn.Close()
		m.conn = nil
	}
	m.mu.Unlock()
	for {
		select {
		case <-m.sendq:
		default:
			logging.L().Info(context.Background(), "ws client disconnect")
			return
		}
	}
}

// Enqueue 投递一条出站事件。无连接或队列满时静默丢弃。
func (m *WSConnMgr) Enqueue(ev model.WSEvent) {
	m.mu.Lock()
	connected := m.conn != nil
	m.mu.Unlock()
	if !connected {
		return
	}
	select {
	case m.sendq <- ev:
	default:
	}
}

// Run 发送循环：逐条取出事件写给当前连接，写失败即断开。ctx 结束时返回。
func (m *WSConnMgr) Run(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case ev := <-m.sendq:
			m.mu.Lock()
			conn := m.conn
			m.mu.Unlock()
			if conn == nil {
				continue
			}
			if err := conn.WriteJSON(ev); err != nil {
				logging.L().Warn(ctx, "ws send failed, drop connection", "err", err)
				m.Disconnect()
			}
		}
	}
}

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool { return true },
}

// handleWS /ws 端点：升级连接、回执运行状态、读循环保活。
func (s *Server) handleWS(rw http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(rw, r, nil)
	if err != nil {
		logging.L().Error(r.Context(), "ws upgrade failed", "err", err)
		return
	}
	if err := s.connMgr.Connect(conn); err != nil {
		logging.L().Warn(r.Context(), "reject ws connection", "err", err)
		_ = conn.Close()
		return
	}
	s.connMgr.Enqueue(model.WSEvent{Topic: model.TopicCommonStatus, Data: model.CommonStatusEventData{Status: "running"}})
	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			s.connMgr.Disconnect()
			return
		}
		s.connMgr.Enqueue(model.WSEvent{Topic: model.TopicCommonStatus, Data: model.CommonStatusEventData{Status: "running"}})
	}
}
