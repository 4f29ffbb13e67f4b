package client

import (
	"context"
	"fmt"
	"net/url"
	"time"

	"github.com/gorilla/websocket"
)

// wsStream 基于 gorilla/websocket 的 ProgressStream 实现。
type wsStream struct {
	conn *websocket.Conn
	idle time.Duration
}

// OpenProgress 实现 EngineAPI.OpenProgress。
// 使用与 PostPrompt 相同的 clientID 建连，引擎按该标识路由进度事件。
func (c *Client) OpenProgress(ctx context.Context) (ProgressStream, error) {
	u := url.URL{Scheme: "ws", Host: c.endpoint, Path: "/ws", RawQuery: "clientId=" + url.QueryEscape(c.clientID)}
	conn, _, err := websocket.DefaultDialer.DialContext(ctx, u.String(), nil)
	if err != nil {
		return nil, fmt.Errorf("%w: dial %s: %v", ErrStreamDisconnected, u.String(), err)
	}
	return &wsStream{conn: conn, idle: c.idle}, nil
}

// Next 读取下一条类型化事件。
// 二进制帧是引擎推送的预览图，直接丢弃；空闲超过 idle 或连接出错时
// 返回包装 ErrStreamDisconnected 的错误，不做重连。
func (s *wsStream) Next() (ProgressEvent, error) {
	for {
		_ = s.conn.SetReadDeadline(time.Now().Add(s.idle))
		msgType, data, err := s.conn.ReadMessage()
		if err != nil {
			return ProgressEvent{}, fmt.Errorf("%w: %v", ErrStreamDisconnected, err)
		}
		if msgType != websocket.TextMessage {
			continue
		}
		ev, err := ParseProgressEvent(data)
		if err != nil {
			return ProgressEvent{}, fmt.Errorf("%w: bad frame: %v", ErrStreamDisconnected, err)
		}
		return ev, nil
	}
}

// Close 关闭连接。
func (s *wsStream) Close() error { return s.conn.Close() }
