package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/google/uuid"
)

// EngineAPI 定义与 ComfyUI 引擎的交互接口，便于 gomock 打桩。
// 功能：封装 /prompt 提交、/ws 进度流、/history 结果查询与 /view 图片下载。
type EngineAPI interface {
	// PostPrompt 提交工作流图，返回引擎分配的 prompt_id。
	PostPrompt(ctx context.Context, graph Graph) (promptID string, err error)
	// OpenProgress 打开一条进度流连接。必须在 PostPrompt 返回之后调用：
	// 引擎不会为迟到的订阅者缓存事件。
	OpenProgress(ctx context.Context) (ProgressStream, error)
	// GetHistory 查询指定提交的输出记录。
	GetHistory(ctx context.Context, promptID string) (HistoryOutputs, error)
	// ViewImage 下载一张结果图的原始字节。
	ViewImage(ctx context.Context, ref ImageRef) ([]byte, error)
	// FetchNodeImages 取出指定节点的全部结果图字节。
	FetchNodeImages(ctx context.Context, promptID, nodeID string) ([][]byte, error)
	// SystemStats 查询引擎侧系统信息。
	SystemStats(ctx context.Context) (SystemStats, error)
}

// ProgressStream 一次提交对应的进度事件流。
// Next 阻塞到下一条文本消息（二进制预览帧被静默丢弃），
// 连接错误时返回包装了 ErrStreamDisconnected 的错误。
type ProgressStream interface {
	Next() (ProgressEvent, error)
	Close() error
}

// Client EngineAPI 的 HTTP/WebSocket 实现。
// clientID 在构造时生成一次，提交与进度流共用同一标识，
// 引擎据此把进度事件只回送给本客户端。
type Client struct {
	endpoint string // host:port
	clientID string
	hc       *http.Client
	idle     time.Duration
}

// NewClient 构造引擎客户端。idleSeconds 为进度流单次读取的空闲超时，<=0 取 10 分钟。
func NewClient(endpoint string, idleSeconds int) *Client {
	idle := time.Duration(idleSeconds) * time.Second
	if idle <= 0 {
		idle = 10 * time.Minute
	}
	return &Client{
		endpoint: endpoint,
		clientID: uuid.NewString(),
		hc:       &http.Client{Timeout: 30 * time.Second},
		idle:     idle,
	}
}

// ClientID 返回本客户端的稳定标识。
func (c *Client) ClientID() string { return c.clientID }

// PostPrompt 实现 EngineAPI.PostPrompt。
// 非 2xx 响应：若引擎返回结构化校验失败则映射为 EngineRejectedError，
// 否则视为 ErrEngineUnavailable。
func (c *Client) PostPrompt(ctx context.Context, graph Graph) (string, error) {
	body := map[string]any{"prompt": graph, "client_id": c.clientID}
	b, _ := json.Marshal(body)
	u := fmt.Sprintf("http://%s/prompt", c.endpoint)
	req, _ := http.NewRequestWithContext(ctx, http.MethodPost, u, bytes.NewReader(b))
	req.Header.Set("Content-Type", "application/json")
	res, err := c.hc.Do(req)
	if err != nil {
		return "", fmt.Errorf("%w: POST /prompt: %v", ErrEngineUnavailable, err)
	}
	defer res.Body.Close()
	rb, _ := io.ReadAll(res.Body)
	if res.StatusCode/100 != 2 {
		var pr PostPromptResp
		if json.Unmarshal(rb, &pr) == nil && (pr.Error != nil || len(pr.NodeErrors) > 0) {
			return "", &EngineRejectedError{Details: string(rb)}
		}
		return "", fmt.Errorf("%w: POST /prompt => %d: %s", ErrEngineUnavailable, res.StatusCode, string(rb))
	}
	var pr PostPromptResp
	if err := json.Unmarshal(rb, &pr); err != nil {
		return "", fmt.Errorf("%w: decode /prompt resp: %v", ErrEngineUnavailable, err)
	}
	if pr.PromptID == "" {
		return "", &EngineRejectedError{Details: string(rb)}
	}
	return pr.PromptID, nil
}

// GetHistory 实现 EngineAPI.GetHistory。
// history 尚未物化或 prompt_id 不存在时返回 ResultNotFoundError。
func (c *Client) GetHistory(ctx context.Context, promptID string) (HistoryOutputs, error) {
	u := fmt.Sprintf("http://%s/history/%s", c.endpoint, url.PathEscape(promptID))
	var resp map[string]historyEntry
	if err := c.get(ctx, u, &resp); err != nil {
		return nil, err
	}
	entry, ok := resp[promptID]
	if !ok {
		return nil, &ResultNotFoundError{PromptID: promptID}
	}
	return entry.Outputs, nil
}

// ViewImage 实现 EngineAPI.ViewImage。
func (c *Client) ViewImage(ctx context.Context, ref ImageRef) ([]byte, error) {
	v := url.Values{}
	v.Set("filename", ref.Filename)
	v.Set("type", ref.Type)
	v.Set("subfolder", ref.Subfolder)
	u := fmt.Sprintf("http://%s/view?%s", c.endpoint, v.Encode())
	req, _ := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	res, err := c.hc.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: GET /view: %v", ErrEngineUnavailable, err)
	}
	defer res.Body.Close()
	if res.StatusCode/100 != 2 {
		return nil, fmt.Errorf("%w: GET /view => %d", ErrEngineUnavailable, res.StatusCode)
	}
	return io.ReadAll(res.Body)
}

// FetchNodeImages 实现 EngineAPI.FetchNodeImages。
// nodeID 不在 outputs 中时返回 ResultNotFoundError（调用方/配置缺陷，而非瞬时故障）。
func (c *Client) FetchNodeImages(ctx context.Context, promptID, nodeID string) ([][]byte, error) {
	outputs, err := c.GetHistory(ctx, promptID)
	if err != nil {
		return nil, err
	}
	node, ok := outputs[nodeID]
	if !ok {
		return nil, &ResultNotFoundError{PromptID: promptID, NodeID: nodeID}
	}
	images := make([][]byte, 0, len(node.Images))
	for _, ref := range node.Images {
		b, err := c.ViewImage(ctx, ref)
		if err != nil {
			return nil, err
		}
		images = append(images, b)
	}
	return images, nil
}

// SystemStats 实现 EngineAPI.SystemStats。
func (c *Client) SystemStats(ctx context.Context) (SystemStats, error) {
	var out SystemStats
	err := c.get(ctx, fmt.Sprintf("http://%s/system_stats", c.endpoint), &out)
	return out, err
}

// get 执行 GET 请求并解码 JSON。
func (c *Client) get(ctx context.Context, u string, out any) error {
	req, _ := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	res, err := c.hc.Do(req)
	if err != nil {
		return fmt.Errorf("%w: GET %s: %v", ErrEngineUnavailable, u, err)
	}
	defer res.Body.Close()
	if res.StatusCode/100 != 2 {
		b, _ := io.ReadAll(res.Body)
		return fmt.Errorf("%w: GET %s => %d: %s", ErrEngineUnavailable, u, res.StatusCode, string(b))
	}
	return json.NewDecoder(res.Body).Decode(out)
}
