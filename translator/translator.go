package translator

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
	"unicode"

	"github.com/moxying/mox/logging"
)

// Translator 提示词翻译接口。实现必须尽力而为：失败时返回错误，
// 但调用方（Worker）会记录并透传原文，绝不因翻译失败终止任务。
type Translator interface {
	Translate(ctx context.Context, text string) (string, error)
}

// Noop 直接透传的实现，翻译未启用时使用。
type Noop struct{}

// Translate 原样返回。
func (Noop) Translate(_ context.Context, text string) (string, error) { return text, nil }

// HTTPTranslator 调用外部翻译服务的实现。
// 只有检测为中文的文本才会外发，其余直接透传。
type HTTPTranslator struct {
	endpoint string
	hc       *http.Client
}

// NewHTTPTranslator 构造。endpoint 形如 http://127.0.0.1:9911/translate。
func NewHTTPTranslator(endpoint string) *HTTPTranslator {
	return &HTTPTranslator{endpoint: endpoint, hc: &http.Client{Timeout: 15 * time.Second}}
}

// DetectLanguage 按中英文字符计数判断主要语言，返回 "zh-cn"/"en"/"unknown"。
func DetectLanguage(text string) string {
	countCN, countEN := 0, 0
	for _, r := range text {
		if unicode.Is(unicode.Han, r) {
			countCN++
		} else if unicode.IsLetter(r) {
			countEN++
		}
	}
	switch {
	case countCN > countEN:
		return "zh-cn"
	case countEN > countCN:
		return "en"
	default:
		return "unknown"
	}
}

// Translate 实现 Translator。
func (t *HTTPTranslator) Translate(ctx context.Context, text string) (string, error) {
	if text == "" {
		return "", nil
	}
	if DetectLanguage(text) != "zh-cn" {
		return text, nil
	}
	body, _ := json.Marshal(map[string]string{"text": text})
	req, _ := http.NewRequestWithContext(ctx, http.MethodPost, t.endpoint, bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	start := time.Now()
	res, err := t.hc.Do(req)
	if err != nil {
		return "", err
	}
	defer res.Body.Close()
	if res.StatusCode/100 != 2 {
		b, _ := io.ReadAll(res.Body)
		return "", fmt.Errorf("translate failed: %d: %s", res.StatusCode, string(b))
	}
	var out struct {
		Translation string `json:"translation"`
	}
	if err := json.NewDecoder(res.Body).Decode(&out); err != nil {
		return "", err
	}
	logging.L().Debug(ctx, "translate done", "cost", time.Since(start).String())
	return out.Translation, nil
}
