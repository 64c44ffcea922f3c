package sms

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"go.uber.org/zap"

	"github.com/atakdmr/StudentAttendance/config"
)

// ErrDisabled 短信网关未启用
var ErrDisabled = errors.New("短信网关未启用")

// Message 单条短信
type Message struct {
	Phone string
	Text  string
}

// Sender 批量短信发送接口
type Sender interface {
	SendBulk(ctx context.Context, messages []Message) (int, error)
}

// ── NetGSM JSON 接口 ──

type netgsmEntry struct {
	GSMNo string `json:"gsmno"`
	Msg   string `json:"msg"`
}

type netgsmPayload struct {
	UserCode  string        `json:"usercode"`
	Password  string        `json:"password"`
	MsgHeader string        `json:"msgheader"`
	Messages  []netgsmEntry `json:"messages"`
}

// NetGSMClient NetGSM 短信网关客户端
type NetGSMClient struct {
	cfg    *config.SMSConfig
	http   *http.Client
	logger *zap.Logger
}

// NewNetGSMClient 创建 NetGSM 客户端
func NewNetGSMClient(cfg *config.SMSConfig, logger *zap.Logger) *NetGSMClient {
	return &NetGSMClient{
		cfg:    cfg,
		http:   &http.Client{Timeout: cfg.Timeout},
		logger: logger,
	}
}

// SendBulk 一次请求发送多条短信，返回实际提交的条数
// 手机号或内容为空的条目被跳过
func (c *NetGSMClient) SendBulk(ctx context.Context, messages []Message) (int, error) {
	if !c.cfg.Enabled {
		return 0, ErrDisabled
	}

	entries := make([]netgsmEntry, 0, len(messages))
	for _, m := range messages {
		if strings.TrimSpace(m.Phone) == "" || strings.TrimSpace(m.Text) == "" {
			continue
		}
		entries = append(entries, netgsmEntry{GSMNo: m.Phone, Msg: m.Text})
	}
	if len(entries) == 0 {
		return 0, nil
	}

	body, err := json.Marshal(netgsmPayload{
		UserCode:  c.cfg.User,
		Password:  c.cfg.Password,
		MsgHeader: c.cfg.Header,
		Messages:  entries,
	})
	if err != nil {
		return 0, err
	}

	url := strings.TrimRight(c.cfg.BaseURL, "/") + "/sms/send/json"
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return 0, err
	}
	req.Header.Set("Content-Type", "application/json; charset=utf-8")

	resp, err := c.http.Do(req)
	if err != nil {
		c.logger.Error("短信网关请求失败", zap.Error(err))
		return 0, fmt.Errorf("短信网关请求失败: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		c.logger.Error("短信网关返回错误",
			zap.Int("status", resp.StatusCode),
			zap.String("body", string(snippet)),
		)
		return 0, fmt.Errorf("短信网关返回状态码 %d", resp.StatusCode)
	}

	c.logger.Info("短信已提交", zap.Int("count", len(entries)))
	return len(entries), nil
}
