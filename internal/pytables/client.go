package pytables

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"os/exec"
	"strings"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
)

// Client 外部表格提取后端的客户端
// 以子进程方式调用Python脚本，从stdout读取JSON格式的表格列表。
// 子进程有独立的超时与失败域，失败由编排器决定是否可恢复。
type Client struct {
	config *Config
	logger *logrus.Logger
}

// NewClient 创建表格提取客户端
func NewClient(config *Config, logger *logrus.Logger) *Client {
	if config == nil {
		config = DefaultConfig()
	}
	if logger == nil {
		logger = logrus.New()
	}
	return &Client{config: config, logger: logger}
}

// GetConfig 返回客户端配置
func (c *Client) GetConfig() *Config {
	return c.config
}

// ExtractTables 对指定PDF运行表格检测，返回检测到的表格
func (c *Client) ExtractTables(ctx context.Context, pdfPath string) ([]Table, error) {
	if _, err := os.Stat(pdfPath); err != nil {
		return nil, errors.Wrap(err, "pdf file not accessible")
	}

	if c.config.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.config.Timeout)
		defer cancel()
	}

	cmd := exec.CommandContext(ctx, c.config.PythonBin, c.config.ScriptPath, pdfPath, "--method", c.config.Method)
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	c.logger.WithFields(logrus.Fields{
		"python": c.config.PythonBin,
		"script": c.config.ScriptPath,
		"method": c.config.Method,
		"file":   pdfPath,
	}).Debug("invoking table extraction backend")

	if err := cmd.Run(); err != nil {
		if ctx.Err() == context.DeadlineExceeded {
			return nil, errors.Errorf("table extraction backend timed out after %s", c.config.Timeout)
		}
		return nil, errors.Wrapf(err, "table extraction backend failed: %s", tail(stderr.String(), 300))
	}

	var resp extractResponse
	if err := json.Unmarshal(stdout.Bytes(), &resp); err != nil {
		return nil, errors.Wrap(err, "failed to decode table extraction output")
	}
	if resp.Error != "" {
		return nil, errors.Errorf("table extraction backend error: %s", resp.Error)
	}

	c.logger.WithFields(logrus.Fields{
		"file":   pdfPath,
		"tables": len(resp.Tables),
	}).Debug("table extraction backend finished")
	return resp.Tables, nil
}

// tail 截取字符串末尾，避免把整个stderr塞进错误信息
func tail(s string, n int) string {
	s = strings.TrimSpace(s)
	if len(s) <= n {
		return s
	}
	return "..." + s[len(s)-n:]
}
