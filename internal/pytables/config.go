package pytables

import "time"

// Config Python表格提取后端的调用配置
type Config struct {
	PythonBin  string        // Python解释器路径
	ScriptPath string        // 提取脚本路径
	Method     string        // 提取方法（all/camelot/pdfplumber/tabula/invoice）
	Timeout    time.Duration // 子进程超时时间
}

// DefaultConfig 返回默认配置
func DefaultConfig() *Config {
	return &Config{
		PythonBin:  "python3",
		ScriptPath: "scripts/pdf_table_extractor.py",
		Method:     "invoice",
		Timeout:    60 * time.Second,
	}
}

// WithPythonBin 设置Python解释器路径
func (c *Config) WithPythonBin(bin string) *Config {
	c.PythonBin = bin
	return c
}

// WithScriptPath 设置提取脚本路径
func (c *Config) WithScriptPath(path string) *Config {
	c.ScriptPath = path
	return c
}

// WithMethod 设置提取方法
func (c *Config) WithMethod(method string) *Config {
	c.Method = method
	return c
}

// WithTimeout 设置子进程超时时间
func (c *Config) WithTimeout(timeout time.Duration) *Config {
	c.Timeout = timeout
	return c
}
