package config

import (
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config 应用程序配置结构体
type Config struct {
	Log    LogConfig    `mapstructure:"log"`
	Parser ParserConfig `mapstructure:"parser"`
	Tables TablesConfig `mapstructure:"tables"`
	Cache  CacheConfig  `mapstructure:"cache"`
}

// LogConfig 日志配置
type LogConfig struct {
	Level      string `mapstructure:"level"`       // 日志级别：debug/info/warn/error
	File       string `mapstructure:"file"`        // 日志文件路径，为空时输出到stdout
	MaxSizeMB  int    `mapstructure:"max_size_mb"` // 单个日志文件上限（MB）
	MaxBackups int    `mapstructure:"max_backups"` // 保留的历史文件数
	MaxAgeDays int    `mapstructure:"max_age_days"`
}

// ParserConfig 解析参数配置
type ParserConfig struct {
	RowTolerance    float64 `mapstructure:"row_tolerance"`    // 锚点行重建的y容差
	ColumnWindow    float64 `mapstructure:"column_window"`    // 列阈值匹配窗口
	DefaultCurrency string  `mapstructure:"default_currency"` // 默认币种
}

// TablesConfig 外部表格提取后端配置
type TablesConfig struct {
	Enable     bool          `mapstructure:"enable"`      // 是否启用表格后端
	PythonBin  string        `mapstructure:"python_bin"`  // Python解释器路径
	ScriptPath string        `mapstructure:"script_path"` // 提取脚本路径
	Method     string        `mapstructure:"method"`      // 提取方法
	Timeout    time.Duration `mapstructure:"timeout"`     // 子进程超时
}

// CacheConfig 解析结果缓存配置
type CacheConfig struct {
	Enable bool `mapstructure:"enable"` // 是否启用缓存
	TTL    int  `mapstructure:"ttl"`    // 缓存TTL（秒）
}

// Load 从文件和环境变量加载配置
func Load(configPath string) (*Config, error) {
	var config Config

	v := viper.New()
	if configPath != "" {
		v.SetConfigFile(configPath)
		if err := v.ReadInConfig(); err != nil {
			if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
				return nil, fmt.Errorf("failed to read config file: %v", err)
			}
			log.Printf("Warning: Config file not found at %s, using defaults", configPath)
		}
	}

	setDefaults(v)

	// 支持环境变量覆盖（INVOICE_TABLES_PYTHON_BIN等）
	v.SetEnvPrefix("invoice")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("failed to parse config: %v", err)
	}
	return &config, nil
}

// setDefaults 设置配置的默认值
func setDefaults(v *viper.Viper) {
	// 日志默认配置
	v.SetDefault("log.level", "info")
	v.SetDefault("log.file", "")
	v.SetDefault("log.max_size_mb", 50)
	v.SetDefault("log.max_backups", 3)
	v.SetDefault("log.max_age_days", 28)

	// 解析默认配置
	v.SetDefault("parser.row_tolerance", 1.0)
	v.SetDefault("parser.column_window", 40.0)
	v.SetDefault("parser.default_currency", "EUR")

	// 表格后端默认配置
	v.SetDefault("tables.enable", true)
	v.SetDefault("tables.python_bin", "python3")
	v.SetDefault("tables.script_path", "scripts/pdf_table_extractor.py")
	v.SetDefault("tables.method", "invoice")
	v.SetDefault("tables.timeout", "60s")

	// 缓存默认配置
	v.SetDefault("cache.enable", true)
	v.SetDefault("cache.ttl", 600) // 10分钟
}
