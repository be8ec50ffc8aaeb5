package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"

	appconfig "github.com/fwnshop/invoice-extractor/config"
	"github.com/fwnshop/invoice-extractor/internal/pytables"
	"github.com/fwnshop/invoice-extractor/internal/services"
	"github.com/fwnshop/invoice-extractor/internal/supplier"
	"github.com/fwnshop/invoice-extractor/pkg/logger"
)

// 命令行选项
type flags struct {
	File       string // 待解析的PDF文件路径
	Supplier   string // 供应商名称，用于选择解析策略
	Tables     bool   // 优先使用表格提取后端
	ConfigFile string // 配置文件路径
	LogLevel   string // 覆盖配置中的日志级别
	Pretty     bool   // 缩进输出JSON
}

func main() {
	cfg := parseFlags()
	if cfg.File == "" {
		fmt.Fprintln(os.Stderr, "usage: invoice-extractor -file <invoice.pdf> [-supplier <name>] [-tables]")
		flag.PrintDefaults()
		os.Exit(2)
	}

	// 加载.env文件（如果存在）
	if err := godotenv.Load(); err == nil {
		log.Println("Loaded environment variables from .env file")
	}

	appConfig, err := appconfig.Load(cfg.ConfigFile)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}
	if cfg.LogLevel != "" {
		appConfig.Log.Level = cfg.LogLevel
	}

	lg := logger.New(appConfig.Log)

	svc := buildService(appConfig, lg)

	result := svc.Extract(context.Background(), cfg.File, cfg.Supplier, cfg.Tables)

	enc := json.NewEncoder(os.Stdout)
	if cfg.Pretty {
		enc.SetIndent("", "  ")
	}
	if err := enc.Encode(result); err != nil {
		lg.WithError(err).Fatal("failed to encode result")
	}
	if !result.Success {
		os.Exit(1)
	}
}

// buildService 按配置装配提取编排器
func buildService(appConfig *appconfig.Config, lg *logrus.Logger) *services.ExtractService {
	parserCfg := supplier.Config{
		RowTolerance:    appConfig.Parser.RowTolerance,
		ColumnWindow:    appConfig.Parser.ColumnWindow,
		DefaultCurrency: appConfig.Parser.DefaultCurrency,
	}

	opts := []services.Option{services.WithLogger(lg)}

	if appConfig.Tables.Enable {
		tablesCfg := pytables.DefaultConfig().
			WithPythonBin(appConfig.Tables.PythonBin).
			WithScriptPath(appConfig.Tables.ScriptPath).
			WithMethod(appConfig.Tables.Method).
			WithTimeout(appConfig.Tables.Timeout)
		opts = append(opts, services.WithTablesBackend(pytables.NewClient(tablesCfg, lg)))
	}

	if appConfig.Cache.Enable && appConfig.Cache.TTL > 0 {
		opts = append(opts, services.WithResultCache(time.Duration(appConfig.Cache.TTL)*time.Second))
	}

	return services.NewExtractService(parserCfg, opts...)
}

// parseFlags 解析命令行参数
func parseFlags() *flags {
	cfg := &flags{}
	flag.StringVar(&cfg.File, "file", "", "path to the invoice PDF to parse")
	flag.StringVar(&cfg.Supplier, "supplier", "", "supplier name used to pick the parsing strategy")
	flag.BoolVar(&cfg.Tables, "tables", false, "prefer the table extraction backend")
	flag.StringVar(&cfg.ConfigFile, "config", "", "path to the config file")
	flag.StringVar(&cfg.LogLevel, "log-level", "", "override the configured log level")
	flag.BoolVar(&cfg.Pretty, "pretty", false, "indent the JSON output")
	flag.Parse()
	return cfg
}
