package services

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/google/uuid"
	"github.com/patrickmn/go-cache"
	"github.com/sirupsen/logrus"

	"github.com/fwnshop/invoice-extractor/internal/models"
	"github.com/fwnshop/invoice-extractor/internal/pdftext"
	"github.com/fwnshop/invoice-extractor/internal/pytables"
	"github.com/fwnshop/invoice-extractor/internal/supplier"
)

// ExtractService 发票提取编排器
// 决定走位置式行解析管线还是外部表格提取后端，
// 并把两条管线的产出统一为PdfExtractionResult封套。
// 单次解析不共享任何可变状态，可被多goroutine并发调用。
type ExtractService struct {
	parserCfg   supplier.Config
	tables      *pytables.Client      // 可为nil：未配置表格后端
	interpreter *pytables.Interpreter
	resultCache *cache.Cache // 可为nil：未启用缓存
	logger      *logrus.Logger
}

// Option ExtractService的可选配置
type Option func(*ExtractService)

// WithTablesBackend 启用外部表格提取后端
func WithTablesBackend(client *pytables.Client) Option {
	return func(s *ExtractService) {
		s.tables = client
	}
}

// WithResultCache 启用解析结果缓存
func WithResultCache(ttl time.Duration) Option {
	return func(s *ExtractService) {
		s.resultCache = cache.New(ttl, 2*ttl)
	}
}

// WithLogger 指定日志器
func WithLogger(logger *logrus.Logger) Option {
	return func(s *ExtractService) {
		s.logger = logger
	}
}

// NewExtractService 创建提取编排器
func NewExtractService(parserCfg supplier.Config, opts ...Option) *ExtractService {
	s := &ExtractService{
		parserCfg:   parserCfg,
		interpreter: pytables.NewInterpreter(parserCfg.DefaultCurrency),
		logger:      logrus.New(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Extract 解析一份发票PDF
// preferTables为真（或供应商被固定到表格后端）时优先走表格提取，
// 失败后除固定供应商外回退到位置式行解析管线；反之行管线失败
// 且表格后端可用时也会用它补救。只有所有尝试过的后端都失败，
// 才返回失败结果。
func (s *ExtractService) Extract(ctx context.Context, filePath, supplierName string, preferTables bool) *models.PdfExtractionResult {
	traceID := uuid.New().String()
	log := s.logger.WithFields(logrus.Fields{
		"trace_id": traceID,
		"file":     filePath,
		"supplier": supplierName,
	})
	log.Info("invoice parsing started")

	cacheKey, cacheable := s.cacheKey(filePath, supplierName, preferTables)
	if cacheable && s.resultCache != nil {
		if cached, ok := s.resultCache.Get(cacheKey); ok {
			log.Debug("returning cached parse result")
			return cached.(*models.PdfExtractionResult)
		}
	}

	pinned := supplier.PinnedToTables(supplierName)
	var result *models.PdfExtractionResult

	switch {
	case pinned || preferTables:
		result = s.runTables(ctx, log, filePath, supplierName)
		if result.Success {
			break
		}
		if pinned {
			// 固定供应商的位置式版式不可解析，失败即最终结果
			log.WithField("error", result.Error).Error("pinned table backend failed")
			break
		}
		log.WithField("error", result.Error).Warn("table backend failed, falling back to line pipeline")
		result = s.runLines(log, filePath, supplierName)
	default:
		result = s.runLines(log, filePath, supplierName)
		if !result.Success && s.tables != nil {
			log.WithField("error", result.Error).Warn("line pipeline failed, retrying with table backend")
			if recovered := s.runTables(ctx, log, filePath, supplierName); recovered.Success {
				result = recovered
			}
		}
	}

	s.logOutcome(log, result)
	if cacheable && s.resultCache != nil && result.Success {
		s.resultCache.SetDefault(cacheKey, result)
	}
	return result
}

// runLines 位置式行解析管线：提取 → 行组装 → 策略解析
func (s *ExtractService) runLines(log *logrus.Entry, filePath, supplierName string) (result *models.PdfExtractionResult) {
	defer func() {
		if rec := recover(); rec != nil {
			result = models.NewFailureResult(fmt.Sprintf("parsing panicked: %v", rec))
		}
	}()

	log.WithField("stage", models.StageExtract).Debug("extracting positioned text")
	tokens, err := pdftext.Extract(filePath)
	if err != nil {
		return models.NewFailureResult(fmt.Sprintf("text extraction failed: %v", err))
	}

	log.WithFields(logrus.Fields{
		"stage":  models.StageAssemble,
		"tokens": len(tokens),
	}).Debug("assembling text lines")
	lines := pdftext.AssembleLines(tokens)
	if len(lines) == 0 {
		return models.NewFailureResult("no text lines could be assembled from PDF")
	}

	strategy := supplier.Select(supplierName, s.parserCfg)
	log.WithFields(logrus.Fields{
		"stage":    models.StageParse,
		"strategy": strategy.Name(),
		"lines":    len(lines),
	}).Debug("running parsing strategy")
	return strategy.Parse(lines)
}

// runTables 外部表格提取管线：后端检测 → 表格解释
func (s *ExtractService) runTables(ctx context.Context, log *logrus.Entry, filePath, supplierName string) *models.PdfExtractionResult {
	if s.tables == nil {
		return models.NewFailureResult("table extraction backend is not configured")
	}

	log.WithField("stage", models.StageTables).Debug("invoking table extraction backend")
	tables, err := s.tables.ExtractTables(ctx, filePath)
	if err != nil {
		return models.NewFailureResult(fmt.Sprintf("table extraction failed: %v", err))
	}
	return s.interpreter.Interpret(tables, supplierName)
}

// logOutcome 按结果写结构化日志，并给出调用方应采用的处理状态
func (s *ExtractService) logOutcome(log *logrus.Entry, result *models.PdfExtractionResult) {
	status := models.StatusForResult(result)
	entry := log.WithField("status", string(status))
	switch {
	case !result.Success:
		entry.WithField("error", result.Error).Error("invoice parsing failed")
	case len(result.Warnings) > 0:
		entry.WithField("warnings", result.Warnings).Warn("invoice parsed with warnings")
	default:
		entry.WithField("items", len(result.Data.LineItems)).Info("invoice parsed")
	}
}

// cacheKey 以文件路径+修改时间+供应商+后端偏好构造缓存键
func (s *ExtractService) cacheKey(filePath, supplierName string, preferTables bool) (string, bool) {
	fi, err := os.Stat(filePath)
	if err != nil {
		return "", false
	}
	return fmt.Sprintf("%s|%d|%s|%t", filePath, fi.ModTime().UnixNano(), supplierName, preferTables), true
}
