package models

// InvoiceStatus 发票处理状态类型
// 由调用方（发票处理服务）写入其自身的持久层
type InvoiceStatus string

const (
	// StatusUploaded 发票已上传，等待解析
	StatusUploaded InvoiceStatus = "uploaded"
	// StatusParsing 解析中
	StatusParsing InvoiceStatus = "parsing"
	// StatusParsed 解析成功
	StatusParsed InvoiceStatus = "parsed"
	// StatusNeedsReview 解析成功但带警告，需人工复核
	StatusNeedsReview InvoiceStatus = "needs_review"
	// StatusFailed 解析失败
	StatusFailed InvoiceStatus = "failed"
)

// ProcessStage 解析流程阶段，用于结构化日志
type ProcessStage string

const (
	// StageValidate PDF校验阶段
	StageValidate ProcessStage = "validate"
	// StageExtract 文本提取阶段
	StageExtract ProcessStage = "extract"
	// StageAssemble 行组装阶段
	StageAssemble ProcessStage = "assemble"
	// StageParse 策略解析阶段
	StageParse ProcessStage = "parse"
	// StageTables 外部表格提取阶段
	StageTables ProcessStage = "tables"
)

// StatusForResult 根据解析结果推导处理状态
func StatusForResult(r *PdfExtractionResult) InvoiceStatus {
	switch {
	case r == nil || !r.Success:
		return StatusFailed
	case len(r.Warnings) > 0:
		return StatusNeedsReview
	default:
		return StatusParsed
	}
}
