package models

// Column 表示发票表格中的语义列
type Column string

const (
	// ColumnSKU 供应商商品编码列
	ColumnSKU Column = "sku"
	// ColumnDescription 商品描述列
	ColumnDescription Column = "description"
	// ColumnQuantity 数量列
	ColumnQuantity Column = "quantity"
	// ColumnUnitPrice 单价列
	ColumnUnitPrice Column = "unit_price"
	// ColumnTotal 行合计列
	ColumnTotal Column = "total"
	// ColumnExpDate 有效期列
	ColumnExpDate Column = "exp_date"
	// ColumnVAT 增值税列
	ColumnVAT Column = "vat"
)

// ColumnThresholds 语义列到x坐标阈值的映射
// 由表头检测（或统计推断）得出，检测完成后只读
type ColumnThresholds map[Column]float64

// Has 判断是否包含指定列的阈值
func (c ColumnThresholds) Has(col Column) bool {
	_, ok := c[col]
	return ok
}

// PositionedToken PDF中带位置信息的文本片段
// 由文本提取器生成，单次解析内使用，不可变
type PositionedToken struct {
	Page     int     `json:"page"`      // 页码（从1开始）
	X        float64 `json:"x"`         // x坐标
	Y        float64 `json:"y"`         // y坐标（已归一化为自上而下的阅读顺序）
	Width    float64 `json:"width"`     // 文本渲染宽度（用于碎片合并）
	Text     string  `json:"text"`      // 解码后的文本
	Font     string  `json:"font"`      // 字体名称（可选）
	FontSize float64 `json:"font_size"` // 字号（可选）
}

// TextLine 由y坐标聚类得到的一行文本
// Items按x升序排列，Text为各token文本以空格连接的结果
type TextLine struct {
	YPosition float64           `json:"y_position"` // 行的y坐标（聚类取整值）
	Text      string            `json:"text"`       // 连接后的整行文本
	Items     []PositionedToken `json:"items"`      // 行内的有序token列表
}

// LineItem 发票行项目
// 软性不变量：Total ≈ Quantity × UnitPrice（容差0.02），校验而非强制
type LineItem struct {
	SupplierSKU string  `json:"supplier_sku"` // 供应商商品编码（无编码时为生成的伪SKU）
	Description string  `json:"description"`  // 商品描述
	Quantity    float64 `json:"quantity"`     // 数量
	UnitPrice   float64 `json:"unit_price"`   // 单价
	Total       float64 `json:"total"`        // 行合计
}

// SupplierInfo 供应商信息
type SupplierInfo struct {
	Name      string `json:"name,omitempty"`       // 供应商名称
	Address   string `json:"address,omitempty"`    // 地址
	VATNumber string `json:"vat_number,omitempty"` // 增值税号
}

// InvoiceMetadata 发票级元数据
// 运费只记录在这里，从不作为合成行项目注入
type InvoiceMetadata struct {
	InvoiceNumber string  `json:"invoice_number,omitempty"` // 发票编号
	InvoiceDate   string  `json:"invoice_date,omitempty"`   // 发票日期（ISO格式 YYYY-MM-DD）
	Currency      string  `json:"currency"`                 // 币种（默认EUR）
	ShippingFee   float64 `json:"shipping_fee"`             // 运费
	Subtotal      float64 `json:"subtotal,omitempty"`       // 小计
	Total         float64 `json:"total,omitempty"`          // 总计
}

// ParsedInvoiceData 一次成功解析产出的发票数据，结果对象不可变
type ParsedInvoiceData struct {
	SupplierInfo    SupplierInfo    `json:"supplier_info"`
	InvoiceMetadata InvoiceMetadata `json:"invoice_metadata"`
	LineItems       []LineItem      `json:"line_items"`
	RawText         []string        `json:"raw_text,omitempty"` // 原始行文本（仅通用策略填充，供人工复核）
}

// PdfExtractionResult 所有解析策略和编排器返回的统一结果封套
type PdfExtractionResult struct {
	Success  bool               `json:"success"`
	Data     *ParsedInvoiceData `json:"data,omitempty"`
	Error    string             `json:"error,omitempty"`
	Warnings []string           `json:"warnings,omitempty"`
}

// NewSuccessResult 构造成功结果
func NewSuccessResult(data *ParsedInvoiceData, warnings ...string) *PdfExtractionResult {
	return &PdfExtractionResult{
		Success:  true,
		Data:     data,
		Warnings: warnings,
	}
}

// NewFailureResult 构造失败结果
func NewFailureResult(errMsg string) *PdfExtractionResult {
	return &PdfExtractionResult{
		Success: false,
		Error:   errMsg,
	}
}

// AddWarning 追加一条警告
func (r *PdfExtractionResult) AddWarning(w string) {
	r.Warnings = append(r.Warnings, w)
}
