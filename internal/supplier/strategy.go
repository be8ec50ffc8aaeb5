package supplier

import (
	"strings"

	"github.com/fwnshop/invoice-extractor/internal/models"
)

// Strategy 解析策略的公共契约
// 每个供应商版式家族一个实现；Parse从不向外抛panic，
// 行级错误在内部吞掉并跳过该行。
type Strategy interface {
	// Name 策略名称，用于日志
	Name() string
	// Parse 把组装好的文本行解析为发票数据
	Parse(lines []models.TextLine) *models.PdfExtractionResult
}

// Config 策略共用的解析参数
type Config struct {
	RowTolerance    float64 // 锚点行重建时的y容差
	ColumnWindow    float64 // 列阈值匹配窗口（x方向）
	DefaultCurrency string  // 默认币种
}

// DefaultConfig 返回默认解析参数
func DefaultConfig() Config {
	return Config{
		RowTolerance:    1.0,
		ColumnWindow:    40,
		DefaultCurrency: "EUR",
	}
}

// 供应商名称片段到策略构造函数的有序映射表
// 匹配为大小写不敏感的子串包含，先到先得
var strategyTable = []struct {
	fragment string
	build    func(cfg Config) Strategy
}{
	{"iafstore", func(cfg Config) Strategy { return NewIafstoreStrategy(cfg) }},
	{"iaf store", func(cfg Config) Strategy { return NewIafstoreStrategy(cfg) }},
	{"addict", func(cfg Config) Strategy { return NewAddictStrategy(cfg) }},
	{"nutrimuscle", func(cfg Config) Strategy { return NewNutrimuscleStrategy(cfg) }},
	{"bulk powders", func(cfg Config) Strategy { return NewBulkPowdersStrategy(cfg) }},
	{"bulkpowders", func(cfg Config) Strategy { return NewBulkPowdersStrategy(cfg) }},
	{"myprotein", func(cfg Config) Strategy { return NewMyproteinStrategy(cfg) }},
	{"my protein", func(cfg Config) Strategy { return NewMyproteinStrategy(cfg) }},
}

// 位置式启发对这些供应商的版式无效，强制走外部表格提取后端
var pinnedToTables = []string{
	"fitnessboutique",
	"fitness boutique",
}

// Select 根据供应商名称选择解析策略
// 未匹配到任何已知供应商时返回通用兜底策略
func Select(supplierName string, cfg Config) Strategy {
	lower := strings.ToLower(supplierName)
	for _, entry := range strategyTable {
		if strings.Contains(lower, entry.fragment) {
			return entry.build(cfg)
		}
	}
	return NewGenericStrategy(cfg)
}

// PinnedToTables 判断供应商是否被固定到表格提取后端
func PinnedToTables(supplierName string) bool {
	lower := strings.ToLower(supplierName)
	for _, fragment := range pinnedToTables {
		if strings.Contains(lower, fragment) {
			return true
		}
	}
	return false
}
