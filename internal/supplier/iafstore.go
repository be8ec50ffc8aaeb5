package supplier

import (
	"math"
	"regexp"
	"sort"
	"strings"

	"github.com/fwnshop/invoice-extractor/internal/models"
	"github.com/fwnshop/invoice-extractor/internal/priceutil"
)

// Iafstore的商品编码前缀可自描述地标识行首
var iafstoreSKURe = regexp.MustCompile(`^(?:IAF|FITT|ESN|PRO)[A-Z0-9]{3,}$`)

// 行内数量前的计量单位标记（意大利语版式）
var iafstoreUnitMarkers = map[string]bool{
	"PZ": true, "NR": true, "PCS": true, "CF": true, "KG": true,
}

// 行尾的税码token（NI41、ESC15之类），不属于任何数值字段
var iafstoreVATCodeRe = regexp.MustCompile(`^[A-Z]{2,4}\d{2}$`)

// IafstoreStrategy 意大利版式的锚点token策略
// SKU前缀可识别（IAF/FITT/...），以SKU为锚点收集同一y容差内的
// 全部token重建行，字段靠模式匹配而非列位置提取——该版式的
// 列经常不对齐，但行结构稳定：SKU 描述… PZ 数量 单价 合计 税码。
type IafstoreStrategy struct {
	cfg Config
}

// NewIafstoreStrategy 创建Iafstore解析策略
func NewIafstoreStrategy(cfg Config) *IafstoreStrategy {
	return &IafstoreStrategy{cfg: cfg}
}

// Name 策略名称
func (s *IafstoreStrategy) Name() string {
	return "iafstore"
}

// Parse 锚点式行重建
func (s *IafstoreStrategy) Parse(lines []models.TextLine) *models.PdfExtractionResult {
	meta, info := scanMetadata(lines, s.cfg.DefaultCurrency)
	scanTotals(lines, &meta)

	// 展平token便于跨行收集锚点邻域
	var tokens []models.PositionedToken
	for _, line := range lines {
		tokens = append(tokens, line.Items...)
	}

	var items []models.LineItem
	var warnings []string
	var usedAnchors []models.PositionedToken

	for _, anchor := range tokens {
		if !iafstoreSKURe.MatchString(strings.TrimSpace(anchor.Text)) {
			continue
		}
		if anchorAlreadyUsed(anchor, usedAnchors, s.cfg.RowTolerance) {
			continue
		}
		usedAnchors = append(usedAnchors, anchor)

		row := collectRow(tokens, anchor, s.cfg.RowTolerance)
		rowText := joinTokenTexts(row)
		if isShippingLine(rowText) {
			if fee, ok := shippingFeeFromLine(models.TextLine{Items: row, Text: rowText}); ok {
				meta.ShippingFee = fee
			}
			continue
		}

		item, ws, ok := s.parseAnchorRow(anchor, row)
		if !ok {
			continue
		}
		warnings = append(warnings, ws...)
		items = append(items, item)
	}

	for _, line := range lines {
		if isShippingLine(line.Text) && meta.ShippingFee == 0 {
			if fee, ok := shippingFeeFromLine(line); ok {
				meta.ShippingFee = fee
			}
		}
	}

	data := &models.ParsedInvoiceData{
		SupplierInfo:    info,
		InvoiceMetadata: meta,
		LineItems:       items,
	}
	if len(items) == 0 {
		return models.NewSuccessResult(data,
			append(warnings, "no line items found, manual review recommended")...)
	}
	return models.NewSuccessResult(data, warnings...)
}

// parseAnchorRow 从锚点行的token集合提取行项目字段
// 行级异常只丢弃该行，不中断整张发票。
func (s *IafstoreStrategy) parseAnchorRow(anchor models.PositionedToken, row []models.PositionedToken) (item models.LineItem, warnings []string, ok bool) {
	defer func() {
		if rec := recover(); rec != nil {
			ok = false
		}
	}()

	row = coalesceNumericFragments(row)

	// 描述从锚点之后开始，到计量单位标记（或首个金额token）为止
	descEnd := -1
	anchorIdx := -1
	for i, t := range row {
		text := strings.TrimSpace(t.Text)
		if anchorIdx < 0 {
			if t.X == anchor.X && text == strings.TrimSpace(anchor.Text) {
				anchorIdx = i
			}
			continue
		}
		if iafstoreUnitMarkers[strings.ToUpper(text)] {
			descEnd = i
			break
		}
		if priceutil.IsPriceShaped(text) {
			descEnd = i
			break
		}
	}
	if anchorIdx < 0 {
		return item, nil, false
	}
	if descEnd < 0 {
		descEnd = len(row)
	}

	var descParts []string
	for _, t := range row[anchorIdx+1 : descEnd] {
		descParts = append(descParts, strings.TrimSpace(t.Text))
	}
	// 描述末尾的连接符是排版残留
	for len(descParts) > 0 && descParts[len(descParts)-1] == "-" {
		descParts = descParts[:len(descParts)-1]
	}

	// 单位标记之后按序取数值token：数量、单价、合计；税码跳过
	var numerics []float64
	start := descEnd
	if start < len(row) && iafstoreUnitMarkers[strings.ToUpper(strings.TrimSpace(row[start].Text))] {
		start++
	}
	for _, t := range row[start:] {
		text := strings.TrimSpace(t.Text)
		if iafstoreVATCodeRe.MatchString(text) {
			continue
		}
		if !priceutil.IsNumericShaped(text) {
			continue
		}
		if v, err := priceutil.ParseAmount(text); err == nil {
			numerics = append(numerics, v)
		}
	}

	prow := parsedRow{
		sku:  strings.TrimSpace(anchor.Text),
		desc: descParts,
	}
	switch {
	case len(numerics) >= 3:
		prow.qty, prow.hasQty = numerics[0], true
		prow.unit, prow.hasUnit = numerics[1], true
		prow.total, prow.hasTotal = numerics[2], true
	case len(numerics) == 2:
		prow.qty, prow.hasQty = numerics[0], true
		prow.unit, prow.hasUnit = numerics[1], true
	case len(numerics) == 1:
		prow.qty, prow.hasQty = numerics[0], true
	default:
		return item, nil, false
	}
	if !prow.valid() {
		return item, nil, false
	}

	item, warnings = prow.toItem(2)
	return item, warnings, true
}

// anchorAlreadyUsed 同一行内出现多个SKU形状token时只取第一个锚点
func anchorAlreadyUsed(anchor models.PositionedToken, used []models.PositionedToken, tolerance float64) bool {
	for _, u := range used {
		if u.Page == anchor.Page && math.Abs(u.Y-anchor.Y) <= tolerance {
			return true
		}
	}
	return false
}

// collectRow 收集与锚点同页且y在容差内的全部token，按x排序
func collectRow(tokens []models.PositionedToken, anchor models.PositionedToken, tolerance float64) []models.PositionedToken {
	var row []models.PositionedToken
	for _, t := range tokens {
		if t.Page == anchor.Page && math.Abs(t.Y-anchor.Y) <= tolerance {
			row = append(row, t)
		}
	}
	sort.SliceStable(row, func(i, j int) bool { return row[i].X < row[j].X })
	return row
}

func joinTokenTexts(tokens []models.PositionedToken) string {
	parts := make([]string, 0, len(tokens))
	for _, t := range tokens {
		parts = append(parts, t.Text)
	}
	return strings.Join(parts, " ")
}
