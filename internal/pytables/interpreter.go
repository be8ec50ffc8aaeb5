package pytables

import (
	"fmt"
	"math"
	"strings"

	"github.com/fwnshop/invoice-extractor/internal/models"
	"github.com/fwnshop/invoice-extractor/internal/priceutil"
	"github.com/fwnshop/invoice-extractor/internal/supplier"
)

// 行合计与数量×单价的允许偏差（与主引擎一致）
const totalTolerance = 0.02

// 表头关键词到语义列的有序映射规则（英语+法语，与后端脚本的
// 发票识别关键词对应）。靠前的规则更具体，先匹配先占列。
var headerRules = []struct {
	col      models.Column
	keywords []string
}{
	{models.ColumnQuantity, []string{"quantité", "quantite", "qté", "qte", "quantity", "qty"}},
	{models.ColumnUnitPrice, []string{"prix unitaire", "unit price", "p.u.", "pu"}},
	{models.ColumnTotal, []string{"montant ht", "prix ht", "total ht", "montant", "amount", "total"}},
	{models.ColumnSKU, []string{"sku", "réf", "ref", "code", "item"}},
	{models.ColumnDescription, []string{"libell", "désignation", "designation", "description", "product"}},
}

// Interpreter 把后端返回的表格网格规范化为行项目
// 与主引擎输出同样的ParsedInvoiceData形状。
type Interpreter struct {
	defaultCurrency string
}

// NewInterpreter 创建表格解释器
func NewInterpreter(defaultCurrency string) *Interpreter {
	if defaultCurrency == "" {
		defaultCurrency = "EUR"
	}
	return &Interpreter{defaultCurrency: defaultCurrency}
}

// Interpret 解释全部表格并汇总为发票数据
func (it *Interpreter) Interpret(tables []Table, supplierName string) *models.PdfExtractionResult {
	if len(tables) == 0 {
		return models.NewFailureResult("table extraction backend returned no tables")
	}

	meta := models.InvoiceMetadata{Currency: it.defaultCurrency}
	info := models.SupplierInfo{Name: supplierName}
	var items []models.LineItem
	var warnings []string

	for _, tbl := range tables {
		tblItems, tblWarnings := it.interpretTable(tbl, &meta)
		items = append(items, tblItems...)
		warnings = append(warnings, tblWarnings...)
	}

	data := &models.ParsedInvoiceData{
		SupplierInfo:    info,
		InvoiceMetadata: meta,
		LineItems:       items,
	}
	if len(items) == 0 {
		return models.NewSuccessResult(data,
			append(warnings, "tables detected but no line items recognized, manual review recommended")...)
	}
	return models.NewSuccessResult(data, warnings...)
}

// interpretTable 解释单张表格
func (it *Interpreter) interpretTable(tbl Table, meta *models.InvoiceMetadata) ([]models.LineItem, []string) {
	var warnings []string

	colMap := mapHeaders(tbl.Headers)
	rows := tbl.Data

	// pdfplumber会把表头行重复为第一数据行
	if len(rows) > 0 && rowMatchesHeaders(rows[0], tbl.Headers) {
		rows = rows[1:]
	}

	// 表头缺失或不完整时按列内容统计分类
	if !usableColumnMap(colMap) {
		inferred := classifyColumns(rows)
		for col, idx := range inferred {
			if _, ok := colMap[col]; !ok {
				colMap[col] = idx
			}
		}
		if !usableColumnMap(colMap) {
			return nil, []string{fmt.Sprintf(
				"table %d (page %s): columns could not be identified, table skipped",
				tbl.TableNumber, string(tbl.Page))}
		}
		warnings = append(warnings, fmt.Sprintf(
			"table %d (page %s): headers missing or ambiguous, columns classified from content",
			tbl.TableNumber, string(tbl.Page)))
	}

	// 退化形状：单数据行、各单元格是换行连接的多值串
	if len(rows) == 1 && rowHasNewlines(rows[0], colMap) {
		rows = splitNewlineRow(rows[0], colMap)
	}

	var items []models.LineItem
	for _, row := range rows {
		joined := joinCells(row)
		if strings.TrimSpace(joined) == "" {
			continue
		}
		if supplier.IsShippingText(joined) {
			if fee, ok := shippingFeeFromCells(row); ok {
				meta.ShippingFee = fee
			}
			continue
		}
		if supplier.IsFooterText(joined) {
			continue
		}

		item, ws, ok := it.itemFromRow(row, colMap)
		if !ok {
			continue
		}
		warnings = append(warnings, ws...)
		items = append(items, item)
	}

	if meta.InvoiceDate == "" {
		if iso, ok := priceutil.FindDate(joinAllCells(tbl)); ok {
			meta.InvoiceDate = iso
		}
	}
	return items, warnings
}

// itemFromRow 把一个数据行归约为行项目
// 数量与单价都在时重算合计、覆盖表格自带的合计单元格——
// 提取后端误读合计列比误读单价常见。
func (it *Interpreter) itemFromRow(row []Cell, colMap map[models.Column]int) (item models.LineItem, warnings []string, ok bool) {
	defer func() {
		if rec := recover(); rec != nil {
			ok = false
		}
	}()

	desc := cellAt(row, colMap, models.ColumnDescription)
	sku := cellAt(row, colMap, models.ColumnSKU)
	if desc == "" && sku == "" {
		return item, nil, false
	}

	qty, hasQty := parseCellAmount(cellAt(row, colMap, models.ColumnQuantity), 2)
	unit, hasUnit := parseCellAmount(cellAt(row, colMap, models.ColumnUnitPrice), 4)
	printedTotal, hasTotal := parseCellAmount(cellAt(row, colMap, models.ColumnTotal), 2)

	if !hasQty && !hasUnit && !hasTotal {
		return item, nil, false
	}

	item = models.LineItem{
		SupplierSKU: sku,
		Description: desc,
		Quantity:    qty,
		UnitPrice:   priceutil.Round2(unit),
	}

	switch {
	case hasQty && hasUnit:
		computed := priceutil.Mul(qty, unit)
		if hasTotal && math.Abs(computed-priceutil.Round2(printedTotal)) > totalTolerance {
			warnings = append(warnings, fmt.Sprintf(
				"item %q: computed total %.2f overrides table total %.2f",
				itemLabel(item), computed, printedTotal))
		}
		item.Total = computed
	case hasQty && hasTotal:
		item.Total = priceutil.Round2(printedTotal)
		item.UnitPrice = priceutil.Div(printedTotal, qty, 2)
	case hasUnit && hasTotal:
		item.Total = priceutil.Round2(printedTotal)
		item.Quantity = priceutil.Div(printedTotal, unit, 2)
	case hasTotal:
		item.Total = priceutil.Round2(printedTotal)
	default:
		return item, nil, false
	}

	if item.SupplierSKU == "" {
		item.SupplierSKU = priceutil.PseudoSKU(item.Description)
	}
	return item, warnings, true
}

func itemLabel(item models.LineItem) string {
	if item.SupplierSKU != "" {
		return item.SupplierSKU
	}
	if len(item.Description) > 30 {
		return item.Description[:30]
	}
	return item.Description
}

// mapHeaders 按关键词把表头映射到语义列
func mapHeaders(headers []Cell) map[models.Column]int {
	colMap := make(map[models.Column]int)
	taken := make(map[int]bool)
	for _, rule := range headerRules {
		if _, ok := colMap[rule.col]; ok {
			continue
		}
		for i, h := range headers {
			if taken[i] {
				continue
			}
			lower := strings.ToLower(h.String())
			if lower == "" {
				continue
			}
			matched := false
			for _, kw := range rule.keywords {
				if strings.Contains(lower, kw) {
					matched = true
					break
				}
			}
			if matched {
				colMap[rule.col] = i
				taken[i] = true
				break
			}
		}
	}
	return colMap
}

// usableColumnMap 列映射是否足以产出行项目
// 至少要有描述（或SKU），加上数量+单价或合计之一
func usableColumnMap(colMap map[models.Column]int) bool {
	_, hasDesc := colMap[models.ColumnDescription]
	_, hasSKU := colMap[models.ColumnSKU]
	_, hasQty := colMap[models.ColumnQuantity]
	_, hasUnit := colMap[models.ColumnUnitPrice]
	_, hasTotal := colMap[models.ColumnTotal]
	return (hasDesc || hasSKU) && ((hasQty && hasUnit) || hasTotal)
}

// classifyColumns 表头缺失时按列内容采样分类
// 每列取样若干单元格做正则归类：SKU形、整数形、金额形、文本。
// 金额列里最靠右的是合计，其次是单价。
func classifyColumns(rows [][]Cell) map[models.Column]int {
	if len(rows) == 0 {
		return nil
	}
	colCount := 0
	for _, row := range rows {
		if len(row) > colCount {
			colCount = len(row)
		}
	}

	type colStats struct {
		sku, integer, price, text int
		textLen                   int
	}
	stats := make([]colStats, colCount)
	sampled := 0
	for _, row := range rows {
		for i := 0; i < colCount && i < len(row); i++ {
			v := row[i].String()
			if v == "" {
				continue
			}
			switch {
			case priceutil.IsPriceShaped(v):
				stats[i].price++
			case priceutil.IsIntegerShaped(v):
				stats[i].integer++
			case priceutil.IsSKUShaped(v):
				stats[i].sku++
			default:
				stats[i].text++
				stats[i].textLen += len(v)
			}
		}
		sampled++
		if sampled >= 10 {
			break
		}
	}

	colMap := make(map[models.Column]int)
	var priceCols []int
	bestTextLen := 0
	for i, st := range stats {
		switch {
		case st.price > 0 && st.price >= st.text:
			priceCols = append(priceCols, i)
		case st.sku > 0 && st.sku >= st.text:
			if _, ok := colMap[models.ColumnSKU]; !ok {
				colMap[models.ColumnSKU] = i
			}
		case st.integer > 0 && st.integer >= st.text:
			if _, ok := colMap[models.ColumnQuantity]; !ok {
				colMap[models.ColumnQuantity] = i
			}
		case st.text > 0 && st.textLen > bestTextLen:
			colMap[models.ColumnDescription] = i
			bestTextLen = st.textLen
		}
	}
	if len(priceCols) > 0 {
		colMap[models.ColumnTotal] = priceCols[len(priceCols)-1]
	}
	if len(priceCols) > 1 {
		colMap[models.ColumnUnitPrice] = priceCols[len(priceCols)-2]
	}
	return colMap
}

// rowHasNewlines 已映射列的单元格里是否出现换行连接的多值串
func rowHasNewlines(row []Cell, colMap map[models.Column]int) bool {
	for _, idx := range colMap {
		if idx < len(row) && strings.Contains(string(row[idx]), "\n") {
			return true
		}
	}
	return false
}

// splitNewlineRow 把换行连接的单行拆成N个行项目的行
// 每个相关单元格按换行切分后按位置zip
func splitNewlineRow(row []Cell, colMap map[models.Column]int) [][]Cell {
	n := 1
	split := make(map[int][]string)
	for _, idx := range colMap {
		if idx >= len(row) {
			continue
		}
		parts := strings.Split(string(row[idx]), "\n")
		split[idx] = parts
		if len(parts) > n {
			n = len(parts)
		}
	}

	out := make([][]Cell, n)
	for i := 0; i < n; i++ {
		newRow := make([]Cell, len(row))
		copy(newRow, row)
		for idx, parts := range split {
			switch {
			case len(parts) == n:
				newRow[idx] = Cell(strings.TrimSpace(parts[i]))
			case i < len(parts):
				newRow[idx] = Cell(strings.TrimSpace(parts[i]))
			default:
				newRow[idx] = ""
			}
		}
		out[i] = newRow
	}
	return out
}

// rowMatchesHeaders 数据行是否就是表头行的重复
func rowMatchesHeaders(row []Cell, headers []Cell) bool {
	if len(headers) == 0 || len(row) != len(headers) {
		return false
	}
	matches := 0
	for i := range row {
		if row[i].String() != "" && strings.EqualFold(row[i].String(), headers[i].String()) {
			matches++
		}
	}
	return matches >= len(headers)/2+1
}

// shippingFeeFromCells 从运费行提取金额：取最右侧可解析的金额单元格
func shippingFeeFromCells(row []Cell) (float64, bool) {
	for i := len(row) - 1; i >= 0; i-- {
		v := row[i].String()
		if !priceutil.IsPriceShaped(v) {
			continue
		}
		if fee, err := priceutil.ParseAmount(v); err == nil {
			return priceutil.Round2(fee), true
		}
	}
	return 0, false
}

func cellAt(row []Cell, colMap map[models.Column]int, col models.Column) string {
	idx, ok := colMap[col]
	if !ok || idx >= len(row) {
		return ""
	}
	return row[idx].String()
}

func parseCellAmount(s string, maxFrac int) (float64, bool) {
	if s == "" {
		return 0, false
	}
	v, err := priceutil.ParseAmountPrecision(s, maxFrac)
	if err != nil {
		return 0, false
	}
	return v, true
}

func joinCells(row []Cell) string {
	parts := make([]string, 0, len(row))
	for _, c := range row {
		parts = append(parts, c.String())
	}
	return strings.Join(parts, " ")
}

func joinAllCells(tbl Table) string {
	var b strings.Builder
	for _, h := range tbl.Headers {
		b.WriteString(h.String())
		b.WriteString(" ")
	}
	for _, row := range tbl.Data {
		for _, c := range row {
			b.WriteString(c.String())
			b.WriteString(" ")
		}
	}
	return b.String()
}
