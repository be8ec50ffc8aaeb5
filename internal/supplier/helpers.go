package supplier

import (
	"fmt"
	"math"
	"regexp"
	"sort"
	"strings"

	"github.com/fwnshop/invoice-extractor/internal/models"
	"github.com/fwnshop/invoice-extractor/internal/priceutil"
)

// totalTolerance 行合计与数量×单价的允许偏差
const totalTolerance = 0.02

// 运费金额多候选时的合理区间
const (
	shippingSaneMin = 10.0
	shippingSaneMax = 200.0
)

// headerSpec 语义列到表头标签变体的映射
type headerSpec map[models.Column][]string

// detectHeader 扫描行列表找出表头行并记录各列标签的x阈值
// 一行内至少匹配minMatches个列才算命中；未命中返回(nil, -1)。
func detectHeader(lines []models.TextLine, spec headerSpec, minMatches int) (models.ColumnThresholds, int) {
	for i, line := range lines {
		upper := strings.ToUpper(line.Text)
		thr := models.ColumnThresholds{}
		for col, labels := range spec {
			for _, label := range labels {
				if !strings.Contains(upper, label) {
					continue
				}
				if x, ok := labelX(line, label); ok {
					thr[col] = x
					break
				}
			}
		}
		if len(thr) >= minMatches {
			return thr, i
		}
	}
	return nil, -1
}

// labelX 在行内找到标签起始token的x坐标
// PDF可能把标签拆成碎片，所以也接受token是标签首词的前缀
func labelX(line models.TextLine, label string) (float64, bool) {
	first := strings.Fields(label)[0]
	for _, it := range line.Items {
		t := strings.ToUpper(strings.TrimSpace(it.Text))
		if t == "" {
			continue
		}
		if strings.HasPrefix(t, first) || strings.HasPrefix(first, t) {
			return it.X, true
		}
	}
	return 0, false
}

// inferThresholds 无表头时从数据行统计推断列阈值
// 采样行内金额型token的x位置：最右聚类为合计列，次右为单价列；
// 整数型token的中位x作为数量列。
func inferThresholds(lines []models.TextLine) models.ColumnThresholds {
	var totalXs, unitXs, qtyXs, firstXs []float64

	sampled := 0
	for _, line := range lines {
		if isFooterLine(line.Text) {
			continue
		}
		var priceXs []float64
		var intXs []float64
		for _, it := range line.Items {
			t := strings.TrimSpace(it.Text)
			switch {
			case priceutil.IsPriceShaped(t):
				priceXs = append(priceXs, it.X)
			case priceutil.IsIntegerShaped(t):
				intXs = append(intXs, it.X)
			}
		}
		if len(priceXs) == 0 {
			continue
		}
		sort.Float64s(priceXs)
		totalXs = append(totalXs, priceXs[len(priceXs)-1])
		if len(priceXs) >= 2 {
			unitXs = append(unitXs, priceXs[len(priceXs)-2])
		}
		qtyXs = append(qtyXs, intXs...)
		if len(line.Items) > 0 {
			firstXs = append(firstXs, line.Items[0].X)
		}
		sampled++
		if sampled >= 40 {
			break
		}
	}

	thr := models.ColumnThresholds{}
	if len(totalXs) > 0 {
		thr[models.ColumnTotal] = median(totalXs)
	}
	if len(unitXs) > 0 {
		thr[models.ColumnUnitPrice] = median(unitXs)
	}
	if len(qtyXs) > 0 {
		thr[models.ColumnQuantity] = median(qtyXs)
	}
	if len(firstXs) > 0 {
		thr[models.ColumnSKU] = median(firstXs)
	}
	if len(thr) == 0 {
		return nil
	}
	return thr
}

func median(vals []float64) float64 {
	sorted := append([]float64(nil), vals...)
	sort.Float64s(sorted)
	mid := len(sorted) / 2
	if len(sorted)%2 == 1 {
		return sorted[mid]
	}
	return (sorted[mid-1] + sorted[mid]) / 2
}

// parsedRow 列阈值解析出的一行字段
type parsedRow struct {
	sku      string
	desc     []string
	qty      float64
	hasQty   bool
	unit     float64
	hasUnit  bool
	total    float64
	hasTotal bool
}

// valid 一行至少要有SKU+数量，或单价+合计，才算有效行项目
func (r parsedRow) valid() bool {
	return (r.sku != "" && r.hasQty) || (r.hasUnit && r.hasTotal)
}

// parseRowByColumns 把一行的token按列阈值窗口归类并解析字段
// 不落在任何数值列窗口内的非数值token归入描述。
func parseRowByColumns(line models.TextLine, thr models.ColumnThresholds, window float64, maxFrac int) parsedRow {
	var row parsedRow
	for _, it := range line.Items {
		t := strings.TrimSpace(it.Text)
		if t == "" {
			continue
		}

		bestCol := models.Column("")
		bestDist := window + 1
		for col, x := range thr {
			d := math.Abs(it.X - x)
			if d < bestDist {
				bestDist = d
				bestCol = col
			}
		}
		if bestDist > window {
			bestCol = ""
		}

		switch bestCol {
		case models.ColumnSKU:
			if row.sku == "" && !priceutil.IsPriceShaped(t) {
				row.sku = t
			} else {
				row.desc = append(row.desc, t)
			}
		case models.ColumnQuantity:
			if v, err := priceutil.ParseAmount(t); err == nil && !row.hasQty {
				row.qty = v
				row.hasQty = true
			}
		case models.ColumnUnitPrice:
			if v, err := priceutil.ParseAmountPrecision(t, maxFrac); err == nil && !row.hasUnit {
				row.unit = v
				row.hasUnit = true
			}
		case models.ColumnTotal:
			if v, err := priceutil.ParseAmount(t); err == nil && !row.hasTotal {
				row.total = v
				row.hasTotal = true
			}
		case models.ColumnDescription:
			row.desc = append(row.desc, t)
		case models.ColumnVAT, models.ColumnExpDate:
			// 识别到但不进入行项目
		default:
			if !priceutil.IsNumericShaped(t) {
				row.desc = append(row.desc, t)
			}
		}
	}
	return row
}

// toItem 把解析出的行字段补全为行项目
// 单价存在时优先用数量×单价推导合计：单价误读比合计token
// 被粘连误读少见得多。推导值与打印值偏差超过容差时报警告。
func (r parsedRow) toItem(pricePlaces int32) (models.LineItem, []string) {
	item := models.LineItem{
		SupplierSKU: r.sku,
		Description: strings.TrimSpace(strings.Join(r.desc, " ")),
		Quantity:    r.qty,
		UnitPrice:   priceutil.RoundPlaces(r.unit, pricePlaces),
	}
	var warnings []string

	switch {
	case r.hasQty && r.hasUnit:
		computed := priceutil.Mul(r.qty, r.unit)
		if r.hasTotal && math.Abs(computed-priceutil.Round2(r.total)) > totalTolerance {
			warnings = append(warnings, fmt.Sprintf(
				"item %q: computed total %.2f differs from printed total %.2f, using computed value",
				itemLabel(item), computed, r.total))
		}
		item.Total = computed
	case r.hasQty && r.hasTotal:
		item.Total = priceutil.Round2(r.total)
		item.UnitPrice = priceutil.Div(r.total, r.qty, pricePlaces)
	case r.hasUnit && r.hasTotal:
		item.Total = priceutil.Round2(r.total)
		item.Quantity = priceutil.Div(r.total, r.unit, 2)
	case r.hasTotal:
		item.Total = priceutil.Round2(r.total)
	}

	if item.SupplierSKU == "" {
		item.SupplierSKU = priceutil.PseudoSKU(item.Description)
	}
	return item, warnings
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

// extractColumnItems 列阈值策略共用的行扫描主循环
// 表头之后逐行解析；无效行作为续行归并到最近行项目的描述；
// 命中页脚标记即停止；运费行只贡献元数据。
func extractColumnItems(lines []models.TextLine, headerIdx int, thr models.ColumnThresholds, cfg Config, pricePlaces int32, maxFrac int, meta *models.InvoiceMetadata) ([]models.LineItem, []string) {
	var items []models.LineItem
	var warnings []string
	var pending []string // 首个行项目之前出现的续行文本

	for _, line := range lines[headerIdx+1:] {
		if isFooterLine(line.Text) {
			break
		}
		if isShippingLine(line.Text) {
			if fee, ok := shippingFeeFromLine(line); ok {
				meta.ShippingFee = fee
			}
			continue
		}

		row := parseRowByColumns(line, thr, cfg.ColumnWindow, maxFrac)
		if !row.valid() {
			cont := continuationText(line)
			if cont == "" {
				continue
			}
			if len(items) > 0 {
				last := &items[len(items)-1]
				last.Description = strings.TrimSpace(last.Description + " " + cont)
			} else {
				pending = append(pending, cont)
			}
			continue
		}

		item, ws := row.toItem(pricePlaces)
		warnings = append(warnings, ws...)
		items = append(items, item)
	}

	if len(pending) > 0 && len(items) > 0 {
		items[0].Description = strings.TrimSpace(strings.Join(pending, " ") + " " + items[0].Description)
	}
	return items, warnings
}

// continuationText 提取续行中可归入描述的文本
func continuationText(line models.TextLine) string {
	var parts []string
	for _, it := range line.Items {
		t := strings.TrimSpace(it.Text)
		if t == "" || priceutil.IsNumericShaped(t) {
			continue
		}
		parts = append(parts, t)
	}
	return strings.Join(parts, " ")
}

// 页脚/汇总标记：扫描到这些行就停止行项目解析
var footerMarkers = []string{
	"SUBTOTAL", "SUB-TOTAL", "SOUS-TOTAL",
	"TOTAL", "TOTALE",
	"VAT", "TVA", "IVA", "IMPONIBILE",
	"NET ",
	"RÈGLEMENT", "REGLEMENT",
	"IBAN",
}

// IsFooterText 判断文本是否为汇总/页脚行
// 表格解释器与各解析策略共用同一套标记
func IsFooterText(text string) bool {
	upper := strings.ToUpper(strings.TrimSpace(text))
	for _, m := range footerMarkers {
		if strings.HasPrefix(upper, m) {
			return true
		}
	}
	return false
}

func isFooterLine(text string) bool {
	return IsFooterText(text)
}

// 多语言运费关键词
var shippingKeywords = []string{
	"shipping", "spedizione", "envío", "envio",
	"livraison", "transport", "fracht",
	"frais de port", "frais", "handling",
}

// IsShippingText 判断文本是否包含运费关键词
// 表格解释器与各解析策略共用同一套多语言关键词
func IsShippingText(text string) bool {
	lower := strings.ToLower(text)
	for _, kw := range shippingKeywords {
		if strings.Contains(lower, kw) {
			return true
		}
	}
	return false
}

func isShippingLine(text string) bool {
	return IsShippingText(text)
}

// shippingFeeFromLine 从运费行提取金额
// 取最右侧的金额型token；最右值明显不合理且存在多个候选时，
// 改取合理区间（10–200）内最大的一个。
func shippingFeeFromLine(line models.TextLine) (float64, bool) {
	type candidate struct {
		x, v float64
	}
	var cands []candidate
	for _, it := range line.Items {
		t := strings.TrimSpace(it.Text)
		if !priceutil.IsPriceShaped(t) {
			continue
		}
		if v, err := priceutil.ParseAmount(t); err == nil {
			cands = append(cands, candidate{x: it.X, v: v})
		}
	}
	if len(cands) == 0 {
		return 0, false
	}

	sort.Slice(cands, func(i, j int) bool { return cands[i].x < cands[j].x })
	rightmost := cands[len(cands)-1].v
	if rightmost > 0 && rightmost <= 1000 {
		return priceutil.Round2(rightmost), true
	}

	best := 0.0
	found := false
	for _, c := range cands {
		if c.v >= shippingSaneMin && c.v <= shippingSaneMax && c.v > best {
			best = c.v
			found = true
		}
	}
	if found {
		return priceutil.Round2(best), true
	}
	return priceutil.Round2(rightmost), true
}

var invoiceNumberRe = regexp.MustCompile(`(?i)(?:invoice|facture|fattura|documento)\s*(?:n[o°º]?\.?)?\s*[:#]?\s*([A-Z0-9][A-Z0-9/-]{3,})`)

var vatNumberRe = regexp.MustCompile(`(?i)(?:p\.?\s?iva|vat\s*(?:no|number|reg)?\.?|tva)\s*[:]?\s*([A-Z]{0,2}\d{9,11})`)

// scanMetadata 全文扫描发票级元数据：日期、发票号、币种、增值税号
func scanMetadata(lines []models.TextLine, defaultCurrency string) (models.InvoiceMetadata, models.SupplierInfo) {
	meta := models.InvoiceMetadata{Currency: defaultCurrency}
	var info models.SupplierInfo
	var full strings.Builder

	for _, line := range lines {
		full.WriteString(line.Text)
		full.WriteString("\n")

		if meta.InvoiceDate == "" {
			if iso, ok := priceutil.FindDate(line.Text); ok {
				meta.InvoiceDate = iso
			}
		}
		if meta.InvoiceNumber == "" {
			if m := invoiceNumberRe.FindStringSubmatch(line.Text); m != nil {
				if _, isDate := priceutil.NormalizeDate(m[1]); !isDate {
					meta.InvoiceNumber = m[1]
				}
			}
		}
		if info.VATNumber == "" {
			if m := vatNumberRe.FindStringSubmatch(line.Text); m != nil {
				info.VATNumber = strings.ToUpper(m[1])
			}
		}
	}

	meta.Currency = priceutil.DetectCurrency(full.String(), defaultCurrency)
	return meta, info
}

// scanTotals 从汇总行提取发票小计与总计
func scanTotals(lines []models.TextLine, meta *models.InvoiceMetadata) {
	for _, line := range lines {
		upper := strings.ToUpper(strings.TrimSpace(line.Text))
		var price float64
		found := false
		for _, it := range line.Items {
			t := strings.TrimSpace(it.Text)
			if !priceutil.IsPriceShaped(t) {
				continue
			}
			if v, err := priceutil.ParseAmount(t); err == nil {
				price = v
				found = true
			}
		}
		if !found {
			continue
		}
		switch {
		case strings.HasPrefix(upper, "SUBTOTAL") || strings.HasPrefix(upper, "SOUS-TOTAL") || strings.HasPrefix(upper, "IMPONIBILE"):
			meta.Subtotal = priceutil.Round2(price)
		case strings.HasPrefix(upper, "TOTAL") || strings.HasPrefix(upper, "TOTALE") || strings.HasPrefix(upper, "MONTANT TTC"):
			meta.Total = priceutil.Round2(price)
		}
	}
}

// coalesceNumericFragments 合并被渲染拆开的数字碎片
// 相邻token间隙极小且拼接结果仍是数字形状时合并，
// 抵御"256,35"被拆成"256"和",35"之类的碎片化
func coalesceNumericFragments(items []models.PositionedToken) []models.PositionedToken {
	if len(items) < 2 {
		return items
	}
	out := make([]models.PositionedToken, 0, len(items))
	cur := items[0]
	for _, next := range items[1:] {
		gap := next.X - (cur.X + cur.Width)
		merged := strings.TrimSpace(cur.Text) + strings.TrimSpace(next.Text)
		if cur.Width > 0 && gap < 1.5 && priceutil.IsNumericShaped(merged) {
			cur.Text = merged
			cur.Width = next.X + next.Width - cur.X
			continue
		}
		out = append(out, cur)
		cur = next
	}
	return append(out, cur)
}
