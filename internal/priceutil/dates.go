package priceutil

import (
	"regexp"
	"strings"
	"time"
)

// 按优先级排列的日期布局：欧洲日/月/年优先，其次ISO
var dateLayouts = []string{
	"02/01/2006",
	"2006-01-02",
	"02-01-2006",
	"02.01.2006",
	"2/1/2006",
}

var dateTokenRe = regexp.MustCompile(`\b(\d{1,2}[/.-]\d{1,2}[/.-]\d{4}|\d{4}-\d{2}-\d{2})\b`)

// NormalizeDate 尝试将日期文本规范化为ISO格式（YYYY-MM-DD）
func NormalizeDate(s string) (string, bool) {
	s = strings.TrimSpace(s)
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t.Format("2006-01-02"), true
		}
	}
	return "", false
}

// FindDate 在一段文本中找出第一个可识别的日期并规范化
func FindDate(text string) (string, bool) {
	for _, m := range dateTokenRe.FindAllString(text, -1) {
		if iso, ok := NormalizeDate(m); ok {
			return iso, true
		}
	}
	return "", false
}

// DetectCurrency 根据文本中的货币符号确定币种
// 没有符号与默认值冲突时返回默认币种
func DetectCurrency(text, defaultCurrency string) string {
	switch {
	case strings.Contains(text, "£"):
		return "GBP"
	case strings.Contains(text, "$"):
		return "USD"
	case strings.Contains(text, "€"):
		return "EUR"
	default:
		return defaultCurrency
	}
}
