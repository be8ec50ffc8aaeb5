package priceutil

import (
	"regexp"
	"strings"

	"github.com/pkg/errors"
	"github.com/shopspring/decimal"
)

// 金额token里允许出现并需要剥离的币种符号与空白
var currencyStripper = strings.NewReplacer(
	"€", "", "$", "", "£", "",
	" ", "", " ", "",
)

var plainNumberRe = regexp.MustCompile(`^-?\d+(\.\d+)?$`)

// ParseAmount 解析单个金额token为数值
// 逗号与句点都可能充当小数点或千分位分隔符：
//   - 两者都出现时，靠右的是小数点，另一个是千分位；
//   - 只出现一个时，若其后是1..2位数字则视为小数点，否则视为千分位。
//
// 负号（折扣、退货）原样保留。
func ParseAmount(s string) (float64, error) {
	return ParseAmountPrecision(s, 2)
}

// ParseAmountPrecision 同ParseAmount，但允许最多maxFrac位小数
// 个别供应商的单价精确到百分之一分，需要maxFrac=4。
func ParseAmountPrecision(s string, maxFrac int) (float64, error) {
	d, err := parseDecimal(s, maxFrac)
	if err != nil {
		return 0, err
	}
	f, _ := d.Float64()
	return f, nil
}

func parseDecimal(s string, maxFrac int) (decimal.Decimal, error) {
	t := currencyStripper.Replace(strings.TrimSpace(s))
	if t == "" {
		return decimal.Zero, errors.Errorf("empty amount token %q", s)
	}

	neg := strings.HasPrefix(t, "-")
	if neg {
		t = t[1:]
	}
	if strings.Contains(t, "-") {
		return decimal.Zero, errors.Errorf("not a numeric token: %q", s)
	}

	lastComma := strings.LastIndex(t, ",")
	lastDot := strings.LastIndex(t, ".")

	switch {
	case lastComma >= 0 && lastDot >= 0:
		// 两种分隔符都有：靠右的是小数点
		if lastComma > lastDot {
			t = strings.ReplaceAll(t, ".", "")
			i := strings.LastIndex(t, ",")
			t = strings.ReplaceAll(t[:i], ",", "") + "." + t[i+1:]
		} else {
			t = strings.ReplaceAll(t, ",", "")
		}
	case lastComma >= 0:
		frac := len(t) - lastComma - 1
		if frac >= 1 && frac <= maxFrac && strings.Count(t, ",") == 1 {
			t = strings.Replace(t, ",", ".", 1)
		} else {
			t = strings.ReplaceAll(t, ",", "")
		}
	case lastDot >= 0:
		frac := len(t) - lastDot - 1
		if frac >= 1 && frac <= maxFrac && strings.Count(t, ".") == 1 {
			// 已是规范形式
		} else {
			t = strings.ReplaceAll(t, ".", "")
		}
	}

	if !plainNumberRe.MatchString(t) {
		return decimal.Zero, errors.Errorf("not a numeric token: %q", s)
	}

	d, err := decimal.NewFromString(t)
	if err != nil {
		return decimal.Zero, errors.Wrapf(err, "failed to parse amount %q", s)
	}
	if neg {
		d = d.Neg()
	}
	return d, nil
}

// Round2 四舍五入到2位小数，消除浮点漂移
func Round2(v float64) float64 {
	return RoundPlaces(v, 2)
}

// Round4 四舍五入到4位小数（需要亚分精度的供应商单价）
func Round4(v float64) float64 {
	return RoundPlaces(v, 4)
}

// RoundPlaces 四舍五入到指定位数
func RoundPlaces(v float64, places int32) float64 {
	f, _ := decimal.NewFromFloat(v).Round(places).Float64()
	return f
}

// Mul 以十进制精度计算 a × b 并四舍五入到2位小数
// 用于由数量和单价推导行合计
func Mul(a, b float64) float64 {
	f, _ := decimal.NewFromFloat(a).Mul(decimal.NewFromFloat(b)).Round(2).Float64()
	return f
}

// Div 以十进制精度计算 a ÷ b 并四舍五入到places位小数
// b为0时返回0
func Div(a, b float64, places int32) float64 {
	if b == 0 {
		return 0
	}
	f, _ := decimal.NewFromFloat(a).Div(decimal.NewFromFloat(b)).Round(places).Float64()
	return f
}
