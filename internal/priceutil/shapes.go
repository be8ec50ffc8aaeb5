package priceutil

import "regexp"

var (
	priceShapedRe   = regexp.MustCompile(`^-?(?:€|\$|£)?\d{1,3}(?:[.,]\d{3})*[.,]\d{1,4}$|^-?(?:€|\$|£)?\d+[.,]\d{1,4}$`)
	integerShapedRe = regexp.MustCompile(`^-?\d+$`)
	skuShapedRe     = regexp.MustCompile(`^[A-Z]{2,6}[0-9]{2,}[A-Z0-9-]*$`)
)

// IsPriceShaped 判断token是否形如金额（带小数分隔符的数字）
func IsPriceShaped(s string) bool {
	return priceShapedRe.MatchString(s)
}

// IsIntegerShaped 判断token是否为纯整数
func IsIntegerShaped(s string) bool {
	return integerShapedRe.MatchString(s)
}

// IsSKUShaped 判断token是否形如供应商商品编码（字母前缀+数字）
func IsSKUShaped(s string) bool {
	return skuShapedRe.MatchString(s)
}

// IsNumericShaped 金额或整数
func IsNumericShaped(s string) bool {
	return IsPriceShaped(s) || IsIntegerShaped(s)
}
