package priceutil

import (
	"fmt"
	"hash/fnv"
	"strings"
)

// GeneratedSKUPrefix 伪SKU的标记前缀
// 调用方据此区分供应商自带编码与生成编码
const GeneratedSKUPrefix = "GEN-"

// PseudoSKU 在供应商未提供商品编码时由描述合成一个确定性编码
// 描述先归一化（大写、压缩空白）再做FNV-1a 64位散列，
// 相同描述重复解析必然得到相同编码。
func PseudoSKU(description string) string {
	norm := strings.Join(strings.Fields(strings.ToUpper(description)), " ")
	h := fnv.New64a()
	h.Write([]byte(norm))
	return fmt.Sprintf("%s%016X", GeneratedSKUPrefix, h.Sum64())
}

// IsGeneratedSKU 判断编码是否为合成的伪SKU
func IsGeneratedSKU(sku string) bool {
	return strings.HasPrefix(sku, GeneratedSKUPrefix)
}
