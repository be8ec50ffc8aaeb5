package pdftext

import (
	"math"
	"sort"
	"strings"

	"github.com/fwnshop/invoice-extractor/internal/models"
)

// YTolerance 行聚类的垂直容差
// token的y坐标取整到该容差的最近倍数后分组
const YTolerance = 0.5

// AssembleLines 将平铺的token列表聚类为有序的文本行
// 聚类规则：按(页码, y取整值)分组，组内按x升序排列，
// 文本以单个空格连接；整行为空白的行被丢弃。
// 输出按页码、再按y升序排列。
//
// 聚类有意做得粗糙：不负责拆分同一行内视觉重叠的列，
// 那是各解析策略通过列阈值完成的工作。
func AssembleLines(tokens []models.PositionedToken) []models.TextLine {
	type lineKey struct {
		page int
		y    float64
	}

	groups := make(map[lineKey][]models.PositionedToken)
	for _, t := range tokens {
		k := lineKey{page: t.Page, y: roundToTolerance(t.Y, YTolerance)}
		groups[k] = append(groups[k], t)
	}

	keys := make([]lineKey, 0, len(groups))
	for k := range groups {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool {
		if keys[i].page != keys[j].page {
			return keys[i].page < keys[j].page
		}
		return keys[i].y < keys[j].y
	})

	lines := make([]models.TextLine, 0, len(keys))
	for _, k := range keys {
		items := groups[k]
		sort.SliceStable(items, func(i, j int) bool {
			return items[i].X < items[j].X
		})

		parts := make([]string, 0, len(items))
		for _, it := range items {
			parts = append(parts, it.Text)
		}
		text := strings.TrimSpace(strings.Join(parts, " "))
		if text == "" {
			continue
		}

		lines = append(lines, models.TextLine{
			YPosition: k.y,
			Text:      text,
			Items:     items,
		})
	}
	return lines
}

// roundToTolerance 将v取整到tol的最近倍数
func roundToTolerance(v, tol float64) float64 {
	return math.Round(v/tol) * tol
}
