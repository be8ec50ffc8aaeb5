package pdftext

import (
	"fmt"
	"math"
	"net/url"
	"sort"
	"strings"

	"github.com/ledongthuc/pdf"
	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"
	"github.com/pkg/errors"

	"github.com/fwnshop/invoice-extractor/internal/models"
)

// wordSpaceMultiplier 词边界判定：相邻字符间隙超过字号的
// 这个比例就视为词间空白
const wordSpaceMultiplier = 0.3

// Extract 从PDF文件中提取所有带位置信息的文本片段
// 先用pdfcpu做结构校验（损坏/加密的文件在此直接失败），
// 再用ledongthuc/pdf逐页读取定位文本。内容流里的文本是
// 逐字符的，这里按字符间隙合并为词级token；y坐标按页
// 归一化为自上而下的阅读顺序。不持有任何跨调用的全局状态。
func Extract(path string) (tokens []models.PositionedToken, err error) {
	conf := model.NewDefaultConfiguration()
	if err := api.ValidateFile(path, conf); err != nil {
		return nil, errors.Wrap(err, "invalid or unreadable PDF")
	}

	f, r, err := pdf.Open(path)
	if err != nil {
		return nil, errors.Wrap(err, "failed to open PDF")
	}
	defer f.Close()

	// 个别畸形PDF会让内容流解析panic，统一转为提取失败
	defer func() {
		if rec := recover(); rec != nil {
			tokens = nil
			err = fmt.Errorf("failed to decode PDF content: %v", rec)
		}
	}()

	for pageNum := 1; pageNum <= r.NumPage(); pageNum++ {
		p := r.Page(pageNum)
		if p.V.IsNull() {
			continue
		}

		texts := p.Content().Text
		if len(texts) == 0 {
			continue
		}

		// PDF坐标系原点在左下角，用页面内最大y值翻转为自上而下
		topY := texts[0].Y
		for _, t := range texts {
			if t.Y > topY {
				topY = t.Y
			}
		}

		tokens = append(tokens, assembleWords(texts, pageNum, topY)...)
	}

	if len(tokens) == 0 {
		return nil, errors.New("no text content found in PDF")
	}
	return tokens, nil
}

// assembleWords 把一页的逐字符片段合并为词级token
// 先按y容差聚成字符行，行内按x排序后合并间隙小的相邻字符
func assembleWords(texts []pdf.Text, pageNum int, topY float64) []models.PositionedToken {
	type charRow struct {
		y     float64
		chars []pdf.Text
	}
	var rows []charRow
	for _, t := range texts {
		if t.S == "" {
			continue
		}
		placed := false
		for i := range rows {
			if math.Abs(rows[i].y-t.Y) <= YTolerance {
				rows[i].chars = append(rows[i].chars, t)
				placed = true
				break
			}
		}
		if !placed {
			rows = append(rows, charRow{y: t.Y, chars: []pdf.Text{t}})
		}
	}

	var tokens []models.PositionedToken
	for _, row := range rows {
		sort.SliceStable(row.chars, func(i, j int) bool {
			return row.chars[i].X < row.chars[j].X
		})

		var cur *models.PositionedToken
		flush := func() {
			if cur == nil {
				return
			}
			if strings.TrimSpace(cur.Text) != "" {
				cur.Text = decodeText(strings.TrimSpace(cur.Text))
				tokens = append(tokens, *cur)
			}
			cur = nil
		}

		for _, ch := range row.chars {
			if cur == nil {
				cur = &models.PositionedToken{
					Page:     pageNum,
					X:        ch.X,
					Y:        topY - row.y,
					Width:    ch.W,
					Text:     ch.S,
					Font:     ch.Font,
					FontSize: ch.FontSize,
				}
				continue
			}

			threshold := wordSpaceMultiplier * cur.FontSize
			if threshold == 0 {
				threshold = 3.0
			}
			gap := ch.X - (cur.X + cur.Width)
			if gap <= threshold && !strings.HasPrefix(ch.S, " ") {
				cur.Width = ch.X + ch.W - cur.X
				cur.Text += ch.S
				continue
			}
			flush()
			cur = &models.PositionedToken{
				Page:     pageNum,
				X:        ch.X,
				Y:        topY - row.y,
				Width:    ch.W,
				Text:     ch.S,
				Font:     ch.Font,
				FontSize: ch.FontSize,
			}
		}
		flush()
	}
	return tokens
}

// decodeText 还原提取文本中的百分号转义
// 解码失败时保留原文
func decodeText(s string) string {
	if !strings.Contains(s, "%") {
		return s
	}
	decoded, err := url.PathUnescape(s)
	if err != nil {
		return s
	}
	return decoded
}
