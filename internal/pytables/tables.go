package pytables

import (
	"encoding/json"
	"fmt"
	"strings"
)

// Cell 表格单元格
// 后端JSON里可能是字符串、数字、布尔或null，统一转为字符串
type Cell string

// UnmarshalJSON 容忍多种JSON标量类型
func (c *Cell) UnmarshalJSON(data []byte) error {
	s := strings.TrimSpace(string(data))
	if s == "null" {
		*c = ""
		return nil
	}
	var str string
	if err := json.Unmarshal(data, &str); err == nil {
		*c = Cell(str)
		return nil
	}
	var num json.Number
	if err := json.Unmarshal(data, &num); err == nil {
		*c = Cell(num.String())
		return nil
	}
	var b bool
	if err := json.Unmarshal(data, &b); err == nil {
		*c = Cell(fmt.Sprintf("%t", b))
		return nil
	}
	return fmt.Errorf("unsupported cell value: %s", s)
}

// String 去除首尾空白后的单元格文本
func (c Cell) String() string {
	return strings.TrimSpace(string(c))
}

// PageRef 表格所在页
// camelot/pdfplumber给数字，tabula给"unknown"，统一为字符串
type PageRef string

// UnmarshalJSON 接受数字或字符串
func (p *PageRef) UnmarshalJSON(data []byte) error {
	var str string
	if err := json.Unmarshal(data, &str); err == nil {
		*p = PageRef(str)
		return nil
	}
	var num json.Number
	if err := json.Unmarshal(data, &num); err == nil {
		*p = PageRef(num.String())
		return nil
	}
	return fmt.Errorf("unsupported page reference: %s", string(data))
}

// Table 后端检测出的一张表格
type Table struct {
	Page        PageRef  `json:"page"`         // 页码
	Method      string   `json:"method"`       // 检测方法（camelot/pdfplumber/tabula）
	TableNumber int      `json:"table_number"` // 表格序号
	Shape       []int    `json:"shape"`        // [行数, 列数]
	Data        [][]Cell `json:"data"`         // 数据行
	Headers     []Cell   `json:"headers"`      // 表头行
}

// extractResponse 后端脚本stdout的JSON结构
type extractResponse struct {
	Tables     []Table `json:"tables"`
	TotalFound int     `json:"total_found"`
	Error      string  `json:"error"`
}
