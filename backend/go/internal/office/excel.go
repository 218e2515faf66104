package office

import (
	"SafetyCompliance/backend/go/internal/models"
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/xuri/excelize/v2"
)

const (
	headerColor  = "1F4E79"
	maxColWidth  = 50
	scoreHighHex = "FF0000"
	scoreMidHex  = "FFCC00"
	scoreLowHex  = "92D050"
)

var severityColors = map[models.Severity]string{
	models.SeverityCritical: "FF0000",
	models.SeverityHigh:     "FF6600",
	models.SeverityMedium:   "FFCC00",
	models.SeverityLow:      "92D050",
	models.SeverityInfo:     "00B0F0",
}

// ScoreColor 返回风险分值对应的填充色：16 及以上红色，9-15 黄色，其余绿色。
func ScoreColor(score int) string {
	switch {
	case score >= 16:
		return scoreHighHex
	case score >= 9:
		return scoreMidHex
	default:
		return scoreLowHex
	}
}

type sheetWriter struct {
	f      *excelize.File
	sheet  string
	widths map[int]int
	fills  map[string]int
}

func newSheetWriter(sheet string) (*sheetWriter, error) {
	f := excelize.NewFile()
	if err := f.SetSheetName("Sheet1", sheet); err != nil {
		f.Close()
		return nil, err
	}
	return &sheetWriter{f: f, sheet: sheet, widths: map[int]int{}, fills: map[string]int{}}, nil
}

func (w *sheetWriter) set(col, row int, value interface{}) (string, error) {
	cell, err := excelize.CoordinatesToCellName(col, row)
	if err != nil {
		return "", err
	}
	if err := w.f.SetCellValue(w.sheet, cell, value); err != nil {
		return "", err
	}
	if n := utf8.RuneCountInString(fmt.Sprint(value)); n > w.widths[col] {
		w.widths[col] = n
	}
	return cell, nil
}

func (w *sheetWriter) header(cols []string, centered bool) error {
	style := &excelize.Style{
		Font: &excelize.Font{Bold: true, Color: "FFFFFF", Size: 11},
		Fill: excelize.Fill{Type: "pattern", Pattern: 1, Color: []string{headerColor}},
	}
	if centered {
		style.Alignment = &excelize.Alignment{Horizontal: "center"}
	}
	id, err := w.f.NewStyle(style)
	if err != nil {
		return err
	}
	for i, h := range cols {
		cell, err := w.set(i+1, 1, h)
		if err != nil {
			return err
		}
		if err := w.f.SetCellStyle(w.sheet, cell, cell, id); err != nil {
			return err
		}
	}
	return nil
}

func (w *sheetWriter) fill(cell, hex string) error {
	id, ok := w.fills[hex]
	if !ok {
		var err error
		id, err = w.f.NewStyle(&excelize.Style{
			Fill: excelize.Fill{Type: "pattern", Pattern: 1, Color: []string{hex}},
		})
		if err != nil {
			return err
		}
		w.fills[hex] = id
	}
	return w.f.SetCellStyle(w.sheet, cell, cell, id)
}

// save 按内容调整列宽 (上限 50) 后保存。
func (w *sheetWriter) save(path string) error {
	defer w.f.Close()
	for col, n := range w.widths {
		name, err := excelize.ColumnNumberToName(col)
		if err != nil {
			return err
		}
		width := n + 2
		if width > maxColWidth {
			width = maxColWidth
		}
		if err := w.f.SetColWidth(w.sheet, name, name, float64(width)); err != nil {
			return err
		}
	}
	return w.f.SaveAs(path)
}

// AuditFindingsXlsx 生成 audit_<id8>.xlsx，工作表 "Audit Findings"。
func (g *FileGenerator) AuditFindingsXlsx(audit *models.Audit) (string, error) {
	w, err := newSheetWriter("Audit Findings")
	if err != nil {
		return "", fmt.Errorf("创建工作簿失败: %w", err)
	}
	cols := []string{"Severity", "Control ID", "Finding Title", "Description", "Recommendation", "Status"}
	if err := w.header(cols, true); err != nil {
		return "", fmt.Errorf("写入表头失败: %w", err)
	}

	for i, f := range audit.Findings {
		row := i + 2
		cell, err := w.set(1, row, strings.ToUpper(string(f.Severity)))
		if err != nil {
			return "", err
		}
		if hex, ok := severityColors[f.Severity]; ok {
			if err := w.fill(cell, hex); err != nil {
				return "", err
			}
		}
		for col, v := range []string{f.ControlID, f.Title, f.Description, f.Recommendation, f.Status} {
			if _, err := w.set(col+2, row, v); err != nil {
				return "", err
			}
		}
	}

	out, err := g.path(fmt.Sprintf("audit_%s.xlsx", models.ShortID(audit.ID)))
	if err != nil {
		return "", err
	}
	if err := w.save(out); err != nil {
		return "", fmt.Errorf("保存审计工作簿失败: %w", err)
	}
	return out, nil
}

// RiskRegisterXlsx 生成 risk_register.xlsx，工作表 "Risk Register"，分值单元格按等级着色。
func (g *FileGenerator) RiskRegisterXlsx(risks []models.Risk) (string, error) {
	w, err := newSheetWriter("Risk Register")
	if err != nil {
		return "", fmt.Errorf("创建工作簿失败: %w", err)
	}
	cols := []string{"Risk ID", "Title", "Category", "Likelihood", "Impact", "Score", "Status", "Owner", "Description"}
	if err := w.header(cols, false); err != nil {
		return "", fmt.Errorf("写入表头失败: %w", err)
	}

	for i, r := range risks {
		row := i + 2
		values := []interface{}{models.ShortID(r.ID), r.Title, r.Category, r.Likelihood, r.Impact, r.Score, r.Status, r.Owner, r.Description}
		for col, v := range values {
			cell, err := w.set(col+1, row, v)
			if err != nil {
				return "", err
			}
			if col == 5 {
				if err := w.fill(cell, ScoreColor(r.Score)); err != nil {
					return "", err
				}
			}
		}
	}

	out, err := g.path("risk_register.xlsx")
	if err != nil {
		return "", err
	}
	if err := w.save(out); err != nil {
		return "", fmt.Errorf("保存风险登记册失败: %w", err)
	}
	return out, nil
}
