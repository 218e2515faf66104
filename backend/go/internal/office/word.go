package office

import (
	"SafetyCompliance/backend/go/internal/models"
	"fmt"
	"strings"

	"github.com/unidoc/unioffice/v2/color"
	"github.com/unidoc/unioffice/v2/document"
	"github.com/unidoc/unioffice/v2/measurement"
	"github.com/unidoc/unioffice/v2/schema/soo/wml"
)

func addTitle(doc *document.Document, text string) {
	p := doc.AddParagraph()
	p.SetStyle("Title")
	p.Properties().SetAlignment(wml.ST_JcCenter)
	p.AddRun().AddText(text)
}

func addHeading(doc *document.Document, text string) {
	p := doc.AddParagraph()
	p.SetStyle("Heading1")
	p.AddRun().AddText(text)
}

func addText(doc *document.Document, text string) {
	doc.AddParagraph().AddRun().AddText(text)
}

// setCell 写入单元格文本，换行拆为多个段落。
func setCell(cell document.Cell, text string, bold bool) {
	for _, line := range strings.Split(text, "\n") {
		run := cell.AddParagraph().AddRun()
		run.Properties().SetBold(bold)
		run.AddText(line)
	}
}

// AuditReportDocx 生成 audit_<id8>.docx：标题、状态、日期、范围、摘要和按严重级别排序的发现表。
func (g *FileGenerator) AuditReportDocx(audit *models.Audit) (string, error) {
	doc := document.New()

	addTitle(doc, audit.Title)
	addText(doc, "Status: "+string(audit.Status))
	addText(doc, "Date: "+audit.CreatedAt.Format("2006-01-02"))
	if audit.Scope != "" {
		addText(doc, "Scope: "+audit.Scope)
	}

	if audit.Summary != "" {
		addHeading(doc, "Executive Summary")
		addText(doc, audit.Summary)
	}

	if len(audit.Findings) > 0 {
		addHeading(doc, "Findings")

		table := doc.AddTable()
		table.Properties().SetWidthPercent(100)
		table.Properties().Borders().SetAll(wml.ST_BorderSingle, color.Auto, 1*measurement.Point)

		header := table.AddRow()
		for _, h := range []string{"Severity", "Control", "Finding", "Recommendation"} {
			setCell(header.AddCell(), h, true)
		}
		for _, f := range SortedFindings(audit.Findings) {
			row := table.AddRow()
			setCell(row.AddCell(), strings.ToUpper(string(f.Severity)), false)
			setCell(row.AddCell(), f.ControlID, false)
			setCell(row.AddCell(), f.Title+"\n"+f.Description, false)
			setCell(row.AddCell(), f.Recommendation, false)
		}
	}

	out, err := g.path(fmt.Sprintf("audit_%s.docx", models.ShortID(audit.ID)))
	if err != nil {
		return "", err
	}
	if err := doc.SaveToFile(out); err != nil {
		return "", fmt.Errorf("保存审计报告失败: %w", err)
	}
	return out, nil
}

// PolicyDocx 生成 policy_<id8>.docx，正文取自最新版本，每个非空行一个段落。
func (g *FileGenerator) PolicyDocx(policy *models.Policy) (string, error) {
	doc := document.New()

	addTitle(doc, policy.Title)
	addText(doc, fmt.Sprintf("Version: %d", policy.CurrentVersion))
	addText(doc, "Status: "+policy.Status)
	addText(doc, "Category: "+policy.Category)
	addText(doc, "Last Updated: "+policy.UpdatedAt.Format("2006-01-02"))

	addHeading(doc, "Policy Content")
	if latest := policy.LatestVersion(); latest != nil {
		for _, line := range strings.Split(latest.Content, "\n") {
			if line = strings.TrimSpace(line); line != "" {
				addText(doc, line)
			}
		}
	}

	out, err := g.path(fmt.Sprintf("policy_%s.docx", models.ShortID(policy.ID)))
	if err != nil {
		return "", err
	}
	if err := doc.SaveToFile(out); err != nil {
		return "", fmt.Errorf("保存政策文档失败: %w", err)
	}
	return out, nil
}
