package office

import (
	"SafetyCompliance/backend/go/internal/models"
	"fmt"
	"sort"
	"strings"

	"github.com/unidoc/unioffice/v2/color"
	"github.com/unidoc/unioffice/v2/measurement"
	"github.com/unidoc/unioffice/v2/presentation"
)

// SummaryStats 是管理层摘要中的统计数据。
type SummaryStats struct {
	TotalAudits     int
	CompletedAudits int
	TotalRisks      int
	HighRisks       int // 分值 16 及以上
	MediumRisks     int // 分值 9-15
}

// Summarize 统计审计与风险。
func Summarize(audits []models.Audit, risks []models.Risk) SummaryStats {
	s := SummaryStats{TotalAudits: len(audits), TotalRisks: len(risks)}
	for _, a := range audits {
		if a.Status == models.AuditCompleted {
			s.CompletedAudits++
		}
	}
	for _, r := range risks {
		switch {
		case r.Score >= 16:
			s.HighRisks++
		case r.Score >= 9:
			s.MediumRisks++
		}
	}
	return s
}

// OverviewLines 返回概览页的文字。
func (s SummaryStats) OverviewLines() []string {
	return []string{
		fmt.Sprintf("Total Audits: %d (%d completed)", s.TotalAudits, s.CompletedAudits),
		fmt.Sprintf("Total Risks: %d", s.TotalRisks),
		fmt.Sprintf("High Risks (16+): %d", s.HighRisks),
		fmt.Sprintf("Medium Risks (9-15): %d", s.MediumRisks),
	}
}

// TopRisks 返回分值最高的 n 个风险。
func TopRisks(risks []models.Risk, n int) []models.Risk {
	out := make([]models.Risk, len(risks))
	copy(out, risks)
	sort.SliceStable(out, func(i, j int) bool { return out[i].Score > out[j].Score })
	if len(out) > n {
		out = out[:n]
	}
	return out
}

type bullet struct {
	text string
	clr  *color.Color
}

func addSlide(ppt *presentation.Presentation, title string, bullets []bullet) {
	slide := ppt.AddSlide()

	tb := slide.AddTextBox()
	tb.Properties().SetPosition(measurement.Inch/2, measurement.Inch/2)
	tb.Properties().SetSize(9*measurement.Inch, measurement.Inch)
	run := tb.AddParagraph().AddRun()
	run.SetText(title)
	run.Properties().SetBold(true)
	run.Properties().SetSize(32 * measurement.Point)

	if len(bullets) == 0 {
		return
	}
	body := slide.AddTextBox()
	body.Properties().SetPosition(measurement.Inch/2, 2*measurement.Inch)
	body.Properties().SetSize(9*measurement.Inch, 5*measurement.Inch)
	for _, b := range bullets {
		r := body.AddParagraph().AddRun()
		r.SetText(b.text)
		r.Properties().SetSize(14 * measurement.Point)
		if b.clr != nil {
			r.Properties().SetSolidFill(*b.clr)
		}
	}
}

// ExecutiveSummaryPptx 生成 executive_summary.pptx：标题页、概览、最高风险和最近的审计。
func (g *FileGenerator) ExecutiveSummaryPptx(audits []models.Audit, risks []models.Risk) (string, error) {
	ppt := presentation.New()

	addSlide(ppt, "Compliance & Risk Executive Summary", []bullet{{text: "Safety Compliance Manager"}})

	var overview []bullet
	for _, line := range Summarize(audits, risks).OverviewLines() {
		overview = append(overview, bullet{text: line})
	}
	addSlide(ppt, "Overview", overview)

	if len(risks) > 0 {
		red := color.RGB(0xFF, 0x00, 0x00)
		orange := color.RGB(0xFF, 0x99, 0x00)
		var top []bullet
		for _, r := range TopRisks(risks, 5) {
			b := bullet{text: fmt.Sprintf("[Score: %d] %s", r.Score, r.Title)}
			if r.Score >= 16 {
				b.clr = &red
			} else if r.Score >= 9 {
				b.clr = &orange
			}
			top = append(top, b)
		}
		addSlide(ppt, "Top Risks", top)
	}

	if len(audits) > 0 {
		var recent []bullet
		for i, a := range audits {
			if i == 5 {
				break
			}
			recent = append(recent, bullet{text: fmt.Sprintf("[%s] %s", strings.ToUpper(string(a.Status)), a.Title)})
		}
		addSlide(ppt, "Recent Audits", recent)
	}

	out, err := g.path("executive_summary.pptx")
	if err != nil {
		return "", err
	}
	if err := ppt.SaveToFile(out); err != nil {
		return "", fmt.Errorf("保存管理层摘要失败: %w", err)
	}
	return out, nil
}
