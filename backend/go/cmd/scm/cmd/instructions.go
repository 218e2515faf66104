package cmd

import "fmt"

// 以下函数构造交给 agent 的自然语言指令。

func auditInstruction(framework, scope string) string {
	s := fmt.Sprintf("Run a compliance audit against the %s framework.", framework)
	if scope != "" {
		s += " Scope: " + scope
	}
	return s + " Create the audit, analyze each control, record findings with severity levels, and complete the audit with a summary."
}

func riskAssessmentInstruction(category string) string {
	s := "Perform a risk assessment."
	if category != "" {
		s += fmt.Sprintf(" Focus on the category: %s.", category)
	}
	return s + " Identify risks, assess likelihood (1-5) and impact (1-5), and record them."
}

func policyInstruction(title, framework, category string) string {
	s := fmt.Sprintf(`Create a compliance policy titled "%s".`, title)
	if framework != "" {
		s += fmt.Sprintf(" Base it on the %s framework requirements.", framework)
	}
	if category != "" {
		s += fmt.Sprintf(" Category: %s.", category)
	}
	return s + " Generate comprehensive policy content and save it."
}

func reportInstruction(reportType, format, sourceID string) string {
	s := fmt.Sprintf("Generate a %s report in %s format.", reportType, format)
	if sourceID != "" {
		s += fmt.Sprintf(" Source ID: %s.", sourceID)
	}
	return s
}
