package cmd

import (
	"SafetyCompliance/backend/go/internal/models"
	"errors"
	"fmt"
	"io"
	"strconv"

	"github.com/spf13/cobra"
)

var (
	riskCategory   string
	riskLikelihood int
	riskImpact     int
	riskStatus     string
)

var riskCmd = &cobra.Command{
	Use:   "risk",
	Short: "Risk management",
}

var riskAssessCmd = &cobra.Command{
	Use:   "assess",
	Short: "Run an AI-powered risk assessment",
	RunE: func(cmd *cobra.Command, args []string) error {
		c, err := newClient()
		if err != nil {
			return err
		}
		res, err := runAgent(c, riskAssessmentInstruction(riskCategory))
		if err != nil {
			return err
		}
		out := cmd.OutOrStdout()
		success(out, "Risk assessment completed")
		fmt.Fprintf(out, "\n%s\n", res.Result)
		return nil
	},
}

var riskListCmd = &cobra.Command{
	Use:   "list",
	Short: "List all risks in the register",
	RunE: func(cmd *cobra.Command, args []string) error {
		c, err := newClient()
		if err != nil {
			return err
		}
		risks, err := c.listRisks()
		if err != nil {
			return err
		}
		printRisks(cmd.OutOrStdout(), risks)
		return nil
	},
}

var riskShowCmd = &cobra.Command{
	Use:   "show [risk-id]",
	Short: "Show risk details and mitigations",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		c, err := newClient()
		if err != nil {
			return err
		}
		risk, err := c.getRisk(args[0])
		if err != nil {
			return err
		}
		printRisk(cmd.OutOrStdout(), risk)
		return nil
	},
}

var riskMatrixCmd = &cobra.Command{
	Use:   "matrix",
	Short: "Display the 5x5 risk matrix",
	RunE: func(cmd *cobra.Command, args []string) error {
		c, err := newClient()
		if err != nil {
			return err
		}
		matrix, err := c.riskMatrix()
		if err != nil {
			return err
		}
		printRiskMatrix(cmd.OutOrStdout(), matrix)
		return nil
	},
}

var riskUpdateCmd = &cobra.Command{
	Use:   "update [risk-id]",
	Short: "Update a risk's likelihood, impact or status",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if !cmd.Flags().Changed("likelihood") || !cmd.Flags().Changed("impact") {
			return errors.New("both --likelihood and --impact are required")
		}
		c, err := newClient()
		if err != nil {
			return err
		}
		risk, err := c.updateRisk(args[0], riskLikelihood, riskImpact, riskStatus)
		if err != nil {
			return err
		}
		success(cmd.OutOrStdout(), "Updated risk score to %d", risk.Score)
		return nil
	},
}

func init() {
	riskAssessCmd.Flags().StringVarP(&riskCategory, "category", "c", "", "risk category to focus on")
	riskUpdateCmd.Flags().IntVarP(&riskLikelihood, "likelihood", "l", 0, "likelihood (1-5)")
	riskUpdateCmd.Flags().IntVarP(&riskImpact, "impact", "i", 0, "impact (1-5)")
	riskUpdateCmd.Flags().StringVarP(&riskStatus, "status", "s", "", "new risk status")

	rootCmd.AddCommand(riskCmd)
	riskCmd.AddCommand(riskAssessCmd, riskListCmd, riskShowCmd, riskMatrixCmd, riskUpdateCmd)
}

func printRisks(w io.Writer, risks []models.Risk) {
	if len(risks) == 0 {
		warn(w, "No risks found")
		return
	}
	rows := make([][]string, 0, len(risks))
	for _, r := range risks {
		rows = append(rows, []string{
			models.ShortID(r.ID),
			truncate(r.Title, 50),
			strconv.Itoa(r.Likelihood),
			strconv.Itoa(r.Impact),
			colored(scoreColor(r.Score), strconv.Itoa(r.Score)),
			r.Status,
		})
	}
	renderTable(w, "Risk Register", []string{"ID", "Title", "L", "I", "Score", "Status"}, rows)
}

func printRisk(w io.Writer, r *models.Risk) {
	fmt.Fprintf(w, "\n%s\n", titleStyle.Render(r.Title))
	fmt.Fprintf(w, "Category: %s | Status: %s | Owner: %s\n", r.Category, r.Status, r.Owner)
	fmt.Fprintf(w, "Likelihood: %d | Impact: %d | Score: %s\n",
		r.Likelihood, r.Impact, colored(scoreColor(r.Score), strconv.Itoa(r.Score)))
	if r.Description != "" {
		fmt.Fprintf(w, "\n%s\n", r.Description)
	}
	if len(r.Mitigations) == 0 {
		return
	}
	rows := make([][]string, 0, len(r.Mitigations))
	for _, m := range r.Mitigations {
		due := ""
		if m.DueDate != nil {
			due = m.DueDate.Format("2006-01-02")
		}
		rows = append(rows, []string{m.Action, m.Status, m.AssignedTo, due})
	}
	fmt.Fprintln(w)
	renderTable(w, "Mitigations", []string{"Action", "Status", "Assigned To", "Due"}, rows)
}

// printRiskMatrix 按影响从 5 到 1 输出矩阵行，列为可能性 1 到 5。
func printRiskMatrix(w io.Writer, matrix [][][]matrixCell) {
	headers := []string{"Impact ↓ / Likelihood →"}
	for l := models.RiskScaleMin; l <= models.RiskScaleMax; l++ {
		headers = append(headers, strconv.Itoa(l))
	}
	rows := make([][]string, 0, models.RiskScaleMax)
	for impact := models.RiskScaleMax; impact >= models.RiskScaleMin; impact-- {
		row := []string{strconv.Itoa(impact)}
		for likelihood := models.RiskScaleMin; likelihood <= models.RiskScaleMax; likelihood++ {
			count := 0
			if impact-1 < len(matrix) && likelihood-1 < len(matrix[impact-1]) {
				count = len(matrix[impact-1][likelihood-1])
			}
			label := matrixLabel(count)
			if count > 0 {
				label = colored(scoreColor(models.RiskScore(likelihood, impact)), label)
			}
			row = append(row, label)
		}
		rows = append(rows, row)
	}
	renderTable(w, "Risk Matrix (Impact × Likelihood)", headers, rows)
}
