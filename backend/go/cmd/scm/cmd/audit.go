package cmd

import (
	"SafetyCompliance/backend/go/internal/models"
	"fmt"
	"io"

	"github.com/spf13/cobra"
)

var (
	auditScope        string
	auditExportFormat string
)

var auditCmd = &cobra.Command{
	Use:   "audit",
	Short: "Compliance audits",
}

var auditRunCmd = &cobra.Command{
	Use:   "run [framework]",
	Short: "Run an AI-powered compliance audit against a framework",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		c, err := newClient()
		if err != nil {
			return err
		}
		fw, err := c.findFramework(args[0])
		if err != nil {
			return err
		}
		res, err := runAgent(c, auditInstruction(fw.Name, auditScope))
		if err != nil {
			return err
		}
		out := cmd.OutOrStdout()
		success(out, "Audit completed")
		fmt.Fprintf(out, "\n%s\n\n", res.Result)
		fmt.Fprintln(out, mutedStyle.Render(fmt.Sprintf("Iterations: %d, Tokens: %d", res.Iterations, res.TokensUsed)))
		return nil
	},
}

var auditListCmd = &cobra.Command{
	Use:   "list",
	Short: "List all audits",
	RunE: func(cmd *cobra.Command, args []string) error {
		c, err := newClient()
		if err != nil {
			return err
		}
		audits, err := c.listAudits()
		if err != nil {
			return err
		}
		printAudits(cmd.OutOrStdout(), audits)
		return nil
	},
}

var auditShowCmd = &cobra.Command{
	Use:   "show [audit-id]",
	Short: "Show audit details and findings",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		c, err := newClient()
		if err != nil {
			return err
		}
		audit, err := c.getAudit(args[0])
		if err != nil {
			return err
		}
		printAudit(cmd.OutOrStdout(), audit)
		return nil
	},
}

var auditExportCmd = &cobra.Command{
	Use:   "export [audit-id]",
	Short: "Export an audit report to docx or xlsx",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		c, err := newClient()
		if err != nil {
			return err
		}
		audit, err := c.getAudit(args[0])
		if err != nil {
			return err
		}
		report, err := c.generateReport(models.DocAuditReport, models.DocFormat(auditExportFormat), audit.ID, audit.Title+" Report")
		if err != nil {
			return err
		}
		success(cmd.OutOrStdout(), "Exported to %s", report.FilePath)
		return nil
	},
}

func init() {
	auditRunCmd.Flags().StringVarP(&auditScope, "scope", "s", "", "audit scope description")
	auditExportCmd.Flags().StringVarP(&auditExportFormat, "format", "f", "docx", "output format (docx, xlsx)")

	rootCmd.AddCommand(auditCmd)
	auditCmd.AddCommand(auditRunCmd, auditListCmd, auditShowCmd, auditExportCmd)
}

func printAudits(w io.Writer, audits []models.Audit) {
	if len(audits) == 0 {
		warn(w, "No audits found")
		return
	}
	rows := make([][]string, 0, len(audits))
	for _, a := range audits {
		rows = append(rows, []string{
			models.ShortID(a.ID),
			a.Title,
			colored(auditStatusColor(a.Status), string(a.Status)),
			timestamp(a.CreatedAt),
		})
	}
	renderTable(w, "Audits", []string{"ID", "Title", "Status", "Created"}, rows)
}

func printAudit(w io.Writer, a *models.Audit) {
	fmt.Fprintf(w, "\n%s\n", titleStyle.Render(a.Title))
	fmt.Fprintf(w, "Status: %s | Scope: %s\n", colored(auditStatusColor(a.Status), string(a.Status)), a.Scope)
	if a.Summary != "" {
		fmt.Fprintf(w, "\n%s\n", a.Summary)
	}
	if len(a.Findings) == 0 {
		return
	}
	rows := make([][]string, 0, len(a.Findings))
	for _, f := range a.Findings {
		rows = append(rows, []string{
			f.ControlID,
			f.Title,
			colored(severityColor(f.Severity), string(f.Severity)),
			f.Status,
		})
	}
	fmt.Fprintln(w)
	renderTable(w, "Findings", []string{"Control", "Title", "Severity", "Status"}, rows)
}
