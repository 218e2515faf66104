package cmd

import (
	"SafetyCompliance/backend/go/internal/models"
	"fmt"
	"io"

	"github.com/spf13/cobra"
)

var (
	reportFormat string
	reportSource string
	reportOutDir string
)

var reportCmd = &cobra.Command{
	Use:   "report",
	Short: "Report generation",
}

var reportGenerateCmd = &cobra.Command{
	Use:   "generate [type]",
	Short: "Generate a report (audit_report, risk_register, policy_document, executive_summary)",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		c, err := newClient()
		if err != nil {
			return err
		}
		res, err := runAgent(c, reportInstruction(args[0], reportFormat, reportSource))
		if err != nil {
			return err
		}
		out := cmd.OutOrStdout()
		success(out, "Report generated")
		fmt.Fprintf(out, "\n%s\n", res.Result)
		return nil
	},
}

var reportListCmd = &cobra.Command{
	Use:   "list",
	Short: "List generated reports",
	RunE: func(cmd *cobra.Command, args []string) error {
		c, err := newClient()
		if err != nil {
			return err
		}
		reports, err := c.listReports()
		if err != nil {
			return err
		}
		printReports(cmd.OutOrStdout(), reports)
		return nil
	},
}

var reportDownloadCmd = &cobra.Command{
	Use:   "download [report-id]",
	Short: "Download a generated report file",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		c, err := newClient()
		if err != nil {
			return err
		}
		path, err := c.downloadReport(args[0], reportOutDir)
		if err != nil {
			return err
		}
		success(cmd.OutOrStdout(), "Saved to %s", path)
		return nil
	},
}

func init() {
	reportGenerateCmd.Flags().StringVarP(&reportFormat, "format", "f", string(models.FormatDocx), "output format (docx, xlsx, pptx)")
	reportGenerateCmd.Flags().StringVarP(&reportSource, "source", "s", "", "source audit or policy ID")
	reportDownloadCmd.Flags().StringVarP(&reportOutDir, "output", "o", ".", "directory to save the file in")

	rootCmd.AddCommand(reportCmd)
	reportCmd.AddCommand(reportGenerateCmd, reportListCmd, reportDownloadCmd)
}

func printReports(w io.Writer, reports []models.Report) {
	if len(reports) == 0 {
		warn(w, "No reports found")
		return
	}
	rows := make([][]string, 0, len(reports))
	for _, r := range reports {
		rows = append(rows, []string{
			models.ShortID(r.ID),
			truncate(r.Title, 50),
			string(r.ReportType),
			string(r.Format),
			timestamp(r.CreatedAt),
		})
	}
	renderTable(w, "Reports", []string{"ID", "Title", "Type", "Format", "Created"}, rows)
}
