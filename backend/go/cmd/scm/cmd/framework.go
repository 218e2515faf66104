package cmd

import (
	"SafetyCompliance/backend/go/internal/models"
	"fmt"
	"io"

	"github.com/spf13/cobra"
)

var frameworkCmd = &cobra.Command{
	Use:   "framework",
	Short: "Compliance frameworks",
}

var frameworkListCmd = &cobra.Command{
	Use:   "list",
	Short: "List available compliance frameworks",
	RunE: func(cmd *cobra.Command, args []string) error {
		c, err := newClient()
		if err != nil {
			return err
		}
		fws, err := c.listFrameworks()
		if err != nil {
			return err
		}
		printFrameworks(cmd.OutOrStdout(), fws)
		return nil
	},
}

var frameworkShowCmd = &cobra.Command{
	Use:   "show [name]",
	Short: "Show framework details and controls",
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
		printFramework(cmd.OutOrStdout(), fw)
		return nil
	},
}

var frameworkImportCmd = &cobra.Command{
	Use:   "import [path]",
	Short: "Import a framework from a YAML file",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		c, err := newClient()
		if err != nil {
			return err
		}
		fw, created, err := c.importFramework(args[0])
		if err != nil {
			return err
		}
		if !created {
			warn(cmd.OutOrStdout(), "Framework '%s' already exists", fw.Name)
			return nil
		}
		success(cmd.OutOrStdout(), "Imported framework: %s", fw.Name)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(frameworkCmd)
	frameworkCmd.AddCommand(frameworkListCmd, frameworkShowCmd, frameworkImportCmd)
}

func printFrameworks(w io.Writer, fws []models.ComplianceFramework) {
	if len(fws) == 0 {
		warn(w, "No frameworks found. Add YAML files to data/frameworks/")
		return
	}
	rows := make([][]string, 0, len(fws))
	for _, fw := range fws {
		rows = append(rows, []string{models.ShortID(fw.ID), fw.Name, fw.Version, truncate(fw.Description, 60)})
	}
	renderTable(w, "Compliance Frameworks", []string{"ID", "Name", "Version", "Description"}, rows)
}

func printFramework(w io.Writer, fw *models.ComplianceFramework) {
	fmt.Fprintf(w, "\n%s v%s\n%s\n\n", titleStyle.Render(fw.Name), fw.Version, fw.Description)
	rows := make([][]string, 0, len(fw.Controls))
	for _, c := range fw.Controls {
		rows = append(rows, []string{c.ControlID, c.Title, c.Category})
	}
	renderTable(w, "Controls", []string{"Control ID", "Title", "Category"}, rows)
}
