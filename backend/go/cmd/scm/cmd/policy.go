package cmd

import (
	"SafetyCompliance/backend/go/internal/models"
	"errors"
	"fmt"
	"io"

	"github.com/spf13/cobra"
)

const policyPreviewLen = 500

var (
	policyFramework  string
	policyCategory   string
	policyChannel    string
	policyRecipients []string
)

var policyCmd = &cobra.Command{
	Use:   "policy",
	Short: "Policy management",
}

var policyCreateCmd = &cobra.Command{
	Use:   "create [title]",
	Short: "Create a policy with AI-generated content",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		c, err := newClient()
		if err != nil {
			return err
		}
		res, err := runAgent(c, policyInstruction(args[0], policyFramework, policyCategory))
		if err != nil {
			return err
		}
		out := cmd.OutOrStdout()
		success(out, "Policy created")
		fmt.Fprintf(out, "\n%s\n", res.Result)
		return nil
	},
}

var policyListCmd = &cobra.Command{
	Use:   "list",
	Short: "List all policies",
	RunE: func(cmd *cobra.Command, args []string) error {
		c, err := newClient()
		if err != nil {
			return err
		}
		policies, err := c.listPolicies()
		if err != nil {
			return err
		}
		printPolicies(cmd.OutOrStdout(), policies)
		return nil
	},
}

var policyShowCmd = &cobra.Command{
	Use:   "show [policy-id]",
	Short: "Show a policy and its latest content",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		c, err := newClient()
		if err != nil {
			return err
		}
		p, err := c.getPolicy(args[0])
		if err != nil {
			return err
		}
		printPolicy(cmd.OutOrStdout(), p)
		return nil
	},
}

var policyApproveCmd = &cobra.Command{
	Use:   "approve [policy-id]",
	Short: "Approve a policy",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		c, err := newClient()
		if err != nil {
			return err
		}
		if _, err := c.approvePolicy(args[0]); err != nil {
			return err
		}
		success(cmd.OutOrStdout(), "Policy approved")
		return nil
	},
}

var policyDistributeCmd = &cobra.Command{
	Use:   "distribute [policy-id]",
	Short: "Distribute a policy to recipients",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if len(policyRecipients) == 0 {
			return errors.New("Specify at least one recipient with --to")
		}
		c, err := newClient()
		if err != nil {
			return err
		}
		n, err := c.distributePolicy(args[0], policyChannel, policyRecipients)
		if err != nil {
			return err
		}
		success(cmd.OutOrStdout(), "Distributed to %d recipient(s) via %s", n, policyChannel)
		return nil
	},
}

func init() {
	policyCreateCmd.Flags().StringVarP(&policyFramework, "framework", "f", "ISO 27001", "framework the policy is based on")
	policyCreateCmd.Flags().StringVarP(&policyCategory, "category", "c", "General", "policy category")
	policyDistributeCmd.Flags().StringVarP(&policyChannel, "channel", "c", string(models.ChannelEmail), "distribution channel (email, teams, sharepoint)")
	policyDistributeCmd.Flags().StringArrayVarP(&policyRecipients, "to", "t", nil, "recipient (repeatable)")

	rootCmd.AddCommand(policyCmd)
	policyCmd.AddCommand(policyCreateCmd, policyListCmd, policyShowCmd, policyApproveCmd, policyDistributeCmd)
}

func printPolicies(w io.Writer, policies []models.Policy) {
	if len(policies) == 0 {
		warn(w, "No policies found")
		return
	}
	rows := make([][]string, 0, len(policies))
	for _, p := range policies {
		status := p.Status
		if status == models.PolicyApproved {
			status = colored(colorGreen, status)
		}
		rows = append(rows, []string{
			models.ShortID(p.ID),
			truncate(p.Title, 50),
			p.Category,
			status,
			fmt.Sprintf("v%d", p.CurrentVersion),
			timestamp(p.UpdatedAt),
		})
	}
	renderTable(w, "Policies", []string{"ID", "Title", "Category", "Status", "Version", "Updated"}, rows)
}

func printPolicy(w io.Writer, p *models.Policy) {
	fmt.Fprintf(w, "\n%s\n", titleStyle.Render(p.Title))
	fmt.Fprintf(w, "Status: %s | Version: v%d | Category: %s\n", p.Status, p.CurrentVersion, p.Category)
	latest := p.LatestVersion()
	if latest == nil {
		return
	}
	content := latest.Content
	if len([]rune(content)) > policyPreviewLen {
		content = truncate(content, policyPreviewLen) + "\n... (truncated)"
	}
	fmt.Fprintf(w, "\n%s\n", content)
}
