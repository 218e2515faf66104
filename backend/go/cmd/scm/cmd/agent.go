package cmd

import (
	"SafetyCompliance/backend/go/internal/agent"
	"SafetyCompliance/backend/go/internal/models"
	"errors"
	"fmt"
	"io"
	"strconv"

	"github.com/spf13/cobra"
)

var agentCmd = &cobra.Command{
	Use:   "agent",
	Short: "Run and inspect AI agent tasks",
}

var agentRunCmd = &cobra.Command{
	Use:   "run [instruction]",
	Short: "Execute a free-form AI agent task",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		c, err := newClient()
		if err != nil {
			return err
		}
		res, err := runAgent(c, args[0])
		if err != nil {
			return err
		}
		out := cmd.OutOrStdout()
		success(out, "Completed (%d iterations)", res.Iterations)
		fmt.Fprintf(out, "\n%s\n", res.Result)
		return nil
	},
}

var askCmd = &cobra.Command{
	Use:   "ask [question]",
	Short: "Ask the AI a compliance question",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		c, err := newClient()
		if err != nil {
			return err
		}
		res, err := runAgent(c, args[0])
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "\n%s\n", res.Result)
		return nil
	},
}

var agentTasksCmd = &cobra.Command{
	Use:   "tasks",
	Short: "List recent agent tasks",
	RunE: func(cmd *cobra.Command, args []string) error {
		c, err := newClient()
		if err != nil {
			return err
		}
		tasks, err := c.listTasks()
		if err != nil {
			return err
		}
		printTasks(cmd.OutOrStdout(), tasks)
		return nil
	},
}

var agentShowCmd = &cobra.Command{
	Use:   "show [task-id]",
	Short: "Show a task and its tool calls",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		c, err := newClient()
		if err != nil {
			return err
		}
		task, execs, err := c.getTask(args[0])
		if err != nil {
			return err
		}
		printTask(cmd.OutOrStdout(), task, execs)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(agentCmd, askCmd)
	agentCmd.AddCommand(agentRunCmd, agentTasksCmd, agentShowCmd)
}

// runAgent 执行指令。任务失败时以结果文本作为错误返回。
func runAgent(c *apiClient, instruction string) (*agent.RunResult, error) {
	res, err := c.execute(instruction)
	if err != nil {
		return nil, err
	}
	if res.Status == models.TaskStatusFailed {
		return nil, errors.New(res.Result)
	}
	return res, nil
}

func printTasks(w io.Writer, tasks []models.AgentTask) {
	if len(tasks) == 0 {
		warn(w, "No agent tasks found")
		return
	}
	rows := make([][]string, 0, len(tasks))
	for _, t := range tasks {
		status := string(t.Status)
		switch t.Status {
		case models.TaskStatusCompleted:
			status = colored(colorGreen, status)
		case models.TaskStatusFailed:
			status = colored(colorRed, status)
		}
		rows = append(rows, []string{
			models.ShortID(t.ID),
			truncate(t.Instruction, 50),
			status,
			strconv.Itoa(t.Iterations),
			strconv.Itoa(t.TokensUsed),
			timestamp(t.CreatedAt),
		})
	}
	renderTable(w, "Agent Tasks", []string{"ID", "Instruction", "Status", "Iterations", "Tokens", "Created"}, rows)
}

func printTask(w io.Writer, t *models.AgentTask, execs []models.ToolExecution) {
	fmt.Fprintf(w, "\n%s\n", titleStyle.Render(t.Instruction))
	fmt.Fprintf(w, "Status: %s | Iterations: %d | Tokens: %d\n", t.Status, t.Iterations, t.TokensUsed)
	if t.Error != "" {
		fmt.Fprintln(w, errorStyle.Render(t.Error))
	}
	if t.Result != "" {
		fmt.Fprintf(w, "\n%s\n", t.Result)
	}
	if len(execs) == 0 {
		return
	}
	rows := make([][]string, 0, len(execs))
	for _, e := range execs {
		outcome := colored(colorGreen, "ok")
		if e.IsError {
			outcome = colored(colorRed, "error")
		}
		rows = append(rows, []string{strconv.Itoa(e.Iteration), e.Name, outcome, fmt.Sprintf("%dms", e.DurationMs), truncate(e.Output, 60)})
	}
	fmt.Fprintln(w)
	renderTable(w, "Tool Calls", []string{"Iteration", "Tool", "Outcome", "Duration", "Output"}, rows)
}
