package agent

import (
	"SafetyCompliance/backend/go/internal/compliance_service/store"
	"SafetyCompliance/backend/go/internal/config"
	"SafetyCompliance/backend/go/internal/llm"
	"SafetyCompliance/backend/go/internal/metrics"
	"SafetyCompliance/backend/go/internal/models"
	"SafetyCompliance/backend/go/pkg/logger"
	"context"
	"fmt"
	"strings"
	"time"
)

// ProgressPublisher 接收任务进度事件，例如 Kafka 的 LogPublisher。
type ProgressPublisher interface {
	LogTaskProgress(ctx context.Context, entry *models.TaskLogEntry) error
}

// TranscriptArchiver 归档一次调用的完整消息记录，例如 MongoDB 的 TranscriptStore。
type TranscriptArchiver interface {
	SaveTranscript(ctx context.Context, t *models.Transcript) error
}

// RunResult 是一次 agent 调用的结果。Status 只会是 completed 或 failed。
type RunResult struct {
	TaskID     string            `json:"task_id"`
	Status     models.TaskStatus `json:"status"`
	Result     string            `json:"result"`
	Iterations int               `json:"iterations"`
	TokensUsed int               `json:"tokens_used"`
}

// Engine 驱动 agent 的工具调用循环。
// 每次 Run 拥有自己的消息记录，多个 Run 可以并发执行。
type Engine struct {
	cfg        config.AgentConfig
	llmCfg     config.LLMConfig
	model      llm.ChatModel
	store      *store.Store
	dispatcher *Dispatcher

	progress    ProgressPublisher
	transcripts TranscriptArchiver
	metrics     *metrics.Metrics
}

// EngineOption 配置 Engine 的可选依赖。
type EngineOption func(*Engine)

// WithProgressPublisher 发送任务进度事件。
func WithProgressPublisher(p ProgressPublisher) EngineOption {
	return func(e *Engine) { e.progress = p }
}

// WithTranscriptArchiver 在任务结束后归档消息记录。
func WithTranscriptArchiver(a TranscriptArchiver) EngineOption {
	return func(e *Engine) { e.transcripts = a }
}

// WithMetrics 记录运行指标。
func WithMetrics(m *metrics.Metrics) EngineOption {
	return func(e *Engine) { e.metrics = m }
}

// NewEngine 创建 Engine。cfg 在创建后不再改变。
func NewEngine(cfg config.AgentConfig, llmCfg config.LLMConfig, model llm.ChatModel, st *store.Store, d *Dispatcher, opts ...EngineOption) *Engine {
	if cfg.MaxIterations <= 0 {
		cfg.MaxIterations = config.DefaultMaxIterations
	}
	if cfg.MaxTokens <= 0 {
		cfg.MaxTokens = config.DefaultMaxTokens
	}
	e := &Engine{
		cfg:        cfg,
		llmCfg:     llmCfg,
		model:      model,
		store:      st,
		dispatcher: d,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// missingCredential 返回未配置凭证时的结果，不创建任务也不访问网络。
func (e *Engine) missingCredential() *RunResult {
	return &RunResult{
		Status: models.TaskStatusFailed,
		Result: fmt.Sprintf("Error: %s not configured. Run 'scm config init' and set your API key.", e.llmCfg.CredentialEnv()),
	}
}

// run 保存一次调用的可变状态。
type run struct {
	task     *models.AgentTask
	system   string
	messages []models.Message
	result   string
	iter     int
	tokens   int
	log      *logger.Logger
}

// Run 执行一条指令直到模型结束、达到轮次上限或出错。
// 失败不通过 error 返回，而是体现在 RunResult.Status 中。
func (e *Engine) Run(ctx context.Context, instruction string) *RunResult {
	if e.llmCfg.Credential() == "" || e.model == nil {
		return e.missingCredential()
	}

	task := &models.AgentTask{Instruction: instruction, Status: models.TaskStatusRunning}
	if err := e.store.CreateTask(ctx, task); err != nil {
		logger.New("agent-engine", "", "").
			WithError(models.ErrorInfo{Message: err.Error(), Type: "database_error"}).
			Error("Failed to create agent task")
		return &RunResult{Status: models.TaskStatusFailed, Result: "Error: " + err.Error()}
	}

	r := &run{
		task:     task,
		messages: []models.Message{models.UserText(instruction)},
		log:      logger.New("agent-engine", task.ID, ""),
	}
	r.log.WithPayload(map[string]interface{}{"instruction": instruction}).Info("Agent task started")

	err := e.loop(ctx, r)
	return e.finish(ctx, r, err)
}

func (e *Engine) loop(ctx context.Context, r *run) error {
	snapshot, err := BuildSnapshot(ctx, e.store)
	if err != nil {
		return fmt.Errorf("build state snapshot: %w", err)
	}
	r.system = BuildSystemPrompt(snapshot)
	tools := Tools()

	for r.iter < e.cfg.MaxIterations {
		r.iter++
		r.log.WithPayload(map[string]interface{}{"iteration": r.iter}).Info("Agent iteration")
		e.publish(ctx, r, models.StatusThinking, "", fmt.Sprintf("Iteration %d: calling model", r.iter), nil)

		resp, err := e.model.CreateMessage(ctx, &models.ChatRequest{
			System:    r.system,
			Tools:     tools,
			Messages:  r.messages,
			MaxTokens: e.cfg.MaxTokens,
		})
		if err != nil {
			return err
		}
		r.tokens += resp.Usage.Total()

		if texts := resp.Texts(); len(texts) > 0 {
			r.result = resp.Text()
		}
		toolUses := resp.ToolUses()
		if resp.StopReason == models.StopEndTurn || len(toolUses) == 0 {
			return nil
		}

		r.messages = append(r.messages, models.Message{Role: models.RoleAssistant, Content: assistantContent(resp.Content)})

		results := make([]models.ContentBlock, 0, len(toolUses))
		for _, tu := range toolUses {
			e.publish(ctx, r, models.StatusCallingTool, tu.ID, "Calling tool "+tu.Name, tu.Input)
			block := e.dispatcher.Execute(ctx, Call{TaskID: r.task.ID, Iteration: r.iter, ToolUse: tu})
			e.publish(ctx, r, models.StatusObserving, tu.ID, "Observed result of "+tu.Name, block.Content)
			results = append(results, block)
		}
		r.messages = append(r.messages, models.Message{Role: models.RoleUser, Content: results})
	}

	r.log.WithPayload(map[string]interface{}{"max_iterations": e.cfg.MaxIterations}).Warn("Agent reached iteration cap")
	return nil
}

// assistantContent 去掉空文本块，其余块保持原顺序。
func assistantContent(blocks []models.ContentBlock) []models.ContentBlock {
	out := make([]models.ContentBlock, 0, len(blocks))
	for _, b := range blocks {
		if b.Type == models.BlockText && strings.TrimSpace(b.Text) == "" {
			continue
		}
		out = append(out, b)
	}
	return out
}

// finish 执行唯一一次终态转换并保存任务。
func (e *Engine) finish(ctx context.Context, r *run, loopErr error) *RunResult {
	now := time.Now().UTC()
	task := r.task
	task.Iterations = r.iter
	task.TokensUsed = r.tokens
	task.CompletedAt = &now
	if loopErr != nil {
		task.Status = models.TaskStatusFailed
		task.Error = loopErr.Error()
		task.Result = "Error: " + loopErr.Error()
		r.log.WithError(models.ErrorInfo{Message: loopErr.Error(), Type: "provider_error"}).Error("Agent task failed")
		e.publish(ctx, r, models.StatusError, "", "Agent task failed", loopErr.Error())
	} else {
		task.Status = models.TaskStatusCompleted
		task.Result = r.result
		r.log.WithPayload(map[string]interface{}{"iterations": r.iter, "tokens_used": r.tokens}).Info("Agent task completed")
		e.publish(ctx, r, models.StatusFinished, "", "Agent task completed", r.result)
	}

	persistCtx := context.WithoutCancel(ctx)
	if err := e.store.FinishTask(persistCtx, task); err != nil {
		r.log.WithError(models.ErrorInfo{Message: err.Error(), Type: "database_error"}).Error("Failed to save agent task")
	}
	e.metrics.ObserveRun(string(task.Status), task.Iterations, task.TokensUsed)

	if e.transcripts != nil {
		t := &models.Transcript{
			TaskID:     task.ID,
			System:     r.system,
			Messages:   r.messages,
			Status:     task.Status,
			Iterations: task.Iterations,
			TokensUsed: task.TokensUsed,
			ArchivedAt: now,
		}
		if err := e.transcripts.SaveTranscript(persistCtx, t); err != nil {
			r.log.WithError(models.ErrorInfo{Message: err.Error(), Type: "mongo_error"}).Warn("Failed to archive transcript")
		}
	}

	return &RunResult{
		TaskID:     task.ID,
		Status:     task.Status,
		Result:     task.Result,
		Iterations: task.Iterations,
		TokensUsed: task.TokensUsed,
	}
}

func (e *Engine) publish(ctx context.Context, r *run, status models.TaskLogStatus, correlationID, message string, content interface{}) {
	if e.progress == nil {
		return
	}
	entry := &models.TaskLogEntry{
		TaskID:        r.task.ID,
		CorrelationID: correlationID,
		Iteration:     r.iter,
		Timestamp:     time.Now(),
		Status:        status,
		Message:       message,
		Content:       content,
	}
	if err := e.progress.LogTaskProgress(ctx, entry); err != nil {
		r.log.WithError(models.ErrorInfo{Message: err.Error(), Type: "kafka_error"}).Warn("Failed to send task log to kafka")
	}
}
