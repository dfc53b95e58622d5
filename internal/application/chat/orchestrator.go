package chat

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"

	"z-llm-chat-api/internal/config"
	"z-llm-chat-api/internal/domain/entity"
	"z-llm-chat-api/internal/domain/repository"
	"z-llm-chat-api/internal/infrastructure/llm"
	apperrors "z-llm-chat-api/pkg/errors"
	"z-llm-chat-api/pkg/logger"
	"z-llm-chat-api/pkg/metrics"
)

var tracer = otel.Tracer("chat")

// maxContextMessages 提示词上下文携带的历史消息上限
const maxContextMessages = 20

// ProviderManager 上游提供商的统一调用入口
type ProviderManager interface {
	Chat(ctx context.Context, providerName string, req *llm.ChatRequest) (*llm.ChatResponse, string, error)
	ChatStream(ctx context.Context, providerName string, req *llm.ChatRequest) (<-chan llm.StreamEvent, string, error)
}

// StreamRequest 一次流式对话请求
type StreamRequest struct {
	UserID         string
	ConversationID string
	Message        string
	ModelID        string
}

// Orchestrator 流式对话编排器。
// 负责请求校验、会话与模型解析、事件转发、用量结算和落库。
type Orchestrator struct {
	manager        ProviderManager
	tx             repository.Transactor
	users          repository.UserRepository
	conversations  repository.ConversationRepository
	messages       repository.MessageRepository
	models         repository.ModelRepository
	usages         repository.UsageRepository
	defaultModelID string
}

// NewOrchestrator 创建编排器
func NewOrchestrator(
	manager ProviderManager,
	tx repository.Transactor,
	users repository.UserRepository,
	conversations repository.ConversationRepository,
	messages repository.MessageRepository,
	models repository.ModelRepository,
	usages repository.UsageRepository,
	cfg *config.LLMConfig,
) *Orchestrator {
	return &Orchestrator{
		manager:        manager,
		tx:             tx,
		users:          users,
		conversations:  conversations,
		messages:       messages,
		models:         models,
		usages:         usages,
		defaultModelID: cfg.DefaultModel,
	}
}

// StreamChat 处理一次流式对话。帧通过 sink 推送给调用方，
// sink 返回 false 表示客户端断开，停止转发但仍持久化已累计内容；
// ctx 取消则立即终止且不做任何助手侧持久化。
// 助手消息、用量流水和会话时间戳仅在流正常结束且内容非空时原子写入。
func (o *Orchestrator) StreamChat(ctx context.Context, req *StreamRequest, sink Sink) error {
	ctx, span := tracer.Start(ctx, "orchestrator.StreamChat")
	defer span.End()

	metrics.ChatActiveStreams.Inc()
	defer metrics.ChatActiveStreams.Dec()
	started := time.Now()

	message := strings.TrimSpace(req.Message)
	if message == "" {
		return o.fail(ctx, sink, apperrors.New(apperrors.CodeInvalidParam, "message must not be empty"))
	}

	conversation, history, isNew, err := o.resolveConversation(ctx, req)
	if err != nil {
		return o.fail(ctx, sink, err)
	}
	span.SetAttributes(attribute.String("conversation.id", conversation.ID))

	model, err := o.resolveModel(ctx, req)
	if err != nil {
		return o.fail(ctx, sink, err)
	}
	span.SetAttributes(
		attribute.String("llm.model", model.ModelID),
		attribute.String("llm.provider", model.Provider),
	)

	// 用户消息立即落库，与助手侧成败无关
	userMsg := entity.NewUserMessage(conversation.ID, message)
	userMsg.ID = uuid.NewString()
	if err := o.messages.Create(ctx, userMsg); err != nil {
		return o.fail(ctx, sink, apperrors.Wrap(err, apperrors.CodeDatabaseError, "failed to save user message"))
	}

	relaying := sink(Frame{Type: FrameStart, Data: StartPayload{
		ConversationID: conversation.ID,
		Model:          model.ModelID,
		Provider:       model.Provider,
	}})

	prompt := buildPrompt(history, message)
	events, _, err := o.manager.ChatStream(ctx, model.Provider, &llm.ChatRequest{
		Messages: prompt,
		Model:    model.ModelID,
	})
	if err != nil {
		return o.fail(ctx, sink, err)
	}

	var (
		content     string
		reported    *llm.Usage
		sawTerminal bool
	)

relay:
	for {
		if ctx.Err() != nil {
			logger.Info(ctx, "对话流被取消", "conversation_id", conversation.ID)
			return ctx.Err()
		}
		select {
		case <-ctx.Done():
			// 主动取消：立即退出，不做任何助手侧持久化
			logger.Info(ctx, "对话流被取消", "conversation_id", conversation.ID)
			return ctx.Err()
		case ev, ok := <-events:
			if !ok {
				break relay
			}
			switch ev.Type {
			case llm.EventContent:
				// 累计全文覆盖，增量追加
				if ev.Content != "" {
					content = ev.Content
				} else {
					content += ev.Delta
				}
				if relaying {
					metrics.ChatStreamEventsTotal.WithLabelValues("content").Inc()
					if !sink(Frame{Type: FrameContent, Data: ContentPayload{
						Delta:   ev.Delta,
						Content: ev.Content,
					}}) {
						// 客户端断开：停止转发，保留已累计的内容
						relaying = false
						break relay
					}
				}
			case llm.EventDone:
				if ev.Usage != nil {
					reported = ev.Usage
				}
				sawTerminal = true
				break relay
			case llm.EventError:
				sawTerminal = true
				return o.failIf(ctx, relaying, sink,
					apperrors.Wrap(ev.Err, apperrors.CodeUpstreamStream, "upstream stream failed"))
			}
		}
	}

	// 校验：流正常结束且有内容才进入持久化
	if !sawTerminal && relaying {
		return o.fail(ctx, sink, apperrors.New(apperrors.CodeUpstreamStream, "stream ended without a terminal event"))
	}
	if strings.TrimSpace(content) == "" {
		return o.failIf(ctx, relaying, sink, apperrors.New(apperrors.CodeEmptyCompletion, "model returned empty completion"))
	}

	// 客户端断开后仍需完成落库，脱离请求级取消
	persistCtx := context.WithoutCancel(ctx)
	usage := ComputeUsage(persistCtx, reported, promptText(prompt), content, model)

	if relaying {
		metrics.ChatStreamEventsTotal.WithLabelValues("complete").Inc()
		relaying = sink(Frame{Type: FrameComplete, Data: CompletePayload{
			InputTokens:  usage.InputTokens,
			OutputTokens: usage.OutputTokens,
			TotalTokens:  usage.TotalTokens,
			Cost:         usage.Cost,
		}})
	}

	assistant := entity.NewAssistantMessage(conversation.ID, content, model.ModelID, model.Provider)
	assistant.ID = uuid.NewString()
	assistant.InputTokens = usage.InputTokens
	assistant.OutputTokens = usage.OutputTokens
	assistant.Cost = usage.Cost

	err = o.tx.WithTransaction(persistCtx, func(txCtx context.Context) error {
		if err := o.messages.Create(txCtx, assistant); err != nil {
			return err
		}
		entry := &entity.UsageLedgerEntry{
			ID:             uuid.NewString(),
			UserID:         req.UserID,
			ConversationID: conversation.ID,
			MessageID:      assistant.ID,
			Provider:       model.Provider,
			Model:          model.ModelID,
			InputTokens:    usage.InputTokens,
			OutputTokens:   usage.OutputTokens,
			TotalTokens:    usage.TotalTokens,
			Cost:           usage.Cost,
			DurationMs:     int(time.Since(started).Milliseconds()),
		}
		if err := o.usages.Create(txCtx, entry); err != nil {
			return err
		}
		return o.conversations.TouchLastMessage(txCtx, conversation.ID)
	})
	if err != nil {
		return o.failIf(ctx, relaying, sink, apperrors.Wrap(err, apperrors.CodePersistence, "failed to persist chat exchange"))
	}

	metrics.LLMTokensUsed.WithLabelValues(model.Provider, model.ModelID, "prompt").Add(float64(usage.InputTokens))
	metrics.LLMTokensUsed.WithLabelValues(model.Provider, model.ModelID, "completion").Add(float64(usage.OutputTokens))
	metrics.ChatCostTotal.WithLabelValues(model.Provider, model.ModelID).Add(usage.Cost)

	if relaying {
		metrics.ChatStreamEventsTotal.WithLabelValues("done").Inc()
		sink(Frame{Type: FrameDone, Data: DonePayload{
			ConversationID: conversation.ID,
			Usage:          usage,
		}})
	}

	// 新会话异步生成标题，失败只记日志
	if isNew {
		o.generateTitleAsync(conversation.ID, message, model)
	}

	logger.Info(ctx, "对话流处理完成",
		"conversation_id", conversation.ID,
		"model", model.ModelID,
		"total_tokens", usage.TotalTokens,
		"duration_ms", time.Since(started).Milliseconds(),
	)
	return nil
}

// resolveConversation 加载请求指定的会话或创建新会话
func (o *Orchestrator) resolveConversation(ctx context.Context, req *StreamRequest) (*entity.Conversation, []*entity.Message, bool, error) {
	if req.ConversationID != "" {
		conversation, err := o.conversations.GetByIDForUser(ctx, req.ConversationID, req.UserID)
		if err != nil {
			return nil, nil, false, apperrors.Wrap(err, apperrors.CodeDatabaseError, "failed to load conversation")
		}
		if conversation == nil {
			return nil, nil, false, apperrors.New(apperrors.CodeConversationNotFound, "conversation not found")
		}
		history, err := o.messages.ListRecent(ctx, conversation.ID, maxContextMessages)
		if err != nil {
			return nil, nil, false, apperrors.Wrap(err, apperrors.CodeDatabaseError, "failed to load history")
		}
		return conversation, history, false, nil
	}

	conversation := entity.NewConversation(req.UserID)
	conversation.ID = uuid.NewString()
	if err := o.conversations.Create(ctx, conversation); err != nil {
		return nil, nil, false, apperrors.Wrap(err, apperrors.CodeDatabaseError, "failed to create conversation")
	}
	return conversation, nil, true, nil
}

// resolveModel 依次尝试：请求指定的模型、用户偏好模型、
// 配置的默认模型、任意一个激活模型
func (o *Orchestrator) resolveModel(ctx context.Context, req *StreamRequest) (*entity.LLMModel, error) {
	if req.ModelID != "" {
		model, err := o.models.GetByModelID(ctx, req.ModelID)
		if err != nil {
			return nil, apperrors.Wrap(err, apperrors.CodeDatabaseError, "failed to resolve model")
		}
		if model != nil {
			return model, nil
		}
	}

	if req.UserID != "" {
		user, err := o.users.GetByID(ctx, req.UserID)
		if err != nil {
			return nil, apperrors.Wrap(err, apperrors.CodeDatabaseError, "failed to load user")
		}
		if user != nil && user.PreferredModelID != "" {
			model, err := o.models.GetByModelID(ctx, user.PreferredModelID)
			if err != nil {
				return nil, apperrors.Wrap(err, apperrors.CodeDatabaseError, "failed to resolve model")
			}
			if model != nil {
				return model, nil
			}
		}
	}

	if o.defaultModelID != "" {
		model, err := o.models.GetByModelID(ctx, o.defaultModelID)
		if err != nil {
			return nil, apperrors.Wrap(err, apperrors.CodeDatabaseError, "failed to resolve model")
		}
		if model != nil {
			return model, nil
		}
	}

	model, err := o.models.GetFirstActive(ctx)
	if err != nil {
		return nil, apperrors.Wrap(err, apperrors.CodeDatabaseError, "failed to resolve model")
	}
	if model == nil {
		return nil, apperrors.New(apperrors.CodeInternalError, "no active model configured")
	}
	return model, nil
}

// buildPrompt 将历史消息与新消息组装为提示词上下文
func buildPrompt(history []*entity.Message, message string) []llm.ChatMessage {
	prompt := make([]llm.ChatMessage, 0, len(history)+1)
	for _, msg := range history {
		prompt = append(prompt, llm.ChatMessage{
			Role:    string(msg.Role),
			Content: msg.Content,
		})
	}
	prompt = append(prompt, llm.ChatMessage{
		Role:    llm.RoleUser,
		Content: message,
	})
	return prompt
}

// promptText 拼接提示词全文，用于 token 估算
func promptText(prompt []llm.ChatMessage) string {
	var b strings.Builder
	for _, msg := range prompt {
		b.WriteString(msg.Content)
	}
	return b.String()
}

// fail 记录失败，向客户端发出 error 帧并返回原错误
func (o *Orchestrator) fail(ctx context.Context, sink Sink, err error) error {
	return o.failIf(ctx, true, sink, err)
}

// failIf 同 fail，但客户端已断开时不再发帧
func (o *Orchestrator) failIf(ctx context.Context, relaying bool, sink Sink, err error) error {
	appErr := apperrors.AsAppError(err)
	logger.Error(ctx, "对话流处理失败", err, "code", string(appErr.Code))
	metrics.ChatStreamEventsTotal.WithLabelValues("error").Inc()
	if relaying {
		sink(Frame{Type: FrameError, Data: ErrorPayload{Error: appErr.Message}})
	}
	return err
}
