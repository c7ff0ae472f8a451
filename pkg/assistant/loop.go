package assistant

import (
	"context"
	"encoding/json"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"
)

// ToolHandler executes one tool call and returns the result payload handed
// back to the model.
type ToolHandler func(ctx context.Context, input json.RawMessage) (string, error)

// Toolbox binds tool declarations to their handlers. Registration order is
// the order tools are offered to the model.
type Toolbox struct {
	tools    []Tool
	handlers map[string]ToolHandler
}

// NewToolbox returns an empty toolbox.
func NewToolbox() *Toolbox {
	return &Toolbox{handlers: map[string]ToolHandler{}}
}

// Register adds a tool. Re-registering a name replaces its handler but keeps
// the original position.
func (tb *Toolbox) Register(tool Tool, handler ToolHandler) {
	if _, exists := tb.handlers[tool.Name]; !exists {
		tb.tools = append(tb.tools, tool)
	}
	tb.handlers[tool.Name] = handler
}

// Tools returns the declarations in registration order.
func (tb *Toolbox) Tools() []Tool {
	return tb.tools
}

// Call dispatches one tool invocation.
func (tb *Toolbox) Call(ctx context.Context, name string, input json.RawMessage) (string, error) {
	handler, ok := tb.handlers[name]
	if !ok {
		return "", eris.Errorf("assistant: unknown tool %q", name)
	}
	return handler(ctx, input)
}

// Config bounds one assistant conversation.
type Config struct {
	Model     string
	MaxTokens int64
	MaxRounds int
}

// Assistant runs question conversations against the model, executing tool
// calls between rounds.
type Assistant struct {
	client  Client
	toolbox *Toolbox
	cfg     Config
}

// New creates an assistant over the given client and toolbox.
func New(client Client, toolbox *Toolbox, cfg Config) *Assistant {
	if cfg.MaxRounds <= 0 {
		cfg.MaxRounds = 8
	}
	if cfg.MaxTokens <= 0 {
		cfg.MaxTokens = 4096
	}
	return &Assistant{client: client, toolbox: toolbox, cfg: cfg}
}

// Ask sends the question and loops while the model requests tools, feeding
// each result back as a tool_result turn. It returns the model's final text
// once it stops calling tools. A handler error is reported to the model as
// the tool's result rather than aborting the conversation.
func (a *Assistant) Ask(ctx context.Context, system []SystemBlock, question string) (string, error) {
	messages := []Message{UserText(question)}

	for round := 1; round <= a.cfg.MaxRounds; round++ {
		resp, err := a.client.CreateMessage(ctx, MessageRequest{
			Model:     a.cfg.Model,
			MaxTokens: a.cfg.MaxTokens,
			System:    system,
			Messages:  messages,
			Tools:     a.toolbox.Tools(),
		})
		if err != nil {
			return "", eris.Wrapf(err, "assistant: round %d", round)
		}

		resp.Usage.LogCost(a.cfg.Model, "ask")
		messages = append(messages, Message{Role: "assistant", Blocks: resp.Blocks})

		if resp.StopReason != "tool_use" {
			return resp.Text(), nil
		}

		results := Message{Role: "user"}
		for _, b := range resp.Blocks {
			if b.Type != "tool_use" {
				continue
			}

			zap.L().Debug("assistant tool call",
				zap.Int("round", round),
				zap.String("tool", b.ToolName),
			)

			output, err := a.toolbox.Call(ctx, b.ToolName, b.ToolInput)
			if err != nil {
				zap.L().Warn("assistant tool failed",
					zap.String("tool", b.ToolName),
					zap.Error(err),
				)
				output = "tool error: " + err.Error()
			}
			results.Blocks = append(results.Blocks, Block{
				Type:   "tool_result",
				ToolID: b.ToolID,
				Text:   output,
			})
		}

		// A tool_use stop with no tool blocks would loop forever.
		if len(results.Blocks) == 0 {
			return resp.Text(), nil
		}
		messages = append(messages, results)
	}

	return "", eris.Errorf("assistant: no answer after %d rounds", a.cfg.MaxRounds)
}
