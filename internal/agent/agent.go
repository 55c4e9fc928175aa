// Package agent drives the Anthropic Messages API with a typed tool registry:
// the model's tool_use blocks are dispatched through the registry and their
// results relayed back until the model produces a final text reply.
package agent

import (
	"context"
	"fmt"
)

// Agent is an LLM conversation driver with tools.
type Agent struct {
	apiClient *APIClient
	registry  *ToolRegistry
}

// Config configures an Agent.
type Config struct {
	APIKey      string
	Model       string
	Temperature float64
}

// Input is one conversation to run. System carries the (possibly evolving)
// system prompt; MaxTurns bounds the tool-use relay loop.
type Input struct {
	Messages []Message
	System   string
	MaxTurns int
}

// Output is the result of a conversation run.
type Output struct {
	FinalText    string
	ToolCalls    []ToolCall
	Conversation []Message
	Usage        UsageStats
}

// New creates an Agent.
func New(cfg Config) *Agent {
	return &Agent{
		apiClient: NewAPIClient(cfg.APIKey, cfg.Model, cfg.Temperature),
		registry:  NewToolRegistry(),
	}
}

// RegisterTool adds a tool to the agent.
func (a *Agent) RegisterTool(tool Tool, handler ToolHandler) error {
	return a.registry.Register(tool, handler)
}

// MustRegisterTool adds a tool and panics on error.
func (a *Agent) MustRegisterTool(tool Tool, handler ToolHandler) {
	a.registry.MustRegister(tool, handler)
}

// Tools returns all registered tools.
func (a *Agent) Tools() []Tool {
	return a.registry.Tools()
}

// IsConfigured returns true if the underlying API client has a key.
func (a *Agent) IsConfigured() bool {
	return a.apiClient != nil && a.apiClient.IsConfigured()
}

// Execute runs one conversation, relaying tool results back to the model
// until it stops requesting tools or MaxTurns is reached.
func (a *Agent) Execute(ctx context.Context, input Input) (*Output, error) {
	maxTurns := input.MaxTurns
	if maxTurns <= 0 {
		maxTurns = 1
	}

	messages := make([]Message, len(input.Messages))
	copy(messages, input.Messages)

	var totalUsage UsageStats
	var allToolCalls []ToolCall

	for turn := 0; turn < maxTurns; turn++ {
		response, err := a.apiClient.Call(ctx, messages, CallOptions{
			System: input.System,
			Tools:  a.registry.Tools(),
		})
		if err != nil {
			return nil, fmt.Errorf("API call failed on turn %d: %w", turn+1, err)
		}
		totalUsage.Add(response.Usage)

		switch response.StopReason {
		case "end_turn", "max_tokens":
			return &Output{
				FinalText:    extractFinalText(response.Content),
				ToolCalls:    allToolCalls,
				Conversation: messages,
				Usage:        totalUsage,
			}, nil

		case "tool_use":
			messages = append(messages, Message{Role: "assistant", Content: response.Content})

			toolResults, toolCalls := a.executeTools(ctx, response.Content)
			allToolCalls = append(allToolCalls, toolCalls...)

			messages = append(messages, Message{Role: "user", Content: toolResults})
			continue

		default:
			return nil, fmt.Errorf("unexpected stop reason: %s", response.StopReason)
		}
	}

	return &Output{
		ToolCalls:    allToolCalls,
		Conversation: messages,
		Usage:        totalUsage,
	}, fmt.Errorf("max turns (%d) exceeded", maxTurns)
}

// executeTools runs all tool_use blocks and collects tool_result blocks. A
// handler error becomes an is_error result for the model, never a crash.
func (a *Agent) executeTools(ctx context.Context, content []ContentBlock) ([]ContentBlock, []ToolCall) {
	var results []ContentBlock
	var calls []ToolCall

	for _, block := range content {
		toolUse, ok := block.(ToolUseBlock)
		if !ok {
			continue
		}

		output, err := a.registry.Execute(ctx, toolUse.Name, toolUse.Input)
		if err != nil {
			fmt.Printf("[AGENT] Tool %s failed: %v\n", toolUse.Name, err)
		}

		calls = append(calls, ToolCall{
			Name:   toolUse.Name,
			Input:  toolUse.Input,
			Output: output,
			Error:  err,
		})

		resultBlock := ToolResultBlock{
			Type:      "tool_result",
			ToolUseID: toolUse.ID,
			Content:   output,
			IsError:   err != nil,
		}
		if err != nil {
			resultBlock.Content = err.Error()
		}
		results = append(results, resultBlock)
	}

	return results, calls
}

func extractFinalText(content []ContentBlock) string {
	for _, block := range content {
		if text, ok := block.(TextBlock); ok {
			return text.Text
		}
	}
	return ""
}
