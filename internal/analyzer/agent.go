package analyzer

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/SofiaKung/redflag/internal/llm"
	"github.com/SofiaKung/redflag/internal/tools"
)

// Protocol failures, fatal to the current analysis request.
var (
	ErrModelEndpoint    = errors.New("model endpoint call failed")
	ErrMaxTurnsExceeded = errors.New("agent loop exceeded maximum turns")
)

const maxToolOutputBytes = 8000

type agentOutcome struct {
	text    string
	results map[string]tools.Result
	turns   int
	usage   llm.Usage
}

// runAgentLoop drives the bounded multi-turn exchange. Each turn either
// yields final text (done) or a batch of tool calls, which all execute
// concurrently before their outputs are sent back chained on the previous
// interaction id. Exhausting the turn budget is a hard failure, never a
// partial answer.
func (a *Analyzer) runAgentLoop(ctx context.Context, initial llm.Request) (*agentOutcome, error) {
	results := make(map[string]tools.Result)
	var usage llm.Usage
	current := initial

	for turn := 1; turn <= a.cfg.MaxTurns; turn++ {
		resp, err := a.provider.Generate(ctx, current)
		if err != nil {
			return nil, fmt.Errorf("%w: turn %d: %v", ErrModelEndpoint, turn, err)
		}
		usage.Add(resp.Usage)

		if len(resp.ToolCalls) == 0 {
			slog.Info("agent loop done", "turns", turn, "tools_run", len(results))
			return &agentOutcome{text: resp.Text, results: results, turns: turn, usage: usage}, nil
		}

		slog.Info("executing tool calls", "turn", turn, "count", len(resp.ToolCalls))
		outputs := a.executeToolCalls(ctx, resp.ToolCalls, results)

		current = llm.Request{
			Model:           current.Model,
			Tools:           current.Tools,
			PreviousID:      resp.ID,
			ToolOutputs:     outputs,
			MaxOutputTokens: current.MaxOutputTokens,
			Store:           true,
		}
	}

	return nil, ErrMaxTurnsExceeded
}

// executeToolCalls fans the batch out concurrently and collects every output
// in request order. Results are merged into the accumulated map keyed by
// tool name; a duplicate call for the same tool overwrites the previous
// result but the tool stays recorded as having run.
func (a *Analyzer) executeToolCalls(ctx context.Context, calls []llm.ToolCall, results map[string]tools.Result) []llm.ToolOutput {
	outputs := make([]llm.ToolOutput, len(calls))
	var wg sync.WaitGroup
	var mu sync.Mutex

	for i, call := range calls {
		wg.Add(1)
		go func(i int, call llm.ToolCall) {
			defer wg.Done()
			res := a.registry.Execute(ctx, call.Name, call.Arguments)

			mu.Lock()
			results[call.Name] = res
			mu.Unlock()

			outputs[i] = llm.ToolOutput{CallID: call.CallID, Output: encodeToolResult(res)}
		}(i, call)
	}
	wg.Wait()
	return outputs
}

func encodeToolResult(res tools.Result) string {
	raw, err := json.Marshal(res)
	if err != nil {
		return fmt.Sprintf(`{"name":%q,"error":"failed to encode tool output"}`, res.Name)
	}
	out := string(raw)
	if len(out) > maxToolOutputBytes {
		out = out[:maxToolOutputBytes] + "\n[truncated]"
	}
	return out
}
