package llm

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
	"github.com/openai/openai-go/responses"
	"github.com/openai/openai-go/shared"

	"github.com/SofiaKung/redflag/internal/config"
)

// OpenAI implements Provider on the Responses API, which carries the
// interaction-id chaining and store semantics the agent loop relies on.
type OpenAI struct {
	client openai.Client
	model  string
}

func NewOpenAI(cfg *config.OpenAIConfig) *OpenAI {
	opts := []option.RequestOption{option.WithAPIKey(cfg.APIKey)}
	if cfg.APIEndpoint != "" {
		opts = append(opts, option.WithBaseURL(cfg.APIEndpoint))
	}
	return &OpenAI{
		client: openai.NewClient(opts...),
		model:  cfg.Model,
	}
}

func (o *OpenAI) Generate(ctx context.Context, req Request) (*Response, error) {
	model := req.Model
	if model == "" {
		model = o.model
	}

	params := responses.ResponseNewParams{
		Model: shared.ResponsesModel(model),
		Store: openai.Bool(req.Store),
	}
	if req.Instructions != "" {
		params.Instructions = openai.String(req.Instructions)
	}
	if req.PreviousID != "" {
		params.PreviousResponseID = openai.String(req.PreviousID)
	}
	if req.MaxOutputTokens > 0 {
		params.MaxOutputTokens = openai.Int(req.MaxOutputTokens)
	}
	for _, d := range req.Tools {
		params.Tools = append(params.Tools, responses.ToolUnionParam{
			OfFunction: &responses.FunctionToolParam{
				Name:        d.Name,
				Description: openai.String(d.Description),
				Parameters:  d.Parameters,
				Strict:      openai.Bool(false),
			},
		})
	}
	params.Input = buildInput(req)

	resp, err := o.client.Responses.New(ctx, params)
	if err != nil {
		return nil, fmt.Errorf("responses API call: %w", err)
	}

	out := &Response{
		ID: resp.ID,
		Usage: Usage{
			InputTokens:  resp.Usage.InputTokens,
			OutputTokens: resp.Usage.OutputTokens,
			TotalTokens:  resp.Usage.TotalTokens,
		},
	}
	for _, item := range resp.Output {
		switch item.Type {
		case "function_call":
			fc := item.AsFunctionCall()
			out.ToolCalls = append(out.ToolCalls, ToolCall{
				CallID:    fc.CallID,
				Name:      fc.Name,
				Arguments: json.RawMessage(fc.Arguments),
			})
		case "message":
			msg := item.AsMessage()
			for _, content := range msg.Content {
				if content.Type == "output_text" {
					out.Text += content.Text
				}
			}
		}
	}
	return out, nil
}

// buildInput assembles either the turn-1 user message (text plus optional
// inline images) or the continuation input of executed tool outputs.
func buildInput(req Request) responses.ResponseNewParamsInputUnion {
	if req.PreviousID != "" {
		var items responses.ResponseInputParam
		for _, to := range req.ToolOutputs {
			items = append(items, responses.ResponseInputItemParamOfFunctionCallOutput(to.CallID, to.Output))
		}
		return responses.ResponseNewParamsInputUnion{OfInputItemList: items}
	}

	if len(req.Images) == 0 {
		return responses.ResponseNewParamsInputUnion{OfString: openai.String(req.Text)}
	}

	content := responses.ResponseInputMessageContentListParam{
		responses.ResponseInputContentUnionParam{
			OfInputText: &responses.ResponseInputTextParam{Text: req.Text},
		},
	}
	for _, img := range req.Images {
		dataURL := fmt.Sprintf("data:%s;base64,%s", img.MimeType, base64.StdEncoding.EncodeToString(img.Data))
		content = append(content, responses.ResponseInputContentUnionParam{
			OfInputImage: &responses.ResponseInputImageParam{
				ImageURL: openai.String(dataURL),
				Detail:   responses.ResponseInputImageDetailAuto,
			},
		})
	}
	items := responses.ResponseInputParam{
		responses.ResponseInputItemUnionParam{
			OfMessage: &responses.EasyInputMessageParam{
				Role: responses.EasyInputMessageRoleUser,
				Content: responses.EasyInputMessageContentUnionParam{
					OfInputItemContentList: content,
				},
			},
		},
	}
	return responses.ResponseNewParamsInputUnion{OfInputItemList: items}
}
