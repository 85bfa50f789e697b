// Package tools declares the intelligence lookups as callable tools and
// dispatches model-requested calls to their implementations. A failing or
// unknown tool becomes an error-tagged result, never a panic or an aborted
// turn.
package tools

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/SofiaKung/redflag/internal/domainutil"
	"github.com/SofiaKung/redflag/internal/intel"
	"github.com/SofiaKung/redflag/internal/llm"
)

// Tool names, also used as evidence check keys by the analyzer.
const (
	ToolLookupNetwork      = "lookup_network"
	ToolLookupRegistration = "lookup_registration"
	ToolCheckSafeBrowsing  = "check_safe_browsing"
	ToolDetectHomograph    = "detect_homograph"
)

// Result is one executed tool call. Payload carries the typed lookup record
// on success; Err carries the failure marker otherwise.
type Result struct {
	Name    string `json:"name"`
	Payload any    `json:"payload,omitempty"`
	Err     string `json:"error,omitempty"`
}

func (r Result) Failed() bool { return r.Err != "" }

type handler func(ctx context.Context, args json.RawMessage) (any, error)

type tool struct {
	declaration llm.ToolDeclaration
	run         handler
}

// Registry is the static name → {declaration, implementation} table. Built
// once at startup, read-only afterwards.
type Registry struct {
	tools map[string]tool
	order []string
}

// Argument shapes, one per declared tool.
type networkArgs struct {
	Hostname string `json:"hostname"`
}

type registrationArgs struct {
	Domain string `json:"domain"`
}

type safeBrowsingArgs struct {
	URL string `json:"url"`
}

type homographArgs struct {
	Hostname string `json:"hostname"`
}

func NewRegistry(client *intel.Client) *Registry {
	r := &Registry{tools: map[string]tool{}}

	r.register(llm.ToolDeclaration{
		Name:        ToolLookupNetwork,
		Description: "Resolve a hostname to its IP address via DNS and look up the server's country, city and ISP.",
		Parameters:  objectSchema(map[string]any{"hostname": stringParam("hostname to resolve, without scheme or path")}, "hostname"),
	}, func(ctx context.Context, raw json.RawMessage) (any, error) {
		var args networkArgs
		if err := json.Unmarshal(raw, &args); err != nil {
			return nil, fmt.Errorf("invalid arguments: %w", err)
		}
		return client.ResolveNetwork(ctx, args.Hostname), nil
	})

	r.register(llm.ToolDeclaration{
		Name:        ToolLookupRegistration,
		Description: "Look up domain registration metadata (age, registrar, registrant identity and contact details) via RDAP with WHOIS fallback.",
		Parameters:  objectSchema(map[string]any{"domain": stringParam("registrable domain, e.g. example.com")}, "domain"),
	}, func(ctx context.Context, raw json.RawMessage) (any, error) {
		var args registrationArgs
		if err := json.Unmarshal(raw, &args); err != nil {
			return nil, fmt.Errorf("invalid arguments: %w", err)
		}
		rec := client.LookupRegistration(ctx, domainutil.CanonicalDomain(args.Domain))
		if rec == nil {
			return map[string]any{"found": false}, nil
		}
		return rec, nil
	})

	r.register(llm.ToolDeclaration{
		Name:        ToolCheckSafeBrowsing,
		Description: "Check a URL against threat lists for malware, social engineering, unwanted software and potentially harmful applications.",
		Parameters:  objectSchema(map[string]any{"url": stringParam("full URL to check, including scheme")}, "url"),
	}, func(ctx context.Context, raw json.RawMessage) (any, error) {
		var args safeBrowsingArgs
		if err := json.Unmarshal(raw, &args); err != nil {
			return nil, fmt.Errorf("invalid arguments: %w", err)
		}
		return client.CheckSafeBrowsing(ctx, args.URL), nil
	})

	r.register(llm.ToolDeclaration{
		Name:        ToolDetectHomograph,
		Description: "Detect hostname spoofing tricks: punycode encoding, confusable-script characters, zero-width characters and mixed scripts.",
		Parameters:  objectSchema(map[string]any{"hostname": stringParam("hostname to classify")}, "hostname"),
	}, func(_ context.Context, raw json.RawMessage) (any, error) {
		var args homographArgs
		if err := json.Unmarshal(raw, &args); err != nil {
			return nil, fmt.Errorf("invalid arguments: %w", err)
		}
		return domainutil.DetectHomograph(args.Hostname), nil
	})

	return r
}

func (r *Registry) register(decl llm.ToolDeclaration, run handler) {
	r.tools[decl.Name] = tool{declaration: decl, run: run}
	r.order = append(r.order, decl.Name)
}

// Declarations returns the tool declarations in registration order.
func (r *Registry) Declarations() []llm.ToolDeclaration {
	decls := make([]llm.ToolDeclaration, 0, len(r.order))
	for _, name := range r.order {
		decls = append(decls, r.tools[name].declaration)
	}
	return decls
}

// Execute dispatches a tool call by name. Unknown names and implementation
// errors come back as error-tagged results.
func (r *Registry) Execute(ctx context.Context, name string, args json.RawMessage) Result {
	t, ok := r.tools[name]
	if !ok {
		slog.Warn("unknown tool requested", "tool", name)
		return Result{Name: name, Err: fmt.Sprintf("unknown tool %q", name)}
	}
	payload, err := t.run(ctx, args)
	if err != nil {
		slog.Warn("tool execution failed", "tool", name, "error", err)
		return Result{Name: name, Err: err.Error()}
	}
	return Result{Name: name, Payload: payload}
}

func objectSchema(properties map[string]any, required ...string) map[string]any {
	return map[string]any{
		"type":       "object",
		"properties": properties,
		"required":   required,
	}
}

func stringParam(description string) map[string]any {
	return map[string]any{"type": "string", "description": description}
}
