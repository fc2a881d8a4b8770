// Package mcp provides the MCP (Model Context Protocol) server for prefill.
//
// Tools let an assistant browse the forms of the loaded blueprint, list the
// prefill candidates of a target form and record mappings. The server speaks
// line-delimited JSON-RPC on stdio through Run, and the same tools are
// registered with the go-sdk server for use through Serve.
package mcp

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/google/jsonschema-go/jsonschema"
	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/Benny93/prefill-go/internal/graph"
	"github.com/Benny93/prefill-go/internal/prefill"
)

// Version is reported to clients during initialization.
var Version = "0.1.0"

// Server represents the MCP server.
type Server struct {
	session Session
	server  *mcp.Server
}

// Session is the prefill surface the server operates on.
type Session interface {
	Model() *graph.Model
	Forms() []graph.Form
	FormByID(formID string) (graph.Form, bool)
	Candidates(formID string) []prefill.ProviderFields
	AvailableFields(kind prefill.SourceKind, formID string) ([]prefill.FieldOption, error)
	MapField(ctx context.Context, formID, targetFieldID string, kind prefill.SourceKind, sourceID, sourceFieldID string) (prefill.Mapping, error)
	RemoveMapping(ctx context.Context, formID, fieldID string) error
	MappingsFor(formID string) map[string]prefill.Mapping
	Check() []prefill.StaleMapping
	Store() *prefill.Store
}

// Tool represents an MCP tool.
type Tool struct {
	Name        string
	Description string
	InputSchema *jsonschema.Schema
}

// Resource represents an MCP resource.
type Resource struct {
	URI         string
	Name        string
	Description string
	MimeType    string
}

// NewServer creates a new MCP server.
func NewServer(session Session) *Server {
	s := &Server{
		session: session,
	}

	s.server = mcp.NewServer(&mcp.Implementation{
		Name:    "prefill",
		Version: Version,
	}, nil)

	s.registerTools()
	s.registerResources()

	return s
}

// ListTools returns all registered tools.
func (s *Server) ListTools() []Tool {
	formID := &jsonschema.Schema{Type: "string", Description: "Target form id (the form's component id)"}

	return []Tool{
		{
			Name:        "prefill_forms",
			Description: "List the forms of the loaded blueprint with their fields and how many are already mapped.",
			InputSchema: &jsonschema.Schema{
				Type:       "object",
				Properties: map[string]*jsonschema.Schema{},
			},
		},
		{
			Name:        "prefill_sources",
			Description: "List every prefill candidate for a target form, grouped by source: direct dependencies, transitive dependencies and global properties.",
			InputSchema: &jsonschema.Schema{
				Type: "object",
				Properties: map[string]*jsonschema.Schema{
					"form_id": formID,
				},
				Required: []string{"form_id"},
			},
		},
		{
			Name:        "prefill_fields",
			Description: "Search the candidates one source offers for a target form.",
			InputSchema: &jsonschema.Schema{
				Type: "object",
				Properties: map[string]*jsonschema.Schema{
					"form_id": formID,
					"kind":    {Type: "string", Description: "Source kind", Enum: []any{"direct", "transitive", "global"}},
					"query":   {Type: "string", Description: "Optional search text matched against field ids, labels and form names"},
				},
				Required: []string{"form_id", "kind"},
			},
		},
		{
			Name:        "prefill_map",
			Description: "Prefill a target field from a candidate source field. The candidate must currently be offered by the given source kind.",
			InputSchema: &jsonschema.Schema{
				Type: "object",
				Properties: map[string]*jsonschema.Schema{
					"form_id":      formID,
					"field_id":     {Type: "string", Description: "Target field id"},
					"source_type":  {Type: "string", Description: "Source kind", Enum: []any{"direct", "transitive", "global"}},
					"source_id":    {Type: "string", Description: "Source form id, or global source id"},
					"source_field": {Type: "string", Description: "Source field id"},
				},
				Required: []string{"form_id", "field_id", "source_type", "source_id", "source_field"},
			},
		},
		{
			Name:        "prefill_unmap",
			Description: "Remove the prefill mapping of a target field.",
			InputSchema: &jsonschema.Schema{
				Type: "object",
				Properties: map[string]*jsonschema.Schema{
					"form_id":  formID,
					"field_id": {Type: "string", Description: "Target field id"},
				},
				Required: []string{"form_id", "field_id"},
			},
		},
		{
			Name:        "prefill_mappings",
			Description: "Show the stored prefill mappings of one form, or of every form when form_id is omitted.",
			InputSchema: &jsonschema.Schema{
				Type: "object",
				Properties: map[string]*jsonschema.Schema{
					"form_id": formID,
				},
			},
		},
		{
			Name:        "prefill_check",
			Description: "Report stored mappings whose source no longer matches the loaded blueprint.",
			InputSchema: &jsonschema.Schema{
				Type:       "object",
				Properties: map[string]*jsonschema.Schema{},
			},
		},
	}
}

// ListResources returns all registered resources.
func (s *Server) ListResources() []Resource {
	return []Resource{
		{
			URI:         "prefill://graph",
			Name:        "Blueprint Graph",
			Description: "The loaded blueprint: nodes, edges and forms",
			MimeType:    "application/json",
		},
		{
			URI:         "prefill://mappings",
			Name:        "Prefill Mappings",
			Description: "Every stored form configuration",
			MimeType:    "application/json",
		},
	}
}

// CallTool executes a tool with the given arguments.
func (s *Server) CallTool(ctx context.Context, name string, args map[string]any) (string, error) {
	str := func(key string) string {
		v, _ := args[key].(string)
		return v
	}

	switch name {
	case "prefill_forms":
		return handleForms(s.session), nil
	case "prefill_sources":
		return handleSources(s.session, str("form_id"))
	case "prefill_fields":
		return handleFields(s.session, str("form_id"), str("kind"), str("query"))
	case "prefill_map":
		return handleMap(ctx, s.session, str("form_id"), str("field_id"), str("source_type"), str("source_id"), str("source_field"))
	case "prefill_unmap":
		return handleUnmap(ctx, s.session, str("form_id"), str("field_id"))
	case "prefill_mappings":
		return handleMappings(s.session, str("form_id"))
	case "prefill_check":
		return handleCheck(s.session), nil
	default:
		return "", fmt.Errorf("unknown tool: %s", name)
	}
}

// ReadResource reads a resource by URI.
func (s *Server) ReadResource(ctx context.Context, uri string) (string, error) {
	switch uri {
	case "prefill://graph":
		return toJSON(s.session.Model().Document())
	case "prefill://mappings":
		return toJSON(s.session.Store().Configs())
	default:
		return "", fmt.Errorf("unknown resource: %s", uri)
	}
}

// Run starts the MCP server with stdio transport.
func (s *Server) Run(ctx context.Context, stdin io.Reader, stdout io.Writer) error {
	if stdin == nil || stdout == nil {
		return fmt.Errorf("stdin and stdout must not be nil")
	}

	reader := bufio.NewReader(stdin)
	encoder := json.NewEncoder(stdout)
	// Note: Do NOT use SetIndent - MCP protocol requires compact JSON (one line per message)

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		line, err := reader.ReadBytes('\n')
		if err == io.EOF {
			return nil
		}
		if err != nil {
			return err
		}

		var req map[string]any
		if err := json.Unmarshal(line, &req); err != nil {
			continue
		}

		// Notifications carry no id and get no response.
		if _, ok := req["id"]; !ok {
			continue
		}

		resp := s.handleRequest(ctx, req)
		if err := encoder.Encode(resp); err != nil {
			return err
		}
	}
}

// Serve runs the go-sdk server over the given transport until the client
// disconnects or ctx is cancelled.
func (s *Server) Serve(ctx context.Context, t mcp.Transport) error {
	return s.server.Run(ctx, t)
}

// SDK returns the underlying go-sdk server.
func (s *Server) SDK() *mcp.Server {
	return s.server
}

func (s *Server) handleRequest(ctx context.Context, req map[string]any) map[string]any {
	method, _ := req["method"].(string)
	id := req["id"]

	switch method {
	case "initialize":
		return s.handleInitialize(id)
	case "ping":
		return map[string]any{"jsonrpc": "2.0", "id": id, "result": map[string]any{}}
	case "tools/list":
		return s.handleToolsList(id)
	case "tools/call":
		return s.handleToolsCall(ctx, id, req)
	case "resources/list":
		return s.handleResourcesList(id)
	case "resources/read":
		return s.handleResourcesRead(ctx, id, req)
	default:
		return errorResponse(id, -32601, "Method not found: "+method)
	}
}

func (s *Server) handleInitialize(id any) map[string]any {
	return map[string]any{
		"jsonrpc": "2.0",
		"id":      id,
		"result": map[string]any{
			"protocolVersion": "2024-11-05",
			"serverInfo": map[string]any{
				"name":    "prefill",
				"version": Version,
			},
			"capabilities": map[string]any{
				"tools": map[string]any{
					"listChanged": false,
				},
				"resources": map[string]any{
					"listChanged": false,
				},
			},
		},
	}
}

func (s *Server) handleToolsList(id any) map[string]any {
	tools := s.ListTools()
	toolList := make([]map[string]any, len(tools))
	for i, tool := range tools {
		schema, _ := json.Marshal(tool.InputSchema)
		var schemaMap map[string]any
		_ = json.Unmarshal(schema, &schemaMap)

		toolList[i] = map[string]any{
			"name":        tool.Name,
			"description": tool.Description,
			"inputSchema": schemaMap,
		}
	}

	return map[string]any{
		"jsonrpc": "2.0",
		"id":      id,
		"result": map[string]any{
			"tools": toolList,
		},
	}
}

func (s *Server) handleToolsCall(ctx context.Context, id any, req map[string]any) map[string]any {
	params, _ := req["params"].(map[string]any)
	if params == nil {
		return errorResponse(id, -32602, "Invalid params")
	}

	name, _ := params["name"].(string)
	args, _ := params["arguments"].(map[string]any)

	result, err := s.CallTool(ctx, name, args)
	if err != nil {
		return errorResponse(id, -32000, err.Error())
	}

	return map[string]any{
		"jsonrpc": "2.0",
		"id":      id,
		"result": map[string]any{
			"content": []map[string]any{
				{
					"type": "text",
					"text": result,
				},
			},
		},
	}
}

func (s *Server) handleResourcesList(id any) map[string]any {
	resources := s.ListResources()
	resourceList := make([]map[string]any, len(resources))
	for i, res := range resources {
		resourceList[i] = map[string]any{
			"uri":         res.URI,
			"name":        res.Name,
			"description": res.Description,
			"mimeType":    res.MimeType,
		}
	}

	return map[string]any{
		"jsonrpc": "2.0",
		"id":      id,
		"result": map[string]any{
			"resources": resourceList,
		},
	}
}

func (s *Server) handleResourcesRead(ctx context.Context, id any, req map[string]any) map[string]any {
	params, _ := req["params"].(map[string]any)
	if params == nil {
		return errorResponse(id, -32602, "Invalid params")
	}

	uri, _ := params["uri"].(string)

	content, err := s.ReadResource(ctx, uri)
	if err != nil {
		return errorResponse(id, -32000, err.Error())
	}

	return map[string]any{
		"jsonrpc": "2.0",
		"id":      id,
		"result": map[string]any{
			"contents": []map[string]any{
				{
					"uri":      uri,
					"mimeType": "application/json",
					"text":     content,
				},
			},
		},
	}
}

// Tool Handlers

func handleForms(session Session) string {
	forms := session.Forms()
	if len(forms) == 0 {
		return "The loaded blueprint has no forms"
	}

	m := session.Model()

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("Found %d forms:\n\n", len(forms)))

	for i, form := range forms {
		mapped := session.MappingsFor(form.ID)
		sb.WriteString(fmt.Sprintf("%d. **%s** (`%s`)\n", i+1, form.Name, form.ID))
		if node, ok := m.NodeByComponentID(form.ID); ok {
			sb.WriteString(fmt.Sprintf("   Node: %s\n", node.ID))
		}
		sb.WriteString(fmt.Sprintf("   Fields: %d, mapped: %d\n", len(form.Fields()), len(mapped)))
	}

	sb.WriteString("\nNext: Use `prefill_sources` on a form to see what can prefill it.")

	return sb.String()
}

func handleSources(session Session, formID string) (string, error) {
	if formID == "" {
		return "No form_id provided", nil
	}
	form, ok := session.FormByID(formID)
	if !ok {
		return fmt.Sprintf("Form '%s' not found in the blueprint", formID), nil
	}

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("Prefill sources for **%s** (`%s`)\n\n", form.Name, form.ID))

	for _, group := range session.Candidates(formID) {
		sb.WriteString(fmt.Sprintf("## %s (%s, %d)\n", group.Name, group.Kind, len(group.Fields)))
		writeOptions(&sb, group.Fields)
		sb.WriteString("\n")
	}

	sb.WriteString("Next: Use `prefill_map` to prefill a field from one of these.")

	return sb.String(), nil
}

func handleFields(session Session, formID, kind, query string) (string, error) {
	if formID == "" {
		return "No form_id provided", nil
	}

	sourceKind, err := prefill.ParseSourceKind(kind)
	if err != nil {
		return "", err
	}

	fields, err := session.AvailableFields(sourceKind, formID)
	if err != nil {
		return "", err
	}
	fields = prefill.SearchFields(fields, query)

	if len(fields) == 0 {
		return "No fields found", nil
	}

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("Found %d %s fields for `%s`:\n\n", len(fields), sourceKind, formID))
	writeOptions(&sb, fields)

	return sb.String(), nil
}

func handleMap(ctx context.Context, session Session, formID, fieldID, sourceType, sourceID, sourceField string) (string, error) {
	kind, err := prefill.ParseSourceKind(sourceType)
	if err != nil {
		return "", err
	}

	m, err := session.MapField(ctx, formID, fieldID, kind, sourceID, sourceField)
	if err != nil && m.TargetFieldID == "" {
		return "", err
	}

	msg := fmt.Sprintf("Mapped %s.%s <- %s", formID, fieldID, m.Source())
	if err != nil {
		// The mapping is kept in memory even when persisting it failed.
		msg += fmt.Sprintf("\n\nWarning: %v", err)
	}
	return msg, nil
}

func handleUnmap(ctx context.Context, session Session, formID, fieldID string) (string, error) {
	if formID == "" || fieldID == "" {
		return "", errors.New("form_id and field_id are required")
	}
	if _, ok := session.MappingsFor(formID)[fieldID]; !ok {
		return fmt.Sprintf("%s.%s has no mapping", formID, fieldID), nil
	}
	if err := session.RemoveMapping(ctx, formID, fieldID); err != nil {
		return fmt.Sprintf("Unmapped %s.%s\n\nWarning: %v", formID, fieldID, err), nil
	}
	return fmt.Sprintf("Unmapped %s.%s", formID, fieldID), nil
}

func handleMappings(session Session, formID string) (string, error) {
	var configs []prefill.FormConfig
	if formID != "" {
		configs = []prefill.FormConfig{{FormID: formID, Mappings: session.MappingsFor(formID)}}
	} else {
		configs = session.Store().Configs()
	}

	var sb strings.Builder
	total := 0
	for _, cfg := range configs {
		if len(cfg.Mappings) == 0 {
			continue
		}
		sb.WriteString(fmt.Sprintf("## %s\n", cfg.FormID))

		fieldIDs := make([]string, 0, len(cfg.Mappings))
		for id := range cfg.Mappings {
			fieldIDs = append(fieldIDs, id)
		}
		sort.Strings(fieldIDs)

		for _, id := range fieldIDs {
			sb.WriteString(fmt.Sprintf("- %s <- %s\n", id, cfg.Mappings[id].Source()))
			total++
		}
		sb.WriteString("\n")
	}

	if total == 0 {
		return "No mappings stored", nil
	}
	return strings.TrimRight(sb.String(), "\n"), nil
}

func handleCheck(session Session) string {
	stale := session.Check()
	if len(stale) == 0 {
		return "All mappings match the loaded blueprint"
	}

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("Found %d stale mappings:\n\n", len(stale)))
	for _, st := range stale {
		sb.WriteString(fmt.Sprintf("- %s.%s <- %s: %s\n", st.FormID, st.Mapping.TargetFieldID, st.Mapping.Source(), st.Reason))
	}
	return sb.String()
}

// Helper functions

func writeOptions(sb *strings.Builder, options []prefill.FieldOption) {
	if len(options) == 0 {
		sb.WriteString("(none)\n")
		return
	}
	for _, o := range options {
		sb.WriteString(fmt.Sprintf("- %s (`%s.%s`, %s)\n", o.Path, o.FormID, o.ID, o.FieldType))
	}
}

func toJSON(v any) (string, error) {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return "", err
	}
	return string(data), nil
}

func errorResponse(id any, code int, message string) map[string]any {
	return map[string]any{
		"jsonrpc": "2.0",
		"id":      id,
		"error": map[string]any{
			"code":    code,
			"message": message,
		},
	}
}

// registerTools registers every tool with the go-sdk server, dispatching to CallTool.
func (s *Server) registerTools() {
	for _, tool := range s.ListTools() {
		name := tool.Name
		mcp.AddTool(s.server, &mcp.Tool{
			Name:        tool.Name,
			Description: tool.Description,
			InputSchema: tool.InputSchema,
		}, func(ctx context.Context, _ *mcp.CallToolRequest, args map[string]any) (*mcp.CallToolResult, any, error) {
			text, err := s.CallTool(ctx, name, args)
			if err != nil {
				return &mcp.CallToolResult{
					IsError: true,
					Content: []mcp.Content{&mcp.TextContent{Text: err.Error()}},
				}, nil, nil
			}
			return &mcp.CallToolResult{
				Content: []mcp.Content{&mcp.TextContent{Text: text}},
			}, nil, nil
		})
	}
}

// registerResources registers every resource with the go-sdk server, dispatching to ReadResource.
func (s *Server) registerResources() {
	for _, res := range s.ListResources() {
		s.server.AddResource(&mcp.Resource{
			URI:         res.URI,
			Name:        res.Name,
			Description: res.Description,
			MIMEType:    res.MimeType,
		}, func(ctx context.Context, req *mcp.ReadResourceRequest) (*mcp.ReadResourceResult, error) {
			text, err := s.ReadResource(ctx, req.Params.URI)
			if err != nil {
				return nil, err
			}
			return &mcp.ReadResourceResult{
				Contents: []*mcp.ResourceContents{
					{URI: req.Params.URI, MIMEType: "application/json", Text: text},
				},
			}, nil
		})
	}
}
