// Package cmd provides CLI command implementations for prefill.
package cmd

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"sort"
	"strings"
	"syscall"

	"github.com/alecthomas/kong"
	"github.com/fatih/color"
	sdkmcp "github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/Benny93/prefill-go/internal/config"
	"github.com/Benny93/prefill-go/internal/graph"
	"github.com/Benny93/prefill-go/internal/prefill"
	"github.com/Benny93/prefill-go/internal/source"
	"github.com/Benny93/prefill-go/mcp"
)

// Version is set at build time via ldflags.
var Version = "dev"

var (
	green  = color.New(color.FgGreen)
	yellow = color.New(color.FgYellow)
	red    = color.New(color.FgRed)
	bold   = color.New(color.Bold)
)

// FormsCmd lists the forms of the blueprint.
type FormsCmd struct {
	JSON bool `help:"Output as JSON"`
}

// Run executes the forms command.
func (c *FormsCmd) Run(cli *CLI) error {
	e, err := cli.open(context.Background(), true)
	if err != nil {
		return err
	}
	defer func() { _ = e.Close() }()

	m := e.session.Model()
	forms := e.session.Forms()

	if c.JSON {
		type formSummary struct {
			ID     string `json:"id"`
			Name   string `json:"name"`
			NodeID string `json:"node_id,omitempty"`
			Fields int    `json:"fields"`
			Mapped int    `json:"mapped"`
		}
		out := make([]formSummary, 0, len(forms))
		for _, f := range forms {
			node, _ := m.NodeByComponentID(f.ID)
			out = append(out, formSummary{
				ID:     f.ID,
				Name:   f.Name,
				NodeID: node.ID,
				Fields: len(f.Fields()),
				Mapped: len(e.session.MappingsFor(f.ID)),
			})
		}
		return writeJSON(cli.out, out)
	}

	if len(forms) == 0 {
		_, _ = fmt.Fprintln(cli.out, "No forms in blueprint")
		return nil
	}

	doc := m.Document()
	_, _ = bold.Fprintf(cli.out, "Forms in %s (%s):\n\n", doc.Name, doc.ID)
	for _, f := range forms {
		nodeID := "-"
		if node, ok := m.NodeByComponentID(f.ID); ok {
			nodeID = node.ID
		}
		_, _ = fmt.Fprintf(cli.out, "  %-24s %-28s node %-16s fields %-3d mapped %d\n",
			f.ID, f.Name, nodeID, len(f.Fields()), len(e.session.MappingsFor(f.ID)))
	}

	return nil
}

// SourcesCmd lists every prefill candidate of a target form.
type SourcesCmd struct {
	Form string `arg:"" help:"Target form id"`
	JSON bool   `help:"Output as JSON"`
}

// Run executes the sources command.
func (c *SourcesCmd) Run(cli *CLI) error {
	e, err := cli.open(context.Background(), true)
	if err != nil {
		return err
	}
	defer func() { _ = e.Close() }()

	form, ok := e.session.FormByID(c.Form)
	if !ok {
		return fmt.Errorf("%w: %s", prefill.ErrUnknownForm, c.Form)
	}

	groups := e.session.Candidates(c.Form)
	if c.JSON {
		return writeJSON(cli.out, groups)
	}

	_, _ = bold.Fprintf(cli.out, "Prefill sources for %s (%s):\n", form.Name, form.ID)
	for _, g := range groups {
		_, _ = fmt.Fprintf(cli.out, "\n%s (%d):\n", g.Name, len(g.Fields))
		printOptions(cli.out, g.Fields)
	}

	return nil
}

// FieldsCmd searches the candidates one source offers for a target form.
type FieldsCmd struct {
	Form  string `arg:"" help:"Target form id"`
	Kind  string `arg:"" enum:"direct,transitive,global" help:"Source kind (direct|transitive|global)"`
	Query string `help:"Filter by field id, label or form name"`
	JSON  bool   `help:"Output as JSON"`
}

// Run executes the fields command.
func (c *FieldsCmd) Run(cli *CLI) error {
	e, err := cli.open(context.Background(), true)
	if err != nil {
		return err
	}
	defer func() { _ = e.Close() }()

	if _, ok := e.session.FormByID(c.Form); !ok {
		return fmt.Errorf("%w: %s", prefill.ErrUnknownForm, c.Form)
	}

	fields, err := e.session.AvailableFields(prefill.SourceKind(c.Kind), c.Form)
	if err != nil {
		return err
	}
	fields = prefill.SearchFields(fields, c.Query)

	if c.JSON {
		return writeJSON(cli.out, fields)
	}

	if len(fields) == 0 {
		_, _ = fmt.Fprintln(cli.out, "No fields found")
		return nil
	}
	printOptions(cli.out, fields)
	return nil
}

// MapCmd prefills a target field from a source field.
type MapCmd struct {
	Form        string `arg:"" help:"Target form id"`
	Field       string `arg:"" help:"Target field id"`
	Kind        string `arg:"" enum:"direct,transitive,global" help:"Source kind (direct|transitive|global)"`
	Source      string `arg:"" help:"Source form id, or global source id"`
	SourceField string `arg:"" help:"Source field id"`
}

// Run executes the map command.
func (c *MapCmd) Run(cli *CLI) error {
	ctx := context.Background()
	e, err := cli.open(ctx, false)
	if err != nil {
		return err
	}
	defer func() { _ = e.Close() }()

	m, err := e.session.MapField(ctx, c.Form, c.Field, prefill.SourceKind(c.Kind), c.Source, c.SourceField)
	if err != nil {
		return err
	}

	_, _ = green.Fprintf(cli.out, "✓ Mapped %s.%s <- %s\n", c.Form, c.Field, m.Source())
	if !e.persisted() {
		_, _ = yellow.Fprintln(cli.out, "  memory backend: the mapping is not kept after exit")
	}
	return nil
}

// UnmapCmd removes the mapping of a target field.
type UnmapCmd struct {
	Form  string `arg:"" help:"Target form id"`
	Field string `arg:"" help:"Target field id"`
}

// Run executes the unmap command.
func (c *UnmapCmd) Run(cli *CLI) error {
	ctx := context.Background()
	e, err := cli.open(ctx, false)
	if err != nil {
		return err
	}
	defer func() { _ = e.Close() }()

	if !e.session.HasMapping(c.Form, c.Field) {
		_, _ = fmt.Fprintf(cli.out, "%s.%s has no mapping\n", c.Form, c.Field)
		return nil
	}

	if err := e.session.RemoveMapping(ctx, c.Form, c.Field); err != nil {
		return err
	}

	_, _ = green.Fprintf(cli.out, "✓ Unmapped %s.%s\n", c.Form, c.Field)
	return nil
}

// MappingsCmd shows stored mappings.
type MappingsCmd struct {
	Form string `arg:"" optional:"" help:"Only show this form"`
	JSON bool   `help:"Output as JSON"`
}

// Run executes the mappings command.
func (c *MappingsCmd) Run(cli *CLI) error {
	e, err := cli.open(context.Background(), true)
	if err != nil {
		return err
	}
	defer func() { _ = e.Close() }()

	configs := e.session.Store().Configs()
	if c.Form != "" {
		configs = []prefill.FormConfig{{FormID: c.Form, Mappings: e.session.MappingsFor(c.Form)}}
	}

	if c.JSON {
		return writeJSON(cli.out, configs)
	}

	total := 0
	for _, cfg := range configs {
		if len(cfg.Mappings) == 0 {
			continue
		}
		_, _ = bold.Fprintf(cli.out, "%s:\n", cfg.FormID)

		fieldIDs := make([]string, 0, len(cfg.Mappings))
		for id := range cfg.Mappings {
			fieldIDs = append(fieldIDs, id)
		}
		sort.Strings(fieldIDs)

		for _, id := range fieldIDs {
			_, _ = fmt.Fprintf(cli.out, "  %-20s <- %s\n", id, cfg.Mappings[id].Source())
			total++
		}
	}

	if total == 0 {
		_, _ = fmt.Fprintln(cli.out, "No mappings stored")
	}
	return nil
}

// PreviewCmd shows the value each mapped field of a form would be prefilled with.
type PreviewCmd struct {
	Form string `arg:"" help:"Target form id"`
}

// Run executes the preview command.
func (c *PreviewCmd) Run(cli *CLI) error {
	e, err := cli.open(context.Background(), true)
	if err != nil {
		return err
	}
	defer func() { _ = e.Close() }()

	form, ok := e.session.FormByID(c.Form)
	if !ok {
		return fmt.Errorf("%w: %s", prefill.ErrUnknownForm, c.Form)
	}

	mappings := e.session.MappingsFor(c.Form)
	_, _ = bold.Fprintf(cli.out, "Prefill preview for %s (%s):\n", form.Name, form.ID)
	for _, field := range form.Fields() {
		m, ok := mappings[field.ID]
		if !ok {
			_, _ = fmt.Fprintf(cli.out, "  %-20s (empty)\n", field.ID)
			continue
		}
		value, ok := e.session.FieldValue(m.Source())
		if !ok {
			_, _ = red.Fprintf(cli.out, "  %-20s unresolved %s\n", field.ID, m.Source())
			continue
		}
		_, _ = fmt.Fprintf(cli.out, "  %-20s %v\n", field.ID, value)
	}

	return nil
}

// CheckCmd reports mappings that no longer match the blueprint.
type CheckCmd struct {
	JSON bool `help:"Output as JSON"`
}

// Run executes the check command.
func (c *CheckCmd) Run(cli *CLI) error {
	e, err := cli.open(context.Background(), true)
	if err != nil {
		return err
	}
	defer func() { _ = e.Close() }()

	stale := e.session.Check()

	if c.JSON {
		if err := writeJSON(cli.out, stale); err != nil {
			return err
		}
	} else if len(stale) == 0 {
		_, _ = green.Fprintln(cli.out, "✓ All mappings match the blueprint")
	} else {
		printStale(cli.out, stale)
	}

	if len(stale) > 0 {
		return fmt.Errorf("%d stale mappings", len(stale))
	}
	return nil
}

// ValidateCmd reports structural problems in the blueprint document.
type ValidateCmd struct{}

// Run executes the validate command.
func (c *ValidateCmd) Run(cli *CLI) error {
	e, err := cli.open(context.Background(), true)
	if err != nil {
		return err
	}
	defer func() { _ = e.Close() }()

	issues := graph.Validate(e.session.Model().Document())
	if len(issues) == 0 {
		_, _ = green.Fprintln(cli.out, "✓ Blueprint is consistent")
		return nil
	}

	printIssues(cli.out, issues)
	return fmt.Errorf("%d validation issues", len(issues))
}

// WatchCmd re-checks the blueprint whenever its file changes.
type WatchCmd struct{}

// Run executes the watch command.
func (c *WatchCmd) Run(cli *CLI) error {
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	e, err := cli.open(ctx, true)
	if err != nil {
		return err
	}
	defer func() { _ = e.Close() }()

	path, err := e.watchPath()
	if err != nil {
		return err
	}
	if path == "" {
		return errors.New("the configured graph source is not a local file; nothing to watch")
	}

	_, _ = fmt.Fprintf(cli.out, "Watching %s\n", path)
	_, _ = fmt.Fprintln(cli.out, "Press Ctrl+C to stop")

	err = source.Watch(ctx, path, source.DefaultDebounce, e.logger, func(doc *graph.Blueprint) {
		e.session.Reload(doc)

		issues := graph.Validate(doc)
		stale := e.session.Check()
		_, _ = fmt.Fprintf(cli.out, "\nReloaded %s: %d forms, %d issues, %d stale mappings\n",
			path, len(doc.Forms), len(issues), len(stale))
		printIssues(cli.out, issues)
		printStale(cli.out, stale)
	})
	if errors.Is(err, context.Canceled) {
		_, _ = fmt.Fprintln(cli.out, "\nStopped watching")
		return nil
	}
	return err
}

// ListCmd lists the blueprints of a directory source.
type ListCmd struct {
	Root string `arg:"" optional:"" type:"path" help:"Blueprint root directory (defaults to the configured dir source)"`
	JSON bool   `help:"Output as JSON"`
}

// Run executes the list command.
func (c *ListCmd) Run(cli *CLI) error {
	root := c.Root
	if root == "" {
		cfg, _, err := cli.loadConfig()
		if err != nil {
			return err
		}
		if cfg.Source.Kind != config.SourceDir {
			return errors.New("no root given and the configured graph source is not a directory")
		}
		root = cfg.Source.Path
	}

	entries, err := source.NewDirSource(root, "", "").List(context.Background())
	if err != nil {
		return err
	}

	if c.JSON {
		return writeJSON(cli.out, entries)
	}

	if len(entries) == 0 {
		_, _ = fmt.Fprintf(cli.out, "No blueprints under %s\n", root)
		return nil
	}

	_, _ = bold.Fprintf(cli.out, "Blueprints under %s:\n", root)
	for _, entry := range entries {
		_, _ = fmt.Fprintf(cli.out, "  %-16s %-24s %s\n", entry.TenantID, entry.BlueprintID, entry.RelPath)
	}
	return nil
}

// StatusCmd shows the configuration and storage state.
type StatusCmd struct{}

// Run executes the status command.
func (c *StatusCmd) Run(cli *CLI) error {
	ctx := context.Background()
	e, err := cli.open(ctx, true)
	if err != nil {
		return err
	}
	defer func() { _ = e.Close() }()

	configPath := e.configPath
	if configPath == "" {
		configPath = "(defaults)"
	}

	doc := e.session.Model().Document()
	stats := e.session.Model().Stats()

	_, _ = bold.Fprintln(cli.out, "Prefill status")
	_, _ = fmt.Fprintf(cli.out, "  Config:         %s\n", configPath)
	_, _ = fmt.Fprintf(cli.out, "  Source:         %s\n", describeSource(e.cfg))
	_, _ = fmt.Fprintf(cli.out, "  Blueprint:      %s (%s)\n", doc.Name, doc.ID)
	_, _ = fmt.Fprintf(cli.out, "  Nodes:          %d\n", stats["nodes"])
	_, _ = fmt.Fprintf(cli.out, "  Edges:          %d\n", stats["edges"])
	_, _ = fmt.Fprintf(cli.out, "  Forms:          %d\n", stats["forms"])
	_, _ = fmt.Fprintf(cli.out, "  Storage:        %s\n", describeStorage(e.cfg))
	_, _ = fmt.Fprintf(cli.out, "  Stored:         %d forms\n", e.backend.FormCount())

	configs := e.session.Store().Configs()
	_, _ = fmt.Fprintf(cli.out, "  Configured:     %d forms\n", len(configs))
	for _, cfg := range configs {
		rev, err := e.backend.Revision(ctx, cfg.FormID)
		if err != nil {
			return fmt.Errorf("reading revision of %s: %w", cfg.FormID, err)
		}
		if rev == "" {
			rev = "-"
		}
		_, _ = fmt.Fprintf(cli.out, "    %-24s %d mappings, revision %s\n", cfg.FormID, len(cfg.Mappings), rev)
	}

	return nil
}

// InitCmd writes a config file with the defaults and any overrides given.
type InitCmd struct {
	Path  string `arg:"" optional:"" default:"prefill.yaml" type:"path" help:"Where to write the config"`
	Force bool   `short:"f" help:"Overwrite an existing file"`
}

// Run executes the init command.
func (c *InitCmd) Run(cli *CLI) error {
	if _, err := os.Stat(c.Path); err == nil && !c.Force {
		return fmt.Errorf("%s already exists (use --force to overwrite)", c.Path)
	}

	cfg := config.DefaultConfig()
	if cli.Graph != "" {
		cfg.Source.Path = cli.Graph
	}
	if cli.Tenant != "" {
		cfg.TenantID = cli.Tenant
	}
	if cli.Blueprint != "" {
		cfg.BlueprintID = cli.Blueprint
	}
	if cli.Backend != "" {
		cfg.Storage.Backend = cli.Backend
		cfg.Storage.Path = cli.Store
		cfg.Complete()
	}
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}

	if err := cfg.Save(c.Path); err != nil {
		return err
	}

	_, _ = green.Fprintf(cli.out, "✓ Wrote %s\n", c.Path)
	return nil
}

// SetupCmd configures MCP clients.
type SetupCmd struct {
	Qwen     bool   `help:"Configure for Qwen CLI"`
	Claude   bool   `help:"Configure for Claude Code"`
	Cursor   bool   `help:"Configure for Cursor"`
	Local    bool   `help:"Create project-local configuration"`
	Global   bool   `help:"Create global configuration"`
	Format   string `help:"Output format (json|text)" enum:"json,text" default:"json"`
	FilePath string `help:"Custom file path for configuration"`
}

// Run executes the setup command.
func (c *SetupCmd) Run(cli *CLI) error {
	// Validate format
	if c.Format != "json" && c.Format != "text" {
		return fmt.Errorf("invalid format: %s (must be json or text)", c.Format)
	}

	// If no specific client is specified, output config to stdout
	if !c.Qwen && !c.Claude && !c.Cursor {
		return c.outputDefaultConfig(cli.out)
	}

	// If neither local nor global is specified, default to local
	if !c.Local && !c.Global {
		c.Local = true
	}

	clients := []struct {
		enabled bool
		name    string
		title   string
		file    string
	}{
		{c.Qwen, "qwen", "Qwen", "mcp.json"},
		{c.Claude, "claude", "Claude", "settings.json"},
		{c.Cursor, "cursor", "Cursor", "mcp.json"},
	}

	for _, client := range clients {
		if !client.enabled {
			continue
		}
		if err := c.setupClient(cli.out, client.name, client.title, client.file); err != nil {
			return err
		}
	}

	return nil
}

func (c *SetupCmd) outputDefaultConfig(w io.Writer) error {
	mcpConfig := generatePrefillConfig()

	if c.Format == "json" {
		return writeJSON(w, mcpConfig)
	}

	_, _ = fmt.Fprintln(w, "# Add this to your MCP client configuration:")
	_, _ = fmt.Fprintln(w)
	for key, value := range mcpConfig {
		_, _ = fmt.Fprintf(w, "%s: %s\n", key, toJSON(value))
	}
	return nil
}

func (c *SetupCmd) setupClient(w io.Writer, client, title, fileName string) error {
	mcpConfig := generatePrefillConfig()

	if c.Global {
		globalPath := getGlobalConfigPath(client)
		if err := writeConfig(globalPath, mcpConfig, c.Format); err != nil {
			return err
		}
		_, _ = green.Fprintf(w, "✓ Created global %s MCP config at %s\n", title, globalPath)
	}

	if c.Local {
		var localPath string
		if c.FilePath != "" {
			localPath = filepath.Join(c.FilePath, fileName)
		} else {
			localPath = getLocalConfigPath(".", client)
		}
		if err := writeConfig(localPath, mcpConfig, c.Format); err != nil {
			return err
		}
		_, _ = green.Fprintf(w, "✓ Created local %s MCP config at %s\n", title, localPath)
	}

	return nil
}

// Configuration generators

func generatePrefillConfig() map[string]any {
	return map[string]any{
		"mcpServers": map[string]any{
			"prefill": map[string]any{
				"command": "prefill",
				"args":    []string{"mcp", "--watch"},
			},
		},
	}
}

// Path helpers

func getLocalConfigPath(basePath, client string) string {
	configDir := getClientConfigDir(client)
	return filepath.Join(basePath, configDir, "mcp.json")
}

func getGlobalConfigPath(client string) string {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		homeDir = os.Getenv("HOME")
	}

	configDir := getClientConfigDir(client)
	return filepath.Join(homeDir, configDir, "global", "mcp.json")
}

func getClientConfigDir(client string) string {
	switch client {
	case "qwen":
		return ".qwen"
	case "claude":
		return ".claude"
	case "cursor":
		return ".cursor"
	default:
		return ".qwen"
	}
}

// Config writers

func writeConfig(configPath string, mcpConfig map[string]any, format string) error {
	dir := filepath.Dir(configPath)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("creating directory: %w", err)
	}

	var content []byte
	var err error

	if format == "json" {
		content, err = jsonIndent(mcpConfig)
		if err != nil {
			return fmt.Errorf("marshaling JSON: %w", err)
		}
		content = append(content, '\n')
	} else {
		var sb strings.Builder
		sb.WriteString("# MCP Configuration for prefill\n")
		sb.WriteString("# Generated by prefill setup\n\n")

		for key, value := range mcpConfig {
			sb.WriteString(fmt.Sprintf("%s: %s\n", key, toJSON(value)))
		}
		content = []byte(sb.String())
	}

	if err := os.WriteFile(configPath, content, 0o644); err != nil {
		return fmt.Errorf("writing config: %w", err)
	}

	return nil
}

// MCPCmd starts the MCP server.
type MCPCmd struct {
	Watch bool `short:"w" help:"Reload the blueprint when its file changes (also enabled by source.watch in the config)"`
	SDK   bool `help:"Serve through the go-sdk session layer instead of the line protocol"`
}

// Run executes the mcp command.
func (c *MCPCmd) Run(cli *CLI) error {
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	e, err := cli.open(ctx, false)
	if err != nil {
		return err
	}
	defer func() { _ = e.Close() }()

	if c.Watch || e.cfg.Source.Watch {
		path, err := e.watchPath()
		if err != nil {
			return err
		}
		if path != "" {
			go func() {
				err := source.Watch(ctx, path, source.DefaultDebounce, e.logger, e.session.Reload)
				if err != nil && !errors.Is(err, context.Canceled) {
					e.logger.Error("watcher stopped", "path", path, "err", err)
				}
			}()
		}
	}

	mcp.Version = Version
	server := mcp.NewServer(e.session)

	// Note: No output to stdout - MCP server uses stdio for JSON-RPC only
	if c.SDK {
		return server.Serve(ctx, &sdkmcp.StdioTransport{})
	}
	return server.Run(ctx, cli.in, cli.out)
}

// Helper functions

func printOptions(w io.Writer, options []prefill.FieldOption) {
	if len(options) == 0 {
		_, _ = fmt.Fprintln(w, "  (none)")
		return
	}
	for _, o := range options {
		_, _ = fmt.Fprintf(w, "  %-32s %s.%s (%s)\n", o.Path, o.FormID, o.ID, o.FieldType)
	}
}

func printStale(w io.Writer, stale []prefill.StaleMapping) {
	for _, s := range stale {
		_, _ = yellow.Fprintf(w, "  %s.%s <- %s: %s\n", s.FormID, s.Mapping.TargetFieldID, s.Mapping.Source(), s.Reason)
	}
}

func printIssues(w io.Writer, issues []graph.ValidationIssue) {
	for _, issue := range issues {
		_, _ = red.Fprintf(w, "  %s\n", issue.Error())
	}
}

func describeSource(cfg *config.Config) string {
	switch cfg.Source.Kind {
	case config.SourceHTTP:
		return fmt.Sprintf("http %s (tenant %s, blueprint %s)", cfg.Source.BaseURL, cfg.TenantID, cfg.BlueprintID)
	case config.SourceDir:
		return fmt.Sprintf("dir %s (tenant %s, blueprint %s)", cfg.Source.Path, cfg.TenantID, cfg.BlueprintID)
	default:
		return fmt.Sprintf("file %s", cfg.Source.Path)
	}
}

func describeStorage(cfg *config.Config) string {
	if cfg.Storage.Path == "" {
		return cfg.Storage.Backend
	}
	return fmt.Sprintf("%s %s", cfg.Storage.Backend, cfg.Storage.Path)
}

func jsonIndent(v any) ([]byte, error) {
	return json.MarshalIndent(v, "", "  ")
}

func toJSON(v any) string {
	bytes, _ := json.Marshal(v)
	return string(bytes)
}

// CLI is the root Kong command structure.
type CLI struct {
	Version kong.VersionFlag `help:"Show version information"`
	Verbose bool             `short:"v" help:"Enable verbose output"`
	Quiet   bool             `short:"q" help:"Suppress non-essential output"`

	Config    string `short:"c" type:"path" help:"Config file (default: search $PREFILL_CONFIG, ./prefill.yaml, ~/.config/prefill)"`
	Graph     string `short:"g" type:"path" help:"Blueprint file to load instead of the configured source"`
	Tenant    string `help:"Tenant id"`
	Blueprint string `help:"Blueprint id"`
	Backend   string `help:"Mapping storage backend (memory|badger|sqlite)"`
	Store     string `type:"path" help:"Mapping storage path"`

	// Commands
	Forms    FormsCmd    `cmd:"" help:"List the forms of the blueprint"`
	Sources  SourcesCmd  `cmd:"" help:"List every prefill candidate of a form"`
	Fields   FieldsCmd   `cmd:"" help:"Search the candidates one source offers"`
	Map      MapCmd      `cmd:"" help:"Prefill a field from a source field"`
	Unmap    UnmapCmd    `cmd:"" help:"Remove the mapping of a field"`
	Mappings MappingsCmd `cmd:"" help:"Show stored mappings"`
	Preview  PreviewCmd  `cmd:"" help:"Show the values a form would be prefilled with"`
	Check    CheckCmd    `cmd:"" help:"Report mappings that no longer match the blueprint"`
	Validate ValidateCmd `cmd:"" help:"Report structural problems in the blueprint"`
	Watch    WatchCmd    `cmd:"" help:"Re-check the blueprint whenever it changes"`
	List     ListCmd     `cmd:"" help:"List the blueprints of a directory source"`
	Status   StatusCmd   `cmd:"" help:"Show configuration and storage state"`
	Init     InitCmd     `cmd:"" help:"Write a config file"`
	Setup    SetupCmd    `cmd:"" help:"Configure MCP for Claude Code / Cursor"`
	MCP      MCPCmd      `cmd:"" help:"Start MCP server (stdio transport)"`

	in     io.Reader
	out    io.Writer
	errOut io.Writer
}

// NewCLI creates a new CLI instance.
func NewCLI() *CLI {
	return &CLI{
		in:     os.Stdin,
		out:    os.Stdout,
		errOut: os.Stderr,
	}
}

// SetIO replaces the streams commands read from and write to.
func (c *CLI) SetIO(in io.Reader, out, errOut io.Writer) {
	c.in, c.out, c.errOut = in, out, errOut
}

// Execute parses command-line arguments and executes the selected command.
func (c *CLI) Execute(args []string) error {
	parser, err := kong.New(c,
		kong.Name("prefill"),
		kong.Description("Prefill mappings for blueprint form graphs"),
		kong.UsageOnError(),
		kong.ConfigureHelp(kong.HelpOptions{
			Compact:             true,
			NoExpandSubcommands: true,
		}),
		kong.Vars{
			"version": Version,
		},
		kong.Writers(c.out, c.errOut),
		kong.Bind(c),
	)
	if err != nil {
		return err
	}

	kongCtx, err := parser.Parse(args)
	if err != nil {
		return err
	}

	return kongCtx.Run()
}
