package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/matzehuels/autolayout/pkg/diagram"
	"github.com/matzehuels/autolayout/pkg/layout"
)

// isolate points config and cache lookups at temp dirs and clears overrides
// that may leak in from the environment.
func isolate(t *testing.T) {
	t.Helper()
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())
	t.Setenv("XDG_CACHE_HOME", t.TempDir())
	for _, kv := range os.Environ() {
		if name, _, ok := strings.Cut(kv, "="); ok && strings.HasPrefix(name, "AUTOLAYOUT_") {
			t.Setenv(name, "")
		}
	}
}

// run executes the root command with args and returns what it wrote to its
// output stream. A non-nil engine replaces the configured one.
func run(t *testing.T, engine layout.Engine, args ...string) (string, error) {
	t.Helper()
	c := New(io.Discard, LogInfo)
	c.engine = engine

	var out bytes.Buffer
	root := c.RootCommand()
	root.SetOut(&out)
	root.SetErr(io.Discard)
	root.SetArgs(args)
	err := root.ExecuteContext(context.Background())
	return out.String(), err
}

// stairEngine places the i-th child at (i*100, i*10).
func stairEngine() layout.Engine {
	return layout.EngineFunc(func(_ context.Context, g *layout.Graph) error {
		for i, n := range g.Children {
			n.SetPosition(float64(i*100), float64(i*10))
		}
		return nil
	})
}

func writeDoc(t *testing.T, name string, doc *diagram.Document) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := diagram.WriteFile(doc, path); err != nil {
		t.Fatal(err)
	}
	return path
}

func sampleDoc() *diagram.Document {
	return &diagram.Document{
		Nodes: []diagram.Node{
			{ID: "a", Label: "Start"},
			{ID: "b", Label: "Middle"},
			{ID: "c", Label: "Unmeasured"},
		},
		Edges: []diagram.Edge{
			{ID: "e1", Source: "a", Target: "b"},
			{ID: "e2", Source: "b", Target: "c"},
		},
		Dimensions: diagram.Measurements{
			"a": {Width: 150, Height: 40},
			"b": {Width: 150, Height: 40},
		},
	}
}

func TestLayoutCommand(t *testing.T) {
	isolate(t)
	in := writeDoc(t, "flow.json", sampleDoc())

	if _, err := run(t, stairEngine(), "layout", in, "-d", "TB", "--no-cache"); err != nil {
		t.Fatalf("layout: %v", err)
	}

	out, err := diagram.ReadFile(strings.TrimSuffix(in, ".json") + ".layout.json")
	if err != nil {
		t.Fatalf("read output: %v", err)
	}
	if out.Direction != diagram.TopToBottom {
		t.Errorf("direction = %q, want TB", out.Direction)
	}
	if len(out.Nodes) != 3 {
		t.Fatalf("got %d nodes, want 3", len(out.Nodes))
	}

	b := out.Nodes[1]
	if b.Position == nil || b.Position.X != 100 || b.Position.Y != 10 {
		t.Errorf("b position = %+v, want (100,10)", b.Position)
	}
	if b.SourcePosition != diagram.SideBottom || b.TargetPosition != diagram.SideTop {
		t.Errorf("b sides = %s/%s, want bottom/top", b.SourcePosition, b.TargetPosition)
	}

	c := out.Nodes[2]
	if c.Position != nil || c.SourcePosition != "" {
		t.Errorf("unmeasured node was placed: %+v", c)
	}
	if c.Label != "Unmeasured" {
		t.Errorf("label = %q, want passthrough", c.Label)
	}
}

func TestLayoutCommandDirectionFromDocument(t *testing.T) {
	isolate(t)
	doc := sampleDoc()
	doc.Direction = diagram.TopToBottom
	in := writeDoc(t, "flow.yaml", doc)
	outPath := filepath.Join(t.TempDir(), "out.yaml")

	if _, err := run(t, stairEngine(), "layout", in, "-o", outPath, "--cache", "memory"); err != nil {
		t.Fatalf("layout: %v", err)
	}
	out, err := diagram.ReadFile(outPath)
	if err != nil {
		t.Fatal(err)
	}
	if out.Direction != diagram.TopToBottom {
		t.Errorf("direction = %q, want TB", out.Direction)
	}
	if out.Nodes[0].TargetPosition != diagram.SideTop {
		t.Errorf("target side = %q, want top", out.Nodes[0].TargetPosition)
	}
}

func TestLayoutCommandDefaultsToConfig(t *testing.T) {
	isolate(t)
	in := writeDoc(t, "flow.json", sampleDoc())

	if _, err := run(t, stairEngine(), "layout", in, "--no-cache"); err != nil {
		t.Fatal(err)
	}
	out, err := diagram.ReadFile(defaultLayoutPath(in))
	if err != nil {
		t.Fatal(err)
	}
	if out.Direction != diagram.LeftToRight {
		t.Errorf("direction = %q, want LR", out.Direction)
	}
	if out.Nodes[0].SourcePosition != diagram.SideRight {
		t.Errorf("source side = %q, want right", out.Nodes[0].SourcePosition)
	}
}

func TestLayoutCommandErrors(t *testing.T) {
	isolate(t)
	in := writeDoc(t, "flow.json", sampleDoc())
	boom := errors.New("engine exploded")
	failing := layout.EngineFunc(func(context.Context, *layout.Graph) error { return boom })

	tests := []struct {
		name   string
		engine layout.Engine
		args   []string
	}{
		{"missing file", stairEngine(), []string{"layout", filepath.Join(t.TempDir(), "nope.json")}},
		{"bad direction", stairEngine(), []string{"layout", in, "-d", "diagonal"}},
		{"engine failure", failing, []string{"layout", in, "--no-cache"}},
		{"no args", stairEngine(), []string{"layout"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := run(t, tt.engine, tt.args...); err == nil {
				t.Error("expected error")
			}
		})
	}

	if _, err := run(t, failing, "layout", in, "--no-cache"); !errors.Is(err, boom) {
		t.Errorf("error = %v, want wrapped engine error", err)
	}
}

func TestRuntimeFileCacheHit(t *testing.T) {
	isolate(t)
	doc := sampleDoc()
	ctx := context.Background()

	c := New(io.Discard, LogInfo)
	c.engine = stairEngine()

	for i, wantCalls := range []int64{1, 0} {
		rt, err := c.newRuntime(ctx, runOptions{Cache: "file"})
		if err != nil {
			t.Fatal(err)
		}
		if _, err := rt.Orch.Layout(ctx, doc.Dimensions, doc.Nodes, doc.Edges, diagram.LeftToRight); err != nil {
			t.Fatal(err)
		}
		if got := rt.EngineCalls(); got != wantCalls {
			t.Errorf("run %d: engine calls = %d, want %d", i, got, wantCalls)
		}
		rt.Close()
	}
}

func TestRuntimeOverrides(t *testing.T) {
	isolate(t)
	c := New(io.Discard, LogInfo)

	rt, err := c.newRuntime(context.Background(), runOptions{NoCache: true, Spacing: 40})
	if err != nil {
		t.Fatal(err)
	}
	defer rt.Close()

	if rt.Cache != "none" {
		t.Errorf("cache = %q, want none", rt.Cache)
	}
	if rt.Orch.LayerSpacing() != 40 {
		t.Errorf("spacing = %v, want 40", rt.Orch.LayerSpacing())
	}
	if rt.Engine != "dot" {
		t.Errorf("engine = %q, want dot", rt.Engine)
	}
}

func TestRuntimeUnknownEngine(t *testing.T) {
	isolate(t)
	c := New(io.Discard, LogInfo)
	if _, err := c.newRuntime(context.Background(), runOptions{Engine: "neato"}); err == nil {
		t.Error("expected error for unknown engine")
	}
}

func TestDefaultLayoutPath(t *testing.T) {
	tests := map[string]string{
		"flow.json":       "flow.layout.json",
		"dir/flow.yaml":   "dir/flow.layout.yaml",
		"flow":            "flow.layout.json",
		"a.b/flow.v2.yml": "a.b/flow.v2.layout.yml",
	}
	for in, want := range tests {
		if got := defaultLayoutPath(in); got != want {
			t.Errorf("defaultLayoutPath(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestEnginesCommand(t *testing.T) {
	isolate(t)
	out, err := run(t, nil, "engines", "--json")
	if err != nil {
		t.Fatal(err)
	}

	var rows []engineRow
	if err := json.Unmarshal([]byte(out), &rows); err != nil {
		t.Fatalf("decode %q: %v", out, err)
	}
	if len(rows) != 2 {
		t.Fatalf("got %d engines, want 2", len(rows))
	}
	if !rows[0].Active || rows[0].Name != "dot" {
		t.Errorf("dot should be active by default: %+v", rows[0])
	}
	if rows[1].Detail != "not configured" {
		t.Errorf("remote detail = %q", rows[1].Detail)
	}

	table, err := run(t, nil, "engines")
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(table, "remote") {
		t.Errorf("table missing remote engine:\n%s", table)
	}
}

func TestConfigShow(t *testing.T) {
	isolate(t)
	t.Setenv("AUTOLAYOUT_REDIS_PASSWORD", "hunter2")
	t.Setenv("AUTOLAYOUT_DIRECTION", "TB")

	out, err := run(t, nil, "config", "show")
	if err != nil {
		t.Fatal(err)
	}
	if strings.Contains(out, "hunter2") {
		t.Error("config show leaked the redis password")
	}
	if !strings.Contains(out, `direction = "TB"`) {
		t.Errorf("config show missing env override:\n%s", out)
	}
}

func TestConfigPath(t *testing.T) {
	isolate(t)
	out, err := run(t, nil, "config", "path")
	if err != nil {
		t.Fatal(err)
	}
	if !strings.HasSuffix(strings.TrimSpace(out), filepath.Join("autolayout", "config.toml")) {
		t.Errorf("config path = %q", out)
	}
}

func TestInvalidConfigFile(t *testing.T) {
	isolate(t)
	path := filepath.Join(t.TempDir(), "config.toml")
	if err := os.WriteFile(path, []byte("[engine]\nname = \"neato\"\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := run(t, nil, "--config", path, "engines"); err == nil {
		t.Error("expected validation error")
	}
}
