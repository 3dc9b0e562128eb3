package layout

import (
	"context"
	"errors"
	"reflect"
	"testing"

	"github.com/matzehuels/autolayout/pkg/diagram"
	apperrors "github.com/matzehuels/autolayout/pkg/errors"
)

// gridEngine places child i at (100*i, 50*i) and records the graph it saw.
type gridEngine struct {
	calls int
	last  *Graph
	drop  string
	onlyX bool
}

func (e *gridEngine) Layout(_ context.Context, g *Graph) error {
	e.calls++
	e.last = g.Clone()
	kept := g.Children[:0]
	for i, c := range g.Children {
		if c.ID == e.drop {
			continue
		}
		x := float64(100 * i)
		c.X = &x
		if !e.onlyX {
			y := float64(50 * i)
			c.Y = &y
		}
		kept = append(kept, c)
	}
	g.Children = kept
	return nil
}

func testNodes() []diagram.Node {
	return []diagram.Node{
		{ID: "a", Label: "A", Data: map[string]any{"k": "v"}},
		{ID: "b", Label: "B"},
		{ID: "c", Label: "C"},
	}
}

func testEdges() []diagram.Edge {
	return []diagram.Edge{
		{ID: "e1", Source: "a", Target: "b"},
		{ID: "e2", Source: "b", Target: "c"},
	}
}

func testSurface() diagram.Measurements {
	return diagram.Measurements{
		"a": {Width: 150, Height: 40},
		"b": {Width: 120, Height: 40},
		"c": {Width: 90, Height: 60},
	}
}

func TestProject(t *testing.T) {
	surface := diagram.Measurements{"a": {Width: 150, Height: 40}, "c": {Width: 90, Height: 60}}
	edges := append(testEdges(), diagram.Edge{ID: "e3", Source: "a", Target: "ghost"})

	g := Project(surface, testNodes(), edges, diagram.LeftToRight, 0)

	if g.ID != RootID {
		t.Errorf("ID = %q, want %q", g.ID, RootID)
	}
	want := map[string]string{
		OptAlgorithm:    "layered",
		OptDirection:    "RIGHT",
		OptLayerSpacing: "100",
	}
	if !reflect.DeepEqual(g.LayoutOptions, want) {
		t.Errorf("LayoutOptions = %v, want %v", g.LayoutOptions, want)
	}

	if len(g.Children) != 2 {
		t.Fatalf("got %d children, want 2 (b is unmeasured)", len(g.Children))
	}
	if g.Children[0].ID != "a" || g.Children[0].Width != 150 || g.Children[0].Height != 40 {
		t.Errorf("child 0 = %+v", g.Children[0])
	}
	if g.Children[1].ID != "c" {
		t.Errorf("child 1 = %q, want c", g.Children[1].ID)
	}
	for _, c := range g.Children {
		if c.X != nil || c.Y != nil {
			t.Errorf("child %s has coordinates before layout", c.ID)
		}
	}

	if len(g.Edges) != 3 {
		t.Fatalf("got %d edges, want all 3", len(g.Edges))
	}
	ghost := g.Edges[2]
	if ghost.ID != "e3" || !reflect.DeepEqual(ghost.Sources, []string{"a"}) || !reflect.DeepEqual(ghost.Targets, []string{"ghost"}) {
		t.Errorf("dangling edge = %+v", ghost)
	}
}

func TestProjectDirectionAndSpacing(t *testing.T) {
	tests := []struct {
		dir     diagram.Direction
		spacing float64
		wantDir string
		wantSp  string
	}{
		{diagram.LeftToRight, 0, "RIGHT", "100"},
		{diagram.TopToBottom, 0, "DOWN", "100"},
		{diagram.TopToBottom, 42.5, "DOWN", "42.5"},
		{diagram.LeftToRight, -1, "RIGHT", "100"},
	}
	for _, tt := range tests {
		t.Run(string(tt.dir)+"/"+tt.wantSp, func(t *testing.T) {
			g := Project(testSurface(), nil, nil, tt.dir, tt.spacing)
			if got := g.LayoutOptions[OptDirection]; got != tt.wantDir {
				t.Errorf("direction = %q, want %q", got, tt.wantDir)
			}
			if got := g.LayoutOptions[OptLayerSpacing]; got != tt.wantSp {
				t.Errorf("spacing = %q, want %q", got, tt.wantSp)
			}
			if g.Direction() != tt.dir {
				t.Errorf("Direction() = %s, want %s", g.Direction(), tt.dir)
			}
		})
	}
}

func TestProjectDuplicateIDs(t *testing.T) {
	nodes := []diagram.Node{{ID: "a"}, {ID: "a", Label: "dup"}, {ID: "b"}}
	g := Project(testSurface(), nodes, nil, diagram.LeftToRight, 0)
	if len(g.Children) != 2 {
		t.Fatalf("got %d children, want 2", len(g.Children))
	}
	if g.Children[0].ID != "a" || g.Children[1].ID != "b" {
		t.Errorf("children = %s, %s", g.Children[0].ID, g.Children[1].ID)
	}
}

func TestProjectFreshGraph(t *testing.T) {
	g1 := Project(testSurface(), testNodes(), testEdges(), diagram.LeftToRight, 0)
	g1.Children[0].SetPosition(1, 2)
	g2 := Project(testSurface(), testNodes(), testEdges(), diagram.LeftToRight, 0)
	if g2.Children[0].X != nil {
		t.Error("projection must not reuse a previous graph")
	}
}

func TestCollect(t *testing.T) {
	g := &Graph{Children: []*GraphNode{{ID: "a"}, {ID: "b"}, {ID: "c"}}}
	g.Children[0].SetPosition(10, 20)
	x := 5.0
	g.Children[1].X = &x

	res := Collect(g)
	want := Result{
		"a": {X: 10, Y: 20},
		"b": {X: 5, Y: 0},
		"c": {X: 0, Y: 0},
	}
	if !reflect.DeepEqual(res, want) {
		t.Errorf("Collect = %v, want %v", res, want)
	}

	g.Children[0].SetPosition(99, 99)
	if res["a"].X != 10 {
		t.Error("Result must not alias graph coordinates")
	}
}

func TestReconcileDirectionSides(t *testing.T) {
	tests := []struct {
		dir    diagram.Direction
		source diagram.Side
		target diagram.Side
	}{
		{diagram.LeftToRight, diagram.SideRight, diagram.SideLeft},
		{diagram.TopToBottom, diagram.SideBottom, diagram.SideTop},
	}
	for _, tt := range tests {
		t.Run(string(tt.dir), func(t *testing.T) {
			out := Reconcile(testNodes(), Result{"a": {X: 1, Y: 2}}, tt.dir)
			if out[0].SourcePosition != tt.source || out[0].TargetPosition != tt.target {
				t.Errorf("sides = %s/%s, want %s/%s", out[0].SourcePosition, out[0].TargetPosition, tt.source, tt.target)
			}
			if out[0].Position == nil || *out[0].Position != (diagram.Point{X: 1, Y: 2}) {
				t.Errorf("position = %v", out[0].Position)
			}
			if out[1].SourcePosition != "" || out[1].Position != nil {
				t.Errorf("absent node was modified: %+v", out[1])
			}
		})
	}
}

func TestLayout(t *testing.T) {
	eng := &gridEngine{}
	orch := New(eng)

	out, err := orch.Layout(context.Background(), testSurface(), testNodes(), testEdges(), diagram.LeftToRight)
	if err != nil {
		t.Fatalf("Layout: %v", err)
	}
	if len(out) != 3 {
		t.Fatalf("got %d nodes, want 3", len(out))
	}
	for i, n := range out {
		if n.ID != testNodes()[i].ID {
			t.Errorf("out[%d] = %s, order not preserved", i, n.ID)
		}
		want := diagram.Point{X: float64(100 * i), Y: float64(50 * i)}
		if n.Position == nil || *n.Position != want {
			t.Errorf("%s position = %v, want %v", n.ID, n.Position, want)
		}
		if n.SourcePosition != diagram.SideRight || n.TargetPosition != diagram.SideLeft {
			t.Errorf("%s sides = %s/%s", n.ID, n.SourcePosition, n.TargetPosition)
		}
	}
	if out[0].Label != "A" || out[0].Data["k"] != "v" {
		t.Errorf("opaque fields lost: %+v", out[0])
	}
}

func TestRunCountsOnlyPlacedNodes(t *testing.T) {
	nodes := testNodes()
	nodes[2].Position = &diagram.Point{X: 7, Y: 9}
	surface := diagram.Measurements{"a": {Width: 10, Height: 10}}

	out, err := New(&gridEngine{}).Run(context.Background(), surface, nodes, testEdges(), diagram.LeftToRight)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if out.Placed != 1 {
		t.Errorf("Placed = %d, want 1", out.Placed)
	}
	if len(out.Nodes) != 3 || out.Nodes[2].Position == nil || *out.Nodes[2].Position != (diagram.Point{X: 7, Y: 9}) {
		t.Errorf("pre-positioned node should pass through: %+v", out.Nodes)
	}

	none, err := New(&gridEngine{}).Run(context.Background(), diagram.Measurements{}, nodes, nil, diagram.TopToBottom)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if none.Placed != 0 {
		t.Errorf("Placed = %d without dimensions, want 0", none.Placed)
	}
}

func TestLayoutIdempotent(t *testing.T) {
	orch := New(&gridEngine{})
	ctx := context.Background()

	first, err := orch.Layout(ctx, testSurface(), testNodes(), testEdges(), diagram.TopToBottom)
	if err != nil {
		t.Fatal(err)
	}
	second, err := orch.Layout(ctx, testSurface(), testNodes(), testEdges(), diagram.TopToBottom)
	if err != nil {
		t.Fatal(err)
	}
	if !reflect.DeepEqual(first, second) {
		t.Errorf("repeated layout differs:\n%+v\n%+v", first, second)
	}
}

func TestLayoutOmissionSafety(t *testing.T) {
	eng := &gridEngine{}
	surface := diagram.Measurements{"a": {Width: 10, Height: 10}, "c": {Width: 10, Height: 10}}
	nodes := testNodes()
	nodes[1].Position = &diagram.Point{X: 7, Y: 8}
	nodes[1].SourcePosition = diagram.SideTop

	out, err := New(eng).Layout(context.Background(), surface, nodes, testEdges(), diagram.LeftToRight)
	if err != nil {
		t.Fatal(err)
	}
	if eng.last.Child("b") != nil {
		t.Error("unmeasured node was projected")
	}
	if !reflect.DeepEqual(out[1], nodes[1]) {
		t.Errorf("unmeasured node changed: %+v", out[1])
	}
	if out[0].Position == nil || out[2].Position == nil {
		t.Error("measured nodes were not positioned")
	}
}

func TestLayoutEngineDropsChild(t *testing.T) {
	eng := &gridEngine{drop: "b"}
	nodes := testNodes()
	out, err := New(eng).Layout(context.Background(), testSurface(), nodes, testEdges(), diagram.LeftToRight)
	if err != nil {
		t.Fatal(err)
	}
	if !reflect.DeepEqual(out[1], nodes[1]) {
		t.Errorf("dropped node should pass through unchanged: %+v", out[1])
	}
}

func TestLayoutDanglingEdges(t *testing.T) {
	eng := &gridEngine{}
	edges := []diagram.Edge{{ID: "x", Source: "a", Target: "nowhere"}}
	if _, err := New(eng).Layout(context.Background(), testSurface(), testNodes(), edges, diagram.LeftToRight); err != nil {
		t.Fatalf("dangling edge should not fail: %v", err)
	}
	if len(eng.last.Edges) != 1 || eng.last.Edges[0].Targets[0] != "nowhere" {
		t.Errorf("edge not forwarded: %+v", eng.last.Edges)
	}
}

func TestLayoutDefaultCoordinates(t *testing.T) {
	out, err := New(&gridEngine{onlyX: true}).Layout(context.Background(), testSurface(), testNodes(), nil, diagram.LeftToRight)
	if err != nil {
		t.Fatal(err)
	}
	if out[2].Position.Y != 0 || out[2].Position.X != 200 {
		t.Errorf("position = %+v, want {200 0}", *out[2].Position)
	}
}

func TestLayoutDoesNotMutateInput(t *testing.T) {
	nodes := testNodes()
	edges := testEdges()
	before := testNodes()

	if _, err := New(&gridEngine{}).Layout(context.Background(), testSurface(), nodes, edges, diagram.TopToBottom); err != nil {
		t.Fatal(err)
	}
	if !reflect.DeepEqual(nodes, before) {
		t.Errorf("input nodes mutated: %+v", nodes)
	}
	if !reflect.DeepEqual(edges, testEdges()) {
		t.Errorf("input edges mutated: %+v", edges)
	}
}

func TestLayoutEngineError(t *testing.T) {
	boom := errors.New("boom")
	eng := EngineFunc(func(context.Context, *Graph) error { return boom })

	out, err := New(eng).Layout(context.Background(), testSurface(), testNodes(), testEdges(), diagram.LeftToRight)
	if err != boom {
		t.Errorf("err = %v, want the engine error unchanged", err)
	}
	if out != nil {
		t.Error("no nodes should be returned on failure")
	}
}

func TestLayoutInvalidDirection(t *testing.T) {
	eng := &gridEngine{}
	_, err := New(eng).Layout(context.Background(), testSurface(), testNodes(), nil, diagram.Direction("XY"))
	if !apperrors.Is(err, apperrors.ErrCodeInvalidDirection) {
		t.Errorf("err = %v, want INVALID_DIRECTION", err)
	}
	if eng.calls != 0 {
		t.Error("engine should not be called")
	}
}

func TestLayoutEmptyDirectionDefaults(t *testing.T) {
	eng := &gridEngine{}
	out, err := New(eng).Layout(context.Background(), testSurface(), testNodes(), nil, "")
	if err != nil {
		t.Fatal(err)
	}
	if eng.last.Direction() != diagram.LeftToRight || out[0].TargetPosition != diagram.SideLeft {
		t.Error("empty direction should lay out left-to-right")
	}
}

func TestWithLayerSpacing(t *testing.T) {
	eng := &gridEngine{}
	orch := New(eng, WithLayerSpacing(250), WithLogger(nil))
	if _, err := orch.Layout(context.Background(), testSurface(), testNodes(), nil, diagram.LeftToRight); err != nil {
		t.Fatal(err)
	}
	if got := eng.last.LayerSpacing(); got != 250 {
		t.Errorf("spacing = %v, want 250", got)
	}
	if New(eng, WithLayerSpacing(0)).LayerSpacing() != DefaultLayerSpacing {
		t.Error("zero spacing should keep the default")
	}
}

func TestApply(t *testing.T) {
	orch := New(&gridEngine{})
	ctx := context.Background()

	var state State
	if state.Direction() != diagram.LeftToRight {
		t.Fatalf("zero state direction = %s", state.Direction())
	}

	out, state, err := orch.Apply(ctx, state, testSurface(), testNodes(), nil, diagram.TopToBottom)
	if err != nil {
		t.Fatal(err)
	}
	if state.Previous != diagram.TopToBottom {
		t.Errorf("Previous = %s, want TB", state.Previous)
	}
	if out[0].TargetPosition != diagram.SideTop {
		t.Error("explicit direction not applied")
	}

	out, state, err = orch.Apply(ctx, state, testSurface(), testNodes(), nil, "")
	if err != nil {
		t.Fatal(err)
	}
	if out[0].TargetPosition != diagram.SideTop || state.Previous != diagram.TopToBottom {
		t.Error("empty direction should reuse the remembered direction")
	}
}

func TestApplyRecordsDirectionOnFailure(t *testing.T) {
	boom := errors.New("boom")
	orch := New(EngineFunc(func(context.Context, *Graph) error { return boom }))

	_, state, err := orch.Apply(context.Background(), State{}, testSurface(), testNodes(), nil, diagram.TopToBottom)
	if !errors.Is(err, boom) {
		t.Fatalf("err = %v", err)
	}
	if state.Previous != diagram.TopToBottom {
		t.Errorf("Previous = %s, want TB", state.Previous)
	}

	_, state, err = orch.Apply(context.Background(), state, testSurface(), testNodes(), nil, "sideways")
	if err == nil {
		t.Fatal("expected invalid direction error")
	}
	if state.Previous != diagram.TopToBottom {
		t.Error("invalid direction should leave state unchanged")
	}
}

func TestGraphClone(t *testing.T) {
	g := Project(testSurface(), testNodes(), testEdges(), diagram.LeftToRight, 0)
	g.Children[0].SetPosition(1, 1)
	c := g.Clone()
	*c.Children[0].X = 50
	c.Edges[0].Sources[0] = "z"
	c.LayoutOptions[OptDirection] = DirectionDown

	if *g.Children[0].X != 1 || g.Edges[0].Sources[0] != "a" || g.LayoutOptions[OptDirection] != DirectionRight {
		t.Error("Clone must not share state with the original")
	}
}
