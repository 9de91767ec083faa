package world

import (
	"testing"

	"github.com/gonewx/hearthvale/pkg/types"
)

func newTestMap(t *testing.T) *TileMap {
	t.Helper()
	tm, err := NewTileMap("test", "", 2.0, types.Vec2{X: 10, Y: 20}, []string{
		"#####",
		"#...#",
		"#.~.#",
		"#####",
	}, []Obstacle{
		{Center: types.Vec2{X: 15, Y: 23}, Radius: 0.5, Layer: 0b01},
	})
	if err != nil {
		t.Fatalf("NewTileMap failed: %v", err)
	}
	return tm
}

func TestTileMapBounds(t *testing.T) {
	tm := newTestMap(t)
	b := tm.Bounds()
	if b.Min != (types.Vec2{X: 10, Y: 20}) {
		t.Errorf("unexpected min %v", b.Min)
	}
	if b.Max != (types.Vec2{X: 20, Y: 28}) {
		t.Errorf("unexpected max %v", b.Max)
	}
	if tm.Name() != "test" {
		t.Errorf("name should default to id, got %q", tm.Name())
	}
}

func TestTileMapCellConversion(t *testing.T) {
	tm := newTestMap(t)

	tests := []struct {
		name string
		p    types.Vec2
		want types.GridCell
	}{
		{"原点格", types.Vec2{X: 10, Y: 20}, types.GridCell{X: 0, Y: 0}},
		{"格内任意点", types.Vec2{X: 13.9, Y: 23.1}, types.GridCell{X: 1, Y: 1}},
		{"左侧越界", types.Vec2{X: 9, Y: 20}, types.GridCell{X: -1, Y: 0}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tm.CellAt(tt.p); got != tt.want {
				t.Errorf("CellAt(%v) = %v, want %v", tt.p, got, tt.want)
			}
		})
	}

	center := tm.CellCenter(types.GridCell{X: 1, Y: 1})
	if center != (types.Vec2{X: 13, Y: 23}) {
		t.Errorf("unexpected center %v", center)
	}
	// 中心点量化回同一格
	if tm.CellAt(center) != (types.GridCell{X: 1, Y: 1}) {
		t.Error("center should quantize back to its own cell")
	}
}

func TestTileMapWalkable(t *testing.T) {
	tm := newTestMap(t)

	tests := []struct {
		cell types.GridCell
		want bool
	}{
		{types.GridCell{X: 1, Y: 1}, true},
		{types.GridCell{X: 0, Y: 0}, false},  // 墙
		{types.GridCell{X: 2, Y: 2}, false},  // 水
		{types.GridCell{X: 9, Y: 9}, false},  // 越界
		{types.GridCell{X: -1, Y: 1}, false}, // 越界
	}
	for _, tt := range tests {
		if got := tm.IsWalkable(tt.cell); got != tt.want {
			t.Errorf("IsWalkable(%v) = %v, want %v", tt.cell, got, tt.want)
		}
	}
}

func TestTileMapIsBlocked(t *testing.T) {
	tm := newTestMap(t)
	p := types.Vec2{X: 15, Y: 23}

	if !tm.IsBlocked(p, 0b01) {
		t.Error("point inside obstacle on matching layer should be blocked")
	}
	if tm.IsBlocked(p, 0b10) {
		t.Error("obstacle on other layer should be ignored")
	}
	if tm.IsBlocked(types.Vec2{X: 13, Y: 23}, types.MaskAll) {
		t.Error("point outside obstacle should not be blocked")
	}
}

func TestParseTileMap(t *testing.T) {
	data := []byte(`
id: forest
name: Whispering Forest
cellSize: 1.5
origin: {x: 0, y: 0}
rows:
  - "...."
  - ".##."
obstacles:
  - center: {x: 0.75, y: 0.75}
    radius: 0.3
    layer: 2
`)
	tm, err := ParseTileMap(data)
	if err != nil {
		t.Fatalf("ParseTileMap failed: %v", err)
	}
	if tm.ID() != "forest" || tm.Cols() != 4 || tm.Rows() != 2 || tm.CellSize() != 1.5 {
		t.Errorf("unexpected tile map: id=%s cols=%d rows=%d size=%f", tm.ID(), tm.Cols(), tm.Rows(), tm.CellSize())
	}
	if len(tm.Obstacles()) != 1 || tm.Obstacles()[0].Layer != 2 {
		t.Errorf("unexpected obstacles: %+v", tm.Obstacles())
	}

	if _, err := ParseTileMap([]byte("rows: ['..']")); err == nil {
		t.Error("missing id should fail")
	}
	if _, err := ParseTileMap([]byte("id: empty")); err == nil {
		t.Error("missing rows should fail")
	}
}

func TestRegistry(t *testing.T) {
	r := NewRegistry()
	tm := newTestMap(t)

	if err := r.Register(tm); err != nil {
		t.Fatalf("Register failed: %v", err)
	}
	if err := r.Register(tm); err == nil {
		t.Error("duplicate register should fail")
	}
	if err := r.Register(nil); err == nil {
		t.Error("nil register should fail")
	}

	q, ok := r.Query("test")
	if !ok || q == nil {
		t.Fatal("registered location should be queryable")
	}
	if _, ok := r.Query("nowhere"); ok {
		t.Error("unknown location should not be queryable")
	}
	if ids := r.IDs(); len(ids) != 1 || ids[0] != "test" {
		t.Errorf("unexpected ids %v", ids)
	}
}
