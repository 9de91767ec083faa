package app

import (
	"errors"
	"testing"
	"testing/fstest"

	"github.com/gonewx/hearthvale/pkg/catalog"
	"github.com/gonewx/hearthvale/pkg/components"
	"github.com/gonewx/hearthvale/pkg/ecs"
	"github.com/gonewx/hearthvale/pkg/embedded"
	"github.com/gonewx/hearthvale/pkg/game"
	"github.com/gonewx/hearthvale/pkg/gamedata"
	"github.com/gonewx/hearthvale/pkg/systems"
	"github.com/gonewx/hearthvale/pkg/types"
)

var testDataFS = fstest.MapFS{
	"data/archetypes.yaml": {Data: []byte(`archetypes:
  - key: stone
    name: Stone
    kind: forage
    color: "#9e9e9e"
  - key: chest
    name: Chest
    kind: placeable
  - key: hoe
    name: Hoe
    kind: placeable
`)},
	"data/placement.yaml": {Data: []byte(`staggerSeconds: 0
profiles:
  - name: forage
    persistent: true
    default:
      targetCount: 2
      minSpacing: 0
      maxAttempts: 500
      weights:
        - archetype: stone
          weight: 1
`)},
	"data/session.yaml": {Data: []byte(`startLocation: yard
startPosition: {x: 1.5, y: 1.5}
inventorySlots: 4
starterItems:
  - itemKey: chest
    stackSize: 2
`)},
	"data/locations/yard.yaml": {Data: []byte(`id: yard
name: Yard
rows:
  - "....."
  - "....."
  - "....."
  - "....."
  - "....."
`)},
	"data/locations/meadow.yaml": {Data: []byte(`id: meadow
name: Meadow
rows:
  - "..."
  - "..."
  - "..."
`)},
}

func loadTestBundle(t *testing.T) *gamedata.Bundle {
	t.Helper()
	embedded.Init(testDataFS)
	t.Cleanup(func() { embedded.Init(nil) })
	bundle, err := gamedata.Load()
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	return bundle
}

func newTestController(t *testing.T, bundle *gamedata.Bundle, storage game.SlotStorage, newGame bool) *Controller {
	t.Helper()
	ctrl, err := NewController(bundle, storage, "test", newGame)
	if err != nil {
		t.Fatalf("NewController failed: %v", err)
	}
	return ctrl
}

// settle 推进到生成结束
func settle(t *testing.T, ctrl *Controller) {
	t.Helper()
	for i := 0; i < 1000 && ctrl.Coordinator().State() != systems.StateIdle; i++ {
		ctrl.Update(0.01)
	}
	if ctrl.Coordinator().State() != systems.StateIdle {
		t.Fatal("generation did not finish")
	}
}

// entityIDsByKey 当前地点按原型键分组的实体
func entityIDsByKey(ctrl *Controller) map[string][]ecs.EntityID {
	em := ctrl.EntityManager()
	out := map[string][]ecs.EntityID{}
	for _, id := range ecs.GetEntitiesWith1[*components.ArchetypeComponent](em) {
		arch, _ := ecs.GetComponent[*components.ArchetypeComponent](em, id)
		out[arch.Key] = append(out[arch.Key], id)
	}
	return out
}

// freeCell 返回当前地点第一个没有实体的格子中心
func freeCell(t *testing.T, ctrl *Controller) types.Vec2 {
	t.Helper()
	tm, _ := ctrl.bundle.Locations.TileMap(ctrl.Session().CurrentLocation)
	for y := 0; y < tm.Rows(); y++ {
		for x := 0; x < tm.Cols(); x++ {
			cell := types.GridCell{X: x, Y: y}
			if _, taken := ctrl.Coordinator().EntityAt(cell); !taken {
				return tm.CellCenter(cell)
			}
		}
	}
	t.Fatal("no free cell")
	return types.Vec2{}
}

func TestControllerNewGame(t *testing.T) {
	bundle := loadTestBundle(t)
	ctrl := newTestController(t, bundle, game.NewMemoryStorage(), false)

	if !ctrl.Session().Fresh {
		t.Error("Expected a fresh session on empty storage")
	}
	if err := ctrl.Start(""); err != nil {
		t.Fatalf("Start failed: %v", err)
	}
	settle(t, ctrl)

	if got := ctrl.Coordinator().CurrentLocation(); got != "yard" {
		t.Errorf("Expected location yard, got %s", got)
	}
	if got := len(entityIDsByKey(ctrl)["stone"]); got != 2 {
		t.Errorf("Expected 2 stones, got %d", got)
	}
	if len(ctrl.Session().Inventory) != 4 {
		t.Errorf("Expected 4 inventory slots, got %d", len(ctrl.Session().Inventory))
	}
}

func TestControllerPlaceAndHarvest(t *testing.T) {
	bundle := loadTestBundle(t)
	ctrl := newTestController(t, bundle, game.NewMemoryStorage(), false)
	if err := ctrl.Start(""); err != nil {
		t.Fatalf("Start failed: %v", err)
	}
	settle(t, ctrl)
	s := ctrl.Session()

	t.Run("放置选中物品", func(t *testing.T) {
		s.PlayerPosition = freeCell(t, ctrl)
		ctrl.SelectSlot(0)
		if err := ctrl.PlaceSelected(); err != nil {
			t.Fatalf("PlaceSelected failed: %v", err)
		}
		if s.Inventory[0] == nil || s.Inventory[0].StackSize != 1 {
			t.Errorf("Expected one chest left, got %+v", s.Inventory[0])
		}
		if got := len(entityIDsByKey(ctrl)["chest"]); got != 1 {
			t.Errorf("Expected 1 placed chest, got %d", got)
		}
	})

	t.Run("同一格子不能重复放置", func(t *testing.T) {
		err := ctrl.PlaceSelected()
		if !errors.Is(err, systems.ErrCellOccupied) {
			t.Errorf("Expected ErrCellOccupied, got %v", err)
		}
		if s.Inventory[0].StackSize != 1 {
			t.Errorf("Failed placement must not consume the item")
		}
	})

	t.Run("空格子不能放置", func(t *testing.T) {
		ctrl.SelectSlot(1)
		if err := ctrl.PlaceSelected(); err == nil {
			t.Error("Expected error for empty slot")
		}
	})

	t.Run("采集物品", func(t *testing.T) {
		stones := entityIDsByKey(ctrl)["stone"]
		if len(stones) == 0 {
			t.Fatal("no stone to harvest")
		}
		pos, _ := ecs.GetComponent[*components.PositionComponent](ctrl.EntityManager(), stones[0])
		s.PlayerPosition = types.Vec2{X: pos.X, Y: pos.Y}
		if !ctrl.Harvest() {
			t.Fatal("Expected harvest to succeed")
		}
		if got := len(entityIDsByKey(ctrl)["stone"]); got != len(stones)-1 {
			t.Errorf("Expected %d stones left, got %d", len(stones)-1, got)
		}
		if s.Inventory[1] == nil || s.Inventory[1].ItemKey != "stone" {
			t.Errorf("Expected stone in slot 1, got %+v", s.Inventory[1])
		}
	})

	t.Run("可放置物品不能采集", func(t *testing.T) {
		chest := entityIDsByKey(ctrl)["chest"][0]
		pos, _ := ecs.GetComponent[*components.PositionComponent](ctrl.EntityManager(), chest)
		s.PlayerPosition = types.Vec2{X: pos.X, Y: pos.Y}
		if ctrl.Harvest() {
			t.Error("Chest must not be harvestable")
		}
	})
}

func TestControllerSaveAndContinue(t *testing.T) {
	bundle := loadTestBundle(t)
	storage := game.NewMemoryStorage()

	first := newTestController(t, bundle, storage, false)
	if err := first.Start(""); err != nil {
		t.Fatalf("Start failed: %v", err)
	}
	settle(t, first)
	chestPos := freeCell(t, first)
	first.Session().PlayerPosition = chestPos
	first.SelectSlot(0)
	if err := first.PlaceSelected(); err != nil {
		t.Fatalf("PlaceSelected failed: %v", err)
	}
	first.Session().Money = 42
	if err := first.Save(); err != nil {
		t.Fatalf("Save failed: %v", err)
	}

	second := newTestController(t, bundle, storage, false)
	if second.Session().Fresh {
		t.Fatal("Expected continued session")
	}
	if second.Session().Money != 42 {
		t.Errorf("Expected money 42, got %d", second.Session().Money)
	}
	if err := second.Start(""); err != nil {
		t.Fatalf("Start failed: %v", err)
	}
	settle(t, second)

	tm, _ := bundle.Locations.TileMap("yard")
	id, ok := second.Coordinator().EntityAt(tm.CellAt(chestPos))
	if !ok {
		t.Fatal("Expected the placed chest to be restored")
	}
	arch, _ := ecs.GetComponent[*components.ArchetypeComponent](second.EntityManager(), id)
	if arch.Kind != catalog.KindPlaceable {
		t.Errorf("Expected placeable at chest cell, got %s", arch.Kind)
	}
	if got := len(entityIDsByKey(second)["stone"]); got != 2 {
		t.Errorf("Expected restored stones to count toward target (2), got %d", got)
	}

	t.Run("新游戏忽略存档", func(t *testing.T) {
		third := newTestController(t, bundle, storage, true)
		if !third.Session().Fresh || third.Session().Money == 42 {
			t.Error("Expected a new session")
		}
		if err := third.Start(""); err != nil {
			t.Fatalf("Start failed: %v", err)
		}
		settle(t, third)
		if len(entityIDsByKey(third)["chest"]) != 0 {
			t.Error("New game must not restore the previous session's entities")
		}
	})
}

func TestControllerTravel(t *testing.T) {
	bundle := loadTestBundle(t)
	ctrl := newTestController(t, bundle, game.NewMemoryStorage(), false)
	if err := ctrl.Start(""); err != nil {
		t.Fatalf("Start failed: %v", err)
	}
	settle(t, ctrl)
	before := map[types.GridCell]bool{}
	for _, snap := range ctrl.Coordinator().LiveSnapshots() {
		before[snap.GridCell] = true
	}

	t.Run("未知地点", func(t *testing.T) {
		pos := ctrl.Session().PlayerPosition
		err := ctrl.Travel("mine")
		if !errors.Is(err, systems.ErrUnknownLocation) {
			t.Errorf("Expected ErrUnknownLocation, got %v", err)
		}
		if ctrl.Session().CurrentLocation != "yard" || ctrl.Session().PlayerPosition != pos {
			t.Error("Failed travel must not move the player")
		}
	})

	t.Run("前往另一个地点", func(t *testing.T) {
		if err := ctrl.Travel("meadow"); err != nil {
			t.Fatalf("Travel failed: %v", err)
		}
		want := types.Vec2{X: 1.5, Y: 1.5}
		if ctrl.Session().PlayerPosition != want {
			t.Errorf("Expected spawn at %v, got %v", want, ctrl.Session().PlayerPosition)
		}
		settle(t, ctrl)
		for _, snap := range ctrl.Coordinator().LiveSnapshots() {
			if snap.Location != "meadow" {
				t.Errorf("Entity from %s still live", snap.Location)
			}
		}
	})

	t.Run("返回时恢复离开前的实体", func(t *testing.T) {
		if err := ctrl.Travel("yard"); err != nil {
			t.Fatalf("Travel failed: %v", err)
		}
		settle(t, ctrl)
		after := ctrl.Coordinator().LiveSnapshots()
		if len(after) != len(before) {
			t.Fatalf("Expected %d entities, got %d", len(before), len(after))
		}
		for _, snap := range after {
			if !before[snap.GridCell] {
				t.Errorf("Unexpected entity at %v", snap.GridCell)
			}
		}
	})
}

func TestControllerClock(t *testing.T) {
	bundle := loadTestBundle(t)
	ctrl := newTestController(t, bundle, game.NewMemoryStorage(), false)
	if err := ctrl.Start(""); err != nil {
		t.Fatalf("Start failed: %v", err)
	}
	s := ctrl.Session()

	tests := []struct {
		name      string
		day       int
		month     string
		wantDay   int
		wantMonth string
	}{
		{"普通换日", 5, "spring", 6, "spring"},
		{"月末换月", daysPerMonth, "spring", 1, "summer"},
		{"年末回到春季", daysPerMonth, "winter", 1, "spring"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s.CalendarDay, s.CalendarMonth, s.TimeOfDay = tt.day, tt.month, 0.5
			ctrl.Update(dayLengthSeconds)
			if s.CalendarDay != tt.wantDay || s.CalendarMonth != tt.wantMonth {
				t.Errorf("Expected %s %d, got %s %d", tt.wantMonth, tt.wantDay, s.CalendarMonth, s.CalendarDay)
			}
		})
	}
}

func TestParseHexColor(t *testing.T) {
	tests := []struct {
		in   string
		ok   bool
		want [3]uint8
	}{
		{"#c2185b", true, [3]uint8{0xc2, 0x18, 0x5b}},
		{"9e9e9e", true, [3]uint8{0x9e, 0x9e, 0x9e}},
		{"#fff", false, [3]uint8{}},
		{"#zzzzzz", false, [3]uint8{}},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, ok := parseHexColor(tt.in)
			if ok != tt.ok {
				t.Fatalf("ok = %v, want %v", ok, tt.ok)
			}
			if ok && [3]uint8{got.R, got.G, got.B} != tt.want {
				t.Errorf("got %v, want %v", got, tt.want)
			}
		})
	}
}
