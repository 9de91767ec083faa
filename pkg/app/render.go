package app

import (
	"fmt"
	"image/color"
	"math"
	"strconv"
	"strings"

	"github.com/gonewx/hearthvale/pkg/catalog"
	"github.com/gonewx/hearthvale/pkg/components"
	"github.com/gonewx/hearthvale/pkg/ecs"
	"github.com/gonewx/hearthvale/pkg/types"
	"github.com/gonewx/hearthvale/pkg/world"
	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/ebitenutil"
	"github.com/hajimehoshi/ebiten/v2/vector"
)

// hudHeight 底部状态栏高度
const hudHeight = 96

var (
	tileColors = map[rune]color.RGBA{
		'.': {R: 86, G: 140, B: 70, A: 255},
		',': {R: 150, G: 120, B: 80, A: 255},
		':': {R: 170, G: 130, B: 90, A: 255},
	}
	wallColor     = color.RGBA{R: 50, G: 50, B: 58, A: 255}
	obstacleColor = color.RGBA{R: 30, G: 70, B: 30, A: 200}
	playerColor   = color.RGBA{R: 240, G: 220, B: 80, A: 255}
	fallbackColor = color.RGBA{R: 200, G: 200, B: 200, A: 255}
)

// viewport 世界坐标到屏幕坐标的变换
type viewport struct {
	origin types.Vec2
	scale  float64
	offX   float64
	offY   float64
}

func newViewport(tm *world.TileMap) viewport {
	cs := tm.CellSize()
	first := tm.CellCenter(types.GridCell{})
	origin := types.Vec2{X: first.X - cs/2, Y: first.Y - cs/2}
	w := float64(tm.Cols()) * cs
	h := float64(tm.Rows()) * cs
	scale := math.Min(float64(ScreenWidth)/w, float64(ScreenHeight-hudHeight)/h)
	return viewport{
		origin: origin,
		scale:  scale,
		offX:   (float64(ScreenWidth) - w*scale) / 2,
		offY:   (float64(ScreenHeight-hudHeight) - h*scale) / 2,
	}
}

func (v viewport) toScreen(p types.Vec2) (float32, float32) {
	return float32(v.offX + (p.X-v.origin.X)*v.scale), float32(v.offY + (p.Y-v.origin.Y)*v.scale)
}

// drawLocation 绘制地块、障碍物、放置实体和玩家
func (a *App) drawLocation(screen *ebiten.Image) {
	session := a.ctrl.Session()
	tm, ok := a.bundle.Locations.TileMap(session.CurrentLocation)
	if !ok {
		ebitenutil.DebugPrintAt(screen, "no layout for "+session.CurrentLocation, 10, 10)
		return
	}
	vp := newViewport(tm)
	cell := float32(tm.CellSize() * vp.scale)

	for y := 0; y < tm.Rows(); y++ {
		for x := 0; x < tm.Cols(); x++ {
			c := types.GridCell{X: x, Y: y}
			clr, ok := tileColors[tm.Tile(c)]
			if !ok {
				clr = wallColor
			}
			sx, sy := vp.toScreen(tm.CellCenter(c))
			vector.DrawFilledRect(screen, sx-cell/2, sy-cell/2, cell-1, cell-1, clr, false)
		}
	}

	for _, o := range tm.Obstacles() {
		sx, sy := vp.toScreen(o.Center)
		vector.DrawFilledCircle(screen, sx, sy, float32(o.Radius*vp.scale), obstacleColor, true)
	}

	em := a.ctrl.EntityManager()
	for _, id := range ecs.GetEntitiesWith2[*components.PositionComponent, *components.ArchetypeComponent](em) {
		pos, _ := ecs.GetComponent[*components.PositionComponent](em, id)
		arch, _ := ecs.GetComponent[*components.ArchetypeComponent](em, id)
		sx, sy := vp.toScreen(types.Vec2{X: pos.X, Y: pos.Y})
		clr := a.archetypeColor(arch.Key)
		if arch.Kind == catalog.KindPlaceable {
			vector.DrawFilledRect(screen, sx-cell*0.35, sy-cell*0.35, cell*0.7, cell*0.7, clr, false)
		} else {
			vector.DrawFilledCircle(screen, sx, sy, cell*0.3, clr, true)
		}
	}

	px, py := vp.toScreen(session.PlayerPosition)
	vector.DrawFilledCircle(screen, px, py, cell*0.4, playerColor, true)
}

// drawHUD 绘制状态栏：地点、日历、背包
func (a *App) drawHUD(screen *ebiten.Image) {
	s := a.ctrl.Session()
	coord := a.ctrl.Coordinator()
	top := ScreenHeight - hudHeight
	vector.DrawFilledRect(screen, 0, float32(top), ScreenWidth, hudHeight, color.RGBA{A: 200}, false)

	hour := int(s.TimeOfDay * 24)
	minute := int(s.TimeOfDay*24*60) % 60
	ebitenutil.DebugPrintAt(screen, fmt.Sprintf("%s  |  %s %d  %02d:%02d  |  $%d  HP %d  EN %d",
		s.CurrentLocation, s.CalendarMonth, s.CalendarDay, hour, minute, s.Money, s.Health, s.Energy), 10, top+6)
	ebitenutil.DebugPrintAt(screen, fmt.Sprintf("epoch %d  %s  tasks %d",
		coord.CurrentEpoch(), coord.State(), len(coord.Tasks())), 10, top+24)

	var slots []string
	for i, it := range s.Inventory {
		label := "-"
		if it != nil {
			label = fmt.Sprintf("%s x%d", it.ItemKey, it.StackSize)
		}
		if i == s.SelectedItemIndex {
			label = "[" + label + "]"
		}
		slots = append(slots, label)
	}
	ebitenutil.DebugPrintAt(screen, strings.Join(slots, " "), 10, top+42)

	if a.settings.Settings().ShowHelp {
		help := "WASD move  E harvest  P place  Tab select  F5 save  H hide help"
		for i, id := range a.bundle.Locations.IDs() {
			if i >= 9 {
				break
			}
			help += fmt.Sprintf("  %d %s", i+1, id)
		}
		ebitenutil.DebugPrintAt(screen, help, 10, top+60)
	}

	if msg := a.ctrl.Message(); msg != "" {
		ebitenutil.DebugPrintAt(screen, msg, 10, 10)
	}
}

func (a *App) archetypeColor(key string) color.Color {
	arch, ok := a.bundle.Catalog.Resolve(key)
	if !ok {
		return fallbackColor
	}
	if clr, ok := parseHexColor(arch.Color); ok {
		return clr
	}
	return fallbackColor
}

// parseHexColor 解析 #RRGGBB
func parseHexColor(s string) (color.RGBA, bool) {
	s = strings.TrimPrefix(s, "#")
	if len(s) != 6 {
		return color.RGBA{}, false
	}
	v, err := strconv.ParseUint(s, 16, 32)
	if err != nil {
		return color.RGBA{}, false
	}
	return color.RGBA{R: uint8(v >> 16), G: uint8(v >> 8), B: uint8(v), A: 255}, true
}
