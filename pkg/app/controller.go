package app

import (
	"errors"
	"fmt"
	"log"
	"math"

	"github.com/gonewx/hearthvale/pkg/catalog"
	"github.com/gonewx/hearthvale/pkg/components"
	"github.com/gonewx/hearthvale/pkg/ecs"
	"github.com/gonewx/hearthvale/pkg/game"
	"github.com/gonewx/hearthvale/pkg/gamedata"
	"github.com/gonewx/hearthvale/pkg/systems"
	"github.com/gonewx/hearthvale/pkg/types"
	"github.com/gonewx/hearthvale/pkg/world"
)

const (
	// dayLengthSeconds 游戏内一天对应的现实秒数
	dayLengthSeconds = 840.0
	daysPerMonth     = 28
	// playerSpeed 玩家移动速度（世界单位/秒）
	playerSpeed = 5.0
	// messageSeconds 提示文字显示时长
	messageSeconds = 2.5
)

var months = []string{"spring", "summer", "fall", "winter"}

// Controller 演示程序的游戏逻辑，不依赖输入和渲染
type Controller struct {
	bundle  *gamedata.Bundle
	em      *ecs.EntityManager
	store   *game.PersistenceStore
	coord   *systems.LocationCoordinator
	session *game.Session

	message    string
	messageTTL float64
}

// NewController 创建控制器并决定新游戏或继续存档
//
// 参数：
//   - storage: 存档后端
//   - slot: 槽位名
//   - newGame: 为 true 时忽略槽位中的现有存档
func NewController(bundle *gamedata.Bundle, storage game.SlotStorage, slot string, newGame bool) (*Controller, error) {
	c := &Controller{
		bundle: bundle,
		em:     ecs.NewEntityManager(),
		store:  game.NewPersistenceStore(storage, slot, bundle.Catalog),
	}

	if record, ok := c.store.ResumeSession(); ok && !newGame {
		c.session = game.SessionFromRecord(record)
		log.Printf("[App] Continuing slot %s at %s", slot, c.session.CurrentLocation)
	} else {
		c.store.BeginNewSession()
		c.session = game.NewSession(bundle.Session)
		log.Printf("[App] Starting new game on slot %s", slot)
	}

	coord, err := systems.NewLocationCoordinator(systems.CoordinatorConfig{
		EntityManager: c.em,
		Catalog:       bundle.Catalog,
		Locations:     bundle.Locations,
		Placement:     bundle.Placement,
		Store:         c.store,
		Anchor: func() (types.Vec2, bool) {
			return c.session.PlayerPosition, true
		},
		SaveOnLeave: true,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create location coordinator: %w", err)
	}
	coord.SetFreshSession(c.session.Fresh)
	c.coord = coord
	return c, nil
}

// Start 激活起始地点
//
// override 非空时前往指定地点，否则回到会话记录的地点。
func (c *Controller) Start(override string) error {
	loc := c.session.CurrentLocation
	if override != "" {
		return c.Travel(override)
	}
	if loc == "" {
		loc = c.bundle.Session.StartLocation
	}
	c.session.CurrentLocation = loc
	return c.coord.OnLocationActivated(loc)
}

// Update 推进一帧
func (c *Controller) Update(deltaTime float64) {
	c.session.Tick(deltaTime)
	c.advanceClock(deltaTime)
	c.coord.Update(deltaTime)
	if c.messageTTL > 0 {
		c.messageTTL -= deltaTime
		if c.messageTTL <= 0 {
			c.message = ""
		}
	}
}

func (c *Controller) advanceClock(deltaTime float64) {
	c.session.TimeOfDay += deltaTime / dayLengthSeconds
	for c.session.TimeOfDay >= 1 {
		c.session.TimeOfDay -= 1
		c.session.CalendarDay++
		if c.session.CalendarDay > daysPerMonth {
			c.session.CalendarDay = 1
			c.session.CalendarMonth = nextMonth(c.session.CalendarMonth)
		}
	}
}

func nextMonth(m string) string {
	for i, name := range months {
		if name == m {
			return months[(i+1)%len(months)]
		}
	}
	return months[0]
}

// Travel 前往另一个地点，玩家出现在离地图中心最近的可通行格子
func (c *Controller) Travel(locationID string) error {
	tm, ok := c.bundle.Locations.TileMap(locationID)
	if !ok {
		return fmt.Errorf("%w: %s", systems.ErrUnknownLocation, locationID)
	}
	prevLoc, prevPos := c.session.CurrentLocation, c.session.PlayerPosition

	// 锚点在激活时读取，先移动玩家
	c.session.CurrentLocation = locationID
	c.session.PlayerPosition = spawnPoint(tm)
	if err := c.coord.OnLocationActivated(locationID); err != nil {
		c.session.CurrentLocation, c.session.PlayerPosition = prevLoc, prevPos
		return err
	}
	c.notify("Arrived at " + tm.Name())
	return nil
}

// spawnPoint 返回离地图中心最近的可通行、无障碍的格子中心
func spawnPoint(tm *world.TileMap) types.Vec2 {
	b := tm.Bounds()
	mid := types.Vec2{X: (b.Min.X + b.Max.X) / 2, Y: (b.Min.Y + b.Max.Y) / 2}
	best, bestDist := mid, math.MaxFloat64
	for y := 0; y < tm.Rows(); y++ {
		for x := 0; x < tm.Cols(); x++ {
			cell := types.GridCell{X: x, Y: y}
			if !tm.IsWalkable(cell) {
				continue
			}
			center := tm.CellCenter(cell)
			if tm.IsBlocked(center, types.MaskAll) {
				continue
			}
			if d := center.DistanceTo(mid); d < bestDist {
				best, bestDist = center, d
			}
		}
	}
	return best
}

// MovePlayer 按方向移动玩家，目标格子不可通行时不动
func (c *Controller) MovePlayer(dx, dy, deltaTime float64) {
	if dx == 0 && dy == 0 {
		return
	}
	query, ok := c.bundle.Locations.Query(c.session.CurrentLocation)
	if !ok {
		return
	}
	l := math.Hypot(dx, dy)
	next := types.Vec2{
		X: c.session.PlayerPosition.X + dx/l*playerSpeed*deltaTime,
		Y: c.session.PlayerPosition.Y + dy/l*playerSpeed*deltaTime,
	}
	if query.IsWalkable(query.CellAt(next)) {
		c.session.PlayerPosition = next
	}
}

// Harvest 采集玩家所在格子上的采集物
func (c *Controller) Harvest() bool {
	query, ok := c.bundle.Locations.Query(c.session.CurrentLocation)
	if !ok {
		return false
	}
	id, ok := c.coord.EntityAt(query.CellAt(c.session.PlayerPosition))
	if !ok {
		return false
	}
	arch, ok := ecs.GetComponent[*components.ArchetypeComponent](c.em, id)
	if !ok || arch.Kind != catalog.KindForage {
		return false
	}
	if !c.addItem(arch.Key) {
		c.notify("Inventory full")
		return false
	}
	c.coord.RemoveEntity(id)
	c.notify("Picked up " + arch.Key)
	return true
}

// PlaceSelected 在玩家所在格子放下当前选中的可放置物品
func (c *Controller) PlaceSelected() error {
	idx := c.session.SelectedItemIndex
	if idx < 0 || idx >= len(c.session.Inventory) || c.session.Inventory[idx] == nil {
		return fmt.Errorf("no item selected")
	}
	item := c.session.Inventory[idx]
	arch, ok := c.bundle.Catalog.Resolve(item.ItemKey)
	if !ok || arch.Kind != catalog.KindPlaceable {
		return fmt.Errorf("%w: %s cannot be placed", systems.ErrNotPlaceable, item.ItemKey)
	}
	if _, err := c.coord.PlaceEntity(item.ItemKey, c.session.PlayerPosition); err != nil {
		if errors.Is(err, systems.ErrCellOccupied) {
			c.notify("Something is already here")
		}
		return err
	}
	item.StackSize--
	if item.StackSize <= 0 {
		c.session.Inventory[idx] = nil
	}
	c.notify("Placed " + arch.Name)
	return nil
}

// SelectSlot 选中背包格子
func (c *Controller) SelectSlot(i int) {
	if i >= 0 && i < len(c.session.Inventory) {
		c.session.SelectedItemIndex = i
	}
}

// Save 保存会话和当前地点
func (c *Controller) Save() error {
	if err := c.coord.SaveSession(c.session); err != nil {
		c.notify("Save failed")
		return fmt.Errorf("failed to save game: %w", err)
	}
	c.session.Fresh = false
	c.notify("Game saved")
	return nil
}

func (c *Controller) addItem(key string) bool {
	for _, it := range c.session.Inventory {
		if it != nil && it.ItemKey == key {
			it.StackSize++
			return true
		}
	}
	for i, it := range c.session.Inventory {
		if it == nil {
			c.session.Inventory[i] = &game.InventoryItem{ItemKey: key, StackSize: 1}
			return true
		}
	}
	return false
}

func (c *Controller) notify(msg string) {
	c.message = msg
	c.messageTTL = messageSeconds
	log.Printf("[App] %s", msg)
}

// Session 返回当前会话
func (c *Controller) Session() *game.Session { return c.session }

// Coordinator 返回地点协调器
func (c *Controller) Coordinator() *systems.LocationCoordinator { return c.coord }

// EntityManager 返回实体管理器
func (c *Controller) EntityManager() *ecs.EntityManager { return c.em }

// Message 返回当前提示文字
func (c *Controller) Message() string { return c.message }
