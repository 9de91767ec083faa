package systems

import (
	"errors"
	"fmt"
	"log"
	"math/rand"
	"time"

	"github.com/gonewx/hearthvale/pkg/catalog"
	"github.com/gonewx/hearthvale/pkg/components"
	"github.com/gonewx/hearthvale/pkg/config"
	"github.com/gonewx/hearthvale/pkg/ecs"
	"github.com/gonewx/hearthvale/pkg/entities"
	"github.com/gonewx/hearthvale/pkg/game"
	"github.com/gonewx/hearthvale/pkg/types"
	"github.com/gonewx/hearthvale/pkg/world"
	"github.com/zyedidia/generic/mapset"
)

var (
	// ErrUnknownLocation 地点 ID 为空或未注册
	ErrUnknownLocation = errors.New("unknown location")
	// ErrNoActiveLocation 尚未激活任何地点
	ErrNoActiveLocation = errors.New("no active location")
	// ErrCellOccupied 目标格子已有放置实体
	ErrCellOccupied = errors.New("cell already occupied")
	// ErrNotPlaceable 目标位置不可通行、被阻挡或原型未知
	ErrNotPlaceable = errors.New("position not placeable")
)

// CoordinatorState 地点生命周期状态
type CoordinatorState int

const (
	StateIdle CoordinatorState = iota
	StateGenerating
	StateCommitted
	StateCancelled
)

func (s CoordinatorState) String() string {
	switch s {
	case StateIdle:
		return "Idle"
	case StateGenerating:
		return "Generating"
	case StateCommitted:
		return "Committed"
	case StateCancelled:
		return "Cancelled"
	default:
		return "Unknown"
	}
}

// SnapshotStore 协调器依赖的存档接口，由 game.PersistenceStore 实现
type SnapshotStore interface {
	Save(locationID string, live []types.PlacedEntitySnapshot) error
	SaveSession(session *game.Session, locationID string, live []types.PlacedEntitySnapshot) error
	RestoreForLocation(locationID string) ([]types.PlacedEntitySnapshot, error)
}

// CoordinatorConfig 协调器依赖
type CoordinatorConfig struct {
	EntityManager *ecs.EntityManager
	Catalog       catalog.EntityCatalog
	Locations     world.QueryProvider
	Placement     *config.PlacementConfig
	// Store 为 nil 时不恢复也不保存
	Store SnapshotStore
	// Scheduler 为 nil 时按 Placement.StaggerSeconds 新建
	Scheduler *TaskScheduler
	Rand      *rand.Rand
	// Anchor 返回当前排除锚点（玩家位置），nil 表示无锚点
	Anchor func() (types.Vec2, bool)
	// SaveOnLeave 切换地点前先保存即将离开的地点
	SaveOnLeave bool
}

// LocationCoordinator 地点生命周期协调器
//
// 状态机：Idle → Generating → {Committed, Cancelled} → Idle
//
// 每次地点激活：
//  1. 地点代数加一
//  2. 立即销毁所有其他代数的存活实体
//  3. 非新游戏时恢复该地点的存档快照
//  4. 为每个生成配置启动一个绑定新代数的 GenerationTask
//
// 生成中再次激活会抢占：旧任务在下一步发现代数变化后自行停止。
type LocationCoordinator struct {
	em        *ecs.EntityManager
	catalog   catalog.EntityCatalog
	locations world.QueryProvider
	placement *config.PlacementConfig
	store     SnapshotStore
	scheduler *TaskScheduler
	rng       *rand.Rand
	anchor    func() (types.Vec2, bool)

	saveOnLeave bool
	fresh       bool

	epoch       types.LocationEpoch
	location    string
	state       CoordinatorState
	lastOutcome CoordinatorState
	tasks       []*GenerationTask
}

// NewLocationCoordinator 创建协调器
func NewLocationCoordinator(cfg CoordinatorConfig) (*LocationCoordinator, error) {
	if cfg.EntityManager == nil {
		return nil, fmt.Errorf("entity manager is required")
	}
	if cfg.Catalog == nil {
		return nil, fmt.Errorf("entity catalog is required")
	}
	if cfg.Locations == nil {
		return nil, fmt.Errorf("location query provider is required")
	}
	if cfg.Placement == nil {
		return nil, fmt.Errorf("placement config is required")
	}

	scheduler := cfg.Scheduler
	if scheduler == nil {
		scheduler = NewTaskScheduler(cfg.Placement.StaggerSeconds)
	}
	rng := cfg.Rand
	if rng == nil {
		rng = rand.New(rand.NewSource(time.Now().UnixNano()))
	}

	return &LocationCoordinator{
		em:          cfg.EntityManager,
		catalog:     cfg.Catalog,
		locations:   cfg.Locations,
		placement:   cfg.Placement,
		store:       cfg.Store,
		scheduler:   scheduler,
		rng:         rng,
		anchor:      cfg.Anchor,
		saveOnLeave: cfg.SaveOnLeave,
		state:       StateIdle,
		lastOutcome: StateIdle,
	}, nil
}

// SetFreshSession 标记新游戏；新游戏在第一次成功保存前不恢复存档
func (c *LocationCoordinator) SetFreshSession(fresh bool) {
	c.fresh = fresh
}

// CurrentEpoch 实现 EpochSource
func (c *LocationCoordinator) CurrentEpoch() types.LocationEpoch {
	return c.epoch
}

// CurrentLocation 返回当前地点，未激活时为空
func (c *LocationCoordinator) CurrentLocation() string {
	return c.location
}

// State 返回当前状态
func (c *LocationCoordinator) State() CoordinatorState {
	return c.state
}

// LastOutcome 返回上一轮生成的结束状态（Committed 或 Cancelled），尚无结果时为 Idle
func (c *LocationCoordinator) LastOutcome() CoordinatorState {
	return c.lastOutcome
}

// Tasks 返回当前代数的生成任务
func (c *LocationCoordinator) Tasks() []*GenerationTask {
	return append([]*GenerationTask(nil), c.tasks...)
}

// OnLocationActivated 激活地点
//
// 参数：
//   - locationID: 地点 ID；未注册的地点照常切换，但生成任务会中止并记录警告
//
// 返回：
//   - error: ID 为空返回 ErrUnknownLocation；SaveOnLeave 保存失败时返回错误且不切换
func (c *LocationCoordinator) OnLocationActivated(locationID string) error {
	if locationID == "" {
		return ErrUnknownLocation
	}

	if c.saveOnLeave && c.location != "" && c.store != nil {
		if err := c.Save(); err != nil {
			return fmt.Errorf("failed to save %s before leaving: %w", c.location, err)
		}
	}

	if c.state == StateGenerating {
		c.finish(StateCancelled)
		log.Printf("[LocationCoordinator] Generation for %s (epoch %d) preempted by %s",
			c.location, c.epoch, locationID)
	}

	c.epoch++
	c.location = locationID
	c.tasks = nil

	cleared := c.clearStaleEntities()
	log.Printf("[LocationCoordinator] Activated %s, epoch %d, cleared %d entities", locationID, c.epoch, cleared)

	query, ok := c.locations.Query(locationID)
	if !ok {
		log.Printf("[LocationCoordinator] Warning: location %s is not registered, nothing will be generated", locationID)
	}

	restored := c.restore(locationID)
	c.startTasks(locationID, query, restored)
	return nil
}

// Update 推进生成任务，所有任务结束后提交
func (c *LocationCoordinator) Update(deltaTime float64) {
	c.scheduler.Update(deltaTime)
	c.checkCompletion()
}

// PlaceEntity 玩家在当前地点直接放置一个实体
//
// 位置被量化到所在格子的中心。
//
// 返回：
//   - error: ErrNoActiveLocation / ErrUnknownLocation / ErrNotPlaceable / ErrCellOccupied
func (c *LocationCoordinator) PlaceEntity(archetypeKey string, position types.Vec2) (ecs.EntityID, error) {
	if c.location == "" {
		return 0, ErrNoActiveLocation
	}
	query, ok := c.locations.Query(c.location)
	if !ok {
		return 0, fmt.Errorf("%w: %s", ErrUnknownLocation, c.location)
	}
	archetype, ok := c.catalog.Resolve(archetypeKey)
	if !ok {
		return 0, fmt.Errorf("%w: unknown archetype %q", ErrNotPlaceable, archetypeKey)
	}

	cell := query.CellAt(position)
	if !query.IsWalkable(cell) {
		return 0, fmt.Errorf("%w: cell (%d,%d) is not walkable", ErrNotPlaceable, cell.X, cell.Y)
	}
	center := query.CellCenter(cell)
	if query.IsBlocked(center, types.MaskAll) {
		return 0, fmt.Errorf("%w: cell (%d,%d) is blocked", ErrNotPlaceable, cell.X, cell.Y)
	}
	if c.occupiedCells().Has(cell) {
		return 0, fmt.Errorf("%w: (%d,%d)", ErrCellOccupied, cell.X, cell.Y)
	}

	snap := types.PlacedEntitySnapshot{
		ArchetypeKey: c.catalog.KeyOf(archetype),
		Position:     center,
		Location:     c.location,
		GridCell:     cell,
	}
	id, err := entities.NewPlacedEntity(c.em, archetype, snap, c.epoch, components.PlacementComponent{
		Origin:     components.OriginPlayer,
		Persistent: true,
	})
	if err != nil {
		return 0, fmt.Errorf("failed to place %s: %w", archetypeKey, err)
	}
	log.Printf("[LocationCoordinator] Player placed %s at %s (%d,%d)", archetypeKey, c.location, cell.X, cell.Y)
	return id, nil
}

// RemoveEntity 移除当前地点的一个放置实体（采集、拾取）
//
// 返回：实体不属于当前代数时返回 false
func (c *LocationCoordinator) RemoveEntity(id ecs.EntityID) bool {
	tag, ok := ecs.GetComponent[*components.LocationTagComponent](c.em, id)
	if !ok || tag.Epoch != c.epoch {
		return false
	}
	c.em.DestroyEntity(id)
	c.em.RemoveMarkedEntities()
	return true
}

// EntityAt 返回当前地点某个格子上的放置实体
func (c *LocationCoordinator) EntityAt(cell types.GridCell) (ecs.EntityID, bool) {
	for _, id := range c.currentEntities() {
		gc, ok := ecs.GetComponent[*components.GridCellComponent](c.em, id)
		if ok && gc.Cell == cell {
			return id, true
		}
	}
	return 0, false
}

// LiveSnapshots 返回当前地点所有需要持久化的存活实体快照
func (c *LocationCoordinator) LiveSnapshots() []types.PlacedEntitySnapshot {
	var snaps []types.PlacedEntitySnapshot
	for _, id := range c.currentEntities() {
		meta, ok := ecs.GetComponent[*components.PlacementComponent](c.em, id)
		if !ok || !meta.Persistent {
			continue
		}
		if snap, ok := entities.SnapshotOf(c.em, id); ok {
			snaps = append(snaps, snap)
		}
	}
	return snaps
}

// Save 保存当前地点
//
// 先把当前代数仍在进行的生成任务直接推进到结束，再交给存档。
func (c *LocationCoordinator) Save() error {
	return c.save(func(live []types.PlacedEntitySnapshot) error {
		return c.store.Save(c.location, live)
	})
}

// SaveSession 保存会话标量状态和当前地点
func (c *LocationCoordinator) SaveSession(session *game.Session) error {
	return c.save(func(live []types.PlacedEntitySnapshot) error {
		return c.store.SaveSession(session, c.location, live)
	})
}

func (c *LocationCoordinator) save(write func(live []types.PlacedEntitySnapshot) error) error {
	if c.location == "" {
		return ErrNoActiveLocation
	}
	if c.store == nil {
		return fmt.Errorf("no persistence store configured")
	}

	c.drain()
	if err := write(c.LiveSnapshots()); err != nil {
		return err
	}
	c.fresh = false
	return nil
}

// drain 推进当前代数的所有任务到终态
func (c *LocationCoordinator) drain() {
	for _, t := range c.tasks {
		if !t.State().Terminal() {
			c.scheduler.Drain(t)
		}
	}
	c.checkCompletion()
}

func (c *LocationCoordinator) checkCompletion() {
	if c.state != StateGenerating {
		return
	}
	for _, t := range c.tasks {
		if !t.State().Terminal() {
			return
		}
	}
	total := 0
	for _, t := range c.tasks {
		total += len(t.Result().Entities)
	}
	c.finish(StateCommitted)
	log.Printf("[LocationCoordinator] %s epoch %d committed, %d entities generated", c.location, c.epoch, total)
}

// finish 记录本轮结果并回到 Idle；结果通过 LastOutcome 读取，State 不会停留在终态
func (c *LocationCoordinator) finish(outcome CoordinatorState) {
	c.lastOutcome = outcome
	c.state = StateIdle
}

// clearStaleEntities 立即销毁所有不属于当前代数的放置实体
func (c *LocationCoordinator) clearStaleEntities() int {
	ids := ecs.GetEntitiesWith1[*components.LocationTagComponent](c.em)
	for _, id := range ids {
		tag, _ := ecs.GetComponent[*components.LocationTagComponent](c.em, id)
		if tag.Epoch != c.epoch {
			c.em.DestroyEntity(id)
		}
	}
	return c.em.RemoveMarkedEntities()
}

// restore 物化存档中该地点的快照，返回成功物化的快照
func (c *LocationCoordinator) restore(locationID string) []types.PlacedEntitySnapshot {
	if c.store == nil || c.fresh {
		return nil
	}
	snaps, err := c.store.RestoreForLocation(locationID)
	if err != nil {
		log.Printf("[LocationCoordinator] Warning: failed to restore %s: %v", locationID, err)
		return nil
	}

	cells := mapset.New[types.GridCell]()
	var restored []types.PlacedEntitySnapshot
	for _, snap := range snaps {
		if cells.Has(snap.GridCell) {
			continue
		}
		archetype, ok := c.catalog.Resolve(snap.ArchetypeKey)
		if !ok {
			log.Printf("[LocationCoordinator] Warning: skipping restored %q at %s: unknown archetype", snap.ArchetypeKey, locationID)
			continue
		}
		snap.Location = locationID
		if _, err := entities.NewPlacedEntity(c.em, archetype, snap, c.epoch, components.PlacementComponent{
			Origin:     components.OriginRestored,
			Persistent: true,
		}); err != nil {
			log.Printf("[LocationCoordinator] Warning: failed to restore %q: %v", snap.ArchetypeKey, err)
			continue
		}
		cells.Put(snap.GridCell)
		restored = append(restored, snap)
	}
	if len(restored) > 0 {
		log.Printf("[LocationCoordinator] Restored %d saved entities for %s", len(restored), locationID)
	}
	return restored
}

func (c *LocationCoordinator) startTasks(locationID string, query world.SpatialQuery, occupied []types.PlacedEntitySnapshot) {
	var anchor *types.Vec2
	if c.anchor != nil {
		if p, ok := c.anchor(); ok {
			anchor = &p
		}
	}

	for _, profile := range c.placement.Profiles {
		constraints, ok := c.placement.ConstraintsFor(locationID, profile.Name)
		if ok && profile.Persistent {
			constraints.TargetCount = topUpTarget(constraints, occupied)
		}
		cfg := TaskConfig{
			Epoch:          c.epoch,
			Epochs:         c,
			LocationID:     locationID,
			Profile:        profile,
			Constraints:    constraints,
			HasConstraints: ok,
			Query:          query,
			Catalog:        c.catalog,
			EntityManager:  c.em,
			Rand:           c.rng,
			Occupied:       occupied,
			CellTaken:      c.cellTaken,
		}
		if profile.Anchored {
			cfg.Anchor = anchor
		}
		task := NewGenerationTask(cfg)
		c.tasks = append(c.tasks, task)
		c.scheduler.Add(task)
	}

	c.state = StateGenerating
	c.checkCompletion()
}

// topUpTarget 已恢复的同类原型计入持久化配置的目标数量
func topUpTarget(c config.PlacementConstraintSet, restored []types.PlacedEntitySnapshot) int {
	if len(restored) == 0 {
		return c.TargetCount
	}
	keys := mapset.New[string]()
	for _, w := range c.Weights {
		keys.Put(w.Archetype)
	}
	n := c.TargetCount
	for _, snap := range restored {
		if keys.Has(snap.ArchetypeKey) {
			n--
		}
	}
	if n < 0 {
		return 0
	}
	return n
}

// currentEntities 返回当前代数的放置实体
func (c *LocationCoordinator) currentEntities() []ecs.EntityID {
	var out []ecs.EntityID
	for _, id := range ecs.GetEntitiesWith1[*components.LocationTagComponent](c.em) {
		tag, _ := ecs.GetComponent[*components.LocationTagComponent](c.em, id)
		if tag.Epoch == c.epoch && tag.LocationID == c.location {
			out = append(out, id)
		}
	}
	return out
}

func (c *LocationCoordinator) cellTaken(cell types.GridCell) bool {
	_, ok := c.EntityAt(cell)
	return ok
}

func (c *LocationCoordinator) occupiedCells() mapset.Set[types.GridCell] {
	cells := mapset.New[types.GridCell]()
	for _, id := range c.currentEntities() {
		if gc, ok := ecs.GetComponent[*components.GridCellComponent](c.em, id); ok {
			cells.Put(gc.Cell)
		}
	}
	return cells
}
