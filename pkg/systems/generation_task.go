package systems

import (
	"log"
	"math/rand"

	"github.com/gonewx/hearthvale/pkg/catalog"
	"github.com/gonewx/hearthvale/pkg/components"
	"github.com/gonewx/hearthvale/pkg/config"
	"github.com/gonewx/hearthvale/pkg/ecs"
	"github.com/gonewx/hearthvale/pkg/entities"
	"github.com/gonewx/hearthvale/pkg/placement"
	"github.com/gonewx/hearthvale/pkg/types"
	"github.com/gonewx/hearthvale/pkg/world"
)

// EpochSource 当前地点代数的只读来源
type EpochSource interface {
	CurrentEpoch() types.LocationEpoch
}

// TaskConfig 生成任务的输入
type TaskConfig struct {
	Epoch       types.LocationEpoch
	Epochs      EpochSource
	LocationID  string
	Profile     config.SpawnProfile
	Constraints config.PlacementConstraintSet
	// HasConstraints 为 false 表示该地点缺少此生成配置
	HasConstraints bool
	Anchor         *types.Vec2
	// Query 地点的空间查询，nil 表示地点未配置
	Query         world.SpatialQuery
	Catalog       catalog.EntityCatalog
	EntityManager *ecs.EntityManager
	Rand          *rand.Rand
	Occupied      []types.PlacedEntitySnapshot
	// CellTaken 交给生成器的额外格子占用检查，可为 nil
	CellTaken func(cell types.GridCell) bool
}

// TaskResult 任务结束时的汇总
type TaskResult struct {
	State    TaskState
	Entities []ecs.EntityID // 已物化的实体
	Attempts int
	Skipped  int // 原型无法解析而跳过的放置
}

// GenerationTask 绑定到某个地点代数的分步生成任务
//
// 每一步先比对任务代数与当前代数，不一致即取消；
// 否则从生成器取一个放置结果并物化为实体。
// 取消后不会再物化任何实体，也不会返回错误。
type GenerationTask struct {
	cfg   TaskConfig
	gen   *placement.Generator
	state TaskState

	entities []ecs.EntityID
	skipped  int
}

// NewGenerationTask 创建生成任务
//
// 地点未配置、可通行区域为空或权重列表为空时，任务直接进入 TaskAborted，
// 并记录一条警告。
func NewGenerationTask(cfg TaskConfig) *GenerationTask {
	t := &GenerationTask{cfg: cfg, state: TaskPending}

	if !cfg.HasConstraints {
		log.Printf("[GenerationTask] Warning: %s has no constraints for profile %s, aborting generation",
			cfg.LocationID, cfg.Profile.Name)
		t.state = TaskAborted
		return t
	}

	gen, err := placement.NewGenerator(placement.Request{
		LocationID:  cfg.LocationID,
		Constraints: cfg.Constraints,
		Anchor:      cfg.Anchor,
		Query:       cfg.Query,
		Rand:        cfg.Rand,
		Occupied:    cfg.Occupied,
		CellTaken:   cfg.CellTaken,
	})
	if err != nil {
		log.Printf("[GenerationTask] Warning: %s/%s aborted: %v", cfg.LocationID, cfg.Profile.Name, err)
		t.state = TaskAborted
		return t
	}
	t.gen = gen
	return t
}

// Epoch 返回任务所属的地点代数
func (t *GenerationTask) Epoch() types.LocationEpoch {
	return t.cfg.Epoch
}

// Profile 返回生成配置名
func (t *GenerationTask) Profile() string {
	return t.cfg.Profile.Name
}

// State 返回当前状态
func (t *GenerationTask) State() TaskState {
	return t.state
}

// Step 推进一步
func (t *GenerationTask) Step() TaskState {
	if t.state.Terminal() {
		return t.state
	}

	// 挂起期间地点可能已切换
	if t.cfg.Epochs != nil && t.cfg.Epochs.CurrentEpoch() != t.cfg.Epoch {
		t.state = TaskCancelled
		log.Printf("[GenerationTask] %s/%s epoch %d superseded, cancelled after %d entities",
			t.cfg.LocationID, t.cfg.Profile.Name, t.cfg.Epoch, len(t.entities))
		return t.state
	}
	t.state = TaskGenerating

	snap, ok := t.gen.Next()
	if !ok {
		t.state = TaskCommitted
		log.Printf("[GenerationTask] %s/%s committed %d entities (%d attempts, %d skipped)",
			t.cfg.LocationID, t.cfg.Profile.Name, len(t.entities), t.gen.Attempts(), t.skipped)
		return t.state
	}

	archetype, ok := t.cfg.Catalog.Resolve(snap.ArchetypeKey)
	if !ok {
		t.skipped++
		log.Printf("[GenerationTask] Warning: %s/%s skipping cell (%d,%d): unknown archetype %q",
			t.cfg.LocationID, t.cfg.Profile.Name, snap.GridCell.X, snap.GridCell.Y, snap.ArchetypeKey)
		return t.state
	}

	id, err := entities.NewPlacedEntity(t.cfg.EntityManager, archetype, snap, t.cfg.Epoch, components.PlacementComponent{
		Origin:     components.OriginGenerated,
		Profile:    t.cfg.Profile.Name,
		Persistent: t.cfg.Profile.Persistent,
	})
	if err != nil {
		t.skipped++
		log.Printf("[GenerationTask] Warning: %s/%s failed to materialize %s: %v",
			t.cfg.LocationID, t.cfg.Profile.Name, snap.ArchetypeKey, err)
		return t.state
	}
	t.entities = append(t.entities, id)
	return t.state
}

// Result 返回当前汇总
func (t *GenerationTask) Result() TaskResult {
	r := TaskResult{
		State:    t.state,
		Entities: append([]ecs.EntityID(nil), t.entities...),
		Skipped:  t.skipped,
	}
	if t.gen != nil {
		r.Attempts = t.gen.Attempts()
	}
	return r
}
