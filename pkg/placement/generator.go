// Package placement 实现地点内动态实体的程序化放置
//
// Generator 是纯算法：给定约束、锚点、边界和空间查询端口，逐个产出放置位置。
// 它不创建实体，也不感知地点代数；取消与调度由 systems.GenerationTask 负责。
package placement

import (
	"errors"
	"log"
	"math/rand"
	"time"

	"github.com/gonewx/hearthvale/pkg/config"
	"github.com/gonewx/hearthvale/pkg/types"
	"github.com/gonewx/hearthvale/pkg/world"
	"github.com/zyedidia/generic/mapset"
)

var (
	// ErrNoSpatialQuery 地点没有可用的空间查询
	ErrNoSpatialQuery = errors.New("no spatial query available for location")
	// ErrEmptyBounds 地点可通行区域为空
	ErrEmptyBounds = errors.New("location bounds are empty")
	// ErrNoArchetypes 权重列表为空或全部为 0
	ErrNoArchetypes = errors.New("no archetype weights to place")
)

// Request 一次生成的输入
type Request struct {
	LocationID  string
	Constraints config.PlacementConstraintSet
	// Anchor 排除锚点（通常是玩家位置），nil 表示无锚点
	Anchor *types.Vec2
	// Bounds 采样区域，零值时使用 Query.Bounds()
	Bounds types.Rect
	Query  world.SpatialQuery
	// Rand 随机源，nil 时使用基于时间的新随机源
	Rand *rand.Rand
	// Occupied 已存在的实体（如从存档恢复的），参与间距和格子占用检查但不会被产出
	Occupied []types.PlacedEntitySnapshot
	// CellTaken 生成开始后才被占用的格子（其他任务、玩家放置），可为 nil
	CellTaken func(cell types.GridCell) bool
}

// Generator 增量放置生成器
//
// 每次 Next() 最多消耗到下一个被接受的位置为止的采样次数，
// 总采样次数不超过 Constraints.MaxAttempts。
// 可重新开始（用相同输入新建一个 Generator），不可中途恢复。
type Generator struct {
	req      Request
	bounds   types.Rect
	rng      *rand.Rand
	accepted []types.Vec2
	cells    mapset.Set[types.GridCell]

	attempts int
	emitted  int
	done     bool
}

// NewGenerator 创建生成器
//
// 返回：
//   - error: ErrNoSpatialQuery / ErrEmptyBounds / ErrNoArchetypes，调用方据此中止生成
func NewGenerator(req Request) (*Generator, error) {
	if req.Query == nil {
		return nil, ErrNoSpatialQuery
	}

	bounds := req.Bounds
	if bounds.Empty() {
		bounds = req.Query.Bounds()
	}
	if bounds.Empty() {
		return nil, ErrEmptyBounds
	}

	if _, sum := NormalizeWeights(req.Constraints.Weights); sum <= 0 {
		return nil, ErrNoArchetypes
	}

	rng := req.Rand
	if rng == nil {
		rng = rand.New(rand.NewSource(time.Now().UnixNano()))
	}

	g := &Generator{
		req:      req,
		bounds:   bounds,
		rng:      rng,
		accepted: make([]types.Vec2, 0, req.Constraints.TargetCount+len(req.Occupied)),
		cells:    mapset.New[types.GridCell](),
	}
	for _, s := range req.Occupied {
		g.accepted = append(g.accepted, s.Position)
		g.cells.Put(s.GridCell)
	}
	return g, nil
}

// Next 产出下一个放置快照
//
// 返回 false 表示生成结束：达到目标数量，或采样次数耗尽。
// 次数耗尽不是错误，仅记录日志。
func (g *Generator) Next() (types.PlacedEntitySnapshot, bool) {
	c := g.req.Constraints
	q := g.req.Query

	for !g.done {
		if g.emitted >= c.TargetCount {
			g.done = true
			break
		}
		if g.attempts >= c.MaxAttempts {
			g.done = true
			log.Printf("[PlacementGenerator] %s: placed %d/%d after %d attempts (attempt budget exhausted)",
				g.req.LocationID, g.emitted, c.TargetCount, g.attempts)
			break
		}
		g.attempts++

		// 1. 边界内均匀采样
		p := types.Vec2{
			X: g.bounds.Min.X + g.rng.Float64()*g.bounds.Width(),
			Y: g.bounds.Min.Y + g.rng.Float64()*g.bounds.Height(),
		}

		// 2. 量化到格子，不可通行则拒绝
		cell := q.CellAt(p)
		if !q.IsWalkable(cell) {
			continue
		}

		// 3. 格子规范中心
		center := q.CellCenter(cell)

		// 4. 锚点排除半径
		if g.req.Anchor != nil && c.ExclusionRadius > 0 && center.DistanceTo(*g.req.Anchor) < c.ExclusionRadius {
			continue
		}

		// 5. 障碍物
		if q.IsBlocked(center, c.ObstacleMask) {
			continue
		}

		// 6. 格子占用与最小间距（线性扫描，目标数量为几十个量级）
		if g.cells.Has(cell) || g.tooClose(center) {
			continue
		}
		if g.req.CellTaken != nil && g.req.CellTaken(cell) {
			continue
		}

		// 7. 加权选择原型
		key, ok := SelectArchetype(c.Weights, g.rng.Float64())
		if !ok {
			g.done = true
			break
		}

		// 8. 产出并记录
		g.accepted = append(g.accepted, center)
		g.cells.Put(cell)
		g.emitted++
		return types.PlacedEntitySnapshot{
			ArchetypeKey: key,
			Position:     center,
			Location:     g.req.LocationID,
			GridCell:     cell,
		}, true
	}

	return types.PlacedEntitySnapshot{}, false
}

func (g *Generator) tooClose(p types.Vec2) bool {
	minSpacing := g.req.Constraints.MinSpacing
	if minSpacing <= 0 {
		return false
	}
	for _, a := range g.accepted {
		if p.DistanceTo(a) < minSpacing {
			return true
		}
	}
	return false
}

// Attempts 已消耗的采样次数
func (g *Generator) Attempts() int { return g.attempts }

// Emitted 已产出的快照数量
func (g *Generator) Emitted() int { return g.emitted }

// Done 生成是否已结束
func (g *Generator) Done() bool { return g.done }

// Exhausted 是否因采样次数耗尽而提前结束
func (g *Generator) Exhausted() bool {
	return g.done && g.emitted < g.req.Constraints.TargetCount
}

// GenerateAll 一次性跑完生成，返回所有快照
func GenerateAll(req Request) ([]types.PlacedEntitySnapshot, error) {
	g, err := NewGenerator(req)
	if err != nil {
		return nil, err
	}
	var out []types.PlacedEntitySnapshot
	for {
		s, ok := g.Next()
		if !ok {
			return out, nil
		}
		out = append(out, s)
	}
}
