package components

import "github.com/gonewx/hearthvale/pkg/types"

// PositionComponent 实体的世界坐标
type PositionComponent struct {
	X float64
	Y float64
}

// GridCellComponent 实体所在的离散格子
//
// 同一地点内一个格子最多对应一个放置实体
type GridCellComponent struct {
	Cell types.GridCell
}

// ArchetypeComponent 实体引用的原型
//
// 只保存稳定的字符串键，跨存档边界时通过 EntityCatalog 重新解析
type ArchetypeComponent struct {
	Key  string
	Kind string // forage / enemy / placeable
}

// LocationTagComponent 标记实体属于哪个地点、哪一次激活
//
// 地点切换时，协调器销毁所有 Epoch 不等于当前代数的实体
type LocationTagComponent struct {
	LocationID string
	Epoch      types.LocationEpoch
}

// PlacementOrigin 实体的来源
type PlacementOrigin int

const (
	// OriginGenerated 由生成任务程序化放置
	OriginGenerated PlacementOrigin = iota
	// OriginRestored 从存档快照恢复
	OriginRestored
	// OriginPlayer 玩家直接放置
	OriginPlayer
)

// String 返回来源名称（用于日志）
func (o PlacementOrigin) String() string {
	switch o {
	case OriginGenerated:
		return "generated"
	case OriginRestored:
		return "restored"
	case OriginPlayer:
		return "player"
	default:
		return "unknown"
	}
}

// PlacementComponent 放置元数据
type PlacementComponent struct {
	Origin PlacementOrigin
	// Profile 生成该实体的生成配置名（玩家放置/恢复的实体为空）
	Profile string
	// Persistent 为 true 时实体会写入存档（敌人等临时实体为 false）
	Persistent bool
}
