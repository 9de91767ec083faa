// Package world 提供地点的空间查询
//
// SpatialQuery 是放置算法唯一依赖的世界接口；TileMap 是基于字符网格的实现，
// 由 data/locations/*.yaml 描述。
package world

import "github.com/gonewx/hearthvale/pkg/types"

// SpatialQuery 地点空间查询端口
type SpatialQuery interface {
	// Bounds 返回当前地点可通行区域的外包矩形
	Bounds() types.Rect
	// CellAt 把世界坐标量化到所在格子
	CellAt(p types.Vec2) types.GridCell
	// CellCenter 返回格子的规范中心点
	CellCenter(c types.GridCell) types.Vec2
	// IsWalkable 格子是否可通行
	IsWalkable(c types.GridCell) bool
	// IsBlocked 该点是否被指定层的障碍物阻挡
	IsBlocked(p types.Vec2, mask types.LayerMask) bool
}

// QueryProvider 按地点ID提供空间查询
//
// 地点没有布局时返回 false，生成任务据此中止该地点的生成
type QueryProvider interface {
	Query(locationID string) (SpatialQuery, bool)
}
