package entities

import (
	"fmt"

	"github.com/gonewx/hearthvale/pkg/catalog"
	"github.com/gonewx/hearthvale/pkg/components"
	"github.com/gonewx/hearthvale/pkg/ecs"
	"github.com/gonewx/hearthvale/pkg/types"
)

// NewPlacedEntity 按快照创建一个放置实体
//
// 参数:
//   - em: EntityManager 实例
//   - archetype: 已通过 EntityCatalog 解析的原型
//   - snap: 放置快照（位置、格子、地点）
//   - epoch: 创建实体时的地点代数
//   - meta: 来源与持久化标记
//
// 返回: 创建的实体ID；archetype 为 nil 时返回错误且不创建实体
func NewPlacedEntity(
	em *ecs.EntityManager,
	archetype *catalog.Archetype,
	snap types.PlacedEntitySnapshot,
	epoch types.LocationEpoch,
	meta components.PlacementComponent,
) (ecs.EntityID, error) {
	if archetype == nil {
		return 0, fmt.Errorf("cannot materialize %q: archetype is nil", snap.ArchetypeKey)
	}

	id := em.CreateEntity()

	ecs.AddComponent(em, id, &components.PositionComponent{
		X: snap.Position.X,
		Y: snap.Position.Y,
	})
	ecs.AddComponent(em, id, &components.GridCellComponent{Cell: snap.GridCell})
	ecs.AddComponent(em, id, &components.ArchetypeComponent{
		Key:  archetype.Key,
		Kind: archetype.Kind,
	})
	ecs.AddComponent(em, id, &components.LocationTagComponent{
		LocationID: snap.Location,
		Epoch:      epoch,
	})
	ecs.AddComponent(em, id, &meta)

	return id, nil
}

// SnapshotOf 从存活实体构造持久化快照
//
// 返回: 实体缺少放置所需组件时返回 false
func SnapshotOf(em *ecs.EntityManager, id ecs.EntityID) (types.PlacedEntitySnapshot, bool) {
	pos, ok := ecs.GetComponent[*components.PositionComponent](em, id)
	if !ok {
		return types.PlacedEntitySnapshot{}, false
	}
	cell, ok := ecs.GetComponent[*components.GridCellComponent](em, id)
	if !ok {
		return types.PlacedEntitySnapshot{}, false
	}
	arch, ok := ecs.GetComponent[*components.ArchetypeComponent](em, id)
	if !ok {
		return types.PlacedEntitySnapshot{}, false
	}
	tag, ok := ecs.GetComponent[*components.LocationTagComponent](em, id)
	if !ok {
		return types.PlacedEntitySnapshot{}, false
	}

	return types.PlacedEntitySnapshot{
		ArchetypeKey: arch.Key,
		Position:     types.Vec2{X: pos.X, Y: pos.Y},
		Location:     tag.LocationID,
		GridCell:     cell.Cell,
	}, true
}
