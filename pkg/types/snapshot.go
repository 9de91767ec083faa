package types

// LocationEpoch 地点激活代数
//
// 每次地点激活单调递增，永不复用。0 表示尚未激活任何地点。
// 所有存活实体和进行中的生成任务都带有创建它们的代数。
type LocationEpoch uint64

// PlacedEntitySnapshot 放置实体的持久化表示
//
// ArchetypeKey 是稳定的字符串标识，绝不是运行时引用；
// 恢复时无法通过 EntityCatalog 解析的快照会被丢弃。
type PlacedEntitySnapshot struct {
	ArchetypeKey string   `yaml:"archetypeKey" json:"archetypeKey" jsonschema:"minLength=1"`
	Position     Vec2     `yaml:"position" json:"position"`
	Location     string   `yaml:"location" json:"location" jsonschema:"minLength=1"`
	GridCell     GridCell `yaml:"gridCell" json:"gridCell"`
}

// CellKey 地点内唯一的格子键，用于按 (地点, 格子) 去重
type CellKey struct {
	Location string
	Cell     GridCell
}

// Key 返回快照的 (地点, 格子) 键
func (s PlacedEntitySnapshot) Key() CellKey {
	return CellKey{Location: s.Location, Cell: s.GridCell}
}
