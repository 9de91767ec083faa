package game

import (
	"fmt"
	"sort"
	"time"

	"github.com/gonewx/hearthvale/pkg/types"
	"gopkg.in/yaml.v3"
)

// InventoryItem 背包格子中的一叠物品
type InventoryItem struct {
	ItemKey   string `yaml:"itemKey" json:"itemKey" jsonschema:"minLength=1"`
	StackSize int    `yaml:"stackSize" json:"stackSize" jsonschema:"minimum=1"`
}

// SaveRecord 单个存档槽位中的完整存档
//
// 标量状态描述玩家与日历，PlacedEntities 则覆盖本次游戏中访问过的所有地点。
// 同一地点的同一格子最多只有一条快照，只能通过 PersistenceStore 的合并写入修改。
type SaveRecord struct {
	Health         int        `yaml:"health" json:"health"`
	Energy         int        `yaml:"energy" json:"energy"`
	Hunger         int        `yaml:"hunger" json:"hunger"`
	Money          int        `yaml:"money" json:"money"`
	PlayerPosition types.Vec2 `yaml:"playerPosition" json:"playerPosition"`

	CurrentLocation string `yaml:"currentLocation" json:"currentLocation"`

	// InventoryItems 中的 nil 表示空格子
	InventoryItems    []*InventoryItem `yaml:"inventoryItems" json:"inventoryItems"`
	SelectedItemIndex int              `yaml:"selectedItemIndex" json:"selectedItemIndex"`

	CalendarMonth string  `yaml:"calendarMonth" json:"calendarMonth"`
	CalendarDay   int     `yaml:"calendarDay" json:"calendarDay" jsonschema:"minimum=1"`
	TimeOfDay     float64 `yaml:"timeOfDay" json:"timeOfDay" jsonschema:"minimum=0,maximum=1"`

	PlacedEntities []types.PlacedEntitySnapshot `yaml:"placedEntities" json:"placedEntities"`

	SaveLabel            string    `yaml:"saveLabel" json:"saveLabel"`
	LastSaveTimestamp    time.Time `yaml:"lastSaveTimestamp" json:"lastSaveTimestamp"`
	TotalPlayTimeSeconds float64   `yaml:"totalPlayTimeSeconds" json:"totalPlayTimeSeconds" jsonschema:"minimum=0"`

	SessionID string `yaml:"sessionId" json:"sessionId"`
}

// SnapshotsFor 返回属于指定地点的快照（保持存档中的顺序）
func (r *SaveRecord) SnapshotsFor(locationID string) []types.PlacedEntitySnapshot {
	var out []types.PlacedEntitySnapshot
	for _, snap := range r.PlacedEntities {
		if snap.Location == locationID {
			out = append(out, snap)
		}
	}
	return out
}

// LocationCounts 按地点统计快照数量
func (r *SaveRecord) LocationCounts() map[string]int {
	counts := make(map[string]int)
	for _, snap := range r.PlacedEntities {
		counts[snap.Location]++
	}
	return counts
}

// Locations 返回存档中出现过的地点 ID（已排序）
func (r *SaveRecord) Locations() []string {
	counts := r.LocationCounts()
	ids := make([]string, 0, len(counts))
	for id := range counts {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

func encodeSaveRecord(r *SaveRecord) ([]byte, error) {
	data, err := yaml.Marshal(r)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal save record: %w", err)
	}
	return data, nil
}

func decodeSaveRecord(data []byte) (*SaveRecord, error) {
	var r SaveRecord
	if err := yaml.Unmarshal(data, &r); err != nil {
		return nil, fmt.Errorf("failed to unmarshal save record: %w", err)
	}
	return &r, nil
}
