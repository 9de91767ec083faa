package game

import (
	"github.com/gonewx/hearthvale/pkg/config"
	"github.com/gonewx/hearthvale/pkg/types"
)

// Session 一次游戏进行中的玩家与世界标量状态
//
// 地点内的放置实体不在这里，它们由 ECS 持有并通过
// PersistenceStore 的合并写入保存。
type Session struct {
	Health         int
	Energy         int
	Hunger         int
	Money          int
	PlayerPosition types.Vec2

	CurrentLocation string

	Inventory         []*InventoryItem
	SelectedItemIndex int

	CalendarMonth string
	CalendarDay   int
	TimeOfDay     float64

	SaveLabel       string
	PlayTimeSeconds float64
	Fresh           bool // 新游戏，不从存档恢复放置实体
}

// NewSession 按新游戏配置创建会话
func NewSession(cfg *config.SessionConfig) *Session {
	s := &Session{
		Health:          cfg.Health,
		Energy:          cfg.Energy,
		Hunger:          cfg.Hunger,
		Money:           cfg.Money,
		PlayerPosition:  cfg.StartPosition,
		CurrentLocation: cfg.StartLocation,
		Inventory:       make([]*InventoryItem, cfg.InventorySlots),
		CalendarMonth:   cfg.CalendarMonth,
		CalendarDay:     cfg.CalendarDay,
		TimeOfDay:       cfg.TimeOfDay,
		Fresh:           true,
	}
	for i, item := range cfg.StarterItems {
		if i >= len(s.Inventory) {
			break
		}
		s.Inventory[i] = &InventoryItem{ItemKey: item.ItemKey, StackSize: item.StackSize}
	}
	return s
}

// SessionFromRecord 从存档恢复会话
func SessionFromRecord(r *SaveRecord) *Session {
	inv := make([]*InventoryItem, len(r.InventoryItems))
	for i, item := range r.InventoryItems {
		if item != nil {
			cp := *item
			inv[i] = &cp
		}
	}
	return &Session{
		Health:            r.Health,
		Energy:            r.Energy,
		Hunger:            r.Hunger,
		Money:             r.Money,
		PlayerPosition:    r.PlayerPosition,
		CurrentLocation:   r.CurrentLocation,
		Inventory:         inv,
		SelectedItemIndex: r.SelectedItemIndex,
		CalendarMonth:     r.CalendarMonth,
		CalendarDay:       r.CalendarDay,
		TimeOfDay:         r.TimeOfDay,
		SaveLabel:         r.SaveLabel,
		PlayTimeSeconds:   r.TotalPlayTimeSeconds,
	}
}

// Tick 累计游戏时间
func (s *Session) Tick(deltaTime float64) {
	if deltaTime > 0 {
		s.PlayTimeSeconds += deltaTime
	}
}

// applyTo 把标量状态写入存档记录（不触碰 PlacedEntities）
func (s *Session) applyTo(r *SaveRecord) {
	r.Health = s.Health
	r.Energy = s.Energy
	r.Hunger = s.Hunger
	r.Money = s.Money
	r.PlayerPosition = s.PlayerPosition
	r.CurrentLocation = s.CurrentLocation
	r.InventoryItems = make([]*InventoryItem, len(s.Inventory))
	for i, item := range s.Inventory {
		if item != nil {
			cp := *item
			r.InventoryItems[i] = &cp
		}
	}
	r.SelectedItemIndex = s.SelectedItemIndex
	r.CalendarMonth = s.CalendarMonth
	r.CalendarDay = s.CalendarDay
	r.TimeOfDay = s.TimeOfDay
	r.SaveLabel = s.SaveLabel
	r.TotalPlayTimeSeconds = s.PlayTimeSeconds
}
