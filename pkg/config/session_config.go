package config

import (
	"fmt"
	"os"

	"github.com/gonewx/hearthvale/pkg/types"
	"gopkg.in/yaml.v3"
)

// SessionConfig 新游戏的初始状态（data/session.yaml）
type SessionConfig struct {
	StartLocation  string     `yaml:"startLocation"`
	StartPosition  types.Vec2 `yaml:"startPosition"`
	Health         int        `yaml:"health"`
	Energy         int        `yaml:"energy"`
	Hunger         int        `yaml:"hunger"`
	Money          int        `yaml:"money"`
	InventorySlots int        `yaml:"inventorySlots"`
	CalendarMonth  string     `yaml:"calendarMonth"`
	CalendarDay    int        `yaml:"calendarDay"`
	TimeOfDay      float64    `yaml:"timeOfDay"` // 0..1
	// StarterItems 初始背包物品
	StarterItems []StarterItem `yaml:"starterItems"`
}

// StarterItem 初始背包物品
type StarterItem struct {
	ItemKey   string `yaml:"itemKey"`
	StackSize int    `yaml:"stackSize"`
}

// LoadSessionConfig 从 YAML 文件加载新游戏配置
func LoadSessionConfig(filePath string) (*SessionConfig, error) {
	data, err := os.ReadFile(filePath)
	if err != nil {
		return nil, fmt.Errorf("failed to read session config file %s: %w", filePath, err)
	}
	return ParseSessionConfig(data)
}

// ParseSessionConfig 从 YAML 数据解析新游戏配置
func ParseSessionConfig(data []byte) (*SessionConfig, error) {
	var cfg SessionConfig
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse session config YAML: %w", err)
	}
	applySessionDefaults(&cfg)
	if err := validateSessionConfig(&cfg); err != nil {
		return nil, fmt.Errorf("invalid session config: %w", err)
	}
	return &cfg, nil
}

func applySessionDefaults(cfg *SessionConfig) {
	if cfg.InventorySlots == 0 {
		cfg.InventorySlots = 12
	}
	if cfg.CalendarMonth == "" {
		cfg.CalendarMonth = "spring"
	}
	if cfg.CalendarDay == 0 {
		cfg.CalendarDay = 1
	}
}

func validateSessionConfig(cfg *SessionConfig) error {
	if cfg.StartLocation == "" {
		return fmt.Errorf("startLocation cannot be empty")
	}
	if cfg.TimeOfDay < 0 || cfg.TimeOfDay > 1 {
		return fmt.Errorf("timeOfDay must be within [0, 1], got %f", cfg.TimeOfDay)
	}
	if cfg.InventorySlots < 0 {
		return fmt.Errorf("inventorySlots must be >= 0, got %d", cfg.InventorySlots)
	}
	if len(cfg.StarterItems) > cfg.InventorySlots {
		return fmt.Errorf("%d starter items exceed %d inventory slots", len(cfg.StarterItems), cfg.InventorySlots)
	}
	for _, it := range cfg.StarterItems {
		if it.ItemKey == "" || it.StackSize <= 0 {
			return fmt.Errorf("invalid starter item %+v", it)
		}
	}
	return nil
}
