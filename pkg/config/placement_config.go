package config

import (
	"fmt"
	"os"
	"sort"

	"github.com/gonewx/hearthvale/pkg/types"
	"gopkg.in/yaml.v3"
)

// 默认值
const (
	// DefaultMaxAttempts 未配置 maxAttempts 时的采样次数上限
	DefaultMaxAttempts = 200
)

// ArchetypeWeight 单个原型的生成权重
type ArchetypeWeight struct {
	Archetype string  `yaml:"archetype"` // 原型键
	Weight    float64 `yaml:"weight"`    // 权重 >= 0，无需归一化
}

// PlacementConstraintSet 一次放置生成的约束
//
// 每个地点构造一次（地点覆盖或全局默认），生成期间只读。
type PlacementConstraintSet struct {
	TargetCount     int               `yaml:"targetCount"`     // 目标数量 >= 0
	MinSpacing      float64           `yaml:"minSpacing"`      // 放置实体之间的最小间距 >= 0
	ExclusionRadius float64           `yaml:"exclusionRadius"` // 锚点（玩家）周围的排除半径，0 表示禁用
	ObstacleMask    types.LayerMask   `yaml:"obstacleMask"`    // 障碍物查询层掩码
	Weights         []ArchetypeWeight `yaml:"weights"`         // 原型权重列表（顺序即后备选择顺序）
	MaxAttempts     int               `yaml:"maxAttempts"`     // 采样次数硬上限 > 0
}

// Validate 检查约束取值范围
func (c PlacementConstraintSet) Validate() error {
	if c.TargetCount < 0 {
		return fmt.Errorf("targetCount must be >= 0, got %d", c.TargetCount)
	}
	if c.MinSpacing < 0 {
		return fmt.Errorf("minSpacing must be >= 0, got %f", c.MinSpacing)
	}
	if c.ExclusionRadius < 0 {
		return fmt.Errorf("exclusionRadius must be >= 0, got %f", c.ExclusionRadius)
	}
	if c.MaxAttempts <= 0 {
		return fmt.Errorf("maxAttempts must be > 0, got %d", c.MaxAttempts)
	}
	for _, w := range c.Weights {
		if w.Archetype == "" {
			return fmt.Errorf("weight entry has empty archetype")
		}
		if w.Weight < 0 {
			return fmt.Errorf("weight for %s must be >= 0, got %f", w.Archetype, w.Weight)
		}
	}
	return nil
}

// SpawnProfile 一类生成器（采集物、敌人……）
type SpawnProfile struct {
	Name       string                 `yaml:"name"`
	Persistent bool                   `yaml:"persistent"` // 生成的实体是否写入存档
	Anchored   bool                   `yaml:"anchored"`   // 是否以玩家位置为排除锚点
	Default    PlacementConstraintSet `yaml:"default"`    // 全局默认约束
}

// LocationPlacement 单个地点的覆盖配置
type LocationPlacement struct {
	// Overrides 生成配置名 -> 替换该配置默认约束的整组约束
	Overrides map[string]PlacementConstraintSet `yaml:"overrides"`
}

// PlacementConfig 放置系统配置（data/placement.yaml）
type PlacementConfig struct {
	// StaggerSeconds 生成任务相邻两步之间的等待时间，0 表示每次 Update 推进一步
	StaggerSeconds float64                      `yaml:"staggerSeconds"`
	Profiles       []SpawnProfile               `yaml:"profiles"`
	Locations      map[string]LocationPlacement `yaml:"locations"`
}

// LoadPlacementConfig 从 YAML 文件加载放置配置
func LoadPlacementConfig(filePath string) (*PlacementConfig, error) {
	data, err := os.ReadFile(filePath)
	if err != nil {
		return nil, fmt.Errorf("failed to read placement config file %s: %w", filePath, err)
	}
	return ParsePlacementConfig(data)
}

// ParsePlacementConfig 从 YAML 数据解析放置配置
func ParsePlacementConfig(data []byte) (*PlacementConfig, error) {
	var cfg PlacementConfig
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse placement config YAML: %w", err)
	}

	applyPlacementDefaults(&cfg)

	if err := validatePlacementConfig(&cfg); err != nil {
		return nil, fmt.Errorf("invalid placement config: %w", err)
	}
	return &cfg, nil
}

// applyPlacementDefaults 填充未配置的字段
func applyPlacementDefaults(cfg *PlacementConfig) {
	for i := range cfg.Profiles {
		if cfg.Profiles[i].Default.MaxAttempts == 0 {
			cfg.Profiles[i].Default.MaxAttempts = DefaultMaxAttempts
		}
	}
	for id, loc := range cfg.Locations {
		for name, o := range loc.Overrides {
			if o.MaxAttempts == 0 {
				o.MaxAttempts = DefaultMaxAttempts
				loc.Overrides[name] = o
			}
		}
		cfg.Locations[id] = loc
	}
}

// validatePlacementConfig 验证配置的有效性
func validatePlacementConfig(cfg *PlacementConfig) error {
	if cfg.StaggerSeconds < 0 {
		return fmt.Errorf("staggerSeconds must be >= 0, got %f", cfg.StaggerSeconds)
	}
	if len(cfg.Profiles) == 0 {
		return fmt.Errorf("profiles cannot be empty")
	}

	names := make(map[string]bool, len(cfg.Profiles))
	for _, p := range cfg.Profiles {
		if p.Name == "" {
			return fmt.Errorf("profile name cannot be empty")
		}
		if names[p.Name] {
			return fmt.Errorf("duplicate profile name: %s", p.Name)
		}
		names[p.Name] = true
		if err := p.Default.Validate(); err != nil {
			return fmt.Errorf("profile %s: %w", p.Name, err)
		}
	}

	for id, loc := range cfg.Locations {
		for name, o := range loc.Overrides {
			if !names[name] {
				return fmt.Errorf("location %s overrides unknown profile %s", id, name)
			}
			if err := o.Validate(); err != nil {
				return fmt.Errorf("location %s profile %s: %w", id, name, err)
			}
		}
	}
	return nil
}

// ConstraintsFor 返回地点在某个生成配置下生效的约束
//
// 有地点覆盖时使用覆盖，否则使用配置的全局默认
//
// 返回：
//   - PlacementConstraintSet: 生效约束（值拷贝，权重切片独立）
//   - bool: 生成配置不存在时返回 false
func (cfg *PlacementConfig) ConstraintsFor(locationID, profile string) (PlacementConstraintSet, bool) {
	p, ok := cfg.Profile(profile)
	if !ok {
		return PlacementConstraintSet{}, false
	}

	c := p.Default
	if loc, ok := cfg.Locations[locationID]; ok {
		if o, ok := loc.Overrides[profile]; ok {
			c = o
		}
	}
	c.Weights = append([]ArchetypeWeight(nil), c.Weights...)
	return c, true
}

// Profile 按名称查找生成配置
func (cfg *PlacementConfig) Profile(name string) (SpawnProfile, bool) {
	for _, p := range cfg.Profiles {
		if p.Name == name {
			return p, true
		}
	}
	return SpawnProfile{}, false
}

// MissingArchetypes 返回配置引用但 resolve 无法解析的原型键（已排序、去重）
func (cfg *PlacementConfig) MissingArchetypes(resolve func(key string) bool) []string {
	missing := make(map[string]bool)
	check := func(c PlacementConstraintSet) {
		for _, w := range c.Weights {
			if !resolve(w.Archetype) {
				missing[w.Archetype] = true
			}
		}
	}
	for _, p := range cfg.Profiles {
		check(p.Default)
	}
	for _, loc := range cfg.Locations {
		for _, o := range loc.Overrides {
			check(o)
		}
	}

	keys := make([]string, 0, len(missing))
	for k := range missing {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
