// Package catalog 提供原型目录：稳定字符串键 -> 实体原型
//
// 生成器按键选择原型，持久化层在加载时按键重新解析。
// 原型身份永远是字符串键，不依赖内存地址。
package catalog

import (
	"fmt"
	"os"
	"sort"

	"gopkg.in/yaml.v3"
)

// 原型类别
const (
	KindForage    = "forage"    // 可采集物品
	KindEnemy     = "enemy"     // 敌人
	KindPlaceable = "placeable" // 玩家可放置物品
)

// Archetype 实体原型（外观/行为模板）
type Archetype struct {
	Key   string  `yaml:"key"`
	Name  string  `yaml:"name"`
	Kind  string  `yaml:"kind"`
	Color string  `yaml:"color"` // 演示程序绘制颜色，#RRGGBB
	Glyph string  `yaml:"glyph"` // 终端预览字符
	Size  float64 `yaml:"size"`  // 绘制尺寸（世界单位）
}

// EntityCatalog 原型解析接口
type EntityCatalog interface {
	// Resolve 按键解析原型，未知键返回 false
	Resolve(key string) (*Archetype, bool)
	// KeyOf 返回原型的稳定键
	KeyOf(archetype *Archetype) string
}

// Catalog 基于内存映射的 EntityCatalog 实现
type Catalog struct {
	archetypes map[string]*Archetype
}

// catalogFile 原型目录 YAML 文件结构
type catalogFile struct {
	Archetypes []Archetype `yaml:"archetypes"`
}

// New 用给定原型列表创建目录
//
// 返回：
//   - error: 键为空、类别未知或重复时返回错误
func New(archetypes []Archetype) (*Catalog, error) {
	c := &Catalog{archetypes: make(map[string]*Archetype, len(archetypes))}
	for i := range archetypes {
		a := archetypes[i]
		if err := validateArchetype(&a); err != nil {
			return nil, err
		}
		if _, dup := c.archetypes[a.Key]; dup {
			return nil, fmt.Errorf("duplicate archetype key: %s", a.Key)
		}
		c.archetypes[a.Key] = &a
	}
	return c, nil
}

// Load 从 YAML 文件加载原型目录
func Load(filePath string) (*Catalog, error) {
	data, err := os.ReadFile(filePath)
	if err != nil {
		return nil, fmt.Errorf("failed to read catalog file: %w", err)
	}
	return Parse(data)
}

// Parse 从 YAML 数据解析原型目录
func Parse(data []byte) (*Catalog, error) {
	var file catalogFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("failed to parse catalog YAML: %w", err)
	}
	if len(file.Archetypes) == 0 {
		return nil, fmt.Errorf("catalog contains no archetypes")
	}
	return New(file.Archetypes)
}

func validateArchetype(a *Archetype) error {
	if a.Key == "" {
		return fmt.Errorf("archetype key cannot be empty")
	}
	switch a.Kind {
	case KindForage, KindEnemy, KindPlaceable:
	case "":
		a.Kind = KindForage
	default:
		return fmt.Errorf("unknown archetype kind %q for %s", a.Kind, a.Key)
	}
	if a.Size <= 0 {
		a.Size = 0.8
	}
	if a.Glyph == "" {
		a.Glyph = "?"
	}
	return nil
}

// Resolve 按键解析原型
func (c *Catalog) Resolve(key string) (*Archetype, bool) {
	a, ok := c.archetypes[key]
	return a, ok
}

// KeyOf 返回原型的稳定键
//
// nil 原型返回空字符串
func (c *Catalog) KeyOf(archetype *Archetype) string {
	if archetype == nil {
		return ""
	}
	return archetype.Key
}

// Keys 返回所有原型键（已排序）
func (c *Catalog) Keys() []string {
	keys := make([]string, 0, len(c.archetypes))
	for k := range c.archetypes {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Len 返回原型数量
func (c *Catalog) Len() int {
	return len(c.archetypes)
}
