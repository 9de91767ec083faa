// Package gamedata 把 data/ 下的配置文件装配成运行所需的对象
package gamedata

import (
	"fmt"
	"log"
	"strings"

	"github.com/gonewx/hearthvale/pkg/catalog"
	"github.com/gonewx/hearthvale/pkg/config"
	"github.com/gonewx/hearthvale/pkg/embedded"
	"github.com/gonewx/hearthvale/pkg/world"
)

// 数据文件路径
const (
	PlacementPath  = "data/placement.yaml"
	ArchetypesPath = "data/archetypes.yaml"
	SessionPath    = "data/session.yaml"
	LocationsGlob  = "data/locations/*.yaml"
)

// Bundle 游戏数据
type Bundle struct {
	Placement *config.PlacementConfig
	Session   *config.SessionConfig
	Catalog   *catalog.Catalog
	Locations *world.Registry
}

// Load 从 embedded 包读取并校验全部数据文件
//
// 放置配置引用了目录中不存在的原型时只记录警告：
// 生成时这些原型会被逐个跳过。
func Load() (*Bundle, error) {
	data, err := embedded.ReadFile(ArchetypesPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", ArchetypesPath, err)
	}
	cat, err := catalog.Parse(data)
	if err != nil {
		return nil, fmt.Errorf("failed to load archetype catalog: %w", err)
	}

	data, err = embedded.ReadFile(PlacementPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", PlacementPath, err)
	}
	placement, err := config.ParsePlacementConfig(data)
	if err != nil {
		return nil, fmt.Errorf("failed to load placement config: %w", err)
	}
	missing := placement.MissingArchetypes(func(key string) bool {
		_, ok := cat.Resolve(key)
		return ok
	})
	if len(missing) > 0 {
		log.Printf("[GameData] Warning: placement config references unknown archetypes: %s", strings.Join(missing, ", "))
	}

	data, err = embedded.ReadFile(SessionPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", SessionPath, err)
	}
	session, err := config.ParseSessionConfig(data)
	if err != nil {
		return nil, fmt.Errorf("failed to load session config: %w", err)
	}

	registry, err := loadLocations()
	if err != nil {
		return nil, err
	}
	if _, ok := registry.Query(session.StartLocation); !ok {
		return nil, fmt.Errorf("start location %s has no layout", session.StartLocation)
	}

	log.Printf("[GameData] Loaded %d archetypes, %d spawn profiles, %d locations",
		cat.Len(), len(placement.Profiles), len(registry.IDs()))

	return &Bundle{
		Placement: placement,
		Session:   session,
		Catalog:   cat,
		Locations: registry,
	}, nil
}

func loadLocations() (*world.Registry, error) {
	paths, err := embedded.Glob(LocationsGlob)
	if err != nil {
		return nil, fmt.Errorf("failed to list location layouts: %w", err)
	}
	if len(paths) == 0 {
		return nil, fmt.Errorf("no location layouts found under %s", LocationsGlob)
	}

	registry := world.NewRegistry()
	for _, p := range paths {
		data, err := embedded.ReadFile(p)
		if err != nil {
			return nil, fmt.Errorf("failed to read %s: %w", p, err)
		}
		tm, err := world.ParseTileMap(data)
		if err != nil {
			return nil, fmt.Errorf("failed to load %s: %w", p, err)
		}
		if err := registry.Register(tm); err != nil {
			return nil, err
		}
	}
	return registry, nil
}
