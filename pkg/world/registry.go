package world

import (
	"fmt"
	"log"
	"sort"
)

// Registry 地点ID -> 布局 的注册表
type Registry struct {
	maps map[string]*TileMap
}

// NewRegistry 创建空注册表
func NewRegistry() *Registry {
	return &Registry{maps: make(map[string]*TileMap)}
}

// Register 注册地点布局，ID 重复时返回错误
func (r *Registry) Register(tm *TileMap) error {
	if tm == nil {
		return fmt.Errorf("cannot register nil tile map")
	}
	if _, exists := r.maps[tm.ID()]; exists {
		return fmt.Errorf("location %s already registered", tm.ID())
	}
	r.maps[tm.ID()] = tm
	log.Printf("[WorldRegistry] Registered location %s (%dx%d cells)", tm.ID(), tm.Cols(), tm.Rows())
	return nil
}

// Query 实现 QueryProvider
func (r *Registry) Query(locationID string) (SpatialQuery, bool) {
	tm, ok := r.maps[locationID]
	if !ok {
		return nil, false
	}
	return tm, true
}

// TileMap 按ID返回具体布局（绘制用）
func (r *Registry) TileMap(locationID string) (*TileMap, bool) {
	tm, ok := r.maps[locationID]
	return tm, ok
}

// IDs 返回已注册的地点ID（已排序）
func (r *Registry) IDs() []string {
	ids := make([]string, 0, len(r.maps))
	for id := range r.maps {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}
