package world

import (
	"fmt"
	"math"
	"os"

	"github.com/gonewx/hearthvale/pkg/types"
	"gopkg.in/yaml.v3"
)

// 可通行地块字符
var walkableTiles = map[rune]bool{
	'.': true, // 草地
	',': true, // 土路
	':': true, // 木地板
}

// Obstacle 圆形障碍物
type Obstacle struct {
	Center types.Vec2      `yaml:"center"`
	Radius float64         `yaml:"radius"`
	Layer  types.LayerMask `yaml:"layer"`
}

// tileMapFile 地点布局 YAML 文件结构
type tileMapFile struct {
	ID        string     `yaml:"id"`
	Name      string     `yaml:"name"`
	CellSize  float64    `yaml:"cellSize"`
	Origin    types.Vec2 `yaml:"origin"`
	Rows      []string   `yaml:"rows"`
	Obstacles []Obstacle `yaml:"obstacles"`
}

// TileMap 字符网格实现的 SpatialQuery
//
// 网格参数：
//   - Origin: 第 (0,0) 格左上角的世界坐标
//   - CellSize: 正方形格子边长
//   - rows[y][x]: 地块字符，walkableTiles 中的字符可通行
type TileMap struct {
	id        string
	name      string
	cellSize  float64
	origin    types.Vec2
	tiles     [][]rune
	cols      int
	obstacles []Obstacle
}

// LoadTileMap 从 YAML 文件加载地点布局
func LoadTileMap(filePath string) (*TileMap, error) {
	data, err := os.ReadFile(filePath)
	if err != nil {
		return nil, fmt.Errorf("failed to read location layout: %w", err)
	}
	return ParseTileMap(data)
}

// ParseTileMap 从 YAML 数据解析地点布局
func ParseTileMap(data []byte) (*TileMap, error) {
	var file tileMapFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("failed to parse location layout YAML: %w", err)
	}
	if file.ID == "" {
		return nil, fmt.Errorf("location layout id cannot be empty")
	}
	if file.CellSize <= 0 {
		file.CellSize = 1.0
	}
	return NewTileMap(file.ID, file.Name, file.CellSize, file.Origin, file.Rows, file.Obstacles)
}

// NewTileMap 直接用字符行创建地点布局（测试和工具使用）
//
// 参数：
//   - rows: 每行一个字符串，行长度可以不同，越界部分视为不可通行
//
// 返回：
//   - error: 没有任何行或格子尺寸非正时返回错误
func NewTileMap(id, name string, cellSize float64, origin types.Vec2, rows []string, obstacles []Obstacle) (*TileMap, error) {
	if len(rows) == 0 {
		return nil, fmt.Errorf("location %s has no rows", id)
	}
	if cellSize <= 0 {
		return nil, fmt.Errorf("location %s cell size must be > 0, got %f", id, cellSize)
	}

	tm := &TileMap{
		id:        id,
		name:      name,
		cellSize:  cellSize,
		origin:    origin,
		tiles:     make([][]rune, len(rows)),
		obstacles: obstacles,
	}
	for y, row := range rows {
		tm.tiles[y] = []rune(row)
		if len(tm.tiles[y]) > tm.cols {
			tm.cols = len(tm.tiles[y])
		}
	}
	if tm.name == "" {
		tm.name = id
	}
	return tm, nil
}

// ID 地点ID
func (tm *TileMap) ID() string { return tm.id }

// Name 地点显示名
func (tm *TileMap) Name() string { return tm.name }

// Cols 网格列数
func (tm *TileMap) Cols() int { return tm.cols }

// Rows 网格行数
func (tm *TileMap) Rows() int { return len(tm.tiles) }

// CellSize 格子边长
func (tm *TileMap) CellSize() float64 { return tm.cellSize }

// Obstacles 返回障碍物列表副本
func (tm *TileMap) Obstacles() []Obstacle {
	out := make([]Obstacle, len(tm.obstacles))
	copy(out, tm.obstacles)
	return out
}

// Tile 返回格子上的地块字符，越界返回空格
func (tm *TileMap) Tile(c types.GridCell) rune {
	if c.Y < 0 || c.Y >= len(tm.tiles) || c.X < 0 || c.X >= len(tm.tiles[c.Y]) {
		return ' '
	}
	return tm.tiles[c.Y][c.X]
}

// Bounds 返回整张网格的世界矩形
func (tm *TileMap) Bounds() types.Rect {
	return types.Rect{
		Min: tm.origin,
		Max: types.Vec2{
			X: tm.origin.X + float64(tm.cols)*tm.cellSize,
			Y: tm.origin.Y + float64(len(tm.tiles))*tm.cellSize,
		},
	}
}

// CellAt 世界坐标 -> 格子坐标（向下取整，允许返回越界格子）
func (tm *TileMap) CellAt(p types.Vec2) types.GridCell {
	return types.GridCell{
		X: int(math.Floor((p.X - tm.origin.X) / tm.cellSize)),
		Y: int(math.Floor((p.Y - tm.origin.Y) / tm.cellSize)),
	}
}

// CellCenter 格子坐标 -> 格子中心世界坐标
func (tm *TileMap) CellCenter(c types.GridCell) types.Vec2 {
	return types.Vec2{
		X: tm.origin.X + float64(c.X)*tm.cellSize + tm.cellSize/2,
		Y: tm.origin.Y + float64(c.Y)*tm.cellSize + tm.cellSize/2,
	}
}

// IsWalkable 格子在网格内且地块可通行
func (tm *TileMap) IsWalkable(c types.GridCell) bool {
	return walkableTiles[tm.Tile(c)]
}

// IsBlocked 点是否落在掩码匹配的任一障碍物圆内
func (tm *TileMap) IsBlocked(p types.Vec2, mask types.LayerMask) bool {
	for _, o := range tm.obstacles {
		if !o.Layer.Overlaps(mask) {
			continue
		}
		if p.DistanceTo(o.Center) < o.Radius {
			return true
		}
	}
	return false
}
