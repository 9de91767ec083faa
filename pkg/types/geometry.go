// Package types 定义共享的基础类型
package types

import "math"

// Vec2 世界坐标中的二维点
type Vec2 struct {
	X float64 `yaml:"x" json:"x"`
	Y float64 `yaml:"y" json:"y"`
}

// DistanceTo 返回两点间的欧氏距离
func (v Vec2) DistanceTo(o Vec2) float64 {
	return math.Hypot(v.X-o.X, v.Y-o.Y)
}

// GridCell 离散网格坐标（列, 行）
type GridCell struct {
	X int `yaml:"x" json:"x"`
	Y int `yaml:"y" json:"y"`
}

// Rect 轴对齐矩形，Min 包含、Max 不包含
type Rect struct {
	Min Vec2 `yaml:"min" json:"min"`
	Max Vec2 `yaml:"max" json:"max"`
}

// Width 矩形宽度
func (r Rect) Width() float64 { return r.Max.X - r.Min.X }

// Height 矩形高度
func (r Rect) Height() float64 { return r.Max.Y - r.Min.Y }

// Empty 宽或高不为正时视为空矩形
func (r Rect) Empty() bool {
	return r.Width() <= 0 || r.Height() <= 0
}

// Contains 检查点是否落在矩形内
func (r Rect) Contains(p Vec2) bool {
	return p.X >= r.Min.X && p.X < r.Max.X && p.Y >= r.Min.Y && p.Y < r.Max.Y
}

// LayerMask 障碍物查询层掩码
type LayerMask uint32

// MaskAll 匹配所有障碍层
const MaskAll LayerMask = 0xFFFFFFFF

// Overlaps 两个掩码是否有公共位
func (m LayerMask) Overlaps(o LayerMask) bool {
	return m&o != 0
}
