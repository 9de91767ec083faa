package placement

import "github.com/gonewx/hearthvale/pkg/config"

// NormalizeWeights 计算权重占比
//
// 负权重按 0 处理；总和为 0 时全部返回 0
//
// 返回：
//   - []float64: 与输入等长的占比列表
//   - float64: 原始权重总和
func NormalizeWeights(weights []config.ArchetypeWeight) ([]float64, float64) {
	sum := 0.0
	for _, w := range weights {
		if w.Weight > 0 {
			sum += w.Weight
		}
	}

	p := make([]float64, len(weights))
	if sum <= 0 {
		return p, 0
	}
	for i, w := range weights {
		if w.Weight > 0 {
			p[i] = w.Weight / sum
		}
	}
	return p, sum
}

// SelectArchetype 按归一化权重做一次加权抽取
//
// 参数：
//   - weights: 原型权重列表，无需归一化
//   - roll: [0, 1) 区间的随机数
//
// 返回：
//   - string: 选中的原型键
//   - bool: 列表为空或权重全为 0 时返回 false
//
// 累积和遍历因浮点误差未能命中时（roll 接近 1），选择列表中最后一个正权重原型
func SelectArchetype(weights []config.ArchetypeWeight, roll float64) (string, bool) {
	p, sum := NormalizeWeights(weights)
	if sum <= 0 {
		return "", false
	}

	cumulative := 0.0
	for i, share := range p {
		if share <= 0 {
			continue
		}
		cumulative += share
		if roll < cumulative {
			return weights[i].Archetype, true
		}
	}

	for i := len(weights) - 1; i >= 0; i-- {
		if p[i] > 0 {
			return weights[i].Archetype, true
		}
	}
	return "", false
}
