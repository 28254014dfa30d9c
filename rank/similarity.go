package rank

import (
	"math"
	"strings"

	"github.com/rushteam/itemsim/core"
)

// 分类深度加权系数：交集中每个分类贡献 1 + depthBoost*depth
const depthBoost = 0.5

// 品牌相似度取值
const (
	BrandMatch   = 1.0 // 忽略大小写完全相同
	BrandNeutral = 0.5 // 双方都没有品牌
	BrandWeak    = 0.1 // 只有一方有品牌，或双方品牌不同
)

// priceDecay 价格相似度指数衰减系数
const priceDecay = 2.0

// Jaccard 计算两个集合的 Jaccard 相似度 |A∩B| / |A∪B|。
// 两边都为空视为完全相同（1），只有一边为空为 0。输入允许包含重复元素。
func Jaccard[T comparable](a, b []T) float64 {
	if len(a) == 0 && len(b) == 0 {
		return 1
	}
	if len(a) == 0 || len(b) == 0 {
		return 0
	}
	setA := make(map[T]struct{}, len(a))
	for _, v := range a {
		setA[v] = struct{}{}
	}
	union := len(setA)
	inter := 0
	seenB := make(map[T]struct{}, len(b))
	for _, v := range b {
		if _, dup := seenB[v]; dup {
			continue
		}
		seenB[v] = struct{}{}
		if _, ok := setA[v]; ok {
			inter++
		} else {
			union++
		}
	}
	return float64(inter) / float64(union)
}

// CategorySimilarity 计算分类层级亲和度。
//
// 双方分类各自展开为“自身 + 全部祖先”，对交集中每个分类累加 1 + 0.5*depth，
// 再除以并集大小。任一方没有直接分类时为 0。结果 >= 0，可能大于 1。
func CategorySimilarity(base, cand *core.ItemFeatures) float64 {
	if base == nil || cand == nil || len(base.Categories) == 0 || len(cand.Categories) == 0 {
		return 0
	}
	hb := expanded(base)
	hc := expanded(cand)

	union := len(hb)
	var weighted float64
	for id, depth := range hb {
		if _, ok := hc[id]; ok {
			weighted += 1 + depthBoost*float64(max(depth, 0))
		}
	}
	for id := range hc {
		if _, ok := hb[id]; !ok {
			union++
		}
	}
	if union == 0 {
		return 0
	}
	return weighted / float64(union)
}

// expanded 返回分类展开集合；特征中没有层级信息时按深度 0 处理直接分类。
func expanded(f *core.ItemFeatures) map[core.CategoryID]int {
	if len(f.Hierarchy) > 0 {
		return f.Hierarchy
	}
	out := make(map[core.CategoryID]int, len(f.Categories))
	for _, c := range f.Categories {
		out[c] = 0
	}
	return out
}

// AttributeSimilarity 对基准商品的每个属性名，若候选也有同名属性，计算属性值集合的 Jaccard，
// 再对所有匹配上的属性名取平均。未匹配的属性名不扣分；
// 双方都没有属性为 1；没有共同属性名（包括只有一方有属性）为 0。
func AttributeSimilarity(base, cand map[string][]core.AttributeValueID) float64 {
	if len(base) == 0 && len(cand) == 0 {
		return 1
	}
	if len(base) == 0 || len(cand) == 0 {
		return 0
	}
	var total float64
	matched := 0
	for name, values := range base {
		other, ok := cand[name]
		if !ok {
			continue
		}
		total += Jaccard(values, other)
		matched++
	}
	if matched == 0 {
		return 0
	}
	return total / float64(matched)
}

// PriceSimilarity = exp(-2 * |p1-p2| / max(p1,p2))，任一价格 <= 0、NaN 或 +Inf 时为 0。
// 价格相等时为 1，随相对差距单调递减。
func PriceSimilarity(p1, p2 float64) float64 {
	if !(p1 > 0) || !(p2 > 0) || math.IsInf(p1, 1) || math.IsInf(p2, 1) {
		return 0
	}
	rel := math.Abs(p1-p2) / math.Max(p1, p2)
	return math.Exp(-priceDecay * rel)
}

// BrandSimilarity 只会返回 BrandMatch、BrandNeutral、BrandWeak 三者之一。
func BrandSimilarity(a, b string) float64 {
	a, b = strings.TrimSpace(a), strings.TrimSpace(b)
	switch {
	case a == "" && b == "":
		return BrandNeutral
	case a == "" || b == "":
		return BrandWeak
	case strings.EqualFold(a, b):
		return BrandMatch
	default:
		return BrandWeak
	}
}

// SemanticSimilarity 关键词集合的类余弦重叠：|K1∩K2| / (sqrt|K1| * sqrt|K2|)。
// 不做词频加权；任一方为空时为 0。
func SemanticSimilarity(k1, k2 []string) float64 {
	if len(k1) == 0 || len(k2) == 0 {
		return 0
	}
	set := make(map[string]struct{}, len(k1))
	for _, k := range k1 {
		set[k] = struct{}{}
	}
	seen := make(map[string]struct{}, len(k2))
	inter := 0
	for _, k := range k2 {
		if _, dup := seen[k]; dup {
			continue
		}
		seen[k] = struct{}{}
		if _, ok := set[k]; ok {
			inter++
		}
	}
	return float64(inter) / (math.Sqrt(float64(len(set))) * math.Sqrt(float64(len(seen))))
}
