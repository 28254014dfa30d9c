package pipeline

import (
	"context"
	"fmt"
	"time"

	"github.com/rushteam/itemsim/core"
)

// StageHook 在每个 Node 执行完成后回调，用于日志与指标。
type StageHook func(node Node, in, out int, elapsed time.Duration)

// Pipeline 把相似推荐逻辑拆成可组合的 Node 链。
type Pipeline struct {
	Nodes []Node

	// Hook 可选
	Hook StageHook
}

func (p *Pipeline) Run(
	ctx context.Context,
	rctx *core.RecommendContext,
	items []*core.Item,
) ([]*core.Item, error) {
	cur := items
	for _, node := range p.Nodes {
		start := time.Now()
		next, err := node.Process(ctx, rctx, cur)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", node.Name(), err)
		}
		if p.Hook != nil {
			p.Hook(node, len(cur), len(next), time.Since(start))
		}
		cur = next
	}
	return cur, nil
}
