package pipeline

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rushteam/itemsim/core"
)

type funcNode struct {
	name string
	kind Kind
	fn   func([]*core.Item) ([]*core.Item, error)
}

func (n *funcNode) Name() string { return n.name }
func (n *funcNode) Kind() Kind   { return n.kind }

func (n *funcNode) Process(_ context.Context, _ *core.RecommendContext, items []*core.Item) ([]*core.Item, error) {
	return n.fn(items)
}

func TestPipeline_Run(t *testing.T) {
	var stages []string
	var counts [][2]int

	p := &Pipeline{
		Nodes: []Node{
			&funcNode{name: "recall", kind: KindRecall, fn: func([]*core.Item) ([]*core.Item, error) {
				return []*core.Item{core.NewItem(1), core.NewItem(2), core.NewItem(3)}, nil
			}},
			&funcNode{name: "drop_first", kind: KindFilter, fn: func(items []*core.Item) ([]*core.Item, error) {
				return items[1:], nil
			}},
		},
		Hook: func(node Node, in, out int, elapsed time.Duration) {
			stages = append(stages, node.Name())
			counts = append(counts, [2]int{in, out})
			assert.GreaterOrEqual(t, elapsed, time.Duration(0))
		},
	}

	out, err := p.Run(context.Background(), &core.RecommendContext{}, nil)
	require.NoError(t, err)
	require.Len(t, out, 2)
	assert.Equal(t, core.ItemID(2), out[0].ID)
	assert.Equal(t, []string{"recall", "drop_first"}, stages)
	assert.Equal(t, [][2]int{{0, 3}, {3, 2}}, counts)
}

func TestPipeline_Error(t *testing.T) {
	boom := errors.New("boom")
	called := false
	p := &Pipeline{
		Nodes: []Node{
			&funcNode{name: "broken", kind: KindRank, fn: func([]*core.Item) ([]*core.Item, error) {
				return nil, boom
			}},
			&funcNode{name: "after", kind: KindReRank, fn: func(items []*core.Item) ([]*core.Item, error) {
				called = true
				return items, nil
			}},
		},
	}

	_, err := p.Run(context.Background(), nil, nil)
	require.Error(t, err)
	assert.ErrorIs(t, err, boom)
	assert.Contains(t, err.Error(), "broken: ")
	assert.False(t, called)
}

func TestPipeline_Empty(t *testing.T) {
	items := []*core.Item{core.NewItem(9)}
	out, err := (&Pipeline{}).Run(context.Background(), nil, items)
	require.NoError(t, err)
	assert.Equal(t, items, out)
}
