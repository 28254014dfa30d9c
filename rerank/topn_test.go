package rerank

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rushteam/itemsim/core"
)

func TestTopNNode(t *testing.T) {
	items := []*core.Item{core.NewItem(1), core.NewItem(2), core.NewItem(3)}

	tests := []struct {
		name  string
		n     int
		limit int
		want  int
	}{
		{"explicit n", 2, 1, 2},
		{"context limit", 0, 1, 1},
		{"fewer than limit", 5, 0, 3},
		{"no limit", 0, 0, 3},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			node := &TopNNode{N: tt.n}
			out, err := node.Process(context.Background(), &core.RecommendContext{Limit: tt.limit}, items)
			require.NoError(t, err)
			require.Len(t, out, tt.want)
			for i := range out {
				assert.Equal(t, items[i].ID, out[i].ID)
			}
		})
	}

	out, err := (&TopNNode{}).Process(context.Background(), nil, items)
	require.NoError(t, err)
	assert.Len(t, out, 3)
}
