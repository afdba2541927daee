package pipeline

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rushteam/nearbite/core"
)

type appendNode struct {
	name string
	err  error
}

func (n *appendNode) Name() string { return n.name }
func (n *appendNode) Kind() Kind   { return KindReRank }

func (n *appendNode) Process(_ context.Context, _ *core.RecommendContext, items []*core.Item) ([]*core.Item, error) {
	if n.err != nil {
		return nil, n.err
	}
	return append(items, core.NewItem(len(items), &core.Restaurant{Name: n.name})), nil
}

func TestPipeline_Run(t *testing.T) {
	p := &Pipeline{Nodes: []Node{&appendNode{name: "a"}, &appendNode{name: "b"}}}
	out, err := p.Run(context.Background(), &core.RecommendContext{}, nil)
	require.NoError(t, err)
	require.Len(t, out, 2)
	assert.Equal(t, "b", out[1].Restaurant.Name)
}

func TestPipeline_NodeError(t *testing.T) {
	boom := errors.New("boom")
	p := &Pipeline{Nodes: []Node{&appendNode{name: "a"}, &appendNode{name: "bad", err: boom}}}
	_, err := p.Run(context.Background(), &core.RecommendContext{}, nil)
	require.ErrorIs(t, err, boom)
	assert.Contains(t, err.Error(), "node bad")
}

func TestPipeline_Cancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	p := &Pipeline{Nodes: []Node{&appendNode{name: "a"}}}
	_, err := p.Run(ctx, &core.RecommendContext{}, nil)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestConfig_BuildPipeline(t *testing.T) {
	cfg, err := ParseYAML([]byte(`
pipeline:
  name: test
  nodes:
    - type: append
      config:
        name: first
    - type: append
`))
	require.NoError(t, err)
	assert.Equal(t, "test", cfg.Pipeline.Name)

	factory := NewNodeFactory()
	factory.Register("append", func(cfg map[string]any, _ *Resources) (Node, error) {
		name, _ := cfg["name"].(string)
		if name == "" {
			name = "default"
		}
		return &appendNode{name: name}, nil
	})

	p, err := cfg.BuildPipeline(factory, nil)
	require.NoError(t, err)
	out, err := p.Run(context.Background(), &core.RecommendContext{}, nil)
	require.NoError(t, err)
	require.Len(t, out, 2)
	assert.Equal(t, "first", out[0].Restaurant.Name)
	assert.Equal(t, "default", out[1].Restaurant.Name)

	unknown, err := ParseYAML([]byte("pipeline:\n  nodes:\n    - type: rank.lr\n"))
	require.NoError(t, err)
	_, err = unknown.BuildPipeline(factory, nil)
	assert.ErrorContains(t, err, "unknown node type: rank.lr")

	_, err = (&Config{}).BuildPipeline(factory, nil)
	assert.Error(t, err)
}
