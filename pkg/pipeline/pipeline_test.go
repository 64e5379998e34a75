package pipeline_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/walteh/etsls/pkg/editbuf"
	"github.com/walteh/etsls/pkg/extract"
	"github.com/walteh/etsls/pkg/pipeline"
)

func recordStage(name string, order pipeline.Order, log *[]string) pipeline.Stage {
	return pipeline.Stage{
		Name:  name,
		Order: order,
		Resolve: func(ctx context.Context, rc *pipeline.Context) error {
			*log = append(*log, name)
			return nil
		},
	}
}

func TestNewOrdersStages(t *testing.T) {
	var ran []string
	p := pipeline.New(
		recordStage("post-a", pipeline.OrderPost, &ran),
		recordStage("normal-a", pipeline.OrderNormal, &ran),
		recordStage("pre-a", pipeline.OrderPre, &ran),
		recordStage("normal-b", pipeline.OrderNormal, &ran),
		recordStage("pre-b", pipeline.OrderPre, &ran),
	)

	want := []string{"pre-a", "pre-b", "normal-a", "normal-b", "post-a"}
	assert.Equal(t, want, p.Names())

	require.NoError(t, p.Run(context.Background(), pipeline.NewContext("a.ets", "")))
	assert.Equal(t, want, ran)
}

func TestNewDedupesByName(t *testing.T) {
	var ran []string
	first := recordStage("alias", pipeline.OrderPre, &ran)
	last := pipeline.Stage{
		Name:  "alias",
		Order: pipeline.OrderPost,
		Resolve: func(ctx context.Context, rc *pipeline.Context) error {
			ran = append(ran, "alias-last")
			return nil
		},
	}

	p := pipeline.New(first, recordStage("other", pipeline.OrderNormal, &ran), last)
	assert.Equal(t, []string{"other", "alias"}, p.Names())

	require.NoError(t, p.Run(context.Background(), pipeline.NewContext("a.ets", "")))
	assert.Equal(t, []string{"other", "alias-last"}, ran)
}

func TestRunStopsOnCancel(t *testing.T) {
	var ran []string
	ctx, cancel := context.WithCancel(context.Background())

	p := pipeline.New(
		pipeline.Stage{
			Name: "cancels",
			Resolve: func(ctx context.Context, rc *pipeline.Context) error {
				ran = append(ran, "cancels")
				cancel()
				return nil
			},
		},
		recordStage("never", pipeline.OrderPost, &ran),
	)

	err := p.Run(ctx, pipeline.NewContext("a.ets", ""))
	require.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, []string{"cancels"}, ran)
}

func TestRunEditsShareTheBuffer(t *testing.T) {
	p := pipeline.New(
		pipeline.Stage{
			Name:  "second",
			Order: pipeline.OrderPost,
			Resolve: func(ctx context.Context, rc *pipeline.Context) error {
				return rc.Buffer.Insert(rc.Buffer.Len(), ";", editbuf.None)
			},
		},
		pipeline.Stage{
			Name:  "first",
			Order: pipeline.OrderPre,
			Resolve: func(ctx context.Context, rc *pipeline.Context) error {
				return rc.Buffer.ReplaceRange(0, 1, "b", editbuf.None)
			},
		},
	)

	rc := pipeline.NewContext("a.ets", "a")
	require.NoError(t, p.Run(context.Background(), rc))
	assert.Equal(t, "b;", rc.Buffer.Text())
}

func TestInRecordedBody(t *testing.T) {
	src := "struct A { }\nfunction f() { }\nlet x;"
	rc := pipeline.NewContext("a.ets", src)
	rc.Structs = extract.Structs(src)
	rc.Functions = extract.FirstLevelFunctions(src)

	assert.True(t, rc.InRecordedBody(10))
	assert.True(t, rc.InRecordedBody(27))
	assert.False(t, rc.InRecordedBody(0))
	assert.False(t, rc.InRecordedBody(len(src)-2))
}
