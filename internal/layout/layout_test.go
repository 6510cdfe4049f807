package layout

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vk/stagegraph/internal/pipeline"
)

type pos struct{ x, y int }

func stage(name string, in, out, ev []string) *pipeline.StageInstance {
	return &pipeline.StageInstance{InstanceName: name, InputLanes: in, OutputLanes: out, EventLanes: ev}
}

func positions(t *testing.T, stages []*pipeline.StageInstance) map[string]pos {
	t.Helper()
	out := make(map[string]pos, len(stages))
	for _, s := range stages {
		x, y, ok := s.Position()
		require.True(t, ok, "stage %s was not positioned", s.InstanceName)
		out[s.InstanceName] = pos{x, y}
	}
	return out
}

func TestAutoArrange(t *testing.T) {
	testCases := []struct {
		name   string
		stages func() []*pipeline.StageInstance
		want   map[string]pos
	}{
		{
			name: "linear chain",
			stages: func() []*pipeline.StageInstance {
				return []*pipeline.StageInstance{
					stage("src", nil, []string{"a"}, nil),
					stage("mid", []string{"a"}, []string{"b"}, nil),
					stage("dst", []string{"b"}, nil, nil),
				}
			},
			want: map[string]pos{"src": {60, 50}, "mid": {280, 50}, "dst": {500, 50}},
		},
		{
			name: "two consumers of one lane are stacked",
			stages: func() []*pipeline.StageInstance {
				return []*pipeline.StageInstance{
					stage("src", nil, []string{"a"}, nil),
					stage("t1", []string{"a"}, nil, nil),
					stage("t2", []string{"a"}, nil, nil),
				}
			},
			want: map[string]pos{"src": {60, 50}, "t1": {280, 50}, "t2": {280, 200}},
		},
		{
			name: "fan out over several output lanes",
			stages: func() []*pipeline.StageInstance {
				return []*pipeline.StageInstance{
					stage("sel", nil, []string{"a", "b"}, nil),
					stage("t1", []string{"a"}, nil, nil),
					stage("t2", []string{"b"}, nil, nil),
				}
			},
			want: map[string]pos{"sel": {60, 110}, "t1": {280, 40}, "t2": {280, 170}},
		},
		{
			name: "merge takes the rightmost producer",
			stages: func() []*pipeline.StageInstance {
				return []*pipeline.StageInstance{
					stage("s1", nil, []string{"a"}, nil),
					stage("p", []string{"a"}, []string{"b"}, nil),
					stage("s2", nil, []string{"c"}, nil),
					stage("join", []string{"c", "b"}, nil, nil),
				}
			},
			want: map[string]pos{"s1": {60, 50}, "p": {280, 50}, "s2": {500, 50}, "join": {720, 180}},
		},
		{
			name: "event consumers sit below",
			stages: func() []*pipeline.StageInstance {
				return []*pipeline.StageInstance{
					stage("src", nil, nil, []string{"ev"}),
					stage("exec", []string{"ev"}, nil, nil),
				}
			},
			want: map[string]pos{"src": {60, 50}, "exec": {280, 200}},
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			stages := tc.stages()
			AutoArrange(context.Background(), stages)
			assert.Equal(t, tc.want, positions(t, stages))

			again := tc.stages()
			AutoArrange(context.Background(), again)
			assert.Equal(t, positions(t, stages), positions(t, again))
		})
	}
}
