package cooling

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rushteam/ecool/core"
)

func TestNormalize(t *testing.T) {
	tests := []struct {
		name           string
		in             core.RankedScoreList
		want           core.RankedScoreList
		wantDegenerate bool
	}{
		{
			name: "rescale to unit range in source order",
			in: core.RankedScoreList{
				{Score: 3, Name: "c"},
				{Score: 1, Name: "a"},
				{Score: 5, Name: "e"},
			},
			want: core.RankedScoreList{
				{Score: 0.5, Name: "c"},
				{Score: 0, Name: "a"},
				{Score: 1, Name: "e"},
			},
		},
		{
			name: "negative scores",
			in: core.RankedScoreList{
				{Score: -2, Name: "x"},
				{Score: 2, Name: "y"},
			},
			want: core.RankedScoreList{
				{Score: 0, Name: "x"},
				{Score: 1, Name: "y"},
			},
		},
		{
			name:           "single element is already normalized",
			in:             core.RankedScoreList{{Score: 42, Name: "only"}},
			want:           core.RankedScoreList{{Score: 42, Name: "only"}},
			wantDegenerate: true,
		},
		{
			name:           "empty list",
			in:             core.RankedScoreList{},
			want:           core.RankedScoreList{},
			wantDegenerate: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, degenerate := Normalize(tt.in)
			assert.Equal(t, tt.wantDegenerate, degenerate)
			require.Len(t, got, len(tt.want))
			for i := range tt.want {
				assert.Equal(t, tt.want[i].Name, got[i].Name)
				assert.InDelta(t, tt.want[i].Score, got[i].Score, 1e-12)
			}
		})
	}
}

func TestNormalize_DegenerateReturnsInputUnchanged(t *testing.T) {
	in := core.RankedScoreList{
		{Score: 0.25, Name: "b"},
		{Score: 0.25, Name: "a"},
		{Score: 0.25, Name: "c"},
	}
	snapshot := in.Clone()

	got, degenerate := Normalize(in)

	assert.True(t, degenerate)
	assert.Equal(t, snapshot, got)
	assert.Equal(t, snapshot, in)
}

func TestNormalize_PreservesArgminArgmaxAndOrderByScore(t *testing.T) {
	in := core.RankedScoreList{
		{Score: 12.5, Name: "rs1"},
		{Score: -3.0, Name: "rs2"},
		{Score: 7.25, Name: "rs3"},
		{Score: 99.0, Name: "rs4"},
		{Score: 0.0, Name: "rs5"},
	}

	got, degenerate := Normalize(in)
	require.False(t, degenerate)

	for _, s := range got {
		assert.GreaterOrEqual(t, s.Score, 0.0)
		assert.LessOrEqual(t, s.Score, 1.0)
	}

	wantOrder := in.Clone()
	wantOrder.SortByScoreAsc()
	gotOrder := got.Clone()
	gotOrder.SortByScoreAsc()
	assert.Equal(t, wantOrder.Names(), gotOrder.Names())
	assert.Equal(t, "rs2", gotOrder[0].Name)
	assert.Equal(t, "rs4", gotOrder[len(gotOrder)-1].Name)
}
