package openalex

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestReconstructAbstract(t *testing.T) {
	tests := []struct {
		name  string
		index map[string][]int
		want  string
	}{
		{
			name:  "nil map",
			index: nil,
			want:  "",
		},
		{
			name:  "empty map",
			index: map[string][]int{},
			want:  "",
		},
		{
			name:  "single word",
			index: map[string][]int{"hello": {0}},
			want:  "hello",
		},
		{
			name:  "repeated word",
			index: map[string][]int{"a": {0, 2}, "b": {1}},
			want:  "a b a",
		},
		{
			name: "multi-word ordered",
			index: map[string][]int{
				"the": {0, 4},
				"cat": {1},
				"sat": {2},
				"on":  {3},
				"mat": {5},
			},
			want: "the cat sat on the mat",
		},
		{
			name: "positions listed out of order",
			index: map[string][]int{
				"gaps":   {2},
				"minds":  {0},
				"bridge": {1},
			},
			want: "minds bridge gaps",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ReconstructAbstract(tt.index))
		})
	}
}
