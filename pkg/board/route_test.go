package board

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestResolve(t *testing.T) {
	minted := func() string { return "minted" }

	tests := []struct {
		name       string
		requested  string
		remembered string
		want       Route
	}{
		{"requested wins", "a", "b", Route{ID: "a", Remember: true}},
		{"requested without memory", "a", "", Route{ID: "a", Remember: true}},
		{"remembered redirects", "", "b", Route{ID: "b", Redirect: true}},
		{"fresh id", "", "", Route{ID: "minted", Redirect: true, Remember: true, Fresh: true}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, resolve(tt.requested, tt.remembered, minted))
		})
	}
}

func TestResolveSheetMintsUUIDs(t *testing.T) {
	a := ResolveSheet("", "")
	b := ResolveSheet("", "")
	assert.Len(t, a.ID, 36)
	assert.NotEqual(t, a.ID, b.ID)
}
