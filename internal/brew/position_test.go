package brew

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPosition_UpDown(t *testing.T) {
	p := Position{World: "w", X: 1, Y: 2, Z: 3}

	assert.Equal(t, Position{World: "w", X: 1, Y: 3, Z: 3}, p.Up())
	assert.Equal(t, Position{World: "w", X: 1, Y: 1, Z: 3}, p.Down())
	assert.Equal(t, p, p.Up().Down())
}

func TestParsePosition(t *testing.T) {
	p, err := ParsePosition("overworld:10,-64,7")
	require.NoError(t, err)
	assert.Equal(t, Position{World: "overworld", X: 10, Y: -64, Z: 7}, p)
	assert.Equal(t, "overworld:10,-64,7", p.String())
}

func TestParsePosition_Invalid(t *testing.T) {
	for _, s := range []string{"", "10,20,30", ":1,2,3", "w:1,2", "w:a,b,c"} {
		_, err := ParsePosition(s)
		assert.Error(t, err, "input %q", s)
	}
}
