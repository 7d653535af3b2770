package decision

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestTravelTable_Symmetric(t *testing.T) {
	tbl := NewTravelTable([]Route{{From: "X", To: "Y", Minutes: 7}})
	assert.Equal(t, 7.0, tbl.TravelMinutes("X", "Y"))
	assert.Equal(t, 7.0, tbl.TravelMinutes("Y", "X"))
}

func TestTravelTable_UnknownPairUsesSentinel(t *testing.T) {
	tbl := DefaultTravelTable()
	assert.Equal(t, SentinelPenalty, tbl.TravelMinutes("A", "Q"))
	assert.Equal(t, SentinelPenalty, tbl.TravelMinutes("", "B"))
}

func TestTravelTable_SameLocationIsFree(t *testing.T) {
	tbl := DefaultTravelTable()
	assert.Equal(t, 0.0, tbl.TravelMinutes("A", "A"))
	assert.Equal(t, 0.0, tbl.TravelMinutes("Q", "Q"))
}

func TestTravelTable_LaterRouteOverrides(t *testing.T) {
	tbl := NewTravelTable([]Route{
		{From: "A", To: "B", Minutes: 18},
		{From: "B", To: "A", Minutes: 20},
	})
	assert.Equal(t, 20.0, tbl.TravelMinutes("A", "B"))
}

func TestDefaultRoutes(t *testing.T) {
	tbl := DefaultTravelTable()
	assert.Equal(t, 18.0, tbl.TravelMinutes("A", "B"))
	for _, r := range DefaultRoutes() {
		assert.Equal(t, r.Minutes, tbl.TravelMinutes(r.To, r.From))
	}
}
