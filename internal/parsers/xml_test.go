package parsers

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sampleXML = `<instance>
  <network>
    <nodes>
      <node id="0" type="depot">
        <cx>0</cx>
        <cy>0</cy>
      </node>
      <node id="1">
        <cx>10</cx>
        <cy>10</cy>
        <demand>5</demand>
        <service_time>30</service_time>
        <time_window><start>0</start><end>500</end></time_window>
      </node>
    </nodes>
  </network>
  <fleet>
    <vehicle id="truck-1">
      <capacity>100</capacity>
    </vehicle>
  </fleet>
</instance>`

func TestXML_Parse_Basic(t *testing.T) {
	x := NewXML()
	inst, err := x.Parse(strings.NewReader(sampleXML))
	require.NoError(t, err)

	require.Len(t, inst.Waypoints, 2)
	assert.True(t, inst.Waypoints[0].Depot)
	assert.Equal(t, "0", inst.Waypoints[0].ID)

	require.NotNil(t, inst.Waypoints[1].Planar)
	assert.Equal(t, 10.0, inst.Waypoints[1].Planar.X)
	assert.Equal(t, []int64{5}, inst.Waypoints[1].Demand)
	assert.Equal(t, int64(30), inst.Waypoints[1].ServiceSeconds)

	require.NotNil(t, inst.Waypoints[1].WindowStart)
	assert.Equal(t, int64(0), *inst.Waypoints[1].WindowStart)
	assert.Equal(t, int64(500), *inst.Waypoints[1].WindowEnd)

	require.Len(t, inst.Fleet, 1)
	assert.Equal(t, "truck-1", inst.Fleet[0].ID)
	assert.Equal(t, []int64{100}, inst.Fleet[0].Capacity)
}

const sampleXMLNoDepotTag = `<data>
  <graph>
    <customers>
      <customer id="5"><x>1</x><y>1</y></customer>
      <customer id="2"><x>2</x><y>2</y></customer>
    </customers>
  </graph>
</data>`

func TestXML_Parse_FallsBackToSmallestID(t *testing.T) {
	x := NewXML()
	inst, err := x.Parse(strings.NewReader(sampleXMLNoDepotTag))
	require.NoError(t, err)

	require.Len(t, inst.Waypoints, 2)
	depot := inst.Waypoints[inst.DepotIndex]
	assert.Equal(t, "2", depot.ID)
}

func TestXML_Parse_RejectsMissingNodeContainer(t *testing.T) {
	x := NewXML()
	_, err := x.Parse(strings.NewReader(`<instance><meta>nothing here</meta></instance>`))
	require.Error(t, err)
}

func TestXML_Parse_DefaultsFleetWhenAbsent(t *testing.T) {
	x := NewXML()
	inst, err := x.Parse(strings.NewReader(sampleXMLNoDepotTag))
	require.NoError(t, err)
	require.Len(t, inst.Fleet, 1)
	assert.Equal(t, "vehicle-1", inst.Fleet[0].ID)
}
