package deployment_test

import (
	"testing"

	"github.com/signetlabdei/qd-channel/deployment"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/wiless/vlib"
)

func TestNewNodeAssignsSequentialIDs(t *testing.T) {
	table := deployment.NewTable()
	a := table.NewNode("AP", vlib.Location3D{X: 1, Y: 2, Z: 3})
	b := table.NewNode("STA", vlib.Location3D{X: 4, Y: 5, Z: 6})

	assert.Equal(t, deployment.NodeID(0), a.ID)
	assert.Equal(t, deployment.NodeID(1), b.ID)
	assert.Equal(t, deployment.Duplex, a.Mode)
	assert.Equal(t, 2, table.Len())
	assert.Equal(t, []deployment.NodeID{1}, table.GetNodeIDs("STA"))
	assert.Equal(t, []deployment.NodeID{0, 1}, table.GetNodeIDs())
}

func TestNewNodeSkipsExplicitIDs(t *testing.T) {
	table := deployment.NewTable()
	table.Add(deployment.Node{Type: "AP", ID: 0})
	node := table.NewNode("STA", vlib.Location3D{})
	assert.Equal(t, deployment.NodeID(1), node.ID)
}

func TestNodesSortedByID(t *testing.T) {
	table := deployment.NewTable()
	table.Add(deployment.Node{ID: 7})
	table.Add(deployment.Node{ID: 2})
	table.Add(deployment.Node{ID: 5})

	nodes := table.Nodes()
	require.Len(t, nodes, 3)
	assert.Equal(t, deployment.NodeID(2), nodes[0].ID)
	assert.Equal(t, deployment.NodeID(5), nodes[1].ID)
	assert.Equal(t, deployment.NodeID(7), nodes[2].ID)
}

func TestSetNodeLocation(t *testing.T) {
	table := deployment.NewTable()
	node := table.NewNode("AP", vlib.Location3D{})
	require.NoError(t, table.SetNodeLocation(node.ID, vlib.Location3D{X: 9}))

	got, ok := table.Lookup(node.ID)
	require.True(t, ok)
	assert.Equal(t, 9.0, got.Location.X)
	assert.Error(t, table.SetNodeLocation(42, vlib.Location3D{}))
}

func TestDecodeNodes(t *testing.T) {
	raw := []map[string]interface{}{
		{"Type": "AP", "ID": 0, "Location": []interface{}{1.5, "2", 3}},
		{"Type": "STA", "ID": "1", "Location": map[string]interface{}{"X": 4, "Y": 5, "Z": 6}, "TxRxMode": "ReceiveOnly"},
	}
	table, err := deployment.DecodeNodes(raw)
	require.NoError(t, err)
	require.Equal(t, 2, table.Len())

	ap, _ := table.Lookup(0)
	assert.Equal(t, vlib.Location3D{X: 1.5, Y: 2, Z: 3}, ap.Location)

	sta, _ := table.Lookup(1)
	assert.Equal(t, vlib.Location3D{X: 4, Y: 5, Z: 6}, sta.Location)
	assert.Equal(t, deployment.ReceiveOnly, sta.Mode)
	assert.Equal(t, "ReceiveOnly", sta.Mode.String())
}

func TestDecodeNodesErrors(t *testing.T) {
	_, err := deployment.DecodeNodes([]map[string]interface{}{
		{"ID": 0, "Location": []interface{}{1, 2}},
	})
	assert.Error(t, err)

	_, err = deployment.DecodeNodes([]map[string]interface{}{
		{"ID": 0}, {"ID": 0},
	})
	assert.Error(t, err)

	_, err = deployment.DecodeNodes([]map[string]interface{}{
		{"ID": 0, "Color": "red"},
	})
	assert.Error(t, err)
}
