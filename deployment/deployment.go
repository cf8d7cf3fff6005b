// Package deployment keeps the table of live nodes (identity and 3D position)
// that trace positions are reconciled against.
package deployment

import (
	"fmt"
	"reflect"
	"sort"

	ms "github.com/mitchellh/mapstructure"
	"github.com/wiless/vlib"
)

// NodeID identifies a live node in the simulation.
type NodeID uint32

type Node struct {
	Type     string
	ID       NodeID
	Location vlib.Location3D
	Meta     string
	Mode     TxRxMode `mapstructure:"TxRxMode"`
}

func (n Node) String() string {
	return fmt.Sprintf("%s[%d]@(%g,%g,%g)", n.Type, n.ID, n.Location.X, n.Location.Y, n.Location.Z)
}

type TxRxMode int

var TxRxModes = [...]string{
	"TransmitOnly",
	"ReceiveOnly",
	"Duplex",
	"Inactive",
}

func (c TxRxMode) String() string {
	if int(c) < 0 || int(c) >= len(TxRxModes) {
		return "Unknown-TxRxMode"
	}
	return TxRxModes[c]
}

const (
	TransmitOnly TxRxMode = iota
	ReceiveOnly
	Duplex
	Inactive
)

// PositionProvider enumerates the live nodes and their positions.
type PositionProvider interface {
	Nodes() []Node
}

// Table is the in-memory PositionProvider. Node ids are handed out
// sequentially by NewNode unless a node is added with an explicit id.
type Table struct {
	nodes  map[NodeID]Node
	lastID NodeID
}

func NewTable() *Table {
	return &Table{nodes: make(map[NodeID]Node)}
}

// NewNode registers a node of type ntype at location and returns it.
func (t *Table) NewNode(ntype string, location vlib.Location3D) Node {
	for {
		if _, used := t.nodes[t.lastID]; !used {
			break
		}
		t.lastID++
	}
	node := Node{Type: ntype, ID: t.lastID, Location: location, Mode: Duplex}
	t.nodes[node.ID] = node
	t.lastID++
	return node
}

// Add registers node under its own id, replacing any node with the same id.
func (t *Table) Add(node Node) {
	if t.nodes == nil {
		t.nodes = make(map[NodeID]Node)
	}
	t.nodes[node.ID] = node
}

func (t *Table) Lookup(id NodeID) (Node, bool) {
	node, ok := t.nodes[id]
	return node, ok
}

func (t *Table) SetNodeLocation(id NodeID, location vlib.Location3D) error {
	node, ok := t.nodes[id]
	if !ok {
		return fmt.Errorf("deployment: unknown node %d", id)
	}
	node.Location = location
	t.nodes[id] = node
	return nil
}

// Nodes returns every node ordered by id, so position matching is
// deterministic when two nodes share a location.
func (t *Table) Nodes() []Node {
	result := make([]Node, 0, len(t.nodes))
	for _, node := range t.nodes {
		result = append(result, node)
	}
	sort.Slice(result, func(i, j int) bool { return result[i].ID < result[j].ID })
	return result
}

func (t *Table) Len() int {
	return len(t.nodes)
}

// GetNodeIDs returns the ids of the nodes of the given types, all nodes when
// no type is given.
func (t *Table) GetNodeIDs(ntypes ...string) []NodeID {
	var result []NodeID
	for _, node := range t.Nodes() {
		if len(ntypes) == 0 || contains(ntypes, node.Type) {
			result = append(result, node.ID)
		}
	}
	return result
}

func contains(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}

// DecodeNodes builds a Table from loosely typed node descriptions such as the
// ones read from a YAML or JSON file. A location may be given either as a
// {X,Y,Z} map or as a three element list.
func DecodeNodes(raw []map[string]interface{}) (*Table, error) {
	table := NewTable()
	for indx, m := range raw {
		var node Node
		decoder, err := ms.NewDecoder(&ms.DecoderConfig{
			DecodeHook:       ms.ComposeDecodeHookFunc(locationHook, modeHook),
			WeaklyTypedInput: true,
			ErrorUnused:      true,
			Result:           &node,
		})
		if err != nil {
			return nil, err
		}
		if err := decoder.Decode(m); err != nil {
			return nil, fmt.Errorf("deployment: node %d: %w", indx, err)
		}
		if _, dup := table.nodes[node.ID]; dup {
			return nil, fmt.Errorf("deployment: node %d: duplicate id %d", indx, node.ID)
		}
		table.Add(node)
	}
	return table, nil
}

var locationType = reflect.TypeOf(vlib.Location3D{})

func locationHook(from reflect.Type, to reflect.Type, data interface{}) (interface{}, error) {
	if to != locationType {
		return data, nil
	}
	if from.Kind() != reflect.Slice {
		return data, nil
	}
	v := reflect.ValueOf(data)
	if v.Len() != 3 {
		return nil, fmt.Errorf("location needs 3 coordinates, got %d", v.Len())
	}
	var xyz [3]float64
	for i := 0; i < 3; i++ {
		if err := ms.WeakDecode(v.Index(i).Interface(), &xyz[i]); err != nil {
			return nil, fmt.Errorf("location coordinate %d: %w", i, err)
		}
	}
	return vlib.Location3D{X: xyz[0], Y: xyz[1], Z: xyz[2]}, nil
}

func modeHook(from reflect.Type, to reflect.Type, data interface{}) (interface{}, error) {
	if to != reflect.TypeOf(TxRxMode(0)) || from.Kind() != reflect.String {
		return data, nil
	}
	name := data.(string)
	for indx, mode := range TxRxModes {
		if mode == name {
			return TxRxMode(indx), nil
		}
	}
	return nil, fmt.Errorf("unknown TxRxMode %q", name)
}
