package trace

import (
	"encoding/csv"
	"io"
	"os"

	"github.com/jszwec/csvutil"
	log "github.com/sirupsen/logrus"
	"github.com/wiless/vlib"

	"github.com/signetlabdei/qd-channel/deployment"
)

type position struct {
	X float64 `csv:"x"`
	Y float64 `csv:"y"`
	Z float64 `csv:"z"`
}

// ReadPositions reads the ray tracer's node position table, one x,y,z line
// per node. The line index is the node's ray-tracer id.
func ReadPositions(fname string) ([]vlib.Location3D, error) {
	fid, err := os.Open(fname)
	if err != nil {
		return nil, &ConfigError{Path: fname, Reason: "cannot open node positions", Err: err}
	}
	defer fid.Close()

	csvReader := csv.NewReader(fid)
	csvReader.TrimLeadingSpace = true
	csvReader.FieldsPerRecord = 3
	dec, err := csvutil.NewDecoder(csvReader, "x", "y", "z")
	if err != nil {
		return nil, &ConfigError{Path: fname, Reason: "cannot read node positions", Err: err}
	}

	var result []vlib.Location3D
	for {
		var p position
		if err := dec.Decode(&p); err == io.EOF {
			break
		} else if err != nil {
			return nil, &ConfigError{Path: fname, Reason: "malformed node position", Err: err}
		}
		result = append(result, vlib.Location3D{X: p.X, Y: p.Y, Z: p.Z})
	}
	if len(result) == 0 {
		return nil, &ConfigError{Path: fname, Reason: "no node positions"}
	}
	return result, nil
}

// MatchPositions resolves every trace position to the live node at exactly
// the same coordinates. The first matching node wins.
func MatchPositions(positions []vlib.Location3D, nodes deployment.PositionProvider) (map[uint32]deployment.NodeID, error) {
	live := nodes.Nodes()
	result := make(map[uint32]deployment.NodeID, len(positions))
	for indx, pos := range positions {
		rtID := uint32(indx)
		found := false
		for _, node := range live {
			if node.Location.X == pos.X && node.Location.Y == pos.Y && node.Location.Z == pos.Z {
				result[rtID] = node.ID
				found = true
				log.WithFields(log.Fields{"rtId": rtID, "node": node.ID}).Debug("position matched")
				break
			}
		}
		if !found {
			return nil, &GeometryMismatchError{RtID: rtID, Position: pos}
		}
	}
	return result, nil
}
