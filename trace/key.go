package trace

import (
	"fmt"

	"github.com/signetlabdei/qd-channel/deployment"
)

// LinkKey identifies an unordered pair of nodes.
type LinkKey uint64

// Key returns the Cantor pairing of (min, max) of the two ids, so
// Key(a, b) == Key(b, a). Keys are unique for ids below 2^31.
func Key(a, b deployment.NodeID) LinkKey {
	x1, x2 := uint64(a), uint64(b)
	if x1 > x2 {
		x1, x2 = x2, x1
	}
	return LinkKey((x1+x2)*(x1+x2+1)/2 + x2)
}

// LinkIdentity is an ordered (transmitter, receiver) pair.
type LinkIdentity struct {
	Tx deployment.NodeID
	Rx deployment.NodeID
}

func (l LinkIdentity) Key() LinkKey {
	return Key(l.Tx, l.Rx)
}

// Reverse swaps the roles of the two nodes.
func (l LinkIdentity) Reverse() LinkIdentity {
	return LinkIdentity{Tx: l.Rx, Rx: l.Tx}
}

func (l LinkIdentity) String() string {
	return fmt.Sprintf("%d->%d", l.Tx, l.Rx)
}
