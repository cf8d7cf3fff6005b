// Package trace loads ray-tracer output (scenario parameters, node positions
// and per-link multipath traces) and indexes it by link and timestep.
package trace

import (
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	log "github.com/sirupsen/logrus"

	"github.com/signetlabdei/qd-channel/deployment"
)

// Repository holds every snapshot of every link of a scenario. It is
// read-only once built and safe for concurrent readers.
type Repository struct {
	cfg       ScenarioConfig
	links     map[LinkKey][]MultipathSnapshot
	direction map[LinkKey]LinkIdentity
	rtIDs     map[deployment.NodeID]uint32
}

type loadOptions struct {
	withPhase bool
}

type Option func(*loadOptions)

// WithoutPhase selects the trace layout that has no phase line; phases are
// then zero.
func WithoutPhase() Option {
	return func(o *loadOptions) { o.withPhase = false }
}

// Files of a scenario, relative to <path>/<scenario>.
const (
	ConfigFile    = "Input/paraCfgCurrent.txt"
	PositionsFile = "Output/Ns3/NodesPosition/NodesPosition.csv"
	QdFilesDir    = "Output/Ns3/QdFiles"
)

type linkEntry struct {
	id        LinkIdentity
	file      string
	snapshots []MultipathSnapshot
}

// Load reads the scenario <path>/<scenario>. Every position in the trace
// position table must match a node of nodes, so node positions have to be
// set before loading.
func Load(path, scenario string, nodes deployment.PositionProvider, opts ...Option) (*Repository, error) {
	o := loadOptions{withPhase: true}
	for _, opt := range opts {
		opt(&o)
	}
	path, scenario = normalize(path, scenario)
	base := filepath.Join(path, scenario)

	if nodes == nil || len(nodes.Nodes()) == 0 {
		return nil, &ConfigError{Path: base, Reason: "no live nodes to match trace positions against"}
	}

	cfg, err := ReadConfig(filepath.Join(base, ConfigFile))
	if err != nil {
		return nil, err
	}
	cfg.Path, cfg.Scenario = path, scenario

	positions, err := ReadPositions(filepath.Join(base, PositionsFile))
	if err != nil {
		return nil, err
	}
	rtToNode, err := MatchPositions(positions, nodes)
	if err != nil {
		return nil, err
	}

	qdDir := filepath.Join(base, QdFilesDir)
	entries, err := os.ReadDir(qdDir)
	if err != nil {
		return nil, &ConfigError{Path: qdDir, Reason: "cannot list trace files", Err: err}
	}

	var links []linkEntry
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".txt") {
			continue
		}
		fname := filepath.Join(qdDir, entry.Name())
		txRt, rxRt, ok := parseQdFileName(entry.Name())
		if !ok {
			return nil, &ConfigError{Path: fname, Reason: "trace file name is not Tx<id>Rx<id>.txt"}
		}
		tx, ok := rtToNode[txRt]
		if !ok {
			return nil, &ConfigError{Path: fname, Reason: "id not found for TX"}
		}
		rx, ok := rtToNode[rxRt]
		if !ok {
			return nil, &ConfigError{Path: fname, Reason: "id not found for RX"}
		}
		snapshots, err := ReadQdFile(fname, o.withPhase)
		if err != nil {
			return nil, err
		}
		log.WithFields(log.Fields{"file": entry.Name(), "tx": tx, "rx": rx, "timesteps": len(snapshots)}).Debug("trace file loaded")
		links = append(links, linkEntry{id: LinkIdentity{Tx: tx, Rx: rx}, file: fname, snapshots: snapshots})
	}

	repo, err := build(cfg, links)
	if err != nil {
		return nil, err
	}
	for rtID, node := range rtToNode {
		repo.rtIDs[node] = rtID
	}
	log.WithFields(log.Fields{
		"scenario":  scenario,
		"links":     len(repo.links),
		"nodes":     len(positions),
		"timesteps": cfg.Timesteps,
		"period":    cfg.UpdatePeriod(),
		"frequency": cfg.Frequency,
	}).Info("scenario loaded")
	return repo, nil
}

// NewRepository builds a repository from snapshots produced in memory. The
// same checks as Load apply.
func NewRepository(cfg ScenarioConfig, links map[LinkIdentity][]MultipathSnapshot) (*Repository, error) {
	entries := make([]linkEntry, 0, len(links))
	for id, snapshots := range links {
		for indx, s := range snapshots {
			if err := s.validate(); err != nil {
				return nil, &ConfigError{Path: id.String(), Reason: "inconsistent snapshot at timestep " + strconv.Itoa(indx+1), Err: err}
			}
		}
		entries = append(entries, linkEntry{id: id, file: id.String(), snapshots: snapshots})
	}
	// map order is random; keep the duplicate resolution deterministic
	sort.Slice(entries, func(i, j int) bool {
		if entries[i].id.Tx != entries[j].id.Tx {
			return entries[i].id.Tx < entries[j].id.Tx
		}
		return entries[i].id.Rx < entries[j].id.Rx
	})
	return build(cfg, entries)
}

func build(cfg ScenarioConfig, entries []linkEntry) (*Repository, error) {
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	repo := &Repository{
		cfg:       cfg,
		links:     make(map[LinkKey][]MultipathSnapshot, len(entries)),
		direction: make(map[LinkKey]LinkIdentity, len(entries)),
		rtIDs:     make(map[deployment.NodeID]uint32),
	}
	for _, e := range entries {
		key := e.id.Key()
		if first, dup := repo.direction[key]; dup {
			log.WithFields(log.Fields{"file": e.file, "link": e.id, "kept": first}).Warn("duplicate trace for link, ignored")
			continue
		}
		if uint64(len(e.snapshots)) != cfg.Timesteps {
			return nil, &CountMismatchError{File: e.file, Field: "timesteps", Got: len(e.snapshots), Want: int(cfg.Timesteps)}
		}
		repo.links[key] = e.snapshots
		repo.direction[key] = e.id
	}
	if len(repo.links) == 0 {
		return nil, &ConfigError{Path: filepath.Join(cfg.Path, cfg.Scenario), Reason: "no trace files found"}
	}
	return repo, nil
}

// Snapshot returns the multipath snapshot of a link at a timestep. The
// returned vectors are shared and must not be modified.
func (r *Repository) Snapshot(key LinkKey, timestep uint64) (MultipathSnapshot, error) {
	seq, ok := r.links[key]
	if !ok {
		return MultipathSnapshot{}, &RangeError{Key: key, Timestep: timestep, Reason: "unknown link " + strconv.FormatUint(uint64(key), 10)}
	}
	if timestep >= uint64(len(seq)) {
		return MultipathSnapshot{}, &RangeError{Key: key, Timestep: timestep, Limit: uint64(len(seq))}
	}
	return seq[timestep], nil
}

func (r *Repository) Config() ScenarioConfig {
	return r.cfg
}

// Links returns the keys of every loaded link in increasing order.
func (r *Repository) Links() []LinkKey {
	keys := make([]LinkKey, 0, len(r.links))
	for k := range r.links {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool { return keys[i] < keys[j] })
	return keys
}

// Direction returns the transmitter and receiver of the trace file a link
// was loaded from.
func (r *Repository) Direction(key LinkKey) (LinkIdentity, bool) {
	id, ok := r.direction[key]
	return id, ok
}

// RtID returns the ray-tracer id of a live node.
func (r *Repository) RtID(node deployment.NodeID) (uint32, bool) {
	id, ok := r.rtIDs[node]
	return id, ok
}

func (r *Repository) Path() string     { return r.cfg.Path }
func (r *Repository) Scenario() string { return r.cfg.Scenario }

func normalize(path, scenario string) (string, string) {
	scenario = strings.Trim(scenario, "/")
	trimmed := strings.TrimRight(path, "/")
	if trimmed == "" && strings.HasPrefix(path, "/") {
		trimmed = "/"
	}
	return trimmed, scenario
}
