package trace_test

import (
	"errors"
	"math"
	"path/filepath"
	"testing"
	"time"

	"github.com/signetlabdei/qd-channel/deployment"
	"github.com/signetlabdei/qd-channel/trace"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/wiless/vlib"
)

const cfgText = "ParameterName\tParameterValue\n" +
	"numberOfTimeDivisions\t2\n" +
	"totalTimeDuration\t0.2\n" +
	"carrierFrequency\t60e9\n"

const positionsText = "0,0,1.5\n10, 5, 1.5\n"

// two timesteps: two components, then none
const linkText = "2\n" +
	"1e-8,2e-8\n" +
	"-70,-80\n" +
	"0.5,1.0\n" +
	"90,80\n" +
	"0,45\n" +
	"90,100\n" +
	"180,-135\n" +
	"\n" +
	"0\n"

// writeScenario lays a scenario out under <dir>/scen and returns dir.
func writeScenario(t *testing.T, files map[string]string) string {
	t.Helper()
	dir := t.TempDir()
	base := filepath.Join(dir, "scen")
	if _, ok := files[trace.ConfigFile]; !ok {
		files[trace.ConfigFile] = cfgText
	}
	if _, ok := files[trace.PositionsFile]; !ok {
		files[trace.PositionsFile] = positionsText
	}
	for name, content := range files {
		writeFile(t, filepath.Join(base, name), content)
	}
	return dir
}

func qd(name string) string {
	return filepath.Join(trace.QdFilesDir, name)
}

// liveNodes registers nodes in the reverse order of the trace position file.
func liveNodes() *deployment.Table {
	table := deployment.NewTable()
	table.NewNode("STA", vlib.Location3D{X: 10, Y: 5, Z: 1.5})
	table.NewNode("AP", vlib.Location3D{X: 0, Y: 0, Z: 1.5})
	return table
}

func TestLoad(t *testing.T) {
	dir := writeScenario(t, map[string]string{qd("Tx0Rx1.txt"): linkText, qd("README"): "ignored"})

	repo, err := trace.Load(dir+"/", "/scen/", liveNodes())
	require.NoError(t, err)

	cfg := repo.Config()
	assert.Equal(t, uint64(2), cfg.Timesteps)
	assert.Equal(t, 200*time.Millisecond, cfg.Duration)
	assert.Equal(t, "scen", repo.Scenario())
	assert.Equal(t, dir, repo.Path())

	// trace id 0 is node 1, trace id 1 is node 0
	rt, ok := repo.RtID(1)
	require.True(t, ok)
	assert.Equal(t, uint32(0), rt)

	key := trace.Key(0, 1)
	assert.Equal(t, []trace.LinkKey{key}, repo.Links())
	dir2, ok := repo.Direction(key)
	require.True(t, ok)
	assert.Equal(t, trace.LinkIdentity{Tx: 1, Rx: 0}, dir2)

	s, err := repo.Snapshot(key, 0)
	require.NoError(t, err)
	assert.Equal(t, 2, s.NumComponents)
	assert.Equal(t, vlib.VectorF{1e-8, 2e-8}, s.Delay)
	assert.Equal(t, vlib.VectorF{-70, -80}, s.PathGain)
	assert.Equal(t, vlib.VectorF{0.5, 1.0}, s.Phase)
	assert.InDelta(t, math.Pi/2, s.ElAoD[0], 1e-12)
	assert.InDelta(t, math.Pi/4, s.AzAoD[1], 1e-12)
	assert.InDelta(t, math.Pi, s.AzAoA[0], 1e-12)
	assert.InDelta(t, -3*math.Pi/4, s.AzAoA[1], 1e-12)

	empty, err := repo.Snapshot(key, 1)
	require.NoError(t, err)
	assert.Equal(t, 0, empty.NumComponents)
	assert.Len(t, empty.Delay, 0)
	assert.Len(t, empty.AzAoA, 0)
}

func TestLoadWithoutPhase(t *testing.T) {
	text := "1\n1e-8\n-70\n90\n0\n90\n180\n1\n2e-8\n-75\n90\n0\n90\n180\n"
	dir := writeScenario(t, map[string]string{qd("Tx0Rx1.txt"): text})

	repo, err := trace.Load(dir, "scen", liveNodes(), trace.WithoutPhase())
	require.NoError(t, err)

	s, err := repo.Snapshot(trace.Key(0, 1), 1)
	require.NoError(t, err)
	assert.Equal(t, vlib.VectorF{-75}, s.PathGain)
	assert.Equal(t, vlib.VectorF{0}, s.Phase)
}

func TestSnapshotRange(t *testing.T) {
	dir := writeScenario(t, map[string]string{qd("Tx0Rx1.txt"): linkText})
	repo, err := trace.Load(dir, "scen", liveNodes())
	require.NoError(t, err)

	_, err = repo.Snapshot(trace.Key(0, 1), 2)
	var rangeErr *trace.RangeError
	require.ErrorAs(t, err, &rangeErr)
	assert.Equal(t, uint64(2), rangeErr.Limit)
	assert.ErrorIs(t, err, trace.ErrRange)

	_, err = repo.Snapshot(trace.Key(4, 5), 0)
	assert.ErrorIs(t, err, trace.ErrRange)
}

func TestLoadGeometryMismatch(t *testing.T) {
	dir := writeScenario(t, map[string]string{
		trace.PositionsFile: "0,0,1.5\n10,5,1.6\n",
		qd("Tx0Rx1.txt"):    linkText,
	})
	_, err := trace.Load(dir, "scen", liveNodes())

	var geomErr *trace.GeometryMismatchError
	require.ErrorAs(t, err, &geomErr)
	assert.Equal(t, uint32(1), geomErr.RtID)
	assert.True(t, errors.Is(err, trace.ErrGeometryMismatch))
}

func TestLoadCountMismatch(t *testing.T) {
	// second timestep declares two components but lists one gain
	text := "1\n1e-8\n-70\n0\n90\n0\n90\n180\n" +
		"2\n1e-8,2e-8\n-70\n0,0\n90,90\n0,0\n90,90\n180,180\n"
	dir := writeScenario(t, map[string]string{qd("Tx0Rx1.txt"): text})

	_, err := trace.Load(dir, "scen", liveNodes())
	var countErr *trace.CountMismatchError
	require.ErrorAs(t, err, &countErr)
	assert.Equal(t, 2, countErr.Timestep)
	assert.Equal(t, "path gains", countErr.Field)
	assert.Equal(t, 1, countErr.Got)
	assert.Equal(t, 2, countErr.Want)
	assert.Contains(t, countErr.File, "Tx0Rx1.txt")
	assert.ErrorIs(t, err, trace.ErrCountMismatch)
}

func TestLoadTruncatedBlock(t *testing.T) {
	dir := writeScenario(t, map[string]string{qd("Tx0Rx1.txt"): "1\n1e-8\n-70\n"})
	_, err := trace.Load(dir, "scen", liveNodes())
	assert.ErrorIs(t, err, trace.ErrCountMismatch)
}

func TestLoadSequenceLengthMismatch(t *testing.T) {
	dir := writeScenario(t, map[string]string{qd("Tx0Rx1.txt"): "0\n0\n0\n"})
	_, err := trace.Load(dir, "scen", liveNodes())

	var countErr *trace.CountMismatchError
	require.ErrorAs(t, err, &countErr)
	assert.Equal(t, 3, countErr.Got)
	assert.Equal(t, 2, countErr.Want)
}

func TestLoadDuplicateDirection(t *testing.T) {
	reverse := "0\n1\n1e-8\n-60\n0\n90\n0\n90\n0\n"
	dir := writeScenario(t, map[string]string{
		qd("Tx0Rx1.txt"): linkText,
		qd("Tx1Rx0.txt"): reverse,
	})
	repo, err := trace.Load(dir, "scen", liveNodes())
	require.NoError(t, err)
	require.Len(t, repo.Links(), 1)

	s, err := repo.Snapshot(trace.Key(0, 1), 0)
	require.NoError(t, err)
	assert.Equal(t, 2, s.NumComponents)
}

func TestLoadConfigErrors(t *testing.T) {
	t.Run("no trace files", func(t *testing.T) {
		dir := writeScenario(t, map[string]string{qd("notes.md"): ""})
		_, err := trace.Load(dir, "scen", liveNodes())
		assert.ErrorIs(t, err, trace.ErrConfig)
	})
	t.Run("bad file name", func(t *testing.T) {
		dir := writeScenario(t, map[string]string{qd("Tx0Rx1.txt"): linkText, qd("summary.txt"): ""})
		_, err := trace.Load(dir, "scen", liveNodes())
		assert.ErrorIs(t, err, trace.ErrConfig)
	})
	t.Run("unknown trace id", func(t *testing.T) {
		dir := writeScenario(t, map[string]string{qd("Tx0Rx7.txt"): linkText})
		_, err := trace.Load(dir, "scen", liveNodes())
		assert.ErrorIs(t, err, trace.ErrConfig)
	})
	t.Run("no nodes", func(t *testing.T) {
		dir := writeScenario(t, map[string]string{qd("Tx0Rx1.txt"): linkText})
		_, err := trace.Load(dir, "scen", deployment.NewTable())
		assert.ErrorIs(t, err, trace.ErrConfig)
		_, err = trace.Load(dir, "scen", nil)
		assert.ErrorIs(t, err, trace.ErrConfig)
	})
	t.Run("missing scenario", func(t *testing.T) {
		_, err := trace.Load(t.TempDir(), "nowhere", liveNodes())
		assert.ErrorIs(t, err, trace.ErrConfig)
	})
}

func TestNewRepository(t *testing.T) {
	cfg := trace.ScenarioConfig{Timesteps: 1, Duration: time.Second, Frequency: 28e9}
	snapshot := trace.MultipathSnapshot{
		NumComponents: 1,
		Delay:         vlib.VectorF{1e-8},
		PathGain:      vlib.VectorF{-60},
		Phase:         vlib.VectorF{0},
		ElAoD:         vlib.VectorF{0},
		AzAoD:         vlib.VectorF{0},
		ElAoA:         vlib.VectorF{0},
		AzAoA:         vlib.VectorF{0},
	}
	repo, err := trace.NewRepository(cfg, map[trace.LinkIdentity][]trace.MultipathSnapshot{
		{Tx: 0, Rx: 1}: {snapshot},
	})
	require.NoError(t, err)
	got, err := repo.Snapshot(trace.Key(1, 0), 0)
	require.NoError(t, err)
	assert.Equal(t, snapshot, got)

	broken := snapshot
	broken.AzAoA = vlib.VectorF{}
	_, err = trace.NewRepository(cfg, map[trace.LinkIdentity][]trace.MultipathSnapshot{{Tx: 0, Rx: 1}: {broken}})
	assert.ErrorIs(t, err, trace.ErrConfig)

	_, err = trace.NewRepository(cfg, map[trace.LinkIdentity][]trace.MultipathSnapshot{{Tx: 0, Rx: 1}: {snapshot, snapshot}})
	assert.ErrorIs(t, err, trace.ErrCountMismatch)

	_, err = trace.NewRepository(cfg, nil)
	assert.ErrorIs(t, err, trace.ErrConfig)
}
