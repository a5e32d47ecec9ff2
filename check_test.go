package flatfat

import (
	"testing"

	"github.com/dargueta/flatfat/layout"
	flatfattest "github.com/dargueta/flatfat/testing"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newCheckSession(t *testing.T) *Session {
	geometry := flatfattest.SmallGeometry
	store := flatfattest.NewMemoryStorage(geometry, t)
	session, err := Format(store, geometry)
	require.NoError(t, err)

	_, err = session.CreateFile("ALPHA", 0, 300)
	require.NoError(t, err)
	_, err = session.CreateFile("BETA", 0, 100)
	require.NoError(t, err)
	return session
}

func TestCheck__CleanImage(t *testing.T) {
	session := newCheckSession(t)

	report, err := session.Check()
	require.NoError(t, err)
	assert.True(t, report.OK(), "unexpected problems: %v", report.Problems)
	assert.Equal(t, 2, report.FilesChecked)
	assert.Equal(t, 4, report.ClustersInUse)
}

func TestCheck__LostCluster(t *testing.T) {
	session := newCheckSession(t)
	require.NoError(t, session.table.SetEntry(40, layout.FATEntryEOF))

	report, err := session.Check()
	require.NoError(t, err)
	require.Len(t, report.Problems, 1)
	assert.Equal(t, ProblemLostCluster, report.Problems[0].Kind)
	assert.EqualValues(t, 40, report.Problems[0].Cluster)
}

func TestCheck__CrossLinked(t *testing.T) {
	session := newCheckSession(t)

	// ALPHA is 4 -> 5 -> 6 and BETA is 7. Point BETA's cluster at ALPHA's tail.
	require.NoError(t, session.table.SetEntry(7, 6))

	report, err := session.Check()
	require.NoError(t, err)
	assert.Equal(t, 1, report.Count(ProblemCrossLinked))
	assert.Equal(t, 1, len(report.Problems))
	assert.Equal(t, "BETA", report.Problems[0].Name)
}

func TestCheck__FreeClusterReferenced(t *testing.T) {
	session := newCheckSession(t)
	require.NoError(t, session.table.SetEntry(7, layout.FATEntryFree))

	report, err := session.Check()
	require.NoError(t, err)
	require.Len(t, report.Problems, 1)
	assert.Equal(t, ProblemFreeClusterReferenced, report.Problems[0].Kind)
	assert.Equal(t, "BETA", report.Problems[0].Name)
}

func TestCheck__CorruptChain(t *testing.T) {
	session := newCheckSession(t)
	require.NoError(t, session.table.SetEntry(6, 4))

	report, err := session.Check()
	require.NoError(t, err)
	assert.Equal(t, 1, report.Count(ProblemCorruptChain))
	assert.Equal(t, "ALPHA", report.Problems[0].Name)
	assert.Zero(t, report.Count(ProblemLostCluster))
}

func TestCheck__CorruptDirectory(t *testing.T) {
	session := newCheckSession(t)
	root := session.geometry.RootDirCluster
	require.NoError(t, session.table.SetEntry(root, root))

	report, err := session.Check()
	require.NoError(t, err)
	require.Len(t, report.Problems, 1)
	assert.Equal(t, ProblemCorruptDirectory, report.Problems[0].Kind)
}

func TestCheck__DoesNotModifyImage(t *testing.T) {
	session := newCheckSession(t)
	require.NoError(t, session.table.SetEntry(40, 41))
	require.NoError(t, session.table.SetEntry(41, layout.FATEntryEOF))
	before := session.table.Snapshot()

	_, err := session.Check()
	require.NoError(t, err)
	assert.Equal(t, before, session.table.Snapshot())
}

func TestProblemKind__String(t *testing.T) {
	assert.Equal(t, "lost-cluster", ProblemLostCluster.String())
	assert.Equal(t, "ProblemKind(99)", ProblemKind(99).String())

	problem := Problem{Kind: ProblemCrossLinked, Name: "A", Cluster: 5, Message: "oops"}
	assert.Equal(t, "cross-linked: A: cluster 5: oops", problem.String())
}
