package flatfat

import (
	"fmt"
	"log/slog"

	"github.com/boljen/go-bitmap"
	"github.com/dargueta/flatfat/directory"
	"github.com/dargueta/flatfat/errors"
	"github.com/dargueta/flatfat/layout"
)

// ProblemKind classifies an inconsistency found by [Session.Check].
type ProblemKind int

const (
	// ProblemCorruptDirectory means the root directory's chain can't be followed.
	// Nothing else can be checked when this happens.
	ProblemCorruptDirectory ProblemKind = iota
	// ProblemCorruptChain means a file's chain links to a free cluster, leaves the
	// table, or loops.
	ProblemCorruptChain
	// ProblemCrossLinked means a cluster belongs to more than one chain.
	ProblemCrossLinked
	// ProblemFreeClusterReferenced means a file's first cluster is marked free.
	ProblemFreeClusterReferenced
	// ProblemLostCluster means a data cluster is marked in use but no file or
	// directory chain reaches it.
	ProblemLostCluster
)

var problemKindNames = map[ProblemKind]string{
	ProblemCorruptDirectory:      "corrupt-directory",
	ProblemCorruptChain:          "corrupt-chain",
	ProblemCrossLinked:           "cross-linked",
	ProblemFreeClusterReferenced: "free-cluster-referenced",
	ProblemLostCluster:           "lost-cluster",
}

func (k ProblemKind) String() string {
	name, ok := problemKindNames[k]
	if !ok {
		return fmt.Sprintf("ProblemKind(%d)", int(k))
	}
	return name
}

// Problem is a single inconsistency in an image. Name is empty for problems not
// tied to a file.
type Problem struct {
	Kind    ProblemKind
	Name    string
	Cluster layout.ClusterID
	Message string
}

func (p Problem) String() string {
	if p.Name == "" {
		return fmt.Sprintf("%s: cluster %d: %s", p.Kind, p.Cluster, p.Message)
	}
	return fmt.Sprintf("%s: %s: cluster %d: %s", p.Kind, p.Name, p.Cluster, p.Message)
}

// Report is the result of [Session.Check].
type Report struct {
	FilesChecked  int
	ClustersInUse int
	Problems      []Problem
}

// OK returns true if no problems were found.
func (r Report) OK() bool {
	return len(r.Problems) == 0
}

// Count gives the number of problems of the given kind.
func (r Report) Count(kind ProblemKind) int {
	count := 0
	for _, problem := range r.Problems {
		if problem.Kind == kind {
			count++
		}
	}
	return count
}

type checker struct {
	session *Session
	owned   bitmap.Bitmap
	report  Report
}

func (c *checker) addProblem(kind ProblemKind, name string, cluster layout.ClusterID, message string) {
	c.report.Problems = append(
		c.report.Problems,
		Problem{Kind: kind, Name: name, Cluster: cluster, Message: message})
}

// claim marks every cluster in `chain` as owned by `name`, reporting any that
// were already claimed.
func (c *checker) claim(name string, chain []layout.ClusterID) {
	for _, cluster := range chain {
		if !c.session.geometry.IsDataCluster(cluster) {
			continue
		}
		if c.owned.Get(int(cluster)) {
			c.addProblem(ProblemCrossLinked, name, cluster, "cluster is already part of another chain")
			continue
		}
		c.owned.Set(int(cluster), true)
		c.report.ClustersInUse++
	}
}

func (c *checker) checkEntry(entry directory.Entry) error {
	table := c.session.table
	if !c.session.geometry.IsDataCluster(entry.FirstCluster) {
		return nil
	}

	value, err := table.Entry(entry.FirstCluster)
	if err != nil {
		return err
	}
	if value == layout.FATEntryFree {
		c.addProblem(
			ProblemFreeClusterReferenced,
			entry.Name,
			entry.FirstCluster,
			"first cluster is marked free")
		return nil
	}

	chain, err := table.FollowChain(entry.FirstCluster)
	if err != nil {
		if errors.ErrnoOf(err) != errors.EUCLEAN {
			return err
		}
		c.addProblem(ProblemCorruptChain, entry.Name, entry.FirstCluster, err.Error())
	}
	c.claim(entry.Name, chain)
	return nil
}

// Check looks for inconsistencies between the directory and the FAT: corrupt or
// cross-linked chains, files pointing at free clusters, and clusters marked in
// use that nothing refers to. The image isn't modified.
func (s *Session) Check() (Report, error) {
	if err := s.lock(); err != nil {
		return Report{}, err
	}
	defer s.mu.Unlock()

	c := checker{
		session: s,
		owned:   bitmap.New(int(s.geometry.TotalClusters)),
	}

	root := s.geometry.RootDirCluster
	dirChain, err := s.table.FollowChain(root)
	if err != nil {
		if errors.ErrnoOf(err) != errors.EUCLEAN {
			return Report{}, err
		}
		c.addProblem(ProblemCorruptDirectory, "", root, err.Error())
		return c.report, nil
	}
	c.claim("", dirChain)

	entries, err := s.directory.ReadDirectory(root)
	if err != nil {
		return Report{}, err
	}

	for _, entry := range entries {
		if err = c.checkEntry(entry); err != nil {
			return Report{}, err
		}
		c.report.FilesChecked++
	}

	for i := int(s.geometry.FirstDataCluster); i < int(s.geometry.TotalClusters); i++ {
		cluster := layout.ClusterID(i)
		value, err := s.table.Entry(cluster)
		if err != nil {
			return Report{}, err
		}
		if value != layout.FATEntryFree && !c.owned.Get(i) {
			c.addProblem(ProblemLostCluster, "", cluster, "cluster is in use but unreachable")
		}
	}

	s.logger.Info(
		"checked image",
		slog.Int("files", c.report.FilesChecked),
		slog.Int("problems", len(c.report.Problems)))
	return c.report, nil
}
