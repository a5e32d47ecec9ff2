// Package flatfat manages disk images holding a minimal FAT-style file system:
// a superblock, a file allocation table, and a single flat root directory whose
// entries point at cluster chains in the data region.
//
// A [Session] owns an image for as long as it's open. Every operation goes
// straight to the backing storage, except for changes to the FAT, which are
// kept in memory until they're flushed. Operations that modify the FAT flush
// it before returning.
package flatfat

import (
	"fmt"
	"log/slog"
	"sync"

	"github.com/dargueta/flatfat/directory"
	"github.com/dargueta/flatfat/errors"
	"github.com/dargueta/flatfat/fat"
	"github.com/dargueta/flatfat/internal/logging"
	"github.com/dargueta/flatfat/layout"
	"github.com/dargueta/flatfat/names"
	"github.com/dargueta/flatfat/storage"
	"github.com/hashicorp/go-multierror"
)

type sessionOptions struct {
	logger    *slog.Logger
	clearMode directory.ClearMode
}

// Option configures a [Session].
type Option func(*sessionOptions)

// WithLogger sets the logger used by the session and everything it creates. By
// default nothing is logged.
func WithLogger(logger *slog.Logger) Option {
	return func(o *sessionOptions) {
		o.logger = logger
	}
}

// WithClearMode controls how much of a directory slot is wiped when a file is
// removed. See [directory.ClearMode].
func WithClearMode(mode directory.ClearMode) Option {
	return func(o *sessionOptions) {
		o.clearMode = mode
	}
}

// Session is an open image. All methods are safe for concurrent use; a single
// lock serializes every operation on the image.
type Session struct {
	mu        sync.Mutex
	geometry  layout.Geometry
	storage   storage.BlockStorage
	table     *fat.Table
	directory *directory.Manager
	logger    *slog.Logger
	closed    bool
}

// Stats summarizes the state of an image.
type Stats struct {
	ClusterSize       uint
	TotalClusters     uint
	DataClusters      uint
	FreeClusters      uint
	DirectoryCapacity int
	Files             int
}

func newSession(store storage.BlockStorage, geometry layout.Geometry, options sessionOptions) *Session {
	logger := logging.OrDiscard(options.logger)
	table := fat.New(store, geometry, logger)
	return &Session{
		geometry: geometry,
		storage:  store,
		table:    table,
		directory: directory.NewManager(
			table,
			store,
			geometry,
			logger,
			directory.WithClearMode(options.clearMode)),
		logger: logger,
	}
}

func collectOptions(opts []Option) sessionOptions {
	options := sessionOptions{clearMode: directory.ClearFirstByte}
	for _, opt := range opts {
		opt(&options)
	}
	return options
}

func checkStorageMatches(store storage.BlockStorage, geometry layout.Geometry) error {
	if store.ClusterSize() != geometry.ClusterSize || store.TotalClusters() != geometry.TotalClusters {
		return errors.ErrInvalidFileSystem.WithMessage(
			fmt.Sprintf(
				"storage has %d clusters of %d bytes, geometry needs %d clusters of %d bytes",
				store.TotalClusters(),
				store.ClusterSize(),
				geometry.TotalClusters,
				geometry.ClusterSize))
	}
	return nil
}

// Format writes an empty file system to `store` and opens a session on it. The
// superblock, the root directory cluster and the FAT are overwritten; the data
// region is left alone.
func Format(store storage.BlockStorage, geometry layout.Geometry, opts ...Option) (*Session, error) {
	if err := geometry.Validate(); err != nil {
		return nil, err
	}
	if err := checkStorageMatches(store, geometry); err != nil {
		return nil, err
	}

	superblock, err := encodeSuperblock(geometry)
	if err != nil {
		return nil, err
	}
	err = store.WriteCluster(layout.SuperblockCluster, superblock)
	if err != nil {
		return nil, err
	}

	err = store.WriteCluster(geometry.RootDirCluster, make([]byte, geometry.ClusterSize))
	if err != nil {
		return nil, err
	}

	session := newSession(store, geometry, collectOptions(opts))
	session.table.Format()
	err = session.table.Flush()
	if err != nil {
		return nil, err
	}

	session.logger.Info(
		"formatted image",
		slog.String("geometry", geometry.String()),
		slog.Uint64("data_clusters", uint64(geometry.DataClusters())))
	return session, nil
}

// Open reads the superblock and FAT from `store` and opens a session on it.
// Storage without a valid superblock fails with errno EMEDIUMTYPE.
func Open(store storage.BlockStorage, opts ...Option) (*Session, error) {
	data, err := store.ReadCluster(layout.SuperblockCluster)
	if err != nil {
		return nil, err
	}

	geometry, err := decodeSuperblock(data)
	if err != nil {
		return nil, err
	}
	if err = checkStorageMatches(store, geometry); err != nil {
		return nil, err
	}

	session := newSession(store, geometry, collectOptions(opts))
	err = session.table.Load()
	if err != nil {
		return nil, err
	}

	session.logger.Info(
		"opened image",
		slog.String("geometry", geometry.String()),
		slog.Uint64("free_clusters", uint64(session.table.CountFree())))
	return session, nil
}

// lock acquires the session lock and fails if the session is closed. The
// caller must unlock if and only if the error is nil.
func (s *Session) lock() error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return errors.ErrFileDescriptorBadState.WithMessage("session is closed")
	}
	return nil
}

// Geometry returns the layout of the image.
func (s *Session) Geometry() layout.Geometry {
	return s.geometry
}

func (s *Session) lookup(name string) (directory.Entry, error) {
	entry, found, err := s.directory.FindEntry(s.geometry.RootDirCluster, name)
	if err != nil {
		return directory.Entry{}, err
	}
	if !found {
		return directory.Entry{}, errors.ErrNotFound.WithMessage(
			fmt.Sprintf("no file named %q", name))
	}
	return entry, nil
}

// clustersForSize gives the number of clusters needed to hold `size` bytes.
// Every file gets at least one cluster.
func (s *Session) clustersForSize(size int32) int {
	clusterSize := int64(s.geometry.ClusterSize)
	clusters := int((int64(size) + clusterSize - 1) / clusterSize)
	if clusters < 1 {
		return 1
	}
	return clusters
}

// CreateFile adds a file named `name` to the root directory and allocates
// enough clusters to hold `size` bytes, with a minimum of one. The contents of
// the clusters aren't touched.
//
// It fails with errno EEXIST if a file with the same name already exists,
// ignoring case, and ENOSPC if there's no room for the file or a new directory
// cluster.
func (s *Session) CreateFile(name string, attributes uint8, size int32) (directory.Entry, error) {
	if err := s.lock(); err != nil {
		return directory.Entry{}, err
	}
	defer s.mu.Unlock()

	if size < 0 {
		return directory.Entry{}, errors.ErrInvalidArgument.WithMessage(
			fmt.Sprintf("file size can't be negative, got %d", size))
	}

	canonical, err := names.Canonical(name)
	if err != nil {
		return directory.Entry{}, err
	}

	_, found, err := s.directory.FindEntry(s.geometry.RootDirCluster, canonical)
	if err != nil {
		return directory.Entry{}, err
	}
	if found {
		return directory.Entry{}, errors.ErrExists.WithMessage(
			fmt.Sprintf("file %q already exists", canonical))
	}

	clusters := s.clustersForSize(size)
	firstCluster, err := s.table.AllocateChain(clusters)
	if err != nil {
		return directory.Entry{}, err
	}

	entry := directory.Entry{
		Name:         canonical,
		Attributes:   attributes,
		FirstCluster: firstCluster,
		FileSize:     size,
	}
	err = s.directory.AddEntry(s.geometry.RootDirCluster, entry)
	if err != nil {
		// The chain was just allocated and nothing refers to it.
		_ = s.table.FreeChain(firstCluster)
		return directory.Entry{}, err
	}

	err = s.table.Flush()
	if err != nil {
		return directory.Entry{}, err
	}

	s.logger.Info(
		"created file",
		slog.String("name", canonical),
		logging.Cluster("first_cluster", int32(firstCluster)),
		slog.Int("clusters", clusters),
		slog.Int64("size", int64(size)))
	return entry, nil
}

// Lookup finds the file named `name`, ignoring case. It fails with errno ENOENT
// if there's no such file.
func (s *Session) Lookup(name string) (directory.Entry, error) {
	if err := s.lock(); err != nil {
		return directory.Entry{}, err
	}
	defer s.mu.Unlock()

	return s.lookup(name)
}

// List returns every file in the root directory in on-disk order.
func (s *Session) List() ([]directory.Entry, error) {
	if err := s.lock(); err != nil {
		return nil, err
	}
	defer s.mu.Unlock()

	return s.directory.ReadDirectory(s.geometry.RootDirCluster)
}

// Remove deletes the file named `name` and frees its clusters. It fails with
// errno ENOENT if there's no such file.
func (s *Session) Remove(name string) error {
	if err := s.lock(); err != nil {
		return err
	}
	defer s.mu.Unlock()

	entry, err := s.lookup(name)
	if err != nil {
		return err
	}

	err = s.directory.RemoveEntry(s.geometry.RootDirCluster, entry)
	if err != nil {
		return err
	}

	s.logger.Info(
		"removed file",
		slog.String("name", entry.Name),
		logging.Cluster("first_cluster", int32(entry.FirstCluster)))
	return nil
}

// Chain returns the clusters belonging to the file named `name`, in order. A
// file whose first cluster isn't in the data region has no clusters.
func (s *Session) Chain(name string) ([]layout.ClusterID, error) {
	if err := s.lock(); err != nil {
		return nil, err
	}
	defer s.mu.Unlock()

	entry, err := s.lookup(name)
	if err != nil {
		return nil, err
	}
	if !s.geometry.IsDataCluster(entry.FirstCluster) {
		return []layout.ClusterID{}, nil
	}
	return s.table.FollowChain(entry.FirstCluster)
}

// Stat summarizes space usage on the image.
func (s *Session) Stat() (Stats, error) {
	if err := s.lock(); err != nil {
		return Stats{}, err
	}
	defer s.mu.Unlock()

	capacity, err := s.directory.Capacity(s.geometry.RootDirCluster)
	if err != nil {
		return Stats{}, err
	}
	entries, err := s.directory.ReadDirectory(s.geometry.RootDirCluster)
	if err != nil {
		return Stats{}, err
	}

	return Stats{
		ClusterSize:       s.geometry.ClusterSize,
		TotalClusters:     s.geometry.TotalClusters,
		DataClusters:      s.geometry.DataClusters(),
		FreeClusters:      s.table.CountFree(),
		DirectoryCapacity: capacity,
		Files:             len(entries),
	}, nil
}

// Flush writes the FAT to the image.
func (s *Session) Flush() error {
	if err := s.lock(); err != nil {
		return err
	}
	defer s.mu.Unlock()

	return s.table.Flush()
}

// Close flushes the FAT and closes the underlying storage. The storage is
// closed even if flushing fails. Using the session afterwards fails with errno
// EBADFD.
func (s *Session) Close() error {
	if err := s.lock(); err != nil {
		return err
	}
	defer s.mu.Unlock()

	var result error
	if err := s.table.Flush(); err != nil {
		result = multierror.Append(result, err)
	}
	if err := s.storage.Close(); err != nil {
		result = multierror.Append(result, err)
	}
	s.closed = true

	if result != nil {
		return errors.ErrIOFailed.Wrap(result)
	}
	s.logger.Info("closed image")
	return nil
}
