package store

import (
	"context"
	"os"
	"sync"
	"time"

	"github.com/kbukum/assetgraph/errors"
	"github.com/kbukum/assetgraph/graph"
	"github.com/kbukum/assetgraph/logger"
	"github.com/kbukum/assetgraph/util"
	"github.com/kbukum/assetgraph/validation"
)

const nodeKindTag = "nodekind"

var (
	registerOnce sync.Once
	registerErr  error
)

// registerValidations adds the record validation tags once per process and
// returns the registration error on every call.
func registerValidations() error {
	registerOnce.Do(func() {
		registerErr = registerKindTag(validation.RegisterValidation)
	})
	return registerErr
}

func registerKindTag(register func(tag string, fn func(string) bool) error) error {
	err := register(nodeKindTag, func(v string) bool {
		_, err := graph.ParseKind(v)
		return err == nil
	})
	if err != nil {
		return errors.Internal(err).WithDetail("tag", nodeKindTag)
	}
	return nil
}

// Store reads and writes the graph document and the loader registry. A
// single process is assumed to write them.
type Store struct {
	graphPath  string
	loaderPath string
	log        *logger.Logger

	mu sync.Mutex
}

// Option configures a Store.
type Option func(*Store)

// WithLogger sets the store logger.
func WithLogger(l *logger.Logger) Option {
	return func(s *Store) { s.log = l }
}

// New creates a store for the graph document at graphPath and the loader
// registry at loaderPath.
func New(graphPath, loaderPath string, opts ...Option) *Store {
	s := &Store{
		graphPath:  graphPath,
		loaderPath: loaderPath,
		log:        logger.Get(logger.ComponentStore),
	}
	for _, opt := range opts {
		opt(s)
	}
	if err := registerValidations(); err != nil {
		s.log.WithError(err).Error("record validation unavailable", map[string]interface{}{"tag": nodeKindTag})
	}
	return s
}

// GraphPath returns the graph document path.
func (s *Store) GraphPath() string { return s.graphPath }

// LoaderPath returns the loader registry path.
func (s *Store) LoaderPath() string { return s.loaderPath }

// LoadGraph reads the graph document. A missing document is created empty.
// A document that needs healing is healed, saved and read again; the report
// tells what was changed.
func (s *Store) LoadGraph(ctx context.Context) (*graph.Graph, graph.Report, error) {
	if err := ctx.Err(); err != nil {
		return nil, graph.Report{}, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, err := os.Stat(s.graphPath); os.IsNotExist(err) {
		g := graph.New()
		if err := s.saveGraph(g); err != nil {
			return nil, graph.Report{}, err
		}
		s.log.Info("created empty graph", map[string]interface{}{logger.FieldPath: s.graphPath})
		return g, graph.Report{}, nil
	}

	g, err := s.readGraph()
	if err != nil {
		return nil, graph.Report{}, err
	}
	report := g.Validate()
	if !report.Changed {
		return g, report, nil
	}

	s.log.Warn("graph healed", map[string]interface{}{
		logger.FieldPath: s.graphPath,
		"removed_nodes":  len(report.RemovedNodes),
		"removed_conns":  len(report.RemovedConnections),
		"warnings":       report.Warnings,
	})
	if err := s.saveGraph(g); err != nil {
		return nil, report, err
	}
	g, err = s.readGraph()
	return g, report, err
}

// SaveGraph stamps g and writes it together with the loader registry
// derived from it.
func (s *Store) SaveGraph(ctx context.Context, g *graph.Graph) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.saveGraph(g)
}

func (s *Store) saveGraph(g *graph.Graph) error {
	g.LastModified = time.Now().UTC()
	if err := s.write(s.graphPath, ToRecord(g)); err != nil {
		return err
	}
	if s.loaderPath == "" {
		return nil
	}
	return s.write(s.loaderPath, LoadersToRecord(graph.IndexLoaders(g)))
}

func (s *Store) readGraph() (*graph.Graph, error) {
	var r GraphRecord
	if err := s.read(s.graphPath, &r); err != nil {
		return nil, err
	}
	g, err := FromRecord(r)
	if err != nil {
		return nil, errors.Persistence(s.graphPath, err)
	}
	return g, nil
}

// LoadLoaders reads the loader registry. A missing registry is created
// empty.
func (s *Store) LoadLoaders(ctx context.Context) (*graph.LoaderIndex, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, err := os.Stat(s.loaderPath); os.IsNotExist(err) {
		idx := &graph.LoaderIndex{}
		if err := s.write(s.loaderPath, LoadersToRecord(idx)); err != nil {
			return nil, err
		}
		return idx, nil
	}
	var r LoadersRecord
	if err := s.read(s.loaderPath, &r); err != nil {
		return nil, err
	}
	return LoadersFromRecord(r), nil
}

// SaveLoaders writes the loader registry.
func (s *Store) SaveLoaders(ctx context.Context, idx *graph.LoaderIndex) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.write(s.loaderPath, LoadersToRecord(idx))
}

// read decodes and validates the document at path into v.
func (s *Store) read(path string, v any) error {
	if err := registerValidations(); err != nil {
		return err
	}
	codec, err := CodecFor(path)
	if err != nil {
		return err
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return errors.Persistence(path, err)
	}
	if err := codec.Unmarshal(data, v); err != nil {
		return errors.Persistence(path, err)
	}
	if err := validation.Validate(v); err != nil {
		if appErr, ok := errors.AsAppError(err); ok {
			return appErr.WithDetail("path", path)
		}
		return err
	}
	if c, ok := v.(checker); ok {
		if appErr := c.check().Validate(); appErr != nil {
			return appErr.WithDetail("path", path)
		}
	}
	return nil
}

func (s *Store) write(path string, v any) error {
	codec, err := CodecFor(path)
	if err != nil {
		return err
	}
	data, err := codec.Marshal(v)
	if err != nil {
		return errors.Persistence(path, err)
	}
	if err := util.WriteFileAtomic(path, data, 0o644); err != nil {
		return errors.Persistence(path, err)
	}
	s.log.Debug("settings written", map[string]interface{}{logger.FieldPath: path})
	return nil
}
