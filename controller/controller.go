package controller

import (
	"context"
	"sync"
	"time"

	"github.com/kbukum/assetgraph/dag"
	"github.com/kbukum/assetgraph/errors"
	"github.com/kbukum/assetgraph/graph"
	"github.com/kbukum/assetgraph/logger"
	"github.com/kbukum/assetgraph/observability"
	"github.com/kbukum/assetgraph/operation"
)

// Controller runs graphs. Perform calls are serialized.
type Controller struct {
	registry *operation.Registry
	env      *operation.Env
	log      *logger.Logger
	metrics  *observability.Metrics
	session  *Session

	// perform serializes Perform and Postprocess.
	perform sync.Mutex
	mu      sync.Mutex
	state   State
}

// Option configures a Controller.
type Option func(*Controller)

// WithLogger sets the controller logger.
func WithLogger(l *logger.Logger) Option {
	return func(c *Controller) { c.log = l }
}

// WithMetrics records node visits and perform calls on m.
func WithMetrics(m *observability.Metrics) Option {
	return func(c *Controller) { c.metrics = m }
}

// WithSession shares s between controllers.
func WithSession(s *Session) Option {
	return func(c *Controller) { c.session = s }
}

// New creates a controller dispatching node kinds through registry. env is
// the project context handed to every operation.
func New(registry *operation.Registry, env *operation.Env, opts ...Option) *Controller {
	c := &Controller{
		registry: registry,
		env:      env,
		log:      logger.Get(logger.ComponentController),
		session:  NewSession("default"),
		state:    StateIdle,
	}
	if c.env == nil {
		c.env = &operation.Env{}
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// State returns the state of the last or current Perform call.
func (c *Controller) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// Session returns the controller session.
func (c *Controller) Session() *Session { return c.session }

// Env returns the project context.
func (c *Controller) Env() *operation.Env { return c.env }

func (c *Controller) setState(s State) {
	c.mu.Lock()
	c.state = s
	c.mu.Unlock()
}

// Perform builds g for opts.Target. Node errors are collected on the
// outcome and do not make Perform fail; the returned error is set only for
// an integrity violation or a cancelled context. Setup is skipped on an
// actual run when the session already holds a clean Setup of the same
// graph, target and seeds.
func (c *Controller) Perform(ctx context.Context, g *graph.Graph, opts Options) (*Outcome, error) {
	c.perform.Lock()
	defer c.perform.Unlock()

	start := time.Now()
	target := opts.Target
	if target == "" {
		target = graph.DefaultTarget
	}

	ctx, span := observability.StartSpan(ctx, observability.SpanPerform)
	defer span.End()
	observability.SetSpanAttribute(ctx, observability.AttrTarget, target)

	out := &Outcome{Graph: g, Target: target, State: StateIdle, Seeds: opts.Seeds}
	finish := func(s State, err error) (*Outcome, error) {
		out.State = s
		out.Duration = time.Since(start)
		c.setState(s)
		if err != nil {
			observability.SetSpanError(ctx, err)
		}
		if c.metrics != nil {
			c.metrics.RecordPerform(ctx, target, string(s), out.Duration)
		}
		c.log.Info("perform finished", map[string]interface{}{
			logger.FieldTarget:   target,
			logger.FieldStatus:   string(s),
			logger.FieldCount:    len(out.Errors),
			logger.FieldDuration: out.Duration.Milliseconds(),
		})
		return out, err
	}

	schedule, err := dag.Plan(g)
	if err != nil {
		return finish(StateAbortedBeforeRun, err)
	}
	out.Schedule = schedule

	env := c.projectEnv(g, opts.Seeds)
	key := sessionKey(g.Digest(), target, opts.Seeds)

	if !opts.ActualRun || !c.session.SetupValid(key) {
		c.setState(StatePerformingSetup)
		res, err := c.pass(ctx, schedule, operation.PhaseSetup, target, env, key, opts, out)
		out.Setup = res
		if err != nil {
			c.session.dropSetup(key)
			return finish(terminalState(ctx, StateAbortedBeforeRun), abortErr(ctx, operation.PhaseSetup, err))
		}
		if !out.OK() {
			c.session.dropSetup(key)
			return finish(StateAbortedBeforeRun, nil)
		}
		c.session.markSetup(key)
	} else {
		c.log.Debug("reusing setup", map[string]interface{}{logger.FieldTarget: target})
	}

	if !opts.ActualRun {
		return finish(StateDone, nil)
	}

	c.setState(StatePerformingRun)
	res, err := c.pass(ctx, schedule, operation.PhaseRun, target, env, key, opts, out)
	out.Run = res
	if err != nil {
		return finish(terminalState(ctx, StateDone), abortErr(ctx, operation.PhaseRun, err))
	}
	return finish(StateDone, nil)
}

func (c *Controller) pass(ctx context.Context, s *dag.Schedule, phase operation.Phase, target string, env *operation.Env, key string, opts Options, out *Outcome) (*dag.Result, error) {
	var step dag.Step = &nodeStep{
		controller: c,
		target:     target,
		env:        env,
		key:        key,
		onError: func(err *errors.NodeError) {
			out.Errors = append(out.Errors, err)
			if opts.OnError != nil {
				opts.OnError(err)
			}
		},
	}
	step = dag.WithLogging(step, c.log)
	if c.metrics != nil {
		step = dag.WithMetrics(step, c.metrics)
	}
	step = dag.WithTracing(step, "assetgraph.node")

	progress := newProgress(s.Len(), opts.OnProgress)
	engine := &dag.Engine{
		Phase: phase,
		OnVisited: func(nr dag.NodeResult) {
			progress.visited(s.Graph.FindNode(nr.NodeID))
		},
	}
	return engine.Execute(ctx, s, step)
}

// projectEnv copies the controller env for one call, adding the seeds and
// indexing g's loaders when no index was provided.
func (c *Controller) projectEnv(g *graph.Graph, seeds map[string][]string) *operation.Env {
	env := c.env.WithSeeds(seeds)
	if env.Loaders == nil {
		env.Loaders = graph.IndexLoaders(g)
	}
	return env
}

func terminalState(ctx context.Context, otherwise State) State {
	if ctx.Err() != nil {
		return StateCancelled
	}
	return otherwise
}

func abortErr(ctx context.Context, phase operation.Phase, err error) error {
	if ctx.Err() != nil {
		return errors.Aborted(string(phase), err)
	}
	return err
}
