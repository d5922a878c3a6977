package main

import (
	"context"
	"fmt"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/kbukum/assetgraph/config"
	"github.com/kbukum/assetgraph/controller"
	"github.com/kbukum/assetgraph/importer"
	"github.com/kbukum/assetgraph/logger"
	"github.com/kbukum/assetgraph/nodes"
	"github.com/kbukum/assetgraph/observability"
	"github.com/kbukum/assetgraph/operation"
	"github.com/kbukum/assetgraph/store"
	"github.com/kbukum/assetgraph/version"
)

const shutdownTimeout = 10 * time.Second

// globalFlags are shared by every command.
type globalFlags struct {
	configFile string
	envFile    string
	project    string
	target     string
}

// app holds the wired components of one CLI invocation.
type app struct {
	cfg      *config.Config
	log      *logger.Logger
	store    *store.Store
	ctrl     *controller.Controller
	importer *importer.Importer
	onStop   []observability.ShutdownFunc
}

// newApp loads the configuration and wires the store, the controller and
// the importer. Flags override configured values.
func newApp(ctx context.Context, flags *globalFlags) (*app, error) {
	cfg := &config.Config{}
	var opts []config.LoaderOption
	if flags.configFile != "" {
		opts = append(opts, config.WithConfigFile(flags.configFile))
	}
	if flags.envFile != "" {
		opts = append(opts, config.WithEnvFile(flags.envFile))
	}
	if err := config.LoadConfig(config.DefaultServiceName, cfg, opts...); err != nil {
		return nil, err
	}
	if flags.project != "" {
		cfg.Project.Root = flags.project
	}
	if flags.target != "" {
		cfg.Build.Target = flags.target
	}
	cfg.ApplyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	root, err := filepath.Abs(cfg.Project.Root)
	if err != nil {
		return nil, fmt.Errorf("resolving project root: %w", err)
	}
	cfg.Project.Root = root

	logger.Init(cfg.Logging)
	logger.RegisterDefaults()
	a := &app{cfg: cfg, log: logger.GetGlobalLogger()}

	cfg.Tracing.ServiceVersion = version.Version
	shutdownTracer, err := observability.InitTracer(ctx, cfg.Tracing, a.log)
	if err != nil {
		return nil, err
	}
	a.onStop = append(a.onStop, shutdownTracer)

	var ctrlOpts []controller.Option
	cfg.Metrics.ServiceVersion = version.Version
	shutdownMeter, err := observability.InitMeter(ctx, cfg.Metrics, a.log)
	if err != nil {
		a.stop()
		return nil, err
	}
	a.onStop = append(a.onStop, shutdownMeter)
	if cfg.Metrics.Enabled {
		m, err := observability.NewMetrics(observability.Meter(config.DefaultServiceName))
		if err != nil {
			a.stop()
			return nil, err
		}
		ctrlOpts = append(ctrlOpts, controller.WithMetrics(m))
	}

	env := &operation.Env{
		ProjectRoot: root,
		SettingsDir: cfg.Project.SettingsPath(),
		CacheDir:    cfg.Project.CachePath(),
		ExportRoot:  cfg.Build.ExportRoot,
		Plugins:     nodes.NewPlugins(),
	}
	a.store = store.New(cfg.Project.GraphPath(), cfg.Project.LoaderPath())
	a.ctrl = controller.New(nodes.NewRegistry(), env, ctrlOpts...)
	a.importer = importer.New(a.store, a.ctrl, importer.WithTarget(cfg.Build.Target))

	a.log.Debug("application wired", map[string]interface{}{
		"project":          root,
		logger.FieldTarget: cfg.Build.Target,
		"version":          version.Get().Short(),
		"release":          version.Get().IsRelease(),
	})
	return a, nil
}

// runTask runs task with a context cancelled on SIGINT or SIGTERM, then
// stops the app.
func (a *app) runTask(ctx context.Context, task func(ctx context.Context) error) error {
	taskCtx, cancel := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	taskErr := task(taskCtx)
	if err := a.stop(); err != nil && taskErr == nil {
		return err
	}
	return taskErr
}

// stop flushes telemetry.
func (a *app) stop() error {
	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	var firstErr error
	for i := len(a.onStop) - 1; i >= 0; i-- {
		if err := a.onStop[i](ctx); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	a.onStop = nil
	return firstErr
}

// exitError reports that a command ran but found problems. Its message has
// already been printed.
type exitError struct{ code int }

func (e exitError) Error() string { return fmt.Sprintf("exit status %d", e.code) }
