package nodes

import (
	"context"
	"os"
	"path/filepath"
	"strings"

	"github.com/kbukum/assetgraph/errors"
	"github.com/kbukum/assetgraph/graph"
	"github.com/kbukum/assetgraph/logger"
	"github.com/kbukum/assetgraph/operation"
	"github.com/kbukum/assetgraph/util"
)

// Exporter copies incoming assets below its export directory, keeping their
// project-relative paths. It emits nothing.
type Exporter struct{}

func (e Exporter) Setup(ctx context.Context, req *operation.Request, emit operation.Emit) error {
	dir, opt, err := e.destination(req)
	if err != nil {
		return err
	}
	if opt == graph.ExportErrorIfMissing && !util.DirExists(dir) {
		return errors.NodeConfig(req.Node.ID, "Directory to export not found: %s", dir)
	}
	return nil
}

func (e Exporter) Run(ctx context.Context, req *operation.Request, emit operation.Emit) error {
	dir, opt, err := e.destination(req)
	if err != nil {
		return err
	}

	switch opt {
	case graph.ExportErrorIfMissing:
		if !util.DirExists(dir) {
			return errors.NodeRuntime(req.Node.ID, "Directory to export not found: %s", dir)
		}
	case graph.ExportCreateIfMissing:
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return errors.NodeRuntime(req.Node.ID, "failed to create %s", dir).WithCause(err)
		}
	case graph.ExportDeleteAndRecreate:
		if err := os.RemoveAll(dir); err != nil {
			return errors.NodeRuntime(req.Node.ID, "failed to delete %s", dir).WithCause(err)
		}
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return errors.NodeRuntime(req.Node.ID, "failed to create %s", dir).WithCause(err)
		}
	}

	var failed []string
	copied, skipped := 0, 0
	for _, a := range req.Merged().Flatten() {
		dst := filepath.Join(dir, filepath.FromSlash(a.Path()))
		if req.InputsUnchanged && opt != graph.ExportDeleteAndRecreate {
			if _, err := os.Stat(dst); err == nil {
				skipped++
				continue
			}
		}
		if err := util.CopyFile(a.AbsPath(), dst); err != nil {
			failed = append(failed, a.Path()+": "+err.Error())
			continue
		}
		copied++
	}

	req.Logger().Info("assets exported", map[string]interface{}{
		logger.FieldPath:  dir,
		logger.FieldCount: copied,
		"skipped":         skipped,
	})
	if len(failed) > 0 {
		return errors.NodeRuntime(req.Node.ID, "Failed to export files:\n%s", strings.Join(failed, "\n"))
	}
	return nil
}

func (Exporter) destination(req *operation.Request) (string, graph.ExportOption, error) {
	cfg, err := configOf[*graph.ExporterConfig](req)
	if err != nil {
		return "", 0, err
	}
	p := cfg.ExportPath.Get(req.Target)
	if p == "" {
		return "", 0, errors.NodeConfig(req.Node.ID, "Export path is empty.")
	}
	return ExportDir(req.Env, p), cfg.Option.Get(req.Target), nil
}

// ExportDir resolves an Exporter path. Relative paths are placed under the
// export root when env has one, otherwise under the project root.
func ExportDir(env *operation.Env, p string) string {
	switch {
	case filepath.IsAbs(p):
		return filepath.Clean(p)
	case env.ExportRoot != "":
		return filepath.Join(env.Abs(env.ExportRoot), filepath.FromSlash(p))
	}
	return env.Abs(p)
}
