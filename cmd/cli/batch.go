package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"

	"github.com/vareport/vareport/pkg/config"
	"github.com/vareport/vareport/pkg/defaults"
	"github.com/vareport/vareport/pkg/report"
	"github.com/vareport/vareport/pkg/ui"
	"github.com/vareport/vareport/pkg/workerpool"
)

type batchItem struct {
	input string
	res   *report.Result
	err   error
}

// runBatch renders every *.json file in dir on a worker pool and saves
// the artifacts in input order. Two inputs rendering to the same file
// name fail the later one instead of overwriting.
func runBatch(ctx context.Context, e *env, cfg *config.Config, logger *slog.Logger, dir string, workers int) error {
	inputs, err := filepath.Glob(filepath.Join(dir, "*.json"))
	if err != nil {
		return usageError("batch: %v", err)
	}
	if len(inputs) == 0 {
		return usageError("batch: no *.json files in %s", dir)
	}
	sort.Strings(inputs)

	p, err := newPipeline(cfg, logger, true)
	if err != nil {
		return err
	}
	defer closePipeline(p, logger)

	pool := workerpool.New(workers)
	defer pool.Close()

	ui.PrintBanner(e.stderr)
	ui.PrintConfigLine(e.stderr, "Inputs", fmt.Sprintf("%d files", len(inputs)))
	ui.PrintConfigLine(e.stderr, "Workers", fmt.Sprint(pool.Cap()))

	items := workerpool.Map(pool, inputs, func(path string) batchItem {
		data, err := os.ReadFile(path)
		if err != nil {
			return batchItem{input: path, err: err}
		}
		return batchItem{input: path, res: p.gen.Generate(ctx, data)}
	})

	failed := 0
	saved := make(map[string]string, len(items))
	for _, it := range items {
		name := filepath.Base(it.input)
		switch {
		case it.err != nil:
			failed++
			ui.PrintError(e.stderr, fmt.Sprintf("%s: %v", name, it.err))
		case !it.res.Success:
			failed++
			ui.PrintError(e.stderr, fmt.Sprintf("%s: %s", name, it.res.Error))
		case saved[it.res.FileName] != "":
			failed++
			ui.PrintError(e.stderr, fmt.Sprintf("%s: renders to %s like %s; add {{ .ReportID }} to the file name template",
				name, it.res.FileName, saved[it.res.FileName]))
		default:
			path, err := report.SaveArtifact(cfg.Output.Dir, it.res)
			if err != nil {
				failed++
				ui.PrintError(e.stderr, fmt.Sprintf("%s: %v", name, err))
				continue
			}
			saved[it.res.FileName] = name
			ui.PrintSuccess(e.stderr, fmt.Sprintf("%s -> %s (%d pages)", name, path, it.res.Pages))
		}
	}

	if failed > 0 {
		return exitWith(defaults.ExitGenerationFailed, "%d of %d inputs failed", failed, len(items))
	}
	return nil
}
