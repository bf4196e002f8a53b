// Package batch implements the directory-scanning batch driver: it finds
// every .dat file in an input directory, solves each instance, writes a
// solution file per instance, and isolates per-file failures so one bad
// instance never aborts the run.
package batch

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strconv"
	"strings"
	"time"

	"mcarptif/internal/carp/apsp"
	"mcarptif/internal/carp/catalog"
	"mcarptif/internal/carp/construct"
	"mcarptif/internal/carp/localsearch"
	"mcarptif/internal/carp/model"
	"mcarptif/internal/instance"
	"mcarptif/internal/metrics"
	"mcarptif/internal/solutionio"
	"mcarptif/pkg/apperror"
	"mcarptif/pkg/config"
	"mcarptif/pkg/logger"

	"github.com/google/uuid"
)

// Options configures one batch run.
type Options struct {
	InputDir         string
	OutputDir        string
	OutputFilePrefix string
	CapacityOverride int64
	WorkerPoolSize   int
	VNDMaxIterations int
	Metrics          *metrics.Metrics
}

// OptionsFromConfig builds batch Options from a loaded Config, applying
// the "sol-" default prefix when the config leaves it blank.
func OptionsFromConfig(cfg *config.Config) Options {
	prefix := cfg.Batch.OutputFilePrefix
	if prefix == "" {
		prefix = "sol-"
	}
	return Options{
		InputDir:         cfg.Batch.InputDir,
		OutputDir:        cfg.Batch.OutputDir,
		OutputFilePrefix: prefix,
		CapacityOverride: cfg.Batch.CapacityOverride,
		WorkerPoolSize:   cfg.Batch.WorkerPoolSize,
		VNDMaxIterations: cfg.Batch.VNDMaxIterations,
	}
}

// Summary reports the outcome of a full batch run.
type Summary struct {
	RunID          string
	FilesFound     int
	FilesSucceeded int
	FilesFailed    int
	TotalCost      int64
}

var numericPart = regexp.MustCompile(`\d+`)

// Run scans opts.InputDir for *.dat files, processes each in natural
// numeric filename order, and writes one solution file per instance to
// opts.OutputDir. A missing input directory or an uncreatable output
// directory is a fatal error; a failure processing one file is logged
// and does not stop the run.
func Run(opts Options) (Summary, error) {
	runID := uuid.NewString()
	log := logger.WithRunID(runID)

	summary := Summary{RunID: runID}

	entries, err := os.ReadDir(opts.InputDir)
	if err != nil {
		return summary, apperror.Wrap(err, apperror.CodeIO, "input directory not found").WithField("input_dir")
	}

	if err := os.MkdirAll(opts.OutputDir, 0o755); err != nil {
		return summary, apperror.Wrap(err, apperror.CodeIO, "could not create output directory").WithField("output_dir")
	}

	files := sortedDatFiles(entries)
	summary.FilesFound = len(files)

	log.Info("batch run starting", "input_dir", opts.InputDir, "output_dir", opts.OutputDir, "files_found", len(files))

	for _, name := range files {
		inPath := filepath.Join(opts.InputDir, name)
		outPath := filepath.Join(opts.OutputDir, opts.OutputFilePrefix+name)

		cost, err := processOneFile(opts, inPath, outPath, log)
		if err != nil {
			summary.FilesFailed++
			log.Error("instance processing failed", "instance", name, "error", err.Error())
			if opts.Metrics != nil {
				opts.Metrics.RecordOutcome("failure")
			}
			continue
		}

		summary.FilesSucceeded++
		summary.TotalCost += cost
		if opts.Metrics != nil {
			opts.Metrics.RecordOutcome("success")
		}
	}

	if opts.Metrics != nil {
		opts.Metrics.SetLastBatchTotalCost(summary.TotalCost)
	}

	log.Info("batch run complete", "files_succeeded", summary.FilesSucceeded, "files_failed", summary.FilesFailed)

	return summary, nil
}

// sortedDatFiles filters to *.dat entries and sorts them by the numeric
// portion of the filename; names with no digits sort last, alphabetically
// among themselves. Names with equal numeric keys keep their listing order
// (the sort is stable).
func sortedDatFiles(entries []os.DirEntry) []string {
	var names []string
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		if strings.HasSuffix(e.Name(), ".dat") {
			names = append(names, e.Name())
		}
	}

	sort.SliceStable(names, func(i, j int) bool {
		ni, iok := numericKey(names[i])
		nj, jok := numericKey(names[j])
		if iok && jok {
			return ni < nj
		}
		if iok != jok {
			return iok // numeric names sort before non-numeric
		}
		return names[i] < names[j]
	})

	return names
}

func numericKey(name string) (int64, bool) {
	match := numericPart.FindString(name)
	if match == "" {
		return 0, false
	}
	v, err := strconv.ParseInt(match, 10, 64)
	if err != nil {
		return 0, false
	}
	return v, true
}

// processOneFile runs the full per-instance pipeline: parse, build
// graph/catalog, APSP, construct, VND, write. A panic inside the
// pipeline (an unexpected solver invariant violation) is recovered and
// turned into an *apperror.Error so it never aborts the batch. On success
// it returns the instance's total solution cost.
func processOneFile(opts Options, inPath, outPath string, log *slog.Logger) (totalCost int64, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = apperror.New(apperror.CodeAlgorithm, fmt.Sprintf("panic during solve: %v", r))
		}
	}()

	start := time.Now()

	parseStart := time.Now()
	inst, parseErr := instance.ParseFile(inPath)
	if parseErr != nil {
		return 0, parseErr
	}
	parseMS := time.Since(parseStart)

	depot, capacity := instanceHeader(inst, opts.CapacityOverride)

	g, cat := buildGraphAndCatalog(inst, depot)

	apspStart := time.Now()
	matrix := apsp.Compute(g, opts.WorkerPoolSize)
	apspMS := time.Since(apspStart)
	if opts.Metrics != nil {
		opts.Metrics.ObserveAPSP(filepath.Base(inPath), apspMS)
	}

	constructStart := time.Now()
	result := construct.Build(depot, capacity, cat, matrix)
	constructMS := time.Since(constructStart)
	if opts.Metrics != nil {
		opts.Metrics.ObserveConstruction(filepath.Base(inPath), constructMS)
	}

	if result.Warnings.HasWarnings() {
		log.Warn("instance has uncovered services",
			"instance", filepath.Base(inPath),
			"uncovered_ids", result.Uncovered,
			"reasons", result.Warnings.WarningMessages(),
		)
	}

	vndStart := time.Now()
	lookup := func(id int64) model.Service {
		s, _ := cat.ByID(id)
		return s
	}
	localsearch.VND(depot, capacity, result.Solution, matrix, lookup, opts.VNDMaxIterations, opts.WorkerPoolSize)
	vndMS := time.Since(vndStart)
	if opts.Metrics != nil {
		opts.Metrics.ObserveVND(filepath.Base(inPath), vndMS)
	}

	totalMS := time.Since(start)
	timing := solutionio.Timing{
		TotalExecutionMS: totalMS.Milliseconds(),
		APSPExecutionMS:  apspMS.Milliseconds(),
	}

	if err := solutionio.WriteFile(outPath, result.Solution, timing); err != nil {
		return 0, err
	}

	log.Info("instance processed",
		"instance", filepath.Base(inPath),
		"routes", len(result.Solution.Routes),
		"total_cost", result.Solution.TotalCost(),
		"parse_ms", parseMS.Milliseconds(),
		"apsp_ms", apspMS.Milliseconds(),
		"construct_ms", constructMS.Milliseconds(),
		"vnd_ms", vndMS.Milliseconds(),
	)

	return result.Solution.TotalCost(), nil
}

// instanceHeader extracts the depot node and effective capacity from the
// instance's header metadata, applying a non-zero capacityOverride.
func instanceHeader(inst *instance.Instance, capacityOverride int64) (depot, capacity int64) {
	depot = parseMetaInt(inst.Meta["Depot Node"])
	capacity = parseMetaInt(inst.Meta["Capacity"])
	if capacityOverride > 0 {
		capacity = capacityOverride
	}
	return depot, capacity
}

func parseMetaInt(s string) int64 {
	v, _ := strconv.ParseInt(strings.TrimSpace(s), 10, 64)
	return v
}

// buildGraphAndCatalog converts an instance's raw entity lists into a
// Graph (with every required and optional edge/arc as a traversal step)
// and a Catalog (required nodes, then edges, then arcs, in file order).
func buildGraphAndCatalog(inst *instance.Instance, depot int64) (*model.Graph, *catalog.Catalog) {
	g := model.NewGraph(depot)
	g.EnsureNode(depot)

	b := catalog.NewBuilder()

	for _, n := range inst.RequiredNodes {
		node := nodeNumber(n.Name)
		g.EnsureNode(node)
		b.AddNode(node, n.Demand, n.ServiceCost)
	}

	for _, e := range inst.RequiredEdges {
		g.AddEdge(e.From, e.To, e.TraversalCost)
		b.AddEdge(e.From, e.To, e.Demand, e.ServiceCost)
	}

	for _, a := range inst.RequiredArcs {
		g.AddArc(a.From, a.To, a.TraversalCost)
		b.AddArc(a.From, a.To, a.Demand, a.ServiceCost)
	}

	for _, e := range inst.OptionalEdges {
		g.AddEdge(e.From, e.To, e.TraversalCost)
	}

	for _, a := range inst.OptionalArcs {
		g.AddArc(a.From, a.To, a.TraversalCost)
	}

	return g, b.Build()
}

// nodeNumber strips the leading "N" letter from a required-node's name
// token (e.g. "N3" -> 3), matching the reference reader's convention.
func nodeNumber(name string) int64 {
	trimmed := strings.TrimLeft(name, "Nn")
	v, _ := strconv.ParseInt(trimmed, 10, 64)
	return v
}

