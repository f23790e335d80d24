package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"strings"

	"gopkg.in/cheggaaa/pb.v1"

	"docguard/config"
	app "docguard/internal/application"
	"docguard/internal/container"
	"docguard/internal/domain/entity"
	"docguard/internal/domain/policy"
	"docguard/internal/infrastructure/storage"
	"docguard/internal/logger"
)

type options struct {
	file         string
	dir          string
	policy       string
	policyFile   string
	screenshot   bool
	whatsapp     bool
	dpi          int
	seed         uint64
	asJSON       bool
	elaOut       string
	highlightOut string
	failOn       string
}

// fileResult результат одного файла для вывода.
type fileResult struct {
	File    string          `json:"file"`
	Verdict *entity.Verdict `json:"verdict,omitempty"`
	Error   string          `json:"error,omitempty"`
}

func main() {
	var opt options
	flag.StringVar(&opt.file, "file", "", "Path to a single image")
	flag.StringVar(&opt.dir, "dir", "", "Path to a directory of images")
	flag.StringVar(&opt.policy, "policy", "", "Policy: strict, balanced, lenient (default from FORENSIC_POLICY)")
	flag.StringVar(&opt.policyFile, "policy-file", "", "Policy overrides file (TOML, YAML or JSON)")
	flag.BoolVar(&opt.screenshot, "screenshot", false, "Images are screenshots")
	flag.BoolVar(&opt.whatsapp, "whatsapp", false, "Images were recompressed by a messenger")
	flag.IntVar(&opt.dpi, "dpi", 0, "Scan resolution, 0 if unknown")
	flag.Uint64Var(&opt.seed, "seed", 0, "Sampling seed, 0 for FORENSIC_SEED")
	flag.BoolVar(&opt.asJSON, "json", false, "Print verdicts as JSON")
	flag.StringVar(&opt.elaOut, "ela-out", "", "Directory to write ELA maps as PNG")
	flag.StringVar(&opt.highlightOut, "highlight-out", "", "Directory to write highlighted suspicious regions as JPEG")
	flag.StringVar(&opt.failOn, "fail-on", "", "Exit with status 3 if any tier is at least this (LOW, MEDIUM, HIGH, PRIORITY)")
	flag.Parse()

	if opt.file == "" && opt.dir == "" {
		fmt.Println("Usage:")
		fmt.Println("  inspect -file <image>")
		fmt.Println("  inspect -dir <directory>")
		flag.PrintDefaults()
		os.Exit(1)
	}

	code, err := run(opt)
	if err != nil {
		printError("%v", err)
		os.Exit(1)
	}
	os.Exit(code)
}

func run(opt options) (int, error) {
	cfg, err := config.Load()
	if err != nil {
		return 0, err
	}
	if opt.policy != "" {
		cfg.Policy = opt.policy
	}
	if opt.policyFile != "" {
		cfg.PolicyFile = opt.policyFile
	}
	cfg.WatchPolicy = false
	if err := cfg.Validate(); err != nil {
		return 0, err
	}

	var failOn entity.Tier
	if opt.failOn != "" {
		if err := failOn.UnmarshalText([]byte(opt.failOn)); err != nil {
			return 0, err
		}
	}

	for _, dir := range []string{opt.elaOut, opt.highlightOut} {
		if dir == "" {
			continue
		}
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return 0, fmt.Errorf("create output directory: %w", err)
		}
	}

	// журнал в stderr, чтобы не мешать JSON в stdout
	log := logger.NewWithWriter(cfg.LogLevel, os.Stderr)
	if cfg.LogLevel == "info" {
		log = logger.NewWithWriter("warn", os.Stderr)
	}

	store := policy.NewStore(cfg.PolicyFile)
	if err := store.Load(); err != nil {
		return 0, fmt.Errorf("load policy file: %w", err)
	}
	c := container.New(cfg, storage.NewMemoryUserRepository(), store, log)

	ectx := entity.EvaluationContext{
		Policy:         cfg.Policy,
		IsScreenshot:   opt.screenshot,
		IsWhatsAppLike: opt.whatsapp,
		DPI:            opt.dpi,
		Seed:           opt.seed,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	var files []string
	if opt.file != "" {
		files = append(files, opt.file)
	}
	if opt.dir != "" {
		found, err := gatherImages(opt.dir)
		if err != nil {
			return 0, err
		}
		if !opt.asJSON {
			printInfo("Found %d images in %s", len(found), opt.dir)
		}
		files = append(files, found...)
	}

	var bar *pb.ProgressBar
	if len(files) > 1 {
		bar = pb.New(len(files))
		bar.Output = os.Stderr
		bar.ShowTimeLeft = true
		bar.Start()
	}

	results := make([]fileResult, 0, len(files))
	for _, path := range files {
		if ctx.Err() != nil {
			break
		}
		res := analyzeFile(ctx, c.AnalysisService, path, ectx, opt)
		results = append(results, res)
		if bar != nil {
			bar.Increment()
		}
	}
	if bar != nil {
		bar.Finish()
	}

	if opt.asJSON {
		if err := writeJSON(os.Stdout, results, opt.file != "" && opt.dir == ""); err != nil {
			return 0, err
		}
	} else {
		for _, res := range results {
			printResult(res)
		}
		if len(results) > 1 {
			printSummary(results)
		}
	}

	if ctx.Err() != nil {
		return 130, nil
	}
	if opt.failOn != "" && anyAtLeast(results, failOn) {
		return 3, nil
	}
	for _, res := range results {
		if res.Error != "" {
			return 2, nil
		}
	}
	return 0, nil
}

func analyzeFile(ctx context.Context, svc *app.AnalysisService, path string, ectx entity.EvaluationContext, opt options) fileResult {
	res := fileResult{File: path}

	data, err := os.ReadFile(path)
	if err != nil {
		res.Error = err.Error()
		return res
	}

	out, err := svc.AnalyzeBytes(ctx, data, ectx)
	if err != nil {
		res.Error = err.Error()
		return res
	}
	res.Verdict = out.Verdict

	base := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	if opt.elaOut != "" {
		if m, ok := out.Verdict.Detectors.ELA.Metrics(); ok && m.Map != nil {
			if err := writeELA(filepath.Join(opt.elaOut, base+".ela.png"), m.Map); err != nil {
				printWarning("ELA map for %s: %v", path, err)
			}
		}
	}
	if opt.highlightOut != "" && len(out.Highlighted) > 0 {
		if err := os.WriteFile(filepath.Join(opt.highlightOut, base+".highlight.jpg"), out.Highlighted, 0o644); err != nil {
			printWarning("highlight for %s: %v", path, err)
		}
	}
	return res
}

func writeJSON(w io.Writer, results []fileResult, single bool) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if single && len(results) == 1 {
		return enc.Encode(results[0])
	}
	return enc.Encode(results)
}

func anyAtLeast(results []fileResult, tier entity.Tier) bool {
	for _, res := range results {
		if res.Verdict != nil && res.Verdict.Tier >= tier {
			return true
		}
	}
	return false
}
