package app

import (
	"context"
	"encoding/binary"
	"encoding/hex"
	"fmt"
	"image"
	"sort"
	"time"

	"golang.org/x/crypto/blake2b"
	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/semaphore"

	"docguard/internal/domain/decision"
	"docguard/internal/domain/entity"
	"docguard/internal/domain/policy"
	"docguard/internal/domain/port"
	"docguard/internal/logger"
)

// OverridesSource отдаёт актуальные переопределения политик (policy.Store).
type OverridesSource interface {
	Overrides() *policy.Overrides
}

// Detectors набор детекторов движка. Незаданный детектор даёт недоступный результат.
type Detectors struct {
	ELA      port.Detector[entity.ELAMetrics]
	Noise    port.Detector[entity.NoiseMetrics]
	CopyMove port.Detector[entity.CopyMoveMetrics]
	Overlay  port.Detector[entity.OverlayMetrics]
}

// EngineDeps зависимости движка.
type EngineDeps struct {
	Detectors Detectors
	// Locators пробуются по порядку, если в контексте нет готовых областей.
	Locators  []port.TextLocalizer
	Metadata  port.MetadataAnalyzer
	Overrides OverridesSource
}

// Engine запускает детекторы параллельно и сводит их результаты в вердикт.
// Один движок обслуживает все запросы процесса; число одновременно работающих
// детекторов ограничено семафором.
type Engine struct {
	deps EngineDeps
	seed uint64
	sem  *semaphore.Weighted
	log  *logger.Logger
}

// NewEngine создаёт движок с пулом на workers детекторов.
func NewEngine(deps EngineDeps, workers int, seed uint64, log *logger.Logger) *Engine {
	if workers < 1 {
		workers = 1
	}
	if log == nil {
		log = logger.Nop()
	}
	return &Engine{
		deps: deps,
		seed: seed,
		sem:  semaphore.NewWeighted(int64(workers)),
		log:  log,
	}
}

// Evaluate оценивает одно изображение. Ошибка возвращается только для
// некорректного входа или отменённого контекста; сбои отдельных детекторов
// попадают в отчёт как недоступные результаты.
func (e *Engine) Evaluate(ctx context.Context, buf *entity.PixelBuffer, ectx entity.EvaluationContext) (*entity.Verdict, error) {
	if err := buf.Validate(); err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	started := time.Now()

	var overrides *policy.Overrides
	if e.deps.Overrides != nil {
		overrides = e.deps.Overrides.Overrides()
	}
	profile, warnings := policy.Resolve(ectx, overrides, e.seed)

	fp := Fingerprint(buf)
	ctx = context.WithValue(ctx, logger.ContextKeyEvaluationID, fp[:16])
	log := e.log.WithContext(ctx).With("policy", string(profile.Name))
	for _, w := range warnings {
		log.Warn("policy fallback", "warning", w)
	}

	regions, regionWarnings := e.textRegions(ctx, buf, ectx)
	warnings = append(warnings, regionWarnings...)

	req := port.DetectRequest{
		Buffer:      buf,
		Thresholds:  profile.Thresholds,
		TextRegions: regions,
	}

	var report entity.Report
	g, gctx := errgroup.WithContext(ctx)
	runDetector(gctx, g, e.sem, e.deps.Detectors.ELA, req, &report.ELA)
	runDetector(gctx, g, e.sem, e.deps.Detectors.Noise, req, &report.Noise)
	runDetector(gctx, g, e.sem, e.deps.Detectors.CopyMove, req, &report.CopyMove)
	runDetector(gctx, g, e.sem, e.deps.Detectors.Overlay, req, &report.Overlay)

	switch {
	case e.deps.Metadata == nil:
		report.Metadata = entity.Unavailable[entity.MetadataMetrics]("detector not configured")
	case len(ectx.Raw) == 0:
		report.Metadata = entity.Unavailable[entity.MetadataMetrics]("no source bytes")
	default:
		g.Go(func() error {
			defer func() {
				if r := recover(); r != nil {
					report.Metadata = entity.Unavailable[entity.MetadataMetrics](fmt.Sprintf("detector panic: %v", r))
				}
			}()
			report.Metadata = e.deps.Metadata.Analyze(gctx, ectx.Raw, ectx.Format)
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("evaluate: %w", err)
	}
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("evaluate: %w", err)
	}

	unavailable := report.Unavailable()
	names := make([]string, 0, len(unavailable))
	for name := range unavailable {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		log.Debug("detector unavailable", "detector", name, "reason", unavailable[name])
		warnings = append(warnings, fmt.Sprintf("%s unavailable: %s", name, unavailable[name]))
	}

	out := decision.Decide(report, profile)
	verdict := &entity.Verdict{
		Score:       out.Score,
		Tier:        out.Tier,
		Policy:      string(profile.Name),
		Evidence:    out.Evidence,
		Fingerprint: fp,
		Width:       buf.Width,
		Height:      buf.Height,
		Detectors:   report,
		Warnings:    warnings,
	}

	log.Info("evaluation finished",
		"tier", verdict.Tier.String(),
		"score", verdict.Score,
		"evidence", len(verdict.Evidence),
		"unavailable", len(unavailable),
		"duration", time.Since(started))
	return verdict, nil
}

// runDetector запускает детектор в группе, дождавшись свободного места в пуле.
// Паника детектора превращается в недоступный результат.
func runDetector[M any](ctx context.Context, g *errgroup.Group, sem *semaphore.Weighted, d port.Detector[M], req port.DetectRequest, dst *entity.Result[M]) {
	if d == nil {
		*dst = entity.Unavailable[M]("detector not configured")
		return
	}
	g.Go(func() error {
		if err := sem.Acquire(ctx, 1); err != nil {
			return err
		}
		defer sem.Release(1)
		*dst = safeDetect(ctx, d, req)
		return nil
	})
}

func safeDetect[M any](ctx context.Context, d port.Detector[M], req port.DetectRequest) (res entity.Result[M]) {
	defer func() {
		if r := recover(); r != nil {
			res = entity.Unavailable[M](fmt.Sprintf("detector panic: %v", r))
		}
	}()
	return d.Detect(ctx, req)
}

// textRegions области текста: объявленные в контексте, иначе первый
// сработавший локализатор. Области обрезаются по границам изображения.
func (e *Engine) textRegions(ctx context.Context, buf *entity.PixelBuffer, ectx entity.EvaluationContext) ([]entity.TextRegion, []string) {
	bounds := image.Rect(0, 0, buf.Width, buf.Height)
	if len(ectx.DeclaredTextRegions) > 0 {
		return clipRegions(ectx.DeclaredTextRegions, bounds, entity.RegionSourceDeclared), nil
	}

	var warnings []string
	for _, loc := range e.deps.Locators {
		boxes, err := e.locate(ctx, loc, buf)
		if err != nil {
			warnings = append(warnings, fmt.Sprintf("text localizer %s: %v", loc.Source(), err))
			continue
		}
		if regions := clipRegions(boxes, bounds, loc.Source()); len(regions) > 0 {
			return regions, warnings
		}
	}
	return nil, warnings
}

func (e *Engine) locate(ctx context.Context, loc port.TextLocalizer, buf *entity.PixelBuffer) (boxes []image.Rectangle, err error) {
	if err := e.sem.Acquire(ctx, 1); err != nil {
		return nil, err
	}
	defer e.sem.Release(1)
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("localizer panic: %v", r)
		}
	}()
	return loc.Locate(ctx, buf)
}

func clipRegions(boxes []image.Rectangle, bounds image.Rectangle, source string) []entity.TextRegion {
	out := make([]entity.TextRegion, 0, len(boxes))
	for _, b := range boxes {
		r := b.Canon().Intersect(bounds)
		if r.Empty() {
			continue
		}
		out = append(out, entity.TextRegion{Box: r, Source: source})
	}
	return out
}

// Fingerprint BLAKE2b-256 пикселей и размеров буфера в hex.
func Fingerprint(buf *entity.PixelBuffer) string {
	h, _ := blake2b.New256(nil)
	var hdr [12]byte
	binary.LittleEndian.PutUint32(hdr[0:], uint32(buf.Width))
	binary.LittleEndian.PutUint32(hdr[4:], uint32(buf.Height))
	binary.LittleEndian.PutUint32(hdr[8:], uint32(buf.Channels))
	h.Write(hdr[:])
	h.Write(buf.Pix)
	return hex.EncodeToString(h.Sum(nil))
}
