package container

import (
	"docguard/config"
	app "docguard/internal/application"
	"docguard/internal/domain/port"
	"docguard/internal/infrastructure/imagesource"
	"docguard/internal/infrastructure/metadata"
	"docguard/internal/infrastructure/ocr"
	"docguard/internal/infrastructure/vision"
	"docguard/internal/logger"
)

type Container struct {
	UserService     *app.UserService
	AnalysisService *app.AnalysisService
	Engine          *app.Engine
	Describer       *app.TextDescriber
}

// New собирает движок и сервисы. overrides может быть nil.
func New(cfg *config.Config, userRepo port.UserRepository, overrides app.OverridesSource, log *logger.Logger) *Container {
	locators := make([]port.TextLocalizer, 0, 2)
	if ocr.Enabled {
		locators = append(locators, ocr.NewLocalizer())
	}
	locators = append(locators, vision.NewTextLocator())

	engine := app.NewEngine(app.EngineDeps{
		Detectors: app.Detectors{
			ELA:      vision.NewELADetector(),
			Noise:    vision.NewNoiseDetector(),
			CopyMove: vision.NewCopyMoveDetector(),
			Overlay:  vision.NewOverlayDetector(),
		},
		Locators:  locators,
		Metadata:  metadata.NewAnalyzer(),
		Overrides: overrides,
	}, cfg.Workers, cfg.Seed, log.With("component", "engine"))

	userService := app.NewUserService(userRepo)
	describer := app.NewTextDescriber()
	analysisService := app.NewAnalysisService(
		userService,
		imagesource.NewDecoder(cfg.MaxSide, cfg.MaxPixels),
		engine,
		vision.NewHighlighter(),
		describer,
		cfg.EvalTimeout,
		log.With("component", "analysis"),
	)

	return &Container{
		UserService:     userService,
		AnalysisService: analysisService,
		Engine:          engine,
		Describer:       describer,
	}
}
