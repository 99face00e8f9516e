package container

import (
	"net/http"

	"go-lingualens/internal/config"
	"go-lingualens/internal/detection"
	"go-lingualens/internal/logger"
	"go-lingualens/internal/observer"
	"go-lingualens/internal/ocr"
	"go-lingualens/internal/pipeline"
	"go-lingualens/internal/repository"
	"go-lingualens/internal/service"
	"go-lingualens/internal/storage"
	"go-lingualens/internal/transport"
)

// Container holds all application dependencies
type Container struct {
	config           *config.Config
	store            storage.ImageStore
	analysisPipeline *pipeline.Pipeline
	analysisService  service.AnalysisService
	metrics          *observer.MetricsObserver
	handler          http.Handler
}

// NewContainer builds the dependency graph. The cloud classifier and the
// analysis database are optional capabilities: absence of their
// configuration disables them without failing startup.
func NewContainer(cfg *config.Config) (*Container, error) {
	store, err := storage.NewLocalImageStore(cfg.UploadDir, cfg.MaxUploadSize)
	if err != nil {
		return nil, err
	}

	// OCR engines
	primary := ocr.NewTesseractEngine(cfg.TessdataPrefix)
	var secondary ocr.Engine
	if cmd := ocr.NewCommandEngine(cfg.SecondaryOCRBinary); cmd != nil {
		secondary = cmd
	}
	runner := ocr.NewRunner(primary, secondary, primary, cfg.OCRTimeout)
	prober := detection.NewTextPresenceDetector(primary, cfg.OCRLanguages, cfg.OCRTimeout)

	// Object detection chain
	var cloud detection.Classifier
	if cfg.VisionConfigured() {
		cloud = detection.NewCloudVisionClient(cfg.VisionEndpoint, cfg.VisionAPIKey, cfg.VisionTimeout, cfg.VisionMinConfidence)
	} else {
		logger.Info("Cloud vision credential not configured, detection will use heuristics only")
	}
	orchestrator := detection.NewOrchestrator(
		cloud,
		detection.NewColorHeuristicAnalyzer(),
		detection.NewShapeHeuristicAnalyzer(),
	)

	analysisPipeline := pipeline.New(prober, runner, orchestrator, cfg.OCRLanguages, cfg.OCRMaxVariants)

	// Persistence is optional
	var repo repository.AnalysisRepository
	if cfg.PersistenceConfigured() {
		mysqlRepo, err := repository.NewMySQLAnalysisRepository(cfg.DatabaseDSN)
		if err != nil {
			return nil, err
		}
		repo = mysqlRepo
	} else {
		logger.Warn("DATABASE_DSN not configured, analysis records will not be persisted")
	}

	// Event observers
	metrics := observer.NewMetricsObserver()
	events := observer.NewEventPublisher()
	events.Subscribe(observer.NewLoggingObserver(logger.Logger))
	events.Subscribe(metrics)

	analysisService := service.NewAnalysisService(store, analysisPipeline, repo, events, cfg.OCRLanguages, cfg.PersistenceTimeout)
	handler := transport.NewHandler(analysisService, metrics, cfg)

	return &Container{
		config:           cfg,
		store:            store,
		analysisPipeline: analysisPipeline,
		analysisService:  analysisService,
		metrics:          metrics,
		handler:          handler,
	}, nil
}

// Handler returns the HTTP handler
func (c *Container) Handler() http.Handler {
	return c.handler
}

// Config returns the configuration
func (c *Container) Config() *config.Config {
	return c.config
}
