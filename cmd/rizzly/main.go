package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/AmirAgassi/rizzly/internal/ai"
	"github.com/AmirAgassi/rizzly/internal/browser"
	"github.com/AmirAgassi/rizzly/internal/carousel"
	"github.com/AmirAgassi/rizzly/internal/config"
	"github.com/AmirAgassi/rizzly/internal/events"
	"github.com/AmirAgassi/rizzly/internal/gateway"
	"github.com/AmirAgassi/rizzly/internal/httpclient"
	"github.com/AmirAgassi/rizzly/internal/logging"
	"github.com/AmirAgassi/rizzly/internal/monitor"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "rizzly: %v\n", err)
		os.Exit(1)
	}
}

// engine bundles the running subsystems behind the gateway's command surface.
type engine struct {
	page      *browser.Page
	coord     *carousel.Coordinator
	gen       *ai.Generator
	typer     *monitor.Typer
	monitor   *monitor.Monitor
	convo     *monitor.Conversation
	maxImages int
}

func (e *engine) Navigate(ctx context.Context, url string) error {
	return e.page.Navigate(ctx, url)
}

func (e *engine) DownloadAllImages() {
	e.coord.DownloadAll()
}

func (e *engine) CollectProfileImages(ctx context.Context, max int) ([]string, error) {
	return e.coord.Collect(ctx, max)
}

func (e *engine) AnalyzeProfile(ctx context.Context, max int) (ai.Reaction, int, error) {
	images, err := e.coord.Collect(ctx, max)
	if err != nil {
		return ai.Reaction{}, 0, err
	}
	return e.gen.AnalyzeProfile(ctx, images, e.maxImages), len(images), nil
}

func (e *engine) TypeMessage(ctx context.Context, text string) (ai.Reaction, error) {
	return e.typer.Type(ctx, text)
}

func (e *engine) SetConversation(prefs string, turns []string) {
	e.convo.Update(prefs, turns)
}

func (e *engine) MonitoringStatus() monitor.Status {
	return e.monitor.Status()
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	logger := logging.NewComponentLogger("main")

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	bus := events.NewBus(logging.NewComponentLogger("events"))
	defer bus.Close()

	mgr := browser.NewManager(browser.Config{
		CDPURL:      cfg.CDPURL,
		ChromePath:  cfg.ChromePath,
		UserDataDir: cfg.UserDataDir,
		Headless:    cfg.Headless,
		Logger:      logging.NewComponentLogger("browser"),
	})
	defer mgr.Close()

	page, err := mgr.Page()
	if err != nil {
		return fmt.Errorf("open browser: %w", err)
	}

	aiClient := ai.NewClient(ai.Config{
		APIKey:      cfg.APIKey,
		BaseURL:     cfg.BaseURL,
		ChatModel:   cfg.ChatModel,
		VisionModel: cfg.VisionModel,
		Timeout:     cfg.RequestTimeout,
		Logger:      logging.NewComponentLogger("ai"),
	})
	gate := ai.NewRiskGate(aiClient, logging.NewComponentLogger("risk-gate"))
	gen := ai.NewGenerator(aiClient, logging.NewComponentLogger("generator"))

	cache, err := monitor.NewDebounceCache(cfg.CacheSize)
	if err != nil {
		return fmt.Errorf("build debounce cache: %w", err)
	}
	field := monitor.NewField(page, cfg.Selectors.MessageField, logging.NewComponentLogger("field"))
	controller := monitor.NewController(field, gen, bus, cache, monitor.ControllerConfig{
		DeletePause:       cfg.DeletePause,
		MaxDeleteAttempts: cfg.MaxDeleteAttempts,
		CooldownExtension: cfg.CooldownExtension,
		ReleaseBuffer:     cfg.ReleaseBuffer,
	}, logging.NewComponentLogger("intervention"))
	convo := monitor.NewConversation(0)
	mon := monitor.NewMonitor(field, cache, gate, controller, convo, monitor.MonitorConfig{
		Interval:         cfg.MonitorInterval,
		ConversationPath: cfg.ConversationPath,
		MinLength:        cfg.MinMessageLength,
		DebounceWindow:   cfg.DebounceWindow,
	}, logging.NewComponentLogger("monitor"))
	typer := monitor.NewTyper(field, controller, gen, cfg.TypePause, logging.NewComponentLogger("typer"))

	locator := carousel.NewLocator(page, cfg.Selectors, logging.NewComponentLogger("carousel"))
	fetch := httpclient.New(30*time.Second, logging.NewComponentLogger("downloads"))
	coord := carousel.NewCoordinator(ctx, locator, fetch, bus, logging.NewComponentLogger("downloads"), carousel.CoordinatorConfig{
		MaxImages:         cfg.MaxImages,
		AnalysisMaxImages: cfg.AnalysisMaxImages,
		SettleDelay:       cfg.SettleDelay,
		DownloadDir:       cfg.DownloadDir,
	})
	defer coord.Close()

	gw := gateway.NewServer(gateway.Config{ListenAddr: cfg.ListenAddr}, &engine{
		page:      page,
		coord:     coord,
		gen:       gen,
		typer:     typer,
		monitor:   mon,
		convo:     convo,
		maxImages: cfg.AnalysisMaxImages,
	}, bus, logging.NewComponentLogger("gateway"))
	if err := gw.Start(); err != nil {
		return fmt.Errorf("start gateway: %w", err)
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = gw.Close(shutdownCtx)
	}()

	if err := page.Navigate(ctx, cfg.StartURL); err != nil {
		logger.Warn("initial navigation failed: %v", err)
	}

	monitorDone := make(chan struct{})
	go func() {
		defer close(monitorDone)
		mon.Run(ctx)
	}()
	bus.PublishStatus(events.StatusUpdate{Monitoring: true})

	logger.Info("rizzly running, gateway on %s", gw.Addr())
	<-ctx.Done()
	logger.Info("shutting down")
	<-monitorDone
	return nil
}
