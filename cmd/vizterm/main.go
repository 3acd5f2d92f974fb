package main

import (
	"flag"
	"fmt"
	"os"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/x/term"
	"go.uber.org/zap"

	"github.com/aaronlmathis/vizstream/internal/config"
	"github.com/aaronlmathis/vizstream/internal/logging"
	"github.com/aaronlmathis/vizstream/internal/perf"
	"github.com/aaronlmathis/vizstream/internal/render"
	"github.com/aaronlmathis/vizstream/internal/stream"
	"github.com/aaronlmathis/vizstream/internal/timeseries"
	"github.com/aaronlmathis/vizstream/internal/tui"
	"github.com/aaronlmathis/vizstream/internal/version"
)

func main() {
	configPath := flag.String("config", "", "Path to a YAML config file (environment variables take precedence)")
	serverURL := flag.String("server", "", "Data server base URL (overrides config)")
	transport := flag.String("transport", "", "Stream transport: sse or ws (overrides config)")
	logFile := flag.String("log-file", "", "Write logs to this file (the terminal is reserved for the dashboard)")
	showVersion := flag.Bool("version", false, "Print version information and exit")
	flag.Parse()

	if *showVersion {
		fmt.Println(version.Get().String())
		return
	}

	cfg, err := config.LoadFromFile(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		os.Exit(1)
	}
	if *serverURL != "" {
		cfg.Client.ServerURL = *serverURL
	}
	if *transport != "" {
		cfg.Client.Transport = *transport
	}
	if *logFile != "" {
		cfg.Logging.File = *logFile
	}

	if err := cfg.Validate(); err != nil {
		fmt.Fprintf(os.Stderr, "Invalid configuration: %v\n", err)
		os.Exit(1)
	}

	if !term.IsTerminal(os.Stdout.Fd()) {
		fmt.Fprintln(os.Stderr, "vizterm needs an interactive terminal")
		os.Exit(1)
	}

	logger, err := logging.New(logging.Options{
		Level:  cfg.Logging.Level,
		Format: cfg.Logging.Format,
		File:   cfg.Logging.File,
		Quiet:  true,
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	logger.Info("Starting vizstream dashboard",
		zap.String("version", version.Version),
		zap.String("server", cfg.Client.ServerURL),
		zap.String("transport", cfg.Client.Transport),
		zap.Int("capacity", cfg.Window.Capacity))

	window := timeseries.NewWindow(cfg.Window.Capacity)
	ctrl := stream.NewController(cfg.StreamControllerConfig(), window, logger.Named("stream"))

	var memory perf.MemoryReader
	if cfg.Monitor.ReportMemory {
		memory = perf.RuntimeMemory
	}

	renderer := render.NewRenderer()
	renderer.DecimationBudget = cfg.Render.DecimationBudget

	m := tui.New(tui.Options{
		Config:     cfg,
		Controller: ctrl,
		Monitor:    perf.NewMonitor(time.Now(), memory),
		Renderer:   renderer,
		Logger:     logger,
	})
	defer m.Close()

	p := tea.NewProgram(m, tea.WithAltScreen())
	m.Attach(p.Send)

	if _, err := p.Run(); err != nil {
		logger.Error("Dashboard exited with error", zap.Error(err))
		fmt.Fprintf(os.Stderr, "vizterm: %v\n", err)
		os.Exit(1)
	}
}
