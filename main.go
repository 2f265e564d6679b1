// Command memorymatch runs the memory match game.
//
// Commands:
//  1. "serve" (default) runs the HTTP server exposing the REST API, the
//     WebSocket display channel and an /mcp HTTP endpoint
//  2. "mcp" runs an MCP stdio server, starting an internal HTTP API when no
//     external one answers
//  3. "play" plays one board in the terminal
//
// Every flag can also be set through the environment or a .env file, and
// ngrok tunneling can expose the server during development.
package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/urfave/cli/v3"
	"golang.ngrok.com/ngrok"
	ngrokConfig "golang.ngrok.com/ngrok/config"

	"github.com/wricardo/mcp-training/memorymatch/api"
	"github.com/wricardo/mcp-training/memorymatch/game/clock"
	"github.com/wricardo/mcp-training/memorymatch/game/config"
	"github.com/wricardo/mcp-training/memorymatch/game/deck"
	"github.com/wricardo/mcp-training/memorymatch/game/engine"
	"github.com/wricardo/mcp-training/memorymatch/game/loop"
	"github.com/wricardo/mcp-training/memorymatch/game/report"
	"github.com/wricardo/mcp-training/memorymatch/game/results"
	"github.com/wricardo/mcp-training/memorymatch/game/service"
	"github.com/wricardo/mcp-training/memorymatch/game/session"
	"github.com/wricardo/mcp-training/memorymatch/transport/mcp"
	"github.com/wricardo/mcp-training/memorymatch/transport/tui"
	"github.com/wricardo/mcp-training/memorymatch/transport/websocket"
)

// Version information
const (
	Version = "1.0.0"
	AppName = "Memory Match Server"
)

// options is the parsed process configuration.
type options struct {
	host        string
	port        int
	configDir   string
	sessionsDir string
	dbPath      string
	logLevel    string
	debug       bool
	sessionTTL  time.Duration
	ngrok       bool
	ngrokAuth   string
	ngrokDomain string
	apiURL      string
	configID    string
}

func (o options) addr() string {
	return fmt.Sprintf("%s:%d", o.host, o.port)
}

func main() {
	// Load .env file if it exists
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		fmt.Fprintf(os.Stderr, "warning: loading .env: %v\n", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := newApp().Run(ctx, os.Args); err != nil {
		log.Fatal().Err(err).Msg("exited")
	}
}

// newApp builds the command tree. Flags live on the root so every command
// shares them.
func newApp() *cli.Command {
	return &cli.Command{
		Name:    "memorymatch",
		Usage:   "memory match game server, MCP bridge and terminal client",
		Version: Version,
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "host", Value: "localhost", Usage: "HTTP server host", Sources: cli.EnvVars("HOST")},
			&cli.IntFlag{Name: "port", Value: 8080, Usage: "HTTP server port", Sources: cli.EnvVars("PORT")},
			&cli.StringFlag{Name: "config-dir", Value: "configs", Usage: "directory containing game configurations", Sources: cli.EnvVars("CONFIG_DIR")},
			&cli.StringFlag{Name: "sessions-dir", Value: "sessions", Usage: "directory for persisted sessions", Sources: cli.EnvVars("SESSIONS_DIR")},
			&cli.StringFlag{Name: "db", Usage: "SQLite leaderboard file (in-memory leaderboard when empty)", Sources: cli.EnvVars("RESULTS_DB")},
			&cli.StringFlag{Name: "log-level", Value: "info", Usage: "trace, debug, info, warn or error", Sources: cli.EnvVars("LOG_LEVEL")},
			&cli.BoolFlag{Name: "debug", Usage: "enable debug logging", Sources: cli.EnvVars("DEBUG")},
			&cli.DurationFlag{Name: "session-ttl", Value: 24 * time.Hour, Usage: "remove sessions idle for longer than this", Sources: cli.EnvVars("SESSION_TTL")},
			&cli.BoolFlag{Name: "ngrok", Usage: "enable ngrok tunnel", Sources: cli.EnvVars("NGROK_ENABLED")},
			&cli.StringFlag{Name: "ngrok-auth", Usage: "ngrok auth token", Sources: cli.EnvVars("NGROK_AUTHTOKEN", "NGROK_AUTH_TOKEN")},
			&cli.StringFlag{Name: "ngrok-domain", Usage: "custom ngrok domain", Sources: cli.EnvVars("NGROK_DOMAIN")},
		},
		Before: func(ctx context.Context, cmd *cli.Command) (context.Context, error) {
			setupLogging(cmd.String("log-level"), cmd.Bool("debug"))
			return ctx, nil
		},
		Action: serveAction,
		Commands: []*cli.Command{
			{
				Name:   "serve",
				Usage:  "run the HTTP server with REST API, WebSocket and MCP endpoint",
				Action: serveAction,
			},
			{
				Name:  "mcp",
				Usage: "run an MCP stdio server backed by the REST API",
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "api-url", Value: "http://localhost:8080", Usage: "REST API to proxy to; an internal one starts if it does not answer", Sources: cli.EnvVars("API_URL")},
				},
				Action: mcpAction,
			},
			{
				Name:  "play",
				Usage: "play a board in the terminal",
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "config", Value: config.DefaultConfigID, Usage: "config ID to play"},
				},
				Action: playAction,
			},
		},
	}
}

func readOptions(cmd *cli.Command) options {
	return options{
		host:        cmd.String("host"),
		port:        cmd.Int("port"),
		configDir:   cmd.String("config-dir"),
		sessionsDir: cmd.String("sessions-dir"),
		dbPath:      cmd.String("db"),
		logLevel:    cmd.String("log-level"),
		debug:       cmd.Bool("debug"),
		sessionTTL:  cmd.Duration("session-ttl"),
		ngrok:       cmd.Bool("ngrok"),
		ngrokAuth:   cmd.String("ngrok-auth"),
		ngrokDomain: cmd.String("ngrok-domain"),
		apiURL:      cmd.String("api-url"),
		configID:    cmd.String("config"),
	}
}

// setupLogging writes human-readable logs to stderr. stdout stays free for
// the MCP stdio transport.
func setupLogging(level string, debug bool) {
	lvl, err := zerolog.ParseLevel(level)
	if err != nil || level == "" {
		lvl = zerolog.InfoLevel
	}
	if debug {
		lvl = zerolog.DebugLevel
	}
	zerolog.SetGlobalLevel(lvl)
	log.Logger = zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.Kitchen}).
		With().Timestamp().Logger()
}

// services holds everything the transports share.
type services struct {
	game        service.GameService
	sessions    *session.Manager
	configs     *config.Manager
	persistence *session.FilePersistence
	results     results.Store
	hub         *websocket.Hub
}

// initializeServices wires config, sessions, results and the game service.
func initializeServices(opts options) (*services, error) {
	configManager, err := config.NewManager(opts.configDir)
	if err != nil {
		return nil, fmt.Errorf("create config manager: %w", err)
	}

	persistence, err := session.NewFilePersistence(opts.sessionsDir, configManager)
	if err != nil {
		return nil, fmt.Errorf("create session persistence: %w", err)
	}

	store, err := openResults(opts.dbPath)
	if err != nil {
		return nil, err
	}

	sessionManager := session.NewManagerWithPersistence(persistence, session.WithLogger(log.Logger))
	hub := websocket.NewHub()

	gameService := service.NewGameService(sessionManager, configManager,
		service.WithReporter(report.New(store)),
		service.WithNotifier(hub),
	)

	// Handlers are in place, so restored sessions report from their first tick
	if err := sessionManager.LoadPersistedSessions(); err != nil {
		log.Warn().Err(err).Msg("failed to load persisted sessions")
	}

	return &services{
		game:        gameService,
		sessions:    sessionManager,
		configs:     configManager,
		persistence: persistence,
		results:     store,
		hub:         hub,
	}, nil
}

func openResults(path string) (results.Store, error) {
	if path == "" {
		return results.NewMemoryStore(), nil
	}
	store, err := results.OpenSQLite(path)
	if err != nil {
		return nil, fmt.Errorf("open results database: %w", err)
	}
	return store, nil
}

// Close saves every session, stops their timers and closes the leaderboard.
func (s *services) Close() {
	if err := s.sessions.SaveAllSessions(); err != nil {
		log.Warn().Err(err).Msg("failed to save sessions")
	}
	s.sessions.Close()
	if err := s.results.Close(); err != nil {
		log.Warn().Err(err).Msg("failed to close results store")
	}
}

// newHandler mounts the API and the /mcp endpoint.
func newHandler(svc *services, mcpClient *mcp.Client) http.Handler {
	apiServer := api.NewServer(svc.game, svc.hub)

	mainRouter := http.NewServeMux()
	mainRouter.Handle("/", apiServer)
	mainRouter.HandleFunc("/mcp", func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
			return
		}

		body, err := io.ReadAll(r.Body)
		if err != nil {
			http.Error(w, "Failed to read request", http.StatusBadRequest)
			return
		}
		defer r.Body.Close()

		response := mcpClient.GetMCPServer().HandleMessage(r.Context(), body)

		w.Header().Set("Content-Type", "application/json")
		responseData, err := json.Marshal(response)
		if err != nil {
			http.Error(w, "Failed to marshal response", http.StatusInternalServerError)
			return
		}
		w.Write(responseData)
	})
	return mainRouter
}

func serveAction(ctx context.Context, cmd *cli.Command) error {
	opts := readOptions(cmd)
	log.Info().Str("version", Version).Str("mode", "serve").Msg("starting " + AppName)

	svc, err := initializeServices(opts)
	if err != nil {
		return err
	}
	defer svc.Close()

	return runHTTPServer(ctx, opts, svc)
}

// runHTTPServer serves until ctx ends. With ngrok enabled the same handler is
// also served through a public tunnel.
func runHTTPServer(ctx context.Context, opts options, svc *services) error {
	go svc.hub.Run(ctx)
	go sessionCleanupRoutine(ctx, svc.sessions, opts.sessionTTL)
	go filesystemSyncRoutine(ctx, svc.sessions, svc.persistence)

	addr := opts.addr()
	handler := newHandler(svc, mcp.NewClient("http://"+addr))

	httpServer := &http.Server{
		Addr:         addr,
		Handler:      handler,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	var wg sync.WaitGroup
	errCh := make(chan error, 1)

	wg.Add(1)
	go func() {
		defer wg.Done()

		log.Info().Str("addr", addr).
			Str("api", "http://"+addr+"/api").
			Str("ws", "ws://"+addr+"/ws?session=<session_id>").
			Str("mcp", "http://"+addr+"/mcp").
			Msg("HTTP server listening")

		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- fmt.Errorf("HTTP server: %w", err)
		}
	}()

	if opts.ngrok {
		wg.Add(1)
		go func() {
			defer wg.Done()
			runNgrok(ctx, opts, handler)
		}()
	}

	select {
	case <-ctx.Done():
		log.Info().Msg("shutting down")
	case err := <-errCh:
		return err
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		log.Warn().Err(err).Msg("HTTP server shutdown error")
	}

	wg.Wait()
	log.Info().Msg("server stopped")
	return nil
}

// runNgrok serves handler through an ngrok tunnel until ctx ends.
func runNgrok(ctx context.Context, opts options, handler http.Handler) {
	if opts.ngrokAuth == "" {
		log.Warn().Msg("ngrok enabled but no auth token provided (use --ngrok-auth or NGROK_AUTHTOKEN)")
		return
	}

	var tunnel ngrokConfig.Tunnel
	if opts.ngrokDomain != "" {
		tunnel = ngrokConfig.HTTPEndpoint(ngrokConfig.WithDomain(opts.ngrokDomain))
	} else {
		tunnel = ngrokConfig.HTTPEndpoint()
	}

	tun, err := ngrok.Listen(ctx, tunnel, ngrok.WithAuthtoken(opts.ngrokAuth))
	if err != nil {
		log.Error().Err(err).Msg("failed to start ngrok tunnel")
		return
	}
	go func() {
		<-ctx.Done()
		if err := tun.Close(); err != nil {
			log.Warn().Err(err).Msg("failed to close ngrok tunnel")
		}
	}()

	log.Info().Str("url", tun.URL()).Msg("ngrok tunnel established")
	if err := http.Serve(tun, handler); err != nil && !errors.Is(err, http.ErrServerClosed) && ctx.Err() == nil {
		log.Error().Err(err).Msg("ngrok server error")
	}
	log.Info().Msg("ngrok tunnel closed")
}

// sessionCleanupRoutine removes sessions idle for longer than ttl.
func sessionCleanupRoutine(ctx context.Context, manager *session.Manager, ttl time.Duration) {
	if ttl <= 0 {
		return
	}
	ticker := time.NewTicker(time.Hour)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if removed := manager.CleanupExpiredSessions(ttl); removed > 0 {
				log.Info().Int("removed", removed).Msg("cleaned up expired sessions")
			}
		}
	}
}

// filesystemSyncRoutine drops sessions from memory whose files were deleted.
func filesystemSyncRoutine(ctx context.Context, manager *session.Manager, persistence session.SessionPersistence) {
	ticker := time.NewTicker(5 * time.Second)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			syncSessions(manager, persistence)
		}
	}
}

func syncSessions(manager *session.Manager, persistence session.SessionPersistence) int {
	pruned := 0
	for _, s := range manager.List() {
		if persistence.Exists(s.ID) {
			continue
		}
		if err := manager.DeleteFromMemory(s.ID); err == nil {
			pruned++
			log.Info().Str("session", s.ID).Msg("pruned session from memory (file deleted)")
		}
	}
	return pruned
}

func mcpAction(ctx context.Context, cmd *cli.Command) error {
	opts := readOptions(cmd)

	baseURL, shutdown, err := resolveAPI(ctx, opts)
	if err != nil {
		return err
	}
	defer shutdown()

	log.Info().Str("api", baseURL).Msg("MCP stdio server ready")
	return mcp.NewClient(baseURL).ServeStdio()
}

// resolveAPI returns opts.apiURL when it answers, otherwise starts an
// internal API on a random loopback port.
func resolveAPI(ctx context.Context, opts options) (string, func(), error) {
	if apiAvailable(ctx, opts.apiURL) {
		log.Info().Str("api", opts.apiURL).Msg("using external API server")
		return opts.apiURL, func() {}, nil
	}

	log.Info().Msg("no external API server found, starting internal HTTP server")
	svc, err := initializeServices(opts)
	if err != nil {
		return "", nil, err
	}

	listener, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		svc.Close()
		return "", nil, fmt.Errorf("listen on loopback: %w", err)
	}
	baseURL := "http://" + listener.Addr().String()

	hubCtx, cancelHub := context.WithCancel(ctx)
	go svc.hub.Run(hubCtx)

	httpServer := &http.Server{Handler: newHandler(svc, mcp.NewClient(baseURL))}
	go func() {
		if err := httpServer.Serve(listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error().Err(err).Msg("internal HTTP server error")
		}
	}()

	shutdown := func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		httpServer.Shutdown(shutdownCtx)
		cancelHub()
		svc.Close()
	}
	return baseURL, shutdown, nil
}

func apiAvailable(ctx context.Context, baseURL string) bool {
	if baseURL == "" {
		return false
	}
	ctx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, baseURL+"/health", nil)
	if err != nil {
		return false
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return false
	}
	resp.Body.Close()
	return resp.StatusCode < 500
}

func playAction(ctx context.Context, cmd *cli.Command) error {
	opts := readOptions(cmd)

	l, cfg, closeGame, err := newLocalGame(opts)
	if err != nil {
		return err
	}
	defer closeGame()

	return tui.Run(ctx, l, cfg)
}

// newLocalGame deals a board on the wall clock and records completed games
// on the leaderboard.
func newLocalGame(opts options) (*loop.Loop, *engine.GameConfig, func(), error) {
	configManager, err := config.NewManager(opts.configDir)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("create config manager: %w", err)
	}
	cfg, err := configManager.LoadConfig(opts.configID)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("load config %s: %w", opts.configID, err)
	}

	dealer, err := deck.NewRandomShuffler()
	if err != nil {
		return nil, nil, nil, err
	}
	eng, err := engine.NewEngine(cfg, dealer)
	if err != nil {
		return nil, nil, nil, err
	}

	store, err := openResults(opts.dbPath)
	if err != nil {
		return nil, nil, nil, err
	}
	reporter := report.New(store)

	l := loop.New(eng, clock.Real(), loop.WithListener(func(u loop.Update) {
		if !u.Outcome.Has(engine.EventGameCompleted) {
			return
		}
		if _, err := reporter.Record(context.Background(), "local", u.State); err != nil {
			log.Warn().Err(err).Msg("failed to record result")
		}
	}))

	closeGame := func() {
		l.Close()
		store.Close()
	}
	return l, cfg, closeGame, nil
}
