package main

import (
	"context"
	"errors"
	"flag"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"remotetodos/internal/config"
	"remotetodos/internal/handler"
	"remotetodos/internal/hub"
	"remotetodos/internal/pool"
	"remotetodos/internal/service"
	"remotetodos/internal/store"
	"remotetodos/internal/watcher"
)

func main() {
	// Command line flags
	configPath := flag.String("config", "", "config file path (default: search $REMOTETODOS_CONFIG, ./remotetodos.yaml, XDG, /etc)")
	addr := flag.String("addr", "", "HTTP listen address (overrides config)")
	dbURL := flag.String("db", "", "backend URL (overrides config and $DATABASE_URL)")
	poolSize := flag.Int("pool-size", 0, "maximum concurrent backend connections (overrides config)")
	writeConfig := flag.String("write-config", "", "write the effective config to this path and exit")
	flag.Parse()

	log.SetFlags(log.LstdFlags | log.Lshortfile)
	log.Println("Starting todo server...")

	cfg, path, err := loadConfig(*configPath)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}
	if path != "" {
		log.Printf("Config loaded: %s", path)
	}

	cfg.ApplyEnv()
	if *addr != "" {
		cfg.Server.Addr = *addr
	}
	if *dbURL != "" {
		cfg.Database.URL = *dbURL
	}
	if *poolSize > 0 {
		cfg.Pool.Size = *poolSize
	}
	log.Printf("Config: %s", cfg.Summary())

	if *writeConfig != "" {
		if err := cfg.Save(*writeConfig); err != nil {
			log.Fatalf("Failed to write config: %v", err)
		}
		log.Printf("Config written: %s", *writeConfig)
		return
	}

	// Open backend
	dialer, err := store.Open(cfg.Database.URL, cfg.StoreOptions())
	if err != nil {
		log.Fatalf("Failed to open backend: %v", err)
	}
	connPool := pool.New(dialer, cfg.PoolOptions())
	defer connPool.Close()

	pingCtx, pingCancel := context.WithTimeout(context.Background(), cfg.Database.DialTimeout.Duration())
	if err := connPool.Ping(pingCtx); err != nil {
		// Requests fail with 502 until the backend comes up.
		log.Printf("Warning: backend %s not reachable: %v", store.Redact(cfg.Database.URL), err)
	}
	pingCancel()

	// Initialize event bus and SSE hub
	eventBus := service.NewEventBus()
	sseHub := hub.New()
	hubCtx, hubCancel := context.WithCancel(context.Background())
	go sseHub.Run(hubCtx)

	// Connect event bus to SSE hub
	eventChan := make(chan service.Event, 100)
	eventBus.Subscribe(eventChan)
	go func() {
		for event := range eventChan {
			sseHub.Broadcast(hub.Message{Event: string(event.Type), Data: event.Payload})
		}
	}()

	// Initialize services and handlers
	todoSvc := service.NewTodoService(connPool, cfg.Database.Key, eventBus)
	todoSvc.SetDeleteMode(cfg.DeleteMode())
	todoHandler := handler.NewTodoHandler(todoSvc)

	// Reload runtime settings when the config file changes
	watchCtx, watchCancel := context.WithCancel(context.Background())
	defer watchCancel()
	if path != "" {
		w := watcher.New(path, func() { reloadConfig(path, todoSvc) })
		go func() {
			if err := w.Watch(watchCtx); err != nil && !errors.Is(err, context.Canceled) {
				log.Printf("Config watcher stopped: %v", err)
			}
		}()
	}

	// Setup routes
	mux := http.NewServeMux()
	todoHandler.Register(mux)
	mux.Handle("GET /events", sseHub)

	// Apply middleware
	finalHandler := handler.Chain(mux,
		handler.Recover,
		handler.CORS,
		handler.Logger,
	)

	server := &http.Server{
		Addr:         cfg.Server.Addr,
		Handler:      finalHandler,
		ReadTimeout:  cfg.Server.ReadTimeout.Duration(),
		WriteTimeout: cfg.Server.WriteTimeout.Duration(),
		IdleTimeout:  cfg.Server.IdleTimeout.Duration(),
	}

	// Shutdown waits for active requests; SSE streams end only when the hub stops
	server.RegisterOnShutdown(hubCancel)

	go func() {
		log.Printf("Server listening on %s", cfg.Server.Addr)
		if err := server.ListenAndServe(); err != http.ErrServerClosed {
			log.Fatalf("Server error: %v", err)
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Println("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout.Duration())
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		log.Printf("Server shutdown error: %v", err)
	}
	hubCancel()
	watchCancel()

	log.Println("Server stopped")
}

// loadConfig reads the config at path, or searches the default locations
func loadConfig(path string) (*config.Config, string, error) {
	if path != "" {
		return config.LoadFromPath(path)
	}
	return config.Load()
}

// reloadConfig applies the settings that can change without a restart.
// Everything else in the file is read only at startup.
func reloadConfig(path string, todoSvc *service.TodoService) {
	cfg, _, err := config.LoadFromPath(path)
	if err != nil {
		log.Printf("Failed to reload config, keeping current settings: %v", err)
		return
	}
	if mode := cfg.DeleteMode(); mode != todoSvc.DeleteMode() {
		todoSvc.SetDeleteMode(mode)
		log.Printf("Delete mode changed to %s", mode)
	}
}
