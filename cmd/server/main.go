package main

import (
	"context"
	"fmt"
	"io/fs"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	agenticwebui "github.com/taskdocs/agentic-web-ui"
	"github.com/taskdocs/agentic-web-ui/internal/gateway"
	"github.com/taskdocs/agentic-web-ui/internal/handlers"
	"github.com/taskdocs/agentic-web-ui/internal/services"
	"github.com/taskdocs/agentic-web-ui/internal/session"
	"gopkg.in/yaml.v3"
)

func main() {
	cfgDir, err := os.UserConfigDir()
	if err != nil {
		log.Fatal(fmt.Errorf("error getting user config dir: %w", err))
	}
	cfgPath := filepath.Join(cfgDir, "agenticwebui")
	if err := os.MkdirAll(cfgPath, 0755); err != nil {
		log.Fatal(fmt.Errorf("error creating config directory: %w", err))
	}

	cfg := config{}
	cfgFilePath := filepath.Join(cfgPath, "config.yaml")
	cfgFile, err := os.Open(cfgFilePath)
	if err == nil {
		if err := yaml.NewDecoder(cfgFile).Decode(&cfg); err != nil {
			cfgFile.Close()
			log.Fatal(fmt.Errorf("error decoding config file: %w", err))
		}
		cfgFile.Close()
	} else if !os.IsNotExist(err) {
		log.Fatal(fmt.Errorf("error opening config file: %w", err))
	}
	cfg.applyDefaults()

	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
		Level: cfg.slogLevel(),
	}))

	storePath := filepath.Join(cfgPath, "store.db")
	store, err := services.NewBoltStore(storePath)
	if err != nil {
		log.Fatal(fmt.Errorf("error opening credential store: %w", err))
	}
	defer store.Close()

	gw := gateway.NewClient(cfg.APIBaseURL, store, logger)
	registry := session.NewRegistry(gw)
	sess := session.NewManager(gw, registry, logger)

	m, err := handlers.NewMain(gw, store, registry, sess, logger)
	if err != nil {
		log.Fatal(fmt.Errorf("error creating handlers: %w", err))
	}

	// Serve static files
	staticFS, err := fs.Sub(agenticwebui.StaticFS, "static")
	if err != nil {
		log.Fatal(err)
	}
	fileServer := http.FileServer(http.FS(staticFS))

	mux := http.NewServeMux()
	mux.Handle("/static/", http.StripPrefix("/static/", fileServer))
	mux.HandleFunc("/", m.HandleHome)
	mux.HandleFunc("/login", m.HandleLogin)
	mux.HandleFunc("/register", m.HandleRegister)
	mux.HandleFunc("/logout", m.HandleLogout)
	mux.HandleFunc("/files/select", m.HandleSelect)
	mux.HandleFunc("/files/upload", m.HandleUpload)
	mux.HandleFunc("/files/delete", m.HandleDelete)
	mux.HandleFunc("/ask", m.HandleAsk)
	mux.HandleFunc("/tasks", m.HandleTasks)
	mux.HandleFunc("/tasks/create", m.HandleTaskCreate)
	mux.HandleFunc("/tasks/toggle", m.HandleTaskToggle)
	mux.HandleFunc("/tasks/delete", m.HandleTaskDelete)
	mux.HandleFunc("/sse/session", m.HandleSSE)

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}

	srv.RegisterOnShutdown(func() {
		if err := m.Shutdown(context.Background()); err != nil {
			log.Printf("Failed to shutdown sse server: %v", err)
		}
	})

	// Channel to listen for errors coming from the listener
	serverErrors := make(chan error, 1)

	go func() {
		logger.Info("Server starting", slog.String("port", cfg.Port), slog.String("api", cfg.APIBaseURL))
		serverErrors <- srv.ListenAndServe()
	}()

	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, os.Interrupt, syscall.SIGTERM)

	// Blocking select waiting for either interrupt or server error
	select {
	case err := <-serverErrors:
		log.Printf("Server error: %v", err)

	case sig := <-shutdown:
		log.Printf("Start shutdown, signal: %v", sig)

		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()

		if err := srv.Shutdown(ctx); err != nil {
			log.Printf("Graceful shutdown failed: %v", err)
			if err := srv.Close(); err != nil {
				log.Printf("Forcing server close: %v", err)
			}
		}
	}
}
