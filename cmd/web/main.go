// Portfolio API web server
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
	"time"

	"github.com/go-while/go-portfolio/internal/config"
	"github.com/go-while/go-portfolio/internal/database"
	"github.com/go-while/go-portfolio/internal/web"
)

var (
	// command-line flags
	configFile  string
	webport     int
	webssl      bool
	webcertFile string
	webkeyFile  string
	storeKind   string
	staticDir   string
	debug       bool
	pprofAddr   string
)

var appVersion = "-unset-"

func main() {
	if appVersion != "-unset-" {
		config.AppVersion = appVersion
	}

	flag.StringVar(&configFile, "config", "", "YAML config file (optional, defaults are used without it)")
	flag.IntVar(&webport, "webport", 0, "Web server port (default: $PORT or 8080)")
	flag.BoolVar(&webssl, "webssl", false, "Enable SSL")
	flag.StringVar(&webcertFile, "websslcert", "", "SSL certificate file (/path/to/fullchain.pem)")
	flag.StringVar(&webkeyFile, "websslkey", "", "SSL key file (/path/to/privkey.pem)")
	flag.StringVar(&storeKind, "store", "", "Item store backend: memory or sqlite-memory (default: memory)")
	flag.StringVar(&staticDir, "static", "", "Asset root with the pre-built frontend (default: search ../static, static, frontend/build)")
	flag.BoolVar(&debug, "debug", false, "Enable gin debug mode and verbose logging")
	flag.StringVar(&pprofAddr, "pprof", "", "Serve pprof and write periodic memory profiles, e.g. :51111 (default: off)")
	flag.Parse()

	log.Printf("Starting %s (version: %s)", config.AppTitle, config.AppVersion)

	mainConfig, err := loadConfig(configFile)
	if err != nil {
		log.Fatalf("[WEB]: %v", err)
	}
	applyFlags(mainConfig)
	if err := mainConfig.Validate(); err != nil {
		log.Fatalf("[WEB]: Invalid configuration: %v", err)
	}
	webConfig := mainConfig.Web
	log.Printf("[WEB]: Using WEB configuration: %#v", webConfig)

	setupGin(webConfig.Debug)

	if pprofAddr != "" {
		startProfiler(pprofAddr)
	}

	store, err := database.OpenItemStore(mainConfig.Store)
	if err != nil {
		log.Fatalf("[WEB]: Failed to open item store: %v", err)
	}
	log.Printf("[WEB]: Item store ready (backend: %s)", mainConfig.Store.Backend)

	assets := findAssets(webConfig)

	server := web.NewServer(store, mainConfig, assets)

	// Set up signal handling for graceful shutdown
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	log.Printf("[WEB]: Starting web server...")

	webServerErrChan := make(chan error, 1)
	go func() {
		if err := server.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			webServerErrChan <- err
		}
	}()

	log.Printf("[WEB]: Server started successfully. Press Ctrl+C to gracefully shutdown...")

	select {
	case <-sigChan:
		log.Printf("[WEB]: Received shutdown signal, initiating graceful shutdown...")
	case err := <-webServerErrChan:
		store.Close()
		log.Fatalf("[WEB]: Failed to start web server: %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(ctx); err != nil {
		log.Printf("[WEB]: Error during web server shutdown: %v", err)
	}

	if err := store.Close(); err != nil {
		log.Printf("[WEB]: Failed to close item store: %v", err)
	} else {
		log.Printf("[WEB]: Item store closed")
	}

	log.Printf("[WEB]: Graceful shutdown completed")
} // end main
