package main

import (
	"fmt"
	"log"
	"os"
	"time"

	"github.com/gin-gonic/gin"
	prof "github.com/go-while/go-cpu-mem-profiler"
	"golang.org/x/term"

	"github.com/go-while/go-portfolio/internal/config"
	"github.com/go-while/go-portfolio/internal/web"
)

var Prof *prof.Profiler

// loadConfig reads path when set, applies $PORT on top.
func loadConfig(path string) (*config.MainConfig, error) {
	var (
		cfg *config.MainConfig
		err error
	)
	if path != "" {
		cfg, err = config.LoadConfigFile(path)
		if err != nil {
			return nil, err
		}
	} else {
		cfg = config.NewDefaultConfig()
		log.Printf("[WEB]: No config file given, using defaults")
	}
	if err := cfg.ApplyEnv(); err != nil {
		return nil, fmt.Errorf("error applying environment: %w", err)
	}
	return cfg, nil
}

// applyFlags overrides config values with command-line flags if provided
func applyFlags(cfg *config.MainConfig) {
	webConfig := cfg.Web
	if webport > 0 {
		webConfig.ListenPort = webport
		log.Printf("[WEB]: Overriding listen port with command-line flag: %d", webConfig.ListenPort)
	} else {
		log.Printf("[WEB]: No port flag provided, using: %d", webConfig.ListenPort)
	}
	if webssl {
		webConfig.SSL = true
		log.Printf("[WEB]: SSL enabled via command-line flag")
	}
	if webcertFile != "" {
		webConfig.CertFile = webcertFile
		log.Printf("[WEB]: SSL cert file set: %s", webConfig.CertFile)
	}
	if webkeyFile != "" {
		webConfig.KeyFile = webkeyFile
		log.Printf("[WEB]: SSL key file set: %s", webConfig.KeyFile)
	}
	if storeKind != "" {
		cfg.Store.Backend = storeKind
		log.Printf("[WEB]: Store backend set: %s", storeKind)
	}
	if staticDir != "" {
		webConfig.StaticCandidates = []string{staticDir}
		log.Printf("[WEB]: Asset root set: %s", staticDir)
	}
	if debug {
		webConfig.Debug = true
	}
}

// setupGin selects the gin mode and drops colors when stdout is not a terminal.
func setupGin(debugMode bool) {
	if debugMode {
		gin.SetMode(gin.DebugMode)
	} else {
		gin.SetMode(gin.ReleaseMode)
	}
	if !term.IsTerminal(int(os.Stdout.Fd())) {
		gin.DisableConsoleColor()
	}
}

func startProfiler(addr string) {
	Prof = prof.NewProf()
	go Prof.PprofWeb(addr)
	Prof.StartMemProfile(5*time.Minute, 30*time.Second)
	log.Printf("[WEB]: pprof listening on %s", addr)
}

// findAssets returns nil when no asset root exists, the server then runs in development mode.
func findAssets(webConfig *config.WebConfig) *web.AssetResolver {
	root, ok := web.LocateAssetRoot(webConfig.StaticCandidates, web.DefaultBaseDirs())
	if !ok {
		log.Printf("[WEB]: No frontend build found in %v, running in development mode", webConfig.StaticCandidates)
		return nil
	}
	assets, err := web.NewAssetResolver(root)
	if err != nil {
		log.Printf("[WEB]: Ignoring asset root %s: %v", root, err)
		return nil
	}
	assets.Debug = webConfig.Debug
	log.Printf("[WEB]: Serving frontend from %s", assets.Root)
	return assets
}
