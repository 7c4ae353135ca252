// Package web provides the HTTP server for go-portfolio
package web

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-contrib/secure"
	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"golang.org/x/crypto/acme/autocert"

	"github.com/go-while/go-portfolio/internal/config"
	"github.com/go-while/go-portfolio/internal/database"
)

const (
	HeaderRequestID  = "X-Request-ID"
	HeaderAppVersion = "X-App-Version"
)

// WebServer represents the web server
type WebServer struct {
	Store     database.ItemStore
	Router    *gin.Engine
	Config    *config.WebConfig
	Assets    *AssetResolver // nil in development mode
	StartTime time.Time      // Track server start time for uptime calculations

	metrics     *serverMetrics
	metricsPath string

	mux         sync.Mutex
	httpServer  *http.Server
	challengeSv *http.Server // plain HTTP listener for ACME challenges
}

// NewServer creates a new web server instance.
// assets may be nil, the server then runs in development mode.
func NewServer(store database.ItemStore, cfg *config.MainConfig, assets *AssetResolver) *WebServer {
	webconfig := cfg.Web

	router := gin.New()
	router.HandleMethodNotAllowed = true

	// Configure Gin to trust reverse proxy headers
	if err := router.SetTrustedProxies(webconfig.TrustedProxies); err != nil {
		log.Printf("[WEB]: Warning: invalid trusted proxies %v: %v", webconfig.TrustedProxies, err)
	}

	server := &WebServer{
		Store:  store,
		Router: router,
		Config: webconfig,
		Assets: assets,
	}

	if v, ok := binding.Validator.Engine().(*validator.Validate); ok {
		v.RegisterTagNameFunc(jsonFieldName)
	}

	router.Use(gin.CustomRecovery(server.recoveryHandler))
	router.Use(server.RequestIDMiddleware())
	router.Use(server.ApacheLogFormat())

	// Configure security headers based on SSL setup
	secureConfig := secure.Config{
		FrameDeny:          true,
		ContentTypeNosniff: true,
		BrowserXssFilter:   true,
		ReferrerPolicy:     "strict-origin-when-cross-origin",
	}
	// Only add SSL-specific headers if SSL is enabled on the application itself
	// (not when running behind a reverse proxy like nginx with SSL)
	if webconfig.SSL {
		secureConfig.SSLRedirect = true
		secureConfig.STSSeconds = 31536000
		secureConfig.STSIncludeSubdomains = true
	}
	router.Use(secure.New(secureConfig))
	router.Use(cors.New(corsConfig(webconfig.CORSOrigins)))

	if cfg.Metrics.Enabled {
		server.metrics = newServerMetrics(store)
		server.metricsPath = cfg.Metrics.Path
		router.Use(server.metrics.Middleware())
	}

	server.setupRoutes()

	server.httpServer = &http.Server{
		Addr:              ":" + strconv.Itoa(webconfig.ListenPort),
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
		IdleTimeout:       120 * time.Second,
	}
	return server
}

// corsConfig permits every origin when origins contains "*".
// Origins are reflected rather than answered with a wildcard so that
// credentialed requests keep working. Not suitable for production as-is.
func corsConfig(origins []string) cors.Config {
	cfg := cors.Config{
		AllowMethods: []string{"GET", "POST", "PUT", "PATCH", "DELETE", "HEAD", "OPTIONS"},
		AllowHeaders: []string{"Origin", "Content-Type", "Content-Length", "Accept", "Accept-Encoding",
			"Accept-Language", "Authorization", "Cache-Control", "X-Requested-With", HeaderRequestID},
		ExposeHeaders:    []string{HeaderRequestID, HeaderAppVersion},
		AllowCredentials: true,
		MaxAge:           10 * time.Minute,
	}
	for _, o := range origins {
		if o == "*" {
			cfg.AllowOriginFunc = func(origin string) bool { return true }
			return cfg
		}
	}
	cfg.AllowOrigins = origins
	return cfg
}

// setupRoutes configures all HTTP routes
func (s *WebServer) setupRoutes() {
	// Bundled assets first, served byte-exact
	if s.Assets != nil {
		if dir, ok := s.Assets.AssetDir(); ok {
			s.Router.Static(AssetPrefix, dir)
			log.Printf("[WEB]: Mounted %s from %s", AssetPrefix, dir)
		}
	}

	if s.metrics != nil {
		s.Router.GET(s.metricsPath, gin.WrapH(s.metrics.Handler()))
	}

	api := s.Router.Group(APIPrefix)
	{
		api.GET("/health", s.healthCheck)
		api.GET("/items", s.listItems)
		api.POST("/items", s.createItem)
		api.GET("/items/:item_id", s.getItem)
		api.DELETE("/items/:item_id", s.deleteItem)
	}

	if s.Assets != nil {
		s.Router.GET("/", s.rootDocument)
	} else {
		s.Router.GET("/", s.developmentWelcome)
	}

	s.Router.NoRoute(s.notFoundOrAsset)
	s.Router.NoMethod(func(c *gin.Context) {
		c.JSON(http.StatusMethodNotAllowed, detail("Method Not Allowed"))
	})
}

// Start starts the web server and blocks until it stops.
// Returns http.ErrServerClosed after Shutdown.
func (s *WebServer) Start() error {
	s.mux.Lock()
	s.StartTime = time.Now() // Set the start time for uptime calculations
	srv := s.httpServer
	s.mux.Unlock()
	addr := srv.Addr

	switch {
	case len(s.Config.AutoCertDomains) > 0:
		certManager := &autocert.Manager{
			Prompt:     autocert.AcceptTOS,
			HostPolicy: autocert.HostWhitelist(s.Config.AutoCertDomains...),
			Cache:      autocert.DirCache(s.Config.AutoCertCacheDir),
			Email:      s.Config.AutoCertEmail,
		}
		srv.Addr = ":443"
		srv.TLSConfig = certManager.TLSConfig()

		challenge := &http.Server{
			Addr:              ":80",
			Handler:           certManager.HTTPHandler(nil),
			ReadHeaderTimeout: 10 * time.Second,
		}
		s.mux.Lock()
		s.challengeSv = challenge
		s.mux.Unlock()
		go func() {
			log.Printf("[WEB]: Starting HTTP server on :80 for ACME challenges and redirects")
			if err := challenge.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				log.Printf("[WEB]: HTTP server for ACME challenges failed: %v", err)
			}
		}()
		log.Printf("[WEB]: Starting HTTPS server on :443 for %s", strings.Join(s.Config.AutoCertDomains, ", "))
		return srv.ListenAndServeTLS("", "")

	case s.Config.SSL:
		if s.Config.CertFile == "" || s.Config.KeyFile == "" {
			return errors.New("SSL enabled but cert_file or key_file not specified in config")
		}
		log.Printf("[WEB]: Starting HTTPS server on %s", addr)
		return srv.ListenAndServeTLS(s.Config.CertFile, s.Config.KeyFile)

	default:
		log.Printf("[WEB]: Starting HTTP server on %s", addr)
		return srv.ListenAndServe()
	}
}

// Shutdown gracefully stops the listeners started by Start.
func (s *WebServer) Shutdown(ctx context.Context) error {
	s.mux.Lock()
	srv, challenge := s.httpServer, s.challengeSv
	s.mux.Unlock()

	if challenge != nil {
		if err := challenge.Shutdown(ctx); err != nil {
			log.Printf("[WEB]: Error stopping ACME challenge server: %v", err)
		}
	}
	if err := srv.Shutdown(ctx); err != nil {
		return fmt.Errorf("graceful shutdown failed: %w", err)
	}
	return nil
}

// RequestIDMiddleware tags every request with an id, reusing a sane
// incoming X-Request-ID.
func (s *WebServer) RequestIDMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.GetHeader(HeaderRequestID)
		if id == "" || len(id) > 64 {
			id = uuid.NewString()
		}
		c.Request.Header.Set(HeaderRequestID, id)
		c.Header(HeaderRequestID, id)
		c.Header(HeaderAppVersion, config.AppVersion)
		c.Next()
	}
}

func (s *WebServer) ApacheLogFormat() gin.HandlerFunc {
	return gin.LoggerWithFormatter(func(param gin.LogFormatterParams) string {
		return fmt.Sprintf(`%s - - [%s] "%s %s %s" %d %d "%s" "%s" rid=%s`+"\n",
			param.ClientIP,
			param.TimeStamp.Format("02/Jan/2006:15:04:05 -0700"),
			param.Method,
			param.Path,
			param.Request.Proto,
			param.StatusCode,
			param.BodySize,
			param.Request.Referer(),
			param.Request.UserAgent(),
			param.Request.Header.Get(HeaderRequestID),
		)
	})
}

func (s *WebServer) recoveryHandler(c *gin.Context, recovered any) {
	log.Printf("[WEB]: panic serving %s %s: %v", c.Request.Method, c.Request.URL.Path, recovered)
	c.AbortWithStatusJSON(http.StatusInternalServerError, detail("Internal Server Error"))
}
