package web

import (
	"fmt"
	"log"
	"net/http"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/gin-gonic/gin"
	"golang.org/x/text/unicode/norm"

	"github.com/go-while/go-portfolio/internal/config"
	"github.com/go-while/go-portfolio/internal/models"
)

const (
	APIPrefix    = "/api"
	AssetPrefix  = "/static" // bundled JS/CSS, served by the static mount
	RootDocument = "index.html"
)

// ResolveKind tells how a path was resolved
type ResolveKind int

const (
	ResolveNotFound ResolveKind = iota
	ResolveFile
	ResolveRootDocument
)

func (k ResolveKind) String() string {
	switch k {
	case ResolveFile:
		return "file"
	case ResolveRootDocument:
		return "root-document"
	default:
		return "not-found"
	}
}

// Resolution is the outcome of AssetResolver.Resolve
type Resolution struct {
	Kind ResolveKind
	Path string // filesystem path, empty for ResolveNotFound
	Rule string // name of the rule that decided
}

// AssetResolver maps non-API request paths onto a pre-built single page app.
type AssetResolver struct {
	Root  string // absolute asset root
	Debug bool
}

// resolveRule returns ok=false to pass the path on to the next rule.
type resolveRule struct {
	name  string
	apply func(r *AssetResolver, p string) (Resolution, bool)
}

// resolveRules run in order, the first rule that decides wins.
var resolveRules = []resolveRule{
	{"root", (*AssetResolver).ruleRoot},
	{"api-prefix", (*AssetResolver).ruleAPIPrefix},
	{"asset-prefix", (*AssetResolver).ruleAssetPrefix},
	{"file", (*AssetResolver).ruleFile},
	{"root-document", (*AssetResolver).ruleRootDocument},
}

// NewAssetResolver returns a resolver for the directory root.
func NewAssetResolver(root string) (*AssetResolver, error) {
	abs, err := filepath.Abs(root)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve asset root %s: %w", root, err)
	}
	st, err := os.Stat(abs)
	if err != nil {
		return nil, fmt.Errorf("asset root unavailable: %w", err)
	}
	if !st.IsDir() {
		return nil, fmt.Errorf("asset root %s is not a directory", abs)
	}
	return &AssetResolver{Root: abs}, nil
}

// LocateAssetRoot returns the first existing candidate directory.
// Relative candidates are tried against every base dir in order,
// absolute candidates as they are.
func LocateAssetRoot(candidates []string, baseDirs []string) (string, bool) {
	for _, base := range baseDirs {
		for _, cand := range candidates {
			dir := cand
			if !filepath.IsAbs(dir) {
				dir = filepath.Join(base, cand)
			}
			if isDir(dir) {
				return filepath.Clean(dir), true
			}
		}
	}
	// absolute candidates need no base dir
	for _, cand := range candidates {
		if filepath.IsAbs(cand) && isDir(cand) {
			return filepath.Clean(cand), true
		}
	}
	return "", false
}

// DefaultBaseDirs returns the executable's directory followed by the working directory.
func DefaultBaseDirs() []string {
	var dirs []string
	if exe, err := os.Executable(); err == nil {
		if resolved, err := filepath.EvalSymlinks(exe); err == nil {
			exe = resolved
		}
		dirs = append(dirs, filepath.Dir(exe))
	}
	if wd, err := os.Getwd(); err == nil {
		dirs = append(dirs, wd)
	}
	return dirs
}

// AssetDir returns the bundled assets directory if present.
func (r *AssetResolver) AssetDir() (string, bool) {
	dir := filepath.Join(r.Root, strings.TrimPrefix(AssetPrefix, "/"))
	return dir, isDir(dir)
}

// Resolve decides how request path p is answered.
func (r *AssetResolver) Resolve(p string) Resolution {
	for _, rule := range resolveRules {
		if res, ok := rule.apply(r, p); ok {
			res.Rule = rule.name
			if r.Debug {
				log.Printf("[WEB]: resolve %q -> %s (%s)", p, res.Kind, rule.name)
			}
			return res
		}
	}
	return Resolution{Kind: ResolveNotFound, Rule: "none"}
}

// ruleRoot short-cuts "/" to the root document, skipping the file lookup.
func (r *AssetResolver) ruleRoot(p string) (Resolution, bool) {
	if p != "/" && p != "" {
		return Resolution{}, false
	}
	if res, ok := r.ruleRootDocument(p); ok {
		return res, true
	}
	return Resolution{Kind: ResolveNotFound}, true
}

func (r *AssetResolver) ruleAPIPrefix(p string) (Resolution, bool) {
	return Resolution{Kind: ResolveNotFound}, hasPathPrefix(p, APIPrefix)
}

// ruleAssetPrefix keeps misses under the static mount from falling back to the root document.
func (r *AssetResolver) ruleAssetPrefix(p string) (Resolution, bool) {
	return Resolution{Kind: ResolveNotFound}, hasPathPrefix(p, AssetPrefix)
}

func (r *AssetResolver) ruleFile(p string) (Resolution, bool) {
	rel := strings.TrimPrefix(path.Clean("/"+p), "/")
	if rel == "" {
		return Resolution{}, false
	}
	if full, ok := r.regularFile(rel); ok {
		return Resolution{Kind: ResolveFile, Path: full}, true
	}
	// assets built on some systems carry decomposed file names
	if nfc := norm.NFC.String(rel); nfc != rel {
		if full, ok := r.regularFile(nfc); ok {
			return Resolution{Kind: ResolveFile, Path: full}, true
		}
	}
	return Resolution{}, false
}

func (r *AssetResolver) ruleRootDocument(p string) (Resolution, bool) {
	full := filepath.Join(r.Root, RootDocument)
	if !isRegularFile(full) {
		return Resolution{}, false
	}
	return Resolution{Kind: ResolveRootDocument, Path: full}, true
}

// regularFile joins a cleaned slash path onto the root and confirms it stays inside.
func (r *AssetResolver) regularFile(rel string) (string, bool) {
	full := filepath.Join(r.Root, filepath.FromSlash(rel))
	if full != r.Root && !strings.HasPrefix(full, r.Root+string(filepath.Separator)) {
		return "", false
	}
	return full, isRegularFile(full)
}

// hasPathPrefix matches whole path segments: "/api" and "/api/x" but not "/apiary".
func hasPathPrefix(p, prefix string) bool {
	return p == prefix || strings.HasPrefix(p, prefix+"/")
}

func isDir(p string) bool {
	st, err := os.Stat(p)
	return err == nil && st.IsDir()
}

func isRegularFile(p string) bool {
	st, err := os.Stat(p)
	return err == nil && st.Mode().IsRegular()
}

// rootDocument serves GET / when an asset root is present.
func (s *WebServer) rootDocument(c *gin.Context) {
	s.serveResolution(c, s.Assets.Resolve("/"))
}

// developmentWelcome serves GET / when no asset root was found.
func (s *WebServer) developmentWelcome(c *gin.Context) {
	c.JSON(http.StatusOK, models.WelcomeResponse{
		Message: "Welcome to " + config.AppTitle,
		Mode:    "development",
	})
}

// notFoundOrAsset handles every request no route matched.
func (s *WebServer) notFoundOrAsset(c *gin.Context) {
	p := c.Request.URL.Path
	if hasPathPrefix(p, APIPrefix) {
		c.JSON(http.StatusNotFound, detail("Not Found"))
		return
	}
	if c.Request.Method != http.MethodGet && c.Request.Method != http.MethodHead {
		c.JSON(http.StatusMethodNotAllowed, detail("Method Not Allowed"))
		return
	}
	if s.Assets == nil {
		c.JSON(http.StatusNotFound, detail("Not Found"))
		return
	}
	s.serveResolution(c, s.Assets.Resolve(p))
}

func (s *WebServer) serveResolution(c *gin.Context, res Resolution) {
	switch res.Kind {
	case ResolveFile, ResolveRootDocument:
		c.File(res.Path)
	default:
		c.JSON(http.StatusNotFound, detail("Not found"))
	}
}
