// Package sandbox implements the app server side of the bridge for local
// development and tests. It serves every call route under /api over a
// remotefs, dialogs and appctl backend, and static files everywhere else.
package sandbox

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/localapp/appbridge_go/internal/telemetry"
	"github.com/localapp/appbridge_go/internal/wire"
	"github.com/localapp/appbridge_go/pkg/appctl"
	"github.com/localapp/appbridge_go/pkg/bridge"
	"github.com/localapp/appbridge_go/pkg/dialogs"
	"github.com/localapp/appbridge_go/pkg/remotefs"
)

// MetricsPath serves the Prometheus registry when Config.Registry is set.
const MetricsPath = "/metrics"

const maxFormMemory = 32 << 20

var errMissingArgs = errors.New("missing args")

// Config wires the backends and middleware of a sandbox handler.
type Config struct {
	FS      remotefs.Backend
	Dialogs dialogs.Backend
	App     appctl.Backend

	// StaticRoot is served for every path outside /api. Empty disables it.
	StaticRoot string

	Logger   *zap.Logger
	Registry *prometheus.Registry

	Latency   time.Duration
	Fail      FailConfig
	RateLimit float64 // requests per second, 0 disables
	Burst     int
}

type server struct {
	fs      remotefs.Backend
	dialogs dialogs.Backend
	app     appctl.Backend
	logger  *zap.Logger
}

// NewHandler builds the sandbox HTTP handler.
func NewHandler(cfg Config) (http.Handler, error) {
	if cfg.FS == nil {
		return nil, errors.New("sandbox: filesystem backend is required")
	}
	if cfg.Dialogs == nil {
		cfg.Dialogs = dialogs.Cancel
	}
	if cfg.App == nil {
		cfg.App = &appctl.Recorder{}
	}
	if cfg.Logger == nil {
		cfg.Logger = zap.NewNop()
	}
	s := &server{fs: cfg.FS, dialogs: cfg.Dialogs, app: cfg.App, logger: cfg.Logger}

	engine := gin.New()
	engine.Use(gin.Recovery(), requestID(), accessLog(cfg.Logger))
	if cfg.Registry != nil {
		engine.Use(observe(telemetry.NewServerMetrics(cfg.Registry)))
		engine.GET(MetricsPath, gin.WrapH(promhttp.HandlerFor(cfg.Registry, promhttp.HandlerOpts{})))
	}

	api := engine.Group(bridge.APIRoot)
	if cfg.Latency > 0 {
		api.Use(latency(cfg.Latency))
	}
	if cfg.Fail.Rate > 0 {
		api.Use(injectFailures(cfg.Fail))
	}
	if cfg.RateLimit > 0 {
		api.Use(rateLimit(cfg.RateLimit, cfg.Burst))
	}

	api.GET(remotefs.RouteReadText, s.readText)
	api.GET(remotefs.RouteReadBinary, s.readBinary)
	api.GET(remotefs.RouteReadFolder, s.readFolder)
	api.GET(remotefs.RouteGetStats, s.getStats)
	api.PUT(remotefs.RouteWriteFile, s.writeFile)
	api.PUT(remotefs.RouteDeleteFile, s.deleteFiles)
	api.PUT(remotefs.RouteMakeFolder, s.makeFolder)
	api.PUT(remotefs.RouteDeleteFolder, s.deleteFolder)
	api.PUT(remotefs.RouteCopyFile, s.copyFiles)
	api.GET(remotefs.RouteRelativePath, s.relativePath)

	api.GET(dialogs.RouteChooseOpenFile, s.choose(dialogs.KindOpenFile))
	api.GET(dialogs.RouteChooseSaveFile, s.choose(dialogs.KindSaveFile))
	api.GET(dialogs.RouteChooseFolder, s.choose(dialogs.KindFolder))

	api.GET(appctl.RouteExit, s.exit)
	api.GET(appctl.RouteCommand, s.command)

	engine.NoRoute(notFound(cfg.StaticRoot))
	return engine, nil
}

func notFound(staticRoot string) gin.HandlerFunc {
	var files http.Handler
	if staticRoot != "" {
		files = http.FileServer(http.Dir(staticRoot))
	}
	return func(c *gin.Context) {
		path := c.Request.URL.Path
		if files == nil || path == bridge.APIRoot || strings.HasPrefix(path, bridge.APIRoot+"/") {
			writeText(c, http.StatusNotFound, fmt.Sprintf("no such route: %s %s", c.Request.Method, path))
			return
		}
		if c.Request.Method != http.MethodGet && c.Request.Method != http.MethodHead {
			writeText(c, http.StatusMethodNotAllowed, "method not allowed")
			return
		}
		files.ServeHTTP(c.Writer, c.Request)
	}
}

// fail answers every call failure the same way: 404 with the error text.
func (s *server) fail(c *gin.Context, err error) {
	s.logger.Debug("call failed",
		zap.String("request_id", c.GetString(requestIDKey)),
		zap.String("path", c.Request.URL.Path),
		zap.Error(err),
	)
	writeText(c, http.StatusNotFound, err.Error())
}

const textContentType = wire.ContentTypeText + "; charset=utf-8"

func writeText(c *gin.Context, status int, text string) {
	c.Data(status, textContentType, []byte(text))
}

// requireMediaType fails the call unless the request body is of type want.
func (s *server) requireMediaType(c *gin.Context, want string) bool {
	got := wire.MediaType(c.GetHeader("Content-Type"))
	if got == want {
		return true
	}
	s.fail(c, fmt.Errorf("expected %s body, got %q", want, got))
	return false
}

func (s *server) writeJSON(c *gin.Context, v any) {
	data, err := wire.EncodeJSON(v)
	if err != nil {
		s.fail(c, err)
		return
	}
	c.Data(http.StatusOK, wire.ContentTypeJSON, data)
}

func pathArg(c *gin.Context) (string, error) {
	var p string
	ok, err := wire.DecodeQueryArgs(c.Request.URL.Query(), &p)
	if err != nil {
		return "", err
	}
	if !ok {
		return "", errMissingArgs
	}
	return p, nil
}

func (s *server) readText(c *gin.Context) {
	p, err := pathArg(c)
	if err != nil {
		s.fail(c, err)
		return
	}
	text, err := s.fs.ReadText(c.Request.Context(), p)
	if err != nil {
		s.fail(c, err)
		return
	}
	writeText(c, http.StatusOK, text)
}

func (s *server) readBinary(c *gin.Context) {
	p, err := pathArg(c)
	if err != nil {
		s.fail(c, err)
		return
	}
	data, err := s.fs.ReadBinary(c.Request.Context(), p)
	if err != nil {
		s.fail(c, err)
		return
	}
	c.Data(http.StatusOK, wire.ContentTypeOctetStream, data)
}

func (s *server) readFolder(c *gin.Context) {
	p, err := pathArg(c)
	if err != nil {
		s.fail(c, err)
		return
	}
	entries, err := s.fs.ReadFolder(c.Request.Context(), p)
	if err != nil {
		s.fail(c, err)
		return
	}
	if entries == nil {
		entries = []remotefs.Entry{}
	}
	s.writeJSON(c, entries)
}

func (s *server) getStats(c *gin.Context) {
	p, err := pathArg(c)
	if err != nil {
		s.fail(c, err)
		return
	}
	stats, err := s.fs.GetStats(c.Request.Context(), p)
	if err != nil {
		s.fail(c, err)
		return
	}
	s.writeJSON(c, stats)
}

func (s *server) writeFile(c *gin.Context) {
	if !s.requireMediaType(c, wire.ContentTypeMultipart) {
		return
	}
	if err := c.Request.ParseMultipartForm(maxFormMemory); err != nil {
		s.fail(c, fmt.Errorf("parse form: %w", err))
		return
	}
	form := c.Request.MultipartForm
	p, ok, err := formField(form, "path")
	if err != nil {
		s.fail(c, err)
		return
	}
	if !ok {
		s.fail(c, errors.New("missing form field \"path\""))
		return
	}
	contents, ok, err := formField(form, "contents")
	if err != nil {
		s.fail(c, err)
		return
	}
	if !ok {
		s.fail(c, errors.New("missing form field \"contents\""))
		return
	}
	if err := s.fs.WriteFile(c.Request.Context(), string(p.Bytes()), contents); err != nil {
		s.fail(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// formField returns a plain field as text and a file part as binary.
func formField(form *multipart.Form, name string) (bridge.Payload, bool, error) {
	if vals := form.Value[name]; len(vals) > 0 {
		return bridge.Text(vals[0]), true, nil
	}
	files := form.File[name]
	if len(files) == 0 {
		return bridge.Payload{}, false, nil
	}
	f, err := files[0].Open()
	if err != nil {
		return bridge.Payload{}, false, err
	}
	defer f.Close()
	data, err := io.ReadAll(f)
	if err != nil {
		return bridge.Payload{}, false, err
	}
	return bridge.Binary(data), true, nil
}

func (s *server) deleteFiles(c *gin.Context) {
	if !s.requireMediaType(c, wire.ContentTypeJSON) {
		return
	}
	var paths []string
	if err := c.ShouldBindJSON(&paths); err != nil {
		s.fail(c, err)
		return
	}
	result, err := s.fs.DeleteFiles(c.Request.Context(), paths)
	if err != nil {
		s.fail(c, err)
		return
	}
	s.writeJSON(c, result)
}

func (s *server) makeFolder(c *gin.Context) {
	if !s.requireMediaType(c, wire.ContentTypeJSON) {
		return
	}
	var args remotefs.MakeFolderArgs
	if err := c.ShouldBindJSON(&args); err != nil {
		s.fail(c, err)
		return
	}
	if err := s.fs.MakeFolder(c.Request.Context(), args.Path, args.ExistOK); err != nil {
		s.fail(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (s *server) deleteFolder(c *gin.Context) {
	if !s.requireMediaType(c, wire.ContentTypeJSON) {
		return
	}
	var p string
	if err := c.ShouldBindJSON(&p); err != nil {
		s.fail(c, err)
		return
	}
	if err := s.fs.DeleteFolder(c.Request.Context(), p); err != nil {
		s.fail(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (s *server) copyFiles(c *gin.Context) {
	if !s.requireMediaType(c, wire.ContentTypeJSON) {
		return
	}
	body, err := io.ReadAll(c.Request.Body)
	if err != nil {
		s.fail(c, err)
		return
	}
	specs, err := decodeCopySpecs(body)
	if err != nil {
		s.fail(c, err)
		return
	}
	if err := s.fs.CopyFiles(c.Request.Context(), specs); err != nil {
		s.fail(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// decodeCopySpecs accepts a single {src, dest} object or an array of them.
func decodeCopySpecs(body []byte) ([]remotefs.CopySpec, error) {
	trimmed := strings.TrimSpace(string(body))
	if strings.HasPrefix(trimmed, "[") {
		var specs []remotefs.CopySpec
		if err := json.Unmarshal(body, &specs); err != nil {
			return nil, err
		}
		return specs, nil
	}
	var spec remotefs.CopySpec
	if err := json.Unmarshal(body, &spec); err != nil {
		return nil, err
	}
	return []remotefs.CopySpec{spec}, nil
}

func (s *server) relativePath(c *gin.Context) {
	p, err := pathArg(c)
	if err != nil {
		s.fail(c, err)
		return
	}
	rel, err := s.fs.RelativePath(c.Request.Context(), p)
	if err != nil {
		s.fail(c, err)
		return
	}
	writeText(c, http.StatusOK, rel)
}

func (s *server) choose(kind dialogs.Kind) gin.HandlerFunc {
	return func(c *gin.Context) {
		var opts dialogs.Options
		ok, err := wire.DecodeQueryArgs(c.Request.URL.Query(), &opts)
		if err != nil {
			s.fail(c, err)
			return
		}
		var optsPtr *dialogs.Options
		if ok {
			optsPtr = &opts
		}
		picked, err := s.dialogs.Choose(c.Request.Context(), kind, optsPtr)
		if err != nil {
			s.fail(c, err)
			return
		}
		writeText(c, http.StatusOK, picked)
	}
}

// exit answers before stopping so the caller sees a completed call.
func (s *server) exit(c *gin.Context) {
	c.Status(http.StatusNoContent)
	c.Writer.WriteHeaderNow()
	if err := s.app.Exit(c.Request.Context()); err != nil {
		s.logger.Warn("exit failed", zap.Error(err))
	}
}

func (s *server) command(c *gin.Context) {
	var raw json.RawMessage
	ok, err := wire.DecodeQueryArgs(c.Request.URL.Query(), &raw)
	if err != nil {
		s.fail(c, err)
		return
	}
	if !ok {
		s.fail(c, errMissingArgs)
		return
	}
	args, err := commandArgs(raw)
	if err != nil {
		s.fail(c, err)
		return
	}
	if err := s.app.Command(c.Request.Context(), args); err != nil {
		s.fail(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// commandArgs accepts an argument array or a bare command string.
func commandArgs(raw json.RawMessage) ([]any, error) {
	var args []any
	if err := json.Unmarshal(raw, &args); err == nil {
		return args, nil
	}
	var single string
	if err := json.Unmarshal(raw, &single); err != nil {
		return nil, errors.New("command args must be an array or a string")
	}
	return []any{single}, nil
}
