package api

import (
	"github.com/gofiber/adaptor/v2"
	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"github.com/wjcornelius/VECTOR-Biographer/api/mcp"
	"github.com/wjcornelius/VECTOR-Biographer/pkg/retrieval"
	"github.com/wjcornelius/VECTOR-Biographer/pkg/storage"
	"github.com/wjcornelius/VECTOR-Biographer/pkg/vector"
	"github.com/wjcornelius/VECTOR-Biographer/pkg/worker"
)

// Server is the API server for querying and feeding the biographer memory
// engine.
type Server struct {
	config   Config
	storer   storage.Driver
	vectors  vector.Driver
	searcher *retrieval.Searcher
	pool     *worker.Pool
	logger   *zap.Logger
	app      *fiber.App
}

// NewServer creates a new API server. The storer, vector driver and worker
// pool are injected to allow sharing with the CLI commands. The MCP server
// may be nil when MCP capabilities are disabled.
func NewServer(
	config Config,
	storer storage.Driver,
	vectors vector.Driver,
	searcher *retrieval.Searcher,
	pool *worker.Pool,
	mcpServer *mcp.Server,
	logger *zap.Logger,
) *Server {
	app := fiber.New(fiber.Config{
		DisableStartupMessage: true,
	})

	s := &Server{
		config:   config,
		storer:   storer,
		vectors:  vectors,
		searcher: searcher,
		pool:     pool,
		logger:   logger,
		app:      app,
	}

	app.Get("/ping", s.handlePing)
	app.Get("/api/v1/status", s.handleStatus)
	app.Post("/api/v1/search", s.handleSearch)
	app.Post("/api/v1/extractions", s.handleExtractions)
	app.Get("/api/v1/clusters", s.handleClusters)

	if mcpServer != nil && mcpServer.Handler() != nil {
		app.All("/mcp", adaptor.HTTPHandler(mcpServer.Handler()))
	}

	return s
}

// Run starts the API server on the configured address.
func (s *Server) Run() error {
	s.logger.Info("starting API server",
		zap.String("listen", s.config.ListenAddr),
	)
	return s.app.Listen(s.config.ListenAddr)
}

// Shutdown gracefully shuts down the API server.
func (s *Server) Shutdown() error {
	return s.app.Shutdown()
}
