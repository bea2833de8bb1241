package web

import (
	"context"
	"log"
	"net/http"
	"time"

	"github.com/SymoHTL/CloudCord/internal/config"
	"github.com/SymoHTL/CloudCord/internal/transport/web/v1/file"
	"github.com/SymoHTL/CloudCord/internal/transport/web/v1/health"
)

type Server struct {
	log    *log.Logger
	server *http.Server
	cfg    *config.Config
}

func New(logger *log.Logger, cfg *config.Config, d Deps) *Server {
	healthLog := log.New(logger.Writer(), logger.Prefix()+"[health] ", logger.Flags())
	fileLog := log.New(logger.Writer(), logger.Prefix()+"[file] ", logger.Flags())

	healthHandler := &health.Handler{DB: d.DB, Cache: d.Cache, Backend: d.Backend, Log: healthLog}
	fileHandler := &file.Handler{Log: fileLog, Store: d.Engine}

	srv := &http.Server{
		Addr:    cfg.AppPort,
		Handler: newRouter(healthHandler, fileHandler, logger),
		// Read/Write таймауты нулевые: загрузка и отдача больших файлов
		// занимают минуты, обрывать их по таймауту сервера нельзя.
		MaxHeaderBytes:    1 << 20,
		ReadHeaderTimeout: 2 * time.Second,
		IdleTimeout:       60 * time.Second,
	}
	return &Server{server: srv, cfg: cfg, log: logger}
}

func (ws *Server) Run() {
	ws.log.Printf("started on %s", ws.server.Addr)
	if err := ws.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		ws.log.Fatalf("error: %v", err)
	}
}

func (ws *Server) Close(ctx context.Context) {
	if err := ws.server.Shutdown(ctx); err != nil {
		ws.log.Printf("forced to shutdown: %v", err)
	}
	ws.log.Println("exited gracefully")
}
