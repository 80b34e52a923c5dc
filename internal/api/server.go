package api

import (
	"context"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

var ErrNoImageService = errors.New("image service is required")

type Server struct {
	router *gin.Engine

	httpSrv *http.Server
}

type ServerOptions struct {
	Images imageService
	Logger *zap.Logger
	Addr   string
}

func NewServer(opts *ServerOptions) (*Server, error) {
	if opts.Images == nil {
		return nil, ErrNoImageService
	}
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}

	router := gin.New()
	router.Use(
		RecoveryMiddleware(opts.Logger),
		RequestIDMiddleware(),
		LoggingMiddleware(opts.Logger),
	)

	h := NewHandler(opts.Images, opts.Logger)
	setupRouter(router, h)

	return &Server{
		router: router,
		httpSrv: &http.Server{
			Addr:    opts.Addr,
			Handler: router,
		}}, nil
}

func (s *Server) Run() error {
	return s.httpSrv.ListenAndServe()
}
func (s *Server) Shutdown(ctx context.Context) error {
	return s.httpSrv.Shutdown(ctx)
}

func (s *Server) Router() http.Handler {
	return s.router
}

func setupRouter(router *gin.Engine, h *handler) {
	group := router.Group("/")
	group.GET("/images", h.listImages)
	group.GET("/images/stream", h.streamImages)
	group.GET("/image", h.getImage)
	group.POST("/images/retry", h.retryImage)
	group.POST("/sync", h.syncImages)
	group.DELETE("/cache", h.clearCache)
	group.GET("/status", h.getStatus)
	group.GET("/blobs/:name", h.getBlob)
}
