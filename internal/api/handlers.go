package api

import (
	"context"
	"io"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/valponomarev/ImageViewer/internal/core"
)

type imageService interface {
	Sync(ctx context.Context) error
	RetryOne(ctx context.Context, id string) error
	List(ctx context.Context) ([]*core.ImageRecord, error)
	Get(ctx context.Context, id string) (*core.ImageRecord, error)
	Watch(ctx context.Context) (<-chan []*core.ImageRecord, error)
	ClearCache(ctx context.Context) error
	ReadBlob(name string) ([]byte, error)
	IsManifestCached() bool
	NetworkAvailable() bool
}

type handler struct {
	images imageService
	logger *zap.Logger
}

const handlerTimeout = 2 * time.Minute

func NewHandler(images imageService, logger *zap.Logger) *handler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &handler{images: images, logger: logger}
}

func (h *handler) listImages(c *gin.Context) {
	ctx, canc := context.WithTimeout(c.Request.Context(), handlerTimeout)
	defer canc()

	recs, err := h.images.List(ctx)
	if err != nil {
		h.errorResponse(c, err)
		return
	}
	c.JSON(http.StatusOK, NewRecordListResponse(recs))
}

// getImage looks a record up by its source URL. IDs are full URLs, so
// they travel as a query parameter rather than a path segment.
func (h *handler) getImage(c *gin.Context) {
	id := c.Query("id")
	SetImageID(c, id)
	ctx, canc := context.WithTimeout(c.Request.Context(), handlerTimeout)
	defer canc()

	rec, err := h.images.Get(ctx, id)
	if err != nil {
		h.errorResponse(c, err)
		return
	}
	c.JSON(http.StatusOK, NewRecordResponse(rec))
}

// streamImages pushes the current record list as a server-sent event,
// then one more event per store change, until the client goes away.
func (h *handler) streamImages(c *gin.Context) {
	ctx := c.Request.Context()

	ch, err := h.images.Watch(ctx)
	if err != nil {
		h.errorResponse(c, err)
		return
	}

	c.Header("Cache-Control", "no-cache")
	c.Stream(func(_ io.Writer) bool {
		select {
		case recs, ok := <-ch:
			if !ok {
				return false
			}
			c.SSEvent("images", NewRecordListResponse(recs))
			return true
		case <-ctx.Done():
			return false
		}
	})
}

func (h *handler) syncImages(c *gin.Context) {
	ctx, canc := context.WithTimeout(context.Background(), handlerTimeout)
	defer canc()

	if err := h.images.Sync(ctx); err != nil {
		h.errorResponse(c, err)
		return
	}
	h.logger.Info("sync completed",
		zap.String("reqid", GetRequestID(c)),
	)
	c.JSON(http.StatusOK, gin.H{"status": "synced"})
}

func (h *handler) retryImage(c *gin.Context) {
	req := RetryRequest{}
	if err := c.ShouldBindJSON(&req); err != nil {
		h.badRequestResponse(c, err)
		return
	}
	SetImageID(c, req.ID)
	ctx, canc := context.WithTimeout(context.Background(), handlerTimeout)
	defer canc()

	if err := h.images.RetryOne(ctx, req.ID); err != nil {
		h.errorResponse(c, err)
		return
	}
	h.logger.Info("retried image",
		zap.String("reqid", GetRequestID(c)),
		zap.String("image_id", req.ID),
	)
	c.JSON(http.StatusOK, gin.H{"status": "retried"})
}

func (h *handler) badRequestResponse(c *gin.Context, err error) {
	if c != nil && err != nil {
		c.Error(err) //nolint:errcheck
	}
	c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{
		"error":   "bad request",
		"details": err.Error(),
	})
}

func (h *handler) clearCache(c *gin.Context) {
	ctx, canc := context.WithTimeout(context.Background(), handlerTimeout)
	defer canc()

	if err := h.images.ClearCache(ctx); err != nil {
		h.errorResponse(c, err)
		return
	}
	h.logger.Info("cache cleared",
		zap.String("reqid", GetRequestID(c)),
	)
	c.JSON(http.StatusOK, gin.H{"status": "cleared"})
}

func (h *handler) getStatus(c *gin.Context) {
	c.JSON(http.StatusOK, StatusResponse{
		ManifestCached:   h.images.IsManifestCached(),
		NetworkAvailable: h.images.NetworkAvailable(),
	})
}

func (h *handler) getBlob(c *gin.Context) {
	name := c.Param("name")
	data, err := h.images.ReadBlob(name)
	if err != nil {
		h.errorResponse(c, err)
		return
	}
	c.Data(http.StatusOK, "image/jpeg", data)
}

func (h *handler) errorResponse(c *gin.Context, err error) {
	if c != nil && err != nil {
		c.Error(err) //nolint:errcheck
	}
	if err == nil {
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{
			"error": "internal server error",
		})
		return
	}

	if appErr, ok := core.AsAppError(err); ok {
		s := appErr.HTTPStatus()
		p := gin.H{
			"error": appErr.PublicMessage(),
			"code":  appErr.Kind.String(),
		}
		if appErr.SafeToShow && appErr.Err != nil {
			p["details"] = appErr.Err.Error()
		}
		h.logger.Warn("handler error",
			zap.String("reqid", GetRequestID(c)),
			zap.String("image_id", GetImageID(c)),
			zap.String("error", err.Error()),
		)
		c.AbortWithStatusJSON(s, p)
		return
	}

	h.logger.Error("handler unknown error",
		zap.String("reqid", GetRequestID(c)),
		zap.String("image_id", GetImageID(c)),
		zap.String("error", err.Error()),
	)
	c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{
		"error": "internal server error",
	})
}
