package rest

import (
	"errors"
	"mime"
	"net/http"
	"path"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"user-registry-api/internal/application/ports"
	"user-registry-api/internal/application/services"
)

// UploadsController serves stored pictures from object storage.
// Disk storage is served by gin's static handler instead.
type UploadsController struct {
	storage ports.FileStorage
	logger  *zap.Logger
}

func NewUploadsController(r gin.IRouter, storage ports.FileStorage, logger *zap.Logger) *UploadsController {
	uc := &UploadsController{
		storage: storage,
		logger:  logger,
	}

	r.GET(RouteUploadFile, uc.GetFileHandler)
	r.HEAD(RouteUploadFile, uc.GetFileHandler)

	return uc
}

func (uc *UploadsController) GetFileHandler(c *gin.Context) {
	name, ok := services.StoredName(services.PublicPrefix + c.Param("name"))
	if !ok {
		c.Status(http.StatusNotFound)
		return
	}

	rc, err := uc.storage.Open(c.Request.Context(), name)
	if err != nil {
		if errors.Is(err, ports.ErrFileNotFound) {
			c.Status(http.StatusNotFound)
			return
		}
		uc.logger.Error("open upload", zap.String("name", name), zap.Error(err))
		c.Status(http.StatusBadGateway)
		return
	}
	defer rc.Close()

	ct := mime.TypeByExtension(path.Ext(name))
	if ct == "" {
		ct = "application/octet-stream"
	}
	c.Header("Cache-Control", "public, max-age=86400")
	c.Header("X-Content-Type-Options", "nosniff")

	if c.Request.Method == http.MethodHead {
		c.Header("Content-Type", ct)
		c.Status(http.StatusOK)
		return
	}

	c.DataFromReader(http.StatusOK, -1, ct, rc, nil)
}
