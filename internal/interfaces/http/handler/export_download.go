package handler

import (
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sellout/backend/internal/infrastructure/storage"
)

// ExportStore reads exports held by the in-process archive
type ExportStore interface {
	Get(key string) (storage.StoredObject, bool)
}

// ExportDownloadHandler serves exports when object storage is disabled
type ExportDownloadHandler struct {
	BaseHandler
	store ExportStore
	now   func() time.Time
}

// NewExportDownloadHandler creates a download handler
func NewExportDownloadHandler(store ExportStore) *ExportDownloadHandler {
	return &ExportDownloadHandler{store: store, now: time.Now}
}

// Download godoc
// @Summary      Download an archived export
// @Tags         reports
// @Produce      text/csv
// @Param        key path string true "Storage key"
// @Param        expires query string true "Link expiry (RFC3339)"
// @Success      200 {file} file
// @Failure      404 {object} ErrorResponse
// @Router       /exports/{key} [get]
func (h *ExportDownloadHandler) Download(c *gin.Context) {
	key := strings.TrimPrefix(c.Param("key"), "/")

	expires, err := time.Parse(time.RFC3339, c.Query("expires"))
	if err != nil || h.now().After(expires) {
		h.NotFound(c, "Download link is invalid or has expired")
		return
	}

	obj, ok := h.store.Get(key)
	if !ok {
		h.NotFound(c, "Export not found")
		return
	}

	name := key
	if i := strings.LastIndex(key, "/"); i >= 0 {
		name = key[i+1:]
	}
	c.Header("Content-Disposition", `attachment; filename="`+name+`"`)
	c.Data(http.StatusOK, obj.ContentType, obj.Data)
}
