package handler

import (
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/noah-isme/campus-portal-api/internal/middleware"
	"github.com/noah-isme/campus-portal-api/internal/service"
	appErrors "github.com/noah-isme/campus-portal-api/pkg/errors"
	"github.com/noah-isme/campus-portal-api/pkg/response"
)

// viewerFromContext resolves the requesting viewer, writing a 401 when the token claims are absent.
func viewerFromContext(c *gin.Context, logger *zap.Logger) (service.Viewer, bool) {
	claims, ok := middleware.Claims(c)
	if !ok {
		response.Error(c, appErrors.ErrUnauthorized)
		return service.Viewer{}, false
	}
	return service.ViewerFromClaims(claims, logger), true
}

func responseMeta(c *gin.Context) map[string]interface{} {
	meta := middleware.ExtractMeta(c)
	if meta == nil {
		meta = map[string]interface{}{}
	}
	return meta
}

// pathID returns the :id parameter in canonical form. Ids are UUIDs, so anything else is
// answered with a 404 naming noun.
func pathID(c *gin.Context, noun string) (string, bool) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.Error(c, appErrors.Clone(appErrors.ErrNotFound, noun+" not found"))
		return "", false
	}
	return id.String(), true
}
