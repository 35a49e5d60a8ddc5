package handler

import (
	"net/http"

	"github.com/DigitalTwins-IS/MS-PRODUCT-PY/internal/service"

	"github.com/gin-gonic/gin"
)

// Health godoc
// @Summary Health check
// @Description Always 200; a failed database probe shows up as status=unhealthy.
// @Tags health
// @Produce json
// @Success 200 {object} dto.HealthResponse
// @Router /health [get]
func Health(svc *service.HealthService) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.JSON(http.StatusOK, svc.Check(c.Request.Context()))
	}
}
