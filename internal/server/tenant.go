package server

import (
	"net/http"

	tenantdomain "github.com/ajyalhq/ajyal/internal/tenant/domain"
	"github.com/gin-gonic/gin"
)

func (s *Server) CreateTenant(c *gin.Context) {
	var req tenantdomain.CreateTenantRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, ErrInvalidRequest)
		return
	}

	created, err := s.tenantSvc.Create(c.Request.Context(), req)
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusCreated, created)
}

func (s *Server) GetCurrentTenant(c *gin.Context) {
	current, err := s.tenantSvc.Current(c.Request.Context())
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, current)
}

func (s *Server) UpdateBillingSettings(c *gin.Context) {
	var req tenantdomain.UpdateBillingSettingsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, ErrInvalidRequest)
		return
	}

	updated, err := s.tenantSvc.UpdateBillingSettings(c.Request.Context(), req)
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, updated)
}
