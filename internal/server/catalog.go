package server

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

func (s *Server) ListProcedureTypes(c *gin.Context) {
	types, err := s.catalogRepo.ListProcedureTypes(c.Request.Context())
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": types})
}

func (s *Server) ListCatalogServices(c *gin.Context) {
	services, err := s.catalogRepo.ListCatalogServices(c.Request.Context())
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": services})
}

func (s *Server) ListExternalProviders(c *gin.Context) {
	providers, err := s.catalogRepo.ListExternalProviders(c.Request.Context())
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": providers})
}

func (s *Server) ListMarginThresholds(c *gin.Context) {
	thresholds, err := s.catalogRepo.ListMarginThresholds(c.Request.Context())
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": thresholds})
}
