package server

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

func (s *Server) AnalyzeTender(c *gin.Context) {
	resp, err := s.analysisSvc.Analyze(c.Request.Context(), c.Param("id"))
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

func (s *Server) GetTenderOutliers(c *gin.Context) {
	resp, err := s.analysisSvc.GetOutliers(c.Request.Context(), c.Param("id"))
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

func (s *Server) GetTenderRecommendations(c *gin.Context) {
	resp, err := s.analysisSvc.GetRecommendations(c.Request.Context(), c.Param("id"))
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

func (s *Server) GetItemWinner(c *gin.Context) {
	resp, err := s.analysisSvc.GetItemWinner(c.Request.Context(), c.Param("id"), c.Param("item_id"))
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

func (s *Server) GetProposalTotals(c *gin.Context) {
	resp, err := s.analysisSvc.GetProposalTotals(c.Request.Context(), c.Param("id"))
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}
