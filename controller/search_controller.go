package controller

import (
	"context"
	"net/http"

	model "github.com/Itish41/DocLens/models"

	"github.com/gin-gonic/gin"
)

type SearchService interface {
	Search(ctx context.Context, q model.SearchQuery) (*model.SearchOutcome, error)
}

type SearchController struct {
	service SearchService
}

func NewSearchController(service SearchService) *SearchController {
	return &SearchController{service: service}
}

// SearchDocuments accepts the query either as a JSON body (POST) or as
// q/pageSize/pageNumber parameters (GET).
func (sc *SearchController) SearchDocuments(c *gin.Context) {
	var q model.SearchQuery
	var err error
	if c.Request.Method == http.MethodGet {
		err = c.ShouldBindQuery(&q)
	} else {
		err = c.ShouldBindJSON(&q)
	}
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid search request", "details": err.Error()})
		return
	}

	outcome, err := sc.service.Search(c.Request.Context(), q)
	if err != nil {
		c.JSON(statusFor(err), gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, outcome)
}
