package controllers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/marketpulse/backend/services"
)

type ArticleController struct {
	articles *services.ArticleService
}

func NewArticleController(articles *services.ArticleService) *ArticleController {
	return &ArticleController{articles: articles}
}

func (ac *ArticleController) GetArticles(c *gin.Context) {
	articles, err := ac.articles.ListArticles(c.Request.Context())
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, articles)
}

func (ac *ArticleController) GetArticleByID(c *gin.Context) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil || id == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid article id"})
		return
	}

	article, err := ac.articles.GetArticle(c.Request.Context(), uint(id))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, article)
}

func (ac *ArticleController) GetArticlesBySymbol(c *gin.Context) {
	articles, err := ac.articles.ListBySymbol(c.Request.Context(), c.Param("symbol"))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, articles)
}
