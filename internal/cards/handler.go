package cards

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
)

const maxRandom = 20

type Handler struct {
	Source *CachedSource
}

func NewHandler(source *CachedSource) *Handler {
	return &Handler{Source: source}
}

func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.GET("", h.search)        // GET /cards?q=
	rg.GET("/random", h.random) // GET /cards/random?count=
	rg.GET("/:id", h.getByID)   // GET /cards/:id
}

// search takes either a raw Scryfall query in q or the advanced form fields.
func (h *Handler) search(c *gin.Context) {
	query := strings.TrimSpace(c.Query("q"))
	if query == "" {
		var adv Query
		if err := c.ShouldBindQuery(&adv); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid search fields"})
			return
		}
		query = adv.String()
	}
	if query == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "q or search fields required"})
		return
	}

	items, err := h.Source.Search(c.Request.Context(), query)
	if err != nil {
		c.JSON(http.StatusBadGateway, gin.H{"error": "card search failed"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"query": query,
		"total": len(items),
		"items": items,
	})
}

func (h *Handler) random(c *gin.Context) {
	n := parseInt(c.Query("count"), 10)
	if n <= 0 || n > maxRandom {
		n = 10
	}

	items, err := h.Source.Random(c.Request.Context(), n)
	if err != nil {
		c.JSON(http.StatusBadGateway, gin.H{"error": "random cards failed"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"items": items})
}

func (h *Handler) getByID(c *gin.Context) {
	id := strings.TrimSpace(c.Param("id"))
	card, err := h.Source.GetByID(c.Request.Context(), id)
	if err != nil {
		c.JSON(http.StatusBadGateway, gin.H{"error": "get failed"})
		return
	}
	if card == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "not found"})
		return
	}
	c.JSON(http.StatusOK, card)
}

func parseInt(s string, def int) int {
	if strings.TrimSpace(s) == "" {
		return def
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		return def
	}
	return n
}
