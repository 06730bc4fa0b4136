package deck

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"deckerr/internal/rules"
	"deckerr/pkg/models"
)

// RulesHandler evaluates decks sent in the request body without storing
// anything.
type RulesHandler struct{}

func NewRulesHandler() *RulesHandler {
	return &RulesHandler{}
}

func (h *RulesHandler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.POST("/validate", h.validate) // POST /rules/validate
	rg.POST("/lands", h.lands)       // POST /rules/lands
	rg.POST("/analyze", h.analyze)   // POST /rules/analyze
	rg.GET("/formats", h.formats)    // GET /rules/formats
}

func (h *RulesHandler) validate(c *gin.Context) {
	d, ok := bindDeck(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, rules.Validate(d))
}

func (h *RulesHandler) lands(c *gin.Context) {
	d, ok := bindDeck(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, rules.SuggestLands(d.Entries, d.Format))
}

func (h *RulesHandler) analyze(c *gin.Context) {
	d, ok := bindDeck(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, AnalyzeDeck(d))
}

// evalReq is the body of the evaluation endpoints. Format has no default.
type evalReq struct {
	Format      *models.Format     `json:"format"`
	Entries     []models.DeckEntry `json:"cards"`
	CommanderID string             `json:"commander_id"`
}

// bindDeck writes a 400 and reports false when the body is not a usable deck.
func bindDeck(c *gin.Context) (models.Deck, bool) {
	var req evalReq
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid deck"})
		return models.Deck{}, false
	}
	if req.Format == nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "format required"})
		return models.Deck{}, false
	}
	for _, e := range req.Entries {
		if !validQuantity(e.Quantity) {
			c.JSON(http.StatusBadRequest, gin.H{"error": ErrInvalidQuantity.Error()})
			return models.Deck{}, false
		}
	}
	return models.Deck{Format: *req.Format, Entries: req.Entries, CommanderID: req.CommanderID}, true
}

type formatInfo struct {
	Name string `json:"name"`
	rules.FormatRule
}

func (h *RulesHandler) formats(c *gin.Context) {
	out := make([]formatInfo, 0, len(models.Formats()))
	for _, f := range models.Formats() {
		out = append(out, formatInfo{Name: f.String(), FormatRule: rules.RuleFor(f)})
	}
	c.JSON(http.StatusOK, gin.H{"items": out})
}
