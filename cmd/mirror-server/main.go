package main

import (
	"encoding/json"
	"flag"
	"log"
	"net/http"
	"os"

	"github.com/gin-gonic/gin"

	"deckerr/pkg/models"
)

// Serves a card mirror file at GET /cards so card-prefetch can warm a cache
// without reaching the public API.
func main() {
	dataPath := flag.String("data", "data/mirror.json", "card mirror JSON file")
	addr := flag.String("addr", ":9000", "listen address")
	flag.Parse()

	r := gin.Default()
	r.GET("/cards", func(c *gin.Context) {
		b, err := os.ReadFile(*dataPath)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "cannot read mirror: " + err.Error()})
			return
		}
		var list []models.Card
		if err := json.Unmarshal(b, &list); err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "mirror is not a card list: " + err.Error()})
			return
		}
		c.JSON(http.StatusOK, list)
	})

	log.Printf("mirror-server listening on %s", *addr)
	log.Fatal(r.Run(*addr))
}
