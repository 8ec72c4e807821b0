// Package e2e provides end-to-end tests with a generated catalog and many recommend queries.
package e2e

import (
	"fmt"
	"strings"

	"github.com/hyperjump/osusume/internal/models"
)

// Genre is a family of items whose descriptions share a signature vocabulary.
type Genre struct {
	Name  string
	Words []string
}

// CatalogItem is one generated catalog row.
type CatalogItem struct {
	Title   string
	Summary string
	Image   string
	Genre   string
}

// Catalog holds generated items in catalog order.
type Catalog struct {
	Items []CatalogItem
}

var genres = []Genre{
	{"Mecha", []string{"pilot", "robot", "colony", "cockpit", "armor", "reactor", "squadron", "frame"}},
	{"Cooking", []string{"chef", "kitchen", "recipe", "restaurant", "flavor", "broth", "knife", "dumpling"}},
	{"Sports", []string{"tournament", "coach", "volleyball", "serve", "rival", "training", "court", "nationals"}},
	{"Horror", []string{"curse", "ghost", "shrine", "ritual", "haunted", "corpse", "whisper", "fog"}},
	{"Space", []string{"bounty", "starship", "asteroid", "orbit", "hyperdrive", "nebula", "crew", "station"}},
	{"Romance", []string{"confession", "festival", "letter", "blush", "umbrella", "classmate", "rooftop", "sakura"}},
	{"Fantasy", []string{"dragon", "sword", "guild", "dungeon", "mage", "kingdom", "elf", "spell"}},
	{"Mystery", []string{"detective", "alibi", "culprit", "clue", "locked", "poison", "testimony", "deduction"}},
}

var filler = []string{"the", "story", "of", "a", "young", "hero"}

// BuildCatalog returns perGenre items for every genre. Each item uses five of its genre's
// eight signature words, so items of one genre always share vocabulary and items of
// different genres share only the filler words every item has.
func BuildCatalog(perGenre int) *Catalog {
	c := &Catalog{}
	for i := 0; i < perGenre; i++ {
		for _, g := range genres {
			words := make([]string, 0, 5+len(filler))
			for j := 0; j < 5; j++ {
				words = append(words, g.Words[(i+j)%len(g.Words)])
			}
			words = append(words, filler...)
			c.Items = append(c.Items, CatalogItem{
				Title:   fmt.Sprintf("%s Chronicle %d", g.Name, i+1),
				Summary: strings.Join(words, " ") + ".",
				Image:   fmt.Sprintf("images/%s-%d.jpg", g.Name, i+1),
				Genre:   g.Name,
			})
		}
	}
	return c
}

// GenreOf returns the genre of the item titled title, or "".
func (c *Catalog) GenreOf(title string) string {
	for _, it := range c.Items {
		if it.Title == title {
			return it.Genre
		}
	}
	return ""
}

// ToItems converts the catalog to models.Item in catalog order.
func (c *Catalog) ToItems() []models.Item {
	out := make([]models.Item, len(c.Items))
	for i, it := range c.Items {
		out[i] = models.Item{
			Title:          it.Title,
			Description:    models.StringPtr(it.Summary),
			ImageReference: models.StringPtr(it.Image),
		}
	}
	return out
}
