package models

import "time"

// Corpus is an ordered, versioned batch of items. Positions are stable indices
// into the similarity matrix built for Version.
type Corpus struct {
	Version string `json:"version"`
	Source  string `json:"source,omitempty"`
	Items   []Item `json:"items"`
}

// Titles returns the item titles in corpus order.
func (c *Corpus) Titles() []string {
	out := make([]string, len(c.Items))
	for i := range c.Items {
		out[i] = c.Items[i].Title
	}
	return out
}

// CorpusInfo describes a stored corpus version.
type CorpusInfo struct {
	Version   string    `json:"version" db:"version"`
	Source    string    `json:"source" db:"source"`
	ItemCount int       `json:"item_count" db:"item_count"`
	Active    bool      `json:"active" db:"active"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
}
