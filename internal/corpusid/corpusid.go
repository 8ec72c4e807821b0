// Package corpusid derives deterministic corpus version IDs from catalog content.
package corpusid

import (
	"crypto/sha256"
	"encoding/binary"
	"hash"

	"github.com/google/uuid"

	"github.com/hyperjump/osusume/internal/models"
)

// namespace scopes corpus versions so they never collide with other UUIDv5 users.
var namespace = uuid.NewSHA1(uuid.NameSpaceURL, []byte("https://github.com/hyperjump/osusume/corpus"))

// Version returns a UUIDv5 over the ordered titles, descriptions and image references.
// Same items in the same order always yield the same version; any edit, reorder,
// insertion or removal yields a different one. Nil and empty fields are distinguished.
func Version(items []models.Item) string {
	h := sha256.New()
	writeUint(h, uint64(len(items)))
	for i := range items {
		writeField(h, &items[i].Title)
		writeField(h, items[i].Description)
		writeField(h, items[i].ImageReference)
	}
	return uuid.NewSHA1(namespace, h.Sum(nil)).String()
}

func writeField(h hash.Hash, s *string) {
	if s == nil {
		h.Write([]byte{0})
		return
	}
	h.Write([]byte{1})
	writeUint(h, uint64(len(*s)))
	h.Write([]byte(*s))
}

func writeUint(h hash.Hash, n uint64) {
	var buf [8]byte
	binary.LittleEndian.PutUint64(buf[:], n)
	h.Write(buf[:])
}
