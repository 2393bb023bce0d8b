package reconcile

import (
	"crypto/sha256"
	"encoding/hex"
	"strconv"
	"strings"

	"github.com/google/uuid"
)

// NormalizeTitle produces the collision-counting key for a task title:
// trimmed, case-folded, internal whitespace runs collapsed to one space.
func NormalizeTitle(title string) string {
	return strings.Join(strings.Fields(strings.ToLower(title)), " ")
}

// CardID derives the stable card identifier from the owning board, the
// normalized title and the occurrence index of that title within one parse.
// Identical inputs always produce the identical identifier, so a card keeps
// its identity (and with it the user's manual column and ordering) across
// passes as long as the relative order of same-titled tasks is unchanged.
func CardID(boardID uuid.UUID, normalizedTitle string, occurrence int) string {
	key := boardID.String() + "\x00" + normalizedTitle + "\x00" + strconv.Itoa(occurrence)
	sum := sha256.Sum256([]byte(key))
	return hex.EncodeToString(sum[:])[:16]
}

// Fingerprint is a short content hash of a raw source line. It is stored on
// the card for downstream change detection and plays no part in identity.
func Fingerprint(rawLine string) string {
	sum := sha256.Sum256([]byte(rawLine))
	return hex.EncodeToString(sum[:])[:12]
}
