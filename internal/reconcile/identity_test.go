package reconcile_test

import (
	"testing"

	"vaultboard/internal/reconcile"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
)

func TestNormalizeTitle(t *testing.T) {
	assert.Equal(t, "buy milk", reconcile.NormalizeTitle("  Buy   Milk "))
	assert.Equal(t, "buy milk", reconcile.NormalizeTitle("buy\tmilk"))
	assert.Equal(t, "buy milk", reconcile.NormalizeTitle("BUY MILK"))
	assert.Equal(t, "", reconcile.NormalizeTitle("   "))
}

func TestCardID_DuplicateTitlesGetDistinctIDs(t *testing.T) {
	boardID := uuid.New()
	key := reconcile.NormalizeTitle("Buy milk")

	first := reconcile.CardID(boardID, key, 0)
	second := reconcile.CardID(boardID, key, 1)

	assert.NotEqual(t, first, second)
	assert.Len(t, first, 16)
	assert.Len(t, second, 16)
}

func TestCardID_Deterministic(t *testing.T) {
	boardID := uuid.MustParse("6ba7b810-9dad-11d1-80b4-00c04fd430c8")
	key := reconcile.NormalizeTitle("Walk dog")

	assert.Equal(t,
		reconcile.CardID(boardID, key, 0),
		reconcile.CardID(boardID, key, 0),
	)
}

func TestCardID_ScopedToBoard(t *testing.T) {
	key := reconcile.NormalizeTitle("Buy milk")

	a := reconcile.CardID(uuid.New(), key, 0)
	b := reconcile.CardID(uuid.New(), key, 0)

	assert.NotEqual(t, a, b)
}

func TestFingerprint(t *testing.T) {
	fp := reconcile.Fingerprint("- [ ] Buy milk")

	assert.Len(t, fp, 12)
	assert.Equal(t, fp, reconcile.Fingerprint("- [ ] Buy milk"))
	assert.NotEqual(t, fp, reconcile.Fingerprint("- [x] Buy milk"))
}
