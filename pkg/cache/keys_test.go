package cache

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestKeys_Families(t *testing.T) {
	dir := OutletDirectory()
	rep := OutletsForRep(7)

	assert.True(t, strings.HasPrefix(OutletByUIDKey(3, "R-1"), dir.Prefix))
	assert.True(t, strings.HasPrefix(OutletByIDKey(3, 1), dir.Prefix))
	assert.True(t, strings.HasPrefix(OutletSearchKey(3, "x"), dir.Prefix))
	assert.True(t, strings.HasPrefix(OutletListKey(3, 1, 7, "x"), rep.Prefix))
	assert.True(t, strings.HasPrefix(rep.Prefix, dir.Prefix))

	assert.False(t, strings.HasPrefix(OutletListKey(3, 1, 70, "x"), rep.Prefix))
	assert.False(t, strings.HasPrefix(dir.GenKey, dir.Prefix))
	assert.False(t, strings.HasPrefix(rep.GenKey, dir.Prefix))
}

func TestKeys_GenerationChangesKey(t *testing.T) {
	assert.NotEqual(t, OutletByUIDKey(0, "R-1"), OutletByUIDKey(1, "R-1"))
	assert.NotEqual(t, OutletListKey(0, 0, 1, "q"), OutletListKey(1, 0, 1, "q"))
	assert.NotEqual(t, OutletListKey(0, 0, 1, "q"), OutletListKey(0, 1, 1, "q"))
}

func TestKeys_Reference(t *testing.T) {
	assert.Equal(t, "regions:all", ReferenceAllKey("regions"))
	assert.Equal(t, "areas:4", ReferenceByIDKey("areas", 4))
	assert.Equal(t, "areas:region:2", ReferenceByParentKey("areas", "region", 2))
	assert.Equal(t, "salesreps:all:limit:10:page:1", SalesRepPageKey(10, 1))
	assert.Equal(t, "territories:", Reference("territories").Prefix)
}

func TestFingerprint_Deterministic(t *testing.T) {
	assert.Equal(t, Fingerprint("region=1;page=1"), Fingerprint("region=1;page=1"))
	assert.NotEqual(t, Fingerprint("region=1;page=1"), Fingerprint("region=1;page=2"))
}
