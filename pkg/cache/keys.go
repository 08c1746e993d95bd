package cache

import (
	"fmt"
	"strconv"

	"github.com/cespare/xxhash/v2"
)

// Family is a group of keys invalidated together by one prefix sweep.
// GenKey, when set, names the version counter embedded in the family's keys.
type Family struct {
	Prefix string
	GenKey string
}

// Key families. Generation counters live under "gen:" so sweeps of the
// families they version never delete them.
const (
	outletPrefix    = "outlets:"
	outletGenKey    = "gen:outlets"
	salesRepsPrefix = "salesreps:"
)

// OutletDirectory covers every cached outlet record, admin search and
// representative list.
func OutletDirectory() Family {
	return Family{Prefix: outletPrefix, GenKey: outletGenKey}
}

// OutletsForRep covers the cached list views of one representative
func OutletsForRep(repID int) Family {
	return Family{
		Prefix: fmt.Sprintf("%srep:%d:", outletPrefix, repID),
		GenKey: fmt.Sprintf("%s:rep:%d", outletGenKey, repID),
	}
}

// Reference covers one reference table, e.g. "regions"
func Reference(table string) Family {
	return Family{Prefix: table + ":"}
}

// SalesReps covers cached representative listings
func SalesReps() Family {
	return Family{Prefix: salesRepsPrefix}
}

// OutletByUIDKey is the record key for an outlet looked up by uid
func OutletByUIDKey(gen int64, uid string) string {
	return fmt.Sprintf("%suid:%s:g%d", outletPrefix, uid, gen)
}

// OutletByIDKey is the record key for an outlet looked up by id
func OutletByIDKey(gen int64, id int) string {
	return fmt.Sprintf("%sid:%d:g%d", outletPrefix, id, gen)
}

// OutletSearchKey keys an unscoped directory search by its canonical query
func OutletSearchKey(gen int64, canonical string) string {
	return fmt.Sprintf("%ssearch:g%d:%s", outletPrefix, gen, Fingerprint(canonical))
}

// OutletListKey keys one representative's list page. Both the directory and
// the representative generation are part of the key, so either kind of
// write makes earlier entries unreachable.
func OutletListKey(dirGen, repGen int64, repID int, canonical string) string {
	return fmt.Sprintf("%srep:%d:g%d.%d:%s", outletPrefix, repID, dirGen, repGen, Fingerprint(canonical))
}

// SalesRepPageKey keys one page of the representative listing
func SalesRepPageKey(limit, page int) string {
	return fmt.Sprintf("%sall:limit:%d:page:%d", salesRepsPrefix, limit, page)
}

// ReferenceAllKey keys the full listing of a reference table
func ReferenceAllKey(table string) string {
	return table + ":all"
}

// ReferenceByIDKey keys a single reference node
func ReferenceByIDKey(table string, id int) string {
	return table + ":" + strconv.Itoa(id)
}

// ReferenceByParentKey keys children of a parent node, e.g. areas:region:3
func ReferenceByParentKey(table, parent string, parentID int) string {
	return fmt.Sprintf("%s:%s:%d", table, parent, parentID)
}

// Fingerprint hashes a canonical query string into a fixed-width key segment
func Fingerprint(canonical string) string {
	return strconv.FormatUint(xxhash.Sum64String(canonical), 16)
}
