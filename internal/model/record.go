package model

// Record is one source document reduced to what the migration needs.
// OwnerID is empty when the document has no usable owner; such records carry
// no media and are skipped.
type Record struct {
	OwnerID string
	Media   []MediaReference
}

// References flattens the media of recs into one slice, dropping records
// without an owner. The second return value is the number of dropped records.
func References(recs []Record) ([]MediaReference, int) {
	var (
		refs    []MediaReference
		dropped int
	)
	for _, r := range recs {
		if r.OwnerID == "" {
			dropped++
			continue
		}
		refs = append(refs, r.Media...)
	}
	return refs, dropped
}
