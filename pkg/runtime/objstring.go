package runtime

// ObjString is an interned, immutable string. Equality between two
// ObjStrings is always pointer equality once interned; HashString is the
// FNV-1a hash used both for bucket placement in Table and for the
// content-addressed lookup the interning pool performs before allocating
// a duplicate.
type ObjString struct {
	Header
	Chars string
	Hash  uint32
}

func (s *ObjString) String() string { return s.Chars }

// HashString computes the FNV-1a hash of s, matching the hash function
// the rest of the runtime (Table bucket placement, intern lookups)
// assumes every ObjString carries.
func HashString(s string) uint32 {
	var hash uint32 = 2166136261
	for i := 0; i < len(s); i++ {
		hash ^= uint32(s[i])
		hash *= 16777619
	}
	return hash
}

// NewObjString builds an ObjString header around s. It does not intern —
// callers that need interning (the VM, via its string pool) must check
// for an existing entry first; NewObjString is the raw constructor used
// once that check has failed.
func NewObjString(s string) *ObjString {
	return &ObjString{
		Header: Header{typ: ObjTypeString},
		Chars:  s,
		Hash:   HashString(s),
	}
}
