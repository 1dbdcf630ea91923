package runtime

// Table is an open-addressed hash table keyed by interned *ObjString,
// used for globals, instance fields, class method tables, and (by the
// VM) the string intern pool itself. Collisions are resolved by linear
// probing; deletions leave a tombstone (nil key, true value) behind so
// probe sequences broken by a later delete still terminate correctly.
type Table struct {
	count   int
	entries []entry
}

type entry struct {
	key   *ObjString
	value Value
}

const tableMaxLoad = 0.75

// Count returns the number of occupied buckets: live entries plus
// tombstones, since Delete does not decrement it. Growth rehashes only
// live entries and resets it to their number.
func (t *Table) Count() int { return t.count }

func findEntry(entries []entry, key *ObjString) *entry {
	capacity := uint32(len(entries))
	index := key.Hash % capacity
	var tombstone *entry

	for {
		e := &entries[index]
		if e.key == nil {
			if IsNil(e.value) {
				if tombstone != nil {
					return tombstone
				}
				return e
			}
			if tombstone == nil {
				tombstone = e
			}
		} else if e.key == key {
			return e
		}
		index = (index + 1) % capacity
	}
}

// Get looks up key, reporting whether it was present.
func (t *Table) Get(key *ObjString) (Value, bool) {
	if t.count == 0 {
		return NilVal(), false
	}
	e := findEntry(t.entries, key)
	if e.key == nil {
		return NilVal(), false
	}
	return e.value, true
}

func growCapacity(capacity int) int {
	if capacity < 8 {
		return 8
	}
	return capacity * 2
}

func (t *Table) adjustCapacity(capacity int) {
	entries := make([]entry, capacity)
	for i := range entries {
		entries[i] = entry{key: nil, value: NilVal()}
	}

	t.count = 0
	for i := range t.entries {
		old := &t.entries[i]
		if old.key == nil {
			continue
		}
		dest := findEntry(entries, old.key)
		dest.key = old.key
		dest.value = old.value
		t.count++
	}

	t.entries = entries
}

// Set stores value under key, growing the table first if this insertion
// would push it past the 0.75 load factor. Reports whether key was new
// (not previously present, including as a tombstone).
func (t *Table) Set(key *ObjString, value Value) bool {
	if float64(t.count+1) > float64(len(t.entries))*tableMaxLoad {
		t.adjustCapacity(growCapacity(len(t.entries)))
	}

	e := findEntry(t.entries, key)
	isNewKey := e.key == nil
	if isNewKey && IsNil(e.value) {
		t.count++
	}

	e.key = key
	e.value = value
	return isNewKey
}

// Delete removes key, leaving a tombstone behind. Reports whether key
// was present.
func (t *Table) Delete(key *ObjString) bool {
	if t.count == 0 {
		return false
	}
	e := findEntry(t.entries, key)
	if e.key == nil {
		return false
	}
	e.key = nil
	e.value = BoolVal(true)
	return true
}

// AddAll copies every live entry of t into dst, used to implement class
// inheritance's copy-down of superclass methods.
func (t *Table) AddAll(dst *Table) {
	for i := range t.entries {
		e := &t.entries[i]
		if e.key != nil {
			dst.Set(e.key, e.value)
		}
	}
}

// FindString performs the content-addressed lookup the string intern
// pool relies on: two different *ObjString headers with identical
// contents and hash are consolidated into one.
func (t *Table) FindString(s string, hash uint32) *ObjString {
	if t.count == 0 {
		return nil
	}
	capacity := uint32(len(t.entries))
	index := hash % capacity

	for {
		e := &t.entries[index]
		if e.key == nil {
			if IsNil(e.value) {
				return nil
			}
		} else if e.key.Hash == hash && e.key.Chars == s {
			return e.key
		}
		index = (index + 1) % capacity
	}
}

// RemoveWhite deletes every entry whose key is unmarked. Used by the
// collector to weak-sweep the string intern pool before the general
// sweep reclaims the ObjStrings themselves.
func (t *Table) RemoveWhite() {
	for i := range t.entries {
		e := &t.entries[i]
		if e.key != nil && !e.key.IsMarked() {
			e.key = nil
			e.value = BoolVal(true)
		}
	}
}

// Each calls fn for every live entry. Used by the collector to mark all
// keys and values reachable through a table.
func (t *Table) Each(fn func(key *ObjString, value Value)) {
	for i := range t.entries {
		e := &t.entries[i]
		if e.key != nil {
			fn(e.key, e.value)
		}
	}
}
