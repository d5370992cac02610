package interp

import (
	"math"
	"strconv"
	"strings"
)

// hashKey maps a hashable value to a comparable key. Values that compare equal in
// Python (1, 1.0 and True) share a key.
func hashKey(v Value) (string, error) {
	var b strings.Builder
	if err := writeKey(&b, v); err != nil {
		return "", err
	}
	return b.String(), nil
}

func writeKey(b *strings.Builder, v Value) error {
	switch x := v.(type) {
	case Int:
		b.WriteString("i")
		b.WriteString(strconv.FormatInt(int64(x), 10))
	case Bool:
		if x {
			b.WriteString("i1")
		} else {
			b.WriteString("i0")
		}
	case Float:
		f := float64(x)
		if f == math.Trunc(f) && math.Abs(f) < 1<<63 {
			b.WriteString("i")
			b.WriteString(strconv.FormatInt(int64(f), 10))
			return nil
		}
		b.WriteString("f")
		b.WriteString(strconv.FormatFloat(f, 'g', -1, 64))
	case Str:
		b.WriteString("s")
		b.WriteString(strconv.Quote(string(x)))
	case NoneType:
		b.WriteString("n")
	case Tuple:
		b.WriteString("t(")
		for _, it := range x {
			if err := writeKey(b, it); err != nil {
				return err
			}
			b.WriteString(",")
		}
		b.WriteString(")")
	case *Range:
		b.WriteString("r")
		b.WriteString(strconv.FormatInt(x.Start, 10) + ":" + strconv.FormatInt(x.Stop, 10) + ":" + strconv.FormatInt(x.Step, 10))
	default:
		return typeErrorf("unhashable type: '%s'", v.Type())
	}
	return nil
}

// DictEntry is one key/value pair.
type DictEntry struct {
	Key   Value
	Value Value
}

// Dict is an insertion-ordered hash map.
type Dict struct {
	entries []DictEntry
	live    []bool
	index   map[string]int
	size    int
	// version changes on every insertion or deletion so iterators can detect resizes
	version int
}

// NewDict creates an empty dict.
func NewDict() *Dict {
	return &Dict{index: make(map[string]int)}
}

func (*Dict) Type() string     { return "dict" }
func (d *Dict) String() string { return Repr(d) }
func (d *Dict) Len() int       { return d.size }

// Get returns the value stored under key.
func (d *Dict) Get(key Value) (Value, bool, error) {
	k, err := hashKey(key)
	if err != nil {
		return nil, false, err
	}
	i, ok := d.index[k]
	if !ok {
		return nil, false, nil
	}
	return d.entries[i].Value, true, nil
}

// Set stores value under key, keeping the original insertion position of an existing key.
func (d *Dict) Set(key, value Value) error {
	k, err := hashKey(key)
	if err != nil {
		return err
	}
	if i, ok := d.index[k]; ok {
		d.entries[i].Value = value
		return nil
	}
	d.index[k] = len(d.entries)
	d.entries = append(d.entries, DictEntry{Key: key, Value: value})
	d.live = append(d.live, true)
	d.size++
	d.version++
	return nil
}

// Delete removes key and reports whether it was present.
func (d *Dict) Delete(key Value) (Value, bool, error) {
	k, err := hashKey(key)
	if err != nil {
		return nil, false, err
	}
	i, ok := d.index[k]
	if !ok {
		return nil, false, nil
	}
	old := d.entries[i].Value
	delete(d.index, k)
	d.live[i] = false
	d.entries[i] = DictEntry{}
	d.size--
	d.version++
	if d.size < len(d.entries)/2 {
		d.compact()
	}
	return old, true, nil
}

// Clear removes every entry.
func (d *Dict) Clear() {
	d.entries = nil
	d.live = nil
	d.index = make(map[string]int)
	d.size = 0
	d.version++
}

func (d *Dict) compact() {
	entries := make([]DictEntry, 0, d.size)
	live := make([]bool, 0, d.size)
	for i, e := range d.entries {
		if !d.live[i] {
			continue
		}
		k, _ := hashKey(e.Key)
		d.index[k] = len(entries)
		entries = append(entries, e)
		live = append(live, true)
	}
	d.entries = entries
	d.live = live
}

// Entries returns the live entries in insertion order.
func (d *Dict) Entries() []DictEntry {
	out := make([]DictEntry, 0, d.size)
	for i, e := range d.entries {
		if d.live[i] {
			out = append(out, e)
		}
	}
	return out
}

// Keys returns the keys in insertion order.
func (d *Dict) Keys() []Value {
	out := make([]Value, 0, d.size)
	for _, e := range d.Entries() {
		out = append(out, e.Key)
	}
	return out
}

// Copy returns a shallow copy.
func (d *Dict) Copy() *Dict {
	c := NewDict()
	for _, e := range d.Entries() {
		_ = c.Set(e.Key, e.Value)
	}
	return c
}

func (v *View) items() []Value {
	entries := v.Dict.Entries()
	out := make([]Value, len(entries))
	for i, e := range entries {
		switch v.Kind {
		case "keys":
			out[i] = e.Key
		case "values":
			out[i] = e.Value
		default:
			out[i] = Tuple{e.Key, e.Value}
		}
	}
	return out
}

// Set is a hash set that iterates in insertion order.
type Set struct {
	d *Dict
}

// NewSet creates an empty set.
func NewSet() *Set {
	return &Set{d: NewDict()}
}

func (*Set) Type() string     { return "set" }
func (s *Set) String() string { return Repr(s) }
func (s *Set) Len() int       { return s.d.Len() }

// Add inserts v.
func (s *Set) Add(v Value) error {
	if _, ok, err := s.d.Get(v); err != nil || ok {
		return err
	}
	return s.d.Set(v, None)
}

// Contains reports whether v is a member.
func (s *Set) Contains(v Value) (bool, error) {
	_, ok, err := s.d.Get(v)
	return ok, err
}

// Remove deletes v and reports whether it was present.
func (s *Set) Remove(v Value) (bool, error) {
	_, ok, err := s.d.Delete(v)
	return ok, err
}

// Items returns the members in insertion order.
func (s *Set) Items() []Value {
	return s.d.Keys()
}

// Copy returns a shallow copy.
func (s *Set) Copy() *Set {
	return &Set{d: s.d.Copy()}
}
