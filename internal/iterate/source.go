// Package iterate adapts arbitrary iterable values into the ordered,
// flag-annotated item sequence the engine replays an iterated subtree over.
package iterate

import (
	"fmt"
	"reflect"
	"sort"
)

// Status describes one item's position within its iteration. It is bound
// next to the iteration variable in each item's scope level.
type Status struct {
	// Index is the 0-based position of the item.
	Index int
	// Count is the 1-based position of the item.
	Count int
	// Size is the total number of items.
	Size int
	// Current is the item itself.
	Current any
	// First is true only for the first item.
	First bool
	// Last is true only for the last item.
	Last bool
	// Even and Odd derive from Count, so the first item is odd.
	Even bool
	Odd  bool
}

// Source is a materialized, ordered iteration source.
type Source struct {
	items []any
}

// New adapts an arbitrary value into a Source:
//
//   - nil yields zero items
//   - slices and arrays iterate in order
//   - maps iterate key-sorted (by formatted key) for determinism, yielding
//     Entry values
//   - anything else iterates as a single item
func New(value any) *Source {
	if value == nil {
		return &Source{}
	}
	if s, ok := value.(*Source); ok {
		return s
	}
	rv := reflect.ValueOf(value)
	switch rv.Kind() {
	case reflect.Slice, reflect.Array:
		items := make([]any, rv.Len())
		for i := 0; i < rv.Len(); i++ {
			items[i] = rv.Index(i).Interface()
		}
		return &Source{items: items}
	case reflect.Map:
		keys := rv.MapKeys()
		sort.Slice(keys, func(i, j int) bool {
			return fmt.Sprint(keys[i].Interface()) < fmt.Sprint(keys[j].Interface())
		})
		items := make([]any, len(keys))
		for i, k := range keys {
			items[i] = Entry{Key: k.Interface(), Value: rv.MapIndex(k).Interface()}
		}
		return &Source{items: items}
	default:
		return &Source{items: []any{value}}
	}
}

// Entry is one map item.
type Entry struct {
	Key   any
	Value any
}

// Len returns the item count. Sources are materialized, so the count is
// always cheap.
func (s *Source) Len() int {
	return len(s.items)
}

// Item returns the i-th item together with its position flags.
func (s *Source) Item(i int) (any, Status) {
	item := s.items[i]
	count := i + 1
	return item, Status{
		Index:   i,
		Count:   count,
		Size:    len(s.items),
		Current: item,
		First:   i == 0,
		Last:    i == len(s.items)-1,
		Even:    count%2 == 0,
		Odd:     count%2 != 0,
	}
}
