package generic

// Void is the zero-size value stored in a Set.
type Void = struct{}

type Set[T comparable] interface {
	Add(items ...T) int
	Contains(items ...T) bool
	ToSlice() []T
}

func NewSet[T comparable](items ...T) Set[T] {
	res := make(set[T], len(items))
	res.Add(items...)
	return res
}

type set[T comparable] map[T]Void

// Add inserts items into the set, returning how many were not already present.
func (s set[T]) Add(items ...T) int {
	added := 0
	for _, item := range items {
		if _, found := s[item]; !found {
			s[item] = Void{}
			added++
		}
	}
	return added
}

// Contains returns true only if every one of items is in the set.
func (s set[T]) Contains(items ...T) bool {
	for _, item := range items {
		if _, found := s[item]; !found {
			return false
		}
	}
	return true
}

func (s set[T]) ToSlice() []T {
	slice := make([]T, 0, len(s))
	for item := range s {
		slice = append(slice, item)
	}
	return slice
}
