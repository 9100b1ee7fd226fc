// Package lang enumerates the dialects of the C0 language family.
package lang

import (
	"fmt"
	"path/filepath"
	"strings"
)

// Lang is a dialect tier. Tiers are totally ordered: every construct legal
// in a tier is legal in all later tiers.
type Lang int

const (
	L1 Lang = iota + 1
	L2
	L3
	L4
	C0
	C1
)

var names = map[Lang]string{
	L1: "L1",
	L2: "L2",
	L3: "L3",
	L4: "L4",
	C0: "C0",
	C1: "C1",
}

func (l Lang) String() string {
	if n, ok := names[l]; ok {
		return n
	}
	return "Unknown"
}

// AtLeast reports whether l includes every construct of min.
func (l Lang) AtLeast(min Lang) bool {
	return l >= min
}

// HasContracts reports whether the dialect accepts annotations.
func (l Lang) HasContracts() bool {
	return l >= C0
}

// All returns every dialect in tier order.
func All() []Lang {
	return []Lang{L1, L2, L3, L4, C0, C1}
}

// Parse resolves a dialect name such as "c0" or "L3".
func Parse(s string) (Lang, error) {
	for l, n := range names {
		if strings.EqualFold(n, s) {
			return l, nil
		}
	}
	return 0, fmt.Errorf("unknown language %q (expected one of l1, l2, l3, l4, c0, c1)", s)
}

// FromPath infers the dialect from a file extension. Library headers (.h0)
// are treated as C1.
func FromPath(path string) (Lang, bool) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".l1":
		return L1, true
	case ".l2":
		return L2, true
	case ".l3":
		return L3, true
	case ".l4":
		return L4, true
	case ".c0":
		return C0, true
	case ".c1", ".h0":
		return C1, true
	}
	return 0, false
}
