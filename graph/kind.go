package graph

import (
	"encoding/binary"
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/cespare/xxhash/v2"
)

// String represents a database-safe code-to-symbol mapping that negotiates to a string.
type String interface {
	String() string
}

// Kind names a category of graph elements. In a graph view every vertex label and every edge label is a Kind.
// Simple constant enumerations are encouraged when satisfying the Kind contract.
type Kind interface {
	String

	// Is returns true if the other Kind matches the Kind represented by this interface.
	Is(other ...Kind) bool
}

// Kinds is a type alias for []Kind that adds some additional convenience receiver functions.
type Kinds []Kind

func (s Kinds) Copy() Kinds {
	var kindsCopy Kinds

	if s != nil {
		kindsCopy = make(Kinds, len(s))
		copy(kindsCopy, s)
	}

	return kindsCopy
}

func (s Kinds) Add(kinds ...Kind) Kinds {
	ref := s

	for _, kind := range kinds {
		if !ref.ContainsOneOf(kind) {
			ref = append(ref, kind)
		}
	}

	return ref
}

// IndexOf returns the position of the given kind or -1 if it is not present.
func (s Kinds) IndexOf(kind Kind) int {
	for idx, next := range s {
		if next != nil && next.Is(kind) {
			return idx
		}
	}

	return -1
}

func (s Kinds) Strings() []string {
	kindStrings := make([]string, len(s))
	for idx := 0; idx < len(s); idx++ {
		kindStrings[idx] = s[idx].String()
	}

	return kindStrings
}

func (s Kinds) Formatted() string {
	return strings.Join(s.Strings(), ",")
}

// ContainsOneOf returns true if the Kinds contains one of the given Kind types or false if it does not.
func (s Kinds) ContainsOneOf(others ...Kind) bool {
	for _, kind := range s {
		if kind == nil {
			continue
		}
		if kind.Is(others...) {
			return true
		}
	}

	return false
}

// HashInto writes a deterministic, order-independent encoding of the Kinds into the given digest.
func (s Kinds) HashInto(h *xxhash.Digest) error {
	if len(s) == 0 {
		return nil
	}

	ks := s.Strings()
	sort.Strings(ks)

	var lenbuf [binary.MaxVarintLen64]byte

	for i := range ks {
		kind := ks[i]

		// frame kinds with a length-prefix to prevent collisions like: ["ab","c"] === ["a","bc"]
		n := binary.PutUvarint(lenbuf[:], uint64(len(kind)))
		if _, err := h.Write(lenbuf[:n]); err != nil {
			return fmt.Errorf("writing length prefix: %w", err)
		}

		if _, err := h.WriteString(kind); err != nil {
			return fmt.Errorf("writing kind to hash: %w", err)
		}
	}

	return nil
}

// Hash returns the xxhash sum of the Kinds in sorted order.
func (s Kinds) Hash() uint64 {
	digest := xxhash.New()

	// Writes into an xxhash digest never fail
	_ = s.HashInto(digest)
	return digest.Sum64()
}

var (
	kindCache = &sync.Map{}
	EmptyKind = StringKind("")
)

func StringKind(str string) Kind {
	var (
		kind          = stringKind(str)
		cachedKind, _ = kindCache.LoadOrStore(str, &kind)
	)

	return cachedKind.(Kind)
}

func StringsToKinds(strs []string) Kinds {
	kinds := make(Kinds, len(strs))

	for idx := 0; idx < len(strs); idx++ {
		kinds[idx] = StringKind(strs[idx])
	}

	return kinds
}

// ParseKinds splits a comma separated list of kind names, trimming whitespace and skipping empty entries.
func ParseKinds(formatted string) Kinds {
	var kinds Kinds

	for _, part := range strings.Split(formatted, ",") {
		if trimmed := strings.TrimSpace(part); trimmed != "" {
			kinds = kinds.Add(StringKind(trimmed))
		}
	}

	return kinds
}

type stringKind string

func (s stringKind) String() string {
	return string(s)
}

func (s stringKind) Is(other ...Kind) bool {
	for idx := 0; idx < len(other); idx++ {
		if other[idx] != nil && s.String() == other[idx].String() {
			return true
		}
	}

	return false
}
