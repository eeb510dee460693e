package fastser

// Presence is the bit flag collected by ConstructWithMeta.
type Presence uint8

const (
	PresenceSeen           Presence = 1 << iota // Field appeared in the input.
	PresenceWasNull                             // Field value was null.
	PresenceDefaultApplied                      // Default value was applied.
)

// PresenceMap maps JSON Pointers to Presence flags.
type PresenceMap map[string]Presence

// Decoded carries the constructed value along with presence metadata.
type Decoded[T any] struct {
	Value    T
	Presence PresenceMap
}

// Mark ORs flags into the entry at path.
func (pm PresenceMap) Mark(path string, p Presence) {
	if pm != nil {
		pm[path] |= p
	}
}

// Set reports whether the input explicitly supplied path (including null).
func (pm PresenceMap) Set(path string) bool {
	return pm[path]&(PresenceSeen|PresenceWasNull) != 0
}

// DefaultOnly reports whether path was materialized only by a default.
func (pm PresenceMap) DefaultOnly(path string) bool {
	p := pm[path]
	return p&PresenceDefaultApplied != 0 && p&(PresenceSeen|PresenceWasNull) == 0
}

// Merge ORs other into pm under prefix (a JSON Pointer, "" for root).
func (pm PresenceMap) Merge(prefix string, other PresenceMap) {
	for k, v := range other {
		if k == "/" {
			k = ""
		}
		if prefix+k == "" {
			pm["/"] |= v
			continue
		}
		pm[prefix+k] |= v
	}
}
