package fastser

import (
	"fmt"
	"strconv"
	"strings"
)

// PathRef builds JSON Pointer paths in a chain-safe way and creates Issues.
type PathRef struct {
	parts []string
}

// Root returns the empty path ("/").
func Root() PathRef { return PathRef{} }

// At parses a JSON Pointer into a PathRef.
func At(pointer string) PathRef {
	var p PathRef
	for _, s := range strings.Split(pointer, "/") {
		if s != "" {
			p.parts = append(p.parts, s)
		}
	}
	return p
}

var pointerEscaper = strings.NewReplacer("~", "~0", "/", "~1")

// Field appends an object key, escaping '~' and '/' per RFC 6901.
func (p PathRef) Field(name string) PathRef {
	if name == "" {
		return p
	}
	return PathRef{parts: append(p.parts[:len(p.parts):len(p.parts)], pointerEscaper.Replace(name))}
}

// Index appends an array index.
func (p PathRef) Index(i int) PathRef {
	return PathRef{parts: append(p.parts[:len(p.parts):len(p.parts)], strconv.Itoa(i))}
}

// Pointer renders the path; the root is "/".
func (p PathRef) Pointer() string {
	if len(p.parts) == 0 {
		return "/"
	}
	return "/" + strings.Join(p.parts, "/")
}

// Prefix renders the path for concatenation; the root is "".
func (p PathRef) Prefix() string {
	if len(p.parts) == 0 {
		return ""
	}
	return p.Pointer()
}

// Issue creates an Issue at this path. kv is a flat list of param pairs.
func (p PathRef) Issue(code, msg string, kv ...any) Issue {
	var m map[string]any
	if len(kv) > 1 {
		m = make(map[string]any, len(kv)/2)
		for i := 0; i+1 < len(kv); i += 2 {
			m[fmt.Sprint(kv[i])] = kv[i+1]
		}
	}
	return Issue{Path: p.Pointer(), Code: code, Message: msg, Params: m}
}
