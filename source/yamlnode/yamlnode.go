// Package yamlnode replays a decoded yaml.v3 node tree as engine tokens, so
// YAML input goes through the same enforcement and number handling as JSON.
package yamlnode

import (
	"fmt"
	"io"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"

	eng "github.com/reoring/fastser/internal/engine"
)

type source struct {
	toks []eng.Token
	err  error // returned once toks are drained
	next int
}

// New flattens n. Errors found while walking (non-scalar mapping keys,
// undecodable scalars) surface from NextToken at the point they occur.
func New(n *yaml.Node) eng.TokenSource {
	s := &source{}
	s.err = s.walk(n)
	if s.err == nil {
		s.err = io.EOF
	}
	return s
}

// Location is unknown: the tree no longer carries byte offsets.
func (s *source) Location() int64 { return -1 }

func (s *source) NextToken() (eng.Token, error) {
	if s.next < len(s.toks) {
		t := s.toks[s.next]
		s.next++
		return t, nil
	}
	return eng.Token{}, s.err
}

func (s *source) emit(t eng.Token) {
	t.Offset = -1
	s.toks = append(s.toks, t)
}

func (s *source) walk(n *yaml.Node) error {
	switch n.Kind {
	case 0:
		s.emit(eng.Token{Kind: eng.KindNull})
		return nil
	case yaml.DocumentNode:
		if len(n.Content) == 0 {
			s.emit(eng.Token{Kind: eng.KindNull})
			return nil
		}
		return s.walk(n.Content[0])
	case yaml.AliasNode:
		return s.walk(n.Alias)
	case yaml.MappingNode:
		s.emit(eng.Token{Kind: eng.KindBeginObject})
		for i := 0; i+1 < len(n.Content); i += 2 {
			k := n.Content[i]
			if k.Kind != yaml.ScalarNode {
				return fmt.Errorf("line %d: non-scalar mapping key", k.Line)
			}
			s.emit(eng.Token{Kind: eng.KindKey, String: k.Value})
			if err := s.walk(n.Content[i+1]); err != nil {
				return err
			}
		}
		s.emit(eng.Token{Kind: eng.KindEndObject})
		return nil
	case yaml.SequenceNode:
		s.emit(eng.Token{Kind: eng.KindBeginArray})
		for _, c := range n.Content {
			if err := s.walk(c); err != nil {
				return err
			}
		}
		s.emit(eng.Token{Kind: eng.KindEndArray})
		return nil
	}
	return s.scalar(n)
}

func (s *source) scalar(n *yaml.Node) error {
	var v any
	if err := n.Decode(&v); err != nil {
		return fmt.Errorf("line %d: %w", n.Line, err)
	}
	switch x := v.(type) {
	case nil:
		s.emit(eng.Token{Kind: eng.KindNull})
	case bool:
		s.emit(eng.Token{Kind: eng.KindBool, Bool: x})
	case int:
		s.emit(eng.Token{Kind: eng.KindNumber, Number: strconv.Itoa(x)})
	case int64:
		s.emit(eng.Token{Kind: eng.KindNumber, Number: strconv.FormatInt(x, 10)})
	case uint64:
		s.emit(eng.Token{Kind: eng.KindNumber, Number: strconv.FormatUint(x, 10)})
	case float64:
		s.emit(eng.Token{Kind: eng.KindNumber, Number: strconv.FormatFloat(x, 'g', -1, 64)})
	case string:
		s.emit(eng.Token{Kind: eng.KindString, String: x})
	case time.Time:
		// timestamps stay text; coercion reads them
		s.emit(eng.Token{Kind: eng.KindString, String: n.Value})
	default:
		s.emit(eng.Token{Kind: eng.KindString, String: n.Value})
	}
	return nil
}
