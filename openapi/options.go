package openapi

import "fmt"

// Version is the OpenAPI version of exported documents.
const Version = "3.0.3"

// Info describes an exported document.
type Info struct {
	Title       string
	Version     string
	Description string
}

// Diag carries non-fatal warnings produced during export.
type Diag interface {
	HasWarnings() bool
	Warnings() []string
}

type simpleDiag struct{ ws []string }

func (d *simpleDiag) HasWarnings() bool        { return len(d.ws) > 0 }
func (d *simpleDiag) Warnings() []string       { return append([]string(nil), d.ws...) }
func (d *simpleDiag) warnf(f string, a ...any) { d.ws = append(d.ws, fmt.Sprintf(f, a...)) }
