package fastser

import (
	"sync/atomic"

	"github.com/reoring/fastser/i18n"
)

var defaultRequired atomic.Bool

// SetDefaultRequired sets whether fields of models compiled afterwards are
// required unless their tag says otherwise. The default is false.
func SetDefaultRequired(required bool) { defaultRequired.Store(required) }

// DefaultRequired reports the current global default.
func DefaultRequired() bool { return defaultRequired.Load() }

// SetLanguage selects the message language ("en", "zh", "ja").
func SetLanguage(lang string) { i18n.SetLanguage(lang) }
