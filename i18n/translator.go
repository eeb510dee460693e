package i18n

import (
	"strings"
	"sync"
)

// Translator retrieves localized messages for issue codes.
// data fills `{name}` placeholders in the message (for example "expected",
// "min" or "got").
type Translator interface {
	Message(code string, data map[string]string) string
}

// dictTranslator is the built-in dictionary-based Translator.
type dictTranslator struct{ lang string }

func (t dictTranslator) Message(code string, data map[string]string) string {
	dict, ok := dictionaries[t.lang]
	if !ok {
		dict = dictionaries["en"]
	}
	msg, ok := dict[code]
	if !ok {
		// fall back to English before falling back to the raw code
		if msg, ok = dictionaries["en"][code]; !ok {
			return code
		}
	}
	return fill(msg, data)
}

func fill(msg string, data map[string]string) string {
	if len(data) == 0 || !strings.Contains(msg, "{") {
		return msg
	}
	pairs := make([]string, 0, len(data)*2)
	for k, v := range data {
		pairs = append(pairs, "{"+k+"}", v)
	}
	return strings.NewReplacer(pairs...).Replace(msg)
}

var (
	mu                sync.RWMutex
	currentLang                  = "en"
	currentTranslator Translator = dictTranslator{lang: "en"}
)

// SetLanguage switches the built-in Translator language ("en", "zh", "ja").
// Unknown languages fall back to English.
func SetLanguage(lang string) {
	lang = normalize(lang)
	mu.Lock()
	currentLang = lang
	currentTranslator = dictTranslator{lang: lang}
	mu.Unlock()
}

// Language reports the language selected with SetLanguage.
func Language() string {
	mu.RLock()
	defer mu.RUnlock()
	return currentLang
}

// SetTranslator replaces the Translator implementation (not limited to the
// dictionary version). nil restores the English dictionary.
func SetTranslator(tr Translator) {
	mu.Lock()
	defer mu.Unlock()
	if tr == nil {
		currentLang = "en"
		currentTranslator = dictTranslator{lang: "en"}
		return
	}
	currentTranslator = tr
}

// T fetches a message for the given code using the current Translator.
func T(code string, data map[string]string) string {
	mu.RLock()
	tr := currentTranslator
	mu.RUnlock()
	return tr.Message(code, data)
}

func normalize(lang string) string {
	l := strings.ToLower(lang)
	switch {
	case strings.HasPrefix(l, "zh"):
		return "zh"
	case strings.HasPrefix(l, "ja"):
		return "ja"
	default:
		return "en"
	}
}
