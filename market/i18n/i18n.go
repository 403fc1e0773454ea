// Package i18n holds the bot's user-facing strings in English and Russian.
package i18n

import (
	"embed"
	"fmt"
	"path"
	"strings"
	"time"
	"unicode/utf8"

	"gopkg.in/yaml.v3"

	"github.com/m3rciful/postbot/market/listings"
)

const (
	// EN is the default locale.
	EN = "en"
	// RU is the alternative locale.
	RU = "ru"
)

// PreviewRunes is the longest body shown verbatim on a listing button.
const PreviewRunes = 30

// Params are placeholder values substituted into a message.
type Params map[string]any

//go:embed locales/*.yaml
var localeFS embed.FS

var tables = mustLoad(EN, RU)

func mustLoad(locales ...string) map[string]map[string]string {
	out := make(map[string]map[string]string, len(locales))
	for _, loc := range locales {
		data, err := localeFS.ReadFile(path.Join("locales", loc+".yaml"))
		if err != nil {
			panic(fmt.Sprintf("i18n: read %s: %v", loc, err))
		}
		table := make(map[string]string)
		if err := yaml.Unmarshal(data, &table); err != nil {
			panic(fmt.Sprintf("i18n: parse %s: %v", loc, err))
		}
		out[loc] = table
	}
	return out
}

// Locales lists the supported locales.
func Locales() []string {
	return []string{EN, RU}
}

// Normalize maps unknown locales to EN.
func Normalize(locale string) string {
	if _, ok := tables[locale]; ok {
		return locale
	}
	return EN
}

// Toggle flips between the two supported locales.
func Toggle(locale string) string {
	if Normalize(locale) == EN {
		return RU
	}
	return EN
}

// Translate looks key up in locale, falling back to English and then to the key itself.
func Translate(key, locale string, params Params) string {
	msg, ok := tables[Normalize(locale)][key]
	if !ok {
		if msg, ok = tables[EN][key]; !ok {
			return key
		}
	}
	if len(params) == 0 {
		return msg
	}
	pairs := make([]string, 0, 2*len(params))
	for k, v := range params {
		pairs = append(pairs, "{"+k+"}", fmt.Sprint(v))
	}
	return strings.NewReplacer(pairs...).Replace(msg)
}

// CategoryLabel is the localized category name.
func CategoryLabel(c listings.Category, locale string) string {
	return Translate("category."+string(c), locale, nil)
}

var categoryEmoji = map[listings.Category]string{
	listings.ComputerServices: "💻",
	listings.Massage:          "💆",
	listings.CleanHouse:       "🧹",
	listings.CleanStorageArea: "📦",
	listings.Makeup:           "💄",
	listings.Nails:            "💅",
}

// CategoryEmoji is the icon shown next to a category.
func CategoryEmoji(c listings.Category) string {
	return categoryEmoji[c]
}

// FormatDuration renders whole hours and minutes, e.g. "2h 5m" or "2ч 5м".
func FormatDuration(d time.Duration, locale string) string {
	if d < 0 {
		d = 0
	}
	mins := int(d / time.Minute)
	h, m := mins/60, mins%60
	switch {
	case h > 0 && m > 0:
		return Translate("duration_hm", locale, Params{"h": h, "m": m})
	case h > 0:
		return Translate("duration_h", locale, Params{"h": h})
	default:
		return Translate("duration_m", locale, Params{"m": m})
	}
}

// Preview shortens a listing body for a button label.
func Preview(text string) string {
	text = strings.Join(strings.Fields(text), " ")
	if utf8.RuneCountInString(text) <= PreviewRunes {
		return text
	}
	r := []rune(text)
	return string(r[:PreviewRunes-3]) + "..."
}
