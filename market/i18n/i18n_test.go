package i18n

import (
	"strings"
	"testing"
	"time"

	"github.com/m3rciful/postbot/market/listings"
)

func TestTranslateSubstitutesParams(t *testing.T) {
	got := Translate("no_posts", EN, Params{"cat": "Massage"})
	if got != "No posts yet in Massage." {
		t.Fatalf("got %q", got)
	}
	got = Translate("admin_topup_done", RU, Params{"amount": 20, "id": 7})
	if got != "Topped up 20₽ to user 7." {
		t.Fatalf("ru must fall back to en, got %q", got)
	}
}

func TestTranslateFallbacks(t *testing.T) {
	if got := Translate("back", "de", nil); got != "↩️ Back" {
		t.Fatalf("unknown locale fallback = %q", got)
	}
	if got := Translate("no.such.key", RU, nil); got != "no.such.key" {
		t.Fatalf("unknown key = %q", got)
	}
}

func TestEveryCategoryHasLabelsAndEmoji(t *testing.T) {
	for _, c := range listings.Categories() {
		for _, loc := range Locales() {
			if label := CategoryLabel(c, loc); strings.HasPrefix(label, "category.") {
				t.Fatalf("missing %s label for %s", loc, c)
			}
		}
		if CategoryEmoji(c) == "" {
			t.Fatalf("missing emoji for %s", c)
		}
	}
	if CategoryLabel(listings.Nails, RU) != "Маникюр/Педикюр" {
		t.Fatalf("ru nails = %q", CategoryLabel(listings.Nails, RU))
	}
}

func TestRussianTableCoversEnglishKeys(t *testing.T) {
	for key := range tables[EN] {
		if strings.HasPrefix(key, "admin_") || key == "lang_en" || key == "lang_ru" ||
			key == "switch_lang_button" || key == "tier_button" || key == "profile_user_id" {
			continue
		}
		if _, ok := tables[RU][key]; !ok {
			t.Fatalf("ru table misses %q", key)
		}
	}
}

func TestFormatDuration(t *testing.T) {
	cases := []struct {
		d    time.Duration
		loc  string
		want string
	}{
		{2*time.Hour + 5*time.Minute, EN, "2h 5m"},
		{2 * time.Hour, EN, "2h"},
		{59*time.Minute + 59*time.Second, EN, "59m"},
		{-time.Minute, EN, "0m"},
		{25*time.Hour + time.Minute, RU, "25ч 1м"},
		{3 * time.Hour, RU, "3ч"},
	}
	for _, tc := range cases {
		if got := FormatDuration(tc.d, tc.loc); got != tc.want {
			t.Fatalf("FormatDuration(%s, %s) = %q, want %q", tc.d, tc.loc, got, tc.want)
		}
	}
}

func TestPreview(t *testing.T) {
	if got := Preview("short"); got != "short" {
		t.Fatalf("got %q", got)
	}
	long := strings.Repeat("я", 31)
	got := Preview(long)
	if got != strings.Repeat("я", 27)+"..." {
		t.Fatalf("got %q", got)
	}
	if got := Preview("multi\nline  body"); got != "multi line body" {
		t.Fatalf("whitespace not collapsed: %q", got)
	}
}

func TestToggle(t *testing.T) {
	if Toggle(EN) != RU || Toggle(RU) != EN || Toggle("xx") != RU {
		t.Fatalf("toggle mismatch")
	}
}
