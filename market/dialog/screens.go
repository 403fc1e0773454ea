package dialog

import (
	"strings"
	"time"

	"github.com/m3rciful/postbot/market/i18n"
	"github.com/m3rciful/postbot/market/listings"
	"github.com/m3rciful/postbot/market/ledger"
)

func tr(loc, key string, params ...i18n.Params) string {
	var p i18n.Params
	if len(params) > 0 {
		p = params[0]
	}
	return i18n.Translate(key, loc, p)
}

func text(s string) Message {
	return Message{Text: s}
}

func localeScreen() []Message {
	return []Message{{
		Text: tr(i18n.EN, "choose_lang"),
		Keyboard: Keyboard{{
			Btn(tr(i18n.EN, "lang_en"), ChooseLocale{Locale: i18n.EN}),
			Btn(tr(i18n.EN, "lang_ru"), ChooseLocale{Locale: i18n.RU}),
		}},
	}}
}

func categoriesScreen(loc string) []Message {
	kb := make(Keyboard, 0, len(listings.Categories())+2)
	for _, c := range listings.Categories() {
		kb = append(kb, []Button{Btn(i18n.CategoryEmoji(c)+" "+i18n.CategoryLabel(c, loc), OpenCategory{Category: c})})
	}
	kb = append(kb,
		[]Button{Btn(tr(loc, "all_posts_button"), ShowAll{})},
		[]Button{
			Btn(tr(loc, "profile_button"), Profile{}),
			Btn(tr(loc, "switch_lang_button"), ToggleLocale{}),
		},
	)
	return []Message{{Text: tr(loc, "choose_category"), Keyboard: kb}}
}

func listingButton(l listings.Listing) []Button {
	return []Button{Btn(i18n.CategoryEmoji(l.Category)+" "+i18n.Preview(l.Body), OpenListing{ID: l.ID})}
}

func allListingsScreen(loc string, items []listings.Listing) []Message {
	kb := make(Keyboard, 0, len(items)+1)
	for _, l := range items {
		kb = append(kb, listingButton(l))
	}
	kb = append(kb, []Button{
		Btn(tr(loc, "profile_button"), Profile{}),
		Btn(tr(loc, "categories"), ShowCategories{}),
	})
	return []Message{{Text: tr(loc, "all_posts"), Keyboard: kb}}
}

func categoryScreen(loc string, cat listings.Category, items []listings.Listing) []Message {
	label := i18n.CategoryLabel(cat, loc)
	key := "posts_in"
	if len(items) == 0 {
		key = "no_posts"
	}
	kb := make(Keyboard, 0, len(items)+2)
	for _, l := range items {
		kb = append(kb, listingButton(l))
	}
	kb = append(kb,
		[]Button{Btn(tr(loc, "create_post"), RequestCreate{Category: cat})},
		[]Button{Btn(tr(loc, "back"), ShowCategories{})},
	)
	return []Message{{Text: tr(loc, key, i18n.Params{"cat": label}), Keyboard: kb}}
}

func listingScreen(loc string, l listings.Listing, viewerID int64, now time.Time) []Message {
	lines := []string{
		tr(loc, "category_line", i18n.Params{"cat": i18n.CategoryLabel(l.Category, loc)}),
		"",
		l.Body,
		"",
		tr(loc, "created_ago", i18n.Params{"time_ago": i18n.FormatDuration(now.Sub(l.CreatedAt), loc)}),
		tr(loc, "expires_in", i18n.Params{"time_left": i18n.FormatDuration(l.TimeLeft(now), loc)}),
	}
	if l.CreatorHandle != "" {
		lines = append(lines, tr(loc, "contact_link", i18n.Params{"handle": l.CreatorHandle}))
	} else {
		lines = append(lines, tr(loc, "contact_none"))
	}

	var kb Keyboard
	if l.CreatorID == viewerID {
		kb = append(kb, []Button{Btn(tr(loc, "delete_post"), DeleteListing{ID: l.ID})})
	}
	kb = append(kb, []Button{Btn(tr(loc, "back"), OpenCategory{Category: l.Category})})
	return []Message{{Text: strings.Join(lines, "\n"), Keyboard: kb}}
}

func notFoundScreen(loc string) []Message {
	return []Message{{
		Text:     tr(loc, "post_not_found"),
		Keyboard: Keyboard{{Btn(tr(loc, "back"), ShowCategories{})}},
	}}
}

func deletedScreen(loc string, cat listings.Category) []Message {
	return []Message{{
		Text:     tr(loc, "post_deleted"),
		Keyboard: Keyboard{{Btn(tr(loc, "back"), OpenCategory{Category: cat})}},
	}}
}

func tierScreen(loc string, cat listings.Category) []Message {
	row := make([]Button, 0, len(listings.Tiers()))
	for _, t := range listings.Tiers() {
		label := tr(loc, "tier_button", i18n.Params{"duration": i18n.FormatDuration(t.Duration, loc), "price": t.Price})
		row = append(row, Btn(label, ChooseTier{Category: cat, Tier: t}))
	}
	return []Message{{
		Text:     tr(loc, "choose_tier"),
		Keyboard: Keyboard{row, {Btn(tr(loc, "back"), OpenCategory{Category: cat})}},
	}}
}

func promptBodyScreen(loc string, cat listings.Category, d time.Duration) []Message {
	return []Message{{
		Text: tr(loc, "send_post_text", i18n.Params{
			"cat":      i18n.CategoryLabel(cat, loc),
			"duration": i18n.FormatDuration(d, loc),
		}),
		Keyboard: Keyboard{{Btn(tr(loc, "cancel"), CancelCreate{Category: cat})}},
	}}
}

func insufficientScreen(loc string, cat listings.Category) []Message {
	return []Message{{
		Text: tr(loc, "insufficient_funds"),
		Keyboard: Keyboard{
			{Btn(tr(loc, "topup_button"), TopUpInfo{})},
			{Btn(tr(loc, "cancel"), CancelCreate{Category: cat})},
		},
	}}
}

func createdScreen(loc string, l listings.Listing, d time.Duration) []Message {
	created := tr(loc, "post_created", i18n.Params{"id": shortID(l.ID), "duration": i18n.FormatDuration(d, loc)})
	return []Message{
		text(created + "\n\n" + tr(loc, "successfully_listed")),
		{Text: "✅", Keyboard: Keyboard{{Btn(tr(loc, "back"), ShowCategories{})}}},
	}
}

func failureScreen(loc string) []Message {
	return []Message{{
		Text:     tr(loc, "try_again"),
		Keyboard: Keyboard{{Btn(tr(loc, "back"), ShowCategories{})}},
	}}
}

func profileScreen(loc string, userID int64, balance int64, mine []listings.Listing, now time.Time) []Message {
	lines := []string{
		tr(loc, "profile_title"),
		tr(loc, "profile_user_id", i18n.Params{"id": userID}),
		tr(loc, "wallet", i18n.Params{"amount": balance}),
	}

	counts := make(map[listings.Category]int, len(mine))
	for _, l := range mine {
		counts[l.Category]++
	}
	if len(mine) == 0 {
		lines = append(lines, tr(loc, "no_posts_user"))
	}
	for _, c := range listings.Categories() {
		if n := counts[c]; n > 0 {
			lines = append(lines, tr(loc, "posts_count_line", i18n.Params{"cat": i18n.CategoryLabel(c, loc), "count": n}))
		}
	}
	for _, l := range mine {
		lines = append(lines, tr(loc, "post_line", i18n.Params{
			"cat":       i18n.CategoryLabel(l.Category, loc),
			"time_left": i18n.FormatDuration(l.TimeLeft(now), loc),
		}))
	}

	return []Message{{
		Text: strings.Join(lines, "\n"),
		Keyboard: Keyboard{
			{Btn(tr(loc, "topup_button"), TopUpInfo{})},
			{Btn(tr(loc, "back"), ShowCategories{})},
		},
	}}
}

func topUpScreen(loc, contact string) []Message {
	return []Message{{
		Text:     tr(loc, "topup_contact", i18n.Params{"contact": contact}),
		Keyboard: Keyboard{{Btn(tr(loc, "back"), Profile{})}},
	}}
}

func usersScreen(loc string, wallets []ledger.Wallet) []Message {
	if len(wallets) == 0 {
		return []Message{text(tr(loc, "admin_no_users"))}
	}
	lines := make([]string, 0, len(wallets)+1)
	lines = append(lines, tr(loc, "admin_users_header", i18n.Params{"count": len(wallets)}))
	for _, w := range wallets {
		lines = append(lines, tr(loc, "admin_user_line", i18n.Params{"id": w.UserID, "balance": w.Balance}))
	}
	return []Message{text(strings.Join(lines, "\n"))}
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}
