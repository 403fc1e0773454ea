package dialog

import (
	"errors"
	"fmt"

	"github.com/m3rciful/postbot/core/telegram/callbacks"
	"github.com/m3rciful/postbot/market/i18n"
	"github.com/m3rciful/postbot/market/listings"
)

// Callback tags carried in inline button data.
const (
	TagLang       = "lang"
	TagSwitchLang = "switchlang"
	TagCategories = "categories"
	TagBack       = "back"
	TagAllPosts   = "allposts"
	TagCategory   = "cat"
	TagView       = "view"
	TagCreate     = "create"
	TagTier       = "tier"
	TagCancel     = "cancel"
	TagDelete     = "delete"
	TagProfile    = "profile"
	TagTopUp      = "topup"
)

// Tags lists every callback tag Decode understands.
func Tags() []string {
	return []string{
		TagLang, TagSwitchLang, TagCategories, TagBack, TagAllPosts, TagCategory, TagView,
		TagCreate, TagTier, TagCancel, TagDelete, TagProfile, TagTopUp,
	}
}

var (
	// ErrUnknownTag is returned for callback tags no action uses.
	ErrUnknownTag = errors.New("dialog: unknown callback tag")
	// ErrBadPayload is returned when the payload does not fit the tag.
	ErrBadPayload = errors.New("dialog: malformed callback payload")
)

const tierSep = ":"

// Encode returns the callback tag and payload of a button action.
// ok is false for actions that cannot be attached to a button.
func Encode(a Action) (tag, payload string, ok bool) {
	switch a := a.(type) {
	case ChooseLocale:
		return TagLang, a.Locale, true
	case ToggleLocale:
		return TagSwitchLang, "", true
	case ShowCategories:
		return TagCategories, "", true
	case ShowAll:
		return TagAllPosts, "", true
	case OpenCategory:
		return TagCategory, string(a.Category), true
	case OpenListing:
		return TagView, a.ID, true
	case RequestCreate:
		return TagCreate, string(a.Category), true
	case ChooseTier:
		return TagTier, string(a.Category) + tierSep + a.Tier.Code, true
	case CancelCreate:
		return TagCancel, string(a.Category), true
	case DeleteListing:
		return TagDelete, a.ID, true
	case Profile:
		return TagProfile, "", true
	case TopUpInfo:
		return TagTopUp, "", true
	}
	return "", "", false
}

// Decode turns callback data back into an action.
func Decode(tag, payload string) (Action, error) {
	switch tag {
	case TagLang:
		return ChooseLocale{Locale: i18n.Normalize(payload)}, nil
	case TagSwitchLang:
		return ToggleLocale{}, nil
	case TagCategories, TagBack:
		return ShowCategories{}, nil
	case TagAllPosts:
		return ShowAll{}, nil
	case TagProfile:
		return Profile{}, nil
	case TagTopUp:
		return TopUpInfo{}, nil
	case TagView, TagDelete:
		if payload == "" {
			return nil, fmt.Errorf("%w: %s without id", ErrBadPayload, tag)
		}
		if tag == TagView {
			return OpenListing{ID: payload}, nil
		}
		return DeleteListing{ID: payload}, nil
	case TagCategory, TagCreate, TagCancel:
		cat, err := decodeCategory(payload)
		if err != nil {
			return nil, err
		}
		switch tag {
		case TagCategory:
			return OpenCategory{Category: cat}, nil
		case TagCreate:
			return RequestCreate{Category: cat}, nil
		default:
			return CancelCreate{Category: cat}, nil
		}
	case TagTier:
		parts, err := callbacks.SplitPayload(payload, tierSep)
		if err != nil || len(parts) != 2 {
			return nil, fmt.Errorf("%w: tier %q", ErrBadPayload, payload)
		}
		cat, err := decodeCategory(parts[0])
		if err != nil {
			return nil, err
		}
		tier, ok := listings.TierByCode(parts[1])
		if !ok {
			return nil, fmt.Errorf("%w: unknown tier %q", ErrBadPayload, parts[1])
		}
		return ChooseTier{Category: cat, Tier: tier}, nil
	}
	return nil, fmt.Errorf("%w: %q", ErrUnknownTag, tag)
}

func decodeCategory(s string) (listings.Category, error) {
	cat, ok := listings.ParseCategory(s)
	if !ok {
		return "", fmt.Errorf("%w: unknown category %q", ErrBadPayload, s)
	}
	return cat, nil
}
