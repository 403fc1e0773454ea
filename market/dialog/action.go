package dialog

import "github.com/m3rciful/postbot/market/listings"

// Action is a decoded user intent. The set of implementations is closed.
type Action interface {
	isAction()
}

type (
	// Start resets the conversation and offers the language choice.
	Start struct{}
	// ChooseLocale sets the language and lands on all listings.
	ChooseLocale struct{ Locale string }
	// ToggleLocale flips between the two languages.
	ToggleLocale struct{}
	// ShowCategories opens the category menu.
	ShowCategories struct{}
	// ShowAll lists every active listing.
	ShowAll struct{}
	// OpenCategory lists the active listings of one category.
	OpenCategory struct{ Category listings.Category }
	// OpenListing shows a single listing.
	OpenListing struct{ ID string }
	// RequestCreate offers the paid durations for a new listing.
	RequestCreate struct{ Category listings.Category }
	// ChooseTier stashes the creation context and asks for the body.
	ChooseTier struct {
		Category listings.Category
		Tier     listings.Tier
	}
	// CancelCreate drops the creation context.
	CancelCreate struct{ Category listings.Category }
	// DeleteListing removes a listing owned by the viewer.
	DeleteListing struct{ ID string }
	// Profile shows the wallet and the viewer's listings.
	Profile struct{}
	// TopUpInfo tells the user whom to contact for a top-up.
	TopUpInfo struct{}
	// SubmitText is any free-text message.
	SubmitText struct{ Text string }
	// AdminTopUp credits a wallet; Args are the raw command arguments.
	AdminTopUp struct{ Args []string }
	// AdminListUsers lists all wallets.
	AdminListUsers struct{}
	// AdminDenied answers a non-admin calling an admin command.
	AdminDenied struct{}
)

func (Start) isAction()          {}
func (ChooseLocale) isAction()   {}
func (ToggleLocale) isAction()   {}
func (ShowCategories) isAction() {}
func (ShowAll) isAction()        {}
func (OpenCategory) isAction()   {}
func (OpenListing) isAction()    {}
func (RequestCreate) isAction()  {}
func (ChooseTier) isAction()     {}
func (CancelCreate) isAction()   {}
func (DeleteListing) isAction()  {}
func (Profile) isAction()        {}
func (TopUpInfo) isAction()      {}
func (SubmitText) isAction()     {}
func (AdminTopUp) isAction()     {}
func (AdminListUsers) isAction() {}
func (AdminDenied) isAction()    {}
