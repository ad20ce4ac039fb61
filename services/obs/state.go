package obs

import (
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// State is the classification of the page a session is currently on.
type State int

const (
	// StateCaptchaBlocked means the portal served its anti-automation
	// interstitial instead of a real page.
	StateCaptchaBlocked State = iota
	StateLoggedOut
	StateConsentForm
	StateMainMenu
	StateResultsView
	StateUnknown
)

func (s State) String() string {
	switch s {
	case StateCaptchaBlocked:
		return "captcha_blocked"
	case StateLoggedOut:
		return "logged_out"
	case StateConsentForm:
		return "consent_form"
	case StateMainMenu:
		return "main_menu"
	case StateResultsView:
		return "results_view"
	}
	return "unknown"
}

// Page markers, specific to the portal's markup.
const (
	selectorBlocked      = "#challenge-form"
	selectorLoginForm    = "#OtherUsername"
	selectorConsentModal = "#kvkkModal"
	selectorMainMenu     = "#obsMainMenu"
	selectorResultsTable = "table#notGrid"

	selectorCaptchaImage = "img#imgCaptcha"
	selectorConsentOk    = "#btnKvkkOnay"
)

func consentVisible(doc *goquery.Document) bool {
	modal := doc.Find(selectorConsentModal)
	if modal.Length() == 0 {
		return false
	}
	if modal.HasClass("show") {
		return true
	}
	style := modal.AttrOr("style", "")
	return strings.Contains(style, "display: block")
}

// Classify determines the state of a fetched page. Markers are checked in
// priority order, with the anti-automation marker overriding everything
// else: the portal renders its challenge on top of whatever page was
// requested, so any other marker present alongside it is stale.
func Classify(doc *goquery.Document) State {
	if doc.Find(selectorBlocked).Length() > 0 {
		return StateCaptchaBlocked
	}
	if doc.Find(selectorLoginForm).Length() > 0 {
		return StateLoggedOut
	}
	if consentVisible(doc) {
		return StateConsentForm
	}
	if doc.Find(selectorMainMenu).Length() > 0 {
		return StateMainMenu
	}
	if doc.Find(selectorResultsTable).Length() > 0 {
		return StateResultsView
	}
	return StateUnknown
}
