package obs

import (
	"strings"
	"testing"

	"github.com/PuerkitoBio/goquery"
	"github.com/stretchr/testify/require"
)

func parse(t testing.TB, html string) *goquery.Document {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		t.Fatal(err)
	}
	return doc
}

func TestClassify(t *testing.T) {
	cases := []struct {
		name   string
		html   string
		expect State
	}{
		{
			name:   "login form",
			html:   `<form><input id="OtherUsername"><input id="OtherPassword"><img id="imgCaptcha" src="/c.png"></form>`,
			expect: StateLoggedOut,
		},
		{
			name:   "challenge overrides login form",
			html:   `<form id="challenge-form"></form><input id="OtherUsername">`,
			expect: StateCaptchaBlocked,
		},
		{
			name:   "visible consent modal",
			html:   `<div id="kvkkModal" class="modal show"><button id="btnKvkkOnay"></button></div><ul id="obsMainMenu"></ul>`,
			expect: StateConsentForm,
		},
		{
			name:   "hidden consent modal falls through to main menu",
			html:   `<div id="kvkkModal" class="modal" style="display: none"></div><ul id="obsMainMenu"></ul>`,
			expect: StateMainMenu,
		},
		{
			name:   "main menu",
			html:   `<ul id="obsMainMenu"><li>Notlar</li></ul>`,
			expect: StateMainMenu,
		},
		{
			name:   "results table",
			html:   `<table id="notGrid"><tr class="lecture-row"><td>X</td></tr></table>`,
			expect: StateResultsView,
		},
		{
			name:   "no marker",
			html:   `<p>maintenance</p>`,
			expect: StateUnknown,
		},
	}

	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			require.Equal(t, c.expect, Classify(parse(t, c.html)))
		})
	}
}
