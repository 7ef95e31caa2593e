package pipeline

import (
	"net/url"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExtractContacts_MailtoOutranksText(t *testing.T) {
	body := []byte(`<html><body>
		<p>Schreiben Sie an anders@text-treffer.de</p>
		<a href="mailto:echt@mailto-treffer.de?subject=Anfrage">Mail</a>
	</body></html>`)

	c := extractContacts(body)
	assert.Equal(t, "echt@mailto-treffer.de", c.Email)
}

func TestExtractContacts_PlaceholdersAreSkipped(t *testing.T) {
	body := []byte(`<html><body>
		<a href="mailto:demo@example.com">Demo</a>
		<p>foto@logo-studio.de steht hier nur im Text</p>
		<p>echt@handwerk-sued.de</p>
	</body></html>`)

	c := extractContacts(body)
	assert.Equal(t, "echt@handwerk-sued.de", c.Email)
}

func TestExtractContacts_ScriptAndStyleIgnored(t *testing.T) {
	body := []byte(`<html><head>
		<script>var mail = "track@script-only.de"; var tel = "0800 1234567";</script>
	</head><body><p>Kein Kontakt</p></body></html>`)

	c := extractContacts(body)
	assert.True(t, c.empty())
}

func TestExtractContacts_PhoneFromText(t *testing.T) {
	body := []byte(`<html><body><p>Telefon: 02932 / 123 45-67</p></body></html>`)

	c := extractContacts(body)
	assert.Equal(t, "02932 / 123 45-67", c.Phone)
}

func TestMatchImprintLink(t *testing.T) {
	base, err := url.Parse("https://firma.de/start/")
	require.NoError(t, err)

	tests := []struct {
		name string
		body string
		want string
	}{
		{
			name: "href keyword",
			body: `<a href="/impressum">Hier</a>`,
			want: "https://firma.de/impressum",
		},
		{
			name: "anchor text keyword",
			body: `<a href="/ueber-uns">Rechtliches</a>`,
			want: "https://firma.de/ueber-uns",
		},
		{
			name: "relative href resolves against base",
			body: `<a href="kontakt.html">Kontakt</a>`,
			want: "https://firma.de/start/kontakt.html",
		},
		{
			name: "no match",
			body: `<a href="/produkte">Produkte</a>`,
			want: "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, matchImprintLink([]byte(tt.body), base))
		})
	}
}

func TestPlausibleEmail(t *testing.T) {
	assert.True(t, plausibleEmail("info@handwerk-nord.de"))
	assert.False(t, plausibleEmail("user@example.com"))
	assert.False(t, plausibleEmail("header-image@assets.de"))
	assert.False(t, plausibleEmail("not-an-email"))
}
