// Package locale resolves the language tag of the checkout page.
package locale

import (
	"net/url"
	"regexp"
	"strings"
	"sync"

	"github.com/rookgm/checkout/internal/logger"
	"go.uber.org/zap"
)

const (
	// DefaultTag is used when nothing else matches
	DefaultTag = "en-US"
	// DefaultCountry is assumed when page url carries no country
	DefaultCountry = "bd"

	followBrowserParam = "followBrowser"
	fallbackCountry    = "us"
)

// Language is supported checkout language
type Language struct {
	Label       string `json:"label"`
	Code        string `json:"code"`
	Tag         string `json:"value"`
	CountryCode string `json:"countryCode"`
}

// Languages lists supported languages
var Languages = []Language{
	{Label: "Bengali", Code: "bn", Tag: "bn-BD", CountryCode: "bd"},
	{Label: "English", Code: "en", Tag: "en-US", CountryCode: "us"},
	{Label: "Swahili", Code: "sw", Tag: "sw-KE", CountryCode: "ke"},
	{Label: "Vietnam", Code: "vi", Tag: "vi-VN", CountryCode: "vn"},
	{Label: "Portuguese", Code: "pt", Tag: "pt-BR", CountryCode: "br"},
	{Label: "Indonesian", Code: "id", Tag: "id-ID", CountryCode: "id"},
	{Label: "Spanish (Mexico)", Code: "es", Tag: "es-MX", CountryCode: "mx"},
	{Label: "Hindi", Code: "hi", Tag: "hi-IN", CountryCode: "in"},
	{Label: "Thai", Code: "th", Tag: "th-TH", CountryCode: "th"},
	{Label: "Malay", Code: "ms", Tag: "ms-MY", CountryCode: "my"},
	{Label: "Korean", Code: "ko", Tag: "ko-KR", CountryCode: "kr"},
}

var countryRe = regexp.MustCompile(`/([a-zA-Z]{2})/`)

// CountryFromURL returns lowercase two letter country segment of page url path or fragment
func CountryFromURL(pageURL, def string) string {
	u, err := url.Parse(pageURL)
	if err != nil {
		logger.Log.Debug("parse page url", zap.String("url", pageURL), zap.Error(err))
		return def
	}
	m := countryRe.FindStringSubmatch(u.Path + "#" + u.Fragment)
	if m == nil {
		return def
	}
	return strings.ToLower(m[1])
}

// ParamFromURLOrHash returns query parameter of page url, looking into the hash route when query lacks it
func ParamFromURLOrHash(pageURL, name string) (string, bool) {
	u, err := url.Parse(pageURL)
	if err != nil {
		return "", false
	}
	if q := u.Query(); q.Has(name) {
		return q.Get(name), true
	}
	parts := strings.Split(u.Fragment, "?")
	for _, part := range parts[1:] {
		q, err := url.ParseQuery(part)
		if err != nil {
			continue
		}
		if q.Has(name) {
			return q.Get(name), true
		}
	}
	return "", false
}

// Options returns languages offered on page: page country and english
func Options(pageURL string) []Language {
	country := CountryFromURL(pageURL, DefaultCountry)
	var out []Language
	for _, l := range Languages {
		if l.CountryCode == country || l.CountryCode == fallbackCountry {
			out = append(out, l)
		}
	}
	return out
}

// Resolver resolves locale tag from current page state. Safe for concurrent use.
type Resolver struct {
	mu          sync.RWMutex
	pageURL     string
	browserLang string
	override    string
}

// NewResolver creates new Resolver instance
func NewResolver(pageURL, browserLang string) *Resolver {
	return &Resolver{pageURL: pageURL, browserLang: browserLang}
}

// SetPageURL changes current page url
func (r *Resolver) SetPageURL(pageURL string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.pageURL = pageURL
}

// SetBrowserLanguage changes browser language
func (r *Resolver) SetBrowserLanguage(lang string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.browserLang = lang
}

// Set forces locale tag, empty tag drops the override
func (r *Resolver) Set(tag string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.override = tag
}

// LocaleTag returns current locale tag
func (r *Resolver) LocaleTag() string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if r.override != "" {
		return r.override
	}
	if _, ok := ParamFromURLOrHash(r.pageURL, followBrowserParam); ok {
		return browserTag(r.pageURL, r.browserLang)
	}
	country := CountryFromURL(r.pageURL, DefaultCountry)
	for _, l := range Languages {
		if l.CountryCode == country {
			return l.Tag
		}
	}
	return DefaultTag
}

// browserTag matches browser language against page country and english
func browserTag(pageURL, browserLang string) string {
	lang := strings.ToLower(browserLang)
	if lang == "" {
		lang = "en"
	}
	code, _, _ := strings.Cut(lang, "-")
	country := CountryFromURL(pageURL, DefaultCountry)

	for _, l := range Languages {
		if l.Code != code {
			continue
		}
		if l.CountryCode == country || l.CountryCode == fallbackCountry {
			return l.Tag
		}
		break
	}
	return DefaultTag
}
