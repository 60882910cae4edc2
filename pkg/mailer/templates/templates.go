package templates

import (
	"bytes"
	"embed"
	"encoding/json"
	"fmt"
	htmpl "html/template"
	"reflect"
	"strings"
	texttpl "text/template"
	"time"
)

//go:embed *.tmpl
var FS embed.FS

// Template names
const (
	VerifyEmail    = "verify_email"
	ForgotPassword = "forgot_password"
	ProfileUpdated = "profile_updated"
)

// EmailData defines standard fields for email templates.
type EmailData struct {
	// Basic info
	Name           string `json:"Name"`
	Email          string `json:"Email"`
	RecipientEmail string `json:"RecipientEmail"`
	Type           string `json:"Type"`

	// Company info
	CompanyName    string `json:"CompanyName"`
	CompanyAddress string `json:"CompanyAddress"`
	AppName        string `json:"AppName"`

	// URLs
	LogoURL        string `json:"LogoURL"`
	SupportURL     string `json:"SupportURL"`
	PrivacyURL     string `json:"PrivacyURL"`
	UnsubscribeURL string `json:"UnsubscribeURL"`

	// Action URLs
	ResetURL  string `json:"ResetURL"`
	VerifyURL string `json:"VerifyURL"`

	ExpiresAt     time.Time         `json:"ExpiresAt"`
	ExpiresAtText string            `json:"ExpiresAtText"`
	ExpiresInMin  int               `json:"ExpiresInMin"`
	Time          string            `json:"Time"`
	Changes       map[string]string `json:"Changes"`
	Code          string            `json:"Code"` // OTP
}

// ToMap converts EmailData to a map[string]any for EmailJob.Data
func ToMap(d EmailData) map[string]any {
	b, _ := json.Marshal(d)
	var m map[string]any
	_ = json.Unmarshal(b, &m)
	return m
}

// defaultFn supports pipe usage: {{ .Value | default "Fallback" }}
func defaultFn(fallback any, value any) any {
	switch x := value.(type) {
	case string:
		if strings.TrimSpace(x) == "" {
			return fallback
		}
		return x
	case nil:
		return fallback
	default:
		rv := reflect.ValueOf(value)
		if !rv.IsValid() {
			return fallback
		}
		if rv.IsZero() {
			return fallback
		}
		return value
	}
}

func baseFuncs() map[string]any {
	return map[string]any{
		"upper":   strings.ToUpper,
		"default": defaultFn,
	}
}

var (
	textSet = texttpl.Must(texttpl.New("").Funcs(texttpl.FuncMap(baseFuncs())).ParseFS(FS, "*.subject.tmpl", "*.text.tmpl"))
	htmlSet = htmpl.Must(htmpl.New("").Funcs(htmpl.FuncMap(baseFuncs())).ParseFS(FS, "*.html.tmpl"))
)

// Known reports whether a template family with this base name is embedded.
func Known(name string) bool {
	return textSet.Lookup(name+".subject.tmpl") != nil &&
		textSet.Lookup(name+".text.tmpl") != nil &&
		htmlSet.Lookup(name+".html.tmpl") != nil
}

// Render renders subject, text and html for the given base name.
// Expects: <name>.subject.tmpl, <name>.text.tmpl, <name>.html.tmpl
func Render(name string, data any) (subject string, text string, html string, err error) {
	if !Known(name) {
		return "", "", "", fmt.Errorf("unknown template %q", name)
	}
	var buf bytes.Buffer
	if err = textSet.ExecuteTemplate(&buf, name+".subject.tmpl", data); err != nil {
		return "", "", "", fmt.Errorf("exec %s subject: %w", name, err)
	}
	subject = strings.TrimSpace(buf.String())

	buf.Reset()
	if err = textSet.ExecuteTemplate(&buf, name+".text.tmpl", data); err != nil {
		return "", "", "", fmt.Errorf("exec %s text: %w", name, err)
	}
	text = buf.String()

	buf.Reset()
	if err = htmlSet.ExecuteTemplate(&buf, name+".html.tmpl", data); err != nil {
		return "", "", "", fmt.Errorf("exec %s html: %w", name, err)
	}
	html = buf.String()
	return subject, text, html, nil
}
