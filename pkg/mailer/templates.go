package mailer

import (
	"bytes"
	"fmt"
	htmpl "html/template"
	"strings"
	texttpl "text/template"
)

const (
	Welcome        = "welcome"
	AccountChanged = "account_changed"
)

// NoticeData feeds the account notification templates.
type NoticeData struct {
	AppName string
	Name    string
	Email   string
	Changed []string
	Time    string
}

type notice struct {
	subject string
	text    *texttpl.Template
	html    *htmpl.Template
}

var funcs = map[string]any{"join": strings.Join}

var notices = map[string]notice{
	Welcome: {
		subject: "Welcome to {{.AppName}}",
		text: texttpl.Must(texttpl.New("welcome.txt").Funcs(funcs).Parse(
			"Hi {{.Name}},\n\nYour {{.AppName}} account for {{.Email}} is ready.\n")),
		html: htmpl.Must(htmpl.New("welcome.html").Funcs(funcs).Parse(
			`<p>Hi {{.Name}},</p><p>Your {{.AppName}} account for <b>{{.Email}}</b> is ready.</p>`)),
	},
	AccountChanged: {
		subject: "Your {{.AppName}} account was updated",
		text: texttpl.Must(texttpl.New("changed.txt").Funcs(funcs).Parse(
			"Hi {{.Name}},\n\nThe following account details changed on {{.Time}}: {{join .Changed \", \"}}.\n" +
				"If this was not you, contact support immediately.\n")),
		html: htmpl.Must(htmpl.New("changed.html").Funcs(funcs).Parse(
			`<p>Hi {{.Name}},</p><p>The following account details changed on {{.Time}}: <b>{{join .Changed ", "}}</b>.</p>` +
				`<p>If this was not you, contact support immediately.</p>`)),
	},
}

// Render returns subject, text and html bodies for a notice kind.
func Render(kind string, d NoticeData) (string, string, string, error) {
	n, ok := notices[kind]
	if !ok {
		return "", "", "", fmt.Errorf("unknown notice %q", kind)
	}
	subject, err := execText(texttpl.Must(texttpl.New("subject").Parse(n.subject)), d)
	if err != nil {
		return "", "", "", err
	}
	text, err := execText(n.text, d)
	if err != nil {
		return "", "", "", err
	}
	var html bytes.Buffer
	if err := n.html.Execute(&html, d); err != nil {
		return "", "", "", err
	}
	return subject, text, html.String(), nil
}

func execText(t *texttpl.Template, d NoticeData) (string, error) {
	var b bytes.Buffer
	if err := t.Execute(&b, d); err != nil {
		return "", err
	}
	return b.String(), nil
}
