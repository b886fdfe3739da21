package main

import (
	"html/template"
	"net/http"

	"github.com/flintspark/civicflow/internal/flow"
	"github.com/justinas/nosurf"

	_ "embed"
)

//go:embed shell.tmpl
var shellTemplateSource string

var shellTemplate = template.Must(template.New("shell").Parse(shellTemplateSource))

// shell serves the HTML bootstrap page. The front end picks up the CSRF
// token and the restored step from it before talking to the JSON API.
func (app *application) shell(w http.ResponseWriter, r *http.Request) {
	sess, err := app.flow.Session(r.Context())
	if err != nil {
		app.serverError(w, r, err)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	err = shellTemplate.Execute(w, struct {
		CSRFToken  string
		Step       int
		TotalSteps int
	}{
		CSRFToken:  nosurf.Token(r),
		Step:       sess.Step,
		TotalSteps: flow.TotalSteps,
	})
	if err != nil {
		app.serverError(w, r, err)
	}
}
