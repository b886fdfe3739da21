package main

import (
	"net/http"

	"github.com/justinas/alice"
)

func (app *application) routes() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /api/healthy", app.healthy)

	mux.HandleFunc("GET /api/issues", app.listIssues)
	mux.HandleFunc("GET /api/offices", app.listOffices)
	mux.HandleFunc("GET /api/measures", app.listMeasures)
	mux.HandleFunc("GET /api/candidates", app.listCandidates)

	mux.HandleFunc("POST /api/issues/increment", app.incrementIssues)
	mux.HandleFunc("POST /api/completions", app.storeCompletion)
	mux.HandleFunc("POST /api/signups", app.storeSignup)

	return alice.New(app.recoverPanic, app.logRequest).Then(mux)
}
