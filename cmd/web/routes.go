package main

import (
	"net/http"

	"github.com/justinas/alice"
)

func (app *application) routes() http.Handler {
	mux := http.NewServeMux()

	session := alice.New(app.sessionManager.LoadAndSave, noSurf)

	mux.HandleFunc("GET /api/healthy", app.healthy)
	mux.Handle("GET /{$}", session.ThenFunc(app.shell))

	mux.Handle("GET /api/session", session.ThenFunc(app.showSession))
	mux.Handle("POST /api/session/advance", session.ThenFunc(app.advanceSession))
	mux.Handle("POST /api/session/back", session.ThenFunc(app.backSession))
	mux.Handle("POST /api/session/restart", session.ThenFunc(app.restartSession))
	mux.Handle("POST /api/session/decide", session.ThenFunc(app.decideSession))

	mux.Handle("POST /api/issues/select", session.ThenFunc(app.selectIssue))
	mux.Handle("POST /api/issues/deselect", session.ThenFunc(app.deselectIssue))
	mux.Handle("POST /api/profile", session.ThenFunc(app.setProfile))
	mux.Handle("POST /api/feedback", session.ThenFunc(app.setFeedback))

	mux.Handle("GET /api/ballot", session.ThenFunc(app.showBallot))
	mux.Handle("POST /api/ballot/reload", session.ThenFunc(app.reloadBallot))
	mux.Handle("GET /api/candidates", session.ThenFunc(app.showCandidates))
	mux.Handle("POST /api/candidates/reload", session.ThenFunc(app.reloadCandidates))
	mux.Handle("POST /api/candidates/star", session.ThenFunc(app.starCandidate))
	mux.Handle("POST /api/measures/star", session.ThenFunc(app.starMeasure))

	mux.Handle("POST /api/signup", session.ThenFunc(app.signup))

	return alice.New(app.recoverPanic, app.logRequest, secureHeaders).Then(mux)
}
