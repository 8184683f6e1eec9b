package main

import (
	"net/http"
)

func (app *application) routes() http.Handler {
	mux := http.NewServeMux()

	var (
		shared = func(next http.Handler) http.Handler {
			return app.logAndTraceRequest(secureHeaders(app.crossOriginProtection(next)))
		}
		stateless = func(next http.Handler) http.Handler {
			return app.recoverPanic(shared(app.timeout(next, defaultTimeout)))
		}
		session = func(next http.Handler) http.Handler {
			return app.recoverPanic(noCache(app.sessionManager.LoadAndSave(shared(app.timeout(next, defaultTimeout)))))
		}
		// slowSession allows time for calls to the language model.
		slowSession = func(next http.Handler) http.Handler {
			return app.recoverPanic(noCache(app.sessionManager.LoadAndSave(shared(app.timeout(next, instructorTimeout)))))
		}
	)

	mux.Handle("GET /api/healthy", stateless(http.HandlerFunc(app.healthy)))
	mux.Handle("GET /api/exercises", session(http.HandlerFunc(app.exercisesGET)))

	mux.Handle("POST /api/plan", session(http.HandlerFunc(app.planPOST)))
	mux.Handle("GET /api/plan", session(http.HandlerFunc(app.planGET)))
	mux.Handle("POST /api/plan/entries/{index}/swap", session(http.HandlerFunc(app.planSwapPOST)))
	mux.Handle("POST /api/plan/entries/{index}/replace", session(http.HandlerFunc(app.planReplacePOST)))
	mux.Handle("POST /api/plan/entries/{index}/suggest", slowSession(http.HandlerFunc(app.planSuggestPOST)))
	mux.Handle("POST /api/plan/entries/{index}/ask", slowSession(http.HandlerFunc(app.planAskPOST)))

	mux.Handle("POST /api/users/{user}/sessions", session(http.HandlerFunc(app.sessionsPOST)))
	mux.Handle("GET /api/users/{user}/sessions", stateless(http.HandlerFunc(app.sessionsGET)))
	mux.Handle("GET /api/users/{user}/stats", stateless(http.HandlerFunc(app.statsGET)))
	mux.Handle("GET /api/users/{user}/recommendations", stateless(http.HandlerFunc(app.recommendationsGET)))
	mux.Handle("GET /api/users/{user}/history.xlsx", stateless(http.HandlerFunc(app.historyXLSXGET)))

	return mux
}
