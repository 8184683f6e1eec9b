package main

import (
	"net/http"
)

type askRequest struct {
	Question string `json:"question"`
}

// planAskPOST answers a question about a plan entry. The instructor degrades to an explanatory answer on failure, so
// this always responds with 200 for a valid entry.
func (app *application) planAskPOST(w http.ResponseWriter, r *http.Request) {
	state, ok := app.requirePlan(w, r)
	if !ok {
		return
	}
	index, ok := app.parseIndexParam(w, r, state.plan)
	if !ok {
		return
	}
	var body askRequest
	if err := readJSON(r, &body); err != nil {
		app.clientError(w, r, http.StatusBadRequest, err.Error())
		return
	}
	app.writeJSON(w, r, http.StatusOK, app.instructor.Ask(r.Context(), body.Question, state.plan[index]))
}

type suggestRequest struct {
	Request string `json:"request"`
}

// planSuggestPOST asks the instructor for a replacement. It doesn't modify the plan; the client applies the
// suggestion through the replace endpoint.
func (app *application) planSuggestPOST(w http.ResponseWriter, r *http.Request) {
	state, ok := app.requirePlan(w, r)
	if !ok {
		return
	}
	index, ok := app.parseIndexParam(w, r, state.plan)
	if !ok {
		return
	}
	var body suggestRequest
	if err := readJSON(r, &body); err != nil {
		app.clientError(w, r, http.StatusBadRequest, err.Error())
		return
	}
	if !app.instructor.Enabled() {
		app.clientError(w, r, http.StatusServiceUnavailable, "AI suggestions need PILATES_OPENAI_API_KEY")
		return
	}

	suggestion, found := app.instructor.SuggestSwap(r.Context(), body.Request, state.plan, index, app.catalog)
	if !found {
		app.clientError(w, r, http.StatusConflict, "no suggestion found, try describing it differently")
		return
	}
	app.writeJSON(w, r, http.StatusOK, suggestion)
}
