package main

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	"github.com/myrjola/pilatesflow/internal/catalog"
	"github.com/myrjola/pilatesflow/internal/errors"
	"github.com/myrjola/pilatesflow/internal/workout"
)

// Session keys of the current plan.
const (
	planSessionKey    = "plan"
	requestSessionKey = "plan_request"
)

// Accepted class lengths in minutes.
const (
	MinDurationMinutes = 10
	MaxDurationMinutes = 120
)

// planRequest is the JSON form of workout.Request. Empty apparatus, theme and energy select the wildcards.
type planRequest struct {
	DurationMinutes float64 `json:"duration"`
	Apparatus       string  `json:"apparatus"`
	Theme           string  `json:"theme"`
	Energy          string  `json:"energy"`
}

func (p planRequest) parse() (workout.Request, error) {
	if p.DurationMinutes < MinDurationMinutes || p.DurationMinutes > MaxDurationMinutes {
		return workout.Request{}, fmt.Errorf("duration must be between %d and %d minutes",
			MinDurationMinutes, MaxDurationMinutes)
	}
	req := workout.Request{
		DurationMinutes: p.DurationMinutes,
		Apparatus:       catalog.ApparatusMixed,
		Theme:           catalog.ThemeAny,
		Energy:          workout.ParseEnergyBand(p.Energy),
	}
	var err error
	if strings.TrimSpace(p.Apparatus) != "" {
		if req.Apparatus, err = catalog.ParseApparatus(p.Apparatus); err != nil {
			return workout.Request{}, err
		}
	}
	if strings.TrimSpace(p.Theme) != "" {
		if req.Theme, err = catalog.ParseTheme(p.Theme); err != nil {
			return workout.Request{}, err
		}
	}
	return req, nil
}

type planState struct {
	request planRequest
	plan    workout.Plan
}

type planResponse struct {
	Request      planRequest           `json:"request"`
	Entries      workout.Plan          `json:"entries"`
	TotalMinutes float64               `json:"total_minutes"`
	PhaseMinutes map[string]float64    `json:"phase_minutes"`
	Balance      workout.BalanceReport `json:"balance"`
}

func newPlanResponse(state planState) planResponse {
	req, err := state.request.parse()
	theme := req.Theme
	if err != nil {
		theme = catalog.ThemeAny
	}
	return planResponse{
		Request:      state.request,
		Entries:      state.plan,
		TotalMinutes: state.plan.TotalMinutes(),
		PhaseMinutes: state.plan.PhaseMinutes(),
		Balance:      workout.Analyze(state.plan, theme),
	}
}

// loadPlan reads the browser's current plan. ok is false when there is none.
func (app *application) loadPlan(r *http.Request) (planState, bool, error) {
	ctx := r.Context()
	encoded := app.sessionManager.GetString(ctx, planSessionKey)
	if encoded == "" {
		return planState{}, false, nil
	}
	plan, err := workout.Decode(encoded)
	if err != nil {
		return planState{}, false, errors.Wrap(err, "decode session plan")
	}
	var req planRequest
	if err = json.Unmarshal([]byte(app.sessionManager.GetString(ctx, requestSessionKey)), &req); err != nil {
		return planState{}, false, errors.Wrap(err, "decode session plan request")
	}
	return planState{request: req, plan: plan}, true, nil
}

func (app *application) savePlan(r *http.Request, state planState) error {
	encoded, err := workout.Encode(state.plan)
	if err != nil {
		return errors.Wrap(err, "encode plan")
	}
	req, err := json.Marshal(state.request)
	if err != nil {
		return errors.Wrap(err, "encode plan request")
	}
	ctx := r.Context()
	app.sessionManager.Put(ctx, planSessionKey, encoded)
	app.sessionManager.Put(ctx, requestSessionKey, string(req))
	return nil
}

// requirePlan loads the current plan and responds with 404 when there is none.
func (app *application) requirePlan(w http.ResponseWriter, r *http.Request) (planState, bool) {
	state, ok, err := app.loadPlan(r)
	if err != nil {
		app.serverError(w, r, err)
		return planState{}, false
	}
	if !ok {
		app.clientError(w, r, http.StatusNotFound, "no current plan, generate one first")
		return planState{}, false
	}
	return state, true
}

func (app *application) planPOST(w http.ResponseWriter, r *http.Request) {
	var body planRequest
	if err := readJSON(r, &body); err != nil {
		app.clientError(w, r, http.StatusBadRequest, err.Error())
		return
	}
	req, err := body.parse()
	if err != nil {
		app.clientError(w, r, http.StatusBadRequest, err.Error())
		return
	}

	state := planState{request: body, plan: app.newGenerator().Generate(req)}
	if err = app.savePlan(r, state); err != nil {
		app.serverError(w, r, err)
		return
	}
	app.writeJSON(w, r, http.StatusCreated, newPlanResponse(state))
}

func (app *application) planGET(w http.ResponseWriter, r *http.Request) {
	state, ok := app.requirePlan(w, r)
	if !ok {
		return
	}
	app.writeJSON(w, r, http.StatusOK, newPlanResponse(state))
}

func (app *application) planSwapPOST(w http.ResponseWriter, r *http.Request) {
	state, ok := app.requirePlan(w, r)
	if !ok {
		return
	}
	index, ok := app.parseIndexParam(w, r, state.plan)
	if !ok {
		return
	}

	entry, ok := app.newGenerator().Swap(state.plan, index)
	if !ok {
		app.clientError(w, r, http.StatusConflict, "no alternative exercise available")
		return
	}
	plan, err := workout.Replace(state.plan, index, entry.Exercise)
	if err != nil {
		app.serverError(w, r, err)
		return
	}
	app.updatePlan(w, r, planState{request: state.request, plan: plan})
}

type replaceRequest struct {
	ID string `json:"id"`
}

func (app *application) planReplacePOST(w http.ResponseWriter, r *http.Request) {
	state, ok := app.requirePlan(w, r)
	if !ok {
		return
	}
	index, ok := app.parseIndexParam(w, r, state.plan)
	if !ok {
		return
	}
	var body replaceRequest
	if err := readJSON(r, &body); err != nil {
		app.clientError(w, r, http.StatusBadRequest, err.Error())
		return
	}
	e, found := app.catalog.Get(body.ID)
	if !found {
		app.clientError(w, r, http.StatusNotFound, fmt.Sprintf("unknown exercise %q", body.ID))
		return
	}

	plan, err := workout.Replace(state.plan, index, e)
	if errors.Is(err, workout.ErrDuplicateExercise) {
		app.clientError(w, r, http.StatusConflict, fmt.Sprintf("%s is already in the plan", e.Name))
		return
	}
	if err != nil {
		app.serverError(w, r, err)
		return
	}
	app.updatePlan(w, r, planState{request: state.request, plan: plan})
}

func (app *application) updatePlan(w http.ResponseWriter, r *http.Request, state planState) {
	if err := app.savePlan(r, state); err != nil {
		app.serverError(w, r, err)
		return
	}
	app.writeJSON(w, r, http.StatusOK, newPlanResponse(state))
}

// exercisesGET lists the exercises available as manual replacements for the current plan.
func (app *application) exercisesGET(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()
	filter := workout.BrowseFilter{Phase: "", Apparatus: "", Search: query.Get("q")}
	var err error
	if phase := query.Get("phase"); phase != "" {
		if filter.Phase, err = catalog.ParsePhase(phase); err != nil {
			app.clientError(w, r, http.StatusBadRequest, err.Error())
			return
		}
	}
	if apparatus := query.Get("apparatus"); apparatus != "" {
		if filter.Apparatus, err = catalog.ParseApparatus(apparatus); err != nil {
			app.clientError(w, r, http.StatusBadRequest, err.Error())
			return
		}
	}

	state, _, err := app.loadPlan(r)
	if err != nil {
		app.serverError(w, r, err)
		return
	}
	app.writeJSON(w, r, http.StatusOK, workout.Browse(app.catalog, state.plan, filter))
}
