package main

import (
	"fmt"
	"log/slog"
	"net/http"
	"strings"

	"github.com/myrjola/pilatesflow/internal/errors"
	"github.com/myrjola/pilatesflow/internal/export"
	"github.com/myrjola/pilatesflow/internal/progress"
	"github.com/myrjola/pilatesflow/internal/sessionlog"
)

const xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

type logSessionRequest struct {
	Rating *int   `json:"rating"`
	Notes  string `json:"notes"`
}

// userParam returns the trimmed "user" path parameter. On failure it responds with 400.
func (app *application) userParam(w http.ResponseWriter, r *http.Request) (string, bool) {
	user := strings.TrimSpace(r.PathValue("user"))
	if user == "" {
		app.clientError(w, r, http.StatusBadRequest, "user name is required")
		return "", false
	}
	return user, true
}

// sessionsPOST logs the current plan as a completed session of the user.
func (app *application) sessionsPOST(w http.ResponseWriter, r *http.Request) {
	user, ok := app.userParam(w, r)
	if !ok {
		return
	}
	state, ok := app.requirePlan(w, r)
	if !ok {
		return
	}
	var body logSessionRequest
	if err := readJSON(r, &body); err != nil {
		app.clientError(w, r, http.StatusBadRequest, err.Error())
		return
	}
	req, err := state.request.parse()
	if err != nil {
		app.serverError(w, r, errors.Wrap(err, "parse session plan request"))
		return
	}

	record, err := sessionlog.NewRecord(user, req, state.plan, body.Rating, body.Notes, app.now())
	if errors.Is(err, sessionlog.ErrInvalidRecord) {
		app.clientError(w, r, http.StatusBadRequest, err.Error())
		return
	}
	if err != nil {
		app.serverError(w, r, err)
		return
	}
	if err = app.sessionLog.Append(r.Context(), record); err != nil {
		app.serverError(w, r, errors.Wrap(err, "append session", slog.String("user", user)))
		return
	}
	app.logger.LogAttrs(r.Context(), slog.LevelInfo, "logged session",
		slog.String("user", user), slog.String("id", record.ID.String()))
	app.writeJSON(w, r, http.StatusCreated, record)
}

// querySessions reads the user's log. On failure it responds with 500.
func (app *application) querySessions(w http.ResponseWriter, r *http.Request) (string, []sessionlog.Record, bool) {
	user, ok := app.userParam(w, r)
	if !ok {
		return "", nil, false
	}
	records, err := app.sessionLog.Query(r.Context(), user)
	if err != nil {
		app.serverError(w, r, errors.Wrap(err, "query sessions", slog.String("user", user)))
		return "", nil, false
	}
	return user, records, true
}

func (app *application) sessionsGET(w http.ResponseWriter, r *http.Request) {
	_, records, ok := app.querySessions(w, r)
	if !ok {
		return
	}
	app.writeJSON(w, r, http.StatusOK, records)
}

func (app *application) statsGET(w http.ResponseWriter, r *http.Request) {
	user, records, ok := app.querySessions(w, r)
	if !ok {
		return
	}
	app.writeJSON(w, r, http.StatusOK, progress.Calculate(records, user, app.now()))
}

type recommendationsResponse struct {
	Recommendations []string `json:"recommendations"`
}

func (app *application) recommendationsGET(w http.ResponseWriter, r *http.Request) {
	user, records, ok := app.querySessions(w, r)
	if !ok {
		return
	}
	app.writeJSON(w, r, http.StatusOK, recommendationsResponse{Recommendations: progress.Recommend(records, user)})
}

// historyXLSXGET downloads the user's history as an Excel workbook.
func (app *application) historyXLSXGET(w http.ResponseWriter, r *http.Request) {
	user, records, ok := app.querySessions(w, r)
	if !ok {
		return
	}
	f, err := export.HistoryWorkbook(records, progress.Calculate(records, user, app.now()))
	if err != nil {
		app.serverError(w, r, errors.Wrap(err, "build history workbook"))
		return
	}
	defer func() {
		if closeErr := f.Close(); closeErr != nil {
			app.logger.LogAttrs(r.Context(), slog.LevelWarn, "close workbook", slog.Any("error", closeErr))
		}
	}()
	buf, err := f.WriteToBuffer()
	if err != nil {
		app.serverError(w, r, errors.Wrap(err, "write history workbook"))
		return
	}

	w.Header().Set("Content-Type", xlsxContentType)
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", user+"-pilates-history.xlsx"))
	_, _ = buf.WriteTo(w)
}
