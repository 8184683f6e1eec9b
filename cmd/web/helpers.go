package main

import (
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/myrjola/pilatesflow/internal/errors"
	"github.com/myrjola/pilatesflow/internal/workout"
)

// maxBodyBytes limits JSON request bodies.
const maxBodyBytes = 1 << 16

type errorResponse struct {
	Error string `json:"error"`
}

func (app *application) serverError(w http.ResponseWriter, r *http.Request, err error) {
	app.logger.LogAttrs(r.Context(), slog.LevelError, "server error", errors.SlogError(err))
	app.writeJSON(w, r, http.StatusInternalServerError, errorResponse{Error: http.StatusText(http.StatusInternalServerError)})
}

// clientError responds with status and msg, which is shown to the user.
func (app *application) clientError(w http.ResponseWriter, r *http.Request, status int, msg string) {
	app.logger.LogAttrs(r.Context(), slog.LevelDebug, "client error",
		slog.Int("status", status), slog.String("msg", msg))
	app.writeJSON(w, r, status, errorResponse{Error: msg})
}

func (app *application) writeJSON(w http.ResponseWriter, r *http.Request, status int, v any) {
	data, err := json.Marshal(v)
	if err != nil {
		app.logger.LogAttrs(r.Context(), slog.LevelError, "marshal response", slog.Any("error", err))
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, _ = w.Write(data)
}

// readJSON decodes the request body into v. An empty body leaves v untouched.
func readJSON(r *http.Request, v any) error {
	dec := json.NewDecoder(io.LimitReader(r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil && !errors.Is(err, io.EOF) {
		return fmt.Errorf("decode json: %w", err)
	}
	return nil
}

// parseIndexParam parses the "index" path parameter as a position in plan. On failure it responds with 404.
func (app *application) parseIndexParam(w http.ResponseWriter, r *http.Request, plan workout.Plan) (int, bool) {
	index, err := strconv.Atoi(r.PathValue("index"))
	if err != nil || index < 0 || index >= len(plan) {
		app.clientError(w, r, http.StatusNotFound, "no plan entry at "+r.PathValue("index"))
		return 0, false
	}
	return index, true
}
