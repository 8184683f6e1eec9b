// Package instructor answers questions about exercises and suggests replacements with a language model.
//
// Failures never surface as errors: callers always get something to show to the user.
package instructor

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/myrjola/pilatesflow/internal/catalog"
	"github.com/myrjola/pilatesflow/internal/workout"
	"github.com/yuin/goldmark"
)

// Completer sends a system prompt and a user message to a language model and returns its reply.
type Completer interface {
	Complete(ctx context.Context, system string, user string, maxTokens int64) (string, error)
}

// Token limits per request.
const (
	AskMaxTokens     = 300
	SuggestMaxTokens = 200
)

// Messages shown instead of a model reply.
const (
	MessageDisabled    = "Set `PILATES_OPENAI_API_KEY` to enable the AI instructor."
	MessageUnavailable = "The AI instructor is unavailable right now. Please try again in a moment."
	MessageNoQuestion  = "Ask a question about the current exercise."
)

// Answer is the instructor's reply as markdown and as rendered HTML.
type Answer struct {
	Text string `json:"text"`
	HTML string `json:"html"`
}

// Suggestion is an exercise picked by the model together with its explanation.
type Suggestion struct {
	Exercise catalog.Exercise `json:"exercise"`
	Reason   string           `json:"reason"`
}

// Instructor talks to the model. The zero value is not usable, create it with New.
type Instructor struct {
	completer Completer
	markdown  goldmark.Markdown
	logger    *slog.Logger
}

// New creates an Instructor. A nil completer disables the model and makes every reply explain how to enable it.
func New(completer Completer, logger *slog.Logger) *Instructor {
	return &Instructor{
		completer: completer,
		markdown:  goldmark.New(),
		logger:    logger,
	}
}

// Enabled reports whether a model is configured.
func (in *Instructor) Enabled() bool {
	return in.completer != nil
}

// Ask answers a question about the exercise in entry.
func (in *Instructor) Ask(ctx context.Context, question string, entry workout.Entry) Answer {
	question = strings.TrimSpace(question)
	switch {
	case question == "":
		return in.answer(ctx, MessageNoQuestion)
	case !in.Enabled():
		return in.answer(ctx, MessageDisabled)
	}

	reply, err := in.completer.Complete(ctx, askPrompt(entry), question, AskMaxTokens)
	if err != nil {
		in.logger.LogAttrs(ctx, slog.LevelError, "instructor question failed",
			slog.String("exercise", entry.ID), slog.Any("error", err))
		return in.answer(ctx, MessageUnavailable)
	}
	return in.answer(ctx, strings.TrimSpace(reply))
}

func (in *Instructor) answer(ctx context.Context, text string) Answer {
	var buf bytes.Buffer
	if err := in.markdown.Convert([]byte(text), &buf); err != nil {
		in.logger.LogAttrs(ctx, slog.LevelWarn, "render answer", slog.Any("error", err))
		buf.Reset()
	}
	return Answer{Text: text, HTML: buf.String()}
}

func askPrompt(entry workout.Entry) string {
	return fmt.Sprintf(`You are a warm, knowledgeable Pilates instructor assisting during a workout session.
The student is currently doing: %s
Apparatus: %s
Springs: %s
Cues for this exercise: %s

Answer their question helpfully. Be concise (2-4 sentences unless they ask for more detail).
Focus on form, safety, modifications, and mind-body connection. Use encouraging language.`,
		entry.Name, entry.Apparatus, entry.EquipmentSetting, strings.Join(entry.Cues, ", "))
}

// SuggestSwap asks the model for a replacement for plan[index] matching the free-form request, e.g. "hip opener"
// or "something easier". The suggestion is always a catalog exercise that is not in the plan. It returns false when
// the model is disabled, fails or picks nothing usable. It panics if index is out of range.
func (in *Instructor) SuggestSwap(
	ctx context.Context,
	request string,
	plan workout.Plan,
	index int,
	cat *catalog.Catalog,
) (Suggestion, bool) {
	current := plan[index]
	request = strings.TrimSpace(request)
	if request == "" || !in.Enabled() {
		return Suggestion{}, false
	}

	available := cat.Filter(func(e catalog.Exercise) bool { return !plan.Contains(e.ID) })
	if len(available) == 0 {
		return Suggestion{}, false
	}

	reply, err := in.completer.Complete(ctx, suggestPrompt(current, available), request, SuggestMaxTokens)
	if err != nil {
		in.logger.LogAttrs(ctx, slog.LevelError, "instructor suggestion failed",
			slog.String("exercise", current.ID), slog.Any("error", err))
		return Suggestion{}, false
	}

	id, reason := parseSuggestion(reply)
	e, found := cat.Get(id)
	if !found || plan.Contains(id) {
		in.logger.LogAttrs(ctx, slog.LevelWarn, "instructor suggested unusable exercise",
			slog.String("suggested", id), slog.Bool("in_catalog", found))
		return Suggestion{}, false
	}
	return Suggestion{Exercise: e, Reason: reason}, true
}

func suggestPrompt(current workout.Entry, available []catalog.Exercise) string {
	var list strings.Builder
	for _, e := range available {
		_, _ = fmt.Fprintf(&list, "- SLUG:%s | %s (%s) | %s | Phase:%s | Springs:%s | Energy:%d/5\n",
			e.ID, e.Name, e.Apparatus, e.Category, e.Phase, e.EquipmentSetting, e.Intensity)
	}
	return fmt.Sprintf(`You are a Pilates exercise selector. The user wants to replace an exercise in their workout.
Current exercise: %s (Phase: %s, Category: %s)

ONLY suggest exercises from this list. Return EXACTLY the SLUG of your top pick, then a brief reason.
Format: SLUG:the_slug_here
REASON:why this is a good fit

Available exercises:
%s`, current.Name, current.PhaseLabel, current.Category, list.String())
}

// parseSuggestion extracts the first SLUG: and REASON: lines of a reply.
func parseSuggestion(reply string) (string, string) {
	var id, reason string
	for line := range strings.Lines(reply) {
		line = strings.TrimSpace(line)
		if v, ok := strings.CutPrefix(line, "SLUG:"); ok && id == "" {
			id = strings.TrimSpace(v)
		}
		if v, ok := strings.CutPrefix(line, "REASON:"); ok && reason == "" {
			reason = strings.TrimSpace(v)
		}
	}
	return id, reason
}
