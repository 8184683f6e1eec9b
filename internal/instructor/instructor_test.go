package instructor_test

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"

	"github.com/PuerkitoBio/goquery"
	"github.com/myrjola/pilatesflow/internal/catalog"
	"github.com/myrjola/pilatesflow/internal/instructor"
	"github.com/myrjola/pilatesflow/internal/testhelpers"
	"github.com/myrjola/pilatesflow/internal/workout"
)

type fakeCompleter struct {
	mu     sync.Mutex
	reply  string
	err    error
	system []string
	user   []string
}

func (f *fakeCompleter) Complete(_ context.Context, system string, user string, _ int64) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.system = append(f.system, system)
	f.user = append(f.user, user)
	return f.reply, f.err
}

func testEntry(t *testing.T, id string) workout.Entry {
	t.Helper()
	e, ok := catalog.Default().Get(id)
	if !ok {
		t.Fatalf("exercise %q not in catalog", id)
	}
	return workout.Entry{Exercise: e, PhaseLabel: e.Phase.Label()}
}

func parseHTML(t *testing.T, html string) *goquery.Document {
	t.Helper()
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		t.Fatalf("parse html: %v", err)
	}
	return doc
}

func TestInstructor_Ask(t *testing.T) {
	t.Parallel()

	entry := testEntry(t, catalog.Default().All()[0].ID)
	completer := &fakeCompleter{reply: "Keep your **ribs** heavy.\n\n- exhale to lift\n- inhale to lower"}
	in := instructor.New(completer, testhelpers.NewTestLogger(t))

	answer := in.Ask(t.Context(), "  How do I breathe?  ", entry)

	if answer.Text != completer.reply {
		t.Errorf("Text = %q, want %q", answer.Text, completer.reply)
	}
	doc := parseHTML(t, answer.HTML)
	if got := doc.Find("strong").Text(); got != "ribs" {
		t.Errorf("strong text = %q, want ribs", got)
	}
	if got := doc.Find("li").Length(); got != 2 {
		t.Errorf("list items = %d, want 2", got)
	}
	if completer.user[0] != "How do I breathe?" {
		t.Errorf("question = %q, want it trimmed", completer.user[0])
	}
	if !strings.Contains(completer.system[0], entry.Name) {
		t.Errorf("system prompt does not mention %q:\n%s", entry.Name, completer.system[0])
	}
}

func TestInstructor_Ask_degrades(t *testing.T) {
	t.Parallel()

	entry := testEntry(t, catalog.Default().All()[0].ID)
	tests := []struct {
		name      string
		completer instructor.Completer
		question  string
		want      string
	}{
		{name: "disabled", completer: nil, question: "why?", want: instructor.MessageDisabled},
		{
			name:      "upstream failure",
			completer: &fakeCompleter{err: errors.New("rate limited")},
			question:  "why?",
			want:      instructor.MessageUnavailable,
		},
		{name: "empty question", completer: &fakeCompleter{reply: "x"}, question: " ", want: instructor.MessageNoQuestion},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			in := instructor.New(tt.completer, testhelpers.NewTestLogger(t))
			answer := in.Ask(t.Context(), tt.question, entry)
			if answer.Text != tt.want {
				t.Errorf("Text = %q, want %q", answer.Text, tt.want)
			}
			if parseHTML(t, answer.HTML).Find("p").Length() != 1 {
				t.Errorf("HTML = %q, want a single paragraph", answer.HTML)
			}
		})
	}
}

func TestInstructor_Ask_escapesRawHTML(t *testing.T) {
	t.Parallel()

	completer := &fakeCompleter{reply: "<script>alert(1)</script>\n\nStay long."}
	in := instructor.New(completer, testhelpers.NewTestLogger(t))

	answer := in.Ask(t.Context(), "hi", testEntry(t, catalog.Default().All()[0].ID))
	if parseHTML(t, answer.HTML).Find("script").Length() != 0 {
		t.Errorf("HTML contains a script element: %s", answer.HTML)
	}
}

func TestInstructor_SuggestSwap(t *testing.T) {
	t.Parallel()

	cat := catalog.Default()
	all := cat.All()
	plan := workout.Plan{
		{Exercise: all[0], PhaseLabel: all[0].Phase.Label()},
		{Exercise: all[1], PhaseLabel: all[1].Phase.Label()},
	}
	free := all[2]

	tests := []struct {
		name       string
		completer  *fakeCompleter
		request    string
		wantOK     bool
		wantReason string
	}{
		{
			name:       "valid pick",
			completer:  &fakeCompleter{reply: "SLUG: " + free.ID + "\nREASON: opens the hips"},
			request:    "hip opener",
			wantOK:     true,
			wantReason: "opens the hips",
		},
		{
			name:      "unknown slug",
			completer: &fakeCompleter{reply: "SLUG:does_not_exist\nREASON:nope"},
			request:   "hip opener",
		},
		{
			name:      "exercise already in plan",
			completer: &fakeCompleter{reply: "SLUG:" + all[1].ID},
			request:   "hip opener",
		},
		{name: "no slug line", completer: &fakeCompleter{reply: "Try the hundred!"}, request: "core"},
		{name: "upstream failure", completer: &fakeCompleter{err: errors.New("timeout")}, request: "core"},
		{name: "empty request", completer: &fakeCompleter{reply: "SLUG:" + free.ID}, request: ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			in := instructor.New(tt.completer, testhelpers.NewTestLogger(t))
			got, ok := in.SuggestSwap(t.Context(), tt.request, plan, 0, cat)
			if ok != tt.wantOK {
				t.Fatalf("SuggestSwap() ok = %v, want %v", ok, tt.wantOK)
			}
			if !ok {
				return
			}
			if got.Exercise.ID != free.ID || got.Reason != tt.wantReason {
				t.Errorf("SuggestSwap() = %s %q, want %s %q", got.Exercise.ID, got.Reason, free.ID, tt.wantReason)
			}
		})
	}
}

func TestInstructor_SuggestSwap_promptListsOnlyFreeExercises(t *testing.T) {
	t.Parallel()

	cat := catalog.Default()
	all := cat.All()
	plan := workout.Plan{{Exercise: all[0], PhaseLabel: "Warmup"}}
	completer := &fakeCompleter{reply: "SLUG:" + all[1].ID}
	in := instructor.New(completer, testhelpers.NewTestLogger(t))

	if _, ok := in.SuggestSwap(t.Context(), "easier", plan, 0, cat); !ok {
		t.Fatal("SuggestSwap() found nothing")
	}
	system := completer.system[0]
	if strings.Contains(system, "SLUG:"+all[0].ID+" ") {
		t.Errorf("prompt lists %s which is already in the plan", all[0].ID)
	}
	if !strings.Contains(system, "SLUG:"+all[1].ID+" ") {
		t.Errorf("prompt does not list %s", all[1].ID)
	}
}

func TestInstructor_SuggestSwap_disabled(t *testing.T) {
	t.Parallel()

	cat := catalog.Default()
	e := cat.All()[0]
	in := instructor.New(nil, testhelpers.NewTestLogger(t))
	if _, ok := in.SuggestSwap(t.Context(), "core", workout.Plan{{Exercise: e}}, 0, cat); ok {
		t.Error("SuggestSwap() succeeded without a model")
	}
}
