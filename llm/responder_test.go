package llm

import (
	"context"
	"errors"
	"strings"
	"testing"
)

// fakeCompleter scripts one reply per call and records every request.
type fakeCompleter struct {
	replies []fakeReply
	calls   []fakeCall
}

type fakeReply struct {
	content string
	err     error
}

type fakeCall struct {
	messages []ChatMessage
	opts     ChatOptions
}

func (f *fakeCompleter) Chat(_ context.Context, messages []ChatMessage, opts ChatOptions) (ChatResult, error) {
	f.calls = append(f.calls, fakeCall{messages: messages, opts: opts})
	if len(f.replies) == 0 {
		return ChatResult{}, errors.New("fake: no scripted reply")
	}
	reply := f.replies[0]
	f.replies = f.replies[1:]
	if reply.err != nil {
		return ChatResult{}, reply.err
	}
	return ChatResult{Content: reply.content}, nil
}

func (f *fakeCompleter) analysisCalls() int {
	count := 0
	for _, call := range f.calls {
		if call.opts.JSONObject {
			count++
		}
	}
	return count
}

func (f *fakeCompleter) completionCalls() int {
	return len(f.calls) - f.analysisCalls()
}

func TestAnalyzeEmotionValidPayload(t *testing.T) {
	backend := &fakeCompleter{replies: []fakeReply{
		{content: `{"emotion":"anxiety","intensity":8,"sentiment":"negative"}`},
	}}
	r := NewResponder(backend)

	analysis := r.AnalyzeEmotion(context.Background(), "I feel anxious")
	if analysis.Emotion != "anxiety" || analysis.Intensity != 8 || analysis.Sentiment != SentimentNegative {
		t.Fatalf("unexpected analysis: %+v", analysis)
	}
	if !backend.calls[0].opts.JSONObject {
		t.Fatal("analysis call must request a JSON object response")
	}
}

func TestAnalyzeEmotionFailureReturnsNeutralDefault(t *testing.T) {
	backend := &fakeCompleter{replies: []fakeReply{
		{err: errors.New("boom")},
	}}
	r := NewResponder(backend)

	analysis := r.AnalyzeEmotion(context.Background(), "anything")
	want := EmotionAnalysis{Emotion: "unknown", Intensity: 5, Sentiment: SentimentNeutral}
	if analysis != want {
		t.Fatalf("got %+v, want %+v", analysis, want)
	}
}

func TestAnalyzeEmotionRejectsMalformedShapes(t *testing.T) {
	cases := map[string]string{
		"not json":          "this is not json",
		"intensity too big": `{"emotion":"fear","intensity":42,"sentiment":"negative"}`,
		"intensity zero":    `{"emotion":"fear","intensity":0,"sentiment":"negative"}`,
		"bad sentiment":     `{"emotion":"fear","intensity":5,"sentiment":"furious"}`,
		"blank emotion":     `{"emotion":"  ","intensity":5,"sentiment":"neutral"}`,
	}
	want := EmotionAnalysis{Emotion: "unknown", Intensity: 5, Sentiment: SentimentNeutral}

	for name, payload := range cases {
		backend := &fakeCompleter{replies: []fakeReply{{content: payload}}}
		r := NewResponder(backend)
		if got := r.AnalyzeEmotion(context.Background(), "text"); got != want {
			t.Errorf("%s: got %+v, want neutral default", name, got)
		}
	}
}

func TestSupportiveResponseUsesAnalysisInPrompt(t *testing.T) {
	backend := &fakeCompleter{replies: []fakeReply{
		{content: `{"emotion":"dread","intensity":8,"sentiment":"negative"}`},
		{content: "You are doing great."},
	}}
	r := NewResponder(backend)

	got := r.SupportiveResponse(context.Background(), "everything is falling apart", "Sad")
	if got != "You are doing great." {
		t.Fatalf("got %q", got)
	}
	if len(backend.calls) != 2 {
		t.Fatalf("expected 2 backend calls, got %d", len(backend.calls))
	}

	system := backend.calls[1].messages[0].Content
	if !strings.Contains(system, "dread") {
		t.Errorf("system prompt missing detected emotion: %q", system)
	}
	if !strings.Contains(system, "stabilization") {
		t.Errorf("high-intensity negative analysis must trigger stabilization framing: %q", system)
	}
	if !strings.Contains(system, "mood as: Sad") {
		t.Errorf("system prompt missing explicit mood: %q", system)
	}
	if backend.calls[1].opts.MaxTokens != supportiveMaxTokens {
		t.Errorf("max tokens = %d, want %d", backend.calls[1].opts.MaxTokens, supportiveMaxTokens)
	}
}

func TestSupportiveResponseSkipsAnalysisForBlankContent(t *testing.T) {
	backend := &fakeCompleter{replies: []fakeReply{
		{content: "A gentle reply."},
	}}
	r := NewResponder(backend)

	if got := r.SupportiveResponse(context.Background(), "   ", "Happy"); got != "A gentle reply." {
		t.Fatalf("got %q", got)
	}
	if backend.analysisCalls() != 0 {
		t.Fatalf("blank content must not be analyzed, saw %d analysis calls", backend.analysisCalls())
	}
}

func TestSupportiveResponseAnalysisFailureDoesNotAbort(t *testing.T) {
	backend := &fakeCompleter{replies: []fakeReply{
		{err: errors.New("analysis down")},
		{content: "Still here for you."},
	}}
	r := NewResponder(backend)

	if got := r.SupportiveResponse(context.Background(), "rough day", ""); got != "Still here for you." {
		t.Fatalf("got %q", got)
	}
}

func TestSupportiveResponseEmptyCompletionUsesGenericReply(t *testing.T) {
	backend := &fakeCompleter{replies: []fakeReply{
		{content: `{"emotion":"calm","intensity":3,"sentiment":"positive"}`},
		{content: "   "},
	}}
	r := NewResponder(backend)

	if got := r.SupportiveResponse(context.Background(), "feeling okay", ""); got != genericSupportiveReply {
		t.Fatalf("got %q, want generic reply", got)
	}
}

func TestSupportiveResponseFallbackIsRandomized(t *testing.T) {
	seen := make(map[string]bool)
	for trial := 0; trial < 100; trial++ {
		backend := &fakeCompleter{} // every call errors
		r := NewResponder(backend)
		seen[r.SupportiveResponse(context.Background(), "help", "")] = true
	}
	if len(seen) < 2 {
		t.Fatalf("expected multiple distinct fallback messages over many trials, got %d", len(seen))
	}
	for msg := range seen {
		found := false
		for _, candidate := range supportiveFallbacks {
			if msg == candidate {
				found = true
				break
			}
		}
		if !found {
			t.Fatalf("fallback %q not from the canned pool", msg)
		}
	}
}

func TestSupportiveResponseFallbackSelectionIsUniformPick(t *testing.T) {
	backend := &fakeCompleter{}
	r := NewResponder(backend)
	r.pick = func(n int) int { return n - 1 }

	if got := r.SupportiveResponse(context.Background(), "help", ""); got != supportiveFallbacks[len(supportiveFallbacks)-1] {
		t.Fatalf("pick override not honored, got %q", got)
	}
}

func TestChatbotResponseEndToEnd(t *testing.T) {
	backend := &fakeCompleter{replies: []fakeReply{
		{content: `{"emotion":"anxiety","intensity":8,"sentiment":"negative"}`},
		{content: "Let's breathe together."},
	}}
	r := NewResponder(backend)

	turns := []ConversationTurn{
		{Content: "I feel anxious about my exam", IsFromUser: true},
	}
	got := r.ChatbotResponse(context.Background(), turns, "Jamie")
	if got != "Let's breathe together." {
		t.Fatalf("got %q", got)
	}

	completion := backend.calls[1]
	system := completion.messages[0].Content
	if !strings.Contains(system, "anxiety") {
		t.Errorf("system prompt missing detected emotion: %q", system)
	}
	if !strings.Contains(system, "stabilization") {
		t.Errorf("system prompt missing stabilization directive: %q", system)
	}
	if !strings.Contains(system, "Jamie") {
		t.Errorf("system prompt must name the user: %q", system)
	}
	if completion.messages[1].Role != "user" || completion.messages[1].Content != turns[0].Content {
		t.Errorf("history not forwarded: %+v", completion.messages[1:])
	}
	if completion.opts.MaxTokens != chatMaxTokens {
		t.Errorf("max tokens = %d, want %d", completion.opts.MaxTokens, chatMaxTokens)
	}
}

func TestChatbotResponseSkipsAnalysisWithoutUserTurns(t *testing.T) {
	backend := &fakeCompleter{replies: []fakeReply{
		{content: "Welcome back."},
	}}
	r := NewResponder(backend)

	turns := []ConversationTurn{
		{Content: "Hello! How are you feeling today?", IsFromUser: false},
	}
	got := r.ChatbotResponse(context.Background(), turns, "Jamie")
	if got != "Welcome back." {
		t.Fatalf("got %q", got)
	}
	if backend.analysisCalls() != 0 {
		t.Fatalf("no user turn present, expected zero analysis calls, got %d", backend.analysisCalls())
	}
	if backend.completionCalls() != 1 {
		t.Fatalf("expected exactly one completion call, got %d", backend.completionCalls())
	}
}

func TestChatbotResponseMapsRolesByAuthor(t *testing.T) {
	backend := &fakeCompleter{replies: []fakeReply{
		{content: `{"emotion":"hope","intensity":4,"sentiment":"positive"}`},
		{content: "Keep going."},
	}}
	r := NewResponder(backend)

	turns := []ConversationTurn{
		{Content: "I had a hard week.", IsFromUser: true},
		{Content: "That sounds heavy. What happened?", IsFromUser: false},
		{Content: "But today went better.", IsFromUser: true},
	}
	r.ChatbotResponse(context.Background(), turns, "Sam")

	completion := backend.calls[1]
	wantRoles := []string{"system", "user", "assistant", "user"}
	if len(completion.messages) != len(wantRoles) {
		t.Fatalf("got %d messages, want %d", len(completion.messages), len(wantRoles))
	}
	for i, want := range wantRoles {
		if completion.messages[i].Role != want {
			t.Errorf("message %d role = %q, want %q", i, completion.messages[i].Role, want)
		}
	}

	// Only the latest user turn feeds the analysis.
	if got := backend.calls[0].messages[1].Content; got != "But today went better." {
		t.Errorf("analyzed %q, want the latest user turn", got)
	}
}

func TestChatbotResponseFallbackPool(t *testing.T) {
	seen := make(map[string]bool)
	for trial := 0; trial < 100; trial++ {
		r := NewResponder(&fakeCompleter{})
		seen[r.ChatbotResponse(context.Background(), []ConversationTurn{{Content: "hi", IsFromUser: true}}, "Sam")] = true
	}
	if len(seen) < 2 {
		t.Fatalf("expected varied chat fallbacks, got %d distinct", len(seen))
	}
	for msg := range seen {
		found := false
		for _, candidate := range chatFallbacks {
			if msg == candidate {
				found = true
				break
			}
		}
		if !found {
			t.Fatalf("fallback %q not from the chat pool", msg)
		}
	}
}

func TestWellbeingTipsParsesStructuredReply(t *testing.T) {
	backend := &fakeCompleter{replies: []fakeReply{
		{content: `{"insights":["Mood dips on Mondays"],"tips":[{"category":"Physical","title":"Walk","content":"Take a walk.","icon":""}]}`},
	}}
	r := NewResponder(backend)

	report := r.WellbeingTips(context.Background(), []MoodSample{{Mood: "Sad"}})
	if len(report.Insights) != 1 || report.Insights[0] != "Mood dips on Mondays" {
		t.Fatalf("unexpected insights: %+v", report.Insights)
	}
	if len(report.Tips) != 1 || report.Tips[0].Icon != "fas fa-heart" {
		t.Fatalf("blank icon must default, got %+v", report.Tips)
	}
}

func TestWellbeingTipsFallbackBundle(t *testing.T) {
	cases := map[string]*fakeCompleter{
		"backend error": {},
		"bad json":      {replies: []fakeReply{{content: "oops"}}},
		"empty bundle":  {replies: []fakeReply{{content: `{"insights":[],"tips":[]}`}}},
		"blank tip":     {replies: []fakeReply{{content: `{"insights":["x"],"tips":[{"category":"","title":"t","content":"c"}]}`}}},
	}

	for name, backend := range cases {
		r := NewResponder(backend)
		report := r.WellbeingTips(context.Background(), nil)
		if len(report.Insights) != 2 || len(report.Tips) != 3 {
			t.Errorf("%s: expected the full fallback bundle, got %d insights / %d tips", name, len(report.Insights), len(report.Tips))
			continue
		}
		categories := map[string]bool{}
		for _, tip := range report.Tips {
			categories[tip.Category] = true
		}
		for _, want := range []string{"Mindfulness", "Physical", "Creative"} {
			if !categories[want] {
				t.Errorf("%s: fallback bundle missing %s tip", name, want)
			}
		}
	}
}

func TestWellbeingTipsSendsHistoryAsJSON(t *testing.T) {
	backend := &fakeCompleter{replies: []fakeReply{
		{content: `{"insights":["steady"],"tips":[{"category":"Social","title":"Call","content":"Call a friend.","icon":"fas fa-phone"}]}`},
	}}
	r := NewResponder(backend)

	r.WellbeingTips(context.Background(), []MoodSample{{Mood: "Happy"}})
	sent := backend.calls[0].messages[1].Content
	if !strings.Contains(sent, `"mood":"Happy"`) {
		t.Fatalf("mood history not serialized into the request: %q", sent)
	}
	if !backend.calls[0].opts.JSONObject {
		t.Fatal("wellbeing call must request a JSON object response")
	}
}
