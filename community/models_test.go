package community

import (
	"reflect"
	"testing"
)

func TestCountReactionsEmitsAllTypes(t *testing.T) {
	counts := countReactions(nil)
	want := map[string]int{"support": 0, "relatable": 0, "hugs": 0}
	if !reflect.DeepEqual(counts, want) {
		t.Fatalf("countReactions(nil) = %v, want %v", counts, want)
	}
}

func TestCountReactionsTallysByType(t *testing.T) {
	reactions := []Reaction{
		{Type: "support"},
		{Type: "support"},
		{Type: "hugs"},
		{Type: "unknown"},
	}

	counts := countReactions(reactions)
	if counts["support"] != 2 || counts["hugs"] != 1 || counts["relatable"] != 0 {
		t.Fatalf("counts = %v", counts)
	}
	if _, ok := counts["unknown"]; ok {
		t.Fatalf("unknown reaction type leaked into counts: %v", counts)
	}
}

func TestIsValidReaction(t *testing.T) {
	for _, kind := range []string{"support", "relatable", "hugs"} {
		if !IsValidReaction(kind) {
			t.Errorf("IsValidReaction(%q) = false, want true", kind)
		}
	}
	for _, kind := range []string{"", "Support", "likes"} {
		if IsValidReaction(kind) {
			t.Errorf("IsValidReaction(%q) = true, want false", kind)
		}
	}
}
