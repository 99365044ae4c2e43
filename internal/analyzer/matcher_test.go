package analyzer

import (
	"reflect"
	"testing"
)

func TestFindTermMatches(t *testing.T) {
	text := "A golden Retriever on the beach. The dog loves water! Is that a second dog?\nShot at dawn"

	got := FindTermMatches(text, []string{"dog", "retriever", "cat", " "})
	want := []TermMatch{
		{Term: "dog", Count: 2, Sentences: []string{"The dog loves water!", "Is that a second dog?"}},
		{Term: "retriever", Count: 1, Sentences: []string{"A golden Retriever on the beach."}},
	}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("expected %+v, got %+v", want, got)
	}

	if got := FindTermMatches(text, []string{"dawn"}); len(got) != 1 || got[0].Sentences[0] != "Shot at dawn" {
		t.Errorf("expected trailing text to be a sentence, got %+v", got)
	}
	if got := FindTermMatches("", []string{"dog"}); got != nil {
		t.Errorf("expected nil for empty text, got %+v", got)
	}
}

func TestQueryTerms(t *testing.T) {
	got := QueryTerms("  golden-retriever, puppy  2024 ")
	want := []string{"golden", "retriever", "puppy", "2024"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("expected %v, got %v", want, got)
	}
}
