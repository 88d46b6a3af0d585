package fuzzy

import "testing"

func TestLevenshteinDistance(t *testing.T) {
	t.Parallel()

	cases := []struct {
		a, b string
		want int
	}{
		{"", "", 0},
		{"nap", "", 3},
		{"kitten", "sitting", 3},
		{"Drink Water", "drink water", 0},
		{"diapers", "diaper", 1},
	}
	for _, tc := range cases {
		if got := LevenshteinDistance(tc.a, tc.b); got != tc.want {
			t.Fatalf("LevenshteinDistance(%q, %q) = %d, expected %d", tc.a, tc.b, got, tc.want)
		}
	}
}

func TestSimilarTitles(t *testing.T) {
	t.Parallel()

	cases := map[[2]string]bool{
		{"Check smoke detectors", "check smoke detectors!"}: true,
		{"Check smoke detector", "Check smoke detectors"}:   true,
		{"Call your mom", "Call your mom tonight"}:          true,
		{"Take a nap", "Take a nap"}:                        true,
		{"Wash bottles", "Plan dinner"}:                     false,
		{"Nap", "Map"}:                                      false,
		{"", "anything"}:                                    false,
	}
	for pair, expected := range cases {
		if got := SimilarTitles(pair[0], pair[1]); got != expected {
			t.Fatalf("SimilarTitles(%q, %q) = %v, expected %v", pair[0], pair[1], got, expected)
		}
	}
}

func TestMatchAny(t *testing.T) {
	t.Parallel()

	active := []string{"Anchor dressers", "Pay that one bill"}
	if !MatchAny("Anchor dresers", active) {
		t.Fatalf("MatchAny() missed a near duplicate")
	}
	if MatchAny("Lower crib mattress", active) {
		t.Fatalf("MatchAny() matched an unrelated title")
	}
	if MatchAny("anything", nil) {
		t.Fatalf("MatchAny() matched against no candidates")
	}
}
