package intent

import (
	"testing"
	"time"
)

func testExtractor() *extractor {
	fixed := func() time.Time {
		return time.Date(2024, time.March, 15, 12, 0, 0, 0, time.UTC)
	}
	return newExtractor(NewLibrary(), 37, fixed)
}

func TestDecisionNumber(t *testing.T) {
	e := testExtractor()

	cases := []struct {
		name          string
		text          string
		wantDecision  int // 0 means nil
		wantAmbiguous int // 0 means nil
	}{
		{"with number word", "החלטה מספר 2983", 2983, 0},
		{"abbreviated", "החלטה מס' 550", 550, 0},
		{"with article", "ההחלטה 1000", 1000, 0},
		{"government decision above current government", "החלטת ממשלה 660", 660, 0},
		{"government decision at or below current government", "החלטת ממשלה 15", 0, 15},
		{"disambiguated by number word", "החלטת ממשלה מספר 15", 15, 0},
		{"disambiguated by analysis verb", "נתח את החלטת ממשלה 15", 15, 0},
		{"no number", "החלטות בנושא חינוך", 0, 0},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			decision, ambiguous := e.decisionNumber(tc.text)
			checkOptionalInt(t, "decision", decision, tc.wantDecision)
			checkOptionalInt(t, "ambiguous", ambiguous, tc.wantAmbiguous)
		})
	}
}

func TestGovernmentNumber(t *testing.T) {
	e := testExtractor()

	cases := []struct {
		name string
		text string
		want int // 0 means nil
	}{
		{"digits", "החלטות של ממשלה 37", 37},
		{"digits with article and dash", "החלטות של הממשלה ה-37", 37},
		{"current government phrase", "החלטות של הממשלה הנוכחית", 37},
		{"hebrew compound number word", "ממשלה שלושים ושש", 36},
		{"government decision construct is not a government", "החלטת ממשלה 660", 0},
		{"no government", "כמה החלטות בנושא חינוך", 0},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			checkOptionalInt(t, "government", e.governmentNumber(tc.text), tc.want)
		})
	}
}

func TestLimit(t *testing.T) {
	e := testExtractor()

	cases := []struct {
		name string
		text string
		want int // 0 means nil
	}{
		{"digits", "תביא לי 5 החלטות", 5},
		{"clamped to maximum", "הצג 200 החלטות", maxLimit},
		{"hebrew number word", "עשר החלטות בנושא חינוך", 10},
		{"no limit", "החלטות בנושא חינוך", 0},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			checkOptionalInt(t, "limit", e.limit(tc.text), tc.want)
		})
	}
}

func TestTopic(t *testing.T) {
	e := testExtractor()

	cases := []struct {
		name string
		text string
		want string
	}{
		{"plain", "החלטות בנושא חינוך", "חינוך"},
		{"definite article resolves to canonical", "כמה החלטות בתחום הבריאות", "בריאות"},
		{"multiword synonym", "החלטות בנושא איכות הסביבה", "סביבה"},
		{"stops before trailing qualifier", "החלטות בנושא חינוך של ממשלה 37", "חינוך"},
		{"al marker", "החלטות על תחבורה ציבורית", "תחבורה"},
		{"fuzzy match", "החלטות בנושא החינוך הדתי", "חינוך"},
		{"unknown topic passes through", "החלטות בנושא ספורט", "ספורט"},
		{"ordering word is rejected", "החלטות בנושא האחרונות", ""},
		{"no topic", "החלטה 2983", ""},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := e.topic(tc.text); got != tc.want {
				t.Errorf("topic(%q) = %q, want %q", tc.text, got, tc.want)
			}
		})
	}
}

func TestMinistries(t *testing.T) {
	e := testExtractor()

	t.Run("two ministries", func(t *testing.T) {
		got := e.ministries("ההחלטות של משרד החינוך ומשרד האוצר")
		want := map[string]bool{"משרד החינוך": true, "משרד האוצר": true}
		if len(got) != len(want) {
			t.Fatalf("ministries = %v, want %d entries", got, len(want))
		}
		for _, m := range got {
			if !want[m] {
				t.Errorf("unexpected ministry %q", m)
			}
		}
	})

	t.Run("variant resolves to canonical name", func(t *testing.T) {
		got := e.ministries("החלטות של משרד השיכון")
		if len(got) != 1 || got[0] != "משרד הבינוי והשיכון" {
			t.Errorf("ministries = %v, want the canonical housing ministry", got)
		}
	})

	t.Run("none", func(t *testing.T) {
		if got := e.ministries("כמה החלטות בנושא חינוך"); got != nil {
			t.Errorf("ministries = %v, want nil", got)
		}
	})
}

func TestComparisonTarget(t *testing.T) {
	e := testExtractor()

	cases := []struct {
		name string
		text string
		want string
	}{
		{"between construct", "השווה בין ממשלה 36 לממשלה 37", "governments:36,37"},
		{"versus construct", "ממשלה 36 לעומת ממשלה 37", "governments:36,37"},
		{"hebrew number words", "השווה בין ממשלה שלושים ושש לבין ממשלה שלושים ושבע", "governments:36,37"},
		{"two governments without comparison phrasing", "החלטות של ממשלה 36 וממשלה 37", ""},
		{"comparison phrasing with one government", "השווה את ממשלה 37", ""},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := e.comparisonTarget(tc.text); got != tc.want {
				t.Errorf("comparisonTarget(%q) = %q, want %q", tc.text, got, tc.want)
			}
		})
	}
}

func TestDecisionTypeExtraction(t *testing.T) {
	e := testExtractor()

	if got := e.decisionType("החלטות אופרטיביות בנושא חינוך"); got != "אופרטיבית" {
		t.Errorf("decisionType = %q, want operative", got)
	}
	if got := e.decisionType("החלטות בנושא חינוך"); got != "" {
		t.Errorf("decisionType = %q, want empty", got)
	}
}

func TestExtractComposition(t *testing.T) {
	e := testExtractor()

	ex := e.extract("תביא לי 5 החלטות בנושא חינוך של ממשלה 37 משנת 2020")

	checkOptionalInt(t, "government", ex.Core.GovernmentNumber, 37)
	checkOptionalInt(t, "limit", ex.Core.Limit, 5)
	if ex.Core.Topic != "חינוך" {
		t.Errorf("topic = %q, want חינוך", ex.Core.Topic)
	}
	if ex.Core.DateRange == nil {
		t.Fatal("expected a date range")
	}
	if ex.Core.DateRange.Start != "2020-01-01" {
		t.Errorf("date range start = %q, want 2020-01-01", ex.Core.DateRange.Start)
	}
	if !ex.HasYearToken {
		t.Error("expected a year token")
	}
}

func TestExtractYearTokenWithoutDateRange(t *testing.T) {
	e := testExtractor()

	// after "decision" the number is a decision number, not a year
	ex := e.extract("החלטה 2020")
	if ex.Core.DateRange != nil {
		t.Errorf("date range = %v, want nil", ex.Core.DateRange)
	}
	if !ex.HasYearToken {
		t.Error("expected a year token")
	}
	checkOptionalInt(t, "decision", ex.Core.DecisionNumber, 2020)
}

func checkOptionalInt(t *testing.T, label string, got *int, want int) {
	t.Helper()
	if want == 0 {
		if got != nil {
			t.Errorf("%s = %d, want nil", label, *got)
		}
		return
	}
	if got == nil {
		t.Fatalf("%s = nil, want %d", label, want)
	}
	if *got != want {
		t.Errorf("%s = %d, want %d", label, *got, want)
	}
}
