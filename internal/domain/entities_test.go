package domain

import (
	"encoding/json"
	"strings"
	"testing"
)

func TestDateRangeIsValid(t *testing.T) {
	cases := []struct {
		name  string
		r     DateRange
		valid bool
	}{
		{"ordered", DateRange{Start: "2010-01-01", End: "2020-12-31"}, true},
		{"same day", DateRange{Start: "2020-06-01", End: "2020-06-01"}, true},
		{"reversed", DateRange{Start: "2020-12-31", End: "2010-01-01"}, false},
		{"missing start", DateRange{End: "2020-12-31"}, false},
		{"missing end", DateRange{Start: "2010-01-01"}, false},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := tc.r.IsValid(); got != tc.valid {
				t.Errorf("IsValid() = %v, want %v", got, tc.valid)
			}
		})
	}
}

func TestClassificationResultJSON(t *testing.T) {
	result := ClassificationResult{
		Intent: IntentQuery,
		Entities: &QueryEntities{
			EntityCore: EntityCore{
				GovernmentNumber: IntPtr(37),
				DecisionNumber:   IntPtr(2983),
			},
			Operation: OperationSpecificDecision,
		},
		Confidence:  0.85,
		Explanation: "Specific decision lookup",
	}

	data, err := json.Marshal(result)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	s := string(data)

	for _, want := range []string{
		`"intent_type":"QUERY"`,
		`"operation":"specific_decision"`,
		`"government_number":37`,
		`"decision_number":2983`,
		`"needs_context":false`,
	} {
		if !strings.Contains(s, want) {
			t.Errorf("marshaled result missing %s: %s", want, s)
		}
	}

	// empty optional fields stay off the wire
	for _, absent := range []string{"topic", "limit", "ministries", "date_range", "comparison_target"} {
		if strings.Contains(s, absent) {
			t.Errorf("marshaled result should omit %s: %s", absent, s)
		}
	}
}

func TestEntitiesCoreAccess(t *testing.T) {
	var e Entities = &ReferenceEntities{
		ReferenceType:     "positional",
		ReferencePosition: 2,
	}

	e.Core().Topic = "חינוך"

	ref := e.(*ReferenceEntities)
	if ref.Topic != "חינוך" {
		t.Errorf("Core() should expose the embedded fields, topic = %q", ref.Topic)
	}
}
