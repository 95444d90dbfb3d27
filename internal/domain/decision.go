package domain

import (
	"strconv"
	"time"
)

// Decision is a single government decision record. Operativity holds the
// decision class ("אופרטיבית" or "דקלרטיבית") when the source page states it.
type Decision struct {
	ID               string    `json:"id"`
	GovernmentNumber int       `json:"government_number"`
	DecisionNumber   int       `json:"decision_number"`
	Title            string    `json:"title"`
	Content          string    `json:"content,omitempty"`
	Topic            string    `json:"topic,omitempty"`
	Ministries       []string  `json:"ministries,omitempty"`
	Operativity      string    `json:"operativity,omitempty"`
	DecisionDate     string    `json:"decision_date"` // ISO YYYY-MM-DD
	URL              string    `json:"url,omitempty"`
	CreatedAt        time.Time `json:"created_at,omitempty"`
}

// Key identifies a decision uniquely across governments.
func (d *Decision) Key() string {
	return decisionKey(d.GovernmentNumber, d.DecisionNumber)
}

// DecisionRef is a lightweight pointer to a decision, used in conversation
// context so positional references ("the second one") can be resolved.
type DecisionRef struct {
	GovernmentNumber int    `json:"government_number"`
	DecisionNumber   int    `json:"decision_number"`
	Title            string `json:"title,omitempty"`
}

func (r DecisionRef) Key() string {
	return decisionKey(r.GovernmentNumber, r.DecisionNumber)
}

func decisionKey(gov, dec int) string {
	return strconv.Itoa(gov) + "/" + strconv.Itoa(dec)
}

// CountBucket is one labelled tally of a statistical answer, e.g. a single
// government's decision count inside a comparison.
type CountBucket struct {
	Label string `json:"label"`
	Count int    `json:"count"`
}
