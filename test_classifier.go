//go:build ignore
// +build ignore

package main

import (
	"encoding/json"
	"fmt"

	"github.com/opengovchat/decision-bot-go/internal/service/intent"
)

func main() {
	classifier := intent.New(37)

	queries := []string{
		"החלטה 2983",
		"החלטות בנושא חינוך של ממשלה 36",
		"כמה החלטות בנושא ביטחון יש?",
		"נתח לעומק את החלטה 550",
		"ספר לי עוד על ההחלטה השנייה",
		"החלטות אחרונות בנושא בריאות מהשנה האחרונה",
		"מה?",
		"15",
	}

	for i, query := range queries {
		fmt.Printf("\n=== Query #%d: %s ===\n", i+1, query)

		result := classifier.Classify(query)
		fmt.Printf("Intent: %s (confidence %.2f)\n", result.Intent, result.Confidence)
		fmt.Printf("Flags: statistical=%v comparison=%v context=%v\n",
			result.RouteFlags.IsStatistical,
			result.RouteFlags.IsComparison,
			result.RouteFlags.NeedsContext,
		)

		entities, _ := json.MarshalIndent(result.Entities, "", "  ")
		fmt.Printf("Entities: %s\n", entities)

		if result.Explanation != "" {
			fmt.Printf("Explanation: %s\n", result.Explanation)
		}
	}
}
