package intent

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/opengovchat/decision-bot-go/internal/domain"
	"github.com/opengovchat/decision-bot-go/internal/util"
)

const monthAlternation = `ינואר|פברואר|מרץ|מרס|אפריל|מאי|יוני|יולי|אוגוסט|ספטמבר|אוקטובר|נובמבר|דצמבר`

// A full date is DD/MM/YYYY or DD.MM.YYYY, with 2-digit years tolerated.
const fullDate = `\d{1,2}[./]\d{1,2}[./]\d{2,4}`

var (
	sinceYearPattern = regexp.MustCompile(`(?:מאז|משנת|החל\s+משנת|החל\s+מ[-־]?)\s*(\d{4})`)
	untilYearPattern = regexp.MustCompile(`עד\s+(?:שנת\s+)?(\d{4})`)

	betweenDatesPattern = regexp.MustCompile(
		`בין\s+(` + fullDate + `)\s*(?:ל\s*[-־–]?\s*|[-־–]\s*|עד\s+)(` + fullDate + `)`)
	betweenYearsPattern = regexp.MustCompile(
		`בין\s+(\d{4})\s*(?:ל\s*[-־–]?\s*|[-־–]\s*|עד\s+)(\d{4})`)
	betweenMonthsPattern = regexp.MustCompile(
		`בין\s+ב?(` + monthAlternation + `)\s+(\d{4})\s*(?:ל\s*[-־–]?\s*|עד\s+)ב?(` + monthAlternation + `)\s+(\d{4})`)

	fromToDatesPattern = regexp.MustCompile(`מ[-־]?(` + fullDate + `)\s+(?:ועד|עד)\s+(` + fullDate + `)`)
	fromToYearsPattern = regexp.MustCompile(`מ[-־]?(\d{4})\s+(?:ועד|עד)\s+(\d{4})`)
	bareYearRange      = regexp.MustCompile(`(?:^|\s)(\d{4})\s*[-־–]\s*(\d{4})(?:\s|$)`)

	monthYearPattern = regexp.MustCompile(`(?:^|\s)ב?(` + monthAlternation + `)\s+(\d{4})`)
	inYearPattern    = regexp.MustCompile(`בשנת\s+(\d{4})`)
	inYearShort      = regexp.MustCompile(`(?:^|\s)ב[-־]?(\d{4})(?:\s|$)`)
)

// standalone years are ignored right after these words: there the number
// is a decision or government number
var yearExclusionWords = buildSet(
	"החלטה", "ההחלטה", "החלטת", "החלטות", "מספר", "מס'", "ממשלה", "הממשלה",
)

type dateMatcher struct {
	name  string
	match func(e *extractor, text string) *domain.DateRange
}

// dateMatchers run in order; the first hit wins. Specific phrasings come
// before loose ones so "בין 2010 ל2020" is never read as a bare year.
var dateMatchers = []dateMatcher{
	{"this_year", func(e *extractor, text string) *domain.DateRange {
		if containsWord(text, "השנה") || strings.Contains(text, "השנה הנוכחית") {
			return yearRange(e.now().Year())
		}
		return nil
	}},
	{"this_month", func(e *extractor, text string) *domain.DateRange {
		if containsWord(text, "החודש") {
			now := e.now()
			return monthRange(now.Year(), now.Month())
		}
		return nil
	}},
	{"last_year", func(e *extractor, text string) *domain.DateRange {
		if strings.Contains(text, "שנה שעברה") {
			return yearRange(e.now().Year() - 1)
		}
		return nil
	}},
	{"last_month", func(e *extractor, text string) *domain.DateRange {
		if strings.Contains(text, "חודש שעבר") {
			prev := e.now().AddDate(0, -1, 0)
			return monthRange(prev.Year(), prev.Month())
		}
		return nil
	}},
	{"between_dates", func(e *extractor, text string) *domain.DateRange {
		if m := betweenDatesPattern.FindStringSubmatch(text); m != nil {
			return fullDateRange(m[1], m[2])
		}
		return nil
	}},
	{"between_months", func(e *extractor, text string) *domain.DateRange {
		if m := betweenMonthsPattern.FindStringSubmatch(text); m != nil {
			start, ok1 := e.monthBound(m[1], m[2])
			end, ok2 := e.monthBound(m[3], m[4])
			if ok1 && ok2 {
				return &domain.DateRange{Start: start.Start, End: end.End}
			}
		}
		return nil
	}},
	{"between_years", func(e *extractor, text string) *domain.DateRange {
		if m := betweenYearsPattern.FindStringSubmatch(text); m != nil {
			return yearPairRange(m[1], m[2])
		}
		return nil
	}},
	{"from_to_dates", func(e *extractor, text string) *domain.DateRange {
		if m := fromToDatesPattern.FindStringSubmatch(text); m != nil {
			return fullDateRange(m[1], m[2])
		}
		return nil
	}},
	{"from_to_years", func(e *extractor, text string) *domain.DateRange {
		if m := fromToYearsPattern.FindStringSubmatch(text); m != nil {
			return yearPairRange(m[1], m[2])
		}
		return nil
	}},
	{"since_year", func(e *extractor, text string) *domain.DateRange {
		if m := sinceYearPattern.FindStringSubmatch(text); m != nil {
			year, ok := parseYear(m[1])
			if !ok {
				return nil
			}
			return &domain.DateRange{
				Start: isoDate(year, time.January, 1),
				End:   util.FormatISODate(e.now()),
			}
		}
		return nil
	}},
	{"until_year", func(e *extractor, text string) *domain.DateRange {
		if m := untilYearPattern.FindStringSubmatch(text); m != nil {
			year, ok := parseYear(m[1])
			if !ok {
				return nil
			}
			return &domain.DateRange{
				Start: isoDate(1948, time.January, 1),
				End:   isoDate(year, time.December, 31),
			}
		}
		return nil
	}},
	{"bare_year_range", func(e *extractor, text string) *domain.DateRange {
		if m := bareYearRange.FindStringSubmatch(text); m != nil {
			return yearPairRange(m[1], m[2])
		}
		return nil
	}},
	{"month_year", func(e *extractor, text string) *domain.DateRange {
		if m := monthYearPattern.FindStringSubmatch(text); m != nil {
			if r, ok := e.monthBound(m[1], m[2]); ok {
				return r
			}
		}
		return nil
	}},
	{"in_year", func(e *extractor, text string) *domain.DateRange {
		if m := inYearPattern.FindStringSubmatch(text); m != nil {
			if year, ok := parseYear(m[1]); ok {
				return yearRange(year)
			}
		}
		return nil
	}},
	{"in_year_short", func(e *extractor, text string) *domain.DateRange {
		if m := inYearShort.FindStringSubmatch(text); m != nil {
			if year, ok := parseYear(m[1]); ok {
				return yearRange(year)
			}
		}
		return nil
	}},
	{"standalone_year", func(e *extractor, text string) *domain.DateRange {
		for _, m := range e.lib.yearTokenPattern.FindAllStringSubmatchIndex(text, -1) {
			year, ok := parseYear(text[m[2]:m[3]])
			if !ok {
				continue
			}
			words := strings.Fields(text[:m[2]])
			if len(words) > 0 {
				if _, excluded := yearExclusionWords[words[len(words)-1]]; excluded {
					continue
				}
			}
			return yearRange(year)
		}
		return nil
	}},
}

// dateRange runs the ordered matcher list and normalizes the winner so
// Start <= End always holds.
func (e *extractor) dateRange(text string) *domain.DateRange {
	for _, matcher := range dateMatchers {
		r := matcher.match(e, text)
		if r == nil {
			continue
		}
		if r.Start > r.End {
			r.Start, r.End = r.End, r.Start
		}
		return r
	}
	return nil
}

// monthBound resolves a Hebrew month name plus year to that month's range.
func (e *extractor) monthBound(name, yearStr string) (*domain.DateRange, bool) {
	month, ok := e.lib.monthNames[name]
	if !ok {
		return nil, false
	}
	year, ok := parseYear(yearStr)
	if !ok {
		return nil, false
	}
	return monthRange(year, month), true
}

func yearRange(year int) *domain.DateRange {
	return &domain.DateRange{
		Start: isoDate(year, time.January, 1),
		End:   isoDate(year, time.December, 31),
	}
}

func monthRange(year int, month time.Month) *domain.DateRange {
	lastDay := time.Date(year, month+1, 0, 0, 0, 0, 0, time.UTC).Day()
	return &domain.DateRange{
		Start: isoDate(year, month, 1),
		End:   isoDate(year, month, lastDay),
	}
}

func yearPairRange(startYear, endYear string) *domain.DateRange {
	start, ok1 := parseYear(startYear)
	end, ok2 := parseYear(endYear)
	if !ok1 || !ok2 {
		return nil
	}
	return &domain.DateRange{
		Start: isoDate(start, time.January, 1),
		End:   isoDate(end, time.December, 31),
	}
}

func fullDateRange(startDate, endDate string) *domain.DateRange {
	start, ok1 := parseFullDate(startDate)
	end, ok2 := parseFullDate(endDate)
	if !ok1 || !ok2 {
		return nil
	}
	return &domain.DateRange{Start: start, End: end}
}

// parseFullDate reads DD/MM/YYYY (or DD.MM.YY) into an ISO date string.
func parseFullDate(s string) (string, bool) {
	parts := strings.FieldsFunc(s, func(r rune) bool { return r == '/' || r == '.' })
	if len(parts) != 3 {
		return "", false
	}
	day, err1 := strconv.Atoi(parts[0])
	month, err2 := strconv.Atoi(parts[1])
	year, err3 := strconv.Atoi(parts[2])
	if err1 != nil || err2 != nil || err3 != nil {
		return "", false
	}
	year = expandYear(year)
	if month < 1 || month > 12 || day < 1 || day > 31 || year < 1900 || year > 2100 {
		return "", false
	}
	return isoDate(year, time.Month(month), day), true
}

// expandYear widens 2-digit years: 50 and above are 19xx, below are 20xx.
func expandYear(year int) int {
	if year >= 100 {
		return year
	}
	if year >= 50 {
		return 1900 + year
	}
	return 2000 + year
}

func parseYear(s string) (int, bool) {
	year, err := strconv.Atoi(s)
	if err != nil || year < 1900 || year > 2100 {
		return 0, false
	}
	return year, true
}

func isoDate(year int, month time.Month, day int) string {
	return fmt.Sprintf("%04d-%02d-%02d", year, int(month), day)
}
