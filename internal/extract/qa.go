package extract

import "strings"

// Record is one generated question/answer pair.
type Record struct {
	Question string `json:"question"`
	Answer   string `json:"answer"`
}

// ValidateRecord reports whether both fields carry text.
func ValidateRecord(r Record) bool {
	return strings.TrimSpace(r.Question) != "" && strings.TrimSpace(r.Answer) != ""
}

// ParseQA reads "Qn: question" / "An: answer" lines in order.
//
// A question is emitted only once an answer has been seen for it. A question
// followed directly by another question is dropped, and when several answer
// lines follow one question only the last is kept. Lines that are neither
// markers are ignored.
func ParseQA(raw string) []Record {
	var out []Record
	var q, a string

	flush := func() {
		r := Record{Question: q, Answer: a}
		if ValidateRecord(r) {
			out = append(out, r)
		}
	}

	for _, line := range strings.Split(strings.TrimSpace(raw), "\n") {
		line = strings.TrimSpace(line)
		_, rest, ok := strings.Cut(line, ":")
		if !ok {
			continue
		}
		switch {
		case strings.HasPrefix(line, "Q"):
			flush()
			q = strings.TrimSpace(rest)
			a = ""
		case strings.HasPrefix(line, "A"):
			a = strings.TrimSpace(rest)
		}
	}
	flush()

	return out
}
