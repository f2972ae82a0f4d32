package docsite

import "time"

// MaxPageSequence bounds the number of visits kept in a session.
const MaxPageSequence = 50

// Session is the analytics session of one browser tab.
type Session struct {
	ID           string      `json:"id"`
	StartTime    time.Time   `json:"startTime"`
	PageSequence []PageVisit `json:"pageSequence"`
	PageCount    int         `json:"pageCount"`
}

// PageVisit is one entry of the session's page sequence.
type PageVisit struct {
	Path      string    `json:"path"`
	Timestamp time.Time `json:"timestamp"`
	Index     int       `json:"index"`
}

// Visit records a page view, keeping only the last MaxPageSequence visits.
func (s *Session) Visit(path string, at time.Time) {
	s.PageCount++
	s.PageSequence = append(s.PageSequence, PageVisit{
		Path:      path,
		Timestamp: at,
		Index:     s.PageCount,
	})
	if n := len(s.PageSequence); n > MaxPageSequence {
		s.PageSequence = append([]PageVisit(nil), s.PageSequence[n-MaxPageSequence:]...)
	}
}

// PreviousPath returns the path visited before the current one, or "".
func (s *Session) PreviousPath() string {
	if n := len(s.PageSequence); n > 1 {
		return s.PageSequence[n-2].Path
	}
	return ""
}
