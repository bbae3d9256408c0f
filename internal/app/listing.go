package app

import (
	"slices"
	"strings"

	"ted_dashboard/internal/domain"
)

// Cursor is the pagination position owned by a screen.
type Cursor struct {
	Page     int `json:"page"`
	PageSize int `json:"page_size"`
}

// Filters are the user-selected constraints of a list screen.
type Filters struct {
	SearchText string   `json:"search_text,omitempty"`
	Countries  []string `json:"countries,omitempty"`
	Product    string   `json:"product,omitempty"`
	WinnerOnly bool     `json:"winner_only,omitempty"`
}

func (f Filters) Active() bool {
	return f.SearchText != "" || len(f.Countries) > 0 || f.Product != "" || f.WinnerOnly
}

func (f Filters) HasCountry(code string) bool {
	return slices.Contains(f.Countries, strings.ToUpper(code))
}

// ListState is everything a list screen renders from. It only changes
// through Reduce.
type ListState struct {
	Source     domain.Source   `json:"source"`
	Cursor     Cursor          `json:"cursor"`
	Filters    Filters         `json:"filters"`
	Records    []domain.Notice `json:"records"`
	TotalPages int             `json:"total_pages"`
	Loading    bool            `json:"loading"`
	Err        string          `json:"error,omitempty"`
	LatestSeq  uint64          `json:"latest_seq"`
}

func NewListState(src domain.Source, pageSize int) ListState {
	if pageSize <= 0 {
		pageSize = 10
	}
	return ListState{Source: src, Cursor: Cursor{Page: 1, PageSize: pageSize}}
}

// Query is what gets sent to the list endpoint for this state. A selected
// product takes the place of free text.
func (s ListState) Query() domain.NoticeQuery {
	search := s.Filters.SearchText
	if s.Filters.Product != "" {
		search = s.Filters.Product
	}
	return domain.NoticeQuery{
		Source:     s.Source,
		Page:       s.Cursor.Page,
		Size:       s.Cursor.PageSize,
		Countries:  slices.Clone(s.Filters.Countries),
		SearchText: search,
		WinnerOnly: s.Filters.WinnerOnly,
	}
}

func (s ListState) HasPrev() bool { return s.Cursor.Page > 1 }
func (s ListState) HasNext() bool { return s.TotalPages > 0 && s.Cursor.Page < s.TotalPages }

// NoResults is the settled empty state, distinct from loading and error.
func (s ListState) NoResults() bool {
	return !s.Loading && s.Err == "" && len(s.Records) == 0
}

/********** actions **********/

type Action interface{ isAction() }

type (
	SetPage  struct{ N int }
	NextPage struct{}
	PrevPage struct{}

	// ToggleCountry adds or removes a country (multi-select).
	ToggleCountry struct{ Code string }
	// SelectCountry selects a single country; selecting it again clears it.
	SelectCountry struct{ Code string }

	ToggleProduct    struct{ Name string }
	SetSearch        struct{ Text string }
	ToggleWinnerOnly struct{}
	ClearFilters     struct{}

	FetchIssued    struct{ Seq uint64 }
	FetchSucceeded struct {
		Seq  uint64
		Page domain.NoticePage
	}
	FetchFailed struct {
		Seq     uint64
		Message string
	}
)

func (SetPage) isAction()          {}
func (NextPage) isAction()         {}
func (PrevPage) isAction()         {}
func (ToggleCountry) isAction()    {}
func (SelectCountry) isAction()    {}
func (ToggleProduct) isAction()    {}
func (SetSearch) isAction()        {}
func (ToggleWinnerOnly) isAction() {}
func (ClearFilters) isAction()     {}
func (FetchIssued) isAction()      {}
func (FetchSucceeded) isAction()   {}
func (FetchFailed) isAction()      {}

// Reduce is the only state transition of a list screen. Every filter
// change moves the cursor back to page 1 in the same step, and fetch results
// older than the latest issued request are dropped.
func Reduce(s ListState, a Action) ListState {
	switch a := a.(type) {
	case SetPage:
		s.Cursor.Page = max(1, a.N)
	case NextPage:
		if s.HasNext() {
			s.Cursor.Page++
		}
	case PrevPage:
		if s.HasPrev() {
			s.Cursor.Page--
		}

	case ToggleCountry:
		code := strings.ToUpper(strings.TrimSpace(a.Code))
		if code == "" {
			return s
		}
		if i := slices.Index(s.Filters.Countries, code); i >= 0 {
			s.Filters.Countries = slices.Delete(slices.Clone(s.Filters.Countries), i, i+1)
		} else {
			s.Filters.Countries = append(slices.Clone(s.Filters.Countries), code)
		}
		s.Cursor.Page = 1
	case SelectCountry:
		code := strings.ToUpper(strings.TrimSpace(a.Code))
		if code == "" {
			return s
		}
		if len(s.Filters.Countries) == 1 && s.Filters.Countries[0] == code {
			s.Filters.Countries = nil
		} else {
			s.Filters.Countries = []string{code}
		}
		s.Cursor.Page = 1
	case ToggleProduct:
		if s.Filters.Product == a.Name {
			s.Filters.Product = ""
		} else {
			s.Filters.Product = a.Name
		}
		s.Cursor.Page = 1
	case SetSearch:
		s.Filters.SearchText = strings.TrimSpace(a.Text)
		s.Cursor.Page = 1
	case ToggleWinnerOnly:
		s.Filters.WinnerOnly = !s.Filters.WinnerOnly
		s.Cursor.Page = 1
	case ClearFilters:
		s.Filters = Filters{}
		s.Cursor.Page = 1

	case FetchIssued:
		if a.Seq < s.LatestSeq {
			return s
		}
		s.LatestSeq = a.Seq
		s.Loading = true
		s.Err = ""
	case FetchSucceeded:
		if a.Seq < s.LatestSeq {
			return s
		}
		s.Records = a.Page.Data
		s.TotalPages = a.Page.TotalPages
		s.Loading = false
		s.Err = ""
	case FetchFailed:
		if a.Seq < s.LatestSeq {
			return s
		}
		s.Records = nil
		s.Loading = false
		s.Err = a.Message
	}
	return s
}

// ReduceAll folds actions left to right.
func ReduceAll(s ListState, actions ...Action) ListState {
	for _, a := range actions {
		s = Reduce(s, a)
	}
	return s
}
