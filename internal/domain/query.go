package domain

import (
	"net/url"
	"strconv"
	"strings"

	"github.com/go-playground/validator/v10"
)

var validate = validator.New()

// Source selects which list endpoint serves a query.
type Source string

const (
	SourceStored Source = "stored" // GET /notices, previously ingested records
	SourceLive   Source = "live"   // GET /live/search, proxied upstream search
)

// NoticeQuery is the pagination cursor plus active filters, sent as-is to
// the remote list endpoint.
type NoticeQuery struct {
	Source     Source   `json:"source" validate:"oneof=stored live"`
	Page       int      `json:"page" validate:"min=1"`
	Size       int      `json:"size" validate:"min=1,max=100"`
	Countries  []string `json:"countries,omitempty" validate:"dive,len=3,alpha"`
	SearchText string   `json:"search_text,omitempty" validate:"max=200"`
	WinnerOnly bool     `json:"winner_only,omitempty"`
}

func (q NoticeQuery) Validate() error { return validate.Struct(q) }

// Values encodes the query the way the list endpoints expect it.
// Countries are repeated in selection order.
func (q NoticeQuery) Values() url.Values {
	v := url.Values{}
	v.Set("page", strconv.Itoa(q.Page))
	v.Set("size", strconv.Itoa(q.Size))
	if s := strings.TrimSpace(q.SearchText); s != "" {
		v.Set("search_text", s)
	}
	for _, c := range q.Countries {
		v.Add("country", c)
	}
	if q.WinnerOnly {
		v.Set("withWinnerOnly", "true")
	}
	return v
}

// Key is a canonical cache key for the query.
func (q NoticeQuery) Key() string {
	return string(q.Source) + ":" + q.Values().Encode()
}

// Equal compares two queries field by field, country order included.
func (q NoticeQuery) Equal(o NoticeQuery) bool {
	if q.Source != o.Source || q.Page != o.Page || q.Size != o.Size ||
		q.SearchText != o.SearchText || q.WinnerOnly != o.WinnerOnly ||
		len(q.Countries) != len(o.Countries) {
		return false
	}
	for i := range q.Countries {
		if q.Countries[i] != o.Countries[i] {
			return false
		}
	}
	return true
}
