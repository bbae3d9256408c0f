package domain

import (
	"encoding/json"
	"fmt"
	"sort"
)

// Record keys emitted by the notices API.
const (
	KeyID                = "_id"
	KeyPublicationNumber = "publication-number"
	KeyTitle             = "notice-title"
	KeyDescription       = "BT-24-Procedure"
	KeyBuyerName         = "organisation-name-buyer"
	KeyBuyerCountry      = "organisation-country-buyer"
	KeyBuyerCountrySub   = "buyer-country-sub"
	KeyPublicationDate   = "publication-date"
	KeyDecisionDate      = "winner-decision-date"
	KeyTenderValue       = "tender-value"
	KeyTenderCurrency    = "tender-value-cur"
	KeyWinnerName        = "winner-name"
	KeySearchTerm        = "_search_term"
	KeyLinks             = "links"
)

// Notice is one procurement record. It wraps the decoded document so every
// key, known or not, is reachable through Get.
type Notice struct{ doc Field }

func NewNotice(entries ...Entry) Notice { return Notice{doc: MapOf(entries...)} }

func (n Notice) Get(key string) Field { return n.doc.Get(key) }

// Doc exposes the whole record as a Map field.
func (n Notice) Doc() Field {
	if n.doc.kind != Map {
		return MapOf()
	}
	return n.doc
}

// ID is the record id, falling back to the publication number.
func (n Notice) ID() string {
	if s := n.Get(KeyID).Text(); s != "" {
		return s
	}
	return n.Get(KeyPublicationNumber).Text()
}

func (n *Notice) UnmarshalJSON(b []byte) error {
	var f Field
	if err := f.UnmarshalJSON(b); err != nil {
		return err
	}
	if f.kind != Map {
		// not a document; keep it renderable rather than failing the page
		f = MapOf()
	}
	n.doc = f
	return nil
}

func (n Notice) MarshalJSON() ([]byte, error) { return n.Doc().MarshalJSON() }

// NoticePage is the paginated envelope returned by the list endpoints.
type NoticePage struct {
	Data       []Notice `json:"data"`
	Total      int      `json:"total"`
	Page       int      `json:"page"`
	Size       int      `json:"size"`
	TotalPages int      `json:"total_pages"`
}

/********** trends **********/

// TrendPoint is one month of contract counts keyed by product.
type TrendPoint struct {
	Month  string
	Counts map[string]float64
}

func (p *TrendPoint) UnmarshalJSON(b []byte) error {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(b, &raw); err != nil {
		return fmt.Errorf("decode trend point: %w", err)
	}
	p.Counts = make(map[string]float64, len(raw))
	for k, v := range raw {
		var f Field
		if err := f.UnmarshalJSON(v); err != nil {
			continue
		}
		if k == "month" {
			p.Month = f.Text()
			continue
		}
		if n, ok := f.Float(); ok {
			p.Counts[k] = n
		}
	}
	return nil
}

func (p TrendPoint) MarshalJSON() ([]byte, error) {
	out := make(map[string]any, len(p.Counts)+1)
	for k, v := range p.Counts {
		out[k] = v
	}
	out["month"] = p.Month
	return json.Marshal(out)
}

// Trends is the payload of the stats endpoint.
type Trends struct {
	Data     []TrendPoint `json:"data"`
	Products []string     `json:"products"`
}

// ProductNames returns the advertised products, or the ones seen in the
// data (sorted) when the server sent none.
func (t Trends) ProductNames() []string {
	if len(t.Products) > 0 {
		return t.Products
	}
	seen := map[string]struct{}{}
	for _, p := range t.Data {
		for k := range p.Counts {
			seen[k] = struct{}{}
		}
	}
	out := make([]string, 0, len(seen))
	for k := range seen {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}
