package report

import (
	"net/url"
	"strconv"
	"strings"

	"github.com/fieldradar/fieldradar/internal/paginate"
)

// Request parameter names
const (
	ParamContentType       = "uc_post_type"
	ParamLegacyContentType = "post_type"
	ParamMetaKey           = "uc_meta_key"
	ParamField             = "field"
	ParamAction            = "action_view"
	ParamPage              = "uc_page"
	ParamPerPage           = "uc_per_page"
)

// Action selects the drill-down view of a report
type Action string

const (
	// ActionNone renders only the overview
	ActionNone Action = ""
	// ActionShowPosts lists every record using Request.Field
	ActionShowPosts Action = "show_posts"
	// ActionShowMeta pages through records using Request.MetaKey
	ActionShowMeta Action = "show_meta"
)

// Defaults fill in parameters the request leaves out
type Defaults struct {
	ContentType string
	PerPage     int
	MaxPerPage  int
}

// DefaultDefaults returns the built-in request defaults
func DefaultDefaults() Defaults {
	return Defaults{
		ContentType: "post",
		PerPage:     paginate.DefaultPerPage,
		MaxPerPage:  500,
	}
}

// Request is a parsed report request
type Request struct {
	ContentType string `json:"content_type"`
	// TypeSelected is true when the caller named a content type explicitly
	TypeSelected bool   `json:"type_selected"`
	MetaKey      string `json:"meta_key,omitempty"`
	Field        string `json:"field,omitempty"`
	Action       Action `json:"action,omitempty"`
	Page         int    `json:"page"`
	PerPage      int    `json:"per_page"`
}

// ParseRequest reads a report request from query parameters. Values are
// trimmed; the page defaults to 1 and the page size to d.PerPage, and both
// are clamped to at least 1.
func ParseRequest(q url.Values, d Defaults) Request {
	if d.ContentType == "" {
		d.ContentType = "post"
	}
	if d.PerPage < 1 {
		d.PerPage = paginate.DefaultPerPage
	}

	req := Request{
		ContentType: d.ContentType,
		MetaKey:     param(q, ParamMetaKey),
		Field:       param(q, ParamField),
		Action:      Action(param(q, ParamAction)),
		Page:        1,
		PerPage:     d.PerPage,
	}

	if _, ok := q[ParamContentType]; ok {
		req.ContentType = param(q, ParamContentType)
		req.TypeSelected = true
	} else if _, ok := q[ParamLegacyContentType]; ok {
		req.ContentType = param(q, ParamLegacyContentType)
	}

	if _, ok := q[ParamPage]; ok {
		req.Page = atLeastOne(leadingInt(param(q, ParamPage)))
	}
	if _, ok := q[ParamPerPage]; ok {
		req.PerPage = atLeastOne(leadingInt(param(q, ParamPerPage)))
	}
	if d.MaxPerPage > 0 && req.PerPage > d.MaxPerPage {
		req.PerPage = d.MaxPerPage
	}
	return req
}

// Query encodes the request back into query parameters
func (r Request) Query() url.Values {
	q := url.Values{}
	q.Set(ParamContentType, r.ContentType)
	if r.MetaKey != "" {
		q.Set(ParamMetaKey, r.MetaKey)
	}
	if r.Field != "" {
		q.Set(ParamField, r.Field)
	}
	if r.Action != ActionNone {
		q.Set(ParamAction, string(r.Action))
	}
	if r.Action == ActionShowMeta {
		q.Set(ParamPerPage, strconv.Itoa(r.PerPage))
		q.Set(ParamPage, strconv.Itoa(r.Page))
	}
	return q
}

func param(q url.Values, name string) string {
	return strings.TrimSpace(q.Get(name))
}

func atLeastOne(n int) int {
	if n < 1 {
		return 1
	}
	return n
}

// leadingInt parses an optional sign and the digits that follow it,
// ignoring anything after. Unparseable input is 0.
func leadingInt(s string) int {
	neg := false
	i := 0
	if i < len(s) && (s[i] == '-' || s[i] == '+') {
		neg = s[i] == '-'
		i++
	}
	n := 0
	for ; i < len(s) && s[i] >= '0' && s[i] <= '9'; i++ {
		n = n*10 + int(s[i]-'0')
		if n > 1<<30 {
			n = 1 << 30
		}
	}
	if neg {
		return -n
	}
	return n
}
