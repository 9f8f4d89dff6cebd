package tool

import "encoding/json"

// PagesHelper turns a requested page and page size ("pack") into an
// offset/limit pair. A zero Pack means no limit.
type PagesHelper struct {
	Page   int
	Pack   int
	Offset int
	Limit  int
}

// NewPagesHelper clamps page to at least 1 and, when given, pack to at
// least 1.
//
//	h := tool.NewPagesHelper(3, 5) // Offset 10, Limit 5
func NewPagesHelper(page int, pack ...int) *PagesHelper {
	h := &PagesHelper{Page: max(1, page)}
	if len(pack) > 0 {
		h.Limit = max(1, pack[0])
		h.Offset = h.Limit * (h.Page - 1)
	}
	h.Pack = h.Limit
	return h
}

// Paginator wraps one page of items. total, when known, sets Pages.
func (h *PagesHelper) Paginator(items []any, total ...int) *Paginator {
	return NewPaginator(items, h.Page, h.Pack, total...)
}

// Paginator is one page of a result set. Pages is zero when the total is
// unknown; Pack is zero when the result is not paginated.
type Paginator struct {
	Items []any
	Page  int
	Pack  int
	Pages int
	Total int
}

// NewPaginator builds a page. A pack of zero or less means the items are
// not paginated; total, when given for a paginated result, sets Pages.
func NewPaginator(items []any, page, pack int, total ...int) *Paginator {
	p := &Paginator{Items: items, Page: max(1, page), Pack: max(0, pack)}
	if len(total) > 0 && p.Pack > 0 {
		p.Total = total[0]
		p.Pages = (total[0] + p.Pack - 1) / p.Pack
	}
	return p
}

// Len returns the number of items on this page.
func (p *Paginator) Len() int { return len(p.Items) }

// IsLast reports whether no page follows this one.
func (p *Paginator) IsLast() bool {
	if p.Pages > 0 {
		return p.Page >= p.Pages
	}
	return p.Pack == 0 || len(p.Items) < p.Pack
}

// MarshalJSON encodes an unpaginated result as its bare item list and a
// paginated one with its paging fields.
func (p *Paginator) MarshalJSON() ([]byte, error) {
	items := p.Items
	if items == nil {
		items = []any{}
	}
	if p.Pack == 0 {
		return json.Marshal(items)
	}
	out := map[string]any{
		"items":  items,
		"page":   p.Page,
		"pack":   p.Pack,
		"pages":  nil,
		"isLast": p.IsLast(),
	}
	if p.Pages > 0 {
		out["pages"] = p.Pages
		out["total"] = p.Total
	}
	return json.Marshal(out)
}
