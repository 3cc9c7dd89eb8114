package repositories

import (
	"fmt"
	"strings"
	"time"
)

// ListParams are the shared pagination/search/sort inputs for data listings.
type ListParams struct {
	Page      int
	PageSize  int
	Search    string
	Sort      string
	Direction string // "asc" or "desc"
}

// Offset returns the row offset for the current page.
func (p ListParams) Offset() int {
	page := p.Page
	if page < 1 {
		page = 1
	}
	return (page - 1) * p.Limit()
}

// Limit returns the page size, defaulting to 20.
func (p ListParams) Limit() int {
	if p.PageSize < 1 {
		return 20
	}
	return p.PageSize
}

// orderClause resolves the sort column through an allow-list, defaulting to
// fallback. Sort input never reaches SQL directly.
func (p ListParams) orderClause(allowed map[string]string, fallback string) string {
	column, ok := allowed[p.Sort]
	if !ok {
		column = fallback
	}
	dir := "DESC"
	if strings.EqualFold(p.Direction, "asc") {
		dir = "ASC"
	}
	return fmt.Sprintf("%s %s", column, dir)
}

// UploadFilter narrows records by attributes of their owning upload: a date
// range (UTC instants derived from business-timezone day bounds), an uploader
// name, and a niche name. Name matches are case-insensitive exact.
type UploadFilter struct {
	From         *time.Time
	To           *time.Time
	UploaderName string
	NicheName    string
}

// IsZero reports whether no upload-level filter is set.
func (f UploadFilter) IsZero() bool {
	return f.From == nil && f.To == nil && f.UploaderName == "" && f.NicheName == ""
}

// appendConditions adds the filter's SQL conditions against the aliased
// uploads table (alias "u") and returns the updated condition and arg slices.
func (f UploadFilter) appendConditions(conds []string, args []any) ([]string, []any) {
	if f.From != nil {
		args = append(args, *f.From)
		conds = append(conds, fmt.Sprintf("u.upload_date >= $%d", len(args)))
	}
	if f.To != nil {
		args = append(args, *f.To)
		conds = append(conds, fmt.Sprintf("u.upload_date <= $%d", len(args)))
	}
	if f.UploaderName != "" {
		args = append(args, f.UploaderName)
		conds = append(conds, fmt.Sprintf("LOWER(up.name) = LOWER($%d)", len(args)))
	}
	if f.NicheName != "" {
		args = append(args, f.NicheName)
		conds = append(conds, fmt.Sprintf("LOWER(n.name) = LOWER($%d)", len(args)))
	}
	return conds, args
}
