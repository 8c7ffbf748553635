package persistence

import (
	"strings"

	"gorm.io/gorm/clause"
)

// sortSpec whitelists the columns a list query may be ordered by
type sortSpec struct {
	columns  map[string]struct{}
	fallback string
}

func newSortSpec(fallback string, columns ...string) sortSpec {
	s := sortSpec{columns: make(map[string]struct{}, len(columns)+1), fallback: fallback}
	s.columns[fallback] = struct{}{}
	for _, c := range columns {
		s.columns[c] = struct{}{}
	}
	return s
}

// Allows reports whether column may be sorted on
func (s sortSpec) Allows(column string) bool {
	_, ok := s.columns[column]
	return ok
}

// Column returns the requested column when whitelisted, else the fallback
func (s sortSpec) Column(requested string) string {
	if c := strings.TrimSpace(requested); s.Allows(c) {
		return c
	}
	return s.fallback
}

// Clause builds the ORDER BY term. Only "asc" in any case sorts ascending.
func (s sortSpec) Clause(orderBy, orderDir string) clause.OrderByColumn {
	return clause.OrderByColumn{
		Column: clause.Column{Name: s.Column(orderBy)},
		Desc:   !strings.EqualFold(strings.TrimSpace(orderDir), "asc"),
	}
}

var (
	orderSort = newSortSpec("created_at",
		"id", "updated_at", "order_number", "status", "total_price", "platform_updated_at", "deleted_at")
	productSort = newSortSpec("sku",
		"id", "created_at", "updated_at", "name", "stock")
	webhookEventSort = newSortSpec("received_at",
		"updated_at", "attempts", "next_retry_at", "topic")
)
