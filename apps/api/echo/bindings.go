package echoapi

import (
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/trezcool/shule/core"
)

var orderingParam = "ordering"

// Ordering binds the "ordering" query param: comma-separated field names,
// "-" prefix for descending. Bound fields reach SQL ORDER BY verbatim, so
// Bind silently drops anything outside the caller's allowed set.
type Ordering struct {
	Orderings []core.DBOrdering
}

func (ord *Ordering) Bind(ctx echo.Context, allowedFields ...string) {
	val := ctx.QueryParam(orderingParam)
	if val == "" {
		return
	}

	allowed := make(map[string]bool, len(allowedFields))
	for _, f := range allowedFields {
		allowed[f] = true
	}

	for _, field := range strings.Split(val, ",") {
		field = strings.TrimSpace(field)
		descending := strings.HasPrefix(field, "-")
		if descending {
			field = field[1:] // drop "-"
		}
		if !allowed[field] {
			continue
		}
		ord.Orderings = append(ord.Orderings, core.DBOrdering{Field: field, Ascending: !descending})
	}
}
