package echoapi

import (
	"net/http/httptest"
	"reflect"
	"testing"

	"github.com/labstack/echo/v4"

	"github.com/trezcool/shule/core"
)

func Test_Ordering_Bind(t *testing.T) {
	tests := []struct {
		name    string
		query   string
		allowed []string
		want    []core.DBOrdering
	}{
		{name: "no param", query: "", allowed: []string{"name"}},
		{
			name: "ascending and descending", query: "ordering=name,-created_at",
			allowed: []string{"name", "created_at"},
			want: []core.DBOrdering{
				{Field: "name", Ascending: true},
				{Field: "created_at", Ascending: false},
			},
		},
		{
			name: "unknown fields are dropped", query: "ordering=name,password_hash",
			allowed: []string{"name"},
			want:    []core.DBOrdering{{Field: "name", Ascending: true}},
		},
		{
			name:    "sql fragments are dropped",
			query:   "ordering=" + "%28SELECT%201%29%3B--", // (SELECT 1);--
			allowed: []string{"name"},
		},
		{
			name: "surrounding whitespace", query: "ordering=%20-name%20",
			allowed: []string{"name"},
			want:    []core.DBOrdering{{Field: "name", Ascending: false}},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			app := echo.New()
			req := httptest.NewRequest("GET", "/?"+tt.query, nil)
			ctx := app.NewContext(req, httptest.NewRecorder())

			ord := new(Ordering)
			ord.Bind(ctx, tt.allowed...)
			if !reflect.DeepEqual(ord.Orderings, tt.want) {
				t.Errorf("Orderings = %v; want %v", ord.Orderings, tt.want)
			}
		})
	}
}
