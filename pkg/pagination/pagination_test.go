package pagination

import (
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
)

func ctxWithQuery(query string) *gin.Context {
	gin.SetMode(gin.TestMode)
	c, _ := gin.CreateTestContext(httptest.NewRecorder())
	c.Request = httptest.NewRequest("GET", "/?"+query, nil)
	return c
}

func TestParse(t *testing.T) {
	tests := []struct {
		name       string
		query      string
		wantPage   int
		wantLimit  int
		wantOffset int
	}{
		{"defaults", "", 1, 20, 0},
		{"explicit", "page=3&limit=50", 3, 50, 100},
		{"zero page", "page=0", 1, 20, 0},
		{"negative page", "page=-2", 1, 20, 0},
		{"zero limit", "limit=0", 1, 20, 0},
		{"over max limit", "limit=500", 1, 100, 0},
		{"garbage", "page=abc&limit=xyz", 1, 20, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := Parse(ctxWithQuery(tt.query))
			assert.Equal(t, tt.wantPage, p.Page)
			assert.Equal(t, tt.wantLimit, p.Limit)
			assert.Equal(t, tt.wantOffset, p.Offset)
		})
	}
}

func TestTotalPages(t *testing.T) {
	p := Params{Page: 1, Limit: 20}
	assert.Equal(t, 0, p.TotalPages(0))
	assert.Equal(t, 1, p.TotalPages(20))
	assert.Equal(t, 2, p.TotalPages(21))
	assert.Equal(t, 5, p.TotalPages(100))

	assert.Equal(t, 0, Params{}.TotalPages(50), "unset limit never divides by zero")
}
