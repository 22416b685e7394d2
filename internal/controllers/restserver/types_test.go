package restserver

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"pgregory.net/rapid"
)

// The paging envelope must satisfy the ceiling law and the has-next /
// has-prev relations for any page the validator admits.
func TestNewPacketsResponsePagingLaws(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		total := rapid.Int64Range(0, 5_000_000).Draw(t, "total")
		pageSize := rapid.IntRange(1, 1000).Draw(t, "pageSize")
		page := rapid.IntRange(1, 10_000).Draw(t, "page")

		resp := NewPacketsResponse(nil, total, page, pageSize)

		assert.Equal(t, page, resp.Page)
		assert.Equal(t, pageSize, resp.PageSize)
		assert.Equal(t, total, resp.TotalCount)

		tp := int64(resp.TotalPages)
		if total == 0 {
			assert.Zero(t, tp, "empty result set has no pages")
		} else {
			assert.GreaterOrEqual(t, tp*int64(pageSize), total, "pages must cover every row")
			assert.Less(t, (tp-1)*int64(pageSize), total, "last page must not be empty")
		}

		assert.Equal(t, page > 1, resp.HasPrev)
		assert.Equal(t, page < resp.TotalPages, resp.HasNext)
		if resp.HasNext {
			assert.Less(t, int64(page)*int64(pageSize), total, "a next page implies rows beyond this one")
		}
	})
}

func TestNewPacketsResponseEmptyItems(t *testing.T) {
	resp := NewPacketsResponse(nil, 0, 1, 100)
	assert.NotNil(t, resp.Items, "items must encode as [] rather than null")
	assert.Empty(t, resp.Items)
	assert.False(t, resp.HasNext)
	assert.False(t, resp.HasPrev)
}
