package pagination

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPageWalksAllItems(t *testing.T) {
	items := []int{1, 2, 3, 4, 5}

	page, info, err := Page(items, Pagination{PageSize: 2})
	require.NoError(t, err)
	assert.Equal(t, []int{1, 2}, page)
	assert.True(t, info.HasMore)
	assert.Equal(t, 5, info.Total)

	page, info, err = Page(items, Pagination{PageSize: 2, PageToken: info.NextPageToken})
	require.NoError(t, err)
	assert.Equal(t, []int{3, 4}, page)

	page, info, err = Page(items, Pagination{PageSize: 2, PageToken: info.NextPageToken})
	require.NoError(t, err)
	assert.Equal(t, []int{5}, page)
	assert.False(t, info.HasMore)
	assert.Empty(t, info.NextPageToken)
}

func TestPageRejectsGarbageToken(t *testing.T) {
	_, _, err := Page([]int{1}, Pagination{PageToken: "!!"})
	assert.ErrorIs(t, err, ErrInvalidPageToken)
}

func TestPageClampsSize(t *testing.T) {
	items := make([]int, MaxPageSize+10)
	page, info, err := Page(items, Pagination{PageSize: 10_000})
	require.NoError(t, err)
	assert.Len(t, page, MaxPageSize)
	assert.True(t, info.HasMore)
}
