package utils

import (
	"net/url"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewPage(t *testing.T) {
	assert.Equal(t, Page{Number: 1, Size: DefaultPageSize}, NewPage("", ""))
	assert.Equal(t, Page{Number: 3, Size: 10}, NewPage("3", "10"))
	assert.Equal(t, Page{Number: 1, Size: DefaultPageSize}, NewPage("-1", "1000"))
	assert.Equal(t, 20, NewPage("3", "10").Offset())
}

func TestNewPageResult_Links(t *testing.T) {
	base, err := url.Parse("http://localhost:8000/api/tiffins/?pincode=411001&page=2")
	require.NoError(t, err)

	res := NewPageResult([]int{4, 5, 6}, 9, Page{Number: 2, Size: 3}, base)
	require.NotNil(t, res.Next)
	require.NotNil(t, res.Previous)
	assert.Equal(t, "http://localhost:8000/api/tiffins/?page=3&pincode=411001", *res.Next)
	assert.Equal(t, "http://localhost:8000/api/tiffins/?page=1&pincode=411001", *res.Previous)

	last := NewPageResult([]int{7, 8, 9}, 9, Page{Number: 3, Size: 3}, base)
	assert.Nil(t, last.Next)

	empty := NewPageResult[int](nil, 0, Page{Number: 1, Size: 3}, base)
	assert.NotNil(t, empty.Results)
	assert.Nil(t, empty.Next)
	assert.Nil(t, empty.Previous)
}
