// internal/utils/pagination_test.go
package utils

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNormalizeFillsDefaults(t *testing.T) {
	// A zero-valued struct must behave like the first default page, not
	// like LIMIT 0.
	params := PaginationParams{}.Normalize()
	assert.Equal(t, 1, params.Page)
	assert.Equal(t, 20, params.Limit)
	assert.Equal(t, "desc", params.Order)
}

func TestNormalizeClampsOutOfRange(t *testing.T) {
	params := PaginationParams{Page: -3, Limit: 500, Order: "sideways"}.Normalize()
	assert.Equal(t, 1, params.Page)
	assert.Equal(t, 20, params.Limit)
	assert.Equal(t, "desc", params.Order)
}

func TestNormalizeKeepsValidValues(t *testing.T) {
	params := PaginationParams{Page: 3, Limit: 50, Order: "asc"}.Normalize()
	assert.Equal(t, 3, params.Page)
	assert.Equal(t, 50, params.Limit)
	assert.Equal(t, "asc", params.Order)
}

func TestCreatePaginationResultWithZeroParams(t *testing.T) {
	result := CreatePaginationResult([]int{1, 2}, 45, PaginationParams{})
	assert.Equal(t, 1, result.Page)
	assert.Equal(t, 20, result.Limit)
	assert.Equal(t, 3, result.TotalPages)
}
