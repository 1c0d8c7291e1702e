package shared

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSortClause(t *testing.T) {
	allowed := map[string]string{"name": "name", "code": "code"}
	assert.Equal(t, "code DESC", SortClause(allowed, "code", "DESC", "name"))
	assert.Equal(t, "name ASC", SortClause(allowed, "id; drop table", "", "name"))
}
