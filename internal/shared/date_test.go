package shared

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDateJSON(t *testing.T) {
	var v struct {
		Due  Date  `json:"due"`
		Opt  *Date `json:"opt"`
		Zero Date  `json:"zero"`
	}
	require.NoError(t, json.Unmarshal([]byte(`{"due":"2025-03-31","opt":null,"zero":""}`), &v))
	assert.Equal(t, NewDate(2025, time.March, 31), v.Due)
	assert.Nil(t, v.Opt)
	assert.True(t, v.Zero.IsZero())

	out, err := json.Marshal(v)
	require.NoError(t, err)
	assert.JSONEq(t, `{"due":"2025-03-31","opt":null,"zero":null}`, string(out))

	assert.Error(t, json.Unmarshal([]byte(`{"due":"31/03/2025"}`), &v))
}

func TestDateArithmetic(t *testing.T) {
	d := NewDate(2025, time.January, 30)
	assert.Equal(t, "2025-03-01", d.AddDays(30).String())
	assert.True(t, DateOf(time.Date(2025, 1, 30, 23, 59, 0, 0, time.UTC)).Equal(d))
}
