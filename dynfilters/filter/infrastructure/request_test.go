package filter

import (
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"github.com/icrowley/fake"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	f "github.com/krew-solutions/dynamic-filters-go/dynfilters/filter/domain"
)

func TestRequestFromValues(t *testing.T) {
	t.Run("scalar list and explicit filters", func(t *testing.T) {
		city := fake.City()
		values := url.Values{}
		values.Set("search", "john")
		values.Set("sort", "-name")
		values.Set("filters[profile.city]", city)
		values.Add("filters[status][]", "new")
		values.Add("filters[status][]", "open")
		values.Set("filters[age][operator]", "between")
		values.Add("filters[age][value][]", "18")
		values.Add("filters[age][value][]", "65")
		values.Set("filters[age][boolean]", "or")

		req := RequestFromValues(values)
		assert.Equal(t, "john", req.Search.Unwrap())
		assert.Equal(t, "-name", req.Sort.Unwrap())
		assert.Equal(t, []f.FieldFilter{
			{Field: "age", Expr: f.Explicit{Operator: "between", Value: []any{"18", "65"}, Boolean: "or"}},
			{Field: "profile.city", Expr: f.Scalar{Value: city}},
			{Field: "status", Expr: f.List{Values: []any{"new", "open"}}},
		}, req.Filters)
	})

	t.Run("indexed values", func(t *testing.T) {
		values := url.Values{}
		values.Set("filters[price][operator]", "between")
		values.Set("filters[price][value][1]", "20")
		values.Set("filters[price][value][0]", "10")

		req := RequestFromValues(values)
		assert.Equal(t, []f.FieldFilter{
			{Field: "price", Expr: f.Explicit{Operator: "between", Value: []any{"10", "20"}}},
		}, req.Filters)
	})

	t.Run("columns", func(t *testing.T) {
		req := RequestFromValues(url.Values{"columns": {"id, name"}})
		assert.Equal(t, []string{"id", "name"}, req.Columns)

		req = RequestFromValues(url.Values{"columns[]": {"id", "email"}})
		assert.Equal(t, []string{"id", "email"}, req.Columns)
	})

	t.Run("bracketed form wins and parsing is stable", func(t *testing.T) {
		query, err := url.ParseQuery("filters[age]=30&filters[age][operator]=>&filters[age][value]=40" +
			"&filters[status]=new&filters[status][]=open&filters[status][]=closed")
		require.NoError(t, err)

		expected := []f.FieldFilter{
			{Field: "age", Expr: f.Explicit{Operator: ">", Value: "40"}},
			{Field: "status", Expr: f.List{Values: []any{"open", "closed"}}},
		}
		for i := 0; i < 100; i++ {
			require.Equal(t, expected, RequestFromValues(query).Filters, "parse #%d", i)
		}
	})

	t.Run("malformed keys are ignored", func(t *testing.T) {
		req := RequestFromValues(url.Values{
			"filters[name":  {"x"},
			"filters[]":     {"x"},
			"filters":       {"x"},
			"filters[a]b":   {"x"},
			"unknown[x]":    {"y"},
			"filters[ok][]": {"1"},
		})
		assert.Equal(t, []f.FieldFilter{{Field: "ok", Expr: f.List{Values: []any{"1"}}}}, req.Filters)
		assert.True(t, req.Search.IsNothing())
	})
}

func TestRequestFromHTTP(t *testing.T) {
	email := fake.EmailAddress()
	r := httptest.NewRequest("POST", "/users?search=jo&filters%5Bemail%5D="+url.QueryEscape(email),
		strings.NewReader("sort=name"))
	r.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	req, err := RequestFromHTTP(r)
	require.NoError(t, err)
	assert.Equal(t, "jo", req.Search.Unwrap())
	assert.Equal(t, "name", req.Sort.Unwrap())
	assert.Equal(t, []f.FieldFilter{{Field: "email", Expr: f.Scalar{Value: email}}}, req.Filters)
}
