package services

import (
	"net/url"
	"strconv"
)

// Query builds the filter and shaping parameters of a table request.
type Query struct {
	values url.Values
}

// NewQuery returns an empty query.
func NewQuery() *Query {
	return &Query{values: url.Values{}}
}

// Select limits the returned columns, e.g. "*" or "id,email".
func (q *Query) Select(columns string) *Query {
	q.values.Set("select", columns)
	return q
}

// Eq adds a column = value filter.
func (q *Query) Eq(column, value string) *Query {
	q.values.Add(column, "eq."+value)
	return q
}

// Order sorts by column.
func (q *Query) Order(column string, asc bool) *Query {
	dir := "desc"
	if asc {
		dir = "asc"
	}
	q.values.Set("order", column+"."+dir)
	return q
}

// Limit caps the number of returned rows.
func (q *Query) Limit(n int) *Query {
	q.values.Set("limit", strconv.Itoa(n))
	return q
}

// Encode renders the query string with keys in sorted order.
func (q *Query) Encode() string {
	return q.values.Encode()
}
