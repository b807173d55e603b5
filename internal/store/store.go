// Package store persists interview sessions, responses and feedback in
// Postgres.
package store

import "errors"

// ErrNotFound is returned when a requested row does not exist.
var ErrNotFound = errors.New("not found")

// HistoryQuery selects and orders a page of a user's sessions.
type HistoryQuery struct {
	Page       int
	PageSize   int
	Difficulty string
	Role       string
	Status     string
	SortBy     string // created_at | overall_score
	SortOrder  string // asc | desc
}

// Normalize clamps paging values and falls back to default sorting for
// anything outside the whitelist.
func (q *HistoryQuery) Normalize() {
	if q.Page < 1 {
		q.Page = 1
	}
	if q.PageSize < 1 || q.PageSize > 100 {
		q.PageSize = 10
	}
	if q.SortBy != "created_at" && q.SortBy != "overall_score" {
		q.SortBy = "created_at"
	}
	if q.SortOrder != "asc" && q.SortOrder != "desc" {
		q.SortOrder = "desc"
	}
}
