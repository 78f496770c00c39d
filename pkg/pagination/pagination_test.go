// Copyright (c) 2026 SecretBox. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package pagination_test

import (
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/taibuivan/secretbox/pkg/pagination"
)

/*
TestFromRequest checks parsing and clamping of page and limit.
*/
func TestFromRequest(t *testing.T) {
	tests := []struct {
		name  string
		query string
		want  pagination.Params
	}{
		{"defaults", "", pagination.Params{Page: 1, Limit: 20}},
		{"explicit", "?page=3&limit=10", pagination.Params{Page: 3, Limit: 10}},
		{"garbage", "?page=x&limit=y", pagination.Params{Page: 1, Limit: 20}},
		{"negative", "?page=-2&limit=0", pagination.Params{Page: 1, Limit: 20}},
		{"capped", "?limit=500", pagination.Params{Page: 1, Limit: pagination.MaxLimit}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			request := httptest.NewRequest("GET", "/users/search"+tt.query, nil)
			assert.Equal(t, tt.want, pagination.FromRequest(request))
		})
	}
}

/*
TestNewMeta checks the page count and offset arithmetic.
*/
func TestNewMeta(t *testing.T) {
	params := pagination.Params{Page: 2, Limit: 20}

	assert.Equal(t, 20, params.Offset())
	assert.Equal(t, pagination.Meta{Total: 41, TotalPages: 3, CurrentPage: 2}, pagination.NewMeta(params, 41))
	assert.Equal(t, 0, pagination.NewMeta(params, 0).TotalPages)
}
