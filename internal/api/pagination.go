package api

import (
	"net/url"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/pageza/foodgram/backend/config"
	"github.com/pageza/foodgram/backend/internal/types"
)

// pageFromQuery reads ?page= (1-based) and ?limit=, capped at the maximum
// page size. Invalid values fall back to the defaults.
func pageFromQuery(c *gin.Context, cfg config.PaginationConfig) types.Page {
	page := types.Page{Number: 1, Size: cfg.PageSize}
	if n, err := strconv.Atoi(c.Query("page")); err == nil && n > 0 {
		page.Number = n
	}
	if n, err := strconv.Atoi(c.Query("limit")); err == nil && n > 0 {
		page.Size = n
	}
	if cfg.MaxPageSize > 0 && page.Size > cfg.MaxPageSize {
		page.Size = cfg.MaxPageSize
	}
	return page
}

// paginate wraps one page of results with absolute next/previous links.
func paginate[T any](c *gin.Context, page types.Page, count int64, results []T) types.PaginatedResponse[T] {
	if results == nil {
		results = []T{}
	}
	resp := types.PaginatedResponse[T]{Count: count, Results: results}
	if int64(page.Number*page.Size) < count {
		next := pageURL(c, page.Number+1)
		resp.Next = &next
	}
	if page.Number > 1 {
		prev := pageURL(c, page.Number-1)
		resp.Previous = &prev
	}
	return resp
}

func pageURL(c *gin.Context, number int) string {
	scheme := "http"
	if c.Request.TLS != nil {
		scheme = "https"
	}
	if fwd := c.GetHeader("X-Forwarded-Proto"); fwd != "" {
		scheme = fwd
	}

	query := c.Request.URL.Query()
	if number <= 1 {
		query.Del("page")
	} else {
		query.Set("page", strconv.Itoa(number))
	}
	u := url.URL{
		Scheme:   scheme,
		Host:     c.Request.Host,
		Path:     c.Request.URL.Path,
		RawQuery: query.Encode(),
	}
	return u.String()
}
