// internal/utils/pagination.go
package utils

import (
	"math"
	"net/url"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

const (
	defaultPage  = 1
	defaultLimit = 25
	maxLimit     = 100
	defaultSort  = "-created_at"
)

// Comparison operators accepted as field[op]=value.
var filterOperators = map[string]string{
	"eq":  "=",
	"gt":  ">",
	"gte": ">=",
	"lt":  "<",
	"lte": "<=",
	"in":  "IN",
}

var reservedQueryKeys = map[string]bool{
	"select": true,
	"sort":   true,
	"page":   true,
	"limit":  true,
}

type Filter struct {
	Field    string
	Operator string
	Values   []string
}

type SortField struct {
	Field string
	Desc  bool
}

type QueryParams struct {
	Page    int
	Limit   int
	Select  []string
	Sort    []SortField
	Filters []Filter
}

type PageRef struct {
	Page  int `json:"page"`
	Limit int `json:"limit"`
}

type Pagination struct {
	Next *PageRef `json:"next,omitempty"`
	Prev *PageRef `json:"prev,omitempty"`
}

type PaginationResult struct {
	Count      int
	Total      int64
	Page       int
	Limit      int
	TotalPages int
	Pagination Pagination
	Data       interface{}
}

func GetQueryParams(c *gin.Context, allowedFields []string) QueryParams {
	return ParseQueryParams(c.Request.URL.Query(), allowedFields)
}

// ParseQueryParams reads paging, sorting, projection and filters from the
// query string. Fields outside allowedFields are dropped.
func ParseQueryParams(values url.Values, allowedFields []string) QueryParams {
	allowed := make(map[string]bool, len(allowedFields))
	for _, field := range allowedFields {
		allowed[field] = true
	}

	page, err := strconv.Atoi(values.Get("page"))
	if err != nil || page < 1 {
		page = defaultPage
	}
	limit, err := strconv.Atoi(values.Get("limit"))
	if err != nil || limit < 1 || limit > maxLimit {
		limit = defaultLimit
	}

	params := QueryParams{Page: page, Limit: limit}

	for _, field := range splitList(values.Get("select")) {
		if allowed[field] {
			params.Select = append(params.Select, field)
		}
	}

	sort := values.Get("sort")
	if sort == "" {
		sort = defaultSort
	}
	for _, field := range splitList(sort) {
		desc := strings.HasPrefix(field, "-")
		field = strings.TrimPrefix(field, "-")
		if allowed[field] || field == "created_at" {
			params.Sort = append(params.Sort, SortField{Field: field, Desc: desc})
		}
	}

	for key, vals := range values {
		if reservedQueryKeys[key] || len(vals) == 0 {
			continue
		}
		field, op := key, "eq"
		if open := strings.Index(key, "["); open > 0 && strings.HasSuffix(key, "]") {
			field, op = key[:open], key[open+1:len(key)-1]
		}
		if !allowed[field] {
			continue
		}
		if _, ok := filterOperators[op]; !ok {
			continue
		}
		filterValues := vals[:1]
		if op == "in" {
			filterValues = splitList(vals[0])
		}
		params.Filters = append(params.Filters, Filter{Field: field, Operator: op, Values: filterValues})
	}

	return params
}

func ApplyFilters(db *gorm.DB, params QueryParams) *gorm.DB {
	for _, filter := range params.Filters {
		sqlOp := filterOperators[filter.Operator]
		if filter.Operator == "in" {
			db = db.Where(filter.Field+" IN ?", filter.Values)
			continue
		}
		db = db.Where(filter.Field+" "+sqlOp+" ?", filter.Values[0])
	}
	return db
}

// ApplySelect restricts the columns read; required columns (keys used by
// preloads) are always kept.
func ApplySelect(db *gorm.DB, params QueryParams, required ...string) *gorm.DB {
	if len(params.Select) == 0 {
		return db
	}
	columns := append([]string{}, required...)
	for _, field := range params.Select {
		if !contains(columns, field) {
			columns = append(columns, field)
		}
	}
	return db.Select(columns)
}

func ApplySort(db *gorm.DB, params QueryParams) *gorm.DB {
	for _, sort := range params.Sort {
		order := sort.Field + " asc"
		if sort.Desc {
			order = sort.Field + " desc"
		}
		db = db.Order(order)
	}
	return db
}

func ApplyPagination(db *gorm.DB, params QueryParams) *gorm.DB {
	offset := (params.Page - 1) * params.Limit
	return db.Offset(offset).Limit(params.Limit)
}

func CreatePaginationResult(data interface{}, count int, total int64, params QueryParams) PaginationResult {
	totalPages := int(math.Ceil(float64(total) / float64(params.Limit)))

	var pagination Pagination
	if int64(params.Page*params.Limit) < total {
		pagination.Next = &PageRef{Page: params.Page + 1, Limit: params.Limit}
	}
	if params.Page > 1 {
		pagination.Prev = &PageRef{Page: params.Page - 1, Limit: params.Limit}
	}

	return PaginationResult{
		Count:      count,
		Total:      total,
		Page:       params.Page,
		Limit:      params.Limit,
		TotalPages: totalPages,
		Pagination: pagination,
		Data:       data,
	}
}

func SetPaginationHeaders(c *gin.Context, result PaginationResult) {
	c.Header("X-Total-Count", strconv.FormatInt(result.Total, 10))
	c.Header("X-Page", strconv.Itoa(result.Page))
	c.Header("X-Per-Page", strconv.Itoa(result.Limit))
	c.Header("X-Total-Pages", strconv.Itoa(result.TotalPages))
}

func splitList(raw string) []string {
	var items []string
	for _, item := range strings.Split(raw, ",") {
		if item = strings.TrimSpace(item); item != "" {
			items = append(items, item)
		}
	}
	return items
}

func contains(items []string, item string) bool {
	for _, existing := range items {
		if existing == item {
			return true
		}
	}
	return false
}
