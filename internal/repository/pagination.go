package repository

// Page size bounds shared by every list query.
const (
	DefaultPageSize = 20
	MaxPageSize     = 100
)

// pageBounds turns a 1-based page and page size into LIMIT/OFFSET values.
func pageBounds(page, size int) (limit, offset int) {
	if page < 1 {
		page = 1
	}
	if size < 1 {
		size = DefaultPageSize
	}
	if size > MaxPageSize {
		size = MaxPageSize
	}
	return size, (page - 1) * size
}
