package entity

const (
	DefaultPageLimit = 20
	MaxPageLimit     = 100
	MaxPageNumber    = 1_000_000 // держит Offset в пределах int
)

// Page - запрошенная страница (нумерация с 1)
type Page struct {
	Number int
	Limit  int
}

// NewPage нормализует параметры: 1 <= page <= MaxPageNumber, 1 <= limit <= MaxPageLimit
func NewPage(number, limit int) Page {
	if number < 1 {
		number = 1
	}
	if number > MaxPageNumber {
		number = MaxPageNumber
	}
	if limit < 1 {
		limit = DefaultPageLimit
	}
	if limit > MaxPageLimit {
		limit = MaxPageLimit
	}
	return Page{Number: number, Limit: limit}
}

func (p Page) Offset() int {
	return (p.Number - 1) * p.Limit
}

type Pagination struct {
	Page        int  `json:"page"`
	Limit       int  `json:"limit"`
	Total       int  `json:"total"`
	TotalPages  int  `json:"total_pages"`
	HasNext     bool `json:"has_next"`
	HasPrevious bool `json:"has_previous"`
}

func NewPagination(p Page, total int) Pagination {
	totalPages := 0
	if p.Limit > 0 {
		totalPages = (total + p.Limit - 1) / p.Limit
	}
	return Pagination{
		Page:        p.Number,
		Limit:       p.Limit,
		Total:       total,
		TotalPages:  totalPages,
		HasNext:     p.Number < totalPages,
		HasPrevious: p.Number > 1,
	}
}
