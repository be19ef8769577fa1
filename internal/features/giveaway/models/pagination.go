package models

// PageSize is the number of participants shown per page.
const PageSize = 25

// Page is one slice of the participant list plus paging flags.
type Page struct {
	Users   []string
	Number  int
	Total   int
	HasPrev bool
	HasNext bool
}

// Paginate slices users into 25-entry pages. The requested page is clamped
// into [1, maxPage]; an empty list still has one (empty) page.
func Paginate(users []string, page int) Page {
	maxPage := (len(users) + PageSize - 1) / PageSize
	if maxPage < 1 {
		maxPage = 1
	}
	if page < 1 {
		page = 1
	}
	if page > maxPage {
		page = maxPage
	}

	start := (page - 1) * PageSize
	end := start + PageSize
	if start > len(users) {
		start = len(users)
	}
	if end > len(users) {
		end = len(users)
	}

	return Page{
		Users:   users[start:end],
		Number:  page,
		Total:   maxPage,
		HasPrev: page > 1,
		HasNext: page < maxPage,
	}
}
