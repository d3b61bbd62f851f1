package utils

// PostsPerPage is the fixed page size for posts within a thread.
const PostsPerPage = 10

// PageOf returns the 1-based page that holds the item at the given 0-based
// index.
func PageOf(itemIndex, pageSize int) int {
	if pageSize <= 0 {
		return 1
	}
	return itemIndex/pageSize + 1
}

// LastPage returns the number of the final page for totalItems items. An
// empty collection still has page 1.
func LastPage(totalItems, pageSize int) int {
	if pageSize <= 0 || totalItems <= 0 {
		return 1
	}
	return (totalItems + pageSize - 1) / pageSize
}
