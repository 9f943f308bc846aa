package api

import (
	"fmt"
	"strconv"
)

const defaultItemsPerPage = 100

func parsePageParam(str string, def int) (int, error) {
	if str == "" {
		return def, nil
	}

	tmp, err := strconv.ParseUint(str, 10, 31)
	if err != nil {
		return 0, err
	}
	return int(tmp), nil
}

// paginate returns the requested page of items and the page count.
func paginate[T any](items []T, itemsPerPageStr string, pageStr string) ([]T, int, error) {
	itemsPerPage, err := parsePageParam(itemsPerPageStr, defaultItemsPerPage)
	if err != nil {
		return nil, 0, err
	}
	if itemsPerPage == 0 {
		return nil, 0, fmt.Errorf("invalid items per page")
	}

	page, err := parsePageParam(pageStr, 0)
	if err != nil {
		return nil, 0, err
	}

	if len(items) == 0 {
		return items, 0, nil
	}

	pageCount := (len(items) + itemsPerPage - 1) / itemsPerPage

	start := min(page*itemsPerPage, len(items))
	end := min(start+itemsPerPage, len(items))

	return items[start:end], pageCount, nil
}
