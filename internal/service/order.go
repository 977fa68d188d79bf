package service

import "strings"

var allowedOrderBy = map[string]string{
	"name":        "display_name",
	"uploaded_at": "uploaded_at",
	"size":        "size",
	"id":          "id",
}

func sanitizeOrderBy(orderBy string) string {
	key := strings.ToLower(strings.TrimSpace(orderBy))
	return allowedOrderBy[key]
}
