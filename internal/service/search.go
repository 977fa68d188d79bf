package service

import (
	"strings"

	"gorm.io/gorm"
)

// FileQuery filters and orders a file listing.
type FileQuery struct {
	Query     string
	OrderBy   string
	OrderDesc bool
}

var likeEscaper = strings.NewReplacer("!", "!!", "%", "!%", "_", "!_")

// apply adds the name filter and ordering. Unknown order keys fall back to display name.
func (q FileQuery) apply(db *gorm.DB) *gorm.DB {
	if term := strings.TrimSpace(q.Query); term != "" {
		db = db.Where("display_name LIKE ? ESCAPE '!'", "%"+likeEscaper.Replace(term)+"%")
	}
	order := sanitizeOrderBy(q.OrderBy)
	if order == "" {
		order = "display_name"
	}
	if q.OrderDesc {
		order += " DESC"
	} else {
		order += " ASC"
	}
	return db.Order(order).Order("id ASC")
}
