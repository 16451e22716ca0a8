package models

import (
	"sort"
	"time"

	"github.com/lib/pq"
)

type User struct {
	ID        uint           `gorm:"primaryKey" json:"id"`
	Email     string         `gorm:"size:320;uniqueIndex;not null" json:"email"`
	Username  string         `gorm:"size:120;not null" json:"username"`
	Password  string         `gorm:"size:255;not null" json:"-"`
	Watchlist pq.StringArray `gorm:"type:text[]" json:"watchlist"`
	CreatedAt time.Time      `json:"-"`
	UpdatedAt time.Time      `json:"-"`
}

// HasSymbol reports whether symbol is already on the watchlist.
func (u *User) HasSymbol(symbol string) bool {
	for _, s := range u.Watchlist {
		if s == symbol {
			return true
		}
	}
	return false
}

// AddSymbol appends symbol unless present and reports whether the list changed.
func (u *User) AddSymbol(symbol string) bool {
	if u.HasSymbol(symbol) {
		return false
	}
	u.Watchlist = append(u.Watchlist, symbol)
	return true
}

// RemoveSymbol drops every occurrence of symbol and reports whether the list changed.
func (u *User) RemoveSymbol(symbol string) bool {
	kept := u.Watchlist[:0]
	removed := false
	for _, s := range u.Watchlist {
		if s == symbol {
			removed = true
			continue
		}
		kept = append(kept, s)
	}
	u.Watchlist = kept
	return removed
}

// SortedWatchlist returns a sorted copy; never nil so it encodes as [].
func (u *User) SortedWatchlist() []string {
	out := make([]string, 0, len(u.Watchlist))
	out = append(out, u.Watchlist...)
	sort.Strings(out)
	return out
}
