package clients

import (
	"strings"
	"time"
	"unicode/utf8"
)

// Client is a customer invoices are billed to.
type Client struct {
	ID        int64     `json:"id"`
	Name      string    `json:"name"`
	Email     string    `json:"email"`
	Phone     string    `json:"phone,omitempty"`
	Address   string    `json:"address,omitempty"`
	GSTIN     string    `json:"gstin,omitempty"`
	IsActive  bool      `json:"is_active"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Initials returns up to two upper-case letters for avatar badges.
func (c Client) Initials() string {
	words := strings.Fields(c.Name)
	switch {
	case len(words) >= 2:
		a, _ := utf8.DecodeRuneInString(words[0])
		b, _ := utf8.DecodeRuneInString(words[1])
		return strings.ToUpper(string([]rune{a, b}))
	case len(words) == 1:
		r := []rune(words[0])
		if len(r) > 2 {
			r = r[:2]
		}
		return strings.ToUpper(string(r))
	default:
		return ""
	}
}
