package clients

import (
	"net/mail"
	"strings"

	internalShared "github.com/invoicepro/invoicepro/internal/shared"
)

func (s *Service) validate(c Client) error {
	errs := internalShared.FieldErrors{}
	if c.Name == "" {
		errs.Add("name", "is required")
	}
	if c.Email == "" {
		errs.Add("email", "is required")
	} else if _, err := mail.ParseAddress(c.Email); err != nil {
		errs.Add("email", "must be a valid email address")
	}
	if c.GSTIN != "" && len(c.GSTIN) != 15 {
		errs.Add("gstin", "must be exactly 15 characters")
	}
	return errs.Err()
}

func normalize(c Client) Client {
	c.Name = strings.TrimSpace(c.Name)
	c.Email = strings.ToLower(strings.TrimSpace(c.Email))
	c.Phone = strings.TrimSpace(c.Phone)
	c.Address = strings.TrimSpace(c.Address)
	c.GSTIN = strings.ToUpper(strings.TrimSpace(c.GSTIN))
	return c
}
