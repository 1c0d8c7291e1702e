package units

import (
	"strings"

	internalShared "github.com/invoicepro/invoicepro/internal/shared"
)

func (s *Service) validate(u Unit) error {
	errs := internalShared.FieldErrors{}
	if strings.TrimSpace(u.Name) == "" {
		errs.Add("name", "is required")
	} else if len(u.Name) > 50 {
		errs.Add("name", "must be at most 50 characters")
	}
	if len(u.Code) > 10 {
		errs.Add("code", "must be at most 10 characters")
	}
	if len(u.Description) > 200 {
		errs.Add("description", "must be at most 200 characters")
	}
	return errs.Err()
}

func normalize(u Unit) Unit {
	u.Name = strings.TrimSpace(u.Name)
	u.Code = strings.ToUpper(strings.TrimSpace(u.Code))
	u.Description = strings.TrimSpace(u.Description)
	return u
}
