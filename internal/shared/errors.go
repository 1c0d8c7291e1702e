package shared

import (
	"errors"
	"fmt"
	"reflect"
	"sort"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/invoicepro/invoicepro/internal/platform/httpx"
)

// ErrNotFound indicates resource not found.
var ErrNotFound = httpx.ErrNotFound

// ReferentialBlockError is returned when a record cannot be deleted because
// other records still point at it.
type ReferentialBlockError struct {
	Entity    string
	Name      string
	Dependent string
	Count     int
}

func (e *ReferentialBlockError) Error() string {
	return fmt.Sprintf("cannot delete %s %q: still referenced by %d %s", e.Entity, e.Name, e.Count, e.Dependent)
}

// Is lets callers match the error with httpx.ErrConflict.
func (e *ReferentialBlockError) Is(target error) bool {
	return target == httpx.ErrConflict
}

// ProblemExtensions exposes the dependent count on the problem document.
func (e *ReferentialBlockError) ProblemExtensions() map[string]any {
	return map[string]any{
		"entity":          e.Entity,
		"dependent":       e.Dependent,
		"dependent_count": e.Count,
	}
}

// FieldErrors maps request fields to human readable messages.
type FieldErrors map[string]string

func (f FieldErrors) Error() string {
	keys := make([]string, 0, len(f))
	for k := range f {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, k+": "+f[k])
	}
	return "validation failed: " + strings.Join(parts, "; ")
}

// Unwrap ties field errors to httpx.ErrValidation.
func (f FieldErrors) Unwrap() error { return httpx.ErrValidation }

// ProblemExtensions lists the field messages.
func (f FieldErrors) ProblemExtensions() map[string]any {
	return map[string]any{"errors": map[string]string(f)}
}

// Add records a message for field, keeping the first one.
func (f FieldErrors) Add(field, msg string) {
	if _, ok := f[field]; !ok {
		f[field] = msg
	}
}

// Err returns nil when no field failed.
func (f FieldErrors) Err() error {
	if len(f) == 0 {
		return nil
	}
	return f
}

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

// ValidateStruct runs validator tags on v and converts failures into FieldErrors.
func ValidateStruct(v any) error {
	err := validate.Struct(v)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return fmt.Errorf("%w: %v", httpx.ErrValidation, err)
	}
	fields := FieldErrors{}
	for _, fe := range verrs {
		fields.Add(strings.ToLower(fe.Field()), describeTag(fe))
	}
	return fields
}

func describeTag(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "is required"
	case "email":
		return "must be a valid email address"
	case "max":
		return "must be at most " + fe.Param() + " characters"
	case "min":
		return "must be at least " + fe.Param()
	case "oneof":
		return "must be one of " + fe.Param()
	case "len":
		return "must be exactly " + fe.Param() + " characters"
	default:
		return "is invalid"
	}
}
