package serrors

import "fmt"

// Base is a coded error shared by infrastructure packages. Code is a stable
// machine-readable identifier; LocaleKey may be empty when no translation exists.
type Base struct {
	Code      string
	Message   string
	LocaleKey string
}

func (e *Base) Error() string {
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func NewError(code, message, localeKey string) *Base {
	return &Base{Code: code, Message: message, LocaleKey: localeKey}
}

type FieldRequired struct {
	Base
	Field string
}

func NewFieldRequiredError(field, localeKey string) *FieldRequired {
	return &FieldRequired{
		Base: Base{
			Code:      "FIELD_REQUIRED",
			Message:   fmt.Sprintf("%s is required", field),
			LocaleKey: localeKey,
		},
		Field: field,
	}
}
