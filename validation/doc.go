// Package validation checks transcription requests, upload forms and
// configuration.
//
// Struct tag validation (go-playground/validator) is used for typed requests
// and config sections; the chainable Validator collects field errors for
// hand-parsed input such as multipart forms. Both report a single
// INVALID_INPUT AppError listing every failing field.
//
//	if err := validation.Validate(req); err != nil {
//	    return err
//	}
//
//	v := validation.New()
//	v.Required("model", model).OneOf("format", format, []string{"txt", "pdf"})
//	if appErr := v.Validate(); appErr != nil {
//	    return appErr
//	}
package validation
