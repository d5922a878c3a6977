// Package validation provides input validation for assetgraph records and
// configuration.
//
// It supports struct tag validation (using go-playground/validator) and
// programmatic validation with error collection. Both produce an
// *errors.AppError listing every offending field.
//
// # Struct Tag Validation
//
//	type LoaderRecord struct {
//	    ID string `json:"id" validate:"required"`
//	}
//	err := validation.Validate(rec)
//
// # Programmatic Validation
//
//	v := validation.New()
//	v.Required("nodes[0].id", id).Unique("nodes[0].id", id, seen)
//	err := v.Validate()
package validation
