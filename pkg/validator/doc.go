// Package validator provides small declarative presence and length rules.
//
// Each exported function builds a Rule; Apply evaluates rules in order and
// aggregates failures into Errors, which implements error:
//
//	err := validator.Apply(
//		validator.Required("email", req.Email),
//		validator.Required("password", req.Password),
//		validator.MaxBytes("password", req.Password, 72),
//	)
//	if errs, ok := validator.As(err); ok {
//		// errs.Fields() -> []string{"email"}
//	}
package validator
