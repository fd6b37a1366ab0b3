// Package validator provides rule-based input validation.
//
// Each rule pairs a check with the ValidationError reported when it fails.
// Apply evaluates every rule and returns all failures together as
// ValidationErrors, so callers can report each invalid field at once:
//
//	err := validator.Apply(
//	    validator.RequiredString("email", p.Email),
//	    validator.ValidEmail("email", p.Email),
//	    validator.InListString("plan_type", p.PlanType, catalog.IDs()),
//	)
//	if validator.IsValidationError(err) { ... }
package validator
