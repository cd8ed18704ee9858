// Package validation provides custom validation rules for request DTOs.
package validation

import (
	"regexp"
	"strings"

	validation "github.com/jellydator/validation"

	apperrors "github.com/finboard/finboard/internal/errors"
)

var (
	// aggregatorIDRegex matches the opaque identifiers issued by the aggregator, e.g.
	// item ids, institution ids ("ins_109508") and public tokens ("public-sandbox-...").
	aggregatorIDRegex = regexp.MustCompile(`^[A-Za-z0-9_\-]+$`)
)

// WrapValidationError wraps validation errors as domain ErrInvalidInput
func WrapValidationError(err error) error {
	if err == nil {
		return nil
	}
	return apperrors.Wrap(apperrors.ErrInvalidInput, err.Error())
}

// NoWhitespace validates that string doesn't contain leading/trailing whitespace
var NoWhitespace = validation.NewStringRuleWithError(
	func(s string) bool {
		return s == strings.TrimSpace(s)
	},
	validation.NewError("validation_no_whitespace", "must not contain leading or trailing whitespace"),
)

// NotBlank validates that a string is not empty after trimming whitespace
var NotBlank = validation.NewStringRuleWithError(
	func(s string) bool {
		return strings.TrimSpace(s) != ""
	},
	validation.NewError("validation_not_blank", "must not be blank"),
)

// AggregatorID validates an identifier issued by the aggregator.
var AggregatorID = validation.NewStringRuleWithError(
	func(s string) bool {
		return aggregatorIDRegex.MatchString(s)
	},
	validation.NewError("validation_aggregator_id", "must contain only letters, digits, '_' or '-'"),
)

// PublicToken validates a short-lived public token returned by the link widget.
var PublicToken = validation.NewStringRuleWithError(
	func(s string) bool {
		return strings.HasPrefix(s, "public-") && aggregatorIDRegex.MatchString(s)
	},
	validation.NewError("validation_public_token", "must be a public token"),
)
