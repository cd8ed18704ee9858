package validation

import (
	"errors"
	"testing"

	validation "github.com/jellydator/validation"
	"github.com/stretchr/testify/assert"

	apperrors "github.com/finboard/finboard/internal/errors"
)

func TestWrapValidationError(t *testing.T) {
	t.Run("nil", func(t *testing.T) {
		assert.NoError(t, WrapValidationError(nil))
	})

	t.Run("wraps as invalid input", func(t *testing.T) {
		err := WrapValidationError(errors.New("public_token: cannot be blank."))
		assert.ErrorIs(t, err, apperrors.ErrInvalidInput)
		assert.Contains(t, err.Error(), "public_token: cannot be blank.")
	})
}

func TestStringRules(t *testing.T) {
	tests := []struct {
		name      string
		rule      validation.Rule
		value     string
		shouldErr bool
	}{
		{name: "not blank ok", rule: NotBlank, value: "ins_109508"},
		{name: "not blank spaces", rule: NotBlank, value: "   ", shouldErr: true},
		{name: "no whitespace ok", rule: NoWhitespace, value: "item-1"},
		{name: "no whitespace leading", rule: NoWhitespace, value: " item-1", shouldErr: true},
		{name: "no whitespace trailing", rule: NoWhitespace, value: "item-1\n", shouldErr: true},
		{name: "aggregator id", rule: AggregatorID, value: "ins_109508"},
		{name: "aggregator id with dash", rule: AggregatorID, value: "eVBnVMp7zdTJLkRNr33Rs6zr7KNJqBFL9DrE6"},
		{name: "aggregator id slash", rule: AggregatorID, value: "../item", shouldErr: true},
		{name: "aggregator id colon", rule: AggregatorID, value: "a:b", shouldErr: true},
		{name: "public token", rule: PublicToken, value: "public-sandbox-b0e2c4ee-a763-4df5-bfe9-46a46bce993d"},
		{name: "public token wrong prefix", rule: PublicToken, value: "access-sandbox-abc123", shouldErr: true},
		{name: "public token bad chars", rule: PublicToken, value: "public-sandbox abc", shouldErr: true},
		{name: "empty skipped", rule: PublicToken, value: ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := validation.Validate(tt.value, tt.rule)
			if tt.shouldErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}
