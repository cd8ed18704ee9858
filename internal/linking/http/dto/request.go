// Package dto provides data transfer objects for HTTP request and response handling.
package dto

import (
	"errors"
	"time"

	validation "github.com/jellydator/validation"

	linkingDomain "github.com/finboard/finboard/internal/linking/domain"
	customValidation "github.com/finboard/finboard/internal/validation"
)

// LinkItemRequest carries the metadata the link widget returns on success.
type LinkItemRequest struct {
	PublicToken     string `json:"public_token"`
	InstitutionID   string `json:"institution_id"`
	InstitutionName string `json:"institution_name"`
}

// Validate checks if the link item request is valid.
func (r *LinkItemRequest) Validate() error {
	return validation.ValidateStruct(r,
		validation.Field(&r.PublicToken,
			validation.Required,
			customValidation.NotBlank,
			customValidation.PublicToken,
		),
		validation.Field(&r.InstitutionID,
			customValidation.NoWhitespace,
			customValidation.AggregatorID,
		),
		validation.Field(&r.InstitutionName,
			validation.Length(0, 255),
		),
	)
}

// ToDomain maps the request to a LinkInput for userID.
func (r *LinkItemRequest) ToDomain(userID string) *linkingDomain.LinkInput {
	return &linkingDomain.LinkInput{
		UserID:          userID,
		PublicToken:     r.PublicToken,
		InstitutionID:   r.InstitutionID,
		InstitutionName: r.InstitutionName,
	}
}

const (
	dateLayout = "2006-01-02"

	// defaultSummaryDays is the transaction window used when no start date is given.
	defaultSummaryDays = 30
	// maxSummaryDays bounds the window to the history the aggregator keeps.
	maxSummaryDays = 730
)

// SummaryRequest selects the transaction window of an item summary. Both dates are
// optional and inclusive.
type SummaryRequest struct {
	StartDate string `form:"start_date" json:"start_date"`
	EndDate   string `form:"end_date"   json:"end_date"`
}

// Validate checks both dates and the window they span.
func (r *SummaryRequest) Validate() error {
	err := validation.ValidateStruct(r,
		validation.Field(&r.StartDate, validation.Date(dateLayout)),
		validation.Field(&r.EndDate, validation.Date(dateLayout)),
	)
	if err != nil {
		return err
	}

	start, end := r.window(time.Now().UTC())
	return validation.Errors{
		"end_date": validation.Validate(end, validation.By(func(any) error {
			switch {
			case end.Before(start):
				return errors.New("must not be before start_date")
			case end.Sub(start) > maxSummaryDays*24*time.Hour:
				return errors.New("must be within 730 days of start_date")
			}
			return nil
		})),
	}.Filter()
}

// ToDomain maps the request to a SummaryInput, filling in a 30-day window ending today.
// Call it only after Validate.
func (r *SummaryRequest) ToDomain(userID, itemID string, now time.Time) *linkingDomain.SummaryInput {
	start, end := r.window(now.UTC())
	return &linkingDomain.SummaryInput{UserID: userID, ItemID: itemID, Start: start, End: end}
}

func (r *SummaryRequest) window(now time.Time) (start, end time.Time) {
	end = time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
	if r.EndDate != "" {
		if parsed, err := time.Parse(dateLayout, r.EndDate); err == nil {
			end = parsed
		}
	}
	start = end.AddDate(0, 0, -defaultSummaryDays)
	if r.StartDate != "" {
		if parsed, err := time.Parse(dateLayout, r.StartDate); err == nil {
			start = parsed
		}
	}
	return start, end
}
