package validators

import (
	"fairride/internal/models"
)

func ValidateSubmitReview(req *models.SubmitReviewRequest) ValidationErrors {
	var errors ValidationErrors
	if req.Rating < 1.0 || req.Rating > 5.0 {
		errors = append(errors, ValidationError{Field: "rating", Tag: "rating_value", Message: "rating must be between 1.0 and 5.0"})
	}
	if len(req.Comment) > 2000 {
		errors = append(errors, ValidationError{Field: "comment", Tag: "max", Message: "must be at most 2000"})
	}
	return errors
}
