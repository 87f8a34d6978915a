package handlers

import (
	"errors"
	"fmt"
	"net/http"
	"reflect"
	"slices"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"

	"github.com/hvacconnect/marketplace/internal/domain/entities"
)

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New()

	// Report fields by their JSON names
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})

	v.RegisterValidation("date", func(fl validator.FieldLevel) bool {
		value, ok := fl.Field().Interface().(string)
		if !ok {
			return false
		}
		_, err := time.Parse(entities.DateLayout, value)
		return err == nil
	})

	// timeslot accepts only the slots offered on the booking form
	v.RegisterValidation("timeslot", func(fl validator.FieldLevel) bool {
		value, ok := fl.Field().Interface().(string)
		if !ok {
			return false
		}
		return slices.Contains(entities.DefaultTimeSlots(), value)
	})

	v.RegisterValidation("booking_status", func(fl validator.FieldLevel) bool {
		value, ok := fl.Field().Interface().(string)
		if !ok {
			return false
		}
		return entities.BookingStatus(value).IsValid()
	})

	return v
}

// validationDetails maps each failing field to the rule it broke
func validationDetails(err error) map[string]string {
	var errs validator.ValidationErrors
	if !errors.As(err, &errs) {
		return nil
	}
	details := make(map[string]string, len(errs))
	for _, err := range errs {
		details[err.Field()] = err.Tag()
	}
	return details
}

// pathID reads the {id} path value. Ids that cannot exist are answered with
// status before any storage call: 404 for reads, 400 for writes.
func pathID(w http.ResponseWriter, r *http.Request, resource string, status int) (string, bool) {
	id := r.PathValue("id")
	if id == "" {
		respondWithError(w, http.StatusBadRequest, resource+" ID is required")
		return "", false
	}
	if _, err := uuid.Parse(id); err != nil {
		if status == http.StatusNotFound {
			respondWithError(w, status, resource+" not found")
		} else {
			respondWithError(w, status, fmt.Sprintf("invalid %s ID", resource))
		}
		return "", false
	}
	return id, true
}
