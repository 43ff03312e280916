package handler

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-playground/validator/v10"

	"github.com/Rrens/admission-chat/internal/api/response"
)

var validate = validator.New()

// decode reads a JSON body into dst and validates it, writing a 400 on failure
func decode(w http.ResponseWriter, r *http.Request, dst any) bool {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		response.BadRequest(w, "invalid request body")
		return false
	}

	if err := validate.Struct(dst); err != nil {
		var validationErrors validator.ValidationErrors
		if errors.As(err, &validationErrors) {
			fields := make(map[string]string)
			for _, e := range validationErrors {
				switch e.Tag() {
				case "required":
					fields[e.Field()] = "field is required"
				case "oneof":
					fields[e.Field()] = "must be one of: " + e.Param()
				case "max":
					fields[e.Field()] = "must be at most " + e.Param() + " characters"
				default:
					fields[e.Field()] = "invalid value"
				}
			}
			response.BadRequest(w, fields)
			return false
		}
		response.BadRequest(w, err.Error())
		return false
	}
	return true
}
