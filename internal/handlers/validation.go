package handlers

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/charlesng35/sponsorpass/internal/forms"
	appErrors "github.com/charlesng35/sponsorpass/pkg/errors"
	"github.com/charlesng35/sponsorpass/pkg/response"
	appValidator "github.com/charlesng35/sponsorpass/pkg/validator"
)

// bindAndValidate binds the JSON payload into dest and runs struct validation rules.
// When validation fails, an error response is automatically written and false is returned.
func bindAndValidate[T any](c *gin.Context, dest *T) bool {
	if err := c.ShouldBindJSON(dest); err != nil {
		response.Error(c, appErrors.NewBadRequest("invalid JSON payload"))
		return false
	}

	if err := appValidator.ValidateStruct(dest); err != nil {
		var ve appValidator.ValidationErrors
		if errors.As(err, &ve) {
			response.ValidationError(c, validationFields(ve))
			return false
		}
		response.Error(c, appErrors.NewBadRequest("invalid request payload"))
		return false
	}

	return true
}

func validationFields(ve appValidator.ValidationErrors) map[string]string {
	fields := make(map[string]string, len(ve))
	for _, failure := range ve.FirstPerField() {
		switch failure.Tag {
		case "required":
			fields[failure.Field] = fmt.Sprintf("%s is required", failure.Field)
		case "gt", "gte", "min":
			fields[failure.Field] = fmt.Sprintf("%s must be at least %s", failure.Field, failure.Param)
		default:
			fields[failure.Field] = fmt.Sprintf("%s failed validation: %s", failure.Field, failure.Tag)
		}
	}
	return fields
}

// writeError renders form validation failures as a 422 field map and everything else through
// the standard error envelope.
func writeError(c *gin.Context, err error) {
	var invalid *forms.ValidationError
	if errors.As(err, &invalid) {
		response.ValidationError(c, invalid.ByField())
		return
	}
	response.Error(c, err)
}

func parseIntQuery(c *gin.Context, key string, fallback int) int {
	value := strings.TrimSpace(c.Query(key))
	if value == "" {
		return fallback
	}
	parsed, err := strconv.Atoi(value)
	if err != nil {
		return fallback
	}
	return parsed
}

func parseIDParam(c *gin.Context, key string) (int64, bool) {
	id, err := strconv.ParseInt(strings.TrimSpace(c.Param(key)), 10, 64)
	if err != nil || id <= 0 {
		response.Error(c, appErrors.NewBadRequest(fmt.Sprintf("invalid %s", key)))
		return 0, false
	}
	return id, true
}
