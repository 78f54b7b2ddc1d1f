package controller

import (
	stderrors "errors"
	"fmt"
	"reflect"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
	"github.com/quonpass/quonpass-backend/internal/errors"
	"github.com/quonpass/quonpass-backend/internal/middleware"
)

const dateLayout = "2006-01-02"

func init() {
	// Report binding failures under the JSON field names clients send.
	if v, ok := binding.Validator.Engine().(*validator.Validate); ok {
		v.RegisterTagNameFunc(func(fld reflect.StructField) string {
			name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
			if name == "-" {
				return ""
			}
			return name
		})
	}
}

// bindJSON decodes the body into dst, answering 400 with per-field details on failure.
func bindJSON(c *gin.Context, dst interface{}) bool {
	if err := c.ShouldBindJSON(dst); err != nil {
		middleware.GetLoggerFromContext(c).Warn("Invalid request body", map[string]interface{}{
			"error": err.Error(),
		})
		errors.RespondWithValidationError(c, "", validationDetails(err))
		return false
	}
	return true
}

func validationDetails(err error) map[string]string {
	var verrs validator.ValidationErrors
	if !stderrors.As(err, &verrs) {
		return map[string]string{"body": err.Error()}
	}

	details := make(map[string]string, len(verrs))
	for _, fe := range verrs {
		switch fe.Tag() {
		case "required":
			details[fe.Field()] = "is required"
		case "oneof":
			details[fe.Field()] = "must be one of " + fe.Param()
		case "min", "gte":
			details[fe.Field()] = "must be at least " + fe.Param()
		case "max", "lte":
			details[fe.Field()] = "must be at most " + fe.Param()
		case "email":
			details[fe.Field()] = "must be a valid email address"
		default:
			details[fe.Field()] = "failed " + fe.Tag() + " check"
		}
	}
	return details
}

// parseIDParam reads a positive numeric path parameter, answering 400 when malformed.
func parseIDParam(c *gin.Context, name string) (uint, bool) {
	raw := c.Param(name)
	id, err := strconv.ParseUint(raw, 10, 32)
	if err != nil || id == 0 {
		middleware.GetLoggerFromContext(c).Warn("Invalid id parameter", map[string]interface{}{
			"param": name,
			"value": raw,
		})
		errors.BadRequest(c, errors.ValidationInvalidID, fmt.Sprintf("invalid %s", name))
		return 0, false
	}
	return uint(id), true
}

// optionalUintQuery returns nil when the key is absent.
func optionalUintQuery(c *gin.Context, key string) (*uint, bool) {
	raw := c.Query(key)
	if raw == "" {
		return nil, true
	}
	v, err := strconv.ParseUint(raw, 10, 32)
	if err != nil {
		errors.BadRequest(c, errors.ValidationInvalidInput, fmt.Sprintf("query parameter %s must be a positive integer", key))
		return nil, false
	}
	out := uint(v)
	return &out, true
}

func optionalIntQuery(c *gin.Context, key string) (*int, bool) {
	raw := c.Query(key)
	if raw == "" {
		return nil, true
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		errors.BadRequest(c, errors.ValidationInvalidInput, fmt.Sprintf("query parameter %s must be an integer", key))
		return nil, false
	}
	return &v, true
}

func optionalDateQuery(c *gin.Context, key string) (*time.Time, bool) {
	raw := c.Query(key)
	if raw == "" {
		return nil, true
	}
	d, err := parseDate(raw)
	if err != nil {
		errors.BadRequest(c, errors.ValidationInvalidInput, fmt.Sprintf("query parameter %s must be a date (YYYY-MM-DD)", key))
		return nil, false
	}
	return &d, true
}

// parseDate accepts a calendar date or an RFC 3339 timestamp and keeps only the day.
func parseDate(raw string) (time.Time, error) {
	raw = strings.TrimSpace(raw)
	if d, err := time.Parse(dateLayout, raw); err == nil {
		return d, nil
	}
	t, err := time.Parse(time.RFC3339, raw)
	if err != nil {
		return time.Time{}, err
	}
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC), nil
}

func paging(c *gin.Context, defaultLimit, maxLimit int) (int, int) {
	limit, err := strconv.Atoi(c.DefaultQuery("limit", strconv.Itoa(defaultLimit)))
	if err != nil || limit <= 0 {
		limit = defaultLimit
	}
	if limit > maxLimit {
		limit = maxLimit
	}
	offset, err := strconv.Atoi(c.DefaultQuery("offset", "0"))
	if err != nil || offset < 0 {
		offset = 0
	}
	return limit, offset
}
