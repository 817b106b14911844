package v1

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/dmehra2102/prod-golang-projects/wardbook/internal/domain"
	"github.com/dmehra2102/prod-golang-projects/wardbook/internal/domain/episode"
	"github.com/dmehra2102/prod-golang-projects/wardbook/internal/domain/patient"
	"github.com/dmehra2102/prod-golang-projects/wardbook/internal/domain/subrecord"
	"github.com/dmehra2102/prod-golang-projects/wardbook/internal/domain/team"
	"github.com/dmehra2102/prod-golang-projects/wardbook/internal/service"
)

type ErrorResponse struct {
	Error string `json:"error"`
	Code  string `json:"code,omitempty"`
}

type ValidationErrorResponse struct {
	Error  string   `json:"error"`
	Fields []string `json:"fields"`
}

func respondError(c *gin.Context, status int, message string) {
	c.JSON(status, ErrorResponse{Error: message})
}

func respondServiceError(c *gin.Context, err error) {
	var fieldErr *domain.FieldError
	if errors.As(err, &fieldErr) {
		msg := "Invalid field value"
		if errors.Is(err, domain.ErrUnexpectedField) {
			msg = "Unexpected field name"
		}
		c.JSON(http.StatusBadRequest, ValidationErrorResponse{Error: msg, Fields: fieldErr.Fields})
		return
	}

	var validErr *service.ValidationError
	if errors.As(err, &validErr) {
		c.JSON(http.StatusBadRequest, ValidationErrorResponse{
			Error:  "validation failed",
			Fields: validErr.Fields,
		})
		return
	}

	switch {
	case errors.Is(err, subrecord.ErrNotFound):
		respondError(c, http.StatusNotFound, "Item does not exist")
	case errors.Is(err, episode.ErrEpisodeNotFound):
		respondError(c, http.StatusNotFound, "Episode does not exist")
	case errors.Is(err, patient.ErrPatientNotFound):
		respondError(c, http.StatusNotFound, "Patient does not exist")
	case errors.Is(err, domain.ErrProfileNotFound):
		respondError(c, http.StatusNotFound, "Profile does not exist")

	case errors.Is(err, episode.ErrNonexistentEpisode):
		respondError(c, http.StatusBadRequest, "Nonexistent episode")
	case errors.Is(err, domain.ErrMissingConsistencyToken):
		respondError(c, http.StatusBadRequest, "Missing field (consistency_token)")
	case errors.Is(err, team.ErrTeamNotFound):
		respondError(c, http.StatusBadRequest, err.Error())

	case errors.Is(err, domain.ErrConsistency):
		respondError(c, http.StatusConflict, "Item has changed")
	case errors.Is(err, subrecord.ErrSingletonExists):
		respondError(c, http.StatusConflict, "Item already exists")
	case errors.Is(err, domain.ErrUsernameTaken):
		respondError(c, http.StatusConflict, "Username already exists")

	case errors.Is(err, service.ErrUnauthenticated):
		respondError(c, http.StatusUnauthorized, "Only valid for authenticated users")
	case errors.Is(err, service.ErrInvalidCredentials):
		respondError(c, http.StatusUnauthorized, "invalid credentials")
	case errors.Is(err, service.ErrForbidden):
		respondError(c, http.StatusForbidden, "access denied")
	case errors.Is(err, service.ErrAccountInactive):
		respondError(c, http.StatusForbidden, "account is inactive")
	case errors.Is(err, service.ErrAccountLocked):
		c.JSON(http.StatusTooManyRequests, ErrorResponse{
			Error: "account temporarily locked",
			Code:  "ACCOUNT_LOCKED",
		})

	default:
		_ = c.Error(err)
		respondError(c, http.StatusInternalServerError, "internal server error")
	}
}

func bindJSON(c *gin.Context, obj any) bool {
	if err := c.ShouldBindJSON(obj); err != nil {
		respondError(c, http.StatusBadRequest, "invalid request: "+err.Error())
		return false
	}
	return true
}

// bindDict decodes the body as a JSON object.
func bindDict(c *gin.Context) (map[string]any, bool) {
	data := map[string]any{}
	if !bindJSON(c, &data) {
		return nil, false
	}
	return data, true
}

// parseID reads the :id param. A malformed id cannot name a row, so it
// gets the same response as a missing one.
func parseID(c *gin.Context, notFound error) (uint, bool) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil || id == 0 {
		respondServiceError(c, notFound)
		return 0, false
	}
	return uint(id), true
}

func parseQueryBool(c *gin.Context, key string) (*bool, bool) {
	raw := c.Query(key)
	if raw == "" {
		return nil, true
	}
	v, err := strconv.ParseBool(raw)
	if err != nil {
		respondError(c, http.StatusBadRequest, "invalid "+key+": must be true or false")
		return nil, false
	}
	return &v, true
}
