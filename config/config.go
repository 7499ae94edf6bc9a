package config

import (
	"errors"
	"fmt"
	"net/http"
	"os"
	"strconv"

	"go.uber.org/zap"

	"github.com/siuno/teamfund-api/models"
)

// DefaultMonthlyFee is used when a team is created without an explicit fee
// and DEFAULT_MONTHLY_FEE is unset.
const DefaultMonthlyFee = 100000

// Config holds the project config values
type Config struct {
	URL               string
	DatabaseName      string
	BaseURL           string
	Port              string
	JWTSecret         string
	SendgridAPIKey    string
	DefaultMonthlyFee int64
}

// New sets up all config related services
func New() *Config {

	//setup zap logger and replace default logger
	logger := zap.NewExample()
	defer logger.Sync()
	_ = zap.ReplaceGlobals(logger)

	fee := int64(DefaultMonthlyFee)
	if v := os.Getenv("DEFAULT_MONTHLY_FEE"); v != "" {
		if parsed, err := strconv.ParseInt(v, 10, 64); err == nil && parsed > 0 {
			fee = parsed
		}
	}

	return &Config{
		URL:               os.Getenv("DB_URI"),
		DatabaseName:      os.Getenv("DB_NAME"),
		BaseURL:           os.Getenv("BASE_URL"),
		Port:              os.Getenv("PORT"),
		JWTSecret:         os.Getenv("JWT_SECRET"),
		SendgridAPIKey:    os.Getenv("SENDGRID_API_KEY"),
		DefaultMonthlyFee: fee,
	}

}

// ErrorStatus is a useful function that will log, write http headers and body for a
// give message, status code and err
func ErrorStatus(message string, httpStatusCode int, w http.ResponseWriter, err error) {
	zap.S().With(err).Error(message)
	w.WriteHeader(httpStatusCode)
	w.Write([]byte(fmt.Sprintf(`{"response": "%s, %v"}`, message, err)))
}

// DomainError maps the domain error kinds to their http status codes and writes
// the same body shape as ErrorStatus. Anything that is not one of the four kinds
// is treated as an unexpected persistence failure.
func DomainError(message string, w http.ResponseWriter, err error) {
	ErrorStatus(message, domainStatusCode(err), w, err)
}

func domainStatusCode(err error) int {
	var (
		validationErr    *models.ValidationError
		notFoundErr      *models.NotFoundError
		authorizationErr *models.AuthorizationError
		stateErr         *models.StateError
	)
	switch {
	case errors.As(err, &validationErr):
		return http.StatusBadRequest
	case errors.As(err, &notFoundErr):
		return http.StatusNotFound
	case errors.As(err, &authorizationErr):
		return http.StatusForbidden
	case errors.As(err, &stateErr):
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}
