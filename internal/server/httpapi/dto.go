package httpapi

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/dmitrijs2005/bookmarker/internal/common"
	"github.com/dmitrijs2005/bookmarker/internal/server/services"
	validation "github.com/go-ozzo/ozzo-validation"
	"github.com/go-ozzo/ozzo-validation/is"
)

const maxBodyBytes = 1 << 20

// credentialsRequest is the body of both /auth endpoints. Unknown fields are
// ignored.
type credentialsRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// Validate will run validation rules
func (r credentialsRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(
			&r.Email,
			validation.Required,
			is.Email,
		),
		validation.Field(
			&r.Password,
			validation.Required,
		),
	)
}

func (r credentialsRequest) credentials() services.Credentials {
	return services.Credentials{Email: r.Email, Password: r.Password}
}

// decodeCredentials reads and validates the request body. Every failure
// matches common.ErrValidation.
func decodeCredentials(w http.ResponseWriter, r *http.Request) (credentialsRequest, error) {
	var req credentialsRequest

	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err := dec.Decode(&req); err != nil {
		if errors.Is(err, io.EOF) {
			return req, fmt.Errorf("%w: request body is empty", common.ErrValidation)
		}
		return req, fmt.Errorf("%w: malformed JSON body", common.ErrValidation)
	}

	if err := req.Validate(); err != nil {
		return req, fmt.Errorf("%w: %w", common.ErrValidation, err)
	}

	return req, nil
}
