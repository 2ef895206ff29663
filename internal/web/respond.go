package web

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/BenWhite02/marketing-kairos-sub004/internal/compositions"
	"github.com/BenWhite02/marketing-kairos-sub004/internal/domain"
)

// maxBodyBytes bounds request bodies.
const maxBodyBytes = 1 << 20

var validate = validator.New(validator.WithRequiredStructEnabled())

type fieldError struct {
	Field string `json:"field"`
	Rule  string `json:"rule"`
}

type errorResponse struct {
	Error      string                        `json:"error"`
	Fields     []fieldError                  `json:"fields,omitempty"`
	Validation *domain.CompositionValidation `json:"validation,omitempty"`
}

// errRequestValidation marks payloads rejected by struct tag validation.
var errRequestValidation = fmt.Errorf("%w: invalid request", domain.ErrInvalidInput)

type requestError struct {
	fields []fieldError
}

func (e *requestError) Error() string { return errRequestValidation.Error() }
func (e *requestError) Unwrap() error { return errRequestValidation }

// decodeJSON reads a JSON body into dst and validates its struct tags.
func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) error {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		return fmt.Errorf("%w: malformed JSON body: %v", domain.ErrInvalidInput, err)
	}

	if err := validate.Struct(dst); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) {
			fields := make([]fieldError, len(verrs))
			for i, fe := range verrs {
				fields[i] = fieldError{Field: fe.Namespace(), Rule: fe.Tag()}
			}
			return &requestError{fields: fields}
		}
		return fmt.Errorf("%w: %v", domain.ErrInvalidInput, err)
	}
	return nil
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// statusFor maps domain errors to HTTP status codes.
func statusFor(err error) int {
	switch {
	case errors.Is(err, domain.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, domain.ErrInvalidTransition), errors.Is(err, domain.ErrInvalidComposition):
		return http.StatusConflict
	case errors.Is(err, domain.ErrInvalidInput):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

func (s *Server) writeError(w http.ResponseWriter, r *http.Request, err error) {
	status := statusFor(err)
	resp := errorResponse{Error: err.Error()}

	var reqErr *requestError
	if errors.As(err, &reqErr) {
		resp.Fields = reqErr.fields
	}
	var verr *compositions.ValidationError
	if errors.As(err, &verr) {
		resp.Validation = &verr.Validation
	}

	if status == http.StatusInternalServerError {
		s.log.Error("request failed", zap.String("method", r.Method), zap.String("path", r.URL.Path), zap.Error(err))
		resp.Error = "internal server error"
	}
	writeJSON(w, status, resp)
}
