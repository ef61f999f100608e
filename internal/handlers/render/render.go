package render

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/go-playground/validator/v10"
)

// Error discriminators carried in the "error" field of every error response
const (
	ValidationErrorType = "validation_failed"
	DecodingErrorType   = "decoding_failed"
	ServiceErrorType    = "service_error"
)

var validate = validator.New()

func init() {
	configureValidator(validate)
}

type ErrorResponse struct {
	Error   string            `json:"error"`
	Message string            `json:"message,omitempty"`
	Fields  map[string]string `json:"fields,omitempty"`
}

func JSON(w http.ResponseWriter, data any) {
	writeJSON(w, http.StatusOK, data)
}

func JSONWithStatus(w http.ResponseWriter, data any, code int) {
	writeJSON(w, code, data)
}

// ServiceError answers with a plain error message and the given status
func ServiceError(w http.ResponseWriter, message string, code int) {
	writeJSON(w, code, ErrorResponse{Error: ServiceErrorType, Message: message})
}

// DecodeError answers 400 for a request body that did not parse
func DecodeError(w http.ResponseWriter, err error) {
	var message string

	var typeErr *json.UnmarshalTypeError
	switch {
	case errors.As(err, &typeErr):
		message = fmt.Sprintf("Invalid data type for field '%s'", typeErr.Field)
	default:
		message = fmt.Sprintf("Failed to parse JSON: %s", err.Error())
	}

	writeJSON(w, http.StatusBadRequest, ErrorResponse{Error: DecodingErrorType, Message: message})
}

// ValidationErrors answers 400 with a message per failed field
func ValidationErrors(w http.ResponseWriter, errs validator.ValidationErrors) {
	fields := make(map[string]string, len(errs))
	for _, fe := range errs {
		fields[fe.Field()] = fieldMessage(fe)
	}

	writeJSON(w, http.StatusBadRequest, ErrorResponse{
		Error:   ValidationErrorType,
		Message: "Request validation failed",
		Fields:  fields,
	})
}

func fieldMessage(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "This field is required"
	case "min":
		return fmt.Sprintf("Value is too short (minimum %s)", fe.Param())
	case "len":
		return fmt.Sprintf("Value must be exactly %s characters", fe.Param())
	case "iban":
		return "Not a valid IBAN"
	default:
		return "Invalid value"
	}
}

// BindAndValidate decodes the JSON request body into T and validates it
// against the struct tags. On failure the error response is already written
// and the caller only needs to return.
func BindAndValidate[T any](w http.ResponseWriter, r *http.Request) (T, error) {
	var value T

	if err := json.NewDecoder(r.Body).Decode(&value); err != nil {
		DecodeError(w, err)
		return value, err
	}

	if err := validate.Struct(value); err != nil {
		// validate.Struct on a struct value only ever returns ValidationErrors
		ValidationErrors(w, err.(validator.ValidationErrors))
		return value, err
	}

	return value, nil
}

// writeJSON encodes to a buffer first so an encoding failure can still
// change the status code
func writeJSON(w http.ResponseWriter, code int, data any) {
	buf := &bytes.Buffer{}
	if err := json.NewEncoder(buf).Encode(data); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(code)
	_, _ = w.Write(buf.Bytes())
}
