package core

import (
	"net/http"
	"strings"

	goerrors "github.com/goliatone/go-errors"
)

const (
	ClientErrorConfigInvalid       = "MPESA_CONFIG_INVALID"
	ClientErrorBadInput            = "MPESA_BAD_INPUT"
	ClientErrorCallbackURLInvalid  = "MPESA_CALLBACK_URL_INVALID"
	ClientErrorAmountInvalid       = "MPESA_AMOUNT_INVALID"
	ClientErrorPhoneInvalid        = "MPESA_PHONE_INVALID"
	ClientErrorIdentifierUnknown   = "MPESA_IDENTIFIER_UNKNOWN"
	ClientErrorKeyLoadFailed       = "MPESA_KEY_LOAD_FAILED"
	ClientErrorEncryptionFailed    = "MPESA_ENCRYPTION_FAILED"
	ClientErrorTokenIssuanceFailed = "MPESA_TOKEN_ISSUANCE_FAILED"
	ClientErrorNetworkFailure      = "MPESA_NETWORK_FAILURE"
	ClientErrorGatewayStatus       = "MPESA_GATEWAY_STATUS"
	ClientErrorInternal            = "MPESA_INTERNAL_ERROR"
)

type ErrorMapper func(err error) *goerrors.Error

func badInputError(textCode string, message string) error {
	return ensureClientErrorEnvelope(
		goerrors.New(message, goerrors.CategoryBadInput).
			WithTextCode(textCode),
	)
}

func validationError(field string, message string) error {
	return ensureClientErrorEnvelope(
		goerrors.NewValidation("core: configuration is invalid", goerrors.FieldError{
			Field:   field,
			Message: message,
		}).
			WithTextCode(ClientErrorConfigInvalid),
	)
}

func keyLoadError(message string, cause error) error {
	if cause == nil {
		return ensureClientErrorEnvelope(
			goerrors.New(message, goerrors.CategoryInternal).
				WithTextCode(ClientErrorKeyLoadFailed),
		)
	}
	return ensureClientErrorEnvelope(
		goerrors.Wrap(cause, goerrors.CategoryInternal, message).
			WithTextCode(ClientErrorKeyLoadFailed),
	)
}

func encryptionError(message string, cause error) error {
	return ensureClientErrorEnvelope(
		goerrors.Wrap(cause, goerrors.CategoryInternal, message).
			WithTextCode(ClientErrorEncryptionFailed),
	)
}

func tokenIssuanceError(message string, cause error, metadata map[string]any) error {
	var err *goerrors.Error
	if cause == nil {
		err = goerrors.New(message, goerrors.CategoryAuth)
	} else {
		err = goerrors.Wrap(cause, goerrors.CategoryAuth, message)
	}
	err = err.WithTextCode(ClientErrorTokenIssuanceFailed)
	if len(metadata) > 0 {
		err.WithMetadata(metadata)
	}
	return ensureClientErrorEnvelope(err)
}

func networkError(message string, cause error, metadata map[string]any) error {
	err := goerrors.Wrap(cause, goerrors.CategoryExternal, message).
		WithTextCode(ClientErrorNetworkFailure).
		WithCode(http.StatusBadGateway)
	if len(metadata) > 0 {
		err.WithMetadata(metadata)
	}
	return ensureClientErrorEnvelope(err)
}

func gatewayStatusError(message string, statusCode int, metadata map[string]any) error {
	err := goerrors.New(message, goerrors.CategoryExternal).
		WithTextCode(ClientErrorGatewayStatus).
		WithCode(statusCode)
	if len(metadata) > 0 {
		err.WithMetadata(metadata)
	}
	return ensureClientErrorEnvelope(err)
}

func internalError(message string, cause error) error {
	if cause == nil {
		return ensureClientErrorEnvelope(
			goerrors.New(message, goerrors.CategoryInternal).
				WithTextCode(ClientErrorInternal),
		)
	}
	return ensureClientErrorEnvelope(
		goerrors.Wrap(cause, goerrors.CategoryInternal, message).
			WithTextCode(ClientErrorInternal),
	)
}

func defaultErrorMapper(err error) *goerrors.Error {
	if err == nil {
		return nil
	}
	var richErr *goerrors.Error
	if goerrors.As(err, &richErr) {
		return ensureClientErrorEnvelope(richErr)
	}
	mapped := goerrors.MapToError(err, goerrors.DefaultErrorMappers())
	return ensureClientErrorEnvelope(mapped)
}

func ensureClientErrorEnvelope(err *goerrors.Error) *goerrors.Error {
	if err == nil {
		return nil
	}
	if err.Code == 0 {
		err.Code = clientHTTPStatus(err.Category)
	}
	if strings.TrimSpace(err.TextCode) == "" {
		err.TextCode = defaultClientTextCode(err.Category)
	}
	return err
}

func defaultClientTextCode(category goerrors.Category) string {
	switch category {
	case goerrors.CategoryBadInput:
		return ClientErrorBadInput
	case goerrors.CategoryValidation:
		return ClientErrorConfigInvalid
	case goerrors.CategoryAuth:
		return ClientErrorTokenIssuanceFailed
	case goerrors.CategoryExternal:
		return ClientErrorNetworkFailure
	default:
		return ClientErrorInternal
	}
}

func clientHTTPStatus(category goerrors.Category) int {
	switch category {
	case goerrors.CategoryBadInput, goerrors.CategoryValidation:
		return http.StatusBadRequest
	case goerrors.CategoryAuth:
		return http.StatusUnauthorized
	case goerrors.CategoryExternal:
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}
