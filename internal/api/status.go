package api

import (
	"net/http"

	"subburn/internal/services"
)

// StatusForKind maps a failure kind to its HTTP status code.
func StatusForKind(kind services.ErrorKind) int {
	switch kind {
	case services.KindValidation:
		return http.StatusBadRequest
	case services.KindFetch:
		return http.StatusBadGateway
	case services.KindTranscode:
		return http.StatusUnprocessableEntity
	case services.KindEncode:
		return http.StatusInternalServerError
	default:
		return http.StatusInternalServerError
	}
}
