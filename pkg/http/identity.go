package http

import (
	"net/http"

	apperrors "parkhub/pkg/errors"

	"github.com/google/uuid"
)

// CustomerIDHeader carries the customer identity resolved by the auth gateway
// in front of this service. Credential handling and token verification live
// there, never here.
const CustomerIDHeader = "X-Customer-ID"

func CustomerID(r *http.Request) (string, error) {
	id := r.Header.Get(CustomerIDHeader)
	if id == "" {
		return "", apperrors.InvalidInput("missing " + CustomerIDHeader + " header")
	}
	if _, err := uuid.Parse(id); err != nil {
		return "", apperrors.InvalidInput("invalid " + CustomerIDHeader + " header")
	}
	return id, nil
}
