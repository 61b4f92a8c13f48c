package handler

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/flicky/marketplace-api/internal/dto"
	"github.com/flicky/marketplace-api/internal/service"
)

const (
	codeValidation   = "validation_error"
	codeUnauthorized = "unauthorized"
	codeForbidden    = "forbidden"
	codeNotFound     = "not_found"
	codeConflict     = "conflict"
	codeInternal     = "internal_error"
)

type errorMapping struct {
	status  int
	code    string
	message string
}

var knownErrors = []struct {
	err error
	errorMapping
}{
	{service.ErrUserAlreadyExists, errorMapping{http.StatusBadRequest, codeValidation, "Email already registered"}},
	{service.ErrUnknownEmail, errorMapping{http.StatusBadRequest, codeValidation, "User not found"}},
	{service.ErrInvalidPassword, errorMapping{http.StatusBadRequest, codeValidation, "Invalid password"}},
	{service.ErrUserNotFound, errorMapping{http.StatusNotFound, codeNotFound, "User not found"}},
	{service.ErrProductNotFound, errorMapping{http.StatusNotFound, codeNotFound, "Product not found"}},
	{service.ErrCartItemNotFound, errorMapping{http.StatusNotFound, codeNotFound, "Item not found in cart"}},
	{service.ErrOrderNotFound, errorMapping{http.StatusNotFound, codeNotFound, "Order not found"}},
	{service.ErrProfileAccessDenied, errorMapping{http.StatusForbidden, codeForbidden, "You can only update your own profile"}},
	{service.ErrProductAccessDenied, errorMapping{http.StatusForbidden, codeForbidden, "Product belongs to another seller"}},
	{service.ErrOrderAccessDenied, errorMapping{http.StatusForbidden, codeForbidden, "Order contains none of your products"}},
	{service.ErrEmailTaken, errorMapping{http.StatusConflict, codeConflict, "Email already in use"}},
	{service.ErrProductInUse, errorMapping{http.StatusConflict, codeConflict, "Product is part of existing orders"}},
}

// writeError maps service errors onto the JSON error body. Unknown errors
// are attached to the gin context for the request logger and hidden from
// the client.
func writeError(c *gin.Context, err error) {
	var verr *service.ValidationError
	if errors.As(err, &verr) {
		respondError(c, http.StatusBadRequest, codeValidation, verr.Message)
		return
	}
	for _, k := range knownErrors {
		if errors.Is(err, k.err) {
			respondError(c, k.status, k.code, k.message)
			return
		}
	}
	_ = c.Error(err)
	respondError(c, http.StatusInternalServerError, codeInternal, "Internal server error")
}

func respondError(c *gin.Context, status int, code, message string) {
	c.JSON(status, dto.ErrorResponse{Message: message, Code: code})
}

func badRequest(c *gin.Context, message string) {
	respondError(c, http.StatusBadRequest, codeValidation, message)
}

// pathID parses a positive integer path parameter, writing a 400 when it is
// malformed.
func pathID(c *gin.Context, name string) (int64, bool) {
	id, err := strconv.ParseInt(c.Param(name), 10, 64)
	if err != nil || id <= 0 {
		badRequest(c, "invalid "+name)
		return 0, false
	}
	return id, true
}
