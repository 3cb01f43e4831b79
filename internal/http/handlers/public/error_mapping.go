package public

import (
	"errors"

	"github.com/carrito-next/internal/http/response"
	"github.com/carrito-next/internal/service"
	"github.com/carrito-next/internal/session"
	"github.com/carrito-next/internal/storefront"

	"github.com/gin-gonic/gin"
)

// mappedHandlerError 定义业务错误到接口错误响应的映射关系。
type mappedHandlerError struct {
	target error
	code   int
	msg    string
}

func respondWithMappedError(c *gin.Context, err error, rules []mappedHandlerError, fallbackCode int, fallbackMsg string) {
	for _, rule := range rules {
		if errors.Is(err, rule.target) {
			respondError(c, rule.code, rule.msg, nil)
			return
		}
	}
	respondError(c, fallbackCode, fallbackMsg, err)
}

func concatMappedHandlerErrors(groups ...[]mappedHandlerError) []mappedHandlerError {
	total := 0
	for _, group := range groups {
		total += len(group)
	}
	result := make([]mappedHandlerError, 0, total)
	for _, group := range groups {
		result = append(result, group...)
	}
	return result
}

var storefrontCommonErrorRules = []mappedHandlerError{
	{target: storefront.ErrIdentityMissing, code: response.CodeUnauthorized, msg: "session identity missing"},
	{target: storefront.ErrRequestFailed, code: response.CodeInternal, msg: "connection error"},
	{target: storefront.ErrResponseInvalid, code: response.CodeInternal, msg: "connection error"},
	{target: session.ErrNotConfigured, code: response.CodeInternal, msg: "session not configured"},
}

var cartMutationErrorRules = []mappedHandlerError{
	{target: service.ErrInvalidLineItem, code: response.CodeBadRequest, msg: "cart item invalid"},
}

var stockErrorRules = []mappedHandlerError{
	{target: service.ErrSizeUnavailable, code: response.CodeBadRequest, msg: "size unavailable"},
	{target: service.ErrNoVariantSelected, code: response.CodeBadRequest, msg: "no variant selected"},
}

var pricingErrorRules = []mappedHandlerError{
	{target: service.ErrPriceUnavailable, code: response.CodeNotFound, msg: "price unavailable"},
	{target: service.ErrNoVariantSelected, code: response.CodeBadRequest, msg: "no variant selected"},
}

var sessionErrorRules = []mappedHandlerError{
	{target: session.ErrTokenInvalid, code: response.CodeUnauthorized, msg: "token invalid"},
	{target: session.ErrUserSwitch, code: response.CodeBadRequest, msg: "logout required before switching user"},
	{target: session.ErrNotConfigured, code: response.CodeInternal, msg: "session not configured"},
}

func respondCartError(c *gin.Context, err error) {
	respondWithMappedError(c, err, concatMappedHandlerErrors(cartMutationErrorRules, storefrontCommonErrorRules), response.CodeInternal, "cart update failed")
}

func respondStockError(c *gin.Context, err error) {
	respondWithMappedError(c, err, concatMappedHandlerErrors(stockErrorRules, storefrontCommonErrorRules), response.CodeInternal, "stock fetch failed")
}

func respondPricingError(c *gin.Context, err error) {
	respondWithMappedError(c, err, concatMappedHandlerErrors(pricingErrorRules, storefrontCommonErrorRules), response.CodeInternal, "price resolve failed")
}

func respondSessionError(c *gin.Context, err error) {
	respondWithMappedError(c, err, sessionErrorRules, response.CodeInternal, "session update failed")
}
