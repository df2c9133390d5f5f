package errors

import (
	"errors"
	"strings"

	"gorm.io/gorm"
)

// ErrorInfo is a parsed error
type ErrorInfo struct {
	Code    string
	Message string
}

// ParseError converts a database or infrastructure error into a safe code and
// message. Sensitive detail stays out of the response; the raw error is for
// the logs.
func ParseError(err error, context string) ErrorInfo {
	if err == nil {
		return ErrorInfo{
			Code:    InternalServerError,
			Message: "something went wrong",
		}
	}

	errStr := err.Error()
	errStrLower := strings.ToLower(errStr)

	// 1. GORM errors
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return ErrorInfo{
			Code:    ResourceNotFound,
			Message: getNotFoundMessage(context),
		}
	}

	// 2. PostgreSQL constraint errors

	// 2-1. Unique constraint violation (23505)
	if strings.Contains(errStrLower, "duplicate key") || strings.Contains(errStrLower, "unique constraint") {
		return parseDuplicateKeyError(errStr)
	}

	// 2-2. Foreign key constraint violation (23503)
	if strings.Contains(errStrLower, "foreign key constraint") {
		return parseForeignKeyError(errStr, context)
	}

	// 2-3. Not null constraint violation (23502)
	if strings.Contains(errStrLower, "null value") && strings.Contains(errStrLower, "violates not-null constraint") {
		return parseNotNullError(errStr)
	}

	// 3. Network errors from the payment gateway and other upstreams
	if strings.Contains(errStrLower, "connection refused") ||
		strings.Contains(errStrLower, "no such host") ||
		strings.Contains(errStrLower, "timeout") {
		return ErrorInfo{
			Code:    InternalExternalAPI,
			Message: "upstream service unavailable, please try again later",
		}
	}

	// 4. Default internal error
	return ErrorInfo{
		Code:    InternalServerError,
		Message: "something went wrong, please try again later",
	}
}

func parseDuplicateKeyError(errStr string) ErrorInfo {
	errLower := strings.ToLower(errStr)

	if strings.Contains(errLower, "tag_id") || strings.Contains(errLower, "idx_tags_tag_id") {
		return ErrorInfo{
			Code:    TagIDExists,
			Message: "a tag with this id already exists",
		}
	}

	if strings.Contains(errLower, "qr_id") || strings.Contains(errLower, "nfc_id") {
		return ErrorInfo{
			Code:    PairComponentInUse,
			Message: "the QR or NFC id is already part of another pair",
		}
	}

	if strings.Contains(errLower, "pair_id") {
		return ErrorInfo{
			Code:    ResourceAlreadyExists,
			Message: "a pair with this id already exists",
		}
	}

	if strings.Contains(errLower, "provider_order_id") {
		return ErrorInfo{
			Code:    ResourceAlreadyExists,
			Message: "an order with this id already exists",
		}
	}

	if strings.Contains(errLower, "code") && strings.Contains(errLower, "coupon") {
		return ErrorInfo{
			Code:    CouponExists,
			Message: "a coupon with this code already exists",
		}
	}

	if strings.Contains(errLower, "email") {
		return ErrorInfo{
			Code:    AuthEmailAlreadyExists,
			Message: "this email is already registered",
		}
	}

	return ErrorInfo{
		Code:    ResourceAlreadyExists,
		Message: "the record already exists",
	}
}

func parseForeignKeyError(errStr string, context string) ErrorInfo {
	errLower := strings.ToLower(errStr)

	if strings.Contains(errLower, "still referenced") || strings.Contains(errLower, "is still referenced by") {
		return ErrorInfo{
			Code:    ResourceConflict,
			Message: "the record is referenced by other data and cannot be removed",
		}
	}

	if strings.Contains(errLower, "business_id") {
		return ErrorInfo{
			Code:    BusinessNotFound,
			Message: "the referenced business does not exist",
		}
	}
	if strings.Contains(errLower, "admin_id") {
		return ErrorInfo{
			Code:    ResourceNotFound,
			Message: "the referenced admin does not exist",
		}
	}

	return ErrorInfo{
		Code:    ResourceNotFound,
		Message: "referenced record not found",
	}
}

func parseNotNullError(errStr string) ErrorInfo {
	errLower := strings.ToLower(errStr)

	if strings.Contains(errLower, "email") {
		return ErrorInfo{Code: ValidationRequired, Message: "email is required"}
	}
	if strings.Contains(errLower, "tag_id") {
		return ErrorInfo{Code: ValidationRequired, Message: "tag id is required"}
	}
	if strings.Contains(errLower, "name") {
		return ErrorInfo{Code: ValidationRequired, Message: "name is required"}
	}

	return ErrorInfo{
		Code:    ValidationRequired,
		Message: "a required field is missing",
	}
}

func getNotFoundMessage(context string) string {
	contextLower := strings.ToLower(context)

	switch {
	case strings.Contains(contextLower, "business"):
		return "business not found"
	case strings.Contains(contextLower, "pair"):
		return "tag pair not found"
	case strings.Contains(contextLower, "tag"):
		return "tag not found"
	case strings.Contains(contextLower, "subscription"):
		return "subscription not found"
	case strings.Contains(contextLower, "payment"):
		return "payment not found"
	case strings.Contains(contextLower, "coupon"):
		return "coupon not found"
	case strings.Contains(contextLower, "notification"):
		return "notification not found"
	case strings.Contains(contextLower, "admin"):
		return "admin not found"
	}

	return "requested record not found"
}
