package errors

// Error code constants.
// Format: CATEGORY_SPECIFIC_DETAIL
// The admin console maps these codes to display messages.

const (
	// ==================== Auth (AUTH_) ====================
	AuthUnauthorized       = "AUTH_UNAUTHORIZED"        // login required
	AuthInvalidCredentials = "AUTH_INVALID_CREDENTIALS" // wrong email/password
	AuthTokenExpired       = "AUTH_TOKEN_EXPIRED"
	AuthTokenInvalid       = "AUTH_TOKEN_INVALID"
	AuthTokenRevoked       = "AUTH_TOKEN_REVOKED" // session revoked server-side
	AuthAccountDisabled    = "AUTH_ACCOUNT_DISABLED"
	AuthEmailAlreadyExists = "AUTH_EMAIL_EXISTS"

	// ==================== Authorization (AUTHZ_) ====================
	AuthzForbidden = "AUTHZ_FORBIDDEN"
	AuthzAdminOnly = "AUTHZ_ADMIN_ONLY"

	// ==================== Validation (VALIDATION_) ====================
	ValidationInvalidInput  = "VALIDATION_INVALID_INPUT"
	ValidationInvalidID     = "VALIDATION_INVALID_ID"
	ValidationInvalidFormat = "VALIDATION_INVALID_FORMAT"
	ValidationInvalidRange  = "VALIDATION_INVALID_RANGE"
	ValidationRequired      = "VALIDATION_REQUIRED"

	// ==================== Resources (RESOURCE_) ====================
	ResourceNotFound      = "RESOURCE_NOT_FOUND"
	ResourceAlreadyExists = "RESOURCE_ALREADY_EXISTS"
	ResourceConflict      = "RESOURCE_CONFLICT"

	// ==================== Businesses (BUSINESS_) ====================
	BusinessNotFound    = "BUSINESS_NOT_FOUND"
	BusinessEmailExists = "BUSINESS_EMAIL_EXISTS"
	BusinessSuspended   = "BUSINESS_SUSPENDED"

	// ==================== Tags (TAG_) ====================
	TagNotFound      = "TAG_NOT_FOUND"
	TagIDExists      = "TAG_ID_EXISTS"
	TagNotAssignable = "TAG_NOT_ASSIGNABLE" // only inactive tags can be assigned
	TagNotAssigned   = "TAG_NOT_ASSIGNED"   // unassign needs a tag with a business
	TagNotPending    = "TAG_NOT_PENDING"    // only pending tags can be activated
	TagInvalidType   = "TAG_INVALID_TYPE"

	// ==================== Tag pairs (PAIR_) ====================
	PairNotFound       = "PAIR_NOT_FOUND"
	PairComponentInUse = "PAIR_COMPONENT_IN_USE" // qr or nfc id already used by another pair
	PairNotAssignable  = "PAIR_NOT_ASSIGNABLE"
	PairAlreadyActive  = "PAIR_ALREADY_ACTIVE"
	PairNotActive      = "PAIR_NOT_ACTIVE"
	PairDeleted        = "PAIR_DELETED"

	// ==================== Subscriptions (SUBSCRIPTION_) ====================
	SubscriptionNotFound    = "SUBSCRIPTION_NOT_FOUND"
	SubscriptionExpired     = "SUBSCRIPTION_EXPIRED"
	SubscriptionRequired    = "SUBSCRIPTION_REQUIRED" // paid feature behind entitlement
	SubscriptionInvalidPlan = "SUBSCRIPTION_INVALID_PLAN"

	// ==================== Coupons (COUPON_) ====================
	CouponNotFound  = "COUPON_NOT_FOUND"
	CouponExists    = "COUPON_EXISTS"
	CouponExhausted = "COUPON_EXHAUSTED"

	// ==================== Payments (PAYMENT_) ====================
	PaymentNotFound         = "PAYMENT_NOT_FOUND"
	PaymentInvalidSignature = "PAYMENT_INVALID_SIGNATURE"
	PaymentAlreadyProcessed = "PAYMENT_ALREADY_PROCESSED"
	PaymentNotCaptured      = "PAYMENT_NOT_CAPTURED"
	PaymentGatewayError     = "PAYMENT_GATEWAY_ERROR"

	// ==================== Notifications (NOTIFICATION_) ====================
	NotificationNotFound = "NOTIFICATION_NOT_FOUND"

	// ==================== Uploads (UPLOAD_) ====================
	UploadInvalidFileType = "UPLOAD_INVALID_FILE_TYPE"
	UploadFileTooLarge    = "UPLOAD_FILE_TOO_LARGE"
	UploadFailed          = "UPLOAD_FAILED"

	// ==================== Internal (INTERNAL_) ====================
	InternalServerError   = "INTERNAL_SERVER_ERROR"
	InternalDatabaseError = "INTERNAL_DATABASE_ERROR"
	InternalExternalAPI   = "INTERNAL_EXTERNAL_API"
	InternalConfigError   = "INTERNAL_CONFIG_ERROR"
)
