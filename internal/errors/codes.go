package errors

// Error codes returned alongside the human readable message.
// Format: CATEGORY_DETAIL. The dashboard maps these to localized text.
const (
	// Auth
	AuthUnauthorized       = "AUTH_UNAUTHORIZED"
	AuthInvalidCredentials = "AUTH_INVALID_CREDENTIALS"
	AuthTokenExpired       = "AUTH_TOKEN_EXPIRED"
	AuthTokenInvalid       = "AUTH_TOKEN_INVALID"
	AuthTokenRevoked       = "AUTH_TOKEN_REVOKED"
	AuthUserInactive       = "AUTH_USER_INACTIVE"

	// Authorization
	AuthzForbidden    = "AUTHZ_FORBIDDEN"
	AuthzRoleNotFound = "AUTHZ_ROLE_NOT_FOUND"

	// Validation
	ValidationInvalidInput = "VALIDATION_INVALID_INPUT"
	ValidationInvalidID    = "VALIDATION_INVALID_ID"
	ValidationInvalidRange = "VALIDATION_INVALID_RANGE"
	ValidationRequired     = "VALIDATION_REQUIRED"

	// Generic resources
	ResourceNotFound      = "RESOURCE_NOT_FOUND"
	ResourceAlreadyExists = "RESOURCE_ALREADY_EXISTS"
	ResourceConflict      = "RESOURCE_CONFLICT"
	ReferenceNotFound     = "REFERENCE_NOT_FOUND"

	// Stores
	StoreNotFound   = "STORE_NOT_FOUND"
	StoreCodeExists = "STORE_CODE_EXISTS"
	StoreInUse      = "STORE_IN_USE"

	// Products
	ProductNotFound  = "PRODUCT_NOT_FOUND"
	ProductSKUExists = "PRODUCT_SKU_EXISTS"
	ProductInUse     = "PRODUCT_IN_USE"

	// Targets
	TargetNotFound           = "TARGET_NOT_FOUND"
	TargetAlreadyExists      = "TARGET_ALREADY_EXISTS"
	TargetAllocationExceeded = "TARGET_ALLOCATION_EXCEEDED"
	TargetPeriodMismatch     = "TARGET_PERIOD_MISMATCH"

	// Sales
	SalesRecordNotFound = "SALES_RECORD_NOT_FOUND"
	SalesImportInvalid  = "SALES_IMPORT_INVALID"

	// Users
	UserNotFound     = "USER_NOT_FOUND"
	UserEmailExists  = "USER_EMAIL_EXISTS"
	UserSelfDeletion = "USER_SELF_DELETION"

	// Uploads
	UploadInvalidFileType = "UPLOAD_INVALID_FILE_TYPE"
	UploadFailed          = "UPLOAD_FAILED"

	// Internal
	InternalServerError   = "INTERNAL_SERVER_ERROR"
	InternalDatabaseError = "INTERNAL_DATABASE_ERROR"
)
