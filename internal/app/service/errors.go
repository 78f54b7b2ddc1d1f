package service

import (
	apperrors "github.com/quonpass/quonpass-backend/internal/errors"
)

var (
	ErrStoreNotFound = apperrors.NotFound(apperrors.StoreNotFound, "store not found")
	ErrStoreInUse    = apperrors.Validation(apperrors.StoreInUse, "store still has targets or sales records; archive it instead")
	ErrInvalidStatus = apperrors.Validation(apperrors.ValidationInvalidInput, "invalid status")

	ErrProductNotFound = apperrors.NotFound(apperrors.ProductNotFound, "product not found")
	ErrProductInUse    = apperrors.Validation(apperrors.ProductInUse, "product is referenced by sales records; discontinue it instead")

	ErrAnnualTargetNotFound  = apperrors.NotFound(apperrors.TargetNotFound, "annual target not found")
	ErrMonthlyTargetNotFound = apperrors.NotFound(apperrors.TargetNotFound, "monthly target not found")
	ErrWeeklyTargetNotFound  = apperrors.NotFound(apperrors.TargetNotFound, "weekly target not found")
	ErrDailyTargetNotFound   = apperrors.NotFound(apperrors.TargetNotFound, "daily target not found")

	ErrAnnualTargetExists  = apperrors.Validation(apperrors.TargetAlreadyExists, "annual target for this store and year already exists")
	ErrMonthlyTargetExists = apperrors.Validation(apperrors.TargetAlreadyExists, "monthly target for this month already exists")
	ErrWeeklyTargetExists  = apperrors.Validation(apperrors.TargetAlreadyExists, "weekly target for this week already exists")
	ErrDailyTargetExists   = apperrors.Validation(apperrors.TargetAlreadyExists, "daily target for this date already exists")
	ErrAlreadyDistributed  = apperrors.Validation(apperrors.TargetAlreadyExists, "monthly targets already exist for this annual target")

	ErrInvalidYear        = apperrors.Validation(apperrors.ValidationInvalidRange, "year must be between 2000 and 2100")
	ErrInvalidMonth       = apperrors.Validation(apperrors.ValidationInvalidRange, "month must be between 1 and 12")
	ErrInvalidWeekNumber  = apperrors.Validation(apperrors.ValidationInvalidRange, "week_number is outside the weeks of the month")
	ErrInvalidAllocation  = apperrors.Validation(apperrors.ValidationInvalidRange, "allocation_percentage must be between 0 and 1")
	ErrNegativeAmount     = apperrors.Validation(apperrors.ValidationInvalidRange, "target amounts must not be negative")
	ErrAllocationExceeded = apperrors.Validation(apperrors.TargetAllocationExceeded, "allocation percentages of sibling targets would exceed 100%")
	ErrDateOutsideWeek    = apperrors.Validation(apperrors.TargetPeriodMismatch, "target_date is outside the parent week")
	ErrPeriodLocked       = apperrors.Validation(apperrors.TargetPeriodMismatch, "period cannot change while child targets exist")

	ErrSalesRecordNotFound = apperrors.NotFound(apperrors.SalesRecordNotFound, "sales record not found")
	ErrUnsupportedImport   = apperrors.Validation(apperrors.UploadInvalidFileType, "import file must be .csv or .xlsx")
	ErrImportEmpty         = apperrors.Validation(apperrors.SalesImportInvalid, "import file has no data rows")

	ErrInvalidCredentials = apperrors.Unauthorized(apperrors.AuthInvalidCredentials, "invalid email or password")
	ErrUserInactive       = apperrors.Forbidden(apperrors.AuthUserInactive, "user account is disabled")
	ErrInvalidToken       = apperrors.Unauthorized(apperrors.AuthTokenInvalid, "invalid token")
	ErrExpiredToken       = apperrors.Unauthorized(apperrors.AuthTokenExpired, "token has expired")
	ErrRevokedToken       = apperrors.Unauthorized(apperrors.AuthTokenRevoked, "token has been revoked")

	ErrUserNotFound     = apperrors.NotFound(apperrors.UserNotFound, "user not found")
	ErrEmailExists      = apperrors.Validation(apperrors.UserEmailExists, "email already exists")
	ErrInvalidRole      = apperrors.Validation(apperrors.ValidationInvalidInput, "role must be admin, manager or staff")
	ErrSelfDeletion     = apperrors.Validation(apperrors.UserSelfDeletion, "you cannot delete your own account")
	ErrWeakPassword     = apperrors.Validation(apperrors.ValidationInvalidInput, "password must be at least 8 characters and contain a letter and a digit")
	ErrInvalidDateRange = apperrors.Validation(apperrors.ValidationInvalidRange, "from must not be after to")
)
