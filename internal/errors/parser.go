package errors

import (
	stderrors "errors"
	"strings"

	"gorm.io/gorm"
)

// ParseError turns a storage or runtime error into an AppError.
// resource names the entity being touched ("store", "annual target", ...) and
// is only used to build the client-facing message.
func ParseError(err error, resource string) *AppError {
	if err == nil {
		return Unexpected(stderrors.New("nil error"))
	}
	if appErr, ok := As(err); ok {
		return appErr
	}

	if stderrors.Is(err, gorm.ErrRecordNotFound) {
		return &AppError{Kind: KindNotFound, Code: ResourceNotFound, Message: notFoundMessage(resource), Err: err}
	}
	if stderrors.Is(err, gorm.ErrDuplicatedKey) {
		return parseDuplicateKeyError(err, resource)
	}
	if stderrors.Is(err, gorm.ErrForeignKeyViolated) {
		return parseForeignKeyError(err, resource)
	}

	errLower := strings.ToLower(err.Error())

	// Postgres 23505 / sqlite UNIQUE
	if strings.Contains(errLower, "duplicate key") || strings.Contains(errLower, "unique constraint") {
		return parseDuplicateKeyError(err, resource)
	}
	// Postgres 23503 / sqlite FOREIGN KEY
	if strings.Contains(errLower, "foreign key constraint") {
		return parseForeignKeyError(err, resource)
	}
	// Postgres 23502 / sqlite NOT NULL
	if strings.Contains(errLower, "violates not-null constraint") || strings.Contains(errLower, "not null constraint failed") {
		return &AppError{Kind: KindValidation, Code: ValidationRequired, Message: "a required field is missing", Err: err}
	}
	// Postgres 23514 / sqlite CHECK
	if strings.Contains(errLower, "check constraint") {
		return &AppError{Kind: KindValidation, Code: ValidationInvalidRange, Message: "a field is out of its allowed range", Err: err}
	}

	return Unexpected(err)
}

func parseDuplicateKeyError(err error, resource string) *AppError {
	errLower := strings.ToLower(err.Error())

	switch {
	case strings.Contains(errLower, "stores.code") || strings.Contains(errLower, "idx_stores_code"):
		return &AppError{Kind: KindValidation, Code: StoreCodeExists, Message: "store code already exists", Err: err}
	case strings.Contains(errLower, "products.sku") || strings.Contains(errLower, "idx_products_sku"):
		return &AppError{Kind: KindValidation, Code: ProductSKUExists, Message: "product sku already exists", Err: err}
	case strings.Contains(errLower, "users.email") || strings.Contains(errLower, "idx_users_email"):
		return &AppError{Kind: KindValidation, Code: UserEmailExists, Message: "email already exists", Err: err}
	case strings.Contains(errLower, "target"):
		return &AppError{Kind: KindValidation, Code: TargetAlreadyExists, Message: alreadyExistsMessage(resource), Err: err}
	}

	// Translated errors carry no constraint name; fall back to the resource.
	switch {
	case resource == "store":
		return &AppError{Kind: KindValidation, Code: StoreCodeExists, Message: "store code already exists", Err: err}
	case resource == "product":
		return &AppError{Kind: KindValidation, Code: ProductSKUExists, Message: "product sku already exists", Err: err}
	case resource == "user":
		return &AppError{Kind: KindValidation, Code: UserEmailExists, Message: "email already exists", Err: err}
	case strings.HasSuffix(resource, "target"):
		return &AppError{Kind: KindValidation, Code: TargetAlreadyExists, Message: alreadyExistsMessage(resource), Err: err}
	}

	return &AppError{Kind: KindValidation, Code: ResourceAlreadyExists, Message: alreadyExistsMessage(resource), Err: err}
}

func parseForeignKeyError(err error, resource string) *AppError {
	errLower := strings.ToLower(err.Error())

	// Deleting a row that is still referenced.
	if strings.Contains(errLower, "still referenced") {
		return &AppError{Kind: KindValidation, Code: ResourceConflict, Message: resource + " is still referenced by other records", Err: err}
	}
	return &AppError{Kind: KindNotFound, Code: ReferenceNotFound, Message: "referenced record does not exist", Err: err}
}

func notFoundMessage(resource string) string {
	if resource == "" {
		return "requested record not found"
	}
	return resource + " not found"
}

func alreadyExistsMessage(resource string) string {
	if resource == "" {
		return "record already exists"
	}
	return resource + " already exists"
}
