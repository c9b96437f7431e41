package service

import "errors"

// 业务错误
var (
	ErrNotFound             = errors.New("not found")
	ErrValidation           = errors.New("validation failed")
	ErrStorage              = errors.New("storage failure")
	ErrOperationNotAllowed  = errors.New("operation not allowed")
	ErrSlugExists           = errors.New("slug already exists")
	ErrConflict             = errors.New("unique value already exists")
	ErrInvalidOrderStatus   = errors.New("invalid order status transition")
	ErrOrderTotalMismatch   = errors.New("order total does not match items")
	ErrOrderNumberExists    = errors.New("order number already exists")
	ErrInvalidCredentials   = errors.New("invalid email or password")
	ErrEmailExists          = errors.New("email already registered")
	ErrWeakPassword         = errors.New("password does not meet policy")
	ErrUnauthorized         = errors.New("authorization required")
	ErrForbidden            = errors.New("forbidden")
	ErrCaptchaRequired      = errors.New("captcha required")
	ErrCaptchaInvalid       = errors.New("captcha invalid")
	ErrEmailServiceDisabled = errors.New("email service disabled")
	ErrEmailNotConfigured   = errors.New("email service not configured")
	ErrInvalidEmail         = errors.New("invalid email address")
	ErrEmailRejected        = errors.New("email recipient rejected")
)

// ValidationError 携带字段信息的校验错误
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return e.Reason
	}
	return e.Field + " " + e.Reason
}

// Is 使 errors.Is(err, ErrValidation) 成立
func (e *ValidationError) Is(target error) bool {
	return target == ErrValidation
}

// StorageError 包装底层数据库错误
type StorageError struct {
	Op  string
	Err error
}

func (e *StorageError) Error() string {
	return e.Op + ": " + e.Err.Error()
}

func (e *StorageError) Unwrap() error {
	return e.Err
}

// Is 使 errors.Is(err, ErrStorage) 成立
func (e *StorageError) Is(target error) bool {
	return target == ErrStorage
}

func storageErr(op string, err error) error {
	if err == nil {
		return nil
	}
	return &StorageError{Op: op, Err: err}
}

func invalid(field, reason string) error {
	return &ValidationError{Field: field, Reason: reason}
}
