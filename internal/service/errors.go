package service

// CodedError is a caller-visible error with a stable machine-readable code.
// Handlers map codes to HTTP statuses; the message is safe to return.
type CodedError struct {
	Code    string
	Message string
}

func (e *CodedError) Error() string {
	return e.Message
}

// Configuration errors, rejected before any side effect
var (
	ErrNotConfigured = &CodedError{
		Code:    "BACKUP_NOT_CONFIGURED",
		Message: "No backup option is enabled. Enable local or S3 backup.",
	}
	ErrLocalDirMissing = &CodedError{
		Code:    "LOCAL_BACKUP_NOT_CONFIGURED",
		Message: "Local backup is enabled but LOCAL_BACKUP_DIR is not configured on the server.",
	}
)

// Validation errors, rejected before any mutation
var (
	ErrInvalidArchive = &CodedError{
		Code:    "INVALID_ARCHIVE",
		Message: "Uploaded file is not a valid archive",
	}
	ErrMissingItems = &CodedError{
		Code:    "MISSING_ITEMS",
		Message: "Archive does not contain an items collection",
	}
	ErrNotFullBackup = &CodedError{
		Code:    "NOT_A_FULL_BACKUP",
		Message: "Archive does not contain a database payload",
	}
	ErrModeMismatch = &CodedError{
		Code:    "MODE_MISMATCH",
		Message: "Archive contents do not match the requested import mode",
	}
	ErrDialectMismatch = &CodedError{
		Code:    "DIALECT_MISMATCH",
		Message: "Archive database payload does not match the configured database dialect",
	}
	ErrConfirmationRequired = &CodedError{
		Code:    "CONFIRMATION_REQUIRED",
		Message: "A full restore is irreversible and must be explicitly confirmed",
	}
	ErrForbidden = &CodedError{
		Code:    "FORBIDDEN",
		Message: "Administrator privileges required",
	}
)
