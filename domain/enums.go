package domain

// ContentType is the kind of payload a worksheet carries.
type ContentType string

const (
	// ContentTypeSQL marks a SQL worksheet. It is the default when a
	// descriptor omits content_type.
	ContentTypeSQL ContentType = "sql"

	// ContentTypePython marks a Python worksheet.
	ContentTypePython ContentType = "python"
)

// String returns the string representation of the ContentType.
func (c ContentType) String() string {
	return string(c)
}

// Extension returns the file extension (without dot) of the content file.
// Only python maps to "py"; every other value is stored as SQL.
func (c ContentType) Extension() string {
	if c == ContentTypePython {
		return "py"
	}
	return "sql"
}

// AuthMode selects how a session is obtained for an account.
type AuthMode string

const (
	// AuthModePassword authenticates with username and password.
	AuthModePassword AuthMode = "PWD"
)

// String returns the string representation of the AuthMode.
func (m AuthMode) String() string {
	return string(m)
}

// AccountStatus is the outcome of one account's authenticate+upload task.
type AccountStatus string

const (
	// AccountStatusSuccess indicates the upload collaborator ran for the account.
	AccountStatusSuccess AccountStatus = "SUCCESS"

	// AccountStatusFailed indicates authentication or upload failed.
	AccountStatusFailed AccountStatus = "FAILED"
)

// String returns the string representation of the AccountStatus.
func (s AccountStatus) String() string {
	return string(s)
}
