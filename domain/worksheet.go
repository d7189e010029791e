package domain

import "fmt"

// Worksheet is a logical document synced to a remote account.
type Worksheet struct {
	// ID is the remote identifier. Empty until the worksheet is first created.
	ID string `json:"_id"`

	// Name is the display name; the content filename is derived from it.
	Name string `json:"name"`

	// FolderID identifies the remote folder.
	FolderID string `json:"folder_id"`

	// FolderName is the display name of the remote folder.
	FolderName string `json:"folder_name"`

	// ContentType selects the payload kind and the content file extension.
	ContentType ContentType `json:"content_type"`

	// Content is the raw text payload.
	Content string `json:"content"`
}

// String returns a short description without the content.
func (w Worksheet) String() string {
	return fmt.Sprintf("%s/%s (%s)", w.FolderName, w.Name, w.ContentType)
}

// SyncAccount is a remote account a run replays worksheets onto.
type SyncAccount struct {
	// Account is the remote account locator.
	Account string `json:"account"`

	// Username is the login name.
	Username string `json:"username"`

	// Password is the literal password or a credential reference
	// (secret://<provider>/<path>). Never serialized.
	Password string `json:"-"`
}

// String returns the account and username, never the password.
func (a SyncAccount) String() string {
	return fmt.Sprintf("%s@%s", a.Username, a.Account)
}
