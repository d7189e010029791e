// Package domain provides the canonical type definitions shared by every
// sf-push component.
//
// The package is dependency free and holds pure data structures: worksheets
// reconciled from the repository, the accounts they are replayed onto, and
// the report a run produces.
//
// # Domain Model
//
//   - Worksheet: a remote document (query or script) with its content
//   - SyncAccount: account/username/password triple consumed once per run
//   - UploadReport: one AccountResult per configured account, keyed account_<index>
//
// Worksheet JSON tags match the metadata descriptor stored next to each
// content file, so a descriptor decodes straight into a Worksheet:
//
//	{"_id": "abc", "name": "Sheet1", "folder_id": "f1", "folder_name": "F", "content_type": "sql"}
package domain
