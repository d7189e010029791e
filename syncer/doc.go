// Package syncer replays a reconciled worksheet set onto remote accounts.
//
// The Driver turns the configured accounts into an ordered task list, one
// task per account, and runs authenticate+upload for each. Every task owns
// the report slot of its input index (account_<index>), so the report is the
// same whether tasks run one after another or on a bounded worker pool.
package syncer
