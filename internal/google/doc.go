// Package google handles OAuth2 tokens for the Gmail, Drive and Sheets APIs.
//
// Tokens are stored per account under the user cache directory, as
// grnsync/google-<account>.token, and are created with the out-of-band
// consent flow driven by `grnsync auth`.
package google
