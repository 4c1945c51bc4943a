// Package gmail searches a mailbox for goods receipt attachments and
// downloads them.
//
// SearchQuery renders the Gmail search expression (sender, keywords, a
// lookback window). Client lists matching messages, reads their headers
// and attachment parts, and decodes attachment bodies. Filename helpers
// sanitize names before they are used in Drive.
package gmail
