// Package drive stores fetched attachments in Google Drive and lists the
// day's spreadsheets for ingestion.
//
// Folders are found or created by name under a parent. Listings query by
// parent folder, MIME type and creation time, follow every page, and
// re-check the creation time of each returned file.
package drive
