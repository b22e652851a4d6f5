// Package drive implements the Google Drive connector.
//
// The connector reads files from a Drive account or a single folder,
// exporting Google Workspace documents to plain text formats and
// downloading regular text files. Incremental sync and watching both
// ride on the Drive changes feed, anchored by a start page token kept
// in the sync cursor.
package drive
