// Package google provides shared infrastructure for the Google Drive
// connector.
//
// This package contains:
//   - Token handling that turns stored OAuth2 token material into an
//     oauth2.TokenSource
//   - A service factory for creating the Drive API client
//   - Error classification for common Google API errors (401, 403, 404,
//     410, 429)
//   - Rate limiting to respect Google API quotas
//
// # Usage
//
// The drive connector uses this package to create an authenticated API
// client:
//
//	ts, err := google.NewTokenSource(ctx, tokenJSON, clientID, clientSecret)
//	svc, err := google.NewDriveService(ctx, ts)
//
// # OAuth2 Scopes
//
// The connector reads documents only and needs a single scope:
//   - https://www.googleapis.com/auth/drive.readonly (restricted)
//
// For user-created internal apps, restricted scopes don't require
// verification.
package google
