// Package google_tools provides MCP tools for Google OAuth authentication.
//
// The OAuth flow:
//  1. Call google_get_auth_url to get the authorization URL
//  2. The user visits the URL and authorizes access
//  3. Call google_save_auth_code with the code to store the token
//
// google_auth_status reports whether an account already has a token.
// Stored tokens are refreshed automatically.
package google_tools
