// Package google_tools provides MCP tools for Google OAuth authentication.
//
// The availability tools read Google Calendar on behalf of a named account. When an
// account has no token yet:
//  1. call google_get_auth_url to get the authorization URL
//  2. the user visits the URL and grants read access to their calendar
//  3. the user provides the authorization code
//  4. call google_save_auth_code with the code to store the token
//
// The token is refreshed automatically afterwards.
package google_tools
