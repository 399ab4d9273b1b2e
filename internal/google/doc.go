// Package google provides OAuth2 authentication and token management for Google APIs.
//
// Tokens are stored per account under the user cache directory
// (for example ~/.cache/dealdesk/google-work.token). The OAuth client ID and secret
// come from SetClientCredentials or the GOOGLE_CLIENT_ID and GOOGLE_CLIENT_SECRET
// environment variables. Only read-only Calendar scopes are requested.
//
// The TokenProvider interface lets the calendar client be constructed against other
// token sources in tests.
package google
