package google

// DefaultOAuthScopes are the Google OAuth scopes requested for every account.
// Availability only ever reads calendars.
var DefaultOAuthScopes = []string{
	"openid",
	"https://www.googleapis.com/auth/userinfo.email",
	"https://www.googleapis.com/auth/calendar.readonly",
}
