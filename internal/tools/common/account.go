package common

import (
	"github.com/teemow/dealdesk/internal/google"
)

// GetAccountFromArgs returns the "account" argument, or "default" when it is
// missing, empty or not a string.
func GetAccountFromArgs(args map[string]any) string {
	if accountVal, ok := args["account"].(string); ok && accountVal != "" {
		return accountVal
	}
	return google.DefaultAccount
}

// GetCalendarIDFromArgs returns the "calendarId" argument, or "" when it is unset.
func GetCalendarIDFromArgs(args map[string]any) string {
	if id, ok := args["calendarId"].(string); ok {
		return id
	}
	return ""
}
