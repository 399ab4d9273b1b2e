// Package batch runs one tool operation over several ids, such as the calendars
// of a whole sales team, and reports partial failures per id instead of failing
// the whole call.
package batch
