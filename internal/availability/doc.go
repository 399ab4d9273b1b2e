// Package availability computes free meeting slots from a requested time window and a
// set of busy calendar intervals.
//
// The package is a pure engine: every function takes its inputs (including the
// reference "now" instant and an explicit Config) as arguments, performs no I/O and
// holds no shared state, so concurrent calls need no coordination.
//
// The pipeline is:
//
//   - zoned calendar arithmetic (civil days, working-hour instants, DST-safe stepping)
//   - natural-language window inference ("30 min tomorrow", "next friday")
//   - interval merge of the busy set
//   - per-day gap calculation at the primary (60 minute) and secondary (30 minute)
//     granularities, combined so a gap is reported once
//   - aggregation over the civil days of the window into a Result and its JSON Report
//
// Example usage:
//
//	cfg := availability.DefaultConfig()
//	report, err := availability.Check(availability.Input{
//	    Query:    "30 minutes tomorrow evening",
//	    Timezone: "Europe/London",
//	    BusyIntervals: busy,
//	}, time.Now(), cfg)
package availability
