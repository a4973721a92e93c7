// Package query compiles wildcard search strings and evaluates them against
// compressed archives in two filtering stages.
//
// Stage one matches the compiled pattern against every distinct logtype in
// the logtype dictionary, treating placeholder markers as units a `*` may
// skip or a `?`/literal may consume. This operates on the distinct-logtype
// count, not the event count, which is the central performance win of
// dictionary-based filtering. Stage two checks pattern portions aligned with
// placeholders against each candidate event's variable values, decoded
// individually; only events passing both stages are fully decoded for output.
//
// The two stages together are exact: the result set equals naively
// wildcard-matching every decoded message. Stage one may overapproximate
// (a placeholder is assumed to match anything), never underapproximate.
package query
