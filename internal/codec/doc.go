// Package codec converts between reqless executor replies and the job
// package's domain model.
//
// The reqless scripts run inside Redis' Lua environment, where one table type
// stands in for both lists and maps. Two conventions follow from that and are
// applied field by field rather than globally:
//
//   - a property that is contractually a list may arrive as an empty object,
//     which decodes to the empty list; a non-empty object there is an error;
//   - optional values may arrive as {} (failure) or false (spawned_from_jid)
//     and decode to nil.
//
// History events are flat objects tagged by a root-level "what" property.
// Unknown tags decode to job.LogEvent with the remaining properties kept as
// raw JSON, so they re-encode without loss.
//
// Every decoder fails with a *DecodeError on the first problem it finds and
// returns no partial value. Decoders and encoders hold no state and are safe
// for concurrent use.
package codec
