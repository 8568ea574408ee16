// Package analyzer implements the streaming windowed-analysis engine at the
// heart of climascope.
//
// Analyzer.Ingest accepts one reading at a time, records it, appends it to a
// rolling buffer bounded by a retention horizon (60 s by default), and
// classifies it against inclusive temperature and humidity ranges. When a
// reading falls out of range, every buffered reading within the ± context
// window (30 s by default) of the trigger is recorded as a context entry
// labeled before, after, or exact relative to the trigger timestamp.
//
// The buffer is owned exclusively by the Analyzer and Ingest must not be
// called concurrently; the transport layer serializes ingestion through a
// single worker. Context is computed synchronously at detection time, so the
// "after" side of a window only covers readings that have already arrived.
//
// The clock is injectable (Analyzer.now) so tests control time without
// sleeping, following the same pattern as the live store.
package analyzer
