// Package api exposes the analyzer's live state over HTTP as JSON under
// /api/v1/.
package api
