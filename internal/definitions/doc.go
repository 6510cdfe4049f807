// Package definitions models the read-only catalog of stage, service and
// pipeline configuration definitions published by the execution engine. The
// JSON shape mirrors the engine's definitions endpoint so an exported file can
// be loaded as-is.
package definitions
