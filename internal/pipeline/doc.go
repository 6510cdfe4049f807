// Package pipeline defines the exported pipeline document: stage instances,
// the pipeline or fragment document that holds them, rules, parameters and
// the export envelope the execution engine imports.
package pipeline
