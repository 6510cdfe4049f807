// Package dag holds a small directed graph of stage instance names used to
// check the wiring of a pipeline document: producer stages point at the
// stages consuming their lanes.
package dag
