/*
Package builder assembles pipeline documents. A Builder owns one in-progress
document and is the only writer of it.

Building is incremental:

 1. Stage Creation: Add* methods select a stage definition, materialize a
    stage instance with a unique instance name and default configuration, and
    attach it to the document as a graph stage or as one of the special
    stages (error, lifecycle event, statistics, test origin).

 2. Wiring: the returned *stage.Stage values are connected through lanes by
    the caller. Fragments are spliced in with AddFragment, which namespaces
    every identifier of the fragment and adds one group stage standing for it.

 3. Finalization: Build lays the stages out, closes the open lanes of a
    fragment, copies the external inputs of merged fragments onto their entry
    stage, assigns the document id once, stamps the title and runs a lane
    consistency pass whose findings are reported through Warnings.

A Builder is not transactional: a failed call may leave the document partly
modified, and the builder should then be discarded.
*/
package builder
