// Package hcl loads pipeline blueprints written in HCL and translates them
// into the format-agnostic config.Blueprint model.
//
// A blueprint declares exactly one pipeline block:
//
//	pipeline "Dev to Trash" {
//	  parameters = { FIELD = "/a" }
//
//	  stage "source" {
//	    label      = "Dev Raw Data Source"
//	    attributes = { raw_data = jsonencode({ a = 1 }) }
//	    output { to = ["trash"] }
//	  }
//
//	  stage "trash" {
//	    label = "Trash"
//	  }
//
//	  error_stage {
//	    label = "Discard"
//	  }
//	}
//
// A blueprint setting as_fragment = true describes a pipeline fragment. A
// fragment block merges a built fragment export and is wired like a stage.
//
// Expressions may call upper, lower, format, join, concat, merge, trimspace
// and jsonencode, and may read the pipeline parameters through param.
package hcl
