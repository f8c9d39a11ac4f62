// Package bpx validates BPX battery-parameter documents.
//
// A BPX document describes an electrochemical cell: scalar physical
// constants, tabulated data, and expressions of one variable (for example an
// open-circuit potential as a function of stoichiometry). Validation checks
// the document against a closed schema, resolves which parameter-set shape
// it uses, checks the per-electrode state keys, and runs advisory
// consistency checks.
//
// # Quick Start
//
//	import (
//	    "github.com/bpxgo/validator/pkg/loader"
//	    "github.com/bpxgo/validator/pkg/validator"
//	)
//
//	doc, err := loader.Load("lfp_18650.json")
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	v, err := validator.New()
//	if err != nil {
//	    log.Fatal(err)
//	}
//	res, err := v.ValidateDocument(ctx, doc, validator.WithVoltageTolerance(1e-3))
//	if err != nil {
//	    log.Fatal(err) // *issue.Error naming the offending path
//	}
//	for _, w := range res.Warnings.Issues {
//	    fmt.Println(w)
//	}
//
// # Model types
//
// The Header's "Model" field selects the expected parameter-set shape:
//
//   - SPM: cell and two electrodes (reduced set)
//   - SPMe, DFN: cell, electrolyte, two electrodes and separator (full set)
//   - Partial: any subset, every field optional
//
// A document whose parameters fit the other shape is rejected with a
// variant-mismatch error.
//
// # Packages
//
//   - pkg/expression: parser for the restricted expression language
//   - pkg/function: compiler and stack evaluator for parsed expressions
//   - pkg/schema, pkg/variant: typed document model and shape resolution
//   - pkg/statekey: per-electrode keys in the State section
//   - pkg/consistency: voltage cut-off check against the OCP curves
//   - pkg/validator: the entry point tying the phases together
//   - pkg/loader, pkg/location: JSON, YAML and HCL input and error positions
//   - pkg/walker: visits every quantity of a parameter set
//   - worker: concurrent batch validation
package bpx
