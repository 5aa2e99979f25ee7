// Package core defines the shared language of the destination engine.
//
// This package contains:
//   - The abstract type system (DataType, TypeParams)
//   - Table and column shapes, system columns and sync modes
//   - The Store contract implemented by pkg/metastore
//   - The error taxonomy and request outcomes
//   - Configuration types shared by adapters and the CLI
//
// The Golden Rule: pkg/core imports ONLY stdlib.
// All other packages depend on core, not the reverse.
package core
