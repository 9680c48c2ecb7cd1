// Package shadowdiff implements a schema-driven equivalence engine for
// validating API migrations: given a baseline JSON document, a candidate
// JSON document, and an OpenAPI-style schema fragment annotated with
// x-migration-* extensions, it determines whether the two documents are
// functionally equivalent modulo controlled noise (renamed fields, remapped
// enums, default injection, rounding tolerance, datetime slack, ignored
// paths, array reordering/keying/subsetting) and produces a structured
// diff report.
package shadowdiff
