// Package align implements the tokenizer/grammar boundary alignment engine.
//
// The package is pure: it extracts rule spans from a parsed syntax tree,
// normalizes tokenizer offset mappings into a shared byte-offset coordinate
// system, scores how well the two boundary sets agree, and folds per-file
// results into language, model and cross-language aggregates. All folds are
// associative and commutative so partial results produced by parallel
// workers can be merged in any order without changing the final report.
//
// No I/O happens here. Parsing, tokenization and corpus access are
// collaborators wired in by internal/engine.
package align
