// Package helix compiles .hx source files into Python modules.
//
// The pipeline consists of:
//   - [Tokenizer]: splits raw source lines into tokens, strips comments and
//     applies early replacements
//   - [Normalize]: turns braces and semicolons into indent-tagged [TokenLine]s
//   - [BuildScopes]: partitions the lines into an arena [Tree] of [Scope]s
//   - [Transpiler]: walks the tree and rewrites every line through the
//     construct handlers
//   - [Assemble]: joins the fragments, wraps them in the runtime preamble and
//     produces the parallel line map
//
// [Compiler] wires the stages together. All stages share one immutable
// [Tables] value.
package helix
