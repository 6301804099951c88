// Package xlatest holds the building blocks to write numeric tests of XLA-like computations:
//
//   - xlabuilder: builds computations (XlaComputation) and defines shapes, layouts and literals.
//   - pjrt: the execution runtime, with plugins selected by name. pjrt/interpreter is the reference plugin.
//   - client: a client over a pjrt plugin, with device resident data (GlobalData) and ExecutionOptions.
//   - literaltest: exact and approximate (ErrorSpec) comparison of literals.
//   - clienttest: the test harness, which executes computations and compares their results, optionally for
//     every output layout or every combination of input layouts.
//
// Set XLA_FLAGS (e.g. "--xla_test_all_output_layouts --xla_disable_hlo_passes=dce") to configure the harness,
// and XLATEST_PLATFORM to select the default plugin.
package xlatest
