// Copyright 2025 James Ross
package scheduler

// Invariants this package must uphold, restated literally from the design
// this module implements:
//
//   - Single-runner: for any Record, at most one of (worker running plugin
//     code) and (driver driving that plugin) is actively progressing at any
//     instant. The mutex+cv protocol enforces this as a strict baton pass.
//   - Parked-state exclusivity: when a worker is parked, exactly one of
//     "parked at vsync" or "parked at main-loop boundary" is true — never
//     both, never neither, at the moment the driver observes it.
//   - Key-set authority: a Record stays alive until its worker has observed
//     the stop request and exited. inKeySet is consulted only at a
//     main-loop boundary, never mid-pass.
//   - Boundary-only teardown: on_close, library unload, and record removal
//     happen only when the worker last parked at a main-loop boundary,
//     never at a vsync boundary.
//   - ABI version equality: enforced by internal/pluginmanager before a
//     Record is ever constructed; this package assumes it has already held.
