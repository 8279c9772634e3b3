// Package world owns bodies and joints and advances them one fixed step at a
// time: forces, narrow phase, solver, pose integration. A World is not safe
// for concurrent use; independent worlds may step in parallel with StepAll.
package world
