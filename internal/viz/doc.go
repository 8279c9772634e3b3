// Package viz draws worlds in the terminal.
//
// The live view is a Bubble Tea program that steps a scene and projects its
// bodies onto a Braille [Canvas]:
//
//	Space - Pause/Resume
//	N     - Single step while paused
//	R     - Rebuild the scene
//	S     - Cycle solver
//	V     - Cycle projection (side, front, top)
//	?     - Show help
//	Q     - Quit
//
// [Plot] renders recorded frames as asciigraph line charts.
package viz
