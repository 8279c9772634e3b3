// Package dynamics provides rigid bodies and the constraints that act on them.
//
// The package defines:
//
//   - [Body]: mass properties, pose, velocities and force accumulators
//   - [Arena]: generation-checked storage addressed by [ID]
//   - [Constraint]: the two-phase solve contract shared by joints and contacts
//   - [Contact]: a one-sided contact row with pyramid friction
//   - [BallJoint], [DistanceJoint]: persistent joints
//
// Constraints never own bodies. They hold IDs and resolve them through a
// [Host] each step, so removing a body makes its constraints go dormant
// instead of dangling.
package dynamics
