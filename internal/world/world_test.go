package world_test

import (
	"context"
	"math"

	"github.com/go-gl/mathgl/mgl64"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/san-kum/motion/internal/dynamics"
	"github.com/san-kum/motion/internal/geom"
	"github.com/san-kum/motion/internal/shape"
	"github.com/san-kum/motion/internal/solver"
	"github.com/san-kum/motion/internal/world"
)

const dt = 1.0 / 60

func sphere(r float64) *shape.Sphere {
	s, err := shape.NewSphere(r)
	Expect(err).NotTo(HaveOccurred())
	return s
}

func ground(w *world.World) dynamics.ID {
	box, err := shape.NewBox(mgl64.Vec3{10, 0.5, 10})
	Expect(err).NotTo(HaveOccurred())
	id, err := w.AddBody(dynamics.BodyDef{
		Name:  "ground",
		Kind:  dynamics.Static,
		Pose:  geom.Translation(mgl64.Vec3{0, -0.5, 0}),
		Shape: box,
	})
	Expect(err).NotTo(HaveOccurred())
	return id
}

func ball(w *world.World, pos, vel mgl64.Vec3) dynamics.ID {
	id, err := w.AddBody(dynamics.BodyDef{
		Kind:           dynamics.Dynamic,
		Mass:           1,
		Shape:          sphere(0.5),
		Pose:           geom.Translation(pos),
		LinearVelocity: vel,
	})
	Expect(err).NotTo(HaveOccurred())
	return id
}

func momentum(w *world.World) mgl64.Vec3 {
	var p mgl64.Vec3
	w.Each(func(b *dynamics.Body) { p = p.Add(b.Momentum()) })
	return p
}

var _ = Describe("World", func() {
	Describe("stepping", func() {
		It("rejects invalid steps before touching state", func() {
			w := world.New()
			id := ball(w, mgl64.Vec3{0, 5, 0}, mgl64.Vec3{})

			for _, h := range []float64{0, -dt, math.NaN(), math.Inf(1)} {
				Expect(w.Step(h)).To(MatchError(world.ErrInvalidStep))
			}
			v, _, _ := w.Velocity(id)
			Expect(v).To(Equal(mgl64.Vec3{}))
			Expect(w.Steps()).To(Equal(0))
			Expect(w.Time()).To(BeZero())
		})

		It("integrates gravity for a free body", func() {
			w := world.New()
			id := ball(w, mgl64.Vec3{0, 5, 0}, mgl64.Vec3{})
			Expect(w.Step(dt)).To(Succeed())

			v, _, ok := w.Velocity(id)
			Expect(ok).To(BeTrue())
			Expect(v[1]).To(BeNumerically("~", -9.81*dt, 1e-12))
			Expect(w.Time()).To(BeNumerically("~", dt, 1e-15))
		})

		It("conserves momentum in a head-on inelastic collision", func() {
			for _, name := range solver.Names() {
				s, err := solver.New(name)
				Expect(err).NotTo(HaveOccurred())
				w := world.New(world.WithGravity(mgl64.Vec3{}), world.WithSolver(s))
				a := ball(w, mgl64.Vec3{0, 0, 0}, mgl64.Vec3{})
				b := ball(w, mgl64.Vec3{0.99, 0, 0}, mgl64.Vec3{-2, 0, 0})

				before := momentum(w)
				Expect(w.Step(dt)).To(Succeed())
				after := momentum(w)

				Expect(after.Sub(before).Len()).To(BeNumerically("<", 1e-4), name)
				va, _, _ := w.Velocity(a)
				vb, _, _ := w.Velocity(b)
				Expect(va[0]).To(BeNumerically("~", vb[0], 1e-4), name)
				Expect(va[0]).To(BeNumerically("~", -1, 1e-4), name)
			}
		})

		It("keeps the resting pose regardless of solver", func() {
			final := map[string]mgl64.Vec3{}
			for _, name := range []string{"impulse", "sequential"} {
				w := world.New()
				Expect(w.SetSolverByName(name)).To(Succeed())
				ground(w)
				id := ball(w, mgl64.Vec3{0, 0.5, 0}, mgl64.Vec3{})
				for i := 0; i < 120; i++ {
					Expect(w.Step(dt)).To(Succeed())
				}
				pose, ok := w.Pose(id)
				Expect(ok).To(BeTrue())
				final[name] = pose.Position
			}
			Expect(final["impulse"].Sub(final["sequential"]).Len()).To(BeNumerically("<", 1e-3))
			Expect(final["sequential"][1]).To(BeNumerically("~", 0.5, 1e-2))
		})

		It("warm starts a persisting contact", func() {
			w := world.New()
			ground(w)
			ball(w, mgl64.Vec3{0, 0.5, 0}, mgl64.Vec3{})
			Expect(w.Step(dt)).To(Succeed())
			Expect(w.Step(dt)).To(Succeed())

			contacts := w.Contacts()
			Expect(contacts).To(HaveLen(1))
			Expect(contacts[0].NormalImpulse()).To(BeNumerically("~", 9.81*dt, 1e-3))
			Expect(w.Residual().Contacts).To(Equal(1))
		})

		It("rejects unknown solver names", func() {
			w := world.New()
			Expect(w.SetSolverByName("jacobi")).To(MatchError(world.ErrUnknownSolver))
			Expect(w.Solver().Name()).To(Equal("sequential"))
		})
	})

	Describe("constraints", func() {
		var (
			w     *world.World
			pivot dynamics.ID
			bob   dynamics.ID
			rod   *dynamics.DistanceJoint
		)

		BeforeEach(func() {
			w = world.New()
			var err error
			pivot, err = w.AddBody(dynamics.BodyDef{Kind: dynamics.Static, Pose: geom.Translation(mgl64.Vec3{0, 2, 0})})
			Expect(err).NotTo(HaveOccurred())
			bob = ball(w, mgl64.Vec3{1, 2, 0}, mgl64.Vec3{})

			p, _ := w.Body(pivot)
			b, _ := w.Body(bob)
			rod = dynamics.NewDistanceJoint(p, b, p.Pose.Position, b.Pose.Position)
			Expect(w.AddConstraint(rod)).To(Succeed())
		})

		It("holds the rod length while swinging", func() {
			for i := 0; i < 60; i++ {
				Expect(w.Step(dt)).To(Succeed())
			}
			pose, _ := w.Pose(bob)
			Expect(pose.Position.Sub(mgl64.Vec3{0, 2, 0}).Len()).To(BeNumerically("~", 1, 2e-2))
			Expect(pose.Position[1]).To(BeNumerically("<", 2))
		})

		It("refuses to connect a constraint twice", func() {
			Expect(w.AddConstraint(rod)).To(MatchError(dynamics.ErrAlreadyConnected))
		})

		It("stops solving a disconnected constraint on the next step", func() {
			rod.Disconnect()
			Expect(w.Step(dt)).To(Succeed())

			Expect(w.Constraints()).To(BeEmpty())
			Expect(w.Satisfied(rod)).To(BeFalse())
			v, _, _ := w.Velocity(bob)
			Expect(v[1]).To(BeNumerically("~", -9.81*dt, 1e-12))
		})

		It("removes a constraint explicitly", func() {
			Expect(w.RemoveConstraint(rod)).To(Succeed())
			Expect(w.RemoveConstraint(rod)).To(MatchError(world.ErrUnknownConstraint))
			Expect(rod.Connected()).To(BeFalse())
		})

		It("disconnects joints when a body is removed", func() {
			Expect(w.RemoveBody(bob)).To(Succeed())
			Expect(rod.Connected()).To(BeFalse())
			Expect(w.Constraints()).To(BeEmpty())
			Expect(w.Step(dt)).To(Succeed())

			_, ok := w.Pose(bob)
			Expect(ok).To(BeFalse())
			Expect(w.RemoveBody(bob)).To(MatchError(dynamics.ErrUnknownBody))
		})

		It("reports the rod satisfied at rest", func() {
			w.SetSolver(solver.NewSequential())
			Expect(w.Step(dt)).To(Succeed())
			Expect(w.Satisfied(rod)).To(BeTrue())
		})
	})

	Describe("bodies", func() {
		It("rejects an empty group", func() {
			w := world.New()
			_, err := w.AddBody(dynamics.BodyDef{Kind: dynamics.Dynamic, Mass: 1, Pose: geom.Identity(), Shape: shape.NewGroup()})
			Expect(err).To(MatchError(shape.ErrEmptyGroup))
			Expect(w.Len()).To(Equal(0))
		})

		It("rejects a massless dynamic body", func() {
			w := world.New()
			_, err := w.AddBody(dynamics.BodyDef{Kind: dynamics.Dynamic, Pose: geom.Identity()})
			Expect(err).To(MatchError(dynamics.ErrZeroMass))
		})

		It("skips collision for bodies whose shape is still loading", func() {
			w := world.New()
			ground(w)
			pending := shape.NewDeferred()
			id, err := w.AddBody(dynamics.BodyDef{
				Kind:     dynamics.Dynamic,
				Mass:     1,
				Pose:     geom.Translation(mgl64.Vec3{0, 0.45, 0}),
				Deferred: pending,
			})
			Expect(err).NotTo(HaveOccurred())

			Expect(w.Step(dt)).To(Succeed())
			Expect(w.Contacts()).To(BeEmpty())

			pending.Resolve(sphere(0.5), nil)
			Expect(w.Step(dt)).To(Succeed())
			Expect(w.Contacts()).To(HaveLen(1))
			_, ok := w.Body(id)
			Expect(ok).To(BeTrue())
		})

		It("applies impulses and forces by id", func() {
			w := world.New(world.WithGravity(mgl64.Vec3{}))
			id := ball(w, mgl64.Vec3{0, 5, 0}, mgl64.Vec3{})
			Expect(w.ApplyImpulse(id, mgl64.Vec3{2, 0, 0}, mgl64.Vec3{0, 5, 0})).To(Succeed())
			Expect(w.ApplyForce(id, mgl64.Vec3{0, 60, 0})).To(Succeed())
			Expect(w.Step(dt)).To(Succeed())

			v, _, _ := w.Velocity(id)
			Expect(v[0]).To(BeNumerically("~", 2, 1e-12))
			Expect(v[1]).To(BeNumerically("~", 1, 1e-12))
			Expect(w.ApplyForce(dynamics.ID{}, mgl64.Vec3{})).To(MatchError(dynamics.ErrUnknownBody))
		})
	})

	Describe("StepAll", func() {
		It("advances independent worlds", func() {
			worlds := make([]*world.World, 4)
			for i := range worlds {
				worlds[i] = world.New()
				ground(worlds[i])
				ball(worlds[i], mgl64.Vec3{0, 1 + float64(i), 0}, mgl64.Vec3{})
			}
			Expect(world.StepAll(context.Background(), worlds, dt, 30)).To(Succeed())
			for _, w := range worlds {
				Expect(w.Steps()).To(Equal(30))
			}
		})

		It("stops between steps when cancelled", func() {
			ctx, cancel := context.WithCancel(context.Background())
			cancel()
			w := world.New()
			Expect(world.StepAll(ctx, []*world.World{w}, dt, 10)).To(MatchError(context.Canceled))
			Expect(w.Steps()).To(Equal(0))
		})

		It("propagates step errors", func() {
			Expect(world.StepAll(context.Background(), []*world.World{world.New()}, 0, 1)).To(MatchError(world.ErrInvalidStep))
		})
	})
})
