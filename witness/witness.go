// Package witness finds and caches separating planes between pairs of convex
// bodies.
//
// A witness belongs to one unordered pair of bodies and remembers the feature
// whose plane last separated them. The next search starts from that feature,
// so a pair that stays apart costs a single plane test per step.
package witness

import (
	"fmt"
	"math"

	"github.com/danepowell/openhaptics-sub000/actor"
	"github.com/go-gl/mathgl/mgl64"
)

// parallelTolerance bounds |eA × eB| relative to |eA|·|eB| below which two
// edges count as parallel.
const parallelTolerance = 1e-9

// State classifies a pair from the signed distance of its best plane.
type State int

const (
	Unknown State = iota
	Separation
	Contact
	Penetration
)

func (s State) String() string {
	switch s {
	case Unknown:
		return "unknown"
	case Separation:
		return "separation"
	case Contact:
		return "contact"
	case Penetration:
		return "penetration"
	}
	return fmt.Sprintf("State(%d)", int(s))
}

// Classify maps a signed distance to a State:
// d > thr is Separation, -thr < d <= thr is Contact, d <= -thr is Penetration.
func Classify(distance, threshold float64) State {
	switch {
	case distance > threshold:
		return Separation
	case distance > -threshold:
		return Contact
	default:
		return Penetration
	}
}

// FeatureKind tells which construction produced a plane.
type FeatureKind int

const (
	FeatureNone FeatureKind = iota
	// FeatureFace is a face of the primary body
	FeatureFace
	// FeatureEdges contains an edge direction of the primary and is parallel
	// to an edge of the secondary
	FeatureEdges
)

func (k FeatureKind) String() string {
	switch k {
	case FeatureNone:
		return "none"
	case FeatureFace:
		return "face"
	case FeatureEdges:
		return "edges"
	}
	return fmt.Sprintf("FeatureKind(%d)", int(k))
}

// Feature identifies a plane by the body features it is built from.
type Feature struct {
	Kind FeatureKind
	Face int
	// EdgeA indexes the primary's edges, EdgeB the secondary's
	EdgeA, EdgeB int
}

// PairKey is an unordered pair of body handles.
type PairKey struct {
	Lo, Hi int
}

// NewPairKey orders a and b.
func NewPairKey(a, b int) PairKey {
	if a > b {
		a, b = b, a
	}
	return PairKey{Lo: a, Hi: b}
}

// Witness is the cached separating plane of one body pair.
//
// The plane belongs to Primary; Secondary is the body whose vertices are
// measured against it.
type Witness struct {
	A, B int

	Primary   int
	Secondary int
	Feature   Feature
	Distance  float64
	State     State
}

// New returns an empty witness for the pair (a, b).
func New(a, b int) *Witness {
	return &Witness{
		A:         a,
		B:         b,
		Primary:   a,
		Secondary: b,
		Distance:  math.Inf(-1),
		State:     Unknown,
	}
}

// Key returns the unordered handle pair of the witness.
func (w *Witness) Key() PairKey {
	return NewPairKey(w.A, w.B)
}

// Valid reports whether the witness holds a plane.
func (w *Witness) Valid() bool {
	return w.Feature.Kind != FeatureNone
}

// Invalidate drops the cached plane. The next CheckSeparation runs a full
// search.
func (w *Witness) Invalidate() {
	w.Primary, w.Secondary = w.A, w.B
	w.Feature = Feature{}
	w.Distance = math.Inf(-1)
	w.State = Unknown
}

// Skipped reports whether the pair is never tested: two immovable bodies
// cannot come into contact.
func (w *Witness) Skipped(bodies []*actor.RigidBody) bool {
	return bodies[w.A].IsStatic() && bodies[w.B].IsStatic()
}

// CheckSeparation updates the witness for the current world-space geometry
// and returns the resulting state.
//
// The cached plane is tested first and kept when it still separates by more
// than threshold. Otherwise ImproveSeparation runs.
func (w *Witness) CheckSeparation(bodies []*actor.RigidBody, threshold float64) State {
	if w.Skipped(bodies) {
		w.State = Unknown
		return w.State
	}

	if c, ok := w.cached(bodies, threshold); ok && c.distance > threshold {
		w.accept(c, threshold)
		return w.State
	}
	return w.ImproveSeparation(bodies, threshold)
}

// ImproveSeparation runs the full search with the cached plane, if any, as
// the candidate to beat.
func (w *Witness) ImproveSeparation(bodies []*actor.RigidBody, threshold float64) State {
	if w.Skipped(bodies) {
		w.State = Unknown
		return w.State
	}

	if c, ok := w.cached(bodies, threshold); ok {
		return w.search(bodies, threshold, &c)
	}
	return w.search(bodies, threshold, nil)
}

// cached scores the cached feature in current world coordinates. A face
// plane of a body measured against a wall is never reused.
func (w *Witness) cached(bodies []*actor.RigidBody, threshold float64) (candidate, bool) {
	if !w.Valid() {
		return candidate{}, false
	}
	primary, secondary := bodies[w.Primary], bodies[w.Secondary]
	if secondary.IsWall() {
		return candidate{}, false
	}
	plane, ok := featurePlane(primary, secondary, w.Feature)
	if !ok {
		return candidate{}, false
	}
	return newCandidate(bodies, w.Primary, w.Secondary, w.Feature, plane, threshold), true
}

// Establish runs the full search, ignoring any cached plane.
func (w *Witness) Establish(bodies []*actor.RigidBody, threshold float64) State {
	if w.Skipped(bodies) {
		w.State = Unknown
		return w.State
	}
	return w.search(bodies, threshold, nil)
}

// Plane returns the world-space plane of the cached feature.
func (w *Witness) Plane(bodies []*actor.RigidBody) (actor.Plane, bool) {
	if !w.Valid() {
		return actor.Plane{}, false
	}
	return featurePlane(bodies[w.Primary], bodies[w.Secondary], w.Feature)
}

type candidate struct {
	primary, secondary int
	feature            Feature
	distance           float64
	// supported is set for a face plane when the secondary vertices within
	// threshold of it average to a point inside the face
	supported bool
}

func newCandidate(bodies []*actor.RigidBody, primary, secondary int, f Feature, plane actor.Plane, threshold float64) candidate {
	p, s := bodies[primary], bodies[secondary]
	c := candidate{
		primary:   primary,
		secondary: secondary,
		feature:   f,
		distance:  p.DistPlanePoly(plane, s),
	}
	if f.Kind == FeatureFace && c.distance <= threshold {
		c.supported = faceSupports(p, f.Face, plane, s, threshold)
	}
	return c
}

// score ranks candidates that do not separate. A supported face gains
// threshold, so it wins over planes that are at most that much better.
func (c candidate) score(threshold float64) float64 {
	if c.supported {
		return c.distance + threshold
	}
	return c.distance
}

// faceSupports reports whether the vertices of other within threshold of
// the plane of face i average to a point over that face. That point is
// where a contact on this plane would be placed.
func faceSupports(rb *actor.RigidBody, face int, plane actor.Plane, other *actor.RigidBody, threshold float64) bool {
	var sum mgl64.Vec3
	count := 0
	for _, v := range other.WorldVertices {
		if plane.Distance(v) <= threshold {
			sum = sum.Add(v)
			count++
		}
	}
	if count == 0 {
		return false
	}
	return rb.FaceContains(face, sum.Mul(1/float64(count)), threshold)
}

// search tries, in order: the seed, every face of A against B, every face of
// B against A, then edge pairs. It stops at the first candidate separating by
// more than threshold and otherwise keeps the best one.
//
// A wall is only ever the primary of its pair: faces of the other body are
// not tested against its corners.
func (w *Witness) search(bodies []*actor.RigidBody, threshold float64, seed *candidate) State {
	a, b := bodies[w.A], bodies[w.B]

	var best candidate
	found := false
	consider := func(c candidate) bool {
		if c.distance > threshold {
			w.accept(c, threshold)
			return true
		}
		if !found || isBetterSeparation(c.score(threshold), best.score(threshold)) {
			best, found = c, true
		}
		return false
	}

	if seed != nil && consider(*seed) {
		return w.State
	}

	if !b.IsWall() {
		for i := range a.Faces {
			f := Feature{Kind: FeatureFace, Face: i}
			if consider(newCandidate(bodies, w.A, w.B, f, a.FacePlane(i), threshold)) {
				return w.State
			}
		}
	}

	if !a.IsWall() {
		for i := range b.Faces {
			f := Feature{Kind: FeatureFace, Face: i}
			if consider(newCandidate(bodies, w.B, w.A, f, b.FacePlane(i), threshold)) {
				return w.State
			}
		}
	}

	if !a.NoEdgeCollisions() && !b.NoEdgeCollisions() {
		for _, ea := range a.NonParallelEdges {
			for _, eb := range b.NonParallelEdges {
				plane, ok := EdgePlane(a, b, ea, eb)
				if !ok {
					continue
				}
				f := Feature{Kind: FeatureEdges, EdgeA: ea, EdgeB: eb}
				if consider(newCandidate(bodies, w.A, w.B, f, plane, threshold)) {
					return w.State
				}
			}
		}
	}

	if !found {
		w.Invalidate()
		w.State = Penetration
		return w.State
	}

	w.accept(best, threshold)
	return w.State
}

func (w *Witness) accept(c candidate, threshold float64) {
	w.Primary = c.primary
	w.Secondary = c.secondary
	w.Feature = c.feature
	w.Distance = c.distance
	w.State = Classify(c.distance, threshold)
}

// isBetterSeparation compares candidate scores. It is strict so the first
// candidate found stays the baseline on ties.
func isBetterSeparation(distance, best float64) bool {
	return distance > best
}

func featurePlane(primary, secondary *actor.RigidBody, f Feature) (actor.Plane, bool) {
	switch f.Kind {
	case FeatureFace:
		if f.Face < 0 || f.Face >= len(primary.Faces) {
			return actor.Plane{}, false
		}
		return primary.FacePlane(f.Face), true
	case FeatureEdges:
		if f.EdgeA < 0 || f.EdgeA >= len(primary.Edges) || f.EdgeB < 0 || f.EdgeB >= len(secondary.Edges) {
			return actor.Plane{}, false
		}
		return EdgePlane(primary, secondary, f.EdgeA, f.EdgeB)
	}
	return actor.Plane{}, false
}

// EdgePlane builds the plane parallel to edge ea of a and edge eb of b. The
// normal is eA × eB, turned to point from a towards b, and the plane passes
// through the vertex of a furthest along it, so it contains an edge of a
// parallel to ea and no vertex of a lies in front of it.
//
// Parallel edges give no plane.
func EdgePlane(a, b *actor.RigidBody, ea, eb int) (actor.Plane, bool) {
	da := a.EdgeDirection(ea)
	db := b.EdgeDirection(eb)

	n := da.Cross(db)
	if n.Len() <= parallelTolerance*da.Len()*db.Len() {
		return actor.Plane{}, false
	}
	n = n.Normalize()

	if n.Dot(b.X.Sub(a.X)) < 0 {
		n = n.Mul(-1)
	}

	anchor := a.WorldVertices[a.Support(n)]
	return actor.Plane{Point: anchor, Normal: n}, true
}
