// Package node defines the overlay participant type and the age-based
// policies (adulthood, drop probability) that drive section membership.
package node

import "cmp"

// Name identifies a node within the 64-bit overlay name space.
type Name = uint64

// Age is a node's age. It is set when the node is created and grows by one
// on each relocation; it does not change from tick to tick.
type Age = uint64

// Node is an overlay participant.
type Node struct {
	Name  Name
	Age   Age
	Elder bool
}

// New creates a freshly-joined Node at the given age, not yet an elder.
func New(name Name, age Age) Node {
	return Node{Name: name, Age: age}
}

// IsAdult reports whether n has reached adultAge.
func (n Node) IsAdult(adultAge Age) bool {
	return n.Age >= adultAge
}

// IsInfant reports whether n has not yet reached adultAge.
func (n Node) IsInfant(adultAge Age) bool {
	return !n.IsAdult(adultAge)
}

// Relocated returns a copy of n under a new name and with its age
// incremented by one, as produced by a successful relocation (spec.md §4.2,
// handle_relocate_accept).
func (n Node) Relocated(newName Name) Node {
	return Node{Name: newName, Age: n.Age + 1}
}

// DropProbability computes the probability that a node of a given age is
// proposed as a random Dead candidate on a tick. The concrete curve is an
// external policy (spec.md §3): callers plug in whichever curve they like as
// long as it is monotonically decreasing in age. DropProbabilityFunc adapts
// an ordinary function to this interface, mirroring the
// ClientIPResolver/ClientIPResolverFunc adapter pattern.
type DropProbability interface {
	Probability(age Age) float64
}

// DropProbabilityFunc is an adapter allowing ordinary functions to be used
// as a DropProbability.
type DropProbabilityFunc func(age Age) float64

// Probability calls f(age).
func (f DropProbabilityFunc) Probability(age Age) float64 {
	return f(age)
}

// DefaultDropProbability is a reasonable default curve: 1/(age+1), which is
// monotonically decreasing and keeps very young nodes comparatively likely
// to drop while elders become increasingly stable.
var DefaultDropProbability DropProbability = DropProbabilityFunc(func(age Age) float64 {
	return 1 / float64(age+1)
})

// CompareByAgeThenName orders two nodes by the elder-selection sort key from
// spec.md §4.4: age descending, ties broken by name descending. Sorting a
// slice of nodes with this comparator and taking the first groupSize yields
// the elder set.
func CompareByAgeThenName(a, b Node) int {
	if c := cmp.Compare(b.Age, a.Age); c != 0 {
		return c
	}
	return cmp.Compare(b.Name, a.Name)
}

// CountMatchingAdults counts how many of nodes are adults whose Name falls
// under the given matcher. Used by try_split (spec.md §4.5) to compare the
// two candidate child prefixes.
func CountMatchingAdults(adultAge Age, matches func(Name) bool, nodes []Node) int {
	count := 0
	for _, n := range nodes {
		if n.IsAdult(adultAge) && matches(n.Name) {
			count++
		}
	}
	return count
}

// CountAdults counts the adults among nodes.
func CountAdults(adultAge Age, nodes []Node) int {
	count := 0
	for _, n := range nodes {
		if n.IsAdult(adultAge) {
			count++
		}
	}
	return count
}

// CountInfants counts the infants among nodes.
func CountInfants(adultAge Age, nodes []Node) int {
	count := 0
	for _, n := range nodes {
		if n.IsInfant(adultAge) {
			count++
		}
	}
	return count
}

// Promote marks n as an elder.
func (n Node) Promote() Node {
	n.Elder = true
	return n
}

// Demote clears n's elder flag.
func (n Node) Demote() Node {
	n.Elder = false
	return n
}
