package minimax

import (
	"cmp"
	"fmt"
)

// Marker points at a node below the root through the path of moves leading
// to it. It holds weak references only: once any node on its path is
// released, or the root moves off its path, the marker expires and every
// use of it fails with ErrExpiredMarker.
type Marker[S comparable, C comparable, V cmp.Ordered] struct {
	g    *Graph[S, C, V]
	path []ref
}

// Marker returns a marker pointing at the root.
func (g *Graph[S, C, V]) Marker() *Marker[S, C, V] {
	return &Marker[S, C, V]{g: g, path: []ref{g.arena.ref(g.root)}}
}

// resolve rebases the path onto the current root and returns the node
// indexes along it, root first.
func (m *Marker[S, C, V]) resolve() ([]int32, error) {
	a := &m.g.arena
	root := a.ref(m.g.root)
	start := -1
	for i, r := range m.path {
		if r == root {
			start = i
			break
		}
	}
	if start < 0 {
		return nil, ErrExpiredMarker
	}
	m.path = m.path[start:]
	idxs := make([]int32, len(m.path))
	for i, r := range m.path {
		if !a.alive(r) {
			return nil, ErrExpiredMarker
		}
		idxs[i] = r.idx
	}
	return idxs, nil
}

// Descend moves the marker to the child reached by choice, expanding the
// node it points at when needed.
func (m *Marker[S, C, V]) Descend(choice C) error {
	path, err := m.resolve()
	if err != nil {
		return err
	}
	g := m.g
	at := path[len(path)-1]
	if len(g.arena.at(at).children) == 0 {
		g.expand(at)
	}
	n := g.arena.at(at)
	for i, c := range n.choices {
		if c == choice {
			m.path = append(m.path, g.arena.ref(n.children[i]))
			return nil
		}
	}
	return fmt.Errorf("%w: %v", ErrInvalidChoice, choice)
}

// Expired tells whether the marker can no longer be used.
func (m *Marker[S, C, V]) Expired() bool {
	_, err := m.resolve()
	return err != nil
}

// Depth returns the number of moves between the root and the marked node.
func (m *Marker[S, C, V]) Depth() (int, error) {
	path, err := m.resolve()
	if err != nil {
		return 0, err
	}
	return len(path) - 1, nil
}

// State returns the marked node's state.
func (m *Marker[S, C, V]) State() (S, error) {
	path, err := m.resolve()
	if err != nil {
		var zero S
		return zero, err
	}
	return m.g.arena.at(path[len(path)-1]).state, nil
}

// Score returns the marked node's score and height.
func (m *Marker[S, C, V]) Score() (V, int32, error) {
	path, err := m.resolve()
	if err != nil {
		var zero V
		return zero, Unknown, err
	}
	n := m.g.arena.at(path[len(path)-1])
	return n.score, n.height, nil
}
