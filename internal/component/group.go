package component

import (
	"reflect"
	"strings"

	"github.com/fwforge/fwsched/internal/storage"
)

// Fixed-size groupings bundle several parameters into one logical parameter,
// letting a callable exceed the direct-argument limit. Members register in
// declared order — declaration order therefore decides which member of a
// conflicting pair gets blamed — and validation short-circuits on the first
// unavailable member, reporting that member's kind.

// Group2 is the item produced by UseGroup2.
type Group2[A, B any] struct {
	A A
	B B
}

// Group3 is the item produced by UseGroup3.
type Group3[A, B, C any] struct {
	A A
	B B
	C C
}

// Group4 is the item produced by UseGroup4.
type Group4[A, B, C, D any] struct {
	A A
	B B
	C C
	D D
}

// Group5 is the item produced by UseGroup5.
type Group5[A, B, C, D, E any] struct {
	A A
	B B
	C C
	D D
	E E
}

// UseGroup2 bundles two parameters into one.
func UseGroup2[A, B any](a TypedParam[A], b TypedParam[B]) TypedParam[Group2[A, B]] {
	return &group2Param[A, B]{a: a, b: b}
}

// UseGroup3 bundles three parameters into one.
func UseGroup3[A, B, C any](a TypedParam[A], b TypedParam[B], c TypedParam[C]) TypedParam[Group3[A, B, C]] {
	return &group3Param[A, B, C]{a: a, b: b, c: c}
}

// UseGroup4 bundles four parameters into one.
func UseGroup4[A, B, C, D any](a TypedParam[A], b TypedParam[B], c TypedParam[C], d TypedParam[D]) TypedParam[Group4[A, B, C, D]] {
	return &group4Param[A, B, C, D]{a: a, b: b, c: c, d: d}
}

// UseGroup5 bundles five parameters into one.
func UseGroup5[A, B, C, D, E any](a TypedParam[A], b TypedParam[B], c TypedParam[C], d TypedParam[D], e TypedParam[E]) TypedParam[Group5[A, B, C, D, E]] {
	return &group5Param[A, B, C, D, E]{a: a, b: b, c: c, d: d, e: e}
}

type group2Param[A, B any] struct {
	a TypedParam[A]
	b TypedParam[B]
}

func (g *group2Param[A, B]) register(s *storage.Storage, m *Metadata) {
	registerAll(s, m, g.a, g.b)
}

func (g *group2Param[A, B]) tryValidate(s *storage.Storage) error {
	return validateAll(s, g.a, g.b)
}

func (g *group2Param[A, B]) item(s *storage.Storage) reflect.Value {
	return reflect.ValueOf(g.typedItem(s))
}

func (g *group2Param[A, B]) typedItem(s *storage.Storage) Group2[A, B] {
	return Group2[A, B]{A: g.a.typedItem(s), B: g.b.typedItem(s)}
}

func (g *group2Param[A, B]) release(s *storage.Storage) {
	releaseAll(s, g.a, g.b)
}

func (g *group2Param[A, B]) itemType() reflect.Type {
	return reflect.TypeOf((*Group2[A, B])(nil)).Elem()
}

func (g *group2Param[A, B]) kind() string {
	return groupKind(g.a, g.b)
}

type group3Param[A, B, C any] struct {
	a TypedParam[A]
	b TypedParam[B]
	c TypedParam[C]
}

func (g *group3Param[A, B, C]) register(s *storage.Storage, m *Metadata) {
	registerAll(s, m, g.a, g.b, g.c)
}

func (g *group3Param[A, B, C]) tryValidate(s *storage.Storage) error {
	return validateAll(s, g.a, g.b, g.c)
}

func (g *group3Param[A, B, C]) item(s *storage.Storage) reflect.Value {
	return reflect.ValueOf(g.typedItem(s))
}

func (g *group3Param[A, B, C]) typedItem(s *storage.Storage) Group3[A, B, C] {
	return Group3[A, B, C]{A: g.a.typedItem(s), B: g.b.typedItem(s), C: g.c.typedItem(s)}
}

func (g *group3Param[A, B, C]) release(s *storage.Storage) {
	releaseAll(s, g.a, g.b, g.c)
}

func (g *group3Param[A, B, C]) itemType() reflect.Type {
	return reflect.TypeOf((*Group3[A, B, C])(nil)).Elem()
}

func (g *group3Param[A, B, C]) kind() string {
	return groupKind(g.a, g.b, g.c)
}

type group4Param[A, B, C, D any] struct {
	a TypedParam[A]
	b TypedParam[B]
	c TypedParam[C]
	d TypedParam[D]
}

func (g *group4Param[A, B, C, D]) register(s *storage.Storage, m *Metadata) {
	registerAll(s, m, g.a, g.b, g.c, g.d)
}

func (g *group4Param[A, B, C, D]) tryValidate(s *storage.Storage) error {
	return validateAll(s, g.a, g.b, g.c, g.d)
}

func (g *group4Param[A, B, C, D]) item(s *storage.Storage) reflect.Value {
	return reflect.ValueOf(g.typedItem(s))
}

func (g *group4Param[A, B, C, D]) typedItem(s *storage.Storage) Group4[A, B, C, D] {
	return Group4[A, B, C, D]{
		A: g.a.typedItem(s), B: g.b.typedItem(s),
		C: g.c.typedItem(s), D: g.d.typedItem(s),
	}
}

func (g *group4Param[A, B, C, D]) release(s *storage.Storage) {
	releaseAll(s, g.a, g.b, g.c, g.d)
}

func (g *group4Param[A, B, C, D]) itemType() reflect.Type {
	return reflect.TypeOf((*Group4[A, B, C, D])(nil)).Elem()
}

func (g *group4Param[A, B, C, D]) kind() string {
	return groupKind(g.a, g.b, g.c, g.d)
}

type group5Param[A, B, C, D, E any] struct {
	a TypedParam[A]
	b TypedParam[B]
	c TypedParam[C]
	d TypedParam[D]
	e TypedParam[E]
}

func (g *group5Param[A, B, C, D, E]) register(s *storage.Storage, m *Metadata) {
	registerAll(s, m, g.a, g.b, g.c, g.d, g.e)
}

func (g *group5Param[A, B, C, D, E]) tryValidate(s *storage.Storage) error {
	return validateAll(s, g.a, g.b, g.c, g.d, g.e)
}

func (g *group5Param[A, B, C, D, E]) item(s *storage.Storage) reflect.Value {
	return reflect.ValueOf(g.typedItem(s))
}

func (g *group5Param[A, B, C, D, E]) typedItem(s *storage.Storage) Group5[A, B, C, D, E] {
	return Group5[A, B, C, D, E]{
		A: g.a.typedItem(s), B: g.b.typedItem(s), C: g.c.typedItem(s),
		D: g.d.typedItem(s), E: g.e.typedItem(s),
	}
}

func (g *group5Param[A, B, C, D, E]) release(s *storage.Storage) {
	releaseAll(s, g.a, g.b, g.c, g.d, g.e)
}

func (g *group5Param[A, B, C, D, E]) itemType() reflect.Type {
	return reflect.TypeOf((*Group5[A, B, C, D, E])(nil)).Elem()
}

func (g *group5Param[A, B, C, D, E]) kind() string {
	return groupKind(g.a, g.b, g.c, g.d, g.e)
}

func registerAll(s *storage.Storage, m *Metadata, members ...Param) {
	for _, p := range members {
		p.register(s, m)
	}
}

// validateAll short-circuits on the first unavailable member so diagnostics
// blame that member's kind, not the group.
func validateAll(s *storage.Storage, members ...Param) error {
	for _, p := range members {
		if err := p.tryValidate(s); err != nil {
			return err
		}
	}
	return nil
}

// releaseAll drops member borrows in reverse declaration order.
func releaseAll(s *storage.Storage, members ...Param) {
	for i := len(members) - 1; i >= 0; i-- {
		members[i].release(s)
	}
}

func groupKind(members ...Param) string {
	kinds := make([]string, len(members))
	for i, p := range members {
		kinds[i] = p.kind()
	}
	return "(" + strings.Join(kinds, ", ") + ")"
}
