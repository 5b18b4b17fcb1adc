package mapping

import (
	"math"
	"reflect"
	"strings"
	"testing"
	"time"

	"github.com/goccy/go-json"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/escrud/escrud.go/pkg/constants"
	"github.com/escrud/escrud.go/pkg/docwriter"
)

type Parent struct {
	ID    int64
	Name  string
	Child *Child
}

type Child struct {
	ID     int64
	Desc   string
	Parent *Parent
}

type Team struct {
	ID      int
	Members []*Member
}

type Member struct {
	Name string
	Team *Team
}

type CycleA struct {
	Name string
	B    *CycleB
}

type CycleB struct {
	Name string
	C    *CycleC
}

type CycleC struct {
	Name string
	A    *CycleA
	As   []*CycleA
}

type Bag struct {
	ID    int
	Tags  []string
	Items []Item
	Empty []Item
	Attrs map[string]string
	Named map[string]int
}

type Item struct {
	Label string
}

type Level int

const (
	LevelLow Level = iota + 1
	LevelHigh
)

type Scalars struct {
	ID      int64
	Name    string
	Price   float64
	Active  bool
	Count   uint16
	Level   Level
	Ratio   *float64
	Created time.Time
	Raw     []byte
}

type NestedCollectionTest struct {
	ID       int64
	Name     string
	Children []NestedChild
}

type NestedChild struct {
	ID   int64
	Desc string
}

type Node struct {
	Value int
	Next  *Node
}

type Pair struct {
	Left  *Item
	Right *Item
}

type Base struct {
	ID      int64
	Created time.Time
}

type Post struct {
	Base
	Title  string
	ID     string `json:"id"`
	Secret string `json:"-"`
	hidden string
	Notify chan int
}

type Envelope struct {
	Payload any
	Nothing any
	Items   []any
}

type Grid struct {
	Cells [2]Item
	Nums  [3]int
}

type Album struct {
	ID     int
	Tracks map[string]*Track
	Covers map[string]Item
}

type Track struct {
	Title string
	Album *Album
}

func writeJSON(t *testing.T, s Strategy, entity any) string {
	t.Helper()
	w := docwriter.NewJSONWriter()
	require.NoError(t, s.WriteEntity(w, entity, Guard{}))
	out, err := w.Bytes()
	require.NoError(t, err)
	return string(out)
}

func TestCyclePruningAsymmetry(t *testing.T) {
	p := &Parent{ID: 1, Name: "p"}
	p.Child = &Child{ID: 2, Desc: "c", Parent: p}

	s := NewDefaultStrategy()
	assert.Equal(t, `{"id":1,"name":"p","child":{"id":2,"desc":"c"}}`, writeJSON(t, s, p))

	// from the other end the parent is nested and the child is pruned
	assert.Equal(t, `{"id":2,"desc":"c","parent":{"id":1,"name":"p"}}`, writeJSON(t, s, p.Child))
}

func TestTerminationOnCycles(t *testing.T) {
	team := &Team{ID: 1}
	team.Members = []*Member{{Name: "a", Team: team}, {Name: "b", Team: team}}

	s := NewDefaultStrategy()
	assert.Equal(t, `{"id":1,"members":[{"name":"a"},{"name":"b"}]}`, writeJSON(t, s, team))

	a := &CycleA{Name: "a"}
	a.B = &CycleB{Name: "b", C: &CycleC{Name: "c", A: a, As: []*CycleA{a, a}}}
	out := writeJSON(t, s, a)
	assert.Equal(t, `{"name":"a","b":{"name":"b","c":{"name":"c"}}}`, out)
	assert.True(t, json.Valid([]byte(out)))

	for _, policy := range []CyclePolicy{CycleByTypeName, CycleByIdentity} {
		out := writeJSON(t, NewDefaultStrategy(WithCyclePolicy(policy)), a)
		assert.True(t, json.Valid([]byte(out)))
	}
}

func TestNullCollectionOmission(t *testing.T) {
	bag := Bag{ID: 3, Items: []Item{}, Named: map[string]int{"x": 1}}
	assert.Equal(t, `{"id":3,"items":[],"named":{"x":1}}`, writeJSON(t, NewDefaultStrategy(), bag))

	bag.Tags = []string{"elasticsearch", "wow"}
	bag.Empty = []Item{{Label: "one"}}
	assert.Equal(t,
		`{"id":3,"tags":["elasticsearch","wow"],"items":[],"empty":[{"label":"one"}],"named":{"x":1}}`,
		writeJSON(t, NewDefaultStrategy(), bag))
}

func TestScalarRoundTrip(t *testing.T) {
	ratio := 0.25
	in := Scalars{
		ID:      42,
		Name:    "A test entity description",
		Price:   19.99,
		Active:  true,
		Count:   7,
		Level:   LevelHigh,
		Ratio:   &ratio,
		Created: time.Date(2024, 5, 6, 7, 8, 9, 0, time.UTC),
		Raw:     []byte("bytes"),
	}

	s := NewDefaultStrategy()
	doc := writeJSON(t, s, in)
	assert.True(t, strings.HasPrefix(doc, `{"id":42,"name":"A test entity description","price":19.99,"active":true,"count":7,"level":2,"ratio":0.25,`))

	out, err := s.ParseEntity([]byte(doc), reflect.TypeOf(Scalars{}))
	require.NoError(t, err)
	assert.Equal(t, &in, out)
}

func TestOneLevelNestingRoundTrip(t *testing.T) {
	in := &NestedCollectionTest{
		ID:   7,
		Name: "cool",
		Children: []NestedChild{
			{ID: 1, Desc: "rr"},
			{ID: 3, Desc: "eee"},
		},
	}

	s := NewDefaultStrategy()
	doc := writeJSON(t, s, in)
	assert.Equal(t, `{"id":7,"name":"cool","children":[{"id":1,"desc":"rr"},{"id":3,"desc":"eee"}]}`, doc)

	out, err := s.ParseEntity([]byte(doc), reflect.TypeOf(in))
	require.NoError(t, err)
	assert.Equal(t, in, out)
}

func TestParseEntityDeserializationError(t *testing.T) {
	raw := []byte(`{"id":"not a number","name":"cool"}`)
	_, err := NewDefaultStrategy().ParseEntity(raw, reflect.TypeOf(NestedCollectionTest{}))
	require.Error(t, err)
	assert.ErrorIs(t, err, constants.ErrDeserialization)

	var de *constants.DeserializationError
	require.ErrorAs(t, err, &de)
	assert.Equal(t, string(raw), de.Fragment)
	assert.Contains(t, de.Target, "NestedCollectionTest")

	long := []byte(`{"id":"` + strings.Repeat("x", 400) + `"}`)
	_, err = NewDefaultStrategy().ParseEntity(long, reflect.TypeOf(NestedCollectionTest{}))
	require.ErrorAs(t, err, &de)
	assert.True(t, strings.HasSuffix(de.Fragment, "..."))
}

func TestLinkedListPolicies(t *testing.T) {
	list := &Node{Value: 1, Next: &Node{Value: 2, Next: &Node{Value: 3}}}

	assert.Equal(t, `{"value":1}`, writeJSON(t, NewDefaultStrategy(), list))

	identity := NewDefaultStrategy(WithCyclePolicy(CycleByIdentity))
	assert.Equal(t, `{"value":1,"next":{"value":2,"next":{"value":3}}}`, writeJSON(t, identity, list))

	list.Next.Next.Next = list
	assert.Equal(t, `{"value":1,"next":{"value":2,"next":{"value":3}}}`, writeJSON(t, identity, list))

	team := &Team{ID: 1}
	team.Members = []*Member{{Name: "a", Team: team}}
	assert.Equal(t, `{"id":1,"members":[{"name":"a"}]}`, writeJSON(t, identity, team))

	other := &Team{ID: 2}
	team.Members[0].Team = other
	assert.Equal(t, `{"id":1,"members":[{"name":"a","team":{"id":2}}]}`, writeJSON(t, identity, team))
}

func TestSiblingsOfSameTypeAreBothWritten(t *testing.T) {
	p := Pair{Left: &Item{Label: "l"}, Right: &Item{Label: "r"}}
	assert.Equal(t, `{"left":{"label":"l"},"right":{"label":"r"}}`, writeJSON(t, NewDefaultStrategy(), p))

	p.Right = nil
	assert.Equal(t, `{"left":{"label":"l"}}`, writeJSON(t, NewDefaultStrategy(), p))
}

func TestEmbeddedTagsAndSkippedFields(t *testing.T) {
	post := Post{
		Base:   Base{ID: 9, Created: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)},
		Title:  "hello",
		ID:     "post-1",
		Secret: "s",
		hidden: "h",
	}
	assert.JSONEq(t, `{"created":"2024-01-01T00:00:00Z","title":"hello","id":"post-1"}`, writeJSON(t, NewDefaultStrategy(), post))
}

func TestDynamicFields(t *testing.T) {
	env := Envelope{
		Payload: Item{Label: "inner"},
		Items:   []any{1, "two", &Item{Label: "three"}, nil, []string{"x"}},
	}
	assert.Equal(t,
		`{"payload":{"label":"inner"},"items":[1,"two",{"label":"three"},null,["x"]]}`,
		writeJSON(t, NewDefaultStrategy(), env))

	env = Envelope{Payload: 12.5}
	assert.Equal(t, `{"payload":12.5}`, writeJSON(t, NewDefaultStrategy(), env))
}

func TestDynamicElementsOnThePathAreSkipped(t *testing.T) {
	type Holder struct {
		Name   string
		Things []any
	}
	h := &Holder{Name: "h"}
	h.Things = []any{&Item{Label: "i"}, h}
	assert.Equal(t, `{"name":"h","things":[{"label":"i"}]}`, writeJSON(t, NewDefaultStrategy(), h))
}

func TestFixedArrays(t *testing.T) {
	g := Grid{Cells: [2]Item{{Label: "a"}, {Label: "b"}}, Nums: [3]int{1, 2, 3}}
	assert.Equal(t, `{"cells":[{"label":"a"},{"label":"b"}],"nums":[1,2,3]}`, writeJSON(t, NewDefaultStrategy(), g))
}

func TestWriteEntityErrors(t *testing.T) {
	s := NewDefaultStrategy()
	w := docwriter.NewJSONWriter()

	assert.ErrorIs(t, s.WriteEntity(w, nil, Guard{}), constants.ErrNilEntity)
	assert.ErrorIs(t, s.WriteEntity(w, (*Parent)(nil), Guard{}), constants.ErrNilEntity)
	assert.Error(t, s.WriteEntity(w, 12, Guard{}))

	err := s.WriteEntity(docwriter.NewJSONWriter(), Scalars{Price: math.NaN()}, Guard{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "price")
}

func TestWriteEntityContinuesGivenGuard(t *testing.T) {
	p := &Parent{ID: 1, Name: "p"}
	p.Child = &Child{ID: 2, Desc: "c", Parent: p}

	// a caller that already opened "parent" and "child"
	g := NewGuard("parent", "child")
	w := docwriter.NewJSONWriter()
	require.NoError(t, NewDefaultStrategy().WriteEntity(w, p.Child, g))
	out, err := w.Bytes()
	require.NoError(t, err)
	assert.Equal(t, `{"id":2,"desc":"c"}`, string(out))
}

func TestTreeWriterOutput(t *testing.T) {
	p := &Parent{ID: 1, Name: "p", Child: &Child{ID: 2, Desc: "c"}}
	w := docwriter.NewTreeWriter()
	require.NoError(t, NewDefaultStrategy().WriteEntity(w, p, Guard{}))

	tree, err := w.Tree()
	require.NoError(t, err)
	assert.Equal(t, map[string]any{
		"id":    int64(1),
		"name":  "p",
		"child": map[string]any{"id": int64(2), "desc": "c"},
	}, tree)
}

func TestSchemaClassification(t *testing.T) {
	schema := NewDefaultStrategy().Schema(reflect.TypeOf(&Bag{}))
	require.Len(t, schema.Fields, 6)

	classes := map[string]Classification{}
	for _, f := range schema.Fields {
		classes[f.Name] = f.Class
	}
	assert.Equal(t, map[string]Classification{
		"id":    Scalar,
		"tags":  NestedCollection,
		"items": NestedCollection,
		"empty": NestedCollection,
		"attrs": NestedCollection,
		"named": NestedCollection,
	}, classes)

	schema = NewDefaultStrategy().Schema(reflect.TypeOf(Parent{}))
	assert.Equal(t, NestedSingleObject, schema.Fields[2].Class)
	assert.Equal(t, reflect.TypeOf(Child{}), schema.Fields[2].Elem)

	schema = NewDefaultStrategy().Schema(reflect.TypeOf(Grid{}))
	assert.Equal(t, NestedArray, schema.Fields[0].Class)

	schema = NewDefaultStrategy().Schema(reflect.TypeOf(Envelope{}))
	assert.Equal(t, Dynamic, schema.Fields[0].Class)
	assert.Equal(t, "skipped back reference", SkippedBackReference.String())
}

func TestSchemaIsMemoized(t *testing.T) {
	s := NewDefaultStrategy()
	assert.Same(t, s.Schema(reflect.TypeOf(Parent{})), s.Schema(reflect.TypeOf(&Parent{})))
}

func TestMapOfObjectsIsWalked(t *testing.T) {
	album := &Album{ID: 1, Covers: map[string]Item{"front": {Label: "x"}}}
	album.Tracks = map[string]*Track{
		"b": {Title: "Two", Album: album},
		"a": {Title: "One", Album: album},
		"c": nil,
	}

	want := `{"id":1,"tracks":{"a":{"title":"One"},"b":{"title":"Two"},"c":null},"covers":{"front":{"label":"x"}}}`
	for _, policy := range []CyclePolicy{CycleByTypeName, CycleByIdentity} {
		assert.Equal(t, want, writeJSON(t, NewDefaultStrategy(WithCyclePolicy(policy)), album))
	}

	schema := NewDefaultStrategy().Schema(reflect.TypeOf(Album{}))
	assert.Equal(t, NestedCollection, schema.Fields[1].Class)
	assert.Equal(t, reflect.TypeOf(Track{}), schema.Fields[1].Elem)

	album.Tracks = map[string]*Track{}
	album.Covers = nil
	assert.Equal(t, `{"id":1,"tracks":{}}`, writeJSON(t, NewDefaultStrategy(), album))
}

func TestMapOfObjectsPrunedAsBackReference(t *testing.T) {
	type Shelf struct {
		Name   string
		Albums map[string]*Album
	}
	track := &Track{Title: "One"}
	track.Album = &Album{ID: 2, Tracks: map[string]*Track{"one": track}}

	// the album's tracks are already open on the path
	assert.Equal(t, `{"title":"One","album":{"id":2}}`, writeJSON(t, NewDefaultStrategy(), track))

	shelf := Shelf{Name: "s", Albums: map[string]*Album{"x": {ID: 3}}}
	assert.Equal(t, `{"name":"s","albums":{"x":{"id":3}}}`, writeJSON(t, NewDefaultStrategy(), shelf))
}
