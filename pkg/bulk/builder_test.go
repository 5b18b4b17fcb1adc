package bulk

import (
	"context"
	"reflect"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/escrud/escrud.go/pkg/constants"
	"github.com/escrud/escrud.go/pkg/mapping"
)

type Skill struct {
	ID          int64
	Name        string
	Description string
}

type Parent struct {
	ID       int64
	Name     string
	Children []*Child
}

type Child struct {
	ID     int64
	Desc   string
	Parent *Parent
}

func TestBuildIndexAndDelete(t *testing.T) {
	b := NewBuilder(mapping.NewRegistry(), nil)
	items := []Item{
		NewIndexItem(&Skill{ID: 11, Name: "go", Description: "A test entity description"}, "11", nil),
		NewDeleteItem(reflect.TypeOf(Skill{}), "11", nil),
	}

	body, err := b.Build(context.Background(), items)
	require.NoError(t, err)
	assert.Equal(t,
		`{"index":{"_index":"skills","_type":"skill","_id":"11"}}`+"\n"+
			`{"id":11,"name":"go","description":"A test entity description"}`+"\n"+
			`{"delete":{"_index":"skills","_type":"skill","_id":"11"}}`+"\n",
		string(body))
}

func TestBuildKeepsSubmissionOrderAndCycles(t *testing.T) {
	p := &Parent{ID: 7, Name: "cool"}
	p.Children = []*Child{{ID: 1, Desc: "rr", Parent: p}, {ID: 3, Desc: "eee", Parent: p}}

	b := NewBuilder(mapping.NewRegistry(), nil)
	body, err := b.Build(context.Background(), []Item{
		NewIndexItem(p, "7", nil),
		NewIndexItem(p.Children[0], "1", &Routing{Parent: "7"}),
	})
	require.NoError(t, err)

	lines := strings.Split(strings.TrimSuffix(string(body), "\n"), "\n")
	require.Len(t, lines, 4)
	assert.Equal(t, `{"index":{"_index":"parents","_type":"parent","_id":"7"}}`, lines[0])
	assert.Equal(t, `{"id":7,"name":"cool","children":[{"id":1,"desc":"rr"},{"id":3,"desc":"eee"}]}`, lines[1])
	assert.Equal(t, `{"index":{"_index":"childs","_type":"child","_id":"1","_parent":"7"}}`, lines[2])
	assert.Equal(t, `{"id":1,"desc":"rr","parent":{"id":7,"name":"cool"}}`, lines[3])
}

func TestBuildRouting(t *testing.T) {
	b := NewBuilder(mapping.NewRegistry(), nil)
	body, err := b.Build(context.Background(), []Item{
		NewDeleteItem(reflect.TypeOf(Child{}), "1", &Routing{Parent: "7", Routing: "shard-a"}),
		NewDeleteItem(reflect.TypeOf(Child{}), "2", &Routing{}),
	})
	require.NoError(t, err)
	assert.Equal(t,
		`{"delete":{"_index":"childs","_type":"child","_id":"1","_parent":"7","_routing":"shard-a"}}`+"\n"+
			`{"delete":{"_index":"childs","_type":"child","_id":"2"}}`+"\n",
		string(body))
}

func TestBuildRejectsInvalidIndexName(t *testing.T) {
	r := mapping.NewRegistry()
	mapping.RegisterFor[Skill](r, mapping.NewDefaultStrategy(mapping.WithNames(mapping.FixedNames{Type: "skill", Index: "Skills"})))

	b := NewBuilder(r, nil)
	body, err := b.Build(context.Background(), []Item{
		NewIndexItem(&Parent{ID: 1}, "1", nil),
		NewIndexItem(&Skill{ID: 2}, "2", nil),
	})
	assert.Nil(t, body)
	require.ErrorIs(t, err, constants.ErrInvalidIndexName)

	var invalid *constants.InvalidIndexNameError
	require.ErrorAs(t, err, &invalid)
	assert.Equal(t, "Skills", invalid.Index)
	assert.Equal(t, "skill", invalid.Type)
}

func TestBuildCanceled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	body, err := NewBuilder(mapping.NewRegistry(), nil).Build(ctx, []Item{NewIndexItem(&Skill{}, "1", nil)})
	assert.Nil(t, body)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestBuildNilEntity(t *testing.T) {
	_, err := NewBuilder(mapping.NewRegistry(), nil).Build(context.Background(), []Item{NewIndexItem((*Skill)(nil), "1", nil)})
	assert.ErrorIs(t, err, constants.ErrNilEntity)
}

func TestValidIndexName(t *testing.T) {
	tests := []struct {
		name  string
		valid bool
	}{
		{"skills", true},
		{"my-index_2", true},
		{"Skills", false},
		{"a b", false},
		{"a\tb", false},
		{"a/b", false},
		{`a\b`, false},
		{"a*", false},
		{"a?", false},
		{`a"b`, false},
		{"a,b", false},
		{"a<b", false},
		{"a>b", false},
		{"a|b", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.valid, ValidIndexName(tt.name))
		})
	}
}

func TestOperationString(t *testing.T) {
	assert.Equal(t, "index", OpIndex.String())
	assert.Equal(t, "delete", OpDelete.String())
	assert.Equal(t, "operation(9)", Operation(9).String())
}
