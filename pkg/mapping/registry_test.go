package mapping

import (
	"reflect"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRegistryResolveOrder(t *testing.T) {
	fallback := NewDefaultStrategy()
	r := NewRegistryWithDefault(fallback)
	assert.Same(t, fallback, r.Resolve(reflect.TypeOf(Parent{})))
	assert.Same(t, fallback, r.Resolve(nil))
	assert.Same(t, fallback, r.Default())

	wildcard := NewDefaultStrategy(WithNames(FixedNames{Type: "doc", Index: "everything"}))
	r.RegisterAny(wildcard)
	assert.Same(t, wildcard, r.Resolve(reflect.TypeOf(Parent{})))

	own := NewDefaultStrategy()
	r.Register(reflect.TypeOf(&Parent{}), own)
	assert.Same(t, own, r.Resolve(reflect.TypeOf(Parent{})))
	assert.Same(t, own, ResolveFor[*Parent](r))
	assert.Same(t, wildcard, r.Resolve(reflect.TypeOf(Child{})))
	assert.Equal(t, 1, r.Len())

	r.Unregister(reflect.TypeOf(Parent{}))
	assert.Same(t, wildcard, r.Resolve(reflect.TypeOf(Parent{})))
	assert.Equal(t, 0, r.Len())
}

func TestRegistryLastRegistrationWins(t *testing.T) {
	r := NewRegistry()
	first := NewDefaultStrategy()
	second := NewDefaultStrategy()
	RegisterFor[Skill](r, first)
	RegisterFor[Skill](r, second)
	assert.Same(t, second, ResolveFor[Skill](r))
}

func TestRegistryNormalizesProxies(t *testing.T) {
	r := NewRegistry()
	s := NewDefaultStrategy(WithNames(FixedNames{Type: "skill", Index: "coolindex"}))
	RegisterFor[Skill](r, s)

	assert.Same(t, s, r.Resolve(reflect.TypeOf(&skillProxy{})))
	assert.Same(t, s, r.Resolve(reflect.TypeOf(lazySkill{})))
}

func TestRegistryConcurrentUse(t *testing.T) {
	r := NewRegistry()
	types := []reflect.Type{
		reflect.TypeOf(Parent{}),
		reflect.TypeOf(Child{}),
		reflect.TypeOf(Skill{}),
		reflect.TypeOf(Team{}),
	}

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(2)
		go func(i int) {
			defer wg.Done()
			for j := 0; j < 200; j++ {
				r.Register(types[(i+j)%len(types)], NewDefaultStrategy())
			}
		}(i)
		go func(i int) {
			defer wg.Done()
			for j := 0; j < 200; j++ {
				if r.Resolve(types[(i+j)%len(types)]) == nil {
					t.Error("resolve returned nil")
					return
				}
			}
		}(i)
	}
	wg.Wait()

	require.Equal(t, len(types), r.Len())
}
