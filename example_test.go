package escrud_test

import (
	"context"
	"fmt"

	escrud "github.com/escrud/escrud.go"
	"github.com/escrud/escrud.go/internal/fakees"
	"github.com/escrud/escrud.go/pkg/logger"
	"github.com/escrud/escrud.go/pkg/mapping"
)

func ExampleClient_Flush() {
	srv := fakees.NewServer().Start()
	defer srv.Close()

	ctx := context.Background()
	c, err := escrud.FromEndpointURLString(ctx, srv.URL(), escrud.WithLogger(logger.Nop{}))
	if err != nil {
		panic(err)
	}

	type Team struct {
		ID      int64
		Name    string
		Members []*Member
	}
	team := &Team{ID: 1, Name: "search"}
	team.Members = []*Member{{Name: "ada", Team: team}, {Name: "linus", Team: team}}

	if err := c.Enqueue(team, "1", nil); err != nil {
		panic(err)
	}
	escrud.EnqueueDelete[Skill](c, "11", nil)

	res, err := c.Flush(ctx)
	if err != nil {
		panic(err)
	}
	for _, item := range res.Items {
		fmt.Println(item.Op, item.Index, item.ID, item.Status)
	}

	doc, _ := srv.Document("teams", "team", "1")
	fmt.Println(string(doc))

	// Output:
	// index teams 1 201
	// delete skills 11 404
	// {"id":1,"name":"search","members":[{"name":"ada"},{"name":"linus"}]}
}

type Member struct {
	Name string
	Team any
}

func ExampleGet() {
	srv := fakees.NewServer().Start()
	defer srv.Close()
	srv.Put("skills", "skill", "11", []byte(`{"id":11,"name":"go","description":"A test entity description"}`))

	ctx := context.Background()
	c, err := escrud.FromEndpointURLString(ctx, srv.URL(), escrud.WithLogger(logger.Nop{}))
	if err != nil {
		panic(err)
	}

	skill, err := escrud.Get[Skill](ctx, c, "11")
	if err != nil {
		panic(err)
	}
	fmt.Println(skill.ID, skill.Name)

	_, err = escrud.Get[Skill](ctx, c, "12")
	fmt.Println(escrud.IsNotFound(err))

	// Output:
	// 11 go
	// true
}

func ExampleClient_Registry() {
	srv := fakees.NewServer().Start()
	defer srv.Close()

	ctx := context.Background()
	c, err := escrud.FromEndpointURLString(ctx, srv.URL(), escrud.WithLogger(logger.Nop{}))
	if err != nil {
		panic(err)
	}

	mapping.RegisterFor[Skill](c.Registry(), mapping.NewDefaultStrategy(
		mapping.WithNames(mapping.FixedNames{Type: "skill", Index: "coolindex"}),
	))

	if err := escrud.Index(ctx, c, &Skill{ID: 1, Name: "go"}, "1"); err != nil {
		panic(err)
	}
	_, ok := srv.Document("coolindex", "skill", "1")
	fmt.Println(ok)

	// Output:
	// true
}
