// Package test provides fixtures shared by package tests.
package test

import (
	"github.com/specterops/relgraph/graph"
	"github.com/specterops/relgraph/storage"
	"github.com/specterops/relgraph/storage/memory"
	"github.com/specterops/relgraph/view"
)

const (
	SocialView      = "social"
	SocialDatabase  = int64(7)
	SocialSignature = "friends(int)"

	Alice = graph.ID(1)
	Bob   = graph.ID(2)
	Carol = graph.ID(3)

	AliceKnowsBob = graph.ID(10)
	BobKnowsCarol = graph.ID(11)
)

var (
	VertexSchema = storage.NewTupleSchema(
		storage.Field{Name: "id", Type: storage.FieldTypeInt64},
		storage.Field{Name: "name", Type: storage.FieldTypeString},
		storage.Field{Name: "age", Type: storage.FieldTypeInt64},
	)

	EdgeSchema = storage.NewTupleSchema(
		storage.Field{Name: "id", Type: storage.FieldTypeInt64},
		storage.Field{Name: "start", Type: storage.FieldTypeInt64},
		storage.Field{Name: "end", Type: storage.FieldTypeInt64},
		storage.Field{Name: "since", Type: storage.FieldTypeInt64},
	)
)

// Social is the undirected Person/Knows graph: three people, two of whom are under 30, and two friendships that both
// involve Bob.
type Social struct {
	People     *memory.Table
	Knows      *memory.Table
	Properties *memory.PropertyTable
}

func NewSocial() Social {
	people := memory.NewTable("people", storage.NewTupleSchema(
		storage.Field{Name: "city", Type: storage.FieldTypeString},
		storage.Field{Name: "person_id", Type: storage.FieldTypeInt64},
		storage.Field{Name: "full_name", Type: storage.FieldTypeString},
		storage.Field{Name: "age", Type: storage.FieldTypeInt64},
	))

	people.MustInsert("Oslo", int64(Alice), "alice", int64(25))
	people.MustInsert("Bergen", int64(Bob), "bob", int64(35))
	people.MustInsert("Oslo", int64(Carol), "carol", int64(28))

	knows := memory.NewTable("knows", storage.NewTupleSchema(
		storage.Field{Name: "knows_id", Type: storage.FieldTypeInt64},
		storage.Field{Name: "src", Type: storage.FieldTypeInt64},
		storage.Field{Name: "dst", Type: storage.FieldTypeInt64},
		storage.Field{Name: "since", Type: storage.FieldTypeInt64},
	))

	knows.MustInsert(int64(AliceKnowsBob), int64(Alice), int64(Bob), int64(2019))
	knows.MustInsert(int64(BobKnowsCarol), int64(Bob), int64(Carol), int64(2021))

	properties := memory.NewPropertyTable("person_properties")
	properties.Put(Alice, map[string]any{"nickname": "al"})
	properties.Put(Carol, map[string]any{"nickname": "cc", "verified": true})

	return Social{
		People:     people,
		Knows:      knows,
		Properties: properties,
	}
}

// Definition returns the base view definition over the fixture tables.
func (s Social) Definition() view.Definition {
	return view.Definition{
		Name:              SocialView,
		Directed:          false,
		VertexLabels:      []string{"Person"},
		VertexTables:      []storage.Table{s.People},
		EdgeLabels:        []string{"Knows"},
		EdgeTables:        []storage.Table{s.Knows},
		StartVLabels:      []string{"Person"},
		EndVLabels:        []string{"Person"},
		PropertyTable:     s.Properties,
		VertexSchema:      VertexSchema,
		EdgeSchema:        EdgeSchema,
		VertexColumnNames: []string{"person_id", "full_name", "age"},
		EdgeColumnNames:   []string{"knows_id", "src", "dst", "since"},
		VertexColumnIDs:   [][]int{{1, 2, 3}},
		EdgeColumnIDs:     [][]int{{0, 1, 2, 3}},
		DatabaseID:        SocialDatabase,
		Signature:         SocialSignature,
	}
}

// Subgraph returns a derivation of the parent over the same fixture tables.
func (s Social) Subgraph(name string, parent *view.GraphView) view.SubgraphDefinition {
	definition := s.Definition()
	definition.Name = name

	return view.SubgraphDefinition{
		Definition: definition,
		Parent:     parent,
	}
}

// Person builds a decoded Person vertex as the execution layer would hand it to the loader.
func Person(id graph.ID, name string, age int64) view.Vertex {
	return view.Vertex{
		Label:  "Person",
		Row:    storage.RowID(id - 1),
		Fields: []any{int64(id), name, age},
	}
}

// Knows builds a decoded Knows edge.
func Knows(id, start, end graph.ID, since int64) view.Edge {
	return view.Edge{
		Label:  "Knows",
		Row:    storage.RowID(id - AliceKnowsBob),
		Fields: []any{int64(id), int64(start), int64(end), since},
	}
}
