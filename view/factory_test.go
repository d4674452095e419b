package view_test

import (
	"context"
	"testing"

	"github.com/specterops/relgraph/graph"
	"github.com/specterops/relgraph/predicate"
	"github.com/specterops/relgraph/storage"
	"github.com/specterops/relgraph/storage/memory"
	"github.com/specterops/relgraph/util/test"
	"github.com/specterops/relgraph/view"
	"github.com/stretchr/testify/require"
)

func newFactory() view.Factory {
	return view.NewFactory(predicate.NewStarlarkCompiler(predicate.DefaultMaxSteps))
}

func loadView(t *testing.T, factory view.Factory, graphView *view.GraphView) {
	t.Helper()

	vertices, edges, err := view.Decode(context.Background(), graphView)
	require.NoError(t, err)
	require.NoError(t, factory.LoadGraph(context.Background(), graphView, vertices, edges))
}

func newSocialView(t *testing.T, factory view.Factory, social test.Social) *view.GraphView {
	t.Helper()

	graphView, err := factory.CreateGraphView(social.Definition())
	require.NoError(t, err)

	loadView(t, factory, graphView)
	return graphView
}

func requireConfigurationError(t *testing.T, err error, contains string) {
	t.Helper()

	require.ErrorIs(t, err, view.ErrConfiguration)

	var configurationErr *view.ConfigurationError
	require.ErrorAs(t, err, &configurationErr)
	require.ErrorContains(t, configurationErr.Problems, contains)
}

func TestFactory_CreateGraphView(t *testing.T) {
	var (
		social  = test.NewSocial()
		factory = newFactory()
	)

	graphView, err := factory.CreateGraphView(social.Definition())
	require.NoError(t, err)

	require.Equal(t, test.SocialView, graphView.Name())
	require.Equal(t, view.Key{DatabaseID: test.SocialDatabase, Signature: test.SocialSignature, Name: test.SocialView}, graphView.Key())
	require.False(t, graphView.IsDirected())
	require.Nil(t, graphView.Parent())
	require.Nil(t, graphView.Derivation())
	require.Equal(t, []string{"Person"}, graphView.VertexLabels())
	require.Equal(t, []string{"Knows"}, graphView.EdgeLabels())
	require.Equal(t, test.VertexSchema, graphView.Schema().Vertex)
	require.Equal(t, test.EdgeSchema, graphView.Schema().Edge)
	require.Equal(t, social.Properties, graphView.PropertyTable())

	// Construction does not read table contents
	require.Zero(t, graphView.NumVertices())
	require.Zero(t, graphView.NumEdges())
	require.Zero(t, social.People.Scans())

	person, found := graphView.Binding(view.VertexKind, "Person")
	require.True(t, found)
	require.Equal(t, []string{"people"}, person.TableNames())
	require.Equal(t, []int{1, 2, 3}, person.ColumnIDs())
	require.Equal(t, graphView.Owner(), person.Owner())
	require.True(t, graphView.Owns(person))

	start, end, err := graphView.EndpointLabels("Knows")
	require.NoError(t, err)
	require.Equal(t, []string{"Person"}, start.Strings())
	require.Equal(t, []string{"Person"}, end.Strings())

	_, _, err = graphView.EndpointLabels("Likes")
	require.ErrorIs(t, err, view.ErrUnknownLabel)
}

func TestFactory_CreateGraphView_MergesRepeatedLabels(t *testing.T) {
	var (
		social  = test.NewSocial()
		factory = newFactory()
		more    = memory.NewTable("more_people", social.People.Schema())
	)

	definition := social.Definition()
	definition.VertexLabels = []string{"Person", "Person"}
	definition.VertexTables = []storage.Table{social.People, more}

	graphView, err := factory.CreateGraphView(definition)
	require.NoError(t, err)
	require.Equal(t, []string{"Person"}, graphView.VertexLabels())

	person, _ := graphView.Binding(view.VertexKind, "Person")
	require.Equal(t, []string{"people", "more_people"}, person.TableNames())

	definition.VertexColumnIDs = [][]int{{1, 2, 3}, {1, 2, 0}}
	definition.VertexColumnNames = nil

	_, err = factory.CreateGraphView(definition)
	requireConfigurationError(t, err, "bound more than once")
}

func TestFactory_CreateGraphView_ConfigurationErrors(t *testing.T) {
	social := test.NewSocial()

	testCases := []struct {
		Name     string
		Mutate   func(definition *view.Definition)
		Contains string
	}{{
		Name: "vertex label and table counts differ",
		Mutate: func(definition *view.Definition) {
			definition.VertexLabels = []string{"Person", "Robot"}
		},
		Contains: "2 vertex labels were given for 1 vertex tables",
	}, {
		Name: "edge label and table counts differ",
		Mutate: func(definition *view.Definition) {
			definition.EdgeTables = nil
		},
		Contains: "1 edge labels were given for 0 edge tables",
	}, {
		Name: "endpoint entries do not match edge labels",
		Mutate: func(definition *view.Definition) {
			definition.EndVLabels = nil
		},
		Contains: "1 start and 0 end label entries",
	}, {
		Name: "column id lists do not match labels",
		Mutate: func(definition *view.Definition) {
			definition.VertexLabels = []string{"Person", "Person"}
			definition.VertexTables = []storage.Table{social.People, social.People}
			definition.VertexColumnIDs = [][]int{{1, 2, 3}, {1, 2, 3}, {1, 2, 3}}
		},
		Contains: "3 vertex column id lists were given for 2 vertex labels",
	}, {
		Name: "column ids do not cover the schema",
		Mutate: func(definition *view.Definition) {
			definition.VertexColumnIDs = [][]int{{1, 2}}
			definition.VertexColumnNames = nil
		},
		Contains: "maps 2 columns but the vertex schema declares 3 fields",
	}, {
		Name: "column id out of range",
		Mutate: func(definition *view.Definition) {
			definition.EdgeColumnIDs = [][]int{{0, 1, 2, 9}}
			definition.EdgeColumnNames = nil
		},
		Contains: "column id 9 is not a valid offset into table knows",
	}, {
		Name: "column name mismatch",
		Mutate: func(definition *view.Definition) {
			definition.VertexColumnNames = []string{"person_id", "full_name", "years"}
		},
		Contains: "is named age, expected years",
	}, {
		Name: "vertex schema without a key",
		Mutate: func(definition *view.Definition) {
			definition.VertexSchema = storage.NewTupleSchema()
		},
		Contains: "vertex schema must declare at least 1 field",
	}, {
		Name: "edge schema without endpoints",
		Mutate: func(definition *view.Definition) {
			definition.EdgeSchema = storage.NewTupleSchema(storage.Field{Name: "id", Type: storage.FieldTypeInt64})
		},
		Contains: "edge schema must declare at least 3 fields",
	}, {
		Name: "unknown endpoint label",
		Mutate: func(definition *view.Definition) {
			definition.EndVLabels = []string{"Person,Robot"}
		},
		Contains: "allows end label Robot which is not a vertex label",
	}, {
		Name: "empty endpoint label list",
		Mutate: func(definition *view.Definition) {
			definition.StartVLabels = []string{" , "}
		},
		Contains: "must allow at least one start and one end label",
	}, {
		Name: "missing table",
		Mutate: func(definition *view.Definition) {
			definition.VertexTables = []storage.Table{nil}
		},
		Contains: "entry 0 has no table",
	}, {
		Name: "empty view name",
		Mutate: func(definition *view.Definition) {
			definition.Name = " "
		},
		Contains: "view name is empty",
	}}

	for _, testCase := range testCases {
		t.Run(testCase.Name, func(t *testing.T) {
			definition := social.Definition()
			testCase.Mutate(&definition)

			graphView, err := newFactory().CreateGraphView(definition)
			require.Nil(t, graphView)
			requireConfigurationError(t, err, testCase.Contains)
		})
	}
}

func TestFactory_CreateGraphView_CollectsEveryProblem(t *testing.T) {
	definition := test.NewSocial().Definition()
	definition.Name = ""
	definition.VertexLabels = nil

	_, err := newFactory().CreateGraphView(definition)
	requireConfigurationError(t, err, "view name is empty")
	requireConfigurationError(t, err, "0 vertex labels were given for 1 vertex tables")
}

func TestFactory_CreateSubGraphView(t *testing.T) {
	var (
		social  = test.NewSocial()
		factory = newFactory()
		parent  = newSocialView(t, factory, social)
	)

	definition := social.Subgraph("youngFriends", parent)
	definition.VertexPredicate = "age < 30"
	definition.FilterHint = "vertex"

	derived, err := factory.CreateSubGraphView(definition)
	require.NoError(t, err)

	require.Same(t, parent, derived.Parent())
	require.True(t, derived.Derivation().Scope.IsAll())
	require.Equal(t, "vertex", derived.Derivation().FilterHint)
	require.Equal(t, "age < 30", derived.Derivation().VertexPredicate.Source())
	require.Nil(t, derived.Derivation().EdgePredicate)

	// The input size defaults to the parent's element count
	require.Equal(t, 5, derived.Derivation().InputGraphSize)

	// Construction records the predicates but loads nothing
	require.Zero(t, derived.NumVertices())

	parentPerson, _ := parent.Binding(view.VertexKind, "Person")
	derivedPerson, _ := derived.Binding(view.VertexKind, "Person")
	require.NotSame(t, parentPerson, derivedPerson)
	require.True(t, derived.Owns(derivedPerson))
	require.False(t, derived.Owns(parentPerson))
}

func TestFactory_CreateSubGraphView_Scoped(t *testing.T) {
	var (
		social  = test.NewSocial()
		factory = newFactory()
		parent  = newSocialView(t, factory, social)
	)

	definition := social.Subgraph("youngPeople", parent)
	definition.VertexPredicate = "age < 30"
	definition.Scope = view.VertexScope("Person")

	derived, err := factory.CreateSubGraphView(definition)
	require.NoError(t, err)

	parentPerson, _ := parent.Binding(view.VertexKind, "Person")
	derivedPerson, _ := derived.Binding(view.VertexKind, "Person")
	require.NotSame(t, parentPerson, derivedPerson)
	require.Equal(t, derived.Owner(), derivedPerson.Owner())

	// Labels outside the scope are the parent's bindings by reference
	parentKnows, _ := parent.Binding(view.EdgeKind, "Knows")
	derivedKnows, _ := derived.Binding(view.EdgeKind, "Knows")
	require.Same(t, parentKnows, derivedKnows)
	require.Equal(t, parent.Owner(), derivedKnows.Owner())
	require.False(t, derived.Owns(derivedKnows))
}

func TestFactory_CreateSubGraphView_ConfigurationErrors(t *testing.T) {
	var (
		social  = test.NewSocial()
		factory = newFactory()
		parent  = newSocialView(t, factory, social)
	)

	testCases := []struct {
		Name            string
		WithoutCompiler bool
		Mutate          func(definition *view.SubgraphDefinition)
		Contains        string
	}{{
		Name: "missing parent",
		Mutate: func(definition *view.SubgraphDefinition) {
			definition.Parent = nil
		},
		Contains: "requires a parent view",
	}, {
		Name: "scope label absent from parent",
		Mutate: func(definition *view.SubgraphDefinition) {
			definition.Scope = view.EdgeScope("Likes")
		},
		Contains: "scope edge(Likes) names a label absent from parent view social",
	}, {
		Name: "scope label absent from inputs",
		Mutate: func(definition *view.SubgraphDefinition) {
			definition.Scope = view.VertexScope("Person")
			definition.VertexLabels = nil
			definition.VertexTables = nil
		},
		Contains: "absent from the derivation inputs",
	}, {
		Name: "scoped schema field count differs",
		Mutate: func(definition *view.SubgraphDefinition) {
			definition.Scope = view.VertexScope("Person")
			definition.VertexSchema = storage.NewTupleSchema(storage.Field{Name: "id", Type: storage.FieldTypeInt64})
			definition.VertexColumnIDs = [][]int{{1}}
			definition.VertexColumnNames = nil
		},
		Contains: "must match the field counts of parent view social",
	}, {
		Name: "unscoped label absent from parent",
		Mutate: func(definition *view.SubgraphDefinition) {
			definition.EdgeLabels = []string{"Likes"}
		},
		Contains: "edge label Likes is absent from parent view social",
	}, {
		Name: "label backed by different tables",
		Mutate: func(definition *view.SubgraphDefinition) {
			definition.VertexTables = []storage.Table{memory.NewTable("people_copy", social.People.Schema())}
		},
		Contains: "must be backed by the tables of parent view social",
	}, {
		Name:            "predicate without compiler",
		WithoutCompiler: true,
		Mutate: func(definition *view.SubgraphDefinition) {
			definition.EdgePredicate = "since > 2000"
		},
		Contains: "no predicate compiler is configured",
	}, {
		Name: "predicate that does not compile",
		Mutate: func(definition *view.SubgraphDefinition) {
			definition.JoinPredicate = "start.age <"
		},
		Contains: "join predicate",
	}}

	for _, testCase := range testCases {
		t.Run(testCase.Name, func(t *testing.T) {
			definition := social.Subgraph("derived", parent)
			testCase.Mutate(&definition)

			selectedFactory := factory
			if testCase.WithoutCompiler {
				selectedFactory = view.NewFactory(nil)
			}

			derived, err := selectedFactory.CreateSubGraphView(definition)
			require.Nil(t, derived)
			requireConfigurationError(t, err, testCase.Contains)
		})
	}
}

func TestDefinition_Fingerprint(t *testing.T) {
	var (
		social     = test.NewSocial()
		definition = social.Definition()
		reordered  = social.Definition()
	)

	require.Equal(t, definition.Fingerprint(), social.Definition().Fingerprint())

	// Endpoint label lists are sets
	definition.StartVLabels = []string{"Person, Robot"}
	reordered.StartVLabels = []string{"Robot,Person"}
	require.Equal(t, definition.Fingerprint(), reordered.Fingerprint())

	changed := social.Definition()
	changed.VertexTables = []storage.Table{
		memory.NewTable("people", storage.NewTupleSchema(
			storage.Field{Name: "city", Type: storage.FieldTypeString},
			storage.Field{Name: "person_id", Type: storage.FieldTypeInt64},
			storage.Field{Name: "full_name", Type: storage.FieldTypeString},
			storage.Field{Name: "age", Type: storage.FieldTypeFloat64},
		)),
	}

	require.NotEqual(t, social.Definition().Fingerprint(), changed.Fingerprint())
}

func TestVertex_Keys(t *testing.T) {
	id, err := test.Person(test.Alice, "alice", 25).ID()
	require.NoError(t, err)
	require.Equal(t, test.Alice, id)

	edge := test.Knows(test.AliceKnowsBob, test.Alice, test.Bob, 2019)

	start, err := edge.StartID()
	require.NoError(t, err)
	require.Equal(t, test.Alice, start)

	end, err := edge.EndID()
	require.NoError(t, err)
	require.Equal(t, test.Bob, end)

	_, err = view.Vertex{Fields: []any{"not a key"}}.ID()
	require.ErrorIs(t, err, view.ErrInvalidKey)

	_, err = view.Vertex{Fields: []any{int64(-4)}}.ID()
	require.ErrorIs(t, err, view.ErrInvalidKey)

	// JSON decoded keys arrive as float64
	id, err = view.Vertex{Fields: []any{float64(12)}}.ID()
	require.NoError(t, err)
	require.Equal(t, graph.ID(12), id)
}
