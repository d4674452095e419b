package view

import (
	"encoding/binary"
	"strconv"

	"github.com/cespare/xxhash/v2"
	"github.com/specterops/relgraph/graph"
	"github.com/specterops/relgraph/storage"
)

// Key identifies a view within the catalog entry and compiled procedure that own it.
type Key struct {
	DatabaseID int64
	Signature  string
	Name       string
}

func (s Key) String() string {
	return strconv.FormatInt(s.DatabaseID, 10) + "/" + s.Signature + "/" + s.Name
}

// Definition carries the raw construction inputs of a graph view. Label and table sequences are parallel. A label
// named more than once merges into one binding spanning each of its tables in order. StartVLabels and EndVLabels hold
// one entry per edge label entry; each entry may be a comma separated list of vertex labels.
//
// VertexColumnIDs and EdgeColumnIDs hold either one column id list shared by every label entry or one list per label
// entry. Each list carries one offset per schema field. Column names are optional; when given, the backing table
// column at each offset must carry the corresponding name.
type Definition struct {
	Name              string
	Directed          bool
	VertexLabels      []string
	VertexTables      []storage.Table
	EdgeLabels        []string
	EdgeTables        []storage.Table
	StartVLabels      []string
	EndVLabels        []string
	PropertyTable     storage.PropertyTable
	VertexSchema      storage.TupleSchema
	EdgeSchema        storage.TupleSchema
	VertexColumnNames []string
	EdgeColumnNames   []string
	VertexColumnIDs   [][]int
	EdgeColumnIDs     [][]int
	DatabaseID        int64
	Signature         string
}

func (s Definition) Key() Key {
	return Key{
		DatabaseID: s.DatabaseID,
		Signature:  s.Signature,
		Name:       s.Name,
	}
}

// Fingerprint hashes every catalog facing input of the definition, including the native schemas of the backing
// tables. Two definitions with equal fingerprints build views with the same topology.
func (s Definition) Fingerprint() uint64 {
	var (
		digest = xxhash.New()
		buffer [binary.MaxVarintLen64]byte
	)

	writeString := func(value string) {
		n := binary.PutUvarint(buffer[:], uint64(len(value)))
		digest.Write(buffer[:n])
		digest.WriteString(value)
	}

	writeInt := func(value int64) {
		n := binary.PutVarint(buffer[:], value)
		digest.Write(buffer[:n])
	}

	writeStrings := func(values []string) {
		writeInt(int64(len(values)))

		for _, value := range values {
			writeString(value)
		}
	}

	writeTables := func(tables []storage.Table) {
		writeInt(int64(len(tables)))

		for _, table := range tables {
			if table == nil {
				writeString("")
			} else {
				writeString(table.Name())
				writeString(table.Schema().String())
			}
		}
	}

	writeColumnIDs := func(columnIDs [][]int) {
		writeInt(int64(len(columnIDs)))

		for _, ids := range columnIDs {
			writeInt(int64(len(ids)))

			for _, id := range ids {
				writeInt(int64(id))
			}
		}
	}

	writeString(s.Name)
	writeString(strconv.FormatBool(s.Directed))
	writeStrings(s.VertexLabels)
	writeTables(s.VertexTables)
	writeStrings(s.EdgeLabels)
	writeTables(s.EdgeTables)

	// Endpoint label lists are sets, order within an entry does not change the topology
	writeInt(int64(len(s.StartVLabels)))
	for idx := range s.StartVLabels {
		_ = graph.ParseKinds(s.StartVLabels[idx]).HashInto(digest)
		writeString(",")
	}

	writeInt(int64(len(s.EndVLabels)))
	for idx := range s.EndVLabels {
		_ = graph.ParseKinds(s.EndVLabels[idx]).HashInto(digest)
		writeString(",")
	}

	if s.PropertyTable != nil {
		writeString(s.PropertyTable.Name())
	} else {
		writeString("")
	}

	writeString(s.VertexSchema.String())
	writeString(s.EdgeSchema.String())
	writeStrings(s.VertexColumnNames)
	writeStrings(s.EdgeColumnNames)
	writeColumnIDs(s.VertexColumnIDs)
	writeColumnIDs(s.EdgeColumnIDs)
	writeInt(s.DatabaseID)
	writeString(s.Signature)

	return digest.Sum64()
}

// SubgraphDefinition carries the inputs of a derivation: the construction inputs of the derived view plus the parent,
// the predicates and the optional single label scope. FilterHint is advisory planner metadata and is recorded but
// never interpreted.
type SubgraphDefinition struct {
	Definition

	Parent          *GraphView
	FilterHint      string
	Postfilter      bool
	VertexPredicate string
	EdgePredicate   string
	JoinPredicate   string
	InputGraphSize  int
	Scope           Scope
}

// Fingerprint extends the construction fingerprint with the parent identity and every derivation input.
func (s SubgraphDefinition) Fingerprint() uint64 {
	var (
		digest = xxhash.New()
		buffer [binary.MaxVarintLen64]byte
	)

	writeString := func(value string) {
		n := binary.PutUvarint(buffer[:], uint64(len(value)))
		digest.Write(buffer[:n])
		digest.WriteString(value)
	}

	writeUint := func(value uint64) {
		n := binary.PutUvarint(buffer[:], value)
		digest.Write(buffer[:n])
	}

	writeUint(s.Definition.Fingerprint())

	if s.Parent != nil {
		writeUint(s.Parent.Fingerprint())
		writeString(s.Parent.Owner().String())
	} else {
		writeString("")
	}

	writeString(s.FilterHint)
	writeString(strconv.FormatBool(s.Postfilter))
	writeString(s.VertexPredicate)
	writeString(s.EdgePredicate)
	writeString(s.JoinPredicate)
	writeUint(uint64(s.InputGraphSize))
	writeString(s.Scope.String())

	return digest.Sum64()
}
