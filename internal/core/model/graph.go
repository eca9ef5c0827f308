package model

import "strings"

// Provenance identifies which strategy produced the final answer.
type Provenance string

const (
	ProvenanceGraphRAG    Provenance = "GraphRAG"
	ProvenanceWebSearch   Provenance = "WebSearch"
	ProvenanceAIKnowledge Provenance = "AIKnowledge"
	ProvenanceError       Provenance = "Error"
)

// Entity is a node in the graph store. The core only reads entities; the
// ingestion pipeline owns them.
type Entity struct {
	Name        string `json:"name"`
	Type        string `json:"type"`
	Description string `json:"description"`
}

// Relation is one outgoing hop from an entity, as returned by the store.
type Relation struct {
	Type              string `json:"type"`
	TargetName        string `json:"target"`
	TargetDescription string `json:"target_description"`
	TargetType        string `json:"target_type"`
}

// GraphNode and GraphEdge are the display structures handed to the UI.
type GraphNode struct {
	ID    string `json:"id"`
	Label string `json:"label"`
	Title string `json:"title"`
	Group string `json:"group"`
}

type GraphEdge struct {
	Source string `json:"source"`
	Target string `json:"target"`
	Label  string `json:"label"`
}

type GraphData struct {
	Nodes []GraphNode `json:"nodes"`
	Edges []GraphEdge `json:"edges"`
}

// EmptyGraph returns a graph with non-nil, empty collections so JSON output
// is always {"nodes":[],"edges":[]} rather than nulls.
func EmptyGraph() GraphData {
	return GraphData{Nodes: []GraphNode{}, Edges: []GraphEdge{}}
}

// AnswerResult is the triple returned for every query, no matter which
// escalation path produced it.
type AnswerResult struct {
	Answer string     `json:"answer"`
	Graph  GraphData  `json:"graph_data"`
	Source Provenance `json:"source"`
}

// ContextBundle is the per-query aggregate of retrieved context: the text
// block fed to the language model and the deduplicated display graph.
// Node registration is idempotent add-if-absent, keyed by node id, because
// an entity can surface both as a top match and as another match's neighbor.
type ContextBundle struct {
	lines []string
	order []string
	nodes map[string]GraphNode
	edges []GraphEdge
}

func NewContextBundle() *ContextBundle {
	return &ContextBundle{nodes: map[string]GraphNode{}}
}

func (b *ContextBundle) AddLine(line string) {
	b.lines = append(b.lines, line)
}

// AddNode registers a display node if no node with the same id exists yet.
func (b *ContextBundle) AddNode(n GraphNode) {
	if _, ok := b.nodes[n.ID]; ok {
		return
	}
	b.nodes[n.ID] = n
	b.order = append(b.order, n.ID)
}

func (b *ContextBundle) HasNode(id string) bool {
	_, ok := b.nodes[id]
	return ok
}

// AddEdge appends a display edge. Callers register both endpoints; the edge
// may arrive before its target node does.
func (b *ContextBundle) AddEdge(e GraphEdge) {
	b.edges = append(b.edges, e)
}

func (b *ContextBundle) NodeCount() int {
	return len(b.nodes)
}

// Text returns the accumulated context lines in traversal order.
func (b *ContextBundle) Text() string {
	return strings.Join(b.lines, "\n")
}

// Graph exports the display structure, nodes in insertion order.
func (b *ContextBundle) Graph() GraphData {
	out := EmptyGraph()
	for _, id := range b.order {
		out.Nodes = append(out.Nodes, b.nodes[id])
	}
	out.Edges = append(out.Edges, b.edges...)
	return out
}
