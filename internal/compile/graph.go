// ABOUTME: Configuration graph types produced by the visual builder
// ABOUTME: Nodes carry a kind discriminator and a free-form data payload

package compile

// NodeKind discriminates the builder's node types.
type NodeKind string

const (
	NodeCharacter NodeKind = "character"
	NodeModel     NodeKind = "model"
	NodeVoice     NodeKind = "voice"
	NodePlugin    NodeKind = "plugin"
)

// Node is a single builder node. Data is the node's raw key/value
// payload, stored verbatim so the builder can re-open it for editing.
type Node struct {
	ID   string         `json:"id,omitempty" bson:"id,omitempty"`
	Kind NodeKind       `json:"kind" bson:"kind"`
	Data map[string]any `json:"data" bson:"data"`
}

// Graph is the ordered node collection the builder hands to Transform.
// It is immutable input: Transform never mutates it.
type Graph []Node

// classified holds the nodes Transform consults, split by kind. Only the
// first character, model and voice nodes are meaningful; every plugin
// node is kept in graph order.
type classified struct {
	character *Node
	model     *Node
	voice     *Node
	plugins   []Node
}

func classify(graph Graph) classified {
	var c classified
	for i := range graph {
		node := &graph[i]
		switch node.Kind {
		case NodeCharacter:
			if c.character == nil {
				c.character = node
			}
		case NodeModel:
			if c.model == nil {
				c.model = node
			}
		case NodeVoice:
			if c.voice == nil {
				c.voice = node
			}
		case NodePlugin:
			c.plugins = append(c.plugins, *node)
		}
	}
	return c
}
