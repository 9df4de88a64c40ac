package model

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math"
	"os"
	"strings"
)

const probabilityTolerance = 1e-6

type treeFile struct {
	FeatureNames []string `json:"feature_names"`
	Tree         *rawNode `json:"tree"`
}

type rawNode struct {
	NodeType      string          `json:"node_type"`
	Feature       string          `json:"feature"`
	Threshold     *float64        `json:"threshold"`
	Left          *rawNode        `json:"left"`
	Right         *rawNode        `json:"right"`
	Class         *float64        `json:"class"`
	Probabilities []float64       `json:"probabilities"`
	Value         json.RawMessage `json:"value"`
}

// LoadTree reads and validates a tree from a JSON file.
func LoadTree(path string) (*Tree, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open tree: %w", err)
	}
	defer f.Close()

	return ParseTree(f)
}

// ParseTree decodes a serialized tree and validates every node. A structural
// problem is reported as *MalformedTreeError.
func ParseTree(r io.Reader) (*Tree, error) {
	var file treeFile
	if err := json.NewDecoder(r).Decode(&file); err != nil {
		return nil, fmt.Errorf("failed to parse tree: %w", err)
	}
	if file.Tree == nil {
		return nil, malformed("root", "tree is empty")
	}

	root, err := convertNode(file.Tree, "root")
	if err != nil {
		return nil, err
	}

	return &Tree{FeatureNames: file.FeatureNames, Root: root}, nil
}

func convertNode(raw *rawNode, path string) (Node, error) {
	kind := strings.ToLower(raw.NodeType)
	if kind == "" {
		if raw.Class != nil {
			kind = "leaf"
		} else {
			kind = "split"
		}
	}

	switch kind {
	case "leaf":
		return convertLeaf(raw, path)
	case "split", "internal", "decision":
		if raw.Feature == "" {
			return nil, malformed(path, "split has no feature")
		}
		if raw.Threshold == nil {
			return nil, malformed(path, "split has no threshold")
		}
		if raw.Left == nil || raw.Right == nil {
			return nil, malformed(path, "split must have two children")
		}
		left, err := convertNode(raw.Left, path+".left")
		if err != nil {
			return nil, err
		}
		right, err := convertNode(raw.Right, path+".right")
		if err != nil {
			return nil, err
		}
		return &Split{
			Feature:   raw.Feature,
			Threshold: *raw.Threshold,
			Left:      left,
			Right:     right,
		}, nil
	default:
		return nil, malformed(path, "unknown node_type %q", raw.NodeType)
	}
}

func convertLeaf(raw *rawNode, path string) (Node, error) {
	if raw.Class == nil {
		return nil, malformed(path, "leaf has no class")
	}
	c := *raw.Class
	if c != 0 && c != 1 {
		return nil, malformed(path, "class must be 0 or 1, got %v", c)
	}

	probs := raw.Probabilities
	if len(probs) == 0 && len(raw.Value) > 0 {
		counts, err := decodeCounts(raw.Value)
		if err != nil {
			return nil, malformed(path, "bad value: %v", err)
		}
		probs = normalize(counts)
	}

	leaf := &Leaf{Class: int(c), Probabilities: probs}
	if err := checkLeaf(leaf, path); err != nil {
		return nil, err
	}
	return leaf, nil
}

// decodeCounts accepts both [a, b] and the [[a, b]] shape some exporters emit.
func decodeCounts(msg json.RawMessage) ([]float64, error) {
	var flat []float64
	if err := json.Unmarshal(msg, &flat); err == nil {
		return flat, nil
	}
	var nested [][]float64
	if err := json.Unmarshal(bytes.TrimSpace(msg), &nested); err != nil {
		return nil, err
	}
	if len(nested) != 1 {
		return nil, fmt.Errorf("expected one row of counts, got %d", len(nested))
	}
	return nested[0], nil
}

func normalize(counts []float64) []float64 {
	var total float64
	for _, c := range counts {
		total += c
	}
	if total <= 0 {
		return counts
	}
	out := make([]float64, len(counts))
	for i, c := range counts {
		out[i] = c / total
	}
	return out
}

func checkLeaf(leaf *Leaf, path string) error {
	if leaf.Class != 0 && leaf.Class != 1 {
		return malformed(path, "class must be 0 or 1, got %d", leaf.Class)
	}
	if len(leaf.Probabilities) == 0 {
		return nil
	}
	if len(leaf.Probabilities) != 2 {
		return malformed(path, "expected 2 class probabilities, got %d", len(leaf.Probabilities))
	}
	var sum float64
	for _, p := range leaf.Probabilities {
		if p < 0 || math.IsNaN(p) {
			return malformed(path, "probability %v out of range", p)
		}
		sum += p
	}
	if math.Abs(sum-1) > probabilityTolerance {
		return malformed(path, "probabilities sum to %v", sum)
	}
	return nil
}

// Validate walks every node and reports the first structural problem. Trees
// built by ParseTree are already valid; this is for trees assembled in code.
func (t *Tree) Validate() error {
	if t == nil || t.Root == nil {
		return malformed("root", "tree is empty")
	}

	// steps[i] records how node i was reached, so paths are only rendered
	// when something is wrong.
	type step struct {
		parent int
		turn   byte
	}
	type frame struct {
		node Node
		id   int
	}
	steps := []step{{parent: -1}}
	pathTo := func(id int) string {
		var turns []byte
		for ; id > 0; id = steps[id].parent {
			turns = append(turns, steps[id].turn)
		}
		for i, j := 0, len(turns)-1; i < j; i, j = i+1, j-1 {
			turns[i], turns[j] = turns[j], turns[i]
		}
		return pathOf(turns)
	}

	stack := []frame{{t.Root, 0}}
	for len(stack) > 0 {
		f := stack[len(stack)-1]
		stack = stack[:len(stack)-1]

		switch n := f.node.(type) {
		case *Split:
			if n == nil {
				return malformed(pathTo(f.id), "nil split")
			}
			if n.Feature == "" {
				return malformed(pathTo(f.id), "split has no feature")
			}
			if n.Left == nil || n.Right == nil {
				return malformed(pathTo(f.id), "split must have two children")
			}
			steps = append(steps, step{f.id, 'R'}, step{f.id, 'L'})
			stack = append(stack, frame{n.Right, len(steps) - 2}, frame{n.Left, len(steps) - 1})
		case *Leaf:
			if n == nil {
				return malformed(pathTo(f.id), "nil leaf")
			}
			if err := checkLeaf(n, ""); err != nil {
				var mt *MalformedTreeError
				if errors.As(err, &mt) {
					mt.Path = pathTo(f.id)
				}
				return err
			}
		default:
			return malformed(pathTo(f.id), "unknown node %T", f.node)
		}
	}
	return nil
}

// Classify walks the tree from the root. Ties (value == threshold) go left.
// Only the visited path is checked, so a malformed branch that is never taken
// does not fail the call; use Validate for a full check.
func (t *Tree) Classify(features Features) (Prediction, error) {
	if t == nil || t.Root == nil {
		return Prediction{}, malformed("root", "tree is empty")
	}

	var turns []byte
	node := t.Root
	for {
		switch n := node.(type) {
		case *Split:
			if n == nil {
				return Prediction{}, malformed(pathOf(turns), "nil split")
			}
			if features.Value(n.Feature) <= n.Threshold {
				node = n.Left
				turns = append(turns, 'L')
			} else {
				node = n.Right
				turns = append(turns, 'R')
			}
			if node == nil {
				return Prediction{}, malformed(pathOf(turns), "missing child")
			}
		case *Leaf:
			if n == nil {
				return Prediction{}, malformed(pathOf(turns), "nil leaf")
			}
			if err := checkLeaf(n, ""); err != nil {
				var mt *MalformedTreeError
				if errors.As(err, &mt) {
					mt.Path = pathOf(turns)
				}
				return Prediction{}, err
			}
			p := 1.0
			if len(n.Probabilities) == 2 {
				p = n.Probabilities[n.Class]
			}
			return Prediction{Class: n.Class, Probability: p}, nil
		default:
			return Prediction{}, malformed(pathOf(turns), "unknown node %T", node)
		}
	}
}

func pathOf(turns []byte) string {
	var b strings.Builder
	b.WriteString("root")
	for _, t := range turns {
		if t == 'L' {
			b.WriteString(".left")
		} else {
			b.WriteString(".right")
		}
	}
	return b.String()
}

// Depth returns the number of splits on the longest path.
func (t *Tree) Depth() int {
	if t == nil {
		return 0
	}
	type frame struct {
		node  Node
		depth int
	}
	deepest := 0
	stack := []frame{{t.Root, 0}}
	for len(stack) > 0 {
		f := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		s, ok := f.node.(*Split)
		if !ok || s == nil {
			if f.depth > deepest {
				deepest = f.depth
			}
			continue
		}
		stack = append(stack, frame{s.Left, f.depth + 1}, frame{s.Right, f.depth + 1})
	}
	return deepest
}
