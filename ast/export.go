package ast

import (
	"errors"
	"fmt"
	"io"
	"strconv"

	"github.com/beevik/etree"
	"google.golang.org/protobuf/encoding/protojson"
	"google.golang.org/protobuf/types/known/structpb"
	"gopkg.in/yaml.v3"
)

// ErrUnknownFormat is returned for an unsupported export format.
var ErrUnknownFormat = errors.New("unknown export format")

// Format selects the output of Export.
type Format string

const (
	FormatText Format = "text"
	FormatJSON Format = "json"
	FormatYAML Format = "yaml"
	FormatXML  Format = "xml"
)

// ParseFormat validates a format name.
func ParseFormat(name string) (Format, error) {
	switch f := Format(name); f {
	case FormatText, FormatJSON, FormatYAML, FormatXML:
		return f, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnknownFormat, name)
	}
}

// Export writes the tree below n to w.
func Export(n *Node, format Format, w io.Writer) error {
	switch format {
	case FormatText:
		_, err := fmt.Fprintln(w, n.String())
		return err
	case FormatJSON:
		return exportJSON(n, w)
	case FormatYAML:
		return exportYAML(n, w)
	case FormatXML:
		return exportXML(n, w)
	default:
		return fmt.Errorf("%w: %q", ErrUnknownFormat, format)
	}
}

// field is one exported attribute of a node, kept in output order.
type field struct {
	key   string
	value any
}

func fields(n *Node) []field {
	var result []field

	if n.Rule != "" {
		result = append(result, field{"rule", n.Rule})
	}

	if n.Alternative != NoAlternative {
		result = append(result, field{"alternative", n.Alternative})
	}

	if n.Lambda != nil {
		result = append(result, field{"lambda", n.Lambda.String()})
	}

	if n.IsLeaf() {
		result = append(result,
			field{"type", n.Token.Type},
			field{"value", n.Token.Value},
			field{"line", n.Token.Position.StartLine + 1},
			field{"column", n.Token.Position.StartColumn + 1},
		)
	}

	return result
}

func exportJSON(n *Node, w io.Writer) error {
	s, err := structpb.NewStruct(toMap(n))
	if err != nil {
		return fmt.Errorf("failed to convert tree: %w", err)
	}

	data, err := protojson.MarshalOptions{Multiline: true, Indent: "  "}.Marshal(s)
	if err != nil {
		return fmt.Errorf("failed to marshal tree: %w", err)
	}

	_, err = w.Write(append(data, '\n'))

	return err
}

func toMap(n *Node) map[string]any {
	m := make(map[string]any)
	for _, f := range fields(n) {
		m[f.key] = f.value
	}

	if !n.IsLeaf() {
		children := make([]any, len(n.Children))
		for i, child := range n.Children {
			children[i] = toMap(child)
		}

		m["children"] = children
	}

	return m
}

func exportYAML(n *Node, w io.Writer) error {
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)

	if err := enc.Encode(toYAMLNode(n)); err != nil {
		return fmt.Errorf("failed to marshal tree: %w", err)
	}

	return enc.Close()
}

// toYAMLNode builds a mapping node so that keys keep their order.
func toYAMLNode(n *Node) *yaml.Node {
	node := &yaml.Node{Kind: yaml.MappingNode}

	for _, f := range fields(n) {
		value := &yaml.Node{Kind: yaml.ScalarNode}

		switch v := f.value.(type) {
		case int:
			value.Tag = "!!int"
			value.Value = strconv.Itoa(v)
		default:
			value.Tag = "!!str"
			value.Value = fmt.Sprint(v)
		}

		node.Content = append(node.Content, &yaml.Node{Kind: yaml.ScalarNode, Value: f.key}, value)
	}

	if !n.IsLeaf() {
		children := &yaml.Node{Kind: yaml.SequenceNode}
		for _, child := range n.Children {
			children.Content = append(children.Content, toYAMLNode(child))
		}

		node.Content = append(node.Content, &yaml.Node{Kind: yaml.ScalarNode, Value: "children"}, children)
	}

	return node
}

func exportXML(n *Node, w io.Writer) error {
	doc := etree.NewDocument()
	doc.CreateProcInst("xml", `version="1.0" encoding="UTF-8"`)
	appendElement(&doc.Element, n)
	doc.Indent(2)

	_, err := doc.WriteTo(w)

	return err
}

func appendElement(parent *etree.Element, n *Node) {
	name := "branch"
	if n.IsLeaf() {
		name = "leaf"
	}

	elem := parent.CreateElement(name)

	for _, f := range fields(n) {
		if f.key == "value" {
			continue
		}

		elem.CreateAttr(f.key, fmt.Sprint(f.value))
	}

	if n.IsLeaf() {
		elem.SetText(n.Token.Value)
		return
	}

	for _, child := range n.Children {
		appendElement(elem, child)
	}
}
