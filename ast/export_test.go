package ast

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/beevik/etree"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"
)

func TestExportText(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, Export(sample(), FormatText, &buf))
	assert.Equal(t, "( num:1 op:+ ( num:2 op:+ num:3 ) )\n", buf.String())
}

func TestExportJSON(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, Export(sample(), FormatJSON, &buf))

	var decoded map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &decoded))

	assert.Equal(t, "EXPR", decoded["rule"])
	assert.Equal(t, "add(1,3)", decoded["lambda"])
	assert.Equal(t, 0.0, decoded["alternative"])

	children, ok := decoded["children"].([]any)
	require.True(t, ok)
	require.Len(t, children, 3)

	first, ok := children[0].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, "num", first["type"])
	assert.Equal(t, "1", first["value"])
	assert.Equal(t, 1.0, first["column"])
}

func TestExportYAML(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, Export(sample(), FormatYAML, &buf))

	var decoded struct {
		Rule     string `yaml:"rule"`
		Lambda   string `yaml:"lambda"`
		Children []struct {
			Type     string `yaml:"type"`
			Value    string `yaml:"value"`
			Line     int    `yaml:"line"`
			Children []any  `yaml:"children"`
		} `yaml:"children"`
	}
	require.NoError(t, yaml.Unmarshal(buf.Bytes(), &decoded))

	assert.Equal(t, "EXPR", decoded.Rule)
	require.Len(t, decoded.Children, 3)
	assert.Equal(t, "+", decoded.Children[1].Value)
	assert.Equal(t, 1, decoded.Children[1].Line)
	assert.Len(t, decoded.Children[2].Children, 3)

	// keys keep their declaration order
	assert.True(t, bytes.Index(buf.Bytes(), []byte("rule:")) < bytes.Index(buf.Bytes(), []byte("lambda:")))
}

func TestExportXML(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, Export(sample(), FormatXML, &buf))

	doc := etree.NewDocument()
	require.NoError(t, doc.ReadFromBytes(buf.Bytes()))

	root := doc.SelectElement("branch")
	require.NotNil(t, root)
	assert.Equal(t, "EXPR", root.SelectAttrValue("rule", ""))

	leaves := root.SelectElements("leaf")
	require.Len(t, leaves, 2)
	assert.Equal(t, "1", leaves[0].Text())
	assert.Equal(t, "num", leaves[0].SelectAttrValue("type", ""))

	nested := root.SelectElement("branch")
	require.NotNil(t, nested)
	assert.Len(t, nested.SelectElements("leaf"), 3)
}

func TestParseFormat(t *testing.T) {
	f, err := ParseFormat("yaml")
	require.NoError(t, err)
	assert.Equal(t, FormatYAML, f)

	_, err = ParseFormat("csv")
	require.ErrorIs(t, err, ErrUnknownFormat)

	var buf bytes.Buffer
	require.ErrorIs(t, Export(sample(), Format("csv"), &buf), ErrUnknownFormat)
}
