// Package transcript renders the text that accompanies a generated sample:
// an info block built from a metadata document followed by the transcript.
package transcript

import (
	"errors"
	"fmt"
	"os"
	"strings"

	runewidth "github.com/mattn/go-runewidth"
	"github.com/muesli/reflow/wordwrap"
	"golang.org/x/text/unicode/norm"
	"gopkg.in/yaml.v3"
)

// CharacterSet draws the info block.
type CharacterSet struct {
	Corner     string
	Horizontal string
	Vertical   string
}

// Minimal uses plain ASCII.
var Minimal = CharacterSet{Corner: "#", Horizontal: "-", Vertical: "|"}

// Property is one line of the info block.
type Property struct {
	Key   string
	Value string
}

// Meta is an ordered list of properties.
type Meta []Property

// LoadMeta reads a YAML or JSON mapping, keeping its key order. A missing
// file yields empty metadata and an error matching os.ErrNotExist.
func LoadMeta(path string) (Meta, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return ParseMeta(data)
}

// ParseMeta decodes a mapping document. Non scalar values are rendered in
// YAML flow style.
func ParseMeta(data []byte) (Meta, error) {
	var root yaml.Node
	if err := yaml.Unmarshal(data, &root); err != nil {
		return nil, fmt.Errorf("parse meta: %w", err)
	}
	if root.Kind == 0 {
		return nil, nil
	}

	node := &root
	if node.Kind == yaml.DocumentNode && len(node.Content) > 0 {
		node = node.Content[0]
	}
	if node.Kind != yaml.MappingNode {
		return nil, errors.New("parse meta: document must be a mapping")
	}

	meta := make(Meta, 0, len(node.Content)/2)
	for i := 0; i+1 < len(node.Content); i += 2 {
		key, value := node.Content[i], node.Content[i+1]
		meta = append(meta, Property{Key: key.Value, Value: scalar(value)})
	}
	return meta, nil
}

func scalar(n *yaml.Node) string {
	if n.Kind == yaml.ScalarNode {
		return n.Value
	}
	n.Style = yaml.FlowStyle
	out, err := yaml.Marshal(n)
	if err != nil {
		return n.Value
	}
	return strings.TrimSpace(string(out))
}

// Generator assembles transcript files.
type Generator struct {
	Meta  Meta
	Chars CharacterSet
	Title string

	// Width wraps the transcript text when positive.
	Width int
	// Plain strips markdown from the transcript text.
	Plain bool
}

// NewGenerator returns a generator with the minimal character set.
func NewGenerator(meta Meta) *Generator {
	return &Generator{Meta: meta, Chars: Minimal, Title: "info"}
}

// Compile returns the info block, a blank line and the text.
func (g *Generator) Compile(text string) string {
	if g.Plain {
		text = Plain(text)
	}
	text = norm.NFC.String(text)
	if g.Width > 0 {
		text = wordwrap.String(text, g.Width)
	}
	return Block(Properties(g.Meta), g.Title, g.Chars, 1) + "\n\n" + text
}

// Properties lays out meta one per line with the separators aligned.
func Properties(meta Meta) string {
	width := 0
	for _, p := range meta {
		width = max(width, runewidth.StringWidth(p.Key))
	}

	lines := make([]string, len(meta))
	for i, p := range meta {
		lines[i] = runewidth.FillRight(p.Key, width) + " : " + p.Value
	}
	return strings.Join(lines, "\n")
}

// Block frames text with a titled border:
//
//	#--[ info ]------#
//	| key   : value  |
//	#----------------#
func Block(text, title string, cs CharacterSet, padding int) string {
	lines := strings.Split(text, "\n")

	inner := 0
	for _, line := range lines {
		inner = max(inner, runewidth.StringWidth(line)+2*padding)
	}

	header := strings.Repeat(cs.Horizontal, 2) + "[ " + title + " ]" + strings.Repeat(cs.Horizontal, 2)
	headerWidth := runewidth.StringWidth(header)
	if headerWidth >= inner {
		inner = headerWidth
	} else {
		header += strings.Repeat(cs.Horizontal, inner-headerWidth)
	}

	var b strings.Builder
	b.WriteString(cs.Corner + header + cs.Corner + "\n")

	pad := strings.Repeat(" ", padding)
	for _, line := range lines {
		b.WriteString(cs.Vertical + pad)
		b.WriteString(runewidth.FillRight(line, inner-2*padding))
		b.WriteString(pad + cs.Vertical + "\n")
	}

	b.WriteString(cs.Corner + strings.Repeat(cs.Horizontal, inner) + cs.Corner)
	return b.String()
}
