// Package taskfile reads task documents and turns them into runnable tasks.
//
// A task document is JSON or YAML:
//
//	settings:
//	  seed: 42
//	  duration: 600
//	  breath_pause_length: 400
//	segments:
//	  - id: greeting
//	    text: Hello there
//	    audio: hello.mp3
//	    always: {weight: 2, cool_down: 3}
//	    sections:
//	      - {weight: 10, start: {percentage: 0.5}, end: {seconds: 400}}
//	    timestamps:
//	      - {seconds: 0}
//	effects:
//	  - {type: overlay, audio: rain.mp3, gain: -12}
//	  - {type: post_volume_gain, gain: 3}
package taskfile

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"

	"gopkg.in/yaml.v3"
)

// Document is the decoded task file.
type Document struct {
	Settings Settings  `json:"settings" yaml:"settings"`
	Segments []Segment `json:"segments" yaml:"segments"`
	Effects  []Effect  `json:"effects" yaml:"effects"`

	// Path is where the document was read from, for error messages.
	Path string `json:"-" yaml:"-"`
}

// Settings are the run parameters. Absent values are nil so that command
// line overrides and defaults can be told apart from explicit zeros.
type Settings struct {
	Seed              *int64   `json:"seed" yaml:"seed"`
	Duration          *float64 `json:"duration" yaml:"duration"`
	BreathPauseLength *int     `json:"breath_pause_length" yaml:"breath_pause_length"`
}

// Segment describes one clip and its scheduling rules.
type Segment struct {
	ID                 string      `json:"id" yaml:"id"`
	Text               *string     `json:"text" yaml:"text"`
	TextAppenderSymbol *string     `json:"text_appender_symbol" yaml:"text_appender_symbol"`
	Audio              string      `json:"audio" yaml:"audio"`
	Always             *Occurrence `json:"always" yaml:"always"`
	Sections           []Section   `json:"sections" yaml:"sections"`
	Timestamps         []Timestamp `json:"timestamps" yaml:"timestamps"`
}

// Occurrence is the weight and cooldown pair shared by always rules and
// sections. Both cooldown spellings are accepted.
type Occurrence struct {
	Weight   *int `json:"weight" yaml:"weight"`
	Cooldown *int `json:"cooldown" yaml:"cooldown"`
	CoolDown *int `json:"cool_down" yaml:"cool_down"`
}

// cooldown returns whichever spelling is set.
func (o Occurrence) cooldown() *int {
	if o.CoolDown != nil {
		return o.CoolDown
	}
	return o.Cooldown
}

// Section is a time window overriding a segment's weight and cooldown.
type Section struct {
	Occurrence `yaml:",inline"`
	Start      *Timestamp `json:"start" yaml:"start"`
	End        *Timestamp `json:"end" yaml:"end"`
}

// Timestamp is either absolute seconds or a fraction of the run duration.
type Timestamp struct {
	Seconds    *float64 `json:"seconds" yaml:"seconds"`
	Percentage *float64 `json:"percentage" yaml:"percentage"`
}

// Effect is a post-processing step.
type Effect struct {
	Type  string  `json:"type" yaml:"type"`
	Audio string  `json:"audio" yaml:"audio"`
	Gain  float64 `json:"gain" yaml:"gain"`
}

// Load reads and decodes a task file.
func Load(path string) (*Document, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close() //nolint:errcheck

	doc, err := Decode(f)
	if err != nil {
		var cfgErr *ConfigError
		if errors.As(err, &cfgErr) {
			cfgErr.Path = path
			return nil, cfgErr
		}
		return nil, err
	}
	doc.Path = path
	return doc, nil
}

// Decode parses a task document, JSON or YAML.
func Decode(r io.Reader) (*Document, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}
	data = bytes.TrimSpace(data)
	if len(data) == 0 {
		return nil, &ConfigError{Err: fmt.Errorf("%w: empty task file", ErrMissingField)}
	}

	var doc Document
	if data[0] == '{' {
		// Tab indented JSON is not valid YAML.
		err = json.Unmarshal(data, &doc)
	} else {
		err = yaml.Unmarshal(data, &doc)
	}
	if err != nil {
		return nil, &ConfigError{Err: fmt.Errorf("%w: %w", ErrInvalidValue, err)}
	}
	return &doc, nil
}
