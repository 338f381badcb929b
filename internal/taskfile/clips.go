package taskfile

import (
	"path/filepath"
	"slices"
	"strings"

	"github.com/muesli/gitcha"
	"github.com/sahilm/fuzzy"

	"github.com/dgnsrekt/murmur/internal/audio"
	"github.com/dgnsrekt/murmur/internal/effect"
)

// clipPatterns are the gitcha search patterns for decodable clips.
func clipPatterns() []string {
	patterns := make([]string, 0, len(audio.SupportedExtensions)*2)
	for _, ext := range audio.SupportedExtensions {
		patterns = append(patterns, "*"+ext, "*"+strings.ToUpper(ext))
	}
	return patterns
}

// Discover lists the clips under dir as slash separated paths relative to
// it, sorted.
func Discover(dir string) ([]string, error) {
	abs, err := filepath.Abs(dir)
	if err != nil {
		return nil, err
	}
	ch, err := gitcha.FindAllFilesExcept(abs, clipPatterns(), nil)
	if err != nil {
		return nil, err
	}

	var clips []string
	for res := range ch {
		if res.Info != nil && res.Info.IsDir() {
			continue
		}
		rel, err := filepath.Rel(abs, res.Path)
		if err != nil {
			continue
		}
		clips = append(clips, filepath.ToSlash(rel))
	}
	slices.Sort(clips)
	return slices.Compact(clips), nil
}

// Suggest returns up to n clips whose names fuzzy match name, best first.
func Suggest(name string, clips []string, n int) []string {
	matches := fuzzy.Find(strings.ToLower(filepath.ToSlash(name)), lowered(clips))
	out := make([]string, 0, n)
	for _, m := range matches {
		if len(out) == n {
			break
		}
		out = append(out, clips[m.Index])
	}
	return out
}

func lowered(in []string) []string {
	out := make([]string, len(in))
	for i, s := range in {
		out[i] = strings.ToLower(s)
	}
	return out
}

// ReferencedClips returns every clip the document names, in first use
// order.
func (d *Document) ReferencedClips() []string {
	var out []string
	seen := map[string]bool{}
	add := func(name string) {
		if name != "" && !seen[name] {
			seen[name] = true
			out = append(out, name)
		}
	}
	for _, seg := range d.Segments {
		add(seg.Audio)
	}
	for _, eff := range d.Effects {
		if effect.Type(eff.Type) == effect.TypeOverlay {
			add(eff.Audio)
		}
	}
	return out
}

// UnusedClips returns the discovered clips the document never references.
func (d *Document) UnusedClips(discovered []string) []string {
	used := map[string]bool{}
	for _, name := range d.ReferencedClips() {
		used[filepath.ToSlash(filepath.Clean(name))] = true
	}
	var out []string
	for _, clip := range discovered {
		if !used[clip] {
			out = append(out, clip)
		}
	}
	return out
}
