package conversation

import (
	"io"
	"sync"

	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"
)

// Memory is the ordered, append-only record of a session's dialogue.
//
// Turns are never reordered or removed. There is no size cap; a long session
// grows without bound.
type Memory struct {
	mu    sync.RWMutex
	turns []Turn
}

func NewMemory() *Memory {
	return &Memory{}
}

// Append adds turns at the end of the log. Either all turns are appended or,
// if one of them is malformed, none are.
func (m *Memory) Append(turns ...Turn) error {
	for i, t := range turns {
		if err := t.Validate(); err != nil {
			return errors.Wrapf(err, "turn %d", i)
		}
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	m.turns = append(m.turns, turns...)
	return nil
}

// Snapshot returns a copy of the log in chronological order.
func (m *Memory) Snapshot() []Turn {
	m.mu.RLock()
	defer m.mu.RUnlock()

	out := make([]Turn, len(m.turns))
	copy(out, m.turns)
	return out
}

func (m *Memory) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.turns)
}

// Last returns the most recent turn, if any.
func (m *Memory) Last() (Turn, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if len(m.turns) == 0 {
		return Turn{}, false
	}
	return m.turns[len(m.turns)-1], true
}

type transcript struct {
	Version int    `yaml:"version"`
	Turns   []Turn `yaml:"turns"`
}

// WriteYAML writes the current transcript as a YAML document.
func (m *Memory) WriteYAML(w io.Writer) error {
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(transcript{Version: 1, Turns: m.Snapshot()}); err != nil {
		return errors.Wrap(err, "could not encode transcript")
	}
	return enc.Close()
}

// ReadTranscript parses a transcript written by WriteYAML.
func ReadTranscript(r io.Reader) ([]Turn, error) {
	var doc transcript
	if err := yaml.NewDecoder(r).Decode(&doc); err != nil {
		return nil, errors.Wrap(err, "could not decode transcript")
	}
	return doc.Turns, nil
}
