// Package clipboard abstracts the system clipboard used by copy and paste.
package clipboard

import (
	"sync"

	atotto "github.com/atotto/clipboard"
)

// Clipboard reads and writes plain text.
type Clipboard interface {
	ReadAll() (string, error)
	WriteAll(text string) error
}

// System uses the platform clipboard (xclip/xsel/wl-clipboard, pbcopy, or the
// Windows API).
type System struct{}

// NewSystem returns the platform clipboard, or an in-memory fallback when the
// platform has none (headless sessions).
func NewSystem() Clipboard {
	if atotto.Unsupported {
		return &Memory{}
	}
	return System{}
}

func (System) ReadAll() (string, error) {
	return atotto.ReadAll()
}

func (System) WriteAll(text string) error {
	return atotto.WriteAll(text)
}

// Memory is a process-local clipboard.
type Memory struct {
	mu   sync.Mutex
	text string
	set  bool
}

func (m *Memory) ReadAll() (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if !m.set {
		return "", nil
	}
	return m.text, nil
}

func (m *Memory) WriteAll(text string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.text = text
	m.set = true
	return nil
}
