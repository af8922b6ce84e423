package message

import (
	"encoding/json"
	"fmt"
	"strings"
)

// Severity ranks a message.
type Severity string

const (
	SeverityInfo    Severity = "info"
	SeverityWarning Severity = "warning"
	SeverityError   Severity = "error"
	SeverityFatal   Severity = "fatal"
)

// Message is a resolved message. Source names what the message is about,
// for example the bound field, and is empty for global messages.
type Message struct {
	Source   string   `json:"source,omitempty"`
	Code     string   `json:"code,omitempty"`
	Severity Severity `json:"severity"`
	Text     string   `json:"text"`
}

func (m Message) String() string {
	if m.Source == "" {
		return fmt.Sprintf("[%s] %s", m.Severity, m.Text)
	}
	return fmt.Sprintf("[%s] %s: %s", m.Severity, m.Source, m.Text)
}

// Source looks up the text template of a code.
type Source interface {
	Lookup(code string) (string, bool)
}

// Bundle is a Source backed by a map of code to fmt template.
type Bundle map[string]string

// Lookup implements Source.
func (b Bundle) Lookup(code string) (string, bool) {
	text, ok := b[code]
	return text, ok
}

// Resolver describes a message to resolve later against a Source.
type Resolver struct {
	Source      string
	Codes       []string
	Severity    Severity
	Args        []any
	DefaultText string
}

// Resolve returns the message for the first code src knows. Without a
// match it falls back to DefaultText, then to the last code.
func (r *Resolver) Resolve(src Source) Message {
	m := Message{Source: r.Source, Severity: r.Severity}
	if m.Severity == "" {
		m.Severity = SeverityInfo
	}
	if src != nil {
		for _, code := range r.Codes {
			if tmpl, ok := src.Lookup(code); ok {
				m.Code = code
				m.Text = format(tmpl, r.Args)
				return m
			}
		}
	}
	if len(r.Codes) > 0 {
		m.Code = r.Codes[len(r.Codes)-1]
	}
	m.Text = r.DefaultText
	if m.Text == "" {
		m.Text = m.Code
	}
	return m
}

func format(tmpl string, args []any) string {
	if len(args) == 0 || !strings.Contains(tmpl, "%") {
		return tmpl
	}
	return fmt.Sprintf(tmpl, args...)
}

// Context accumulates the messages of one request. It is not safe for
// concurrent use.
type Context struct {
	src       Source
	resolvers []*Resolver
}

// NewContext creates an empty context resolving against src, which may be nil.
func NewContext(src Source) *Context {
	return &Context{src: src}
}

// SetSource sets the source messages are resolved against.
func (c *Context) SetSource(src Source) {
	c.src = src
}

// Add records r.
func (c *Context) Add(r *Resolver) {
	c.resolvers = append(c.resolvers, r)
}

// Info, Warning and Error add a global message with the given text.
func (c *Context) Info(text string)    { c.Add(&Resolver{Severity: SeverityInfo, DefaultText: text}) }
func (c *Context) Warning(text string) { c.Add(&Resolver{Severity: SeverityWarning, DefaultText: text}) }
func (c *Context) Error(text string)   { c.Add(&Resolver{Severity: SeverityError, DefaultText: text}) }

// Len returns the number of recorded messages.
func (c *Context) Len() int { return len(c.resolvers) }

// Messages resolves every recorded message in insertion order against the
// context's own source.
func (c *Context) Messages() []Message {
	return c.Resolve(c.src)
}

// Resolve resolves every recorded message against src, falling back to the
// context's own source when src is nil.
func (c *Context) Resolve(src Source) []Message {
	if src == nil {
		src = c.src
	}
	if len(c.resolvers) == 0 {
		return nil
	}
	out := make([]Message, len(c.resolvers))
	for i, r := range c.resolvers {
		out[i] = r.Resolve(src)
	}
	return out
}

// BySource resolves the messages about source.
func (c *Context) BySource(source string) []Message {
	var out []Message
	for _, r := range c.resolvers {
		if r.Source == source {
			out = append(out, r.Resolve(c.src))
		}
	}
	return out
}

// HasErrors reports whether an error or fatal message was recorded.
func (c *Context) HasErrors() bool {
	for _, r := range c.resolvers {
		if r.Severity == SeverityError || r.Severity == SeverityFatal {
			return true
		}
	}
	return false
}

// MarshalJSON encodes the resolved messages.
func (c *Context) MarshalJSON() ([]byte, error) {
	return json.Marshal(c.Messages())
}
