package event

import "strings"

// Topic is a dot separated event name such as "code.konami".
type Topic string

// Wildcards accepted in subscription patterns.
const (
	// WildcardSingle matches exactly one segment.
	WildcardSingle = "*"
	// WildcardMulti matches zero or more trailing segments.
	WildcardMulti = "**"
)

// Segments splits the topic on dots.
func (t Topic) Segments() []string {
	if t == "" {
		return nil
	}
	return strings.Split(string(t), ".")
}

// Child appends a segment.
func (t Topic) Child(segment string) Topic {
	if t == "" {
		return Topic(segment)
	}
	return Topic(string(t) + "." + segment)
}

// IsPattern reports whether the topic contains wildcards.
func (t Topic) IsPattern() bool {
	for _, s := range t.Segments() {
		if s == WildcardSingle || s == WildcardMulti {
			return true
		}
	}
	return false
}

// Valid reports whether the topic is usable as a subscription pattern.
// Empty segments are rejected, and "**" may only appear last.
func (t Topic) Valid() bool {
	segs := t.Segments()
	if len(segs) == 0 {
		return false
	}
	for i, s := range segs {
		if s == "" {
			return false
		}
		if s == WildcardMulti && i != len(segs)-1 {
			return false
		}
	}
	return true
}

// Matches reports whether the concrete topic t matches pattern.
func (t Topic) Matches(pattern Topic) bool {
	return matchSegments(pattern.Segments(), t.Segments())
}

func matchSegments(pattern, topic []string) bool {
	for i, p := range pattern {
		if p == WildcardMulti {
			return true
		}
		if i >= len(topic) {
			return false
		}
		if p != WildcardSingle && p != topic[i] {
			return false
		}
	}
	return len(pattern) == len(topic)
}
