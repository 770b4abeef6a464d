// Package featureflags evaluates the FEATURE_FLAGS setting.
package featureflags

import (
	"fmt"
	"hash/fnv"
	"strconv"
	"strings"
)

// Known flags.
const (
	// MarkdownContent adds a sanitized content_html rendering to post payloads.
	MarkdownContent = "markdown_content"
	// StrictRateLimit rejects rate-limited requests when Redis is unavailable
	// instead of letting them through.
	StrictRateLimit = "strict_rate_limit"
)

// rule is a parsed flag value: a rollout percentage where 0 is off and 100 is on.
type rule struct {
	raw     string
	percent int
}

// Manager evaluates feature flags defined in a key=value list such as
// "markdown_content=on,strict_rate_limit=25%". Values that cannot be parsed
// leave the flag off.
type Manager struct {
	flags map[string]rule
}

// NewManager creates a feature-flag manager from a comma-separated config string.
func NewManager(raw string) *Manager {
	out := make(map[string]rule)

	for _, pair := range strings.Split(raw, ",") {
		key, value, ok := strings.Cut(pair, "=")
		if !ok {
			continue
		}
		key, value = normalize(key), normalize(value)
		if key == "" || value == "" {
			continue
		}
		out[key] = rule{raw: value, percent: parsePercent(value)}
	}

	return &Manager{flags: out}
}

func parsePercent(value string) int {
	switch value {
	case "on", "true", "1":
		return 100
	case "off", "false", "0":
		return 0
	}
	pct, err := strconv.Atoi(strings.TrimSuffix(value, "%"))
	if err != nil || !strings.HasSuffix(value, "%") {
		return 0
	}
	return min(max(pct, 0), 100)
}

// Enabled returns whether name is on for userID. Partial rollouts are
// deterministic per user and never include anonymous callers (userID 0).
func (m *Manager) Enabled(name string, userID uint) bool {
	if m == nil {
		return false
	}
	r, ok := m.flags[normalize(name)]
	if !ok {
		return false
	}

	switch {
	case r.percent <= 0:
		return false
	case r.percent >= 100:
		return true
	case userID == 0:
		return false
	}
	return rolloutBucket(name, userID) < r.percent
}

// Global reports whether name is fully on, for decisions with no user.
func (m *Manager) Global(name string) bool {
	if m == nil {
		return false
	}
	return m.flags[normalize(name)].percent >= 100
}

// Raw returns a copy of the configured flag values.
func (m *Manager) Raw() map[string]string {
	out := make(map[string]string, len(m.flags))
	for k, r := range m.flags {
		out[k] = r.raw
	}
	return out
}

// Snapshot returns evaluated flag status for one user.
func (m *Manager) Snapshot(userID uint) map[string]bool {
	out := make(map[string]bool, len(m.flags))
	for name := range m.flags {
		out[name] = m.Enabled(name, userID)
	}
	return out
}

func normalize(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

func rolloutBucket(name string, userID uint) int {
	h := fnv.New32a()
	_, _ = fmt.Fprintf(h, "%s:%d", normalize(name), userID)
	return int(h.Sum32() % 100)
}
