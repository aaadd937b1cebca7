// Package output provides adapters for writing application output.
package output

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"sort"
	"strings"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"github.com/MyCarrier-DevOps/gcl-context/internal/domain"
)

// Format selects how variables are rendered.
type Format string

// Supported output formats.
const (
	FormatDotenv Format = "dotenv"
	FormatYAML   Format = "yaml"
	FormatJSON   Format = "json"
)

// ParseFormat validates a format name.
func ParseFormat(name string) (Format, error) {
	switch f := Format(strings.ToLower(strings.TrimSpace(name))); f {
	case FormatDotenv, FormatYAML, FormatJSON:
		return f, nil
	default:
		return "", fmt.Errorf("%w: %q (want dotenv, yaml or json)", domain.ErrUnknownFormat, name)
	}
}

// Writer writes variables and repository contexts to the configured output destination.
// By default, it writes to stdout.
type Writer struct {
	out    io.Writer
	format Format
}

// NewWriter creates a new Writer that writes to stdout.
func NewWriter(format Format) *Writer {
	return &Writer{out: os.Stdout, format: format}
}

// NewWriterWithOutput creates a new Writer with a custom output destination.
// This is useful for testing.
func NewWriterWithOutput(out io.Writer, format Format) *Writer {
	return &Writer{out: out, format: format}
}

// WriteVariables writes vars sorted by name.
func (w *Writer) WriteVariables(vars map[string]string) error {
	switch w.format {
	case FormatYAML:
		return w.writeYAML(vars)
	case FormatJSON:
		return w.writeJSON(vars)
	default:
		return w.writeDotenv(vars)
	}
}

// WriteContext writes the raw repository context using its predefined key names.
// The dotenv format flattens the three groups into one list.
func (w *Writer) WriteContext(repoCtx domain.RepositoryContext) error {
	switch w.format {
	case FormatYAML:
		return w.writeYAML(repoCtx)
	case FormatJSON:
		return w.writeJSON(repoCtx)
	default:
		return w.writeDotenv(map[string]string{
			"SHA":               repoCtx.Commit.SHA,
			"SHORT_SHA":         repoCtx.Commit.ShortSHA,
			"REF_NAME":          repoCtx.Commit.RefName,
			"domain":            repoCtx.Remote.Domain,
			"group":             repoCtx.Remote.Group,
			"project":           repoCtx.Remote.Project,
			"GITLAB_USER_ID":    repoCtx.User.ID,
			"GITLAB_USER_LOGIN": repoCtx.User.Login,
			"GITLAB_USER_NAME":  repoCtx.User.Name,
			"GITLAB_USER_EMAIL": repoCtx.User.Email,
		})
	}
}

func (w *Writer) writeYAML(v any) error {
	enc := yaml.NewEncoder(w.out)
	enc.SetIndent(2)
	if err := enc.Encode(v); err != nil {
		return fmt.Errorf("failed to encode yaml: %w", err)
	}
	return enc.Close()
}

func (w *Writer) writeJSON(v any) error {
	enc := json.NewEncoder(w.out)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		return fmt.Errorf("failed to encode json: %w", err)
	}
	return nil
}

// dotenvEscaper escapes the characters that are special inside a
// double-quoted dotenv value.
var dotenvEscaper = strings.NewReplacer(
	`\`, `\\`,
	`"`, `\"`,
	"`", "\\`",
	`$`, `\$`,
	"\n", `\n`,
	"\r", `\r`,
)

// dotenvValue quotes value so godotenv reads it back unchanged. Literal
// single quotes are preferred over escaped double quotes. A bare value is
// the last resort for values ending in a quote or backslash. Each candidate
// is checked against the parser itself.
func dotenvValue(key, value string) (string, error) {
	candidates := make([]string, 0, 3)
	if !strings.Contains(value, "'") {
		candidates = append(candidates, "'"+value+"'")
	}
	candidates = append(candidates, `"`+dotenvEscaper.Replace(value)+`"`, value)

	for _, candidate := range candidates {
		parsed, err := godotenv.Unmarshal(key + "=" + candidate)
		if err == nil && len(parsed) == 1 && parsed[key] == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("%w: dotenv value of %s", domain.ErrUnrepresentable, key)
}

// writeDotenv writes KEY=value lines. Values are always quoted when the
// parser allows it, so numeric looking values such as short SHAs keep their
// leading zeros.
func (w *Writer) writeDotenv(vars map[string]string) error {
	keys := make([]string, 0, len(vars))
	for key := range vars {
		keys = append(keys, key)
	}
	sort.Strings(keys)

	var b strings.Builder
	for _, key := range keys {
		value, err := dotenvValue(key, vars[key])
		if err != nil {
			return err
		}
		fmt.Fprintf(&b, "%s=%s\n", key, value)
	}
	_, err := io.WriteString(w.out, b.String())
	return err
}
