// Package editor hands one long questionnaire answer to the user's $EDITOR.
package editor

import (
	"bytes"
	"errors"
	"io/fs"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
)

const separator = "---"

// ComposeField creates the text presented to the editor for one field.
func ComposeField(field, label, value string) string {
	var b bytes.Buffer
	b.WriteString("# classkit questionnaire: " + field + "\n")
	if label != "" {
		b.WriteString("# " + label + "\n")
	}
	b.WriteString("# Lines starting with '#' above the separator are ignored.\n")
	b.WriteString("# Write the answer below '" + separator + "'. Markdown is fine.\n")
	b.WriteString(separator + "\n")
	if value != "" {
		if !strings.HasSuffix(value, "\n") {
			value += "\n"
		}
		b.WriteString(value)
	}
	return b.String()
}

// ParseField returns the text after the separator, trimmed. Without a
// separator every non-comment line is the answer.
func ParseField(s string) string {
	s = strings.ReplaceAll(s, "\r\n", "\n")
	lines := strings.Split(s, "\n")
	for i, line := range lines {
		if strings.TrimSpace(line) == separator {
			return strings.TrimSpace(strings.Join(lines[i+1:], "\n"))
		}
	}
	var kept []string
	for _, line := range lines {
		if strings.HasPrefix(strings.TrimSpace(line), "#") {
			continue
		}
		kept = append(kept, line)
	}
	return strings.TrimSpace(strings.Join(kept, "\n"))
}

// PreferredEditor finds a suitable editor from env or common defaults.
func PreferredEditor() (string, error) {
	if v := os.Getenv("VISUAL"); v != "" {
		return v, nil
	}
	if e := os.Getenv("EDITOR"); e != "" {
		return e, nil
	}
	for _, cand := range []string{"nvim", "vim", "vi", "nano"} {
		if p, err := exec.LookPath(cand); err == nil {
			return p, nil
		}
	}
	return "", errors.New("no editor found; set $EDITOR or $VISUAL")
}

// PathForField returns a temp file path for editing field.
func PathForField(field string) (string, error) {
	name := sanitize(field) + ".classkit.md"
	if xdg := os.Getenv("XDG_RUNTIME_DIR"); xdg != "" {
		return filepath.Join(xdg, "classkit", name), nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".cache", "classkit", "edit", name), nil
}

func sanitize(s string) string {
	var b strings.Builder
	for _, r := range strings.TrimSpace(s) {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '_':
			b.WriteRune(r)
		default:
			b.WriteByte('-')
		}
	}
	return b.String()
}

func writeFile0600(path string, data []byte) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return err
	}
	return os.WriteFile(path, data, fs.FileMode(0o600))
}

// OpenAt opens the editor at path with initial content and returns final bytes and whether it changed.
func OpenAt(path string, initial []byte) (final []byte, changed bool, err error) {
	if err := writeFile0600(path, initial); err != nil {
		return nil, false, err
	}
	defer os.Remove(path)

	// Honor VISUAL/EDITOR including flags by running via a shell wrapper.
	ed := os.Getenv("VISUAL")
	if ed == "" {
		ed = os.Getenv("EDITOR")
	}
	var cmd *exec.Cmd
	if strings.TrimSpace(ed) != "" {
		cmd = exec.Command("sh", "-c", "$EDITORCMD \"$FILEPATH\"")
		cmd.Env = append(os.Environ(), "EDITORCMD="+ed, "FILEPATH="+path)
	} else {
		prog, err := PreferredEditor()
		if err != nil {
			return nil, false, err
		}
		cmd = exec.Command(prog, path)
	}
	cmd.Stdin = os.Stdin
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr
	if err := cmd.Run(); err != nil {
		return nil, false, err
	}
	out, err := os.ReadFile(path)
	if err != nil {
		return nil, false, err
	}
	return out, !bytes.Equal(out, initial), nil
}
