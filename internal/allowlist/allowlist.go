package allowlist

import (
	"errors"
	"fmt"
	"os"
	"strings"
)

// Render turns a set of CIDR ranges into the allow-list document. One
// `allow <cidr>;` line per entry in input order, terminated by `deny all;`
// so the snippet is safe to include directly in a proxy location block.
func Render(cidrs []string) string {
	var b strings.Builder

	for _, cidr := range cidrs {
		fmt.Fprintf(&b, "allow %s;\n", cidr)
	}
	b.WriteString("deny all;\n")

	return b.String()
}

// Seed reads the current content of the target file. A missing file seeds
// as empty, so the first successful fetch always counts as a change. Any
// other read error is surfaced to the caller.
func Seed(path string) (string, error) {
	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("failed to read allow file %s: %w", path, err)
	}
	return string(data), nil
}
