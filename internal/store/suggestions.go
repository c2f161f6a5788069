package store

import (
	"bufio"
	"os"
	"path/filepath"
	"strings"
)

// Suggestions are the owner and category hints offered by the add forms.
type Suggestions struct {
	Owners     []string
	Categories []string
}

// LoadSuggestions reads seed_owners.txt and seed_categories.txt from base,
// falling back to built-in defaults when a file is missing or empty.
func LoadSuggestions(base string) Suggestions {
	owners := readLines(filepath.Join(base, "seed_owners.txt"))
	cats := readLines(filepath.Join(base, "seed_categories.txt"))
	if len(owners) == 0 {
		owners = []string{"Bhavya", "Teja", "Bhanu"}
	}
	if len(cats) == 0 {
		cats = []string{"Interiors", "License", "F&B"}
	}
	return Suggestions{Owners: owners, Categories: cats}
}

func readLines(path string) []string {
	f, err := os.Open(path)
	if err != nil {
		return nil
	}
	defer f.Close()
	var out []string
	sc := bufio.NewScanner(f)
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		out = append(out, line)
	}
	return dedupe(out)
}

// dedupe drops blanks and repeats, preserving input order.
func dedupe(in []string) []string {
	seen := map[string]struct{}{}
	out := make([]string, 0, len(in))
	for _, v := range in {
		v = strings.TrimSpace(v)
		if v == "" {
			continue
		}
		if _, ok := seen[v]; ok {
			continue
		}
		seen[v] = struct{}{}
		out = append(out, v)
	}
	return out
}
