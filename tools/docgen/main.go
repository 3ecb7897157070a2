// Copyright (c) 2026 Steve Taranto <staranto@gmail.com>.
// SPDX-License-Identifier: Apache-2.0

// docgen turns docs/commands/<cmd>.md into man pages and tldr pages.
//
//	docs/man/share/man1/locspoof-<cmd>.1  the whole markdown through md2man
//	docs/tldr/locspoof-<cmd>.md           short description + quick examples
package main

import (
	"bufio"
	"bytes"
	"errors"
	"flag"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"slices"
	"strings"

	md2man "github.com/cpuguy83/go-md2man/v2/md2man"

	"github.com/staranto/locspoof/internal/command"
	"github.com/staranto/locspoof/internal/meta"
)

const (
	binary  = "locspoof"
	homeURL = "https://github.com/staranto/locspoof"
)

// Section headings recognised in a command doc.
const (
	secShort    = "short description"
	secExamples = "quick examples"
)

var errNoDocs = errors.New("no command markdown found")

func main() {
	root := flag.String("root", ".", "repo root")
	onlyIfChanged := flag.Bool("only-if-changed", true, "only write files whose content changed")
	strict := flag.Bool("strict", false, "fail when a command has no doc")
	flag.Parse()

	n, err := generate(*root, *onlyIfChanged)
	if err != nil {
		fatalf("%v", err)
	}

	missing, err := undocumented(*root)
	if err != nil {
		fatalf("%v", err)
	}
	for _, m := range missing {
		fmt.Fprintf(os.Stderr, "warning: %s %s has no docs/commands/%s.md\n", binary, m, m)
	}
	if *strict && len(missing) > 0 {
		os.Exit(1)
	}

	fmt.Printf("generated docs for %d commands\n", n)
}

func fatalf(f string, a ...any) {
	fmt.Fprintf(os.Stderr, f+"\n", a...)
	os.Exit(1)
}

// example is one "# description" / "command" pair from the quick examples.
type example struct {
	Desc string
	Cmd  string
}

// page is a parsed command doc.
type page struct {
	Command  string
	Title    string
	Short    string
	Examples []example
}

// parsePage reads the title (first H1), the first paragraph under "Short
// description" and the first fenced block under "Quick examples".
func parsePage(cmd string, md string) page {
	p := page{Command: cmd}

	var (
		section string
		inFence bool
		fenced  []string
		short   []string
		doneEx  bool
	)

	sc := bufio.NewScanner(strings.NewReader(md))
	for sc.Scan() {
		line := strings.TrimRight(sc.Text(), "\r")
		trim := strings.TrimSpace(line)

		if strings.HasPrefix(trim, "```") {
			if inFence {
				inFence = false
				if section == secExamples && !doneEx {
					p.Examples = parseExamples(fenced)
					doneEx = true
				}
				continue
			}
			inFence = true
			fenced = fenced[:0]
			continue
		}
		if inFence {
			fenced = append(fenced, line)
			continue
		}

		if strings.HasPrefix(trim, "# ") && p.Title == "" {
			p.Title = strings.TrimSpace(trim[2:])
			continue
		}

		if h := headingOf(trim); h != "" {
			section = h
			continue
		}

		if section == secShort && p.Short == "" {
			if trim == "" {
				if len(short) > 0 {
					p.Short = strings.Join(short, " ")
				}
				continue
			}
			short = append(short, trim)
		}
	}
	if p.Short == "" && len(short) > 0 {
		p.Short = strings.Join(short, " ")
	}
	if p.Short == "" && p.Title != "" {
		p.Short = p.Title + "."
	}

	return p
}

// headingOf returns the lowercased section name when line is a heading, either
// a bare known heading or a "## "-style one.
func headingOf(line string) string {
	l := strings.ToLower(strings.TrimLeft(line, "# "))
	if l == secShort || l == secExamples || l == "synopsis" || l == "flags and related docs" {
		return l
	}
	if strings.HasPrefix(line, "##") {
		return l
	}
	return ""
}

func parseExamples(lines []string) []example {
	var (
		exs  []example
		desc string
	)
	for _, ln := range lines {
		s := strings.TrimSpace(ln)
		switch {
		case s == "":
			continue
		case strings.HasPrefix(s, "#"):
			desc = strings.TrimSpace(strings.TrimPrefix(s, "#"))
		default:
			if desc == "" {
				desc = "Example"
			}
			exs = append(exs, example{Desc: desc, Cmd: strings.Join(strings.Fields(s), " ")})
			desc = ""
		}
	}
	return exs
}

// tldr renders p in tldr-pages format.
func (p page) tldr() string {
	var b strings.Builder
	fmt.Fprintf(&b, "# %s-%s\n\n", binary, p.Command)

	short := p.Short
	if short == "" {
		short = binary + " " + p.Command
	}
	fmt.Fprintf(&b, "> %s\n> More information: %s.\n\n", short, homeURL)

	exs := p.Examples
	if len(exs) == 0 {
		exs = []example{{Desc: "Show help for the command", Cmd: binary + " " + p.Command + " --help"}}
	}
	for i, ex := range exs {
		if i > 0 {
			b.WriteString("\n")
		}
		fmt.Fprintf(&b, "- %s:\n\n`%s`\n", ex.Desc, ex.Cmd)
	}
	return b.String()
}

// generate renders the man and tldr pages for every doc under root and returns
// how many were processed.
func generate(root string, onlyIfChanged bool) (int, error) {
	docs, err := readDocs(root)
	if err != nil {
		return 0, err
	}
	if len(docs) == 0 {
		return 0, fmt.Errorf("%w under %s", errNoDocs, filepath.Join(root, "docs", "commands"))
	}

	manDir := filepath.Join(root, "docs", "man", "share", "man1")
	tldrDir := filepath.Join(root, "docs", "tldr")
	for _, d := range []string{manDir, tldrDir} {
		if err := os.MkdirAll(d, 0o755); err != nil {
			return 0, fmt.Errorf("creating %s: %w", d, err)
		}
	}

	cmds := make([]string, 0, len(docs))
	for cmd := range docs {
		cmds = append(cmds, cmd)
	}
	slices.Sort(cmds)

	for i, cmd := range cmds {
		raw := docs[cmd]
		manPath := filepath.Join(manDir, fmt.Sprintf("%s-%s.1", binary, cmd))
		if err := writeFileIfChanged(manPath, md2man.Render(raw), onlyIfChanged); err != nil {
			return i, fmt.Errorf("writing man page for %s: %w", cmd, err)
		}

		tldrPath := filepath.Join(tldrDir, fmt.Sprintf("%s-%s.md", binary, cmd))
		if err := writeFileIfChanged(tldrPath, []byte(parsePage(cmd, string(raw)).tldr()), onlyIfChanged); err != nil {
			return i, fmt.Errorf("writing tldr page for %s: %w", cmd, err)
		}
	}

	return len(cmds), nil
}

// readDocs returns the raw markdown of docs/commands/*.md keyed by command.
func readDocs(root string) (map[string][]byte, error) {
	dir := filepath.Join(root, "docs", "commands")
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("reading commands dir %s: %w", dir, err)
	}

	docs := make(map[string][]byte)
	for _, e := range entries {
		if e.IsDir() || filepath.Ext(e.Name()) != ".md" {
			continue
		}
		p := filepath.Join(dir, e.Name())
		raw, err := os.ReadFile(p)
		if err != nil {
			return nil, fmt.Errorf("reading %s: %w", p, err)
		}
		docs[strings.TrimSuffix(e.Name(), ".md")] = raw
	}
	return docs, nil
}

// undocumented lists the top level commands of the app that have no doc.
func undocumented(root string) ([]string, error) {
	docs, err := readDocs(root)
	if err != nil {
		return nil, err
	}

	var missing []string
	for _, c := range command.NewApp(meta.Meta{}).Commands {
		if c.Hidden {
			continue
		}
		if _, ok := docs[c.Name]; !ok {
			missing = append(missing, c.Name)
		}
	}
	slices.Sort(missing)
	return missing, nil
}

func writeFileIfChanged(path string, data []byte, onlyIfChanged bool) error {
	if onlyIfChanged {
		old, err := os.ReadFile(path)
		switch {
		case err == nil && bytes.Equal(bytes.TrimSpace(old), bytes.TrimSpace(data)):
			return nil
		case err != nil && !errors.Is(err, fs.ErrNotExist):
			return err
		}
	}
	return os.WriteFile(path, data, 0o644) //nolint:gosec
}
