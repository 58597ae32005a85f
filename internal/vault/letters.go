package vault

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"
)

// Letter is the nightly note that keeps a day's sentence next to its record
type Letter struct {
	Date     string // YYYY-MM-DD
	Mode     string
	Rule     string
	Energy   string
	Tags     []string
	Memo     string
	Sentence string
	Card     string // vault-relative path of the rendered card, if any
	Created  time.Time
}

func letterPath(date string) string {
	return filepath.Join("Letters", "Daily", date+".md")
}

// WriteLetter writes Letters/Daily/{date}.md and returns the relative path
func (v *Vault) WriteLetter(letter Letter) (string, error) {
	if _, err := time.Parse("2006-01-02", letter.Date); err != nil {
		return "", fmt.Errorf("letter date %q: %w", letter.Date, err)
	}

	relPath := letterPath(letter.Date)
	fullPath := filepath.Join(v.basePath, relPath)

	if err := WriteFileAtomic(fullPath, []byte(buildLetterContent(letter))); err != nil {
		return "", fmt.Errorf("writing letter: %w", err)
	}

	return relPath, nil
}

func buildLetterContent(letter Letter) string {
	created := letter.Created
	if created.IsZero() {
		created = time.Now()
	}

	var b strings.Builder
	fmt.Fprintf(&b, "---\ndate: %s\nmode: %s\nrule: %s\nenergy: %s\n", letter.Date, letter.Mode, letter.Rule, letter.Energy)
	if len(letter.Tags) > 0 {
		fmt.Fprintf(&b, "tags: [%s]\n", strings.Join(letter.Tags, ", "))
	}
	fmt.Fprintf(&b, "created: %s\n---\n\n", created.UTC().Format(time.RFC3339))

	fmt.Fprintf(&b, "> %s\n", letter.Sentence)
	if letter.Memo != "" {
		fmt.Fprintf(&b, "\n%s\n", letter.Memo)
	}
	if letter.Card != "" {
		fmt.Fprintf(&b, "\n![[%s]]\n", filepath.ToSlash(letter.Card))
	}
	return b.String()
}

// ReadLetter reads the daily letter for date
func (v *Vault) ReadLetter(date string) (string, error) {
	content, err := os.ReadFile(filepath.Join(v.basePath, letterPath(date)))
	if err != nil {
		return "", fmt.Errorf("reading letter: %w", err)
	}
	return string(content), nil
}

// LatestLetter returns the path of the most recent daily letter, or "" if none
func (v *Vault) LatestLetter() (string, error) {
	dir := filepath.Join(v.basePath, "Letters", "Daily")
	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return "", nil
		}
		return "", err
	}

	// Files are named by date, so last alphabetically is most recent
	var latest string
	for _, e := range entries {
		if !e.IsDir() && filepath.Ext(e.Name()) == ".md" {
			latest = e.Name()
		}
	}
	if latest == "" {
		return "", nil
	}
	return filepath.Join(dir, latest), nil
}
