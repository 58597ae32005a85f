package vault

import (
	"bufio"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"
)

func TestWriteLetter(t *testing.T) {
	tmpDir := t.TempDir()
	v := NewVault(tmpDir)

	letter := Letter{
		Date:     "2024-03-15",
		Mode:     "contextual",
		Rule:     "sustained_low_continuing",
		Energy:   "low",
		Tags:     []string{"운동", "독서"},
		Memo:     "조금 지친 하루",
		Sentence: "요즘 계속 지쳐 있네요. 오늘은 푹 쉬어도 괜찮아요.",
		Card:     filepath.Join("Cards", "yojeom-eottae-20240315.png"),
		Created:  time.Date(2024, 3, 15, 13, 0, 0, 0, time.UTC),
	}

	relPath, err := v.WriteLetter(letter)
	if err != nil {
		t.Fatalf("writing letter: %v", err)
	}
	if relPath != filepath.Join("Letters", "Daily", "2024-03-15.md") {
		t.Errorf("unexpected path %s", relPath)
	}

	content, err := v.ReadLetter("2024-03-15")
	if err != nil {
		t.Fatalf("reading letter: %v", err)
	}

	for _, want := range []string{
		"date: 2024-03-15",
		"mode: contextual",
		"rule: sustained_low_continuing",
		"tags: [운동, 독서]",
		"created: 2024-03-15T13:00:00Z",
		"> 요즘 계속 지쳐 있네요.",
		"조금 지친 하루",
		"![[Cards/yojeom-eottae-20240315.png]]",
	} {
		if !strings.Contains(content, want) {
			t.Errorf("letter missing %q:\n%s", want, content)
		}
	}
	if !strings.HasPrefix(content, "---\n") {
		t.Error("letter should start with front matter")
	}
}

func TestWriteLetterRejectsBadDate(t *testing.T) {
	v := NewVault(t.TempDir())
	if _, err := v.WriteLetter(Letter{Date: "../../etc/passwd"}); err == nil {
		t.Error("expected error for invalid date")
	}
}

func TestLatestLetter(t *testing.T) {
	v := NewVault(t.TempDir())

	latest, err := v.LatestLetter()
	if err != nil || latest != "" {
		t.Fatalf("empty vault: got %q, %v", latest, err)
	}

	for _, d := range []string{"2024-03-13", "2024-03-15", "2024-03-14"} {
		if _, err := v.WriteLetter(Letter{Date: d, Sentence: "s"}); err != nil {
			t.Fatalf("writing letter: %v", err)
		}
	}

	latest, err = v.LatestLetter()
	if err != nil {
		t.Fatalf("latest letter: %v", err)
	}
	if filepath.Base(latest) != "2024-03-15.md" {
		t.Errorf("expected 2024-03-15.md, got %s", latest)
	}
}

func TestDownloadsSave(t *testing.T) {
	tmpDir := t.TempDir()
	v := NewVault(tmpDir)
	d := v.Downloads()

	path, err := d.Save("yojeom-eottae-20240315.png", []byte("png-bytes"))
	if err != nil {
		t.Fatalf("saving card: %v", err)
	}
	if path != filepath.Join(tmpDir, "Cards", "yojeom-eottae-20240315.png") {
		t.Errorf("unexpected path %s", path)
	}
	if v.Rel(path) != filepath.Join("Cards", "yojeom-eottae-20240315.png") {
		t.Errorf("unexpected relative path %s", v.Rel(path))
	}

	data, err := os.ReadFile(path)
	if err != nil || string(data) != "png-bytes" {
		t.Fatalf("reading card: %q, %v", data, err)
	}

	// same name overwrites
	if _, err := d.Save("yojeom-eottae-20240315.png", []byte("v2")); err != nil {
		t.Fatalf("overwriting card: %v", err)
	}
	data, _ = os.ReadFile(path)
	if string(data) != "v2" {
		t.Errorf("expected overwrite, got %q", data)
	}

	for _, bad := range []string{"", "..", "../escape.png", "a/b.png"} {
		if _, err := d.Save(bad, []byte("x")); err == nil {
			t.Errorf("expected error for name %q", bad)
		}
	}
}

func TestLogShareConcurrent(t *testing.T) {
	tmpDir := t.TempDir()
	v := NewVault(tmpDir)

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if err := v.LogShare(ShareLog{ID: "id", Date: "2024-03-15", Strategy: "download", Outcome: "downloaded"}); err != nil {
				t.Errorf("logging share: %v", err)
			}
		}()
	}
	wg.Wait()

	f, err := os.Open(filepath.Join(tmpDir, "Log", "shares.jsonl"))
	if err != nil {
		t.Fatalf("opening log: %v", err)
	}
	defer f.Close()

	lines := 0
	sc := bufio.NewScanner(f)
	for sc.Scan() {
		var entry ShareLog
		if err := json.Unmarshal(sc.Bytes(), &entry); err != nil {
			t.Fatalf("line %d is not valid JSON: %v", lines, err)
		}
		if entry.TS == "" {
			t.Error("timestamp should be filled in")
		}
		lines++
	}
	if lines != 20 {
		t.Errorf("expected 20 lines, got %d", lines)
	}
}

func TestWriteFileAtomicLeavesNoTempFiles(t *testing.T) {
	tmpDir := t.TempDir()
	path := filepath.Join(tmpDir, "nested", "file.txt")

	if err := WriteFileAtomic(path, []byte("hello")); err != nil {
		t.Fatalf("writing file: %v", err)
	}
	if !FileExists(path) {
		t.Fatal("file should exist")
	}

	entries, _ := os.ReadDir(filepath.Dir(path))
	if len(entries) != 1 {
		t.Errorf("expected only the target file, got %d entries", len(entries))
	}
}

func TestWritable(t *testing.T) {
	v := NewVault(t.TempDir())
	if !v.Writable() {
		t.Error("temp dir should be writable")
	}

	file := filepath.Join(t.TempDir(), "plain-file")
	if err := os.WriteFile(file, nil, 0644); err != nil {
		t.Fatal(err)
	}
	if NewVault(file).Writable() {
		t.Error("a file is not a writable vault")
	}
}
