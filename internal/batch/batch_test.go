package batch

import (
	"os"
	"path/filepath"
	"testing"

	"mcarptif/pkg/config"
)

const sampleDat = `Name: s1
Capacity: 10
Depot Node: 1
ReN.
ReE.
E1 1 2 5 3 1
E2 2 3 7 2 1
ReA.
ARC
EDGE
`

func writeInstance(t *testing.T, dir, name, body string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}
	return path
}

func TestRun_ProcessesEveryInstanceAndWritesPrefixedOutput(t *testing.T) {
	inDir := t.TempDir()
	outDir := filepath.Join(t.TempDir(), "out")

	writeInstance(t, inDir, "egl-s1.dat", sampleDat)
	writeInstance(t, inDir, "egl-s2.dat", sampleDat)

	summary, err := Run(Options{
		InputDir:         inDir,
		OutputDir:        outDir,
		OutputFilePrefix: "sol-",
		WorkerPoolSize:   1,
		VNDMaxIterations: 3,
	})
	if err != nil {
		t.Fatalf("Run returned error: %v", err)
	}
	if summary.FilesFound != 2 || summary.FilesSucceeded != 2 || summary.FilesFailed != 0 {
		t.Fatalf("summary = %+v, want found=2 succeeded=2 failed=0", summary)
	}

	for _, name := range []string{"sol-egl-s1.dat", "sol-egl-s2.dat"} {
		if _, err := os.Stat(filepath.Join(outDir, name)); err != nil {
			t.Errorf("expected output file %s: %v", name, err)
		}
	}
}

func TestRun_MissingInputDirIsFatal(t *testing.T) {
	_, err := Run(Options{
		InputDir:  filepath.Join(t.TempDir(), "does-not-exist"),
		OutputDir: t.TempDir(),
	})
	if err == nil {
		t.Fatal("expected an error for a missing input directory")
	}
}

func TestRun_EmptyInputDirSucceedsWithZeroFiles(t *testing.T) {
	summary, err := Run(Options{
		InputDir:  t.TempDir(),
		OutputDir: filepath.Join(t.TempDir(), "out"),
	})
	if err != nil {
		t.Fatalf("Run returned error: %v", err)
	}
	if summary.FilesFound != 0 {
		t.Errorf("FilesFound = %d, want 0", summary.FilesFound)
	}
}

func TestRun_IsolatesPerFileFailures(t *testing.T) {
	if os.Getuid() == 0 {
		t.Skip("permission-based unreadable file has no effect when running as root")
	}

	inDir := t.TempDir()
	outDir := filepath.Join(t.TempDir(), "out")

	writeInstance(t, inDir, "good.dat", sampleDat)

	badPath := writeInstance(t, inDir, "unreadable.dat", sampleDat)
	if err := os.Chmod(badPath, 0o000); err != nil {
		t.Fatalf("Chmod: %v", err)
	}
	t.Cleanup(func() { os.Chmod(badPath, 0o644) })

	summary, err := Run(Options{
		InputDir:         inDir,
		OutputDir:        outDir,
		OutputFilePrefix: "sol-",
		WorkerPoolSize:   1,
		VNDMaxIterations: 3,
	})
	if err != nil {
		t.Fatalf("Run returned error: %v", err)
	}
	if summary.FilesSucceeded != 1 || summary.FilesFailed != 1 {
		t.Errorf("summary = %+v, want succeeded=1 failed=1", summary)
	}
	if _, err := os.Stat(filepath.Join(outDir, "sol-good.dat")); err != nil {
		t.Errorf("expected sol-good.dat to still be written despite the sibling failure: %v", err)
	}
}

func TestSortedDatFiles_NumericOrderingWithNonNumericLast(t *testing.T) {
	dir := t.TempDir()
	for _, name := range []string{"egl-s10.dat", "egl-s2.dat", "notes.dat", "egl-s1.dat"} {
		writeInstance(t, dir, name, sampleDat)
	}
	entries, err := os.ReadDir(dir)
	if err != nil {
		t.Fatalf("ReadDir: %v", err)
	}

	got := sortedDatFiles(entries)
	want := []string{"egl-s1.dat", "egl-s2.dat", "egl-s10.dat", "notes.dat"}
	if len(got) != len(want) {
		t.Fatalf("got %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("position %d: got %q, want %q", i, got[i], want[i])
		}
	}
}

func TestSortedDatFiles_IgnoresNonDatFiles(t *testing.T) {
	dir := t.TempDir()
	writeInstance(t, dir, "egl-s1.dat", sampleDat)
	writeInstance(t, dir, "readme.txt", "not an instance")

	des, err := os.ReadDir(dir)
	if err != nil {
		t.Fatalf("ReadDir: %v", err)
	}

	got := sortedDatFiles(des)
	if len(got) != 1 || got[0] != "egl-s1.dat" {
		t.Errorf("got %v, want [egl-s1.dat]", got)
	}
}

func TestOptionsFromConfig_DefaultsPrefixWhenBlank(t *testing.T) {
	cfg := &config.Config{
		Batch: config.BatchConfig{
			InputDir:  "/in",
			OutputDir: "/out",
		},
	}

	opts := OptionsFromConfig(cfg)
	if opts.OutputFilePrefix != "sol-" {
		t.Errorf("OutputFilePrefix = %q, want default %q", opts.OutputFilePrefix, "sol-")
	}
	if opts.InputDir != "/in" || opts.OutputDir != "/out" {
		t.Errorf("InputDir/OutputDir = %q/%q, want /in//out", opts.InputDir, opts.OutputDir)
	}
}

func TestOptionsFromConfig_KeepsExplicitPrefix(t *testing.T) {
	cfg := &config.Config{
		Batch: config.BatchConfig{OutputFilePrefix: "out-"},
	}

	opts := OptionsFromConfig(cfg)
	if opts.OutputFilePrefix != "out-" {
		t.Errorf("OutputFilePrefix = %q, want out-", opts.OutputFilePrefix)
	}
}
