package uploads

import (
	"bytes"
	"mime/multipart"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

// pngBytes is a minimal PNG payload; only the magic matters for sniffing.
var pngBytes = append([]byte("\x89PNG\r\n\x1a\n"), bytes.Repeat([]byte{0}, 16)...)

var gifBytes = append([]byte("GIF89a"), bytes.Repeat([]byte{0}, 16)...)

type fakeFile struct {
	*bytes.Reader
}

func (fakeFile) Close() error { return nil }

func upload(data []byte, name string) (multipart.File, *multipart.FileHeader) {
	return fakeFile{bytes.NewReader(data)}, &multipart.FileHeader{
		Filename: name,
		Size:     int64(len(data)),
	}
}

func setupStore(t *testing.T) *Store {
	t.Helper()
	store, err := NewStore(filepath.Join(t.TempDir(), "uploads"))
	if err != nil {
		t.Fatalf("new store: %v", err)
	}
	return store
}

func TestStage_AllowedImage(t *testing.T) {
	store := setupStore(t)

	file, header := upload(pngBytes, "cover.png")
	name, err := store.Stage(file, header)
	if err != nil {
		t.Fatalf("stage: %v", err)
	}
	if name == "" {
		t.Fatal("expected a staged filename")
	}
	if !strings.HasSuffix(name, ".png") {
		t.Errorf("name = %q, want .png suffix", name)
	}
	if !store.Exists(name) {
		t.Error("staged file should exist on disk")
	}

	got, err := os.ReadFile(store.Path(name))
	if err != nil {
		t.Fatalf("read staged file: %v", err)
	}
	if !bytes.Equal(got, pngBytes) {
		t.Error("staged file content differs from upload")
	}
}

func TestStage_GeneratesUniqueNames(t *testing.T) {
	store := setupStore(t)

	file1, header1 := upload(gifBytes, "same.gif")
	name1, err := store.Stage(file1, header1)
	if err != nil {
		t.Fatalf("stage first: %v", err)
	}

	file2, header2 := upload(gifBytes, "same.gif")
	name2, err := store.Stage(file2, header2)
	if err != nil {
		t.Fatalf("stage second: %v", err)
	}

	if name1 == name2 {
		t.Errorf("names should differ, both = %q", name1)
	}
}

func TestStage_DisallowedType(t *testing.T) {
	store := setupStore(t)

	// Plain text dressed up as an image. Sniffing decides, not the name.
	file, header := upload([]byte("not an image at all"), "sneaky.png")
	name, err := store.Stage(file, header)
	if err != nil {
		t.Fatalf("stage: %v", err)
	}
	if name != "" {
		t.Errorf("name = %q, want empty for rejected upload", name)
	}

	names, err := store.List()
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(names) != 0 {
		t.Errorf("files on disk = %d, want 0", len(names))
	}
}

func TestDiscard(t *testing.T) {
	store := setupStore(t)

	file, header := upload(pngBytes, "cover.png")
	name, _ := store.Stage(file, header)

	if err := store.Discard(name); err != nil {
		t.Fatalf("discard: %v", err)
	}
	if store.Exists(name) {
		t.Error("discarded file should be gone")
	}

	// Discarding again is not an error
	if err := store.Discard(name); err != nil {
		t.Errorf("second discard: %v", err)
	}

	// Empty name is a no-op
	if err := store.Discard(""); err != nil {
		t.Errorf("discard empty name: %v", err)
	}
}

func TestNewStore_CreatesDir(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "nested", "uploads")
	store, err := NewStore(dir)
	if err != nil {
		t.Fatalf("new store: %v", err)
	}
	if store.Dir() != dir {
		t.Errorf("dir = %q, want %q", store.Dir(), dir)
	}
	info, err := os.Stat(dir)
	if err != nil {
		t.Fatalf("stat dir: %v", err)
	}
	if !info.IsDir() {
		t.Error("upload path should be a directory")
	}
}
