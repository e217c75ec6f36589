package chmi

import (
	"context"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"
)

func newTestClient() *Client {
	c := NewClient(5*time.Second, 1000, 1000, slog.New(slog.DiscardHandler))
	c.backoff = time.Millisecond
	return c
}

const indexPage = `<html><body>
<a href="../">../</a>
<a href="T_PABV23_C_OKPR_20240601120000.hdf">T_PABV23_C_OKPR_20240601120000.hdf</a>
<a href="T_PABV23_C_OKPR_20240601121000.hdf">T_PABV23_C_OKPR_20240601121000.hdf</a>
<a href="checksums.txt">checksums.txt</a>
</body></html>`

func TestClient_ListFiles(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(indexPage))
	}))
	defer server.Close()

	files, err := newTestClient().ListFiles(context.Background(), server.URL+"/maxz/hdf5/")
	if err != nil {
		t.Fatalf("ListFiles failed: %v", err)
	}

	want := []string{
		server.URL + "/maxz/hdf5/T_PABV23_C_OKPR_20240601120000.hdf",
		server.URL + "/maxz/hdf5/T_PABV23_C_OKPR_20240601121000.hdf",
	}
	if len(files) != len(want) {
		t.Fatalf("expected %d files, got %d: %v", len(want), len(files), files)
	}
	for i := range want {
		if files[i] != want[i] {
			t.Errorf("files[%d] = %s, want %s", i, files[i], want[i])
		}
	}
}

func TestClient_ListFiles_ServerError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "nope", http.StatusNotFound)
	}))
	defer server.Close()

	if _, err := newTestClient().ListFiles(context.Background(), server.URL); err == nil {
		t.Fatal("expected error for 404 index")
	}
}

func TestClient_Download(t *testing.T) {
	payload := []byte{0x89, 0x48, 0x44, 0x46}
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write(payload)
	}))
	defer server.Close()

	destDir := t.TempDir()
	client := newTestClient()

	localPath, downloaded, err := client.Download(context.Background(),
		server.URL+"/T_PABV23_C_OKPR_20240601120000.hdf", destDir)
	if err != nil {
		t.Fatalf("Download failed: %v", err)
	}
	if !downloaded {
		t.Fatal("expected downloaded=true for a new file")
	}
	if filepath.Base(localPath) != "T_PABV23_C_OKPR_20240601120000.hdf" {
		t.Errorf("unexpected local name: %s", localPath)
	}

	data, err := os.ReadFile(localPath)
	if err != nil {
		t.Fatalf("failed to read downloaded file: %v", err)
	}
	if string(data) != string(payload) {
		t.Errorf("downloaded content mismatch: %v", data)
	}

	// Second download of the same file is skipped.
	_, downloaded, err = client.Download(context.Background(),
		server.URL+"/T_PABV23_C_OKPR_20240601120000.hdf", destDir)
	if err != nil {
		t.Fatalf("Download (existing) failed: %v", err)
	}
	if downloaded {
		t.Error("expected downloaded=false for an existing file")
	}

	// No stray .part file.
	if _, err := os.Stat(localPath + ".part"); !os.IsNotExist(err) {
		t.Errorf("temporary .part file left behind: %v", err)
	}
}

func TestClient_Download_RetriesServerErrors(t *testing.T) {
	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) < 3 {
			http.Error(w, "flaky", http.StatusServiceUnavailable)
			return
		}
		_, _ = w.Write([]byte("data"))
	}))
	defer server.Close()

	_, downloaded, err := newTestClient().Download(context.Background(),
		server.URL+"/file_20240601120000.hdf", t.TempDir())
	if err != nil {
		t.Fatalf("Download failed after retries: %v", err)
	}
	if !downloaded {
		t.Fatal("expected downloaded=true")
	}
	if got := calls.Load(); got != 3 {
		t.Errorf("expected 3 attempts, got %d", got)
	}
}

func TestClient_Download_NoRetryOnClientError(t *testing.T) {
	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		http.Error(w, "gone", http.StatusNotFound)
	}))
	defer server.Close()

	_, _, err := newTestClient().Download(context.Background(),
		server.URL+"/file_20240601120000.hdf", t.TempDir())
	if err == nil {
		t.Fatal("expected error for 404 download")
	}
	if got := calls.Load(); got != 1 {
		t.Errorf("expected a single attempt for 404, got %d", got)
	}
}

func TestExtractHrefs(t *testing.T) {
	hrefs := extractHrefs(`<a href="a.hdf">a</a> <a href="b.txt">b</a> <a href='unquoted'>`)
	if len(hrefs) != 2 || hrefs[0] != "a.hdf" || hrefs[1] != "b.txt" {
		t.Errorf("extractHrefs returned %v", hrefs)
	}
}
