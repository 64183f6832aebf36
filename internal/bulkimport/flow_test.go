package bulkimport

import (
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/fernleaf/nursery/internal/backend"
	"github.com/fernleaf/nursery/internal/notify"
	"gopkg.in/yaml.v3"
)

type fakeImporter struct {
	summary *backend.ImportSummary
	err     error
	gate    chan struct{}
	entered chan struct{}
	calls   int
	body    string
}

func (f *fakeImporter) ImportProducts(ctx context.Context, filename string, r io.Reader) (*backend.ImportSummary, error) {
	f.calls++
	data, _ := io.ReadAll(r)
	f.body = string(data)
	if f.entered != nil {
		close(f.entered)
	}
	if f.gate != nil {
		<-f.gate
	}
	return f.summary, f.err
}

type recordingNotifier struct {
	mu    sync.Mutex
	kinds []notify.Kind
	msgs  []string
}

func (n *recordingNotifier) Show(kind notify.Kind, message string, opts ...notify.Option) string {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.kinds = append(n.kinds, kind)
	n.msgs = append(n.msgs, message)
	return "id"
}

func csvFile(body string) File {
	return File{Name: "plants.csv", ContentType: "text/csv", Data: []byte(body)}
}

func intPtr(n int) *int { return &n }

func TestSubmitSuccess(t *testing.T) {
	importer := &fakeImporter{summary: &backend.ImportSummary{
		Imported: 2,
		Errors:   []backend.ImportError{{Line: intPtr(4), Message: "unknown category"}},
	}}
	notifier := &recordingNotifier{}
	flow := NewFlow(importer, WithNotifier(notifier))

	if err := flow.Select(csvFile("sku,name\n")); err != nil {
		t.Fatalf("Select: %v", err)
	}
	if s := flow.Status(); s.State != StateIdle || s.FileName != "plants.csv" {
		t.Fatalf("Unexpected status after Select: %+v", s)
	}

	result, err := flow.Submit(context.Background())
	if err != nil {
		t.Fatalf("Submit: %v", err)
	}
	if result.Imported != 2 || len(result.Errors) != 1 || *result.Errors[0].Line != 4 {
		t.Errorf("Unexpected result %+v", result)
	}
	if importer.body != "sku,name\n" {
		t.Errorf("Expected CSV forwarded untouched, got %q", importer.body)
	}

	status := flow.Status()
	if status.State != StateComplete || status.Result == nil || status.Result.Imported != 2 {
		t.Errorf("Unexpected status after Submit: %+v", status)
	}
	if len(notifier.kinds) != 1 || notifier.kinds[0] != notify.KindWarning {
		t.Errorf("Expected a warning notification for a partial import, got %v", notifier.kinds)
	}
}

func TestSubmitFailureIsNormalized(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want string
	}{
		{"api error", &backend.APIError{Status: 422, Message: "Missing column: price"}, "Missing column: price"},
		{"transport error", errors.New("failed to reach backend: connection refused"), "failed to reach backend: connection refused"},
		{"empty error", errors.New(""), backend.GenericFailure},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			notifier := &recordingNotifier{}
			flow := NewFlow(&fakeImporter{err: tt.err}, WithNotifier(notifier))
			flow.Select(csvFile("a,b\n"))

			result, err := flow.Submit(context.Background())
			if err != nil {
				t.Fatalf("Expected failures to be folded into the result, got %v", err)
			}
			if result.Imported != 0 || len(result.Errors) != 1 {
				t.Fatalf("Expected single-entry failure result, got %+v", result)
			}
			if result.Errors[0].Line != nil || result.Errors[0].Message != tt.want {
				t.Errorf("Expected message %q with no line, got %+v", tt.want, result.Errors[0])
			}
			if flow.Status().State != StateComplete {
				t.Errorf("Expected Complete after failure")
			}
			if len(notifier.kinds) != 1 || notifier.kinds[0] != notify.KindError {
				t.Errorf("Expected an error notification, got %v", notifier.kinds)
			}
		})
	}
}

func TestSubmitRequiresFile(t *testing.T) {
	importer := &fakeImporter{summary: &backend.ImportSummary{}}
	flow := NewFlow(importer)

	if _, err := flow.Submit(context.Background()); !errors.Is(err, ErrNoFile) {
		t.Fatalf("Expected ErrNoFile, got %v", err)
	}

	flow.Select(csvFile("x"))
	if _, err := flow.Submit(context.Background()); err != nil {
		t.Fatalf("Submit: %v", err)
	}

	// No retry without a fresh selection.
	if _, err := flow.Submit(context.Background()); !errors.Is(err, ErrNoFile) {
		t.Errorf("Expected ErrNoFile on resubmit, got %v", err)
	}
	if importer.calls != 1 {
		t.Errorf("Expected 1 backend call, got %d", importer.calls)
	}
}

func TestOnlyOneUploadInFlight(t *testing.T) {
	importer := &fakeImporter{
		summary: &backend.ImportSummary{Imported: 1},
		gate:    make(chan struct{}),
		entered: make(chan struct{}),
	}
	flow := NewFlow(importer)
	flow.Select(csvFile("x"))

	done := make(chan error, 1)
	go func() {
		_, err := flow.Submit(context.Background())
		done <- err
	}()
	<-importer.entered

	if s := flow.Status(); s.State != StateUploading {
		t.Errorf("Expected Uploading, got %s", s.State)
	}
	if _, err := flow.Submit(context.Background()); !errors.Is(err, ErrUploadInProgress) {
		t.Errorf("Expected ErrUploadInProgress, got %v", err)
	}
	if err := flow.Select(csvFile("y")); !errors.Is(err, ErrUploadInProgress) {
		t.Errorf("Expected Select to be refused while uploading, got %v", err)
	}

	close(importer.gate)
	if err := <-done; err != nil {
		t.Fatalf("Submit: %v", err)
	}
	if importer.calls != 1 {
		t.Errorf("Expected 1 backend call, got %d", importer.calls)
	}
}

func TestSelectResetsToIdle(t *testing.T) {
	flow := NewFlow(&fakeImporter{summary: &backend.ImportSummary{Imported: 3}})
	flow.Select(csvFile("x"))
	flow.Submit(context.Background())

	if err := flow.Select(csvFile("y")); err != nil {
		t.Fatalf("Select: %v", err)
	}
	s := flow.Status()
	if s.State != StateIdle || s.Result != nil {
		t.Errorf("Expected new selection to discard the old result, got %+v", s)
	}
}

func TestValidateFile(t *testing.T) {
	tests := []struct {
		name    string
		file    File
		wantErr error
	}{
		{"text/csv", File{Name: "a.csv", ContentType: "text/csv"}, nil},
		{"excel csv", File{Name: "a.csv", ContentType: "application/vnd.ms-excel"}, nil},
		{"charset param", File{Name: "a.csv", ContentType: "text/csv; charset=utf-8"}, nil},
		{"generic type with extension", File{Name: "A.CSV", ContentType: "application/octet-stream"}, nil},
		{"no type with extension", File{Name: "a.csv"}, nil},
		{"spreadsheet", File{Name: "a.xlsx", ContentType: "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"}, ErrNotCSV},
		{"image", File{Name: "a.csv", ContentType: "image/png"}, ErrNotCSV},
		{"too large", File{Name: "a.csv", ContentType: "text/csv", Data: make([]byte, MaxCSVBytes+1)}, ErrFileTooLarge},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateFile(tt.file, MaxCSVBytes)
			if tt.wantErr == nil && err != nil {
				t.Errorf("Expected no error, got %v", err)
			}
			if tt.wantErr != nil && !errors.Is(err, tt.wantErr) {
				t.Errorf("Expected %v, got %v", tt.wantErr, err)
			}
		})
	}
}

func TestInvalidSelectionClearsFile(t *testing.T) {
	flow := NewFlow(&fakeImporter{})
	flow.Select(csvFile("x"))

	if err := flow.Select(File{Name: "photo.jpg", ContentType: "image/jpeg"}); err == nil {
		t.Fatalf("Expected validation error")
	}
	if _, err := flow.Submit(context.Background()); !errors.Is(err, ErrNoFile) {
		t.Errorf("Expected ErrNoFile after invalid selection, got %v", err)
	}
}

func TestWriteReport(t *testing.T) {
	result := Result{
		Imported: 5,
		Errors: []LineError{
			{Line: intPtr(2), Message: "price must be positive"},
			{Message: "2 rows skipped"},
		},
	}
	dir := t.TempDir()

	yamlPath := filepath.Join(dir, "reports", "import.yaml")
	if err := WriteReport(yamlPath, "/data/plants.csv", result); err != nil {
		t.Fatalf("WriteReport yaml: %v", err)
	}

	data, err := os.ReadFile(yamlPath)
	if err != nil {
		t.Fatalf("ReadFile: %v", err)
	}
	var report Report
	if err := yaml.Unmarshal(data, &report); err != nil {
		t.Fatalf("yaml.Unmarshal: %v", err)
	}
	if report.File != "plants.csv" || report.Imported != 5 || report.ErrorCount != 2 || *report.Errors[0].Line != 2 {
		t.Errorf("Unexpected YAML report %+v", report)
	}

	parquetPath := filepath.Join(dir, "import.parquet")
	if err := WriteReport(parquetPath, "/data/plants.csv", result); err != nil {
		t.Fatalf("WriteReport parquet: %v", err)
	}
	rows, err := ReadParquetReport(parquetPath)
	if err != nil {
		t.Fatalf("ReadParquetReport: %v", err)
	}
	if len(rows) != 2 {
		t.Fatalf("Expected 2 rows, got %d", len(rows))
	}
	if rows[0].File != "plants.csv" || rows[0].Line == nil || *rows[0].Line != 2 {
		t.Errorf("Unexpected first row %+v", rows[0])
	}
	if rows[1].Line != nil || rows[1].Message != "2 rows skipped" {
		t.Errorf("Unexpected second row %+v", rows[1])
	}

	if err := WriteReport(filepath.Join(dir, "import.txt"), "plants.csv", result); err == nil || !strings.Contains(err.Error(), "unsupported") {
		t.Errorf("Expected unsupported format error, got %v", err)
	}
}
