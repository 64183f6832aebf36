package pagination

import (
	"net/url"
	"testing"

	"github.com/google/go-cmp/cmp"
)

var (
	gapStart = Entry{Ellipsis: EllipsisStart}
	gapEnd   = Entry{Ellipsis: EllipsisEnd}
)

func pages(nums ...int) []Entry {
	out := make([]Entry, 0, len(nums))
	for _, n := range nums {
		out = append(out, Page(n))
	}
	return out
}

func join(parts ...[]Entry) []Entry {
	var out []Entry
	for _, p := range parts {
		out = append(out, p...)
	}
	return out
}

func TestComputeWindow(t *testing.T) {
	tests := []struct {
		name       string
		current    int
		total      int
		maxVisible int
		want       []Entry
	}{
		{
			name:       "no pages",
			current:    1,
			total:      0,
			maxVisible: 5,
			want:       nil,
		},
		{
			name:       "single page renders nothing",
			current:    1,
			total:      1,
			maxVisible: 5,
			want:       nil,
		},
		{
			name:       "centered window",
			current:    5,
			total:      10,
			maxVisible: 5,
			want:       join(pages(1), []Entry{gapStart}, pages(3, 4, 5, 6, 7), []Entry{gapEnd}, pages(10)),
		},
		{
			name:       "first page widens to the right",
			current:    1,
			total:      10,
			maxVisible: 5,
			want:       join(pages(1, 2, 3, 4, 5), []Entry{gapEnd}, pages(10)),
		},
		{
			name:       "last page widens to the left",
			current:    10,
			total:      10,
			maxVisible: 5,
			want:       join(pages(1), []Entry{gapStart}, pages(6, 7, 8, 9, 10)),
		},
		{
			name:       "single skipped page at the start has no ellipsis",
			current:    4,
			total:      10,
			maxVisible: 5,
			want:       join(pages(1, 2, 3, 4, 5, 6), []Entry{gapEnd}, pages(10)),
		},
		{
			name:       "single skipped page at the end has no ellipsis",
			current:    7,
			total:      10,
			maxVisible: 5,
			want:       join(pages(1), []Entry{gapStart}, pages(5, 6, 7, 8, 9, 10)),
		},
		{
			name:       "fewer pages than the window",
			current:    2,
			total:      3,
			maxVisible: 5,
			want:       pages(1, 2, 3),
		},
		{
			name:       "current page clamped high",
			current:    42,
			total:      10,
			maxVisible: 5,
			want:       join(pages(1), []Entry{gapStart}, pages(6, 7, 8, 9, 10)),
		},
		{
			name:       "current page clamped low",
			current:    -3,
			total:      10,
			maxVisible: 5,
			want:       join(pages(1, 2, 3, 4, 5), []Entry{gapEnd}, pages(10)),
		},
		{
			name:       "zero width uses the default",
			current:    5,
			total:      10,
			maxVisible: 0,
			want:       join(pages(1), []Entry{gapStart}, pages(3, 4, 5, 6, 7), []Entry{gapEnd}, pages(10)),
		},
		{
			name:       "width of three",
			current:    5,
			total:      9,
			maxVisible: 3,
			want:       join(pages(1), []Entry{gapStart}, pages(4, 5, 6), []Entry{gapEnd}, pages(9)),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ComputeWindow(tt.current, tt.total, tt.maxVisible)
			if diff := cmp.Diff(tt.want, got); diff != "" {
				t.Errorf("ComputeWindow(%d, %d, %d) mismatch (-want +got):\n%s", tt.current, tt.total, tt.maxVisible, diff)
			}
		})
	}
}

func TestComputeWindowInvariants(t *testing.T) {
	for total := 0; total <= 25; total++ {
		for current := -1; current <= total+2; current++ {
			for _, maxVisible := range []int{1, 3, 5, 7, 9} {
				window := ComputeWindow(current, total, maxVisible)

				if total <= 1 {
					if len(window) != 0 {
						t.Fatalf("total=%d: expected empty window, got %v", total, window)
					}
					continue
				}

				last := 0
				var seen []int
				for _, e := range window {
					if e.IsEllipsis() {
						continue
					}
					if e.Page <= last {
						t.Fatalf("(%d, %d, %d): pages not strictly increasing: %v", current, total, maxVisible, window)
					}
					last = e.Page
					seen = append(seen, e.Page)
				}

				if seen[0] != 1 || seen[len(seen)-1] != total {
					t.Fatalf("(%d, %d, %d): first/last page missing: %v", current, total, maxVisible, window)
				}

				clamped := min(max(current, 1), total)
				found := false
				for _, p := range seen {
					if p == clamped {
						found = true
					}
				}
				if !found {
					t.Fatalf("(%d, %d, %d): current page %d missing: %v", current, total, maxVisible, clamped, window)
				}

				again := ComputeWindow(current, total, maxVisible)
				if diff := cmp.Diff(window, again); diff != "" {
					t.Fatalf("(%d, %d, %d): not idempotent:\n%s", current, total, maxVisible, diff)
				}
			}
		}
	}
}

func TestFormat(t *testing.T) {
	got := Format(ComputeWindow(5, 10, 5), 5)
	want := "1 … 3 4 [5] 6 7 … 10"
	if got != want {
		t.Errorf("Expected %q, got %q", want, got)
	}
}

func TestParseParams(t *testing.T) {
	tests := []struct {
		name  string
		query string
		want  Params
	}{
		{"defaults", "", Params{Page: 1, PerPage: 20}},
		{"explicit", "page=3&per_page=50", Params{Page: 3, PerPage: 50}},
		{"capped", "page=2&per_page=500", Params{Page: 2, PerPage: 100}},
		{"garbage", "page=abc&per_page=-4", Params{Page: 1, PerPage: 20}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			q, err := url.ParseQuery(tt.query)
			if err != nil {
				t.Fatalf("ParseQuery: %v", err)
			}
			if got := ParseParams(q, 20, 100); got != tt.want {
				t.Errorf("Expected %+v, got %+v", tt.want, got)
			}
		})
	}
}

func TestTotalPages(t *testing.T) {
	tests := []struct {
		items   int64
		perPage int
		want    int
	}{
		{0, 10, 0},
		{1, 10, 1},
		{10, 10, 1},
		{11, 10, 2},
		{95, 20, 5},
		{5, 0, 0},
	}
	for _, tt := range tests {
		if got := TotalPages(tt.items, tt.perPage); got != tt.want {
			t.Errorf("TotalPages(%d, %d): expected %d, got %d", tt.items, tt.perPage, tt.want, got)
		}
	}
}
