package task

import (
	"encoding/json"
	"net/url"
	"strings"
	"testing"
	"time"
)

func TestParseDueDate(t *testing.T) {
	tests := []struct {
		in      string
		want    time.Time
		wantErr bool
	}{
		{in: "2026-05-01", want: time.Date(2026, 5, 1, 0, 0, 0, 0, time.UTC)},
		{in: "2026-05-01T10:30", want: time.Date(2026, 5, 1, 10, 30, 0, 0, time.UTC)},
		{in: "2026-05-01T10:30:15.5", want: time.Date(2026, 5, 1, 10, 30, 15, 500000000, time.UTC)},
		{in: "2026-05-01T10:30:00Z", want: time.Date(2026, 5, 1, 10, 30, 0, 0, time.UTC)},
		{in: "2026-05-01T10:30:00+09:00", want: time.Date(2026, 5, 1, 1, 30, 0, 0, time.UTC)},
		{in: "05/01/2026", wantErr: true},
		{in: "2026-13-01", wantErr: true},
		{in: "", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseDueDate(tt.in)
			if tt.wantErr {
				if err == nil {
					t.Errorf("ParseDueDate(%q) expected error", tt.in)
				}
				return
			}
			if err != nil {
				t.Fatalf("ParseDueDate(%q) error = %v", tt.in, err)
			}
			if !got.Equal(tt.want) {
				t.Errorf("ParseDueDate(%q) = %v, want %v", tt.in, got, tt.want)
			}
		})
	}
}

func TestOptionalString_DistinguishesAbsentNullAndValue(t *testing.T) {
	tests := []struct {
		body      string
		wantSet   bool
		wantValid bool
		wantValue string
	}{
		{body: `{}`},
		{body: `{"dueDate":null}`, wantSet: true},
		{body: `{"dueDate":"2026-05-01"}`, wantSet: true, wantValid: true, wantValue: "2026-05-01"},
	}

	for _, tt := range tests {
		t.Run(tt.body, func(t *testing.T) {
			var in UpdateInput
			if err := json.Unmarshal([]byte(tt.body), &in); err != nil {
				t.Fatalf("unmarshal: %v", err)
			}
			if in.DueDate.Set != tt.wantSet || in.DueDate.Valid != tt.wantValid || in.DueDate.Value != tt.wantValue {
				t.Errorf("DueDate = %+v", in.DueDate)
			}
		})
	}
}

func TestCreateInput_LengthLimits(t *testing.T) {
	long := strings.Repeat("あ", 201)
	desc := strings.Repeat("x", 1001)
	_, problems := CreateInput{Title: long, Description: &desc}.validate()

	want := []string{"Title cannot exceed 200 characters", "Description cannot exceed 1000 characters"}
	if len(problems) != len(want) {
		t.Fatalf("problems = %v, want %v", problems, want)
	}
	for i := range want {
		if problems[i] != want[i] {
			t.Errorf("problems[%d] = %q, want %q", i, problems[i], want[i])
		}
	}

	exact := strings.Repeat("あ", 200)
	if _, problems := (CreateInput{Title: exact}).validate(); len(problems) != 0 {
		t.Errorf("200 characters should be accepted, got %v", problems)
	}
}

func TestParseListQuery(t *testing.T) {
	values := url.Values{}
	values.Set("status", "done")
	values.Set("priority", "all")
	values.Set("search", "report")
	values.Set("sortBy", "dueDate")
	values.Set("sortOrder", "asc")
	values.Set("page", "2")

	got := ParseListQuery(values)

	want := ListQuery{Status: "done", Priority: "all", Search: "report", SortBy: "dueDate", SortOrder: "asc"}
	if got != want {
		t.Errorf("ParseListQuery() = %+v, want %+v", got, want)
	}
}
