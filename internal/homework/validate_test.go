package homework

import (
	"errors"
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/google/go-cmp/cmp"
)

func mustParse(t *testing.T, body string) *StatusRecord {
	t.Helper()
	rec, err := ParseStatusRecord([]byte(body))
	if err != nil {
		t.Fatalf("ParseStatusRecord(%s): %v", body, err)
	}
	return rec
}

func TestValidateReturnsEntriesInOrder(t *testing.T) {
	t.Parallel()
	rec := mustParse(t, `{"homeworks":[{"homework_name":"hw2","status":"approved","id":7},{"homework_name":"hw1","status":"rejected"}],"current_date":2000}`)

	got, err := Validate(rec)
	if err != nil {
		t.Fatalf("Validate: %v", err)
	}
	want := []ItemStatus{NewItem("hw2", "approved"), NewItem("hw1", "rejected")}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("entries mismatch (-want +got):\n%s", diff)
	}
}

func TestValidateEmptyListIsValid(t *testing.T) {
	t.Parallel()
	got, err := Validate(mustParse(t, `{"homeworks":[],"current_date":1}`))
	if err != nil {
		t.Fatalf("Validate: %v", err)
	}
	if len(got) != 0 {
		t.Fatalf("expected no entries, got %d", len(got))
	}
}

func TestValidateSchemaErrors(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name    string
		body    string
		field   string
		problem SchemaProblem
	}{
		{name: "missing", body: `{"current_date":1}`, field: "homeworks", problem: ProblemMissingField},
		{name: "object", body: `{"homeworks":{"homework_name":"hw1"}}`, field: "homeworks", problem: ProblemWrongType},
		{name: "string", body: `{"homeworks":"hw1"}`, field: "homeworks", problem: ProblemWrongType},
		{name: "null", body: `{"homeworks":null}`, field: "homeworks", problem: ProblemWrongType},
		{name: "number", body: `{"homeworks":3}`, field: "homeworks", problem: ProblemWrongType},
		{name: "entry not object", body: `{"homeworks":["hw1"]}`, field: "homeworks[0]", problem: ProblemWrongType},
		{name: "name not string", body: `{"homeworks":[{"homework_name":1,"status":"approved"}]}`, field: "homeworks[0]", problem: ProblemWrongType},
	}
	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			_, err := Validate(mustParse(t, tt.body))
			var se *SchemaError
			if !errors.As(err, &se) {
				t.Fatalf("expected *SchemaError, got %T (%v)", err, err)
			}
			if se.Field != tt.field || se.Problem != tt.problem {
				t.Fatalf("got %s/%s, want %s/%s", se.Field, se.Problem, tt.field, tt.problem)
			}
			if !errors.Is(err, ErrSchema) {
				t.Fatal("errors.Is(err, ErrSchema) = false")
			}
		})
	}
}

func TestValidateIgnoresShapeOfLaterEntries(t *testing.T) {
	t.Parallel()
	tests := []string{
		`{"homeworks":[{"homework_name":"hw1","status":"approved"},5],"current_date":2000}`,
		`{"homeworks":[{"homework_name":"hw1","status":"approved"},"old"]}`,
		`{"homeworks":[{"homework_name":"hw1","status":"approved"},{"homework_name":7,"status":null}]}`,
	}
	for _, body := range tests {
		got, err := Validate(mustParse(t, body))
		if err != nil {
			t.Fatalf("%s: Validate: %v", body, err)
		}
		if len(got) != 2 {
			t.Fatalf("%s: len = %d, want 2", body, len(got))
		}
		if diff := cmp.Diff(NewItem("hw1", "approved"), got[0]); diff != "" {
			t.Fatalf("%s: first entry mismatch (-want +got):\n%s", body, diff)
		}
		if got[1].Name != nil {
			t.Fatalf("%s: undecodable entry should have nil name, got %q", body, *got[1].Name)
		}
	}
}

func TestValidateDoesNotMutate(t *testing.T) {
	t.Parallel()
	rec := mustParse(t, `{"homeworks":[{"homework_name":"hw1","status":"reviewing"}]}`)
	before := string(rec.fields[FieldHomeworks])
	if _, err := Validate(rec); err != nil {
		t.Fatalf("Validate: %v", err)
	}
	if _, err := Validate(rec); err != nil {
		t.Fatalf("second Validate: %v", err)
	}
	if after := string(rec.fields[FieldHomeworks]); after != before {
		t.Fatalf("record mutated: %s -> %s", before, after)
	}
}

func TestValidateKeepsMissingKeysAsNil(t *testing.T) {
	t.Parallel()
	got, err := Validate(mustParse(t, `{"homeworks":[{"status":"approved"}]}`))
	if err != nil {
		t.Fatalf("Validate: %v", err)
	}
	if got[0].Name != nil {
		t.Fatalf("Name = %q, want nil", *got[0].Name)
	}
	if got[0].Status == nil || *got[0].Status != "approved" {
		t.Fatalf("Status = %v", got[0].Status)
	}
}

func TestParseStatusRecordMalformed(t *testing.T) {
	t.Parallel()
	for _, body := range []string{"<html>oops</html>", "", "[1,2]", "null", `"text"`} {
		_, err := ParseStatusRecord([]byte(body))
		var me *MalformedResponseError
		if !errors.As(err, &me) {
			t.Fatalf("body %q: expected *MalformedResponseError, got %v", body, err)
		}
		if !errors.Is(err, ErrMalformed) {
			t.Fatalf("body %q: errors.Is(err, ErrMalformed) = false", body)
		}
	}
}

func TestCurrentDate(t *testing.T) {
	t.Parallel()
	tests := []struct {
		body string
		want int64
		ok   bool
	}{
		{`{"current_date":2000}`, 2000, true},
		{`{"current_date":1634074965}`, 1634074965, true},
		{`{}`, 0, false},
		{`{"current_date":"2000"}`, 0, false},
		{`{"current_date":12.5}`, 0, false},
		{`{"current_date":null}`, 0, false},
	}
	for _, tt := range tests {
		got, ok := mustParse(t, tt.body).CurrentDate()
		if got != tt.want || ok != tt.ok {
			t.Fatalf("%s: CurrentDate() = %d, %v; want %d, %v", tt.body, got, ok, tt.want, tt.ok)
		}
	}
}

func TestExcerptKeepsValidUTF8(t *testing.T) {
	t.Parallel()
	body := []byte(strings.Repeat("ж", 150)) // 300 bytes, two per rune
	got := Excerpt(append([]byte("x"), body...))
	if !utf8.ValidString(got) {
		t.Fatalf("excerpt is not valid UTF-8: %q", got)
	}
	if !strings.HasSuffix(got, "...") || len(got) > 200+len("...") {
		t.Fatalf("excerpt = %q (len %d)", got, len(got))
	}
	if short := Excerpt([]byte("  ошибка  ")); short != "ошибка" {
		t.Fatalf("short excerpt = %q", short)
	}
}
