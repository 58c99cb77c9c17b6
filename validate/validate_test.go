package validate

import (
	"errors"
	"strings"
	"testing"
)

func TestValidateToolName(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name      string
		in        string
		expectErr bool
	}{
		{name: "simple", in: "ndb_list_databases"},
		{name: "with dots and hyphens", in: "ndb.tool-name"},
		{name: "surrounding spaces trimmed", in: "  health  "},
		{name: "empty", in: "", expectErr: true},
		{name: "leading underscore", in: "_hidden", expectErr: true},
		{name: "space inside", in: "list databases", expectErr: true},
		{name: "too long", in: strings.Repeat("a", 129), expectErr: true},
	}

	for _, tc := range cases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			err := ValidateToolName(tc.in)
			if tc.expectErr {
				if !errors.Is(err, ErrInvalidToolName) {
					t.Fatalf("expected ErrInvalidToolName, got %v", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
		})
	}
}

func TestValidateEnvKey(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name      string
		in        string
		expectErr bool
	}{
		{name: "simple", in: "NDB_BASE_URL"},
		{name: "leading underscore allowed", in: "_INTERNAL"},
		{name: "lowercase", in: "ndb_base_url", expectErr: true},
		{name: "leading digit", in: "1KEY", expectErr: true},
		{name: "empty", in: "", expectErr: true},
	}

	for _, tc := range cases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			err := ValidateEnvKey(tc.in)
			if tc.expectErr {
				if !errors.Is(err, ErrInvalidEnvKey) {
					t.Fatalf("expected ErrInvalidEnvKey, got %v", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
		})
	}
}
