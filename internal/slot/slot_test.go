package slot

import (
	"errors"
	"testing"
)

func TestExtractTimestamp(t *testing.T) {
	tests := []struct {
		name    string
		href    string
		want    int64
		wantErr bool
	}{
		{
			name: "day link",
			href: "/terminvereinbarung/termin/time/1687000000/",
			want: 1687000000,
		},
		{
			name: "first number wins",
			href: "/termin/day/1687000000/122210/327316",
			want: 1687000000,
		},
		{
			name: "query string",
			href: "time.php?termin=1&date=1690000000",
			want: 1,
		},
		{
			name:    "no digits",
			href:    "/terminvereinbarung/termin/day/",
			wantErr: true,
		},
		{
			name:    "empty",
			href:    "",
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ExtractTimestamp(tt.href)
			if (err != nil) != tt.wantErr {
				t.Fatalf("ExtractTimestamp(%q) error = %v, wantErr %v", tt.href, err, tt.wantErr)
			}
			if tt.wantErr {
				if !errors.Is(err, ErrNoTimestamp) {
					t.Errorf("ExtractTimestamp(%q) error = %v, want ErrNoTimestamp", tt.href, err)
				}
				return
			}
			if got != tt.want {
				t.Errorf("ExtractTimestamp(%q) = %d, want %d", tt.href, got, tt.want)
			}
		})
	}
}

func TestNew(t *testing.T) {
	s, err := New(3, "/terminvereinbarung/termin/time/1687000000/", "https://service.berlin.de")
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	if s.Index != 3 {
		t.Errorf("Index = %d, want 3", s.Index)
	}
	if s.Timestamp != 1687000000 {
		t.Errorf("Timestamp = %d, want 1687000000", s.Timestamp)
	}
	if s.Link != "https://service.berlin.de/terminvereinbarung/termin/time/1687000000/" {
		t.Errorf("Link = %q", s.Link)
	}
	if s.DateString() != "2023-06-17" {
		t.Errorf("DateString() = %q, want 2023-06-17", s.DateString())
	}

	if _, err := New(0, "/no/number/", "https://service.berlin.de"); err == nil {
		t.Error("New() expected error for link without timestamp")
	}
}

func TestAbsoluteLink(t *testing.T) {
	tests := []struct {
		base string
		href string
		want string
	}{
		{"https://service.berlin.de", "/termin/day/1/", "https://service.berlin.de/termin/day/1/"},
		{"https://service.berlin.de", "https://other.example/termin/1", "https://other.example/termin/1"},
		{"", "/termin/day/1/", "/termin/day/1/"},
	}

	for _, tt := range tests {
		t.Run(tt.href, func(t *testing.T) {
			if got := AbsoluteLink(tt.base, tt.href); got != tt.want {
				t.Errorf("AbsoluteLink(%q, %q) = %q, want %q", tt.base, tt.href, got, tt.want)
			}
		})
	}
}
