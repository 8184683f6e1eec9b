package ptr_test

import (
	"testing"

	"github.com/myrjola/pilatesflow/internal/ptr"
)

func TestRef(t *testing.T) {
	rating := 4
	p := ptr.Ref(rating)
	if p == nil {
		t.Fatal("Expected pointer to be non-nil")
	}
	if *p != rating {
		t.Errorf("Expected %d, got %d", rating, *p)
	}

	rating = 5
	if *p == rating {
		t.Errorf("Pointer value should not change when original value is modified")
	}
}

func TestValueOr(t *testing.T) {
	tests := []struct {
		name string
		p    *int
		want int
	}{
		{name: "nil falls back", p: nil, want: 0},
		{name: "set value", p: ptr.Ref(3), want: 3},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ptr.ValueOr(tt.p, 0); got != tt.want {
				t.Errorf("ValueOr() = %d, want %d", got, tt.want)
			}
		})
	}
}
