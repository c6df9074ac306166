package rat

import "testing"

func TestNewReduces(t *testing.T) {
	tests := []struct {
		name    string
		n, d    int64
		wantN   int64
		wantD   int64
		wantErr bool
	}{
		{name: "already reduced", n: 1, d: 4, wantN: 1, wantD: 4},
		{name: "reduces 2/4", n: 2, d: 4, wantN: 1, wantD: 2},
		{name: "negative denominator normalizes", n: 1, d: -2, wantN: -1, wantD: 2},
		{name: "zero numerator", n: 0, d: 5, wantN: 0, wantD: 1},
		{name: "zero denominator errors", n: 1, d: 0, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := New(tt.n, tt.d)
			if tt.wantErr {
				if err == nil {
					t.Fatalf("expected error, got none")
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got.N != tt.wantN || got.D != tt.wantD {
				t.Fatalf("New(%d,%d) = %d/%d, want %d/%d", tt.n, tt.d, got.N, got.D, tt.wantN, tt.wantD)
			}
			if got.D <= 0 {
				t.Fatalf("denominator not positive: %d", got.D)
			}
		})
	}
}

func TestArithmetic(t *testing.T) {
	half := MustNew(1, 2)
	quarter := MustNew(1, 4)

	sum, err := half.Add(quarter)
	if err != nil {
		t.Fatalf("Add: %v", err)
	}
	if want := MustNew(3, 4); !sum.Equal(want) {
		t.Fatalf("1/2 + 1/4 = %v, want %v", sum, want)
	}

	diff, err := half.Sub(quarter)
	if err != nil {
		t.Fatalf("Sub: %v", err)
	}
	if want := quarter; !diff.Equal(want) {
		t.Fatalf("1/2 - 1/4 = %v, want %v", diff, want)
	}

	prod, err := half.Mul(MustNew(2, 1))
	if err != nil {
		t.Fatalf("Mul: %v", err)
	}
	if !prod.Equal(FromInt(1)) {
		t.Fatalf("1/2 * 2 = %v, want 1", prod)
	}

	quot, err := half.Div(quarter)
	if err != nil {
		t.Fatalf("Div: %v", err)
	}
	if !quot.Equal(FromInt(2)) {
		t.Fatalf("1/2 / 1/4 = %v, want 2", quot)
	}

	if _, err := half.Div(Zero); err == nil {
		t.Fatalf("expected division-by-zero error")
	}
}

func TestCompare(t *testing.T) {
	a := MustNew(1, 3)
	b := MustNew(1, 2)
	if !a.Less(b) {
		t.Fatalf("expected 1/3 < 1/2")
	}
	if b.Less(a) {
		t.Fatalf("expected 1/2 not < 1/3")
	}
	if !MustNew(2, 4).Equal(MustNew(1, 2)) {
		t.Fatalf("expected 2/4 == 1/2 after reduction")
	}
}
