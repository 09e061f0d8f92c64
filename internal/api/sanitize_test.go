package api

import "testing"

func TestSanitizeJSON(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"untouched", `{"a":1.5}`, `{"a":1.5}`},
		{"bare NaN", `{"a":NaN}`, `{"a":"NaN"}`},
		{"infinities", `[Infinity,-Infinity]`, `["Infinity","-Infinity"]`},
		{"inside strings", `{"msg":"NaN or Infinity"}`, `{"msg":"NaN or Infinity"}`},
		{"escaped quote", `{"msg":"say \"NaN\"","v":NaN}`, `{"msg":"say \"NaN\"","v":"NaN"}`},
		{"already quoted", `{"a":"NaN"}`, `{"a":"NaN"}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := string(sanitizeJSON([]byte(tt.in))); got != tt.want {
				t.Errorf("sanitizeJSON(%s) = %s, want %s", tt.in, got, tt.want)
			}
		})
	}
}
