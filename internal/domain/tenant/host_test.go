package tenant

import "testing"

func TestNormalizeHost(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"ruedaya.com", "ruedaya.com"},
		{"RuedaYa.com:443", "ruedaya.com"},
		{"localhost:3000", "localhost"},
		{"127.0.0.1:8080", "127.0.0.1"},
		{"[::1]:3000", "::1"},
		{"[::1]", "::1"},
		{"ruedaya.com.", "ruedaya.com"},
		{"  kia-loja.ruedaya.com ", "kia-loja.ruedaya.com"},
		{"", ""},
	}
	for _, tt := range tests {
		if got := NormalizeHost(tt.in); got != tt.want {
			t.Errorf("NormalizeHost(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestFirstLabel(t *testing.T) {
	tests := []struct {
		host  string
		label string
		ok    bool
	}{
		{"kia-loja.ruedaya.com", "kia-loja", true},
		{"ruedaya.com", "ruedaya", true},
		{"ruedaya", "", false},
		{"ruedaya.", "", false},
		{".com", "", true},
	}
	for _, tt := range tests {
		label, ok := firstLabel(tt.host)
		if label != tt.label || ok != tt.ok {
			t.Errorf("firstLabel(%q) = (%q, %v), want (%q, %v)", tt.host, label, ok, tt.label, tt.ok)
		}
	}
}

func TestQueryValue(t *testing.T) {
	tests := []struct {
		raw                string
		value              string
		present, decodable bool
	}{
		{"", "", false, false},
		{"q=suv", "", false, false},
		{"dealer=kia-loja", "kia-loja", true, true},
		{"dealer=kia%2Dloja&dealer=ford-loja", "kia-loja", true, true},
		{"d%65aler=toyota-loja", "toyota-loja", true, true},
		{"dealer", "", true, true},
		{"dealer=%zz", "", true, false},
		{"dealer=x;y", "x;y", true, true},
		{"%zz=1&dealer=honda-loja", "honda-loja", true, true},
	}
	for _, tt := range tests {
		value, present, ok := Request{RawQuery: tt.raw}.QueryValue("dealer")
		if value != tt.value || present != tt.present || ok != tt.decodable {
			t.Errorf("QueryValue(%q) = (%q, %v, %v), want (%q, %v, %v)",
				tt.raw, value, present, ok, tt.value, tt.present, tt.decodable)
		}
	}
}

func TestStripQueryKey(t *testing.T) {
	tests := []struct {
		raw, want string
	}{
		{"", ""},
		{"dealer=kia-loja", ""},
		{"a=1&dealer=kia-loja&b=2", "a=1&b=2"},
		{"dealer=x&dealer=y&c=3", "c=3"},
		{"d%65aler=kia-loja&q=suv", "q=suv"},
		{"dealer", ""},
		{"dealers=1&q=%20", "dealers=1&q=%20"},
		{"&&q=1&", "q=1"},
	}
	for _, tt := range tests {
		if got := StripQueryKey(tt.raw, "dealer"); got != tt.want {
			t.Errorf("StripQueryKey(%q) = %q, want %q", tt.raw, got, tt.want)
		}
	}
}
