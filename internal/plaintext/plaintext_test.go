package plaintext

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDecode(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"empty", "", ""},
		{"plain", "Buy milk", "Buy milk"},
		{"tags", "Buy <span style='font-weight:bold'>milk</span>", "Buy milk"},
		{"entities", "eggs &amp; ham &lt;3", "eggs & ham <3"},
		{"nbsp", "a&nbsp;b", "a\u00a0b"},
		{"br", "one<br/>two", "one\ntwo"},
		{"script dropped", "x<script>alert(1)</script>y", "xy"},
		{"whitespace kept", "  spaced  ", "  spaced  "},
		{"nfc", "e\u0301", "\u00e9"},
		{"markup nfc", "<b>e\u0301</b>", "\u00e9"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Decode(tt.in))
		})
	}
}

func TestJoin(t *testing.T) {
	assert.Equal(t, "", Join(nil))
	assert.Equal(t, "ab", Join([]string{"a", "", "<i>b</i>"}))
	assert.Equal(t, "x & y", Join([]string{"x &amp; ", "y"}))
}
