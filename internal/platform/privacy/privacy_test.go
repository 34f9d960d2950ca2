package privacy

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestAnonymizeIP(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{"ipv4", "192.168.1.47", "192.168.1.0"},
		{"ipv4 with port", "10.1.2.3:53122", "10.1.2.0"},
		{"ipv4 localhost", "127.0.0.1", "127.0.0.0"},
		{"ipv6 full", "2001:db8:85a3:0000:0000:8a2e:0370:7334", "2001:0db8:85a3::"},
		{"ipv6 with port", "[2001:db8:85a3::8a2e:370:7334]:443", "2001:0db8:85a3::"},
		{"ipv6 loopback", "::1", "0000:0000:0000::"},
		{"ipv4 mapped", "::ffff:192.168.1.47", "192.168.1.0"},
		{"empty", "", "unknown"},
		{"unknown", "unknown", "unknown"},
		{"garbage", "not-an-ip", "invalid"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, AnonymizeIP(tt.input))
		})
	}
}

func TestMaskWallet(t *testing.T) {
	assert.Equal(t, "0x7099…79c8", MaskWallet("0x70997970C51812dc3A010C7d01b50e0d17dc79C8"))
	assert.Equal(t, "0x7099…79c8", MaskWallet("  0x70997970c51812dc3a010c7d01b50e0d17dc79c8 "))
	assert.Equal(t, "***", MaskWallet("0x1234"))
	assert.Equal(t, "***", MaskWallet("70997970C51812dc3A010C7d01b50e0d17dc79C8"))
	assert.Equal(t, "***", MaskWallet(""))
}
