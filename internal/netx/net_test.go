package netx

import (
	"net/netip"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestResolveUDP(t *testing.T) {
	ap, err := ResolveUDP("127.0.0.1:9999")
	require.NoError(t, err)
	assert.Equal(t, netip.MustParseAddrPort("127.0.0.1:9999"), ap)

	_, err = ResolveUDP("127.0.0.1:notaport")
	require.Error(t, err)
}

func TestCanonical_UnmapsIPv4(t *testing.T) {
	mapped := netip.MustParseAddrPort("[::ffff:10.0.0.7]:4000")
	assert.Equal(t, "10.0.0.7:4000", Canonical(mapped).String())

	v6 := netip.MustParseAddrPort("[::1]:4000")
	assert.Equal(t, v6, Canonical(v6))
}

func TestFormatEndpoint(t *testing.T) {
	assert.Equal(t, "-", FormatEndpoint(netip.AddrPort{}))
	assert.Equal(t, "10.0.0.7:4000", FormatEndpoint(netip.MustParseAddrPort("[::ffff:10.0.0.7]:4000")))
}
