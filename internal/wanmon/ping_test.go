package wanmon

import (
	"runtime"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const linuxPingOK = `PING 8.8.8.8 (8.8.8.8) 56(84) bytes of data.
64 bytes from 8.8.8.8: icmp_seq=1 ttl=117 time=12.4 ms

--- 8.8.8.8 ping statistics ---
1 packets transmitted, 1 received, 0% packet loss, time 0ms
rtt min/avg/max/mdev = 12.394/12.394/12.394/0.000 ms
`

const bsdPingOK = `PING 8.8.8.8 (8.8.8.8): 56 data bytes
64 bytes from 8.8.8.8: icmp_seq=0 ttl=117 time=9.812 ms

--- 8.8.8.8 ping statistics ---
1 packets transmitted, 1 packets received, 0.0% packet loss
round-trip min/avg/max/stddev = 9.812/9.812/9.812/0.000 ms
`

const linuxPingLost = `PING 10.99.99.99 (10.99.99.99) 56(84) bytes of data.

--- 10.99.99.99 ping statistics ---
1 packets transmitted, 0 received, 100% packet loss, time 0ms
`

const windowsPingOK = `Pinging 8.8.8.8 with 32 bytes of data:
Reply from 8.8.8.8: bytes=32 time=14ms TTL=117

Ping statistics for 8.8.8.8:
    Packets: Sent = 1, Received = 1, Lost = 0 (0% loss),
`

const windowsPingFast = `Reply from 1.1.1.1: bytes=32 time<1ms TTL=64`

func TestParseLatency(t *testing.T) {
	cases := []struct {
		name string
		out  string
		want float64
	}{
		{"linux", linuxPingOK, 12.4},
		{"bsd", bsdPingOK, 9.812},
		{"windows", windowsPingOK, 14},
		{"windows sub-ms", windowsPingFast, 1},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := parseLatency(tc.out)
			require.NotNil(t, got)
			assert.Equal(t, tc.want, *got)
		})
	}
}

func TestParseLatencyNoMatch(t *testing.T) {
	assert.Nil(t, parseLatency(linuxPingLost))
	assert.Nil(t, parseLatency(""))
}

func TestPingSucceeded(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("POSIX ping output")
	}
	assert.True(t, pingSucceeded(linuxPingOK))
	assert.True(t, pingSucceeded(bsdPingOK))
	assert.False(t, pingSucceeded(linuxPingLost))
	assert.False(t, pingSucceeded(""))
}

func TestPingUnresolvableHost(t *testing.T) {
	p := NewPinger(2 * time.Second)
	res := p.Ping("host.invalid.")

	assert.False(t, res.Success)
	assert.Nil(t, res.Latency)
	require.NotNil(t, res.Error)
	assert.Equal(t, pingFailedMsg, *res.Error)
}

func TestNewPingerDefaultTimeout(t *testing.T) {
	assert.Equal(t, 5*time.Second, NewPinger(0).Timeout)
	assert.Equal(t, time.Second, NewPinger(time.Second).Timeout)
}
