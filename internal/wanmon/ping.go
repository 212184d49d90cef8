package wanmon

import (
	"context"
	"os/exec"
	"regexp"
	"runtime"
	"strconv"
	"strings"
	"time"
)

// PingResult mirrors what the probe log stores: latency and error are nil
// unless the respective side happened.
type PingResult struct {
	Success bool     `json:"success"`
	Latency *float64 `json:"latency"` // milliseconds
	Error   *string  `json:"error"`
}

const pingFailedMsg = "Ping failed or timed out"

// Pinger shells out to the platform ping binary, one echo per probe.
type Pinger struct {
	Timeout time.Duration
}

func NewPinger(timeout time.Duration) *Pinger {
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	return &Pinger{Timeout: timeout}
}

func (p *Pinger) Ping(host string) PingResult {
	ctx, cancel := context.WithTimeout(context.Background(), p.Timeout)
	defer cancel()

	var cmd *exec.Cmd
	if runtime.GOOS == "windows" {
		cmd = exec.CommandContext(ctx, "ping", "-n", "1", host)
	} else {
		cmd = exec.CommandContext(ctx, "ping", "-c", "1", host)
	}
	out, err := cmd.Output()
	stdout := string(out)
	if err != nil || !pingSucceeded(stdout) {
		msg := pingFailedMsg
		return PingResult{Success: false, Latency: nil, Error: &msg}
	}
	return PingResult{Success: true, Latency: parseLatency(stdout)}
}

var (
	// POSIX: "time=12.3 ms"; Windows: "time=12ms" or "time<1ms".
	posixLatencyRe = regexp.MustCompile(`(?i)time=(\d+(?:\.\d+)?) ms`)
	winLatencyRe   = regexp.MustCompile(`(?i)time[<=](\d+)ms`)
)

func parseLatency(stdout string) *float64 {
	if m := posixLatencyRe.FindStringSubmatch(stdout); m != nil {
		v, err := strconv.ParseFloat(m[1], 64)
		if err == nil {
			return &v
		}
	}
	if m := winLatencyRe.FindStringSubmatch(stdout); m != nil {
		v, err := strconv.ParseFloat(m[1], 64)
		if err == nil {
			return &v
		}
	}
	return nil
}

func pingSucceeded(stdout string) bool {
	if runtime.GOOS == "windows" {
		return !strings.Contains(stdout, "Request timed out") &&
			!strings.Contains(stdout, "could not find host")
	}
	return strings.Contains(stdout, "1 received") ||
		strings.Contains(stdout, "1 packets received")
}
