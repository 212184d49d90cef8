package routeros

import (
	"bufio"
	"crypto/md5"
	"encoding/hex"
	"errors"
	"fmt"
	"net"
	"strconv"
	"strings"
	"time"
)

var (
	// ErrConnection covers unreachable host, dial/IO timeout and rejected
	// credentials alike: callers cannot and must not distinguish them.
	ErrConnection = errors.New("routeros: connection failed")

	// ErrCommand is returned when the device answers a command with !trap.
	ErrCommand = errors.New("routeros: command rejected")

	// ErrNotConnected is returned by Run after Close (or a failed Dial).
	ErrNotConnected = errors.New("routeros: not connected")
)

// Client owns exactly one authenticated RouterOS API session. It is not safe
// for concurrent use; open one client per operation and Close it when done.
type Client struct {
	conn    net.Conn
	r       *bufio.Reader
	w       *bufio.Writer
	timeout time.Duration
	closed  bool
}

// Dial connects to host:port and performs the /login exchange. Both the
// post-6.43 plaintext login and the legacy md5 challenge are supported.
// dialTimeout bounds the TCP connect and the login exchange; commandTimeout
// bounds every later Run exchange (falls back to dialTimeout when zero).
func Dial(host string, port int, username, password string, dialTimeout, commandTimeout time.Duration) (*Client, error) {
	if dialTimeout <= 0 {
		dialTimeout = 10 * time.Second
	}
	if commandTimeout <= 0 {
		commandTimeout = dialTimeout
	}
	addr := net.JoinHostPort(host, strconv.Itoa(port))
	conn, err := net.DialTimeout("tcp", addr, dialTimeout)
	if err != nil {
		return nil, fmt.Errorf("%w: dial %s: %v", ErrConnection, addr, err)
	}
	c := &Client{
		conn:    conn,
		r:       bufio.NewReader(conn),
		w:       bufio.NewWriter(conn),
		timeout: dialTimeout,
	}
	if err := c.login(username, password); err != nil {
		c.Close()
		return nil, fmt.Errorf("%w: login: %v", ErrConnection, err)
	}
	c.timeout = commandTimeout
	return c, nil
}

func (c *Client) login(username, password string) error {
	done, err := c.exchange("/login", "=name="+username, "=password="+password)
	if err != nil {
		return err
	}
	ret, ok := done["ret"]
	if !ok {
		return nil // >= 6.43, plaintext login accepted
	}
	// Legacy challenge: response = "00" + md5(0x00 + password + challenge)
	challenge, err := hex.DecodeString(ret)
	if err != nil {
		return fmt.Errorf("bad challenge: %v", err)
	}
	h := md5.New()
	h.Write([]byte{0})
	h.Write([]byte(password))
	h.Write(challenge)
	resp := "00" + hex.EncodeToString(h.Sum(nil))
	_, err = c.exchange("/login", "=name="+username, "=response="+resp)
	return err
}

// Run executes one command sentence and returns the attribute maps of all
// "!re" reply sentences, in device order. Vendor key names are preserved.
func (c *Client) Run(command string, args ...string) ([]map[string]string, error) {
	if c == nil || c.closed {
		return nil, ErrNotConnected
	}
	replies, _, err := c.run(command, args)
	return replies, err
}

// exchange runs a command where only the !done attributes matter (login).
func (c *Client) exchange(command string, args ...string) (map[string]string, error) {
	_, done, err := c.run(command, args)
	return done, err
}

func (c *Client) run(command string, args []string) ([]map[string]string, map[string]string, error) {
	deadline := time.Now().Add(c.timeout)
	if err := c.conn.SetDeadline(deadline); err != nil {
		return nil, nil, fmt.Errorf("%w: %v", ErrConnection, err)
	}
	words := append([]string{command}, args...)
	if err := writeSentence(c.w, words); err != nil {
		return nil, nil, fmt.Errorf("%w: write: %v", ErrConnection, err)
	}

	var replies []map[string]string
	for {
		sentence, err := readSentence(c.r)
		if err != nil {
			return nil, nil, fmt.Errorf("%w: read: %v", ErrConnection, err)
		}
		if len(sentence) == 0 {
			continue
		}
		tag, rest := sentence[0], sentence[1:]
		switch tag {
		case "!re":
			replies = append(replies, parseAttrs(rest))
		case "!done":
			return replies, parseAttrs(rest), nil
		case "!trap":
			attrs := parseAttrs(rest)
			msg := attrs["message"]
			if msg == "" {
				msg = "unknown error"
			}
			// drain until !done so the session stays usable
			c.drain()
			return nil, nil, fmt.Errorf("%w: %s", ErrCommand, msg)
		case "!fatal":
			c.closed = true
			return nil, nil, fmt.Errorf("%w: fatal: %s", ErrConnection, strings.Join(rest, " "))
		default:
			// unknown sentence type, skip
		}
	}
}

func (c *Client) drain() {
	for {
		sentence, err := readSentence(c.r)
		if err != nil {
			c.closed = true
			return
		}
		if len(sentence) > 0 && sentence[0] == "!done" {
			return
		}
	}
}

// Close shuts the session down. Idempotent and safe on a nil client.
func (c *Client) Close() {
	if c == nil || c.closed {
		return
	}
	c.closed = true
	_ = c.conn.Close()
}
