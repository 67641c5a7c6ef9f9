package cache

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/gomodule/redigo/redis"
)

// memoryPool is an in-process stand-in for a redis server that understands
// the handful of commands OTPStore issues.
type memoryPool struct {
	mu      sync.Mutex
	data    map[string]string
	expires map[string]time.Time
	now     func() time.Time
	calls   []string
}

func newMemoryPool() *memoryPool {
	return &memoryPool{
		data:    map[string]string{},
		expires: map[string]time.Time{},
		now:     time.Now,
	}
}

func (p *memoryPool) GetContext(ctx context.Context) (redis.Conn, error) {
	return &memoryConn{pool: p}, nil
}

type memoryConn struct {
	pool *memoryPool
}

func (c *memoryConn) Close() error { return nil }
func (c *memoryConn) Err() error   { return nil }
func (c *memoryConn) Send(string, ...interface{}) error {
	return fmt.Errorf("pipelining not supported")
}
func (c *memoryConn) Flush() error                  { return nil }
func (c *memoryConn) Receive() (interface{}, error) { return nil, fmt.Errorf("pipelining not supported") }

func (c *memoryConn) Do(cmd string, args ...interface{}) (interface{}, error) {
	p := c.pool
	p.mu.Lock()
	defer p.mu.Unlock()

	cmd = strings.ToUpper(cmd)
	p.calls = append(p.calls, cmd)

	key := func() string { return fmt.Sprint(args[0]) }
	live := func(k string) bool {
		exp, ok := p.expires[k]
		if ok && !p.now().Before(exp) {
			delete(p.data, k)
			delete(p.expires, k)
		}
		_, exists := p.data[k]
		return exists
	}

	switch cmd {
	case "PING":
		return "PONG", nil
	case "SET":
		k := key()
		p.data[k] = fmt.Sprint(args[1])
		delete(p.expires, k)
		if len(args) == 4 && strings.EqualFold(fmt.Sprint(args[2]), "EX") {
			seconds := args[3].(int64)
			p.expires[k] = p.now().Add(time.Duration(seconds) * time.Second)
		}
		return "OK", nil
	case "GET":
		k := key()
		if !live(k) {
			return nil, nil
		}
		return []byte(p.data[k]), nil
	case "DEL":
		k := key()
		if !live(k) {
			return int64(0), nil
		}
		delete(p.data, k)
		delete(p.expires, k)
		return int64(1), nil
	}
	return nil, fmt.Errorf("unsupported command %s", cmd)
}
