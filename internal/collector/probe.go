package collector

import (
	"context"
	"net"
	"time"
)

// DialProbe reports online when a TCP connection to Address succeeds.
type DialProbe struct {
	Address string
	Timeout time.Duration
}

func (p *DialProbe) Online(ctx context.Context) bool {
	timeout := p.Timeout
	if timeout <= 0 {
		timeout = 3 * time.Second
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	var d net.Dialer
	conn, err := d.DialContext(ctx, "tcp", p.Address)
	if err != nil {
		return false
	}
	_ = conn.Close()
	return true
}
