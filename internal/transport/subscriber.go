package transport

import (
	"bufio"
	"context"
	"net"
	"time"

	"github.com/cenkalti/backoff/v4"
	"go.uber.org/zap"
)

// Subscriber reads newline-delimited frames from a TCP endpoint and
// publishes parsed frames to Frames. Malformed lines are logged and
// dropped; the connection is reestablished with an exponential-capped
// backoff on any read error, matching the same reconnect discipline
// internal/store uses against the relational store.
type Subscriber struct {
	addr   string
	log    *zap.Logger
	Frames chan Frame
}

// NewSubscriber builds a Subscriber for addr ("host:port", taken from the
// --zmq flag value). bufSize sizes the output channel.
func NewSubscriber(addr string, log *zap.Logger, bufSize int) *Subscriber {
	return &Subscriber{addr: addr, log: log, Frames: make(chan Frame, bufSize)}
}

// Run connects and pumps frames until ctx is canceled. It never returns
// except on ctx cancellation: connection loss triggers reconnect, not
// exit.
func (s *Subscriber) Run(ctx context.Context) {
	defer close(s.Frames)
	for ctx.Err() == nil {
		if err := s.runOnce(ctx); err != nil {
			s.log.Warn("subscription connection lost", zap.Error(err))
		}
	}
}

func (s *Subscriber) runOnce(ctx context.Context) error {
	conn, err := s.dial(ctx)
	if err != nil {
		return err
	}
	defer conn.Close()

	go func() {
		<-ctx.Done()
		conn.Close()
	}()

	scanner := bufio.NewScanner(conn)
	for scanner.Scan() {
		line := scanner.Text()
		if line == "" {
			continue
		}
		frame, err := ParseFrame(line)
		if err != nil {
			s.log.Warn("dropping malformed frame", zap.String("line", line), zap.Error(err))
			continue
		}
		select {
		case s.Frames <- frame:
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	return scanner.Err()
}

func (s *Subscriber) dial(ctx context.Context) (net.Conn, error) {
	bo := backoff.NewExponentialBackOff()
	bo.MaxInterval = 30 * time.Second
	bo.MaxElapsedTime = 0

	var conn net.Conn
	err := backoff.Retry(func() error {
		d := net.Dialer{}
		c, err := d.DialContext(ctx, "tcp", s.addr)
		if err != nil {
			s.log.Warn("subscription dial failed, retrying", zap.Error(err))
			return err
		}
		conn = c
		return nil
	}, backoff.WithContext(bo, ctx))
	return conn, err
}
