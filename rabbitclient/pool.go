package rabbitclient

import "sync"

// channelPool multiplexes one connection into many channels while respecting
// the server-advertised channel cap.
//
// Policy, preserved for compatibility with the original client: when the
// pool is at capacity, the most recently added tracked channel is reused.
// There is no round-robin; once capacity is exhausted, unrelated work shares
// the last channel.
type channelPool struct {
	conn    Connection
	logger  Logger
	metrics *connectionMetrics

	// mu serializes pool mutations. Channel shutdown callbacks take only
	// this lock, never the manager's connect lock, so pruning cannot
	// deadlock against teardown.
	mu       sync.Mutex
	channels []Channel
}

func newChannelPool(conn Connection, logger Logger, metrics *connectionMetrics) *channelPool {
	return &channelPool{
		conn:    conn,
		logger:  logger,
		metrics: metrics,
	}
}

// Get returns a channel for the caller to use.
//
// With an unbounded server limit every call creates a fresh untracked
// channel. Below capacity a new channel is created, tracked, and wired to
// remove itself on shutdown. At capacity the most recently added channel is
// handed out again.
func (p *channelPool) Get() (Channel, error) {
	max := p.conn.MaxChannels()
	if max == 0 {
		// Unlimited: no tracking, no reuse.
		return p.conn.CreateChannel()
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	if len(p.channels) < int(max) {
		ch, err := p.conn.CreateChannel()
		if err != nil {
			return nil, err
		}

		// Self-pruning: the moment the channel reports shutdown, from
		// either side, its pool slot is reclaimed.
		ch.OnShutdown(func(string) {
			p.remove(ch)
		})

		p.channels = append(p.channels, ch)
		p.metrics.recordChannelCount(len(p.channels))
		p.logger.Debugf("Opened channel %d (%d/%d tracked)", ch.ID(), len(p.channels), max)
		return ch, nil
	}

	// Pool full: reuse rather than create.
	ch := p.channels[len(p.channels)-1]
	p.metrics.recordChannelReuse()
	p.logger.Debugf("Channel pool at capacity (%d), reusing channel %d", max, ch.ID())
	return ch, nil
}

// remove drops a channel from the tracked pool. Called from the channel's
// shutdown callback, possibly on the transport's goroutine.
func (p *channelPool) remove(ch Channel) {
	p.mu.Lock()
	defer p.mu.Unlock()

	for i, tracked := range p.channels {
		if tracked == ch {
			p.channels = append(p.channels[:i], p.channels[i+1:]...)
			p.metrics.recordChannelCount(len(p.channels))
			p.logger.Debugf("Channel %d closed, %d tracked", ch.ID(), len(p.channels))
			return
		}
	}
}

// size reports the number of tracked channels, for tests.
func (p *channelPool) size() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.channels)
}
