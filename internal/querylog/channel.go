//
//  Copyright © Manetu Inc. All rights reserved.
//

// Package querylog provides internal query log streams, primarily the
// channel-backed stream used by tests to observe emitted records.
package querylog

import (
	"github.com/manetu/iamsearch/pkg/engine/querylog"
)

// ChannelFactory factory for ChannelStream
type ChannelFactory struct {
	ch chan *querylog.Record
}

// ChannelStream implements the Stream interface by writing query records to a channel.
type ChannelStream struct {
	ch chan *querylog.Record
}

// NewChannelLogger creates a new Stream for logging query records to a channel.
func NewChannelLogger(ch chan *querylog.Record) querylog.Factory {
	return &ChannelFactory{ch: ch}
}

// NewStream creates a new Stream to satisfy the Factory interface.
func (f *ChannelFactory) NewStream() (querylog.Stream, error) {
	return &ChannelStream{ch: f.ch}, nil
}

// Send emulates the production of a streaming event by sending a query record to the channel.
func (s *ChannelStream) Send(m *querylog.Record) error {
	s.ch <- m

	return nil
}

// Close finalizes the query log by closing the underlying channel.
func (s *ChannelStream) Close() {
	if s.ch != nil {
		close(s.ch)
	}
}
