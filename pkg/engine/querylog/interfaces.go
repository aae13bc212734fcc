//
//  Copyright © Manetu Inc. All rights reserved.
//

// Package querylog provides interfaces and implementations for audit logging
// of search queries.
//
// Query logs record every search served by the engine, creating an audit
// trail for usage analysis, debugging, and capacity planning.  Each record
// includes the query text, the matching mode, hit counts per entity kind,
// and timing information.
//
// # Built-in Implementations
//
// The package provides several stream implementations:
//   - [NewStdoutFactory]: Writes JSON records to stdout (default for development)
//   - [NewIoWriterFactory]: Writes JSON records to any io.Writer
//   - [NewNullFactory]: Discards all records (useful for testing or benchmarks)
//
// # Custom Implementations
//
// To implement a custom query log (e.g., for Kafka, database, or cloud logging):
//
//  1. Implement the [Factory] interface to create stream instances
//  2. Implement the [Stream] interface to handle record delivery
//  3. Use [options.WithQueryLog] when creating the search engine
//
// Example:
//
//	type KafkaFactory struct { brokers []string }
//
//	func (f *KafkaFactory) NewStream() (querylog.Stream, error) {
//	    producer, err := kafka.NewProducer(f.brokers)
//	    if err != nil {
//	        return nil, err
//	    }
//	    return &KafkaStream{producer: producer}, nil
//	}
package querylog

import (
	"time"

	"github.com/google/uuid"
)

// Record captures a single served search query.
type Record struct {
	// ID uniquely identifies this record.
	ID string `json:"id"`
	// Timestamp is when the query was received.
	Timestamp time.Time `json:"timestamp"`
	// Query is the raw query text as submitted.
	Query string `json:"query"`
	// Mode is the matching mode that was applied.
	Mode string `json:"mode"`
	// Threshold is the fuzzy similarity threshold in effect.
	Threshold float64 `json:"threshold"`
	// PermissionHits is the number of permission results returned.
	PermissionHits int `json:"permission_hits"`
	// RoleHits is the number of role results returned.
	RoleHits int `json:"role_hits"`
	// DurationMicros is the query service time in microseconds.
	DurationMicros int64 `json:"duration_us"`
	// Metadata holds deployment context resolved from configuration
	// (see config.AuditEnv).
	Metadata map[string]string `json:"metadata,omitempty"`
}

// NewRecord allocates a record stamped with a fresh ID and the current time.
func NewRecord() *Record {
	return &Record{
		ID:        uuid.NewString(),
		Timestamp: time.Now().UTC(),
	}
}

// Factory creates query log [Stream] instances.
//
// The factory pattern enables deferred initialization of streaming resources.
// Early initialization (setting Viper defaults, validating configuration) should
// happen during factory construction. Late initialization (opening connections,
// allocating buffers) should happen in [NewStream].
//
// The engine guarantees that configuration is fully loaded before [NewStream]
// is called.
type Factory interface {
	// NewStream creates a new query log stream.
	//
	// The returned stream should be ready to receive records via [Stream.Send].
	// Returns an error if the stream cannot be initialized (e.g., connection failure).
	NewStream() (Stream, error)
}

// Stream is the interface for sending query records to an audit destination.
//
// Implementations must be safe for concurrent use by multiple goroutines.
// The engine may call [Send] from multiple goroutines simultaneously.
//
// Implementations should handle backpressure appropriately. If the destination
// cannot accept records fast enough, implementations may buffer, drop, or block
// depending on their requirements.
type Stream interface {
	// Send delivers a query record to the audit destination.
	//
	// Send should not modify the record. The caller retains ownership of the
	// record and may reuse it after Send returns.
	//
	// Returns an error if the record cannot be delivered. The engine logs
	// send errors but does not retry; implementations should handle retries
	// internally if needed.
	Send(record *Record) error

	// Close releases any resources held by the stream.
	//
	// Close should flush any buffered records before returning. After Close
	// is called, the stream should not be used again.
	Close()
}
