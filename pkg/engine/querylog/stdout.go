//
//  Copyright © Manetu Inc. All rights reserved.
//

package querylog

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"sync"
)

// QueryLogOptions configures the behavior of query log output.
type QueryLogOptions struct {
	// PrettyPrint enables indented multi-line JSON output.
	// When false (default), output is compact single-line JSON.
	PrettyPrint bool
}

// IoWriterFactory creates [Stream] instances that write to an [io.Writer].
//
// Use [NewStdoutFactory] to create a factory for stdout, or [NewIoWriterFactory]
// for a custom writer.
type IoWriterFactory struct {
	writer  io.Writer
	options QueryLogOptions
}

// IoWriterStream writes query records as JSON to an [io.Writer].
//
// Each record is written as a single line of JSON followed by a newline.
// This format is suitable for log aggregation systems and command-line tools.
//
// IoWriterStream is safe for concurrent use; writes are atomic at the line level.
type IoWriterStream struct {
	mu      sync.Mutex
	writer  io.Writer
	options QueryLogOptions
}

// NewStdoutFactory creates a [Factory] that writes query records to stdout.
//
// This is the default factory used by the engine if no query log is
// explicitly configured. It's suitable for development and debugging,
// or for production environments where stdout is captured by a log aggregator.
func NewStdoutFactory() Factory {
	return NewIoWriterFactory(os.Stdout)
}

// NewIoWriterFactory creates a [Factory] that writes query records to the
// specified [io.Writer].
//
// This is useful for writing to files, buffers, or other destinations:
//
//	file, _ := os.Create("query.log")
//	factory := querylog.NewIoWriterFactory(file)
//	se, _ := engine.NewLocalSearchEngine(paths, options.WithQueryLog(factory))
func NewIoWriterFactory(w io.Writer) Factory {
	return NewIoWriterFactoryWithOptions(w, QueryLogOptions{})
}

// NewIoWriterFactoryWithOptions creates a [Factory] that writes query records
// to the specified [io.Writer] with the given options.
//
// Use this when you need to customize output formatting:
//
//	factory := querylog.NewIoWriterFactoryWithOptions(os.Stdout, querylog.QueryLogOptions{
//	    PrettyPrint: true,
//	})
func NewIoWriterFactoryWithOptions(w io.Writer, opts QueryLogOptions) Factory {
	return &IoWriterFactory{
		writer:  w,
		options: opts,
	}
}

// NewStream creates a new [IoWriterStream] that writes to the configured writer.
func (f *IoWriterFactory) NewStream() (Stream, error) {
	return &IoWriterStream{
		writer:  f.writer,
		options: f.options,
	}, nil
}

// Send marshals the query record to JSON and writes it to the configured
// writer, followed by a newline. Output format is controlled by
// QueryLogOptions:
//   - PrettyPrint=false (default): compact single-line JSON
//   - PrettyPrint=true: indented multi-line JSON
//
// Write errors are silently ignored as stdout writes rarely fail, and the
// engine should not fail searches due to logging issues.
func (s *IoWriterStream) Send(record *Record) error {
	var output []byte
	var err error
	if s.options.PrettyPrint {
		output, err = json.MarshalIndent(record, "", "  ")
	} else {
		output, err = json.Marshal(record)
	}
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	_, _ = fmt.Fprintln(s.writer, string(output))
	return nil
}

// Close is a no-op for IoWriterStream.
//
// The underlying writer is not closed by this method; the caller is responsible
// for closing the writer if needed (except for stdout, which should not be closed).
func (s *IoWriterStream) Close() {}
