// Package evidence keeps an audit trail of chat completion exchanges.
//
// Every exchange courier sends through the proxy can be recorded as an
// immutable Record: the route it took (base URL, proxy, API key
// fingerprint), what was asked, what came back, token usage, estimated
// cost, and SHA-256 hashes of both bodies. Records let the exchange be
// compared later with what the intercepting proxy captured.
//
// # Layout
//
//   - recorder: builds records from requests, responses and errors
//   - storage: SQLite and in-memory backends
//   - query: query validation and defaults
//   - export: JSON and CSV exporters
//   - retention: age and count based pruning
//   - watch: change notification for following the database
//
// # Basic Usage
//
//	store, err := storage.NewSQLiteStorage(&storage.SQLiteConfig{
//	    Path:    "courier-evidence.db",
//	    WALMode: true,
//	})
//	if err != nil {
//	    return err
//	}
//	defer store.Close()
//
//	rec := recorder.NewRecorder(store, recorder.DefaultConfig())
//	record, err := rec.Record(ctx, &recorder.Exchange{
//	    Request:  req,
//	    Response: resp,
//	    Err:      sendErr,
//	    Start:    start,
//	    End:      time.Now(),
//	})
//
// Recording is synchronous: courier sends one exchange per run and exits.
package evidence
