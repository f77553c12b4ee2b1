// Package recorder builds evidence records from chat completion exchanges.
//
// A record captures the route (base URL, proxy, API key fingerprint), the
// request (model, prompts, SHA-256 of the body), the outcome (status,
// reply, finish reason, usage, cost) and, for failures, the error type and
// any HTTP status or body that came back. Bodies are stored only when
// StoreBodies is set.
//
//	rec := recorder.NewRecorder(store, recorder.ConfigFromCourier(cfg.Evidence))
//	record, err := rec.Record(ctx, &recorder.Exchange{
//	    Provider: "openai",
//	    Request:  req,
//	    Response: resp,
//	    Err:      err,
//	    Start:    start,
//	    End:      time.Now(),
//	})
package recorder
