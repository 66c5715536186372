// Package flow provides flow controllers that hand transfers to an external
// data-plane service.
//
// HTTPController posts {"requestId","source","destination"} to a flow
// service endpoint. Both addresses are converted to endpoints (schema checked,
// credentials merged) before the call. Connection and read failures are
// retryable. A backend that answers with a rejected or malformed response is
// fatal unless the controller is configured otherwise.
package flow
