package llm

import (
	"errors"
	"net"
	"net/http"
	"net/url"
	"time"

	nerrors "github.com/abdul-hamid-achik/ntricacid/internal/errors"
	"github.com/abdul-hamid-achik/ntricacid/internal/logging"
)

// kindForStatus maps an HTTP status from a provider to a failure kind.
// An empty result means the status says nothing specific. Rejected
// credentials are not singled out: they surface as unknown.
func kindForStatus(code int) nerrors.Kind {
	if code == http.StatusTooManyRequests {
		return nerrors.KindRateLimit
	}
	return ""
}

// isTransport reports whether err came from the network rather than the API.
func isTransport(err error) bool {
	var netErr net.Error
	if errors.As(err, &netErr) {
		return true
	}
	var urlErr *url.Error
	return errors.As(err, &urlErr)
}

// wrapFailure turns a provider error into a typed gateway error. statusKind
// is what the provider's status code said, if anything; otherwise transport
// errors are network failures and the rest fall back to the text rules.
func wrapFailure(op string, statusKind nerrors.Kind, err error) error {
	kind := statusKind
	if kind == "" {
		if isTransport(err) {
			kind = nerrors.KindNetwork
		} else {
			kind = nerrors.Classify(err)
		}
	}
	return nerrors.GatewayFailed(op, kind, err)
}

// observe logs and counts one finished gateway call.
func observe(log *logging.Logger, provider, op, model string, start time.Time, err error) {
	kind := ""
	if err != nil {
		kind = string(nerrors.Classify(err))
	}
	log.Metrics().RecordGatewayCall(op, time.Since(start), kind)

	if err != nil {
		log.Warn("gateway call failed", logging.Provider(provider), logging.Op(op), logging.Kind(kind), logging.Error(err))
		log.Event(logging.EventGatewayError, logging.Provider(provider), logging.Op(op), logging.Model(model), logging.Kind(kind), logging.DurationSince(start))
		return
	}
	log.Debug("gateway call done", logging.Provider(provider), logging.Op(op), logging.DurationSince(start))
	log.Event(logging.EventGatewayResponse, logging.Provider(provider), logging.Op(op), logging.Model(model), logging.DurationSince(start))
}
