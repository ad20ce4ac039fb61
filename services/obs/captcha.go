package obs

import (
	"context"
	"fmt"
	"time"

	"github.com/oralet86/au-notlar/lib/telemetry"

	"github.com/go-resty/resty/v2"
)

// ErrUnrecognized is the failure sentinel of the recognizer: the image
// could not be read. Callers must reload the page and retry the login,
// never submit anything derived from this.
var ErrUnrecognized = fmt.Errorf("captcha image was not recognized")

// CaptchaOracle reads the numeric challenge out of a captcha image. The
// image contains two short printed numbers and the portal expects their
// sum, so implementations return the final answer, not the digits.
type CaptchaOracle interface {
	Recognize(ctx context.Context, image []byte) (int64, error)
}

// HTTPOracle talks to an external recognizer service over HTTP.
type HTTPOracle struct {
	endpoint string
	http     *resty.Client
}

func NewHTTPOracle(endpoint string) *HTTPOracle {
	client := resty.New()
	client.SetTimeout(time.Second * 30)
	telemetry.InstrumentResty(client, "services/obs/captcha")

	return &HTTPOracle{
		endpoint: endpoint,
		http:     client,
	}
}

type recognizeResponse struct {
	Ok    bool  `json:"ok"`
	Value int64 `json:"value"`
}

func (o *HTTPOracle) Recognize(ctx context.Context, image []byte) (int64, error) {
	var out recognizeResponse
	res, err := o.http.R().
		SetContext(ctx).
		SetHeader("content-type", "image/png").
		SetBody(image).
		SetResult(&out).
		Post(o.endpoint)
	if err != nil {
		return 0, err
	}
	if res.StatusCode() != 200 {
		return 0, fmt.Errorf("recognizer returned status %d", res.StatusCode())
	}
	if !out.Ok || out.Value < 0 {
		return 0, ErrUnrecognized
	}
	return out.Value, nil
}
