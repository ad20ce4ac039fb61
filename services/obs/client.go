package obs

import (
	"bytes"
	"context"
	"fmt"
	"net/http/cookiejar"
	"net/url"
	"time"

	"github.com/oralet86/au-notlar/lib/telemetry"

	cloudflarebp "github.com/DaRealFreak/cloudflare-bp-go"
	"github.com/PuerkitoBio/goquery"
	"github.com/go-resty/resty/v2"
)

const userAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/123.0.0.0 Safari/537.36"

// Client is one authenticated connection to the portal. The cookie jar is
// the session identity, so Reset discards the whole http client rather
// than trying to salvage it.
type Client struct {
	baseUrl   *url.URL
	loginPath string
	http      *resty.Client
}

func NewClient(loginUrl string) (*Client, error) {
	parsed, err := url.Parse(loginUrl)
	if err != nil {
		return nil, err
	}
	if parsed.Scheme == "" || parsed.Host == "" {
		return nil, fmt.Errorf("login url %q is missing a scheme or host", loginUrl)
	}

	c := &Client{
		baseUrl:   &url.URL{Scheme: parsed.Scheme, Host: parsed.Host},
		loginPath: parsed.Path,
	}
	err = c.Reset()
	if err != nil {
		return nil, err
	}
	return c, nil
}

// Reset tears the underlying connection down wholesale and builds a fresh
// one with an empty cookie jar.
func (c *Client) Reset() error {
	client := resty.New()
	client.SetBaseURL(c.baseUrl.String())
	jar, err := cookiejar.New(nil)
	if err != nil {
		return err
	}
	client.SetCookieJar(jar)
	client.GetClient().Transport = cloudflarebp.AddCloudFlareByPass(client.GetClient().Transport)
	client.SetHeader("user-agent", userAgent)
	client.SetRedirectPolicy(resty.DomainCheckRedirectPolicy(c.baseUrl.Hostname()))
	client.SetTimeout(time.Second * 30)

	telemetry.InstrumentResty(client, "services/obs/http")

	c.http = client
	return nil
}

// GetLogin fetches the login page, which the portal also uses as the
// landing page for an authenticated session.
func (c *Client) GetLogin(ctx context.Context) (*goquery.Document, error) {
	return c.Get(ctx, c.loginPath)
}

func (c *Client) Get(ctx context.Context, path string) (*goquery.Document, error) {
	res, err := c.http.R().
		SetContext(ctx).
		Get(path)
	if err != nil {
		return nil, err
	}
	return goquery.NewDocumentFromReader(bytes.NewBuffer(res.Body()))
}

func (c *Client) PostForm(ctx context.Context, path string, form map[string]string) (*goquery.Document, error) {
	res, err := c.http.R().
		SetContext(ctx).
		SetFormData(form).
		Post(path)
	if err != nil {
		return nil, err
	}
	return goquery.NewDocumentFromReader(bytes.NewBuffer(res.Body()))
}

// GetImage fetches a raw image, resolving relative sources against the
// portal host.
func (c *Client) GetImage(ctx context.Context, src string) ([]byte, error) {
	parsed, err := url.Parse(src)
	if err != nil {
		return nil, err
	}
	resolved := c.baseUrl.ResolveReference(parsed)

	res, err := c.http.R().
		SetContext(ctx).
		Get(resolved.String())
	if err != nil {
		return nil, err
	}
	if res.StatusCode() != 200 {
		return nil, fmt.Errorf("fetch image %s: status %d", src, res.StatusCode())
	}
	return res.Body(), nil
}
