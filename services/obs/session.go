// Package obs drives one authenticated session per account through the
// portal's pages until the exam results listing is reached.
package obs

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/PuerkitoBio/goquery"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
)

var tracer = otel.Tracer("services/obs")

// The results listing sits three menu selections deep from the main menu.
var navigationPath = [3]string{
	"/Ogrenci/Anasayfa",
	"/Ogrenci/Notlar",
	"/Ogrenci/Notlar/SinavSonuclari",
}

const consentAcceptPath = "/Account/KvkkOnay"

type Account struct {
	Label    string `json:"label"`
	Username string `json:"username"`
	Password string `json:"password"`
}

type SessionOptions struct {
	LoginUrl string
	Oracle   CaptchaOracle
	// MaxAttempts bounds the classify-act loop of a single Run. Defaults
	// to 15 when zero.
	MaxAttempts int
}

// Session owns one portal connection for one account. It is not safe for
// concurrent use; the scheduler gives every account its own instance.
type Session struct {
	account     Account
	oracle      CaptchaOracle
	client      *Client
	maxAttempts int
}

func NewSession(account Account, opts SessionOptions) (*Session, error) {
	if opts.Oracle == nil {
		return nil, fmt.Errorf("a captcha oracle is required")
	}
	client, err := NewClient(opts.LoginUrl)
	if err != nil {
		return nil, err
	}
	maxAttempts := opts.MaxAttempts
	if maxAttempts == 0 {
		maxAttempts = 15
	}
	return &Session{
		account:     account,
		oracle:      opts.Oracle,
		client:      client,
		maxAttempts: maxAttempts,
	}, nil
}

// Run classifies the current page and executes the matching action until
// the results listing is reached, then extracts and returns it. Transient
// faults reload the page and re-classify; every iteration counts against
// the attempt budget so a misbehaving portal cannot loop forever.
func (s *Session) Run(ctx context.Context) ([]LectureResult, error) {
	ctx, span := tracer.Start(ctx, "Run")
	defer span.End()
	span.SetAttributes(attribute.String("account", s.account.Label))

	doc, err := s.client.GetLogin(ctx)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}

	for attempt := 0; attempt < s.maxAttempts; attempt++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		state := Classify(doc)
		slog.DebugContext(ctx, "classified page", "account", s.account.Label, "state", state.String())

		if state == StateResultsView {
			results, err := extractResults(doc)
			if err != nil {
				span.RecordError(err)
				span.SetStatus(codes.Error, err.Error())
				return nil, err
			}
			return results, nil
		}

		doc, err = s.act(ctx, state, doc)
		if err != nil {
			if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
				return nil, err
			}
			slog.WarnContext(
				ctx, "session action failed, reloading",
				"account", s.account.Label,
				"state", state.String(),
				"err", err,
			)
			doc, err = s.client.GetLogin(ctx)
			if err != nil {
				span.RecordError(err)
				span.SetStatus(codes.Error, err.Error())
				return nil, err
			}
		}
	}

	err = fmt.Errorf("gave up after %d attempts without reaching the results page", s.maxAttempts)
	span.SetStatus(codes.Error, err.Error())
	return nil, err
}

func (s *Session) act(ctx context.Context, state State, doc *goquery.Document) (*goquery.Document, error) {
	switch state {
	case StateCaptchaBlocked:
		slog.InfoContext(ctx, "session blocked by anti-automation challenge, rebuilding connection", "account", s.account.Label)
		err := s.client.Reset()
		if err != nil {
			return nil, err
		}
		return s.client.GetLogin(ctx)
	case StateLoggedOut:
		return s.login(ctx, doc)
	case StateConsentForm:
		return s.dismissConsent(ctx)
	case StateMainMenu:
		return s.navigateToResults(ctx)
	}
	return nil, fmt.Errorf("page matched no known marker")
}

// login fills the credentials, reads the captcha through the oracle and
// submits the form. When the oracle cannot read the image the login page
// is reloaded to get a fresh captcha and no form is submitted.
func (s *Session) login(ctx context.Context, doc *goquery.Document) (*goquery.Document, error) {
	src := doc.Find(selectorCaptchaImage).AttrOr("src", "")
	if src == "" {
		return nil, fmt.Errorf("login page has no captcha image")
	}

	image, err := s.client.GetImage(ctx, src)
	if err != nil {
		return nil, err
	}

	answer, err := s.oracle.Recognize(ctx, image)
	if errors.Is(err, ErrUnrecognized) {
		slog.InfoContext(ctx, "captcha unreadable, reloading login page", "account", s.account.Label)
		return s.client.GetLogin(ctx)
	}
	if err != nil {
		return nil, err
	}

	return s.client.PostForm(ctx, s.client.loginPath, map[string]string{
		"OtherUsername": s.account.Username,
		"OtherPassword": s.account.Password,
		"Captcha":       fmt.Sprintf("%d", answer),
	})
}

func (s *Session) dismissConsent(ctx context.Context) (*goquery.Document, error) {
	return s.client.PostForm(ctx, consentAcceptPath, map[string]string{
		"onay": "true",
	})
}

// navigateToResults walks the fixed three-step menu path to the exam
// results listing.
func (s *Session) navigateToResults(ctx context.Context) (*goquery.Document, error) {
	var doc *goquery.Document
	var err error
	for _, path := range navigationPath {
		doc, err = s.client.Get(ctx, path)
		if err != nil {
			return nil, fmt.Errorf("navigate %s: %w", path, err)
		}
	}
	return doc, nil
}
