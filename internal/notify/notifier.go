package notify

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/rs/zerolog"

	"vehicle-accounting/gps/internal/domain"
	"vehicle-accounting/gps/internal/metrics"
)

var (
	// ErrNotLoggedIn means the subscriber has no session.
	ErrNotLoggedIn = errors.New("not logged in")
	// ErrSessionExpired means the refresh was rejected and the session
	// was cleared; the subscriber must log in again.
	ErrSessionExpired = errors.New("session expired, log in again")
)

// requestAttempts bounds the refresh-and-retry cycle so an endlessly
// token-rejecting API cannot loop the notifier.
const requestAttempts = 2

// ChatSender delivers a text message to one subscriber.
type ChatSender interface {
	Send(ctx context.Context, subscriberID int64, text string) error
}

// TokenExchanger is the external auth collaborator.
type TokenExchanger interface {
	Login(ctx context.Context, username, password string) (access, refresh string, err error)
	Refresh(ctx context.Context, refreshToken string) (access string, err error)
}

// Notifier fans speed alerts out to logged-in chat subscribers and
// services their authenticated requests against the fleet API.
type Notifier struct {
	sessions SessionStore
	auth     TokenExchanger
	chat     ChatSender
	apiURL   string
	http     *http.Client
	log      zerolog.Logger
}

func NewNotifier(sessions SessionStore, auth TokenExchanger, chat ChatSender, apiURL string, log zerolog.Logger) *Notifier {
	return &Notifier{
		sessions: sessions,
		auth:     auth,
		chat:     chat,
		apiURL:   apiURL,
		http:     &http.Client{Timeout: 15 * time.Second},
		log:      log,
	}
}

// Login exchanges credentials for a token pair and stores the session.
func (n *Notifier) Login(ctx context.Context, subscriberID int64, username, password string) error {
	access, refresh, err := n.auth.Login(ctx, username, password)
	if err != nil {
		return err
	}

	return n.sessions.Put(ctx, &Session{
		SubscriberID: subscriberID,
		AccessToken:  access,
		RefreshToken: refresh,
	})
}

func (n *Notifier) Logout(ctx context.Context, subscriberID int64) error {
	return n.sessions.Delete(ctx, subscriberID)
}

func (n *Notifier) LoggedIn(ctx context.Context, subscriberID int64) bool {
	sess, err := n.sessions.Get(ctx, subscriberID)
	return err == nil && sess != nil
}

// GetJSON performs an authenticated GET on behalf of a subscriber. An
// expired access token triggers exactly one refresh-and-retry cycle; a
// rejected refresh logs the subscriber out and returns ErrSessionExpired.
func (n *Notifier) GetJSON(ctx context.Context, subscriberID int64, url string, out any) error {
	return n.getJSON(ctx, subscriberID, url, out, requestAttempts)
}

func (n *Notifier) getJSON(ctx context.Context, subscriberID int64, url string, out any, attemptsLeft int) error {
	if attemptsLeft == 0 {
		return fmt.Errorf("request kept failing after token refresh")
	}

	sess, err := n.sessions.Get(ctx, subscriberID)
	if err != nil {
		return err
	}
	if sess == nil {
		return ErrNotLoggedIn
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+sess.AccessToken)

	resp, err := n.http.Do(req)
	if err != nil {
		return fmt.Errorf("request %s: %w", url, err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusOK:
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			return fmt.Errorf("decode response: %w", err)
		}
		return nil

	case resp.StatusCode == http.StatusUnauthorized:
		// Refresh at most once per request. A 401 on the already-retried
		// call means the freshly refreshed token is rejected too, which
		// another refresh cannot cure.
		if attemptsLeft < requestAttempts {
			return fmt.Errorf("request kept failing after token refresh")
		}
		access, err := n.auth.Refresh(ctx, sess.RefreshToken)
		if err != nil {
			_ = n.sessions.Delete(ctx, subscriberID)
			return ErrSessionExpired
		}
		sess.AccessToken = access
		if err := n.sessions.Put(ctx, sess); err != nil {
			return err
		}
		return n.getJSON(ctx, subscriberID, url, out, attemptsLeft-1)

	default:
		return fmt.Errorf("request failed: %s", resp.Status)
	}
}

// HandleAlert decodes one alert-topic message and delivers the formatted
// text to every logged-in subscriber. One subscriber's delivery failure
// never blocks the rest.
func (n *Notifier) HandleAlert(ctx context.Context, payload []byte) error {
	var alert domain.SpeedAlert
	if err := json.Unmarshal(payload, &alert); err != nil {
		return fmt.Errorf("decode speed alert: %w", err)
	}

	text := FormatAlert(alert)

	sessions, err := n.sessions.All(ctx)
	if err != nil {
		return fmt.Errorf("list sessions: %w", err)
	}

	for _, sess := range sessions {
		if err := n.chat.Send(ctx, sess.SubscriberID, text); err != nil {
			metrics.AlertDeliveryFailures.Inc()
			n.log.Error().
				Err(err).
				Int64("subscriber_id", sess.SubscriberID).
				Int64("vehicle_id", alert.VehicleID).
				Msg("alert delivery failed")
			continue
		}
		metrics.AlertDeliveries.Inc()
	}
	return nil
}

// VehicleMileageReport fetches and formats the fleet API's mileage report
// for one vehicle through the authenticated request path.
func (n *Notifier) VehicleMileageReport(ctx context.Context, subscriberID int64, vehicleID, period, startDate, endDate string) (string, error) {
	url := fmt.Sprintf(
		"%svehicle_mileage_report/?vehicle_id=%s&period=%s&start_date=%s&end_date=%s",
		n.apiURL, vehicleID, period, startDate, endDate,
	)

	var report mileageReport
	if err := n.GetJSON(ctx, subscriberID, url, &report); err != nil {
		return "", err
	}
	return formatMileageReport(&report), nil
}
