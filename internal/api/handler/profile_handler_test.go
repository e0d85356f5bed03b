package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"testing"

	"github.com/labstack/echo/v4"

	"github.com/videotube/api/internal/core/domain"
	"github.com/videotube/api/internal/core/ports"
)

type stubProfileService struct {
	profile      *ports.ChannelProfile
	profileErr   error
	lastViewerID string
	lastUsername string

	history []ports.WatchHistoryItem

	subscribed bool
	toggleErr  error
}

func (s *stubProfileService) GetChannelProfile(_ context.Context, viewerID, username string) (*ports.ChannelProfile, error) {
	s.lastViewerID = viewerID
	s.lastUsername = username
	return s.profile, s.profileErr
}

func (s *stubProfileService) GetWatchHistory(context.Context, string) ([]ports.WatchHistoryItem, error) {
	return s.history, nil
}

func (s *stubProfileService) ToggleSubscription(_ context.Context, _, username string) (bool, error) {
	s.lastUsername = username
	return s.subscribed, s.toggleErr
}

func (s *stubProfileService) RecordWatch(context.Context, string, string) error {
	return nil
}

func (s *stubProfileService) PublishVideo(context.Context, ports.PublishVideoInput) (*ports.PublishVideoResult, error) {
	return nil, errors.New("not stubbed")
}

func TestProfileHandler_ChannelProfile(t *testing.T) {
	svc := &stubProfileService{
		profile: &ports.ChannelProfile{Username: "alice", SubscriberCount: 7, IsSubscribed: true},
	}
	h := NewProfileHandler(svc)

	c, rec := newTestContext(http.MethodGet, "/api/v1/users/c/alice", "")
	c.SetParamNames("username")
	c.SetParamValues("alice")
	c.Set("user_id", "user_2")

	if err := h.ChannelProfile(c); err != nil {
		t.Fatalf("channel profile handler: %v", err)
	}
	if svc.lastViewerID != "user_2" || svc.lastUsername != "alice" {
		t.Fatalf("unexpected service args: viewer=%q username=%q", svc.lastViewerID, svc.lastUsername)
	}

	var envelope struct {
		Data ports.ChannelProfile `json:"data"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &envelope); err != nil {
		t.Fatalf("decode envelope: %v", err)
	}
	if envelope.Data.SubscriberCount != 7 || !envelope.Data.IsSubscribed {
		t.Fatalf("unexpected payload: %+v", envelope.Data)
	}
}

func TestProfileHandler_ChannelProfile_AnonymousViewer(t *testing.T) {
	svc := &stubProfileService{profile: &ports.ChannelProfile{Username: "alice"}}
	h := NewProfileHandler(svc)

	c, _ := newTestContext(http.MethodGet, "/api/v1/users/c/alice", "")
	c.SetParamNames("username")
	c.SetParamValues("alice")

	if err := h.ChannelProfile(c); err != nil {
		t.Fatalf("channel profile handler: %v", err)
	}
	if svc.lastViewerID != "" {
		t.Fatalf("expected empty viewer without claims, got %q", svc.lastViewerID)
	}
}

func TestProfileHandler_ChannelProfile_NotFound(t *testing.T) {
	svc := &stubProfileService{profileErr: domain.ErrUserNotFound}
	h := NewProfileHandler(svc)

	c, _ := newTestContext(http.MethodGet, "/api/v1/users/c/ghost", "")
	c.SetParamNames("username")
	c.SetParamValues("ghost")

	if err := h.ChannelProfile(c); !errors.Is(err, domain.ErrUserNotFound) {
		t.Fatalf("expected ErrUserNotFound to pass through, got %v", err)
	}
}

func TestProfileHandler_WatchHistory(t *testing.T) {
	svc := &stubProfileService{
		history: []ports.WatchHistoryItem{
			{ID: "video_2", Title: "second"},
			{ID: "video_1", Title: "first"},
		},
	}
	h := NewProfileHandler(svc)

	c, rec := newTestContext(http.MethodGet, "/api/v1/users/history", "")
	c.Set("user_id", "user_1")

	if err := h.WatchHistory(c); err != nil {
		t.Fatalf("watch history handler: %v", err)
	}

	var envelope struct {
		Data []ports.WatchHistoryItem `json:"data"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &envelope); err != nil {
		t.Fatalf("decode envelope: %v", err)
	}
	if len(envelope.Data) != 2 || envelope.Data[0].ID != "video_2" {
		t.Fatalf("expected stored order in payload, got %+v", envelope.Data)
	}
}

func TestProfileHandler_WatchHistory_RequiresClaims(t *testing.T) {
	h := NewProfileHandler(&stubProfileService{})

	c, _ := newTestContext(http.MethodGet, "/api/v1/users/history", "")
	err := h.WatchHistory(c)

	var httpErr *echo.HTTPError
	if !errors.As(err, &httpErr) || httpErr.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 without claims, got %v", err)
	}
}

func TestProfileHandler_ToggleSubscription(t *testing.T) {
	svc := &stubProfileService{subscribed: true}
	h := NewProfileHandler(svc)

	c, rec := newTestContext(http.MethodPost, "/api/v1/subscriptions/c/alice", "")
	c.SetParamNames("username")
	c.SetParamValues("alice")
	c.Set("user_id", "user_2")

	if err := h.ToggleSubscription(c); err != nil {
		t.Fatalf("toggle handler: %v", err)
	}

	var envelope struct {
		Message string `json:"message"`
		Data    struct {
			Subscribed bool `json:"subscribed"`
		} `json:"data"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &envelope); err != nil {
		t.Fatalf("decode envelope: %v", err)
	}
	if envelope.Message != "subscribed" || !envelope.Data.Subscribed {
		t.Fatalf("unexpected envelope: %+v", envelope)
	}
}

func TestProfileHandler_ToggleSubscription_SelfError(t *testing.T) {
	svc := &stubProfileService{toggleErr: domain.ErrSelfSubscription}
	h := NewProfileHandler(svc)

	c, _ := newTestContext(http.MethodPost, "/api/v1/subscriptions/c/alice", "")
	c.SetParamNames("username")
	c.SetParamValues("alice")
	c.Set("user_id", "user_1")

	if err := h.ToggleSubscription(c); !errors.Is(err, domain.ErrSelfSubscription) {
		t.Fatalf("expected ErrSelfSubscription, got %v", err)
	}
}
