package handler

import (
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/videotube/api/internal/api/metrics"
	"github.com/videotube/api/internal/core/ports"
)

// ProfileHandler handles channel profiles, watch history, subscriptions, and
// video publishing.
type ProfileHandler struct {
	service ports.ProfileService
}

func NewProfileHandler(service ports.ProfileService) *ProfileHandler {
	return &ProfileHandler{service: service}
}

// ChannelProfile returns the aggregated channel view for the authenticated
// viewer.
//
// @Summary      Get a channel profile
// @Tags         channels
// @Produce      json
// @Security     BearerAuth
// @Param        username  path      string  true  "Channel username"
// @Success      200       {object}  apiEnvelope
// @Failure      400       {object}  apiEnvelope
// @Failure      404       {object}  apiEnvelope
// @Router       /users/c/{username} [get]
func (h *ProfileHandler) ChannelProfile(c echo.Context) error {
	timer := prometheus.NewTimer(metrics.RequestDuration.WithLabelValues("channel_profile"))
	defer timer.ObserveDuration()

	profile, err := h.service.GetChannelProfile(c.Request().Context(), ctxViewerID(c), c.Param("username"))
	if err != nil {
		return err
	}

	return respond(c, http.StatusOK, "channel profile fetched", profile)
}

// WatchHistory returns the viewer's history, newest first, each video
// expanded with its owner.
//
// @Summary      Get watch history
// @Tags         users
// @Produce      json
// @Security     BearerAuth
// @Success      200  {object}  apiEnvelope
// @Failure      401  {object}  apiEnvelope
// @Router       /users/history [get]
func (h *ProfileHandler) WatchHistory(c echo.Context) error {
	timer := prometheus.NewTimer(metrics.RequestDuration.WithLabelValues("watch_history"))
	defer timer.ObserveDuration()

	userID, err := ctxUserID(c)
	if err != nil {
		return err
	}

	history, err := h.service.GetWatchHistory(c.Request().Context(), userID)
	if err != nil {
		return err
	}

	return respond(c, http.StatusOK, "watch history fetched", history)
}

// ToggleSubscription flips the viewer's subscription to the named channel.
//
// @Summary      Subscribe to or unsubscribe from a channel
// @Tags         subscriptions
// @Produce      json
// @Security     BearerAuth
// @Param        username  path      string  true  "Channel username"
// @Success      200       {object}  apiEnvelope
// @Failure      400       {object}  apiEnvelope
// @Failure      404       {object}  apiEnvelope
// @Router       /subscriptions/c/{username} [post]
func (h *ProfileHandler) ToggleSubscription(c echo.Context) error {
	userID, err := ctxUserID(c)
	if err != nil {
		return err
	}

	subscribed, err := h.service.ToggleSubscription(c.Request().Context(), userID, c.Param("username"))
	if err != nil {
		return err
	}

	msg := "unsubscribed"
	if subscribed {
		msg = "subscribed"
	}
	return respond(c, http.StatusOK, msg, subscriptionResponse{Subscribed: subscribed})
}

// RecordWatch appends the video to the viewer's history and bumps its views.
//
// @Summary      Record a video view
// @Tags         videos
// @Produce      json
// @Security     BearerAuth
// @Param        id  path      string  true  "Video id"
// @Success      200 {object}  apiEnvelope
// @Failure      404 {object}  apiEnvelope
// @Router       /videos/{id}/view [post]
func (h *ProfileHandler) RecordWatch(c echo.Context) error {
	userID, err := ctxUserID(c)
	if err != nil {
		return err
	}

	if err := h.service.RecordWatch(c.Request().Context(), userID, c.Param("id")); err != nil {
		return err
	}

	return respond(c, http.StatusOK, "view recorded", nil)
}

// PublishVideo uploads a video with its thumbnail and creates the record.
//
// @Summary      Publish a video
// @Tags         videos
// @Accept       multipart/form-data
// @Produce      json
// @Security     BearerAuth
// @Param        title        formData  string  true  "Title"
// @Param        description  formData  string  true  "Description"
// @Param        duration     formData  number  false "Duration in seconds"
// @Param        video        formData  file    true  "Video file"
// @Param        thumbnail    formData  file    true  "Thumbnail image"
// @Success      201  {object}  apiEnvelope
// @Failure      400  {object}  apiEnvelope
// @Failure      500  {object}  apiEnvelope
// @Router       /videos [post]
func (h *ProfileHandler) PublishVideo(c echo.Context) error {
	timer := prometheus.NewTimer(metrics.RequestDuration.WithLabelValues("publish_video"))
	defer timer.ObserveDuration()

	userID, err := ctxUserID(c)
	if err != nil {
		return err
	}

	video, closeVideo, err := formUpload(c, "video")
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid video file")
	}
	defer closeVideo()

	thumb, closeThumb, err := formUpload(c, "thumbnail")
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid thumbnail file")
	}
	defer closeThumb()

	duration, _ := strconv.ParseFloat(c.FormValue("duration"), 64)

	result, err := h.service.PublishVideo(c.Request().Context(), ports.PublishVideoInput{
		OwnerID:     userID,
		Title:       c.FormValue("title"),
		Description: c.FormValue("description"),
		Duration:    duration,
		VideoFile:   video,
		Thumbnail:   thumb,
	})
	if err != nil {
		return err
	}

	metrics.MediaUploadsTotal.WithLabelValues("video").Inc()
	metrics.MediaUploadsTotal.WithLabelValues("thumbnail").Inc()

	return respond(c, http.StatusCreated, "video published successfully", result)
}
