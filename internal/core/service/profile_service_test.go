package service

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/rs/zerolog"

	"github.com/videotube/api/internal/core/domain"
	"github.com/videotube/api/internal/core/ports"
)

type profileFixture struct {
	users  *stubUserRepo
	videos *stubVideoRepo
	media  *stubMediaStore
	cache  *memProfileCache
	svc    ports.ProfileService
}

func newProfileFixture() *profileFixture {
	users := newStubUserRepo()
	videos := newStubVideoRepo()
	media := &stubMediaStore{}
	cache := newMemProfileCache()
	return &profileFixture{
		users:  users,
		videos: videos,
		media:  media,
		cache:  cache,
		svc:    NewProfileService(users, users.subs, videos, media, cache, zerolog.Nop()),
	}
}

func (f *profileFixture) addUser(t *testing.T, username string) *domain.User {
	t.Helper()
	user, err := f.users.Create(context.Background(), &domain.User{
		Username: username,
		Email:    username + "@example.com",
		FullName: strings.ToUpper(username[:1]) + username[1:],
		Avatar:   "https://media.test/avatars/" + username + ".png",
	})
	if err != nil {
		t.Fatalf("create %s: %v", username, err)
	}
	return user
}

func (f *profileFixture) addVideo(t *testing.T, ownerID, title string) *domain.Video {
	t.Helper()
	video, err := f.videos.Create(context.Background(), &domain.Video{
		OwnerID:     ownerID,
		Title:       title,
		Description: title + " description",
		VideoFile:   "https://media.test/videos/" + title + ".mp4",
		Thumbnail:   "https://media.test/thumbnails/" + title + ".png",
		Duration:    12.5,
		IsPublished: true,
	})
	if err != nil {
		t.Fatalf("create video %s: %v", title, err)
	}
	return video
}

func (f *profileFixture) subscribe(t *testing.T, subscriberID, channelID string) {
	t.Helper()
	added, err := f.users.subs.Toggle(context.Background(), subscriberID, channelID)
	if err != nil || !added {
		t.Fatalf("subscribe %s -> %s: added=%v err=%v", subscriberID, channelID, added, err)
	}
}

func TestProfileService_GetChannelProfile(t *testing.T) {
	f := newProfileFixture()
	channel := f.addUser(t, "alice")
	viewer := f.addUser(t, "bob")
	other := f.addUser(t, "carol")

	f.subscribe(t, viewer.ID, channel.ID)
	f.subscribe(t, other.ID, channel.ID)
	f.subscribe(t, channel.ID, other.ID)

	profile, err := f.svc.GetChannelProfile(context.Background(), viewer.ID, "alice")
	if err != nil {
		t.Fatalf("get channel profile: %v", err)
	}
	if profile.Username != "alice" || profile.Email != "alice@example.com" {
		t.Fatalf("unexpected projection: %+v", profile)
	}
	if profile.SubscriberCount != 2 {
		t.Fatalf("expected 2 subscribers, got %d", profile.SubscriberCount)
	}
	if profile.SubscribedTo != 1 {
		t.Fatalf("expected 1 subscription, got %d", profile.SubscribedTo)
	}
	if !profile.IsSubscribed {
		t.Fatalf("viewer is subscribed, flag should be true")
	}

	// a non-subscribed viewer sees the same counts with the flag off
	anon, err := f.svc.GetChannelProfile(context.Background(), "", "alice")
	if err != nil {
		t.Fatalf("anonymous profile: %v", err)
	}
	if anon.IsSubscribed {
		t.Fatalf("anonymous viewer must not appear subscribed")
	}
	if anon.SubscriberCount != 2 {
		t.Fatalf("expected 2 subscribers for anonymous viewer, got %d", anon.SubscriberCount)
	}
}

func TestProfileService_GetChannelProfile_HandleNormalization(t *testing.T) {
	f := newProfileFixture()
	f.addUser(t, "alice")

	profile, err := f.svc.GetChannelProfile(context.Background(), "", "  Alice ")
	if err != nil {
		t.Fatalf("expected trimmed, lowercased lookup to succeed: %v", err)
	}
	if profile.Username != "alice" {
		t.Fatalf("unexpected username %q", profile.Username)
	}
}

func TestProfileService_GetChannelProfile_Errors(t *testing.T) {
	f := newProfileFixture()

	if _, err := f.svc.GetChannelProfile(context.Background(), "", "   "); !errors.Is(err, domain.ErrFieldsRequired) {
		t.Fatalf("expected ErrFieldsRequired for blank handle, got %v", err)
	}
	if _, err := f.svc.GetChannelProfile(context.Background(), "", "ghost"); !errors.Is(err, domain.ErrUserNotFound) {
		t.Fatalf("expected ErrUserNotFound, got %v", err)
	}
}

func TestProfileService_GetChannelProfile_CacheNeverLeaksViewerFlag(t *testing.T) {
	f := newProfileFixture()
	channel := f.addUser(t, "alice")
	viewer := f.addUser(t, "bob")
	f.subscribe(t, viewer.ID, channel.ID)

	// first call populates the cache from the subscribed viewer's request
	first, err := f.svc.GetChannelProfile(context.Background(), viewer.ID, "alice")
	if err != nil {
		t.Fatalf("first profile: %v", err)
	}
	if !first.IsSubscribed {
		t.Fatalf("viewer should be subscribed")
	}

	cached, ok, _ := f.cache.Get(context.Background(), "alice")
	if !ok {
		t.Fatalf("expected profile to be cached")
	}
	if cached.IsSubscribed {
		t.Fatalf("cached projection must not carry the viewer flag")
	}

	// cache hit still resolves the flag per viewer
	second, err := f.svc.GetChannelProfile(context.Background(), viewer.ID, "alice")
	if err != nil {
		t.Fatalf("second profile: %v", err)
	}
	if !second.IsSubscribed {
		t.Fatalf("subscribed viewer lost the flag on a cache hit")
	}

	stranger := f.addUser(t, "carol")
	third, err := f.svc.GetChannelProfile(context.Background(), stranger.ID, "alice")
	if err != nil {
		t.Fatalf("third profile: %v", err)
	}
	if third.IsSubscribed {
		t.Fatalf("non-subscriber must not inherit a cached flag")
	}
}

func TestProfileService_ToggleSubscription(t *testing.T) {
	f := newProfileFixture()
	channel := f.addUser(t, "alice")
	viewer := f.addUser(t, "bob")

	subscribed, err := f.svc.ToggleSubscription(context.Background(), viewer.ID, "alice")
	if err != nil {
		t.Fatalf("toggle on: %v", err)
	}
	if !subscribed {
		t.Fatalf("expected first toggle to subscribe")
	}
	if on, _ := f.users.subs.Exists(context.Background(), viewer.ID, channel.ID); !on {
		t.Fatalf("edge missing after subscribe")
	}

	subscribed, err = f.svc.ToggleSubscription(context.Background(), viewer.ID, "alice")
	if err != nil {
		t.Fatalf("toggle off: %v", err)
	}
	if subscribed {
		t.Fatalf("expected second toggle to unsubscribe")
	}

	if f.cache.invalidated != 2 {
		t.Fatalf("expected cache invalidation on every toggle, got %d", f.cache.invalidated)
	}
}

func TestProfileService_ToggleSubscription_Errors(t *testing.T) {
	f := newProfileFixture()
	channel := f.addUser(t, "alice")

	if _, err := f.svc.ToggleSubscription(context.Background(), channel.ID, ""); !errors.Is(err, domain.ErrFieldsRequired) {
		t.Fatalf("expected ErrFieldsRequired, got %v", err)
	}
	if _, err := f.svc.ToggleSubscription(context.Background(), channel.ID, "ghost"); !errors.Is(err, domain.ErrUserNotFound) {
		t.Fatalf("expected ErrUserNotFound, got %v", err)
	}
	if _, err := f.svc.ToggleSubscription(context.Background(), channel.ID, "alice"); !errors.Is(err, domain.ErrSelfSubscription) {
		t.Fatalf("expected ErrSelfSubscription, got %v", err)
	}
}

func TestProfileService_GetWatchHistory_Empty(t *testing.T) {
	f := newProfileFixture()
	viewer := f.addUser(t, "bob")

	items, err := f.svc.GetWatchHistory(context.Background(), viewer.ID)
	if err != nil {
		t.Fatalf("watch history: %v", err)
	}
	if items == nil || len(items) != 0 {
		t.Fatalf("expected empty slice, got %#v", items)
	}

	if _, err := f.svc.GetWatchHistory(context.Background(), "user_404"); !errors.Is(err, domain.ErrUserNotFound) {
		t.Fatalf("expected ErrUserNotFound, got %v", err)
	}
}

func TestProfileService_GetWatchHistory_OrderAndOwners(t *testing.T) {
	f := newProfileFixture()
	owner := f.addUser(t, "alice")
	viewer := f.addUser(t, "bob")

	first := f.addVideo(t, owner.ID, "first")
	second := f.addVideo(t, owner.ID, "second")
	third := f.addVideo(t, owner.ID, "third")

	for _, v := range []*domain.Video{first, second, third} {
		if err := f.svc.RecordWatch(context.Background(), viewer.ID, v.ID); err != nil {
			t.Fatalf("record watch %s: %v", v.Title, err)
		}
	}

	items, err := f.svc.GetWatchHistory(context.Background(), viewer.ID)
	if err != nil {
		t.Fatalf("watch history: %v", err)
	}
	if len(items) != 3 {
		t.Fatalf("expected 3 items, got %d", len(items))
	}
	for i, want := range []string{"third", "second", "first"} {
		if items[i].Title != want {
			t.Fatalf("position %d: expected %s, got %s", i, want, items[i].Title)
		}
	}
	if items[0].Owner.Username != "alice" || items[0].Owner.Avatar == "" {
		t.Fatalf("expected owner projection, got %+v", items[0].Owner)
	}
}

func TestProfileService_RecordWatch_MovesExistingToFront(t *testing.T) {
	f := newProfileFixture()
	owner := f.addUser(t, "alice")
	viewer := f.addUser(t, "bob")

	first := f.addVideo(t, owner.ID, "first")
	second := f.addVideo(t, owner.ID, "second")

	for _, id := range []string{first.ID, second.ID, first.ID} {
		if err := f.svc.RecordWatch(context.Background(), viewer.ID, id); err != nil {
			t.Fatalf("record watch: %v", err)
		}
	}

	items, err := f.svc.GetWatchHistory(context.Background(), viewer.ID)
	if err != nil {
		t.Fatalf("watch history: %v", err)
	}
	if len(items) != 2 {
		t.Fatalf("expected rewatch to dedupe, got %d items", len(items))
	}
	if items[0].Title != "first" || items[1].Title != "second" {
		t.Fatalf("expected rewatched video at the front, got %s, %s", items[0].Title, items[1].Title)
	}

	stored, _ := f.videos.FindByID(context.Background(), first.ID)
	if stored.Views != 2 {
		t.Fatalf("expected 2 views on rewatched video, got %d", stored.Views)
	}

	if err := f.svc.RecordWatch(context.Background(), viewer.ID, "video_404"); !errors.Is(err, domain.ErrVideoNotFound) {
		t.Fatalf("expected ErrVideoNotFound, got %v", err)
	}
}

func TestProfileService_GetWatchHistory_SkipsDeletedVideos(t *testing.T) {
	f := newProfileFixture()
	owner := f.addUser(t, "alice")
	viewer := f.addUser(t, "bob")

	kept := f.addVideo(t, owner.ID, "kept")
	doomed := f.addVideo(t, owner.ID, "doomed")

	for _, id := range []string{kept.ID, doomed.ID} {
		if err := f.svc.RecordWatch(context.Background(), viewer.ID, id); err != nil {
			t.Fatalf("record watch: %v", err)
		}
	}
	delete(f.videos.videos, doomed.ID)

	items, err := f.svc.GetWatchHistory(context.Background(), viewer.ID)
	if err != nil {
		t.Fatalf("watch history: %v", err)
	}
	if len(items) != 1 || items[0].Title != "kept" {
		t.Fatalf("expected only the surviving video, got %+v", items)
	}
}

func TestProfileService_PublishVideo(t *testing.T) {
	f := newProfileFixture()
	owner := f.addUser(t, "alice")

	upload := func(name string) *ports.FileUpload {
		return &ports.FileUpload{Reader: strings.NewReader("data"), Size: 4, Filename: name}
	}

	result, err := f.svc.PublishVideo(context.Background(), ports.PublishVideoInput{
		OwnerID:     owner.ID,
		Title:       "  My Video ",
		Description: "about things",
		Duration:    30,
		VideoFile:   upload("clip.mp4"),
		Thumbnail:   upload("thumb.png"),
	})
	if err != nil {
		t.Fatalf("publish: %v", err)
	}
	if result.Title != "My Video" {
		t.Fatalf("expected trimmed title, got %q", result.Title)
	}
	if result.VideoFile == "" || result.Thumbnail == "" {
		t.Fatalf("expected asset references, got %+v", result)
	}

	stored, err := f.videos.FindByID(context.Background(), result.ID)
	if err != nil {
		t.Fatalf("stored video missing: %v", err)
	}
	if stored.OwnerID != owner.ID || !stored.IsPublished {
		t.Fatalf("unexpected stored video: %+v", stored)
	}
}

func TestProfileService_PublishVideo_Failures(t *testing.T) {
	f := newProfileFixture()
	owner := f.addUser(t, "alice")

	upload := func() *ports.FileUpload {
		return &ports.FileUpload{Reader: strings.NewReader("data"), Size: 4, Filename: "clip.mp4"}
	}

	cases := []ports.PublishVideoInput{
		{OwnerID: owner.ID, Title: " ", Description: "d", VideoFile: upload(), Thumbnail: upload()},
		{OwnerID: owner.ID, Title: "t", Description: "", VideoFile: upload(), Thumbnail: upload()},
		{OwnerID: owner.ID, Title: "t", Description: "d", VideoFile: nil, Thumbnail: upload()},
		{OwnerID: owner.ID, Title: "t", Description: "d", VideoFile: upload(), Thumbnail: nil},
	}
	for i, input := range cases {
		if _, err := f.svc.PublishVideo(context.Background(), input); !errors.Is(err, domain.ErrFieldsRequired) {
			t.Fatalf("case %d: expected ErrFieldsRequired, got %v", i, err)
		}
	}

	f.media.fail = true
	_, err := f.svc.PublishVideo(context.Background(), ports.PublishVideoInput{
		OwnerID: owner.ID, Title: "t", Description: "d", VideoFile: upload(), Thumbnail: upload(),
	})
	if !errors.Is(err, domain.ErrUploadFailed) {
		t.Fatalf("expected ErrUploadFailed, got %v", err)
	}
	if len(f.videos.videos) != 0 {
		t.Fatalf("expected no record on upload failure")
	}
}
