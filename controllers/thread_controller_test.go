package controllers

import (
	"fmt"
	"net/http"
	"net/url"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/honeybarrel/forum/models"
	"github.com/honeybarrel/forum/utils"
)

func TestCreateThreadWithFirstPost(t *testing.T) {
	db := newTestDB(t)
	user := createUser(t, db, "alice")
	cat := createCategory(t, db, "General")
	r := newTestRouter(db, user)

	w := postForm(r, "/new-thread", url.Values{
		"title":       {"Hello, World!"},
		"category_id": {fmt.Sprint(cat.ID)},
		"content":     {"<p>opening post</p>"},
	}, false)
	require.Equal(t, http.StatusSeeOther, w.Code)

	var thread models.Thread
	require.NoError(t, db.Where("slug = ?", "hello-world").First(&thread).Error)
	assert.Equal(t, "Hello, World!", thread.Title)
	assert.Equal(t, thread.URL(), w.Header().Get("Location"))

	var posts int64
	db.Model(&models.Post{}).Where("thread_id = ?", thread.ID).Count(&posts)
	assert.EqualValues(t, 1, posts)
}

func TestCreateThreadSlugCollisionGetsSuffix(t *testing.T) {
	db := newTestDB(t)
	user := createUser(t, db, "alice")
	cat := createCategory(t, db, "General")
	r := newTestRouter(db, user)

	form := url.Values{
		"title":       {"Hello World"},
		"category_id": {fmt.Sprint(cat.ID)},
		"content":     {"<p>body</p>"},
	}
	require.Equal(t, http.StatusSeeOther, postForm(r, "/new-thread", form, false).Code)
	require.Equal(t, http.StatusSeeOther, postForm(r, "/new-thread", form, false).Code)

	var slugs []string
	require.NoError(t, db.Model(&models.Thread{}).Order("id").Pluck("slug", &slugs).Error)
	assert.Equal(t, []string{"hello-world", "hello-world-1"}, slugs)
}

func TestCreateThreadValidation(t *testing.T) {
	db := newTestDB(t)
	user := createUser(t, db, "alice")
	cat := createCategory(t, db, "General")
	r := newTestRouter(db, user)

	cases := []url.Values{
		{"title": {""}, "category_id": {fmt.Sprint(cat.ID)}, "content": {"<p>x</p>"}},
		{"title": {"No body"}, "category_id": {fmt.Sprint(cat.ID)}, "content": {"  "}},
		{"title": {"No category"}, "category_id": {"999"}, "content": {"<p>x</p>"}},
		{"title": {"Script only"}, "category_id": {fmt.Sprint(cat.ID)}, "content": {"<script>x</script>"}},
	}
	for i, form := range cases {
		w := postForm(r, "/new-thread", form, false)
		assert.Equal(t, http.StatusBadRequest, w.Code, "case %d", i)
	}

	var threads int64
	db.Model(&models.Thread{}).Count(&threads)
	assert.Zero(t, threads)
}

func TestThreadPageIncrementsViewsAndPaginates(t *testing.T) {
	db := newTestDB(t)
	user := createUser(t, db, "alice")
	cat := createCategory(t, db, "General")
	th := createThread(t, db, cat, user, "Long thread")
	for i := 0; i < 12; i++ {
		createPost(t, db, th, user, fmt.Sprintf("<p>message %d</p>", i))
	}
	r := newTestRouter(db, user)

	w := get(r, th.URL())
	require.Equal(t, http.StatusOK, w.Code)
	body := w.Body.String()
	assert.Contains(t, body, "message 0")
	assert.Contains(t, body, "message 9")
	assert.NotContains(t, body, "message 10")
	assert.Contains(t, body, `id="post-`, "posts must carry their anchors")
	assert.Contains(t, body, `id="post-form"`, "reply form must render for the author")

	w = get(r, th.URL()+"?page=2")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "message 10")

	var got models.Thread
	require.NoError(t, db.First(&got, th.ID).Error)
	assert.EqualValues(t, 2, got.Views)
}

func TestThreadPageNotFound(t *testing.T) {
	db := newTestDB(t)
	r := newTestRouter(db, nil)
	assert.Equal(t, http.StatusNotFound, get(r, "/t/999/missing").Code)
}

func TestEditThreadFlagsAdminOnly(t *testing.T) {
	db := newTestDB(t)
	user := createUser(t, db, "alice")
	admin := createUser(t, db, "admin")
	cat := createCategory(t, db, "General")
	th := createThread(t, db, cat, user, "Flagged thread")

	// The author can rename but cannot pin or close.
	w := postForm(newTestRouter(db, user), fmt.Sprintf("/threads/%d/edit", th.ID), url.Values{
		"title":  {"Renamed thread"},
		"pinned": {"1"},
		"closed": {"1"},
	}, false)
	require.Equal(t, http.StatusSeeOther, w.Code)

	var got models.Thread
	require.NoError(t, db.First(&got, th.ID).Error)
	assert.Equal(t, "Renamed thread", got.Title)
	assert.False(t, got.Pinned)
	assert.False(t, got.Closed)

	w = postForm(newTestRouter(db, admin), fmt.Sprintf("/threads/%d/edit", th.ID), url.Values{
		"title":  {"Renamed thread"},
		"pinned": {"1"},
		"closed": {"1"},
	}, false)
	require.Equal(t, http.StatusSeeOther, w.Code)
	require.NoError(t, db.First(&got, th.ID).Error)
	assert.True(t, got.Pinned)
	assert.True(t, got.Closed)
}

func TestDeleteThreadCascades(t *testing.T) {
	db := newTestDB(t)
	user := createUser(t, db, "alice")
	cat := createCategory(t, db, "General")
	th := createThread(t, db, cat, user, "Doomed thread")
	post := createPost(t, db, th, user, "<p>going away</p>")
	require.NoError(t, db.Create(&models.Like{UserID: user.ID, PostID: post.ID}).Error)
	r := newTestRouter(db, user)

	w := postForm(r, fmt.Sprintf("/threads/%d/delete", th.ID), url.Values{}, false)
	require.Equal(t, http.StatusSeeOther, w.Code)

	var count int64
	db.Model(&models.Thread{}).Where("id = ?", th.ID).Count(&count)
	assert.Zero(t, count)
	db.Model(&models.Post{}).Where("thread_id = ?", th.ID).Count(&count)
	assert.Zero(t, count)
	db.Model(&models.Like{}).Where("post_id = ?", post.ID).Count(&count)
	assert.Zero(t, count)
}

func TestDeleteThreadForbiddenForNonAuthor(t *testing.T) {
	db := newTestDB(t)
	owner := createUser(t, db, "alice")
	intruder := createUser(t, db, "bob")
	cat := createCategory(t, db, "General")
	th := createThread(t, db, cat, owner, "Protected thread")

	w := postForm(newTestRouter(db, intruder), fmt.Sprintf("/threads/%d/delete", th.ID), url.Values{}, false)
	assert.Equal(t, http.StatusForbidden, w.Code)

	var count int64
	db.Model(&models.Thread{}).Where("id = ?", th.ID).Count(&count)
	assert.EqualValues(t, 1, count)
}

func TestIndexListsThreads(t *testing.T) {
	db := newTestDB(t)
	user := createUser(t, db, "alice")
	cat := createCategory(t, db, "General")
	createThread(t, db, cat, user, "Visible thread")
	r := newTestRouter(db, nil)

	w := get(r, "/")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "Visible thread")
	assert.Contains(t, w.Body.String(), "General")
}

func TestIndexShowsOnlineUsers(t *testing.T) {
	db := newTestDB(t)
	user := createUser(t, db, "carol-online")
	cat := createCategory(t, db, "General")
	createThread(t, db, cat, user, "Hello")
	utils.MarkOnline("carol-online")
	r := newTestRouter(db, nil)

	w := get(r, "/")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "Online now")
	assert.Contains(t, w.Body.String(), `/profile/carol-online`)
}
