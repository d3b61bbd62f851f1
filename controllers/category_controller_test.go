package controllers

import (
	"fmt"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/honeybarrel/forum/models"
)

func postJSON(r *gin.Engine, method, path, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestCreateCategoryAdminOnly(t *testing.T) {
	db := newTestDB(t)
	user := createUser(t, db, "alice")
	admin := createUser(t, db, "admin")

	w := postJSON(newTestRouter(db, user), http.MethodPost, "/api/v1/categories",
		`{"title":"Off Topic"}`)
	assert.Equal(t, http.StatusForbidden, w.Code)

	w = postJSON(newTestRouter(db, admin), http.MethodPost, "/api/v1/categories",
		`{"title":"Off Topic","description":"anything goes"}`)
	require.Equal(t, http.StatusOK, w.Code)

	var cat models.Category
	require.NoError(t, db.Where("slug = ?", "off-topic").First(&cat).Error)
	assert.Equal(t, "Off Topic", cat.Title)
	assert.Equal(t, "anything goes", cat.Description)
}

func TestCreateCategoryDuplicateTitleGetsSuffixedSlug(t *testing.T) {
	db := newTestDB(t)
	admin := createUser(t, db, "admin")
	r := newTestRouter(db, admin)

	require.Equal(t, http.StatusOK,
		postJSON(r, http.MethodPost, "/api/v1/categories", `{"title":"News"}`).Code)
	require.Equal(t, http.StatusOK,
		postJSON(r, http.MethodPost, "/api/v1/categories", `{"title":"News"}`).Code)

	var slugs []string
	require.NoError(t, db.Model(&models.Category{}).Order("id").Pluck("slug", &slugs).Error)
	assert.Equal(t, []string{"news", "news-1"}, slugs)
}

func TestDeleteCategoryBlockedWhileThreadsExist(t *testing.T) {
	db := newTestDB(t)
	admin := createUser(t, db, "admin")
	cat := createCategory(t, db, "Busy")
	th := createThread(t, db, cat, admin, "Still here")
	r := newTestRouter(db, admin)

	w := postJSON(r, http.MethodDelete, fmt.Sprintf("/api/v1/categories/%d", cat.ID), "")
	assert.Equal(t, http.StatusConflict, w.Code)

	require.NoError(t, db.Delete(&models.Post{}, "thread_id = ?", th.ID).Error)
	require.NoError(t, db.Delete(th).Error)

	w = postJSON(r, http.MethodDelete, fmt.Sprintf("/api/v1/categories/%d", cat.ID), "")
	require.Equal(t, http.StatusOK, w.Code)

	var count int64
	db.Model(&models.Category{}).Where("id = ?", cat.ID).Count(&count)
	assert.Zero(t, count)
}

func TestCategoryPageListsItsThreadsOnly(t *testing.T) {
	db := newTestDB(t)
	user := createUser(t, db, "alice")
	general := createCategory(t, db, "General")
	offtopic := createCategory(t, db, "Off Topic")
	createThread(t, db, general, user, "General talk")
	createThread(t, db, offtopic, user, "Random chatter")
	r := newTestRouter(db, nil)

	w := get(r, "/c/"+general.Slug)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "General talk")
	assert.NotContains(t, w.Body.String(), "Random chatter")
}

func TestCategoryPageUnknownSlug(t *testing.T) {
	db := newTestDB(t)
	r := newTestRouter(db, nil)
	assert.Equal(t, http.StatusNotFound, get(r, "/c/nope").Code)
}

func TestCategoriesPageShowsThreadCounts(t *testing.T) {
	db := newTestDB(t)
	user := createUser(t, db, "alice")
	cat := createCategory(t, db, "Counted")
	createThread(t, db, cat, user, "One")
	createThread(t, db, cat, user, "Two")
	r := newTestRouter(db, nil)

	w := get(r, "/categories")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "Counted")
}

func TestRegisterCreatesUserAndProfile(t *testing.T) {
	db := newTestDB(t)
	r := newTestRouter(db, nil)

	w := postForm(r, "/register", url.Values{
		"username": {"newcomer"},
		"email":    {"newcomer@example.com"},
		"password": {"long enough pass"},
		"confirm":  {"long enough pass"},
	}, false)
	require.Equal(t, http.StatusSeeOther, w.Code)

	var user models.User
	require.NoError(t, db.Where("username = ?", "newcomer").First(&user).Error)
	var profile models.Profile
	require.NoError(t, db.Where("user_id = ?", user.ID).First(&profile).Error)
}

func TestRegisterDuplicateUsername(t *testing.T) {
	db := newTestDB(t)
	createUser(t, db, "taken")
	r := newTestRouter(db, nil)

	w := postForm(r, "/register", url.Values{
		"username": {"taken"},
		"email":    {"other@example.com"},
		"password": {"long enough pass"},
		"confirm":  {"long enough pass"},
	}, false)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "already taken")

	var count int64
	db.Model(&models.User{}).Where("username = ?", "taken").Count(&count)
	assert.EqualValues(t, 1, count)
}

func TestRegisterValidation(t *testing.T) {
	db := newTestDB(t)
	r := newTestRouter(db, nil)

	cases := []url.Values{
		{"username": {"ab"}, "email": {"a@b.c"}, "password": {"long enough pass"}, "confirm": {"long enough pass"}},
		{"username": {"fine"}, "email": {"not-an-email"}, "password": {"long enough pass"}, "confirm": {"long enough pass"}},
		{"username": {"fine"}, "email": {"a@b.c"}, "password": {"short"}, "confirm": {"short"}},
		{"username": {"fine"}, "email": {"a@b.c"}, "password": {"long enough pass"}, "confirm": {"different pass"}},
	}
	for i, form := range cases {
		w := postForm(r, "/register", form, false)
		assert.Equal(t, http.StatusBadRequest, w.Code, "case %d", i)
	}

	var count int64
	db.Model(&models.User{}).Count(&count)
	assert.Zero(t, count)
}
