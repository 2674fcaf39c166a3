package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/emojiblog/emojiblog/internal/apperr"
	"github.com/emojiblog/emojiblog/internal/db"
	"github.com/emojiblog/emojiblog/internal/db/dbtest"
	"github.com/emojiblog/emojiblog/internal/identity"
	"github.com/emojiblog/emojiblog/internal/identity/identitytest"
	"github.com/emojiblog/emojiblog/internal/models"
	"github.com/emojiblog/emojiblog/internal/ratelimit"
	"github.com/emojiblog/emojiblog/pkg/config"
)

type testServer struct {
	engine *gin.Engine
	repo   *db.Repository
	signer *identitytest.Signer
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	gin.SetMode(gin.TestMode)

	database := dbtest.New(t)
	signer := identitytest.NewSigner(t)
	verifier, err := identity.NewVerifier(signer.PublicKeyPEM)
	if err != nil {
		t.Fatal(err)
	}
	provider := identitytest.NewProvider(
		identitytest.User("user_a", "alice"),
		identitytest.User("user_b", "bob"),
	)

	router := NewRouter(Deps{
		DB:       database,
		Provider: provider,
		Verifier: verifier,
		Limiter:  ratelimit.New(ratelimit.NewMemoryStore(), config.RateLimitConfig{Limit: 3, Window: time.Minute}, nil),
	})
	engine := gin.New()
	router.SetupRoutes(engine, &config.ServerConfig{AllowedOrigins: []string{"http://localhost:3000"}})

	return &testServer{engine: engine, repo: db.NewRepository(database.DB), signer: signer}
}

type rpcResult struct {
	JSONRPC string          `json:"jsonrpc"`
	ID      interface{}     `json:"id"`
	Result  json.RawMessage `json:"result"`
	Error   *struct {
		Code    int       `json:"code"`
		Message string    `json:"message"`
		Data    ErrorData `json:"data"`
	} `json:"error"`
}

func (s *testServer) do(t *testing.T, req *http.Request) (*httptest.ResponseRecorder, rpcResult) {
	t.Helper()
	rec := httptest.NewRecorder()
	s.engine.ServeHTTP(rec, req)
	var res rpcResult
	_ = json.Unmarshal(rec.Body.Bytes(), &res)
	return rec, res
}

func (s *testServer) call(t *testing.T, token, method string, params interface{}) rpcResult {
	t.Helper()
	body, _ := json.Marshal(map[string]interface{}{
		"jsonrpc": "2.0",
		"id":      1,
		"method":  method,
		"params":  params,
	})
	req := httptest.NewRequest(http.MethodPost, "/", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec, res := s.do(t, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("%s: status %d", method, rec.Code)
	}
	return res
}

func (s *testServer) seedPost(t *testing.T, author string) models.Post {
	t.Helper()
	p := models.Post{ID: uuid.NewString(), Title: "t", Content: "\U0001F600", AuthorID: author, CreatedAt: time.Now().UTC()}
	if err := db.NewPostRepository(s.repo).Create(context.Background(), &p); err != nil {
		t.Fatal(err)
	}
	return p
}

func TestHandle_ProtocolErrors(t *testing.T) {
	s := newTestServer(t)

	tests := []struct {
		name string
		body string
		code int
	}{
		{"malformed", `{"jsonrpc":`, ErrParseError},
		{"wrong version", `{"jsonrpc":"1.0","id":1,"method":"tag.getAll"}`, ErrInvalidRequest},
		{"unknown method", `{"jsonrpc":"2.0","id":1,"method":"post.delete"}`, ErrMethodNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodPost, "/", bytes.NewBufferString(tt.body))
			req.Header.Set("Content-Type", "application/json")
			_, res := s.do(t, req)
			if res.Error == nil || res.Error.Code != tt.code {
				t.Errorf("error = %+v, want code %d", res.Error, tt.code)
			}
		})
	}
}

func TestToggleLike_Unauthenticated(t *testing.T) {
	s := newTestServer(t)
	p := s.seedPost(t, "user_a")

	for _, token := range []string{"", "garbage", s.signer.Sign(t, "user_b", -time.Minute)} {
		res := s.call(t, token, "post.toggleLike", map[string]string{"postId": p.ID})
		if res.Error == nil || res.Error.Code != ErrUnauthorized || res.Error.Data.Kind != apperr.KindUnauthorized {
			t.Errorf("token %q: error = %+v, want UNAUTHORIZED", token, res.Error)
		}
	}

	counts, err := db.NewPostRepository(s.repo).CountEngagement(context.Background(), []string{p.ID})
	if err != nil || counts[p.ID].Likes != 0 {
		t.Errorf("likes = %d, %v; want 0", counts[p.ID].Likes, err)
	}
}

func TestToggleLike_Scenario(t *testing.T) {
	s := newTestServer(t)
	p := s.seedPost(t, "user_a")
	token := s.signer.Sign(t, "user_b", time.Hour)

	steps := []struct {
		wantLiked bool
		wantCount int64
	}{
		{true, 1},
		{false, 0},
	}
	for i, st := range steps {
		res := s.call(t, token, "post.toggleLike", map[string]string{"postId": p.ID})
		if res.Error != nil {
			t.Fatalf("toggle %d: %+v", i, res.Error)
		}
		var out struct {
			Liked bool `json:"liked"`
		}
		if err := json.Unmarshal(res.Result, &out); err != nil {
			t.Fatal(err)
		}
		if out.Liked != st.wantLiked {
			t.Errorf("toggle %d: liked = %v", i, out.Liked)
		}

		got := s.call(t, token, "post.getPostById", map[string]string{"id": p.ID})
		var view struct {
			Count struct {
				Likes int64 `json:"likes"`
			} `json:"_count"`
			IsLikedByUser *bool `json:"isLikedByUser"`
		}
		if err := json.Unmarshal(got.Result, &view); err != nil {
			t.Fatal(err)
		}
		if view.Count.Likes != st.wantCount {
			t.Errorf("toggle %d: count = %d, want %d", i, view.Count.Likes, st.wantCount)
		}
		if view.IsLikedByUser == nil || *view.IsLikedByUser != st.wantLiked {
			t.Errorf("toggle %d: isLikedByUser = %v", i, view.IsLikedByUser)
		}
	}
}

func TestGetPostByID_NotFound(t *testing.T) {
	s := newTestServer(t)
	res := s.call(t, "", "post.getPostById", map[string]string{"id": uuid.NewString()})
	if res.Error == nil || res.Error.Code != ErrNotFound || res.Error.Data.Kind != apperr.KindNotFound {
		t.Fatalf("error = %+v, want NOT_FOUND", res.Error)
	}
}

func TestCreatePost_ValidationFields(t *testing.T) {
	s := newTestServer(t)
	token := s.signer.Sign(t, "user_a", time.Hour)

	res := s.call(t, token, "post.create", map[string]interface{}{"title": "", "content": "not emoji"})
	if res.Error == nil || res.Error.Code != ErrInvalidParams {
		t.Fatalf("error = %+v, want VALIDATION", res.Error)
	}
	for _, field := range []string{"title", "content"} {
		if len(res.Error.Data.FieldErrors[field]) == 0 {
			t.Errorf("missing field error for %s: %v", field, res.Error.Data.FieldErrors)
		}
	}
}

func TestCreatePost_ThenFeeds(t *testing.T) {
	s := newTestServer(t)
	token := s.signer.Sign(t, "user_a", time.Hour)

	tagRes := s.call(t, "", "tag.create", map[string]string{"name": "t1-name"})
	if tagRes.Error != nil {
		t.Fatalf("tag.create: %+v", tagRes.Error)
	}
	var tag models.Tag
	_ = json.Unmarshal(tagRes.Result, &tag)

	created := s.call(t, token, "post.create", map[string]interface{}{
		"title":   "pizza",
		"content": "\U0001F355",
		"tagIds":  []string{tag.ID},
	})
	if created.Error != nil {
		t.Fatalf("post.create: %+v", created.Error)
	}
	var post models.Post
	_ = json.Unmarshal(created.Result, &post)

	for _, q := range []struct {
		method string
		params interface{}
	}{
		{"post.getLatest", nil},
		{"post.getPostByTag", map[string]string{"tagName": "t1-name"}},
		{"post.getPostByUserId", map[string]string{"userId": "user_a"}},
	} {
		res := s.call(t, "", q.method, q.params)
		if res.Error != nil {
			t.Fatalf("%s: %+v", q.method, res.Error)
		}
		var list []struct {
			Post   models.Post         `json:"post"`
			Author identity.ClientUser `json:"author"`
		}
		if err := json.Unmarshal(res.Result, &list); err != nil {
			t.Fatalf("%s: %v", q.method, err)
		}
		if len(list) != 1 || list[0].Post.ID != post.ID || list[0].Author.Username != "alice" {
			t.Errorf("%s = %+v", q.method, list)
		}
	}
}

func TestHandleQuery(t *testing.T) {
	s := newTestServer(t)

	req := httptest.NewRequest(http.MethodGet, "/rpc/tag.getAll", nil)
	_, res := s.do(t, req)
	if res.Error != nil || string(res.Result) != "[]" {
		t.Errorf("tag.getAll = %s, %+v", res.Result, res.Error)
	}

	q := url.Values{"input": {`{"username":"alice"}`}}
	req = httptest.NewRequest(http.MethodGet, "/rpc/profile.getUserByUsername?"+q.Encode(), nil)
	_, res = s.do(t, req)
	var u identity.ClientUser
	if res.Error != nil || json.Unmarshal(res.Result, &u) != nil || u.ID != "user_a" {
		t.Errorf("profile.getUserByUsername = %s, %+v", res.Result, res.Error)
	}

	req = httptest.NewRequest(http.MethodGet, "/rpc/tag.create?input="+url.QueryEscape(`{"name":"x"}`), nil)
	_, res = s.do(t, req)
	if res.Error == nil || res.Error.Code != ErrMethodNotFound {
		t.Errorf("GET mutation error = %+v, want method not found", res.Error)
	}
}

func TestUserCreate(t *testing.T) {
	s := newTestServer(t)
	token := s.signer.Sign(t, "user_a", time.Hour)

	res := s.call(t, token, "user.create", map[string]string{"userId": "user_a"})
	if res.Error != nil {
		t.Fatalf("user.create: %+v", res.Error)
	}
	var u models.User
	_ = json.Unmarshal(res.Result, &u)
	if u.ID != "user_a" || u.Email != "alice@example.test" {
		t.Errorf("user.create = %+v", u)
	}

	res = s.call(t, token, "user.create", map[string]string{"userId": "user_b"})
	if res.Error == nil || res.Error.Code != ErrUnauthorized {
		t.Errorf("syncing another user error = %+v", res.Error)
	}
}

func TestHealth(t *testing.T) {
	s := newTestServer(t)
	rec, _ := s.do(t, httptest.NewRequest(http.MethodGet, "/health", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d: %s", rec.Code, rec.Body.String())
	}
	var body struct {
		Status string            `json:"status"`
		Checks map[string]string `json:"checks"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatal(err)
	}
	if body.Status != "OK" || body.Checks["database"] != "OK" || body.Checks["redis"] != "disabled" {
		t.Errorf("health = %+v", body)
	}
}

func TestErrorFromApp(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		wantCode int
		wantKind apperr.Kind
		wantMsg  string
	}{
		{"validation", apperr.Validation(map[string][]string{"title": {"is required"}}), ErrInvalidParams, apperr.KindValidation, "invalid input"},
		{"not found", apperr.NotFound("Post not found"), ErrNotFound, apperr.KindNotFound, "Post not found"},
		{"conflict", apperr.Conflict("Like already exists", nil), ErrConflict, apperr.KindConflict, "Like already exists"},
		{"rate limited", apperr.TooManyRequests(), ErrTooManyRequests, apperr.KindTooManyRequests, "rate limit exceeded"},
		{"unclassified", errors.New("pq: password authentication failed"), ErrInternalError, apperr.KindInternal, "Internal error"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := errorFromApp(tt.err)
			data := got.Data.(ErrorData)
			if got.Code != tt.wantCode || data.Kind != tt.wantKind || data.Message != tt.wantMsg {
				t.Errorf("errorFromApp() = %d %+v", got.Code, data)
			}
		})
	}
}

func TestRouter_Methods(t *testing.T) {
	router := NewRouter(Deps{
		DB:       dbtest.New(t),
		Provider: identitytest.NewProvider(),
		Limiter:  ratelimit.New(ratelimit.NewMemoryStore(), config.RateLimitConfig{Limit: 3, Window: time.Minute}, nil),
	})

	want := []string{
		"comment.create",
		"comment.getByPostId",
		"post.create",
		"post.getLatest",
		"post.getPostById",
		"post.getPostByTag",
		"post.getPostByUserId",
		"post.toggleLike",
		"profile.getUserByUsername",
		"tag.addPostTagById",
		"tag.create",
		"tag.getAll",
		"user.create",
	}
	got := router.Handler().Methods()
	if len(got) != len(want) {
		t.Fatalf("Methods() = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("Methods()[%d] = %q, want %q", i, got[i], want[i])
		}
	}
}
