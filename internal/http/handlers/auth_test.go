package handlers_test

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/routewise/triphub/internal/auth"
	"github.com/routewise/triphub/internal/domain/user"
	"github.com/routewise/triphub/internal/http/handlers"
	"github.com/routewise/triphub/internal/http/middlewares"
	"github.com/routewise/triphub/internal/repo/postgres"
	"github.com/routewise/triphub/internal/security"
)

// Keep Gin quiet during tests

func init() {
	gin.SetMode(gin.TestMode)
}

// Fake implementations of the handlers.UserReader / UserWriter interfaces

type fakeUsersRepo struct {
	createFn     func(ctx context.Context, username, email, passwordHash string) (user.User, error)
	getByEmailFn func(ctx context.Context, email string) (user.User, error)
	getByIDFn    func(ctx context.Context, id string) (user.User, error)
}

func (f *fakeUsersRepo) Create(ctx context.Context, username, email, passwordHash string) (user.User, error) {
	if f.createFn != nil {
		return f.createFn(ctx, username, email, passwordHash)
	}

	return user.User{}, nil
}

func (f *fakeUsersRepo) GetByEmail(ctx context.Context, email string) (user.User, error) {
	if f.getByEmailFn != nil {
		return f.getByEmailFn(ctx, email)
	}

	return user.User{}, nil
}

func (f *fakeUsersRepo) GetByID(ctx context.Context, id string) (user.User, error) {
	if f.getByIDFn != nil {
		return f.getByIDFn(ctx, id)
	}

	return user.User{}, nil
}

func setupRouter(method, path string, h gin.HandlerFunc) *gin.Engine {
	r := gin.New()

	r.Handle(method, path, h)

	return r
}

func testJWT() *auth.Manager {
	return auth.NewManager("test-secret", time.Hour)
}

func doJSONRequest(method, path, body string) *http.Request {
	req := httptest.NewRequest(method, path, bytes.NewBufferString(body))
	req.Header.Set("Content-Type", "application/json")

	return req
}

func serve(r *gin.Engine, req *http.Request) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	return w
}

func doJSON(t *testing.T, r *gin.Engine, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()

	return serve(r, doJSONRequest(method, path, body))
}

func TestRegisterHandler(t *testing.T) {
	tests := []struct {
		name           string
		body           string
		repoSetUp      func(*fakeUsersRepo)
		wantStatusCode int
	}{
		{
			name: "success",
			body: `{"username":"maya","email":"maya@example.com","password":"hunter22"}`,
			repoSetUp: func(f *fakeUsersRepo) {
				f.createFn = func(ctx context.Context, username, email, passwordHash string) (user.User, error) {
					if passwordHash == "hunter22" {
						return user.User{}, errors.New("password stored in plain text")
					}

					return user.User{ID: "u-1", Username: username, Email: email}, nil
				}
			},
			wantStatusCode: http.StatusCreated,
		},
		{
			name:           "short_password",
			body:           `{"username":"maya","email":"maya@example.com","password":"abc"}`,
			wantStatusCode: http.StatusBadRequest,
		},
		{
			name:           "bad_email",
			body:           `{"username":"maya","email":"not-an-email","password":"hunter22"}`,
			wantStatusCode: http.StatusBadRequest,
		},
		{
			name: "duplicate",
			body: `{"username":"maya","email":"maya@example.com","password":"hunter22"}`,
			repoSetUp: func(f *fakeUsersRepo) {
				f.createFn = func(ctx context.Context, username, email, passwordHash string) (user.User, error) {
					return user.User{}, postgres.ErrUserAlreadyTaken
				}
			},
			wantStatusCode: http.StatusBadRequest,
		},
		{
			name: "repo_error",
			body: `{"username":"maya","email":"maya@example.com","password":"hunter22"}`,
			repoSetUp: func(f *fakeUsersRepo) {
				f.createFn = func(ctx context.Context, username, email, passwordHash string) (user.User, error) {
					return user.User{}, errors.New("db down")
				}
			},
			wantStatusCode: http.StatusInternalServerError,
		},
	}

	for _, tt := range tests {
		tt := tt

		t.Run(tt.name, func(t *testing.T) {
			repo := &fakeUsersRepo{}

			if tt.repoSetUp != nil {
				tt.repoSetUp(repo)
			}

			h := handlers.NewAuthHandler(repo, repo, testJWT())

			r := setupRouter(http.MethodPost, "/api/auth/register", h.Register)

			w := doJSON(t, r, http.MethodPost, "/api/auth/register", tt.body)

			if w.Code != tt.wantStatusCode {
				t.Fatalf("got status %d, want %d, body=%s", w.Code, tt.wantStatusCode, w.Body.String())
			}

			if tt.wantStatusCode == http.StatusCreated {
				var resp struct {
					Success bool   `json:"success"`
					Token   string `json:"token"`
					User    struct {
						ID string `json:"id"`
					} `json:"user"`
				}

				if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
					t.Fatalf("bad body: %v", err)
				}

				if !resp.Success || resp.Token == "" || resp.User.ID == "" {
					t.Fatalf("incomplete envelope: %s", w.Body.String())
				}
			}
		})
	}
}

func TestLoginHandler(t *testing.T) {
	hash, err := security.HashPassword("hunter22")
	if err != nil {
		t.Fatalf("hash: %v", err)
	}

	stored := user.User{ID: "u-1", Username: "maya", Email: "maya@example.com", PasswordHash: hash}

	tests := []struct {
		name           string
		body           string
		repoSetUp      func(*fakeUsersRepo)
		wantStatusCode int
	}{
		{
			name: "success",
			body: `{"email":"maya@example.com","password":"hunter22"}`,
			repoSetUp: func(f *fakeUsersRepo) {
				f.getByEmailFn = func(ctx context.Context, email string) (user.User, error) {
					return stored, nil
				}
			},
			wantStatusCode: http.StatusOK,
		},
		{
			name: "wrong_password",
			body: `{"email":"maya@example.com","password":"wrong"}`,
			repoSetUp: func(f *fakeUsersRepo) {
				f.getByEmailFn = func(ctx context.Context, email string) (user.User, error) {
					return stored, nil
				}
			},
			wantStatusCode: http.StatusUnauthorized,
		},
		{
			name: "unknown_email",
			body: `{"email":"ghost@example.com","password":"hunter22"}`,
			repoSetUp: func(f *fakeUsersRepo) {
				f.getByEmailFn = func(ctx context.Context, email string) (user.User, error) {
					return user.User{}, postgres.ErrUserNotFound
				}
			},
			wantStatusCode: http.StatusUnauthorized,
		},
		{
			name:           "missing_fields",
			body:           `{"email":"maya@example.com"}`,
			wantStatusCode: http.StatusBadRequest,
		},
	}

	for _, tt := range tests {
		tt := tt

		t.Run(tt.name, func(t *testing.T) {
			repo := &fakeUsersRepo{}

			if tt.repoSetUp != nil {
				tt.repoSetUp(repo)
			}

			h := handlers.NewAuthHandler(repo, repo, testJWT())

			r := setupRouter(http.MethodPost, "/api/auth/login", h.Login)

			w := doJSON(t, r, http.MethodPost, "/api/auth/login", tt.body)

			if w.Code != tt.wantStatusCode {
				t.Fatalf("got status %d, want %d, body=%s", w.Code, tt.wantStatusCode, w.Body.String())
			}
		})
	}
}

// unknown email and wrong password must be indistinguishable to a caller
func TestLoginDoesNotLeakWhichFieldFailed(t *testing.T) {
	hash, _ := security.HashPassword("hunter22")

	repo := &fakeUsersRepo{
		getByEmailFn: func(ctx context.Context, email string) (user.User, error) {
			if email == "maya@example.com" {
				return user.User{ID: "u-1", Username: "maya", Email: email, PasswordHash: hash}, nil
			}
			return user.User{}, postgres.ErrUserNotFound
		},
	}

	h := handlers.NewAuthHandler(repo, repo, testJWT())

	r := setupRouter(http.MethodPost, "/login", h.Login)

	badEmail := doJSON(t, r, http.MethodPost, "/login", `{"email":"ghost@example.com","password":"hunter22"}`)
	badPass := doJSON(t, r, http.MethodPost, "/login", `{"email":"maya@example.com","password":"wrong"}`)

	if badEmail.Code != http.StatusUnauthorized || badPass.Code != http.StatusUnauthorized {
		t.Fatalf("both must be 401, got %d and %d", badEmail.Code, badPass.Code)
	}

	if badEmail.Body.String() != badPass.Body.String() {
		t.Fatalf("error bodies differ:\n%s\n%s", badEmail.Body.String(), badPass.Body.String())
	}
}

func TestMeHandler(t *testing.T) {
	tests := []struct {
		name           string
		userID         string
		repoSetUp      func(*fakeUsersRepo)
		wantStatusCode int
	}{
		{
			name:   "success",
			userID: "u-1",
			repoSetUp: func(f *fakeUsersRepo) {
				f.getByIDFn = func(ctx context.Context, id string) (user.User, error) {
					return user.User{ID: id, Username: "maya", Email: "maya@example.com"}, nil
				}
			},
			wantStatusCode: http.StatusOK,
		},
		{
			name:   "user_vanished",
			userID: "u-gone",
			repoSetUp: func(f *fakeUsersRepo) {
				f.getByIDFn = func(ctx context.Context, id string) (user.User, error) {
					return user.User{}, postgres.ErrUserNotFound
				}
			},
			wantStatusCode: http.StatusUnauthorized,
		},
		{
			name:           "no_identity",
			userID:         "",
			wantStatusCode: http.StatusUnauthorized,
		},
	}

	for _, tt := range tests {
		tt := tt

		t.Run(tt.name, func(t *testing.T) {
			repo := &fakeUsersRepo{}

			if tt.repoSetUp != nil {
				tt.repoSetUp(repo)
			}

			h := handlers.NewAuthHandler(repo, repo, testJWT())

			r := gin.New()
			r.GET("/me", func(c *gin.Context) {
				if tt.userID != "" {
					middlewares.SetIdentity(c, tt.userID, "maya")
				}
				h.Me(c)
			})

			req := httptest.NewRequest(http.MethodGet, "/me", nil)
			w := httptest.NewRecorder()
			r.ServeHTTP(w, req)

			if w.Code != tt.wantStatusCode {
				t.Fatalf("got status %d, want %d, body=%s", w.Code, tt.wantStatusCode, w.Body.String())
			}
		})
	}
}
