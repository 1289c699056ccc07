package confluence

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/foomo/confluence-export/errdefs"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestClient(t *testing.T, handler http.Handler) *Client {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)
	return NewClient(Credentials{
		BaseURL:  server.URL,
		Email:    "dev@example.com",
		APIToken: "secret",
	}, WithRetry(3, time.Millisecond))
}

func TestGetSpaceDetails(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/wiki/api/v2/spaces", func(w http.ResponseWriter, r *http.Request) {
		user, pass, ok := r.BasicAuth()
		assert.True(t, ok)
		assert.Equal(t, "dev@example.com", user)
		assert.Equal(t, "secret", pass)
		assert.Equal(t, "DOCS", r.URL.Query().Get("keys"))
		fmt.Fprint(w, `{"results":[{"id":"100","key":"DOCS","name":"Docs"}]}`)
	})
	mux.HandleFunc("/wiki/api/v2/spaces/100", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"id":"100","key":"DOCS","name":"Docs","type":"global","status":"current","description":null}`)
	})

	space, err := newTestClient(t, mux).GetSpaceDetails(context.Background(), "DOCS")
	require.NoError(t, err)
	assert.Equal(t, "100", space.ID)
	assert.Equal(t, "Docs", space.Name)
	assert.Equal(t, "global", space.Type)
}

func TestGetSpaceDetailsNotFound(t *testing.T) {
	client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"results":[]}`)
	}))
	_, err := client.GetSpaceDetails(context.Background(), "NOPE")
	require.Error(t, err)
	assert.True(t, errdefs.Is(err, errdefs.NotFound), err.Error())
}

func TestListAllPagesInSpaceFollowsCursor(t *testing.T) {
	var calls atomic.Int32
	client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		assert.Equal(t, "/wiki/api/v2/spaces/100/pages", r.URL.Path)
		assert.Equal(t, "50", r.URL.Query().Get("limit"))
		assert.Equal(t, "current", r.URL.Query().Get("status"))
		switch r.URL.Query().Get("cursor") {
		case "":
			fmt.Fprint(w, `{"results":[{"id":"1","spaceId":"100","status":"current","title":"Root","parentId":null,"createdAt":"2024-01-02T03:04:05.000Z"}],"next":{"cursor":"c2"}}`)
		case "c2":
			fmt.Fprint(w, `{"results":[{"id":"2","spaceId":"100","status":"current","title":"Child","parentId":"1","createdAt":"2024-01-02T03:04:05.000Z","version":{"number":2,"createdAt":"2024-02-01T00:00:00.000Z"}}],"_links":{"next":"/wiki/api/v2/spaces/100/pages?limit=50&status=current&cursor=c3"}}`)
		case "c3":
			fmt.Fprint(w, `{"results":[{"id":"3","spaceId":"100","status":"current","title":"Grandchild","parentId":"2","createdAt":"2024-01-02T03:04:05.000Z"}],"_links":{}}`)
		default:
			t.Errorf("unexpected cursor %q", r.URL.Query().Get("cursor"))
		}
	}))

	pages, err := client.ListAllPagesInSpace(context.Background(), "100")
	require.NoError(t, err)
	require.Len(t, pages, 3)
	assert.Equal(t, int32(3), calls.Load())
	assert.Equal(t, "", pages[0].ParentID)
	assert.Equal(t, "1", pages[1].ParentID)
	require.NotNil(t, pages[1].Version)
	assert.Equal(t, 2, pages[1].Version.Number)
	assert.Equal(t, time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC), pages[2].CreatedAt)
}

func TestListAllPagesInSpaceRepeatedCursor(t *testing.T) {
	for name, next := range map[string]string{
		"cursor": `"next":{"cursor":"same"}`,
		"link":   `"_links":{"next":"/wiki/api/v2/spaces/100/pages?limit=50&status=current&cursor=same"}`,
	} {
		t.Run(name, func(t *testing.T) {
			var calls atomic.Int32
			client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				if calls.Add(1) > 10 {
					t.Error("listing did not stop")
					return
				}
				fmt.Fprint(w, `{"results":[{"id":"1","spaceId":"100","status":"current","title":"Root","createdAt":"2024-01-02T03:04:05.000Z"}],`+next+`}`)
			}))

			_, err := client.ListAllPagesInSpace(context.Background(), "100")
			require.Error(t, err)
			assert.True(t, errdefs.Is(err, errdefs.APIError), err.Error())
			assert.Contains(t, err.Error(), "cursor twice")
			assert.Equal(t, int32(2), calls.Load())
		})
	}
}

func TestGetPageDetail(t *testing.T) {
	client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/wiki/api/v2/pages/3", r.URL.Path)
		assert.Equal(t, "storage", r.URL.Query().Get("body-format"))
		assert.Equal(t, "true", r.URL.Query().Get("include-ancestors"))
		fmt.Fprint(w, `{
			"id":"3","spaceId":"100","status":"current","title":"Grandchild","parentId":"2",
			"createdAt":"2024-01-02T03:04:05.000Z",
			"version":{"number":7,"createdAt":"2024-02-03T04:05:06.000Z","authorId":"abc"},
			"body":{"storage":{"value":"<p>Hi</p>","representation":"storage"}},
			"ancestors":[{"id":"1","title":"Root"},{"id":"2"}]
		}`)
	}))

	page, err := client.GetPageDetail(context.Background(), "3")
	require.NoError(t, err)
	assert.Equal(t, "Grandchild", page.Title)
	require.NotNil(t, page.Version)
	assert.Equal(t, 7, page.Version.Number)
	assert.Equal(t, time.Date(2024, 2, 3, 4, 5, 6, 0, time.UTC), page.Version.CreatedAt)
	require.NotNil(t, page.Body.Storage)
	assert.Equal(t, "<p>Hi</p>", page.Body.Storage.Value)
	assert.Len(t, page.Ancestors, 2)
}

func TestGetPageDetailFallsBackToView(t *testing.T) {
	var formats []string
	client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		format := r.URL.Query().Get("body-format")
		formats = append(formats, format)
		switch format {
		case "storage":
			fmt.Fprint(w, `{"id":"3","spaceId":"100","status":"current","title":"Grandchild","createdAt":"2024-01-02T03:04:05.000Z",
				"body":{"storage":{"value":"","representation":"storage"}},"ancestors":[{"id":"1"}]}`)
		case "view":
			fmt.Fprint(w, `{"id":"3","spaceId":"100","status":"current","title":"Grandchild","createdAt":"2024-01-02T03:04:05.000Z",
				"body":{"view":{"value":"<p>rendered</p>","representation":"view"}}}`)
		default:
			t.Errorf("unexpected body format %q", format)
		}
	}))

	page, err := client.GetPageDetail(context.Background(), "3")
	require.NoError(t, err)
	assert.Equal(t, []string{"storage", "view"}, formats)
	require.NotNil(t, page.Body.View)
	assert.Equal(t, "<p>rendered</p>", page.Body.View.Value)
	assert.Len(t, page.Ancestors, 1)
}

func TestInvalidResponseStructure(t *testing.T) {
	for name, body := range map[string]string{
		"missing title": `{"id":"3","spaceId":"100","status":"current","createdAt":"2024-01-02T03:04:05.000Z"}`,
		"wrong type":    `{"id":3,"spaceId":"100","status":"current","title":"x","createdAt":"2024-01-02T03:04:05.000Z"}`,
		"not json":      `<html>maintenance</html>`,
	} {
		t.Run(name, func(t *testing.T) {
			client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				fmt.Fprint(w, body)
			}))
			_, err := client.GetPageDetail(context.Background(), "3")
			require.Error(t, err)

			e := errdefs.Ensure(err)
			assert.Equal(t, errdefs.APIError, e.Type)
			assert.Equal(t, http.StatusInternalServerError, e.StatusCode)
			assert.Contains(t, e.Message, "Invalid response structure")
		})
	}
}

func TestStatusMapping(t *testing.T) {
	tests := []struct {
		status int
		want   errdefs.ErrorType
	}{
		{http.StatusUnauthorized, errdefs.AuthInvalid},
		{http.StatusForbidden, errdefs.AuthInvalid},
		{http.StatusNotFound, errdefs.NotFound},
		{http.StatusBadRequest, errdefs.APIError},
	}
	for _, tt := range tests {
		t.Run(http.StatusText(tt.status), func(t *testing.T) {
			var calls atomic.Int32
			client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				calls.Add(1)
				w.WriteHeader(tt.status)
			}))
			_, err := client.GetPageDetail(context.Background(), "3")
			assert.Equal(t, tt.want, errdefs.TypeOf(err))
			assert.Equal(t, int32(1), calls.Load(), "client errors are not retried")
		})
	}
}

func TestRetriesServerErrors(t *testing.T) {
	var calls atomic.Int32
	client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) < 3 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		fmt.Fprint(w, `{"results":[]}`)
	}))

	pages, err := client.ListAllPagesInSpace(context.Background(), "100")
	require.NoError(t, err)
	assert.Empty(t, pages)
	assert.Equal(t, int32(3), calls.Load())
}

func TestRetriesGiveUp(t *testing.T) {
	var calls atomic.Int32
	client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusTooManyRequests)
	}))

	_, err := client.ListAllPagesInSpace(context.Background(), "100")
	e := errdefs.Ensure(err)
	assert.Equal(t, errdefs.APIError, e.Type)
	assert.Equal(t, http.StatusTooManyRequests, e.StatusCode)
	assert.Equal(t, int32(3), calls.Load())
}

func TestMissingCredentials(t *testing.T) {
	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
	}))
	defer server.Close()

	client := NewClient(Credentials{BaseURL: server.URL, Email: "dev@example.com"})
	ctx := context.Background()

	_, err := client.GetSpaceDetails(ctx, "DOCS")
	assert.True(t, errdefs.Is(err, errdefs.AuthMissing))
	_, err = client.ListAllPagesInSpace(ctx, "100")
	assert.True(t, errdefs.Is(err, errdefs.AuthMissing))
	_, err = client.GetPageDetail(ctx, "1")
	assert.True(t, errdefs.Is(err, errdefs.AuthMissing))
	assert.Zero(t, calls.Load())
}

func TestCredentials(t *testing.T) {
	assert.False(t, Credentials{}.Complete())
	assert.False(t, Credentials{SiteName: "acme", Email: "a@b.c"}.Complete())
	assert.True(t, Credentials{SiteName: "acme", Email: "a@b.c", APIToken: "t"}.Complete())
	assert.Equal(t, "https://acme.atlassian.net", Credentials{SiteName: "acme"}.baseURL())
	assert.Equal(t, "https://wiki.acme.org", Credentials{SiteName: "acme", BaseURL: "https://wiki.acme.org/"}.baseURL())
}
