package client

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	. "github.com/smartystreets/goconvey/convey"
)

func newTestClient(ts *httptest.Server) *Client {
	return NewClient(strings.TrimPrefix(ts.URL, "http://"), 1)
}

func TestPostPrompt(t *testing.T) {
	Convey("a 200 response yields the prompt id", t, func(cv C) {
		var gotClientID string
		ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			cv.So(r.Method, ShouldEqual, http.MethodPost)
			cv.So(r.URL.Path, ShouldEqual, "/prompt")
			var body struct {
				Prompt   Graph  `json:"prompt"`
				ClientID string `json:"client_id"`
			}
			cv.So(json.NewDecoder(r.Body).Decode(&body), ShouldBeNil)
			gotClientID = body.ClientID
			_ = json.NewEncoder(w).Encode(map[string]any{"prompt_id": "p-123"})
		}))
		defer ts.Close()

		c := newTestClient(ts)
		id, err := c.PostPrompt(context.Background(), Graph{"3": {ClassType: "KSampler"}})
		So(err, ShouldBeNil)
		So(id, ShouldEqual, "p-123")
		So(gotClientID, ShouldEqual, c.ClientID())
	})

	Convey("a structured validation failure maps to EngineRejectedError", t, func() {
		ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusBadRequest)
			_, _ = w.Write([]byte(`{"error":{"type":"invalid_prompt"},"node_errors":{"3":{}}}`))
		}))
		defer ts.Close()

		_, err := newTestClient(ts).PostPrompt(context.Background(), Graph{})
		var rejected *EngineRejectedError
		So(errors.As(err, &rejected), ShouldBeTrue)
	})

	Convey("an unstructured 5xx maps to ErrEngineUnavailable", t, func() {
		ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusBadGateway)
		}))
		defer ts.Close()

		_, err := newTestClient(ts).PostPrompt(context.Background(), Graph{})
		So(errors.Is(err, ErrEngineUnavailable), ShouldBeTrue)
	})

	Convey("a refused connection maps to ErrEngineUnavailable", t, func() {
		ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
		ts.Close()

		_, err := newTestClient(ts).PostPrompt(context.Background(), Graph{})
		So(errors.Is(err, ErrEngineUnavailable), ShouldBeTrue)
	})

	Convey("a 200 with empty prompt_id counts as rejected", t, func() {
		ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			_, _ = w.Write([]byte(`{}`))
		}))
		defer ts.Close()

		_, err := newTestClient(ts).PostPrompt(context.Background(), Graph{})
		var rejected *EngineRejectedError
		So(errors.As(err, &rejected), ShouldBeTrue)
	})
}

func TestGetHistory(t *testing.T) {
	Convey("a materialized record returns its outputs", t, func(c C) {
		ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			c.So(r.URL.Path, ShouldEqual, "/history/p-1")
			_, _ = w.Write([]byte(`{"p-1":{"outputs":{"10":{"images":[{"filename":"a.png","subfolder":"","type":"output"}]}}}}`))
		}))
		defer ts.Close()

		outputs, err := newTestClient(ts).GetHistory(context.Background(), "p-1")
		So(err, ShouldBeNil)
		So(outputs["10"].Images, ShouldHaveLength, 1)
		So(outputs["10"].Images[0].Filename, ShouldEqual, "a.png")
	})

	Convey("an unknown prompt id maps to ResultNotFoundError", t, func() {
		ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			_, _ = w.Write([]byte(`{}`))
		}))
		defer ts.Close()

		_, err := newTestClient(ts).GetHistory(context.Background(), "p-missing")
		var notFound *ResultNotFoundError
		So(errors.As(err, &notFound), ShouldBeTrue)
		So(notFound.PromptID, ShouldEqual, "p-missing")
	})
}

func TestFetchNodeImages(t *testing.T) {
	Convey("all images of the node are downloaded in order", t, func() {
		ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			switch {
			case strings.HasPrefix(r.URL.Path, "/history/"):
				_, _ = w.Write([]byte(`{"p-1":{"outputs":{"10":{"images":[
					{"filename":"a.png","subfolder":"sub","type":"output"},
					{"filename":"b.png","subfolder":"sub","type":"output"}]}}}}`))
			case r.URL.Path == "/view":
				_, _ = w.Write([]byte("img:" + r.URL.Query().Get("filename")))
			default:
				w.WriteHeader(http.StatusNotFound)
			}
		}))
		defer ts.Close()

		images, err := newTestClient(ts).FetchNodeImages(context.Background(), "p-1", "10")
		So(err, ShouldBeNil)
		So(images, ShouldHaveLength, 2)
		So(string(images[0]), ShouldEqual, "img:a.png")
		So(string(images[1]), ShouldEqual, "img:b.png")
	})

	Convey("a node absent from outputs maps to ResultNotFoundError", t, func() {
		ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			_, _ = w.Write([]byte(`{"p-1":{"outputs":{"8":{"images":[]}}}}`))
		}))
		defer ts.Close()

		_, err := newTestClient(ts).FetchNodeImages(context.Background(), "p-1", "10")
		var notFound *ResultNotFoundError
		So(errors.As(err, &notFound), ShouldBeTrue)
		So(notFound.NodeID, ShouldEqual, "10")
	})
}
