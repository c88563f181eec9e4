package handlers

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
)

func messageRouter(h *Handlers, userID string) *gin.Engine {
	r := gin.New()
	g := r.Group("", sessionAs(userID, "Tester"))
	g.GET("/groups/:id/messages", h.ListMessages)
	g.POST("/messages/:id/read", h.MarkRead)
	g.GET("/messages/:id/readers", h.ListReaders)
	g.DELETE("/messages/:id", h.DeleteMessage)
	return r
}

func TestListMessagesHandler(t *testing.T) {
	gin.SetMode(gin.TestMode)
	h := newTestHandlers(t)
	admin := registerUser(t, h, "ada@example.com", "Ada")
	outsider := registerUser(t, h, "eve@example.com", "Eve")
	g := createGroup(t, h, admin, "Pot")

	for i := 0; i < 5; i++ {
		if _, err := h.Messages.SaveMessage(context.Background(), g.ID, admin, fmt.Sprintf("msg %d", i)); err != nil {
			t.Fatalf("save: %v", err)
		}
	}

	r := messageRouter(h, admin)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/groups/"+g.ID+"/messages?page=2&page_size=2", nil))
	if w.Code != http.StatusOK {
		t.Fatalf("list -> %d: %s", w.Code, w.Body.String())
	}
	var resp ListMessagesResponse
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if resp.Pagination.Total != 5 || resp.Pagination.Page != 2 || resp.Pagination.PageSize != 2 {
		t.Fatalf("pagination = %+v", resp.Pagination)
	}
	if len(resp.Messages) != 2 || resp.Messages[0].Content != "msg 2" {
		t.Fatalf("page = %+v", resp.Messages)
	}

	// A non-member is told the group does not exist.
	rOut := messageRouter(h, outsider)
	w = httptest.NewRecorder()
	rOut.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/groups/"+g.ID+"/messages", nil))
	if w.Code != http.StatusNotFound {
		t.Fatalf("non-member list -> %d", w.Code)
	}
}

func TestReadReceiptHandlers(t *testing.T) {
	gin.SetMode(gin.TestMode)
	h := newTestHandlers(t)
	admin := registerUser(t, h, "ada@example.com", "Ada")
	reader := registerUser(t, h, "grace@example.com", "Grace")
	g := createGroup(t, h, admin, "Pot")

	m, err := h.Messages.SaveMessage(context.Background(), g.ID, admin, "hello")
	if err != nil {
		t.Fatalf("save: %v", err)
	}

	r := messageRouter(h, reader)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/messages/"+m.ID+"/read", nil))
	if w.Code != http.StatusNoContent {
		t.Fatalf("mark read -> %d: %s", w.Code, w.Body.String())
	}
	// Re-reading is idempotent.
	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/messages/"+m.ID+"/read", nil))
	if w.Code != http.StatusNoContent {
		t.Fatalf("repeat mark read -> %d", w.Code)
	}

	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/messages/"+m.ID+"/readers", nil))
	if w.Code != http.StatusOK {
		t.Fatalf("readers -> %d", w.Code)
	}
	var readers struct {
		Readers []string `json:"readers"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &readers); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(readers.Readers) != 2 {
		t.Fatalf("readers = %v, want sender plus reader", readers.Readers)
	}

	// Unknown message -> 404
	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/messages/missing/read", nil))
	if w.Code != http.StatusNotFound {
		t.Fatalf("unknown message -> %d", w.Code)
	}
}

func TestDeleteMessageHandler(t *testing.T) {
	gin.SetMode(gin.TestMode)
	h := newTestHandlers(t)
	admin := registerUser(t, h, "ada@example.com", "Ada")
	sender := registerUser(t, h, "grace@example.com", "Grace")
	stranger := registerUser(t, h, "eve@example.com", "Eve")
	g := createGroup(t, h, admin, "Pot")

	m, err := h.Messages.SaveMessage(context.Background(), g.ID, sender, "hello")
	if err != nil {
		t.Fatalf("save: %v", err)
	}

	// A stranger cannot delete.
	w := httptest.NewRecorder()
	messageRouter(h, stranger).ServeHTTP(w, httptest.NewRequest(http.MethodDelete, "/messages/"+m.ID, nil))
	if w.Code != http.StatusForbidden {
		t.Fatalf("stranger delete -> %d", w.Code)
	}

	// The group admin can.
	w = httptest.NewRecorder()
	messageRouter(h, admin).ServeHTTP(w, httptest.NewRequest(http.MethodDelete, "/messages/"+m.ID, nil))
	if w.Code != http.StatusNoContent {
		t.Fatalf("admin delete -> %d: %s", w.Code, w.Body.String())
	}

	// Gone afterwards.
	w = httptest.NewRecorder()
	messageRouter(h, admin).ServeHTTP(w, httptest.NewRequest(http.MethodDelete, "/messages/"+m.ID, nil))
	if w.Code != http.StatusNotFound {
		t.Fatalf("double delete -> %d", w.Code)
	}
}
