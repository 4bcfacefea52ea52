package handlers

import (
	"context"
	"errors"
	"net/http"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"

	"github.com/mamadbah2/feedplanner/internal/domain/models"
	service "github.com/mamadbah2/feedplanner/internal/service/whatsapp"
	client "github.com/mamadbah2/feedplanner/pkg/clients/whatsapp"
)

type fakeMessaging struct {
	webhookErr error
	sendErr    error
	handled    int
}

func (f *fakeMessaging) VerifyWebhookToken(_, token, challenge string) (string, error) {
	if token != "secret" {
		return "", errors.New("invalid verify token")
	}
	return challenge, nil
}

func (f *fakeMessaging) HandleWebhook(context.Context, models.WebhookPayload) error {
	f.handled++
	return f.webhookErr
}

func (f *fakeMessaging) SendOutbound(context.Context, models.OutboundMessageRequest) error {
	return f.sendErr
}

func setupWebhookTestRouter(svc service.MessagingService) *gin.Engine {
	gin.SetMode(gin.TestMode)
	handler := NewWebhookHandler(svc, nil)

	r := gin.New()
	r.GET("/webhook", handler.Verify)
	r.POST("/webhook", handler.Receive)
	r.POST("/send-message", handler.SendMessage)
	return r
}

func TestWebhookVerify(t *testing.T) {
	r := setupWebhookTestRouter(&fakeMessaging{})

	w := doJSON(r, http.MethodGet, "/webhook?hub.mode=subscribe&hub.verify_token=secret&hub.challenge=abc", "")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "abc", w.Body.String())

	w = doJSON(r, http.MethodGet, "/webhook?hub.mode=subscribe&hub.verify_token=bad", "")
	assert.Equal(t, http.StatusForbidden, w.Code)
}

func TestWebhookReceive(t *testing.T) {
	svc := &fakeMessaging{}
	r := setupWebhookTestRouter(svc)

	w := doJSON(r, http.MethodPost, "/webhook", `{"object":"whatsapp_business_account","entry":[]}`)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, 1, svc.handled)

	svc.webhookErr = errors.New("reply failed")
	w = doJSON(r, http.MethodPost, "/webhook", `{"entry":[]}`)
	assert.Equal(t, http.StatusOK, w.Code, "failures are acknowledged to avoid redelivery")

	w = doJSON(r, http.MethodPost, "/webhook", `not json`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestSendMessage(t *testing.T) {
	tests := []struct {
		name    string
		body    string
		sendErr error
		want    int
	}{
		{"accepted", `{"to":"2246","message":"hi"}`, nil, http.StatusAccepted},
		{"missing message", `{"to":"2246"}`, nil, http.StatusBadRequest},
		{"blank message", `{"to":"2246","message":" "}`, service.ErrEmptyMessage, http.StatusBadRequest},
		{"meta rejected", `{"to":"2246","message":"hi"}`, &client.APIError{Status: 400, Code: 100, Message: "bad number"}, http.StatusBadGateway},
		{"network", `{"to":"2246","message":"hi"}`, errors.New("timeout"), http.StatusBadGateway},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := setupWebhookTestRouter(&fakeMessaging{sendErr: tt.sendErr})
			w := doJSON(r, http.MethodPost, "/send-message", tt.body)
			assert.Equal(t, tt.want, w.Code, w.Body.String())
		})
	}
}
