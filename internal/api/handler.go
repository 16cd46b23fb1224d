package api

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/R3E-Network/scoring_service/internal/metrics"
	"github.com/R3E-Network/scoring_service/internal/middleware"
	"github.com/R3E-Network/scoring_service/internal/scoring"
	"github.com/R3E-Network/scoring_service/internal/store"
	"github.com/R3E-Network/scoring_service/pkg/logger"
)

// Method names understood by the dispatcher.
const (
	MethodOnlineScore      = "online_score"
	MethodClientsInterests = "clients_interests"
)

// StatusInvalidRequest is the validation-failure status code.
const StatusInvalidRequest = 422

// AdminScore is the sentinel score returned to admin callers without
// consulting the store.
const AdminScore = 42

// errorText maps error status codes to their standard phrases.
var errorText = map[int]string{
	http.StatusBadRequest:          "Bad Request",
	http.StatusForbidden:           "Forbidden",
	http.StatusNotFound:            "Not Found",
	StatusInvalidRequest:           "Invalid Request",
	http.StatusInternalServerError: "Internal Server Error",
}

// RequestContext carries per-call side-channel metadata surfaced to logging.
type RequestContext struct {
	RequestID string
	Has       []string
	NClients  int
}

// Handler validates, authenticates and dispatches method calls.
type Handler struct {
	store *store.Store
	auth  *Authenticator
	log   *logger.Logger
}

// NewHandler constructs a method-call handler. A nil authenticator defaults
// to the system clock; a nil logger defaults to a component logger.
func NewHandler(st *store.Store, auth *Authenticator, log *logger.Logger) *Handler {
	if auth == nil {
		auth = NewAuthenticator(nil)
	}
	if log == nil {
		log = logger.NewDefault("api")
	}
	return &Handler{store: st, auth: auth, log: log}
}

// Method processes one decoded method-call envelope and returns the response
// payload together with its status code. Every path returns a pair; errors
// never escape except through the payload.
func (h *Handler) Method(ctx context.Context, body map[string]interface{}, rctx *RequestContext) (interface{}, int) {
	req := NewMethodRequest(body)
	if !req.IsValid() {
		field, msg := req.Errors().First()
		return fmt.Sprintf("validation error in field '%s': %s", field, msg), StatusInvalidRequest
	}

	if !h.auth.Check(req) {
		return errorText[http.StatusForbidden], http.StatusForbidden
	}

	switch *req.Method {
	case MethodOnlineScore:
		return h.onlineScore(ctx, req, rctx)
	case MethodClientsInterests:
		return h.clientsInterests(ctx, req, rctx)
	default:
		return "Method not found", http.StatusNotFound
	}
}

func (h *Handler) onlineScore(ctx context.Context, req *MethodRequest, rctx *RequestContext) (interface{}, int) {
	args := NewOnlineScoreRequest(req.Arguments)
	if !args.IsValid() {
		field, msg := args.Errors().First()
		return fmt.Sprintf("validation error in arguments for '%s': field '%s' - %s",
			MethodOnlineScore, field, msg), StatusInvalidRequest
	}

	rctx.Has = args.NonEmptyFields()

	if req.IsAdmin() {
		return map[string]interface{}{"score": AdminScore}, http.StatusOK
	}

	score := scoring.GetScore(ctx, h.store, scoring.Person{
		FirstName: args.FirstName,
		LastName:  args.LastName,
		Email:     args.Email,
		Phone:     args.Phone,
		Birthday:  args.Birthday,
		Gender:    args.Gender,
	})
	return map[string]interface{}{"score": score}, http.StatusOK
}

func (h *Handler) clientsInterests(ctx context.Context, req *MethodRequest, rctx *RequestContext) (interface{}, int) {
	args := NewClientsInterestsRequest(req.Arguments)
	if !args.IsValid() {
		field, msg := args.Errors().First()
		return fmt.Sprintf("validation error in arguments for '%s': field '%s' - %s",
			MethodClientsInterests, field, msg), StatusInvalidRequest
	}

	rctx.NClients = len(args.ClientIDs)

	interests := make(map[string]interface{}, len(args.ClientIDs))
	for _, cid := range args.ClientIDs {
		list, err := scoring.GetInterests(ctx, h.store, cid)
		if err != nil {
			h.log.WithError(err).WithField("client_id", cid).Error("interests lookup failed")
			return errorText[http.StatusInternalServerError], http.StatusInternalServerError
		}
		interests[strconv.FormatInt(cid, 10)] = list
	}
	return interests, http.StatusOK
}

// ServeMethod is the HTTP endpoint for POST /method. It decodes the body,
// invokes the dispatcher and wraps the result in the response envelope.
func (h *Handler) ServeMethod(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	requestID := middleware.RequestIDFrom(r.Context())
	log := h.log.WithField("request_id", requestID)

	var code int
	defer func() {
		if rec := recover(); rec != nil {
			log.WithField("panic", rec).Error("unexpected error during dispatch")
			writeEnvelope(w, errorText[http.StatusInternalServerError], http.StatusInternalServerError)
			code = http.StatusInternalServerError
		}
		metrics.RecordMethodCall(r.URL.Path, code, time.Since(start))
	}()

	body, err := decodeBody(r.Body)
	if err != nil {
		log.WithError(err).Error("failed to parse request body")
		code = http.StatusBadRequest
		writeEnvelope(w, errorText[code], code)
		return
	}

	rctx := &RequestContext{RequestID: requestID}
	var payload interface{}
	payload, code = h.Method(r.Context(), body, rctx)

	log.WithFields(map[string]interface{}{
		"code":     code,
		"has":      rctx.Has,
		"nclients": rctx.NClients,
	}).Info("method call processed")

	writeEnvelope(w, payload, code)
}

// decodeBody parses the JSON request body. An empty body is an error.
func decodeBody(body io.ReadCloser) (map[string]interface{}, error) {
	defer body.Close()
	raw, err := io.ReadAll(body)
	if err != nil {
		return nil, fmt.Errorf("read body: %w", err)
	}
	if len(raw) == 0 {
		return nil, fmt.Errorf("empty request body")
	}
	var decoded map[string]interface{}
	if err := json.Unmarshal(raw, &decoded); err != nil {
		return nil, fmt.Errorf("parse body: %w", err)
	}
	return decoded, nil
}

// writeEnvelope serializes the payload/status pair into the wire envelope:
// successes as {"response": ..., "code": ...}, errors as {"error": ...,
// "code": ...}.
func writeEnvelope(w http.ResponseWriter, payload interface{}, code int) {
	envelope := map[string]interface{}{"code": code}
	if phrase, isError := errorText[code]; isError {
		message, ok := payload.(string)
		if !ok || message == "" {
			message = phrase
		}
		envelope["error"] = message
	} else {
		envelope["response"] = payload
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(envelope)
}
