package server

import (
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/goccy/go-json"

	"github.com/rushteam/recipekit/core"
	"github.com/rushteam/recipekit/pkg/logging"
)

// MaxPage 是允许的最大页码。
const MaxPage = 100000

// listQuery 是两个列表接口共用的查询参数，Page 上限与 MaxPage 一致。
type listQuery struct {
	Page     int    `validate:"gte=1,lte=100000"`
	Limit    int    `validate:"gte=1,ltefield=MaxLimit"`
	Username string `validate:"max=64"`
	MaxLimit int
}

// UsersResponse 是列表接口的响应体。
type UsersResponse struct {
	Users []core.UserPreview `json:"users"`
}

// ErrorBody 是错误响应体。
type ErrorBody struct {
	Error APIError `json:"error"`
}

// APIError 是对外暴露的错误码与消息。
type APIError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func intParam(r *http.Request, name string, def int) (int, error) {
	v := strings.TrimSpace(r.URL.Query().Get(name))
	if v == "" {
		return def, nil
	}
	return strconv.Atoi(v)
}

func (s *Server) parseList(r *http.Request) (*listQuery, error) {
	page, err := intParam(r, "page", 1)
	if err != nil {
		return nil, core.WrapDomainError(core.ModuleHTTP, core.ErrorCodeInvalidInput, "page must be an integer", err)
	}
	limit, err := intParam(r, "limit", s.opts.DefaultLimit)
	if err != nil {
		return nil, core.WrapDomainError(core.ModuleHTTP, core.ErrorCodeInvalidInput, "limit must be an integer", err)
	}
	q := &listQuery{
		Page:     page,
		Limit:    limit,
		Username: strings.TrimSpace(r.URL.Query().Get("username")),
		MaxLimit: s.opts.MaxLimit,
	}
	if err := s.validate.Struct(q); err != nil {
		return nil, core.WrapDomainError(core.ModuleHTTP, core.ErrorCodeInvalidInput, validationMessage(err), err)
	}
	return q, nil
}

func validationMessage(err error) string {
	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) && len(verrs) > 0 {
		return "invalid " + strings.ToLower(verrs[0].Field())
	}
	return "invalid query"
}

func (s *Server) handleRecommended(w http.ResponseWriter, r *http.Request) {
	viewerID := strings.TrimSpace(r.Header.Get(HeaderUserID))
	if viewerID == "" {
		writeError(w, http.StatusUnauthorized, "UNAUTHORIZED", "missing "+HeaderUserID)
		return
	}
	q, err := s.parseList(r)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	users, err := s.rec.GetRecommendedUsers(r.Context(), viewerID, q.Page, q.Limit, q.Username)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeUsers(w, users)
}

func (s *Server) handlePopular(w http.ResponseWriter, r *http.Request) {
	q, err := s.parseList(r)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	excludeID := strings.TrimSpace(r.Header.Get(HeaderUserID))
	users, err := s.rec.GetPopularUsers(r.Context(), excludeID, q.Page, q.Limit, q.Username)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeUsers(w, users)
}

func writeUsers(w http.ResponseWriter, users []core.UserPreview) {
	if users == nil {
		users = []core.UserPreview{}
	}
	writeJSON(w, http.StatusOK, UsersResponse{Users: users})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	data, err := json.Marshal(v)
	if err != nil {
		l := logging.Logger()
		l.Error().Err(err).Msg("marshal response")
		w.WriteHeader(http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if _, err := w.Write(data); err != nil {
		l := logging.Logger()
		l.Warn().Err(err).Msg("write response")
	}
}

func writeError(w http.ResponseWriter, status int, code, message string) {
	writeJSON(w, status, ErrorBody{Error: APIError{Code: code, Message: message}})
}

// writeDomainError 把 DomainError 映射为 HTTP 状态码；未知错误一律按内部错误处理。
func writeDomainError(w http.ResponseWriter, err error) {
	de := core.GetDomainError(err)
	if de == nil {
		writeError(w, http.StatusInternalServerError, core.ErrorCodeInternalError, "internal server error")
		return
	}
	status := http.StatusInternalServerError
	switch de.Code {
	case core.ErrorCodeInvalidInput:
		status = http.StatusBadRequest
	case core.ErrorCodeNotFound:
		status = http.StatusNotFound
	case core.ErrorCodeUnavailable:
		status = http.StatusServiceUnavailable
	}
	writeError(w, status, de.Code, de.Message)
}
